package main

import (
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"locheck/internal/version"
)

var rootCmd = &cobra.Command{
	Use:   "locheck",
	Short: "Localization key consistency checker",
	Long: `locheck cross-references the localization keys used in source code with
the keys defined in JSON resource files and reports missing, unused,
partially translated and duplicated keys.`,
	SilenceUsage:      true,
	SilenceErrors:     true,
	PersistentPreRunE: setupGlobals,
}

func init() {
	rootCmd.Version = version.Version

	rootCmd.AddCommand(checkCmd)
	rootCmd.AddCommand(fixCmd)
	rootCmd.AddCommand(suggestCmd)
	rootCmd.AddCommand(keysCmd)
	rootCmd.AddCommand(initCmd)
	rootCmd.AddCommand(versionCmd)

	// Глобальные флаги
	rootCmd.PersistentFlags().String("color", "auto", "colorize output (auto|on|off)")
	rootCmd.PersistentFlags().Bool("quiet", false, "suppress non-essential output")
	rootCmd.PersistentFlags().Bool("verbose", false, "enable debug logging")
	rootCmd.PersistentFlags().Bool("timings", false, "show timing information")
	rootCmd.PersistentFlags().Int("max-diagnostics", 0, "maximum number of diagnostics to collect (0=unlimited)")
	rootCmd.PersistentFlags().String("config", "", "path to "+configFileHint+" (default: search upwards from the target)")
	rootCmd.PersistentFlags().String("cpu-profile", "", "write CPU profile to file")
	rootCmd.PersistentFlags().String("mem-profile", "", "write heap profile to file on exit")
	rootCmd.PersistentFlags().String("runtime-trace", "", "write runtime trace to file")
}

// main runs the root command. Any error exits with status 1; errFindings
// exits silently.
func main() {
	err := rootCmd.Execute()
	if stopErr := stopProfiling(); stopErr != nil {
		fmt.Fprintln(os.Stderr, "error: profiling:", stopErr)
	}
	if err != nil {
		if !errors.Is(err, errFindings) {
			fmt.Fprintln(os.Stderr, "error:", err)
		}
		os.Exit(1)
	}
}
