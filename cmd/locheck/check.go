package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"locheck/internal/diag"
	"locheck/internal/diagfmt"
	"locheck/internal/driver"
	"locheck/internal/version"
)

var checkCmd = &cobra.Command{
	Use:   "check [flags] [directory]",
	Short: "Report missing, unused and inconsistent localization keys",
	Long: `Scan resource files and source code under the directory (default: the
current one) and report localization key problems. Exits with status 1 when
errors are found.`,
	Args: cobra.MaximumNArgs(1),
	RunE: runCheck,
}

func init() {
	checkCmd.Flags().String("format", "pretty", "output format (pretty|short|json|sarif|yaml)")
	checkCmd.Flags().Bool("warnings-as-errors", false, "exit with status 1 on warnings too")
	checkCmd.Flags().Bool("no-warnings", false, "drop warnings from the output")
	checkCmd.Flags().Bool("with-notes", true, "include diagnostic notes in output")
	checkCmd.Flags().Bool("suggest", false, "include fix suggestions in output")
	checkCmd.Flags().Bool("preview", false, "include before/after lines of fixes (json, yaml)")
	checkCmd.Flags().String("path-mode", "relative", "how paths are printed (auto|relative|absolute|basename)")
	checkCmd.Flags().Int("context", 0, "source lines of context around each diagnostic (pretty)")
	addRunFlags(checkCmd)
}

func addRunFlags(cmd *cobra.Command) {
	cmd.Flags().Int("jobs", 0, "max parallel workers (0=auto)")
	cmd.Flags().Bool("cache", false, "reuse parsed resource files from the user cache directory")
	cmd.Flags().String("ui", "off", "progress display on stderr (auto|on|off)")
	cmd.Flags().String("metrics-file", "", "write Prometheus textfile metrics to this path")
}

func readRunFlags(cmd *cobra.Command) (runFlags, error) {
	var rf runFlags
	var err error
	if rf.jobs, err = cmd.Flags().GetInt("jobs"); err != nil {
		return rf, fmt.Errorf("failed to get jobs flag: %w", err)
	}
	if rf.cache, err = cmd.Flags().GetBool("cache"); err != nil {
		return rf, fmt.Errorf("failed to get cache flag: %w", err)
	}
	if rf.ui, err = cmd.Flags().GetString("ui"); err != nil {
		return rf, fmt.Errorf("failed to get ui flag: %w", err)
	}
	if rf.metricsFile, err = cmd.Flags().GetString("metrics-file"); err != nil {
		return rf, fmt.Errorf("failed to get metrics-file flag: %w", err)
	}
	return rf, nil
}

type checkFlags struct {
	format           string
	warningsAsErrors bool
	noWarnings       bool
	withNotes        bool
	suggest          bool
	preview          bool
	pathMode         diagfmt.PathMode
	context          int
}

func readCheckFlags(cmd *cobra.Command) (checkFlags, error) {
	var cf checkFlags
	var err error
	if cf.format, err = cmd.Flags().GetString("format"); err != nil {
		return cf, fmt.Errorf("failed to get format flag: %w", err)
	}
	switch cf.format {
	case "pretty", "short", "json", "sarif", "yaml":
	default:
		return cf, fmt.Errorf("unknown format: %s", cf.format)
	}
	if cf.warningsAsErrors, err = cmd.Flags().GetBool("warnings-as-errors"); err != nil {
		return cf, fmt.Errorf("failed to get warnings-as-errors flag: %w", err)
	}
	if cf.noWarnings, err = cmd.Flags().GetBool("no-warnings"); err != nil {
		return cf, fmt.Errorf("failed to get no-warnings flag: %w", err)
	}
	if cf.noWarnings && cf.warningsAsErrors {
		return cf, fmt.Errorf("no-warnings and warnings-as-errors flags cannot be used together")
	}
	if cf.withNotes, err = cmd.Flags().GetBool("with-notes"); err != nil {
		return cf, fmt.Errorf("failed to get with-notes flag: %w", err)
	}
	if cf.suggest, err = cmd.Flags().GetBool("suggest"); err != nil {
		return cf, fmt.Errorf("failed to get suggest flag: %w", err)
	}
	if cf.preview, err = cmd.Flags().GetBool("preview"); err != nil {
		return cf, fmt.Errorf("failed to get preview flag: %w", err)
	}
	mode, err := cmd.Flags().GetString("path-mode")
	if err != nil {
		return cf, fmt.Errorf("failed to get path-mode flag: %w", err)
	}
	var ok bool
	if cf.pathMode, ok = diagfmt.ParsePathMode(mode); !ok {
		return cf, fmt.Errorf("unknown path mode: %s", mode)
	}
	if cf.context, err = cmd.Flags().GetInt("context"); err != nil {
		return cf, fmt.Errorf("failed to get context flag: %w", err)
	}
	return cf, nil
}

// runCheck runs a full check and renders the bag in the chosen format. It
// returns errFindings when errors (or, with --warnings-as-errors, warnings)
// were reported.
func runCheck(cmd *cobra.Command, args []string) error {
	g, err := readGlobals(cmd)
	if err != nil {
		return err
	}
	cf, err := readCheckFlags(cmd)
	if err != nil {
		return err
	}
	rf, err := readRunFlags(cmd)
	if err != nil {
		return err
	}
	useTUI, err := shouldUseTUI(rf.ui, g)
	if err != nil {
		return err
	}

	m, err := loadManifest(g, args)
	if err != nil {
		return err
	}
	opts, err := driverOptions(g, rf)
	if err != nil {
		return err
	}
	opts.EmitTimings = g.timings && cf.format != "pretty" && cf.format != "short"

	var res *driver.Result
	if useTUI {
		res, err = runWithUI(cmd.Context(), m, opts)
	} else {
		res, err = driver.Run(cmd.Context(), m, opts)
	}
	if err != nil {
		return fmt.Errorf("check failed: %w", err)
	}

	bag := res.Bag
	if cf.noWarnings {
		bag.Filter(func(d *diag.Diagnostic) bool { return d.Severity != diag.SevWarning })
	}
	if cf.warningsAsErrors {
		bag.Transform(func(d *diag.Diagnostic) {
			if d.Severity == diag.SevWarning {
				d.Severity = diag.SevError
			}
		})
	}

	out := cmd.OutOrStdout()
	switch cf.format {
	case "pretty":
		err = diagfmt.Pretty(out, bag, res.FileSet, diagfmt.PrettyOpts{
			Color:     g.color,
			Context:   int8(min(max(cf.context, 0), 8)),
			PathMode:  cf.pathMode,
			ShowNotes: cf.withNotes,
			ShowFixes: cf.suggest,
		})
		if err == nil && !g.quiet {
			err = diagfmt.Summary(out, bag, g.color)
		}
	case "short":
		err = diagfmt.Short(out, bag, res.FileSet, cf.withNotes)
	case "json", "yaml":
		jsonOpts := diagfmt.JSONOpts{
			IncludePositions: true,
			PathMode:         cf.pathMode,
			IncludeNotes:     cf.withNotes,
			IncludeFixes:     cf.suggest || cf.preview,
			IncludePreviews:  cf.preview,
		}
		if cf.format == "json" {
			err = diagfmt.JSON(out, bag, res.FileSet, jsonOpts)
		} else {
			err = diagfmt.YAML(out, bag, res.FileSet, jsonOpts)
		}
	case "sarif":
		err = diagfmt.Sarif(out, bag, res.FileSet, diagfmt.SarifRunMeta{
			ToolName:       "locheck",
			ToolVersion:    version.Version,
			InvocationArgs: os.Args[1:],
		})
	}
	if err != nil {
		return fmt.Errorf("failed to render diagnostics: %w", err)
	}
	if err := finishRun(g, rf, res, opts); err != nil {
		return err
	}
	if bag.HasErrors() {
		return errFindings
	}
	return nil
}
