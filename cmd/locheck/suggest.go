package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"locheck/internal/driver"
	"locheck/internal/suggest"
)

var suggestCmd = &cobra.Command{
	Use:   "suggest [flags] <key> [directory]",
	Short: "Rank catalog keys similar to a key",
	Args:  cobra.RangeArgs(1, 2),
	RunE:  runSuggest,
}

func init() {
	suggestCmd.Flags().Int("top", 5, "number of candidates to print")
	suggestCmd.Flags().Int("jobs", 0, "max parallel workers (0=auto)")
}

func runSuggest(cmd *cobra.Command, args []string) error {
	top, err := cmd.Flags().GetInt("top")
	if err != nil {
		return fmt.Errorf("failed to get top flag: %w", err)
	}
	jobs, err := cmd.Flags().GetInt("jobs")
	if err != nil {
		return fmt.Errorf("failed to get jobs flag: %w", err)
	}
	g, err := readGlobals(cmd)
	if err != nil {
		return err
	}
	m, err := loadManifest(g, args[1:])
	if err != nil {
		return err
	}
	res, err := driver.LoadCatalog(cmd.Context(), m, driver.Options{Jobs: jobs})
	if err != nil {
		return fmt.Errorf("suggest: %w", err)
	}

	cat := res.Catalog
	key := args[0]
	out := cmd.OutOrStdout()
	if cat.Has(key) {
		fmt.Fprintf(out, "'%s' is defined\n", key)
		return nil
	}
	candidates := suggest.Suggest(key, cat.Keys(), cat.Policy().CaseSensitive, top)
	if len(candidates) == 0 {
		fmt.Fprintf(out, "no keys similar to '%s'\n", key)
		return nil
	}
	for _, c := range candidates {
		fmt.Fprintf(out, "%5d  %s\n", c.Score, c.Key)
	}
	return nil
}
