package main

import (
	"fmt"
	"strconv"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	"github.com/spf13/cobra"

	"locheck/internal/culture"
	"locheck/internal/driver"
)

var keysCmd = &cobra.Command{
	Use:   "keys [flags] [directory]",
	Short: "List catalog keys and per-culture coverage",
	Args:  cobra.MaximumNArgs(1),
	RunE:  runKeys,
}

func init() {
	keysCmd.Flags().String("culture", "", "list the keys of one culture only")
	keysCmd.Flags().Bool("summary", false, "print coverage only")
	keysCmd.Flags().Int("jobs", 0, "max parallel workers (0=auto)")
}

func runKeys(cmd *cobra.Command, args []string) error {
	only, err := cmd.Flags().GetString("culture")
	if err != nil {
		return fmt.Errorf("failed to get culture flag: %w", err)
	}
	summaryOnly, err := cmd.Flags().GetBool("summary")
	if err != nil {
		return fmt.Errorf("failed to get summary flag: %w", err)
	}
	jobs, err := cmd.Flags().GetInt("jobs")
	if err != nil {
		return fmt.Errorf("failed to get jobs flag: %w", err)
	}
	g, err := readGlobals(cmd)
	if err != nil {
		return err
	}
	m, err := loadManifest(g, args)
	if err != nil {
		return err
	}
	res, err := driver.LoadCatalog(cmd.Context(), m, driver.Options{Jobs: jobs})
	if err != nil {
		return fmt.Errorf("keys: %w", err)
	}
	cat := res.Catalog
	out := cmd.OutOrStdout()

	if only != "" {
		for _, e := range cat.Entries(only) {
			fmt.Fprintln(out, e.Key)
		}
		return nil
	}
	if !summaryOnly {
		for _, c := range cat.Cultures() {
			for _, e := range cat.Entries(c) {
				fmt.Fprintf(out, "%s\t%s\n", c, e.Key)
			}
		}
	}

	total := cat.Len()
	t := table.New().
		Border(lipgloss.NormalBorder()).
		Headers("CULTURE", "KEYS", "COVERAGE", "FILES")
	for _, c := range cat.EffectiveCultures() {
		n := len(cat.Entries(c))
		name := c
		if g.verbose {
			if canon, ok := culture.Canonical(c); ok && canon != c {
				name = fmt.Sprintf("%s (%s)", c, canon)
			}
		}
		t.Row(name, strconv.Itoa(n), coverage(n, total), strconv.Itoa(len(cat.FilesFor(c))))
	}
	t.Row("total", strconv.Itoa(total), "", strconv.Itoa(len(cat.Files())))
	fmt.Fprintln(out, t.Render())
	if skipped := cat.Skipped(); len(skipped) > 0 && !g.quiet {
		fmt.Fprintf(out, "%d resource file(s) skipped as invalid JSON\n", len(skipped))
	}
	return nil
}

func coverage(n, total int) string {
	if total == 0 {
		return "-"
	}
	return fmt.Sprintf("%.1f%%", 100*float64(n)/float64(total))
}
