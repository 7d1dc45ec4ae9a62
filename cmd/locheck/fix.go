package main

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"locheck/internal/diag"
	"locheck/internal/driver"
	"locheck/internal/fix"
	"locheck/internal/respatch"
	"locheck/internal/suggest"
	"locheck/internal/ui"
)

var fixCmd = &cobra.Command{
	Use:   "fix [flags] [directory]",
	Short: "Apply available fixes for localization key problems",
	Long: `Run a check, surface the available fixes and apply them according to the
chosen strategy. Missing keys are added to resource files with a placeholder
value; renames to a suggested key need --id or --interactive.`,
	Args: cobra.MaximumNArgs(1),
	RunE: runFix,
}

func init() {
	fixCmd.Flags().Bool("all", false, "apply all safe fixes")
	fixCmd.Flags().Bool("once", false, "apply the first available fix (default)")
	fixCmd.Flags().String("id", "", "apply fix with a specific identifier")
	fixCmd.Flags().Bool("dry-run", false, "print the changes instead of writing them")
	fixCmd.Flags().Bool("interactive", false, "choose a fix for every missing key in a terminal picker")
	addRunFlags(fixCmd)
}

func runFix(cmd *cobra.Command, args []string) error {
	applyAll, err := cmd.Flags().GetBool("all")
	if err != nil {
		return err
	}
	applyOnceFlag, err := cmd.Flags().GetBool("once")
	if err != nil {
		return err
	}
	targetID, err := cmd.Flags().GetString("id")
	if err != nil {
		return err
	}
	dryRun, err := cmd.Flags().GetBool("dry-run")
	if err != nil {
		return err
	}
	interactive, err := cmd.Flags().GetBool("interactive")
	if err != nil {
		return err
	}

	if targetID != "" && (applyAll || applyOnceFlag) {
		return fmt.Errorf("--id cannot be combined with --all or --once")
	}
	if applyAll && applyOnceFlag {
		return fmt.Errorf("--all and --once are mutually exclusive")
	}
	if interactive && (applyAll || applyOnceFlag || targetID != "") {
		return fmt.Errorf("--interactive cannot be combined with --all, --once or --id")
	}
	if interactive && (!isTerminal(os.Stdin) || !isTerminal(os.Stderr)) {
		return fmt.Errorf("--interactive needs a terminal")
	}

	mode := fix.ApplyModeOnce
	if targetID != "" {
		mode = fix.ApplyModeID
	} else if applyAll || interactive {
		mode = fix.ApplyModeAll
	}
	opts := fix.ApplyOptions{Mode: mode, TargetID: targetID, DryRun: dryRun}

	g, err := readGlobals(cmd)
	if err != nil {
		return err
	}
	rf, err := readRunFlags(cmd)
	if err != nil {
		return err
	}
	m, err := loadManifest(g, args)
	if err != nil {
		return err
	}
	driverOpts, err := driverOptions(g, rf)
	if err != nil {
		return err
	}
	res, err := driver.Run(cmd.Context(), m, driverOpts)
	if err != nil {
		return fmt.Errorf("fix: check failed: %w", err)
	}
	if err := finishRun(g, rf, res, driverOpts); err != nil {
		return err
	}

	diagnostics := res.Bag.Items()
	if interactive {
		diagnostics, err = pickFixes(res, os.Stdin, os.Stderr)
		if err != nil {
			return err
		}
	}

	result, applyErr := fix.Apply(res.FileSet, diagnostics, opts)
	return handleApplyResult(cmd.OutOrStdout(), res, result, applyErr, dryRun)
}

// pickFixes asks for a decision on every missing key and returns synthetic
// diagnostics carrying only the chosen fixes. A key added once is not asked
// about again.
func pickFixes(res *driver.Result, in io.Reader, out io.Writer) ([]*diag.Diagnostic, error) {
	cat := res.Catalog
	keys := cat.Keys()
	placeholder := res.Engine.Placeholder()
	added := make(map[string]bool)

	var chosen []*diag.Diagnostic
	for _, d := range res.Bag.Items() {
		if d.Code != diag.KeyMissing || added[d.Key] {
			continue
		}
		start, _ := res.FileSet.Resolve(d.Primary)
		loc := ""
		if f := res.FileSet.Get(d.Primary.File); f != nil {
			loc = fmt.Sprintf("%s:%d:%d", relPath(res.Root, f.Path), start.Line, start.Col)
		}
		choice, err := ui.Pick(ui.PickerItem{
			Key:         d.Key,
			Location:    loc,
			Suggestions: suggest.Suggest(d.Key, keys, cat.Policy().CaseSensitive, 5),
			Placeholder: placeholder,
		}, in, out)
		if err != nil {
			return nil, err
		}

		var f *diag.Fix
		switch choice.Kind {
		case ui.ChoiceQuit:
			return chosen, nil
		case ui.ChoiceSkip:
			continue
		case ui.ChoiceRename:
			f = fix.LazyRename(d.Primary, choice.Key)
			// пользователь подтвердил замену сам
			f.Applicability = diag.FixApplicabilityAlwaysSafe
		case ui.ChoiceAdd:
			added[d.Key] = true
			f = fix.AddKeyFix(fmt.Sprintf("add '%s' to all cultures", d.Key),
				cat, d.Key, res.Engine.Cultures(), choice.Value, fix.Preferred())
		}
		picked := *d
		picked.Fixes = []*diag.Fix{f}
		chosen = append(chosen, &picked)
	}
	return chosen, nil
}

func handleApplyResult(out io.Writer, res *driver.Result, result *fix.ApplyResult, applyErr error, dryRun bool) error {
	if result == nil {
		return applyErr
	}
	if len(result.Applied) > 0 {
		verb := "Applied"
		if dryRun {
			verb = "Would apply"
		}
		fmt.Fprintf(out, "%s %d fix(es):\n", verb, len(result.Applied))
		for _, item := range result.Applied {
			location := item.PrimaryPath
			if location == "" {
				location = "(unknown location)"
			}
			fmt.Fprintf(out, "  %s [%s] %s (%d edits, %s)\n",
				item.Title, item.ID, relPath(res.Root, location), item.EditCount, item.Applicability)
		}
	}

	if len(result.FileChanges) > 0 {
		if dryRun {
			fmt.Fprintln(out, "Changes:")
		} else {
			fmt.Fprintln(out, "Updated files:")
		}
		for _, change := range result.FileChanges {
			fmt.Fprintf(out, "  %s (%d edits)\n", relPath(res.Root, change.Path), change.EditCount)
			if dryRun {
				printChange(out, change)
			}
		}
	}

	if len(result.Skipped) > 0 {
		fmt.Fprintln(out, "Skipped fixes:")
		for _, skip := range result.Skipped {
			id := skip.ID
			if id == "" {
				id = "(unnamed)"
			}
			if skip.Title != "" {
				fmt.Fprintf(out, "  %s [%s]: %s\n", skip.Title, id, skip.Reason)
			} else {
				fmt.Fprintf(out, "  [%s]: %s\n", id, skip.Reason)
			}
		}
	}

	if errors.Is(applyErr, fix.ErrNoFixes) {
		fmt.Fprintln(out, "No applicable fixes found.")
		return nil
	}
	return applyErr
}

// printChange shows a resource change as its JSON merge patch and a code
// change as the lines that differ.
func printChange(out io.Writer, change fix.FileChange) {
	if strings.EqualFold(filepath.Ext(change.Path), ".json") {
		if delta, err := respatch.Delta(change.Before, change.After); err == nil {
			fmt.Fprintf(out, "    merge patch: %s\n", delta)
			return
		}
	}
	before := strings.Split(change.Before, "\n")
	after := strings.Split(change.After, "\n")
	if len(before) != len(after) {
		fmt.Fprintf(out, "    %d -> %d lines\n", len(before), len(after))
		return
	}
	for i := range before {
		if before[i] != after[i] {
			fmt.Fprintf(out, "    %d - %s\n    %d + %s\n", i+1, strings.TrimSpace(before[i]), i+1, strings.TrimSpace(after[i]))
		}
	}
}

func relPath(root, p string) string {
	if rel, err := filepath.Rel(root, p); err == nil && !strings.HasPrefix(rel, "..") {
		return filepath.ToSlash(rel)
	}
	return p
}
