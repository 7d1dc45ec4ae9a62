package fix

import (
	"cmp"
	"errors"
	"fmt"
	"os"
	"slices"

	"locheck/internal/diag"
	"locheck/internal/respatch"
	"locheck/internal/source"
)

// ErrNoFixes is returned when no fixes were applied.
var ErrNoFixes = errors.New("no applicable fixes found")

// ApplyMode determines selection strategy for fixes.
type ApplyMode uint8

const (
	ApplyModeOnce ApplyMode = iota
	ApplyModeAll
	ApplyModeID
)

// ApplyOptions configures how fixes are selected.
type ApplyOptions struct {
	Mode     ApplyMode
	TargetID string
	// DryRun computes every change but writes nothing.
	DryRun bool
}

// AppliedFix records a successfully applied fix.
type AppliedFix struct {
	ID            string
	Title         string
	Code          diag.Code
	Message       string
	Applicability diag.FixApplicability
	PrimaryPath   string
	EditCount     int
}

// SkippedFix captures a skipped or failed fix with a reason.
type SkippedFix struct {
	ID     string
	Title  string
	Reason string
}

// FileChange summarises modifications performed on a file.
type FileChange struct {
	Path      string
	EditCount int
	Before    string
	After     string
}

// ApplyResult aggregates applied fixes, skipped ones, and file changes.
type ApplyResult struct {
	Applied     []AppliedFix
	Skipped     []SkippedFix
	FileChanges []FileChange
}

type candidate struct {
	diag  *diag.Diagnostic
	fix   diag.Fix
	order int
}

// Apply collects fixes from diagnostics, selects a subset according to opts, and applies them.
func Apply(fs *source.FileSet, diagnostics []*diag.Diagnostic, opts ApplyOptions) (*ApplyResult, error) {
	result := &ApplyResult{
		Applied:     make([]AppliedFix, 0),
		Skipped:     make([]SkippedFix, 0),
		FileChanges: make([]FileChange, 0),
	}
	if fs == nil {
		return result, fmt.Errorf("fix: FileSet is nil")
	}

	ctx := diag.FixBuildContext{FileSet: fs}
	candidates, buildSkips := gatherCandidates(ctx, diagnostics)
	result.Skipped = append(result.Skipped, buildSkips...)

	if len(candidates) == 0 {
		return result, ErrNoFixes
	}

	sortCandidates(candidates)

	selected, selectionSkips := selectCandidates(candidates, opts)
	result.Skipped = append(result.Skipped, selectionSkips...)

	if len(selected) == 0 {
		return result, ErrNoFixes
	}

	applied, skippedDuringApply, changes, err := applyCandidates(fs, selected, opts.DryRun)
	result.Applied = append(result.Applied, applied...)
	result.Skipped = append(result.Skipped, skippedDuringApply...)
	result.FileChanges = append(result.FileChanges, changes...)

	if err != nil {
		return result, err
	}
	if len(result.Applied) == 0 {
		return result, ErrNoFixes
	}
	return result, nil
}

// gatherCandidates materialises the fixes of every diagnostic. Fixes without
// changes are skipped, and so is every fix whose ID was already seen: one
// missing key used in ten places yields one add-key fix, not ten.
func gatherCandidates(ctx diag.FixBuildContext, diagnostics []*diag.Diagnostic) ([]candidate, []SkippedFix) {
	cands := make([]candidate, 0)
	skips := make([]SkippedFix, 0)
	seen := make(map[string]struct{})

	order := 0
	for _, d := range diagnostics {
		if d == nil || len(d.Fixes) == 0 {
			continue
		}

		resolved, err := diag.MaterializeFixes(ctx, d.Fixes)
		if err != nil {
			skips = append(skips, SkippedFix{
				Title:  d.Message,
				Reason: fmt.Sprintf("failed to build fixes: %v", err),
			})
			continue
		}

		for idx, f := range resolved {
			if f.Empty() {
				skips = append(skips, SkippedFix{
					ID:     f.ID,
					Title:  f.Title,
					Reason: "fix has no edits",
				})
				continue
			}
			if f.ID == "" {
				f.ID = fmt.Sprintf("%s-%d-%d-%d", d.Code.ID(), d.Primary.File, d.Primary.Start, idx)
			}
			if _, dup := seen[f.ID]; dup {
				skips = append(skips, SkippedFix{
					ID:     f.ID,
					Title:  f.Title,
					Reason: "duplicate fix id",
				})
				continue
			}
			seen[f.ID] = struct{}{}
			cands = append(cands, candidate{
				diag:  d,
				fix:   f,
				order: order,
			})
			order++
		}
	}
	return cands, skips
}

// sortCandidates orders by primary span, then discovery order. Preferred
// fixes win ties; ID and title keep the result total.
func sortCandidates(candidates []candidate) {
	slices.SortStableFunc(candidates, func(a, b candidate) int {
		pa, pb := a.diag.Primary, b.diag.Primary
		return cmp.Or(
			cmp.Compare(pa.File, pb.File),
			cmp.Compare(pa.Start, pb.Start),
			cmp.Compare(pa.End, pb.End),
			cmp.Compare(a.order, b.order),
			cmp.Compare(a.diag.Code, b.diag.Code),
			preferredFirst(a.fix, b.fix),
			cmp.Compare(a.fix.ID, b.fix.ID),
			cmp.Compare(a.fix.Title, b.fix.Title),
		)
	})
}

func preferredFirst(a, b diag.Fix) int {
	switch {
	case a.IsPreferred == b.IsPreferred:
		return 0
	case a.IsPreferred:
		return -1
	}
	return 1
}

func isSafe(c candidate) bool {
	return c.fix.Applicability == diag.FixApplicabilityAlwaysSafe
}

// selectCandidates picks fixes for the mode. --all takes only safe fixes,
// --once takes the first safe one or else the first one at all.
func selectCandidates(candidates []candidate, opts ApplyOptions) ([]candidate, []SkippedFix) {
	switch opts.Mode {
	case ApplyModeID:
		idx := slices.IndexFunc(candidates, func(c candidate) bool { return c.fix.ID == opts.TargetID })
		if idx < 0 {
			return nil, []SkippedFix{{ID: opts.TargetID, Reason: "fix id not found"}}
		}
		return candidates[idx : idx+1], nil
	case ApplyModeAll:
		var selected []candidate
		var skipped []SkippedFix
		for _, c := range candidates {
			if isSafe(c) {
				selected = append(selected, c)
				continue
			}
			skipped = append(skipped, SkippedFix{
				ID:     c.fix.ID,
				Title:  c.fix.Title,
				Reason: "applicability is " + c.fix.Applicability.String(),
			})
		}
		return selected, skipped
	case ApplyModeOnce:
		if len(candidates) == 0 {
			return nil, nil
		}
		if idx := slices.IndexFunc(candidates, isSafe); idx >= 0 {
			return candidates[idx : idx+1], nil
		}
		return candidates[:1], nil
	}
	return nil, nil
}

// fileState is the working copy of one file across all selected fixes.
// A file rewritten by key additions is re-serialised as a whole, so span
// edits on it afterwards (or before) can no longer be positioned.
type fileState struct {
	buf     []byte
	edits   []diag.TextEdit // applied span edits, sorted
	patched bool
	count   int
}

func applyCandidates(fs *source.FileSet, selected []candidate, dryRun bool) ([]AppliedFix, []SkippedFix, []FileChange, error) {
	states := make(map[source.FileID]*fileState)
	var order []source.FileID

	applied := make([]AppliedFix, 0, len(selected))
	skipped := make([]SkippedFix, 0)

	baseDir := fs.BaseDir()

	for _, cand := range selected {
		staged, total, skipReason := stageFix(fs, states, cand.fix, dryRun)
		if skipReason != "" {
			skipped = append(skipped, SkippedFix{
				ID:     cand.fix.ID,
				Title:  cand.fix.Title,
				Reason: skipReason,
			})
			continue
		}

		for id, st := range staged {
			if _, ok := states[id]; !ok {
				order = append(order, id)
			}
			states[id] = st
		}

		applied = append(applied, AppliedFix{
			ID:            cand.fix.ID,
			Title:         cand.fix.Title,
			Code:          cand.diag.Code,
			Message:       cand.diag.Message,
			Applicability: cand.fix.Applicability,
			PrimaryPath:   formatFilePath(fs, cand.diag.Primary.File),
			EditCount:     total,
		})
	}

	if len(applied) == 0 {
		return applied, skipped, nil, nil
	}

	fileChanges := make([]FileChange, 0, len(order))
	for _, fileID := range order {
		st := states[fileID]
		if st.count == 0 {
			continue
		}
		file := fs.Get(fileID)

		if !dryRun {
			mode := os.FileMode(0o644)
			if info, err := os.Stat(file.Path); err == nil {
				mode = info.Mode()
			}
			if err := os.WriteFile(file.Path, file.Denormalize(st.buf), mode); err != nil {
				return applied, skipped, fileChanges, fmt.Errorf("write %s: %w", file.Path, err)
			}
		}

		fileChanges = append(fileChanges, FileChange{
			Path:      file.FormatPath("relative", baseDir),
			EditCount: st.count,
			Before:    string(file.Content),
			After:     string(st.buf),
		})
	}

	slices.SortStableFunc(fileChanges, func(a, b FileChange) int { return cmp.Compare(a.Path, b.Path) })

	return applied, skipped, fileChanges, nil
}

// stageFix applies one fix on copies of the current file states. Either every
// change of the fix lands or none does.
func stageFix(fs *source.FileSet, states map[source.FileID]*fileState, f diag.Fix, dryRun bool) (map[source.FileID]*fileState, int, string) {
	staged := make(map[source.FileID]*fileState)
	baseDir := fs.BaseDir()

	working := func(id source.FileID) (*fileState, string) {
		if st, ok := staged[id]; ok {
			return st, ""
		}
		file := fs.Get(id)
		if file == nil {
			return nil, "target file is unknown"
		}
		if !dryRun && file.Flags&source.FileVirtual != 0 {
			return nil, "target file is virtual"
		}
		st := &fileState{buf: append([]byte(nil), file.Content...)}
		if prev, ok := states[id]; ok {
			st.buf = append([]byte(nil), prev.buf...)
			st.edits = append([]diag.TextEdit(nil), prev.edits...)
			st.patched = prev.patched
			st.count = prev.count
		}
		staged[id] = st
		return st, ""
	}

	total := 0
	for fileID, edits := range groupEditsByFile(f.Edits) {
		st, reason := working(fileID)
		if reason != "" {
			return nil, 0, reason
		}
		file := fs.Get(fileID)
		if st.patched {
			return nil, 0, fmt.Sprintf("%s was rewritten by a key addition", file.FormatPath("auto", baseDir))
		}
		if conflictsWithExisting(st.edits, edits) {
			return nil, 0, fmt.Sprintf("conflicts with previously applied edits in %s", file.FormatPath("auto", baseDir))
		}

		// с конца файла к началу
		slices.SortStableFunc(edits, func(a, b diag.TextEdit) int { return compareEdits(b, a) })

		for _, edit := range edits {
			start := int(edit.Span.Start) + shift(st.edits, edit.Span.Start)
			end := int(edit.Span.End) + shift(st.edits, edit.Span.End)
			if start < 0 || end < start || end > len(st.buf) {
				return nil, 0, "edit span out of range"
			}
			if edit.OldText != "" && string(st.buf[start:end]) != edit.OldText {
				return nil, 0, "existing text does not match expected content"
			}
			suffix := append([]byte(nil), st.buf[end:]...)
			st.buf = append(append(st.buf[:start], edit.NewText...), suffix...)
			st.edits = insertEditSorted(st.edits, edit)
		}
		st.count += len(edits)
		total += len(edits)
	}

	for _, a := range f.Additions {
		st, reason := working(a.File)
		if reason != "" {
			return nil, 0, reason
		}
		if len(st.edits) > 0 {
			return nil, 0, fmt.Sprintf("%s has pending text edits", fs.Get(a.File).FormatPath("auto", baseDir))
		}
		change := FileContent{Before: string(st.buf), After: respatch.Apply(string(st.buf), a.Key, a.Value)}
		if !change.Changed() {
			continue
		}
		st.buf = []byte(change.After)
		st.patched = true
		st.count++
		total++
	}
	if total == 0 {
		return nil, 0, "fix changes nothing"
	}
	return staged, total, ""
}

func conflictsWithExisting(existing []diag.TextEdit, edits []diag.TextEdit) bool {
	return slices.ContainsFunc(edits, func(e diag.TextEdit) bool {
		return slices.ContainsFunc(existing, func(prev diag.TextEdit) bool {
			return overlaps(prev.Span, e.Span)
		})
	})
}

// overlaps treats spans as half-open ranges. Two insertions at the same
// offset are fine; an insertion inside a replaced range is not.
func overlaps(a, b source.Span) bool {
	aEmpty, bEmpty := a.Start == a.End, b.Start == b.End
	switch {
	case aEmpty && bEmpty:
		return false
	case aEmpty:
		return b.Start <= a.Start && a.Start < b.End
	case bEmpty:
		return a.Start <= b.Start && b.Start < a.End
	}
	return a.Start < b.End && b.Start < a.End
}

func groupEditsByFile(edits []diag.TextEdit) map[source.FileID][]diag.TextEdit {
	buckets := make(map[source.FileID][]diag.TextEdit)
	for _, edit := range edits {
		buckets[edit.Span.File] = append(buckets[edit.Span.File], edit)
	}
	return buckets
}

// shift returns how far pos moved after the already applied edits.
func shift(applied []diag.TextEdit, pos uint32) int {
	delta := 0
	for _, e := range applied {
		if e.Span.Start > pos {
			break
		}
		if e.Span.End <= pos {
			delta += len(e.NewText) - int(e.Span.End-e.Span.Start)
		}
	}
	return delta
}

func compareEdits(a, b diag.TextEdit) int {
	return cmp.Or(cmp.Compare(a.Span.Start, b.Span.Start), cmp.Compare(a.Span.End, b.Span.End))
}

func insertEditSorted(edits []diag.TextEdit, edit diag.TextEdit) []diag.TextEdit {
	idx, _ := slices.BinarySearchFunc(edits, edit, compareEdits)
	return slices.Insert(edits, idx, edit)
}

func formatFilePath(fs *source.FileSet, fileID source.FileID) string {
	if fs == nil {
		return ""
	}
	file := fs.Get(fileID)
	if file == nil {
		return ""
	}
	return file.FormatPath("relative", fs.BaseDir())
}
