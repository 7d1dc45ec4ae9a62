package diagfmt

import (
	"cmp"
	"encoding/json"
	"io"
	"slices"

	"locheck/internal/diag"
	"locheck/internal/source"
)

// Location is a span in machine-readable form. Line and column are 1-based
// and present only with JSONOpts.IncludePositions.
type Location struct {
	File      string `json:"file"`
	StartByte uint32 `json:"start_byte"`
	EndByte   uint32 `json:"end_byte"`
	StartLine uint32 `json:"start_line,omitempty"`
	StartCol  uint32 `json:"start_col,omitempty"`
	EndLine   uint32 `json:"end_line,omitempty"`
	EndCol    uint32 `json:"end_col,omitempty"`
}

// Note — дополнительная заметка к диагностике
type Note struct {
	Message  string   `json:"message"`
	Location Location `json:"location"`
}

// Edit is a text replacement, optionally with the touched lines before and
// after it.
type Edit struct {
	Location    Location `json:"location"`
	NewText     string   `json:"new_text"`
	OldText     string   `json:"old_text,omitempty"`
	BeforeLines []string `json:"before_lines,omitempty"`
	AfterLines  []string `json:"after_lines,omitempty"`
}

// Addition is a key a fix adds to a resource file.
type Addition struct {
	File    string `json:"file"`
	Culture string `json:"culture,omitempty"`
	Key     string `json:"key"`
	Value   string `json:"value"`
}

// FixEntry is a resolved fix. A fix that failed to build carries only its
// header and BuildError.
type FixEntry struct {
	ID            string     `json:"id,omitempty"`
	Title         string     `json:"title"`
	Kind          string     `json:"kind"`
	Applicability string     `json:"applicability"`
	IsPreferred   bool       `json:"is_preferred,omitempty"`
	BuildError    string     `json:"build_error,omitempty"`
	Edits         []Edit     `json:"edits,omitempty"`
	Additions     []Addition `json:"additions,omitempty"`
}

// Entry is one diagnostic.
type Entry struct {
	Severity string     `json:"severity"`
	Code     string     `json:"code"`
	Message  string     `json:"message"`
	Key      string     `json:"key,omitempty"`
	Cultures []string   `json:"cultures,omitempty"`
	Location Location   `json:"location"`
	Notes    []Note     `json:"notes,omitempty"`
	Fixes    []FixEntry `json:"fixes,omitempty"`
}

// Report is the document written by the json and yaml formats.
type Report struct {
	Diagnostics []Entry `json:"diagnostics"`
	Count       int     `json:"count"`
}

type reportBuilder struct {
	fs   *source.FileSet
	opts JSONOpts
}

func (b reportBuilder) location(span source.Span) Location {
	loc := Location{
		File:      formatPath(b.fs, span.File, b.opts.PathMode),
		StartByte: span.Start,
		EndByte:   span.End,
	}
	if b.opts.IncludePositions {
		start, end := b.fs.Resolve(span)
		loc.StartLine, loc.StartCol = start.Line, start.Col
		loc.EndLine, loc.EndCol = end.Line, end.Col
	}
	return loc
}

// BuildReport converts the bag into a Report without serialising it.
func BuildReport(bag *diag.Bag, fs *source.FileSet, opts JSONOpts) Report {
	b := reportBuilder{fs: fs, opts: opts}
	items := bag.Items()
	if opts.Max > 0 && opts.Max < len(items) {
		items = items[:opts.Max]
	}

	entries := make([]Entry, 0, len(items))
	for _, d := range items {
		entries = append(entries, b.entry(d))
	}
	return Report{Diagnostics: entries, Count: len(entries)}
}

func (b reportBuilder) entry(d *diag.Diagnostic) Entry {
	e := Entry{
		Severity: d.Severity.String(),
		Code:     d.Code.ID(),
		Message:  d.Message,
		Key:      d.Key,
		Cultures: d.Cultures,
		Location: b.location(d.Primary),
	}
	// заметки таймингов несут сам отчёт, их не прячем
	if (b.opts.IncludeNotes || d.Code == diag.ObsTimings) && len(d.Notes) > 0 {
		e.Notes = make([]Note, 0, len(d.Notes))
		for _, n := range d.Notes {
			e.Notes = append(e.Notes, Note{Message: n.Msg, Location: b.location(n.Span)})
		}
	}
	if b.opts.IncludeFixes && len(d.Fixes) > 0 {
		e.Fixes = b.fixes(d.Fixes)
	}
	return e
}

// fixes lists preferred fixes first, then by applicability, kind, title, ID.
func (b reportBuilder) fixes(in []*diag.Fix) []FixEntry {
	ordered := slices.Clone(in)
	slices.SortStableFunc(ordered, func(x, y *diag.Fix) int {
		if x.IsPreferred != y.IsPreferred {
			if x.IsPreferred {
				return -1
			}
			return 1
		}
		return cmp.Or(
			cmp.Compare(x.Applicability, y.Applicability),
			cmp.Compare(x.Kind, y.Kind),
			cmp.Compare(x.Title, y.Title),
			cmp.Compare(x.ID, y.ID),
		)
	})

	ctx := diag.FixBuildContext{FileSet: b.fs}
	out := make([]FixEntry, 0, len(ordered))
	for _, f := range ordered {
		resolved, err := f.Resolve(ctx)
		entry := FixEntry{
			ID:            resolved.ID,
			Title:         resolved.Title,
			Kind:          resolved.Kind.String(),
			Applicability: resolved.Applicability.String(),
			IsPreferred:   resolved.IsPreferred,
		}
		if err != nil {
			entry.BuildError = err.Error()
		} else {
			entry.Edits = b.edits(resolved.Edits)
			for _, a := range resolved.Additions {
				entry.Additions = append(entry.Additions, Addition{
					File:    formatPath(b.fs, a.File, b.opts.PathMode),
					Culture: a.Culture,
					Key:     a.Key,
					Value:   a.Value,
				})
			}
		}
		out = append(out, entry)
	}
	return out
}

func (b reportBuilder) edits(in []diag.TextEdit) []Edit {
	var out []Edit
	for _, te := range in {
		e := Edit{Location: b.location(te.Span), NewText: te.NewText, OldText: te.OldText}
		if b.opts.IncludePreviews {
			if p, err := buildFixEditPreview(b.fs, te); err == nil {
				e.BeforeLines, e.AfterLines = p.before, p.after
			}
		}
		out = append(out, e)
	}
	return out
}

// JSON writes the report as indented JSON.
func JSON(w io.Writer, bag *diag.Bag, fs *source.FileSet, opts JSONOpts) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(BuildReport(bag, fs, opts))
}
