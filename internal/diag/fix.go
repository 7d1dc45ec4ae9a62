package diag

import (
	"errors"
	"fmt"

	"locheck/internal/source"
)

// FixKind is a coarse classification of a fix.
type FixKind uint8

const (
	FixKindQuickFix FixKind = iota
	FixKindRefactor
	FixKindRewrite
	FixKindSourceAction
)

func (k FixKind) String() string {
	switch k {
	case FixKindQuickFix:
		return "quickfix"
	case FixKindRefactor:
		return "refactor"
	case FixKindRewrite:
		return "rewrite"
	case FixKindSourceAction:
		return "source"
	}
	return "unknown"
}

// FixApplicability is the confidence level of a fix.
type FixApplicability uint8

const (
	FixApplicabilityAlwaysSafe FixApplicability = iota
	FixApplicabilitySafeWithHeuristics
	FixApplicabilityManualReview
)

func (a FixApplicability) String() string {
	switch a {
	case FixApplicabilityAlwaysSafe:
		return "always-safe"
	case FixApplicabilitySafeWithHeuristics:
		return "safe-with-heuristics"
	case FixApplicabilityManualReview:
		return "manual-review"
	}
	return "unknown"
}

// TextEdit replaces the bytes of Span with NewText. OldText, when set,
// guards the edit: the engine refuses to apply it if the text differs.
type TextEdit struct {
	Span    source.Span
	NewText string
	OldText string
}

// KeyAddition adds Key with Value to the JSON resource file File. Unlike a
// TextEdit it carries no span: additions to one file always compose.
type KeyAddition struct {
	File    source.FileID
	Culture string
	Key     string
	Value   string
}

// FixBuildContext carries what lazy fixes need to materialise edits.
type FixBuildContext struct {
	FileSet *source.FileSet
}

// FixThunk builds the edits of a fix on demand.
type FixThunk func(ctx FixBuildContext) ([]TextEdit, error)

type Fix struct {
	ID            string
	Title         string
	Kind          FixKind
	Applicability FixApplicability
	IsPreferred   bool
	Edits         []TextEdit
	Additions     []KeyAddition
	Thunk         FixThunk
}

// Empty reports whether the fix changes nothing.
func (f *Fix) Empty() bool {
	return len(f.Edits) == 0 && len(f.Additions) == 0
}

var errNilFix = errors.New("nil fix")

// Resolve returns a copy of the fix with Thunk expanded into Edits.
func (f *Fix) Resolve(ctx FixBuildContext) (Fix, error) {
	if f == nil {
		return Fix{}, errNilFix
	}
	out := *f
	out.Edits = append([]TextEdit(nil), f.Edits...)
	out.Additions = append([]KeyAddition(nil), f.Additions...)
	out.Thunk = nil
	if f.Thunk == nil {
		return out, nil
	}
	edits, err := f.Thunk(ctx)
	if err != nil {
		return out, fmt.Errorf("%s: %w", f.Title, err)
	}
	out.Edits = append(out.Edits, edits...)
	return out, nil
}

// MaterializeFixes resolves every fix, stopping at the first failure.
func MaterializeFixes(ctx FixBuildContext, fixes []*Fix) ([]Fix, error) {
	out := make([]Fix, 0, len(fixes))
	for _, f := range fixes {
		resolved, err := f.Resolve(ctx)
		if err != nil {
			return nil, err
		}
		out = append(out, resolved)
	}
	return out, nil
}
