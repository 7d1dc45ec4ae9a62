package fix

import (
	"errors"
	"strconv"
	"strings"

	"locheck/internal/catalog"
	"locheck/internal/diag"
	"locheck/internal/source"
)

var (
	errNoFileSet      = errors.New("no file set to read the usage site from")
	errSiteOutOfRange = errors.New("usage site is outside the file")
)

// Option mutates fix during construction.
type Option func(*diag.Fix)

// WithApplicability overrides applicability metadata.
func WithApplicability(app diag.FixApplicability) Option {
	return func(f *diag.Fix) {
		f.Applicability = app
	}
}

// Preferred marks fix as preferred suggestion.
func Preferred() Option {
	return func(f *diag.Fix) {
		f.IsPreferred = true
	}
}

// WithID sets stable identifier for fix.
func WithID(id string) Option {
	return func(f *diag.Fix) {
		f.ID = id
	}
}

// WithThunk attaches lazy builder to fix.
func WithThunk(thunk diag.FixThunk) Option {
	return func(f *diag.Fix) {
		f.Thunk = thunk
	}
}

func applyOptions(f *diag.Fix, opts []Option) *diag.Fix {
	for _, opt := range opts {
		if opt != nil {
			opt(f)
		}
	}
	return f
}

// AddKeyID is the fix id shared by every fix adding key, so repeated
// diagnostics for one key collapse into a single fix.
func AddKeyID(key string) string {
	return "add-key:" + key
}

// Additions lists one addition per target culture, aimed at the first
// resource file of that culture. Cultures without files are skipped.
func Additions(cat *catalog.Catalog, key string, cultures []string, value string) []diag.KeyAddition {
	out := make([]diag.KeyAddition, 0, len(cultures))
	for _, c := range cultures {
		files := cat.FilesFor(c)
		if len(files) == 0 {
			continue
		}
		out = append(out, diag.KeyAddition{File: files[0], Culture: c, Key: key, Value: value})
	}
	return out
}

// AddKeyFix creates a fix that adds key to the resource files of cultures.
// The fix has nothing to do when no culture owns a file.
func AddKeyFix(title string, cat *catalog.Catalog, key string, cultures []string, value string, opts ...Option) *diag.Fix {
	f := &diag.Fix{
		ID:            AddKeyID(key),
		Title:         title,
		Kind:          diag.FixKindQuickFix,
		Applicability: diag.FixApplicabilityAlwaysSafe,
		Additions:     Additions(cat, key, cultures, value),
	}
	return applyOptions(f, opts)
}

// ReplaceSpan replaces text covered by span with newText.
func ReplaceSpan(title string, span source.Span, newText, expect string, opts ...Option) *diag.Fix {
	f := &diag.Fix{
		Title:         title,
		Kind:          diag.FixKindQuickFix,
		Applicability: diag.FixApplicabilityAlwaysSafe,
		Edits: []diag.TextEdit{{
			Span:    span,
			NewText: newText,
			OldText: expect,
		}},
	}
	return applyOptions(f, opts)
}

// RenameKey rewrites the literal at a usage site to newKey, keeping the quote
// style of current. current guards the edit against text that changed since
// the scan.
func RenameKey(site source.Span, current, newKey string, opts ...Option) *diag.Fix {
	opts = append([]Option{
		WithID(renameID(site)),
		WithApplicability(diag.FixApplicabilityManualReview),
	}, opts...)
	f := ReplaceSpan("replace with '"+newKey+"'", site, quoteLike(current, newKey), current, opts...)
	f.Kind = diag.FixKindRefactor
	return f
}

func quoteLike(literal, key string) string {
	switch {
	case strings.HasPrefix(literal, "'"):
		return "'" + strings.ReplaceAll(key, "'", `\'`) + "'"
	case strings.HasPrefix(literal, "`") && !strings.Contains(key, "`"):
		return "`" + key + "`"
	}
	return strconv.Quote(key)
}

// LazyRename is RenameKey with the literal read from the file when the fix
// is materialised, so producers do not need the file contents.
func LazyRename(site source.Span, newKey string) *diag.Fix {
	return &diag.Fix{
		ID:            renameID(site),
		Title:         "replace with '" + newKey + "'",
		Kind:          diag.FixKindRefactor,
		Applicability: diag.FixApplicabilityManualReview,
		Thunk: func(ctx diag.FixBuildContext) ([]diag.TextEdit, error) {
			if ctx.FileSet == nil {
				return nil, errNoFileSet
			}
			f := ctx.FileSet.Get(site.File)
			if f == nil || int(site.End) > len(f.Content) || site.Start > site.End {
				return nil, errSiteOutOfRange
			}
			current := string(f.Content[site.Start:site.End])
			return RenameKey(site, current, newKey).Edits, nil
		},
	}
}

func renameID(site source.Span) string {
	return "rename:" + strconv.FormatUint(uint64(site.File), 10) + ":" + strconv.FormatUint(uint64(site.Start), 10)
}
