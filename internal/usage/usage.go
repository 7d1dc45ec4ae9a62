// Package usage finds literal localization keys in code files.
//
// Only constant string arguments are reported. A key built at run time
// cannot be checked against the catalog and is ignored.
package usage

import (
	"path/filepath"
	"strings"

	"fortio.org/safecast"

	"locheck/internal/source"
)

// Accessor names one way code reaches the localizer: either a method or
// function name (T("key"), loc.T("key")) or the type name of an indexable
// localizer (loc["key"] where loc is declared as that type).
type Accessor struct {
	Indexer string
	Method  string
}

// DefaultAccessors is used when nothing is configured.
var DefaultAccessors = []Accessor{{Method: "T"}}

// Site is one literal key usage. Span covers the quoted literal.
type Site struct {
	Key  string
	Span source.Span
}

// Extractor finds usage sites in one file.
type Extractor interface {
	Extract(file *source.File, accessors []Accessor) []Site
}

// Auto picks the Go extractor for .go files and the pattern extractor for
// everything else.
type Auto struct {
	Go      GoExtractor
	Pattern *PatternExtractor
}

func (a *Auto) Extract(file *source.File, accessors []Accessor) []Site {
	if strings.EqualFold(filepath.Ext(file.Path), ".go") {
		return a.Go.Extract(file, accessors)
	}
	if a.Pattern == nil {
		a.Pattern = NewPatternExtractor()
	}
	return a.Pattern.Extract(file, accessors)
}

func methods(accessors []Accessor) map[string]struct{} {
	out := make(map[string]struct{})
	for _, a := range accessors {
		if a.Method != "" {
			out[a.Method] = struct{}{}
		}
	}
	return out
}

func indexers(accessors []Accessor) map[string]struct{} {
	out := make(map[string]struct{})
	for _, a := range accessors {
		if a.Indexer != "" {
			out[a.Indexer] = struct{}{}
		}
	}
	return out
}

func span(file source.FileID, start, end int) (source.Span, bool) {
	s, err := safecast.Conv[uint32](start)
	if err != nil {
		return source.Span{}, false
	}
	e, err := safecast.Conv[uint32](end)
	if err != nil {
		return source.Span{}, false
	}
	return source.Span{File: file, Start: s, End: e}, true
}
