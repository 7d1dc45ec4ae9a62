// Package suggest ranks catalog keys by how close they are to a key that
// could not be resolved.
package suggest

import (
	"slices"
	"strings"
	"unicode/utf8"

	"github.com/agnivade/levenshtein"
	"golang.org/x/text/cases"
)

// Score tiers. The first matching rule decides the score.
const (
	ScoreExact        = 1000
	ScoreContains     = 800
	ScoreContained    = 700
	scorePrefixBase   = 500
	scorePrefixStep   = 10
	scoreDistanceBase = 300
	scoreDistanceStep = 10
)

// Candidate is one ranked suggestion.
type Candidate struct {
	Key   string
	Score int
}

// Suggest scores every catalog key against missing and returns the matches
// ordered by descending score. Ties keep the order of keys. topN <= 0 means
// no limit. Keys whose edit distance is too large for their length are
// dropped.
func Suggest(missing string, keys []string, caseSensitive bool, topN int) []Candidate {
	if missing == "" || len(keys) == 0 {
		return nil
	}
	fold := func(s string) string { return s }
	if !caseSensitive {
		c := cases.Fold()
		fold = c.String
	}
	needle := fold(missing)

	out := make([]Candidate, 0, len(keys))
	for _, k := range keys {
		if score, ok := Score(needle, fold(k)); ok {
			out = append(out, Candidate{Key: k, Score: score})
		}
	}
	slices.SortStableFunc(out, func(a, b Candidate) int { return b.Score - a.Score })
	if topN > 0 && len(out) > topN {
		out = out[:topN]
	}
	return out
}

// Score rates candidate against missing, both already in comparison form.
func Score(missing, candidate string) (int, bool) {
	switch {
	case missing == candidate:
		return ScoreExact, true
	case strings.Contains(candidate, missing):
		return ScoreContains, true
	case strings.Contains(missing, candidate):
		return ScoreContained, true
	}
	if l := commonPrefix(missing, candidate); l > 0 {
		return scorePrefixBase + scorePrefixStep*l, true
	}
	d := levenshtein.ComputeDistance(missing, candidate)
	limit := max(utf8.RuneCountInString(missing), utf8.RuneCountInString(candidate)) / 3
	if d > limit {
		return 0, false
	}
	return scoreDistanceBase - scoreDistanceStep*d, true
}

// commonPrefix counts the leading runes a and b share.
func commonPrefix(a, b string) int {
	n := 0
	for a != "" && b != "" {
		ra, sa := utf8.DecodeRuneInString(a)
		rb, sb := utf8.DecodeRuneInString(b)
		if ra != rb {
			break
		}
		n++
		a, b = a[sa:], b[sb:]
	}
	return n
}

// Best returns the top candidate, if any.
func Best(missing string, keys []string, caseSensitive bool) (Candidate, bool) {
	c := Suggest(missing, keys, caseSensitive, 1)
	if len(c) == 0 {
		return Candidate{}, false
	}
	return c[0], true
}
