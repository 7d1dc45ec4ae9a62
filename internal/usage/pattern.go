package usage

import (
	"regexp"
	"slices"
	"strconv"
	"strings"
	"sync"

	"locheck/internal/source"
)

// quoted matches a "…", '…' or `…` literal; exactly one of the three groups
// is set on a match.
const quoted = `(?:"((?:[^"\\\n]|\\.)*)"|'((?:[^'\\\n]|\\.)*)'|` + "`([^`]*)`" + `)`

// PatternExtractor finds calls in template and script sources with regular
// expressions. For a method M it recognises
//
//	M("key")  obj.M('key')  $M("key")  {{ M "key" }}
//
// Anything that is not a plain literal argument is skipped.
type PatternExtractor struct {
	mu    sync.Mutex
	cache map[string][]*regexp.Regexp
}

func NewPatternExtractor() *PatternExtractor {
	return &PatternExtractor{cache: make(map[string][]*regexp.Regexp)}
}

func (p *PatternExtractor) patterns(accessors []Accessor) []*regexp.Regexp {
	names := make([]string, 0, len(accessors))
	for m := range methods(accessors) {
		names = append(names, m)
	}
	slices.Sort(names)
	cacheKey := strings.Join(names, "\x00")

	p.mu.Lock()
	defer p.mu.Unlock()
	if res, ok := p.cache[cacheKey]; ok {
		return res
	}
	var res []*regexp.Regexp
	for _, m := range names {
		name := regexp.QuoteMeta(m)
		res = append(res,
			regexp.MustCompile(`(?:^|[^\w$])\$?`+name+`\(\s*`+quoted),
			regexp.MustCompile(`\{\{-?\s*\.?`+name+`\s+`+quoted),
		)
	}
	p.cache[cacheKey] = res
	return res
}

func (p *PatternExtractor) Extract(file *source.File, accessors []Accessor) []Site {
	var out []Site
	for _, re := range p.patterns(accessors) {
		for _, m := range re.FindAllSubmatchIndex(file.Content, -1) {
			for g := 1; g <= 3; g++ {
				lo, hi := m[2*g], m[2*g+1]
				if lo < 0 {
					continue
				}
				key := unquote(string(file.Content[lo:hi]), g)
				if sp, ok := span(file.ID, lo-1, hi+1); ok && key != "" {
					out = append(out, Site{Key: key, Span: sp})
				}
				break
			}
		}
	}
	slices.SortStableFunc(out, func(a, b Site) int { return int(a.Span.Start) - int(b.Span.Start) })
	return out
}

// unquote resolves escapes of the literal body; group 3 is a raw string.
func unquote(body string, group int) string {
	switch group {
	case 1:
		if s, err := strconv.Unquote(`"` + body + `"`); err == nil {
			return s
		}
	case 2:
		return strings.ReplaceAll(body, `\'`, `'`)
	}
	return body
}
