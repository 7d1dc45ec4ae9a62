// Package culture infers the culture a resource file belongs to.
package culture

import (
	"path/filepath"
	"regexp"
	"sort"
	"strings"

	"golang.org/x/text/language"
)

// Default is the sentinel culture of files no rule could tag.
const Default = "default"

var segmentPattern = regexp.MustCompile(`^[a-zA-Z]{2}(-[a-zA-Z]{2,8})?$`)

// knownCultures is the fixed reference list for the path fallback. Longer
// region-qualified codes come first so "pt-br" wins over "pt".
var knownCultures = []string{
	"en-us", "en-gb", "es-mx", "es-es", "pt-br", "pt-pt", "fr-ca", "fr-fr",
	"de-de", "it-it", "nl-nl", "ja-jp", "ko-kr", "zh-cn", "zh-tw", "zh-hans",
	"zh-hant", "ru-ru", "pl-pl", "tr-tr", "sv-se", "uk-ua",
	"en", "es", "fr", "de", "it", "pt", "nl", "ja", "ko", "zh", "ru", "pl",
	"tr", "sv", "da", "fi", "nb", "cs", "el", "he", "ar", "hi", "th", "vi",
	"id", "uk", "ro", "hu",
}

// Resolve returns the culture for filePath. explicit is the configured culture
// list; it takes precedence over every filename heuristic.
func Resolve(filePath string, explicit []string) string {
	slashed := filepath.ToSlash(filePath)
	lowerPath := strings.ToLower(slashed)

	for _, c := range explicit {
		if c == "" {
			continue
		}
		if strings.Contains(lowerPath, strings.ToLower(c)) {
			return c
		}
	}

	base := filepath.Base(slashed)
	name := strings.TrimSuffix(base, filepath.Ext(base))
	parts := strings.Split(name, ".")
	if last := parts[len(parts)-1]; segmentPattern.MatchString(last) {
		return strings.ToLower(last)
	}

	segments := pathSegments(lowerPath)
	for _, known := range knownCultures {
		if _, ok := segments[known]; ok {
			return known
		}
	}
	return Default
}

// pathSegments splits a lower-cased path into directory names and
// filename parts separated by '.', '_' or '/'.
func pathSegments(p string) map[string]struct{} {
	out := make(map[string]struct{})
	for _, part := range strings.FieldsFunc(p, func(r rune) bool {
		return r == '/' || r == '.' || r == '_'
	}) {
		out[part] = struct{}{}
	}
	return out
}

// Effective returns the cultures used for partial-missing comparison.
// explicit wins when configured; otherwise discovered cultures minus
// Default, or all discovered cultures when only Default is present.
func Effective(explicit, discovered []string) []string {
	if len(explicit) > 0 {
		return dedupSorted(explicit)
	}
	tagged := make([]string, 0, len(discovered))
	for _, c := range discovered {
		if c != Default {
			tagged = append(tagged, c)
		}
	}
	if len(tagged) > 0 {
		return dedupSorted(tagged)
	}
	return dedupSorted(discovered)
}

func dedupSorted(in []string) []string {
	seen := make(map[string]struct{}, len(in))
	out := make([]string, 0, len(in))
	for _, c := range in {
		if _, ok := seen[c]; ok {
			continue
		}
		seen[c] = struct{}{}
		out = append(out, c)
	}
	sort.Strings(out)
	return out
}

// Canonical reports the BCP 47 form of c and whether c parses as a tag.
// It is informational only and never affects Resolve.
func Canonical(c string) (string, bool) {
	if c == Default {
		return c, false
	}
	tag, err := language.Parse(c)
	if err != nil {
		return c, false
	}
	return tag.String(), true
}
