// Package catalog builds the cross-culture key catalog from JSON resource
// files. A Catalog is built once per session and is read-only afterwards, so
// it can be shared between goroutines without locking.
package catalog

import (
	"sort"

	"locheck/internal/culture"
	"locheck/internal/source"
)

// Entry is one occurrence of a flattened key in one resource file.
type Entry struct {
	Key     string
	Culture string
	Value   string
	Span    source.Span
}

// Duplicate is a property name repeated inside one object of one file.
type Duplicate struct {
	Key     string
	Culture string
	Span    source.Span
}

type cultureIndex struct {
	entries []Entry
	byKey   map[string]int // normalized key -> entries index
	files   []source.FileID
}

// Catalog is the immutable result of Builder.Build.
type Catalog struct {
	policy   KeyPolicy
	explicit []string
	order    []string // cultures in discovery order
	cultures map[string]*cultureIndex
	keys     []string         // global union, first spelling, discovery order
	first    map[string]Entry // normalized key -> first entry seen
	dups     []Duplicate
	skipped  []string
}

func newCatalog(policy KeyPolicy, explicit []string) *Catalog {
	return &Catalog{
		policy:   policy,
		explicit: append([]string(nil), explicit...),
		cultures: make(map[string]*cultureIndex),
		first:    make(map[string]Entry),
	}
}

// Policy returns the key comparison policy the catalog was built with.
func (c *Catalog) Policy() KeyPolicy { return c.policy }

func (c *Catalog) index(cult string) *cultureIndex {
	idx, ok := c.cultures[cult]
	if !ok {
		idx = &cultureIndex{byKey: make(map[string]int)}
		c.cultures[cult] = idx
		c.order = append(c.order, cult)
	}
	return idx
}

func (c *Catalog) addFile(cult string, id source.FileID) {
	idx := c.index(cult)
	idx.files = append(idx.files, id)
}

func (c *Catalog) addEntry(e Entry) {
	idx := c.index(e.Culture)
	norm := c.policy.Normalize(e.Key)
	if _, ok := idx.byKey[norm]; ok {
		return
	}
	idx.byKey[norm] = len(idx.entries)
	idx.entries = append(idx.entries, e)
	if _, ok := c.first[norm]; !ok {
		c.first[norm] = e
		c.keys = append(c.keys, e.Key)
	}
}

// Cultures returns every culture that owns at least one file, sorted. A
// tagged culture whose only files failed to parse is included with no keys.
func (c *Catalog) Cultures() []string {
	out := append([]string(nil), c.order...)
	sort.Strings(out)
	return out
}

// EffectiveCultures returns the cultures used for partial-missing checks.
func (c *Catalog) EffectiveCultures() []string {
	return culture.Effective(c.explicit, c.order)
}

// Keys returns the global key union in discovery order.
func (c *Catalog) Keys() []string {
	return append([]string(nil), c.keys...)
}

// Len returns the number of distinct keys across all cultures.
func (c *Catalog) Len() int { return len(c.keys) }

// Has reports whether key is defined in any culture.
func (c *Catalog) Has(key string) bool {
	_, ok := c.first[c.policy.Normalize(key)]
	return ok
}

// HasIn reports whether key is defined in the given culture.
func (c *Catalog) HasIn(cult, key string) bool {
	idx, ok := c.cultures[cult]
	if !ok {
		return false
	}
	_, ok = idx.byKey[c.policy.Normalize(key)]
	return ok
}

// Lookup returns the first entry seen for key.
func (c *Catalog) Lookup(key string) (Entry, bool) {
	e, ok := c.first[c.policy.Normalize(key)]
	return e, ok
}

// Value returns the value of key in a culture.
func (c *Catalog) Value(cult, key string) (string, bool) {
	idx, ok := c.cultures[cult]
	if !ok {
		return "", false
	}
	i, ok := idx.byKey[c.policy.Normalize(key)]
	if !ok {
		return "", false
	}
	return idx.entries[i].Value, true
}

// Entries returns the entries of one culture in discovery order.
func (c *Catalog) Entries(cult string) []Entry {
	idx, ok := c.cultures[cult]
	if !ok {
		return nil
	}
	return append([]Entry(nil), idx.entries...)
}

// Files returns every resource file that contributed to the catalog, grouped
// by culture in discovery order.
func (c *Catalog) Files() []source.FileID {
	var out []source.FileID
	for _, cult := range c.order {
		out = append(out, c.cultures[cult].files...)
	}
	return out
}

// FilesFor returns the resource files that resolved to a culture.
func (c *Catalog) FilesFor(cult string) []source.FileID {
	idx, ok := c.cultures[cult]
	if !ok {
		return nil
	}
	return append([]source.FileID(nil), idx.files...)
}

// Duplicates returns every raw duplicate found, in file order.
func (c *Catalog) Duplicates() []Duplicate {
	return append([]Duplicate(nil), c.dups...)
}

// Skipped returns the paths of resource files that could not be parsed.
func (c *Catalog) Skipped() []string {
	return append([]string(nil), c.skipped...)
}
