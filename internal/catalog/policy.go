package catalog

import (
	"sync"

	"golang.org/x/text/cases"
)

// KeyPolicy decides how flattened keys are compared. It is fixed for the
// whole session.
type KeyPolicy struct {
	CaseSensitive bool
}

// Sensitive is the default ordinal comparison.
var Sensitive = KeyPolicy{CaseSensitive: true}

// a Caser keeps state between calls and must not be shared
var folders = sync.Pool{
	New: func() any {
		c := cases.Fold()
		return &c
	},
}

// Normalize returns the comparison form of key.
func (p KeyPolicy) Normalize(key string) string {
	if p.CaseSensitive {
		return key
	}
	c := folders.Get().(*cases.Caser)
	out := c.String(key)
	folders.Put(c)
	return out
}

// Equal compares two keys under the policy.
func (p KeyPolicy) Equal(a, b string) bool {
	if p.CaseSensitive {
		return a == b
	}
	return p.Normalize(a) == p.Normalize(b)
}
