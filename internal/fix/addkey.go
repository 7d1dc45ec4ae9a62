package fix

import (
	"locheck/internal/catalog"
	"locheck/internal/diag"
	"locheck/internal/respatch"
	"locheck/internal/source"
)

// FileContent is a resource file before and after a key was added.
type FileContent struct {
	File    source.FileID
	Path    string
	Culture string
	Before  string
	After   string
}

// Changed reports whether the addition altered the file's content. A
// rewrite that only reformats an equal document is not a change.
func (c FileContent) Changed() bool {
	return c.Before != c.After && !respatch.Equal(c.Before, c.After)
}

// AddKey adds missingKey with placeholder to the first resource file of every
// target culture and returns the new contents. Nothing is written.
func AddKey(fs *source.FileSet, cat *catalog.Catalog, missingKey string, targetCultures []string, placeholder string) []FileContent {
	return patchAdditions(fs, Additions(cat, missingKey, targetCultures, placeholder))
}

func patchAdditions(fs *source.FileSet, additions []diag.KeyAddition) []FileContent {
	out := make([]FileContent, 0, len(additions))
	for _, a := range additions {
		f := fs.Get(a.File)
		if f == nil {
			continue
		}
		before := string(f.Content)
		out = append(out, FileContent{
			File:    a.File,
			Path:    f.Path,
			Culture: a.Culture,
			Before:  before,
			After:   respatch.Apply(before, a.Key, a.Value),
		})
	}
	return out
}
