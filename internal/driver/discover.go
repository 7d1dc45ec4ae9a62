package driver

import (
	"fmt"
	"io/fs"
	"path/filepath"
	"slices"

	"locheck/internal/config"
)

// Inputs lists the files a run reads, as slash-separated paths relative to
// the manifest root, sorted.
type Inputs struct {
	Resources []string
	Sources   []string
}

// Discover walks root and classifies files by the configured patterns. A
// file matching both lists counts as a resource only.
func Discover(root string, cfg config.Config) (Inputs, error) {
	var in Inputs
	err := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		rel, err := filepath.Rel(root, path)
		if err != nil {
			return err
		}
		rel = filepath.ToSlash(rel)
		if d.IsDir() {
			if rel != "." && config.MatchAny(cfg.Exclude, rel+"/") {
				return filepath.SkipDir
			}
			return nil
		}
		if !d.Type().IsRegular() || config.MatchAny(cfg.Exclude, rel) {
			return nil
		}
		switch {
		case config.MatchAny(cfg.Resources.Patterns, rel):
			in.Resources = append(in.Resources, rel)
		case config.MatchAny(cfg.Usage.Sources, rel):
			in.Sources = append(in.Sources, rel)
		}
		return nil
	})
	if err != nil {
		return Inputs{}, fmt.Errorf("failed to walk %s: %w", root, err)
	}
	// WalkDir уже лексикографичен, но только внутри каталога
	slices.Sort(in.Resources)
	slices.Sort(in.Sources)
	return in, nil
}
