// Package config loads locheck.toml.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/BurntSushi/toml"

	"locheck/internal/culture"
	"locheck/internal/usage"
)

// FileName is the configuration file looked up from the target directory
// upwards.
const FileName = "locheck.toml"

const defaultPlaceholder = "TODO: translate"

type Config struct {
	// Exclude drops matching paths from both resource and source discovery.
	Exclude   []string   `toml:"exclude"`
	Resources Resources  `toml:"resources"`
	Accessors []Accessor `toml:"accessors"`
	Usage     Usage      `toml:"usage"`
	Fix       Fix        `toml:"fix"`
}

type Resources struct {
	Patterns       []string `toml:"patterns"`
	Cultures       []string `toml:"cultures"`
	CaseSensitive  bool     `toml:"case_sensitive"`
	PartialMissing bool     `toml:"partial_missing"`
}

type Accessor struct {
	Indexer string `toml:"indexer"`
	Method  string `toml:"method"`
}

type Usage struct {
	Sources     []string `toml:"sources"`
	DynamicKeys []string `toml:"dynamic_keys"`
}

type Fix struct {
	Placeholder string `toml:"placeholder"`
}

// Manifest is a loaded configuration file together with where it was found.
// Root is the directory patterns are relative to.
type Manifest struct {
	Path   string
	Root   string
	Config Config
}

// Default returns the configuration used when no file exists.
func Default() Config {
	return Config{
		Exclude: []string{"**/vendor/**", "**/node_modules/**", "**/.git/**"},
		Resources: Resources{
			Patterns:       []string{"**/*.json"},
			CaseSensitive:  true,
			PartialMissing: true,
		},
		Accessors: []Accessor{{Method: "T"}},
		Usage: Usage{
			Sources: []string{"**/*.go"},
		},
		Fix: Fix{Placeholder: defaultPlaceholder},
	}
}

// Find walks up from startDir looking for FileName.
func Find(startDir string) (string, bool, error) {
	if startDir == "" {
		startDir = "."
	}
	dir, err := filepath.Abs(startDir)
	if err != nil {
		return "", false, fmt.Errorf("failed to resolve start directory: %w", err)
	}
	for {
		candidate := filepath.Join(dir, FileName)
		if _, err := os.Stat(candidate); err == nil {
			return candidate, true, nil
		} else if !errors.Is(err, os.ErrNotExist) {
			return "", false, fmt.Errorf("failed to stat %q: %w", candidate, err)
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			break
		}
		dir = parent
	}
	return "", false, nil
}

// Discover loads the nearest configuration file above startDir. When there
// is none it returns the defaults rooted at startDir and false.
func Discover(startDir string) (*Manifest, bool, error) {
	path, ok, err := Find(startDir)
	if err != nil {
		return nil, false, err
	}
	if !ok {
		root, err := filepath.Abs(startDir)
		if err != nil {
			return nil, false, fmt.Errorf("failed to resolve start directory: %w", err)
		}
		return &Manifest{Root: root, Config: Default()}, false, nil
	}
	m, err := Load(path)
	return m, true, err
}

// Load reads one configuration file. Keys absent from the file keep their
// default values.
func Load(path string) (*Manifest, error) {
	cfg := Default()
	meta, err := toml.DecodeFile(path, &cfg)
	if err != nil {
		return nil, fmt.Errorf("%s: failed to parse TOML: %w", path, err)
	}
	if undecoded := meta.Undecoded(); len(undecoded) > 0 {
		return nil, fmt.Errorf("%s: unknown key %q", path, undecoded[0].String())
	}
	// an explicit empty list means "nothing", a missing one means defaults
	if meta.IsDefined("accessors") && len(cfg.Accessors) == 0 {
		return nil, fmt.Errorf("%s: [[accessors]] must not be empty", path)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	abs, err := filepath.Abs(path)
	if err != nil {
		abs = path
	}
	return &Manifest{Path: abs, Root: filepath.Dir(abs), Config: cfg}, nil
}

// Validate checks the values that cannot be fixed up silently.
func (c *Config) Validate() error {
	if len(c.Resources.Patterns) == 0 {
		return errors.New("[resources].patterns must list at least one pattern")
	}
	patterns := append(append([]string(nil), c.Resources.Patterns...), c.Usage.Sources...)
	for _, p := range append(patterns, c.Exclude...) {
		if err := ValidatePattern(p); err != nil {
			return err
		}
	}
	for _, name := range c.Resources.Cultures {
		if strings.TrimSpace(name) == "" {
			return errors.New("[resources].cultures must not contain empty names")
		}
		if name == culture.Default {
			return fmt.Errorf("[resources].cultures: %q is reserved", culture.Default)
		}
	}
	for i, a := range c.Accessors {
		if (a.Method == "") == (a.Indexer == "") {
			return fmt.Errorf("[[accessors]] #%d: set exactly one of method or indexer", i+1)
		}
	}
	return nil
}

// UsageAccessors converts the accessor list for the usage extractors.
func (c *Config) UsageAccessors() []usage.Accessor {
	out := make([]usage.Accessor, 0, len(c.Accessors))
	for _, a := range c.Accessors {
		out = append(out, usage.Accessor{Indexer: a.Indexer, Method: a.Method})
	}
	return out
}

// Starter is the file written by `locheck init`.
const Starter = `# locheck configuration

# paths skipped everywhere, relative to this file
exclude = ["**/vendor/**", "**/node_modules/**", "**/.git/**"]

[resources]
# JSON resource files, relative to this file
patterns = ["**/*.json"]
# explicit culture list; leave empty to infer cultures from file names
cultures = []
case_sensitive = true
partial_missing = true

# how code reaches the localizer: a method/function name or an indexer type
[[accessors]]
method = "T"

[usage]
sources = ["**/*.go"]
dynamic_keys = []

[fix]
placeholder = "TODO: translate"
`
