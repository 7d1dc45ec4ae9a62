// Package analysis cross-references usage sites against a catalog.
//
// Missing and partial-missing keys are reported while usages stream in.
// Unused and duplicate keys need the whole stream, so they are reported by
// Finalize, which the caller runs once every producer has finished.
package analysis

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"

	"locheck/internal/catalog"
	"locheck/internal/diag"
	"locheck/internal/fix"
	"locheck/internal/suggest"
	"locheck/internal/usage"
)

// ErrFinalized is returned by Observe and Finalize once Finalize has run.
var ErrFinalized = errors.New("analysis: engine already finalized")

const checkEvery = 256

// DefaultPlaceholder is the value given to keys added by fixes.
const DefaultPlaceholder = "TODO: translate"

// Options tunes the engine. The zero value disables partial-missing
// warnings; use DefaultOptions.
type Options struct {
	PartialMissing bool
	Placeholder    string
	// DynamicKeys holds the configured dynamic key patterns. They are kept
	// for reporting only and do not affect any diagnostic.
	DynamicKeys []string
}

func DefaultOptions() Options {
	return Options{PartialMissing: true, Placeholder: DefaultPlaceholder}
}

// Engine is safe for concurrent OnUsage calls. The catalog is never
// modified; the used-key set is the only shared mutable state.
type Engine struct {
	cat      *catalog.Catalog
	opts     Options
	keys     []string
	cultures []string

	mu        sync.RWMutex
	used      map[string]struct{}
	finalized bool
}

func New(cat *catalog.Catalog, opts Options) *Engine {
	if opts.Placeholder == "" {
		opts.Placeholder = DefaultPlaceholder
	}
	return &Engine{
		cat:      cat,
		opts:     opts,
		keys:     cat.Keys(),
		cultures: cat.EffectiveCultures(),
		used:     make(map[string]struct{}),
	}
}

// Cultures returns the effective cultures used for partial-missing checks.
func (e *Engine) Cultures() []string {
	return append([]string(nil), e.cultures...)
}

// Placeholder is the value add-key fixes give new keys.
func (e *Engine) Placeholder() string { return e.opts.Placeholder }

// OnUsage checks one usage site. It returns nil when the key is fine and
// after Finalize.
func (e *Engine) OnUsage(site usage.Site) *diag.Diagnostic {
	d, _ := e.Observe(site)
	return d
}

// Observe is OnUsage that reports use after Finalize as ErrFinalized.
func (e *Engine) Observe(site usage.Site) (*diag.Diagnostic, error) {
	if !e.cat.Has(site.Key) {
		if e.isFinalized() {
			return nil, ErrFinalized
		}
		return e.missing(site), nil
	}
	if err := e.markUsed(site.Key); err != nil {
		return nil, err
	}
	if !e.opts.PartialMissing || len(e.cultures) <= 1 {
		return nil, nil
	}
	return e.partialMissing(site), nil
}

func (e *Engine) isFinalized() bool {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.finalized
}

func (e *Engine) markUsed(key string) error {
	norm := e.cat.Policy().Normalize(key)

	e.mu.RLock()
	_, seen := e.used[norm]
	finalized := e.finalized
	e.mu.RUnlock()
	if finalized {
		return ErrFinalized
	}
	if seen {
		return nil
	}

	e.mu.Lock()
	defer e.mu.Unlock()
	if e.finalized {
		return ErrFinalized
	}
	e.used[norm] = struct{}{}
	return nil
}

func (e *Engine) missing(site usage.Site) *diag.Diagnostic {
	d := diag.NewError(diag.KeyMissing, site.Span,
		fmt.Sprintf("Localization key '%s' is not found in any configured culture", site.Key))
	d.Key = site.Key

	d.WithFix(fix.AddKeyFix(
		fmt.Sprintf("add '%s' to all cultures", site.Key),
		e.cat, site.Key, e.cultures, e.opts.Placeholder, fix.Preferred()))

	if best, ok := suggest.Best(site.Key, e.keys, e.cat.Policy().CaseSensitive); ok {
		if entry, found := e.cat.Lookup(best.Key); found {
			d.WithNote(entry.Span, fmt.Sprintf("did you mean '%s'?", best.Key))
		}
		d.WithFix(fix.LazyRename(site.Span, best.Key))
	}
	return d
}

func (e *Engine) partialMissing(site usage.Site) *diag.Diagnostic {
	var lacking []string
	for _, c := range e.cultures {
		if !e.cat.HasIn(c, site.Key) {
			lacking = append(lacking, c)
		}
	}
	if len(lacking) == 0 {
		return nil
	}

	d := diag.NewWarning(diag.KeyPartialMissing, site.Span,
		fmt.Sprintf("Localization key '%s' is missing in cultures: %s", site.Key, strings.Join(lacking, ", ")))
	d.Key = site.Key
	d.Cultures = lacking

	value := e.opts.Placeholder
	for _, c := range e.cultures {
		if v, ok := e.cat.Value(c, site.Key); ok {
			value = v
			break
		}
	}
	d.WithFix(fix.AddKeyFix(
		fmt.Sprintf("add '%s' to %s", site.Key, strings.Join(lacking, ", ")),
		e.cat, site.Key, lacking, value, fix.Preferred()))
	return d
}

// Finalize reports unused and duplicate keys. It must run after every usage
// was observed and only once. On cancellation it returns ctx's error and no
// diagnostics.
func (e *Engine) Finalize(ctx context.Context) ([]*diag.Diagnostic, error) {
	e.mu.Lock()
	if e.finalized {
		e.mu.Unlock()
		return nil, ErrFinalized
	}
	e.finalized = true
	used := e.used
	e.mu.Unlock()

	var staged []*diag.Diagnostic
	policy := e.cat.Policy()
	for i, key := range e.keys {
		if i%checkEvery == 0 {
			if err := ctx.Err(); err != nil {
				return nil, err
			}
		}
		if _, ok := used[policy.Normalize(key)]; ok {
			continue
		}
		entry, _ := e.cat.Lookup(key)
		d := diag.NewWarning(diag.KeyUnused, entry.Span,
			fmt.Sprintf("Localization key '%s' is defined but never used", key))
		d.Key = key
		staged = append(staged, d)
	}

	for i, dup := range e.cat.Duplicates() {
		if i%checkEvery == 0 {
			if err := ctx.Err(); err != nil {
				return nil, err
			}
		}
		d := diag.NewError(diag.KeyDuplicate, dup.Span,
			fmt.Sprintf("Localization key '%s' is defined multiple times in the same file", dup.Key))
		d.Key = dup.Key
		d.Cultures = []string{dup.Culture}
		staged = append(staged, d)
	}

	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return staged, nil
}
