package catalog

import (
	"context"
	"fmt"
	"log/slog"
	"runtime"
	"strings"

	"golang.org/x/sync/errgroup"

	"locheck/internal/culture"
	"locheck/internal/source"
)

// Options configures a Builder.
type Options struct {
	Policy KeyPolicy
	// Cultures is the explicit culture list; empty means discovery.
	Cultures []string
	// Root is the project directory. Cultures are resolved on paths
	// relative to it, so directories above the project never match.
	Root string
	// Jobs bounds parallel parsing (0 = GOMAXPROCS).
	Jobs  int
	Cache *DiskCache
	Log   *slog.Logger
}

// Builder turns resource files into a Catalog.
type Builder struct {
	opts Options
}

func NewBuilder(opts Options) *Builder {
	if opts.Log == nil {
		opts.Log = slog.Default()
	}
	return &Builder{opts: opts}
}

// fileResult holds everything one file contributes; workers fill their own
// slot and never touch shared state.
type fileResult struct {
	file    *source.File
	culture string
	parsed  bool
	leaves  []Leaf
	dups    []rawDuplicate
}

// Build parses files in parallel and merges the results, in input order,
// into a new Catalog. Unparsable files are skipped; only cancellation of ctx
// makes Build fail.
func (b *Builder) Build(ctx context.Context, files []*source.File) (*Catalog, error) {
	results := make([]fileResult, len(files))

	jobs := b.opts.Jobs
	if jobs <= 0 {
		jobs = runtime.GOMAXPROCS(0)
	}

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(max(1, min(jobs, len(files))))
	for i, f := range files {
		g.Go(func() error {
			select {
			case <-gctx.Done():
				return gctx.Err()
			default:
			}
			results[i] = b.processFile(f)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, fmt.Errorf("catalog: %w", err)
	}

	cat := newCatalog(b.opts.Policy, b.opts.Cultures)
	for i := range results {
		if i%256 == 0 {
			if err := ctx.Err(); err != nil {
				return nil, fmt.Errorf("catalog: %w", err)
			}
		}
		b.merge(cat, &results[i])
	}
	return cat, nil
}

func (b *Builder) merge(cat *Catalog, r *fileResult) {
	if r.file == nil {
		return
	}
	id := r.file.ID
	for _, d := range r.dups {
		cat.dups = append(cat.dups, Duplicate{
			Key:     d.Key,
			Culture: r.culture,
			Span:    source.Span{File: id, Start: d.Start, End: d.End},
		})
	}
	if !r.parsed {
		// культура остаётся видимой, чтобы её ключи считались отсутствующими;
		// файл в FilesFor не попадает и фиксы его не трогают
		if r.culture != culture.Default {
			cat.index(r.culture)
		}
		cat.skipped = append(cat.skipped, r.file.Path)
		return
	}
	cat.addFile(r.culture, id)
	for _, l := range r.leaves {
		cat.addEntry(Entry{
			Key:     l.Key,
			Culture: r.culture,
			Value:   l.Value,
			Span:    source.Span{File: id, Start: l.Start, End: l.End},
		})
	}
}

// processFile never fails: a panic or parse error marks the file unparsed.
func (b *Builder) processFile(f *source.File) (res fileResult) {
	res = fileResult{file: f, culture: culture.Resolve(b.relPath(f), b.opts.Cultures)}
	defer func() {
		if r := recover(); r != nil {
			b.opts.Log.Debug("resource file skipped after panic", "path", f.Path, "panic", r)
			res.parsed = false
			res.leaves = nil
		}
	}()

	if cached, ok := b.opts.Cache.lookup(f.Hash); ok {
		res.parsed, res.leaves, res.dups = cached.Parsed, cached.leaves(), cached.duplicates()
		return res
	}

	res.dups = scanDuplicates(f.Content)
	leaves, err := Flatten(f.Content)
	if err != nil {
		b.opts.Log.Debug("resource file is not valid JSON", "path", f.Path, "error", err)
	} else {
		res.parsed, res.leaves = true, leaves
	}
	if err := b.opts.Cache.store(f.Hash, res.parsed, res.leaves, res.dups); err != nil {
		b.opts.Log.Debug("catalog cache write failed", "path", f.Path, "error", err)
	}
	return res
}

// relPath returns the slash path of f below Root, or f.Path when Root is
// unset or f lies outside it.
func (b *Builder) relPath(f *source.File) string {
	if b.opts.Root == "" {
		return f.Path
	}
	rel, err := source.RelativePath(f.Path, b.opts.Root)
	if err != nil || rel == ".." || strings.HasPrefix(rel, "../") {
		return f.Path
	}
	return rel
}
