package driver

import (
	"context"
	"fmt"
	"log/slog"
	"path/filepath"
	"runtime"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"locheck/internal/analysis"
	"locheck/internal/catalog"
	"locheck/internal/config"
	"locheck/internal/diag"
	"locheck/internal/observ"
	"locheck/internal/source"
	"locheck/internal/usage"
)

// checkEvery is how many usage sites a worker handles between ctx checks.
const checkEvery = 256

// Options tunes a run. The zero value is usable.
type Options struct {
	// Jobs bounds parallel parsing and scanning (0 = GOMAXPROCS).
	Jobs int
	// MaxDiagnostics caps the bag; 0 means the bag default.
	MaxDiagnostics int
	Cache          *catalog.DiskCache
	Observer       Observer
	Log            *slog.Logger
	Metrics        *observ.Metrics
	// EmitTimings appends the timing report to the bag as an info diagnostic.
	EmitTimings bool
}

// Result is everything a run produced. Catalog and Engine are nil when the
// run stopped before building them.
type Result struct {
	RunID   string
	Root    string
	Inputs  Inputs
	FileSet *source.FileSet
	Catalog *catalog.Catalog
	Engine  *analysis.Engine
	Bag     *diag.Bag
	Timer   *observ.Timer
}

type session struct {
	m    *config.Manifest
	opts Options
	log  *slog.Logger
	res  *Result
}

func newSession(m *config.Manifest, opts Options) *session {
	if opts.Log == nil {
		opts.Log = slog.Default()
	}
	if opts.Jobs <= 0 {
		opts.Jobs = runtime.GOMAXPROCS(0)
	}
	runID := uuid.NewString()
	return &session{
		m:    m,
		opts: opts,
		log:  opts.Log.With("run", runID),
		res: &Result{
			RunID:   runID,
			Root:    m.Root,
			FileSet: source.NewFileSetWithBase(m.Root),
			Bag:     diag.NewBag(opts.MaxDiagnostics),
			Timer:   observ.NewTimer(),
		},
	}
}

// LoadCatalog discovers and loads the files of m and builds the catalog,
// without scanning usages.
func LoadCatalog(ctx context.Context, m *config.Manifest, opts Options) (*Result, error) {
	s := newSession(m, opts)
	if _, err := s.buildCatalog(ctx); err != nil {
		return s.res, err
	}
	return s.res, nil
}

// Run performs a full check of m: catalog, usage scan, then Finalize once
// every scanner has returned. Diagnostics end up sorted in Result.Bag.
func Run(ctx context.Context, m *config.Manifest, opts Options) (*Result, error) {
	s := newSession(m, opts)
	sources, err := s.buildCatalog(ctx)
	if err != nil {
		return s.res, err
	}

	cfg := s.m.Config
	engine := analysis.New(s.res.Catalog, analysis.Options{
		PartialMissing: cfg.Resources.PartialMissing,
		Placeholder:    cfg.Fix.Placeholder,
		DynamicKeys:    cfg.Usage.DynamicKeys,
	})
	s.res.Engine = engine
	reporter := diag.NewDedupReporter(diag.BagReporter{Bag: s.res.Bag})

	err = s.res.Timer.Measure("usage", func() (string, error) {
		sites, err := s.scan(ctx, sources, engine, reporter)
		return fmt.Sprintf("%d sites in %d files", sites, len(sources)), err
	})
	if err != nil {
		return s.res, err
	}

	err = s.res.Timer.Measure("finalize", func() (string, error) {
		s.opts.Observer.emit(Event{Stage: StageFinalize, Status: StatusWorking})
		diags, err := engine.Finalize(ctx)
		if err != nil {
			return "", fmt.Errorf("finalize: %w", err)
		}
		for _, d := range diags {
			reporter.Report(d)
		}
		s.opts.Observer.emit(Event{Stage: StageFinalize, Status: StatusDone})
		return fmt.Sprintf("%d diagnostics", len(diags)), nil
	})
	if err != nil {
		return s.res, err
	}

	s.res.Bag.Sort()
	s.opts.Metrics.ObserveDiagnostics(s.res.Bag.Items())
	s.opts.Metrics.ObserveTimings(s.res.Timer.Report())
	if s.opts.EmitTimings {
		report := s.res.Timer.Report()
		appendTiming(s.res.Bag, timingDiagnostic(timingPayload{
			RunID:   s.res.RunID,
			Root:    s.res.Root,
			TotalMS: report.TotalMS,
			Phases:  report.Phases,
		}))
	}
	s.log.Debug("check finished", "diagnostics", s.res.Bag.Len())
	return s.res, nil
}

// buildCatalog runs discovery, loading and the catalog build. It returns the
// loaded source files for the usage scan.
func (s *session) buildCatalog(ctx context.Context) ([]*source.File, error) {
	err := s.res.Timer.Measure("discover", func() (string, error) {
		s.opts.Observer.emit(Event{Stage: StageDiscover, Status: StatusWorking})
		in, err := Discover(s.m.Root, s.m.Config)
		if err != nil {
			return "", err
		}
		s.res.Inputs = in
		s.opts.Observer.emit(Event{Stage: StageDiscover, Status: StatusDone})
		return fmt.Sprintf("%d resources, %d sources", len(in.Resources), len(in.Sources)), nil
	})
	if err != nil {
		return nil, err
	}

	resources := s.load(s.res.Inputs.Resources, source.KindResource, StageCatalog)
	sources := s.load(s.res.Inputs.Sources, source.KindCode, StageUsage)

	cfg := s.m.Config
	err = s.res.Timer.Measure("catalog", func() (string, error) {
		b := catalog.NewBuilder(catalog.Options{
			Policy:   catalog.KeyPolicy{CaseSensitive: cfg.Resources.CaseSensitive},
			Cultures: cfg.Resources.Cultures,
			Root:     s.m.Root,
			Jobs:     s.opts.Jobs,
			Cache:    s.opts.Cache,
			Log:      s.log,
		})
		cat, err := b.Build(ctx, resources)
		if err != nil {
			return "", err
		}
		s.res.Catalog = cat
		for _, f := range resources {
			s.opts.Observer.emit(Event{Stage: StageCatalog, Status: StatusDone, File: s.rel(f)})
		}
		if skipped := cat.Skipped(); len(skipped) > 0 {
			s.log.Info("resource files skipped", "count", len(skipped))
		}
		if m := s.opts.Metrics; m != nil {
			for _, c := range cat.Cultures() {
				m.Keys.WithLabelValues(c).Set(float64(len(cat.Entries(c))))
			}
		}
		return fmt.Sprintf("%d keys, %d cultures", cat.Len(), len(cat.Cultures())), nil
	})
	if err != nil {
		return nil, err
	}
	return sources, nil
}

// load reads rel paths into the FileSet. Unreadable files are logged and
// dropped; they never fail the run.
func (s *session) load(paths []string, kind source.Kind, stage Stage) []*source.File {
	files := make([]*source.File, 0, len(paths))
	for _, rel := range paths {
		s.opts.Observer.emit(Event{Stage: stage, Status: StatusQueued, File: rel})
		id, err := s.res.FileSet.Load(filepath.Join(s.m.Root, filepath.FromSlash(rel)), kind)
		if err != nil {
			s.log.Warn("failed to read file", "path", rel, "error", err)
			s.opts.Observer.emit(Event{Stage: stage, Status: StatusError, File: rel})
			continue
		}
		files = append(files, s.res.FileSet.Get(id))
	}
	if m := s.opts.Metrics; m != nil {
		m.Files.WithLabelValues(kind.String()).Add(float64(len(files)))
	}
	return files
}

// scan extracts usage sites in parallel and streams them into engine.
func (s *session) scan(ctx context.Context, files []*source.File, engine *analysis.Engine, r diag.Reporter) (int, error) {
	extractor := &usage.Auto{Pattern: usage.NewPatternExtractor()}
	accessors := s.m.Config.UsageAccessors()
	counts := make([]int, len(files))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(max(1, min(s.opts.Jobs, len(files))))
	for i, f := range files {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			rel := s.rel(f)
			s.opts.Observer.emit(Event{Stage: StageUsage, Status: StatusWorking, File: rel})
			n, err := s.scanFile(gctx, f, extractor, accessors, engine, r)
			if err != nil {
				s.opts.Observer.emit(Event{Stage: StageUsage, Status: StatusError, File: rel})
				return err
			}
			counts[i] = n
			s.opts.Observer.emit(Event{Stage: StageUsage, Status: StatusDone, File: rel})
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return 0, fmt.Errorf("usage scan: %w", err)
	}
	total := 0
	for _, n := range counts {
		total += n
	}
	return total, nil
}

func (s *session) scanFile(ctx context.Context, f *source.File, ex usage.Extractor, accessors []usage.Accessor, engine *analysis.Engine, r diag.Reporter) (n int, err error) {
	defer func() {
		if p := recover(); p != nil {
			s.log.Debug("usage scan skipped file after panic", "path", f.Path, "panic", p)
			n, err = 0, nil
		}
	}()
	sites := ex.Extract(f, accessors)
	for i, site := range sites {
		if i%checkEvery == 0 {
			if err := ctx.Err(); err != nil {
				return 0, err
			}
		}
		if d := engine.OnUsage(site); d != nil {
			r.Report(d)
		}
	}
	return len(sites), nil
}

func (s *session) rel(f *source.File) string {
	rel, err := filepath.Rel(s.m.Root, f.Path)
	if err != nil {
		return f.Path
	}
	return filepath.ToSlash(rel)
}
