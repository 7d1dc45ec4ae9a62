package main

import (
	"context"
	"fmt"
	"os"
	"strings"

	tea "github.com/charmbracelet/bubbletea"

	"locheck/internal/catalog"
	"locheck/internal/config"
	"locheck/internal/driver"
	"locheck/internal/observ"
	"locheck/internal/ui"
)

type runFlags struct {
	jobs        int
	cache       bool
	ui          string
	metricsFile string
}

type runOutcome struct {
	res *driver.Result
	err error
}

// driverOptions maps CLI flags onto driver options.
func driverOptions(g globalOptions, rf runFlags) (driver.Options, error) {
	opts := driver.Options{
		Jobs:           rf.jobs,
		MaxDiagnostics: g.maxDiagnostics,
	}
	if rf.cache {
		cache, err := catalog.OpenDiskCache("locheck")
		if err != nil {
			return opts, fmt.Errorf("failed to open cache: %w", err)
		}
		opts.Cache = cache
	}
	if rf.metricsFile != "" {
		opts.Metrics = observ.NewMetrics()
	}
	return opts, nil
}

func shouldUseTUI(mode string, g globalOptions) (bool, error) {
	switch strings.ToLower(strings.TrimSpace(mode)) {
	case "", "auto":
		return !g.quiet && isTerminal(os.Stderr), nil
	case "on":
		return true, nil
	case "off":
		return false, nil
	}
	return false, fmt.Errorf("invalid --ui value %q (expected auto|on|off)", mode)
}

// runWithUI runs a check while a progress view renders on stderr.
func runWithUI(ctx context.Context, m *config.Manifest, opts driver.Options) (*driver.Result, error) {
	events := make(chan driver.Event, 256)
	opts.Observer = func(ev driver.Event) {
		// UI может отставать: теряем событие, но не тормозим воркеры
		select {
		case events <- ev:
		default:
		}
	}
	outcomeCh := make(chan runOutcome, 1)
	go func() {
		res, err := driver.Run(ctx, m, opts)
		outcomeCh <- runOutcome{res: res, err: err}
		close(events)
	}()

	model := ui.NewProgressModel("checking "+m.Root, events)
	program := tea.NewProgram(model, tea.WithOutput(os.Stderr))
	_, uiErr := program.Run()
	outcome := <-outcomeCh
	if uiErr != nil {
		return outcome.res, uiErr
	}
	return outcome.res, outcome.err
}

func finishRun(g globalOptions, rf runFlags, res *driver.Result, opts driver.Options) error {
	if g.timings && !opts.EmitTimings {
		fmt.Fprint(os.Stderr, res.Timer.Summary())
	}
	if opts.Metrics != nil {
		return opts.Metrics.WriteTextfile(rf.metricsFile)
	}
	return nil
}
