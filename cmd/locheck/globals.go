package main

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strings"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
	"golang.org/x/term"

	"locheck/internal/config"
	"locheck/internal/prof"
)

const configFileHint = config.FileName

// errFindings signals that the run succeeded but found problems; main exits
// 1 without printing it.
var errFindings = errors.New("problems found")

type globalOptions struct {
	color          bool
	quiet          bool
	verbose        bool
	timings        bool
	maxDiagnostics int
	configPath     string
	profile        prof.Options
}

// profiling is the session started by setupGlobals; main stops it.
var profiling *prof.Session

func readGlobals(cmd *cobra.Command) (globalOptions, error) {
	flags := cmd.Root().PersistentFlags()
	var g globalOptions

	colorMode, err := flags.GetString("color")
	if err != nil {
		return g, fmt.Errorf("failed to get color flag: %w", err)
	}
	if g.color, err = colorEnabled(colorMode, os.Stdout); err != nil {
		return g, err
	}
	if g.quiet, err = flags.GetBool("quiet"); err != nil {
		return g, fmt.Errorf("failed to get quiet flag: %w", err)
	}
	if g.verbose, err = flags.GetBool("verbose"); err != nil {
		return g, fmt.Errorf("failed to get verbose flag: %w", err)
	}
	if g.quiet && g.verbose {
		return g, errors.New("--quiet and --verbose cannot be used together")
	}
	if g.timings, err = flags.GetBool("timings"); err != nil {
		return g, fmt.Errorf("failed to get timings flag: %w", err)
	}
	if g.maxDiagnostics, err = flags.GetInt("max-diagnostics"); err != nil {
		return g, fmt.Errorf("failed to get max-diagnostics flag: %w", err)
	}
	if g.configPath, err = flags.GetString("config"); err != nil {
		return g, fmt.Errorf("failed to get config flag: %w", err)
	}
	if g.profile.CPU, err = flags.GetString("cpu-profile"); err != nil {
		return g, fmt.Errorf("failed to get cpu-profile flag: %w", err)
	}
	if g.profile.Heap, err = flags.GetString("mem-profile"); err != nil {
		return g, fmt.Errorf("failed to get mem-profile flag: %w", err)
	}
	if g.profile.Trace, err = flags.GetString("runtime-trace"); err != nil {
		return g, fmt.Errorf("failed to get runtime-trace flag: %w", err)
	}
	return g, nil
}

// setupGlobals installs the slog handler and the color mode for every
// command.
func setupGlobals(cmd *cobra.Command, _ []string) error {
	g, err := readGlobals(cmd)
	if err != nil {
		return err
	}
	level := slog.LevelWarn
	switch {
	case g.verbose:
		level = slog.LevelDebug
	case g.quiet:
		level = slog.LevelError
	}
	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level})))
	color.NoColor = !g.color

	if g.profile.Enabled() {
		if err := stopProfiling(); err != nil {
			slog.Warn("previous profile", "err", err)
		}
		if profiling, err = prof.Start(g.profile); err != nil {
			return err
		}
	}
	return nil
}

// stopProfiling завершает активную сессию профилирования
func stopProfiling() error {
	s := profiling
	profiling = nil
	return s.Stop()
}

func colorEnabled(mode string, f *os.File) (bool, error) {
	switch strings.ToLower(strings.TrimSpace(mode)) {
	case "", "auto":
		return isTerminal(f) && os.Getenv("NO_COLOR") == "", nil
	case "on", "always":
		return true, nil
	case "off", "never":
		return false, nil
	}
	return false, fmt.Errorf("invalid --color value %q (expected auto|on|off)", mode)
}

// isTerminal проверяет, является ли файл терминалом
func isTerminal(f *os.File) bool {
	return term.IsTerminal(int(f.Fd()))
}

// loadManifest resolves the configuration for the target directory in args.
// An explicit --config wins over the upward search.
func loadManifest(g globalOptions, args []string) (*config.Manifest, error) {
	target := "."
	if len(args) > 0 {
		target = args[0]
	}
	if st, err := os.Stat(target); err != nil {
		return nil, err
	} else if !st.IsDir() {
		return nil, fmt.Errorf("%q is not a directory", target)
	}

	if g.configPath != "" {
		return config.Load(g.configPath)
	}
	m, found, err := config.Discover(target)
	if err != nil {
		return nil, err
	}
	if found {
		slog.Debug("using configuration", "path", m.Path)
	} else {
		slog.Debug("no configuration file, using defaults", "root", m.Root)
	}
	return m, nil
}
