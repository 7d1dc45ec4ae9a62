package observ

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	"locheck/internal/diag"
	"locheck/internal/source"
)

func TestTimerReport(t *testing.T) {
	timer := NewTimer()
	idx := timer.Begin("catalog")
	timer.End(idx, "3 files")
	err := timer.Measure("usage", func() (string, error) { return "", errors.New("boom") })
	if err == nil {
		t.Fatal("Measure must return fn's error")
	}
	timer.End(42, "ignored")

	report := timer.Report()
	if len(report.Phases) != 2 {
		t.Fatalf("expected 2 phases, got %d", len(report.Phases))
	}
	if report.Phases[0].Name != "catalog" || report.Phases[0].Note != "3 files" {
		t.Errorf("unexpected first phase: %+v", report.Phases[0])
	}
	if report.Phases[1].Note != "failed" {
		t.Errorf("failed phase note = %q", report.Phases[1].Note)
	}
	if report.TotalMS < report.Phases[0].DurationMS {
		t.Errorf("total %.3f smaller than a phase %.3f", report.TotalMS, report.Phases[0].DurationMS)
	}

	summary := timer.Summary()
	for _, want := range []string{"timings:", "catalog", "// 3 files", "total"} {
		if !strings.Contains(summary, want) {
			t.Errorf("summary lacks %q:\n%s", want, summary)
		}
	}
}

func TestTimerNilAndConcurrent(t *testing.T) {
	var nilTimer *Timer
	nilTimer.End(nilTimer.Begin("x"), "")
	if r := nilTimer.Report(); len(r.Phases) != 0 {
		t.Errorf("nil timer report must be empty")
	}

	timer := NewTimer()
	var wg sync.WaitGroup
	for range 16 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			timer.End(timer.Begin("scan"), "")
		}()
	}
	wg.Wait()
	if n := len(timer.Report().Phases); n != 16 {
		t.Errorf("expected 16 phases, got %d", n)
	}
}

func TestMetricsTextfile(t *testing.T) {
	m := NewMetrics()
	span := source.Span{}
	m.ObserveDiagnostics([]*diag.Diagnostic{
		diag.NewError(diag.KeyMissing, span, "a"),
		diag.NewError(diag.KeyMissing, span, "b"),
		diag.NewWarning(diag.KeyUnused, span, "c"),
	})
	m.Files.WithLabelValues("resource").Add(2)
	m.Keys.WithLabelValues("en").Set(5)
	m.ObserveTimings(Report{Phases: []PhaseReport{{Name: "catalog", DurationMS: 1500}}})

	path := filepath.Join(t.TempDir(), "locheck.prom")
	if err := m.WriteTextfile(path); err != nil {
		t.Fatalf("WriteTextfile: %v", err)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	got := string(data)
	for _, want := range []string{
		`locheck_diagnostics_total{code="MISSING_KEY",severity="error"} 2`,
		`locheck_diagnostics_total{code="UNUSED_KEY",severity="warning"} 1`,
		`locheck_files_scanned_total{kind="resource"} 2`,
		`locheck_catalog_keys{culture="en"} 5`,
		`locheck_phase_duration_seconds{phase="catalog"} 1.5`,
	} {
		if !strings.Contains(got, want) {
			t.Errorf("textfile lacks %q:\n%s", want, got)
		}
	}
}
