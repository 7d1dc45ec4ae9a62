package observ

import (
	"fmt"

	"github.com/prometheus/client_golang/prometheus"

	"locheck/internal/diag"
)

const namespace = "locheck"

// Metrics holds the counters of one run on a private registry, so tests and
// repeated runs never collide on the default one.
type Metrics struct {
	registry *prometheus.Registry

	Diagnostics *prometheus.CounterVec
	Files       *prometheus.CounterVec
	Keys        *prometheus.GaugeVec
	Phase       *prometheus.GaugeVec
}

func NewMetrics() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		Diagnostics: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "diagnostics_total",
				Help:      "Diagnostics reported, by code and severity",
			},
			[]string{"code", "severity"},
		),
		Files: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "files_scanned_total",
				Help:      "Files read during the run, by kind",
			},
			[]string{"kind"},
		),
		Keys: prometheus.NewGaugeVec(
			prometheus.GaugeOpts{
				Namespace: namespace,
				Name:      "catalog_keys",
				Help:      "Keys defined per culture",
			},
			[]string{"culture"},
		),
		Phase: prometheus.NewGaugeVec(
			prometheus.GaugeOpts{
				Namespace: namespace,
				Name:      "phase_duration_seconds",
				Help:      "Wall time of each pipeline phase",
			},
			[]string{"phase"},
		),
	}
	m.registry.MustRegister(m.Diagnostics, m.Files, m.Keys, m.Phase)
	return m
}

// ObserveDiagnostics counts diags by code.
func (m *Metrics) ObserveDiagnostics(diags []*diag.Diagnostic) {
	if m == nil {
		return
	}
	for _, d := range diags {
		m.Diagnostics.WithLabelValues(d.Code.ID(), d.Severity.Label()).Inc()
	}
}

// ObserveTimings records every phase of report.
func (m *Metrics) ObserveTimings(report Report) {
	if m == nil {
		return
	}
	for _, p := range report.Phases {
		m.Phase.WithLabelValues(p.Name).Set(p.DurationMS / 1000)
	}
}

// Registry exposes the underlying registry.
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

// WriteTextfile writes the metrics in the node-exporter textfile format.
func (m *Metrics) WriteTextfile(path string) error {
	if err := prometheus.WriteToTextfile(path, m.registry); err != nil {
		return fmt.Errorf("write metrics %s: %w", path, err)
	}
	return nil
}
