// Package metrics records scan statistics in a per-run Prometheus registry
// and writes them in the node exporter textfile format.
package metrics

import (
	"fmt"
	"strings"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Stage names used for the stage duration histogram.
const (
	StageExtract  = "extract"
	StageResolve  = "resolve"
	StageClassify = "classify"
	StageValidate = "validate"
)

// Metrics holds the collectors of one run. A nil *Metrics records nothing.
type Metrics struct {
	registry *prometheus.Registry

	filesScanned  prometheus.Counter
	symbols       prometheus.Counter
	edges         *prometheus.CounterVec
	warnings      *prometheus.CounterVec
	stageDuration *prometheus.HistogramVec
}

// New creates a Metrics with its own registry.
func New() *Metrics {
	reg := prometheus.NewRegistry()
	factory := promauto.With(reg)
	return &Metrics{
		registry: reg,

		// filesScanned counts files handed to the extractor.
		filesScanned: factory.NewCounter(prometheus.CounterOpts{
			Namespace: "typegraph",
			Name:      "files_scanned_total",
			Help:      "Source files scanned",
		}),

		// symbols counts graph nodes.
		symbols: factory.NewCounter(prometheus.CounterOpts{
			Namespace: "typegraph",
			Name:      "symbols_total",
			Help:      "Declared types in the graph",
		}),

		// edges counts graph edges.
		// Labels: kind (inheritance, composition, method)
		edges: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: "typegraph",
			Name:      "edges_total",
			Help:      "Dependency edges in the graph by kind",
		}, []string{"kind"}),

		// warnings counts recoverable diagnostics.
		// Labels: kind (ambiguous_include, symbol_conflict, ...)
		warnings: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: "typegraph",
			Name:      "warnings_total",
			Help:      "Recoverable warnings by kind",
		}, []string{"kind"}),

		// stageDuration measures pipeline stages.
		// Labels: stage (extract, resolve, classify, validate)
		stageDuration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "typegraph",
			Name:      "stage_duration_seconds",
			Help:      "Pipeline stage duration in seconds",
			Buckets:   []float64{0.001, 0.01, 0.05, 0.1, 0.5, 1, 5, 15, 60},
		}, []string{"stage"}),
	}
}

// Registry exposes the underlying registry.
func (m *Metrics) Registry() *prometheus.Registry {
	if m == nil {
		return nil
	}
	return m.registry
}

func (m *Metrics) FileScanned() {
	if m == nil {
		return
	}
	m.filesScanned.Inc()
}

func (m *Metrics) Symbols(n int) {
	if m == nil {
		return
	}
	m.symbols.Add(float64(n))
}

// Edges adds n edges of the given kind name.
func (m *Metrics) Edges(kind string, n int) {
	if m == nil {
		return
	}
	m.edges.WithLabelValues(strings.ToLower(kind)).Add(float64(n))
}

// Warning counts one diagnostic. It matches the callback of
// logging.NewCountingHandler.
func (m *Metrics) Warning(kind string) {
	if m == nil {
		return
	}
	m.warnings.WithLabelValues(kind).Inc()
}

// ObserveStage records how long stage took since start.
func (m *Metrics) ObserveStage(stage string, start time.Time) {
	if m == nil {
		return
	}
	m.stageDuration.WithLabelValues(stage).Observe(time.Since(start).Seconds())
}

// WriteTextfile writes every metric to path atomically.
func (m *Metrics) WriteTextfile(path string) error {
	if m == nil {
		return nil
	}
	if err := prometheus.WriteToTextfile(path, m.registry); err != nil {
		return fmt.Errorf("write metrics textfile: %w", err)
	}
	return nil
}
