// Package metrics provides Prometheus metrics for file ingestion and scoring.
//
// A nil *Manager is valid and records nothing, so callers never need to
// check whether metrics are enabled.
package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// File outcome labels.
const (
	StatusProcessed = "processed"
	StatusFailed    = "failed"
	StatusRejected  = "rejected"
)

// Manager owns the ingestion metrics and the registry they live in.
type Manager struct {
	namespace        string
	subsystem        string
	histogramBuckets []float64
	registry         *prometheus.Registry

	files        *prometheus.CounterVec
	fileDuration prometheus.Histogram
	rows         prometheus.Counter
	rowErrors    *prometheus.CounterVec
	results      *prometheus.CounterVec
	lookupMisses prometheus.Counter
	activeFiles  prometheus.Gauge
}

// NewManager creates a metrics manager. Without WithPrometheusRegistry a
// fresh registry is used, keeping the Go runtime collectors out.
func NewManager(opts ...Option) *Manager {
	m := &Manager{
		namespace:        "swimscore",
		subsystem:        "ingest",
		histogramBuckets: []float64{0.01, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30},
	}
	for _, opt := range opts {
		opt(m)
	}
	if m.registry == nil {
		m.registry = prometheus.NewRegistry()
	}

	m.initializeMetrics()
	return m
}

func (m *Manager) initializeMetrics() {
	auto := promauto.With(m.registry)

	m.files = auto.NewCounterVec(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "files_total",
		Help:      "Files handled, by outcome",
	}, []string{"status"})

	m.fileDuration = auto.NewHistogram(prometheus.HistogramOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "file_duration_seconds",
		Help:      "Time spent processing one file",
		Buckets:   m.histogramBuckets,
	})

	m.rows = auto.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "rows_total",
		Help:      "Data rows read from sheets",
	})

	m.rowErrors = auto.NewCounterVec(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "row_errors_total",
		Help:      "Row problems, split into skipped rows and warnings",
	}, []string{"kind"})

	m.results = auto.NewCounterVec(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "results_total",
		Help:      "Scored results, by event kind",
	}, []string{"kind"})

	m.lookupMisses = auto.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: "scoring",
		Name:      "lookup_misses_total",
		Help:      "Scoring lookups that found no point table",
	})

	m.activeFiles = auto.NewGauge(prometheus.GaugeOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "active_files",
		Help:      "Files currently being processed",
	})
}

// RecordFile counts a finished file and observes its duration.
func (m *Manager) RecordFile(status string, d time.Duration) {
	if m == nil {
		return
	}
	m.files.WithLabelValues(status).Inc()
	m.fileDuration.Observe(d.Seconds())
}

// RecordRows counts data rows read.
func (m *Manager) RecordRows(n int) {
	if m == nil || n <= 0 {
		return
	}
	m.rows.Add(float64(n))
}

// RecordRowErrors counts row problems.
func (m *Manager) RecordRowErrors(skipped, warnings int) {
	if m == nil {
		return
	}
	if skipped > 0 {
		m.rowErrors.WithLabelValues("skipped").Add(float64(skipped))
	}
	if warnings > 0 {
		m.rowErrors.WithLabelValues("warning").Add(float64(warnings))
	}
}

// RecordResults counts scored results of one event kind ("swim", "dryland").
func (m *Manager) RecordResults(kind string, n int) {
	if m == nil || n <= 0 {
		return
	}
	m.results.WithLabelValues(kind).Add(float64(n))
}

// RecordLookupMiss counts a scoring lookup without a table. Its signature
// matches the scoring engine's miss observer.
func (m *Manager) RecordLookupMiss(_ string, _ int) {
	if m == nil {
		return
	}
	m.lookupMisses.Inc()
}

// FileStarted and FileDone track in-flight files.
func (m *Manager) FileStarted() {
	if m != nil {
		m.activeFiles.Inc()
	}
}

func (m *Manager) FileDone() {
	if m != nil {
		m.activeFiles.Dec()
	}
}

// Registry returns the registry metrics are registered on.
func (m *Manager) Registry() *prometheus.Registry {
	if m == nil {
		return nil
	}
	return m.registry
}

// Handler serves the registry in the Prometheus exposition format.
func (m *Manager) Handler() http.Handler {
	if m == nil {
		return http.NotFoundHandler()
	}
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}
