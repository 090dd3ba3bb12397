// Package metrics provides Prometheus metrics for the crawler
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/c360studio/semcrawl/storage"
)

// Metrics holds all Prometheus metrics for the crawler. A nil *Metrics is
// valid and records nothing.
type Metrics struct {
	Registry *prometheus.Registry

	// Indexing metrics
	DocumentsTotal    *prometheus.CounterVec
	DeletionsTotal    prometheus.Counter
	CascadesTotal     *prometheus.CounterVec
	ItemFailuresTotal *prometheus.CounterVec

	// Resolution metrics
	ResolutionDuration *prometheus.HistogramVec
	CacheRequestsTotal *prometheus.CounterVec

	// Loop metrics
	DrainRunsTotal    *prometheus.CounterVec
	ReindexUnitsTotal prometheus.Counter
	ReindexRunsTotal  *prometheus.CounterVec
	ReindexInProgress prometheus.Gauge
}

// New creates all metrics on a dedicated registry.
func New() *Metrics {
	reg := prometheus.NewRegistry()
	factory := promauto.With(reg)
	m := &Metrics{Registry: reg}

	m.DocumentsTotal = factory.NewCounterVec(
		prometheus.CounterOpts{
			Name: "semcrawl_documents_total",
			Help: "Total number of index documents emitted",
		},
		[]string{"action"},
	)

	m.DeletionsTotal = factory.NewCounter(
		prometheus.CounterOpts{
			Name: "semcrawl_deletions_total",
			Help: "Total number of deletion documents emitted",
		},
	)

	m.CascadesTotal = factory.NewCounterVec(
		prometheus.CounterOpts{
			Name: "semcrawl_cascades_total",
			Help: "Total number of cascaded indexing operations",
		},
		[]string{"kind"},
	)

	m.ItemFailuresTotal = factory.NewCounterVec(
		prometheus.CounterOpts{
			Name: "semcrawl_item_failures_total",
			Help: "Total number of per-item failures by stage",
		},
		[]string{"stage"},
	)

	m.ResolutionDuration = factory.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "semcrawl_resolution_duration_seconds",
			Help:    "Duration of uncached resource resolutions in seconds",
			Buckets: []float64{.01, .05, .1, .25, .5, 1, 2.5, 5, 10, 30, 60},
		},
		[]string{"status"},
	)

	m.CacheRequestsTotal = factory.NewCounterVec(
		prometheus.CounterOpts{
			Name: "semcrawl_cache_requests_total",
			Help: "Total number of cache lookups",
		},
		[]string{"namespace", "result"},
	)

	m.DrainRunsTotal = factory.NewCounterVec(
		prometheus.CounterOpts{
			Name: "semcrawl_drain_runs_total",
			Help: "Total number of drain loop triggers",
		},
		[]string{"loop", "outcome"},
	)

	m.ReindexUnitsTotal = factory.NewCounter(
		prometheus.CounterOpts{
			Name: "semcrawl_reindex_units_total",
			Help: "Total number of PIDs scheduled for reindexing",
		},
	)

	m.ReindexRunsTotal = factory.NewCounterVec(
		prometheus.CounterOpts{
			Name: "semcrawl_reindex_runs_total",
			Help: "Total number of full reindex runs",
		},
		[]string{"outcome"},
	)

	m.ReindexInProgress = factory.NewGauge(
		prometheus.GaugeOpts{
			Name: "semcrawl_reindex_in_progress",
			Help: "Whether a full reindex is running",
		},
	)

	return m
}

// Document records an emitted document.
func (m *Metrics) Document(action string) {
	if m == nil {
		return
	}
	m.DocumentsTotal.WithLabelValues(action).Inc()
}

// Deletion records an emitted deletion document.
func (m *Metrics) Deletion() {
	if m == nil {
		return
	}
	m.DeletionsTotal.Inc()
}

// Cascade records a cascaded operation.
func (m *Metrics) Cascade(kind string) {
	if m == nil {
		return
	}
	m.CascadesTotal.WithLabelValues(kind).Inc()
}

// ItemFailure records a per-item failure.
func (m *Metrics) ItemFailure(stage string) {
	if m == nil {
		return
	}
	m.ItemFailuresTotal.WithLabelValues(stage).Inc()
}

// Resolution records the duration of a resolution.
func (m *Metrics) Resolution(d time.Duration, err error) {
	if m == nil {
		return
	}
	status := "ok"
	if err != nil {
		status = "error"
	}
	m.ResolutionDuration.WithLabelValues(status).Observe(d.Seconds())
}

// CacheLookup records a cache hit or miss. It matches storage.Observer.
func (m *Metrics) CacheLookup(ns storage.Namespace, hit bool) {
	if m == nil {
		return
	}
	result := "miss"
	if hit {
		result = "hit"
	}
	m.CacheRequestsTotal.WithLabelValues(string(ns), result).Inc()
}

// DrainRun records a drain trigger. outcome is "ran" or "skipped".
func (m *Metrics) DrainRun(loop, outcome string) {
	if m == nil {
		return
	}
	m.DrainRunsTotal.WithLabelValues(loop, outcome).Inc()
}

// ReindexUnit records a PID scheduled for reindexing.
func (m *Metrics) ReindexUnit() {
	if m == nil {
		return
	}
	m.ReindexUnitsTotal.Inc()
}

// ReindexStarted marks a reindex as running.
func (m *Metrics) ReindexStarted() {
	if m == nil {
		return
	}
	m.ReindexInProgress.Set(1)
}

// ReindexFinished records the outcome of a reindex run.
func (m *Metrics) ReindexFinished(err error) {
	if m == nil {
		return
	}
	m.ReindexInProgress.Set(0)
	outcome := "success"
	if err != nil {
		outcome = "failure"
	}
	m.ReindexRunsTotal.WithLabelValues(outcome).Inc()
}
