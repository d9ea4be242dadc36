package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics provides observability for snapshot resolution.
// All methods are safe to call on a nil receiver.
type Metrics struct {
	// Upstream call latency by source and outcome
	SourceLatency *prometheus.HistogramVec

	// Fail-soft degradations by source and error category
	SourceFailures *prometheus.CounterVec

	// Breaker state per source (1 open, 0 closed)
	BreakerOpen *prometheus.GaugeVec

	// Cache lookups by result
	CacheLookups *prometheus.CounterVec

	// Resolutions by status: success, partial, error
	Resolutions *prometheus.CounterVec

	// Full resolve latency including cache hits
	ResolveLatency prometheus.Histogram

	// Record store writes that failed after a resolution
	PersistenceFailures prometheus.Counter

	// Snapshot events that could not be published
	PublishFailures prometheus.Counter
}

// New registers the collectors with the default registry.
func New() *Metrics {
	return NewWithRegisterer(prometheus.DefaultRegisterer)
}

// NewWithRegisterer registers the collectors with reg.
func NewWithRegisterer(reg prometheus.Registerer) *Metrics {
	f := promauto.With(reg)
	return &Metrics{
		SourceLatency: f.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "cra_source_request_duration_seconds",
			Help:    "Duration of upstream data source requests",
			Buckets: []float64{0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10},
		}, []string{"source", "outcome"}), // outcome: "ok", "error"

		SourceFailures: f.NewCounterVec(prometheus.CounterOpts{
			Name: "cra_source_failures_total",
			Help: "Upstream source failures absorbed by the fail-soft policy",
		}, []string{"source", "category"}),

		BreakerOpen: f.NewGaugeVec(prometheus.GaugeOpts{
			Name: "cra_source_breaker_open",
			Help: "Whether the circuit breaker for a source is open",
		}, []string{"source"}),

		CacheLookups: f.NewCounterVec(prometheus.CounterOpts{
			Name: "cra_snapshot_cache_lookups_total",
			Help: "Snapshot cache lookups by result",
		}, []string{"result"}), // result: "hit", "miss", "error"

		Resolutions: f.NewCounterVec(prometheus.CounterOpts{
			Name: "cra_resolutions_total",
			Help: "Snapshot resolutions by status",
		}, []string{"status"}),

		ResolveLatency: f.NewHistogram(prometheus.HistogramOpts{
			Name:    "cra_resolve_duration_seconds",
			Help:    "Duration of a full snapshot resolution",
			Buckets: []float64{0.001, 0.01, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30},
		}),

		PersistenceFailures: f.NewCounter(prometheus.CounterOpts{
			Name: "cra_persistence_failures_total",
			Help: "Snapshot record store writes that failed",
		}),

		PublishFailures: f.NewCounter(prometheus.CounterOpts{
			Name: "cra_publish_failures_total",
			Help: "Snapshot events that failed to publish",
		}),
	}
}

// ObserveSource records one upstream call.
func (m *Metrics) ObserveSource(source string, err error, d time.Duration) {
	if m == nil {
		return
	}
	outcome := "ok"
	if err != nil {
		outcome = "error"
	}
	m.SourceLatency.WithLabelValues(source, outcome).Observe(d.Seconds())
}

// IncSourceFailure counts a degraded source result.
func (m *Metrics) IncSourceFailure(source, category string) {
	if m != nil {
		m.SourceFailures.WithLabelValues(source, category).Inc()
	}
}

// SetBreakerOpen reflects breaker state for source.
func (m *Metrics) SetBreakerOpen(source string, open bool) {
	if m == nil {
		return
	}
	v := 0.0
	if open {
		v = 1
	}
	m.BreakerOpen.WithLabelValues(source).Set(v)
}

// IncCacheLookup counts a cache read.
func (m *Metrics) IncCacheLookup(result string) {
	if m != nil {
		m.CacheLookups.WithLabelValues(result).Inc()
	}
}

// IncResolution counts a resolution outcome.
func (m *Metrics) IncResolution(status string) {
	if m != nil {
		m.Resolutions.WithLabelValues(status).Inc()
	}
}

// ObserveResolve records total resolve latency.
func (m *Metrics) ObserveResolve(d time.Duration) {
	if m != nil {
		m.ResolveLatency.Observe(d.Seconds())
	}
}

// IncPersistenceFailure counts a failed record store write.
func (m *Metrics) IncPersistenceFailure() {
	if m != nil {
		m.PersistenceFailures.Inc()
	}
}

// IncPublishFailure counts a failed event publish.
func (m *Metrics) IncPublishFailure() {
	if m != nil {
		m.PublishFailures.Inc()
	}
}
