// Package observability provides Prometheus metrics for monitoring.
package observability

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds all Prometheus metrics for the application.
type Metrics struct {
	// Session metrics
	SessionsStarted    prometheus.Counter
	SessionsSuperseded prometheus.Counter
	SessionsCompleted  prometheus.Counter
	SessionsAborted    prometheus.Counter

	// Stream metrics
	BatchesReceived    *prometheus.CounterVec
	CandidatesIngested *prometheus.CounterVec
	CandidatesDropped  *prometheus.CounterVec
	SourceErrors       *prometheus.CounterVec
	StaleEventsDropped prometheus.Counter

	// Dedup metrics
	EventsKept    prometheus.Counter
	EventsMerged  prometheus.Counter
	DedupDuration prometheus.Histogram

	// Latency metrics
	FirstEventLatency *prometheus.HistogramVec

	// Database metrics
	DBQueryDuration *prometheus.HistogramVec
	DBQueryErrors   *prometheus.CounterVec
}

// NewMetrics creates a new Metrics instance with all metrics registered.
func NewMetrics(namespace string) *Metrics {
	if namespace == "" {
		namespace = "event_radar"
	}

	return &Metrics{
		// Session metrics
		SessionsStarted: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "session",
			Name:      "started_total",
			Help:      "Total number of search sessions started",
		}),
		SessionsSuperseded: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "session",
			Name:      "superseded_total",
			Help:      "Total number of sessions aborted by a newer search",
		}),
		SessionsCompleted: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "session",
			Name:      "completed_total",
			Help:      "Total number of sessions that reached COMPLETE",
		}),
		SessionsAborted: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "session",
			Name:      "aborted_total",
			Help:      "Total number of sessions that reached ABORTED",
		}),

		// Stream metrics
		BatchesReceived: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "stream",
			Name:      "batches_received_total",
			Help:      "Total number of event batches received by source",
		}, []string{"source"}),
		CandidatesIngested: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "stream",
			Name:      "candidates_ingested_total",
			Help:      "Total number of event candidates ingested by source",
		}, []string{"source"}),
		CandidatesDropped: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "stream",
			Name:      "candidates_dropped_total",
			Help:      "Total number of malformed candidates dropped by source",
		}, []string{"source"}),
		SourceErrors: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "stream",
			Name:      "source_errors_total",
			Help:      "Total number of source error frames by source",
		}, []string{"source"}),
		StaleEventsDropped: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "stream",
			Name:      "stale_events_dropped_total",
			Help:      "Total number of events discarded from superseded sessions",
		}),

		// Dedup metrics
		EventsKept: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "dedup",
			Name:      "events_kept_total",
			Help:      "Total number of events kept after deduplication",
		}),
		EventsMerged: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "dedup",
			Name:      "events_merged_total",
			Help:      "Total number of duplicate events merged away",
		}),
		DedupDuration: promauto.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "dedup",
			Name:      "duration_seconds",
			Help:      "Batch deduplication duration in seconds",
			Buckets:   prometheus.DefBuckets,
		}),

		// Latency metrics
		FirstEventLatency: promauto.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "stream",
			Name:      "first_event_latency_seconds",
			Help:      "Time from session start to first event per source",
			Buckets:   []float64{0.1, 0.25, 0.5, 1, 2, 5, 10, 30},
		}, []string{"source"}),

		// Database metrics
		DBQueryDuration: promauto.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "database",
			Name:      "query_duration_seconds",
			Help:      "Database query duration in seconds",
			Buckets:   prometheus.DefBuckets,
		}, []string{"database", "operation"}),
		DBQueryErrors: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "database",
			Name:      "query_errors_total",
			Help:      "Total number of database query errors",
		}, []string{"database", "operation"}),
	}
}

// Handler returns an HTTP handler for the /metrics endpoint.
func Handler() http.Handler {
	return promhttp.Handler()
}

// DefaultMetrics is the default metrics instance.
var DefaultMetrics = NewMetrics("")

// RecordBatch records a received batch and its ingested candidates.
func RecordBatch(source string, ingested int) {
	DefaultMetrics.BatchesReceived.WithLabelValues(source).Inc()
	DefaultMetrics.CandidatesIngested.WithLabelValues(source).Add(float64(ingested))
}

// RecordDroppedCandidates counts malformed candidates dropped at the
// decode boundary, before the batch reaches the session.
func RecordDroppedCandidates(source string, dropped int) {
	DefaultMetrics.CandidatesDropped.WithLabelValues(source).Add(float64(dropped))
}

// RecordSourceError increments the source error counter.
func RecordSourceError(source string) {
	DefaultMetrics.SourceErrors.WithLabelValues(source).Inc()
}

// RecordStaleDrop increments the stale event drop counter.
func RecordStaleDrop() {
	DefaultMetrics.StaleEventsDropped.Inc()
}

// RecordDedup records the outcome of one batch fold.
func RecordDedup(kept, merged int, seconds float64) {
	DefaultMetrics.EventsKept.Add(float64(kept))
	DefaultMetrics.EventsMerged.Add(float64(merged))
	DefaultMetrics.DedupDuration.Observe(seconds)
}

// RecordFirstEvent records the first-event latency for a source.
func RecordFirstEvent(source string, seconds float64) {
	DefaultMetrics.FirstEventLatency.WithLabelValues(source).Observe(seconds)
}

// RecordDBQuery records database query metrics.
func RecordDBQuery(database, operation string, seconds float64, err error) {
	DefaultMetrics.DBQueryDuration.WithLabelValues(database, operation).Observe(seconds)
	if err != nil {
		DefaultMetrics.DBQueryErrors.WithLabelValues(database, operation).Inc()
	}
}
