package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

const namespace = "kbingest"

// Attempt outcomes recorded by ObserveAttempt.
const (
	OutcomeSuccess     = "success"
	OutcomeServerError = "server_error"
	OutcomeError       = "error"
	OutcomeUnreachable = "unreachable"
)

// Metrics holds the collectors for one process.
type Metrics struct {
	registry *prometheus.Registry

	attempts        *prometheus.CounterVec
	attemptDuration *prometheus.HistogramVec
	halvings        *prometheus.CounterVec
	degraded        *prometheus.CounterVec

	documents  prometheus.Counter
	chunks     prometheus.Counter
	duplicates prometheus.Counter
	rows       *prometheus.CounterVec
	runs       *prometheus.CounterVec

	runDuration prometheus.Histogram
	lastSuccess prometheus.Gauge
}

// New creates Metrics registered on a fresh registry.
func New() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),

		attempts: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "embedding_attempts_total",
			Help:      "Embedding requests sent, by outcome",
		}, []string{"transport", "outcome"}),

		attemptDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "embedding_attempt_duration_seconds",
			Help:      "Embedding request duration in seconds",
			Buckets:   []float64{0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30, 120},
		}, []string{"transport"}),

		halvings: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "embedding_halvings_total",
			Help:      "Inputs halved after a server error",
		}, []string{"transport"}),

		degraded: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "embedding_degraded_total",
			Help:      "Texts that fell back to a zero vector",
		}, []string{"transport"}),

		documents: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "documents_loaded_total",
			Help:      "Documents read from the source directory",
		}),

		chunks: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "chunks_created_total",
			Help:      "Chunks produced by the splitter",
		}),

		duplicates: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "chunks_duplicate_total",
			Help:      "Chunks whose content repeats an earlier chunk in the same run",
		}),

		rows: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "rows_persisted_total",
			Help:      "Rows written to the vector store",
		}, []string{"collection"}),

		runs: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "runs_total",
			Help:      "Ingestion runs, by result",
		}, []string{"result"}),

		runDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "run_duration_seconds",
			Help:      "Wall time of an ingestion run",
			Buckets:   prometheus.ExponentialBuckets(1, 2, 12),
		}),

		lastSuccess: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "last_success_timestamp_seconds",
			Help:      "Unix time of the last successful run",
		}),
	}

	m.registry.MustRegister(
		m.attempts, m.attemptDuration,
		m.halvings, m.degraded,
		m.documents, m.chunks, m.duplicates, m.rows,
		m.runs, m.runDuration, m.lastSuccess,
	)
	return m
}

// Registry exposes the underlying registry, e.g. for promhttp.
func (m *Metrics) Registry() *prometheus.Registry {
	if m == nil {
		return nil
	}
	return m.registry
}

// ObserveAttempt records one embedding request.
func (m *Metrics) ObserveAttempt(transport, outcome string, d time.Duration) {
	if m == nil {
		return
	}
	m.attempts.WithLabelValues(transport, outcome).Inc()
	m.attemptDuration.WithLabelValues(transport).Observe(d.Seconds())
}

// IncHalvings records that an input was halved.
func (m *Metrics) IncHalvings(transport string) {
	if m == nil {
		return
	}
	m.halvings.WithLabelValues(transport).Inc()
}

// IncDegraded records a zero-vector fallback.
func (m *Metrics) IncDegraded(transport string) {
	if m == nil {
		return
	}
	m.degraded.WithLabelValues(transport).Inc()
}

// AddDocuments records loaded documents.
func (m *Metrics) AddDocuments(n int) {
	if m == nil {
		return
	}
	m.documents.Add(float64(n))
}

// AddChunks records created chunks and how many of them were duplicates.
func (m *Metrics) AddChunks(n, duplicates int) {
	if m == nil {
		return
	}
	m.chunks.Add(float64(n))
	m.duplicates.Add(float64(duplicates))
}

// AddRows records rows persisted into collection.
func (m *Metrics) AddRows(collection string, n int) {
	if m == nil {
		return
	}
	m.rows.WithLabelValues(collection).Add(float64(n))
}

// ObserveRun records the end of a run. result is "success", "empty" or the
// name of the stage that failed.
func (m *Metrics) ObserveRun(result string, d time.Duration) {
	if m == nil {
		return
	}
	m.runs.WithLabelValues(result).Inc()
	m.runDuration.Observe(d.Seconds())
	if result == "success" {
		m.lastSuccess.SetToCurrentTime()
	}
}

// WriteTextfile writes the registry in the text exposition format to path,
// atomically, for the node_exporter textfile collector.
func (m *Metrics) WriteTextfile(path string) error {
	if m == nil || path == "" {
		return nil
	}
	return prometheus.WriteToTextfile(path, m.registry)
}
