package workflow

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics collects Prometheus metrics for workflow execution.
//
// Metrics exposed (all namespaced with "workflow_"):
//
//   - inflight_operations (gauge): operations currently executing.
//   - ready_operations (gauge): operations ready and waiting for a slot
//     under the concurrency ceiling.
//   - operation_duration_seconds (histogram): execution time per
//     operation, labeled by operation name and status.
//   - operations_total (counter): finished operations by status
//     (completed, failed, skipped, cancelled).
//   - runs_total (counter): terminal workflows by outcome
//     (completed, failed).
//
// Create with NewMetrics and attach via WithMetrics. A single Metrics
// may be shared by many workflows; the counters and the histogram then
// accumulate across them, while the two gauges hold the counts of the
// workflow that updated them last, not a sum over all workflows. All
// methods are safe for concurrent use and nil-safe: a nil *Metrics
// records nothing.
//
//	registry := prometheus.NewRegistry()
//	metrics := workflow.NewMetrics(registry)
//	w, err := workflow.New(4, workflow.WithMetrics(metrics))
//	http.Handle("/metrics", promhttp.HandlerFor(registry, promhttp.HandlerOpts{}))
type Metrics struct {
	inflight   prometheus.Gauge
	ready      prometheus.Gauge
	duration   *prometheus.HistogramVec
	operations *prometheus.CounterVec
	runs       *prometheus.CounterVec
}

// NewMetrics creates and registers workflow metrics with the given
// registry. Passing nil registers with the default registerer.
func NewMetrics(registry prometheus.Registerer) *Metrics {
	if registry == nil {
		registry = prometheus.DefaultRegisterer
	}
	factory := promauto.With(registry)

	return &Metrics{
		inflight: factory.NewGauge(prometheus.GaugeOpts{
			Namespace: "workflow",
			Name:      "inflight_operations",
			Help:      "Number of operations currently executing.",
		}),
		ready: factory.NewGauge(prometheus.GaugeOpts{
			Namespace: "workflow",
			Name:      "ready_operations",
			Help:      "Number of operations ready to start and waiting for a concurrency slot.",
		}),
		duration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "workflow",
			Name:      "operation_duration_seconds",
			Help:      "Operation execution time from dispatch to completion.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"operation", "status"}),
		operations: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: "workflow",
			Name:      "operations_total",
			Help:      "Finished operations by status.",
		}, []string{"status"}),
		runs: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: "workflow",
			Name:      "runs_total",
			Help:      "Terminal workflows by outcome.",
		}, []string{"outcome"}),
	}
}

func (m *Metrics) setInflight(n int) {
	if m == nil {
		return
	}
	m.inflight.Set(float64(n))
}

func (m *Metrics) setReady(n int) {
	if m == nil {
		return
	}
	m.ready.Set(float64(n))
}

func (m *Metrics) observeOperation(name string, d time.Duration, status string) {
	if m == nil {
		return
	}
	if name == "" {
		name = "unnamed"
	}
	m.duration.WithLabelValues(name, status).Observe(d.Seconds())
	m.operations.WithLabelValues(status).Inc()
}

func (m *Metrics) countSkipped() {
	if m == nil {
		return
	}
	m.operations.WithLabelValues("skipped").Inc()
}

func (m *Metrics) countRun(outcome string) {
	if m == nil {
		return
	}
	m.runs.WithLabelValues(outcome).Inc()
}
