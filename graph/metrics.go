package graph

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const (
	statusSuccess = "success"
	statusError   = "error"
)

// PrometheusMetrics provides Prometheus-compatible metrics for graph execution.
//
// Metrics exposed (all namespaced with "stepgraph_"):
//
//  1. runs_total (counter): Finished runs.
//     Labels: status (completed, budget_exhausted, error).
//  2. steps_total (counter): Executed node steps.
//     Labels: node_id.
//  3. step_latency_ms (histogram): Node execution duration in milliseconds.
//     Labels: node_id, status (success/error).
//  4. inflight_runs (gauge): Runs currently executing.
//
// A nil *PrometheusMetrics is valid and records nothing.
//
// Usage:
//
//	registry := prometheus.NewRegistry()
//	metrics := graph.NewPrometheusMetrics(registry)
//	engine := graph.New[graph.State](graph.WithMetrics(metrics))
//	http.Handle("/metrics", promhttp.HandlerFor(registry, promhttp.HandlerOpts{}))
type PrometheusMetrics struct {
	runs         *prometheus.CounterVec
	steps        *prometheus.CounterVec
	stepLatency  *prometheus.HistogramVec
	inflightRuns prometheus.Gauge
}

// NewPrometheusMetrics creates and registers all graph execution metrics with
// the provided registry. A nil registry means prometheus.DefaultRegisterer.
//
// Registering twice on the same registry panics, as with any promauto metric;
// share one PrometheusMetrics between engines instead.
func NewPrometheusMetrics(registry prometheus.Registerer) *PrometheusMetrics {
	if registry == nil {
		registry = prometheus.DefaultRegisterer
	}

	factory := promauto.With(registry)

	return &PrometheusMetrics{
		runs: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: "stepgraph",
			Name:      "runs_total",
			Help:      "Total number of finished graph runs by outcome",
		}, []string{"status"}),

		steps: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: "stepgraph",
			Name:      "steps_total",
			Help:      "Total number of executed node steps",
		}, []string{"node_id"}),

		stepLatency: factory.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "stepgraph",
			Name:      "step_latency_ms",
			Help:      "Node execution duration in milliseconds",
			Buckets:   []float64{1, 5, 10, 50, 100, 500, 1000, 5000, 10000},
		}, []string{"node_id", "status"}),

		inflightRuns: factory.NewGauge(prometheus.GaugeOpts{
			Namespace: "stepgraph",
			Name:      "inflight_runs",
			Help:      "Number of graph runs currently executing",
		}),
	}
}

func (pm *PrometheusMetrics) runStarted() {
	if pm == nil {
		return
	}
	pm.inflightRuns.Inc()
}

func (pm *PrometheusMetrics) runFinished() {
	if pm == nil {
		return
	}
	pm.inflightRuns.Dec()
}

func (pm *PrometheusMetrics) recordRun(status string) {
	if pm == nil {
		return
	}
	pm.runs.WithLabelValues(status).Inc()
}

func (pm *PrometheusMetrics) recordStep(nodeID, status string, d time.Duration) {
	if pm == nil {
		return
	}
	if status == statusSuccess {
		pm.steps.WithLabelValues(nodeID).Inc()
	}
	pm.stepLatency.WithLabelValues(nodeID, status).Observe(durationMillis(d))
}
