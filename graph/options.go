package graph

import (
	"github.com/dshills/stepgraph/graph/emit"
)

// DefaultMaxSteps is the step budget applied when none is configured.
const DefaultMaxSteps = 50

// Options configures Engine execution behavior.
//
// Zero values are valid - the Engine will use sensible defaults.
type Options struct {
	// MaxSteps bounds the number of node executions per run. Reaching it
	// ends the run normally with ReasonBudgetExhausted.
	// If 0 or negative, DefaultMaxSteps is used.
	MaxSteps int

	// Emitter receives observability events. Nil disables emission.
	Emitter emit.Emitter

	// Metrics records Prometheus metrics. Nil disables collection.
	Metrics *PrometheusMetrics
}

// Option is a functional option for configuring an Engine.
//
// Example:
//
//	engine := graph.New[graph.State](
//	    graph.WithMaxSteps(100),
//	    graph.WithEmitter(emit.NewLogEmitter(logger)),
//	)
type Option func(*Options)

// WithMaxSteps sets the step budget.
//
// Loops are fully supported; the budget is the safety valve for a router
// whose exit condition never holds. Size it as depth × expected iterations.
func WithMaxSteps(n int) Option {
	return func(o *Options) {
		o.MaxSteps = n
	}
}

// WithEmitter sets the event emitter.
func WithEmitter(e emit.Emitter) Option {
	return func(o *Options) {
		o.Emitter = e
	}
}

// WithMetrics enables Prometheus metrics collection.
//
// Example:
//
//	registry := prometheus.NewRegistry()
//	engine := graph.New[graph.State](graph.WithMetrics(graph.NewPrometheusMetrics(registry)))
//	http.Handle("/metrics", promhttp.HandlerFor(registry, promhttp.HandlerOpts{}))
func WithMetrics(m *PrometheusMetrics) Option {
	return func(o *Options) {
		o.Metrics = m
	}
}

func (o Options) maxSteps() int {
	if o.MaxSteps <= 0 {
		return DefaultMaxSteps
	}
	return o.MaxSteps
}
