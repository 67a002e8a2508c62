// Package server exposes graph runs over HTTP.
package server

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/dshills/stepgraph/graph"
	"github.com/dshills/stepgraph/graph/emit"
	"github.com/dshills/stepgraph/graph/store"
	"github.com/dshills/stepgraph/workflow/codereview"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Config holds the server's collaborators. Store and Catalog are required.
type Config struct {
	Store   store.Store
	Catalog *codereview.Catalog

	// MaxSteps is the step budget per run. Zero means the engine default.
	MaxSteps int

	// Emitter receives engine events in addition to the server's own
	// history buffer. Optional.
	Emitter emit.Emitter

	// Metrics records engine metrics. Optional.
	Metrics *graph.PrometheusMetrics

	// Gatherer backs GET /metrics. Defaults to prometheus.DefaultGatherer.
	Gatherer prometheus.Gatherer

	Logger *slog.Logger
}

// Server handles the graph API.
type Server struct {
	store    store.Store
	catalog  *codereview.Catalog
	engine   *graph.Engine[graph.State]
	history  *emit.BufferedEmitter
	gatherer prometheus.Gatherer
	logger   *slog.Logger

	newID func() string
	now   func() time.Time
}

// New creates a Server from cfg.
func New(cfg Config) *Server {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	gatherer := cfg.Gatherer
	if gatherer == nil {
		gatherer = prometheus.DefaultGatherer
	}

	history := emit.NewBufferedEmitter()
	engine := graph.New[graph.State](
		graph.WithMaxSteps(cfg.MaxSteps),
		graph.WithEmitter(emit.NewMultiEmitter(history, cfg.Emitter)),
		graph.WithMetrics(cfg.Metrics),
	)

	return &Server{
		store:    cfg.Store,
		catalog:  cfg.Catalog,
		engine:   engine,
		history:  history,
		gatherer: gatherer,
		logger:   logger,
		newID:    uuid.NewString,
		now:      func() time.Time { return time.Now().UTC() },
	}
}

// Handler returns the HTTP handler serving every route.
func (s *Server) Handler() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(requestLogger(s.logger))
	r.Use(middleware.Recoverer)

	r.Get("/healthz", s.health)
	r.Handle("/metrics", promhttp.HandlerFor(s.gatherer, promhttp.HandlerOpts{}))

	r.Route("/graph", func(r chi.Router) {
		r.Post("/create", s.createGraph)
		r.Post("/run", s.runGraph)
		r.Get("/runs", s.listRuns)
		r.Get("/state/{run_id}", s.getRunState)
		r.Get("/{graph_id}", s.getGraph)
	})
	return r
}

// ListenAndServe serves on addr until ctx is cancelled, then shuts down
// gracefully.
func (s *Server) ListenAndServe(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("server listening", "addr", addr)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		s.logger.Info("server shutting down")
		return srv.Shutdown(shutdownCtx)
	}
}
