package main

import (
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/dshills/stepgraph/graph"
	"github.com/dshills/stepgraph/graph/emit"
	"github.com/dshills/stepgraph/graph/store"
	"github.com/dshills/stepgraph/server"
	"github.com/dshills/stepgraph/workflow/codereview"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/cobra"
	"go.opentelemetry.io/otel"
)

func newServeCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the HTTP server",
		Long:  `Starts the graph API: create graphs, run them, and look up run results by ID.`,
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, logger, err := loadConfig(cmd)
			if err != nil {
				return err
			}
			if cmd.Flags().Changed("addr") {
				cfg.Server.Addr, _ = cmd.Flags().GetString("addr")
			}

			st, err := store.Open(store.Config{
				Driver:        cfg.Store.Driver,
				DSN:           cfg.Store.DSN,
				RedisAddr:     cfg.Store.RedisAddr,
				RedisPassword: cfg.Store.RedisPassword,
				RedisDB:       cfg.Store.RedisDB,
				RedisTTL:      cfg.Store.RedisTTL,
				RedisPrefix:   cfg.Store.RedisPrefix,
			})
			if err != nil {
				return err
			}
			defer func() {
				if err := st.Close(); err != nil {
					logger.Warn("store close failed", "error", err)
				}
			}()

			suggester, err := newSuggester(cfg.Review)
			if err != nil {
				return err
			}

			emitters := []emit.Emitter{emit.NewLogEmitter(logger)}
			if cfg.Tracing.Enabled {
				tp := newTracerProvider(logger)
				otel.SetTracerProvider(tp)
				defer func() { _ = tp.Shutdown(cmd.Context()) }()
				emitters = append(emitters, emit.NewOTelEmitter(otel.Tracer("stepgraph")))
			}

			srv := server.New(server.Config{
				Store: st,
				Catalog: codereview.NewCatalog(
					codereview.WithSuggester(suggester),
					codereview.WithLogger(logger),
				),
				MaxSteps: cfg.Engine.MaxSteps,
				Emitter:  emit.NewMultiEmitter(emitters...),
				Metrics:  graph.NewPrometheusMetrics(prometheus.DefaultRegisterer),
				Gatherer: prometheus.DefaultGatherer,
				Logger:   logger,
			})

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			logger.Info("starting stepgraph", "store", cfg.Store.Driver, "review_provider", cfg.Review.Provider)
			if err := srv.ListenAndServe(ctx, cfg.Server.Addr); err != nil && !errors.Is(err, http.ErrServerClosed) {
				return err
			}
			logger.Info("stepgraph stopped")
			return nil
		},
	}

	cmd.Flags().String("addr", "", "Address to listen on; overrides server.addr")
	return cmd
}
