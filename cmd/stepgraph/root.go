package main

import (
	"fmt"
	"log/slog"

	"github.com/dshills/stepgraph/config"
	"github.com/dshills/stepgraph/internal/logging"
	"github.com/dshills/stepgraph/llm/providers"
	"github.com/dshills/stepgraph/workflow/codereview"
	"github.com/spf13/cobra"
)

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:           "stepgraph",
		Short:         "stepgraph runs step-by-step node graphs",
		Long:          `stepgraph executes graphs of named nodes over a shared state, one node at a time, and serves the code review workflow over HTTP.`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	// Persistent flags (available to all commands)
	root.PersistentFlags().String("config", "", "Path to a YAML config file")
	root.PersistentFlags().String("log-level", "", "Log level (debug, info, warn, error); overrides the config")

	root.AddCommand(newServeCmd(), newRunCmd(), newGraphCmd())
	return root
}

// loadConfig resolves the configuration and builds the logger for cmd.
func loadConfig(cmd *cobra.Command) (config.Config, *slog.Logger, error) {
	path, _ := cmd.Flags().GetString("config")
	cfg, err := config.Load(path)
	if err != nil {
		return config.Config{}, nil, err
	}

	if lvl, _ := cmd.Flags().GetString("log-level"); lvl != "" {
		cfg.Log.Level = lvl
	}
	level, err := logging.ParseLevel(cfg.Log.Level)
	if err != nil {
		return config.Config{}, nil, fmt.Errorf("log.level: %w", err)
	}

	return cfg, logging.New(level, cfg.Log.Format, cmd.ErrOrStderr()), nil
}

// newSuggester picks the suggest_improvements backend named by cfg.
func newSuggester(cfg config.ReviewConfig) (codereview.Suggester, error) {
	if cfg.Provider == "" || cfg.Provider == "heuristic" {
		return codereview.HeuristicSuggester{}, nil
	}

	model, err := providers.New(providers.Config{
		Provider:  cfg.Provider,
		Model:     cfg.Model,
		APIKeyEnv: cfg.APIKeyEnv,
	})
	if err != nil {
		return nil, err
	}
	return codereview.LLMSuggester{Model: model}, nil
}
