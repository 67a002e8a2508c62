package main

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/dshills/stepgraph/graph"
	"github.com/dshills/stepgraph/graph/emit"
	"github.com/dshills/stepgraph/workflow/codereview"
	"github.com/spf13/cobra"
)

func newRunCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "run",
		Short: "Run the code review workflow once",
		Long: `Runs the built-in code review graph in process and prints the result.
The initial state comes from --state (a JSON object); --code-file sets its "code" key.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, logger, err := loadConfig(cmd)
			if err != nil {
				return err
			}

			initial := graph.State{}
			if raw, _ := cmd.Flags().GetString("state"); raw != "" {
				if err := json.Unmarshal([]byte(raw), &initial); err != nil {
					return fmt.Errorf("invalid --state: %w", err)
				}
				if initial == nil {
					initial = graph.State{}
				}
			}
			if path, _ := cmd.Flags().GetString("code-file"); path != "" {
				code, err := os.ReadFile(path)
				if err != nil {
					return fmt.Errorf("failed to read code file: %w", err)
				}
				initial[codereview.KeyCode] = string(code)
			}

			maxSteps := cfg.Engine.MaxSteps
			if cmd.Flags().Changed("max-steps") {
				maxSteps, _ = cmd.Flags().GetInt("max-steps")
			}

			suggester, err := newSuggester(cfg.Review)
			if err != nil {
				return err
			}

			g := codereview.NewGraph(codereview.WithSuggester(suggester), codereview.WithLogger(logger))
			engine := graph.New[graph.State](
				graph.WithMaxSteps(maxSteps),
				graph.WithEmitter(emit.NewLogEmitter(logger)),
			)

			res, err := engine.Run(cmd.Context(), g, initial)
			if err != nil {
				return fmt.Errorf("run failed: %w", err)
			}

			out := cmd.OutOrStdout()
			if format, _ := cmd.Flags().GetString("format"); format == "text" {
				for _, entry := range res.Log {
					fmt.Fprintln(out, entry)
				}
				fmt.Fprintf(out, "%d steps, %s\n", res.Steps, res.Reason)
				return nil
			}

			enc := json.NewEncoder(out)
			enc.SetIndent("", "  ")
			return enc.Encode(res)
		},
	}

	cmd.Flags().String("state", "", "Initial state as a JSON object")
	cmd.Flags().String("code-file", "", "File whose contents become the code to review")
	cmd.Flags().Int("max-steps", 0, "Step budget; overrides engine.max_steps")
	cmd.Flags().String("format", "json", "Output format (json or text)")
	return cmd
}
