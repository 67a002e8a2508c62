package main

import (
	"fmt"

	"github.com/dshills/stepgraph/workflow/codereview"
	"github.com/spf13/cobra"
)

func newGraphCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "graph",
		Short: "Print the built-in graph",
		Long:  `Outputs a Mermaid diagram (graph TD) of the built-in code review graph.`,
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprint(cmd.OutOrStdout(), codereview.BuiltIn().Mermaid())
		},
	}
}
