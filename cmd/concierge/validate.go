package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/ArnavBalyan/concierge/internal/demo"
	"github.com/ArnavBalyan/concierge/internal/presentation/graph"
	"github.com/ArnavBalyan/concierge/pkg/loader"
)

var validateCmd = &cobra.Command{
	Use:   "validate <path>",
	Short: "Check workflow definitions for consistency",
	Long: `Loads workflow YAML from a file or directory and reports unknown stages, unbound
handlers, invalid parameter schemas and other definition errors.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		workflows, err := loader.Load(args[0], demo.Handlers())
		if err != nil {
			return fmt.Errorf("validation failed: %w", err)
		}

		showGraph, _ := cmd.Flags().GetBool("graph")
		out := cmd.OutOrStdout()
		for _, wf := range workflows {
			if showGraph {
				fmt.Fprintf(out, "%%%% %s\n%s\n", wf.Name, graph.GenerateMermaid(wf, nil))
				continue
			}
			fmt.Fprintf(out, "%s: %d stages, entry %s\n", wf.Name, len(wf.Stages), wf.Entry())
		}
		if !showGraph {
			fmt.Fprintln(out, "Workflows are valid! ✅")
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(validateCmd)
	validateCmd.Flags().Bool("graph", false, "Print each workflow as a Mermaid flowchart")
}
