package main

import (
	"context"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/ArnavBalyan/concierge/internal/cli"
)

var workflowsCmd = &cobra.Command{
	Use:   "workflows [query]",
	Short: "List registered workflows",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, logger, err := loadConfig(cmd)
		if err != nil {
			return err
		}
		rt, err := cli.CreateEngine(context.Background(), cfg, logger)
		if err != nil {
			return err
		}
		defer rt.Close()

		query := strings.Join(args, " ")
		out := cmd.OutOrStdout()
		for _, wf := range rt.Engine.Search(query) {
			fmt.Fprintf(out, "%s\t%s\t%s\n", wf.Name, strings.Join(wf.StageNames(), " -> "), wf.Description)
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(workflowsCmd)
}
