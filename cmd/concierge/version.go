package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/ArnavBalyan/concierge"
)

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the version number",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Fprintf(cmd.OutOrStdout(), "concierge version %s\n", concierge.Version)
	},
}

func init() {
	rootCmd.AddCommand(versionCmd)
}
