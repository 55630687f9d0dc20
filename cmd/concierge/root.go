package main

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/ArnavBalyan/concierge/internal/cli"
	"github.com/ArnavBalyan/concierge/internal/config"
)

var rootCmd = &cobra.Command{
	Use:   "concierge",
	Short: "Concierge runs staged workflows for tool-calling agents",
	Long: `Concierge exposes workflows of stages and tasks to agents. Each session only
sees the tasks of its current stage; moving between stages is gated by the
state the session has collected.`,
	SilenceUsage: true,
}

// Execute adds all child commands to the root command and sets flags appropriately.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	// Persistent flags (available to all commands)
	rootCmd.PersistentFlags().String("env-file", ".env", "Dotenv file with CONCIERGE_* settings")
	rootCmd.PersistentFlags().String("workflows", "", "Workflow YAML file or directory (overrides CONCIERGE_WORKFLOWS)")
	rootCmd.PersistentFlags().Bool("debug", false, "Enable debug logging")
}

// loadConfig resolves configuration and the logger for a command.
func loadConfig(cmd *cobra.Command) (config.Config, *slog.Logger, error) {
	envFile, _ := cmd.Flags().GetString("env-file")
	cfg, err := config.Load(envFile)
	if err != nil {
		return cfg, nil, err
	}
	if cmd.Flags().Changed("workflows") {
		cfg.WorkflowsPath, _ = cmd.Flags().GetString("workflows")
	}
	debug, _ := cmd.Flags().GetBool("debug")
	logger, err := cli.CreateLogger(cfg, debug)
	if err != nil {
		return cfg, nil, err
	}
	slog.SetDefault(logger)
	return cfg, logger, nil
}
