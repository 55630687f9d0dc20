package main

import (
	"context"

	"github.com/spf13/cobra"

	"github.com/ArnavBalyan/concierge"
	"github.com/ArnavBalyan/concierge/internal/cli"
	httpAdapter "github.com/ArnavBalyan/concierge/pkg/adapters/http"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the HTTP server",
	Long: `Starts the orchestrator behind a JSON API: POST /execute runs an action,
POST /interpret maps free text onto one, GET /events streams a session's responses.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, logger, err := loadConfig(cmd)
		if err != nil {
			return err
		}
		if cmd.Flags().Changed("addr") {
			cfg.Addr, _ = cmd.Flags().GetString("addr")
		}
		detailFlag, _ := cmd.Flags().GetString("detail")
		detail, err := cli.ParseDetail(detailFlag)
		if err != nil {
			return err
		}

		sigCtx := cli.NewSignalContext(context.Background())
		defer sigCtx.Cancel()

		rt, err := cli.CreateEngine(sigCtx, cfg, logger)
		if err != nil {
			return err
		}
		defer rt.Close()

		interp, err := cli.NewInterpreter(cfg, detail, logger)
		if err != nil {
			return err
		}

		handler := httpAdapter.NewHandler(rt.Engine,
			httpAdapter.WithLogger(logger),
			httpAdapter.WithInterpreter(interp),
			httpAdapter.WithMetrics(rt.Metrics.Handler()),
			httpAdapter.WithVersion(concierge.Version),
			httpAdapter.WithRequestTimeout(cfg.LockTimeout+cfg.TaskTimeout),
		)
		return cli.Serve(sigCtx, cfg.Addr, handler, logger)
	},
}

func init() {
	rootCmd.AddCommand(serveCmd)
	serveCmd.Flags().String("addr", ":8080", "Address to listen on (overrides CONCIERGE_ADDR)")
	serveCmd.Flags().String("detail", "brief", "Rendering detail for /interpret: brief or comprehensive")
}
