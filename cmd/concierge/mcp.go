package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/spf13/cobra"

	"github.com/ArnavBalyan/concierge"
	"github.com/ArnavBalyan/concierge/internal/cli"
	"github.com/ArnavBalyan/concierge/pkg/adapters/mcp"
	"github.com/ArnavBalyan/concierge/pkg/interpret"
)

// mcpCmd represents the mcp command
var mcpCmd = &cobra.Command{
	Use:   "mcp",
	Short: "Run the Model Context Protocol (MCP) server",
	Long: `Starts the orchestrator as an MCP server, so agents can drive workflows through tools.

Supported Transports:
- stdio (default): Uses Standard Input/Output. Ideal for local process integration.
- sse: Uses Server-Sent Events over HTTP. Ideal for remote agents or debuggers.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, logger, err := loadConfig(cmd)
		if err != nil {
			return err
		}
		transport, _ := cmd.Flags().GetString("transport")
		addr, _ := cmd.Flags().GetString("addr")

		sigCtx := cli.NewSignalContext(context.Background())
		defer sigCtx.Cancel()

		rt, err := cli.CreateEngine(sigCtx, cfg, logger)
		if err != nil {
			return err
		}
		defer rt.Close()

		opts := []mcp.Option{mcp.WithLogger(logger), mcp.WithVersion(concierge.Version)}
		if cfg.LLMModel != "" {
			interp, err := cli.NewInterpreter(cfg, interpret.Brief, logger)
			if err != nil {
				return err
			}
			opts = append(opts, mcp.WithInterpreter(interp))
		}
		srv := mcp.NewServer(rt.Engine, opts...)

		switch transport {
		case "stdio":
			// Logs go to Stderr so they never corrupt JSON-RPC on Stdout.
			logger.Info("Starting MCP server (stdio)")
			return srv.ServeStdio()
		case "sse":
			if err := srv.ServeSSE(sigCtx, addr); err != nil && !errors.Is(err, http.ErrServerClosed) {
				return err
			}
			logger.Info("MCP server stopped gracefully")
			return nil
		default:
			return fmt.Errorf("unknown transport %q (stdio or sse)", transport)
		}
	},
}

func init() {
	rootCmd.AddCommand(mcpCmd)
	mcpCmd.Flags().String("transport", "stdio", "Transport protocol to use: 'stdio' or 'sse'")
	mcpCmd.Flags().String("addr", ":8081", "Address to listen on (only for SSE)")
}
