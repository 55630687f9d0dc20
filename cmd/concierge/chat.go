package main

import (
	"context"
	"os"

	"github.com/spf13/cobra"

	"github.com/ArnavBalyan/concierge"
	"github.com/ArnavBalyan/concierge/internal/cli"
	"github.com/ArnavBalyan/concierge/internal/presentation/tui"
)

var chatCmd = &cobra.Command{
	Use:   "chat [workflow]",
	Short: "Drive a workflow interactively from the terminal",
	Long: `Starts (or resumes with --session) a session and reads commands from stdin:

  search_products query=grinder    invoke a task
  quantity=2                       answer the pending request
  go to checkout                   enter another stage
  set user.name=ada                store state
  help                             show the current tools
  quit                             end the session

With --json every line is an action object and every reply a response object.`,
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, logger, err := loadConfig(cmd)
		if err != nil {
			return err
		}
		workflow := "shop"
		if len(args) > 0 {
			workflow = args[0]
		}
		sessionID, _ := cmd.Flags().GetString("session")
		jsonMode, _ := cmd.Flags().GetBool("json")
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

		styled, width := cli.Terminal(os.Stdout)
		if styled && !jsonMode {
			tui.PrintBanner(os.Stdout, concierge.Version)
		}
		err = cli.RunChat(sigCtx, rt.Engine, cli.ChatOptions{
			Workflow:    workflow,
			SessionID:   sessionID,
			Interpreter: interp,
			Render:      tui.NewRenderer(styled && !jsonMode, width),
			JSON:        jsonMode,
			In:          os.Stdin,
			Out:         os.Stdout,
		})
		return cli.HandleExecutionError(err)
	},
}

func init() {
	rootCmd.AddCommand(chatCmd)
	chatCmd.Flags().String("session", "", "Resume an existing session id")
	chatCmd.Flags().Bool("json", false, "Read actions and write responses as JSON lines")
	chatCmd.Flags().String("detail", "brief", "Rendering detail: brief or comprehensive")
}
