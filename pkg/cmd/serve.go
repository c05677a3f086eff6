package cmd

import (
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/yeisme/filerelay/pkg/app"
	"github.com/yeisme/filerelay/pkg/configs"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "run the bot and the admin HTTP API",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg := configs.GetConfig()
		if err := cfg.Validate(); err != nil {
			return err
		}

		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		a, err := app.New(ctx, cfg)
		if err != nil {
			return err
		}

		defer func() { _ = a.Close() }()

		return a.Run(ctx)
	},
}

// registerServeCommand 注册 serve 命令.
func registerServeCommand() {
	rootCmd.AddCommand(serveCmd)
}
