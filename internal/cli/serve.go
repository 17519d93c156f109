package cli

import (
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/mcoot/chargedblocks/internal/api"
	"github.com/mcoot/chargedblocks/internal/factory"
)

func newServeCmd() *cobra.Command {
	var port int

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API over the configured registry",
		RunE: func(cmd *cobra.Command, args []string) error {
			settings, err := cfg.Settings()
			if err != nil {
				return err
			}
			if port != 0 {
				settings.Server.Port = port
			}

			ctx, cancel := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer cancel()

			app, err := factory.New(ctx, factory.Config{
				Settings: settings,
				Logger:   settings.Log.NewLogger(cmd.ErrOrStderr()),
			})
			if err != nil {
				return err
			}
			defer app.Close()

			return api.Run(ctx, app)
		},
	}

	cmd.Flags().IntVar(&port, "port", 0, "Listen port, overrides the config file")

	return cmd
}
