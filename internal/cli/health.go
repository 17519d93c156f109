package cli

import (
	"github.com/spf13/cobra"

	"github.com/mcoot/chargedblocks/internal/api/response"
	"github.com/mcoot/chargedblocks/internal/factory"
)

func newHealthCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "health",
		Short: "Open the registry and report whether it is usable",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(cmd, func(app *factory.App) error {
				registry := "enabled"
				if !app.Bindings.Enabled() {
					registry = "disabled"
				}
				output(cmd).Print(response.Health{
					Status:   "ok",
					Registry: registry,
					Storage:  app.Settings.Storage.Type,
				})
				return nil
			})
		},
	}
}
