package cli

import (
	"fmt"
	"os"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/mcoot/chargedblocks/internal/factory"
	"github.com/mcoot/chargedblocks/internal/model"
)

var cfg *Config

// NewRootCmd creates the root command
func NewRootCmd() *cobra.Command {
	cfg = DefaultConfig()

	rootCmd := &cobra.Command{
		Use:   "chargectl",
		Short: "Operator tool for the charged block registry",
		Long: `chargectl inspects and repairs a charged block registry on disk.

It runs legacy migrations, lists and clears bindings, toggles favorites and
reads the audit journal. It opens the configured backend directly, so it
should not be pointed at a data directory a running server is writing to.`,
		SilenceUsage: true,
	}

	// Global flags
	rootCmd.PersistentFlags().StringVar(&cfg.ConfigPath, "config", cfg.ConfigPath, "Config file path (env: CHARGED_CONFIG)")
	rootCmd.PersistentFlags().StringVar(&cfg.DataDir, "data-dir", cfg.DataDir, "Data directory, overrides the config file")
	rootCmd.PersistentFlags().StringVar(&cfg.Storage, "storage", cfg.Storage, "Storage backend: flatfile, sql, memory")
	rootCmd.PersistentFlags().StringVarP(&cfg.Output, "output", "o", cfg.Output, "Output format: text, json")
	rootCmd.PersistentFlags().BoolVarP(&cfg.Verbose, "verbose", "v", cfg.Verbose, "Verbose output")

	// Add subcommands
	rootCmd.AddCommand(newMigrateCmd())
	rootCmd.AddCommand(newBindingsCmd())
	rootCmd.AddCommand(newFavoritesCmd())
	rootCmd.AddCommand(newAuditCmd())
	rootCmd.AddCommand(newHealthCmd())
	rootCmd.AddCommand(newServeCmd())

	return rootCmd
}

// Execute runs the root command
func Execute() {
	if err := NewRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

// withApp opens the registry for the duration of fn
func withApp(cmd *cobra.Command, fn func(app *factory.App) error) error {
	settings, err := cfg.Settings()
	if err != nil {
		return err
	}

	app, err := factory.New(cmd.Context(), factory.Config{
		Settings: settings,
		Logger:   cfg.Logger(cmd.ErrOrStderr()),
	})
	if err != nil {
		return err
	}

	runErr := fn(app)
	if err := app.Close(); err != nil && runErr == nil {
		runErr = err
	}
	return runErr
}

func output(cmd *cobra.Command) *Output {
	return NewOutput(cfg.Output, cmd.OutOrStdout())
}

func parsePlayerID(arg string) (model.PlayerID, error) {
	id, err := uuid.Parse(arg)
	if err != nil {
		return model.PlayerID{}, fmt.Errorf("invalid player ID %q", arg)
	}
	return id, nil
}

func parseTokenID(arg string) (model.TokenID, error) {
	id, err := uuid.Parse(arg)
	if err != nil {
		return model.TokenID{}, fmt.Errorf("invalid token ID %q", arg)
	}
	return id, nil
}
