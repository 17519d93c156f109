package cli

import (
	"context"
	"errors"

	"github.com/spf13/cobra"

	"github.com/mcoot/chargedblocks/internal/api/response"
	"github.com/mcoot/chargedblocks/internal/audit"
	"github.com/mcoot/chargedblocks/internal/dependencies/clock"
	"github.com/mcoot/chargedblocks/internal/factory"
	"github.com/mcoot/chargedblocks/internal/migration"
)

func newMigrateCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "Legacy data file migration",
	}

	cmd.AddCommand(newMigrateStatusCmd())
	cmd.AddCommand(newMigrateRunCmd())
	cmd.AddCommand(newMigrateForceCmd())
	cmd.AddCommand(newMigrateValidateCmd())

	return cmd
}

// engineFor builds a migration engine without opening the registry, which
// would run the migration on its own
func engineFor(cmd *cobra.Command) (*migration.Engine, error) {
	settings, err := cfg.Settings()
	if err != nil {
		return nil, err
	}
	return migration.New(migration.DefaultConfig(settings.DataDir), cfg.Logger(cmd.ErrOrStderr())), nil
}

// journaledEngineFor is engineFor with migrations recorded in the audit
// journal. The journal must be closed by the caller.
func journaledEngineFor(cmd *cobra.Command) (*migration.Engine, audit.Journal, error) {
	settings, err := cfg.Settings()
	if err != nil {
		return nil, nil, err
	}
	logger := cfg.Logger(cmd.ErrOrStderr())
	journal := factory.OpenJournal(settings, clock.New(), logger)
	engine := migration.New(migration.DefaultConfig(settings.DataDir), logger).WithJournal(journal)
	return engine, journal, nil
}

func newMigrateStatusCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Show the legacy, new and backup files",
		RunE: func(cmd *cobra.Command, args []string) error {
			engine, err := engineFor(cmd)
			if err != nil {
				return err
			}
			output(cmd).Print(response.MigrationStats{
				Stats: engine.Stats(),
				Valid: engine.Validate(),
			})
			return nil
		},
	}
}

func newMigrateRunCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "run",
		Short: "Migrate the legacy file if no bindings file exists yet",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runMigration(cmd, false, (*migration.Engine).Migrate)
		},
	}
}

func newMigrateForceCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "force",
		Short: "Migrate again, moving any existing bindings file aside",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runMigration(cmd, true, (*migration.Engine).ForceMigrate)
		},
	}
}

func runMigration(cmd *cobra.Command, forced bool, run func(*migration.Engine, context.Context) (migration.Summary, error)) error {
	engine, journal, err := journaledEngineFor(cmd)
	if err != nil {
		return err
	}
	defer journal.Close()

	sum, err := run(engine, cmd.Context())
	if err != nil {
		return err
	}
	output(cmd).Print(MigrationResult{Forced: forced, Summary: sum})
	return nil
}

func newMigrateValidateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "validate",
		Short: "Check that the bindings file parses",
		RunE: func(cmd *cobra.Command, args []string) error {
			engine, err := engineFor(cmd)
			if err != nil {
				return err
			}
			if !engine.Validate() {
				return errors.New("bindings file is missing or does not parse")
			}
			output(cmd).PrintMessage("bindings file is valid")
			return nil
		},
	}
}
