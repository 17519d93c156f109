package cli

import (
	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/mcoot/chargedblocks/internal/audit"
)

func newAuditCmd() *cobra.Command {
	var (
		dir   string
		owner string
	)

	cmd := &cobra.Command{
		Use:   "audit",
		Short: "Print the audit journal",
		Long: `Print every entry of the audit journal, oldest first.

The file for the current hour is still open while a server runs and may end
in a partial frame; entries up to that point are printed.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			if dir == "" {
				settings, err := cfg.Settings()
				if err != nil {
					return err
				}
				dir = settings.AuditDir()
			}

			var filter *uuid.UUID
			if owner != "" {
				id, err := parsePlayerID(owner)
				if err != nil {
					return err
				}
				filter = &id
			}

			files, err := audit.Files(dir)
			if err != nil {
				return err
			}

			result := AuditLog{Files: files, Entries: []audit.Entry{}}
			for _, f := range files {
				entries, err := audit.ReadFile(f)
				if err != nil {
					cfg.Logger(cmd.ErrOrStderr()).Warn("audit file truncated", "file", f, "error", err)
				}
				for _, e := range entries {
					if filter != nil && e.Owner != *filter {
						continue
					}
					result.Entries = append(result.Entries, e)
				}
			}

			output(cmd).Print(result)
			return nil
		},
	}

	cmd.Flags().StringVar(&dir, "dir", "", "Audit directory, defaults to the configured one")
	cmd.Flags().StringVar(&owner, "owner", "", "Only print entries for this owner")

	return cmd
}
