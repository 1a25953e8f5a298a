package cli

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/clinicsite/clinicsite/internal/store"
)

func newMigrateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Create or upgrade the database schema",
		Long:  "Apply the submissions and admin users schema to the configured database. Safe to run repeatedly.",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			// Open applies migrations.
			st, err := openStore(context.Background(), cfg)
			if err != nil {
				return err
			}
			defer st.Close()

			fmt.Fprintf(cmd.OutOrStdout(), "Schema is up to date (%s: %s)\n",
				st.Driver(), store.RedactDSN(st.Driver(), cfg.Database.DSN))
			return nil
		},
	}
}
