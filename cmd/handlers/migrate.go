package handlers

import (
	"fmt"

	"github.com/spf13/cobra"

	"newswire/internal/persistence"
)

// NewMigrateCmd creates the migrate command for schema setup.
func NewMigrateCmd(cfgFile *string) *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Create or update the database schema",
		Long: `Apply the schema to the configured database. Statements are
idempotent (CREATE TABLE IF NOT EXISTS), so migrate is safe to run on every
deploy.

Example:
  newswire migrate`,
		RunE: func(cmd *cobra.Command, args []string) error {
			_, store, err := setupStore(*cfgFile)
			if err != nil {
				return err
			}
			defer store.Close()

			if err := persistence.Migrate(cmd.Context(), store.DB()); err != nil {
				return err
			}
			fmt.Println("schema up to date")
			return nil
		},
	}
}
