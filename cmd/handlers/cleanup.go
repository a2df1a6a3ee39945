package handlers

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"
)

// NewCleanupCmd creates the cleanup command for one retention pass.
func NewCleanupCmd(cfgFile *string) *cobra.Command {
	return &cobra.Command{
		Use:   "cleanup",
		Short: "Run one retention pass and exit",
		Long: `Delete articles past their 30-day retention, user interactions past
180 days, and change-log entries already consumed by every subscriber.

Example:
  newswire cleanup`,
		RunE: func(cmd *cobra.Command, args []string) error {
			_, store, err := setupStore(*cfgFile)
			if err != nil {
				return err
			}
			defer store.Close()

			if err := store.Cleanup(cmd.Context(), time.Now().UTC()); err != nil {
				return err
			}
			fmt.Println("cleanup complete")
			return nil
		},
	}
}
