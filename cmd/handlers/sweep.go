package handlers

import (
	"fmt"

	"github.com/spf13/cobra"

	"newswire/internal/lifecycle"
)

// NewSweepCmd creates the sweep command for a one-shot status pass.
func NewSweepCmd(cfgFile *string) *cobra.Command {
	return &cobra.Command{
		Use:   "sweep",
		Short: "Run one status sweep and exit",
		Long: `Run a single demotion and archival pass over the story clusters:
breaking stories idle for 90 minutes drop to verified, and verified stories
untouched for 30 days are archived.

Example:
  newswire sweep`,
		RunE: func(cmd *cobra.Command, args []string) error {
			_, store, err := setupStore(*cfgFile)
			if err != nil {
				return err
			}
			defer store.Close()

			if err := lifecycle.NewSweeper(store).Sweep(cmd.Context()); err != nil {
				return err
			}
			fmt.Println("sweep complete")
			return nil
		},
	}
}
