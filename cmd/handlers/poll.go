package handlers

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"newswire/internal/poller"
)

// NewPollCmd creates the poll command for one-shot feed polling.
func NewPollCmd(cfgFile *string) *cobra.Command {
	var ticks int

	cmd := &cobra.Command{
		Use:   "poll",
		Short: "Run a fixed number of poll cycles and exit",
		Long: `Run the RSS scheduler for a fixed number of ticks without the rest of
the pipeline. Useful for seeding a fresh database or debugging feeds.

Articles are still written through the change log, so a later "serve" will
cluster and summarise them.

Example:
  newswire poll --ticks 10`,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, store, err := setupStore(*cfgFile)
			if err != nil {
				return err
			}
			defer store.Close()

			scheduler := poller.NewScheduler(poller.Catalog, cfg.RSS.Cooldown(), 5*time.Minute, cfg.RSS.FeedsPerTick)
			p := poller.New(store, scheduler, cfg.RSS.Tick(), cfg.RSS.FetchTimeout)

			for i := 0; i < ticks; i++ {
				p.Tick(cmd.Context())
				if i < ticks-1 {
					time.Sleep(cfg.RSS.Tick())
				}
			}
			fmt.Printf("completed %d poll ticks\n", ticks)
			return nil
		},
	}
	cmd.Flags().IntVar(&ticks, "ticks", 1, "number of scheduling ticks to run")
	return cmd
}
