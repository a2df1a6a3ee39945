package handlers

import (
	"fmt"

	"github.com/spf13/cobra"

	"newswire/internal/llm"
	"newswire/internal/summarize"
)

// NewBackfillCmd creates the backfill command for one batch cycle.
func NewBackfillCmd(cfgFile *string) *cobra.Command {
	return &cobra.Command{
		Use:   "backfill",
		Short: "Run one batch summarisation cycle and exit",
		Long: `Run a single batch cycle: settle any outstanding batch jobs with the
provider, then submit a new batch for clusters that reached multi-source
status without ever receiving a summary.

Batch completions are asynchronous on the provider side, so a submission
made now is settled by a later backfill run or by "serve".

Example:
  newswire backfill`,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, store, err := setup(*cfgFile)
			if err != nil {
				return err
			}
			defer store.Close()

			provider := llm.NewOpenAIProvider(cfg.LLM.APIKey, cfg.LLM.Model, cfg.LLM.BaseURL)
			summarizer := summarize.NewSummarizer(store, provider, cfg.LLM.RequestsPerMinute, cfg.LLM.RealtimeTimeout)
			batcher := summarize.NewBatcher(store, provider, summarizer,
				cfg.Batch.MaxSize, cfg.Batch.BackfillHours,
				cfg.Batch.PollInterval(), cfg.LLM.BatchSubmitTimeout)

			if err := batcher.Cycle(cmd.Context()); err != nil {
				return err
			}
			fmt.Println("batch cycle complete")
			return nil
		},
	}
}
