package handlers

import (
	"context"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"newswire/internal/clusterer"
	"newswire/internal/lifecycle"
	"newswire/internal/llm"
	"newswire/internal/logger"
	"newswire/internal/persistence"
	"newswire/internal/poller"
	"newswire/internal/server"
	"newswire/internal/summarize"
)

const (
	changeFeedBatch = 100
	changeFeedPoll  = 5 * time.Second
	cleanupEvery    = 6 * time.Hour
)

// NewServeCmd creates the serve command running the full pipeline.
func NewServeCmd(cfgFile *string) *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the full pipeline: poller, clusterer, summarisers and API",
		Long: `Start every worker and the HTTP API in one process:

  • RSS poller scheduling feeds round-robin across categories
  • clustering engine consuming the raw-articles change feed
  • realtime summariser consuming the story-clusters change feed
  • batch summariser backfilling missed clusters at half price
  • status sweeper demoting idle breaking stories and archiving old ones
  • HTTP API with public, authenticated and admin routes

The process shuts down gracefully on SIGINT/SIGTERM.

Example:
  newswire serve --config newswire.yaml`,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, store, err := setup(*cfgFile)
			if err != nil {
				return err
			}
			defer store.Close()

			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			provider := llm.NewOpenAIProvider(cfg.LLM.APIKey, cfg.LLM.Model, cfg.LLM.BaseURL)
			scheduler := poller.NewScheduler(poller.Catalog, cfg.RSS.Cooldown(), 5*time.Minute, cfg.RSS.FeedsPerTick)
			feedPoller := poller.New(store, scheduler, cfg.RSS.Tick(), cfg.RSS.FetchTimeout)
			engine := clusterer.NewEngine(store)
			summarizer := summarize.NewSummarizer(store, provider, cfg.LLM.RequestsPerMinute, cfg.LLM.RealtimeTimeout)
			sweeper := lifecycle.NewSweeper(store)
			api := server.New(store, cfg)

			g, ctx := errgroup.WithContext(ctx)
			g.Go(func() error { return feedPoller.Run(ctx) })
			g.Go(func() error {
				return store.SubscribeChangeFeed(ctx, persistence.ContainerArticles, "clusterer",
					changeFeedBatch, changeFeedPoll, engine.HandleArticles)
			})
			g.Go(func() error {
				return store.SubscribeChangeFeed(ctx, persistence.ContainerClusters, "summarizer",
					changeFeedBatch, changeFeedPoll, summarizer.HandleClusters)
			})
			g.Go(func() error { return sweeper.Run(ctx) })
			g.Go(func() error { return api.ListenAndServe(ctx) })
			g.Go(func() error { return runCleanupLoop(ctx, store) })

			if cfg.Batch.Enabled {
				batcher := summarize.NewBatcher(store, provider, summarizer,
					cfg.Batch.MaxSize, cfg.Batch.BackfillHours,
					cfg.Batch.PollInterval(), cfg.LLM.BatchSubmitTimeout)
				g.Go(func() error { return batcher.Run(ctx) })
			} else {
				logger.Info("batch summarisation disabled")
			}

			err = g.Wait()
			if ctx.Err() != nil {
				logger.Info("shutdown complete")
				return nil
			}
			return err
		},
	}
}

func runCleanupLoop(ctx context.Context, store persistence.Store) error {
	ticker := time.NewTicker(cleanupEvery)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			if err := store.Cleanup(ctx, time.Now().UTC()); err != nil && ctx.Err() == nil {
				logger.Error("retention cleanup failed", err)
			}
		}
	}
}
