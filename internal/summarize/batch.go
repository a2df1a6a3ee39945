package summarize

import (
	"context"
	"errors"
	"time"

	"newswire/internal/core"
	"newswire/internal/llm"
	"newswire/internal/logger"
	"newswire/internal/metrics"
	"newswire/internal/persistence"
)

// Batcher is the half-price path. On each cycle it first settles any
// outstanding batch jobs, then submits a new batch of clusters that never
// received a summary.
type Batcher struct {
	store         persistence.Store
	provider      llm.Provider
	summarizer    *Summarizer
	maxSize       int
	backfill      time.Duration
	interval      time.Duration
	submitTimeout time.Duration
	now           func() time.Time
}

func NewBatcher(store persistence.Store, provider llm.Provider, summarizer *Summarizer, maxSize, backfillHours int, interval, submitTimeout time.Duration) *Batcher {
	return &Batcher{
		store:         store,
		provider:      provider,
		summarizer:    summarizer,
		maxSize:       maxSize,
		backfill:      time.Duration(backfillHours) * time.Hour,
		interval:      interval,
		submitTimeout: submitTimeout,
		now:           func() time.Time { return time.Now().UTC() },
	}
}

// Run cycles until the context is cancelled.
func (b *Batcher) Run(ctx context.Context) error {
	ticker := time.NewTicker(b.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			if err := b.Cycle(ctx); err != nil && ctx.Err() == nil {
				logger.Get().Error("batch cycle failed", "error", err.Error())
			}
		}
	}
}

// Cycle settles open jobs and submits the next batch.
func (b *Batcher) Cycle(ctx context.Context) error {
	if err := b.settleOpenJobs(ctx); err != nil {
		return err
	}
	return b.submitNext(ctx)
}

func (b *Batcher) settleOpenJobs(ctx context.Context) error {
	log := logger.Get()

	jobs, err := b.store.ListOpenBatchJobs(ctx)
	if err != nil {
		return err
	}
	for i := range jobs {
		job := &jobs[i]
		state, err := b.provider.PollBatch(ctx, job.BatchID)
		if err != nil {
			log.Warn("batch poll failed", "batch", job.BatchID, "error", err.Error())
			continue
		}

		switch {
		case !state.Done():
			if job.Status != core.BatchInProgress {
				job.Status = core.BatchInProgress
				if err := b.store.UpsertBatchJob(ctx, job); err != nil {
					return err
				}
			}
		case state.Status == "completed":
			if err := b.applyResults(ctx, job, state); err != nil {
				log.Warn("batch result application failed", "batch", job.BatchID, "error", err.Error())
				continue // job stays open, retried next cycle
			}
		default:
			job.Status = core.BatchFailed
			job.EndedAt = b.now()
			metrics.BatchJobs.WithLabelValues(string(core.BatchFailed)).Inc()
			log.Warn("batch job failed at provider", "batch", job.BatchID, "status", state.Status)
			if err := b.store.UpsertBatchJob(ctx, job); err != nil {
				return err
			}
		}
	}
	return nil
}

func (b *Batcher) applyResults(ctx context.Context, job *core.BatchJob, state *llm.BatchState) error {
	log := logger.Get()

	results, err := b.provider.FetchBatchResults(ctx, state.OutputFileID)
	if err != nil {
		return err
	}

	succeeded, errored := 0, 0
	var totalCost float64
	for _, r := range results {
		if r.Err != "" {
			errored++
			metrics.LLMRequests.WithLabelValues("batch", "error").Inc()
			continue
		}
		summary, headline, words, err := ParseResponse(r.Content)
		if err != nil {
			errored++
			metrics.LLMRequests.WithLabelValues("batch", "parse_error").Inc()
			log.Debug("batch result unparseable", "cluster", r.CustomID, "error", err.Error())
			continue
		}
		metrics.LLMRequests.WithLabelValues("batch", "ok").Inc()
		recordUsage(r.Usage)

		version := b.summarizer.buildVersion(summary, words, r.Usage, true, 0)
		totalCost += version.CostUSD

		submittedAt := job.SubmittedAt
		err = b.summarizer.attach(ctx, r.CustomID, "", version, headline, func(fresh *core.Cluster) bool {
			// The batch ran against a snapshot. Skip clusters that gained
			// articles or a newer summary while the job was in flight.
			if fresh.LastUpdated.After(submittedAt) {
				return false
			}
			if fresh.Summary != nil && fresh.Summary.GeneratedAt.After(submittedAt) {
				return false
			}
			return true
		})
		if err != nil && !errors.Is(err, persistence.ErrNotFound) {
			log.Warn("batch summary attach failed", "cluster", r.CustomID, "error", err.Error())
			errored++
			continue
		}
		succeeded++
	}

	job.Status = core.BatchCompleted
	job.EndedAt = b.now()
	job.RequestCount = state.Total
	job.SucceededCount = succeeded
	job.ErroredCount = errored
	job.TotalCostUSD = totalCost
	metrics.BatchJobs.WithLabelValues(string(core.BatchCompleted)).Inc()
	log.Info("batch job settled", "batch", job.BatchID,
		"succeeded", succeeded, "errored", errored, "cost_usd", totalCost)
	return b.store.UpsertBatchJob(ctx, job)
}

func (b *Batcher) submitNext(ctx context.Context) error {
	log := logger.Get()
	now := b.now()

	clusters, err := b.store.QueryMissingSummary(ctx, now.Add(-b.backfill), b.maxSize)
	if err != nil {
		return err
	}
	if len(clusters) == 0 {
		return nil
	}

	// Clusters already covered by an open job wait for that job to settle.
	open, err := b.store.ListOpenBatchJobs(ctx)
	if err != nil {
		return err
	}
	pending := map[string]bool{}
	for _, job := range open {
		for _, id := range job.ClusterIDs {
			pending[id] = true
		}
	}

	var (
		reqs       []llm.BatchRequest
		clusterIDs []string
	)
	for i := range clusters {
		c := &clusters[i]
		if pending[c.ID] {
			continue
		}
		articles, err := b.store.GetArticles(ctx, c.SourceArticles)
		if err != nil {
			return err
		}
		system, user := BuildPrompt(c, RepresentativeArticles(articles, maxPromptArticles))
		reqs = append(reqs, llm.BatchRequest{CustomID: c.ID, System: system, User: user})
		clusterIDs = append(clusterIDs, c.ID)
	}
	if len(reqs) == 0 {
		return nil
	}

	submitCtx, cancel := context.WithTimeout(ctx, b.submitTimeout)
	defer cancel()

	batchID, err := b.provider.SubmitBatch(submitCtx, reqs)
	if err != nil {
		return err
	}
	metrics.BatchJobs.WithLabelValues(string(core.BatchSubmitted)).Inc()
	log.Info("batch submitted", "batch", batchID, "clusters", len(clusterIDs))

	return b.store.UpsertBatchJob(ctx, &core.BatchJob{
		BatchID:      batchID,
		Status:       core.BatchSubmitted,
		ClusterIDs:   clusterIDs,
		SubmittedAt:  now,
		RequestCount: len(reqs),
	})
}
