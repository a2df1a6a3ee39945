// Package summarize generates cluster summaries through two paths: a
// realtime path driven by the cluster change feed for breaking and newly
// verified stories, and a batch path that backfills everything else at
// half price.
package summarize

import (
	"context"
	"errors"
	"time"

	"github.com/cenkalti/backoff/v4"
	"golang.org/x/time/rate"

	"newswire/internal/core"
	"newswire/internal/cost"
	"newswire/internal/llm"
	"newswire/internal/logger"
	"newswire/internal/metrics"
	"newswire/internal/persistence"
)

const maxPromptArticles = 8

// Summarizer is the realtime path. It watches the cluster change feed and
// regenerates summaries for stories that are breaking or newly verified.
type Summarizer struct {
	store    persistence.Store
	provider llm.Provider
	limiter  *rate.Limiter
	timeout  time.Duration
	now      func() time.Time
}

func NewSummarizer(store persistence.Store, provider llm.Provider, requestsPerMinute int, timeout time.Duration) *Summarizer {
	if requestsPerMinute <= 0 {
		requestsPerMinute = 60
	}
	return &Summarizer{
		store:    store,
		provider: provider,
		limiter:  rate.NewLimiter(rate.Every(time.Minute/time.Duration(requestsPerMinute)), 1),
		timeout:  timeout,
		now:      func() time.Time { return time.Now().UTC() },
	}
}

// HandleClusters is the change-feed handler for the story-clusters
// container. Redeliveries are cheap: a cluster whose title check and
// summary are already current falls through both gates and is skipped.
func (s *Summarizer) HandleClusters(ctx context.Context, ids []string) error {
	log := logger.Get()
	for _, id := range ids {
		c, err := s.store.ReadCluster(ctx, id, "")
		if errors.Is(err, persistence.ErrNotFound) {
			continue
		}
		if err != nil {
			return err
		}
		if s.titleStale(c) {
			if err := s.ReevaluateHeadline(ctx, c); err != nil {
				log.Warn("headline re-evaluation failed", "cluster", c.ID, "error", err.Error())
			} else if fresh, err := s.store.ReadCluster(ctx, id, ""); err == nil {
				c = fresh
			}
		}
		if !s.needsSummary(c) {
			continue
		}
		if err := s.Summarize(ctx, c); err != nil {
			// A failed generation is logged and dropped. The batch path
			// or the next cluster update retries it.
			log.Warn("realtime summary failed", "cluster", c.ID, "error", err.Error())
		}
	}
	return nil
}

// titleStale reports whether the cluster gained members since the last
// headline re-evaluation. Seeding a cluster is not an addition, so the
// check starts at two members.
func (s *Summarizer) titleStale(c *core.Cluster) bool {
	return len(c.SourceArticles) >= 2 && len(c.SourceArticles) > c.TitleCheckedCount
}

// needsSummary gates the realtime path: a story gets a synchronous summary
// when it first reaches BREAKING or VERIFIED, and a refresh on every
// update while it stays BREAKING.
func (s *Summarizer) needsSummary(c *core.Cluster) bool {
	switch c.Status {
	case core.StatusBreaking:
		return c.Summary == nil || c.Summary.GeneratedAt.Before(c.LastUpdated)
	case core.StatusVerified:
		return c.Summary == nil
	}
	return false
}

// Summarize runs one synchronous generation and attaches the result.
func (s *Summarizer) Summarize(ctx context.Context, c *core.Cluster) error {
	if err := s.limiter.Wait(ctx); err != nil {
		return err
	}

	articles, err := s.store.GetArticles(ctx, c.SourceArticles)
	if err != nil {
		return err
	}
	system, user := BuildPrompt(c, RepresentativeArticles(articles, maxPromptArticles))

	llmCtx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	started := s.now()
	raw, usage, err := s.provider.Complete(llmCtx, system, user)
	if err != nil {
		metrics.LLMRequests.WithLabelValues("realtime", "error").Inc()
		return err
	}
	elapsed := s.now().Sub(started)

	summary, headline, words, err := ParseResponse(raw)
	if err != nil {
		metrics.LLMRequests.WithLabelValues("realtime", "parse_error").Inc()
		return err
	}
	metrics.LLMRequests.WithLabelValues("realtime", "ok").Inc()
	recordUsage(usage)

	version := s.buildVersion(summary, words, usage, false, elapsed)
	return s.attach(ctx, c.ID, c.Category, version, headline, func(fresh *core.Cluster) bool {
		return true
	})
}

// ReevaluateHeadline asks the model whether the newest member's title
// beats the cluster's current headline. It runs on every source addition
// regardless of status.
func (s *Summarizer) ReevaluateHeadline(ctx context.Context, c *core.Cluster) error {
	newest, err := s.store.GetArticle(ctx, c.SourceArticles[len(c.SourceArticles)-1])
	if err != nil {
		return err
	}
	if err := s.limiter.Wait(ctx); err != nil {
		return err
	}
	system, user := BuildHeadlinePrompt(c.Title, newest.Title)

	llmCtx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	raw, usage, err := s.provider.Complete(llmCtx, system, user)
	if err != nil {
		metrics.LLMRequests.WithLabelValues("headline", "error").Inc()
		return err
	}
	headline, keep, err := ParseHeadlineResponse(raw)
	if err != nil {
		metrics.LLMRequests.WithLabelValues("headline", "parse_error").Inc()
		return err
	}
	metrics.LLMRequests.WithLabelValues("headline", "ok").Inc()
	recordUsage(usage)
	metrics.LLMCostUSD.Add(cost.Compute(s.provider.Model(), usage.PromptTokens, usage.CompletionTokens, usage.CachedTokens, false))

	return s.applyTitle(ctx, c.ID, c.Category, headline, keep, len(c.SourceArticles))
}

// applyTitle records the membership size the headline was checked against
// and, when the model chose a replacement, the new title. last_updated is
// untouched either way.
func (s *Summarizer) applyTitle(ctx context.Context, clusterID, category, headline string, keep bool, checked int) error {
	op := func() error {
		c, err := s.store.ReadCluster(ctx, clusterID, category)
		if err != nil {
			return backoff.Permanent(err)
		}
		if c.TitleCheckedCount >= checked {
			return nil // a later check already covered this addition
		}
		c.TitleCheckedCount = checked
		if !keep && headline != "" {
			c.Title = headline
		}

		err = s.store.ReplaceCluster(ctx, c)
		if errors.Is(err, persistence.ErrConflict) {
			metrics.ETagConflicts.Inc()
			return err
		}
		if err != nil {
			return backoff.Permanent(err)
		}
		return nil
	}

	bo := backoff.NewExponentialBackOff()
	bo.InitialInterval = 50 * time.Millisecond
	bo.Multiplier = 2
	return backoff.Retry(op, backoff.WithContext(backoff.WithMaxRetries(bo, 4), ctx))
}

func (s *Summarizer) buildVersion(text string, words int, usage llm.Usage, batch bool, elapsed time.Duration) *core.SummaryVersion {
	usd := cost.Compute(s.provider.Model(), usage.PromptTokens, usage.CompletionTokens, usage.CachedTokens, batch)
	metrics.LLMCostUSD.Add(usd)
	return &core.SummaryVersion{
		Text:             text,
		GeneratedAt:      s.now(),
		Model:            s.provider.Model(),
		WordCount:        words,
		PromptTokens:     usage.PromptTokens,
		CompletionTokens: usage.CompletionTokens,
		CachedTokens:     usage.CachedTokens,
		CostUSD:          usd,
		BatchProcessed:   batch,
		GenerationTimeMS: elapsed.Milliseconds(),
	}
}

// attach writes a summary version onto the cluster under the etag
// protocol. The version number continues from whatever is stored at write
// time, and last_updated is left untouched so summaries never affect the
// status machine. stillWanted re-checks applicability against the freshly
// read cluster on every attempt.
func (s *Summarizer) attach(ctx context.Context, clusterID, category string, v *core.SummaryVersion, headline string, stillWanted func(*core.Cluster) bool) error {
	op := func() error {
		c, err := s.store.ReadCluster(ctx, clusterID, category)
		if err != nil {
			return backoff.Permanent(err)
		}
		if !stillWanted(c) {
			return nil
		}

		version := *v
		version.Version = 1
		if c.Summary != nil {
			version.Version = c.Summary.Version + 1
		}
		c.Summary = &version
		if headline != "" && headline != KeepCurrent {
			c.Title = headline
		}

		err = s.store.ReplaceCluster(ctx, c)
		if errors.Is(err, persistence.ErrConflict) {
			metrics.ETagConflicts.Inc()
			return err
		}
		if err != nil {
			return backoff.Permanent(err)
		}
		return nil
	}

	bo := backoff.NewExponentialBackOff()
	bo.InitialInterval = 50 * time.Millisecond
	bo.Multiplier = 2
	return backoff.Retry(op, backoff.WithContext(backoff.WithMaxRetries(bo, 4), ctx))
}

func recordUsage(u llm.Usage) {
	metrics.LLMTokens.WithLabelValues("prompt").Add(float64(u.PromptTokens))
	metrics.LLMTokens.WithLabelValues("completion").Add(float64(u.CompletionTokens))
	metrics.LLMTokens.WithLabelValues("cached").Add(float64(u.CachedTokens))
}
