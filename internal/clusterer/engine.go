// Package clusterer assigns incoming articles to story clusters. It is
// driven by the raw-articles change feed, so processing is at-least-once
// and every step must be idempotent.
package clusterer

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/google/uuid"

	"newswire/internal/core"
	"newswire/internal/fingerprint"
	"newswire/internal/lifecycle"
	"newswire/internal/logger"
	"newswire/internal/metrics"
	"newswire/internal/persistence"
)

const (
	candidateWindow = 48 * time.Hour
	candidateLimit  = 500

	fuzzyThreshold  = 0.30
	entityThreshold = 0.20
	entityMinShared = 2
)

// Engine matches articles to clusters and maintains cluster membership,
// status and verification level.
type Engine struct {
	store persistence.Store
	now   func() time.Time
}

func NewEngine(store persistence.Store) *Engine {
	return &Engine{store: store, now: func() time.Time { return time.Now().UTC() }}
}

// HandleArticles is the change-feed handler for the raw-articles container.
func (e *Engine) HandleArticles(ctx context.Context, ids []string) error {
	articles, err := e.store.GetArticles(ctx, ids)
	if err != nil {
		return err
	}
	for i := range articles {
		if err := e.Process(ctx, &articles[i]); err != nil {
			return fmt.Errorf("clustering %s: %w", articles[i].ID, err)
		}
	}
	return nil
}

// Process finds or creates the cluster for one article.
func (e *Engine) Process(ctx context.Context, a *core.Article) error {
	match, path, err := e.findMatch(ctx, a)
	if err != nil {
		return err
	}
	if match == nil {
		return e.createCluster(ctx, a)
	}
	metrics.ClusterMatches.WithLabelValues(path).Inc()
	return e.addToCluster(ctx, match.ID, a)
}

// findMatch runs the three-stage match: exact fingerprint, fuzzy title
// similarity, then entity overlap. All stages are confined to the article's
// category and the recent candidate window.
func (e *Engine) findMatch(ctx context.Context, a *core.Article) (*core.Cluster, string, error) {
	since := e.now().Add(-candidateWindow)

	exact, err := e.store.QueryByFingerprint(ctx, a.Fingerprint, a.Category, since)
	if err != nil {
		return nil, "", err
	}
	if len(exact) > 0 {
		newestFirst(exact)
		return &exact[0], "fingerprint", nil
	}

	candidates, err := e.store.QueryRecentClusters(ctx, a.Category, since, candidateLimit)
	if err != nil {
		return nil, "", err
	}
	newestFirst(candidates)

	// Score every candidate and keep the best; ties fall to the most
	// recently updated because the list is sorted newest first.
	var best *core.Cluster
	bestScore := 0.0
	for i := range candidates {
		c := &candidates[i]
		if score := fingerprint.TitleSimilarity(a.Title, c.Title); score > bestScore {
			best, bestScore = c, score
		}
	}
	if best == nil || fingerprint.TopicConflict(a.Title, best.Title) {
		return nil, "", nil
	}
	if bestScore > fuzzyThreshold {
		return best, "fuzzy", nil
	}
	if bestScore > entityThreshold &&
		fingerprint.SharedUppercaseWords(a.Title, best.Title) >= entityMinShared {
		return best, "entity", nil
	}
	return nil, "", nil
}

func newestFirst(clusters []core.Cluster) {
	sort.Slice(clusters, func(i, j int) bool {
		return clusters[i].LastUpdated.After(clusters[j].LastUpdated)
	})
}

func (e *Engine) createCluster(ctx context.Context, a *core.Article) error {
	now := e.now()
	c := &core.Cluster{
		ID:                now.Format("20060102T150405") + "-" + uuid.NewString()[:8],
		Category:          a.Category,
		Title:             a.Title,
		SourceArticles:    []string{a.ID},
		Status:            core.StatusMonitoring,
		VerificationLevel: core.VerificationLevel(1),
		FirstSeen:         now,
		LastUpdated:       now,
		UpdateCount:       1,
		Entities:          copyEntities(a.Entities),
		Fingerprint:       a.Fingerprint,
	}
	if err := e.store.CreateCluster(ctx, c); err != nil {
		return err
	}
	metrics.ClustersCreated.Inc()
	logger.Get().Info("cluster created", "cluster", c.ID, "category", c.Category, "title", c.Title)
	return nil
}

// addToCluster appends the article under the etag protocol. On conflict
// the cluster is re-read and the mutation re-applied, with exponential
// backoff between attempts.
func (e *Engine) addToCluster(ctx context.Context, clusterID string, a *core.Article) error {
	op := func() error {
		c, err := e.store.ReadCluster(ctx, clusterID, a.Category)
		if errors.Is(err, persistence.ErrNotFound) {
			return backoff.Permanent(err)
		}
		if err != nil {
			return backoff.Permanent(err)
		}

		changed, err := e.applyArticle(ctx, c, a)
		if err != nil {
			return backoff.Permanent(err)
		}
		if !changed {
			return nil // redelivery, membership already recorded
		}

		err = e.store.ReplaceCluster(ctx, c)
		if errors.Is(err, persistence.ErrConflict) {
			metrics.ETagConflicts.Inc()
			return err // retryable, re-read next attempt
		}
		if err != nil {
			return backoff.Permanent(err)
		}
		return nil
	}

	bo := backoff.NewExponentialBackOff()
	bo.InitialInterval = 50 * time.Millisecond
	bo.Multiplier = 2
	bo.RandomizationFactor = 0.5

	return backoff.Retry(op, backoff.WithContext(backoff.WithMaxRetries(bo, 4), ctx))
}

// applyArticle mutates the cluster for one new member. Returns false when
// the article is already a member.
func (e *Engine) applyArticle(ctx context.Context, c *core.Cluster, a *core.Article) (bool, error) {
	for _, id := range c.SourceArticles {
		if id == a.ID {
			return false, nil
		}
	}

	members, err := e.store.GetArticles(ctx, c.SourceArticles)
	if err != nil {
		return false, err
	}

	// prevCount is captured before the append, on a fresh slice, so the
	// growth check cannot alias the mutated membership.
	prevCount := len(c.SourceArticles)
	c.SourceArticles = append(append([]string(nil), c.SourceArticles...), a.ID)
	members = append(members, *a)
	newSources := core.UniqueSources(members)
	gaining := len(c.SourceArticles) > prevCount

	now := e.now()
	idle := now.Sub(c.LastUpdated)
	c.VerificationLevel = core.VerificationLevel(newSources)
	c.Status = lifecycle.Evaluate(c.Status, newSources, now.Sub(c.FirstSeen), idle, gaining)
	c.LastUpdated = now
	c.UpdateCount++
	if c.Entities == nil {
		c.Entities = map[string]int{}
	}
	for entity, count := range a.Entities {
		c.Entities[entity] += count
	}
	return true, nil
}

func copyEntities(in map[string]int) map[string]int {
	out := make(map[string]int, len(in))
	for k, v := range in {
		out[k] = v
	}
	return out
}
