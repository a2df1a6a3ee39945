package lifecycle

import (
	"context"
	"errors"
	"time"

	"newswire/internal/core"
	"newswire/internal/logger"
	"newswire/internal/metrics"
	"newswire/internal/persistence"
)

const sweepInterval = 5 * time.Minute

// Sweeper periodically demotes stale BREAKING clusters to VERIFIED and
// archives long-idle VERIFIED clusters.
type Sweeper struct {
	store persistence.Store
	now   func() time.Time
}

func NewSweeper(store persistence.Store) *Sweeper {
	return &Sweeper{store: store, now: func() time.Time { return time.Now().UTC() }}
}

// Run sweeps on a fixed interval until the context is cancelled.
func (s *Sweeper) Run(ctx context.Context) error {
	ticker := time.NewTicker(sweepInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			if err := s.Sweep(ctx); err != nil && ctx.Err() == nil {
				logger.Get().Error("sweep failed", "error", err.Error())
			}
		}
	}
}

// Sweep runs one demotion and archival pass.
func (s *Sweeper) Sweep(ctx context.Context) error {
	now := s.now()

	if err := s.transition(ctx, core.StatusBreaking, core.StatusVerified,
		func(c *core.Cluster) bool { return now.Sub(c.LastUpdated) >= BreakingIdle },
	); err != nil {
		return err
	}
	return s.transition(ctx, core.StatusVerified, core.StatusArchived,
		func(c *core.Cluster) bool { return now.Sub(c.LastUpdated) >= ArchiveAfter },
	)
}

// transition moves every cluster in `from` that satisfies `due` into `to`.
// An etag conflict means a concurrent writer touched the cluster; the next
// sweep re-evaluates it against the fresher state.
func (s *Sweeper) transition(ctx context.Context, from, to core.Status, due func(*core.Cluster) bool) error {
	log := logger.Get()

	clusters, err := s.store.QueryByStatus(ctx, from, 1000)
	if err != nil {
		return err
	}
	for i := range clusters {
		c := &clusters[i]
		if !due(c) {
			continue
		}
		c.Status = to
		// Status transitions count as story changes, so the timestamp
		// moves. Summary and headline writes are the ones that must not.
		c.LastUpdated = s.now()
		err := s.store.ReplaceCluster(ctx, c)
		switch {
		case errors.Is(err, persistence.ErrConflict):
			metrics.ETagConflicts.Inc()
			log.Debug("sweep lost race, deferring", "cluster", c.ID)
		case err != nil:
			log.Warn("sweep transition failed", "cluster", c.ID, "error", err.Error())
		default:
			metrics.StatusTransitions.WithLabelValues(string(to)).Inc()
			log.Info("cluster status changed", "cluster", c.ID,
				"from", string(from), "to", string(to))
		}
	}
	return nil
}
