package lifecycle

import (
	"context"
	"testing"
	"time"

	"newswire/internal/core"
	"newswire/internal/persistence"
)

func TestEvaluate(t *testing.T) {
	tests := []struct {
		name    string
		current core.Status
		sources int
		age     time.Duration
		idle    time.Duration
		gaining bool
		want    core.Status
	}{
		{"single source monitors", core.StatusMonitoring, 1, time.Minute, time.Minute, true, core.StatusMonitoring},
		{"two sources develop", core.StatusMonitoring, 2, time.Minute, time.Minute, true, core.StatusDeveloping},
		{"three sources young story breaks", core.StatusDeveloping, 3, 10 * time.Minute, time.Minute, true, core.StatusBreaking},
		{"three sources at 29m59s still breaks", core.StatusDeveloping, 3, 30*time.Minute - time.Second, time.Hour, false, core.StatusBreaking},
		{"old story gaining while hot breaks", core.StatusVerified, 3, 5 * time.Hour, 5 * time.Minute, true, core.StatusBreaking},
		{"old story gaining after long quiet verifies", core.StatusVerified, 4, 5 * time.Hour, 2 * time.Hour, true, core.StatusVerified},
		{"old story gaining at exactly 30m idle verifies", core.StatusVerified, 3, 2 * time.Hour, 30 * time.Minute, true, core.StatusVerified},
		{"old and static verifies", core.StatusDeveloping, 3, 2 * time.Hour, time.Hour, false, core.StatusVerified},
		{"breaking not demoted on ingest path", core.StatusBreaking, 5, 3 * time.Hour, 2 * time.Hour, false, core.StatusBreaking},
		{"archived is terminal", core.StatusArchived, 10, time.Minute, time.Minute, true, core.StatusArchived},
		{"ten sources still follow the same rules", core.StatusVerified, 10, 2 * time.Hour, time.Hour, false, core.StatusVerified},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Evaluate(tt.current, tt.sources, tt.age, tt.idle, tt.gaining)
			if got != tt.want {
				t.Errorf("Evaluate(%s, %d, %v, %v, %v) = %s, want %s",
					tt.current, tt.sources, tt.age, tt.idle, tt.gaining, got, tt.want)
			}
		})
	}
}

func TestSweepDemotesIdleBreaking(t *testing.T) {
	store := persistence.NewMemoryStore()
	ctx := context.Background()
	now := time.Date(2026, 8, 20, 12, 0, 0, 0, time.UTC)

	sweeper := NewSweeper(store)
	sweeper.now = func() time.Time { return now }

	fresh := &core.Cluster{ID: "fresh", Category: "world", Status: core.StatusBreaking,
		LastUpdated: now.Add(-BreakingIdle + time.Second)}
	stale := &core.Cluster{ID: "stale", Category: "world", Status: core.StatusBreaking,
		LastUpdated: now.Add(-BreakingIdle)}
	for _, c := range []*core.Cluster{fresh, stale} {
		if err := store.CreateCluster(ctx, c); err != nil {
			t.Fatalf("create %s: %v", c.ID, err)
		}
	}

	if err := sweeper.Sweep(ctx); err != nil {
		t.Fatalf("sweep: %v", err)
	}

	got, _ := store.ReadCluster(ctx, "fresh", "")
	if got.Status != core.StatusBreaking {
		t.Errorf("cluster one second inside the idle window demoted to %s", got.Status)
	}
	got, _ = store.ReadCluster(ctx, "stale", "")
	if got.Status != core.StatusVerified {
		t.Errorf("idle breaking cluster = %s, want VERIFIED", got.Status)
	}
	if !got.LastUpdated.Equal(now) {
		t.Errorf("status transition must move last_updated, got %v", got.LastUpdated)
	}
}

func TestSweepArchivesOldVerified(t *testing.T) {
	store := persistence.NewMemoryStore()
	ctx := context.Background()
	now := time.Date(2026, 8, 20, 12, 0, 0, 0, time.UTC)

	sweeper := NewSweeper(store)
	sweeper.now = func() time.Time { return now }

	recent := &core.Cluster{ID: "recent", Category: "us", Status: core.StatusVerified,
		LastUpdated: now.Add(-29 * 24 * time.Hour)}
	ancient := &core.Cluster{ID: "ancient", Category: "us", Status: core.StatusVerified,
		LastUpdated: now.Add(-31 * 24 * time.Hour)}
	for _, c := range []*core.Cluster{recent, ancient} {
		if err := store.CreateCluster(ctx, c); err != nil {
			t.Fatalf("create %s: %v", c.ID, err)
		}
	}

	if err := sweeper.Sweep(ctx); err != nil {
		t.Fatalf("sweep: %v", err)
	}

	got, _ := store.ReadCluster(ctx, "recent", "")
	if got.Status != core.StatusVerified {
		t.Errorf("29-day-old verified cluster = %s, want VERIFIED", got.Status)
	}
	got, _ = store.ReadCluster(ctx, "ancient", "")
	if got.Status != core.StatusArchived {
		t.Errorf("31-day-old verified cluster = %s, want ARCHIVED", got.Status)
	}
}
