// Package lifecycle owns the cluster status machine. Promotion happens
// inline when articles are added; demotion and archival happen on a sweep.
package lifecycle

import (
	"time"

	"newswire/internal/core"
)

const (
	// BreakingWindow is how long after first sighting a multi-source story
	// still counts as actively developing.
	BreakingWindow = 30 * time.Minute

	// BreakingIdle demotes BREAKING to VERIFIED once no update has arrived
	// for this long.
	BreakingIdle = 90 * time.Minute

	// ArchiveAfter retires VERIFIED stories whose last update is older
	// than this.
	ArchiveAfter = 30 * 24 * time.Hour
)

// Evaluate returns the status a cluster should hold after an article
// arrives. age is time since first_seen, idle is time since the last
// update before this one, and gaining is whether this arrival grew the
// membership. ARCHIVED is terminal and never re-evaluated.
func Evaluate(current core.Status, uniqueSources int, age, idle time.Duration, gaining bool) core.Status {
	if current == core.StatusArchived {
		return core.StatusArchived
	}
	switch {
	case uniqueSources <= 1:
		return core.StatusMonitoring
	case uniqueSources == 2:
		return core.StatusDeveloping
	}
	// Three or more sources. A young story is breaking outright; an older
	// one is breaking while follow-ups keep landing inside the window.
	if age < BreakingWindow {
		return core.StatusBreaking
	}
	if gaining && idle < BreakingWindow {
		return core.StatusBreaking
	}
	if current == core.StatusBreaking {
		// Demotion is the sweeper's call, not the ingest path's.
		return core.StatusBreaking
	}
	return core.StatusVerified
}
