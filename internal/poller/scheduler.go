package poller

import (
	"time"
)

const quarantineAfter = 3

type feedState struct {
	feed             Feed
	lastPolled       time.Time
	failureCount     int
	quarantinedUntil time.Time
}

// Scheduler hands out feeds round-robin across categories. Each tick yields
// at most one feed per category and at most perTick feeds overall, skipping
// feeds still inside their cooldown or quarantine window.
type Scheduler struct {
	categories []string // rotation order
	byCategory map[string][]*feedState
	catCursor  int
	feedCursor map[string]int
	cooldown   time.Duration
	quarantine time.Duration
	perTick    int
}

// NewScheduler builds a scheduler over the given feeds. Category rotation
// order follows first appearance in the feed list.
func NewScheduler(feeds []Feed, cooldown, quarantine time.Duration, perTick int) *Scheduler {
	s := &Scheduler{
		byCategory: map[string][]*feedState{},
		feedCursor: map[string]int{},
		cooldown:   cooldown,
		quarantine: quarantine,
		perTick:    perTick,
	}
	for _, f := range feeds {
		if _, seen := s.byCategory[f.Category]; !seen {
			s.categories = append(s.categories, f.Category)
		}
		s.byCategory[f.Category] = append(s.byCategory[f.Category], &feedState{feed: f})
	}
	return s
}

// Restore seeds the scheduler's per-feed bookkeeping from persisted state,
// so restarts do not re-poll everything at once.
func (s *Scheduler) Restore(url string, lastPolled time.Time, failures int, quarantinedUntil time.Time) {
	for _, states := range s.byCategory {
		for _, st := range states {
			if st.feed.URL == url {
				st.lastPolled = lastPolled
				st.failureCount = failures
				st.quarantinedUntil = quarantinedUntil
				return
			}
		}
	}
}

func (s *Scheduler) eligible(st *feedState, now time.Time) bool {
	if now.Before(st.quarantinedUntil) {
		return false
	}
	return now.Sub(st.lastPolled) >= s.cooldown
}

// Next returns the feeds due this tick. Rotation cursors advance even when
// a category has nothing eligible, so quiet categories cannot starve others.
func (s *Scheduler) Next(now time.Time) []Feed {
	var picked []Feed
	for scanned := 0; scanned < len(s.categories) && len(picked) < s.perTick; scanned++ {
		cat := s.categories[s.catCursor%len(s.categories)]
		s.catCursor++

		states := s.byCategory[cat]
		start := s.feedCursor[cat]
		for i := 0; i < len(states); i++ {
			st := states[(start+i)%len(states)]
			if s.eligible(st, now) {
				st.lastPolled = now
				s.feedCursor[cat] = (start + i + 1) % len(states)
				picked = append(picked, st.feed)
				break
			}
		}
	}
	return picked
}

// ReportResult records a poll outcome. Three consecutive failures push the
// feed into quarantine; any success resets the counter.
func (s *Scheduler) ReportResult(url string, now time.Time, err error) (failures int, quarantinedUntil time.Time) {
	for _, states := range s.byCategory {
		for _, st := range states {
			if st.feed.URL != url {
				continue
			}
			if err == nil {
				st.failureCount = 0
				st.quarantinedUntil = time.Time{}
			} else {
				st.failureCount++
				if st.failureCount >= quarantineAfter {
					st.quarantinedUntil = now.Add(s.quarantine)
				}
			}
			return st.failureCount, st.quarantinedUntil
		}
	}
	return 0, time.Time{}
}
