package poller

import (
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/mmcdole/gofeed"

	"newswire/internal/persistence"
)

func testFeeds() []Feed {
	return []Feed{
		{Source: "bbc", URL: "https://bbc.example/world", Category: "world"},
		{Source: "guardian", URL: "https://guardian.example/world", Category: "world"},
		{Source: "npr", URL: "https://npr.example/us", Category: "us"},
		{Source: "espn", URL: "https://espn.example/sports", Category: "sports"},
	}
}

func TestSchedulerOneFeedPerCategoryPerTick(t *testing.T) {
	s := NewScheduler(testFeeds(), 3*time.Minute, 5*time.Minute, 3)
	now := time.Now()

	picked := s.Next(now)
	if len(picked) != 3 {
		t.Fatalf("picked %d feeds, want 3", len(picked))
	}
	seen := map[string]int{}
	for _, f := range picked {
		seen[f.Category]++
	}
	for cat, n := range seen {
		if n > 1 {
			t.Errorf("category %s picked %d times in one tick", cat, n)
		}
	}
}

func TestSchedulerCooldown(t *testing.T) {
	s := NewScheduler(testFeeds(), 3*time.Minute, 5*time.Minute, 3)
	now := time.Now()

	first := s.Next(now)
	if len(first) == 0 {
		t.Fatal("first tick picked nothing")
	}
	// Every feed was either polled or is single-entry in its category and
	// still eligible. With 4 feeds and 3 categories, after two ticks all
	// feeds are inside cooldown.
	s.Next(now.Add(10 * time.Second))
	if got := s.Next(now.Add(20 * time.Second)); len(got) != 0 {
		t.Errorf("tick inside cooldown picked %d feeds, want 0", len(got))
	}
	if got := s.Next(now.Add(4 * time.Minute)); len(got) == 0 {
		t.Error("feeds not released after cooldown elapsed")
	}
}

func TestSchedulerRotatesWithinCategory(t *testing.T) {
	feeds := []Feed{
		{Source: "a", URL: "https://a.example/f", Category: "world"},
		{Source: "b", URL: "https://b.example/f", Category: "world"},
	}
	s := NewScheduler(feeds, 0, 5*time.Minute, 1)
	now := time.Now()

	first := s.Next(now)[0].Source
	second := s.Next(now.Add(time.Second))[0].Source
	if first == second {
		t.Errorf("same feed %q picked twice in a row with zero cooldown", first)
	}
}

func TestSchedulerQuarantine(t *testing.T) {
	feeds := []Feed{{Source: "a", URL: "https://a.example/f", Category: "world"}}
	s := NewScheduler(feeds, 0, 5*time.Minute, 1)
	now := time.Now()
	fetchErr := errors.New("boom")

	for i := 0; i < 2; i++ {
		failures, until := s.ReportResult(feeds[0].URL, now, fetchErr)
		if failures != i+1 || !until.IsZero() {
			t.Fatalf("after failure %d: failures=%d quarantined=%v", i+1, failures, until)
		}
	}
	failures, until := s.ReportResult(feeds[0].URL, now, fetchErr)
	if failures != 3 || until.IsZero() {
		t.Fatalf("third failure should quarantine: failures=%d until=%v", failures, until)
	}

	if got := s.Next(now.Add(time.Minute)); len(got) != 0 {
		t.Error("quarantined feed was scheduled")
	}
	if got := s.Next(now.Add(6 * time.Minute)); len(got) != 1 {
		t.Error("feed not released after quarantine window")
	}

	failures, until = s.ReportResult(feeds[0].URL, now, nil)
	if failures != 0 || !until.IsZero() {
		t.Errorf("success should clear failure state: failures=%d until=%v", failures, until)
	}
}

func TestCanonicalURL(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{
			name: "strips tracking params",
			in:   "https://Example.com/story?utm_source=rss&utm_medium=feed&id=7",
			want: "https://example.com/story?id=7",
		},
		{
			name: "drops fragment",
			in:   "https://example.com/story#section-2",
			want: "https://example.com/story",
		},
		{
			name: "lowercases host only",
			in:   "https://News.Example.COM/Story/Path",
			want: "https://news.example.com/Story/Path",
		},
		{
			name: "plain url unchanged",
			in:   "https://example.com/a/b",
			want: "https://example.com/a/b",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := CanonicalURL(tt.in); got != tt.want {
				t.Errorf("CanonicalURL(%q) = %q, want %q", tt.in, got, tt.want)
			}
		})
	}
}

func TestArticleIDShape(t *testing.T) {
	id := ArticleID("ap", "https://apnews.com/article/xyz")
	if !strings.HasPrefix(id, "ap_") {
		t.Errorf("id %q missing source prefix", id)
	}
	if len(id) != len("ap_")+12 {
		t.Errorf("id %q hash length = %d, want 12", id, len(id)-len("ap_"))
	}
	if id != ArticleID("ap", "https://apnews.com/article/xyz") {
		t.Error("id not deterministic")
	}
	if id == ArticleID("bbc", "https://apnews.com/article/xyz") {
		t.Error("id ignores source")
	}
}

func TestNormalizeFiltersSpamAndStripsHTML(t *testing.T) {
	p := New(persistence.NewMemoryStore(), NewScheduler(nil, 0, 0, 1), time.Second, time.Second)
	feed := Feed{Source: "guardian", Category: "general", Language: "en"}
	now := time.Now().UTC()

	if _, ok := p.normalize(feed, &gofeed.Item{
		Title: "Win tickets to the summer festival",
		Link:  "https://example.com/promo",
	}, now); ok {
		t.Error("promotional item survived normalisation")
	}

	if _, ok := p.normalize(feed, &gofeed.Item{
		Title: "Quay Harbour House",
		Link:  "https://example.com/good-food/harbour",
	}, now); ok {
		t.Error("lifestyle-section item survived normalisation")
	}

	a, ok := p.normalize(feed, &gofeed.Item{
		Title:       "Parliament passes budget after marathon session",
		Description: "<p>The vote <b>concluded</b> at dawn.</p>",
		Link:        "https://example.com/politics/budget?utm_source=rss",
	}, now)
	if !ok {
		t.Fatal("legitimate item rejected")
	}
	if strings.Contains(a.Description, "<") {
		t.Errorf("description still contains markup: %q", a.Description)
	}
	if strings.Contains(a.URL, "utm_source") {
		t.Errorf("url not canonicalised: %q", a.URL)
	}
	if a.Fingerprint == "" || len(a.Fingerprint) != 6 {
		t.Errorf("fingerprint not computed: %q", a.Fingerprint)
	}
	if !a.PublishedAt.Equal(now) {
		t.Errorf("missing pub date should fall back to now, got %v", a.PublishedAt)
	}
}
