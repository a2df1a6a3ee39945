package poller

import (
	"context"
	"crypto/md5"
	"encoding/hex"
	"net/url"
	"strings"
	"time"

	"github.com/microcosm-cc/bluemonday"
	"github.com/mmcdole/gofeed"

	"newswire/internal/core"
	"newswire/internal/fingerprint"
	"newswire/internal/logger"
	"newswire/internal/metrics"
	"newswire/internal/persistence"
)

// FeedParser fetches and parses one RSS endpoint.
type FeedParser interface {
	ParseURLWithContext(feedURL string, ctx context.Context) (*gofeed.Feed, error)
}

// Poller drives the feed catalog: each tick it asks the scheduler for due
// feeds, fetches them, normalises the items and upserts surviving articles.
type Poller struct {
	store     persistence.Store
	scheduler *Scheduler
	parser    FeedParser
	sanitizer *bluemonday.Policy
	tick      time.Duration
	timeout   time.Duration
	now       func() time.Time
}

func New(store persistence.Store, scheduler *Scheduler, tick, fetchTimeout time.Duration) *Poller {
	return &Poller{
		store:     store,
		scheduler: scheduler,
		parser:    gofeed.NewParser(),
		sanitizer: bluemonday.StrictPolicy(),
		tick:      tick,
		timeout:   fetchTimeout,
		now:       func() time.Time { return time.Now().UTC() },
	}
}

// Run polls until the context is cancelled.
func (p *Poller) Run(ctx context.Context) error {
	log := logger.Get()

	states, err := p.store.ListFeedStates(ctx)
	if err != nil {
		log.Warn("could not restore feed state, starting cold", "error", err.Error())
	}
	for _, st := range states {
		p.scheduler.Restore(st.FeedURL, st.LastPolledAt, st.FailureCount, st.QuarantinedUntil)
	}

	ticker := time.NewTicker(p.tick)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			p.Tick(ctx)
		}
	}
}

// Tick runs one scheduling cycle. Exported so one-shot commands can drive
// the poller without the ticker loop.
func (p *Poller) Tick(ctx context.Context) {
	now := p.now()
	for _, feed := range p.scheduler.Next(now) {
		p.pollFeed(ctx, feed, now)
	}
}

func (p *Poller) pollFeed(ctx context.Context, feed Feed, now time.Time) {
	log := logger.Get()

	fetchCtx, cancel := context.WithTimeout(ctx, p.timeout)
	parsed, err := p.parser.ParseURLWithContext(feed.URL, fetchCtx)
	cancel()

	metrics.FeedsPolled.Inc()

	outcome := "ok"
	if err != nil {
		metrics.PollFailures.Inc()
		outcome = err.Error()
		log.Warn("feed poll failed", "source", feed.Source, "url", feed.URL, "error", err.Error())
	} else {
		newCount, updatedCount, filtered := p.ingest(ctx, feed, parsed, now)
		log.Info("feed polled", "source", feed.Source, "category", feed.Category,
			"items", len(parsed.Items), "new", newCount, "updated", updatedCount, "filtered", filtered)
	}

	failures, quarantinedUntil := p.scheduler.ReportResult(feed.URL, now, err)
	state := &core.FeedPollState{
		FeedURL:          feed.URL,
		Source:           feed.Source,
		LastPolledAt:     now,
		LastOutcome:      outcome,
		FailureCount:     failures,
		QuarantinedUntil: quarantinedUntil,
	}
	if err := p.store.UpsertFeedState(ctx, state); err != nil {
		log.Warn("could not persist feed state", "url", feed.URL, "error", err.Error())
	}
}

func (p *Poller) ingest(ctx context.Context, feed Feed, parsed *gofeed.Feed, now time.Time) (newCount, updatedCount, filtered int) {
	log := logger.Get()

	for _, item := range parsed.Items {
		article, ok := p.normalize(feed, item, now)
		if !ok {
			filtered++
			continue
		}
		created, err := p.store.UpsertArticle(ctx, article)
		if err != nil {
			log.Error("article upsert failed", "id", article.ID, "error", err.Error())
			continue
		}
		if created {
			metrics.ArticlesNew.Inc()
			newCount++
		} else {
			metrics.ArticlesUpdated.Inc()
			updatedCount++
		}
	}
	return newCount, updatedCount, filtered
}

// normalize turns a feed item into an article, or rejects it. Rejections
// are items without a usable link or title, and spam.
func (p *Poller) normalize(feed Feed, item *gofeed.Item, now time.Time) (*core.Article, bool) {
	title := strings.TrimSpace(item.Title)
	if title == "" || item.Link == "" {
		return nil, false
	}
	canonical := CanonicalURL(item.Link)
	description := p.sanitizer.Sanitize(item.Description)
	description = strings.TrimSpace(description)

	if spam, rule := fingerprint.IsSpam(title, description, canonical); spam {
		metrics.ArticlesFiltered.Inc()
		logger.Get().Debug("article filtered", "rule", rule, "title", title)
		return nil, false
	}

	var published time.Time
	if item.PublishedParsed != nil {
		published = item.PublishedParsed.UTC()
	} else if item.UpdatedParsed != nil {
		published = item.UpdatedParsed.UTC()
	} else {
		published = now
	}

	content := ""
	if item.Content != "" {
		content = strings.TrimSpace(p.sanitizer.Sanitize(item.Content))
	}

	return &core.Article{
		ID:          ArticleID(feed.Source, canonical),
		Source:      feed.Source,
		SourceTier:  feed.Tier(),
		URL:         canonical,
		Title:       title,
		Description: description,
		Content:     content,
		PublishedAt: published,
		FetchedAt:   now,
		UpdatedAt:   now,
		Category:    feed.Category,
		Language:    feed.Language,
		Entities:    fingerprint.ExtractEntities(title, 5),
		Fingerprint: fingerprint.Compute(title),
	}, true
}

// ArticleID derives the stable article ID from source and canonical URL.
func ArticleID(source, canonicalURL string) string {
	sum := md5.Sum([]byte(canonicalURL))
	return source + "_" + hex.EncodeToString(sum[:])[:12]
}

// trackingParams are query parameters stripped during canonicalisation so
// that the same article shared through different channels gets one ID.
var trackingParams = map[string]bool{
	"utm_source": true, "utm_medium": true, "utm_campaign": true,
	"utm_term": true, "utm_content": true, "utm_id": true,
	"fbclid": true, "gclid": true, "mc_cid": true, "mc_eid": true,
	"ref": true, "cmpid": true, "ocid": true, "smid": true,
}

// CanonicalURL lowercases the host, drops the fragment and removes known
// tracking parameters. Unparseable URLs pass through unchanged.
func CanonicalURL(raw string) string {
	u, err := url.Parse(raw)
	if err != nil {
		return raw
	}
	u.Host = strings.ToLower(u.Host)
	u.Fragment = ""

	q := u.Query()
	changed := false
	for param := range q {
		if trackingParams[strings.ToLower(param)] {
			q.Del(param)
			changed = true
		}
	}
	if changed || len(q) == 0 {
		u.RawQuery = q.Encode()
	}
	return u.String()
}
