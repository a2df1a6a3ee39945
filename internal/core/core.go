// Package core defines the domain types shared by the newswire pipeline.
package core

import "time"

// Status is the lifecycle label of a story cluster.
type Status string

const (
	StatusMonitoring Status = "MONITORING" // single source, watching
	StatusDeveloping Status = "DEVELOPING" // two sources
	StatusVerified   Status = "VERIFIED"   // three or more sources, settled
	StatusBreaking   Status = "BREAKING"   // three or more sources, actively developing
	StatusArchived   Status = "ARCHIVED"   // terminal
)

// Categories is the closed set of article/cluster categories. A cluster's
// category is its partition key and never changes after creation.
var Categories = []string{
	"world", "us", "europe", "business", "tech",
	"science", "health", "sports", "entertainment", "general",
}

// ValidCategory reports whether c belongs to the closed category set.
func ValidCategory(c string) bool {
	for _, known := range Categories {
		if c == known {
			return true
		}
	}
	return false
}

// Article is a single item fetched from one feed, stored by a stable
// URL-derived ID so that repeat fetches of the same URL overwrite in place.
type Article struct {
	ID          string         `json:"id"`          // source + "_" + md5(url)[:12]
	Source      string         `json:"source"`      // short stable token, e.g. "ap", "bbc"
	SourceTier  int            `json:"source_tier"` // 1=major wire, 2=regional, 3=niche
	URL         string         `json:"url"`         // canonical URL
	Title       string         `json:"title"`
	Description string         `json:"description"`
	Content     string         `json:"content"`      // may be empty
	PublishedAt time.Time      `json:"published_at"` // publisher-supplied UTC instant
	FetchedAt   time.Time      `json:"fetched_at"`   // first-seen instant, immutable after creation
	UpdatedAt   time.Time      `json:"updated_at"`   // most recent upsert instant
	Category    string         `json:"category"`
	Language    string         `json:"language"`
	Entities    map[string]int `json:"entities"`    // proper nouns with counts
	Fingerprint string         `json:"fingerprint"` // lossy 6-hex-char topic hash
}

// SummaryVersion is the current synthesised summary of a cluster. It is
// replaced as a whole on regeneration; only the version number survives.
type SummaryVersion struct {
	Version          int       `json:"version"` // starts at 1, strictly increases
	Text             string    `json:"text"`
	GeneratedAt      time.Time `json:"generated_at"`
	Model            string    `json:"model"` // provider-opaque identifier
	WordCount        int       `json:"word_count"`
	PromptTokens     int       `json:"prompt_tokens"`
	CompletionTokens int       `json:"completion_tokens"`
	CachedTokens     int       `json:"cached_tokens"`
	CostUSD          float64   `json:"cost_usd"`
	BatchProcessed   bool      `json:"batch_processed"`
	GenerationTimeMS int64     `json:"generation_time_ms"`
}

// Cluster is a story: a group of articles believed to describe the same
// real-world event. SourceArticles holds article IDs only; article objects
// are never embedded in durable storage.
type Cluster struct {
	ID                string          `json:"id"`       // time-prefixed stable string
	Category          string          `json:"category"` // partition key, immutable
	Title             string          `json:"title"`    // currently chosen headline
	Summary           *SummaryVersion `json:"summary,omitempty"`
	SourceArticles    []string        `json:"source_articles"` // ordered article IDs
	Status            Status          `json:"status"`
	VerificationLevel int             `json:"verification_level"` // 1..5 from unique-source count
	FirstSeen         time.Time       `json:"first_seen"`
	LastUpdated       time.Time       `json:"last_updated"`
	UpdateCount       int             `json:"update_count"`
	TitleCheckedCount int             `json:"title_checked_count"` // membership size at the last headline re-evaluation
	Entities          map[string]int  `json:"entities"`
	Fingerprint       string          `json:"fingerprint"`
	ETag              string          `json:"-"` // opaque concurrency token from the store
}

// VerificationLevel maps a unique-source count onto the 1..5 ladder.
// Monotone step function: 1, 2 and 3 sources map directly, 5 sources reach
// level 4 and 10 or more reach level 5.
func VerificationLevel(uniqueSources int) int {
	switch {
	case uniqueSources >= 10:
		return 5
	case uniqueSources >= 5:
		return 4
	case uniqueSources >= 3:
		return 3
	case uniqueSources == 2:
		return 2
	default:
		return 1
	}
}

// BatchJobStatus is the lifecycle label of a batch submission.
type BatchJobStatus string

const (
	BatchSubmitted  BatchJobStatus = "submitted"
	BatchInProgress BatchJobStatus = "in_progress"
	BatchCompleted  BatchJobStatus = "completed"
	BatchFailed     BatchJobStatus = "failed"
)

// Terminal reports whether the batch job will see no further updates.
func (s BatchJobStatus) Terminal() bool {
	return s == BatchCompleted || s == BatchFailed
}

// BatchJob tracks one outstanding batch submission to the LLM provider.
// Retained after completion for audit.
type BatchJob struct {
	BatchID        string         `json:"batch_id"` // provider-assigned, partition key
	Status         BatchJobStatus `json:"status"`
	ClusterIDs     []string       `json:"cluster_ids"` // up to 500 entries
	SubmittedAt    time.Time      `json:"submitted_at"`
	EndedAt        time.Time      `json:"ended_at"`
	RequestCount   int            `json:"request_count"`
	SucceededCount int            `json:"succeeded_count"`
	ErroredCount   int            `json:"errored_count"`
	TotalCostUSD   float64        `json:"total_cost_usd"`
}

// FeedPollState is the poller's per-feed bookkeeping. Written only by the
// RSS worker.
type FeedPollState struct {
	FeedURL          string    `json:"feed_url"`
	Source           string    `json:"source"`
	LastPolledAt     time.Time `json:"last_polled_at"`
	LastOutcome      string    `json:"last_outcome"` // "ok" or the last error string
	FailureCount     int       `json:"failure_count"`
	QuarantinedUntil time.Time `json:"quarantined_until"`
}

// UserProfile carries identity plus reading preferences.
type UserProfile struct {
	ID           string    `json:"id"`
	Categories   []string  `json:"categories"` // per-user category filter
	DeviceTokens []string  `json:"device_tokens"`
	LastFeedAt   time.Time `json:"last_feed_at"`
	CreatedAt    time.Time `json:"created_at"`
}

// UserInteraction records a like/save/view event against a cluster.
type UserInteraction struct {
	ID        string    `json:"id"`
	UserID    string    `json:"user_id"`
	ClusterID string    `json:"cluster_id"`
	Kind      string    `json:"kind"` // like, save, view
	CreatedAt time.Time `json:"created_at"`
}

// UniqueSources counts the distinct source tokens among the given articles.
func UniqueSources(articles []Article) int {
	seen := make(map[string]struct{}, len(articles))
	for _, a := range articles {
		seen[a.Source] = struct{}{}
	}
	return len(seen)
}
