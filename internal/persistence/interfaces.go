// Package persistence provides the typed store adapter over the document
// database: per-partition reads, change-feed subscription and ETag-guarded
// writes. Two implementations exist: Postgres for production and an
// in-memory store for tests.
package persistence

import (
	"context"
	"errors"
	"time"

	"newswire/internal/core"
)

// Container names. The change feed is enabled on articles and clusters.
const (
	ContainerArticles = "raw_articles"
	ContainerClusters = "story_clusters"
)

var (
	// ErrNotFound is returned when a document does not exist.
	ErrNotFound = errors.New("document not found")

	// ErrConflict is returned by ReplaceCluster when the supplied ETag no
	// longer matches the stored document. Callers re-read and retry.
	ErrConflict = errors.New("etag conflict")
)

// ChangeFeedHandler receives a batch of changed document IDs. Delivery is
// at-least-once: the cursor only advances after the handler returns nil, so
// handlers must be idempotent.
type ChangeFeedHandler func(ctx context.Context, docIDs []string) error

// Store is the typed adapter over the document database. It is one of the
// two polymorphic seams in the system (the other is the LLM provider).
type Store interface {
	// UpsertArticle replaces the document if the ID exists, otherwise
	// creates it. FetchedAt of an existing article is preserved; the
	// returned flag reports whether the article was newly created.
	UpsertArticle(ctx context.Context, a *core.Article) (created bool, err error)
	GetArticle(ctx context.Context, id string) (*core.Article, error)
	// GetArticles resolves a batch of IDs, silently skipping unknown ones.
	GetArticles(ctx context.Context, ids []string) ([]core.Article, error)

	CreateCluster(ctx context.Context, c *core.Cluster) error
	// ReadCluster returns the cluster with its current ETag populated.
	ReadCluster(ctx context.Context, id, category string) (*core.Cluster, error)
	// ReplaceCluster writes c guarded by c.ETag and refreshes c.ETag on
	// success. Returns ErrConflict when the stored ETag differs.
	ReplaceCluster(ctx context.Context, c *core.Cluster) error
	// QueryRecentClusters returns an unordered page of clusters in the
	// category (all categories when empty) with last_updated >= since.
	// Callers sort in memory; list-order sorting is unavailable without
	// composite indexes.
	QueryRecentClusters(ctx context.Context, category string, since time.Time, limit int) ([]core.Cluster, error)
	QueryByFingerprint(ctx context.Context, fp, category string, since time.Time) ([]core.Cluster, error)
	// QueryByStatus is a plain equality query; any ordering or null-defined
	// predicates are applied in memory by the caller.
	QueryByStatus(ctx context.Context, status core.Status, limit int) ([]core.Cluster, error)
	// QueryMissingSummary returns clusters without a stored summary whose
	// status differs from MONITORING and whose first_seen is after since.
	QueryMissingSummary(ctx context.Context, since time.Time, limit int) ([]core.Cluster, error)
	// SearchClusters returns an unranked candidate page matching q over
	// title and summary text; the caller scores and sorts.
	SearchClusters(ctx context.Context, q string, limit int) ([]core.Cluster, error)

	// SubscribeChangeFeed delivers batches of changed document IDs from the
	// container, resuming from the cursor stored under lease. It blocks
	// until ctx is cancelled.
	SubscribeChangeFeed(ctx context.Context, container, lease string, batchSize int, pollInterval time.Duration, handler ChangeFeedHandler) error

	UpsertFeedState(ctx context.Context, s *core.FeedPollState) error
	ListFeedStates(ctx context.Context) ([]core.FeedPollState, error)

	UpsertBatchJob(ctx context.Context, j *core.BatchJob) error
	ListOpenBatchJobs(ctx context.Context) ([]core.BatchJob, error)

	GetUserProfile(ctx context.Context, id string) (*core.UserProfile, error)
	UpsertUserProfile(ctx context.Context, p *core.UserProfile) error
	RecordInteraction(ctx context.Context, i *core.UserInteraction) error

	// Cleanup enforces retention: articles older than 30 days and
	// interactions older than 180 days are dropped.
	Cleanup(ctx context.Context, now time.Time) error

	Ping(ctx context.Context) error
	Close() error
}
