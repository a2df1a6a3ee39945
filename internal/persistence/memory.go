package persistence

import (
	"context"
	"sort"
	"strconv"
	"strings"
	"sync"
	"time"

	"newswire/internal/core"
)

type changeEntry struct {
	seq       int64
	container string
	docID     string
}

// MemoryStore is an in-memory Store used by tests and local development.
// It mirrors the Postgres implementation's semantics, including the etag
// guard on ReplaceCluster and the change-log cursor protocol.
type MemoryStore struct {
	mu           sync.Mutex
	articles     map[string]core.Article
	clusters     map[string]core.Cluster
	etags        map[string]int64
	feedStates   map[string]core.FeedPollState
	batchJobs    map[string]core.BatchJob
	profiles     map[string]core.UserProfile
	interactions []core.UserInteraction
	changeLog    []changeEntry
	nextSeq      int64
	cursors      map[string]int64
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		articles:   map[string]core.Article{},
		clusters:   map[string]core.Cluster{},
		etags:      map[string]int64{},
		feedStates: map[string]core.FeedPollState{},
		batchJobs:  map[string]core.BatchJob{},
		profiles:   map[string]core.UserProfile{},
		nextSeq:    1,
		cursors:    map[string]int64{},
	}
}

func (m *MemoryStore) logChange(container, docID string) {
	m.changeLog = append(m.changeLog, changeEntry{seq: m.nextSeq, container: container, docID: docID})
	m.nextSeq++
}

func (m *MemoryStore) Ping(context.Context) error { return nil }
func (m *MemoryStore) Close() error               { return nil }

func (m *MemoryStore) UpsertArticle(_ context.Context, a *core.Article) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	existing, ok := m.articles[a.ID]
	if ok {
		a.FetchedAt = existing.FetchedAt
	}
	m.articles[a.ID] = copyArticle(a)
	m.logChange(ContainerArticles, a.ID)
	return !ok, nil
}

func (m *MemoryStore) GetArticle(_ context.Context, id string) (*core.Article, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	a, ok := m.articles[id]
	if !ok {
		return nil, ErrNotFound
	}
	out := copyArticle(&a)
	return &out, nil
}

func (m *MemoryStore) GetArticles(_ context.Context, ids []string) ([]core.Article, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	out := make([]core.Article, 0, len(ids))
	for _, id := range ids {
		if a, ok := m.articles[id]; ok {
			out = append(out, copyArticle(&a))
		}
	}
	return out, nil
}

func (m *MemoryStore) CreateCluster(_ context.Context, c *core.Cluster) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.clusters[c.ID] = copyCluster(c)
	m.etags[c.ID] = 1
	c.ETag = "1"
	m.logChange(ContainerClusters, c.ID)
	return nil
}

func (m *MemoryStore) ReadCluster(_ context.Context, id, category string) (*core.Cluster, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	c, ok := m.clusters[id]
	if !ok || (category != "" && c.Category != category) {
		return nil, ErrNotFound
	}
	out := copyCluster(&c)
	out.ETag = strconv.FormatInt(m.etags[id], 10)
	return &out, nil
}

func (m *MemoryStore) ReplaceCluster(_ context.Context, c *core.Cluster) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	current, ok := m.etags[c.ID]
	if !ok {
		return ErrNotFound
	}
	expected, err := strconv.ParseInt(c.ETag, 10, 64)
	if err != nil || expected != current {
		return ErrConflict
	}
	m.clusters[c.ID] = copyCluster(c)
	m.etags[c.ID] = current + 1
	c.ETag = strconv.FormatInt(current+1, 10)
	m.logChange(ContainerClusters, c.ID)
	return nil
}

func (m *MemoryStore) QueryRecentClusters(_ context.Context, category string, since time.Time, limit int) ([]core.Cluster, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	var out []core.Cluster
	for id, c := range m.clusters {
		if c.LastUpdated.Before(since) {
			continue
		}
		if category != "" && c.Category != category {
			continue
		}
		cc := copyCluster(&c)
		cc.ETag = strconv.FormatInt(m.etags[id], 10)
		out = append(out, cc)
		if len(out) >= limit {
			break
		}
	}
	return out, nil
}

func (m *MemoryStore) QueryByFingerprint(_ context.Context, fp, category string, since time.Time) ([]core.Cluster, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	var out []core.Cluster
	for id, c := range m.clusters {
		if c.Fingerprint != fp || c.Category != category || c.LastUpdated.Before(since) {
			continue
		}
		cc := copyCluster(&c)
		cc.ETag = strconv.FormatInt(m.etags[id], 10)
		out = append(out, cc)
	}
	return out, nil
}

func (m *MemoryStore) QueryByStatus(_ context.Context, status core.Status, limit int) ([]core.Cluster, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	var out []core.Cluster
	for id, c := range m.clusters {
		if c.Status != status {
			continue
		}
		cc := copyCluster(&c)
		cc.ETag = strconv.FormatInt(m.etags[id], 10)
		out = append(out, cc)
		if len(out) >= limit {
			break
		}
	}
	return out, nil
}

func (m *MemoryStore) QueryMissingSummary(_ context.Context, since time.Time, limit int) ([]core.Cluster, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	var out []core.Cluster
	for id, c := range m.clusters {
		if c.Summary != nil || c.Status == core.StatusMonitoring || c.FirstSeen.Before(since) {
			continue
		}
		cc := copyCluster(&c)
		cc.ETag = strconv.FormatInt(m.etags[id], 10)
		out = append(out, cc)
		if len(out) >= limit {
			break
		}
	}
	return out, nil
}

func (m *MemoryStore) SearchClusters(_ context.Context, q string, limit int) ([]core.Cluster, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	needle := strings.ToLower(q)
	var out []core.Cluster
	for id, c := range m.clusters {
		hay := strings.ToLower(c.Title)
		if c.Summary != nil {
			hay += " " + strings.ToLower(c.Summary.Text)
		}
		if !strings.Contains(hay, needle) {
			continue
		}
		cc := copyCluster(&c)
		cc.ETag = strconv.FormatInt(m.etags[id], 10)
		out = append(out, cc)
		if len(out) >= limit {
			break
		}
	}
	return out, nil
}

func (m *MemoryStore) SubscribeChangeFeed(ctx context.Context, container, lease string, batchSize int, pollInterval time.Duration, handler ChangeFeedHandler) error {
	leaseID := container + "/" + lease
	for {
		delivered, err := m.DispatchChanges(ctx, container, leaseID, batchSize, handler)
		if delivered > 0 && err == nil {
			continue
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(pollInterval):
		}
	}
}

// DispatchChanges runs one change-feed cycle synchronously. Tests drive the
// feed through this instead of the polling loop.
func (m *MemoryStore) DispatchChanges(ctx context.Context, container, leaseID string, batchSize int, handler ChangeFeedHandler) (int, error) {
	m.mu.Lock()
	cursor := m.cursors[leaseID]
	var (
		ids     []string
		seen    = map[string]struct{}{}
		highest = cursor
	)
	for _, e := range m.changeLog {
		if e.container != container || e.seq <= cursor {
			continue
		}
		highest = e.seq
		if _, dup := seen[e.docID]; !dup {
			seen[e.docID] = struct{}{}
			ids = append(ids, e.docID)
		}
		if len(ids) >= batchSize {
			break
		}
	}
	m.mu.Unlock()

	if len(ids) == 0 {
		return 0, nil
	}
	if err := handler(ctx, ids); err != nil {
		return len(ids), err
	}
	m.mu.Lock()
	m.cursors[leaseID] = highest
	m.mu.Unlock()
	return len(ids), nil
}

func (m *MemoryStore) UpsertFeedState(_ context.Context, st *core.FeedPollState) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.feedStates[st.FeedURL] = *st
	return nil
}

func (m *MemoryStore) ListFeedStates(_ context.Context) ([]core.FeedPollState, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	out := make([]core.FeedPollState, 0, len(m.feedStates))
	for _, st := range m.feedStates {
		out = append(out, st)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].FeedURL < out[j].FeedURL })
	return out, nil
}

func (m *MemoryStore) UpsertBatchJob(_ context.Context, j *core.BatchJob) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	cp := *j
	cp.ClusterIDs = append([]string(nil), j.ClusterIDs...)
	m.batchJobs[j.BatchID] = cp
	return nil
}

func (m *MemoryStore) ListOpenBatchJobs(_ context.Context) ([]core.BatchJob, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	var out []core.BatchJob
	for _, j := range m.batchJobs {
		if j.Status.Terminal() {
			continue
		}
		cp := j
		cp.ClusterIDs = append([]string(nil), j.ClusterIDs...)
		out = append(out, cp)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].BatchID < out[j].BatchID })
	return out, nil
}

func (m *MemoryStore) GetUserProfile(_ context.Context, id string) (*core.UserProfile, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	p, ok := m.profiles[id]
	if !ok {
		return nil, ErrNotFound
	}
	cp := p
	cp.Categories = append([]string(nil), p.Categories...)
	cp.DeviceTokens = append([]string(nil), p.DeviceTokens...)
	return &cp, nil
}

func (m *MemoryStore) UpsertUserProfile(_ context.Context, p *core.UserProfile) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	cp := *p
	cp.Categories = append([]string(nil), p.Categories...)
	cp.DeviceTokens = append([]string(nil), p.DeviceTokens...)
	m.profiles[p.ID] = cp
	return nil
}

func (m *MemoryStore) RecordInteraction(_ context.Context, i *core.UserInteraction) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.interactions = append(m.interactions, *i)
	return nil
}

// Interactions returns recorded interactions for assertions in tests.
func (m *MemoryStore) Interactions() []core.UserInteraction {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]core.UserInteraction(nil), m.interactions...)
}

func (m *MemoryStore) Cleanup(_ context.Context, now time.Time) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	for id, a := range m.articles {
		if a.FetchedAt.Before(now.Add(-articleRetention)) {
			delete(m.articles, id)
		}
	}
	kept := m.interactions[:0]
	for _, i := range m.interactions {
		if !i.CreatedAt.Before(now.Add(-interactionRetention)) {
			kept = append(kept, i)
		}
	}
	m.interactions = kept
	return nil
}

func copyArticle(a *core.Article) core.Article {
	cp := *a
	cp.Entities = copyCounts(a.Entities)
	return cp
}

func copyCluster(c *core.Cluster) core.Cluster {
	cp := *c
	cp.SourceArticles = append([]string(nil), c.SourceArticles...)
	cp.Entities = copyCounts(c.Entities)
	if c.Summary != nil {
		sv := *c.Summary
		cp.Summary = &sv
	}
	return cp
}

func copyCounts(in map[string]int) map[string]int {
	if in == nil {
		return nil
	}
	out := make(map[string]int, len(in))
	for k, v := range in {
		out[k] = v
	}
	return out
}
