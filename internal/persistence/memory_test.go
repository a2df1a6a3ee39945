package persistence

import (
	"context"
	"errors"
	"testing"
	"time"

	"newswire/internal/core"
)

var _ Store = (*MemoryStore)(nil)

func TestUpsertArticlePreservesFetchedAt(t *testing.T) {
	store := NewMemoryStore()
	ctx := context.Background()

	first := time.Date(2026, 8, 1, 10, 0, 0, 0, time.UTC)
	a := &core.Article{
		ID:        "ap_abc123",
		Source:    "ap",
		Title:     "Original title",
		FetchedAt: first,
		Entities:  map[string]int{"Senate": 1},
	}
	created, err := store.UpsertArticle(ctx, a)
	if err != nil {
		t.Fatalf("first upsert: %v", err)
	}
	if !created {
		t.Fatal("first upsert should report created")
	}

	again := &core.Article{
		ID:        "ap_abc123",
		Source:    "ap",
		Title:     "Updated title",
		FetchedAt: first.Add(time.Hour),
	}
	created, err = store.UpsertArticle(ctx, again)
	if err != nil {
		t.Fatalf("second upsert: %v", err)
	}
	if created {
		t.Fatal("second upsert should not report created")
	}
	if !again.FetchedAt.Equal(first) {
		t.Errorf("fetched_at changed on update: got %v want %v", again.FetchedAt, first)
	}

	got, err := store.GetArticle(ctx, "ap_abc123")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if got.Title != "Updated title" {
		t.Errorf("title not updated: %q", got.Title)
	}
	if !got.FetchedAt.Equal(first) {
		t.Errorf("stored fetched_at = %v, want %v", got.FetchedAt, first)
	}
}

func TestReplaceClusterETagGuard(t *testing.T) {
	store := NewMemoryStore()
	ctx := context.Background()

	c := &core.Cluster{ID: "20260801-1", Category: "politics", Title: "A"}
	if err := store.CreateCluster(ctx, c); err != nil {
		t.Fatalf("create: %v", err)
	}
	if c.ETag != "1" {
		t.Fatalf("etag after create = %q, want 1", c.ETag)
	}

	readerA, err := store.ReadCluster(ctx, c.ID, "politics")
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	readerB, err := store.ReadCluster(ctx, c.ID, "politics")
	if err != nil {
		t.Fatalf("read: %v", err)
	}

	readerA.Title = "A updated"
	if err := store.ReplaceCluster(ctx, readerA); err != nil {
		t.Fatalf("first replace: %v", err)
	}
	if readerA.ETag != "2" {
		t.Errorf("etag after replace = %q, want 2", readerA.ETag)
	}

	readerB.Title = "B racing"
	if err := store.ReplaceCluster(ctx, readerB); !errors.Is(err, ErrConflict) {
		t.Errorf("stale replace err = %v, want ErrConflict", err)
	}

	got, err := store.ReadCluster(ctx, c.ID, "")
	if err != nil {
		t.Fatalf("read after races: %v", err)
	}
	if got.Title != "A updated" {
		t.Errorf("winning write lost: title = %q", got.Title)
	}

	missing := &core.Cluster{ID: "nope", ETag: "1"}
	if err := store.ReplaceCluster(ctx, missing); !errors.Is(err, ErrNotFound) {
		t.Errorf("replace missing err = %v, want ErrNotFound", err)
	}
}

func TestReadClusterWrongCategory(t *testing.T) {
	store := NewMemoryStore()
	ctx := context.Background()

	c := &core.Cluster{ID: "20260801-2", Category: "sports"}
	if err := store.CreateCluster(ctx, c); err != nil {
		t.Fatalf("create: %v", err)
	}
	if _, err := store.ReadCluster(ctx, c.ID, "politics"); !errors.Is(err, ErrNotFound) {
		t.Errorf("cross-category read err = %v, want ErrNotFound", err)
	}
}

func TestChangeFeedCursorAndRedelivery(t *testing.T) {
	store := NewMemoryStore()
	ctx := context.Background()

	for _, id := range []string{"a1", "a2", "a3"} {
		if _, err := store.UpsertArticle(ctx, &core.Article{ID: id, FetchedAt: time.Now()}); err != nil {
			t.Fatalf("upsert %s: %v", id, err)
		}
	}

	var delivered [][]string
	fail := true
	handler := func(_ context.Context, ids []string) error {
		delivered = append(delivered, ids)
		if fail {
			return errors.New("handler down")
		}
		return nil
	}

	// Failing handler: cursor must not advance, batch is redelivered.
	if _, err := store.DispatchChanges(ctx, ContainerArticles, "articles/test", 100, handler); err == nil {
		t.Fatal("expected handler error to surface")
	}
	fail = false
	if _, err := store.DispatchChanges(ctx, ContainerArticles, "articles/test", 100, handler); err != nil {
		t.Fatalf("second dispatch: %v", err)
	}
	if len(delivered) != 2 {
		t.Fatalf("dispatch count = %d, want 2", len(delivered))
	}
	if len(delivered[1]) != 3 {
		t.Errorf("redelivered batch size = %d, want 3", len(delivered[1]))
	}

	// Nothing new: no delivery.
	n, err := store.DispatchChanges(ctx, ContainerArticles, "articles/test", 100, handler)
	if err != nil || n != 0 {
		t.Errorf("drained dispatch = (%d, %v), want (0, nil)", n, err)
	}

	// New write resumes past the committed cursor.
	if _, err := store.UpsertArticle(ctx, &core.Article{ID: "a4", FetchedAt: time.Now()}); err != nil {
		t.Fatalf("upsert a4: %v", err)
	}
	if _, err := store.DispatchChanges(ctx, ContainerArticles, "articles/test", 100, handler); err != nil {
		t.Fatalf("third dispatch: %v", err)
	}
	last := delivered[len(delivered)-1]
	if len(last) != 1 || last[0] != "a4" {
		t.Errorf("resumed batch = %v, want [a4]", last)
	}
}

func TestChangeFeedDeduplicatesWithinBatch(t *testing.T) {
	store := NewMemoryStore()
	ctx := context.Background()

	a := &core.Article{ID: "dup", FetchedAt: time.Now()}
	for i := 0; i < 3; i++ {
		if _, err := store.UpsertArticle(ctx, a); err != nil {
			t.Fatalf("upsert %d: %v", i, err)
		}
	}

	var got []string
	_, err := store.DispatchChanges(ctx, ContainerArticles, "articles/test", 100,
		func(_ context.Context, ids []string) error {
			got = ids
			return nil
		})
	if err != nil {
		t.Fatalf("dispatch: %v", err)
	}
	if len(got) != 1 || got[0] != "dup" {
		t.Errorf("batch = %v, want single dup entry", got)
	}
}

func TestQueryMissingSummarySkipsMonitoring(t *testing.T) {
	store := NewMemoryStore()
	ctx := context.Background()
	now := time.Now().UTC()

	clusters := []core.Cluster{
		{ID: "c1", Category: "world", Status: core.StatusDeveloping, FirstSeen: now},
		{ID: "c2", Category: "world", Status: core.StatusMonitoring, FirstSeen: now},
		{ID: "c3", Category: "world", Status: core.StatusVerified, FirstSeen: now,
			Summary: &core.SummaryVersion{Version: 1, Text: "done"}},
		{ID: "c4", Category: "world", Status: core.StatusDeveloping, FirstSeen: now.Add(-72 * time.Hour)},
	}
	for i := range clusters {
		if err := store.CreateCluster(ctx, &clusters[i]); err != nil {
			t.Fatalf("create %s: %v", clusters[i].ID, err)
		}
	}

	got, err := store.QueryMissingSummary(ctx, now.Add(-48*time.Hour), 500)
	if err != nil {
		t.Fatalf("query: %v", err)
	}
	if len(got) != 1 || got[0].ID != "c1" {
		ids := make([]string, len(got))
		for i, c := range got {
			ids[i] = c.ID
		}
		t.Errorf("missing-summary set = %v, want [c1]", ids)
	}
}

func TestCleanupRetention(t *testing.T) {
	store := NewMemoryStore()
	ctx := context.Background()
	now := time.Now().UTC()

	old := &core.Article{ID: "old", FetchedAt: now.Add(-31 * 24 * time.Hour)}
	fresh := &core.Article{ID: "fresh", FetchedAt: now.Add(-1 * time.Hour)}
	for _, a := range []*core.Article{old, fresh} {
		if _, err := store.UpsertArticle(ctx, a); err != nil {
			t.Fatalf("upsert: %v", err)
		}
	}
	if err := store.RecordInteraction(ctx, &core.UserInteraction{
		ID: "i1", UserID: "u1", ClusterID: "c1", Kind: "like",
		CreatedAt: now.Add(-200 * 24 * time.Hour),
	}); err != nil {
		t.Fatalf("record: %v", err)
	}

	if err := store.Cleanup(ctx, now); err != nil {
		t.Fatalf("cleanup: %v", err)
	}
	if _, err := store.GetArticle(ctx, "old"); !errors.Is(err, ErrNotFound) {
		t.Error("article past retention survived cleanup")
	}
	if _, err := store.GetArticle(ctx, "fresh"); err != nil {
		t.Errorf("fresh article removed: %v", err)
	}
	if n := len(store.Interactions()); n != 0 {
		t.Errorf("stale interactions remaining = %d, want 0", n)
	}
}
