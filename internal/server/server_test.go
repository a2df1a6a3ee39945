package server

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"newswire/internal/config"
	"newswire/internal/core"
	"newswire/internal/persistence"
)

const testSecret = "test-secret"

func testServer(t *testing.T) (*Server, *persistence.MemoryStore) {
	t.Helper()
	store := persistence.NewMemoryStore()
	cfg := &config.Config{Auth: config.Auth{Credentials: testSecret}}
	return New(store, cfg), store
}

func signToken(t *testing.T, sub string, admin bool) string {
	t.Helper()
	claims := apiClaims{
		Admin: admin,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   sub,
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
		},
	}
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(testSecret))
	if err != nil {
		t.Fatalf("sign token: %v", err)
	}
	return token
}

func doRequest(t *testing.T, s *Server, method, path, token string, body string) *httptest.ResponseRecorder {
	t.Helper()
	var reader *strings.Reader
	if body == "" {
		reader = strings.NewReader("")
	} else {
		reader = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, path, reader)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, req)
	return rec
}

func seedStory(t *testing.T, store *persistence.MemoryStore, id string, status core.Status, lastUpdated time.Time, articles ...core.Article) {
	t.Helper()
	ctx := context.Background()
	var ids []string
	for i := range articles {
		if _, err := store.UpsertArticle(ctx, &articles[i]); err != nil {
			t.Fatalf("seed article: %v", err)
		}
		ids = append(ids, articles[i].ID)
	}
	c := &core.Cluster{
		ID: id, Category: "world", Title: "Seed Story " + id,
		SourceArticles: ids, Status: status,
		VerificationLevel: core.VerificationLevel(len(ids)),
		FirstSeen:         lastUpdated.Add(-time.Hour),
		LastUpdated:       lastUpdated,
	}
	if err := store.CreateCluster(ctx, c); err != nil {
		t.Fatalf("seed cluster: %v", err)
	}
}

func TestHealth(t *testing.T) {
	s, _ := testServer(t)
	rec := doRequest(t, s, http.MethodGet, "/health", "", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("health status = %d, want 200", rec.Code)
	}
}

func TestBreakingEmptyIsOK(t *testing.T) {
	s, _ := testServer(t)
	rec := doRequest(t, s, http.MethodGet, "/api/stories/breaking", "", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	var body struct {
		Count   int             `json:"count"`
		Stories []storyResponse `json:"stories"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if body.Count != 0 || body.Stories == nil {
		t.Errorf("empty result should be a 200 with an empty list, got %s", rec.Body.String())
	}
}

func TestBreakingSortedNewestFirst(t *testing.T) {
	s, store := testServer(t)
	now := time.Now().UTC()
	seedStory(t, store, "older", core.StatusBreaking, now.Add(-time.Hour))
	seedStory(t, store, "newer", core.StatusBreaking, now)
	seedStory(t, store, "verified", core.StatusVerified, now)

	rec := doRequest(t, s, http.MethodGet, "/api/stories/breaking", "", "")
	var body struct {
		Stories []storyResponse `json:"stories"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(body.Stories) != 2 {
		t.Fatalf("breaking count = %d, want 2", len(body.Stories))
	}
	if body.Stories[0].ID != "newer" || body.Stories[1].ID != "older" {
		t.Errorf("order = [%s, %s], want [newer, older]", body.Stories[0].ID, body.Stories[1].ID)
	}
}

func TestStorySourceDedup(t *testing.T) {
	s, store := testServer(t)
	now := time.Now().UTC()
	seedStory(t, store, "dup", core.StatusVerified, now,
		core.Article{ID: "bbc_1", Source: "bbc", Title: "First report", URL: "https://bbc.example/1",
			PublishedAt: now.Add(-2 * time.Hour), FetchedAt: now},
		core.Article{ID: "bbc_2", Source: "bbc", Title: "Updated report", URL: "https://bbc.example/2",
			PublishedAt: now.Add(-time.Hour), FetchedAt: now},
		core.Article{ID: "ap_1", Source: "ap", Title: "Wire report", URL: "https://ap.example/1",
			PublishedAt: now.Add(-90 * time.Minute), FetchedAt: now},
	)

	rec := doRequest(t, s, http.MethodGet, "/api/stories/dup", "", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	var story storyResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &story); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if story.SourceCount != 2 {
		t.Errorf("source_count = %d, want 2 after dedup", story.SourceCount)
	}
	for _, src := range story.Sources {
		if src.Source == "bbc" && src.Title != "Updated report" {
			t.Errorf("bbc dedup kept %q, want the newest report", src.Title)
		}
	}
}

func TestStoryNotFound(t *testing.T) {
	s, _ := testServer(t)
	rec := doRequest(t, s, http.MethodGet, "/api/stories/nope", "", "")
	if rec.Code != http.StatusNotFound {
		t.Fatalf("status = %d, want 404", rec.Code)
	}
	var body map[string]string
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if body["error"] == "" || body["detail"] == "" {
		t.Errorf("error body missing fields: %v", body)
	}
}

func TestSearchRequiresQuery(t *testing.T) {
	s, _ := testServer(t)
	rec := doRequest(t, s, http.MethodGet, "/api/stories/search", "", "")
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", rec.Code)
	}
}

func TestSearchRanksByTermMatches(t *testing.T) {
	s, store := testServer(t)
	now := time.Now().UTC()
	ctx := context.Background()

	both := &core.Cluster{ID: "both", Category: "world",
		Title: "Turkey Earthquake Rescue Continues", Status: core.StatusVerified,
		LastUpdated: now.Add(-time.Hour)}
	one := &core.Cluster{ID: "one", Category: "world",
		Title: "Turkey Election Results Announced", Status: core.StatusVerified,
		LastUpdated: now}
	for _, c := range []*core.Cluster{both, one} {
		if err := store.CreateCluster(ctx, c); err != nil {
			t.Fatalf("create: %v", err)
		}
	}

	rec := doRequest(t, s, http.MethodGet, "/api/stories/search?q=turkey+earthquake", "", "")
	var body struct {
		Stories []storyResponse `json:"stories"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(body.Stories) == 0 || body.Stories[0].ID != "both" {
		t.Errorf("two-term match should outrank newer one-term match: %+v", body.Stories)
	}
}

func TestFeedRequiresAuth(t *testing.T) {
	s, _ := testServer(t)
	if rec := doRequest(t, s, http.MethodGet, "/api/stories/feed", "", ""); rec.Code != http.StatusUnauthorized {
		t.Fatalf("no token status = %d, want 401", rec.Code)
	}
	if rec := doRequest(t, s, http.MethodGet, "/api/stories/feed", "garbage", ""); rec.Code != http.StatusUnauthorized {
		t.Fatalf("bad token status = %d, want 401", rec.Code)
	}
}

func TestFeedHidesMonitoring(t *testing.T) {
	s, store := testServer(t)
	now := time.Now().UTC()
	seedStory(t, store, "watched", core.StatusMonitoring, now)
	seedStory(t, store, "visible", core.StatusDeveloping, now)

	rec := doRequest(t, s, http.MethodGet, "/api/stories/feed", signToken(t, "u1", false), "")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	var body struct {
		Stories []storyResponse `json:"stories"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(body.Stories) != 1 || body.Stories[0].ID != "visible" {
		t.Errorf("feed = %+v, want only the developing story", body.Stories)
	}
}

func TestInteract(t *testing.T) {
	s, store := testServer(t)
	now := time.Now().UTC()
	seedStory(t, store, "story", core.StatusVerified, now)
	token := signToken(t, "u1", false)

	rec := doRequest(t, s, http.MethodPost, "/api/stories/story/interact", token, `{"kind":"like"}`)
	if rec.Code != http.StatusCreated {
		t.Fatalf("status = %d, want 201: %s", rec.Code, rec.Body.String())
	}
	got := store.Interactions()
	if len(got) != 1 || got[0].UserID != "u1" || got[0].Kind != "like" {
		t.Errorf("interaction = %+v", got)
	}

	rec = doRequest(t, s, http.MethodPost, "/api/stories/story/interact", token, `{"kind":"retweet"}`)
	if rec.Code != http.StatusBadRequest {
		t.Errorf("unknown kind status = %d, want 400", rec.Code)
	}
	rec = doRequest(t, s, http.MethodPost, "/api/stories/ghost/interact", token, `{"kind":"like"}`)
	if rec.Code != http.StatusNotFound {
		t.Errorf("missing story status = %d, want 404", rec.Code)
	}
}

func TestPreferencesValidation(t *testing.T) {
	s, _ := testServer(t)
	token := signToken(t, "u1", false)

	rec := doRequest(t, s, http.MethodPut, "/api/users/preferences", token, `{"categories":["world","astrology"]}`)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("unknown category status = %d, want 400", rec.Code)
	}
	rec = doRequest(t, s, http.MethodPut, "/api/users/preferences", token, `{"categories":["world","tech"]}`)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200: %s", rec.Code, rec.Body.String())
	}

	rec = doRequest(t, s, http.MethodGet, "/api/users/profile", token, "")
	var profile core.UserProfile
	if err := json.Unmarshal(rec.Body.Bytes(), &profile); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(profile.Categories) != 2 {
		t.Errorf("stored categories = %v", profile.Categories)
	}
}

func TestDeviceTokenLifecycle(t *testing.T) {
	s, store := testServer(t)
	token := signToken(t, "u1", false)

	rec := doRequest(t, s, http.MethodPost, "/api/notifications/register", token, `{"device_token":"tok-1"}`)
	if rec.Code != http.StatusCreated {
		t.Fatalf("register status = %d, want 201", rec.Code)
	}
	// Re-registering the same token is idempotent.
	rec = doRequest(t, s, http.MethodPost, "/api/notifications/register", token, `{"device_token":"tok-1"}`)
	if rec.Code != http.StatusOK {
		t.Fatalf("re-register status = %d, want 200", rec.Code)
	}

	rec = doRequest(t, s, http.MethodDelete, "/api/notifications/device-token/tok-1", token, "")
	if rec.Code != http.StatusNoContent {
		t.Fatalf("unregister status = %d, want 204", rec.Code)
	}
	profile, err := store.GetUserProfile(context.Background(), "u1")
	if err != nil {
		t.Fatalf("profile: %v", err)
	}
	if len(profile.DeviceTokens) != 0 {
		t.Errorf("tokens after delete = %v, want none", profile.DeviceTokens)
	}
}

func TestAdminMetrics(t *testing.T) {
	s, _ := testServer(t)

	if rec := doRequest(t, s, http.MethodGet, "/api/admin/metrics", signToken(t, "u1", false), ""); rec.Code != http.StatusForbidden {
		t.Fatalf("non-admin status = %d, want 403", rec.Code)
	}
	rec := doRequest(t, s, http.MethodGet, "/api/admin/metrics", signToken(t, "ops", true), "")
	if rec.Code != http.StatusOK {
		t.Fatalf("admin status = %d, want 200", rec.Code)
	}
}
