package server

import (
	"net/http"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"

	"newswire/internal/core"
	"newswire/internal/persistence"
	"newswire/internal/sources"
)

const (
	defaultListLimit = 50
	maxListLimit     = 200
	feedWindow       = 7 * 24 * time.Hour
)

// storySource is one outlet's report within a story. Membership keeps
// every fetched article; duplicates per source are collapsed here, at
// serialisation, keeping the newest report from each outlet.
type storySource struct {
	Source      string    `json:"source"`
	Name        string    `json:"name"`
	Tier        int       `json:"tier"`
	Title       string    `json:"title"`
	URL         string    `json:"url"`
	PublishedAt time.Time `json:"published_at"`
}

type storySummary struct {
	Text           string    `json:"text"`
	Version        int       `json:"version"`
	GeneratedAt    time.Time `json:"generated_at"`
	WordCount      int       `json:"word_count"`
	BatchProcessed bool      `json:"batch_processed"`
}

type storyResponse struct {
	ID                string        `json:"id"`
	Category          string        `json:"category"`
	Title             string        `json:"title"`
	Summary           *storySummary `json:"summary,omitempty"`
	Status            string        `json:"status"`
	VerificationLevel int           `json:"verification_level"`
	SourceCount       int           `json:"source_count"`
	Sources           []storySource `json:"sources,omitempty"`
	FirstSeen         time.Time     `json:"first_seen"`
	LastUpdated       time.Time     `json:"last_updated"`
	UpdateCount       int           `json:"update_count"`
}

func (s *Server) toStory(r *http.Request, c *core.Cluster, includeSources bool) storyResponse {
	resp := storyResponse{
		ID:                c.ID,
		Category:          c.Category,
		Title:             c.Title,
		Status:            string(c.Status),
		VerificationLevel: c.VerificationLevel,
		FirstSeen:         c.FirstSeen,
		LastUpdated:       c.LastUpdated,
		UpdateCount:       c.UpdateCount,
	}
	if c.Summary != nil {
		resp.Summary = &storySummary{
			Text:           c.Summary.Text,
			Version:        c.Summary.Version,
			GeneratedAt:    c.Summary.GeneratedAt,
			WordCount:      c.Summary.WordCount,
			BatchProcessed: c.Summary.BatchProcessed,
		}
	}

	deduped := s.dedupedSources(r, c)
	resp.SourceCount = len(deduped)
	if includeSources {
		resp.Sources = deduped
	}
	return resp
}

// dedupedSources resolves the cluster's member articles and keeps the most
// recently published report per outlet, newest outlet first.
func (s *Server) dedupedSources(r *http.Request, c *core.Cluster) []storySource {
	articles, err := s.store.GetArticles(r.Context(), c.SourceArticles)
	if err != nil {
		return nil
	}

	latest := map[string]core.Article{}
	for _, a := range articles {
		if prev, ok := latest[a.Source]; !ok || a.PublishedAt.After(prev.PublishedAt) {
			latest[a.Source] = a
		}
	}

	out := make([]storySource, 0, len(latest))
	for _, a := range latest {
		out = append(out, storySource{
			Source:      a.Source,
			Name:        sources.DisplayName(a.Source),
			Tier:        a.SourceTier,
			Title:       a.Title,
			URL:         a.URL,
			PublishedAt: a.PublishedAt,
		})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].PublishedAt.After(out[j].PublishedAt) })
	return out
}

func listLimit(r *http.Request) int {
	limit := defaultListLimit
	if raw := r.URL.Query().Get("limit"); raw != "" {
		if n, err := strconv.Atoi(raw); err == nil && n > 0 {
			limit = n
		}
	}
	if limit > maxListLimit {
		limit = maxListLimit
	}
	return limit
}

func (s *Server) handleBreaking(w http.ResponseWriter, r *http.Request) {
	clusters, err := s.store.QueryByStatus(r.Context(), core.StatusBreaking, listLimit(r))
	if err != nil {
		writeError(w, http.StatusInternalServerError, "query failed", err.Error())
		return
	}
	sortNewestFirst(clusters)
	s.writeStoryList(w, r, clusters)
}

// handleFeed returns the reader's feed: everything past MONITORING in the
// recent window, newest first, filtered to the user's categories when a
// profile exists.
func (s *Server) handleFeed(w http.ResponseWriter, r *http.Request) {
	limit := listLimit(r)
	since := time.Now().UTC().Add(-feedWindow)

	clusters, err := s.store.QueryRecentClusters(r.Context(), r.URL.Query().Get("category"), since, maxListLimit*4)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "query failed", err.Error())
		return
	}

	wanted := map[string]bool{}
	if profile, err := s.store.GetUserProfile(r.Context(), userID(r)); err == nil {
		for _, cat := range profile.Categories {
			wanted[cat] = true
		}
	}

	var visible []core.Cluster
	for _, c := range clusters {
		if c.Status == core.StatusMonitoring || c.Status == core.StatusArchived {
			continue
		}
		if len(wanted) > 0 && !wanted[c.Category] {
			continue
		}
		visible = append(visible, c)
	}
	sortNewestFirst(visible)
	if len(visible) > limit {
		visible = visible[:limit]
	}
	s.writeStoryList(w, r, visible)
}

func (s *Server) handleSearch(w http.ResponseWriter, r *http.Request) {
	q := strings.TrimSpace(r.URL.Query().Get("q"))
	if q == "" {
		writeError(w, http.StatusBadRequest, "invalid request", "query parameter q is required")
		return
	}

	clusters, err := s.store.SearchClusters(r.Context(), q, maxListLimit*4)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "query failed", err.Error())
		return
	}

	// Rank by the number of query terms the story matches; ties go to the
	// most recently updated.
	terms := strings.Fields(strings.ToLower(q))
	rank := func(c *core.Cluster) int {
		hay := strings.ToLower(c.Title)
		if c.Summary != nil {
			hay += " " + strings.ToLower(c.Summary.Text)
		}
		n := 0
		for _, term := range terms {
			if strings.Contains(hay, term) {
				n++
			}
		}
		return n
	}
	sort.SliceStable(clusters, func(i, j int) bool {
		ri, rj := rank(&clusters[i]), rank(&clusters[j])
		if ri != rj {
			return ri > rj
		}
		return clusters[i].LastUpdated.After(clusters[j].LastUpdated)
	})

	limit := listLimit(r)
	if len(clusters) > limit {
		clusters = clusters[:limit]
	}
	s.writeStoryList(w, r, clusters)
}

func (s *Server) handleStory(w http.ResponseWriter, r *http.Request) {
	c, err := s.store.ReadCluster(r.Context(), chi.URLParam(r, "id"), "")
	if err == persistence.ErrNotFound {
		writeError(w, http.StatusNotFound, "not found", "no such story")
		return
	}
	if err != nil {
		writeError(w, http.StatusInternalServerError, "query failed", err.Error())
		return
	}
	writeJSON(w, http.StatusOK, s.toStory(r, c, true))
}

func (s *Server) handleStorySources(w http.ResponseWriter, r *http.Request) {
	c, err := s.store.ReadCluster(r.Context(), chi.URLParam(r, "id"), "")
	if err == persistence.ErrNotFound {
		writeError(w, http.StatusNotFound, "not found", "no such story")
		return
	}
	if err != nil {
		writeError(w, http.StatusInternalServerError, "query failed", err.Error())
		return
	}
	srcs := s.dedupedSources(r, c)
	if srcs == nil {
		srcs = []storySource{}
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"story_id":     c.ID,
		"source_count": len(srcs),
		"sources":      srcs,
	})
}

func (s *Server) writeStoryList(w http.ResponseWriter, r *http.Request, clusters []core.Cluster) {
	stories := make([]storyResponse, 0, len(clusters))
	for i := range clusters {
		stories = append(stories, s.toStory(r, &clusters[i], false))
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"count":   len(stories),
		"stories": stories,
	})
}

func sortNewestFirst(clusters []core.Cluster) {
	sort.Slice(clusters, func(i, j int) bool {
		return clusters[i].LastUpdated.After(clusters[j].LastUpdated)
	})
}
