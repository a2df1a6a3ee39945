package summarize

import (
	"encoding/json"
	"fmt"
	"sort"
	"strings"

	"newswire/internal/core"
	"newswire/internal/sources"
)

const (
	minSummaryWords = 80
	maxSummaryWords = 180
	maxHeadlineLen  = 120

	// KeepCurrent is the sentinel the model returns when none of the
	// candidate headlines beats the cluster's current title.
	KeepCurrent = "KEEP_CURRENT"
)

const systemPrompt = `You are a wire-service editor. You receive several reports of the same news event from different outlets and produce one neutral synthesis.

Respond with a JSON object with exactly two keys:
  "summary": a single paragraph of 100 to 150 words synthesising the reports. State only facts the reports agree on; attribute contested claims to their outlet. No opinion, no speculation.
  "headline": the best headline for the story, either picked from the supplied titles or the literal string KEEP_CURRENT if the current headline is already the strongest.

Headlines must be factual, under 120 characters, and never sensationalised.`

const headlineSystemPrompt = `You are a wire-service editor choosing the headline for a developing story.

You are given the story's current headline and the title of a newly arrived report. Reply with exactly one line: the literal string KEEP_CURRENT if the current headline is still the strongest, otherwise the replacement headline on its own. No quotes, no commentary.

Headlines must be factual, under 120 characters, and never sensationalised.`

// BuildHeadlinePrompt renders the short re-evaluation exchange issued on
// every source addition.
func BuildHeadlinePrompt(currentTitle, newTitle string) (system, user string) {
	var b strings.Builder
	fmt.Fprintf(&b, "Current headline: %s\n", currentTitle)
	fmt.Fprintf(&b, "New report title: %s\n", newTitle)
	return headlineSystemPrompt, b.String()
}

// ParseHeadlineResponse validates a headline re-evaluation reply. keep is
// true when the model chose the KEEP_CURRENT sentinel.
func ParseHeadlineResponse(raw string) (headline string, keep bool, err error) {
	cleaned := strings.TrimSpace(raw)
	cleaned = strings.Trim(cleaned, "`\"")
	cleaned = strings.TrimSpace(cleaned)

	if cleaned == KeepCurrent {
		return "", true, nil
	}
	if cleaned == "" {
		return "", false, fmt.Errorf("empty headline response")
	}
	if strings.ContainsRune(cleaned, '\n') {
		return "", false, fmt.Errorf("headline response spans multiple lines")
	}
	if len(cleaned) > maxHeadlineLen {
		return "", false, fmt.Errorf("headline is %d characters, max %d", len(cleaned), maxHeadlineLen)
	}
	return cleaned, false, nil
}

// promptArticle is the per-article view embedded in the user prompt.
type promptArticle struct {
	Source      string `json:"source"`
	Title       string `json:"title"`
	Description string `json:"description,omitempty"`
	PublishedAt string `json:"published_at"`
}

// BuildPrompt renders the system and user messages for one cluster. The
// caller passes the representative article selection.
func BuildPrompt(c *core.Cluster, articles []core.Article) (system, user string) {
	reports := make([]promptArticle, 0, len(articles))
	for _, a := range articles {
		reports = append(reports, promptArticle{
			Source:      sources.DisplayName(a.Source),
			Title:       a.Title,
			Description: a.Description,
			PublishedAt: a.PublishedAt.Format("2006-01-02T15:04:05Z"),
		})
	}
	payload, _ := json.MarshalIndent(reports, "", "  ")

	var b strings.Builder
	fmt.Fprintf(&b, "Current headline: %s\n", c.Title)
	fmt.Fprintf(&b, "Sources reporting: %d\n\n", len(articles))
	b.WriteString("Reports:\n")
	b.Write(payload)
	return systemPrompt, b.String()
}

// modelResponse is the JSON shape the model is instructed to return.
type modelResponse struct {
	Summary  string `json:"summary"`
	Headline string `json:"headline"`
}

// ParseResponse validates a model reply. Any violation is a generation
// failure; the caller must not store anything from a failed parse.
func ParseResponse(raw string) (summary, headline string, wordCount int, err error) {
	cleaned := strings.TrimSpace(raw)
	cleaned = strings.TrimPrefix(cleaned, "```json")
	cleaned = strings.TrimPrefix(cleaned, "```")
	cleaned = strings.TrimSuffix(cleaned, "```")
	cleaned = strings.TrimSpace(cleaned)

	var resp modelResponse
	if err := json.Unmarshal([]byte(cleaned), &resp); err != nil {
		return "", "", 0, fmt.Errorf("response is not valid JSON: %w", err)
	}

	resp.Summary = strings.TrimSpace(resp.Summary)
	resp.Headline = strings.TrimSpace(resp.Headline)

	words := len(strings.Fields(resp.Summary))
	if words < minSummaryWords || words > maxSummaryWords {
		return "", "", 0, fmt.Errorf("summary is %d words, want %d-%d", words, minSummaryWords, maxSummaryWords)
	}
	if resp.Headline == "" {
		return "", "", 0, fmt.Errorf("response missing headline")
	}
	if resp.Headline != KeepCurrent && len(resp.Headline) > maxHeadlineLen {
		return "", "", 0, fmt.Errorf("headline is %d characters, max %d", len(resp.Headline), maxHeadlineLen)
	}
	return resp.Summary, resp.Headline, words, nil
}

// RepresentativeArticles picks at most max members for the prompt: the
// earliest report, the latest, then one per remaining source in recency
// order. The selection is returned oldest first.
func RepresentativeArticles(articles []core.Article, max int) []core.Article {
	if len(articles) <= max {
		sortByPublished(articles)
		return articles
	}

	sortByPublished(articles)
	earliest, latest := articles[0], articles[len(articles)-1]

	picked := []core.Article{earliest}
	seen := map[string]bool{earliest.Source: true}
	if latest.ID != earliest.ID {
		picked = append(picked, latest)
		seen[latest.Source] = true
	}

	// Fill from the newest backwards, one per unseen source first.
	for i := len(articles) - 2; i > 0 && len(picked) < max; i-- {
		a := articles[i]
		if seen[a.Source] {
			continue
		}
		seen[a.Source] = true
		picked = append(picked, a)
	}
	for i := len(articles) - 2; i > 0 && len(picked) < max; i-- {
		a := articles[i]
		if containsID(picked, a.ID) {
			continue
		}
		picked = append(picked, a)
	}
	sortByPublished(picked)
	return picked
}

func containsID(articles []core.Article, id string) bool {
	for _, a := range articles {
		if a.ID == id {
			return true
		}
	}
	return false
}

func sortByPublished(articles []core.Article) {
	sort.Slice(articles, func(i, j int) bool {
		return articles[i].PublishedAt.Before(articles[j].PublishedAt)
	})
}
