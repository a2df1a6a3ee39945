// Package fingerprint implements the title analysis used to group related
// articles: proper-noun extraction, lossy topic fingerprints, weighted title
// similarity, topic-conflict detection and the spam/lifestyle filter.
package fingerprint

import (
	"sort"
	"strings"
	"unicode"
)

// stopWords are excluded from entity extraction and significant-word
// selection even when capitalised (sentence starts, headline casing).
var stopWords = map[string]struct{}{
	"the": {}, "a": {}, "an": {}, "and": {}, "or": {}, "but": {}, "if": {},
	"of": {}, "in": {}, "on": {}, "at": {}, "to": {}, "for": {}, "with": {},
	"from": {}, "by": {}, "as": {}, "is": {}, "are": {}, "was": {}, "were": {},
	"be": {}, "been": {}, "has": {}, "have": {}, "had": {}, "will": {},
	"would": {}, "could": {}, "should": {}, "this": {}, "that": {},
	"these": {}, "those": {}, "it": {}, "its": {}, "his": {}, "her": {},
	"their": {}, "our": {}, "your": {}, "after": {}, "before": {},
	"over": {}, "under": {}, "into": {}, "amid": {}, "among": {},
	"about": {}, "against": {}, "between": {}, "during": {}, "without": {},
	"within": {}, "how": {}, "what": {}, "when": {}, "where": {}, "why": {},
	"who": {}, "which": {}, "while": {}, "more": {}, "most": {}, "new": {},
	"says": {}, "say": {}, "said": {}, "not": {}, "no": {}, "than": {},
	"then": {}, "also": {}, "just": {}, "still": {}, "some": {}, "all": {},
	"may": {}, "can": {}, "up": {}, "down": {}, "out": {},
}

// tokenize splits a title into word tokens, stripping surrounding
// punctuation but preserving case.
func tokenize(title string) []string {
	fields := strings.FieldsFunc(title, func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r) && r != '\''
	})
	tokens := make([]string, 0, len(fields))
	for _, f := range fields {
		f = strings.Trim(f, "'")
		if f != "" {
			tokens = append(tokens, f)
		}
	}
	return tokens
}

func isStopWord(token string) bool {
	_, ok := stopWords[strings.ToLower(token)]
	return ok
}

func hasDigit(token string) bool {
	for _, r := range token {
		if unicode.IsDigit(r) {
			return true
		}
	}
	return false
}

// ExtractEntities tokenises the title and returns the top-k tokens that
// begin with an uppercase letter and are at least 4 characters long, with
// occurrence counts. Stop-words and tokens containing digits are excluded.
// Deterministic for a given input: ties break lexicographically.
func ExtractEntities(title string, k int) map[string]int {
	counts := make(map[string]int)
	for _, tok := range tokenize(title) {
		runes := []rune(tok)
		if len(runes) < 4 || !unicode.IsUpper(runes[0]) {
			continue
		}
		if isStopWord(tok) || hasDigit(tok) {
			continue
		}
		counts[tok]++
	}
	if len(counts) <= k {
		return counts
	}

	type entity struct {
		token string
		count int
	}
	ranked := make([]entity, 0, len(counts))
	for t, c := range counts {
		ranked = append(ranked, entity{t, c})
	}
	sort.Slice(ranked, func(i, j int) bool {
		if ranked[i].count != ranked[j].count {
			return ranked[i].count > ranked[j].count
		}
		return ranked[i].token < ranked[j].token
	})

	top := make(map[string]int, k)
	for _, e := range ranked[:k] {
		top[e.token] = e.count
	}
	return top
}

// TopEntity returns the highest-count entity of a title, or "" when the
// title has none.
func TopEntity(title string) string {
	entities := ExtractEntities(title, 10)
	best := ""
	bestCount := 0
	for t, c := range entities {
		if c > bestCount || (c == bestCount && (best == "" || t < best)) {
			best, bestCount = t, c
		}
	}
	return best
}

// significantWords returns the lowercased non-stop-word tokens of a title
// longer than the given length.
func significantWords(title string, minLen int) []string {
	var words []string
	for _, tok := range tokenize(title) {
		if len([]rune(tok)) <= minLen || isStopWord(tok) || hasDigit(tok) {
			continue
		}
		words = append(words, strings.ToLower(tok))
	}
	return words
}
