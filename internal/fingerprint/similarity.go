package fingerprint

import (
	"strings"
	"unicode"
)

// Similarity weights. Keyword overlap dominates; entity agreement carries
// most of the rest, with substring and token-set signals as tiebreakers.
const (
	weightKeywords  = 0.50
	weightEntities  = 0.30
	weightSubstring = 0.15
	weightJaccard   = 0.05

	entityBonusThreshold  = 3
	entityBonusMultiplier = 1.2
)

// TitleSimilarity scores how likely two titles describe the same event.
// The result is in [0,1].
func TitleSimilarity(a, b string) float64 {
	if a == "" || b == "" {
		return 0
	}

	keywordScore := overlapFraction(significantWords(a, 3), significantWords(b, 3))

	sharedEntities := sharedEntityCount(a, b)
	entityScore := entityOverlap(a, b)

	substringScore := longestSubstringFraction(strings.ToLower(a), strings.ToLower(b))

	jaccardScore := jaccard(lowerTokens(a), lowerTokens(b))

	score := weightKeywords*keywordScore +
		weightEntities*entityScore +
		weightSubstring*substringScore +
		weightJaccard*jaccardScore

	if sharedEntities >= entityBonusThreshold {
		score *= entityBonusMultiplier
	}
	if score > 1.0 {
		score = 1.0
	}
	return score
}

// SharedUppercaseWords returns the number of words longer than 4 characters
// that start uppercase and appear in both titles. Used as the last-resort
// clustering fallback.
func SharedUppercaseWords(a, b string) int {
	setA := uppercaseWordSet(a)
	setB := uppercaseWordSet(b)
	shared := 0
	for w := range setA {
		if _, ok := setB[w]; ok {
			shared++
		}
	}
	return shared
}

func uppercaseWordSet(title string) map[string]struct{} {
	set := make(map[string]struct{})
	for _, tok := range tokenize(title) {
		runes := []rune(tok)
		if len(runes) > 4 && unicode.IsUpper(runes[0]) && !isStopWord(tok) {
			set[strings.ToLower(tok)] = struct{}{}
		}
	}
	return set
}

func lowerTokens(title string) []string {
	tokens := tokenize(title)
	out := make([]string, len(tokens))
	for i, t := range tokens {
		out[i] = strings.ToLower(t)
	}
	return out
}

func toSet(tokens []string) map[string]struct{} {
	set := make(map[string]struct{}, len(tokens))
	for _, t := range tokens {
		set[t] = struct{}{}
	}
	return set
}

// overlapFraction is |A ∩ B| / min(|A|, |B|).
func overlapFraction(a, b []string) float64 {
	setA, setB := toSet(a), toSet(b)
	if len(setA) == 0 || len(setB) == 0 {
		return 0
	}
	shared := 0
	for w := range setA {
		if _, ok := setB[w]; ok {
			shared++
		}
	}
	min := len(setA)
	if len(setB) < min {
		min = len(setB)
	}
	return float64(shared) / float64(min)
}

func entityOverlap(a, b string) float64 {
	entsA := ExtractEntities(a, 8)
	entsB := ExtractEntities(b, 8)
	if len(entsA) == 0 || len(entsB) == 0 {
		return 0
	}
	lowered := make(map[string]struct{}, len(entsB))
	for e := range entsB {
		lowered[strings.ToLower(e)] = struct{}{}
	}
	shared := 0
	for e := range entsA {
		if _, ok := lowered[strings.ToLower(e)]; ok {
			shared++
		}
	}
	min := len(entsA)
	if len(entsB) < min {
		min = len(entsB)
	}
	return float64(shared) / float64(min)
}

func sharedEntityCount(a, b string) int {
	entsA := ExtractEntities(a, 8)
	entsB := ExtractEntities(b, 8)
	lowered := make(map[string]struct{}, len(entsB))
	for e := range entsB {
		lowered[strings.ToLower(e)] = struct{}{}
	}
	shared := 0
	for e := range entsA {
		if _, ok := lowered[strings.ToLower(e)]; ok {
			shared++
		}
	}
	return shared
}

func jaccard(a, b []string) float64 {
	setA, setB := toSet(a), toSet(b)
	if len(setA) == 0 && len(setB) == 0 {
		return 0
	}
	shared := 0
	for w := range setA {
		if _, ok := setB[w]; ok {
			shared++
		}
	}
	union := len(setA) + len(setB) - shared
	if union == 0 {
		return 0
	}
	return float64(shared) / float64(union)
}

// longestSubstringFraction is the length of the longest common substring
// divided by the length of the shorter input.
func longestSubstringFraction(a, b string) float64 {
	if len(a) == 0 || len(b) == 0 {
		return 0
	}
	longest := longestCommonSubstring(a, b)
	min := len(a)
	if len(b) < min {
		min = len(b)
	}
	return float64(longest) / float64(min)
}

func longestCommonSubstring(a, b string) int {
	// Rolling single-row DP; titles are short so this stays cheap.
	prev := make([]int, len(b)+1)
	longest := 0
	for i := 1; i <= len(a); i++ {
		curr := make([]int, len(b)+1)
		for j := 1; j <= len(b); j++ {
			if a[i-1] == b[j-1] {
				curr[j] = prev[j-1] + 1
				if curr[j] > longest {
					longest = curr[j]
				}
			}
		}
		prev = curr
	}
	return longest
}
