package fingerprint

import (
	"crypto/md5"
	"encoding/hex"
	"sort"
	"strings"
)

// Compute derives the lossy clustering fingerprint of a title: the top three
// significant words (length > 3) sorted lexicographically, concatenated with
// the top entity, lowercased and hashed to 6 hex characters. Titles sharing
// the same core concept collide on purpose.
func Compute(title string) string {
	words := significantWords(title, 3)

	counts := make(map[string]int, len(words))
	for _, w := range words {
		counts[w]++
	}
	unique := make([]string, 0, len(counts))
	for w := range counts {
		unique = append(unique, w)
	}
	sort.Slice(unique, func(i, j int) bool {
		if counts[unique[i]] != counts[unique[j]] {
			return counts[unique[i]] > counts[unique[j]]
		}
		return unique[i] < unique[j]
	})
	if len(unique) > 3 {
		unique = unique[:3]
	}
	sort.Strings(unique)

	parts := append([]string{}, unique...)
	if top := TopEntity(title); top != "" {
		parts = append(parts, strings.ToLower(top))
	}

	sum := md5.Sum([]byte(strings.Join(parts, "|")))
	return hex.EncodeToString(sum[:])[:6]
}
