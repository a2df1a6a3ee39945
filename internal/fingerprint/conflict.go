package fingerprint

import "strings"

// subjectClasses group recognisable primary subjects. Two titles whose
// subjects from the same class are disjoint describe different events even
// when the rest of the wording overlaps heavily ("Trump Announces Tariffs"
// vs "Putin Announces Tariffs").
var subjectClasses = map[string][]string{
	"leaders": {
		"trump", "biden", "harris", "putin", "zelensky", "zelenskyy", "xi",
		"modi", "macron", "scholz", "merz", "starmer", "sunak", "meloni",
		"netanyahu", "erdogan", "trudeau", "carney", "albanese", "lula",
		"milei", "kishida", "ishiba", "yoon",
	},
	"disasters": {
		"earthquake", "flood", "flooding", "wildfire", "bushfire",
		"hurricane", "typhoon", "cyclone", "tornado", "tsunami",
		"landslide", "volcano", "eruption", "drought", "blizzard",
		"avalanche", "heatwave",
	},
	"sports": {
		"olympics", "paralympics", "nfl", "nba", "mlb", "nhl", "fifa",
		"uefa", "wimbledon", "cricket", "rugby", "marathon", "grand",
		"formula", "tour", "open", "derby", "ashes",
	},
}

// TopicConflict reports whether two titles name different primary subjects
// of the same class. It protects the fuzzy matcher against coincidental
// lexical similarity across unrelated events.
func TopicConflict(titleA, titleB string) bool {
	tokensA := toSet(lowerTokens(titleA))
	tokensB := toSet(lowerTokens(titleB))

	for _, members := range subjectClasses {
		var inA, inB []string
		for _, m := range members {
			if _, ok := tokensA[m]; ok {
				inA = append(inA, m)
			}
			if _, ok := tokensB[m]; ok {
				inB = append(inB, m)
			}
		}
		if len(inA) == 0 || len(inB) == 0 {
			continue
		}
		if !intersects(inA, inB) {
			return true
		}
	}
	return false
}

func intersects(a, b []string) bool {
	for _, x := range a {
		for _, y := range b {
			if strings.EqualFold(x, y) {
				return true
			}
		}
	}
	return false
}
