package fingerprint

import (
	"strings"
	"unicode"
)

// promotionalKeywords mark explicitly commercial content anywhere in the
// title, description or URL.
var promotionalKeywords = []string{
	"sponsored", "advertorial", "promo code", "discount code", "voucher",
	"giveaway", "win tickets", "buy now", "% off", "flash sale",
	"black friday", "cyber monday", "subscribe now", "best deals",
	"free shipping", "limited offer", "sweepstakes", "competition entry",
}

// lifestyleURLSegments are the URL path segments that flag food/lifestyle
// vertical content.
var lifestyleURLSegments = []string{
	"/good-food", "/best-restaurant", "/food-drink", "/venue", "/eating-out",
	"/lifestyle", "/food", "/dining", "/restaurants",
}

// newsVerbs rescue short capitalised titles that still read like news.
var newsVerbs = []string{
	"says", "announces", "reports", "confirms", "claims", "accuses",
	"reveals", "attack", "fire", "death", "killed", "injured", "arrested",
	"charged", "verdict", "found",
}

// lifestyleKeywords flag the description of rule (c).
var lifestyleKeywords = []string{
	"recipe", "restaurant", "menu", "chef", "dining", "brunch", "wine list",
	"cocktail", "bakery", "cafe", "tasting", "foodie", "eatery",
	"staycation", "getaway", "hotel review", "wellness retreat",
	"fashion week", "beauty routine", "horoscope", "style guide",
}

// IsSpam applies the spam/lifestyle filter rules to an article's title,
// description and URL. It returns true with the rule name when any rule
// fires. Rejected articles are not stored. Rule (b) fires even with an
// empty description.
func IsSpam(title, description, url string) (bool, string) {
	combined := strings.ToLower(title + " " + description + " " + url)

	// Rule (a): explicit promotional keywords anywhere.
	for _, kw := range promotionalKeywords {
		if strings.Contains(combined, kw) {
			return true, "promotional"
		}
	}

	shortCapped := isShortCapitalisedTitle(title)

	// Rule (b): lifestyle URL segment plus a short capitalised headline with
	// no news verb.
	if shortCapped && !containsNewsVerb(title) {
		lowerURL := strings.ToLower(url)
		for _, seg := range lifestyleURLSegments {
			if strings.Contains(lowerURL, seg) {
				return true, "lifestyle-url"
			}
		}
	}

	// Rule (c): short capitalised headline plus a lifestyle description.
	if shortCapped && description != "" {
		lowerDesc := strings.ToLower(description)
		for _, kw := range lifestyleKeywords {
			if strings.Contains(lowerDesc, kw) {
				return true, "lifestyle-description"
			}
		}
	}

	return false, ""
}

// isShortCapitalisedTitle reports whether the title is 1-4 words with at
// least 70% of them starting with an uppercase letter. "Paper Daisy" is the
// canonical venue-name shape this catches.
func isShortCapitalisedTitle(title string) bool {
	words := strings.Fields(strings.TrimSpace(title))
	if len(words) < 1 || len(words) > 4 {
		return false
	}
	capped := 0
	for _, w := range words {
		runes := []rune(w)
		if unicode.IsUpper(runes[0]) {
			capped++
		}
	}
	return float64(capped)/float64(len(words)) >= 0.7
}

func containsNewsVerb(title string) bool {
	lower := strings.ToLower(title)
	for _, verb := range newsVerbs {
		if strings.Contains(lower, verb) {
			return true
		}
	}
	return false
}
