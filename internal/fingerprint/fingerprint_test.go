package fingerprint

import (
	"testing"
)

func TestExtractEntities(t *testing.T) {
	entities := ExtractEntities("Magnitude 7 Earthquake Strikes Eastern Turkey", 5)

	for _, want := range []string{"Magnitude", "Earthquake", "Strikes", "Eastern", "Turkey"} {
		if _, ok := entities[want]; !ok {
			t.Errorf("Expected entity %q to be extracted, got %v", want, entities)
		}
	}

	if _, ok := entities["7"]; ok {
		t.Error("Digit tokens must be excluded from entities")
	}
}

func TestExtractEntitiesExcludesStopWordsAndShortTokens(t *testing.T) {
	entities := ExtractEntities("The Cat Sat On An Old Mat After Rain", 10)

	if _, ok := entities["The"]; ok {
		t.Error("Stop-word 'The' must be excluded")
	}
	if _, ok := entities["After"]; ok {
		t.Error("Stop-word 'After' must be excluded")
	}
	if _, ok := entities["Cat"]; ok {
		t.Error("Tokens shorter than 4 characters must be excluded")
	}
	if _, ok := entities["Rain"]; !ok {
		t.Errorf("Expected 'Rain' to be extracted, got %v", entities)
	}
}

func TestExtractEntitiesDeterministic(t *testing.T) {
	title := "Sydney Harbour Convoy Protest Blocks Sydney Ferries"
	first := ExtractEntities(title, 3)

	for i := 0; i < 20; i++ {
		again := ExtractEntities(title, 3)
		if len(again) != len(first) {
			t.Fatalf("Entity extraction not deterministic: %v vs %v", first, again)
		}
		for k, v := range first {
			if again[k] != v {
				t.Fatalf("Entity extraction not deterministic: %v vs %v", first, again)
			}
		}
	}
}

func TestComputeFingerprint(t *testing.T) {
	fp := Compute("Magnitude 7 Earthquake Strikes Eastern Turkey")

	if len(fp) != 6 {
		t.Errorf("Expected 6-character fingerprint, got %q (%d chars)", fp, len(fp))
	}
	for _, r := range fp {
		if !((r >= '0' && r <= '9') || (r >= 'a' && r <= 'f')) {
			t.Errorf("Fingerprint %q contains non-hex character %q", fp, r)
		}
	}

	if again := Compute("Magnitude 7 Earthquake Strikes Eastern Turkey"); again != fp {
		t.Errorf("Fingerprint not stable: %q vs %q", fp, again)
	}

	if other := Compute("Sydney Boat Convoy Rally Grows"); other == fp {
		t.Errorf("Unrelated titles should not share a fingerprint: %q", fp)
	}
}

func TestTitleSimilarityEarthquake(t *testing.T) {
	score := TitleSimilarity(
		"Magnitude 7 Earthquake Strikes Eastern Turkey",
		"Major Earthquake Hits Turkey, Casualties Feared",
	)
	if score <= 0.30 {
		t.Errorf("Same-event titles should clear the fuzzy threshold, got %.3f", score)
	}
	if score > 1.0 {
		t.Errorf("Similarity must stay within [0,1], got %.3f", score)
	}
}

func TestTitleSimilarityUnrelated(t *testing.T) {
	score := TitleSimilarity(
		"Magnitude 7 Earthquake Strikes Eastern Turkey",
		"Parliament Passes Annual Budget Review",
	)
	if score > 0.30 {
		t.Errorf("Unrelated titles should score below the threshold, got %.3f", score)
	}
}

func TestTitleSimilarityIdentical(t *testing.T) {
	score := TitleSimilarity(
		"Turkey Earthquake: Rescue Operations Begin",
		"Turkey Earthquake: Rescue Operations Begin",
	)
	if score < 0.95 {
		t.Errorf("Identical titles should score near 1.0, got %.3f", score)
	}
}

func TestTitleSimilarityEmpty(t *testing.T) {
	if score := TitleSimilarity("", "Some Headline"); score != 0 {
		t.Errorf("Empty title should score 0, got %.3f", score)
	}
}

func TestSharedUppercaseWords(t *testing.T) {
	tests := []struct {
		name string
		a    string
		b    string
		want int
	}{
		{
			name: "two shared entities",
			a:    "Sydney Harbour Convoy Takes Over",
			b:    "Protesters Rally as Convoy Blocks Sydney Harbour",
			want: 3, // sydney, harbour, convoy
		},
		{
			name: "no shared entities",
			a:    "Reserve Bank Holds Rates",
			b:    "Wildfire Threatens Athens Suburbs",
			want: 0,
		},
		{
			name: "short words ignored",
			a:    "UN Vote Delayed",
			b:    "UN Vote Scheduled",
			want: 0, // all shared words are 4 chars or fewer
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := SharedUppercaseWords(tt.a, tt.b); got != tt.want {
				t.Errorf("SharedUppercaseWords(%q, %q) = %d, want %d", tt.a, tt.b, got, tt.want)
			}
		})
	}
}

func TestTopicConflict(t *testing.T) {
	tests := []struct {
		name string
		a    string
		b    string
		want bool
	}{
		{
			name: "different leaders conflict",
			a:    "Trump Announces New Tariff Package",
			b:    "Putin Announces New Tariff Package",
			want: true,
		},
		{
			name: "same leader no conflict",
			a:    "Trump Announces New Tariff Package",
			b:    "Trump Tariff Package Draws Criticism",
			want: false,
		},
		{
			name: "different disasters conflict",
			a:    "Earthquake Devastates Coastal Towns",
			b:    "Wildfire Devastates Coastal Towns",
			want: true,
		},
		{
			name: "no recognised subjects",
			a:    "Local Council Approves Budget",
			b:    "Library Opening Delayed Again",
			want: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := TopicConflict(tt.a, tt.b); got != tt.want {
				t.Errorf("TopicConflict(%q, %q) = %v, want %v", tt.a, tt.b, got, tt.want)
			}
		})
	}
}

func TestIsSpamPromotionalKeyword(t *testing.T) {
	spam, rule := IsSpam("Huge Black Friday Savings Inside", "Shop the sale", "https://example.com/deals")
	if !spam || rule != "promotional" {
		t.Errorf("Expected promotional rule to fire, got spam=%v rule=%q", spam, rule)
	}
}

func TestIsSpamLifestyleURL(t *testing.T) {
	// Rule (b) must fire even with an empty description.
	spam, rule := IsSpam("Paper Daisy", "", "https://example.com/good-food/paper-daisy")
	if !spam || rule != "lifestyle-url" {
		t.Errorf("Expected lifestyle-url rule to fire, got spam=%v rule=%q", spam, rule)
	}
}

func TestIsSpamLifestyleURLNewsVerbRescue(t *testing.T) {
	// A news verb in a short capitalised title rescues it from rule (b).
	spam, _ := IsSpam("Chef Arrested", "", "https://example.com/food/chef-arrested")
	if spam {
		t.Error("Titles containing a news verb must not be filtered by rule (b)")
	}
}

func TestIsSpamLifestyleDescription(t *testing.T) {
	spam, rule := IsSpam("Quay Sydney", "A new tasting menu from the harbourside restaurant", "https://example.com/x")
	if !spam || rule != "lifestyle-description" {
		t.Errorf("Expected lifestyle-description rule to fire, got spam=%v rule=%q", spam, rule)
	}
}

func TestIsSpamPlainNews(t *testing.T) {
	spam, rule := IsSpam(
		"Magnitude 7 Earthquake Strikes Eastern Turkey",
		"A strong earthquake hit eastern Turkey on Monday",
		"https://example.com/world/turkey-earthquake",
	)
	if spam {
		t.Errorf("Plain news must not be filtered, rule=%q", rule)
	}
}

func TestIsSpamLongCapitalisedTitle(t *testing.T) {
	// Five words: too long for the short-capitalised-title shape.
	spam, _ := IsSpam("Five Great Harbour View Restaurants Reviewed", "", "https://example.com/dining/review")
	if spam {
		t.Error("Rule (b) requires a 1-4 word title")
	}
}
