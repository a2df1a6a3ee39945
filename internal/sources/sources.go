// Package sources maps source tokens onto display names and credibility
// tiers. Tier 1 is wire services and public broadcasters, tier 2 national
// outlets, tier 3 everything else.
package sources

var displayNames = map[string]string{
	"ap":              "Associated Press",
	"reuters":         "Reuters",
	"bbc":             "BBC News",
	"npr":             "NPR",
	"aljazeera":       "Al Jazeera",
	"guardian":        "The Guardian",
	"nytimes":         "The New York Times",
	"washpost":        "The Washington Post",
	"wsj":             "The Wall Street Journal",
	"cnn":             "CNN",
	"cnbc":            "CNBC",
	"bloomberg":       "Bloomberg",
	"ft":              "Financial Times",
	"economist":       "The Economist",
	"politico":        "Politico",
	"thehill":         "The Hill",
	"axios":           "Axios",
	"abcnews":         "ABC News",
	"cbsnews":         "CBS News",
	"nbcnews":         "NBC News",
	"foxnews":         "Fox News",
	"usatoday":        "USA Today",
	"latimes":         "Los Angeles Times",
	"chicagotrib":     "Chicago Tribune",
	"time":            "TIME",
	"newsweek":        "Newsweek",
	"theverge":        "The Verge",
	"techcrunch":      "TechCrunch",
	"arstechnica":     "Ars Technica",
	"wired":           "WIRED",
	"engadget":        "Engadget",
	"zdnet":           "ZDNet",
	"venturebeat":     "VentureBeat",
	"espn":            "ESPN",
	"skysports":       "Sky Sports",
	"cbssports":       "CBS Sports",
	"bleacher":        "Bleacher Report",
	"variety":         "Variety",
	"hollywoodrep":    "The Hollywood Reporter",
	"ew":              "Entertainment Weekly",
	"rollingstone":    "Rolling Stone",
	"billboard":       "Billboard",
	"statnews":        "STAT News",
	"medpage":         "MedPage Today",
	"sciam":           "Scientific American",
	"natgeo":          "National Geographic",
	"newscientist":    "New Scientist",
	"sciencedaily":    "ScienceDaily",
	"space":           "Space.com",
	"marketwatch":     "MarketWatch",
	"businessinsider": "Business Insider",
	"forbes":          "Forbes",
	"fortune":         "Fortune",
	"seekingalpha":    "Seeking Alpha",
	"yahoofinance":    "Yahoo Finance",
	"euronews":        "Euronews",
	"dw":              "DW",
	"france24":        "France 24",
	"scmp":            "South China Morning Post",
	"japantimes":      "The Japan Times",
	"timesofindia":    "The Times of India",
	"abc_au":          "ABC Australia",
	"cbc":             "CBC News",
	"globeandmail":    "The Globe and Mail",
	"independent":     "The Independent",
	"telegraph":       "The Telegraph",
	"sky":             "Sky News",
	"mirror":          "The Mirror",
	"standard":        "Evening Standard",
	"nhk":             "NHK World",
	"cna":             "CNA",
	"thehindu":        "The Hindu",
	"rte":             "RTÉ News",
	"irishtimes":      "The Irish Times",
	"politico_eu":     "Politico Europe",
	"inc":             "Inc.",
	"entrepreneur":    "Entrepreneur",
	"gizmodo":         "Gizmodo",
	"macrumors":       "MacRumors",
	"physorg":         "Phys.org",
	"livescience":     "Live Science",
	"nature":          "Nature",
	"quanta":          "Quanta Magazine",
	"medicalxpress":   "Medical Xpress",
	"webmd":           "WebMD",
	"kffhealth":       "KFF Health News",
	"si":              "Sports Illustrated",
	"yahoosports":     "Yahoo Sports",
	"sportingnews":    "The Sporting News",
	"theathletic":     "The Athletic",
	"deadline":        "Deadline",
	"pitchfork":       "Pitchfork",
	"nme":             "NME",
	"tvline":          "TVLine",
	"pbs":             "PBS NewsHour",
	"vox":             "Vox",
	"smh":             "The Sydney Morning Herald",
}

var tiers = map[string]int{
	"ap": 1, "reuters": 1, "bbc": 1, "npr": 1, "aljazeera": 1,
	"dw": 1, "france24": 1, "cbc": 1, "abc_au": 1, "euronews": 1,

	"guardian": 2, "nytimes": 2, "washpost": 2, "wsj": 2, "cnn": 2,
	"bloomberg": 2, "ft": 2, "economist": 2, "politico": 2, "abcnews": 2,
	"cbsnews": 2, "nbcnews": 2, "latimes": 2, "scmp": 2, "globeandmail": 2,
	"telegraph": 2, "independent": 2, "sky": 2, "cnbc": 2, "time": 2,
	"nhk": 1, "rte": 1, "pbs": 1, "cna": 2, "thehindu": 2,
	"irishtimes": 2, "politico_eu": 2, "smh": 2, "nature": 2,
}

// DisplayName resolves a source token for API responses. Unknown tokens are
// returned verbatim so new feeds degrade gracefully.
func DisplayName(token string) string {
	if name, ok := displayNames[token]; ok {
		return name
	}
	return token
}

// Tier returns the credibility tier for a source token, defaulting to 3.
func Tier(token string) int {
	if t, ok := tiers[token]; ok {
		return t
	}
	return 3
}
