package poller

import "newswire/internal/sources"

// Feed is one RSS endpoint in the static catalog.
type Feed struct {
	Source   string
	URL      string
	Category string
	Language string
}

// Tier resolves the feed's source tier from the sources catalog.
func (f Feed) Tier() int { return sources.Tier(f.Source) }

// Catalog is the static feed list. Feeds are grouped loosely by category;
// the scheduler interleaves categories, so ordering here does not matter.
var Catalog = []Feed{
	// world
	{Source: "bbc", URL: "https://feeds.bbci.co.uk/news/world/rss.xml", Category: "world", Language: "en"},
	{Source: "aljazeera", URL: "https://www.aljazeera.com/xml/rss/all.xml", Category: "world", Language: "en"},
	{Source: "guardian", URL: "https://www.theguardian.com/world/rss", Category: "world", Language: "en"},
	{Source: "france24", URL: "https://www.france24.com/en/rss", Category: "world", Language: "en"},
	{Source: "dw", URL: "https://rss.dw.com/rdf/rss-en-world", Category: "world", Language: "en"},
	{Source: "scmp", URL: "https://www.scmp.com/rss/91/feed", Category: "world", Language: "en"},
	{Source: "japantimes", URL: "https://www.japantimes.co.jp/feed", Category: "world", Language: "en"},
	{Source: "timesofindia", URL: "https://timesofindia.indiatimes.com/rssfeeds/296589292.cms", Category: "world", Language: "en"},
	{Source: "abc_au", URL: "https://www.abc.net.au/news/feed/51120/rss.xml", Category: "world", Language: "en"},
	{Source: "nhk", URL: "https://www3.nhk.or.jp/nhkworld/en/news/feed/", Category: "world", Language: "en"},
	{Source: "cna", URL: "https://www.channelnewsasia.com/api/v1/rss-outbound-feed?_format=xml", Category: "world", Language: "en"},
	{Source: "thehindu", URL: "https://www.thehindu.com/news/international/feeder/default.rss", Category: "world", Language: "en"},

	// us
	{Source: "npr", URL: "https://feeds.npr.org/1001/rss.xml", Category: "us", Language: "en"},
	{Source: "cnn", URL: "http://rss.cnn.com/rss/cnn_us.rss", Category: "us", Language: "en"},
	{Source: "abcnews", URL: "https://abcnews.go.com/abcnews/usheadlines", Category: "us", Language: "en"},
	{Source: "cbsnews", URL: "https://www.cbsnews.com/latest/rss/us", Category: "us", Language: "en"},
	{Source: "nbcnews", URL: "https://feeds.nbcnews.com/nbcnews/public/us-news", Category: "us", Language: "en"},
	{Source: "foxnews", URL: "https://moxie.foxnews.com/google-publisher/us.xml", Category: "us", Language: "en"},
	{Source: "usatoday", URL: "https://rssfeeds.usatoday.com/UsatodaycomNation-TopStories", Category: "us", Language: "en"},
	{Source: "latimes", URL: "https://www.latimes.com/california/rss2.0.xml", Category: "us", Language: "en"},
	{Source: "politico", URL: "https://rss.politico.com/politics-news.xml", Category: "us", Language: "en"},
	{Source: "thehill", URL: "https://thehill.com/homenews/feed/", Category: "us", Language: "en"},
	{Source: "axios", URL: "https://api.axios.com/feed/", Category: "us", Language: "en"},

	// europe
	{Source: "bbc", URL: "https://feeds.bbci.co.uk/news/uk/rss.xml", Category: "europe", Language: "en"},
	{Source: "euronews", URL: "https://www.euronews.com/rss", Category: "europe", Language: "en"},
	{Source: "independent", URL: "https://www.independent.co.uk/news/uk/rss", Category: "europe", Language: "en"},
	{Source: "telegraph", URL: "https://www.telegraph.co.uk/news/rss.xml", Category: "europe", Language: "en"},
	{Source: "sky", URL: "https://feeds.skynews.com/feeds/rss/uk.xml", Category: "europe", Language: "en"},
	{Source: "standard", URL: "https://www.standard.co.uk/news/rss", Category: "europe", Language: "en"},
	{Source: "mirror", URL: "https://www.mirror.co.uk/news/rss.xml", Category: "europe", Language: "en"},
	{Source: "rte", URL: "https://www.rte.ie/feeds/rss/?index=/news/", Category: "europe", Language: "en"},
	{Source: "irishtimes", URL: "https://www.irishtimes.com/arc/outboundfeeds/feed-irish-news/", Category: "europe", Language: "en"},
	{Source: "politico_eu", URL: "https://www.politico.eu/feed/", Category: "europe", Language: "en"},

	// business
	{Source: "cnbc", URL: "https://search.cnbc.com/rs/search/combinedcms/view.xml?partnerId=wrss01&id=10001147", Category: "business", Language: "en"},
	{Source: "marketwatch", URL: "https://feeds.content.dowjones.io/public/rss/mw_topstories", Category: "business", Language: "en"},
	{Source: "businessinsider", URL: "https://markets.businessinsider.com/rss/news", Category: "business", Language: "en"},
	{Source: "forbes", URL: "https://www.forbes.com/business/feed/", Category: "business", Language: "en"},
	{Source: "fortune", URL: "https://fortune.com/feed/", Category: "business", Language: "en"},
	{Source: "yahoofinance", URL: "https://finance.yahoo.com/news/rssindex", Category: "business", Language: "en"},
	{Source: "seekingalpha", URL: "https://seekingalpha.com/market_currents.xml", Category: "business", Language: "en"},
	{Source: "guardian", URL: "https://www.theguardian.com/uk/business/rss", Category: "business", Language: "en"},
	{Source: "inc", URL: "https://www.inc.com/rss/", Category: "business", Language: "en"},
	{Source: "entrepreneur", URL: "https://www.entrepreneur.com/latest.rss", Category: "business", Language: "en"},

	// tech
	{Source: "theverge", URL: "https://www.theverge.com/rss/index.xml", Category: "tech", Language: "en"},
	{Source: "techcrunch", URL: "https://techcrunch.com/feed/", Category: "tech", Language: "en"},
	{Source: "arstechnica", URL: "https://feeds.arstechnica.com/arstechnica/index", Category: "tech", Language: "en"},
	{Source: "wired", URL: "https://www.wired.com/feed/rss", Category: "tech", Language: "en"},
	{Source: "engadget", URL: "https://www.engadget.com/rss.xml", Category: "tech", Language: "en"},
	{Source: "zdnet", URL: "https://www.zdnet.com/news/rss.xml", Category: "tech", Language: "en"},
	{Source: "venturebeat", URL: "https://venturebeat.com/feed/", Category: "tech", Language: "en"},
	{Source: "bbc", URL: "https://feeds.bbci.co.uk/news/technology/rss.xml", Category: "tech", Language: "en"},
	{Source: "gizmodo", URL: "https://gizmodo.com/feed", Category: "tech", Language: "en"},
	{Source: "macrumors", URL: "https://feeds.macrumors.com/MacRumors-All", Category: "tech", Language: "en"},

	// science
	{Source: "sciam", URL: "http://rss.sciam.com/ScientificAmerican-Global", Category: "science", Language: "en"},
	{Source: "newscientist", URL: "https://www.newscientist.com/feed/home/", Category: "science", Language: "en"},
	{Source: "sciencedaily", URL: "https://www.sciencedaily.com/rss/all.xml", Category: "science", Language: "en"},
	{Source: "space", URL: "https://www.space.com/feeds/all", Category: "science", Language: "en"},
	{Source: "natgeo", URL: "https://www.nationalgeographic.com/pages/feed/science", Category: "science", Language: "en"},
	{Source: "npr", URL: "https://feeds.npr.org/1007/rss.xml", Category: "science", Language: "en"},
	{Source: "physorg", URL: "https://phys.org/rss-feed/", Category: "science", Language: "en"},
	{Source: "livescience", URL: "https://www.livescience.com/feeds/all", Category: "science", Language: "en"},
	{Source: "nature", URL: "https://www.nature.com/nature.rss", Category: "science", Language: "en"},
	{Source: "quanta", URL: "https://www.quantamagazine.org/feed/", Category: "science", Language: "en"},

	// health
	{Source: "statnews", URL: "https://www.statnews.com/feed/", Category: "health", Language: "en"},
	{Source: "medpage", URL: "https://www.medpagetoday.com/rss/headlines.xml", Category: "health", Language: "en"},
	{Source: "cnn", URL: "http://rss.cnn.com/rss/cnn_health.rss", Category: "health", Language: "en"},
	{Source: "nbcnews", URL: "https://feeds.nbcnews.com/nbcnews/public/health", Category: "health", Language: "en"},
	{Source: "bbc", URL: "https://feeds.bbci.co.uk/news/health/rss.xml", Category: "health", Language: "en"},
	{Source: "medicalxpress", URL: "https://medicalxpress.com/rss-feed/", Category: "health", Language: "en"},
	{Source: "webmd", URL: "https://rssfeeds.webmd.com/rss/rss.aspx?RSSSource=RSS_PUBLIC", Category: "health", Language: "en"},
	{Source: "kffhealth", URL: "https://kffhealthnews.org/feed/", Category: "health", Language: "en"},
	{Source: "cbsnews", URL: "https://www.cbsnews.com/latest/rss/health", Category: "health", Language: "en"},
	{Source: "npr", URL: "https://feeds.npr.org/1128/rss.xml", Category: "health", Language: "en"},

	// sports
	{Source: "espn", URL: "https://www.espn.com/espn/rss/news", Category: "sports", Language: "en"},
	{Source: "skysports", URL: "https://www.skysports.com/rss/12040", Category: "sports", Language: "en"},
	{Source: "cbssports", URL: "https://www.cbssports.com/rss/headlines/", Category: "sports", Language: "en"},
	{Source: "bleacher", URL: "https://bleacherreport.com/articles/feed", Category: "sports", Language: "en"},
	{Source: "bbc", URL: "https://feeds.bbci.co.uk/sport/rss.xml", Category: "sports", Language: "en"},
	{Source: "guardian", URL: "https://www.theguardian.com/uk/sport/rss", Category: "sports", Language: "en"},
	{Source: "si", URL: "https://www.si.com/rss/si_topstories.rss", Category: "sports", Language: "en"},
	{Source: "yahoosports", URL: "https://sports.yahoo.com/rss/", Category: "sports", Language: "en"},
	{Source: "sportingnews", URL: "https://www.sportingnews.com/us/rss", Category: "sports", Language: "en"},
	{Source: "skysports", URL: "https://www.skysports.com/rss/12019", Category: "sports", Language: "en"},

	// entertainment
	{Source: "variety", URL: "https://variety.com/feed/", Category: "entertainment", Language: "en"},
	{Source: "hollywoodrep", URL: "https://www.hollywoodreporter.com/feed/", Category: "entertainment", Language: "en"},
	{Source: "ew", URL: "https://ew.com/feed/", Category: "entertainment", Language: "en"},
	{Source: "rollingstone", URL: "https://www.rollingstone.com/music/feed/", Category: "entertainment", Language: "en"},
	{Source: "billboard", URL: "https://www.billboard.com/feed/", Category: "entertainment", Language: "en"},
	{Source: "deadline", URL: "https://deadline.com/feed/", Category: "entertainment", Language: "en"},
	{Source: "pitchfork", URL: "https://pitchfork.com/feed/feed-news/rss", Category: "entertainment", Language: "en"},
	{Source: "nme", URL: "https://www.nme.com/feed", Category: "entertainment", Language: "en"},
	{Source: "tvline", URL: "https://tvline.com/feed/", Category: "entertainment", Language: "en"},
	{Source: "guardian", URL: "https://www.theguardian.com/culture/rss", Category: "entertainment", Language: "en"},

	// general
	{Source: "npr", URL: "https://feeds.npr.org/1002/rss.xml", Category: "general", Language: "en"},
	{Source: "time", URL: "https://time.com/feed/", Category: "general", Language: "en"},
	{Source: "newsweek", URL: "https://www.newsweek.com/rss", Category: "general", Language: "en"},
	{Source: "cbc", URL: "https://www.cbc.ca/webfeed/rss/rss-topstories", Category: "general", Language: "en"},
	{Source: "globeandmail", URL: "https://www.theglobeandmail.com/arc/outboundfeeds/rss/category/canada/", Category: "general", Language: "en"},
	{Source: "pbs", URL: "https://www.pbs.org/newshour/feeds/rss/headlines", Category: "general", Language: "en"},
	{Source: "vox", URL: "https://www.vox.com/rss/index.xml", Category: "general", Language: "en"},
	{Source: "smh", URL: "https://www.smh.com.au/rss/feed.xml", Category: "general", Language: "en"},
}
