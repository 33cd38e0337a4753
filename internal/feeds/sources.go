package feeds

// Source is one configured feed endpoint.
type Source struct {
	Name   string
	URL    string
	Origin string
	Tags   []string
}

// DefaultSources is the built-in feed roster. Origin drives downstream
// handling: CRYPTO and USGOV feeds never qualify for social announcements.
var DefaultSources = []Source{
	{
		Name:   "MarketWatch",
		URL:    "https://feeds.content.dowjones.io/public/rss/mw_topstories",
		Origin: "RSS",
		Tags:   []string{"markets"},
	},
	{
		Name:   "MarketWatch MarketPulse",
		URL:    "https://feeds.content.dowjones.io/public/rss/mw_marketpulse",
		Origin: "RSS",
		Tags:   []string{"markets"},
	},
	{
		Name:   "Bloomberg",
		URL:    "https://feeds.bloomberg.com/markets/news.rss",
		Origin: "RSS",
		Tags:   []string{"markets"},
	},
	{
		Name:   "Cointelegraph",
		URL:    "https://cointelegraph.com/rss",
		Origin: "CRYPTO",
		Tags:   []string{"crypto"},
	},
	{
		Name:   "SEC Press Releases",
		URL:    "https://www.sec.gov/news/pressreleases.rss",
		Origin: "SEC",
		Tags:   []string{"regulation"},
	},
	{
		Name:   "FTC Press Releases",
		URL:    "https://www.ftc.gov/feeds/press-release.xml",
		Origin: "USGOV",
		Tags:   []string{"regulation"},
	},
}
