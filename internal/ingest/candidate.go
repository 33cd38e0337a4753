package ingest

// Origin provenance values for a post.
const (
	OriginRSS     = "RSS"
	OriginCrypto  = "CRYPTO"
	OriginSEC     = "SEC"
	OriginUSGov   = "USGOV"
	OriginScraped = "SCRAPED"
	OriginPEWire  = "PEWIRE"
	OriginCustom  = "CUSTOM"
)

// Candidate is one raw article handed to the ingestion pipeline by a feed
// reader, a scraper, or the ingest-item CLI.
type Candidate struct {
	Title      string
	Summary    string
	Body       string
	SourceName string
	SourceURL  string
	ImageURL   string
	Origin     string
	SourceTags []string

	// Enrichment fields for scraped, AI-rewritten articles.
	ScrapedContent string
	ArticleSlug    string
	CompanyName    string
	FilingID       string
}

// Decision values returned by the pipeline for one candidate.
const (
	DecisionInserted        = "inserted"
	DecisionDuplicate       = "duplicate"
	DecisionSkippedLanguage = "skipped_language"
	DecisionSkippedCompany  = "skipped_company"
	DecisionRejected        = "rejected"
)

// Result describes what happened to one candidate.
type Result struct {
	Decision string
	Reason   string
	PostID   int64
}
