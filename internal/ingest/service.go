package ingest

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/rs/zerolog"

	"github.com/usfinancemoves/finwire/internal/db"
	"github.com/usfinancemoves/finwire/internal/delivery"
)

// Options tune one pipeline instance.
type Options struct {
	MaxExcerptWords int
	EnglishOnly     bool
}

// Service runs candidates through the full ingestion pipeline: validation,
// language filter, deduplication, company repetition guard, classification,
// storage, and delivery fan-out.
type Service struct {
	pool   *db.Pool
	logger zerolog.Logger
	dedup  *Deduplicator
	guard  *RepetitionGuard
	fanout *delivery.Fanout
	opts   Options
}

func NewService(pool *db.Pool, logger zerolog.Logger, guard *RepetitionGuard, fanout *delivery.Fanout, opts Options) *Service {
	if opts.MaxExcerptWords <= 0 {
		opts.MaxExcerptWords = 75
	}
	return &Service{
		pool:   pool,
		logger: logger,
		dedup:  NewDeduplicator(pool),
		guard:  guard,
		fanout: fanout,
		opts:   opts,
	}
}

// Ingest processes one candidate end to end. A non-nil error means the
// pipeline itself broke; rejected or skipped candidates come back as a
// Result with a reason and no error.
func (s *Service) Ingest(ctx context.Context, candidate Candidate) (Result, error) {
	candidate.Title = CleanText(candidate.Title)
	candidate.SourceURL = strings.TrimSpace(candidate.SourceURL)

	if candidate.Title == "" {
		return Result{Decision: DecisionRejected, Reason: "empty title"}, nil
	}
	if candidate.SourceURL == "" {
		return Result{Decision: DecisionRejected, Reason: "empty source URL"}, nil
	}
	if candidate.SourceName == "" {
		return Result{Decision: DecisionRejected, Reason: "empty source name"}, nil
	}
	if candidate.Origin == "" {
		candidate.Origin = OriginRSS
	}

	if s.opts.EnglishOnly {
		sample := candidate.Title + " " + candidate.Summary
		if !IsEnglish(sample) {
			return Result{Decision: DecisionSkippedLanguage, Reason: "non-english content"}, nil
		}
	}

	fingerprint := Fingerprint(candidate.SourceURL, candidate.Title)
	seen, err := s.dedup.Seen(ctx, fingerprint)
	if err != nil {
		return Result{}, err
	}
	if seen {
		return Result{Decision: DecisionDuplicate, Reason: "fingerprint already stored"}, nil
	}

	if s.guard != nil {
		skip, err := s.guard.ShouldSkip(ctx, candidate)
		if err != nil {
			return Result{}, err
		}
		if skip {
			return Result{Decision: DecisionSkippedCompany, Reason: "recent coverage of " + candidate.CompanyName}, nil
		}
	}

	body := candidate.Body
	if body == "" {
		body = candidate.Summary
	}
	sectionSlug, tags := Classify(candidate.Title, CleanText(body), candidate.SourceTags)

	post, err := s.buildPost(candidate, fingerprint, sectionSlug, tags)
	if err != nil {
		return Result{}, err
	}

	// Insert and fan-out commit together: a post without delivery rows
	// would never reach any channel.
	tx, err := s.pool.BeginTx(ctx, db.TxOptions{})
	if err != nil {
		return Result{}, fmt.Errorf("begin ingest tx: %w", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	postID, inserted, err := db.InsertPost(ctx, tx, post)
	if err != nil {
		return Result{}, fmt.Errorf("insert post: %w", err)
	}
	if !inserted {
		// Lost the race to a concurrent producer. The winner owns fan-out.
		return Result{Decision: DecisionDuplicate, Reason: "concurrent insert"}, nil
	}
	post.PostID = postID

	if s.fanout != nil {
		if err := s.fanout.EnqueueForPost(ctx, tx, post); err != nil {
			return Result{}, fmt.Errorf("enqueue deliveries: %w", err)
		}
	}
	if err := tx.Commit(ctx); err != nil {
		return Result{}, fmt.Errorf("commit ingest: %w", err)
	}

	s.logger.Info().
		Int64("post_id", postID).
		Str("section", sectionSlug).
		Str("source", candidate.SourceName).
		Str("origin", candidate.Origin).
		Msg("post ingested")
	return Result{Decision: DecisionInserted, PostID: postID}, nil
}

func (s *Service) buildPost(candidate Candidate, fingerprint, sectionSlug string, tags []string) (*db.Post, error) {
	tagJSON, err := json.Marshal(tags)
	if err != nil {
		return nil, fmt.Errorf("marshal tags: %w", err)
	}

	post := &db.Post{
		Title:       candidate.Title,
		SourceName:  candidate.SourceName,
		SourceURL:   candidate.SourceURL,
		SectionSlug: sectionSlug,
		Tags:        tagJSON,
		ContentHash: fingerprint,
		Status:      db.PostStatusPublished,
		OriginType:  candidate.Origin,
	}

	if summary := FirstSentence(candidate.Summary); summary != "" {
		post.Summary = &summary
	}
	source := candidate.Body
	if source == "" {
		source = candidate.Summary
	}
	if excerpt := Excerpt(source, s.opts.MaxExcerptWords); excerpt != "" {
		post.Excerpt = &excerpt
	}
	if candidate.ImageURL != "" {
		url := candidate.ImageURL
		post.ImageURL = &url
	}
	if candidate.ScrapedContent != "" {
		content := candidate.ScrapedContent
		post.ScrapedContent = &content
		slug := candidate.ArticleSlug
		if slug == "" {
			slug = Slugify(candidate.Title)
		}
		if slug != "" {
			post.ArticleSlug = &slug
		}
	}
	if candidate.CompanyName != "" {
		company := candidate.CompanyName
		post.CompanyName = &company
	}
	return post, nil
}
