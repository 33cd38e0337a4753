package app

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/rs/zerolog"

	"github.com/usfinancemoves/finwire/internal/cli"
	"github.com/usfinancemoves/finwire/internal/config"
	"github.com/usfinancemoves/finwire/internal/db"
	"github.com/usfinancemoves/finwire/internal/feeds"
	"github.com/usfinancemoves/finwire/internal/ingest"
	"github.com/usfinancemoves/finwire/internal/scrape"
)

func runIngest(args []string) int {
	fs := flag.NewFlagSet("ingest", flag.ContinueOnError)
	fs.SetOutput(os.Stderr)

	envLoader := cli.AddEnvFlag(fs, ".env", "Path to the .env file")
	timeout := fs.Duration("timeout", 5*time.Minute, "Command timeout")
	enrich := fs.Int("enrich", 0, "Scrape long-form content for up to N deal-section candidates")

	if err := fs.Parse(args); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return 0
		}
		return 2
	}

	if envLoader != nil {
		if _, err := envLoader.Load(); err != nil {
			fmt.Fprintf(os.Stderr, "Warning: %v\n", err)
		}
	}

	ctx, cancel := context.WithTimeout(context.Background(), *timeout)
	defer cancel()

	cfg, logger, pool, err := bootstrap(ctx)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Ingest failed: %v\n", err)
		return 1
	}
	defer pool.Close()

	counts, err := ingestPass(ctx, cfg, logger, pool, *enrich)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Ingest failed: %v\n", err)
		return 1
	}

	fmt.Printf("fetched=%d inserted=%d duplicates=%d skipped=%d rejected=%d\n",
		counts.Fetched, counts.Inserted, counts.Duplicates, counts.Skipped, counts.Rejected)
	return 0
}

type ingestCounts struct {
	Fetched    int
	Inserted   int
	Duplicates int
	Skipped    int
	Rejected   int
}

// ingestPass fetches every configured feed and runs the candidates through
// the pipeline. Shared between the ingest command and the run daemon.
func ingestPass(ctx context.Context, cfg *config.Config, logger zerolog.Logger, pool *db.Pool, enrich int) (ingestCounts, error) {
	fetcher := feeds.NewFetcher(logger, feeds.Options{
		MaxItemsPerSource: cfg.MaxPostsPerSource,
		Concurrency:       cfg.FeedFetchConcurrency,
		Timeout:           cfg.RequestTimeout,
	})
	candidates := fetcher.FetchAll(ctx, feeds.DefaultSources)

	if enrich > 0 {
		enrichCandidates(ctx, logger, candidates, enrich, cfg.RequestTimeout)
	}

	service := newIngestService(cfg, logger, pool)
	counts := ingestCounts{Fetched: len(candidates)}
	for _, candidate := range candidates {
		if err := ctx.Err(); err != nil {
			return counts, err
		}
		result, err := service.Ingest(ctx, candidate)
		if err != nil {
			logger.Error().Err(err).Str("url", candidate.SourceURL).Msg("candidate ingest failed")
			continue
		}
		switch result.Decision {
		case ingest.DecisionInserted:
			counts.Inserted++
		case ingest.DecisionDuplicate:
			counts.Duplicates++
		case ingest.DecisionRejected:
			counts.Rejected++
		default:
			counts.Skipped++
		}
	}
	return counts, nil
}

// enrichCandidates scrapes full article text for the first few candidates
// that look like deal coverage, upgrading them to long-form posts.
func enrichCandidates(ctx context.Context, logger zerolog.Logger, candidates []ingest.Candidate, limit int, timeout time.Duration) {
	enriched := 0
	for i := range candidates {
		if enriched >= limit {
			return
		}
		candidate := &candidates[i]
		if candidate.ScrapedContent != "" {
			continue
		}
		slug, _ := ingest.Classify(candidate.Title, candidate.Summary, nil)
		if slug != ingest.SectionMA && slug != ingest.SectionLBO {
			continue
		}
		text, err := scrape.FetchTextWithOptions(ctx, candidate.SourceURL, candidate.Title, scrape.FetchOptions{Timeout: timeout})
		if err != nil {
			logger.Debug().Err(err).Str("url", candidate.SourceURL).Msg("enrichment scrape failed")
			continue
		}
		candidate.ScrapedContent = text
		candidate.ArticleSlug = ingest.Slugify(candidate.Title)
		candidate.Origin = ingest.OriginScraped
		enriched++
	}
}
