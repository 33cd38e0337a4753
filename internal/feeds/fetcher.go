package feeds

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/mmcdole/gofeed"
	"github.com/rs/zerolog"

	"github.com/usfinancemoves/finwire/internal/ingest"
)

// Options tune one fetch pass.
type Options struct {
	MaxItemsPerSource int
	Concurrency       int
	Timeout           time.Duration
}

func (o *Options) applyDefaults() {
	if o.MaxItemsPerSource <= 0 {
		o.MaxItemsPerSource = 10
	}
	if o.Concurrency <= 0 {
		o.Concurrency = 4
	}
	if o.Timeout <= 0 {
		o.Timeout = 30 * time.Second
	}
}

// Fetcher pulls feed items and maps them to ingestion candidates. Feeds are
// fetched concurrently; items within one feed stay in feed order.
type Fetcher struct {
	parser *gofeed.Parser
	logger zerolog.Logger
	opts   Options
}

func NewFetcher(logger zerolog.Logger, opts Options) *Fetcher {
	opts.applyDefaults()
	parser := gofeed.NewParser()
	parser.UserAgent = "finwire/1.0"
	return &Fetcher{parser: parser, logger: logger, opts: opts}
}

// FetchAll fetches every source and returns the combined candidates in
// source-roster order. A failing feed is logged and skipped; one broken
// endpoint never aborts the pass.
func (f *Fetcher) FetchAll(ctx context.Context, sources []Source) []ingest.Candidate {
	results := make([][]ingest.Candidate, len(sources))

	sem := make(chan struct{}, f.opts.Concurrency)
	var wg sync.WaitGroup
	for i, source := range sources {
		wg.Add(1)
		go func(i int, source Source) {
			defer wg.Done()
			sem <- struct{}{}
			defer func() { <-sem }()

			candidates, err := f.fetchOne(ctx, source)
			if err != nil {
				f.logger.Warn().Err(err).Str("source", source.Name).Msg("feed fetch failed")
				return
			}
			results[i] = candidates
		}(i, source)
	}
	wg.Wait()

	var combined []ingest.Candidate
	for _, candidates := range results {
		combined = append(combined, candidates...)
	}
	return combined
}

func (f *Fetcher) fetchOne(ctx context.Context, source Source) ([]ingest.Candidate, error) {
	fetchCtx, cancel := context.WithTimeout(ctx, f.opts.Timeout)
	defer cancel()

	parsed, err := f.parser.ParseURLWithContext(source.URL, fetchCtx)
	if err != nil {
		return nil, fmt.Errorf("parse feed %s: %w", source.URL, err)
	}

	limit := f.opts.MaxItemsPerSource
	candidates := make([]ingest.Candidate, 0, limit)
	for _, item := range parsed.Items {
		if len(candidates) >= limit {
			break
		}
		candidate, ok := MapItem(source, item)
		if !ok {
			continue
		}
		candidates = append(candidates, candidate)
	}
	return candidates, nil
}

// MapItem converts one feed item to a candidate. Items without a title or a
// link are unusable and dropped.
func MapItem(source Source, item *gofeed.Item) (ingest.Candidate, bool) {
	if item == nil || item.Title == "" || item.Link == "" {
		return ingest.Candidate{}, false
	}

	summary := item.Description
	if summary == "" {
		summary = item.Content
	}

	candidate := ingest.Candidate{
		Title:      item.Title,
		Summary:    summary,
		Body:       item.Content,
		SourceName: source.Name,
		SourceURL:  item.Link,
		Origin:     source.Origin,
		SourceTags: append(append([]string(nil), source.Tags...), item.Categories...),
	}
	if candidate.Origin == "" {
		candidate.Origin = ingest.OriginRSS
	}
	if item.Image != nil {
		candidate.ImageURL = item.Image.URL
	}
	return candidate, true
}
