package feeds

import (
	"testing"

	"github.com/mmcdole/gofeed"

	"github.com/usfinancemoves/finwire/internal/ingest"
)

func TestMapItem(t *testing.T) {
	source := Source{Name: "MarketWatch", Origin: "RSS", Tags: []string{"markets"}}
	item := &gofeed.Item{
		Title:       "Acme shares jump on deal talk",
		Link:        "https://example.com/acme",
		Description: "<p>Shares rose 12%.</p>",
		Categories:  []string{"Deals"},
		Image:       &gofeed.Image{URL: "https://example.com/acme.jpg"},
	}

	candidate, ok := MapItem(source, item)
	if !ok {
		t.Fatalf("expected item to map")
	}
	if candidate.SourceName != "MarketWatch" {
		t.Fatalf("source name not carried: %q", candidate.SourceName)
	}
	if candidate.SourceURL != "https://example.com/acme" {
		t.Fatalf("link not carried: %q", candidate.SourceURL)
	}
	if candidate.Origin != "RSS" {
		t.Fatalf("origin not carried: %q", candidate.Origin)
	}
	if candidate.ImageURL != "https://example.com/acme.jpg" {
		t.Fatalf("image not carried: %q", candidate.ImageURL)
	}
	if len(candidate.SourceTags) != 2 || candidate.SourceTags[0] != "markets" || candidate.SourceTags[1] != "Deals" {
		t.Fatalf("tags not combined: %v", candidate.SourceTags)
	}
}

func TestMapItem_DropsUnusable(t *testing.T) {
	source := Source{Name: "X", Origin: "RSS"}
	if _, ok := MapItem(source, nil); ok {
		t.Fatalf("nil item must not map")
	}
	if _, ok := MapItem(source, &gofeed.Item{Link: "https://example.com"}); ok {
		t.Fatalf("item without title must not map")
	}
	if _, ok := MapItem(source, &gofeed.Item{Title: "no link"}); ok {
		t.Fatalf("item without link must not map")
	}
}

func TestMapItem_DefaultsOrigin(t *testing.T) {
	candidate, ok := MapItem(Source{Name: "X"}, &gofeed.Item{Title: "t", Link: "https://example.com"})
	if !ok {
		t.Fatalf("expected item to map")
	}
	if candidate.Origin != ingest.OriginRSS {
		t.Fatalf("expected RSS default origin, got %q", candidate.Origin)
	}
}

func TestDefaultSources_Origins(t *testing.T) {
	for _, source := range DefaultSources {
		if source.Name == "" || source.URL == "" {
			t.Fatalf("source missing name or URL: %+v", source)
		}
		switch source.Origin {
		case "RSS", "CRYPTO", "SEC", "USGOV":
		default:
			t.Fatalf("unexpected origin %q for %s", source.Origin, source.Name)
		}
	}
}
