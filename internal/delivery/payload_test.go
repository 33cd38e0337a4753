package delivery

import (
	"encoding/json"
	"strings"
	"testing"

	"github.com/usfinancemoves/finwire/internal/db"
)

func strPtr(s string) *string { return &s }

func TestBuildWebPayload(t *testing.T) {
	raw, err := BuildWebPayload("ma")
	if err != nil {
		t.Fatalf("BuildWebPayload: %v", err)
	}
	var payload WebPayload
	if err := json.Unmarshal(raw, &payload); err != nil {
		t.Fatalf("unmarshal payload: %v", err)
	}
	if payload.Action != "revalidate" {
		t.Fatalf("expected action=revalidate, got %q", payload.Action)
	}
	if len(payload.Paths) != 2 || payload.Paths[0] != "/" || payload.Paths[1] != "/section/ma" {
		t.Fatalf("unexpected paths: %v", payload.Paths)
	}
}

func TestComposeSocialText_WithinBound(t *testing.T) {
	url := "https://www.usfinancemoves.com/article/acme-buys-widget"
	titles := []string{
		"Short",
		strings.Repeat("Very long headline about a complicated cross-border transaction ", 10),
		"",
	}
	for _, title := range titles {
		text := ComposeSocialText(title, url)
		if len(text) > 280 {
			t.Fatalf("text exceeds 280 chars (%d) for title length %d", len(text), len(title))
		}
		if !strings.Contains(text, url) {
			t.Fatalf("text must always carry the article URL")
		}
	}
}

func TestComposeSocialText_TruncatesTitleNotURL(t *testing.T) {
	url := "https://www.usfinancemoves.com/article/x"
	long := strings.Repeat("headline ", 60)
	text := ComposeSocialText(long, url)
	if !strings.Contains(text, "...") {
		t.Fatalf("expected truncated title marker in %q", text)
	}
	if !strings.HasSuffix(text, socialHashtags) {
		t.Fatalf("expected hashtags at end, got %q", text)
	}
}

func TestQualifiesForSocial(t *testing.T) {
	cases := []struct {
		name string
		post db.Post
		want bool
	}{
		{"scraped with slug", db.Post{OriginType: "SCRAPED", ArticleSlug: strPtr("acme-deal")}, true},
		{"pewire with slug", db.Post{OriginType: "PEWIRE", ArticleSlug: strPtr("fund-close")}, true},
		{"scraped without slug", db.Post{OriginType: "SCRAPED"}, false},
		{"rss with slug", db.Post{OriginType: "RSS", ArticleSlug: strPtr("feed-item")}, false},
		{"crypto", db.Post{OriginType: "CRYPTO", ArticleSlug: strPtr("coin-news")}, false},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := QualifiesForSocial(&tc.post); got != tc.want {
				t.Fatalf("QualifiesForSocial = %t, want %t", got, tc.want)
			}
		})
	}
}

func TestBuildSocialPayload_RequiresSlug(t *testing.T) {
	if _, err := BuildSocialPayload(&db.Post{Title: "x", OriginType: "SCRAPED"}, "https://example.com"); err == nil {
		t.Fatalf("expected error for post without article slug")
	}
}

func TestBuildSocialPayload(t *testing.T) {
	post := &db.Post{
		Title:       "Acme buys Widget",
		OriginType:  "SCRAPED",
		ArticleSlug: strPtr("acme-buys-widget"),
	}
	raw, err := BuildSocialPayload(post, "https://www.usfinancemoves.com/")
	if err != nil {
		t.Fatalf("BuildSocialPayload: %v", err)
	}
	var payload SocialPayload
	if err := json.Unmarshal(raw, &payload); err != nil {
		t.Fatalf("unmarshal payload: %v", err)
	}
	if !strings.Contains(payload.Text, "https://www.usfinancemoves.com/article/acme-buys-widget") {
		t.Fatalf("payload text missing article URL: %q", payload.Text)
	}
}
