package ingest

import (
	"strings"
	"testing"
)

func TestCleanText(t *testing.T) {
	got := CleanText("<p>Acme &amp; Widget</p>\n\n  announce   deal")
	want := "Acme & Widget announce deal"
	if got != want {
		t.Fatalf("CleanText = %q, want %q", got, want)
	}
}

func TestExcerpt_WithinLimit(t *testing.T) {
	got := Excerpt("one two three", 5)
	if got != "one two three" {
		t.Fatalf("expected untouched text, got %q", got)
	}
	if strings.HasSuffix(got, "...") {
		t.Fatalf("unexpected ellipsis on short text")
	}
}

func TestExcerpt_Truncates(t *testing.T) {
	words := strings.Repeat("word ", 100)
	got := Excerpt(words, 75)
	if !strings.HasSuffix(got, "...") {
		t.Fatalf("expected ellipsis, got %q", got[len(got)-10:])
	}
	if n := len(strings.Fields(strings.TrimSuffix(got, "..."))); n != 75 {
		t.Fatalf("expected 75 words, got %d", n)
	}
}

func TestFirstSentence(t *testing.T) {
	got := FirstSentence("Acme buys Widget. The deal closes in Q3.")
	if got != "Acme buys Widget." {
		t.Fatalf("FirstSentence = %q", got)
	}
	if got := FirstSentence("no terminator here"); got != "no terminator here" {
		t.Fatalf("expected whole text back, got %q", got)
	}
}

func TestSlugify(t *testing.T) {
	cases := map[string]string{
		"Acme Buys Widget Co.":     "acme-buys-widget-co",
		"  KKR's $2B Take-Private": "kkr-s-2b-take-private",
		"---":                      "",
	}
	for in, want := range cases {
		if got := Slugify(in); got != want {
			t.Fatalf("Slugify(%q) = %q, want %q", in, got, want)
		}
	}
}
