package ingest

import (
	"html"
	"regexp"
	"strings"
)

var (
	tagPattern  = regexp.MustCompile(`<[^>]+>`)
	slugPattern = regexp.MustCompile(`[^a-z0-9]+`)
)

// CleanText strips markup and entities from feed-supplied HTML fragments and
// collapses runs of whitespace to single spaces.
func CleanText(s string) string {
	s = tagPattern.ReplaceAllString(s, " ")
	s = html.UnescapeString(s)
	return strings.Join(strings.Fields(s), " ")
}

// Excerpt truncates cleaned text to at most maxWords words, appending an
// ellipsis only when something was cut.
func Excerpt(s string, maxWords int) string {
	words := strings.Fields(CleanText(s))
	if maxWords <= 0 || len(words) <= maxWords {
		return strings.Join(words, " ")
	}
	return strings.Join(words[:maxWords], " ") + "..."
}

// FirstSentence returns the first sentence of the text, falling back to the
// whole text when no terminator is found.
func FirstSentence(s string) string {
	s = CleanText(s)
	for i, r := range s {
		if r == '.' || r == '!' || r == '?' {
			return s[:i+1]
		}
	}
	return s
}

// Slugify lowers a title into a URL-safe article slug.
func Slugify(title string) string {
	slug := slugPattern.ReplaceAllString(strings.ToLower(title), "-")
	return strings.Trim(slug, "-")
}
