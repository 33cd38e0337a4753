package delivery

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/usfinancemoves/finwire/internal/db"
)

const maxSocialTextLen = 280

const socialHashtags = "#specialsituations #MA #PE #news #viral #finance"

// WebPayload is the stored payload for the web channel: the logical paths the
// site must revalidate after a post lands.
type WebPayload struct {
	Action string   `json:"action"`
	Paths  []string `json:"paths"`
}

// SocialPayload is the stored payload for the social channel.
type SocialPayload struct {
	Text string `json:"text"`
}

// BuildWebPayload lists the paths invalidated by a new post: the homepage and
// the post's section page.
func BuildWebPayload(sectionSlug string) ([]byte, error) {
	payload := WebPayload{
		Action: "revalidate",
		Paths:  []string{"/", "/section/" + sectionSlug},
	}
	return json.Marshal(payload)
}

// BuildSocialPayload composes the announcement text for a post. The text is
// always within the platform length bound.
func BuildSocialPayload(post *db.Post, siteBaseURL string) ([]byte, error) {
	if post.ArticleSlug == nil || *post.ArticleSlug == "" {
		return nil, fmt.Errorf("post %d has no article slug", post.PostID)
	}
	url := strings.TrimRight(siteBaseURL, "/") + "/article/" + *post.ArticleSlug
	text := ComposeSocialText(post.Title, url)
	return json.Marshal(SocialPayload{Text: text})
}

// ComposeSocialText builds "title\n\nurl\n\nhashtags", truncating the title
// first when the total would exceed the length bound. The URL is never cut.
func ComposeSocialText(title, url string) string {
	suffix := "\n\n" + url + "\n\n" + socialHashtags
	if len(suffix) > maxSocialTextLen {
		suffix = "\n\n" + url
	}
	budget := maxSocialTextLen - len(suffix)
	if len(title) > budget {
		if budget > 3 {
			title = strings.TrimSpace(title[:budget-3]) + "..."
		} else {
			title = ""
		}
	}
	return title + suffix
}

// QualifiesForSocial reports whether a post gets a social announcement. Only
// enriched long-form articles with a site URL of their own are announced.
func QualifiesForSocial(post *db.Post) bool {
	if post == nil || post.ArticleSlug == nil || *post.ArticleSlug == "" {
		return false
	}
	return post.OriginType == "SCRAPED" || post.OriginType == "PEWIRE"
}
