package selection

import (
	"sort"
	"strings"
	"time"

	"github.com/usfinancemoves/finwire/internal/db"
)

// Result is one computed site layout: the homepage river and each section
// rail. Posts may appear in several rails but never twice in one.
type Result struct {
	Homepage []db.Post
	Sections map[string][]db.Post
}

// Select computes the layout from the given published posts. It is a pure
// function of its inputs: same posts, sections, policy, and clock reading
// always produce the same layout, which is what makes the layout cacheable.
func Select(posts []db.Post, sections []db.Section, policy Policy, now time.Time) Result {
	published := make([]db.Post, 0, len(posts))
	for _, p := range posts {
		if p.Status == db.PostStatusPublished {
			published = append(published, p)
		}
	}
	sortByPriority(published)

	result := Result{
		Homepage: selectHomepage(published, policy, now),
		Sections: make(map[string][]db.Post, len(sections)),
	}

	bySection := make(map[string][]db.Post)
	for _, p := range published {
		bySection[p.SectionSlug] = append(bySection[p.SectionSlug], p)
	}

	for _, section := range sections {
		result.Sections[section.Slug] = fillSection(
			bySection[section.Slug], policy.Threshold(section.Slug), policy, now)
	}

	// Emergency borrowing runs after every section settles, so donors are
	// the already-selected rails, not the raw pool.
	for _, section := range sections {
		if len(result.Sections[section.Slug]) > 0 {
			continue
		}
		result.Sections[section.Slug] = borrow(section.Slug, sections, result.Sections, policy)
	}

	return result
}

// fillSection picks up to threshold posts: fresh posts first, then fallback
// window backfill, then anything older if the section is still short. Input
// must already be priority-sorted.
func fillSection(posts []db.Post, threshold int, policy Policy, now time.Time) []db.Post {
	if threshold <= 0 || len(posts) == 0 {
		return nil
	}

	freshCutoff := now.Add(-policy.FreshWindow)
	fallbackCutoff := now.Add(-policy.FallbackWindow)

	var fresh, fallback, stale []db.Post
	for _, p := range posts {
		switch {
		case !p.CreatedAt.Before(freshCutoff):
			fresh = append(fresh, p)
		case !p.CreatedAt.Before(fallbackCutoff):
			fallback = append(fallback, p)
		default:
			stale = append(stale, p)
		}
	}

	selected := take(fresh, threshold)
	if len(selected) < threshold {
		selected = append(selected, take(fallback, threshold-len(selected))...)
	}
	if len(selected) < threshold {
		selected = append(selected, take(stale, threshold-len(selected))...)
	}
	return selected
}

// selectHomepage fills the river the same way a section fills, then pins the
// priority source's newest post to the top.
func selectHomepage(published []db.Post, policy Policy, now time.Time) []db.Post {
	river := fillSection(published, policy.HomepageLimit, policy, now)
	if policy.PrioritySource == "" {
		return river
	}
	for i, p := range river {
		if p.SourceName != policy.PrioritySource {
			continue
		}
		if i > 0 {
			pinned := river[i]
			copy(river[1:i+1], river[:i])
			river[0] = pinned
		}
		return river
	}
	// The river missed the priority source entirely; pull its newest fresh
	// post in over the last slot.
	freshCutoff := now.Add(-policy.FreshWindow)
	for _, p := range published {
		if p.SourceName == policy.PrioritySource && !p.CreatedAt.Before(freshCutoff) {
			if len(river) >= policy.HomepageLimit {
				river = river[:len(river)-1]
			}
			return append([]db.Post{p}, river...)
		}
	}
	return river
}

// borrow fills an empty section from its donors' already-selected posts,
// falling back to a keyword-free union of every other rail.
func borrow(slug string, sections []db.Section, selected map[string][]db.Post, policy Policy) []db.Post {
	threshold := policy.Threshold(slug)

	var rule *BorrowRule
	for i := range policy.Borrow {
		if policy.Borrow[i].Section == slug {
			rule = &policy.Borrow[i]
			break
		}
	}

	if rule != nil {
		var pool []db.Post
		for _, donor := range rule.Donors {
			pool = append(pool, selected[donor]...)
		}
		sortByPriority(pool)
		borrowed := takeMatching(pool, rule.Keywords, threshold)
		if len(borrowed) > 0 {
			return borrowed
		}
	}

	// No rule hit; take the best of everything already on the site.
	var pool []db.Post
	for _, section := range sections {
		if section.Slug == slug {
			continue
		}
		pool = append(pool, selected[section.Slug]...)
	}
	sortByPriority(pool)
	return take(dedupe(pool), threshold)
}

func takeMatching(posts []db.Post, keywords []string, n int) []db.Post {
	if len(keywords) == 0 {
		return take(dedupe(posts), n)
	}
	var matched []db.Post
	for _, p := range dedupe(posts) {
		haystack := strings.ToLower(p.Title)
		if p.Summary != nil {
			haystack += " " + strings.ToLower(*p.Summary)
		}
		for _, kw := range keywords {
			if strings.Contains(haystack, kw) {
				matched = append(matched, p)
				break
			}
		}
	}
	return take(matched, n)
}

func dedupe(posts []db.Post) []db.Post {
	seen := make(map[int64]struct{}, len(posts))
	out := posts[:0:0]
	for _, p := range posts {
		if _, ok := seen[p.PostID]; ok {
			continue
		}
		seen[p.PostID] = struct{}{}
		out = append(out, p)
	}
	return out
}

func take(posts []db.Post, n int) []db.Post {
	if n >= len(posts) {
		return append([]db.Post(nil), posts...)
	}
	return append([]db.Post(nil), posts[:n]...)
}

// sortByPriority orders enriched long-form posts first, then newest first,
// breaking created_at ties by post id so the order is total.
func sortByPriority(posts []db.Post) {
	sort.SliceStable(posts, func(i, j int) bool {
		a, b := posts[i], posts[j]
		if a.HasLongForm() != b.HasLongForm() {
			return a.HasLongForm()
		}
		if !a.CreatedAt.Equal(b.CreatedAt) {
			return a.CreatedAt.After(b.CreatedAt)
		}
		return a.PostID > b.PostID
	})
}
