package selection

import (
	"fmt"
	"testing"
	"time"

	"github.com/usfinancemoves/finwire/internal/db"
)

var testNow = time.Date(2026, 9, 1, 12, 0, 0, 0, time.UTC)

func testSections() []db.Section {
	return []db.Section{
		{Slug: "ma", Name: "Mergers & Acquisitions"},
		{Slug: "lbo", Name: "Private Equity & LBOs"},
		{Slug: "reg", Name: "Regulation & Enforcement"},
		{Slug: "cap", Name: "Capital Markets"},
		{Slug: "rumor", Name: "Deal Rumors"},
	}
}

type postSpec struct {
	id       int64
	title    string
	section  string
	source   string
	age      time.Duration
	enriched bool
	hidden   bool
}

func buildPosts(specs []postSpec) []db.Post {
	posts := make([]db.Post, 0, len(specs))
	for _, spec := range specs {
		post := db.Post{
			PostID:      spec.id,
			Title:       spec.title,
			SectionSlug: spec.section,
			SourceName:  spec.source,
			Status:      db.PostStatusPublished,
			CreatedAt:   testNow.Add(-spec.age),
		}
		if spec.title == "" {
			post.Title = fmt.Sprintf("post %d", spec.id)
		}
		if spec.source == "" {
			post.SourceName = "MarketWatch"
		}
		if spec.enriched {
			content := "long form body"
			post.ScrapedContent = &content
		}
		if spec.hidden {
			post.Status = db.PostStatusHidden
		}
		posts = append(posts, post)
	}
	return posts
}

func TestSelect_ThresholdFromFresh(t *testing.T) {
	posts := buildPosts([]postSpec{
		{id: 1, section: "ma", age: 10 * time.Minute},
		{id: 2, section: "ma", age: 20 * time.Minute},
		{id: 3, section: "ma", age: 30 * time.Minute},
		{id: 4, section: "ma", age: 40 * time.Minute},
	})
	result := Select(posts, testSections(), DefaultPolicy(), testNow)

	ma := result.Sections["ma"]
	if len(ma) != 3 {
		t.Fatalf("expected ma threshold of 3, got %d", len(ma))
	}
	// Newest first.
	if ma[0].PostID != 1 || ma[1].PostID != 2 || ma[2].PostID != 3 {
		t.Fatalf("unexpected order: %d %d %d", ma[0].PostID, ma[1].PostID, ma[2].PostID)
	}
}

func TestSelect_FallbackBackfill(t *testing.T) {
	posts := buildPosts([]postSpec{
		{id: 1, section: "reg", age: 30 * time.Minute},
		{id: 2, section: "reg", age: 3 * 24 * time.Hour},
		{id: 3, section: "reg", age: 5 * 24 * time.Hour},
	})
	result := Select(posts, testSections(), DefaultPolicy(), testNow)

	reg := result.Sections["reg"]
	if len(reg) != 3 {
		t.Fatalf("expected backfill to 3, got %d", len(reg))
	}
	if reg[0].PostID != 1 {
		t.Fatalf("fresh post must lead, got %d", reg[0].PostID)
	}
}

func TestSelect_StaleFillWhenWindowsDry(t *testing.T) {
	posts := buildPosts([]postSpec{
		{id: 1, section: "cap", age: 30 * 24 * time.Hour},
		{id: 2, section: "cap", age: 40 * 24 * time.Hour},
	})
	result := Select(posts, testSections(), DefaultPolicy(), testNow)

	cap := result.Sections["cap"]
	if len(cap) != 2 {
		t.Fatalf("old posts must still fill an otherwise empty section, got %d", len(cap))
	}
}

func TestSelect_EnrichedFirst(t *testing.T) {
	posts := buildPosts([]postSpec{
		{id: 1, section: "ma", age: 5 * time.Minute},
		{id: 2, section: "ma", age: 90 * time.Minute, enriched: true},
		{id: 3, section: "ma", age: 50 * time.Minute},
	})
	result := Select(posts, testSections(), DefaultPolicy(), testNow)

	ma := result.Sections["ma"]
	if ma[0].PostID != 2 {
		t.Fatalf("enriched post must lead even when older, got %d", ma[0].PostID)
	}
}

func TestSelect_HiddenExcluded(t *testing.T) {
	posts := buildPosts([]postSpec{
		{id: 1, section: "ma", age: 10 * time.Minute, hidden: true},
		{id: 2, section: "ma", age: 20 * time.Minute},
	})
	result := Select(posts, testSections(), DefaultPolicy(), testNow)

	for _, p := range result.Sections["ma"] {
		if p.PostID == 1 {
			t.Fatalf("hidden post leaked into selection")
		}
	}
	for _, p := range result.Homepage {
		if p.PostID == 1 {
			t.Fatalf("hidden post leaked into homepage")
		}
	}
}

func TestSelect_HomepagePinsPrioritySource(t *testing.T) {
	specs := []postSpec{
		{id: 1, section: "cap", age: 5 * time.Minute},
		{id: 2, section: "cap", age: 10 * time.Minute},
		{id: 3, section: "ma", source: "Bloomberg", age: 30 * time.Minute},
		{id: 4, section: "ma", source: "Bloomberg", age: 60 * time.Minute},
	}
	result := Select(buildPosts(specs), testSections(), DefaultPolicy(), testNow)

	if len(result.Homepage) == 0 {
		t.Fatalf("expected a homepage")
	}
	if result.Homepage[0].PostID != 3 {
		t.Fatalf("newest Bloomberg post must lead, got %d", result.Homepage[0].PostID)
	}
	// Remaining posts keep standard order.
	if result.Homepage[1].PostID != 1 {
		t.Fatalf("second slot must be the newest non-pinned post, got %d", result.Homepage[1].PostID)
	}
}

func TestSelect_HomepageLimit(t *testing.T) {
	var specs []postSpec
	for i := int64(1); i <= 50; i++ {
		specs = append(specs, postSpec{id: i, section: "cap", age: time.Duration(i) * time.Minute})
	}
	policy := DefaultPolicy()
	result := Select(buildPosts(specs), testSections(), policy, testNow)

	if len(result.Homepage) != policy.HomepageLimit {
		t.Fatalf("expected homepage of %d, got %d", policy.HomepageLimit, len(result.Homepage))
	}
}

func TestSelect_BorrowForEmptySection(t *testing.T) {
	posts := buildPosts([]postSpec{
		{id: 1, title: "Sponsor weighs buyout of retailer", section: "ma", age: 10 * time.Minute},
		{id: 2, title: "Acme merger clears vote", section: "ma", age: 20 * time.Minute},
		{id: 3, title: "Bond sale prices wide", section: "cap", age: 15 * time.Minute},
	})
	result := Select(posts, testSections(), DefaultPolicy(), testNow)

	lbo := result.Sections["lbo"]
	if len(lbo) == 0 {
		t.Fatalf("empty lbo section must borrow")
	}
	if lbo[0].PostID != 1 {
		t.Fatalf("borrow must prefer keyword matches, got %d", lbo[0].PostID)
	}
}

func TestSelect_BorrowFallsBackToUnion(t *testing.T) {
	// No rumor keywords anywhere, so rumor borrows from the union.
	posts := buildPosts([]postSpec{
		{id: 1, title: "Acme merger clears vote", section: "ma", age: 10 * time.Minute},
		{id: 2, title: "Bond sale prices wide", section: "cap", age: 20 * time.Minute},
	})
	result := Select(posts, testSections(), DefaultPolicy(), testNow)

	if len(result.Sections["rumor"]) == 0 {
		t.Fatalf("rumor must borrow from the union when keywords miss")
	}
}

func TestSelect_Deterministic(t *testing.T) {
	var specs []postSpec
	for i := int64(1); i <= 40; i++ {
		specs = append(specs, postSpec{
			id:       i,
			section:  []string{"ma", "lbo", "reg", "cap", "rumor"}[i%5],
			age:      time.Duration(i%7) * time.Hour,
			enriched: i%3 == 0,
		})
	}
	posts := buildPosts(specs)
	sections := testSections()
	policy := DefaultPolicy()

	first := Select(posts, sections, policy, testNow)
	for run := 0; run < 5; run++ {
		again := Select(posts, sections, policy, testNow)
		if len(again.Homepage) != len(first.Homepage) {
			t.Fatalf("homepage length changed between runs")
		}
		for i := range first.Homepage {
			if again.Homepage[i].PostID != first.Homepage[i].PostID {
				t.Fatalf("homepage order changed at %d", i)
			}
		}
		for slug, sel := range first.Sections {
			other := again.Sections[slug]
			if len(other) != len(sel) {
				t.Fatalf("section %s length changed", slug)
			}
			for i := range sel {
				if other[i].PostID != sel[i].PostID {
					t.Fatalf("section %s order changed at %d", slug, i)
				}
			}
		}
	}
}

func TestSelect_TiebreakByPostID(t *testing.T) {
	same := testNow.Add(-10 * time.Minute)
	posts := []db.Post{
		{PostID: 1, Title: "a", SectionSlug: "cap", SourceName: "X", Status: db.PostStatusPublished, CreatedAt: same},
		{PostID: 2, Title: "b", SectionSlug: "cap", SourceName: "X", Status: db.PostStatusPublished, CreatedAt: same},
	}
	result := Select(posts, testSections(), DefaultPolicy(), testNow)
	cap := result.Sections["cap"]
	if cap[0].PostID != 2 {
		t.Fatalf("equal timestamps must order by post id desc, got %d first", cap[0].PostID)
	}
}
