package selection

import "time"

// BorrowRule describes how an empty section may borrow adjacent coverage.
// Donor posts must match one of the keywords; rules with no keywords accept
// any donor post.
type BorrowRule struct {
	Section  string
	Donors   []string
	Keywords []string
}

// Policy holds every knob of the selection algorithm. A Policy value plus a
// post set plus a clock reading fully determines the output.
type Policy struct {
	// Thresholds is the per-section target count; sections not listed use
	// DefaultThreshold.
	Thresholds       map[string]int
	DefaultThreshold int

	HomepageLimit int

	// FreshWindow is the age below which posts fill sections outright.
	// FallbackWindow bounds the first backfill pass; posts older still are
	// used only when both windows run dry.
	FreshWindow    time.Duration
	FallbackWindow time.Duration

	// PrioritySource, when set, pins that source's newest post to the top
	// of the homepage.
	PrioritySource string

	Borrow []BorrowRule
}

// Threshold returns the target count for a section.
func (p Policy) Threshold(slug string) int {
	if n, ok := p.Thresholds[slug]; ok {
		return n
	}
	return p.DefaultThreshold
}

// DefaultPolicy mirrors the production site layout: small themed rails and a
// thirty-post homepage river.
func DefaultPolicy() Policy {
	return Policy{
		Thresholds: map[string]int{
			"ma":    3,
			"lbo":   3,
			"reg":   3,
			"cap":   5,
			"rumor": 2,
		},
		DefaultThreshold: 3,
		HomepageLimit:    30,
		FreshWindow:      2 * time.Hour,
		FallbackWindow:   7 * 24 * time.Hour,
		PrioritySource:   "Bloomberg",
		Borrow: []BorrowRule{
			{Section: "lbo", Donors: []string{"ma"}, Keywords: []string{"private equity", "buyout", "sponsor", "take-private"}},
			{Section: "ma", Donors: []string{"lbo"}, Keywords: []string{"acquisition", "merger", "deal", "takeover"}},
			{Section: "reg", Donors: []string{"ma", "lbo"}, Keywords: []string{"antitrust", "regulator", "probe", "approval"}},
			{Section: "rumor", Donors: []string{"ma", "cap"}, Keywords: []string{"talks", "reportedly", "exploring", "weighs"}},
		},
	}
}
