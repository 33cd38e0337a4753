package ingest

import "strings"

// Section slugs. Every post lands in exactly one; capital-markets is the
// catch-all for anything the rules do not match.
const (
	SectionMA    = "ma"
	SectionLBO   = "lbo"
	SectionReg   = "reg"
	SectionCap   = "cap"
	SectionRumor = "rumor"
)

const maxTags = 5

type sectionRule struct {
	slug     string
	keywords []string
}

// Rules are evaluated in order and the first hit wins, so the more specific
// sections must precede the broad ones.
var sectionRules = []sectionRule{
	{SectionRumor, []string{
		"rumor", "rumour", "reportedly", "in talks", "exploring sale",
		"weighs sale", "weighing", "mulls", "sources say", "people familiar",
		"takeover speculation", "bid speculation",
	}},
	{SectionLBO, []string{
		"private equity", "buyout", "leveraged buyout", "lbo", "take-private",
		"take private", "pe firm", "sponsor-backed", "portfolio company",
		"carve-out", "carveout", "kkr", "blackstone", "carlyle", "apollo",
		"tpg", "bain capital", "thoma bravo", "vista equity", "silver lake",
	}},
	{SectionMA, []string{
		"merger", "acquisition", "acquires", "acquire", "to buy", "takeover",
		"tender offer", "all-cash deal", "all-stock deal", "combines with",
		"merges with", "deal valued", "buys stake", "majority stake",
	}},
	{SectionReg, []string{
		"antitrust", "regulator", "regulatory", "ftc", "doj", "sec charges",
		"sec settles", "cfius", "european commission", "competition authority",
		"probe", "investigation", "lawsuit", "settlement", "consent decree",
		"blocks deal", "clearance", "approval",
	}},
}

// Tag vocabulary, also ordered. A post keeps at most maxTags tags; feed-level
// tags come first, then vocabulary hits in rule order.
var tagRules = []sectionRule{
	{"m&a", []string{"merger", "acquisition", "acquires", "takeover", "tender offer"}},
	{"private-equity", []string{"private equity", "buyout", "lbo", "sponsor", "portfolio company"}},
	{"regulation", []string{"antitrust", "regulator", "ftc", "doj", "cfius", "sec charges"}},
	{"crypto", []string{"crypto", "bitcoin", "ethereum", "stablecoin", "token"}},
	{"ipo", []string{"ipo", "public offering", "lists on", "direct listing"}},
	{"debt", []string{"bond", "notes offering", "high-yield", "refinanc", "term loan"}},
	{"activist", []string{"activist", "proxy fight", "board seat", "stake builds"}},
	{"earnings", []string{"earnings", "quarterly results", "guidance", "profit warning"}},
}

// Classify assigns a section slug and a bounded tag list from the title and
// body text. Classification is deterministic for a given input.
func Classify(title, body string, sourceTags []string) (string, []string) {
	haystack := strings.ToLower(title + " " + body)

	slug := SectionCap
	for _, rule := range sectionRules {
		if containsAny(haystack, rule.keywords) {
			slug = rule.slug
			break
		}
	}

	tags := make([]string, 0, maxTags)
	seen := make(map[string]struct{}, maxTags)
	add := func(tag string) {
		tag = strings.ToLower(strings.TrimSpace(tag))
		if tag == "" || len(tags) >= maxTags {
			return
		}
		if _, ok := seen[tag]; ok {
			return
		}
		seen[tag] = struct{}{}
		tags = append(tags, tag)
	}
	for _, tag := range sourceTags {
		add(tag)
	}
	for _, rule := range tagRules {
		if containsAny(haystack, rule.keywords) {
			add(rule.slug)
		}
	}
	return slug, tags
}

func containsAny(haystack string, keywords []string) bool {
	for _, kw := range keywords {
		if strings.Contains(haystack, kw) {
			return true
		}
	}
	return false
}
