package ingest

import (
	"strings"
	"testing"
)

func TestClassify_Sections(t *testing.T) {
	cases := []struct {
		name  string
		title string
		body  string
		want  string
	}{
		{"merger lands in ma", "Acme announces merger with Widget Co", "", SectionMA},
		{"buyout lands in lbo", "Blackstone leads buyout of logistics firm", "", SectionLBO},
		{"antitrust lands in reg", "FTC opens antitrust probe into platform fees", "", SectionReg},
		{"talks land in rumor", "Acme reportedly in talks to sell unit", "", SectionRumor},
		{"default is cap", "Treasury yields edge higher ahead of auction", "", SectionCap},
		{"body text counts", "Quiet Tuesday for stocks", "regulators opened an antitrust probe", SectionReg},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got, _ := Classify(tc.title, tc.body, nil)
			if got != tc.want {
				t.Fatalf("Classify(%q) section = %q, want %q", tc.title, got, tc.want)
			}
		})
	}
}

func TestClassify_RumorWinsOverMA(t *testing.T) {
	// "in talks" plus "acquisition": the rumor rule is evaluated first.
	got, _ := Classify("Acme in talks over acquisition of Widget Co", "", nil)
	if got != SectionRumor {
		t.Fatalf("expected rumor, got %q", got)
	}
}

func TestClassify_TagsCappedAtFive(t *testing.T) {
	sourceTags := []string{"one", "two", "three", "four"}
	body := "merger private equity antitrust crypto ipo bond activist earnings"
	_, tags := Classify("busy day", body, sourceTags)
	if len(tags) != 5 {
		t.Fatalf("expected 5 tags, got %d: %v", len(tags), tags)
	}
	// Source tags keep their position ahead of vocabulary hits.
	for i, want := range sourceTags {
		if tags[i] != want {
			t.Fatalf("expected tags[%d]=%q, got %q", i, want, tags[i])
		}
	}
}

func TestClassify_TagsNormalizedAndDeduped(t *testing.T) {
	_, tags := Classify("Acme merger announced", "", []string{" M&A ", "m&a", ""})
	if len(tags) != 1 {
		t.Fatalf("expected 1 tag after dedupe, got %v", tags)
	}
	if tags[0] != "m&a" {
		t.Fatalf("expected lowercase trimmed tag, got %q", tags[0])
	}
}

func TestClassify_Deterministic(t *testing.T) {
	title := "KKR weighs buyout as regulators circle"
	first, firstTags := Classify(title, "", []string{"deals"})
	for i := 0; i < 10; i++ {
		section, tags := Classify(title, "", []string{"deals"})
		if section != first {
			t.Fatalf("section changed between runs: %q vs %q", section, first)
		}
		if strings.Join(tags, ",") != strings.Join(firstTags, ",") {
			t.Fatalf("tags changed between runs: %v vs %v", tags, firstTags)
		}
	}
}
