package ingest

import "testing"

func TestFingerprint_Deterministic(t *testing.T) {
	a := Fingerprint("https://example.com/story", "Acme buys Widget Co")
	b := Fingerprint("https://example.com/story", "Acme buys Widget Co")
	if a != b {
		t.Fatalf("expected identical fingerprints, got %q and %q", a, b)
	}
	if len(a) != 64 {
		t.Fatalf("expected 64 hex chars, got %d", len(a))
	}
}

func TestFingerprint_NormalizesCaseAndWhitespace(t *testing.T) {
	base := Fingerprint("https://example.com/story", "Acme buys Widget Co")

	variants := []struct {
		url   string
		title string
	}{
		{"HTTPS://EXAMPLE.COM/STORY", "ACME BUYS WIDGET CO"},
		{"  https://example.com/story  ", "Acme   buys\tWidget Co"},
		{"https://example.com/story", "\n Acme buys  Widget   Co \n"},
	}
	for _, v := range variants {
		if got := Fingerprint(v.url, v.title); got != base {
			t.Fatalf("expected %q/%q to normalize to the same fingerprint", v.url, v.title)
		}
	}
}

func TestFingerprint_DistinctInputsDiffer(t *testing.T) {
	a := Fingerprint("https://example.com/story", "Acme buys Widget Co")
	b := Fingerprint("https://example.com/story-2", "Acme buys Widget Co")
	c := Fingerprint("https://example.com/story", "Acme sells Widget Co")
	if a == b || a == c {
		t.Fatalf("expected distinct fingerprints, got a=%q b=%q c=%q", a, b, c)
	}
}
