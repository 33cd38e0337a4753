package ingest

import "testing"

func TestFilingChange(t *testing.T) {
	change := FilingChange{}
	if change.IsMateriallyNew(Candidate{CompanyName: "Acme"}) {
		t.Fatalf("candidate without filing id should not be materially new")
	}
	if !change.IsMateriallyNew(Candidate{CompanyName: "Acme", FilingID: "0001193125-26-001234"}) {
		t.Fatalf("candidate with filing id should be materially new")
	}
}
