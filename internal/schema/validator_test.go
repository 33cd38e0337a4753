package payloadschema

import (
	"encoding/json"
	"testing"
)

func TestValidateCandidatePayload_Valid(t *testing.T) {
	payload := json.RawMessage(`{
		"title":"Acme agrees to buy Widget Co",
		"summary":"All-cash deal valued at $2 billion.",
		"source_name":"PE Wire",
		"source_url":"https://example.com/acme-widget",
		"origin_type":"PEWIRE",
		"tags":["deals"],
		"scraped_content":"Full rewritten article body.",
		"article_slug":"acme-agrees-to-buy-widget-co",
		"company_name":"Acme"
	}`)

	candidate, err := ValidateCandidatePayload(payload)
	if err != nil {
		t.Fatalf("expected payload to be valid, got error: %v", err)
	}
	if candidate.SourceName != "PE Wire" {
		t.Fatalf("expected source_name=PE Wire, got %q", candidate.SourceName)
	}
	if candidate.OriginType != "PEWIRE" {
		t.Fatalf("expected origin_type=PEWIRE, got %q", candidate.OriginType)
	}

	converted := candidate.ToCandidate()
	if converted.Title != candidate.Title || converted.CompanyName != "Acme" {
		t.Fatalf("conversion dropped fields: %+v", converted)
	}
}

func TestValidateCandidatePayload_MissingRequired(t *testing.T) {
	payload := json.RawMessage(`{
		"title":"Missing source fields"
	}`)
	if _, err := ValidateCandidatePayload(payload); err == nil {
		t.Fatalf("expected validation to fail for missing source_name and source_url")
	}
}

func TestValidateCandidatePayload_BadURL(t *testing.T) {
	payload := json.RawMessage(`{
		"title":"Bad URL",
		"source_name":"Manual",
		"source_url":"ftp://example.com/file"
	}`)
	if _, err := ValidateCandidatePayload(payload); err == nil {
		t.Fatalf("expected validation to fail for non-http URL")
	}
}

func TestValidateCandidatePayload_BadOrigin(t *testing.T) {
	payload := json.RawMessage(`{
		"title":"Bad origin",
		"source_name":"Manual",
		"source_url":"https://example.com/x",
		"origin_type":"TELEGRAPH"
	}`)
	if _, err := ValidateCandidatePayload(payload); err == nil {
		t.Fatalf("expected validation to fail for unknown origin_type")
	}
}

func TestValidateCandidatePayload_SlugRequiresContent(t *testing.T) {
	payload := json.RawMessage(`{
		"title":"Slug without content",
		"source_name":"Manual",
		"source_url":"https://example.com/x",
		"article_slug":"slug-without-content"
	}`)
	if _, err := ValidateCandidatePayload(payload); err == nil {
		t.Fatalf("expected validation to fail when article_slug has no scraped_content")
	}
}

func TestValidateCandidatePayload_TrailingContent(t *testing.T) {
	payload := json.RawMessage(`{"title":"x","source_name":"y","source_url":"https://example.com"} {"extra":true}`)
	if _, err := ValidateCandidatePayload(payload); err == nil {
		t.Fatalf("expected validation to fail for trailing JSON")
	}
}

func TestValidateCandidatePayload_UnknownField(t *testing.T) {
	payload := json.RawMessage(`{
		"title":"x",
		"source_name":"y",
		"source_url":"https://example.com",
		"unexpected_field":true
	}`)
	if _, err := ValidateCandidatePayload(payload); err == nil {
		t.Fatalf("expected validation to fail for unknown field")
	}
}
