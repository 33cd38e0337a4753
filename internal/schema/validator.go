package payloadschema

import (
	"bytes"
	_ "embed"
	"encoding/json"
	"fmt"
	"io"
	"net/url"
	"strings"
	"sync"

	"github.com/santhosh-tekuri/jsonschema/v5"

	"github.com/usfinancemoves/finwire/internal/ingest"
)

//go:embed candidate.schema.json
var candidateSchemaJSON string

// CandidatePayload is the external JSON shape accepted by the ingest-item
// command and any future push producers.
type CandidatePayload struct {
	Title          string   `json:"title"`
	Summary        string   `json:"summary,omitempty"`
	BodyText       string   `json:"body_text,omitempty"`
	SourceName     string   `json:"source_name"`
	SourceURL      string   `json:"source_url"`
	ImageURL       string   `json:"image_url,omitempty"`
	OriginType     string   `json:"origin_type,omitempty"`
	Tags           []string `json:"tags,omitempty"`
	ScrapedContent string   `json:"scraped_content,omitempty"`
	ArticleSlug    string   `json:"article_slug,omitempty"`
	CompanyName    string   `json:"company_name,omitempty"`
	FilingID       string   `json:"filing_id,omitempty"`
}

var (
	compileOnce       sync.Once
	compiledSchema    *jsonschema.Schema
	compiledSchemaErr error
)

// ValidateCandidatePayload checks the raw JSON against the schema and the
// semantic rules, returning the decoded payload on success.
func ValidateCandidatePayload(payload json.RawMessage) (*CandidatePayload, error) {
	value, err := decodeStrictJSON(payload)
	if err != nil {
		return nil, fmt.Errorf("decode payload JSON: %w", err)
	}

	schema, err := loadSchema()
	if err != nil {
		return nil, fmt.Errorf("load schema: %w", err)
	}

	if err := schema.Validate(value); err != nil {
		return nil, fmt.Errorf("schema validation failed: %w", err)
	}

	normalized, err := json.Marshal(value)
	if err != nil {
		return nil, fmt.Errorf("normalize payload JSON: %w", err)
	}

	var candidate CandidatePayload
	if err := json.Unmarshal(normalized, &candidate); err != nil {
		return nil, fmt.Errorf("unmarshal payload: %w", err)
	}

	if err := validateSemantics(&candidate); err != nil {
		return nil, err
	}

	return &candidate, nil
}

// ToCandidate converts a validated payload to the pipeline type.
func (p *CandidatePayload) ToCandidate() ingest.Candidate {
	return ingest.Candidate{
		Title:          p.Title,
		Summary:        p.Summary,
		Body:           p.BodyText,
		SourceName:     p.SourceName,
		SourceURL:      p.SourceURL,
		ImageURL:       p.ImageURL,
		Origin:         p.OriginType,
		SourceTags:     p.Tags,
		ScrapedContent: p.ScrapedContent,
		ArticleSlug:    p.ArticleSlug,
		CompanyName:    p.CompanyName,
		FilingID:       p.FilingID,
	}
}

func loadSchema() (*jsonschema.Schema, error) {
	compileOnce.Do(func() {
		compiler := jsonschema.NewCompiler()
		compiler.Draft = jsonschema.Draft2020
		compiler.AssertFormat = true

		if err := compiler.AddResource("candidate.schema.json", strings.NewReader(candidateSchemaJSON)); err != nil {
			compiledSchemaErr = fmt.Errorf("add schema resource: %w", err)
			return
		}

		schema, err := compiler.Compile("candidate.schema.json")
		if err != nil {
			compiledSchemaErr = fmt.Errorf("compile schema: %w", err)
			return
		}

		compiledSchema = schema
	})

	if compiledSchemaErr != nil {
		return nil, compiledSchemaErr
	}
	if compiledSchema == nil {
		return nil, fmt.Errorf("schema not initialized")
	}
	return compiledSchema, nil
}

func decodeStrictJSON(raw []byte) (any, error) {
	trimmed := bytes.TrimSpace(raw)
	if len(trimmed) == 0 {
		return nil, fmt.Errorf("payload is empty")
	}

	decoder := json.NewDecoder(bytes.NewReader(trimmed))
	decoder.UseNumber()

	var value any
	if err := decoder.Decode(&value); err != nil {
		return nil, err
	}

	if err := decoder.Decode(&struct{}{}); err != io.EOF {
		return nil, fmt.Errorf("payload contains trailing content")
	}

	return value, nil
}

func validateSemantics(candidate *CandidatePayload) error {
	if candidate == nil {
		return fmt.Errorf("payload is nil")
	}

	if strings.TrimSpace(candidate.Title) == "" {
		return fmt.Errorf("title must not be empty")
	}
	if strings.TrimSpace(candidate.SourceName) == "" {
		return fmt.Errorf("source_name must not be empty")
	}
	if err := validateHTTPURL("source_url", candidate.SourceURL); err != nil {
		return err
	}
	if candidate.ImageURL != "" {
		if err := validateHTTPURL("image_url", candidate.ImageURL); err != nil {
			return err
		}
	}
	if candidate.ScrapedContent == "" && candidate.ArticleSlug != "" {
		return fmt.Errorf("article_slug requires scraped_content")
	}
	return nil
}

func validateHTTPURL(field, raw string) error {
	parsed, err := url.Parse(raw)
	if err != nil {
		return fmt.Errorf("%s is not a valid URL: %w", field, err)
	}
	if parsed.Scheme != "http" && parsed.Scheme != "https" {
		return fmt.Errorf("%s must be an http(s) URL", field)
	}
	if parsed.Host == "" {
		return fmt.Errorf("%s must have a host", field)
	}
	return nil
}
