package delivery

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"
)

// ErrBadSecret is returned when the site rejects the shared revalidation
// secret. Retrying cannot help until configuration changes.
var ErrBadSecret = errors.New("revalidation secret rejected")

// Revalidator asks the web front end to drop its cached render of the given
// paths.
type Revalidator struct {
	url    string
	secret string
	client *http.Client
}

func NewRevalidator(url, secret string, timeout time.Duration) *Revalidator {
	return &Revalidator{
		url:    url,
		secret: secret,
		client: &http.Client{Timeout: timeout},
	}
}

type revalidateRequest struct {
	Paths  []string `json:"paths"`
	Secret string   `json:"secret"`
}

type revalidateResponse struct {
	Revalidated []string `json:"revalidated"`
}

// Revalidate posts the paths to the site and returns the subset the site
// reports as refreshed.
func (r *Revalidator) Revalidate(ctx context.Context, paths []string) ([]string, error) {
	if r.url == "" {
		return nil, errors.New("revalidate URL not configured")
	}
	body, err := json.Marshal(revalidateRequest{Paths: paths, Secret: r.secret})
	if err != nil {
		return nil, fmt.Errorf("marshal revalidate request: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, r.url, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("build revalidate request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := r.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("revalidate request: %w", err)
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden:
		return nil, ErrBadSecret
	case resp.StatusCode < 200 || resp.StatusCode > 299:
		snippet, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return nil, fmt.Errorf("revalidate returned %d: %s", resp.StatusCode, snippet)
	}

	var parsed revalidateResponse
	if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
		return nil, fmt.Errorf("decode revalidate response: %w", err)
	}
	return parsed.Revalidated, nil
}
