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

var (
	// ErrRateLimited signals the platform throttled the request.
	ErrRateLimited = errors.New("social API rate limited")
	// ErrUnauthorized signals the API token was rejected. Retrying cannot
	// help until configuration changes.
	ErrUnauthorized = errors.New("social API token rejected")
)

// Poster publishes announcement texts to the social platform.
type Poster struct {
	apiURL string
	token  string
	client *http.Client
}

func NewPoster(apiURL, token string, timeout time.Duration) *Poster {
	return &Poster{
		apiURL: apiURL,
		token:  token,
		client: &http.Client{Timeout: timeout},
	}
}

type postRequest struct {
	Text string `json:"text"`
}

type postResponse struct {
	Data struct {
		ID string `json:"id"`
	} `json:"data"`
}

// Post publishes the text and returns the platform-assigned id.
func (p *Poster) Post(ctx context.Context, text string) (string, error) {
	body, err := json.Marshal(postRequest{Text: text})
	if err != nil {
		return "", fmt.Errorf("marshal social request: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, p.apiURL, bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("build social request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+p.token)

	resp, err := p.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("social request: %w", err)
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusTooManyRequests:
		return "", ErrRateLimited
	case resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden:
		return "", ErrUnauthorized
	case resp.StatusCode < 200 || resp.StatusCode > 299:
		snippet, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return "", fmt.Errorf("social API returned %d: %s", resp.StatusCode, snippet)
	}

	var parsed postResponse
	if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
		return "", fmt.Errorf("decode social response: %w", err)
	}
	return parsed.Data.ID, nil
}
