package ai

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
)

// Response bodies are read up to this size; error bodies are quoted up to
// errBodyQuote bytes.
const (
	maxResponseBody = 1 << 20
	errBodyQuote    = 512
)

// APIError is a non-200 answer from an image API.
type APIError struct {
	Provider string
	Status   int
	Body     string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("%s API error (status %d): %s", e.Provider, e.Status, e.Body)
}

// Permanent reports whether retrying err is pointless: no provider is
// configured, or the API rejected the request itself. Rate limiting and
// server errors are not permanent.
func Permanent(err error) bool {
	if errors.Is(err, ErrNoProvider) {
		return true
	}
	var apiErr *APIError
	if !errors.As(err, &apiErr) {
		return false
	}
	switch apiErr.Status {
	case http.StatusRequestTimeout, http.StatusTooManyRequests:
		return false
	}
	return apiErr.Status >= 400 && apiErr.Status < 500
}

// postJSON sends body as JSON with a bearer key and decodes a 200 response
// into out. Other statuses become an *APIError.
func postJSON(ctx context.Context, client *http.Client, provider, url, apiKey string, body, out any) error {
	payload, err := json.Marshal(body)
	if err != nil {
		return fmt.Errorf("%s marshal: %w", provider, err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(payload))
	if err != nil {
		return fmt.Errorf("%s request: %w", provider, err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+apiKey)

	resp, err := client.Do(req)
	if err != nil {
		return fmt.Errorf("%s http: %w", provider, err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBody))
	if err != nil {
		return fmt.Errorf("%s read body: %w", provider, err)
	}

	if resp.StatusCode != http.StatusOK {
		quoted := respBody
		if len(quoted) > errBodyQuote {
			quoted = quoted[:errBodyQuote]
		}
		return &APIError{Provider: provider, Status: resp.StatusCode, Body: string(quoted)}
	}

	if err := json.Unmarshal(respBody, out); err != nil {
		return fmt.Errorf("%s unmarshal: %w", provider, err)
	}
	return nil
}
