package identity

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

// RemoteProvider asks the auth provider's user endpoint about every token.
// Revocations take effect immediately at the cost of one round-trip per
// request.
type RemoteProvider struct {
	baseURL string
	apiKey  string
	client  *http.Client
}

// NewRemoteProvider creates a provider that calls {baseURL}/auth/v1/user.
func NewRemoteProvider(baseURL, apiKey string) *RemoteProvider {
	return &RemoteProvider{
		baseURL: strings.TrimRight(baseURL, "/"),
		apiKey:  apiKey,
		client:  &http.Client{Timeout: 10 * time.Second},
	}
}

type remoteUser struct {
	ID           string   `json:"id"`
	Email        string   `json:"email"`
	UserMetadata metadata `json:"user_metadata"`
}

// Resolve implements Provider.
func (p *RemoteProvider) Resolve(ctx context.Context, token string) (*Identity, error) {
	if token == "" {
		return nil, ErrUnauthenticated
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, p.baseURL+"/auth/v1/user", nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+token)
	req.Header.Set("apikey", p.apiKey)

	resp, err := p.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return nil, fmt.Errorf("%w: read response: %v", ErrUnavailable, err)
	}

	switch {
	case resp.StatusCode == http.StatusUnauthorized, resp.StatusCode == http.StatusForbidden:
		return nil, ErrUnauthenticated
	case resp.StatusCode != http.StatusOK:
		return nil, fmt.Errorf("%w: auth API error (status %d): %s", ErrUnavailable, resp.StatusCode, string(body))
	}

	var u remoteUser
	if err := json.Unmarshal(body, &u); err != nil {
		return nil, fmt.Errorf("%w: parse response: %v", ErrUnavailable, err)
	}
	if u.ID == "" {
		return nil, ErrUnauthenticated
	}

	return &Identity{
		ID:        u.ID,
		Email:     u.Email,
		Name:      u.UserMetadata.displayName(),
		AvatarURL: u.UserMetadata.AvatarURL,
	}, nil
}
