// Package identity resolves bearer tokens issued by the external auth
// provider into caller identities. Nothing here knows about local users
// or permission flags.
package identity

import (
	"context"
	"errors"
	"net/http"
	"strings"
)

// CookieName is the cookie the provider's browser client stores the
// access token in.
const CookieName = "sb-access-token"

var (
	// ErrUnauthenticated means the token is missing, malformed, expired or
	// rejected by the provider.
	ErrUnauthenticated = errors.New("identity: unauthenticated")

	// ErrUnavailable means the provider could not be reached or answered
	// with something other than a verdict on the token.
	ErrUnavailable = errors.New("identity: provider unavailable")
)

// Identity is the caller as the auth provider sees them.
type Identity struct {
	ID        string
	Email     string
	Name      string
	AvatarURL string
}

// Provider resolves an access token to an Identity. Implementations must
// return an error wrapping ErrUnauthenticated for bad tokens.
type Provider interface {
	Resolve(ctx context.Context, token string) (*Identity, error)
}

// TokenFromRequest extracts the access token from the Authorization
// header, falling back to the provider cookie. Returns "" if neither is
// present.
func TokenFromRequest(r *http.Request) string {
	if h := r.Header.Get("Authorization"); h != "" {
		scheme, token, ok := strings.Cut(h, " ")
		if ok && strings.EqualFold(scheme, "Bearer") {
			return strings.TrimSpace(token)
		}
		return ""
	}
	if c, err := r.Cookie(CookieName); err == nil {
		return c.Value
	}
	return ""
}

// metadata is the subset of provider user metadata the app reads.
type metadata struct {
	Name      string `json:"name"`
	FullName  string `json:"full_name"`
	AvatarURL string `json:"avatar_url"`
}

func (m metadata) displayName() string {
	if m.Name != "" {
		return m.Name
	}
	return m.FullName
}
