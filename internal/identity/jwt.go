package identity

import (
	"context"
	"fmt"

	"github.com/golang-jwt/jwt/v5"
)

// Claims are the access token claims the provider signs.
type Claims struct {
	Email        string   `json:"email"`
	UserMetadata metadata `json:"user_metadata"`
	jwt.RegisteredClaims
}

// JWTVerifier checks access tokens locally against the provider's HS256
// signing secret. No network call is made, so a revoked token stays valid
// until it expires.
type JWTVerifier struct {
	secret []byte
}

// NewJWTVerifier creates a verifier for tokens signed with secret.
func NewJWTVerifier(secret string) *JWTVerifier {
	return &JWTVerifier{secret: []byte(secret)}
}

// Resolve implements Provider.
func (v *JWTVerifier) Resolve(_ context.Context, token string) (*Identity, error) {
	if token == "" {
		return nil, ErrUnauthenticated
	}

	claims := &Claims{}
	parsed, err := jwt.ParseWithClaims(token, claims, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
		}
		return v.secret, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}), jwt.WithExpirationRequired())
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnauthenticated, err)
	}
	if !parsed.Valid || claims.Subject == "" {
		return nil, ErrUnauthenticated
	}

	return &Identity{
		ID:        claims.Subject,
		Email:     claims.Email,
		Name:      claims.UserMetadata.displayName(),
		AvatarURL: claims.UserMetadata.AvatarURL,
	}, nil
}
