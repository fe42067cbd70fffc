// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package middleware

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"inkpress/internal/identity"
	"inkpress/internal/models"
)

// contextKey is an unexported type for context keys to prevent collisions.
type contextKey string

const (
	// CallerKey is the context key for the resolved caller.
	CallerKey contextKey = "caller"

	// authErrKey carries the reason identity resolution failed, if it did.
	authErrKey contextKey = "auth-error"
)

// Caller is who is making the request: the provider identity and, once
// they have synced, the local user row with its permission flags.
type Caller struct {
	Identity *identity.Identity
	User     *models.User // nil until the first auth sync
}

// UserLookup finds the local mirror of a provider identity.
type UserLookup interface {
	FindByAuthID(ctx context.Context, authID string) (*models.User, error)
}

// Authenticate resolves the request's access token with the provider and
// loads the matching local user, on every request. Permission flags are
// never cached between requests. This middleware does NOT enforce
// authentication; a request without a valid token continues anonymously.
func Authenticate(p identity.Provider, users UserLookup) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token := identity.TokenFromRequest(r)
			if token == "" {
				next.ServeHTTP(w, r)
				return
			}

			id, err := p.Resolve(r.Context(), token)
			if err != nil {
				if !errors.Is(err, identity.ErrUnauthenticated) {
					slog.Warn("identity resolve failed", "error", err, "path", r.URL.Path)
				}
				ctx := context.WithValue(r.Context(), authErrKey, err)
				next.ServeHTTP(w, r.WithContext(ctx))
				return
			}

			user, err := users.FindByAuthID(r.Context(), id.ID)
			if err != nil {
				slog.Error("load caller user", "error", err, "auth_id", id.ID)
				WriteError(w, http.StatusInternalServerError, "internal server error")
				return
			}

			ctx := context.WithValue(r.Context(), CallerKey, &Caller{Identity: id, User: user})
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// RequireIdentity rejects requests without a provider identity. A local
// user is not required, which is what the auth sync endpoint needs.
// Must be applied after Authenticate.
func RequireIdentity(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if CallerFromCtx(r.Context()) == nil {
			denyAnonymous(w, r)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// RequireUser rejects requests from callers without a local user row.
func RequireUser(next http.Handler) http.Handler {
	return requireLocal(func(*models.User) bool { return true }, next)
}

// RequirePublisher returns 403 unless the caller may publish posts.
func RequirePublisher(next http.Handler) http.Handler {
	return requireLocal((*models.User).MayPublish, next)
}

// RequireAdmin returns 403 if the caller is not an admin.
func RequireAdmin(next http.Handler) http.Handler {
	return requireLocal(func(u *models.User) bool { return u.IsAdmin }, next)
}

func requireLocal(allowed func(*models.User) bool, next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		c := CallerFromCtx(r.Context())
		switch {
		case c == nil:
			denyAnonymous(w, r)
		case c.User == nil:
			WriteError(w, http.StatusForbidden, "user not synced")
		case !allowed(c.User):
			WriteError(w, http.StatusForbidden, "forbidden")
		default:
			next.ServeHTTP(w, r)
		}
	})
}

// denyAnonymous answers 503 when the provider could not be asked and 401
// otherwise.
func denyAnonymous(w http.ResponseWriter, r *http.Request) {
	if err, _ := r.Context().Value(authErrKey).(error); errors.Is(err, identity.ErrUnavailable) {
		WriteError(w, http.StatusServiceUnavailable, "auth provider unavailable")
		return
	}
	WriteError(w, http.StatusUnauthorized, "unauthorized")
}

// CallerFromCtx extracts the caller from the request context.
// Returns nil if the request is anonymous.
func CallerFromCtx(ctx context.Context) *Caller {
	c, _ := ctx.Value(CallerKey).(*Caller)
	return c
}

// UserFromCtx returns the caller's local user, or nil.
func UserFromCtx(ctx context.Context) *models.User {
	if c := CallerFromCtx(ctx); c != nil {
		return c.User
	}
	return nil
}

// WithCaller returns a copy of ctx carrying c. Used by tests and by
// handlers that have just created the caller's local user.
func WithCaller(ctx context.Context, c *Caller) context.Context {
	return context.WithValue(ctx, CallerKey, c)
}

// WriteError writes a JSON error body with the given status.
func WriteError(w http.ResponseWriter, status int, msg string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(map[string]string{"error": msg})
}
