package handlers

import (
	"context"
	"log/slog"
	"net/http"
	"strings"

	"github.com/google/uuid"

	"inkpress/internal/identity"
	"inkpress/internal/middleware"
	"inkpress/internal/models"
	"inkpress/internal/store"
)

// UserSyncStore is the user persistence used by AuthSync.
type UserSyncStore interface {
	Sync(ctx context.Context, nu store.NewUser) (*models.User, error)
	UpdateProfile(ctx context.Context, id uuid.UUID, p models.ProfilePatch) (*models.User, error)
}

// AuthSync mirrors provider identities into local users and lets them
// manage their own profile.
type AuthSync struct {
	store       UserSyncStore
	adminEmails map[string]bool
}

// NewAuthSync creates the auth sync handlers. Users whose e-mail is in
// adminEmails are created as admins with publish rights.
func NewAuthSync(s UserSyncStore, adminEmails []string) *AuthSync {
	set := make(map[string]bool, len(adminEmails))
	for _, e := range adminEmails {
		if e = strings.ToLower(strings.TrimSpace(e)); e != "" {
			set[e] = true
		}
	}
	return &AuthSync{store: s, adminEmails: set}
}

// Sync creates the caller's local user on first call and refreshes its
// e-mail afterwards.
func (h *AuthSync) Sync(w http.ResponseWriter, r *http.Request) {
	id := middleware.CallerFromCtx(r.Context()).Identity

	nu := store.NewUser{
		AuthID: id.ID,
		Email:  id.Email,
		Name:   displayName(id),
	}
	if id.AvatarURL != "" {
		avatar := id.AvatarURL
		nu.Avatar = &avatar
	}
	if h.adminEmails[strings.ToLower(id.Email)] {
		nu.IsAdmin = true
		nu.CanPublish = true
	}

	u, err := h.store.Sync(r.Context(), nu)
	if err != nil {
		serverError(w, r, "sync user", err)
		return
	}
	if u.CreatedAt.Equal(u.UpdatedAt) {
		slog.Info("user created from identity", "user_id", u.ID, "is_admin", u.IsAdmin)
	}
	writeJSON(w, http.StatusOK, u)
}

// Me returns the caller's local user, or 404 if they have not synced yet.
func (h *AuthSync) Me(w http.ResponseWriter, r *http.Request) {
	u := middleware.UserFromCtx(r.Context())
	if u == nil {
		writeError(w, http.StatusNotFound, "user not synced")
		return
	}
	writeJSON(w, http.StatusOK, u)
}

// UpdateProfile changes the caller's name, bio or avatar.
func (h *AuthSync) UpdateProfile(w http.ResponseWriter, r *http.Request) {
	u := middleware.UserFromCtx(r.Context())
	if u == nil {
		writeError(w, http.StatusNotFound, "user not synced")
		return
	}

	var req profileRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	if err := req.Validate(); err != nil {
		invalid(w, r, err)
		return
	}

	updated, err := h.store.UpdateProfile(r.Context(), u.ID, models.ProfilePatch{
		Name:   req.Name,
		Bio:    req.Bio,
		Avatar: req.Avatar,
	})
	if err != nil {
		storeError(w, r, "update profile", err)
		return
	}
	writeJSON(w, http.StatusOK, updated)
}

// displayName is the provider's display name, falling back to the local
// part of the e-mail address.
func displayName(id *identity.Identity) string {
	if n := strings.TrimSpace(id.Name); n != "" {
		return n
	}
	local, _, _ := strings.Cut(id.Email, "@")
	return local
}
