// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package handlers

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/google/uuid"

	"inkpress/internal/middleware"
	"inkpress/internal/models"
)

// UserAdminStore is the user persistence used by the admin back office.
type UserAdminStore interface {
	List(ctx context.Context) ([]models.UserSummary, error)
	UpdateFlags(ctx context.Context, id uuid.UUID, f models.UserFlags) (*models.User, error)
	Delete(ctx context.Context, id uuid.UUID) error
}

// AdminUsers serves user management for admins.
type AdminUsers struct {
	store UserAdminStore
}

// NewAdminUsers creates the admin user handlers.
func NewAdminUsers(s UserAdminStore) *AdminUsers {
	return &AdminUsers{store: s}
}

// List returns every user, newest first, with their post and comic counts.
func (h *AdminUsers) List(w http.ResponseWriter, r *http.Request) {
	users, err := h.store.List(r.Context())
	if err != nil {
		serverError(w, r, "list users", err)
		return
	}
	writeJSON(w, http.StatusOK, users)
}

// Update changes a user's permission flags. Flags absent from the body are
// left as they are.
func (h *AdminUsers) Update(w http.ResponseWriter, r *http.Request) {
	var req userFlagsRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	if err := req.Validate(); err != nil {
		invalid(w, r, err)
		return
	}
	id := uuid.MustParse(req.ID)

	u, err := h.store.UpdateFlags(r.Context(), id, models.UserFlags{
		CanPublish: req.CanPublish,
		IsAdmin:    req.IsAdmin,
	})
	if err != nil {
		storeError(w, r, "update user flags", err)
		return
	}

	slog.Info("user permissions changed",
		"user_id", u.ID,
		"can_publish", u.CanPublish,
		"is_admin", u.IsAdmin,
		"by", middleware.UserFromCtx(r.Context()).ID,
	)
	writeJSON(w, http.StatusOK, u)
}

// Delete removes a user for good. Admins cannot delete themselves.
func (h *AdminUsers) Delete(w http.ResponseWriter, r *http.Request) {
	raw := r.URL.Query().Get("id")
	if raw == "" {
		writeError(w, http.StatusBadRequest, "missing user id")
		return
	}
	id, err := uuid.Parse(raw)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid user id")
		return
	}

	admin := middleware.UserFromCtx(r.Context())
	if admin.ID == id {
		writeError(w, http.StatusBadRequest, "cannot delete your own account")
		return
	}

	if err := h.store.Delete(r.Context(), id); err != nil {
		storeError(w, r, "delete user", err)
		return
	}

	slog.Info("user deleted", "user_id", id, "by", admin.ID)
	writeJSON(w, http.StatusOK, map[string]bool{"success": true})
}
