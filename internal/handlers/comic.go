// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package handlers

import (
	"context"
	"errors"
	"log/slog"
	"net/http"

	"github.com/google/uuid"

	"inkpress/internal/ai"
	"inkpress/internal/comic"
	"inkpress/internal/middleware"
	"inkpress/internal/models"
)

// ComicGenerator turns a story into a persisted comic.
type ComicGenerator interface {
	Generate(ctx context.Context, req comic.Request) (*models.Comic, error)
}

// ComicLister lists a user's comics.
type ComicLister interface {
	ListByAuthor(ctx context.Context, authorID uuid.UUID) ([]models.Comic, error)
}

// Comics serves comic generation for signed-in users.
type Comics struct {
	gen    ComicGenerator
	comics ComicLister
}

// NewComics creates the comic handlers.
func NewComics(gen ComicGenerator, comics ComicLister) *Comics {
	return &Comics{gen: gen, comics: comics}
}

// Generate runs a generation for the caller's story. The call blocks until
// every frame is done; a client that disconnects cancels the run.
func (h *Comics) Generate(w http.ResponseWriter, r *http.Request) {
	var req comicRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	if err := req.Validate(); err != nil {
		invalid(w, r, err)
		return
	}

	u := middleware.UserFromCtx(r.Context())
	c, err := h.gen.Generate(r.Context(), comic.Request{
		Title:    req.Title,
		Story:    req.Story,
		Model:    req.Model,
		Style:    req.Style,
		Ratio:    req.Ratio,
		AuthorID: u.ID,
	})
	switch {
	case errors.Is(err, comic.ErrNoScenes):
		writeError(w, http.StatusBadRequest, "story has no scenes")
		return
	case errors.Is(err, ai.ErrNoProvider):
		slog.Error("comic generation without image provider", "error", err)
		writeError(w, http.StatusServiceUnavailable, "comic generation is not configured")
		return
	case errors.Is(err, context.Canceled):
		// Nobody is left to read a response.
		slog.Debug("comic generation abandoned by client", "user_id", u.ID)
		return
	case err != nil:
		slog.Error("comic generation failed", "error", err, "user_id", u.ID)
		writeError(w, http.StatusInternalServerError, "comic generation failed, please try again later")
		return
	}

	writeJSON(w, http.StatusCreated, map[string]any{
		"success": true,
		"comicId": c.ID,
		"images":  c.Frames,
		"comic":   c,
	})
}

// List returns the caller's most recent comics.
func (h *Comics) List(w http.ResponseWriter, r *http.Request) {
	u := middleware.UserFromCtx(r.Context())
	list, err := h.comics.ListByAuthor(r.Context(), u.ID)
	if err != nil {
		serverError(w, r, "list comics", err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"success": true,
		"comics":  list,
	})
}
