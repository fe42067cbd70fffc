// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package handlers

import (
	"context"
	"net/http"
	"strconv"

	"github.com/google/uuid"

	"inkpress/internal/middleware"
	"inkpress/internal/models"
)

// PostStore is the post persistence used by Posts.
type PostStore interface {
	Create(ctx context.Context, d *models.PostDraft) (*models.Post, error)
	Update(ctx context.Context, id uuid.UUID, d *models.PostDraft, wasPublished *bool) (*models.Post, error)
	TogglePublish(ctx context.Context, id uuid.UUID, expected bool) (*models.Post, error)
	SoftDelete(ctx context.Context, id uuid.UUID) error
	FindByID(ctx context.Context, id uuid.UUID, includeDrafts bool) (*models.Post, error)
	List(ctx context.Context, f models.PostFilter) ([]models.Post, error)
}

// Posts serves the blog post API.
type Posts struct {
	store PostStore
}

// NewPosts creates the post handlers.
func NewPosts(s PostStore) *Posts {
	return &Posts{store: s}
}

// mayPublish reports whether the caller can see drafts and edit posts.
func mayPublish(r *http.Request) bool {
	u := middleware.UserFromCtx(r.Context())
	return u != nil && u.MayPublish()
}

// List returns posts matching the tag, category and status filters.
// Anonymous callers and readers only ever get published posts.
func (h *Posts) List(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	f := models.PostFilter{
		Status:       models.PostStatus(q.Get("status")),
		TagSlug:      q.Get("tag"),
		CategorySlug: q.Get("category"),
	}

	switch f.Status {
	case "", models.PostStatusPublished:
		f.Status = models.PostStatusPublished
	case models.PostStatusDraft, models.PostStatusAll:
		if !mayPublish(r) {
			writeError(w, http.StatusForbidden, "drafts are only visible to publishers")
			return
		}
	default:
		writeError(w, http.StatusBadRequest, "status must be one of published, draft, all")
		return
	}

	var ok bool
	if f.Limit, ok = intParam(w, q.Get("limit"), "limit"); !ok {
		return
	}
	if f.Offset, ok = intParam(w, q.Get("offset"), "offset"); !ok {
		return
	}

	posts, err := h.store.List(r.Context(), f)
	if err != nil {
		serverError(w, r, "list posts", err)
		return
	}
	writeJSON(w, http.StatusOK, posts)
}

// Get returns a single live post. Drafts are 404 unless the caller may
// publish.
func (h *Posts) Get(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}

	post, err := h.store.FindByID(r.Context(), id, mayPublish(r))
	if err != nil {
		serverError(w, r, "find post", err)
		return
	}
	if post == nil {
		writeError(w, http.StatusNotFound, "post not found")
		return
	}
	writeJSON(w, http.StatusOK, post)
}

// Create stores a new post authored by the caller.
func (h *Posts) Create(w http.ResponseWriter, r *http.Request) {
	req, ok := decodePost(w, r)
	if !ok {
		return
	}

	d := req.draft()
	if u := middleware.UserFromCtx(r.Context()); u != nil {
		d.AuthorID = &u.ID
	}

	post, err := h.store.Create(r.Context(), d)
	if err != nil {
		serverError(w, r, "create post", err)
		return
	}
	writeJSON(w, http.StatusCreated, post)
}

// Update replaces a post's editable fields and its tag and category sets.
func (h *Posts) Update(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	req, ok := decodePost(w, r)
	if !ok {
		return
	}

	post, err := h.store.Update(r.Context(), id, req.draft(), req.WasPublished)
	if err != nil {
		storeError(w, r, "update post", err)
		return
	}
	writeJSON(w, http.StatusOK, post)
}

// TogglePublish flips the published flag. The body carries the state the
// caller last saw; if someone else flipped it meanwhile the call gets 409.
func (h *Posts) TogglePublish(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}

	var req publishRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	if err := req.Validate(); err != nil {
		invalid(w, r, err)
		return
	}

	post, err := h.store.TogglePublish(r.Context(), id, *req.Published)
	if err != nil {
		storeError(w, r, "toggle publish", err)
		return
	}
	writeJSON(w, http.StatusOK, post)
}

// Delete soft-deletes a post.
func (h *Posts) Delete(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	if err := h.store.SoftDelete(r.Context(), id); err != nil {
		storeError(w, r, "delete post", err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]bool{"success": true})
}

func decodePost(w http.ResponseWriter, r *http.Request) (*postRequest, bool) {
	var req postRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return nil, false
	}
	if err := req.Validate(); err != nil {
		invalid(w, r, err)
		return nil, false
	}
	return &req, true
}

func (p *postRequest) draft() *models.PostDraft {
	return &models.PostDraft{
		Title:      p.Title,
		Slug:       blankToNil(p.Slug),
		Content:    p.Content,
		Excerpt:    blankToNil(p.Excerpt),
		CoverImage: blankToNil(p.CoverImage),
		Published:  p.Published,
		Tags:       p.Tags,
		Categories: p.Categories,
	}
}

// intParam parses an optional non-negative integer query parameter.
func intParam(w http.ResponseWriter, raw, name string) (int, bool) {
	if raw == "" {
		return 0, true
	}
	n, err := strconv.Atoi(raw)
	if err != nil || n < 0 {
		writeError(w, http.StatusBadRequest, name+" must be a non-negative integer")
		return 0, false
	}
	return n, true
}
