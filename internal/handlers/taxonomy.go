package handlers

import (
	"context"
	"net/http"

	"inkpress/internal/models"
)

// TaxonomyLister lists tags and categories with their post counts.
type TaxonomyLister interface {
	ListTags(ctx context.Context, limit int) ([]models.Tag, error)
	ListCategories(ctx context.Context) ([]models.Category, error)
}

// Taxonomy serves the tag and category listings.
type Taxonomy struct {
	store TaxonomyLister
}

// NewTaxonomy creates the taxonomy handlers.
func NewTaxonomy(s TaxonomyLister) *Taxonomy {
	return &Taxonomy{store: s}
}

// Tags lists tags, most used first. ?limit caps the result.
func (h *Taxonomy) Tags(w http.ResponseWriter, r *http.Request) {
	limit, ok := intParam(w, r.URL.Query().Get("limit"), "limit")
	if !ok {
		return
	}
	tags, err := h.store.ListTags(r.Context(), limit)
	if err != nil {
		serverError(w, r, "list tags", err)
		return
	}
	writeJSON(w, http.StatusOK, tags)
}

// Categories lists all categories, most used first.
func (h *Taxonomy) Categories(w http.ResponseWriter, r *http.Request) {
	cats, err := h.store.ListCategories(r.Context())
	if err != nil {
		serverError(w, r, "list categories", err)
		return
	}
	writeJSON(w, http.StatusOK, cats)
}
