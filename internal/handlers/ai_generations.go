package handlers

import (
	"context"
	"net/http"

	"github.com/google/uuid"

	"inkpress/internal/models"
	"inkpress/internal/store"
)

// AIGenerationStore is the persistence used by AIGenerations.
type AIGenerationStore interface {
	List(ctx context.Context) ([]models.AIGeneration, error)
	FindByID(ctx context.Context, id uuid.UUID) (*models.AIGeneration, error)
	Create(ctx context.Context, in store.AIGenerationInput) (*models.AIGeneration, error)
	Update(ctx context.Context, id uuid.UUID, in store.AIGenerationInput) (*models.AIGeneration, error)
	SoftDelete(ctx context.Context, id uuid.UUID) error
}

// AIGenerations serves the AI generation showcase API. Reads are public,
// writes are gated to admins by the router.
type AIGenerations struct {
	store AIGenerationStore
}

// NewAIGenerations creates the AI generation handlers.
func NewAIGenerations(s AIGenerationStore) *AIGenerations {
	return &AIGenerations{store: s}
}

// List returns all live entries, newest first.
func (h *AIGenerations) List(w http.ResponseWriter, r *http.Request) {
	items, err := h.store.List(r.Context())
	if err != nil {
		serverError(w, r, "list ai generations", err)
		return
	}
	writeJSON(w, http.StatusOK, items)
}

// Get returns a single live entry.
func (h *AIGenerations) Get(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	g, err := h.store.FindByID(r.Context(), id)
	if err != nil {
		serverError(w, r, "find ai generation", err)
		return
	}
	if g == nil {
		writeError(w, http.StatusNotFound, "ai generation not found")
		return
	}
	writeJSON(w, http.StatusOK, g)
}

// Create stores a new entry.
func (h *AIGenerations) Create(w http.ResponseWriter, r *http.Request) {
	in, ok := decodeAIGeneration(w, r)
	if !ok {
		return
	}
	g, err := h.store.Create(r.Context(), in)
	if err != nil {
		serverError(w, r, "create ai generation", err)
		return
	}
	writeJSON(w, http.StatusCreated, g)
}

// Update replaces all fields of an entry.
func (h *AIGenerations) Update(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	in, ok := decodeAIGeneration(w, r)
	if !ok {
		return
	}
	g, err := h.store.Update(r.Context(), id, in)
	if err != nil {
		storeError(w, r, "update ai generation", err)
		return
	}
	writeJSON(w, http.StatusOK, g)
}

// Delete soft-deletes an entry.
func (h *AIGenerations) Delete(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	if err := h.store.SoftDelete(r.Context(), id); err != nil {
		storeError(w, r, "delete ai generation", err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]bool{"success": true})
}

func decodeAIGeneration(w http.ResponseWriter, r *http.Request) (store.AIGenerationInput, bool) {
	var req aiGenerationRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return store.AIGenerationInput{}, false
	}
	if err := req.Validate(); err != nil {
		invalid(w, r, err)
		return store.AIGenerationInput{}, false
	}
	return store.AIGenerationInput{
		Title:       req.Title,
		AITool:      req.AITool,
		Prompt:      req.Prompt,
		InputParams: blankToNil(req.InputParams),
		Output:      req.Output,
		Tags:        req.Tags,
	}, true
}
