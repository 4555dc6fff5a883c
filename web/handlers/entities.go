package handlers

import (
	"errors"
	"net/http"

	"github.com/scrypster/docket/internal/storage"
)

// EntityHandlers serves the entity browsing endpoints.
type EntityHandlers struct {
	store storage.EntityStore
}

// NewEntityHandlers creates EntityHandlers over the given store.
func NewEntityHandlers(store storage.EntityStore) *EntityHandlers {
	return &EntityHandlers{store: store}
}

// ListEntities handles GET /api/entities with filter, sort, and pagination
// query parameters.
func (h *EntityHandlers) ListEntities(w http.ResponseWriter, r *http.Request) {
	result, err := h.store.ListEntities(r.Context(), listOptionsFromQuery(r))
	if err != nil {
		respondError(w, http.StatusInternalServerError, "failed to list entities", "INTERNAL")
		return
	}

	respondJSON(w, http.StatusOK, map[string]interface{}{
		"entities":  result.Items,
		"total":     result.Total,
		"page":      result.Page,
		"page_size": result.PageSize,
		"has_more":  result.HasMore,
	})
}

// GetEntity handles GET /api/entities/{id}.
func (h *EntityHandlers) GetEntity(w http.ResponseWriter, r *http.Request) {
	id, err := parseEntityID(r.PathValue("id"))
	if err != nil {
		respondError(w, http.StatusBadRequest, "invalid entity id", "INVALID_INPUT")
		return
	}

	entity, err := h.store.GetEntity(r.Context(), id)
	if errors.Is(err, storage.ErrNotFound) {
		respondError(w, http.StatusNotFound, "entity not found", "NOT_FOUND")
		return
	}
	if err != nil {
		respondError(w, http.StatusInternalServerError, "failed to get entity", "INTERNAL")
		return
	}

	respondJSON(w, http.StatusOK, entity)
}

// ListEntityRelationships handles GET /api/entities/{id}/relationships.
func (h *EntityHandlers) ListEntityRelationships(w http.ResponseWriter, r *http.Request) {
	id, err := parseEntityID(r.PathValue("id"))
	if err != nil {
		respondError(w, http.StatusBadRequest, "invalid entity id", "INVALID_INPUT")
		return
	}

	if _, err := h.store.GetEntity(r.Context(), id); errors.Is(err, storage.ErrNotFound) {
		respondError(w, http.StatusNotFound, "entity not found", "NOT_FOUND")
		return
	} else if err != nil {
		respondError(w, http.StatusInternalServerError, "failed to get entity", "INTERNAL")
		return
	}

	rels, err := h.store.ListRelationships(r.Context(), id)
	if err != nil {
		respondError(w, http.StatusInternalServerError, "failed to list relationships", "INTERNAL")
		return
	}

	respondJSON(w, http.StatusOK, map[string]interface{}{
		"entity_id":     id,
		"relationships": rels,
	})
}
