package handlers

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/scrypster/docket/internal/storage"
)

// DocumentHandlers serves the document browsing endpoints.
type DocumentHandlers struct {
	docs     storage.DocumentStore
	entities storage.EntityStore
}

// NewDocumentHandlers creates DocumentHandlers over the given stores.
func NewDocumentHandlers(docs storage.DocumentStore, entities storage.EntityStore) *DocumentHandlers {
	return &DocumentHandlers{docs: docs, entities: entities}
}

// ListDocuments handles GET /api/documents with filter, sort, and pagination
// query parameters.
func (h *DocumentHandlers) ListDocuments(w http.ResponseWriter, r *http.Request) {
	result, err := h.docs.ListDocuments(r.Context(), listOptionsFromQuery(r))
	if err != nil {
		respondError(w, http.StatusInternalServerError, "failed to list documents", "INTERNAL")
		return
	}

	respondJSON(w, http.StatusOK, map[string]interface{}{
		"documents": result.Items,
		"total":     result.Total,
		"page":      result.Page,
		"page_size": result.PageSize,
		"has_more":  result.HasMore,
	})
}

// GetDocument handles GET /api/documents/{id}, where id is the external
// (Bates/control) identifier.
func (h *DocumentHandlers) GetDocument(w http.ResponseWriter, r *http.Request) {
	externalID := r.PathValue("id")

	doc, err := h.docs.GetDocument(r.Context(), externalID)
	if errors.Is(err, storage.ErrNotFound) {
		respondError(w, http.StatusNotFound, "document not found", "NOT_FOUND")
		return
	}
	if err != nil {
		respondError(w, http.StatusInternalServerError, "failed to get document", "INTERNAL")
		return
	}

	respondJSON(w, http.StatusOK, doc)
}

// ListDocumentEntities handles GET /api/documents/{id}/entities.
func (h *DocumentHandlers) ListDocumentEntities(w http.ResponseWriter, r *http.Request) {
	externalID := r.PathValue("id")

	doc, err := h.docs.GetDocument(r.Context(), externalID)
	if errors.Is(err, storage.ErrNotFound) {
		respondError(w, http.StatusNotFound, "document not found", "NOT_FOUND")
		return
	}
	if err != nil {
		respondError(w, http.StatusInternalServerError, "failed to get document", "INTERNAL")
		return
	}

	entities, err := h.entities.ListDocumentEntities(r.Context(), doc.ID)
	if err != nil {
		respondError(w, http.StatusInternalServerError, "failed to list entities", "INTERNAL")
		return
	}

	respondJSON(w, http.StatusOK, map[string]interface{}{
		"document_id": doc.ExternalID,
		"entities":    entities,
	})
}

// parseEntityID parses the numeric entity row ID from a path value.
func parseEntityID(raw string) (int64, error) {
	return strconv.ParseInt(raw, 10, 64)
}
