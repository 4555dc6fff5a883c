package handlers

import (
	"net/http"

	"github.com/scrypster/docket/internal/storage"
)

// SearchHandlers serves the full-text search endpoint.
type SearchHandlers struct {
	provider storage.SearchProvider
}

// NewSearchHandlers creates SearchHandlers over the given provider.
func NewSearchHandlers(provider storage.SearchProvider) *SearchHandlers {
	return &SearchHandlers{provider: provider}
}

// Search handles GET /api/search?q=...&type=documents|entities.
// The default target is documents.
func (h *SearchHandlers) Search(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query().Get("q")
	if query == "" {
		respondError(w, http.StatusBadRequest, "missing query parameter q", "INVALID_INPUT")
		return
	}

	opts := storage.SearchOptions{
		Query:  query,
		Limit:  queryInt(r, "limit", 20),
		Offset: queryInt(r, "offset", 0),
	}

	switch r.URL.Query().Get("type") {
	case "entities":
		result, err := h.provider.SearchEntities(r.Context(), opts)
		if err != nil {
			respondError(w, http.StatusInternalServerError, "search failed", "INTERNAL")
			return
		}
		respondJSON(w, http.StatusOK, map[string]interface{}{
			"query":    query,
			"entities": result.Items,
			"total":    result.Total,
		})
	case "", "documents":
		result, err := h.provider.SearchDocuments(r.Context(), opts)
		if err != nil {
			respondError(w, http.StatusInternalServerError, "search failed", "INTERNAL")
			return
		}
		respondJSON(w, http.StatusOK, map[string]interface{}{
			"query":     query,
			"documents": result.Items,
			"total":     result.Total,
		})
	default:
		respondError(w, http.StatusBadRequest, "unknown search type", "INVALID_INPUT")
	}
}
