package handlers

import (
	"net/http"

	"github.com/scrypster/docket/internal/storage"
)

// MediaHandlers serves the album browsing endpoints.
type MediaHandlers struct {
	store storage.MediaStore
}

// NewMediaHandlers creates MediaHandlers over the given store.
func NewMediaHandlers(store storage.MediaStore) *MediaHandlers {
	return &MediaHandlers{store: store}
}

// ListAlbums handles GET /api/albums.
func (h *MediaHandlers) ListAlbums(w http.ResponseWriter, r *http.Request) {
	albums, err := h.store.ListAlbums(r.Context())
	if err != nil {
		respondError(w, http.StatusInternalServerError, "failed to list albums", "INTERNAL")
		return
	}

	respondJSON(w, http.StatusOK, map[string]interface{}{
		"albums": albums,
	})
}

// ListAlbumMedia handles GET /api/albums/{id}/media.
func (h *MediaHandlers) ListAlbumMedia(w http.ResponseWriter, r *http.Request) {
	albumID := r.PathValue("id")

	items, err := h.store.ListAlbumMedia(r.Context(), albumID)
	if err != nil {
		respondError(w, http.StatusInternalServerError, "failed to list media", "INTERNAL")
		return
	}

	respondJSON(w, http.StatusOK, map[string]interface{}{
		"album_id": albumID,
		"media":    items,
	})
}
