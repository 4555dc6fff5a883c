package handlers

import (
	"net/http"

	"github.com/scrypster/docket/internal/storage"
	"github.com/scrypster/docket/pkg/types"
)

// StatsResponse is the response format for GET /api/stats.
type StatsResponse struct {
	Documents     int               `json:"documents"`
	Entities      int               `json:"entities"`
	Relationships int               `json:"relationships"`
	RecentRuns    []types.IngestRun `json:"recent_runs"`
}

// StatsHandlers serves archive-level counts and recent run history.
type StatsHandlers struct {
	docs     storage.DocumentStore
	entities storage.EntityStore
	runs     storage.RunStore
}

// NewStatsHandlers creates StatsHandlers over the given stores.
func NewStatsHandlers(docs storage.DocumentStore, entities storage.EntityStore, runs storage.RunStore) *StatsHandlers {
	return &StatsHandlers{docs: docs, entities: entities, runs: runs}
}

// GetStats handles GET /api/stats.
func (h *StatsHandlers) GetStats(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	documents, err := h.docs.CountDocuments(ctx)
	if err != nil {
		respondError(w, http.StatusInternalServerError, "failed to count documents", "INTERNAL")
		return
	}

	entities, err := h.entities.CountEntities(ctx)
	if err != nil {
		respondError(w, http.StatusInternalServerError, "failed to count entities", "INTERNAL")
		return
	}

	relationships, err := h.entities.CountRelationships(ctx)
	if err != nil {
		respondError(w, http.StatusInternalServerError, "failed to count relationships", "INTERNAL")
		return
	}

	runs, err := h.runs.ListRuns(ctx, 10)
	if err != nil {
		respondError(w, http.StatusInternalServerError, "failed to list runs", "INTERNAL")
		return
	}
	if runs == nil {
		runs = []types.IngestRun{}
	}

	respondJSON(w, http.StatusOK, StatsResponse{
		Documents:     documents,
		Entities:      entities,
		Relationships: relationships,
		RecentRuns:    runs,
	})
}
