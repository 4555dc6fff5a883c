// Package handlers provides the read-only HTTP handlers and middleware for
// the Docket archive browser API.
package handlers

import (
	"encoding/json"
	"log"
	"net/http"
	"strconv"

	"github.com/scrypster/docket/internal/storage"
)

// ErrorResponse is the standard error response format for the API.
type ErrorResponse struct {
	Error string `json:"error"`
	Code  string `json:"code"`
}

// respondJSON writes v as a JSON response with the given status code.
func respondJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Printf("handlers: failed to encode response: %v", err)
	}
}

// respondError writes a standard error response.
func respondError(w http.ResponseWriter, status int, message, code string) {
	respondJSON(w, status, ErrorResponse{Error: message, Code: code})
}

// queryInt parses an integer query parameter, returning def when absent or
// unparsable.
func queryInt(r *http.Request, name string, def int) int {
	if raw := r.URL.Query().Get(name); raw != "" {
		if value, err := strconv.Atoi(raw); err == nil {
			return value
		}
	}
	return def
}

// listOptionsFromQuery builds ListOptions from the common query parameters.
// The store normalizes and whitelists the values.
func listOptionsFromQuery(r *http.Request) storage.ListOptions {
	q := r.URL.Query()
	return storage.ListOptions{
		Page:            queryInt(r, "page", 1),
		Limit:           queryInt(r, "limit", 20),
		SortBy:          q.Get("sort_by"),
		SortOrder:       q.Get("sort_order"),
		EvidenceType:    q.Get("evidence_type"),
		Custodian:       q.Get("custodian"),
		Author:          q.Get("author"),
		MinRedFlagScore: queryInt(r, "min_red_flag_score", 0),
		MissingOnly:     q.Get("missing_only") == "true",
		EntityType:      q.Get("type"),
		Role:            q.Get("role"),
	}
}
