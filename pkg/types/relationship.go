package types

import "time"

// Relationship represents a directed edge between two entities. Both endpoints
// must exist; deleting an entity deletes every edge touching it.
type Relationship struct {
	ID     string `json:"id"`      // Unique identifier (uuid)
	FromID int64  `json:"from_id"` // Source entity row ID
	ToID   int64  `json:"to_id"`   // Target entity row ID
	Type   string `json:"type"`    // Edge type (e.g. "co_occurs", "employed_by")

	Strength   float64 `json:"strength,omitempty"`   // Edge weight (0.0-1.0)
	Confidence float64 `json:"confidence,omitempty"` // Extraction confidence (0.0-1.0)

	// DocumentID references the document that supports this edge, when known.
	DocumentID *int64 `json:"document_id,omitempty"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// RelCoOccurs is the edge type for two entities observed in the same document.
const RelCoOccurs = "co_occurs"
