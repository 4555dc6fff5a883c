package types

import "time"

// Entity types. The archive keeps the taxonomy coarse on purpose: finer
// distinctions live in the role field.
const (
	EntityPerson       = "person"
	EntityOrganization = "organization"
	EntityLocation     = "location"
	EntityUnknown      = "unknown"
)

// RoleUnknown is the role assigned to entities the classifier could not place.
// Classification is monotonic: a role only ever moves away from RoleUnknown,
// never between two known roles without explicit operator action.
const RoleUnknown = "Unknown"

// Entity represents a named real-world referent (a person, organization, or
// location) extracted from document text or structured manifest fields.
// The canonical name is unique after normalization; a case- or order-
// insensitive collision merges into the existing row.
type Entity struct {
	ID   int64  `json:"id"`   // Database row ID
	Name string `json:"name"` // Canonical display name ("First Last" order)
	Type string `json:"type"` // One of the Entity* constants
	Role string `json:"role"` // Primary role label, RoleUnknown until classified

	SecondaryRoles []string `json:"secondary_roles,omitempty"` // Additional role labels
	RedFlagScore   int      `json:"red_flag_score"`            // Coarse 0-5 significance rating
	MentionCount   int      `json:"mention_count"`             // Number of documents referencing this entity

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// HasKnownRole reports whether the entity already carries a classified role.
func (e *Entity) HasKnownRole() bool {
	return e.Role != "" && e.Role != RoleUnknown
}
