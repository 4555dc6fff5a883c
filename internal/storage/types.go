package storage

import (
	"errors"
	"time"
)

var (
	// ErrNotFound indicates that the requested resource was not found.
	ErrNotFound = errors.New("resource not found")

	// ErrInvalidInput indicates that the input parameters are invalid.
	ErrInvalidInput = errors.New("invalid input")
)

// PaginatedResult represents a paginated result set with type safety using generics.
type PaginatedResult[T any] struct {
	// Items is the slice of results for the current page.
	Items []T

	// Total is the total number of items across all pages.
	Total int

	// Page is the current page number (1-indexed).
	Page int

	// PageSize is the number of items per page.
	PageSize int

	// HasMore indicates whether there are more pages available.
	HasMore bool
}

// ListOptions provides pagination and filtering options for list operations.
type ListOptions struct {
	// Page is the page number to retrieve (1-indexed, default: 1).
	Page int

	// Limit is the number of items per page (default: 20, max: 100).
	Limit int

	// SortBy specifies the field to sort by (e.g., "created_at", "external_id").
	SortBy string

	// SortOrder specifies the sort direction ("asc" or "desc", default: "desc").
	SortOrder string

	// EvidenceType filters documents by their evidence-type tag.
	// Empty string means no filter.
	EvidenceType string

	// Custodian filters documents by custodian/source.
	Custodian string

	// Author filters documents by declared author.
	Author string

	// MinRedFlagScore filters to rows with red_flag_score >= this value.
	MinRedFlagScore int

	// MissingOnly restricts results to documents ingested with placeholder
	// content (text rendition unresolved).
	MissingOnly bool

	// EntityType filters entities by coarse type (person/organization/location).
	EntityType string

	// Role filters entities by primary role label.
	Role string

	// CreatedAfter filters to rows created strictly after this time.
	// Zero value means no lower bound.
	CreatedAfter time.Time

	// CreatedBefore filters to rows created strictly before this time.
	// Zero value means no upper bound.
	CreatedBefore time.Time
}

// allowedSortFields is the whitelist for ListOptions.SortBy to prevent SQL
// injection via ORDER BY construction.
var allowedSortFields = map[string]bool{
	"created_at":     true,
	"updated_at":     true,
	"external_id":    true,
	"title":          true,
	"byte_size":      true,
	"word_count":     true,
	"red_flag_score": true,
	"name":           true,
	"mention_count":  true,
}

// Normalize applies defaults and validates the ListOptions.
func (o *ListOptions) Normalize() {
	if !allowedSortFields[o.SortBy] {
		o.SortBy = "created_at"
	}

	if o.SortOrder != "asc" && o.SortOrder != "desc" {
		o.SortOrder = "desc"
	}

	if o.Page < 1 {
		o.Page = 1
	}

	if o.Limit < 1 {
		o.Limit = 20
	}

	if o.Limit > 100 {
		o.Limit = 100
	}
}

// Offset calculates the offset for SQL queries based on page and limit.
func (o *ListOptions) Offset() int {
	return (o.Page - 1) * o.Limit
}

// SearchOptions provides options for full-text search operations.
type SearchOptions struct {
	// Query is the search query string.
	Query string

	// Limit is the maximum number of results to return (default: 20, max: 100).
	Limit int

	// Offset is the number of results to skip.
	Offset int
}

// Normalize applies defaults and validates the SearchOptions.
func (o *SearchOptions) Normalize() {
	if o.Limit < 1 {
		o.Limit = 20
	}

	if o.Limit > 100 {
		o.Limit = 100
	}

	if o.Offset < 0 {
		o.Offset = 0
	}
}
