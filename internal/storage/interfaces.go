// Package storage provides composable storage interfaces for the Docket archive.
//
// The storage layer is designed with small, focused interfaces that can be
// implemented independently and composed as needed. The ingestion pipeline
// writes through DocumentStore/EntityStore/MediaStore; the presentation layer
// reads through the same interfaces plus SearchProvider, and never mutates
// shadow tables directly.
package storage

import (
	"context"

	"github.com/scrypster/docket/pkg/types"
)

// DocumentStore provides upsert-by-external-identifier and read operations
// for documents.
type DocumentStore interface {
	// UpsertDocument creates or updates a document keyed by its external ID.
	// On conflict the manifest-derived fields are refreshed (later rows win).
	// The returned bool is true when a new row was inserted.
	// The base write and the search-shadow write happen in one transaction.
	UpsertDocument(ctx context.Context, doc *types.Document) (bool, error)

	// GetDocument retrieves a document by external ID.
	// Returns ErrNotFound if no such document exists.
	GetDocument(ctx context.Context, externalID string) (*types.Document, error)

	// ListDocuments retrieves documents with pagination and filtering.
	ListDocuments(ctx context.Context, opts ListOptions) (*PaginatedResult[types.Document], error)

	// DeleteDocument removes a document by external ID. The pipeline never
	// calls this; it exists for explicit administrative action only.
	DeleteDocument(ctx context.Context, externalID string) error

	// UpdateDocumentFlags amends the review signals of an existing document
	// without touching its content (used by enrichment passes).
	UpdateDocumentFlags(ctx context.Context, externalID string, redFlagScore int, failedRedactions int) error

	// CountDocuments returns the total number of document rows.
	CountDocuments(ctx context.Context) (int, error)
}

// EntityStore manages entities, their document links, and relationships.
type EntityStore interface {
	// UpsertEntity creates an entity or merges into the row whose normalized
	// name collides (case/order-insensitive). Returns the stored entity.
	UpsertEntity(ctx context.Context, entity *types.Entity) (*types.Entity, error)

	// GetEntity retrieves an entity by row ID.
	GetEntity(ctx context.Context, id int64) (*types.Entity, error)

	// GetEntityByName retrieves an entity by normalized name.
	GetEntityByName(ctx context.Context, name string) (*types.Entity, error)

	// ListEntities retrieves entities with pagination and filtering.
	ListEntities(ctx context.Context, opts ListOptions) (*PaginatedResult[types.Entity], error)

	// UpdateEntityRole sets the role of an entity that is still unclassified.
	// Classification is monotonic: a non-Unknown role is never overwritten.
	UpdateEntityRole(ctx context.Context, id int64, role string, entityType string) error

	// DeleteEntity removes an entity and, in the same transaction, every
	// relationship and document link referencing it.
	DeleteEntity(ctx context.Context, id int64) error

	// LinkDocumentEntity associates a document with an entity (idempotent).
	LinkDocumentEntity(ctx context.Context, documentID, entityID int64) error

	// ListDocumentEntities returns the entities linked to a document.
	ListDocumentEntities(ctx context.Context, documentID int64) ([]types.Entity, error)

	// CreateRelationship inserts a directed edge between two entities.
	// Both endpoints must exist.
	CreateRelationship(ctx context.Context, rel *types.Relationship) error

	// ListRelationships returns edges where the entity is source or target.
	ListRelationships(ctx context.Context, entityID int64) ([]types.Relationship, error)

	// CountEntities returns the total number of entity rows.
	CountEntities(ctx context.Context) (int, error)

	// CountRelationships returns the total number of relationship rows.
	CountRelationships(ctx context.Context) (int, error)
}

// MediaStore manages albums and their media items.
type MediaStore interface {
	// UpsertAlbum creates an album by name or returns the existing one.
	UpsertAlbum(ctx context.Context, name string) (*types.Album, error)

	// InsertMediaItem stores a media item. The first item stored for an album
	// becomes its cover unless a cover is already set.
	InsertMediaItem(ctx context.Context, item *types.MediaItem) error

	// SetAlbumCover sets the album cover. The media item must belong to the
	// album; ErrInvalidInput otherwise.
	SetAlbumCover(ctx context.Context, albumID, mediaID string) error

	// ListAlbums returns all albums.
	ListAlbums(ctx context.Context) ([]types.Album, error)

	// ListAlbumMedia returns the media items of one album.
	ListAlbumMedia(ctx context.Context, albumID string) ([]types.MediaItem, error)
}

// SearchProvider provides full-text search over the shadow tables.
type SearchProvider interface {
	// SearchDocuments performs FTS5-backed search over document title,
	// content, author, and custodian.
	SearchDocuments(ctx context.Context, opts SearchOptions) (*PaginatedResult[types.Document], error)

	// SearchEntities performs FTS5-backed search over entity name and role.
	SearchEntities(ctx context.Context, opts SearchOptions) (*PaginatedResult[types.Entity], error)
}

// RunStore records ingest run audit rows.
type RunStore interface {
	// RecordRun persists a finished run summary.
	RecordRun(ctx context.Context, run *types.IngestRun) error

	// ListRuns returns recent runs, newest first.
	ListRuns(ctx context.Context, limit int) ([]types.IngestRun, error)
}
