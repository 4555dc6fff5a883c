package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/scrypster/docket/internal/storage"
	"github.com/scrypster/docket/pkg/types"
)

const entityColumns = `
	id, name, type, role, secondary_roles, red_flag_score, mention_count,
	created_at, updated_at`

// entityNameKey is the uniqueness key for entity names. Name normalization
// (comma reordering etc.) happens upstream; the store only folds case so that
// "Ghislaine Maxwell" and "ghislaine maxwell" land on the same row.
func entityNameKey(name string) string {
	return strings.ToLower(strings.TrimSpace(name))
}

// UpsertEntity creates an entity or merges into the row whose normalized name
// collides. On collision the existing row's name, type, and role are kept; the
// first spelling and classification win. Returns the stored entity.
func (s *ArchiveStore) UpsertEntity(ctx context.Context, entity *types.Entity) (*types.Entity, error) {
	if entity == nil || strings.TrimSpace(entity.Name) == "" {
		return nil, storage.ErrInvalidInput
	}

	if entity.Type == "" {
		entity.Type = types.EntityUnknown
	}
	if entity.Role == "" {
		entity.Role = types.RoleUnknown
	}

	secondaryJSON, err := marshalStringSlice(entity.SecondaryRoles)
	if err != nil {
		return nil, fmt.Errorf("sqlite: failed to marshal secondary roles: %w", err)
	}

	_, err = s.db.ExecContext(ctx, `
		INSERT INTO entities (name, name_key, type, role, secondary_roles, red_flag_score)
		VALUES (?, ?, ?, ?, ?, ?)
		ON CONFLICT(name_key) DO UPDATE SET
			updated_at = CURRENT_TIMESTAMP
	`, strings.TrimSpace(entity.Name), entityNameKey(entity.Name),
		entity.Type, entity.Role, secondaryJSON, entity.RedFlagScore)
	if err != nil {
		return nil, fmt.Errorf("sqlite: failed to upsert entity %q: %w", entity.Name, err)
	}

	return s.GetEntityByName(ctx, entity.Name)
}

// GetEntity retrieves an entity by row ID.
func (s *ArchiveStore) GetEntity(ctx context.Context, id int64) (*types.Entity, error) {
	row := s.db.QueryRowContext(ctx,
		"SELECT"+entityColumns+" FROM entities WHERE id = ?", id)

	entity, err := scanEntity(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, storage.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("sqlite: failed to get entity %d: %w", id, err)
	}
	return entity, nil
}

// GetEntityByName retrieves an entity by normalized name.
func (s *ArchiveStore) GetEntityByName(ctx context.Context, name string) (*types.Entity, error) {
	if strings.TrimSpace(name) == "" {
		return nil, storage.ErrInvalidInput
	}

	row := s.db.QueryRowContext(ctx,
		"SELECT"+entityColumns+" FROM entities WHERE name_key = ?", entityNameKey(name))

	entity, err := scanEntity(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, storage.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("sqlite: failed to get entity %q: %w", name, err)
	}
	return entity, nil
}

// ListEntities retrieves entities with pagination and filtering.
func (s *ArchiveStore) ListEntities(ctx context.Context, opts storage.ListOptions) (*storage.PaginatedResult[types.Entity], error) {
	opts.Normalize()
	if opts.SortBy == "external_id" || opts.SortBy == "title" {
		opts.SortBy = "name"
	}

	var conds []string
	var args []interface{}
	if opts.EntityType != "" {
		conds = append(conds, "type = ?")
		args = append(args, opts.EntityType)
	}
	if opts.Role != "" {
		conds = append(conds, "role = ?")
		args = append(args, opts.Role)
	}
	if opts.MinRedFlagScore > 0 {
		conds = append(conds, "red_flag_score >= ?")
		args = append(args, opts.MinRedFlagScore)
	}

	where := ""
	if len(conds) > 0 {
		where = " WHERE " + strings.Join(conds, " AND ")
	}

	var total int
	if err := s.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM entities"+where, args...).Scan(&total); err != nil {
		return nil, fmt.Errorf("sqlite: failed to count entities: %w", err)
	}

	query := fmt.Sprintf("SELECT%s FROM entities%s ORDER BY %s %s LIMIT ? OFFSET ?",
		entityColumns, where, opts.SortBy, strings.ToUpper(opts.SortOrder))
	rows, err := s.db.QueryContext(ctx, query, append(args, opts.Limit, opts.Offset())...)
	if err != nil {
		return nil, fmt.Errorf("sqlite: failed to list entities: %w", err)
	}
	defer rows.Close()

	var entities []types.Entity
	for rows.Next() {
		entity, err := scanEntity(rows)
		if err != nil {
			return nil, fmt.Errorf("sqlite: failed to scan entity: %w", err)
		}
		entities = append(entities, *entity)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("sqlite: error iterating entities: %w", err)
	}

	return &storage.PaginatedResult[types.Entity]{
		Items:    entities,
		Total:    total,
		Page:     opts.Page,
		PageSize: opts.Limit,
		HasMore:  opts.Offset()+len(entities) < total,
	}, nil
}

// UpdateEntityRole sets the role and type of an entity that is still
// unclassified. Classification is monotonic: rows whose role is already known
// are left untouched and no error is returned.
func (s *ArchiveStore) UpdateEntityRole(ctx context.Context, id int64, role string, entityType string) error {
	if role == "" || role == types.RoleUnknown {
		return storage.ErrInvalidInput
	}

	res, err := s.db.ExecContext(ctx, `
		UPDATE entities
		SET role = ?, type = ?, updated_at = CURRENT_TIMESTAMP
		WHERE id = ? AND role = ?
	`, role, entityType, id, types.RoleUnknown)
	if err != nil {
		return fmt.Errorf("sqlite: failed to update entity %d role: %w", id, err)
	}

	if affected, err := res.RowsAffected(); err == nil && affected == 0 {
		// Either the row does not exist or it is already classified.
		// Distinguish the two so callers can surface missing entities.
		var exists int
		if err := s.db.QueryRowContext(ctx,
			"SELECT COUNT(*) FROM entities WHERE id = ?", id).Scan(&exists); err != nil {
			return fmt.Errorf("sqlite: failed to check entity %d: %w", id, err)
		}
		if exists == 0 {
			return storage.ErrNotFound
		}
	}

	return nil
}

// DeleteEntity removes an entity and every relationship and document link
// referencing it. Deletes run child-then-parent in one transaction; the
// foreign keys with ON DELETE CASCADE back this up if the table set grows.
func (s *ArchiveStore) DeleteEntity(ctx context.Context, id int64) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("sqlite: failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx,
		"DELETE FROM relationships WHERE from_entity_id = ? OR to_entity_id = ?", id, id); err != nil {
		return fmt.Errorf("sqlite: failed to delete relationships for entity %d: %w", id, err)
	}

	if _, err := tx.ExecContext(ctx,
		"DELETE FROM document_entities WHERE entity_id = ?", id); err != nil {
		return fmt.Errorf("sqlite: failed to delete document links for entity %d: %w", id, err)
	}

	res, err := tx.ExecContext(ctx, "DELETE FROM entities WHERE id = ?", id)
	if err != nil {
		return fmt.Errorf("sqlite: failed to delete entity %d: %w", id, err)
	}

	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("sqlite: failed to check delete result: %w", err)
	}
	if affected == 0 {
		return storage.ErrNotFound
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("sqlite: failed to commit entity delete: %w", err)
	}
	return nil
}

// LinkDocumentEntity associates a document with an entity. Idempotent: a
// repeated link is a no-op and does not inflate the mention count.
func (s *ArchiveStore) LinkDocumentEntity(ctx context.Context, documentID, entityID int64) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("sqlite: failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	res, err := tx.ExecContext(ctx, `
		INSERT OR IGNORE INTO document_entities (document_id, entity_id)
		VALUES (?, ?)
	`, documentID, entityID)
	if err != nil {
		return fmt.Errorf("sqlite: failed to link document %d to entity %d: %w", documentID, entityID, err)
	}

	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("sqlite: failed to check link result: %w", err)
	}

	// The mention count tracks distinct documents, so it only moves when a
	// fresh link row was actually inserted.
	if affected > 0 {
		if _, err := tx.ExecContext(ctx, `
			UPDATE entities
			SET mention_count = mention_count + 1, updated_at = CURRENT_TIMESTAMP
			WHERE id = ?
		`, entityID); err != nil {
			return fmt.Errorf("sqlite: failed to bump mention count for entity %d: %w", entityID, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("sqlite: failed to commit document link: %w", err)
	}
	return nil
}

// ListDocumentEntities returns the entities linked to a document.
func (s *ArchiveStore) ListDocumentEntities(ctx context.Context, documentID int64) ([]types.Entity, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT e.id, e.name, e.type, e.role, e.secondary_roles, e.red_flag_score,
			e.mention_count, e.created_at, e.updated_at
		FROM entities e
		JOIN document_entities de ON de.entity_id = e.id
		WHERE de.document_id = ?
		ORDER BY e.name ASC
	`, documentID)
	if err != nil {
		return nil, fmt.Errorf("sqlite: failed to list entities for document %d: %w", documentID, err)
	}
	defer rows.Close()

	var entities []types.Entity
	for rows.Next() {
		entity, err := scanEntity(rows)
		if err != nil {
			return nil, fmt.Errorf("sqlite: failed to scan entity: %w", err)
		}
		entities = append(entities, *entity)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("sqlite: error iterating document entities: %w", err)
	}
	return entities, nil
}

// CreateRelationship inserts a directed edge between two entities. Inserting
// an edge that already exists (same endpoints and type) is a no-op.
func (s *ArchiveStore) CreateRelationship(ctx context.Context, rel *types.Relationship) error {
	if rel == nil || rel.ID == "" || rel.FromID == 0 || rel.ToID == 0 || rel.Type == "" {
		return storage.ErrInvalidInput
	}

	var docID sql.NullInt64
	if rel.DocumentID != nil {
		docID = sql.NullInt64{Int64: *rel.DocumentID, Valid: true}
	}

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO relationships (id, from_entity_id, to_entity_id, type, strength, confidence, document_id)
		VALUES (?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(from_entity_id, to_entity_id, type) DO UPDATE SET
			strength = MAX(strength, excluded.strength),
			confidence = MAX(confidence, excluded.confidence),
			updated_at = CURRENT_TIMESTAMP
	`, rel.ID, rel.FromID, rel.ToID, rel.Type, rel.Strength, rel.Confidence, docID)
	if err != nil {
		if strings.Contains(err.Error(), "FOREIGN KEY constraint failed") {
			return fmt.Errorf("sqlite: relationship endpoint missing: %w", storage.ErrInvalidInput)
		}
		return fmt.Errorf("sqlite: failed to create relationship: %w", err)
	}
	return nil
}

// ListRelationships returns edges where the entity is source or target.
func (s *ArchiveStore) ListRelationships(ctx context.Context, entityID int64) ([]types.Relationship, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, from_entity_id, to_entity_id, type, strength, confidence,
			document_id, created_at, updated_at
		FROM relationships
		WHERE from_entity_id = ? OR to_entity_id = ?
		ORDER BY created_at DESC
	`, entityID, entityID)
	if err != nil {
		return nil, fmt.Errorf("sqlite: failed to list relationships for entity %d: %w", entityID, err)
	}
	defer rows.Close()

	var rels []types.Relationship
	for rows.Next() {
		var rel types.Relationship
		var docID sql.NullInt64
		if err := rows.Scan(&rel.ID, &rel.FromID, &rel.ToID, &rel.Type,
			&rel.Strength, &rel.Confidence, &docID, &rel.CreatedAt, &rel.UpdatedAt); err != nil {
			return nil, fmt.Errorf("sqlite: failed to scan relationship: %w", err)
		}
		if docID.Valid {
			id := docID.Int64
			rel.DocumentID = &id
		}
		rels = append(rels, rel)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("sqlite: error iterating relationships: %w", err)
	}
	return rels, nil
}

// CountEntities returns the total number of entity rows.
func (s *ArchiveStore) CountEntities(ctx context.Context) (int, error) {
	var count int
	if err := s.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM entities").Scan(&count); err != nil {
		return 0, fmt.Errorf("sqlite: failed to count entities: %w", err)
	}
	return count, nil
}

// CountRelationships returns the total number of relationship rows.
func (s *ArchiveStore) CountRelationships(ctx context.Context) (int, error) {
	var count int
	if err := s.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM relationships").Scan(&count); err != nil {
		return 0, fmt.Errorf("sqlite: failed to count relationships: %w", err)
	}
	return count, nil
}

// scanEntity scans one row produced with entityColumns.
func scanEntity(row rowScanner) (*types.Entity, error) {
	var entity types.Entity
	var secondaryRoles sql.NullString

	err := row.Scan(&entity.ID, &entity.Name, &entity.Type, &entity.Role,
		&secondaryRoles, &entity.RedFlagScore, &entity.MentionCount,
		&entity.CreatedAt, &entity.UpdatedAt)
	if err != nil {
		return nil, err
	}

	if secondaryRoles.Valid && secondaryRoles.String != "" {
		if err := json.Unmarshal([]byte(secondaryRoles.String), &entity.SecondaryRoles); err != nil {
			return nil, fmt.Errorf("failed to unmarshal secondary roles: %w", err)
		}
	}

	return &entity, nil
}

// marshalStringSlice serialises a string slice, mapping empty to NULL.
func marshalStringSlice(items []string) (sql.NullString, error) {
	if len(items) == 0 {
		return sql.NullString{}, nil
	}
	data, err := json.Marshal(items)
	if err != nil {
		return sql.NullString{}, err
	}
	return sql.NullString{String: string(data), Valid: true}, nil
}
