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

// documentColumns is the SELECT list shared by every document read path.
const documentColumns = `
	id, external_id, title, file_type, storage_path, native_path,
	byte_size, content, content_hash, word_count,
	author, custodian, doc_date, metadata,
	red_flag_score, evidence_type, has_failed_redactions, failed_redaction_count,
	parent_external_id, thread_position, created_at, updated_at`

// UpsertDocument creates or updates a document keyed by external ID. On
// conflict the manifest-derived fields are refreshed so that later manifest
// rows win. The enrichment-owned columns (red_flag_score and the redaction
// counters) are left untouched on conflict: a re-ingest must not erase what
// the enrichment passes wrote. Returns true when a new row was inserted.
//
// The FTS shadow row is maintained by triggers, so base write and shadow
// write share the statement's implicit transaction.
func (s *ArchiveStore) UpsertDocument(ctx context.Context, doc *types.Document) (bool, error) {
	if doc == nil || doc.ExternalID == "" {
		return false, storage.ErrInvalidInput
	}

	metadataJSON, err := marshalMetadata(doc.Metadata)
	if err != nil {
		return false, fmt.Errorf("sqlite: failed to marshal document metadata: %w", err)
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return false, fmt.Errorf("sqlite: failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	var existingID int64
	err = tx.QueryRowContext(ctx,
		"SELECT id FROM documents WHERE external_id = ?", doc.ExternalID).Scan(&existingID)
	inserted := errors.Is(err, sql.ErrNoRows)
	if err != nil && !inserted {
		return false, fmt.Errorf("sqlite: failed to check existing document: %w", err)
	}

	res, err := tx.ExecContext(ctx, `
		INSERT INTO documents (
			external_id, title, file_type, storage_path, native_path,
			byte_size, content, content_hash, word_count,
			author, custodian, doc_date, metadata,
			red_flag_score, evidence_type, has_failed_redactions, failed_redaction_count,
			parent_external_id, thread_position, updated_at
		)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, CURRENT_TIMESTAMP)
		ON CONFLICT(external_id) DO UPDATE SET
			title = excluded.title,
			file_type = excluded.file_type,
			storage_path = excluded.storage_path,
			native_path = excluded.native_path,
			byte_size = excluded.byte_size,
			content = excluded.content,
			content_hash = excluded.content_hash,
			word_count = excluded.word_count,
			author = excluded.author,
			custodian = excluded.custodian,
			doc_date = excluded.doc_date,
			metadata = excluded.metadata,
			evidence_type = excluded.evidence_type,
			parent_external_id = excluded.parent_external_id,
			thread_position = excluded.thread_position,
			updated_at = CURRENT_TIMESTAMP
	`, doc.ExternalID, doc.Title, doc.FileType, doc.StoragePath, nullableString(doc.NativePath),
		doc.ByteSize, doc.Content, doc.ContentHash, doc.WordCount,
		nullableString(doc.Author), nullableString(doc.Custodian), nullableString(doc.DocDate), metadataJSON,
		doc.RedFlagScore, nullableString(doc.EvidenceType), boolToInt(doc.HasFailedRedactions), doc.FailedRedactionCount,
		nullableString(doc.ParentExternalID), doc.ThreadPosition)
	if err != nil {
		return false, fmt.Errorf("sqlite: failed to upsert document %s: %w", doc.ExternalID, err)
	}

	if inserted {
		id, err := res.LastInsertId()
		if err != nil {
			return false, fmt.Errorf("sqlite: failed to get document row ID: %w", err)
		}
		doc.ID = id
	} else {
		doc.ID = existingID
	}

	if err := tx.Commit(); err != nil {
		return false, fmt.Errorf("sqlite: failed to commit document upsert: %w", err)
	}

	return inserted, nil
}

// GetDocument retrieves a document by its external ID.
func (s *ArchiveStore) GetDocument(ctx context.Context, externalID string) (*types.Document, error) {
	if externalID == "" {
		return nil, storage.ErrInvalidInput
	}

	row := s.db.QueryRowContext(ctx,
		"SELECT"+documentColumns+" FROM documents WHERE external_id = ?", externalID)

	doc, err := scanDocument(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, storage.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("sqlite: failed to get document %s: %w", externalID, err)
	}
	return doc, nil
}

// ListDocuments retrieves documents with pagination and filtering.
func (s *ArchiveStore) ListDocuments(ctx context.Context, opts storage.ListOptions) (*storage.PaginatedResult[types.Document], error) {
	opts.Normalize()

	where, args := documentFilters(opts)

	var total int
	countQuery := "SELECT COUNT(*) FROM documents" + where
	if err := s.db.QueryRowContext(ctx, countQuery, args...).Scan(&total); err != nil {
		return nil, fmt.Errorf("sqlite: failed to count documents: %w", err)
	}

	query := fmt.Sprintf("SELECT%s FROM documents%s ORDER BY %s %s LIMIT ? OFFSET ?",
		documentColumns, where, opts.SortBy, strings.ToUpper(opts.SortOrder))
	rows, err := s.db.QueryContext(ctx, query, append(args, opts.Limit, opts.Offset())...)
	if err != nil {
		return nil, fmt.Errorf("sqlite: failed to list documents: %w", err)
	}
	defer rows.Close()

	var docs []types.Document
	for rows.Next() {
		doc, err := scanDocument(rows)
		if err != nil {
			return nil, fmt.Errorf("sqlite: failed to scan document: %w", err)
		}
		docs = append(docs, *doc)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("sqlite: error iterating documents: %w", err)
	}

	return &storage.PaginatedResult[types.Document]{
		Items:    docs,
		Total:    total,
		Page:     opts.Page,
		PageSize: opts.Limit,
		HasMore:  opts.Offset()+len(docs) < total,
	}, nil
}

// DeleteDocument removes a document by external ID. Links and supporting
// relationship references are cleaned up by foreign keys; the FTS shadow row
// is removed by the delete trigger.
func (s *ArchiveStore) DeleteDocument(ctx context.Context, externalID string) error {
	if externalID == "" {
		return storage.ErrInvalidInput
	}

	res, err := s.db.ExecContext(ctx, "DELETE FROM documents WHERE external_id = ?", externalID)
	if err != nil {
		return fmt.Errorf("sqlite: failed to delete document %s: %w", externalID, err)
	}

	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("sqlite: failed to check delete result: %w", err)
	}
	if affected == 0 {
		return storage.ErrNotFound
	}
	return nil
}

// UpdateDocumentFlags amends the review signals of an existing document
// without touching its content.
func (s *ArchiveStore) UpdateDocumentFlags(ctx context.Context, externalID string, redFlagScore int, failedRedactions int) error {
	if externalID == "" {
		return storage.ErrInvalidInput
	}

	res, err := s.db.ExecContext(ctx, `
		UPDATE documents
		SET red_flag_score = ?,
			has_failed_redactions = ?,
			failed_redaction_count = ?,
			updated_at = CURRENT_TIMESTAMP
		WHERE external_id = ?
	`, redFlagScore, boolToInt(failedRedactions > 0), failedRedactions, externalID)
	if err != nil {
		return fmt.Errorf("sqlite: failed to update flags for %s: %w", externalID, err)
	}

	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("sqlite: failed to check update result: %w", err)
	}
	if affected == 0 {
		return storage.ErrNotFound
	}
	return nil
}

// CountDocuments returns the total number of document rows.
func (s *ArchiveStore) CountDocuments(ctx context.Context) (int, error) {
	var count int
	if err := s.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM documents").Scan(&count); err != nil {
		return 0, fmt.Errorf("sqlite: failed to count documents: %w", err)
	}
	return count, nil
}

// documentFilters builds the WHERE clause for list queries from ListOptions.
func documentFilters(opts storage.ListOptions) (string, []interface{}) {
	var conds []string
	var args []interface{}

	if opts.EvidenceType != "" {
		conds = append(conds, "evidence_type = ?")
		args = append(args, opts.EvidenceType)
	}
	if opts.Custodian != "" {
		conds = append(conds, "custodian = ?")
		args = append(args, opts.Custodian)
	}
	if opts.Author != "" {
		conds = append(conds, "author = ?")
		args = append(args, opts.Author)
	}
	if opts.MinRedFlagScore > 0 {
		conds = append(conds, "red_flag_score >= ?")
		args = append(args, opts.MinRedFlagScore)
	}
	if opts.MissingOnly {
		conds = append(conds, "storage_path LIKE ?")
		args = append(args, types.MissingPathPrefix+"%")
	}
	if !opts.CreatedAfter.IsZero() {
		conds = append(conds, "created_at > ?")
		args = append(args, opts.CreatedAfter)
	}
	if !opts.CreatedBefore.IsZero() {
		conds = append(conds, "created_at < ?")
		args = append(args, opts.CreatedBefore)
	}

	if len(conds) == 0 {
		return "", nil
	}
	return " WHERE " + strings.Join(conds, " AND "), args
}

// rowScanner is satisfied by both *sql.Row and *sql.Rows.
type rowScanner interface {
	Scan(dest ...interface{}) error
}

// scanDocument scans one row produced with documentColumns.
func scanDocument(row rowScanner) (*types.Document, error) {
	var doc types.Document
	var nativePath, author, custodian, docDate, metadata, evidenceType, parentID sql.NullString
	var threadPosition sql.NullInt64
	var hasFailedRedactions int

	err := row.Scan(
		&doc.ID, &doc.ExternalID, &doc.Title, &doc.FileType, &doc.StoragePath, &nativePath,
		&doc.ByteSize, &doc.Content, &doc.ContentHash, &doc.WordCount,
		&author, &custodian, &docDate, &metadata,
		&doc.RedFlagScore, &evidenceType, &hasFailedRedactions, &doc.FailedRedactionCount,
		&parentID, &threadPosition, &doc.CreatedAt, &doc.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	doc.NativePath = nativePath.String
	doc.Author = author.String
	doc.Custodian = custodian.String
	doc.DocDate = docDate.String
	doc.EvidenceType = evidenceType.String
	doc.ParentExternalID = parentID.String
	doc.ThreadPosition = int(threadPosition.Int64)
	doc.HasFailedRedactions = hasFailedRedactions != 0

	if metadata.Valid && metadata.String != "" {
		if err := json.Unmarshal([]byte(metadata.String), &doc.Metadata); err != nil {
			return nil, fmt.Errorf("failed to unmarshal metadata: %w", err)
		}
	}

	return &doc, nil
}

// marshalMetadata serialises the metadata map, mapping empty to NULL.
func marshalMetadata(m map[string]interface{}) (sql.NullString, error) {
	if len(m) == 0 {
		return sql.NullString{}, nil
	}
	data, err := json.Marshal(m)
	if err != nil {
		return sql.NullString{}, err
	}
	return sql.NullString{String: string(data), Valid: true}, nil
}

// boolToInt converts a bool to the 0/1 integers SQLite stores.
func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
