package sqlite

import (
	"context"
	"fmt"
	"strings"

	"github.com/scrypster/docket/internal/storage"
	"github.com/scrypster/docket/pkg/types"
)

// ftsStopwords are dropped from user queries before they reach FTS5. They add
// noise to prefix matching and never discriminate between archive documents.
var ftsStopwords = map[string]bool{
	"a": true, "an": true, "and": true, "are": true, "as": true, "at": true,
	"be": true, "by": true, "for": true, "from": true, "has": true, "he": true,
	"in": true, "is": true, "it": true, "its": true, "of": true, "on": true,
	"or": true, "that": true, "the": true, "to": true, "was": true, "were": true,
	"will": true, "with": true,
}

// sanitizeFTSQuery converts raw user input into a safe FTS5 MATCH expression.
// FTS5 operator characters are stripped, terms are lowercased and stopword-
// filtered, and the survivors become prefix queries joined with OR so that
// partial words still match. Returns "" when nothing searchable remains.
func sanitizeFTSQuery(query string) string {
	cleaned := strings.Map(func(r rune) rune {
		switch r {
		case '"', '\'', '*', '(', ')', ':', '^', '-', '+', '~', '{', '}', '[', ']':
			return ' '
		}
		return r
	}, query)

	var terms []string
	for _, word := range strings.Fields(strings.ToLower(cleaned)) {
		if len(word) < 2 || ftsStopwords[word] {
			continue
		}
		terms = append(terms, `"`+word+`"*`)
	}

	if len(terms) == 0 {
		return ""
	}
	return strings.Join(terms, " OR ")
}

// SearchDocuments performs FTS5-backed search over document title, content,
// author, and custodian. Results are ordered by bm25 relevance.
func (s *ArchiveStore) SearchDocuments(ctx context.Context, opts storage.SearchOptions) (*storage.PaginatedResult[types.Document], error) {
	opts.Normalize()

	matchExpr := sanitizeFTSQuery(opts.Query)
	if matchExpr == "" {
		return &storage.PaginatedResult[types.Document]{
			Items:    []types.Document{},
			Page:     1,
			PageSize: opts.Limit,
		}, nil
	}

	var total int
	err := s.db.QueryRowContext(ctx, `
		SELECT COUNT(*) FROM documents_fts WHERE documents_fts MATCH ?
	`, matchExpr).Scan(&total)
	if err != nil {
		return nil, fmt.Errorf("sqlite: failed to count document matches: %w", err)
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT d.id, d.external_id, d.title, d.file_type, d.storage_path, d.native_path,
			d.byte_size, d.content, d.content_hash, d.word_count,
			d.author, d.custodian, d.doc_date, d.metadata,
			d.red_flag_score, d.evidence_type, d.has_failed_redactions, d.failed_redaction_count,
			d.parent_external_id, d.thread_position, d.created_at, d.updated_at
		FROM documents d
		JOIN documents_fts f ON f.rowid = d.id
		WHERE documents_fts MATCH ?
		ORDER BY bm25(documents_fts)
		LIMIT ? OFFSET ?
	`, matchExpr, opts.Limit, opts.Offset)
	if err != nil {
		return nil, fmt.Errorf("sqlite: failed to search documents: %w", err)
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
		return nil, fmt.Errorf("sqlite: error iterating search results: %w", err)
	}

	return &storage.PaginatedResult[types.Document]{
		Items:    docs,
		Total:    total,
		Page:     opts.Offset/opts.Limit + 1,
		PageSize: opts.Limit,
		HasMore:  opts.Offset+len(docs) < total,
	}, nil
}

// SearchEntities performs FTS5-backed search over entity name and role.
func (s *ArchiveStore) SearchEntities(ctx context.Context, opts storage.SearchOptions) (*storage.PaginatedResult[types.Entity], error) {
	opts.Normalize()

	matchExpr := sanitizeFTSQuery(opts.Query)
	if matchExpr == "" {
		return &storage.PaginatedResult[types.Entity]{
			Items:    []types.Entity{},
			Page:     1,
			PageSize: opts.Limit,
		}, nil
	}

	var total int
	err := s.db.QueryRowContext(ctx, `
		SELECT COUNT(*) FROM entities_fts WHERE entities_fts MATCH ?
	`, matchExpr).Scan(&total)
	if err != nil {
		return nil, fmt.Errorf("sqlite: failed to count entity matches: %w", err)
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT e.id, e.name, e.type, e.role, e.secondary_roles, e.red_flag_score,
			e.mention_count, e.created_at, e.updated_at
		FROM entities e
		JOIN entities_fts f ON f.rowid = e.id
		WHERE entities_fts MATCH ?
		ORDER BY bm25(entities_fts)
		LIMIT ? OFFSET ?
	`, matchExpr, opts.Limit, opts.Offset)
	if err != nil {
		return nil, fmt.Errorf("sqlite: failed to search entities: %w", err)
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
		return nil, fmt.Errorf("sqlite: error iterating search results: %w", err)
	}

	return &storage.PaginatedResult[types.Entity]{
		Items:    entities,
		Total:    total,
		Page:     opts.Offset/opts.Limit + 1,
		PageSize: opts.Limit,
		HasMore:  opts.Offset+len(entities) < total,
	}, nil
}
