// Package ingest drives the reconciliation batch: manifest rows are resolved
// against the file trees and upserted into the archive store. The pipeline is
// single-threaded on purpose; every document write and its search-shadow
// write share one transaction, and an aborted run resumes safely because the
// upsert is idempotent.
package ingest

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strings"

	"github.com/scrypster/docket/internal/locate"
	"github.com/scrypster/docket/internal/manifest"
	"github.com/scrypster/docket/internal/storage"
	"github.com/scrypster/docket/pkg/types"
)

// Summary is the operator-facing outcome of one pipeline run.
type Summary struct {
	Processed int // Manifest rows handled
	Inserted  int // New document rows
	Updated   int // Existing rows refreshed
	Missing   int // Rows ingested with placeholder content
	Skipped   int // Malformed or identifier-less manifest rows
	Errors    int // Recoverable per-row failures
}

// Pipeline ingests one manifest into the document store. A Pipeline instance
// serves one run; its locator index is built at the start of Run and must not
// be shared across runs against changed file trees.
type Pipeline struct {
	store   storage.DocumentStore
	reader  *manifest.Reader
	locator *locate.Locator
}

// New creates a Pipeline over the given store, manifest reader, and locator.
func New(store storage.DocumentStore, reader *manifest.Reader, locator *locate.Locator) *Pipeline {
	return &Pipeline{
		store:   store,
		reader:  reader,
		locator: locator,
	}
}

// Run reads the manifest, resolves each row's files, and upserts one document
// per row. Rows with unresolvable text renditions are ingested with a
// synthetic marker path and placeholder content, never dropped. Only an
// unreadable manifest is fatal.
func (p *Pipeline) Run(ctx context.Context) (*Summary, error) {
	if err := p.locator.Index(); err != nil {
		return nil, fmt.Errorf("ingest: failed to index file trees: %w", err)
	}
	log.Printf("ingest: indexed %d files", p.locator.IndexedFiles())

	rows, report, err := p.reader.Read()
	if err != nil {
		return nil, err
	}

	summary := &Summary{Skipped: report.Skipped}

	for _, row := range rows {
		if err := ctx.Err(); err != nil {
			return summary, err
		}

		externalID := row.Get(manifest.ColID)
		if externalID == "" {
			summary.Skipped++
			continue
		}
		summary.Processed++

		doc, missing := p.buildDocument(externalID, row)
		if missing {
			summary.Missing++
		}

		inserted, err := p.store.UpsertDocument(ctx, doc)
		if err != nil {
			log.Printf("ingest: failed to store %s: %v", externalID, err)
			summary.Errors++
			continue
		}
		if inserted {
			summary.Inserted++
		} else {
			summary.Updated++
		}
	}

	log.Printf("ingest: processed=%d inserted=%d updated=%d missing=%d skipped=%d errors=%d",
		summary.Processed, summary.Inserted, summary.Updated,
		summary.Missing, summary.Skipped, summary.Errors)

	return summary, nil
}

// buildDocument assembles a Document from one manifest row, resolving and
// reading its text rendition. Returns missing=true when no text rendition
// could be located or read.
func (p *Pipeline) buildDocument(externalID string, row manifest.Row) (*types.Document, bool) {
	doc := &types.Document{
		ExternalID: externalID,
		Title:      row.Get(manifest.ColFileName),
		FileType:   strings.ToLower(row.Get(manifest.ColFileType)),
		Author:     row.Get(manifest.ColAuthor),
		Custodian:  row.Get(manifest.ColCustodian),
		DocDate:    row.Get(manifest.ColDate),
	}
	if doc.Title == "" {
		doc.Title = externalID
	}
	if doc.FileType == "" {
		doc.FileType = strings.TrimPrefix(filepath.Ext(doc.Title), ".")
	}

	if declaredHash := row.Get(manifest.ColHash); declaredHash != "" {
		doc.Metadata = map[string]interface{}{"declared_hash": declaredHash}
	}

	if nativePath, ok := p.locator.Resolve(row.Get(manifest.ColNativePath)); ok {
		doc.NativePath = nativePath
	}

	missing := true
	if textPath, ok := p.locator.Resolve(row.Get(manifest.ColTextPath)); ok {
		content, err := os.ReadFile(textPath)
		if err != nil {
			log.Printf("ingest: failed to read %s: %v", textPath, err)
		} else {
			doc.StoragePath = textPath
			doc.Content = string(content)
			missing = false
		}
	}

	if missing {
		doc.StoragePath = types.MissingPathPrefix + externalID
		doc.Content = types.PlaceholderContent
	}

	doc.ByteSize = int64(len(doc.Content))
	doc.WordCount = len(strings.Fields(doc.Content))
	doc.ContentHash = hashContent(doc.Content)

	return doc, missing
}

// hashContent returns the sha256 hex fingerprint used for cross-ingestion
// dedup.
func hashContent(content string) string {
	sum := sha256.Sum256([]byte(content))
	return hex.EncodeToString(sum[:])
}
