package ingest

import (
	"context"
	"fmt"
	"log"
	"regexp"

	"github.com/scrypster/docket/internal/storage"
)

// failedRedactionPattern finds redaction markers butted directly against word
// characters. A marker that fails to cover its whole token leaves legible
// text touching the mark, which is exactly the leak reviewers need to find.
var failedRedactionPattern = regexp.MustCompile(`\w(?:█+|\[REDACTED\])|(?:█+|\[REDACTED\])\w`)

// CountFailedRedactions returns the number of suspected failed redactions in
// the text.
func CountFailedRedactions(content string) int {
	return len(failedRedactionPattern.FindAllString(content, -1))
}

// RedactionScanner flags documents whose text shows signs of failed
// redactions. It is an independent enrichment pass over already-stored
// documents and is safe to re-run; a clean document stays clean and a flagged
// one keeps the same count.
type RedactionScanner struct {
	store storage.DocumentStore
}

// NewRedactionScanner creates a RedactionScanner over the given store.
func NewRedactionScanner(store storage.DocumentStore) *RedactionScanner {
	return &RedactionScanner{store: store}
}

// Run scans every stored document and updates its failed-redaction flags.
// Returns the number of documents flagged.
func (s *RedactionScanner) Run(ctx context.Context) (int, error) {
	flagged := 0
	page := 1

	for {
		result, err := s.store.ListDocuments(ctx, storage.ListOptions{
			Page:      page,
			Limit:     100,
			SortBy:    "external_id",
			SortOrder: "asc",
		})
		if err != nil {
			return flagged, fmt.Errorf("ingest: failed to list documents for redaction scan: %w", err)
		}

		for _, doc := range result.Items {
			count := CountFailedRedactions(doc.Content)
			if count == doc.FailedRedactionCount {
				continue
			}
			// A leaked redaction makes the document worth a look even when
			// nothing else scored it.
			score := doc.RedFlagScore
			if count > 0 && score < 1 {
				score = 1
			}
			if err := s.store.UpdateDocumentFlags(ctx, doc.ExternalID, score, count); err != nil {
				return flagged, fmt.Errorf("ingest: failed to flag %s: %w", doc.ExternalID, err)
			}
			if count > 0 {
				flagged++
			}
		}

		if !result.HasMore {
			break
		}
		page++
	}

	if flagged > 0 {
		log.Printf("ingest: redaction scan flagged %d documents", flagged)
	}
	return flagged, nil
}
