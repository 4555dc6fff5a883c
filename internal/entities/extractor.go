package entities

import (
	"context"
	"fmt"
	"regexp"
	"strings"

	"github.com/google/uuid"

	"github.com/scrypster/docket/internal/storage"
	"github.com/scrypster/docket/pkg/types"
)

// candidatePattern matches runs of 2 to 4 capitalized tokens in free text,
// the shape of most person and place names surviving OCR.
var candidatePattern = regexp.MustCompile(`[A-Z][a-z]+(?: [A-Z][a-z]+){1,3}`)

// maxCandidatesPerDocument caps how many free-text candidates one document
// contributes. OCR-damaged documents can emit thousands of capitalized runs;
// past this point they are noise.
const maxCandidatesPerDocument = 20

// Extractor derives entities from document fields and text, stores them, and
// records co-occurrence edges. One Extractor serves one ingestion run; its
// seen-cache must not outlive the run.
type Extractor struct {
	store      storage.EntityStore
	classifier *Classifier

	// seen maps normalized lowercase names to entity row IDs, avoiding a
	// store round-trip for names already handled this run.
	seen map[string]int64
}

// NewExtractor creates an Extractor for a single ingestion run.
func NewExtractor(store storage.EntityStore, classifier *Classifier) *Extractor {
	return &Extractor{
		store:      store,
		classifier: classifier,
		seen:       make(map[string]int64),
	}
}

// ExtractFromDocument derives candidate entities from the document's
// structured fields and content, stores them, links them to the document, and
// records co-occurrence relationships among them. Returns the number of
// entities linked.
func (e *Extractor) ExtractFromDocument(ctx context.Context, doc *types.Document) (int, error) {
	if doc == nil || doc.ID == 0 {
		return 0, storage.ErrInvalidInput
	}

	var entityIDs []int64
	linked := make(map[int64]bool)

	for _, candidate := range e.candidates(doc) {
		name := NormalizeName(candidate)
		if len(name) < 2 {
			continue
		}

		id, err := e.upsert(ctx, name)
		if err != nil {
			return len(entityIDs), err
		}
		if linked[id] {
			continue
		}
		linked[id] = true

		if err := e.store.LinkDocumentEntity(ctx, doc.ID, id); err != nil {
			return len(entityIDs), fmt.Errorf("entities: failed to link entity to document %s: %w", doc.ExternalID, err)
		}
		entityIDs = append(entityIDs, id)
	}

	if err := e.recordCoOccurrences(ctx, doc.ID, entityIDs); err != nil {
		return len(entityIDs), err
	}

	return len(entityIDs), nil
}

// candidates collects raw name candidates: structured fields first, then
// capitalized runs from the content.
func (e *Extractor) candidates(doc *types.Document) []string {
	var out []string

	for _, field := range []string{doc.Author, doc.Custodian} {
		field = strings.TrimSpace(field)
		if field != "" && !strings.EqualFold(field, "unknown") {
			out = append(out, field)
		}
	}

	if doc.Content != "" && doc.Content != types.PlaceholderContent {
		matches := candidatePattern.FindAllString(doc.Content, maxCandidatesPerDocument)
		out = append(out, matches...)
	}

	return out
}

// upsert stores the named entity (or finds the existing row) and caches the
// result for the rest of the run.
func (e *Extractor) upsert(ctx context.Context, name string) (int64, error) {
	key := strings.ToLower(name)
	if id, ok := e.seen[key]; ok {
		return id, nil
	}

	entity, err := e.store.UpsertEntity(ctx, &types.Entity{
		Name: name,
		Type: e.classifier.ClassifyType(name),
	})
	if err != nil {
		return 0, fmt.Errorf("entities: failed to upsert entity %q: %w", name, err)
	}

	e.seen[key] = entity.ID
	return entity.ID, nil
}

// recordCoOccurrences links every pair of entities observed in one document.
// Edges run from the lower to the higher row ID so re-observation lands on
// the same unique edge rather than its mirror.
func (e *Extractor) recordCoOccurrences(ctx context.Context, documentID int64, entityIDs []int64) error {
	for i := 0; i < len(entityIDs); i++ {
		for j := i + 1; j < len(entityIDs); j++ {
			from, to := entityIDs[i], entityIDs[j]
			if from > to {
				from, to = to, from
			}

			docID := documentID
			err := e.store.CreateRelationship(ctx, &types.Relationship{
				ID:         uuid.New().String(),
				FromID:     from,
				ToID:       to,
				Type:       types.RelCoOccurs,
				Strength:   0.1,
				Confidence: 0.5,
				DocumentID: &docID,
			})
			if err != nil {
				return fmt.Errorf("entities: failed to record co-occurrence: %w", err)
			}
		}
	}
	return nil
}

// Enricher applies role classification to stored entities whose role is still
// unknown. Classification is monotonic; already-classified entities are never
// touched, so the pass is safe to re-run.
type Enricher struct {
	store      storage.EntityStore
	classifier *Classifier
}

// NewEnricher creates an Enricher over the given store and classifier.
func NewEnricher(store storage.EntityStore, classifier *Classifier) *Enricher {
	return &Enricher{store: store, classifier: classifier}
}

// Run classifies every unclassified entity. Returns the number of entities
// whose role was updated.
func (en *Enricher) Run(ctx context.Context) (int, error) {
	// Collect first, update after: role updates remove rows from the
	// Role=Unknown filter and would shift later pages under the iterator.
	type target struct {
		id         int64
		role       string
		entityType string
	}
	var targets []target

	page := 1
	for {
		result, err := en.store.ListEntities(ctx, storage.ListOptions{
			Page:      page,
			Limit:     100,
			Role:      types.RoleUnknown,
			SortBy:    "created_at",
			SortOrder: "asc",
		})
		if err != nil {
			return 0, fmt.Errorf("entities: failed to list entities for enrichment: %w", err)
		}

		for _, entity := range result.Items {
			if role, entityType, ok := en.classifier.ClassifyRole(entity.Name); ok {
				targets = append(targets, target{entity.ID, role, entityType})
			}
		}

		if !result.HasMore {
			break
		}
		page++
	}

	updated := 0
	for _, t := range targets {
		if err := en.store.UpdateEntityRole(ctx, t.id, t.role, t.entityType); err != nil {
			return updated, fmt.Errorf("entities: failed to classify entity %d: %w", t.id, err)
		}
		updated++
	}

	return updated, nil
}
