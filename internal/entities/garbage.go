package entities

import (
	"context"
	"fmt"
	"log"
	"strings"
	"unicode"

	"github.com/scrypster/docket/internal/storage"
)

// GarbageFilter prunes previously-stored entities that are OCR artifacts or
// common-word false positives rather than real-world referents. It runs as a
// distinct pass over the stored entities, not inline during extraction, so it
// can be re-run as the stoplist evolves.
type GarbageFilter struct {
	store    storage.EntityStore
	rules    *Rules
	stoplist map[string]bool
	ocrFrags map[string]bool
}

// NewGarbageFilter creates a GarbageFilter over the given store and rules.
func NewGarbageFilter(store storage.EntityStore, rules *Rules) *GarbageFilter {
	if rules == nil {
		rules = DefaultRules()
	}

	f := &GarbageFilter{
		store:    store,
		rules:    rules,
		stoplist: make(map[string]bool, len(rules.Stoplist)),
		ocrFrags: make(map[string]bool, len(rules.OCRFragments)),
	}
	for _, word := range rules.Stoplist {
		f.stoplist[strings.ToLower(word)] = true
	}
	for _, frag := range rules.OCRFragments {
		f.ocrFrags[strings.ToLower(frag)] = true
	}
	return f
}

// IsGarbage reports whether a name is noise. A name is garbage when ANY
// predicate fires.
func (f *GarbageFilter) IsGarbage(name string) bool {
	name = strings.TrimSpace(name)

	if len(name) < 2 {
		return true
	}

	// 1-2 uppercase letters: abbreviation or OCR artifact.
	if len(name) <= 2 && name == strings.ToUpper(name) && !containsDigit(name) {
		return true
	}

	if isNumericWithPunctuation(name) {
		return true
	}

	if digitCount(name)*2 > len(name) {
		return true
	}

	// Stoplist and OCR fragments match against each token, so "Page 12" is
	// caught by "page" even though the full string is not listed.
	for _, token := range strings.Fields(strings.ToLower(name)) {
		if f.ocrFrags[token] {
			return true
		}
	}

	tokens := strings.Fields(strings.ToLower(name))
	nonStop := 0
	for _, token := range tokens {
		if !f.stoplist[token] && !isNumericWithPunctuation(token) {
			nonStop++
		}
	}
	return nonStop == 0
}

// Run deletes every stored entity whose name is garbage. Deletion cascades to
// relationships and document links inside the store. Returns the number of
// entities deleted. Idempotent: a second run over the same store deletes
// nothing.
func (f *GarbageFilter) Run(ctx context.Context) (int, error) {
	// Collect first, delete after: deleting mid-pagination shifts later pages
	// backwards under the iterator.
	var victims []int64
	page := 1
	for {
		result, err := f.store.ListEntities(ctx, storage.ListOptions{
			Page:      page,
			Limit:     100,
			SortBy:    "created_at",
			SortOrder: "asc",
		})
		if err != nil {
			return 0, fmt.Errorf("entities: failed to list entities for garbage pass: %w", err)
		}

		for _, entity := range result.Items {
			if f.IsGarbage(entity.Name) {
				victims = append(victims, entity.ID)
			}
		}

		if !result.HasMore {
			break
		}
		page++
	}

	deleted := 0
	for _, id := range victims {
		if err := f.store.DeleteEntity(ctx, id); err != nil {
			return deleted, fmt.Errorf("entities: failed to delete garbage entity %d: %w", id, err)
		}
		deleted++
	}

	if deleted > 0 {
		log.Printf("entities: garbage filter removed %d entities", deleted)
	}
	return deleted, nil
}

func containsDigit(s string) bool {
	return digitCount(s) > 0
}

func digitCount(s string) int {
	count := 0
	for _, r := range s {
		if unicode.IsDigit(r) {
			count++
		}
	}
	return count
}

// isNumericWithPunctuation reports whether the string contains at least one
// digit and nothing but digits and punctuation.
func isNumericWithPunctuation(s string) bool {
	hasDigit := false
	for _, r := range s {
		switch {
		case unicode.IsDigit(r):
			hasDigit = true
		case unicode.IsPunct(r) || r == ' ':
		default:
			return false
		}
	}
	return hasDigit
}
