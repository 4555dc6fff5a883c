package sqlite

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/scrypster/docket/pkg/types"
)

// newTestStore creates an in-memory store for testing.
func newTestStore(t *testing.T) *ArchiveStore {
	t.Helper()

	store, err := NewArchiveStore(":memory:")
	if err != nil {
		t.Fatalf("failed to create test store: %v", err)
	}

	t.Cleanup(func() {
		store.Close()
	})

	return store
}

func testDocument(externalID string) *types.Document {
	return &types.Document{
		ExternalID:  externalID,
		Title:       "letter_" + externalID + ".pdf",
		FileType:    "pdf",
		StoragePath: "/archive/text/" + externalID + ".txt",
		ByteSize:    128,
		Content:     "dinner at the townhouse with counsel present",
		ContentHash: "deadbeef",
		WordCount:   7,
		Author:      "G. Maxwell",
		Custodian:   "Estate Production",
	}
}

func TestRecordAndListRuns(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	finished := time.Now().Add(time.Minute)
	runs := []*types.IngestRun{
		{ID: uuid.New().String(), Kind: types.RunRebuild, StartedAt: time.Now().Add(-time.Hour), Processed: 100, Inserted: 100},
		{ID: uuid.New().String(), Kind: types.RunIncrement, StartedAt: time.Now(), FinishedAt: &finished, Processed: 100, Updated: 100},
	}
	for _, run := range runs {
		if err := store.RecordRun(ctx, run); err != nil {
			t.Fatalf("failed to record run: %v", err)
		}
	}

	listed, err := store.ListRuns(ctx, 10)
	if err != nil {
		t.Fatalf("failed to list runs: %v", err)
	}
	if len(listed) != 2 {
		t.Fatalf("expected 2 runs, got %d", len(listed))
	}
	if listed[0].Kind != types.RunIncrement {
		t.Errorf("expected newest run first, got kind %q", listed[0].Kind)
	}
	if listed[0].FinishedAt == nil {
		t.Error("expected finished_at to round-trip")
	}
	if listed[1].FinishedAt != nil {
		t.Error("expected unfinished run to have nil finished_at")
	}
}

func TestRecordRunRequiresID(t *testing.T) {
	store := newTestStore(t)

	if err := store.RecordRun(context.Background(), &types.IngestRun{Kind: types.RunMedia}); err == nil {
		t.Error("expected error recording run without ID")
	}
}
