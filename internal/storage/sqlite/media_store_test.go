package sqlite

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/scrypster/docket/internal/storage"
	"github.com/scrypster/docket/pkg/types"
)

func testMediaItem(albumID, fileName string) *types.MediaItem {
	return &types.MediaItem{
		ID:       uuid.New().String(),
		AlbumID:  albumID,
		FileName: fileName,
		Path:     "/archive/media/island/" + fileName,
		ByteSize: 2048,
		Width:    640,
		Height:   480,
	}
}

func TestUpsertAlbumIdempotent(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	first, err := store.UpsertAlbum(ctx, "island-photos")
	if err != nil {
		t.Fatalf("failed to create album: %v", err)
	}

	second, err := store.UpsertAlbum(ctx, "island-photos")
	if err != nil {
		t.Fatalf("failed to re-upsert album: %v", err)
	}

	if first.ID != second.ID {
		t.Errorf("expected same album on re-upsert, got IDs %s and %s", first.ID, second.ID)
	}
}

func TestInsertMediaItemFirstBecomesCover(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	album, err := store.UpsertAlbum(ctx, "island-photos")
	if err != nil {
		t.Fatalf("failed to create album: %v", err)
	}

	first := testMediaItem(album.ID, "IMG_0001.jpg")
	captured := time.Date(2005, 7, 14, 16, 30, 0, 0, time.UTC)
	first.CapturedAt = &captured
	first.CameraMake = "Canon"

	if err := store.InsertMediaItem(ctx, first); err != nil {
		t.Fatalf("failed to insert first item: %v", err)
	}
	if err := store.InsertMediaItem(ctx, testMediaItem(album.ID, "IMG_0002.jpg")); err != nil {
		t.Fatalf("failed to insert second item: %v", err)
	}

	albums, err := store.ListAlbums(ctx)
	if err != nil {
		t.Fatalf("failed to list albums: %v", err)
	}
	if len(albums) != 1 {
		t.Fatalf("expected 1 album, got %d", len(albums))
	}
	if albums[0].CoverMediaID == nil || *albums[0].CoverMediaID != first.ID {
		t.Error("expected first inserted item to become the cover")
	}

	items, err := store.ListAlbumMedia(ctx, album.ID)
	if err != nil {
		t.Fatalf("failed to list media: %v", err)
	}
	if len(items) != 2 {
		t.Fatalf("expected 2 items, got %d", len(items))
	}
	if items[0].CapturedAt == nil || !items[0].CapturedAt.Equal(captured) {
		t.Errorf("expected captured_at to round-trip, got %v", items[0].CapturedAt)
	}
	if items[0].CameraMake != "Canon" {
		t.Errorf("expected camera make to round-trip, got %q", items[0].CameraMake)
	}
}

func TestInsertMediaItemPathCollisionIsNoOp(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	album, err := store.UpsertAlbum(ctx, "island-photos")
	if err != nil {
		t.Fatalf("failed to create album: %v", err)
	}

	item := testMediaItem(album.ID, "IMG_0001.jpg")
	if err := store.InsertMediaItem(ctx, item); err != nil {
		t.Fatalf("failed to insert item: %v", err)
	}

	dup := testMediaItem(album.ID, "IMG_0001.jpg")
	if err := store.InsertMediaItem(ctx, dup); err != nil {
		t.Fatalf("expected path collision to be a no-op, got %v", err)
	}

	items, err := store.ListAlbumMedia(ctx, album.ID)
	if err != nil {
		t.Fatalf("failed to list media: %v", err)
	}
	if len(items) != 1 {
		t.Errorf("expected 1 item after duplicate insert, got %d", len(items))
	}
}

func TestSetAlbumCoverValidatesMembership(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	albumA, err := store.UpsertAlbum(ctx, "island-photos")
	if err != nil {
		t.Fatalf("failed to create album A: %v", err)
	}
	albumB, err := store.UpsertAlbum(ctx, "zorro-ranch")
	if err != nil {
		t.Fatalf("failed to create album B: %v", err)
	}

	itemA := testMediaItem(albumA.ID, "IMG_0001.jpg")
	if err := store.InsertMediaItem(ctx, itemA); err != nil {
		t.Fatalf("failed to insert item: %v", err)
	}

	if err := store.SetAlbumCover(ctx, albumB.ID, itemA.ID); !errors.Is(err, storage.ErrInvalidInput) {
		t.Errorf("expected ErrInvalidInput for cross-album cover, got %v", err)
	}

	if err := store.SetAlbumCover(ctx, albumA.ID, itemA.ID); err != nil {
		t.Fatalf("failed to set valid cover: %v", err)
	}

	if err := store.SetAlbumCover(ctx, albumA.ID, uuid.New().String()); !errors.Is(err, storage.ErrNotFound) {
		t.Errorf("expected ErrNotFound for missing media, got %v", err)
	}
}
