package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"

	"github.com/scrypster/docket/internal/storage"
	"github.com/scrypster/docket/pkg/types"
)

// UpsertAlbum creates an album by name or returns the existing one.
func (s *ArchiveStore) UpsertAlbum(ctx context.Context, name string) (*types.Album, error) {
	if name == "" {
		return nil, storage.ErrInvalidInput
	}

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO albums (id, name)
		VALUES (?, ?)
		ON CONFLICT(name) DO NOTHING
	`, uuid.New().String(), name)
	if err != nil {
		return nil, fmt.Errorf("sqlite: failed to upsert album %q: %w", name, err)
	}

	var album types.Album
	var coverID sql.NullString
	err = s.db.QueryRowContext(ctx, `
		SELECT id, name, cover_media_id, created_at, updated_at
		FROM albums WHERE name = ?
	`, name).Scan(&album.ID, &album.Name, &coverID, &album.CreatedAt, &album.UpdatedAt)
	if err != nil {
		return nil, fmt.Errorf("sqlite: failed to get album %q: %w", name, err)
	}
	if coverID.Valid {
		id := coverID.String
		album.CoverMediaID = &id
	}
	return &album, nil
}

// InsertMediaItem stores a media item. A path collision means the file was
// already ingested by an earlier run; the existing row wins and no error is
// returned. The first item stored for an album becomes its cover unless a
// cover is already set.
func (s *ArchiveStore) InsertMediaItem(ctx context.Context, item *types.MediaItem) error {
	if item == nil || item.AlbumID == "" || item.Path == "" {
		return storage.ErrInvalidInput
	}
	if item.ID == "" {
		item.ID = uuid.New().String()
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("sqlite: failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	res, err := tx.ExecContext(ctx, `
		INSERT INTO media_items (id, album_id, file_name, path, byte_size,
			width, height, captured_at, camera_make, camera_model)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(path) DO NOTHING
	`, item.ID, item.AlbumID, item.FileName, item.Path, item.ByteSize,
		item.Width, item.Height, nullableTime(item.CapturedAt),
		nullableString(item.CameraMake), nullableString(item.CameraModel))
	if err != nil {
		return fmt.Errorf("sqlite: failed to insert media item %s: %w", item.Path, err)
	}

	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("sqlite: failed to check insert result: %w", err)
	}

	if affected > 0 {
		if _, err := tx.ExecContext(ctx, `
			UPDATE albums
			SET cover_media_id = ?, updated_at = CURRENT_TIMESTAMP
			WHERE id = ? AND cover_media_id IS NULL
		`, item.ID, item.AlbumID); err != nil {
			return fmt.Errorf("sqlite: failed to set default album cover: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("sqlite: failed to commit media insert: %w", err)
	}
	return nil
}

// SetAlbumCover sets the album cover. The media item must belong to the album.
func (s *ArchiveStore) SetAlbumCover(ctx context.Context, albumID, mediaID string) error {
	if albumID == "" || mediaID == "" {
		return storage.ErrInvalidInput
	}

	var owner string
	err := s.db.QueryRowContext(ctx,
		"SELECT album_id FROM media_items WHERE id = ?", mediaID).Scan(&owner)
	if errors.Is(err, sql.ErrNoRows) {
		return storage.ErrNotFound
	}
	if err != nil {
		return fmt.Errorf("sqlite: failed to check media item %s: %w", mediaID, err)
	}
	if owner != albumID {
		return fmt.Errorf("sqlite: media item %s does not belong to album %s: %w",
			mediaID, albumID, storage.ErrInvalidInput)
	}

	res, err := s.db.ExecContext(ctx, `
		UPDATE albums SET cover_media_id = ?, updated_at = CURRENT_TIMESTAMP WHERE id = ?
	`, mediaID, albumID)
	if err != nil {
		return fmt.Errorf("sqlite: failed to set album cover: %w", err)
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

// ListAlbums returns all albums, ordered by name.
func (s *ArchiveStore) ListAlbums(ctx context.Context) ([]types.Album, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, name, cover_media_id, created_at, updated_at
		FROM albums ORDER BY name ASC
	`)
	if err != nil {
		return nil, fmt.Errorf("sqlite: failed to list albums: %w", err)
	}
	defer rows.Close()

	var albums []types.Album
	for rows.Next() {
		var album types.Album
		var coverID sql.NullString
		if err := rows.Scan(&album.ID, &album.Name, &coverID,
			&album.CreatedAt, &album.UpdatedAt); err != nil {
			return nil, fmt.Errorf("sqlite: failed to scan album: %w", err)
		}
		if coverID.Valid {
			id := coverID.String
			album.CoverMediaID = &id
		}
		albums = append(albums, album)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("sqlite: error iterating albums: %w", err)
	}
	return albums, nil
}

// ListAlbumMedia returns the media items of one album, ordered by file name.
func (s *ArchiveStore) ListAlbumMedia(ctx context.Context, albumID string) ([]types.MediaItem, error) {
	if albumID == "" {
		return nil, storage.ErrInvalidInput
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT id, album_id, file_name, path, byte_size,
			width, height, captured_at, camera_make, camera_model, created_at
		FROM media_items
		WHERE album_id = ?
		ORDER BY file_name ASC
	`, albumID)
	if err != nil {
		return nil, fmt.Errorf("sqlite: failed to list media for album %s: %w", albumID, err)
	}
	defer rows.Close()

	var items []types.MediaItem
	for rows.Next() {
		var item types.MediaItem
		var capturedAt sql.NullTime
		var cameraMake, cameraModel sql.NullString
		if err := rows.Scan(&item.ID, &item.AlbumID, &item.FileName, &item.Path,
			&item.ByteSize, &item.Width, &item.Height, &capturedAt,
			&cameraMake, &cameraModel, &item.CreatedAt); err != nil {
			return nil, fmt.Errorf("sqlite: failed to scan media item: %w", err)
		}
		if capturedAt.Valid {
			t := capturedAt.Time
			item.CapturedAt = &t
		}
		item.CameraMake = cameraMake.String
		item.CameraModel = cameraModel.String
		items = append(items, item)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("sqlite: error iterating media items: %w", err)
	}
	return items, nil
}
