package types

import "time"

// Album groups media items ingested from one top-level subdirectory of the
// media root. The cover is nullable until the first image is ingested and must
// reference an image within the same album once set.
type Album struct {
	ID           string    `json:"id"`   // Unique identifier (uuid)
	Name         string    `json:"name"` // Directory name, unique
	CoverMediaID *string   `json:"cover_media_id,omitempty"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// MediaItem is a single image within an album, with best-effort embedded
// capture metadata. Metadata extraction failure leaves the optional fields
// blank; it never blocks ingestion of the file.
type MediaItem struct {
	ID       string `json:"id"`        // Unique identifier (uuid)
	AlbumID  string `json:"album_id"`  // Owning album
	FileName string `json:"file_name"` // Basename within the album directory
	Path     string `json:"path"`      // Absolute path on disk, unique
	ByteSize int64  `json:"byte_size"`

	// Best-effort embedded metadata
	Width       int        `json:"width,omitempty"`
	Height      int        `json:"height,omitempty"`
	CapturedAt  *time.Time `json:"captured_at,omitempty"`
	CameraMake  string     `json:"camera_make,omitempty"`
	CameraModel string     `json:"camera_model,omitempty"`

	CreatedAt time.Time `json:"created_at"`
}
