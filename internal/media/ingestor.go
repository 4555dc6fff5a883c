// Package media ingests album directories of images into the archive store.
package media

import (
	"context"
	"fmt"
	"image"
	"log"
	"os"
	"path/filepath"
	"sort"
	"strings"

	_ "image/gif" // register decoders for DecodeConfig
	_ "image/jpeg"
	_ "image/png"

	"github.com/rwcarlsen/goexif/exif"

	"github.com/scrypster/docket/internal/storage"
	"github.com/scrypster/docket/pkg/types"
)

// imageExtensions is the whitelist of recognized image files. Formats without
// a registered decoder (webp) are stored with blank dimensions.
var imageExtensions = map[string]bool{
	".jpg":  true,
	".jpeg": true,
	".png":  true,
	".gif":  true,
	".webp": true,
}

// Summary is the operator-facing outcome of one media ingestion run.
type Summary struct {
	Albums int // Album directories processed
	Items  int // Image files stored
	Errors int // Per-file failures (unreadable files)
}

// Ingestor walks a media root and stores one album per top-level
// subdirectory. Metadata extraction is best effort: a file whose embedded
// metadata cannot be parsed is still stored with blank metadata fields.
type Ingestor struct {
	store storage.MediaStore
}

// NewIngestor creates an Ingestor over the given store.
func NewIngestor(store storage.MediaStore) *Ingestor {
	return &Ingestor{store: store}
}

// Run ingests every album under mediaRoot. The first successfully-stored
// image in an album becomes its cover unless a cover is already set. An
// unreadable media root is fatal; individual file failures are counted and
// skipped.
func (i *Ingestor) Run(ctx context.Context, mediaRoot string) (*Summary, error) {
	entries, err := os.ReadDir(mediaRoot)
	if err != nil {
		return nil, fmt.Errorf("media: failed to read media root %s: %w", mediaRoot, err)
	}

	summary := &Summary{}
	for _, entry := range entries {
		if !entry.IsDir() {
			continue
		}
		if err := ctx.Err(); err != nil {
			return summary, err
		}

		if err := i.ingestAlbum(ctx, filepath.Join(mediaRoot, entry.Name()), entry.Name(), summary); err != nil {
			return summary, err
		}
		summary.Albums++
	}

	log.Printf("media: albums=%d items=%d errors=%d", summary.Albums, summary.Items, summary.Errors)
	return summary, nil
}

// ingestAlbum stores one album directory and its images. Files are ingested
// in sorted order so the default cover choice is deterministic.
func (i *Ingestor) ingestAlbum(ctx context.Context, dir, name string, summary *Summary) error {
	album, err := i.store.UpsertAlbum(ctx, name)
	if err != nil {
		return fmt.Errorf("media: failed to store album %q: %w", name, err)
	}

	var paths []string
	err = filepath.WalkDir(dir, func(path string, d os.DirEntry, err error) error {
		if err != nil {
			log.Printf("media: skipping %s: %v", path, err)
			summary.Errors++
			return nil
		}
		if d.IsDir() || !imageExtensions[strings.ToLower(filepath.Ext(path))] {
			return nil
		}
		paths = append(paths, path)
		return nil
	})
	if err != nil {
		return fmt.Errorf("media: failed to walk album %q: %w", name, err)
	}
	sort.Strings(paths)

	for _, path := range paths {
		info, err := os.Stat(path)
		if err != nil {
			log.Printf("media: skipping unreadable %s: %v", path, err)
			summary.Errors++
			continue
		}

		item := &types.MediaItem{
			AlbumID:  album.ID,
			FileName: filepath.Base(path),
			Path:     path,
			ByteSize: info.Size(),
		}
		// Failure here leaves the metadata fields blank; the file is still
		// ingested.
		extractMetadata(path, item)

		if err := i.store.InsertMediaItem(ctx, item); err != nil {
			log.Printf("media: failed to store %s: %v", path, err)
			summary.Errors++
			continue
		}
		summary.Items++
	}

	return nil
}

// extractMetadata fills in dimensions and EXIF capture metadata where the
// file provides them.
func extractMetadata(path string, item *types.MediaItem) {
	f, err := os.Open(path)
	if err != nil {
		return
	}
	defer f.Close()

	if cfg, _, err := image.DecodeConfig(f); err == nil {
		item.Width = cfg.Width
		item.Height = cfg.Height
	}

	if _, err := f.Seek(0, 0); err != nil {
		return
	}

	meta, err := exif.Decode(f)
	if err != nil {
		return
	}

	if captured, err := meta.DateTime(); err == nil {
		utc := captured.UTC()
		item.CapturedAt = &utc
	}
	item.CameraMake = exifString(meta, exif.Make)
	item.CameraModel = exifString(meta, exif.Model)
}

func exifString(meta *exif.Exif, field exif.FieldName) string {
	tag, err := meta.Get(field)
	if err != nil {
		return ""
	}
	value, err := tag.StringVal()
	if err != nil {
		return ""
	}
	return strings.TrimSpace(value)
}
