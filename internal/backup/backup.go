// Package backup creates consistent point-in-time snapshots of the archive
// database. Snapshots use SQLite's VACUUM INTO, which produces a compact,
// consistent copy even while the source is in WAL mode.
package backup

import (
	"database/sql"
	"fmt"
	"io"
	"log"
	"os"
	"path/filepath"
	"sort"
	"time"

	_ "modernc.org/sqlite"
)

// DefaultKeep is the number of snapshots retained when none is configured.
const DefaultKeep = 5

// Service snapshots one archive database into a destination directory and
// prunes old snapshots beyond the retention count.
type Service struct {
	sourcePath string
	destDir    string
	keep       int
}

// NewService creates a backup service. keep <= 0 falls back to DefaultKeep.
func NewService(sourcePath, destDir string, keep int) *Service {
	if keep <= 0 {
		keep = DefaultKeep
	}
	return &Service{sourcePath: sourcePath, destDir: destDir, keep: keep}
}

// Run creates a timestamped snapshot, verifies its integrity, and prunes
// snapshots beyond the retention count. Returns the snapshot path.
func (s *Service) Run() (string, error) {
	if err := os.MkdirAll(s.destDir, 0o755); err != nil {
		return "", fmt.Errorf("backup: failed to create destination directory: %w", err)
	}

	name := fmt.Sprintf("docket-%s.db", time.Now().UTC().Format("20060102-150405"))
	destPath := filepath.Join(s.destDir, name)

	if err := snapshot(s.sourcePath, destPath); err != nil {
		return "", err
	}
	if err := Verify(destPath); err != nil {
		os.Remove(destPath)
		return "", err
	}

	if err := s.prune(); err != nil {
		log.Printf("backup: prune failed: %v", err)
	}

	return destPath, nil
}

// snapshot copies the source database into destPath via VACUUM INTO.
func snapshot(sourcePath, destPath string) error {
	src, err := sql.Open("sqlite", fmt.Sprintf("file:%s?mode=ro", sourcePath))
	if err != nil {
		return fmt.Errorf("backup: failed to open source database: %w", err)
	}
	defer src.Close()

	if err := src.Ping(); err != nil {
		return fmt.Errorf("backup: source database not accessible: %w", err)
	}

	if _, err := src.Exec(fmt.Sprintf("VACUUM INTO '%s'", destPath)); err != nil {
		return fmt.Errorf("backup: snapshot failed: %w", err)
	}
	return nil
}

// Verify opens a snapshot read-only and runs SQLite's integrity check.
func Verify(path string) error {
	db, err := sql.Open("sqlite", fmt.Sprintf("file:%s?mode=ro", path))
	if err != nil {
		return fmt.Errorf("backup: failed to open snapshot: %w", err)
	}
	defer db.Close()

	var result string
	if err := db.QueryRow("PRAGMA integrity_check").Scan(&result); err != nil {
		return fmt.Errorf("backup: integrity check failed to run: %w", err)
	}
	if result != "ok" {
		return fmt.Errorf("backup: integrity check failed: %s", result)
	}
	return nil
}

// Restore copies a verified snapshot over targetPath. The target database
// must not be open.
func Restore(snapshotPath, targetPath string) error {
	if err := Verify(snapshotPath); err != nil {
		return err
	}

	src, err := os.Open(snapshotPath)
	if err != nil {
		return fmt.Errorf("backup: failed to open snapshot: %w", err)
	}
	defer src.Close()

	dst, err := os.Create(targetPath)
	if err != nil {
		return fmt.Errorf("backup: failed to create target: %w", err)
	}
	defer dst.Close()

	if _, err := io.Copy(dst, src); err != nil {
		return fmt.Errorf("backup: failed to copy snapshot: %w", err)
	}
	if err := dst.Sync(); err != nil {
		return fmt.Errorf("backup: failed to sync target: %w", err)
	}

	return Verify(targetPath)
}

// prune deletes the oldest snapshots beyond the retention count. Snapshot
// names embed a UTC timestamp, so lexical order is chronological order.
func (s *Service) prune() error {
	matches, err := filepath.Glob(filepath.Join(s.destDir, "docket-*.db"))
	if err != nil {
		return err
	}
	if len(matches) <= s.keep {
		return nil
	}

	sort.Strings(matches)
	for _, path := range matches[:len(matches)-s.keep] {
		if err := os.Remove(path); err != nil {
			return err
		}
		log.Printf("backup: pruned old snapshot %s", filepath.Base(path))
	}
	return nil
}
