// Package sqlite implements the Docket storage interfaces on a single SQLite
// file. The archive is written by exactly one process at a time (the ingest
// batch); WAL mode lets browsing readers proceed concurrently with
// eventually-consistent reads.
package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"log"
	"os"
	"os/exec"
	"strings"
	"time"

	_ "modernc.org/sqlite" // SQLite driver

	"github.com/scrypster/docket/internal/storage"
	"github.com/scrypster/docket/pkg/types"
)

// ArchiveStore implements storage.DocumentStore, storage.EntityStore,
// storage.MediaStore, storage.SearchProvider, and storage.RunStore on one
// SQLite database.
type ArchiveStore struct {
	db   *sql.DB
	path string
}

// Interface conformance checks.
var (
	_ storage.DocumentStore  = (*ArchiveStore)(nil)
	_ storage.EntityStore    = (*ArchiveStore)(nil)
	_ storage.MediaStore     = (*ArchiveStore)(nil)
	_ storage.SearchProvider = (*ArchiveStore)(nil)
	_ storage.RunStore       = (*ArchiveStore)(nil)
)

// NewArchiveStore opens (or creates) the archive at path with WAL self-healing.
// If the initial open fails due to stale WAL files left behind by a crashed
// process, it verifies no other process holds them and retries once after
// removing the stale -shm/-wal files.
func NewArchiveStore(path string) (*ArchiveStore, error) {
	store, err := openArchiveStore(path)
	if err == nil {
		return store, nil
	}

	if !isRecoverableWALError(err) || path == ":memory:" || path == "" {
		return nil, err
	}

	if !isWALStale(path) {
		return nil, err
	}

	removeStaleWAL(path)

	store, retryErr := openArchiveStore(path)
	if retryErr != nil {
		return nil, fmt.Errorf("failed after WAL recovery: %w (original: %v)", retryErr, err)
	}

	log.Printf("sqlite: recovered from stale WAL files for %s", path)
	return store, nil
}

// openArchiveStore opens the database, configures pragmas, and applies the schema.
func openArchiveStore(path string) (*ArchiveStore, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// SQLite only supports one concurrent writer. A single open connection
	// serialises writes and avoids SQLITE_BUSY errors; WAL mode lets readers
	// proceed without blocking the writer.
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(0)

	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to enable WAL mode: %w", err)
	}

	if _, err := db.Exec("PRAGMA busy_timeout = 5000"); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to set busy timeout: %w", err)
	}

	// Cascading deletes (relationships, document links, media) rely on this.
	if _, err := db.Exec("PRAGMA foreign_keys=ON"); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to enable foreign keys: %w", err)
	}

	if _, err := db.Exec(Schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to create schema: %w", err)
	}

	return &ArchiveStore{db: db, path: path}, nil
}

// RunMigrations applies all pending migrations from the given directory.
// Used by the incremental-patch entry point on live stores that predate the
// current Schema constant.
func (s *ArchiveStore) RunMigrations(migrationsDir string) error {
	mgr, err := storage.NewMigrationManager(s.db, migrationsDir)
	if err != nil {
		return fmt.Errorf("sqlite: failed to create migration manager: %w", err)
	}

	if err := mgr.Up(); err != nil {
		return fmt.Errorf("sqlite: failed to run migrations: %w", err)
	}

	return nil
}

// Patch repairs a live store in place: pending migrations when a migrations
// directory is available, plus idempotent column adds for stores created
// before those columns existed. Safe to re-run.
func (s *ArchiveStore) Patch(migrationsDir string) error {
	// Columns added after the first release. Duplicate-column conflicts are
	// no-ops so this list only ever grows. Column adds run before migrations
	// because later migrations index these columns.
	patches := []struct {
		table, column, definition string
	}{
		{"documents", "red_flag_score", "INTEGER NOT NULL DEFAULT 0"},
		{"documents", "evidence_type", "TEXT"},
		{"documents", "has_failed_redactions", "INTEGER NOT NULL DEFAULT 0"},
		{"documents", "failed_redaction_count", "INTEGER NOT NULL DEFAULT 0"},
		{"entities", "secondary_roles", "TEXT"},
		{"entities", "red_flag_score", "INTEGER NOT NULL DEFAULT 0"},
	}

	for _, p := range patches {
		if err := storage.AddColumnIfMissing(s.db, p.table, p.column, p.definition); err != nil {
			return err
		}
	}

	if migrationsDir != "" {
		if _, err := os.Stat(migrationsDir); err == nil {
			if err := s.RunMigrations(migrationsDir); err != nil {
				return err
			}
		}
	}

	return nil
}

// DestroyAndRecreate deletes the database file (including WAL sidecars) and
// reopens a fresh store. Used by the full-rebuild entry point.
func DestroyAndRecreate(path string) (*ArchiveStore, error) {
	if path == "" || path == ":memory:" {
		return NewArchiveStore(path)
	}

	for _, p := range []string{path, path + "-wal", path + "-shm"} {
		if err := os.Remove(p); err != nil && !os.IsNotExist(err) {
			return nil, fmt.Errorf("sqlite: failed to remove %s: %w", p, err)
		}
	}

	return NewArchiveStore(path)
}

// GetDB returns the underlying database connection. Used by handlers that
// need direct read-only queries (e.g. stats).
func (s *ArchiveStore) GetDB() *sql.DB {
	return s.db
}

// Path returns the database file path.
func (s *ArchiveStore) Path() string {
	return s.path
}

// Close flushes the WAL into the main database file and releases resources.
// The TRUNCATE checkpoint removes the -shm and -wal files so another process
// (e.g. docket-web after docket-ingest exits) can open the database without
// encountering stale WAL state.
func (s *ArchiveStore) Close() error {
	if s.db == nil {
		return nil
	}

	if _, err := s.db.Exec("PRAGMA wal_checkpoint(TRUNCATE)"); err != nil {
		log.Printf("sqlite: WAL checkpoint on close failed (non-fatal): %v", err)
	}

	return s.db.Close()
}

// RecordRun persists a finished run summary into the audit table.
func (s *ArchiveStore) RecordRun(ctx context.Context, run *types.IngestRun) error {
	if run == nil || run.ID == "" {
		return storage.ErrInvalidInput
	}

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO ingest_runs (id, kind, started_at, finished_at,
			processed, inserted, updated, missing, skipped, deleted, errors)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`, run.ID, run.Kind, run.StartedAt, nullableTime(run.FinishedAt),
		run.Processed, run.Inserted, run.Updated, run.Missing, run.Skipped, run.Deleted, run.Errors)
	if err != nil {
		return fmt.Errorf("sqlite: failed to record run: %w", err)
	}
	return nil
}

// ListRuns returns recent runs, newest first.
func (s *ArchiveStore) ListRuns(ctx context.Context, limit int) ([]types.IngestRun, error) {
	if limit < 1 {
		limit = 20
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT id, kind, started_at, finished_at,
			processed, inserted, updated, missing, skipped, deleted, errors
		FROM ingest_runs
		ORDER BY started_at DESC
		LIMIT ?
	`, limit)
	if err != nil {
		return nil, fmt.Errorf("sqlite: failed to list runs: %w", err)
	}
	defer rows.Close()

	var runs []types.IngestRun
	for rows.Next() {
		var run types.IngestRun
		var finishedAt sql.NullTime
		if err := rows.Scan(&run.ID, &run.Kind, &run.StartedAt, &finishedAt,
			&run.Processed, &run.Inserted, &run.Updated, &run.Missing,
			&run.Skipped, &run.Deleted, &run.Errors); err != nil {
			return nil, fmt.Errorf("sqlite: failed to scan run: %w", err)
		}
		if finishedAt.Valid {
			t := finishedAt.Time
			run.FinishedAt = &t
		}
		runs = append(runs, run)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("sqlite: error iterating runs: %w", err)
	}
	return runs, nil
}

// nullableTime converts a time pointer to sql.NullTime.
func nullableTime(t *time.Time) sql.NullTime {
	if t == nil || t.IsZero() {
		return sql.NullTime{Valid: false}
	}
	return sql.NullTime{Time: *t, Valid: true}
}

// nullableString converts a string to sql.NullString.
// An empty string is treated as NULL.
func nullableString(s string) sql.NullString {
	if s == "" {
		return sql.NullString{Valid: false}
	}
	return sql.NullString{String: s, Valid: true}
}

// isRecoverableWALError returns true if the error matches patterns caused by
// stale WAL files left behind after a crash (SIGKILL, OOM, etc.).
func isRecoverableWALError(err error) bool {
	if err == nil {
		return false
	}
	msg := err.Error()
	return strings.Contains(msg, "disk I/O error") ||
		strings.Contains(msg, "database is locked")
}

// isWALStale checks whether -shm/-wal files exist for the given database path
// AND no other process currently holds them open (via lsof).
// Returns false if lsof is unavailable (conservative: no deletion).
func isWALStale(dbPath string) bool {
	shmPath := dbPath + "-shm"
	walPath := dbPath + "-wal"

	if !fileExists(shmPath) && !fileExists(walPath) {
		return false
	}

	lsofPath, err := exec.LookPath("lsof")
	if err != nil {
		return false
	}

	cmd := exec.Command(lsofPath, "-t", dbPath, shmPath, walPath)
	output, err := cmd.Output()
	if err != nil {
		// lsof exits 1 when no process has the file open, so the WAL is stale.
		return true
	}

	return strings.TrimSpace(string(output)) == ""
}

// removeStaleWAL removes -shm and -wal files for the given database path.
func removeStaleWAL(dbPath string) {
	for _, suffix := range []string{"-shm", "-wal"} {
		path := dbPath + suffix
		if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
			log.Printf("sqlite: failed to remove stale %s: %v", path, err)
		}
	}
}

// fileExists returns true if the path exists on disk.
func fileExists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}
