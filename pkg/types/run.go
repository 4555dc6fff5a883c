package types

import "time"

// Run kinds recorded in the ingest_runs audit table.
const (
	RunRebuild   = "rebuild"
	RunIncrement = "increment"
	RunEntities  = "entities"
	RunGarbage   = "garbage"
	RunMedia     = "media"
	RunRedaction = "redaction"
)

// IngestRun is the audit record written once per pipeline invocation. It is
// what operators read to confirm an aborted run resumed cleanly: a safe re-run
// shows the same processed count with zero inserts.
type IngestRun struct {
	ID         string     `json:"id"`   // Unique identifier (uuid)
	Kind       string     `json:"kind"` // One of the Run* constants
	StartedAt  time.Time  `json:"started_at"`
	FinishedAt *time.Time `json:"finished_at,omitempty"`

	Processed int `json:"processed"`
	Inserted  int `json:"inserted"`
	Updated   int `json:"updated"`
	Missing   int `json:"missing"` // Rows ingested with placeholder content
	Skipped   int `json:"skipped"` // Malformed manifest rows
	Deleted   int `json:"deleted"` // Garbage-filter removals
	Errors    int `json:"errors"`  // Recoverable per-row/per-file failures
}
