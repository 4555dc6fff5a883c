package types

import "time"

// Document represents one logical produced artifact in the archive: an email,
// legal filing, deposition, flight log, financial record, and so on. A document
// is created once per manifest row during ingestion and identified forever
// after by its external (Bates/control) number.
type Document struct {
	// Core identification fields
	ID         int64  `json:"id"`          // Database row ID
	ExternalID string `json:"external_id"` // Stable Bates/control number (unique)
	Title      string `json:"title"`       // Display title (original filename when no better source)
	FileType   string `json:"file_type"`   // Detected file type/extension (e.g. "pdf", "msg")

	// Resolved file locations
	StoragePath string `json:"storage_path"`          // Path to the extracted-text rendition
	NativePath  string `json:"native_path,omitempty"` // Path to the original/native rendition

	// Derived content fields
	ByteSize    int64  `json:"byte_size"`    // Size of the text rendition in bytes
	Content     string `json:"content"`      // Extracted text (placeholder when missing)
	ContentHash string `json:"content_hash"` // sha256 hex of Content, used for cross-ingestion dedup
	WordCount   int    `json:"word_count"`   // Whitespace-delimited token count

	// Manifest metadata
	Author    string                 `json:"author,omitempty"`    // Declared author
	Custodian string                 `json:"custodian,omitempty"` // Custodian/source of the production
	DocDate   string                 `json:"doc_date,omitempty"`  // Creation date as produced (raw string)
	Metadata  map[string]interface{} `json:"metadata,omitempty"`  // Arbitrary structured metadata

	// Review signals
	RedFlagScore int    `json:"red_flag_score"`          // Coarse 0-5 significance rating
	EvidenceType string `json:"evidence_type,omitempty"` // Evidence-type tag (e.g. "financial", "correspondence")

	// Failed-redaction scan results
	HasFailedRedactions  bool `json:"has_failed_redactions,omitempty"`
	FailedRedactionCount int  `json:"failed_redaction_count,omitempty"`

	// Threading
	ParentExternalID string `json:"parent_external_id,omitempty"` // Parent document for multi-page/threaded artifacts
	ThreadPosition   int    `json:"thread_position,omitempty"`    // Position within the parent thread

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// MissingPathPrefix marks documents whose text rendition could not be located
// anywhere in the indexed file trees. The document is still ingested so it
// remains discoverable by its external ID and manifest metadata.
const MissingPathPrefix = "missing://"

// PlaceholderContent is stored when no text rendition could be resolved.
const PlaceholderContent = "[no extracted text available for this document]"

// IsMissing reports whether the document was ingested without a resolvable
// text rendition.
func (d *Document) IsMissing() bool {
	return len(d.StoragePath) >= len(MissingPathPrefix) &&
		d.StoragePath[:len(MissingPathPrefix)] == MissingPathPrefix
}
