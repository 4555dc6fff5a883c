// Package manifest parses the delimited production manifest that drives
// document ingestion.
package manifest

import (
	"encoding/csv"
	"fmt"
	"io"
	"log"
	"os"
	"strings"
)

// DetectHeader, passed as the header offset, asks the reader to locate the
// header row by content instead of by a fixed line number.
const DetectHeader = -1

// DefaultHeaderOffset skips the single non-data preamble line that production
// manifests in this domain carry before the column headers. Manifests with a
// longer preamble need an explicit offset or DetectHeader.
const DefaultHeaderOffset = 1

// Column names consumed by ingestion. Lookups are case-insensitive; these are
// the canonical lowercase forms.
const (
	ColID         = "control_number"
	ColFileName   = "file_name"
	ColAuthor     = "author"
	ColCustodian  = "custodian"
	ColDate       = "date_created"
	ColHash       = "md5_hash"
	ColFileType   = "file_type"
	ColTextPath   = "text_path"
	ColNativePath = "native_path"
)

// Row is one data row of the manifest, keyed by lowercased header name.
type Row map[string]string

// Get returns the trimmed value for a column, or "" when absent.
func (r Row) Get(column string) string {
	return strings.TrimSpace(r[column])
}

// Report summarises one read of the manifest.
type Report struct {
	Parsed  int // Data rows successfully parsed
	Skipped int // Malformed rows (column count mismatch) skipped
}

// Reader parses a delimited manifest file into Row records. Quoted fields may
// contain the delimiter; embedded quotes use doubled-quote escaping. Reading
// is not restartable mid-stream; call Read again to re-read from the file.
type Reader struct {
	path string

	// HeaderOffset is the number of non-data lines before the header row.
	// DetectHeader enables content-based detection instead.
	HeaderOffset int

	// Comma is the field delimiter. Defaults to ','.
	Comma rune
}

// NewReader creates a Reader for the manifest at path with the default
// single-line preamble offset.
func NewReader(path string) *Reader {
	return &Reader{
		path:         path,
		HeaderOffset: DefaultHeaderOffset,
		Comma:        ',',
	}
}

// Read parses the whole manifest and returns its data rows. A manifest that
// cannot be opened or whose header row cannot be found is a fatal error;
// individual malformed data rows are skipped and counted in the report.
func (r *Reader) Read() ([]Row, Report, error) {
	f, err := os.Open(r.path)
	if err != nil {
		return nil, Report{}, fmt.Errorf("manifest: failed to open %s: %w", r.path, err)
	}
	defer f.Close()

	cr := csv.NewReader(f)
	cr.Comma = r.Comma
	// Column-count mismatches are handled here, not by the csv package, so
	// that a bad row is skipped with a count instead of aborting the read.
	cr.FieldsPerRecord = -1

	headers, err := r.readHeaders(cr)
	if err != nil {
		return nil, Report{}, err
	}

	var rows []Row
	var report Report
	for {
		record, err := cr.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			// A row the csv parser itself rejects (e.g. bare quote) is
			// malformed data, not a fatal manifest problem.
			report.Skipped++
			continue
		}

		if len(record) != len(headers) {
			report.Skipped++
			continue
		}

		row := make(Row, len(headers))
		for i, header := range headers {
			row[header] = record[i]
		}
		rows = append(rows, row)
		report.Parsed++
	}

	if report.Skipped > 0 {
		log.Printf("manifest: skipped %d malformed rows in %s", report.Skipped, r.path)
	}

	return rows, report, nil
}

// readHeaders positions the reader past the preamble and returns the
// lowercased header names.
func (r *Reader) readHeaders(cr *csv.Reader) ([]string, error) {
	if r.HeaderOffset == DetectHeader {
		return r.detectHeaders(cr)
	}

	for i := 0; i < r.HeaderOffset; i++ {
		if _, err := cr.Read(); err != nil {
			return nil, fmt.Errorf("manifest: failed to skip preamble line %d: %w", i+1, err)
		}
	}

	record, err := cr.Read()
	if err != nil {
		return nil, fmt.Errorf("manifest: failed to read header row: %w", err)
	}
	return normalizeHeaders(record), nil
}

// detectHeaders scans for the first record that carries the identifier
// column. A preamble line may well contain commas; only the header row names
// the column every data row is keyed on.
func (r *Reader) detectHeaders(cr *csv.Reader) ([]string, error) {
	for {
		record, err := cr.Read()
		if err == io.EOF {
			return nil, fmt.Errorf("manifest: no header row found in %s", r.path)
		}
		if err != nil {
			continue
		}
		if len(record) < 2 {
			continue
		}
		headers := normalizeHeaders(record)
		for _, h := range headers {
			if h == ColID {
				return headers, nil
			}
		}
	}
}

func normalizeHeaders(record []string) []string {
	headers := make([]string, len(record))
	for i, h := range record {
		headers[i] = strings.ToLower(strings.TrimSpace(h))
	}
	return headers
}
