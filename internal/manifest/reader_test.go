package manifest

import (
	"os"
	"path/filepath"
	"testing"
)

func writeManifest(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "manifest.csv")
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("failed to write manifest: %v", err)
	}
	return path
}

const sampleManifest = `Production Volume VOL001
Control_Number,File_Name,Author,Custodian,Text_Path
DOJ-OGR-00001,letter.pdf,"Maxwell, Ghislaine",Estate,TEXT/DOJ-OGR-00001.txt
DOJ-OGR-00002,log.pdf,Unknown,FBI,TEXT/DOJ-OGR-00002.txt
`

func TestReadSkipsPreambleAndLowercasesHeaders(t *testing.T) {
	reader := NewReader(writeManifest(t, sampleManifest))

	rows, report, err := reader.Read()
	if err != nil {
		t.Fatalf("failed to read manifest: %v", err)
	}
	if report.Parsed != 2 || report.Skipped != 0 {
		t.Errorf("report = %+v, want 2 parsed, 0 skipped", report)
	}
	if len(rows) != 2 {
		t.Fatalf("expected 2 rows, got %d", len(rows))
	}
	if got := rows[0].Get(ColID); got != "DOJ-OGR-00001" {
		t.Errorf("expected control number via lowercased header, got %q", got)
	}
	if got := rows[0].Get(ColAuthor); got != "Maxwell, Ghislaine" {
		t.Errorf("expected quoted field with embedded delimiter, got %q", got)
	}
}

func TestReadDoubledQuoteEscaping(t *testing.T) {
	reader := NewReader(writeManifest(t, `preamble
control_number,file_name
A-1,"memo ""urgent"" draft.pdf"
`))

	rows, _, err := reader.Read()
	if err != nil {
		t.Fatalf("failed to read manifest: %v", err)
	}
	if got := rows[0].Get(ColFileName); got != `memo "urgent" draft.pdf` {
		t.Errorf("expected doubled-quote unescaping, got %q", got)
	}
}

func TestReadSkipsMalformedRows(t *testing.T) {
	reader := NewReader(writeManifest(t, `preamble
control_number,file_name,author
A-1,one.pdf,Smith
A-2,two.pdf
A-3,three.pdf,Jones,extra-column
A-4,four.pdf,Doe
`))

	rows, report, err := reader.Read()
	if err != nil {
		t.Fatalf("failed to read manifest: %v", err)
	}
	if report.Parsed != 2 {
		t.Errorf("expected 2 parsed rows, got %d", report.Parsed)
	}
	if report.Skipped != 2 {
		t.Errorf("expected 2 skipped rows, got %d", report.Skipped)
	}
	if len(rows) != 2 || rows[1].Get(ColID) != "A-4" {
		t.Errorf("expected good rows to survive around bad ones, got %v", rows)
	}
}

func TestReadCustomHeaderOffset(t *testing.T) {
	reader := NewReader(writeManifest(t, `preamble line one
preamble line two
control_number,file_name
A-1,one.pdf
`))
	reader.HeaderOffset = 2

	rows, _, err := reader.Read()
	if err != nil {
		t.Fatalf("failed to read manifest: %v", err)
	}
	if len(rows) != 1 || rows[0].Get(ColID) != "A-1" {
		t.Errorf("expected 1 row with explicit offset, got %v", rows)
	}
}

func TestReadDetectHeader(t *testing.T) {
	manifest := `some production notes
more free text here
control_number,file_name
A-1,one.pdf
A-2,two.pdf
`
	reader := NewReader(writeManifest(t, manifest))
	reader.HeaderOffset = DetectHeader

	rows, report, err := reader.Read()
	if err != nil {
		t.Fatalf("failed to read manifest: %v", err)
	}
	if report.Parsed != 2 {
		t.Errorf("expected detection to find the header row, parsed %d rows", report.Parsed)
	}
	if rows[0].Get(ColFileName) != "one.pdf" {
		t.Errorf("expected data rows after detected header, got %v", rows[0])
	}
}

func TestReadDetectHeaderSkipsPreambleWithCommas(t *testing.T) {
	manifest := `Produced by DOJ, Office of Government Relations, Volume 1
Custodians: FBI, Estate, USAO-SDNY
Control_Number,File_Name
A-1,one.pdf
`
	reader := NewReader(writeManifest(t, manifest))
	reader.HeaderOffset = DetectHeader

	rows, report, err := reader.Read()
	if err != nil {
		t.Fatalf("failed to read manifest: %v", err)
	}
	if report.Parsed != 1 {
		t.Errorf("expected 1 parsed row, got %d", report.Parsed)
	}
	if len(rows) != 1 || rows[0].Get(ColID) != "A-1" {
		t.Errorf("expected comma-bearing preamble lines skipped, got %v", rows)
	}
}

func TestReadMissingFileIsFatal(t *testing.T) {
	reader := NewReader("/does/not/exist.csv")

	if _, _, err := reader.Read(); err == nil {
		t.Error("expected error for missing manifest file")
	}
}

func TestRowGetTrims(t *testing.T) {
	row := Row{"author": "  Smith, John  "}
	if got := row.Get("author"); got != "Smith, John" {
		t.Errorf("expected trimmed value, got %q", got)
	}
	if got := row.Get("missing"); got != "" {
		t.Errorf("expected empty string for missing column, got %q", got)
	}
}
