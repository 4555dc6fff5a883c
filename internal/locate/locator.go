// Package locate resolves manifest path references against the file trees on
// disk. Manifest paths are frequently wrong in small ways (different
// separators, reorganised directories, case drift), so resolution falls back
// from the declared relative path to a basename lookup over a precomputed
// index of every file under the candidate roots.
package locate

import (
	"io/fs"
	"log"
	"os"
	"path/filepath"
	"strings"
)

// Locator resolves declared relative paths to absolute paths on disk. The
// filename index is built once per run with Index and reused for every row;
// Locator is not safe for concurrent use while indexing.
type Locator struct {
	roots []string

	// index maps lowercased basename to absolute path. First occurrence wins
	// when the same basename appears under multiple roots.
	index map[string]string
}

// NewLocator creates a Locator over the given candidate root directories,
// listed in resolution-preference order.
func NewLocator(roots ...string) *Locator {
	return &Locator{
		roots: roots,
		index: make(map[string]string),
	}
}

// Index walks every candidate root once and records each file under its
// lowercased basename. Roots that do not exist are skipped with a log line;
// per-file walk errors skip the file, not the walk.
func (l *Locator) Index() error {
	for _, root := range l.roots {
		if _, err := os.Stat(root); err != nil {
			log.Printf("locate: skipping unavailable root %s: %v", root, err)
			continue
		}

		err := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
			if err != nil {
				log.Printf("locate: skipping %s: %v", path, err)
				return nil
			}
			if d.IsDir() {
				return nil
			}

			key := strings.ToLower(d.Name())
			if _, seen := l.index[key]; !seen {
				l.index[key] = path
			}
			return nil
		})
		if err != nil {
			return err
		}
	}

	return nil
}

// IndexedFiles returns the number of distinct basenames indexed.
func (l *Locator) IndexedFiles() int {
	return len(l.index)
}

// Resolve maps a declared relative path to an absolute path on disk.
// Resolution order: exact relative path under each root, then basename lookup
// against the index. Returns ("", false) when the file cannot be found; the
// caller ingests a placeholder rather than aborting.
func (l *Locator) Resolve(declared string) (string, bool) {
	declared = normalizeSeparators(declared)
	if declared == "" {
		return "", false
	}

	for _, root := range l.roots {
		candidate := filepath.Join(root, declared)
		if info, err := os.Stat(candidate); err == nil && !info.IsDir() {
			return candidate, true
		}
	}

	if path, ok := l.index[strings.ToLower(filepath.Base(declared))]; ok {
		return path, true
	}

	return "", false
}

// normalizeSeparators converts Windows-style path references from the
// manifest into the host's separator convention.
func normalizeSeparators(path string) string {
	path = strings.ReplaceAll(path, "\\", "/")
	path = strings.TrimPrefix(path, "./")
	return filepath.FromSlash(strings.TrimSpace(path))
}
