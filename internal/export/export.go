// Package export writes sweep results to timestamped CSV files.
//
// The writer is schema-agnostic: callers hand it a header and
// pre-rendered string rows, and the file contains exactly those values.
// Nothing is reformatted on the way out, so what the operator saw in the
// console summary is what lands in the file.
package export

import (
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"
	"time"
)

// filenameStamp is the timestamp layout embedded in export filenames.
const filenameStamp = "20060102-150405"

// Table is a rectangular result set ready for export.
type Table struct {
	Header []string
	Rows   [][]string
}

// Empty reports whether the table has no data rows.
func (t Table) Empty() bool {
	return len(t.Rows) == 0
}

// DefaultFolder returns the fallback export destination when the user
// has not configured one.
func DefaultFolder() string {
	return os.TempDir()
}

// Filename builds a timestamped file name such as
// "stale-devices-20240601-093000.csv". Runs started in different
// seconds never collide; a re-run within the same second overwrites,
// which is acceptable for an operator tool.
func Filename(prefix string, now time.Time) string {
	return fmt.Sprintf("%s-%s.csv", prefix, now.Format(filenameStamp))
}

// WriteFile writes the table as CSV to path, creating the parent
// directory if it does not exist and overwriting any existing file
// without confirmation.
func WriteFile(path string, table Table) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("export: failed to create directory %s: %w", dir, err)
	}

	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("export: failed to create %s: %w", path, err)
	}
	defer f.Close()

	w := csv.NewWriter(f)
	if err := w.Write(table.Header); err != nil {
		return fmt.Errorf("export: failed to write header: %w", err)
	}
	for _, row := range table.Rows {
		if err := w.Write(row); err != nil {
			return fmt.Errorf("export: failed to write row: %w", err)
		}
	}

	w.Flush()
	if err := w.Error(); err != nil {
		return fmt.Errorf("export: failed to flush %s: %w", path, err)
	}

	if err := f.Close(); err != nil {
		return fmt.Errorf("export: failed to close %s: %w", path, err)
	}
	return nil
}
