// Package fetcher reads reference tables from CSV and XLSX exports and
// retrieves zipped data bundles over HTTP.
package fetcher

import (
	"context"
	"os"
	"path/filepath"
	"strings"

	"github.com/rotisserie/eris"
)

// Table is a tabular export with a header row.
type Table struct {
	Path   string
	Header []string
	Rows   [][]string
}

// ReadTable reads a CSV or XLSX file, chosen by extension. The first row is
// the header. XLSX files are read from their first sheet.
func ReadTable(ctx context.Context, path string) (*Table, error) {
	switch ext := strings.ToLower(filepath.Ext(path)); ext {
	case ".csv", ".txt":
		return readCSVTable(ctx, path)
	case ".xlsx":
		rows, err := ReadXLSX(path, XLSXOptions{})
		if err != nil {
			return nil, eris.Wrapf(err, "table: read %s", path)
		}
		t := &Table{Path: path}
		if len(rows) > 0 {
			t.Header, t.Rows = rows[0], rows[1:]
		}
		return t, nil
	default:
		return nil, eris.Errorf("table: unsupported file type %q (%s)", ext, path)
	}
}

func readCSVTable(ctx context.Context, path string) (*Table, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, eris.Wrapf(err, "table: open %s", path)
	}
	defer f.Close() //nolint:errcheck

	rowCh, errCh := StreamCSV(ctx, DecodeReader(f), CSVOptions{LazyQuotes: true, TrimSpace: true})

	t := &Table{Path: path}
	for row := range rowCh {
		if t.Header == nil {
			t.Header = row
			continue
		}
		t.Rows = append(t.Rows, row)
	}
	if err := <-errCh; err != nil {
		return nil, eris.Wrapf(err, "table: read %s", path)
	}
	return t, nil
}

// Index returns the position of the named column, matched case-insensitively
// after trimming, or -1.
func (t *Table) Index(name string) int {
	for i, h := range t.Header {
		if strings.EqualFold(strings.TrimSpace(h), name) {
			return i
		}
	}
	return -1
}

// Require resolves every named column or reports the first that is absent.
func (t *Table) Require(names ...string) ([]int, error) {
	idx := make([]int, len(names))
	for i, n := range names {
		idx[i] = t.Index(n)
		if idx[i] < 0 {
			return nil, eris.Errorf("table: %s: missing column %q", filepath.Base(t.Path), n)
		}
	}
	return idx, nil
}

// Cell returns the trimmed value at idx, or "" when idx is negative or past
// the end of a short row.
func Cell(row []string, idx int) string {
	if idx < 0 || idx >= len(row) {
		return ""
	}
	return strings.TrimSpace(row[idx])
}
