// Package table models the tabular artifacts that candidate programs produce
// and that task bundles ship as reference output. Artifacts are CSV files
// with a header row naming the columns.
package table

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"strings"
)

// Table is an ordered set of rows under named columns. Cells are kept as the
// raw strings from the artifact; normalization happens at comparison time.
type Table struct {
	Columns []string
	Rows    [][]string
}

// Parse reads a CSV artifact with a header row. Every data row must have
// exactly as many fields as the header.
func Parse(r io.Reader) (*Table, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1 // report ragged rows ourselves, with row numbers

	records, err := reader.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("malformed CSV: %w", err)
	}
	if len(records) == 0 {
		return nil, fmt.Errorf("empty artifact: missing header row")
	}

	header := records[0]
	if len(header) == 0 || (len(header) == 1 && strings.TrimSpace(header[0]) == "") {
		return nil, fmt.Errorf("empty artifact: blank header row")
	}

	rows := make([][]string, 0, len(records)-1)
	for i, record := range records[1:] {
		if len(record) != len(header) {
			return nil, fmt.Errorf("row %d has %d fields, header has %d",
				i+1, len(record), len(header))
		}
		rows = append(rows, record)
	}

	return &Table{Columns: header, Rows: rows}, nil
}

// Load reads a CSV artifact from disk.
func Load(path string) (*Table, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open artifact: %w", err)
	}
	defer f.Close()

	t, err := Parse(f)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return t, nil
}

// ColumnIndex returns the position of a named column, or -1 if absent.
func (t *Table) ColumnIndex(name string) int {
	for i, c := range t.Columns {
		if c == name {
			return i
		}
	}
	return -1
}

// HasColumn reports whether the table contains a column with the given name.
func (t *Table) HasColumn(name string) bool {
	return t.ColumnIndex(name) >= 0
}

// Project returns a new table containing only the named columns, in the given
// order. Returns an error if any column is missing.
func (t *Table) Project(columns []string) (*Table, error) {
	indices := make([]int, len(columns))
	for i, name := range columns {
		idx := t.ColumnIndex(name)
		if idx < 0 {
			return nil, fmt.Errorf("column %q not present", name)
		}
		indices[i] = idx
	}

	rows := make([][]string, len(t.Rows))
	for ri, row := range t.Rows {
		projected := make([]string, len(indices))
		for i, idx := range indices {
			projected[i] = row[idx]
		}
		rows[ri] = projected
	}

	return &Table{Columns: append([]string(nil), columns...), Rows: rows}, nil
}

// Write serializes the table as CSV with a header row.
func (t *Table) Write(w io.Writer) error {
	writer := csv.NewWriter(w)
	if err := writer.Write(t.Columns); err != nil {
		return err
	}
	for _, row := range t.Rows {
		if err := writer.Write(row); err != nil {
			return err
		}
	}
	writer.Flush()
	return writer.Error()
}

// String renders the table as CSV text. Used when embedding reference rows
// into prompts.
func (t *Table) String() string {
	var sb strings.Builder
	_ = t.Write(&sb)
	return sb.String()
}

// Head returns a copy of the table truncated to at most n rows.
func (t *Table) Head(n int) *Table {
	if n > len(t.Rows) {
		n = len(t.Rows)
	}
	return &Table{Columns: t.Columns, Rows: t.Rows[:n]}
}
