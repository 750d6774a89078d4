// Package tabular loads delimited text exports into an in-memory table,
// sniffing the delimiter from a prefix of the input.
package tabular

import (
	"bytes"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"unicode/utf8"
)

// ErrMalformedInput reports input that cannot be parsed as delimited text.
var ErrMalformedInput = errors.New("malformed input")

// sniffLen is how many leading bytes are inspected to pick a delimiter.
const sniffLen = 4096

// delimiters are the candidates, in tie-breaking order.
var delimiters = []byte{',', ';', '\t', '|'}

// Table is an ordered header plus rows of string cells. An empty cell
// stands for a missing value. Column order is the header order.
type Table struct {
	Columns []string
	Rows    [][]string
}

// DetectDelimiter picks the candidate with the highest raw occurrence
// count in the first sniffLen bytes. Ties keep the earlier candidate
// (comma > semicolon > tab > pipe).
func DetectDelimiter(data []byte) byte {
	if len(data) > sniffLen {
		data = data[:sniffLen]
	}

	best := delimiters[0]
	bestCount := bytes.Count(data, []byte{best})
	for _, d := range delimiters[1:] {
		if n := bytes.Count(data, []byte{d}); n > bestCount {
			best = d
			bestCount = n
		}
	}
	return best
}

// Load reads an entire delimited input. The first row becomes the header.
func Load(r io.Reader) (*Table, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("reading input: %w", err)
	}
	return Parse(data)
}

// LoadFile reads a delimited file from disk.
func LoadFile(path string) (*Table, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", path, err)
	}
	return Parse(data)
}

// Parse decodes raw bytes into a Table.
func Parse(data []byte) (*Table, error) {
	if !utf8.Valid(data) {
		return nil, fmt.Errorf("%w: input is not valid text", ErrMalformedInput)
	}

	cr := csv.NewReader(bytes.NewReader(data))
	cr.Comma = rune(DetectDelimiter(data))

	records, err := cr.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedInput, err)
	}
	if len(records) == 0 {
		return nil, fmt.Errorf("%w: missing header row", ErrMalformedInput)
	}

	return &Table{Columns: records[0], Rows: records[1:]}, nil
}

// ColumnIndex returns the index of the first column with the given name,
// or -1. Duplicate header names are not supported; the first wins.
func (t *Table) ColumnIndex(name string) int {
	for i, c := range t.Columns {
		if c == name {
			return i
		}
	}
	return -1
}

// HasColumn reports whether a column with the given name exists.
func (t *Table) HasColumn(name string) bool {
	return t.ColumnIndex(name) >= 0
}

// Cell returns the value at (row, column name), or "" if either is absent.
func (t *Table) Cell(row int, name string) string {
	i := t.ColumnIndex(name)
	if i < 0 || row < 0 || row >= len(t.Rows) || i >= len(t.Rows[row]) {
		return ""
	}
	return t.Rows[row][i]
}

// SetCell writes the value at (row, column name). Unknown columns and
// out-of-range rows are ignored.
func (t *Table) SetCell(row int, name, value string) {
	i := t.ColumnIndex(name)
	if i < 0 || row < 0 || row >= len(t.Rows) || i >= len(t.Rows[row]) {
		return
	}
	t.Rows[row][i] = value
}

// Column returns a copy of the named column's cells, or nil.
func (t *Table) Column(name string) []string {
	i := t.ColumnIndex(name)
	if i < 0 {
		return nil
	}
	out := make([]string, len(t.Rows))
	for r, row := range t.Rows {
		if i < len(row) {
			out[r] = row[i]
		}
	}
	return out
}

// AddColumn appends a column filled with empty cells and returns its
// index. If the column already exists its index is returned unchanged.
func (t *Table) AddColumn(name string) int {
	if i := t.ColumnIndex(name); i >= 0 {
		return i
	}
	t.Columns = append(t.Columns, name)
	for r := range t.Rows {
		t.Rows[r] = append(t.Rows[r], "")
	}
	return len(t.Columns) - 1
}

// DropColumn removes the named column if present.
func (t *Table) DropColumn(name string) {
	i := t.ColumnIndex(name)
	if i < 0 {
		return
	}
	t.Columns = append(t.Columns[:i], t.Columns[i+1:]...)
	for r, row := range t.Rows {
		if i < len(row) {
			t.Rows[r] = append(row[:i], row[i+1:]...)
		}
	}
}

// Clone returns a deep copy.
func (t *Table) Clone() *Table {
	out := &Table{
		Columns: append([]string(nil), t.Columns...),
		Rows:    make([][]string, len(t.Rows)),
	}
	for r, row := range t.Rows {
		out.Rows[r] = append([]string(nil), row...)
	}
	return out
}

// Records converts up to limit rows into column-keyed records. A limit
// of 0 or less means all rows.
func (t *Table) Records(limit int) []map[string]string {
	n := len(t.Rows)
	if limit > 0 && limit < n {
		n = limit
	}
	out := make([]map[string]string, 0, n)
	for r := 0; r < n; r++ {
		rec := make(map[string]string, len(t.Columns))
		for i, c := range t.Columns {
			if i < len(t.Rows[r]) {
				rec[c] = t.Rows[r][i]
			}
		}
		out = append(out, rec)
	}
	return out
}
