// Package normalize converts heterogeneous date and amount
// representations in a canonical table into their canonical forms.
package normalize

import (
	"fmt"
	"strings"
	"time"

	"github.com/muzzy-dev/muzzy/internal/model"
	"github.com/muzzy-dev/muzzy/internal/tabular"
)

// DateLayouts are the candidate input formats, tried in order by
// DetectDateFormat.
var DateLayouts = []string{
	"2006-01-02",  // 2025-04-01
	"01/02/2006",  // 04/01/2025
	"02/01/2006",  // 01/04/2025
	"01-02-2006",  // 04-01-2025
	"02-01-2006",  // 01-04-2025
	"01/02/06",    // 04/01/25
	"02/01/06",    // 01/04/25
	"Jan 2, 2006", // Apr 01, 2025
	"2 Jan 2006",  // 01 Apr 2025
}

// DateConversionError reports a cell that failed to parse under the
// requested layout.
type DateConversionError struct {
	Column string
	Row    int
	Value  string
	Err    error
}

func (e *DateConversionError) Error() string {
	return fmt.Sprintf("converting dates: row %d: %q does not match layout (%v)", e.Row, e.Value, e.Err)
}

func (e *DateConversionError) Unwrap() error { return e.Err }

// DetectDateFormat tries every candidate layout against one sample and
// returns the first that parses, or "" and false.
func DetectDateFormat(sample string) (string, bool) {
	sample = strings.TrimSpace(sample)
	for _, layout := range DateLayouts {
		if _, err := time.Parse(layout, sample); err == nil {
			return layout, true
		}
	}
	return "", false
}

// ConvertDates rewrites every cell of the named column to the canonical
// "2006-01-02" form, parsing with the single supplied layout. Empty
// cells are left empty; any non-empty cell that fails to parse aborts
// with a DateConversionError. A table without the column is returned
// unchanged.
func ConvertDates(t *tabular.Table, column, layout string) (*tabular.Table, error) {
	if !t.HasColumn(column) {
		return t, nil
	}

	out := t.Clone()
	for r := range out.Rows {
		cell := strings.TrimSpace(out.Cell(r, column))
		if cell == "" {
			continue
		}
		parsed, err := time.Parse(layout, cell)
		if err != nil {
			return nil, &DateConversionError{Column: column, Row: r, Value: cell, Err: err}
		}
		out.SetCell(r, column, parsed.Format(model.DateLayout))
	}
	return out, nil
}
