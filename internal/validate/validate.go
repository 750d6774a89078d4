// Package validate scans a canonical table for structural and
// statistical problems before commit. Findings are advisory: they never
// block an import by themselves.
package validate

import (
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/muzzy-dev/muzzy/internal/model"
	"github.com/muzzy-dev/muzzy/internal/schema"
	"github.com/muzzy-dev/muzzy/internal/tabular"
)

// Issue types.
const (
	TypeMissingField      = "missing_field"
	TypeInvalidDates      = "invalid_dates"
	TypeMissingCategories = "missing_categories"
	TypeLargeAmounts      = "large_amounts"
)

// DefaultLargeAmount is the |amount| threshold above which a row is
// flagged as unusually large.
var DefaultLargeAmount = decimal.NewFromInt(5000)

// Issue is a single validation finding.
type Issue struct {
	Type    string `json:"type"`
	Field   string `json:"field,omitempty"`
	Count   int    `json:"count,omitempty"`
	Rows    []int  `json:"rows,omitempty"`
	Message string `json:"message"`
}

// requiredFields must be present as columns for a table to import cleanly.
var requiredFields = []string{schema.FieldDate, schema.FieldDescription, schema.FieldAmount}

// Validate runs every check with the default threshold.
func Validate(t *tabular.Table) []Issue {
	return WithThreshold(t, DefaultLargeAmount)
}

// WithThreshold runs every check independently and returns the ordered
// findings. It never fails; an empty slice means a clean table.
func WithThreshold(t *tabular.Table, largeAmount decimal.Decimal) []Issue {
	var issues []Issue

	for _, field := range requiredFields {
		if !t.HasColumn(field) {
			issues = append(issues, Issue{
				Type:    TypeMissingField,
				Field:   field,
				Message: fmt.Sprintf("Required field %q is missing", field),
			})
		}
	}

	if t.HasColumn(schema.FieldDate) {
		rows := collectRows(t, schema.FieldDate, func(cell string) bool {
			if cell == "" {
				return true
			}
			_, err := time.Parse(model.DateLayout, cell)
			return err != nil
		})
		if len(rows) > 0 {
			issues = append(issues, Issue{
				Type:    TypeInvalidDates,
				Count:   len(rows),
				Rows:    rows,
				Message: fmt.Sprintf("Found %d transactions with invalid dates", len(rows)),
			})
		}
	}

	if t.HasColumn(schema.FieldCategory) {
		rows := collectRows(t, schema.FieldCategory, func(cell string) bool {
			return cell == ""
		})
		if len(rows) > 0 {
			issues = append(issues, Issue{
				Type:    TypeMissingCategories,
				Count:   len(rows),
				Rows:    rows,
				Message: fmt.Sprintf("Found %d transactions with missing categories", len(rows)),
			})
		}
	}

	if t.HasColumn(schema.FieldAmount) {
		rows := collectRows(t, schema.FieldAmount, func(cell string) bool {
			d, err := decimal.NewFromString(cell)
			return err == nil && d.Abs().GreaterThan(largeAmount)
		})
		if len(rows) > 0 {
			issues = append(issues, Issue{
				Type:    TypeLargeAmounts,
				Count:   len(rows),
				Rows:    rows,
				Message: fmt.Sprintf("Found %d transactions with unusually large amounts (>$%s)", len(rows), largeAmount.String()),
			})
		}
	}

	return issues
}

// collectRows returns the indices of rows whose cell matches the
// predicate.
func collectRows(t *tabular.Table, column string, match func(cell string) bool) []int {
	var rows []int
	for r := range t.Rows {
		if match(strings.TrimSpace(t.Cell(r, column))) {
			rows = append(rows, r)
		}
	}
	return rows
}
