// Package schema infers and applies mappings from arbitrary export
// columns onto the canonical transaction fields.
package schema

import (
	"strings"

	"github.com/muzzy-dev/muzzy/internal/tabular"
)

// Field is a canonical transaction field name.
type Field = string

// Canonical fields. FieldDebit and FieldCredit are auxiliary: Suggest
// never proposes them, but a mapping may carry them so that
// separate-column amount normalization has its inputs after Apply.
const (
	FieldDate        Field = "date"
	FieldDescription Field = "description"
	FieldAmount      Field = "amount"
	FieldCategory    Field = "category"
	FieldAccount     Field = "account"
	FieldDebit       Field = "debit"
	FieldCredit      Field = "credit"
)

// fieldOrder fixes the column order of canonical tables.
var fieldOrder = []Field{
	FieldDate,
	FieldDescription,
	FieldAmount,
	FieldCategory,
	FieldAccount,
	FieldDebit,
	FieldCredit,
}

// fieldKeywords drives Suggest: for each field, a column whose name
// contains any keyword (case-insensitive) is a candidate; the first
// matching column in header order wins.
var fieldKeywords = []struct {
	field    Field
	keywords []string
}{
	{FieldDate, []string{"date", "time", "day"}},
	{FieldDescription, []string{"description", "desc", "merchant", "payee", "name", "transaction"}},
	{FieldAmount, []string{"amount", "sum", "total", "payment", "debit", "credit"}},
	{FieldCategory, []string{"category", "type", "classification"}},
	{FieldAccount, []string{"account", "source", "card", "bank"}},
}

// Mapping assigns a source column to each mapped canonical field.
type Mapping map[Field]string

// Suggest proposes a mapping from t's column names. Fields with no
// matching column are absent from the result. Deterministic for a given
// column list.
func Suggest(t *tabular.Table) Mapping {
	m := make(Mapping)
	for _, fk := range fieldKeywords {
		for _, col := range t.Columns {
			if containsAny(strings.ToLower(col), fk.keywords) {
				m[fk.field] = col
				break
			}
		}
	}
	return m
}

func containsAny(s string, keywords []string) bool {
	for _, kw := range keywords {
		if strings.Contains(s, kw) {
			return true
		}
	}
	return false
}

// Apply builds a canonical table holding only the mapped fields, each
// populated from its source column. Unmapped source columns are
// dropped. A mapping entry naming a column absent from t is silently
// ignored, leaving that field unpopulated.
func Apply(t *tabular.Table, m Mapping) *tabular.Table {
	out := &tabular.Table{Rows: make([][]string, len(t.Rows))}

	for _, field := range fieldOrder {
		src, ok := m[field]
		if !ok || !t.HasColumn(src) {
			continue
		}
		out.Columns = append(out.Columns, field)
		col := t.Column(src)
		for r := range out.Rows {
			out.Rows[r] = append(out.Rows[r], col[r])
		}
	}
	return out
}
