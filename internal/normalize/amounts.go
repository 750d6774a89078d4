package normalize

import (
	"fmt"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/muzzy-dev/muzzy/internal/schema"
	"github.com/muzzy-dev/muzzy/internal/tabular"
)

// Amount formats accepted by NormalizeAmounts.
const (
	ModeNegativeExpense = "negative_expense"
	ModeSeparateColumns = "separate_columns"
)

// AmountParseError reports a cell that is not numeric after stripping
// currency symbols.
type AmountParseError struct {
	Column string
	Row    int
	Value  string
	Err    error
}

func (e *AmountParseError) Error() string {
	return fmt.Sprintf("normalizing amounts: row %d: %q is not a number (%v)", e.Row, e.Value, e.Err)
}

func (e *AmountParseError) Unwrap() error { return e.Err }

// symbolStripper removes the currency symbol and thousands separators.
var symbolStripper = strings.NewReplacer("$", "", ",", "")

// NormalizeAmounts converts amount cells into plain signed decimals.
//
// Under negative_expense the amount column is cleaned in place and its
// sign taken as-is; a table without an amount column is returned
// unchanged. Under separate_columns the debit and credit columns are
// cleaned, amount = credit - debit is written (creating the column if
// needed), and the debit/credit columns are dropped.
func NormalizeAmounts(t *tabular.Table, mode string) (*tabular.Table, error) {
	switch mode {
	case ModeNegativeExpense:
		return normalizeSigned(t)
	case ModeSeparateColumns:
		return normalizeSeparate(t)
	default:
		return nil, fmt.Errorf("unknown amount format %q", mode)
	}
}

func normalizeSigned(t *tabular.Table) (*tabular.Table, error) {
	if !t.HasColumn(schema.FieldAmount) {
		return t, nil
	}

	out := t.Clone()
	for r := range out.Rows {
		d, ok, err := parseCell(out, r, schema.FieldAmount)
		if err != nil {
			return nil, err
		}
		if ok {
			out.SetCell(r, schema.FieldAmount, d.String())
		}
	}
	return out, nil
}

func normalizeSeparate(t *tabular.Table) (*tabular.Table, error) {
	if !t.HasColumn(schema.FieldDebit) || !t.HasColumn(schema.FieldCredit) {
		return nil, fmt.Errorf("amount format %q requires debit and credit columns", ModeSeparateColumns)
	}

	out := t.Clone()
	out.AddColumn(schema.FieldAmount)
	for r := range out.Rows {
		debit, _, err := parseCell(out, r, schema.FieldDebit)
		if err != nil {
			return nil, err
		}
		credit, _, err := parseCell(out, r, schema.FieldCredit)
		if err != nil {
			return nil, err
		}
		out.SetCell(r, schema.FieldAmount, credit.Sub(debit).String())
	}

	out.DropColumn(schema.FieldDebit)
	out.DropColumn(schema.FieldCredit)
	return out, nil
}

// parseCell cleans and parses one cell. Empty cells parse as zero with
// ok=false so callers can leave them untouched.
func parseCell(t *tabular.Table, row int, column string) (decimal.Decimal, bool, error) {
	raw := strings.TrimSpace(t.Cell(row, column))
	if raw == "" {
		return decimal.Zero, false, nil
	}

	cleaned := symbolStripper.Replace(raw)
	d, err := decimal.NewFromString(cleaned)
	if err != nil {
		return decimal.Zero, false, &AmountParseError{Column: column, Row: row, Value: raw, Err: err}
	}
	return d, true, nil
}
