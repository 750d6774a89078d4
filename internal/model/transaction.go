package model

import (
	"fmt"

	"github.com/shopspring/decimal"
)

// DateLayout is the canonical transaction date format.
const DateLayout = "2006-01-02"

// ImportDateLayout is the timestamp stamped on a committed batch.
const ImportDateLayout = "2006-01-02 15:04:05"

// StatusCleared is the default status assigned at import.
const StatusCleared = "cleared"

// Transaction is a committed ledger row. The amount sign classifies it:
// negative = expense, positive = income, zero = neither. Committed
// transactions are never mutated.
type Transaction struct {
	ID            string          `json:"id"`
	Date          string          `json:"date"` // "2006-01-02"
	Description   string          `json:"description"`
	Amount        decimal.Decimal `json:"amount"`
	Category      string          `json:"category,omitempty"`
	Account       string          `json:"account,omitempty"`
	Notes         string          `json:"notes,omitempty"`
	Status        string          `json:"status"`
	ImportBatchID string          `json:"import_batch_id"`
	ImportDate    string          `json:"import_date"`
}

// IsExpense reports whether the amount is negative.
func (t Transaction) IsExpense() bool { return t.Amount.IsNegative() }

// IsIncome reports whether the amount is positive.
func (t Transaction) IsIncome() bool { return t.Amount.IsPositive() }

// FormattedAmount renders the amount as a signed currency string, e.g. "-$4.50".
func (t Transaction) FormattedAmount() string {
	sign := "+"
	if t.IsExpense() {
		sign = "-"
	}
	return sign + "$" + t.Amount.Abs().StringFixed(2)
}

// ToMap converts the transaction to a flat record.
func (t Transaction) ToMap() map[string]any {
	return map[string]any{
		"id":              t.ID,
		"date":            t.Date,
		"description":     t.Description,
		"amount":          t.Amount,
		"category":        t.Category,
		"account":         t.Account,
		"notes":           t.Notes,
		"status":          t.Status,
		"import_batch_id": t.ImportBatchID,
		"import_date":     t.ImportDate,
	}
}

// FromMap builds a Transaction from a flat record. The amount may be a
// decimal, a string, or a float (as produced by JSON decoding). A missing
// status defaults to "cleared".
func FromMap(data map[string]any) (Transaction, error) {
	amount, err := amountFrom(data["amount"])
	if err != nil {
		return Transaction{}, err
	}

	status := stringFrom(data["status"])
	if status == "" {
		status = StatusCleared
	}

	return Transaction{
		ID:            stringFrom(data["id"]),
		Date:          stringFrom(data["date"]),
		Description:   stringFrom(data["description"]),
		Amount:        amount,
		Category:      stringFrom(data["category"]),
		Account:       stringFrom(data["account"]),
		Notes:         stringFrom(data["notes"]),
		Status:        status,
		ImportBatchID: stringFrom(data["import_batch_id"]),
		ImportDate:    stringFrom(data["import_date"]),
	}, nil
}

func stringFrom(v any) string {
	s, _ := v.(string)
	return s
}

func amountFrom(v any) (decimal.Decimal, error) {
	switch a := v.(type) {
	case nil:
		return decimal.Zero, nil
	case decimal.Decimal:
		return a, nil
	case string:
		d, err := decimal.NewFromString(a)
		if err != nil {
			return decimal.Zero, fmt.Errorf("parsing amount %q: %w", a, err)
		}
		return d, nil
	case float64:
		return decimal.NewFromFloat(a), nil
	case int:
		return decimal.NewFromInt(int64(a)), nil
	default:
		return decimal.Zero, fmt.Errorf("unsupported amount type %T", v)
	}
}
