package model

import "github.com/shopspring/decimal"

// TransactionBatch groups the transactions committed by one import call.
// Every transaction in the batch carries ImportBatchID == batch.ID.
type TransactionBatch struct {
	ID           string        `json:"id"`
	Transactions []Transaction `json:"transactions"`
	ImportDate   string        `json:"import_date"`
}

// DateRange bounds the transaction dates in a batch. Both ends are nil
// for an empty batch.
type DateRange struct {
	Start *string `json:"start"`
	End   *string `json:"end"`
}

// BatchSummary is the derived, JSON-facing view of a batch.
type BatchSummary struct {
	ID                string          `json:"id"`
	ImportDate        string          `json:"import_date"`
	TotalTransactions int             `json:"total_transactions"`
	TotalIncome       decimal.Decimal `json:"total_income"`
	TotalExpenses     decimal.Decimal `json:"total_expenses"`
	NetAmount         decimal.Decimal `json:"net_amount"`
	DateRange         DateRange       `json:"date_range"`
}

// TotalTransactions returns the number of transactions in the batch.
func (b *TransactionBatch) TotalTransactions() int {
	return len(b.Transactions)
}

// TotalIncome sums the positive amounts.
func (b *TransactionBatch) TotalIncome() decimal.Decimal {
	total := decimal.Zero
	for _, t := range b.Transactions {
		if t.IsIncome() {
			total = total.Add(t.Amount)
		}
	}
	return total
}

// TotalExpenses sums the negative amounts (the result is <= 0).
func (b *TransactionBatch) TotalExpenses() decimal.Decimal {
	total := decimal.Zero
	for _, t := range b.Transactions {
		if t.IsExpense() {
			total = total.Add(t.Amount)
		}
	}
	return total
}

// NetAmount sums all amounts.
func (b *TransactionBatch) NetAmount() decimal.Decimal {
	total := decimal.Zero
	for _, t := range b.Transactions {
		total = total.Add(t.Amount)
	}
	return total
}

// DateRange returns the min and max transaction dates. Dates are
// canonical "2006-01-02" strings, so ordering is lexicographic; empty
// dates are skipped.
func (b *TransactionBatch) DateRange() DateRange {
	var start, end string
	for _, t := range b.Transactions {
		if t.Date == "" {
			continue
		}
		if start == "" || t.Date < start {
			start = t.Date
		}
		if end == "" || t.Date > end {
			end = t.Date
		}
	}
	if start == "" {
		return DateRange{}
	}
	return DateRange{Start: &start, End: &end}
}

// Summary computes the derived batch view.
func (b *TransactionBatch) Summary() BatchSummary {
	return BatchSummary{
		ID:                b.ID,
		ImportDate:        b.ImportDate,
		TotalTransactions: b.TotalTransactions(),
		TotalIncome:       b.TotalIncome(),
		TotalExpenses:     b.TotalExpenses(),
		NetAmount:         b.NetAmount(),
		DateRange:         b.DateRange(),
	}
}
