package normalize

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/muzzy-dev/muzzy/internal/tabular"
)

func TestDetectDateFormat(t *testing.T) {
	tests := []struct {
		sample string
		want   string
	}{
		{"2025-04-01", "2006-01-02"},
		{"04/01/2025", "01/02/2006"},
		{"13/04/2025", "02/01/2006"}, // day > 12 rules out MM/DD
		{"04-01-2025", "01-02-2006"},
		{"04/01/25", "01/02/06"},
		{"Apr 01, 2025", "Jan 2, 2006"},
		{"01 Apr 2025", "2 Jan 2006"},
	}

	for _, tt := range tests {
		t.Run(tt.sample, func(t *testing.T) {
			got, ok := DetectDateFormat(tt.sample)
			require.True(t, ok)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestDetectDateFormat_Unknown(t *testing.T) {
	_, ok := DetectDateFormat("not a date")
	assert.False(t, ok)
}

func dateTable(cells ...string) *tabular.Table {
	tbl := &tabular.Table{Columns: []string{"date"}}
	for _, c := range cells {
		tbl.Rows = append(tbl.Rows, []string{c})
	}
	return tbl
}

func TestConvertDates_Canonicalizes(t *testing.T) {
	out, err := ConvertDates(dateTable("04/01/2025", "04/15/2025"), "date", "01/02/2006")
	require.NoError(t, err)
	assert.Equal(t, "2025-04-01", out.Cell(0, "date"))
	assert.Equal(t, "2025-04-15", out.Cell(1, "date"))
}

func TestConvertDates_EmptyCellKept(t *testing.T) {
	out, err := ConvertDates(dateTable("2025-04-01", ""), "date", "2006-01-02")
	require.NoError(t, err)
	assert.Equal(t, "", out.Cell(1, "date"))
}

func TestConvertDates_BadCellSurfaced(t *testing.T) {
	_, err := ConvertDates(dateTable("04/01/2025", "whenever"), "date", "01/02/2006")
	require.Error(t, err)

	var convErr *DateConversionError
	require.ErrorAs(t, err, &convErr)
	assert.Equal(t, 1, convErr.Row)
	assert.Equal(t, "whenever", convErr.Value)
}

func TestConvertDates_MissingColumnNoop(t *testing.T) {
	tbl := &tabular.Table{Columns: []string{"amount"}, Rows: [][]string{{"1"}}}
	out, err := ConvertDates(tbl, "date", "2006-01-02")
	require.NoError(t, err)
	assert.Equal(t, tbl, out)
}

func TestConvertDates_DoesNotMutateInput(t *testing.T) {
	in := dateTable("04/01/2025")
	_, err := ConvertDates(in, "date", "01/02/2006")
	require.NoError(t, err)
	assert.Equal(t, "04/01/2025", in.Cell(0, "date"))
}

func amountTable(cells ...string) *tabular.Table {
	tbl := &tabular.Table{Columns: []string{"amount"}}
	for _, c := range cells {
		tbl.Rows = append(tbl.Rows, []string{c})
	}
	return tbl
}

func TestNormalizeAmounts_NegativeExpense(t *testing.T) {
	out, err := NormalizeAmounts(amountTable("$1,234.56", "-4.50", ""), ModeNegativeExpense)
	require.NoError(t, err)
	assert.Equal(t, "1234.56", out.Cell(0, "amount"))
	assert.Equal(t, "-4.5", out.Cell(1, "amount"))
	assert.Equal(t, "", out.Cell(2, "amount"))
}

func TestNormalizeAmounts_NegativeExpense_NoAmountColumn(t *testing.T) {
	tbl := &tabular.Table{Columns: []string{"date"}, Rows: [][]string{{"2025-01-01"}}}
	out, err := NormalizeAmounts(tbl, ModeNegativeExpense)
	require.NoError(t, err)
	assert.Equal(t, tbl, out)
}

func TestNormalizeAmounts_BadCell(t *testing.T) {
	_, err := NormalizeAmounts(amountTable("lots"), ModeNegativeExpense)
	require.Error(t, err)

	var parseErr *AmountParseError
	require.ErrorAs(t, err, &parseErr)
	assert.Equal(t, "lots", parseErr.Value)
}

func TestNormalizeAmounts_SeparateColumns(t *testing.T) {
	tbl := &tabular.Table{
		Columns: []string{"debit", "credit"},
		Rows: [][]string{
			{"$50.00", "$0.00"},
			{"", "1,200.00"},
		},
	}

	out, err := NormalizeAmounts(tbl, ModeSeparateColumns)
	require.NoError(t, err)
	assert.Equal(t, "-50", out.Cell(0, "amount"))
	assert.Equal(t, "1200", out.Cell(1, "amount"))
	assert.False(t, out.HasColumn("debit"))
	assert.False(t, out.HasColumn("credit"))
}

func TestNormalizeAmounts_SeparateColumnsRequireBoth(t *testing.T) {
	tbl := &tabular.Table{Columns: []string{"debit"}, Rows: [][]string{{"5"}}}
	_, err := NormalizeAmounts(tbl, ModeSeparateColumns)
	assert.Error(t, err)
}

func TestNormalizeAmounts_UnknownMode(t *testing.T) {
	_, err := NormalizeAmounts(amountTable("1"), "whatever")
	assert.Error(t, err)
}
