package importer

import (
	"os"
	"strings"
	"testing"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/muzzy-dev/muzzy/internal/auditlog"
	"github.com/muzzy-dev/muzzy/internal/normalize"
	"github.com/muzzy-dev/muzzy/internal/schema"
	"github.com/muzzy-dev/muzzy/internal/store"
	"github.com/muzzy-dev/muzzy/internal/tabular"
	"github.com/muzzy-dev/muzzy/internal/validate"
)

func newTestService(t *testing.T) (*Service, *store.Store) {
	t.Helper()
	st := store.New()
	svc := New(st, Options{
		UploadDir: t.TempDir(),
		Logger:    zerolog.Nop(),
	})
	return svc, st
}

const basicCSV = "Date,Desc,Amt\n2025-04-01,Starbucks,-4.50\n"

func TestUpload(t *testing.T) {
	svc, _ := newTestService(t)

	res, err := svc.Upload("transactions.csv", strings.NewReader(basicCSV))
	require.NoError(t, err)

	assert.NotEmpty(t, res.FileReference)
	assert.Equal(t, []string{"Date", "Desc", "Amt"}, res.Columns)
	// "Amt" matches no amount keyword, so that field is left for the
	// user to map by hand.
	assert.Equal(t, schema.Mapping{
		schema.FieldDate:        "Date",
		schema.FieldDescription: "Desc",
	}, res.SuggestedMapping)
	require.Len(t, res.SampleRows, 1)
	assert.Equal(t, "Starbucks", res.SampleRows[0]["Desc"])
}

func TestUpload_Rejections(t *testing.T) {
	svc, _ := newTestService(t)

	_, err := svc.Upload("", strings.NewReader(basicCSV))
	assert.ErrorIs(t, err, ErrEmptyFilename)

	_, err = svc.Upload("report.pdf", strings.NewReader(basicCSV))
	assert.ErrorIs(t, err, ErrNotCSV)

	_, err = svc.Upload("bad.csv", strings.NewReader("a,b\n1\n"))
	assert.ErrorIs(t, err, tabular.ErrMalformedInput)
}

func TestMap_EndToEndExample(t *testing.T) {
	svc, _ := newTestService(t)

	res, err := svc.Upload("transactions.csv", strings.NewReader(basicCSV))
	require.NoError(t, err)

	preview, err := svc.Map(res.FileReference, schema.Mapping{
		schema.FieldDate:        "Date",
		schema.FieldDescription: "Desc",
		schema.FieldAmount:      "Amt",
	}, "", "")
	require.NoError(t, err)

	assert.Empty(t, preview.Issues)
	assert.Equal(t, 1, preview.Stats.TotalTransactions)
	assert.True(t, preview.Stats.Income.IsZero())
	assert.True(t, preview.Stats.Expenses.Equal(decimal.NewFromFloat(-4.5)))
	assert.True(t, preview.Stats.Net.Equal(decimal.NewFromFloat(-4.5)))
	assert.Equal(t, "Apr 01, 2025", preview.DateRange.Start)
	assert.Equal(t, "Apr 01, 2025", preview.DateRange.End)

	require.Len(t, preview.SampleRows, 1)
	row := preview.SampleRows[0]
	assert.Equal(t, "Apr 01, 2025", row["date"])
	assert.Equal(t, "Starbucks", row["description"])
	assert.Equal(t, "-4.5", row["amount"])
	assert.Equal(t, "Food & Dining", row["category"])
}

func TestMap_UnknownReference(t *testing.T) {
	svc, _ := newTestService(t)
	_, err := svc.Map("nope", schema.Mapping{schema.FieldDate: "Date"}, "", "")
	assert.ErrorIs(t, err, ErrSessionNotFound)
}

func TestMap_EmptyMapping(t *testing.T) {
	svc, _ := newTestService(t)
	res, err := svc.Upload("transactions.csv", strings.NewReader(basicCSV))
	require.NoError(t, err)

	_, err = svc.Map(res.FileReference, nil, "", "")
	assert.ErrorIs(t, err, ErrEmptyMapping)
}

func TestMap_DateFormatConversion(t *testing.T) {
	svc, _ := newTestService(t)
	csv := "When,What,How Much\n04/15/2025,Payroll,1200.00\n"
	res, err := svc.Upload("t.csv", strings.NewReader(csv))
	require.NoError(t, err)

	preview, err := svc.Map(res.FileReference, schema.Mapping{
		schema.FieldDate:        "When",
		schema.FieldDescription: "What",
		schema.FieldAmount:      "How Much",
	}, "01/02/2006", "")
	require.NoError(t, err)
	assert.Equal(t, "Apr 15, 2025", preview.DateRange.Start)
	assert.True(t, preview.Stats.Income.Equal(decimal.NewFromInt(1200)))
}

func TestMap_BadDateSurfaced(t *testing.T) {
	svc, _ := newTestService(t)
	csv := "Date,Desc,Amt\nnot-a-date,Coffee,-4.50\n"
	res, err := svc.Upload("t.csv", strings.NewReader(csv))
	require.NoError(t, err)

	_, err = svc.Map(res.FileReference, schema.Mapping{
		schema.FieldDate:        "Date",
		schema.FieldDescription: "Desc",
		schema.FieldAmount:      "Amt",
	}, "2006-01-02", "")

	var convErr *normalize.DateConversionError
	assert.ErrorAs(t, err, &convErr)
}

func TestMap_SeparateColumns(t *testing.T) {
	svc, _ := newTestService(t)
	csv := "Date,Payee,Debit,Credit\n2025-04-01,Shell Gas,$50.00,$0.00\n2025-04-02,Payroll,,1200.00\n"
	res, err := svc.Upload("t.csv", strings.NewReader(csv))
	require.NoError(t, err)

	preview, err := svc.Map(res.FileReference, schema.Mapping{
		schema.FieldDate:        "Date",
		schema.FieldDescription: "Payee",
		schema.FieldDebit:       "Debit",
		schema.FieldCredit:      "Credit",
	}, "", normalize.ModeSeparateColumns)
	require.NoError(t, err)

	assert.Equal(t, 2, preview.Stats.TotalTransactions)
	assert.True(t, preview.Stats.Expenses.Equal(decimal.NewFromInt(-50)))
	assert.True(t, preview.Stats.Income.Equal(decimal.NewFromInt(1200)))
	assert.Equal(t, "-50", preview.SampleRows[0]["amount"])
}

func TestPreview_AutoCategorizeOff(t *testing.T) {
	svc, _ := newTestService(t)
	res, err := svc.Upload("t.csv", strings.NewReader(basicCSV))
	require.NoError(t, err)

	mapping := schema.Mapping{
		schema.FieldDate:        "Date",
		schema.FieldDescription: "Desc",
		schema.FieldAmount:      "Amt",
	}
	_, err = svc.Map(res.FileReference, mapping, "", "")
	require.NoError(t, err)

	preview, err := svc.Preview(res.FileReference, PreviewOptions{AutoCategorize: false})
	require.NoError(t, err)

	// Without categorization there is no category column, so no
	// missing_categories finding either.
	assert.NotContains(t, preview.SampleRows[0], "category")
	for _, iss := range preview.Issues {
		assert.NotEqual(t, validate.TypeMissingCategories, iss.Type)
	}
}

func TestPreview_RequiresMapping(t *testing.T) {
	svc, _ := newTestService(t)
	res, err := svc.Upload("t.csv", strings.NewReader(basicCSV))
	require.NoError(t, err)

	_, err = svc.Preview(res.FileReference, DefaultPreviewOptions())
	assert.ErrorIs(t, err, ErrEmptyMapping)
}

func TestProcess(t *testing.T) {
	svc, st := newTestService(t)

	res, err := svc.Upload("transactions.csv", strings.NewReader(basicCSV))
	require.NoError(t, err)

	_, err = svc.Map(res.FileReference, schema.Mapping{
		schema.FieldDate:        "Date",
		schema.FieldDescription: "Desc",
		schema.FieldAmount:      "Amt",
	}, "", "")
	require.NoError(t, err)

	sess, ok := svc.sessions.get(res.FileReference)
	require.True(t, ok)

	summary, err := svc.Process(res.FileReference)
	require.NoError(t, err)

	assert.Equal(t, 1, summary.TotalTransactions)
	assert.True(t, summary.TotalExpenses.Equal(decimal.NewFromFloat(-4.5)))
	assert.True(t, summary.TotalIncome.IsZero())
	assert.True(t, summary.NetAmount.Equal(decimal.NewFromFloat(-4.5)))
	require.NotNil(t, summary.DateRange.Start)
	assert.Equal(t, "2025-04-01", *summary.DateRange.Start)

	// Committed into the store with identity assigned.
	txns := st.TransactionsByBatch(summary.ID)
	require.Len(t, txns, 1)
	assert.NotEmpty(t, txns[0].ID)
	assert.Equal(t, summary.ID, txns[0].ImportBatchID)
	assert.Equal(t, "Food & Dining", txns[0].Category)
	assert.Equal(t, "cleared", txns[0].Status)

	// Temp file cleaned up, session closed.
	_, statErr := os.Stat(sess.path)
	assert.True(t, os.IsNotExist(statErr))

	_, err = svc.Process(res.FileReference)
	assert.ErrorIs(t, err, ErrSessionNotFound)
}

func TestProcess_AuditTrail(t *testing.T) {
	st := store.New()
	auditDir := t.TempDir()
	svc := New(st, Options{
		UploadDir:   t.TempDir(),
		AuditLogDir: auditDir,
		Logger:      zerolog.Nop(),
	})

	res, err := svc.Upload("transactions.csv", strings.NewReader(basicCSV))
	require.NoError(t, err)
	_, err = svc.Map(res.FileReference, schema.Mapping{
		schema.FieldDate:        "Date",
		schema.FieldDescription: "Desc",
		schema.FieldAmount:      "Amt",
	}, "", "")
	require.NoError(t, err)
	summary, err := svc.Process(res.FileReference)
	require.NoError(t, err)

	entries, err := auditlog.Read(auditDir)
	require.NoError(t, err)
	require.Len(t, entries, 2)
	assert.Equal(t, "upload", entries[0].Action)
	assert.Equal(t, "commit", entries[1].Action)
	assert.Equal(t, summary.ID, entries[1].BatchID)
}

func TestCustomLargeAmountThreshold(t *testing.T) {
	st := store.New()
	svc := New(st, Options{
		UploadDir:            t.TempDir(),
		LargeAmountThreshold: decimal.NewFromInt(100),
		Logger:               zerolog.Nop(),
	})

	csv := "Date,Desc,Amt\n2025-04-01,Rent,-150.00\n"
	res, err := svc.Upload("t.csv", strings.NewReader(csv))
	require.NoError(t, err)

	preview, err := svc.Map(res.FileReference, schema.Mapping{
		schema.FieldDate:        "Date",
		schema.FieldDescription: "Desc",
		schema.FieldAmount:      "Amt",
	}, "", "")
	require.NoError(t, err)

	found := false
	for _, iss := range preview.Issues {
		if iss.Type == validate.TypeLargeAmounts {
			found = true
		}
	}
	assert.True(t, found)
}
