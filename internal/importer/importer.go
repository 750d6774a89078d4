// Package importer orchestrates the CSV import pipeline: load, map,
// normalize, categorize, validate, preview, and commit.
package importer

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"github.com/muzzy-dev/muzzy/internal/auditlog"
	"github.com/muzzy-dev/muzzy/internal/categorize"
	"github.com/muzzy-dev/muzzy/internal/model"
	"github.com/muzzy-dev/muzzy/internal/normalize"
	"github.com/muzzy-dev/muzzy/internal/schema"
	"github.com/muzzy-dev/muzzy/internal/store"
	"github.com/muzzy-dev/muzzy/internal/tabular"
	"github.com/muzzy-dev/muzzy/internal/validate"
)

// Client-caused failures, mapped to 4xx at the HTTP boundary.
var (
	ErrSessionNotFound = errors.New("unknown file reference")
	ErrEmptyFilename   = errors.New("no file selected")
	ErrNotCSV          = errors.New("file must have a .csv extension")
	ErrEmptyMapping    = errors.New("mapping must reference at least one column")
)

// prettyDateLayout is how dates are rendered in previews.
const prettyDateLayout = "Jan 02, 2006"

// sampleRowLimit caps the rows returned in previews.
const sampleRowLimit = 10

// uploadSampleLimit caps the raw rows returned after upload.
const uploadSampleLimit = 5

// Options configures a Service.
type Options struct {
	UploadDir            string
	AuditLogDir          string // empty disables the audit trail
	LargeAmountThreshold decimal.Decimal
	CategoryRules        []categorize.Rule
	Logger               zerolog.Logger
}

// Service runs import pipelines against a shared store. Each operation
// is synchronous; the only shared mutable state is the store and the
// session registry, both lock-guarded.
type Service struct {
	store       *store.Store
	sessions    *sessionRegistry
	categorizer *categorize.Categorizer
	uploadDir   string
	auditDir    string
	largeAmount decimal.Decimal
	log         zerolog.Logger
	now         func() time.Time
}

// New creates an import Service.
func New(st *store.Store, opts Options) *Service {
	threshold := opts.LargeAmountThreshold
	if threshold.IsZero() {
		threshold = validate.DefaultLargeAmount
	}
	uploadDir := opts.UploadDir
	if uploadDir == "" {
		uploadDir = "temp_uploads"
	}
	return &Service{
		store:       st,
		sessions:    newSessionRegistry(),
		categorizer: categorize.New(opts.CategoryRules),
		uploadDir:   uploadDir,
		auditDir:    opts.AuditLogDir,
		largeAmount: threshold,
		log:         opts.Logger,
		now:         time.Now,
	}
}

// UploadResult describes a parsed upload awaiting mapping confirmation.
type UploadResult struct {
	FileReference    string              `json:"file_reference"`
	Columns          []string            `json:"columns"`
	SuggestedMapping schema.Mapping      `json:"suggested_mapping"`
	SampleRows       []map[string]string `json:"sample_rows"`
}

// PreviewStats summarizes the amounts in a canonical table.
type PreviewStats struct {
	TotalTransactions int             `json:"total_transactions"`
	Income            decimal.Decimal `json:"income"`
	Expenses          decimal.Decimal `json:"expenses"`
	Net               decimal.Decimal `json:"net"`
}

// PreviewDateRange bounds the dates in a preview, pretty-printed.
type PreviewDateRange struct {
	Start string `json:"start,omitempty"`
	End   string `json:"end,omitempty"`
}

// Preview is the pre-commit view of a mapped table.
type Preview struct {
	DateRange  PreviewDateRange    `json:"date_range"`
	Stats      PreviewStats        `json:"stats"`
	Issues     []validate.Issue    `json:"issues"`
	SampleRows []map[string]string `json:"sample_rows"`
}

// PreviewOptions tunes a preview recomputation. SkipDuplicates and
// FixIssues are accepted for contract compatibility but are
// unimplemented extension points.
type PreviewOptions struct {
	SkipDuplicates bool
	AutoCategorize bool
	FixIssues      bool
}

// DefaultPreviewOptions enables everything.
func DefaultPreviewOptions() PreviewOptions {
	return PreviewOptions{SkipDuplicates: true, AutoCategorize: true, FixIssues: true}
}

// Upload stores an uploaded file under the temp dir, parses it, and
// opens an import session. The returned file reference is the handle
// for all later calls.
func (s *Service) Upload(filename string, r io.Reader) (*UploadResult, error) {
	if strings.TrimSpace(filename) == "" {
		return nil, ErrEmptyFilename
	}
	if !strings.EqualFold(filepath.Ext(filename), ".csv") {
		return nil, fmt.Errorf("%w: %s", ErrNotCSV, filename)
	}

	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("reading upload: %w", err)
	}

	tbl, err := tabular.Parse(data)
	if err != nil {
		return nil, err
	}

	ref := uuid.NewString()
	path := filepath.Join(s.uploadDir, ref+".csv")
	if err := os.MkdirAll(s.uploadDir, 0o755); err != nil {
		return nil, fmt.Errorf("creating upload dir: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return nil, fmt.Errorf("saving upload: %w", err)
	}

	s.sessions.put(&session{
		ref:      ref,
		path:     path,
		filename: filename,
		table:    tbl,
	})

	s.audit(auditlog.Entry{
		Action:        "upload",
		FileReference: ref,
		Details:       fmt.Sprintf("%s (%d rows)", filename, len(tbl.Rows)),
	})

	s.log.Info().
		Str("file_reference", ref).
		Str("filename", filename).
		Int("rows", len(tbl.Rows)).
		Msg("upload accepted")

	return &UploadResult{
		FileReference:    ref,
		Columns:          tbl.Columns,
		SuggestedMapping: schema.Suggest(tbl),
		SampleRows:       tbl.Records(uploadSampleLimit),
	}, nil
}

// Map confirms a column mapping for a session and returns the resulting
// preview. An empty amount format defaults to negative_expense; an
// empty date format is auto-detected from the data.
func (s *Service) Map(ref string, mapping schema.Mapping, dateFormat, amountFormat string) (*Preview, error) {
	if len(mapping) == 0 {
		return nil, ErrEmptyMapping
	}
	if amountFormat == "" {
		amountFormat = normalize.ModeNegativeExpense
	}
	if !s.sessions.setMapping(ref, mapping, dateFormat, amountFormat) {
		return nil, fmt.Errorf("%w: %s", ErrSessionNotFound, ref)
	}
	return s.Preview(ref, DefaultPreviewOptions())
}

// Preview recomputes the pre-commit view for a mapped session.
func (s *Service) Preview(ref string, opts PreviewOptions) (*Preview, error) {
	sess, ok := s.sessions.get(ref)
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrSessionNotFound, ref)
	}
	if len(sess.mapping) == 0 {
		return nil, ErrEmptyMapping
	}

	canon, err := s.buildCanonical(sess, opts.AutoCategorize)
	if err != nil {
		return nil, err
	}
	return s.buildPreview(canon), nil
}

// Process commits a mapped session as an immutable batch, appends it to
// the store, and cleans up the temporary upload. This is the only
// operation that mutates process-wide state.
func (s *Service) Process(ref string) (*model.BatchSummary, error) {
	sess, ok := s.sessions.get(ref)
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrSessionNotFound, ref)
	}
	if len(sess.mapping) == 0 {
		return nil, ErrEmptyMapping
	}

	canon, err := s.buildCanonical(sess, true)
	if err != nil {
		return nil, err
	}

	batch, err := s.commit(canon)
	if err != nil {
		return nil, err
	}

	s.audit(auditlog.Entry{
		Action:        "commit",
		FileReference: ref,
		BatchID:       batch.ID,
		Details:       fmt.Sprintf("%d transactions", batch.TotalTransactions()),
	})

	// Best-effort cleanup; a leftover temp file never fails the import.
	if err := os.Remove(sess.path); err != nil && !os.IsNotExist(err) {
		s.log.Warn().Err(err).Str("path", sess.path).Msg("removing temp upload failed")
	}
	s.sessions.delete(ref)

	s.log.Info().
		Str("file_reference", ref).
		Str("batch_id", batch.ID).
		Int("transactions", batch.TotalTransactions()).
		Msg("batch committed")

	summary := batch.Summary()
	return &summary, nil
}

// buildCanonical runs the stateless pipeline stages over the session's
// raw table: apply mapping, convert dates, normalize amounts, and
// optionally categorize.
func (s *Service) buildCanonical(sess session, autoCategorize bool) (*tabular.Table, error) {
	canon := schema.Apply(sess.table, sess.mapping)

	if canon.HasColumn(schema.FieldDate) {
		layout := sess.dateFormat
		if layout == "" {
			layout = detectLayout(canon)
		}
		if layout != "" {
			converted, err := normalize.ConvertDates(canon, schema.FieldDate, layout)
			if err != nil {
				return nil, err
			}
			canon = converted
		}
	}

	canon, err := normalize.NormalizeAmounts(canon, sess.amountFormat)
	if err != nil {
		return nil, err
	}

	if autoCategorize {
		canon = s.categorizer.Categorize(canon)
	}
	return canon, nil
}

// detectLayout finds a date layout from the first non-empty date cell.
// Returns "" when nothing parses; the cells are then left as-is for the
// validator to flag.
func detectLayout(t *tabular.Table) string {
	for r := range t.Rows {
		cell := strings.TrimSpace(t.Cell(r, schema.FieldDate))
		if cell == "" {
			continue
		}
		layout, _ := normalize.DetectDateFormat(cell)
		return layout
	}
	return ""
}

// buildPreview derives stats, date range, issues, and sample rows from
// a canonical table.
func (s *Service) buildPreview(canon *tabular.Table) *Preview {
	p := &Preview{
		Stats:      PreviewStats{Income: decimal.Zero, Expenses: decimal.Zero, Net: decimal.Zero},
		Issues:     validate.WithThreshold(canon, s.largeAmount),
		SampleRows: sampleRows(canon),
	}

	if canon.HasColumn(schema.FieldAmount) {
		p.Stats.TotalTransactions = len(canon.Rows)
		for r := range canon.Rows {
			d, err := decimal.NewFromString(canon.Cell(r, schema.FieldAmount))
			if err != nil {
				continue
			}
			if d.IsPositive() {
				p.Stats.Income = p.Stats.Income.Add(d)
			} else if d.IsNegative() {
				p.Stats.Expenses = p.Stats.Expenses.Add(d)
			}
		}
		p.Stats.Net = p.Stats.Income.Add(p.Stats.Expenses)
	}

	if canon.HasColumn(schema.FieldDate) {
		var minDate, maxDate string
		for r := range canon.Rows {
			cell := canon.Cell(r, schema.FieldDate)
			if _, err := time.Parse(model.DateLayout, cell); err != nil {
				continue
			}
			if minDate == "" || cell < minDate {
				minDate = cell
			}
			if maxDate == "" || cell > maxDate {
				maxDate = cell
			}
		}
		if minDate != "" {
			p.DateRange = PreviewDateRange{Start: prettyDate(minDate), End: prettyDate(maxDate)}
		}
	}

	return p
}

// sampleRows renders up to sampleRowLimit canonical rows, with dates
// pretty-printed.
func sampleRows(canon *tabular.Table) []map[string]string {
	recs := canon.Records(sampleRowLimit)
	for _, rec := range recs {
		if date, ok := rec[schema.FieldDate]; ok {
			rec[schema.FieldDate] = prettyDate(date)
		}
	}
	return recs
}

// prettyDate reformats a canonical date for display; anything else is
// passed through.
func prettyDate(date string) string {
	parsed, err := time.Parse(model.DateLayout, date)
	if err != nil {
		return date
	}
	return parsed.Format(prettyDateLayout)
}

// commit assigns identity (batch id, transaction ids, import timestamp)
// and appends the batch to the store.
func (s *Service) commit(canon *tabular.Table) (*model.TransactionBatch, error) {
	batch := &model.TransactionBatch{
		ID:         uuid.NewString(),
		ImportDate: s.now().Format(model.ImportDateLayout),
	}

	for r := range canon.Rows {
		amount := decimal.Zero
		if cell := strings.TrimSpace(canon.Cell(r, schema.FieldAmount)); cell != "" {
			d, err := decimal.NewFromString(cell)
			if err != nil {
				return nil, &normalize.AmountParseError{Column: schema.FieldAmount, Row: r, Value: cell, Err: err}
			}
			amount = d
		}

		batch.Transactions = append(batch.Transactions, model.Transaction{
			ID:            uuid.NewString(),
			Date:          canon.Cell(r, schema.FieldDate),
			Description:   canon.Cell(r, schema.FieldDescription),
			Amount:        amount,
			Category:      canon.Cell(r, schema.FieldCategory),
			Account:       canon.Cell(r, schema.FieldAccount),
			Status:        model.StatusCleared,
			ImportBatchID: batch.ID,
			ImportDate:    batch.ImportDate,
		})
	}

	if err := s.store.AddBatch(batch); err != nil {
		return nil, fmt.Errorf("committing batch: %w", err)
	}
	return batch, nil
}

// audit appends one entry to the import log; failures are logged and
// swallowed.
func (s *Service) audit(e auditlog.Entry) {
	if s.auditDir == "" {
		return
	}
	e.Timestamp = s.now()
	if err := auditlog.Append(s.auditDir, []auditlog.Entry{e}); err != nil {
		s.log.Warn().Err(err).Msg("appending import log failed")
	}
}
