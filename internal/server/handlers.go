package server

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/muzzy-dev/muzzy/internal/importer"
	"github.com/muzzy-dev/muzzy/internal/schema"
	"github.com/muzzy-dev/muzzy/internal/store"
)

// handleUpload accepts a multipart CSV upload and opens an import
// session.
func (s *Server) handleUpload(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, s.maxUploadBytes)

	file, header, err := r.FormFile("file")
	if err != nil {
		writeError(w, http.StatusBadRequest, "No file provided")
		return
	}
	defer file.Close()

	result, err := s.importer.Upload(header.Filename, file)
	if err != nil {
		s.writePipelineError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, result)
}

type mapRequest struct {
	FileReference string         `json:"file_reference"`
	Mapping       schema.Mapping `json:"mapping"`
	DateFormat    string         `json:"date_format"`
	AmountFormat  string         `json:"amount_format"`
}

// handleMap confirms a column mapping and returns the resulting preview.
func (s *Server) handleMap(w http.ResponseWriter, r *http.Request) {
	var req mapRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	preview, err := s.importer.Map(req.FileReference, req.Mapping, req.DateFormat, req.AmountFormat)
	if err != nil {
		s.writePipelineError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"file_reference": req.FileReference,
		"preview":        preview,
	})
}

type previewRequest struct {
	FileReference  string `json:"file_reference"`
	SkipDuplicates *bool  `json:"skip_duplicates"`
	AutoCategorize *bool  `json:"auto_categorize"`
	FixIssues      *bool  `json:"fix_issues"`
}

// handlePreview recomputes the preview for a mapped session.
func (s *Server) handlePreview(w http.ResponseWriter, r *http.Request) {
	var req previewRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	opts := importer.DefaultPreviewOptions()
	if req.SkipDuplicates != nil {
		opts.SkipDuplicates = *req.SkipDuplicates
	}
	if req.AutoCategorize != nil {
		opts.AutoCategorize = *req.AutoCategorize
	}
	if req.FixIssues != nil {
		opts.FixIssues = *req.FixIssues
	}

	preview, err := s.importer.Preview(req.FileReference, opts)
	if err != nil {
		s.writePipelineError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"file_reference": req.FileReference,
		"preview":        preview,
	})
}

type processRequest struct {
	FileReference string `json:"file_reference"`
}

// handleProcess commits the session as an immutable batch.
func (s *Server) handleProcess(w http.ResponseWriter, r *http.Request) {
	var req processRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	summary, err := s.importer.Process(req.FileReference)
	if err != nil {
		s.writePipelineError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"success": true,
		"summary": summary,
	})
}

// handleListTransactions returns every committed transaction.
func (s *Server) handleListTransactions(w http.ResponseWriter, _ *http.Request) {
	txns := s.store.Transactions()
	writeJSON(w, http.StatusOK, map[string]any{
		"transactions": txns,
		"count":        len(txns),
	})
}

// handleGetTransaction returns one transaction by id.
func (s *Server) handleGetTransaction(w http.ResponseWriter, r *http.Request) {
	txn, err := s.store.Transaction(r.PathValue("id"))
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			writeError(w, http.StatusNotFound, err.Error())
			return
		}
		writeError(w, http.StatusInternalServerError, "Internal server error")
		return
	}
	writeJSON(w, http.StatusOK, txn)
}

// handleListBatches returns summaries of every committed batch.
func (s *Server) handleListBatches(w http.ResponseWriter, _ *http.Request) {
	batches := s.store.Batches()
	summaries := make([]any, 0, len(batches))
	for i := range batches {
		summaries = append(summaries, batches[i].Summary())
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"batches": summaries,
		"count":   len(summaries),
	})
}

// handleGetBatch returns one batch summary plus its transactions.
func (s *Server) handleGetBatch(w http.ResponseWriter, r *http.Request) {
	batch, err := s.store.Batch(r.PathValue("id"))
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			writeError(w, http.StatusNotFound, err.Error())
			return
		}
		writeError(w, http.StatusInternalServerError, "Internal server error")
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"summary":      batch.Summary(),
		"transactions": batch.Transactions,
	})
}
