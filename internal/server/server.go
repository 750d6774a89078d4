// Package server exposes the import pipeline and the transaction store
// over a JSON HTTP API.
package server

import (
	"errors"
	"net/http"

	"github.com/rs/zerolog"

	"github.com/muzzy-dev/muzzy/internal/importer"
	"github.com/muzzy-dev/muzzy/internal/normalize"
	"github.com/muzzy-dev/muzzy/internal/store"
	"github.com/muzzy-dev/muzzy/internal/tabular"
)

// defaultMaxUploadBytes bounds multipart uploads when the config does
// not say otherwise.
const defaultMaxUploadBytes = 10 << 20

// Server wires handlers, middleware, and routes.
type Server struct {
	importer       *importer.Service
	store          *store.Store
	maxUploadBytes int64
	log            zerolog.Logger
}

// New creates a Server. maxUploadBytes <= 0 selects the default limit.
func New(imp *importer.Service, st *store.Store, maxUploadBytes int64, log zerolog.Logger) *Server {
	if maxUploadBytes <= 0 {
		maxUploadBytes = defaultMaxUploadBytes
	}
	return &Server{importer: imp, store: st, maxUploadBytes: maxUploadBytes, log: log}
}

// Handler returns the routed handler with middleware applied.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("POST /api/import/upload", s.handleUpload)
	mux.HandleFunc("POST /api/import/map", s.handleMap)
	mux.HandleFunc("POST /api/import/preview", s.handlePreview)
	mux.HandleFunc("POST /api/import/process", s.handleProcess)

	mux.HandleFunc("GET /api/transactions", s.handleListTransactions)
	mux.HandleFunc("GET /api/transactions/{id}", s.handleGetTransaction)
	mux.HandleFunc("GET /api/batches", s.handleListBatches)
	mux.HandleFunc("GET /api/batches/{id}", s.handleGetBatch)

	mux.HandleFunc("GET /healthz", func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})

	var h http.Handler = mux
	h = recovery(s.log)(h)
	h = requestLogger(s.log)(h)
	h = requestID(h)
	return h
}

// writePipelineError maps pipeline failures onto HTTP statuses:
// client-caused problems are 4xx, everything else 5xx. No error
// propagates past this boundary.
func (s *Server) writePipelineError(w http.ResponseWriter, err error) {
	var dateErr *normalize.DateConversionError
	var amountErr *normalize.AmountParseError

	switch {
	case errors.Is(err, importer.ErrSessionNotFound):
		writeError(w, http.StatusNotFound, err.Error())
	case errors.Is(err, importer.ErrEmptyFilename),
		errors.Is(err, importer.ErrNotCSV),
		errors.Is(err, importer.ErrEmptyMapping),
		errors.Is(err, tabular.ErrMalformedInput),
		errors.As(err, &dateErr),
		errors.As(err, &amountErr):
		writeError(w, http.StatusBadRequest, err.Error())
	default:
		s.log.Error().Err(err).Msg("import pipeline failure")
		writeError(w, http.StatusInternalServerError, "Internal server error")
	}
}
