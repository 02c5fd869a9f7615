// Copyright RedactQC Authors. All Rights Reserved.
// SPDX-License-Identifier: Apache-2.0

package web

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"path/filepath"
	"strconv"

	validation "github.com/go-ozzo/ozzo-validation/v4"

	"redact-qc/internal/batch"
	"redact-qc/internal/reports"
	"redact-qc/internal/store"
)

// scanRequest starts a batch scan over a folder. Threshold and worker count
// fall back to the server defaults when omitted.
type scanRequest struct {
	SourcePath          string  `json:"source_path"`
	Name                string  `json:"name"`
	ConfidenceThreshold float64 `json:"confidence_threshold"`
	WorkerCount         int     `json:"worker_count"`
}

func (r scanRequest) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.SourcePath, validation.Required),
		validation.Field(&r.ConfidenceThreshold, validation.Min(0.0), validation.Max(1.0)),
		validation.Field(&r.WorkerCount, validation.Min(0)),
	)
}

type reportRequest struct {
	BatchID string `json:"batch_id"`
	Format  string `json:"format"`
}

func (r reportRequest) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.BatchID, validation.Required),
		validation.Field(&r.Format, validation.Required,
			validation.In(string(reports.FormatPDF), string(reports.FormatCSV))),
	)
}

func (s *Server) handleScan(w http.ResponseWriter, r *http.Request) {
	var req scanRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.badRequest(w, "invalid JSON body")
		return
	}
	if err := req.Validate(); err != nil {
		s.badRequest(w, err.Error())
		return
	}

	id, err := s.scans.StartScanWith(req.Name, req.SourcePath, batch.ScanOverrides{
		Workers:   req.WorkerCount,
		Threshold: req.ConfidenceThreshold,
	})
	if err != nil {
		s.writeError(w, err)
		return
	}
	b, err := s.queries.GetBatch(id)
	if err != nil {
		s.writeError(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, b)
}

func (s *Server) handleListBatches(w http.ResponseWriter, r *http.Request) {
	batches, err := s.queries.ListBatches()
	if err != nil {
		s.writeError(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, batches)
}

func (s *Server) handleGetBatch(w http.ResponseWriter, r *http.Request) {
	b, err := s.queries.GetBatch(r.PathValue("id"))
	if err != nil {
		s.writeError(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, b)
}

func (s *Server) handleDeleteBatch(w http.ResponseWriter, r *http.Request) {
	if err := s.scans.DeleteBatch(r.PathValue("id")); err != nil {
		s.writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleListDocuments(w http.ResponseWriter, r *http.Request) {
	filter, pg, err := documentListParams(r)
	if err != nil {
		s.badRequest(w, err.Error())
		return
	}
	page, err := s.queries.ListDocuments(r.PathValue("id"), filter, pg)
	if err != nil {
		s.writeError(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, page)
}

func (s *Server) handleBatchPIITypes(w http.ResponseWriter, r *http.Request) {
	dist, err := s.queries.BatchDistribution(r.PathValue("id"))
	if err != nil {
		s.writeError(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, dist)
}

func (s *Server) handleGetDocument(w http.ResponseWriter, r *http.Request) {
	doc, err := s.queries.GetDocument(r.PathValue("id"))
	if err != nil {
		s.writeError(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, doc)
}

func (s *Server) handleListFindings(w http.ResponseWriter, r *http.Request) {
	filter, pg, err := findingListParams(r)
	if err != nil {
		s.badRequest(w, err.Error())
		return
	}
	page, err := s.queries.ListFindings(r.PathValue("id"), filter, pg)
	if err != nil {
		s.writeError(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, page)
}

func (s *Server) handleStats(w http.ResponseWriter, r *http.Request) {
	stats, err := s.queries.Stats()
	if err != nil {
		s.writeError(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, stats)
}

func (s *Server) handlePIITypes(w http.ResponseWriter, r *http.Request) {
	dist, err := s.queries.Distribution()
	if err != nil {
		s.writeError(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, dist)
}

func (s *Server) handleGenerateReport(w http.ResponseWriter, r *http.Request) {
	var req reportRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.badRequest(w, "invalid JSON body")
		return
	}
	if err := req.Validate(); err != nil {
		s.badRequest(w, err.Error())
		return
	}

	rec, err := s.reports.Generate(req.BatchID, reports.Format(req.Format))
	if err != nil {
		s.writeError(w, err)
		return
	}
	s.writeJSON(w, http.StatusAccepted, rec)
}

func (s *Server) handleGetReport(w http.ResponseWriter, r *http.Request) {
	rec, err := s.reports.Get(r.PathValue("id"))
	if err != nil {
		s.writeError(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, rec)
}

func (s *Server) handleDownloadReport(w http.ResponseWriter, r *http.Request) {
	rec, err := s.reports.Get(r.PathValue("id"))
	if err != nil {
		s.writeError(w, err)
		return
	}
	switch rec.Status {
	case reports.StatusGenerating:
		s.writeErrorBody(w, http.StatusConflict, "conflict", "report is still generating")
		return
	case reports.StatusFailed:
		s.writeErrorBody(w, http.StatusInternalServerError, "report_failed", rec.Error)
		return
	}

	contentType := "text/csv"
	if rec.Format == reports.FormatPDF {
		contentType = "application/pdf"
	}
	w.Header().Set("Content-Type", contentType)
	w.Header().Set("Content-Disposition",
		fmt.Sprintf("attachment; filename=%q", filepath.Base(rec.FilePath)))
	http.ServeFile(w, r, rec.FilePath)
}

// documentListParams parses pagination and filters for a document listing.
func documentListParams(r *http.Request) (store.DocumentFilter, store.Pagination, error) {
	var filter store.DocumentFilter
	q := r.URL.Query()

	filter.Status = q.Get("status")
	filter.PIIType = q.Get("pii_type")
	filter.SortBy = q.Get("sort_by")
	filter.SortOrder = q.Get("sort_order")

	if v := q.Get("min_confidence"); v != "" {
		f, err := strconv.ParseFloat(v, 64)
		if err != nil {
			return filter, store.Pagination{}, fmt.Errorf("bad min_confidence %q", v)
		}
		filter.MinConfidence = &f
	}
	if v := q.Get("has_findings"); v != "" {
		b, err := strconv.ParseBool(v)
		if err != nil {
			return filter, store.Pagination{}, fmt.Errorf("bad has_findings %q", v)
		}
		filter.HasFindings = &b
	}

	pg, err := paginationParams(r)
	return filter, pg, err
}

// findingListParams parses pagination and filters for a finding listing.
func findingListParams(r *http.Request) (store.FindingFilter, store.Pagination, error) {
	var filter store.FindingFilter
	q := r.URL.Query()

	filter.PIIType = q.Get("pii_type")
	if v := q.Get("min_confidence"); v != "" {
		f, err := strconv.ParseFloat(v, 64)
		if err != nil {
			return filter, store.Pagination{}, fmt.Errorf("bad min_confidence %q", v)
		}
		filter.MinConfidence = &f
	}

	pg, err := paginationParams(r)
	return filter, pg, err
}

func paginationParams(r *http.Request) (store.Pagination, error) {
	var pg store.Pagination
	q := r.URL.Query()
	if v := q.Get("page"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 1 {
			return pg, fmt.Errorf("bad page %q", v)
		}
		pg.Page = n
	}
	if v := q.Get("page_size"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 1 {
			return pg, fmt.Errorf("bad page_size %q", v)
		}
		pg.PageSize = n
	}
	return pg, nil
}

// errorBody is the uniform error envelope.
type errorBody struct {
	Error   string `json:"error"`
	Message string `json:"message"`
}

func (s *Server) writeJSON(w http.ResponseWriter, status int, payload interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		s.log.Error("encoding response failed", "error", err)
	}
}

func (s *Server) badRequest(w http.ResponseWriter, message string) {
	s.writeErrorBody(w, http.StatusBadRequest, "bad_request", message)
}

// writeError maps domain errors onto the HTTP error taxonomy.
func (s *Server) writeError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, batch.ErrInvalidPath):
		s.writeErrorBody(w, http.StatusBadRequest, "invalid_path", err.Error())
	case errors.Is(err, reports.ErrInvalidFormat):
		s.writeErrorBody(w, http.StatusBadRequest, "bad_request", err.Error())
	case errors.Is(err, store.ErrNotFound), errors.Is(err, reports.ErrNotFound):
		s.writeErrorBody(w, http.StatusNotFound, "not_found", err.Error())
	case errors.Is(err, store.ErrBusy):
		s.writeErrorBody(w, http.StatusConflict, "busy", err.Error())
	case errors.Is(err, batch.ErrAlreadyRunning),
		errors.Is(err, batch.ErrNotRunning),
		errors.Is(err, store.ErrConflict):
		s.writeErrorBody(w, http.StatusConflict, "conflict", err.Error())
	default:
		s.log.Error("request failed", "error", err)
		s.writeErrorBody(w, http.StatusInternalServerError, "internal_error", "internal error")
	}
}

func (s *Server) writeErrorBody(w http.ResponseWriter, status int, code, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(errorBody{Error: code, Message: message})
}
