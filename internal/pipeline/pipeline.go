// Copyright RedactQC Authors. All Rights Reserved.
// SPDX-License-Identifier: Apache-2.0

// Package pipeline runs the per-document scan: extraction, then detection,
// page by page. It never touches the store; callers persist the Result.
package pipeline

import (
	"context"
	"errors"

	"github.com/hashicorp/go-hclog"
	"github.com/pdfcpu/pdfcpu/pkg/api"

	"redact-qc/internal/detector"
	"redact-qc/internal/extract"
)

// Status is the outcome of processing one document.
type Status string

const (
	StatusOk            Status = "ok"
	StatusCancelled     Status = "cancelled"
	StatusExtractFail   Status = "extract_fail"
	StatusInternalError Status = "internal_error"
)

// Result is the outcome of one document scan. Findings carry bounded
// snippets only; no full page text leaves the pipeline.
type Result struct {
	DocID     string
	Status    Status
	PageCount int
	Findings  []detector.Finding
}

// Processor scans documents with its own extractor and detector. One
// instance per worker; not safe for concurrent use.
type Processor struct {
	extractor extract.Extractor
	detector  *detector.Detector
	log       hclog.Logger
}

// New builds a processor around a worker's engines.
func New(extractor extract.Extractor, det *detector.Detector, log hclog.Logger) *Processor {
	if log == nil {
		log = hclog.NewNullLogger()
	}
	return &Processor{
		extractor: extractor,
		detector:  det,
		log:       log.Named("pipeline"),
	}
}

// ProcessDocument scans one PDF. Cancellation is checked between pages,
// so it converges within one page of a cancel signal. A panic anywhere in
// extraction or detection becomes StatusInternalError.
func (p *Processor) ProcessDocument(ctx context.Context, docID, path string) (result Result) {
	result = Result{DocID: docID}
	defer func() {
		if v := recover(); v != nil {
			p.log.Error("document processing panicked", "doc_id", docID, "panic", v)
			result = Result{DocID: docID, Status: StatusInternalError}
		}
	}()

	doc, err := p.extractor.Open(path)
	if err != nil {
		if errors.Is(err, extract.ErrUnopenable) {
			p.log.Warn("unopenable document", "doc_id", docID, "error", err)
			result.Status = StatusExtractFail
			result.PageCount = pageCountFallback(path)
			return result
		}
		p.log.Error("extractor failure", "doc_id", docID, "error", err)
		result.Status = StatusInternalError
		return result
	}
	defer func() { _ = doc.Close() }()

	result.PageCount = doc.PageCount()
	for n := 1; n <= result.PageCount; n++ {
		if ctx.Err() != nil {
			result.Status = StatusCancelled
			return result
		}
		page, err := doc.Page(ctx, n)
		if err != nil {
			if ctx.Err() != nil {
				result.Status = StatusCancelled
				return result
			}
			p.log.Error("page extraction failure", "doc_id", docID, "page", n, "error", err)
			result.Status = StatusInternalError
			return result
		}
		result.Findings = append(result.Findings, p.detector.DetectPage(page.Text, n)...)
	}

	result.Status = StatusOk
	return result
}

// pageCountFallback asks the PDF toolkit for a page count when extraction
// never got far enough to report one.
func pageCountFallback(path string) int {
	count, err := api.PageCountFile(path)
	if err != nil {
		return 0
	}
	return count
}
