// Copyright RedactQC Authors. All Rights Reserved.
// SPDX-License-Identifier: Apache-2.0

// Package extract pulls per-page text out of PDFs: the native text layer
// when the page carries one, OCR over a rasterized page otherwise.
package extract

import (
	"context"
	"errors"
)

// Extraction methods recorded on a page.
const (
	MethodNative = "native"
	MethodOCR    = "ocr"
)

// Extraction tuning defaults.
const (
	// NativeMinChars is the stripped-length threshold above which the
	// native text layer is trusted and OCR is skipped.
	NativeMinChars = 50
	// OCRDPI is the rasterization resolution for OCR.
	OCRDPI = 300
	// SparseNativeConfidence is assigned when OCR fails and the sparse
	// native text is used instead.
	SparseNativeConfidence = 0.5
)

// ErrUnopenable marks a PDF that cannot be opened or parsed at all.
var ErrUnopenable = errors.New("unopenable document")

// PageText is the extraction result for one page. Pages are 1-based.
type PageText struct {
	PageNumber int
	Text       string
	Method     string
	Confidence float64
}

// Document is an open PDF handle. Close releases all renderer and OCR
// resources; it must be called on every path.
type Document interface {
	PageCount() int
	// Page extracts one 1-based page. It honors ctx cancellation and
	// the per-page OCR budget; a page that yields nothing returns
	// ("", native, 0.0) rather than an error.
	Page(ctx context.Context, n int) (PageText, error)
	Close() error
}

// Extractor opens documents for extraction. Implementations own engine
// state (OCR clients) and are not safe for concurrent use; each worker
// builds its own.
type Extractor interface {
	Open(path string) (Document, error)
	Close() error
}
