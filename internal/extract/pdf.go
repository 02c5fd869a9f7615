// Copyright RedactQC Authors. All Rights Reserved.
// SPDX-License-Identifier: Apache-2.0

package extract

import (
	"bytes"
	"context"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/gen2brain/go-fitz"
	"github.com/hashicorp/go-hclog"
	"github.com/ledongthuc/pdf"
)

// Options tunes a PDFExtractor. Zero values take the package defaults.
type Options struct {
	NativeMinChars int
	DPI            int
	OCRTimeout     time.Duration
	TempDir        string // "" means the OS temp dir
	Language       string // tesseract language, default "eng"
}

func (o Options) withDefaults() Options {
	if o.NativeMinChars <= 0 {
		o.NativeMinChars = NativeMinChars
	}
	if o.DPI <= 0 {
		o.DPI = OCRDPI
	}
	if o.OCRTimeout <= 0 {
		o.OCRTimeout = 60 * time.Second
	}
	if o.Language == "" {
		o.Language = "eng"
	}
	return o
}

// PDFExtractor extracts page text from PDFs. One instance per worker; the
// OCR client is created lazily and reused across documents.
type PDFExtractor struct {
	opts Options
	ocr  *ocrEngine
	log  hclog.Logger
}

// NewPDF returns a PDF extractor.
func NewPDF(opts Options, log hclog.Logger) *PDFExtractor {
	if log == nil {
		log = hclog.NewNullLogger()
	}
	return &PDFExtractor{
		opts: opts.withDefaults(),
		log:  log.Named("extract"),
	}
}

// Open opens a PDF for page extraction.
func (e *PDFExtractor) Open(path string) (Document, error) {
	f, reader, err := pdf.Open(path)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnopenable, err)
	}
	return &pdfDocument{
		path:      path,
		file:      f,
		reader:    reader,
		extractor: e,
	}, nil
}

// Close releases the OCR client.
func (e *PDFExtractor) Close() error {
	if e.ocr != nil {
		return e.ocr.Close()
	}
	return nil
}

func (e *PDFExtractor) engine() (*ocrEngine, error) {
	if e.ocr == nil {
		eng, err := newOCREngine(e.opts, e.log)
		if err != nil {
			return nil, err
		}
		e.ocr = eng
	}
	return e.ocr, nil
}

type pdfDocument struct {
	path      string
	file      interface{ Close() error }
	reader    *pdf.Reader
	extractor *PDFExtractor

	raster *fitz.Document // opened on first OCR need
}

func (d *pdfDocument) PageCount() int {
	return d.reader.NumPage()
}

func (d *pdfDocument) Close() error {
	var err error
	if d.raster != nil {
		err = d.raster.Close()
		d.raster = nil
	}
	if cerr := d.file.Close(); err == nil {
		err = cerr
	}
	return err
}

// Page extracts one page: the native text layer when it is substantial,
// OCR otherwise, sparse native text as the last resort.
func (d *pdfDocument) Page(ctx context.Context, n int) (PageText, error) {
	if err := ctx.Err(); err != nil {
		return PageText{}, err
	}

	native := d.nativeText(n)
	trimmed := strings.TrimSpace(native)
	if len(trimmed) >= d.extractor.opts.NativeMinChars {
		return PageText{PageNumber: n, Text: native, Method: MethodNative, Confidence: 1.0}, nil
	}

	text, conf, err := d.ocrPage(ctx, n)
	if err == nil && strings.TrimSpace(text) != "" {
		return PageText{PageNumber: n, Text: text, Method: MethodOCR, Confidence: conf}, nil
	}
	if err != nil && ctx.Err() != nil {
		return PageText{}, ctx.Err()
	}
	if err != nil {
		d.extractor.log.Warn("ocr failed for page", "page", n, "error", err)
	}

	if trimmed != "" {
		// OCR came up empty but the page is not blank: surface the
		// sparse native text at reduced confidence.
		return PageText{PageNumber: n, Text: native, Method: MethodNative, Confidence: SparseNativeConfidence}, nil
	}
	return PageText{PageNumber: n, Text: "", Method: MethodNative, Confidence: 0.0}, nil
}

// nativeText reads the text layer of one page with row-based spacing
// reconstruction. The parser panics on some malformed content streams, so
// a recover guards the call and reports an empty layer instead.
func (d *pdfDocument) nativeText(n int) (text string) {
	defer func() {
		if recover() != nil {
			text = ""
		}
	}()

	p := d.reader.Page(n)
	if p.V.IsNull() {
		return ""
	}
	rows, err := p.GetTextByRow()
	if err != nil {
		if plain, perr := p.GetPlainText(nil); perr == nil {
			return plain
		}
		return ""
	}

	sorted := make([]*pdf.Row, 0, len(rows))
	for _, row := range rows {
		if row != nil && len(row.Content) > 0 {
			sorted = append(sorted, row)
		}
	}
	sort.Slice(sorted, func(i, j int) bool {
		return averageY(sorted[i].Content) < averageY(sorted[j].Content)
	})

	var buf bytes.Buffer
	for _, row := range sorted {
		line := reconstructRow(row.Content)
		if strings.TrimSpace(line) != "" {
			buf.WriteString(line)
			buf.WriteByte('\n')
		}
	}
	return buf.String()
}

func (d *pdfDocument) ocrPage(ctx context.Context, n int) (string, float64, error) {
	eng, err := d.extractor.engine()
	if err != nil {
		return "", 0, err
	}
	if d.raster == nil {
		doc, err := fitz.New(d.path)
		if err != nil {
			return "", 0, fmt.Errorf("opening renderer: %w", err)
		}
		d.raster = doc
	}

	img, err := d.raster.ImageDPI(n-1, float64(d.extractor.opts.DPI))
	if err != nil {
		return "", 0, fmt.Errorf("rasterizing page %d: %w", n, err)
	}
	return eng.Recognize(ctx, img)
}

func averageY(elements []pdf.Text) float64 {
	if len(elements) == 0 {
		return 0
	}
	var total float64
	for _, el := range elements {
		total += el.Y
	}
	return total / float64(len(elements))
}

// reconstructRow joins a row's text elements left to right, inserting a
// space wherever the horizontal gap exceeds 20% of the font size.
func reconstructRow(elements []pdf.Text) string {
	if len(elements) == 0 {
		return ""
	}
	sorted := make([]pdf.Text, len(elements))
	copy(sorted, elements)
	sort.Slice(sorted, func(i, j int) bool {
		return sorted[i].X < sorted[j].X
	})

	var buf bytes.Buffer
	for i, el := range sorted {
		buf.WriteString(el.S)
		if i == len(sorted)-1 {
			continue
		}
		gap := sorted[i+1].X - (el.X + el.W)
		fontSize := el.FontSize
		if fontSize <= 0 {
			fontSize = 12
		}
		if gap > fontSize*0.2 {
			buf.WriteByte(' ')
		}
	}
	return buf.String()
}
