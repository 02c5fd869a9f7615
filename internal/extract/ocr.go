// Copyright RedactQC Authors. All Rights Reserved.
// SPDX-License-Identifier: Apache-2.0

package extract

import (
	"context"
	"fmt"
	"image"
	"image/png"
	"os"
	"time"

	"github.com/hashicorp/go-hclog"
	"github.com/otiai10/gosseract/v2"

	"redact-qc/internal/security"
)

// ocrEngine wraps a tesseract client. The rasterized page is staged as a
// temp file for the engine and securely deleted afterwards so page images
// never linger on disk.
type ocrEngine struct {
	client  *gosseract.Client
	tempDir string
	timeout time.Duration
	log     hclog.Logger
}

func newOCREngine(opts Options, log hclog.Logger) (*ocrEngine, error) {
	client := gosseract.NewClient()
	if err := client.SetLanguage(opts.Language); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("configuring ocr language %q: %w", opts.Language, err)
	}
	return &ocrEngine{
		client:  client,
		tempDir: opts.TempDir,
		timeout: opts.OCRTimeout,
		log:     log.Named("ocr"),
	}, nil
}

func (e *ocrEngine) Close() error {
	return e.client.Close()
}

type ocrResult struct {
	text string
	conf float64
	err  error
}

// Recognize runs OCR over one page image under the per-page budget. On
// overrun the page is given up, not the document; the engine call is left
// to finish in the background.
func (e *ocrEngine) Recognize(ctx context.Context, img image.Image) (string, float64, error) {
	tmp, err := os.CreateTemp(e.tempDir, "redactqc-page-*.png")
	if err != nil {
		return "", 0, fmt.Errorf("staging page image: %w", err)
	}
	path := tmp.Name()
	if err := png.Encode(tmp, img); err != nil {
		_ = tmp.Close()
		_ = security.SecureDelete(path)
		return "", 0, fmt.Errorf("encoding page image: %w", err)
	}
	if err := tmp.Close(); err != nil {
		_ = security.SecureDelete(path)
		return "", 0, err
	}

	ctx, cancel := context.WithTimeout(ctx, e.timeout)
	defer cancel()

	done := make(chan ocrResult, 1)
	go func() {
		defer func() { _ = security.SecureDelete(path) }()
		done <- e.recognizeFile(path)
	}()

	select {
	case res := <-done:
		return res.text, res.conf, res.err
	case <-ctx.Done():
		e.log.Warn("ocr budget exceeded, abandoning page")
		return "", 0, ctx.Err()
	}
}

func (e *ocrEngine) recognizeFile(path string) ocrResult {
	if err := e.client.SetImage(path); err != nil {
		return ocrResult{err: fmt.Errorf("loading page image: %w", err)}
	}
	text, err := e.client.Text()
	if err != nil {
		return ocrResult{err: fmt.Errorf("recognizing page: %w", err)}
	}
	return ocrResult{text: text, conf: e.meanWordConfidence()}
}

// meanWordConfidence averages the per-word confidences, scaled to [0,1].
// A page with no recognized words scores 0.
func (e *ocrEngine) meanWordConfidence() float64 {
	boxes, err := e.client.GetBoundingBoxes(gosseract.RIL_WORD)
	if err != nil || len(boxes) == 0 {
		return 0
	}
	var total float64
	for _, b := range boxes {
		total += b.Confidence
	}
	return total / float64(len(boxes)) / 100.0
}
