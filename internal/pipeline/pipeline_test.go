// Copyright RedactQC Authors. All Rights Reserved.
// SPDX-License-Identifier: Apache-2.0

package pipeline

import (
	"context"
	"testing"

	"github.com/hashicorp/go-hclog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"redact-qc/internal/detector"
	"redact-qc/internal/extract"
	"redact-qc/internal/pii"
)

// fakeExtractor serves canned page text keyed by path.
type fakeExtractor struct {
	pages   map[string][]string
	openErr error
	closed  bool
}

func (f *fakeExtractor) Open(path string) (extract.Document, error) {
	if f.openErr != nil {
		return nil, f.openErr
	}
	return &fakeDocument{extractor: f, pages: f.pages[path]}, nil
}

func (f *fakeExtractor) Close() error { return nil }

type fakeDocument struct {
	extractor *fakeExtractor
	pages     []string
}

func (d *fakeDocument) PageCount() int { return len(d.pages) }

func (d *fakeDocument) Page(ctx context.Context, n int) (extract.PageText, error) {
	if err := ctx.Err(); err != nil {
		return extract.PageText{}, err
	}
	return extract.PageText{
		PageNumber: n,
		Text:       d.pages[n-1],
		Method:     extract.MethodNative,
		Confidence: 1.0,
	}, nil
}

func (d *fakeDocument) Close() error {
	d.extractor.closed = true
	return nil
}

func newProcessor(ex extract.Extractor) *Processor {
	return New(ex, detector.New(0.4, hclog.NewNullLogger()), hclog.NewNullLogger())
}

func TestProcessDocumentFindsPIIAcrossPages(t *testing.T) {
	ex := &fakeExtractor{pages: map[string][]string{
		"/case/a.pdf": {
			"First page mentions ssn 532-24-7741 in passing.",
			"Second page is clean boilerplate.",
			"Third page lists email jane@example.org for contact.",
		},
	}}
	p := newProcessor(ex)

	res := p.ProcessDocument(context.Background(), "doc1", "/case/a.pdf")

	assert.Equal(t, StatusOk, res.Status)
	assert.Equal(t, 3, res.PageCount)
	assert.True(t, ex.closed, "document handle must be released")

	require.Len(t, res.Findings, 2)
	assert.Equal(t, pii.TypeUSSSN, res.Findings[0].PIIType)
	assert.Equal(t, 1, res.Findings[0].PageNumber)
	assert.Equal(t, pii.TypeEmailAddress, res.Findings[1].PIIType)
	assert.Equal(t, 3, res.Findings[1].PageNumber)
}

func TestProcessDocumentCleanDocument(t *testing.T) {
	ex := &fakeExtractor{pages: map[string][]string{
		"/case/clean.pdf": {"nothing sensitive here", "still nothing"},
	}}
	res := newProcessor(ex).ProcessDocument(context.Background(), "doc1", "/case/clean.pdf")

	assert.Equal(t, StatusOk, res.Status)
	assert.Equal(t, 2, res.PageCount)
	assert.Empty(t, res.Findings)
}

func TestProcessDocumentZeroPages(t *testing.T) {
	ex := &fakeExtractor{pages: map[string][]string{"/case/empty.pdf": {}}}
	res := newProcessor(ex).ProcessDocument(context.Background(), "doc1", "/case/empty.pdf")

	assert.Equal(t, StatusOk, res.Status)
	assert.Zero(t, res.PageCount)
	assert.Empty(t, res.Findings)
}

func TestProcessDocumentUnopenable(t *testing.T) {
	ex := &fakeExtractor{openErr: extract.ErrUnopenable}
	res := newProcessor(ex).ProcessDocument(context.Background(), "doc1", "/case/corrupt.pdf")

	assert.Equal(t, StatusExtractFail, res.Status)
	assert.Empty(t, res.Findings)
}

func TestProcessDocumentCancelledBeforeStart(t *testing.T) {
	ex := &fakeExtractor{pages: map[string][]string{
		"/case/a.pdf": {"page one", "page two"},
	}}
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	res := newProcessor(ex).ProcessDocument(ctx, "doc1", "/case/a.pdf")
	assert.Equal(t, StatusCancelled, res.Status)
}

type panickyExtractor struct{}

func (panickyExtractor) Open(string) (extract.Document, error) { panic("extractor bug") }
func (panickyExtractor) Close() error                          { return nil }

func TestProcessDocumentPanicBecomesInternalError(t *testing.T) {
	res := newProcessor(panickyExtractor{}).ProcessDocument(context.Background(), "doc1", "/case/a.pdf")
	assert.Equal(t, StatusInternalError, res.Status)
	assert.Equal(t, "doc1", res.DocID)
}

func TestProcessDocumentNeverLeaksPageText(t *testing.T) {
	page := "confidential narrative text with ssn 532-24-7741 inside a long paragraph that must never be stored whole"
	ex := &fakeExtractor{pages: map[string][]string{"/case/a.pdf": {page}}}

	res := newProcessor(ex).ProcessDocument(context.Background(), "doc1", "/case/a.pdf")
	require.Equal(t, StatusOk, res.Status)

	for _, f := range res.Findings {
		assert.LessOrEqual(t, len(f.ContextSnippet), 256)
		assert.Less(t, len(f.ContextSnippet), len(page))
	}
}
