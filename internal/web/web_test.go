// Copyright RedactQC Authors. All Rights Reserved.
// SPDX-License-Identifier: Apache-2.0

package web

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/hashicorp/go-hclog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"redact-qc/internal/batch"
	"redact-qc/internal/detector"
	"redact-qc/internal/parallel"
	"redact-qc/internal/pii"
	"redact-qc/internal/pipeline"
	"redact-qc/internal/query"
	"redact-qc/internal/reports"
	"redact-qc/internal/store"
)

type stubScanner struct{}

func (s *stubScanner) ProcessDocument(ctx context.Context, docID, path string) pipeline.Result {
	res := pipeline.Result{DocID: docID, Status: pipeline.StatusOk, PageCount: 2}
	if strings.Contains(path, "dirty") {
		res.Findings = []detector.Finding{{
			PIIType:        pii.TypeUSSSN,
			Confidence:     0.85,
			PageNumber:     1,
			CharOffset:     4,
			CharLength:     11,
			ContextSnippet: "SSN 532-24-7741",
		}}
	}
	return res
}

func (s *stubScanner) Close() error { return nil }

type testEnv struct {
	server  *httptest.Server
	manager *batch.Manager
	store   *store.Store
	reports *reports.Generator
	dir     string
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	st, err := store.Open(":memory:", hclog.NewNullLogger())
	require.NoError(t, err)
	t.Cleanup(func() { _ = st.Close() })

	m := batch.New(st, batch.Options{
		Workers: 2,
		Factory: func() (parallel.Processor, error) { return &stubScanner{}, nil },
	}, hclog.NewNullLogger())
	q := query.New(st)
	rg := reports.New(st, t.TempDir(), hclog.NewNullLogger())

	srv := New(0, m, q, rg, hclog.NewNullLogger())
	ts := httptest.NewServer(srv.Handler())
	t.Cleanup(ts.Close)

	dir := t.TempDir()
	for _, name := range []string{"clean.pdf", "dirty.pdf"} {
		require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte("%PDF-1.4"), 0o600))
	}
	return &testEnv{server: ts, manager: m, store: st, reports: rg, dir: dir}
}

func (e *testEnv) post(t *testing.T, path string, body interface{}) *http.Response {
	t.Helper()
	data, err := json.Marshal(body)
	require.NoError(t, err)
	resp, err := http.Post(e.server.URL+path, "application/json", bytes.NewReader(data))
	require.NoError(t, err)
	return resp
}

func (e *testEnv) get(t *testing.T, path string) *http.Response {
	t.Helper()
	resp, err := http.Get(e.server.URL + path)
	require.NoError(t, err)
	return resp
}

func decodeJSON(t *testing.T, resp *http.Response, dst interface{}) {
	t.Helper()
	defer resp.Body.Close()
	require.NoError(t, json.NewDecoder(resp.Body).Decode(dst))
}

// scanAndWait starts a scan over the test folder and blocks until it drains.
func scanAndWait(t *testing.T, e *testEnv) store.Batch {
	t.Helper()
	resp := e.post(t, "/api/scan", map[string]interface{}{"source_path": e.dir, "name": "case"})
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var b store.Batch
	decodeJSON(t, resp, &b)
	require.NotEmpty(t, b.ID)
	e.manager.Wait(b.ID)
	return b
}

func TestScanLifecycle(t *testing.T) {
	e := newTestEnv(t)
	b := scanAndWait(t, e)

	resp := e.get(t, "/api/batches/"+b.ID)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var got store.Batch
	decodeJSON(t, resp, &got)
	assert.Equal(t, store.BatchCompleted, got.Status)
	assert.Equal(t, 2, got.TotalDocs)
	assert.Equal(t, 2, got.ProcessedDocs)
	assert.Equal(t, 1, got.DocsWithFindings)

	resp = e.get(t, "/api/batches")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var batches []store.Batch
	decodeJSON(t, resp, &batches)
	assert.Len(t, batches, 1)
}

func TestScanRejectsBadRequests(t *testing.T) {
	e := newTestEnv(t)

	resp := e.post(t, "/api/scan", map[string]interface{}{"name": "x"})
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	var body errorBody
	decodeJSON(t, resp, &body)
	assert.Equal(t, "bad_request", body.Error)

	resp = e.post(t, "/api/scan", map[string]interface{}{
		"source_path": filepath.Join(e.dir, "missing"),
	})
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	decodeJSON(t, resp, &body)
	assert.Equal(t, "invalid_path", body.Error)

	resp = e.post(t, "/api/scan", map[string]interface{}{
		"source_path": e.dir, "confidence_threshold": 1.5,
	})
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	resp.Body.Close()
}

func TestDocumentAndFindingListing(t *testing.T) {
	e := newTestEnv(t)
	b := scanAndWait(t, e)

	resp := e.get(t, "/api/batches/"+b.ID+"/documents?has_findings=true")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var docs store.DocumentPage
	decodeJSON(t, resp, &docs)
	require.Len(t, docs.Items, 1)
	assert.Equal(t, "dirty.pdf", docs.Items[0].Filename)
	assert.EqualValues(t, 1, docs.Total)

	docID := docs.Items[0].ID
	resp = e.get(t, "/api/documents/"+docID+"/findings")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var findings store.FindingPage
	decodeJSON(t, resp, &findings)
	require.Len(t, findings.Items, 1)
	assert.Equal(t, pii.TypeUSSSN, findings.Items[0].PIIType)

	resp = e.get(t, "/api/documents/"+docID)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var doc store.Document
	decodeJSON(t, resp, &doc)
	assert.Equal(t, 1, doc.FindingCount)
}

func TestBadFilterValues(t *testing.T) {
	e := newTestEnv(t)
	b := scanAndWait(t, e)

	for _, path := range []string{
		"/api/batches/" + b.ID + "/documents?min_confidence=high",
		"/api/batches/" + b.ID + "/documents?has_findings=maybe",
		"/api/batches/" + b.ID + "/documents?page=0",
		"/api/batches/" + b.ID + "/documents?page_size=-1",
	} {
		resp := e.get(t, path)
		assert.Equal(t, http.StatusBadRequest, resp.StatusCode, path)
		resp.Body.Close()
	}
}

func TestNotFoundMapping(t *testing.T) {
	e := newTestEnv(t)
	unknown := strings.Repeat("f", 32)

	for _, path := range []string{
		"/api/batches/" + unknown,
		"/api/documents/" + unknown,
		"/api/batches/" + unknown + "/documents",
		"/api/batches/" + unknown + "/pii-types",
		"/api/reports/" + unknown,
	} {
		resp := e.get(t, path)
		assert.Equal(t, http.StatusNotFound, resp.StatusCode, path)
		var body errorBody
		decodeJSON(t, resp, &body)
		assert.Equal(t, "not_found", body.Error, path)
	}
}

func TestStatsAndDistribution(t *testing.T) {
	e := newTestEnv(t)
	b := scanAndWait(t, e)

	resp := e.get(t, "/api/stats")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var stats store.Stats
	decodeJSON(t, resp, &stats)
	assert.EqualValues(t, 1, stats.TotalBatches)
	assert.EqualValues(t, 2, stats.TotalDocuments)
	assert.EqualValues(t, 1, stats.TotalFindings)

	resp = e.get(t, "/api/pii-types")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var dist []store.PIITypeStat
	decodeJSON(t, resp, &dist)
	require.Len(t, dist, 1)
	assert.Equal(t, pii.TypeUSSSN, dist[0].PIIType)

	resp = e.get(t, "/api/batches/"+b.ID+"/pii-types")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	decodeJSON(t, resp, &dist)
	assert.Len(t, dist, 1)
}

func TestDeleteBatch(t *testing.T) {
	e := newTestEnv(t)
	b := scanAndWait(t, e)

	req, err := http.NewRequest(http.MethodDelete, e.server.URL+"/api/batches/"+b.ID, nil)
	require.NoError(t, err)
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusNoContent, resp.StatusCode)

	resp = e.get(t, "/api/batches/"+b.ID)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
	resp.Body.Close()
}

func TestReportFlow(t *testing.T) {
	e := newTestEnv(t)
	b := scanAndWait(t, e)

	resp := e.post(t, "/api/reports/generate", map[string]interface{}{
		"batch_id": b.ID, "format": "csv",
	})
	require.Equal(t, http.StatusAccepted, resp.StatusCode)
	var rec reports.Report
	decodeJSON(t, resp, &rec)
	require.NotEmpty(t, rec.ID)

	// Generation is asynchronous; wait before downloading.
	_, err := e.reports.Await(rec.ID)
	require.NoError(t, err)

	resp = e.get(t, "/api/reports/"+rec.ID)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	decodeJSON(t, resp, &rec)
	assert.Equal(t, reports.StatusCompleted, rec.Status)

	resp = e.get(t, "/api/reports/"+rec.ID+"/download")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "text/csv", resp.Header.Get("Content-Type"))
	assert.Contains(t, resp.Header.Get("Content-Disposition"), ".csv")
	resp.Body.Close()

	resp = e.post(t, "/api/reports/generate", map[string]interface{}{
		"batch_id": b.ID, "format": "xlsx",
	})
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	resp.Body.Close()
}

func TestMethodNotAllowed(t *testing.T) {
	e := newTestEnv(t)

	resp, err := http.Post(e.server.URL+"/api/batches", "application/json", bytes.NewReader(nil))
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusMethodNotAllowed, resp.StatusCode)

	resp = e.get(t, "/api/nope")
	resp.Body.Close()
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestSnippetNeverExceedsCap(t *testing.T) {
	e := newTestEnv(t)
	b := scanAndWait(t, e)

	resp := e.get(t, fmt.Sprintf("/api/batches/%s/documents?has_findings=true", b.ID))
	var docs store.DocumentPage
	decodeJSON(t, resp, &docs)
	require.NotEmpty(t, docs.Items)

	resp = e.get(t, "/api/documents/"+docs.Items[0].ID+"/findings")
	var findings store.FindingPage
	decodeJSON(t, resp, &findings)
	for _, f := range findings.Items {
		assert.LessOrEqual(t, len(f.ContextSnippet), 256)
		assert.Greater(t, f.CharLength, 0)
	}
}
