// Copyright RedactQC Authors. All Rights Reserved.
// SPDX-License-Identifier: Apache-2.0

// Package batch owns the scan lifecycle: folder inventory, dispatch to the
// worker pool, result persistence, cancellation, and resume.
package batch

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/cenkalti/backoff/v4"
	"github.com/hashicorp/go-hclog"
	"github.com/hashicorp/go-multierror"

	"redact-qc/internal/detector"
	"redact-qc/internal/extract"
	"redact-qc/internal/parallel"
	"redact-qc/internal/pipeline"
	"redact-qc/internal/store"
)

// Sentinel errors callers branch on.
var (
	// ErrInvalidPath marks a scan path that is missing or not a directory.
	ErrInvalidPath = errors.New("invalid scan path")
	// ErrAlreadyRunning marks a batch that already has an active scan.
	ErrAlreadyRunning = errors.New("batch already running")
	// ErrNotRunning marks a cancel for a batch with no active scan.
	ErrNotRunning = errors.New("batch not running")
)

// Options tunes a Manager. A nil Factory builds real PDF processors; tests
// inject stubs.
type Options struct {
	Workers   int
	Threshold float64
	Extract   extract.Options
	Factory   parallel.Factory
}

// ScanOverrides tunes a single scan. Zero values keep the manager defaults.
type ScanOverrides struct {
	Workers   int
	Threshold float64
}

type scanState struct {
	pool *parallel.Pool
	done chan struct{}
}

// Manager coordinates scans. Safe for concurrent use.
type Manager struct {
	store   *store.Store
	opts    Options
	factory parallel.Factory
	log     hclog.Logger

	mu       sync.Mutex
	inflight map[string]*scanState
}

// New builds a scan manager over the store.
func New(st *store.Store, opts Options, log hclog.Logger) *Manager {
	if log == nil {
		log = hclog.NewNullLogger()
	}
	if opts.Threshold <= 0 {
		opts.Threshold = detector.DefaultThreshold
	}
	m := &Manager{
		store:    st,
		opts:     opts,
		factory:  opts.Factory,
		log:      log.Named("batch"),
		inflight: make(map[string]*scanState),
	}
	return m
}

// pdfFactory builds the real per-worker processor chain at a given detection
// threshold.
func (m *Manager) pdfFactory(threshold float64) parallel.Factory {
	return func() (parallel.Processor, error) {
		ex := extract.NewPDF(m.opts.Extract, m.log)
		det := detector.New(threshold, m.log)
		return pipeline.New(ex, det, m.log), nil
	}
}

// factoryFor resolves the processor factory for one scan. Injected factories
// win; otherwise a PDF chain is built at the scan's threshold.
func (m *Manager) factoryFor(ov ScanOverrides) parallel.Factory {
	if m.factory != nil {
		return m.factory
	}
	threshold := m.opts.Threshold
	if ov.Threshold > 0 {
		threshold = ov.Threshold
	}
	return m.pdfFactory(threshold)
}

// StartScan creates a batch over a folder and kicks off processing with the
// manager defaults.
func (m *Manager) StartScan(name, sourcePath string) (string, error) {
	return m.StartScanWith(name, sourcePath, ScanOverrides{})
}

// StartScanWith creates a batch over a folder and kicks off processing. It
// returns the batch id as soon as the inventory is persisted; an empty
// folder yields an immediately completed batch.
func (m *Manager) StartScanWith(name, sourcePath string, ov ScanOverrides) (string, error) {
	dir, err := canonicalDir(sourcePath)
	if err != nil {
		return "", err
	}
	if name == "" {
		name = filepath.Base(dir)
	}

	b := &store.Batch{Name: name, SourcePath: dir}
	if err := m.store.CreateBatch(b); err != nil {
		return "", err
	}

	docs, invErr := inventoryPDFs(dir)
	if invErr != nil && len(docs) == 0 {
		m.log.Error("inventory failed", "batch_id", b.ID, "error", invErr)
		_ = m.store.SetBatchStatus(b.ID, store.BatchError)
		return b.ID, nil
	}
	if invErr != nil {
		m.log.Warn("inventory partially failed", "batch_id", b.ID, "error", invErr)
	}

	if err := m.store.InsertDocuments(b.ID, docs); err != nil {
		_ = m.store.SetBatchStatus(b.ID, store.BatchError)
		return b.ID, err
	}
	if len(docs) == 0 {
		_ = m.store.SetBatchStatus(b.ID, store.BatchCompleted)
		return b.ID, nil
	}

	m.launch(b.ID, ov)
	return b.ID, nil
}

// Resume re-dispatches a batch's pending and errored documents.
func (m *Manager) Resume(batchID string) error {
	m.mu.Lock()
	_, running := m.inflight[batchID]
	m.mu.Unlock()
	if running {
		return ErrAlreadyRunning
	}

	if _, err := m.store.GetBatch(batchID); err != nil {
		return err
	}
	if err := m.store.ResetDocuments(batchID); err != nil {
		return err
	}
	pending, err := m.store.PendingDocuments(batchID)
	if err != nil {
		return err
	}
	if len(pending) == 0 {
		return m.store.SetBatchStatus(batchID, store.BatchCompleted)
	}

	m.launch(batchID, ScanOverrides{})
	return nil
}

// CancelBatch signals the batch's pool and waits for the drain.
func (m *Manager) CancelBatch(batchID string) error {
	m.mu.Lock()
	state, ok := m.inflight[batchID]
	m.mu.Unlock()
	if !ok {
		return ErrNotRunning
	}
	state.pool.Cancel()
	<-state.done
	return nil
}

// DeleteBatch cancels any in-flight scan, then removes the batch and all
// its documents and findings.
func (m *Manager) DeleteBatch(batchID string) error {
	m.mu.Lock()
	state, ok := m.inflight[batchID]
	m.mu.Unlock()
	if ok {
		state.pool.Cancel()
		<-state.done
	}
	return m.store.DeleteBatch(batchID)
}

// Wait blocks until a batch's active scan drains. A batch with no active
// scan returns immediately.
func (m *Manager) Wait(batchID string) {
	m.mu.Lock()
	state, ok := m.inflight[batchID]
	m.mu.Unlock()
	if ok {
		<-state.done
	}
}

// Running reports whether a batch has an active scan.
func (m *Manager) Running(batchID string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	_, ok := m.inflight[batchID]
	return ok
}

func (m *Manager) launch(batchID string, ov ScanOverrides) {
	workers := m.opts.Workers
	if ov.Workers > 0 {
		workers = ov.Workers
	}
	pool := parallel.New(m.factoryFor(ov), workers, m.log)
	state := &scanState{pool: pool, done: make(chan struct{})}

	m.mu.Lock()
	m.inflight[batchID] = state
	m.mu.Unlock()

	go m.runScan(batchID, state)
}

func (m *Manager) runScan(batchID string, state *scanState) {
	defer func() {
		m.mu.Lock()
		delete(m.inflight, batchID)
		m.mu.Unlock()
		close(state.done)
	}()

	if err := m.store.SetBatchStatus(batchID, store.BatchProcessing); err != nil {
		m.log.Error("cannot mark batch processing", "batch_id", batchID, "error", err)
		return
	}

	var jobs []parallel.Job
	for {
		doc, err := m.store.ClaimNextPending(batchID)
		if err != nil {
			m.log.Error("claiming documents failed", "batch_id", batchID, "error", err)
			break
		}
		if doc == nil {
			break
		}
		jobs = append(jobs, parallel.Job{DocID: doc.ID, Path: doc.Filepath})
	}

	persistFailed := false
	err := state.pool.Submit(context.Background(), jobs, func(res pipeline.Result) {
		if res.Status == pipeline.StatusCancelled {
			m.store.ReleaseClaims([]string{res.DocID})
			return
		}
		if err := m.recordResult(res); err != nil {
			m.log.Error("persisting result failed", "doc_id", res.DocID, "error", err)
			persistFailed = true
			m.store.ReleaseClaims([]string{res.DocID})
		}
	})
	if err != nil {
		m.log.Error("scan aborted", "batch_id", batchID, "error", err)
		_ = m.store.SetBatchStatus(batchID, store.BatchError)
		return
	}

	// A cancelled scan still finalizes as completed: its untouched
	// documents stay pending and Resume picks them up. Only a store that
	// would not accept results marks the batch errored.
	final := store.BatchCompleted
	if persistFailed {
		final = store.BatchError
	}
	if err := m.store.SetBatchStatus(batchID, final); err != nil {
		m.log.Error("cannot finalize batch", "batch_id", batchID, "error", err)
	}
	m.log.Info("scan finished", "batch_id", batchID, "status", final, "documents", len(jobs))
}

// recordResult persists one document outcome, retrying briefly when the
// store is busy.
func (m *Manager) recordResult(res pipeline.Result) error {
	status := store.DocCompleted
	findings := toStoreFindings(res.Findings)
	if res.Status != pipeline.StatusOk {
		status = store.DocError
		findings = nil
	}

	op := func() error {
		err := m.store.RecordDocumentResult(res.DocID, res.PageCount, status, findings)
		if errors.Is(err, store.ErrBusy) {
			return err
		}
		if err != nil {
			return backoff.Permanent(err)
		}
		return nil
	}
	return backoff.Retry(op, backoff.WithMaxRetries(backoff.NewExponentialBackOff(), 5))
}

func toStoreFindings(findings []detector.Finding) []store.Finding {
	out := make([]store.Finding, 0, len(findings))
	for _, f := range findings {
		out = append(out, store.Finding{
			PIIType:        f.PIIType,
			Confidence:     f.Confidence,
			PageNumber:     f.PageNumber,
			CharOffset:     f.CharOffset,
			CharLength:     f.CharLength,
			ContextSnippet: f.ContextSnippet,
		})
	}
	return out
}

// canonicalDir resolves a scan path and requires it to be a directory.
func canonicalDir(path string) (string, error) {
	if path == "" {
		return "", ErrInvalidPath
	}
	abs, err := filepath.Abs(path)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrInvalidPath, err)
	}
	resolved, err := filepath.EvalSymlinks(abs)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrInvalidPath, err)
	}
	info, err := os.Stat(resolved)
	if err != nil || !info.IsDir() {
		return "", fmt.Errorf("%w: %s is not a directory", ErrInvalidPath, path)
	}
	return resolved, nil
}

// inventoryPDFs walks a folder recursively and returns one document per
// PDF, matched case-insensitively and deduplicated on the resolved path.
// Unreadable subtrees are aggregated into the returned error while the
// walk continues.
func inventoryPDFs(dir string) ([]store.Document, error) {
	var docs []store.Document
	var merr *multierror.Error
	seen := make(map[string]bool)

	walkErr := filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			merr = multierror.Append(merr, err)
			if d != nil && d.IsDir() {
				return fs.SkipDir
			}
			return nil
		}
		if d.IsDir() || !strings.EqualFold(filepath.Ext(d.Name()), ".pdf") {
			return nil
		}
		resolved, rerr := filepath.EvalSymlinks(path)
		if rerr != nil {
			merr = multierror.Append(merr, rerr)
			return nil
		}
		if seen[resolved] {
			return nil
		}
		seen[resolved] = true
		docs = append(docs, store.Document{
			Filename: d.Name(),
			Filepath: resolved,
		})
		return nil
	})
	if walkErr != nil {
		merr = multierror.Append(merr, walkErr)
	}
	return docs, merr.ErrorOrNil()
}
