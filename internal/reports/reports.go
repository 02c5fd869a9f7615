// Copyright RedactQC Authors. All Rights Reserved.
// SPDX-License-Identifier: Apache-2.0

// Package reports generates batch exports: a CSV of findings and a PDF
// summary. Generation runs in the background; callers poll the registry.
package reports

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"sync"
	"time"

	"github.com/hashicorp/go-hclog"

	"redact-qc/internal/ids"
	"redact-qc/internal/store"
)

// Format selects the export type.
type Format string

const (
	FormatCSV Format = "csv"
	FormatPDF Format = "pdf"
)

// Report statuses.
const (
	StatusGenerating = "generating"
	StatusCompleted  = "completed"
	StatusFailed     = "failed"
)

// Errors callers branch on.
var (
	ErrNotFound      = errors.New("report not found")
	ErrInvalidFormat = errors.New("invalid report format")
)

// Report is one export job. Error is set only for StatusFailed.
type Report struct {
	ID        string    `json:"id"`
	BatchID   string    `json:"batch_id"`
	Format    Format    `json:"format"`
	Status    string    `json:"status"`
	FilePath  string    `json:"file_path,omitempty"`
	Error     string    `json:"error,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}

type reportEntry struct {
	report Report
	done   chan struct{}
}

// Generator runs exports over the store. The registry is in-memory: report
// records do not survive a restart, the files do.
type Generator struct {
	store *store.Store
	dir   string
	log   hclog.Logger

	mu      sync.Mutex
	reports map[string]*reportEntry
}

// New builds a report generator writing into dir.
func New(st *store.Store, dir string, log hclog.Logger) *Generator {
	if log == nil {
		log = hclog.NewNullLogger()
	}
	return &Generator{
		store:   st,
		dir:     dir,
		log:     log.Named("reports"),
		reports: make(map[string]*reportEntry),
	}
}

// Generate starts an export for a batch and returns the tracking record
// immediately.
func (g *Generator) Generate(batchID string, format Format) (Report, error) {
	if format != FormatCSV && format != FormatPDF {
		return Report{}, fmt.Errorf("%w: %q", ErrInvalidFormat, format)
	}
	batch, err := g.store.GetBatch(batchID)
	if err != nil {
		return Report{}, err
	}

	entry := &reportEntry{
		report: Report{
			ID:        ids.New(),
			BatchID:   batchID,
			Format:    format,
			Status:    StatusGenerating,
			CreatedAt: time.Now().UTC(),
		},
		done: make(chan struct{}),
	}
	g.mu.Lock()
	g.reports[entry.report.ID] = entry
	g.mu.Unlock()

	go g.run(entry, batch)
	return entry.report, nil
}

// Get returns the current state of a report.
func (g *Generator) Get(id string) (Report, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	entry, ok := g.reports[id]
	if !ok {
		return Report{}, ErrNotFound
	}
	return entry.report, nil
}

// Await blocks until a report reaches a terminal status.
func (g *Generator) Await(id string) (Report, error) {
	g.mu.Lock()
	entry, ok := g.reports[id]
	g.mu.Unlock()
	if !ok {
		return Report{}, ErrNotFound
	}
	<-entry.done
	return g.Get(id)
}

func (g *Generator) run(entry *reportEntry, batch *store.Batch) {
	defer close(entry.done)

	path, err := g.export(entry.report, batch)

	g.mu.Lock()
	defer g.mu.Unlock()
	if err != nil {
		g.log.Error("report generation failed",
			"report_id", entry.report.ID, "batch_id", batch.ID, "error", err)
		entry.report.Status = StatusFailed
		entry.report.Error = err.Error()
		return
	}
	entry.report.Status = StatusCompleted
	entry.report.FilePath = path
}

func (g *Generator) export(r Report, batch *store.Batch) (string, error) {
	if err := os.MkdirAll(g.dir, 0o700); err != nil {
		return "", fmt.Errorf("creating reports directory: %w", err)
	}
	rows, err := g.store.FindingsForBatch(batch.ID)
	if err != nil {
		return "", err
	}

	path := g.filePath(batch, r.Format)
	switch r.Format {
	case FormatCSV:
		err = writeCSV(path, rows)
	case FormatPDF:
		err = g.writePDF(path, batch, rows)
	}
	if err != nil {
		_ = os.Remove(path)
		return "", err
	}
	return path, nil
}

var unsafeNameChars = regexp.MustCompile(`[^A-Za-z0-9_-]+`)

func (g *Generator) filePath(batch *store.Batch, format Format) string {
	name := unsafeNameChars.ReplaceAllString(batch.Name, "_")
	if name == "" {
		name = "batch"
	}
	return filepath.Join(g.dir, fmt.Sprintf("RedactQC_%s_%s.%s", name, batch.ID[:8], format))
}
