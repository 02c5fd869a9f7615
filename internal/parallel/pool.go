// Copyright RedactQC Authors. All Rights Reserved.
// SPDX-License-Identifier: Apache-2.0

// Package parallel runs document scans across a bounded worker pool. Each
// worker owns its own processor (extractor, OCR client, detector); nothing
// is shared between workers, so engine state needs no locking.
package parallel

import (
	"context"
	"fmt"
	"runtime"
	"sync"
	"sync/atomic"

	"github.com/hashicorp/go-hclog"

	"redact-qc/internal/pipeline"
)

// ChunkSize is the dispatch batch size; the results channel is bounded at
// twice this, providing backpressure against a slow consumer.
const ChunkSize = 100

// Job is one document to scan.
type Job struct {
	DocID string
	Path  string
}

// Processor is the per-worker scan engine.
type Processor interface {
	ProcessDocument(ctx context.Context, docID, path string) pipeline.Result
	Close() error
}

// Factory builds one processor per worker.
type Factory func() (Processor, error)

// ClampWorkers bounds a requested worker count to [1, NumCPU-1], keeping
// one core free for the dashboard and the store. Zero asks for the
// default, which is the upper bound; negative requests clamp to the
// floor, oversized ones to the ceiling.
func ClampWorkers(requested int) int {
	max := runtime.NumCPU() - 1
	if max < 1 {
		max = 1
	}
	switch {
	case requested == 0:
		return max
	case requested < 0:
		return 1
	case requested > max:
		return max
	}
	return requested
}

// Pool fans jobs out to workers. One Submit runs at a time per Pool.
type Pool struct {
	factory   Factory
	workers   int
	log       hclog.Logger
	cancelled atomic.Bool
	cancel    context.CancelFunc
	cancelMu  sync.Mutex
}

// New builds a pool with a clamped worker count.
func New(factory Factory, workerCount int, log hclog.Logger) *Pool {
	if log == nil {
		log = hclog.NewNullLogger()
	}
	return &Pool{
		factory: factory,
		workers: ClampWorkers(workerCount),
		log:     log.Named("worker"),
	}
}

// Workers reports the effective worker count.
func (p *Pool) Workers() int { return p.workers }

// Cancel stops the pool: in-flight documents see their context cancelled
// between pages, queued jobs are reported as cancelled, and idle workers
// exit promptly. Submit still returns only after all workers drain.
func (p *Pool) Cancel() {
	p.cancelled.Store(true)
	p.cancelMu.Lock()
	if p.cancel != nil {
		p.cancel()
	}
	p.cancelMu.Unlock()
}

// Submit processes all jobs and delivers every result, unordered, through
// onResult from the calling goroutine. It returns once all workers have
// drained. Results for jobs cut off by Cancel carry StatusCancelled.
func (p *Pool) Submit(ctx context.Context, jobs []Job, onResult func(pipeline.Result)) error {
	workers := p.workers
	if len(jobs) < workers {
		workers = len(jobs)
	}
	if workers == 0 {
		return nil
	}

	ctx, cancel := context.WithCancel(ctx)
	p.cancelMu.Lock()
	p.cancel = cancel
	p.cancelMu.Unlock()
	defer cancel()

	if p.cancelled.Load() {
		cancel()
	}

	jobsCh := make(chan Job)
	results := make(chan pipeline.Result, ChunkSize*2)

	// Dispatch in batches of ChunkSize; within a batch order is up to
	// the workers.
	go func() {
		defer close(jobsCh)
		for start := 0; start < len(jobs); start += ChunkSize {
			end := start + ChunkSize
			if end > len(jobs) {
				end = len(jobs)
			}
			for _, job := range jobs[start:end] {
				select {
				case jobsCh <- job:
				case <-ctx.Done():
					return
				}
			}
		}
	}()

	var wg sync.WaitGroup
	started := 0
	var factoryErr error
	for i := 0; i < workers; i++ {
		proc, err := p.factory()
		if err != nil {
			factoryErr = err
			p.log.Error("worker startup failed", "worker", i, "error", err)
			continue
		}
		started++
		wg.Add(1)
		go func(id int, proc Processor) {
			defer wg.Done()
			defer func() { _ = proc.Close() }()
			p.run(ctx, id, proc, jobsCh, results)
		}(i, proc)
	}
	if started == 0 {
		return fmt.Errorf("no workers could start: %w", factoryErr)
	}

	go func() {
		wg.Wait()
		close(results)
	}()

	delivered := make(map[string]bool, len(jobs))
	for res := range results {
		delivered[res.DocID] = true
		onResult(res)
	}

	// Jobs never picked up after a cancel still get a terminal result.
	if ctx.Err() != nil {
		for _, job := range jobs {
			if !delivered[job.DocID] {
				onResult(pipeline.Result{DocID: job.DocID, Status: pipeline.StatusCancelled})
			}
		}
	}
	return nil
}

func (p *Pool) run(ctx context.Context, id int, proc Processor, jobsCh <-chan Job, results chan<- pipeline.Result) {
	for job := range jobsCh {
		if ctx.Err() != nil {
			results <- pipeline.Result{DocID: job.DocID, Status: pipeline.StatusCancelled}
			continue
		}
		results <- p.processSafely(ctx, id, proc, job)
	}
}

// processSafely isolates a worker from a panicking scan: the document is
// reported as an internal error and the worker moves on.
func (p *Pool) processSafely(ctx context.Context, id int, proc Processor, job Job) (res pipeline.Result) {
	defer func() {
		if v := recover(); v != nil {
			p.log.Error("scan panicked", "worker", id, "doc_id", job.DocID, "panic", v)
			res = pipeline.Result{DocID: job.DocID, Status: pipeline.StatusInternalError}
		}
	}()
	return proc.ProcessDocument(ctx, job.DocID, job.Path)
}
