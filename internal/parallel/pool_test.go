// Copyright RedactQC Authors. All Rights Reserved.
// SPDX-License-Identifier: Apache-2.0

package parallel

import (
	"context"
	"fmt"
	"runtime"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/hashicorp/go-hclog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"redact-qc/internal/pipeline"
)

// stubProcessor returns StatusOk after an optional delay, panicking on
// doc ids listed in panicOn.
type stubProcessor struct {
	delay   time.Duration
	panicOn map[string]bool
	closed  *atomic.Int32
}

func (s *stubProcessor) ProcessDocument(ctx context.Context, docID, path string) pipeline.Result {
	if s.panicOn[docID] {
		panic("scan bug")
	}
	if s.delay > 0 {
		select {
		case <-time.After(s.delay):
		case <-ctx.Done():
			return pipeline.Result{DocID: docID, Status: pipeline.StatusCancelled}
		}
	}
	return pipeline.Result{DocID: docID, Status: pipeline.StatusOk, PageCount: 1}
}

func (s *stubProcessor) Close() error {
	if s.closed != nil {
		s.closed.Add(1)
	}
	return nil
}

func makeJobs(n int) []Job {
	jobs := make([]Job, n)
	for i := range jobs {
		jobs[i] = Job{DocID: fmt.Sprintf("doc%03d", i), Path: fmt.Sprintf("/case/%03d.pdf", i)}
	}
	return jobs
}

func TestClampWorkers(t *testing.T) {
	max := runtime.NumCPU() - 1
	if max < 1 {
		max = 1
	}
	assert.Equal(t, max, ClampWorkers(0))
	assert.Equal(t, 1, ClampWorkers(-5))
	assert.Equal(t, max, ClampWorkers(max+10))
	assert.Equal(t, 1, ClampWorkers(1))
}

func TestSubmitDeliversEveryResult(t *testing.T) {
	var closed atomic.Int32
	pool := New(func() (Processor, error) {
		return &stubProcessor{closed: &closed}, nil
	}, 4, hclog.NewNullLogger())

	jobs := makeJobs(250) // spans multiple dispatch chunks
	var mu sync.Mutex
	got := make(map[string]pipeline.Status)

	err := pool.Submit(context.Background(), jobs, func(res pipeline.Result) {
		mu.Lock()
		got[res.DocID] = res.Status
		mu.Unlock()
	})
	require.NoError(t, err)

	require.Len(t, got, 250)
	for _, status := range got {
		assert.Equal(t, pipeline.StatusOk, status)
	}
	assert.Equal(t, int32(pool.Workers()), closed.Load(), "every worker closes its processor")
}

func TestSubmitEmptyJobs(t *testing.T) {
	pool := New(func() (Processor, error) {
		t.Fatal("factory must not run for an empty job list")
		return nil, nil
	}, 2, hclog.NewNullLogger())

	called := false
	require.NoError(t, pool.Submit(context.Background(), nil, func(pipeline.Result) { called = true }))
	assert.False(t, called)
}

func TestWorkerPanicIsIsolated(t *testing.T) {
	pool := New(func() (Processor, error) {
		return &stubProcessor{panicOn: map[string]bool{"doc001": true}}, nil
	}, 2, hclog.NewNullLogger())

	var mu sync.Mutex
	got := make(map[string]pipeline.Status)
	err := pool.Submit(context.Background(), makeJobs(5), func(res pipeline.Result) {
		mu.Lock()
		got[res.DocID] = res.Status
		mu.Unlock()
	})
	require.NoError(t, err)

	require.Len(t, got, 5)
	assert.Equal(t, pipeline.StatusInternalError, got["doc001"])
	for id, status := range got {
		if id != "doc001" {
			assert.Equal(t, pipeline.StatusOk, status)
		}
	}
}

func TestCancelDrainsWithCancelledResults(t *testing.T) {
	pool := New(func() (Processor, error) {
		return &stubProcessor{delay: 20 * time.Millisecond}, nil
	}, 2, hclog.NewNullLogger())

	go func() {
		time.Sleep(30 * time.Millisecond)
		pool.Cancel()
	}()

	var mu sync.Mutex
	got := make(map[string]pipeline.Status)
	err := pool.Submit(context.Background(), makeJobs(50), func(res pipeline.Result) {
		mu.Lock()
		got[res.DocID] = res.Status
		mu.Unlock()
	})
	require.NoError(t, err)

	// Every job still gets exactly one terminal result.
	require.Len(t, got, 50)
	cancelled := 0
	for _, status := range got {
		if status == pipeline.StatusCancelled {
			cancelled++
		}
	}
	assert.Greater(t, cancelled, 0, "a mid-run cancel must cut off queued jobs")
}

func TestNoWorkersStartable(t *testing.T) {
	pool := New(func() (Processor, error) {
		return nil, fmt.Errorf("tesseract unavailable")
	}, 2, hclog.NewNullLogger())

	err := pool.Submit(context.Background(), makeJobs(3), func(pipeline.Result) {})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no workers could start")
}

func TestFactoryBuildsOneProcessorPerWorker(t *testing.T) {
	var built atomic.Int32
	pool := New(func() (Processor, error) {
		built.Add(1)
		return &stubProcessor{}, nil
	}, 3, hclog.NewNullLogger())

	require.NoError(t, pool.Submit(context.Background(), makeJobs(10), func(pipeline.Result) {}))

	expected := pool.Workers()
	if expected > 3 {
		expected = 3
	}
	assert.Equal(t, int32(expected), built.Load())
}
