// Package queue provides a deduplicating work queue.
//
// Jobs are keyed; while a job for a key is pending or running, further
// pushes for the same key are dropped. Pushing never blocks, which makes the
// queue safe to feed from audio callbacks that must hand blocking work to a
// regular goroutine.
package queue

import (
	"context"
	"log/slog"
	"sync"
)

// Job is a unit of deferred work.
type Job func()

type task struct {
	key uint64
	job Job
}

// Queue is a bounded, deduplicating job queue drained by worker goroutines.
type Queue struct {
	mu      sync.Mutex
	logger  *slog.Logger
	pending map[uint64]struct{}
	tasks   chan task
	workers int

	stopCh  chan struct{}
	wg      sync.WaitGroup
	running bool
}

// New creates a queue holding at most size jobs, drained by workers goroutines.
func New(size, workers int, logger *slog.Logger) *Queue {
	if logger == nil {
		logger = slog.Default()
	}
	if size < 1 {
		size = 1
	}
	if workers < 1 {
		workers = 1
	}

	return &Queue{
		logger:  logger,
		pending: make(map[uint64]struct{}),
		tasks:   make(chan task, size),
		workers: workers,
		stopCh:  make(chan struct{}),
	}
}

// PushUnique enqueues job under key. It returns false without blocking when a
// job for key is already pending or the queue is full; callers that need the
// work done retry later.
func (q *Queue) PushUnique(key uint64, job Job) bool {
	q.mu.Lock()
	defer q.mu.Unlock()

	if _, ok := q.pending[key]; ok {
		return false
	}

	select {
	case q.tasks <- task{key: key, job: job}:
		q.pending[key] = struct{}{}
		return true
	default:
		return false
	}
}

// Pending reports whether a job for key is queued or running.
func (q *Queue) Pending(key uint64) bool {
	q.mu.Lock()
	defer q.mu.Unlock()
	_, ok := q.pending[key]
	return ok
}

// Len returns the number of pending jobs.
func (q *Queue) Len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.pending)
}

// Start launches the workers. Calling Start on a running queue is a no-op.
func (q *Queue) Start(ctx context.Context) {
	q.mu.Lock()
	if q.running {
		q.mu.Unlock()
		return
	}
	q.running = true
	q.stopCh = make(chan struct{})
	stopCh := q.stopCh
	q.mu.Unlock()

	for range q.workers {
		q.wg.Add(1)
		go q.work(ctx, stopCh)
	}

	q.logger.Debug("queue started", "workers", q.workers, "size", cap(q.tasks))
}

// Stop stops the workers and waits for the running jobs to return.
// Jobs still queued are discarded.
func (q *Queue) Stop() {
	q.mu.Lock()
	if !q.running {
		q.mu.Unlock()
		return
	}
	q.running = false
	close(q.stopCh)
	q.mu.Unlock()

	q.wg.Wait()

	q.mu.Lock()
	for drained := false; !drained; {
		select {
		case t := <-q.tasks:
			delete(q.pending, t.key)
		default:
			drained = true
		}
	}
	q.mu.Unlock()

	q.logger.Debug("queue stopped")
}

// work runs jobs until the queue is stopped or ctx is cancelled.
func (q *Queue) work(ctx context.Context, stopCh <-chan struct{}) {
	defer q.wg.Done()

	for {
		select {
		case <-ctx.Done():
			return
		case <-stopCh:
			return
		case t := <-q.tasks:
			q.run(t)
		}
	}
}

// run executes one job and releases its key afterwards so that a push racing
// with the running job is still coalesced.
func (q *Queue) run(t task) {
	defer func() {
		if r := recover(); r != nil {
			q.logger.Error("queue job panicked", "key", t.key, "panic", r)
		}
		q.mu.Lock()
		delete(q.pending, t.key)
		q.mu.Unlock()
	}()

	t.job()
}
