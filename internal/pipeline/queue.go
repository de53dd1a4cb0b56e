// Package pipeline implements the chunked-read, bounded-queue, worker-pool
// aggregation run: one producer reads batches of records from a source, a
// fixed worker pool aggregates them in parallel, and the coordinator folds
// the per-worker partial aggregates into one result identical to a single
// sequential pass.
package pipeline

import "context"

// job is the unit carried by the job queue: either a batch of records or a
// terminal marker. The marker is a distinct variant rather than a special
// batch value, so a legitimately empty batch is never mistaken for shutdown.
type job struct {
	batch    []string
	terminal bool
}

// jobQueue is a bounded FIFO of pending jobs. put blocks while the queue is
// full, which is the backpressure that keeps at most capacity batches in
// flight ahead of the workers.
type jobQueue struct {
	ch chan job
}

func newJobQueue(capacity int) *jobQueue {
	return &jobQueue{ch: make(chan job, capacity)}
}

// put enqueues j, blocking until a slot frees or ctx is cancelled.
func (q *jobQueue) put(ctx context.Context, j job) error {
	select {
	case q.ch <- j:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// get dequeues the next job, blocking until one is available or ctx is
// cancelled. Each job is delivered to exactly one caller.
func (q *jobQueue) get(ctx context.Context) (job, error) {
	select {
	case j := <-q.ch:
		return j, nil
	case <-ctx.Done():
		return job{}, ctx.Err()
	}
}
