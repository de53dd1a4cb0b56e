package pipeline

import (
	"context"
	"time"

	"pwstats/internal/metrics"
	"pwstats/internal/stats"
)

// runWorker is the per-worker loop: dequeue a job, aggregate the batch into
// the worker's running local aggregate, repeat until the terminal marker
// arrives, then report the local aggregate exactly once.
//
// Keeping a local running total instead of posting one result per batch
// means the results channel carries exactly one value per worker regardless
// of batch count. A worker only ever exits on its terminal marker or on
// context cancellation; an empty batch is aggregated like any other and
// contributes the identity.
func runWorker(ctx context.Context, job string, queue *jobQueue, results chan<- *stats.Aggregate) error {
	local := stats.NewAggregate()

	for {
		j, err := queue.get(ctx)
		if err != nil {
			return err
		}
		if j.terminal {
			select {
			case results <- local:
				return nil
			case <-ctx.Done():
				return ctx.Err()
			}
		}

		start := time.Now()
		part := stats.FromRecords(j.batch)
		if err := local.Merge(part); err != nil {
			return err
		}
		metrics.RecordStage(job, "aggregate", nil, time.Since(start))
		metrics.RecordRecords(job, "aggregated", int64(len(j.batch)))
	}
}
