package pipeline

import (
	"context"
	"fmt"
	"io"
	"log"
	"runtime"
	"time"

	"golang.org/x/sync/errgroup"

	"pwstats/internal/metrics"
	"pwstats/internal/stats"
)

// Source yields batches of records. Next returns io.EOF when the input is
// exhausted; any other error aborts the run. The coordinator is the only
// caller, so implementations need not be safe for concurrent use.
type Source interface {
	Next() ([]string, error)
}

// Config controls a single run.
type Config struct {
	// Job labels metrics and log lines for this run.
	Job string

	// Workers is the number of parallel aggregation workers.
	// Zero means GOMAXPROCS.
	Workers int

	// QueueCapacity bounds the number of batches queued ahead of the
	// workers. Together with the source's batch size it caps in-flight
	// memory at roughly capacity*batchSize records.
	QueueCapacity int
}

// DefaultQueueCapacity bounds in-flight batches when Config leaves it unset.
const DefaultQueueCapacity = 6

func (c *Config) validate() error {
	if c.Workers < 0 {
		return fmt.Errorf("workers must not be negative, got %d", c.Workers)
	}
	if c.Workers == 0 {
		c.Workers = runtime.GOMAXPROCS(0)
	}
	if c.QueueCapacity == 0 {
		c.QueueCapacity = DefaultQueueCapacity
	}
	if c.QueueCapacity < 0 {
		return fmt.Errorf("queue capacity must be > 0, got %d", c.QueueCapacity)
	}
	return nil
}

// Run drives a full aggregation: it pulls batches from src and enqueues them
// onto the bounded job queue, while cfg.Workers workers dequeue, aggregate,
// and keep a running local aggregate each. After src is exhausted the
// producer enqueues one terminal marker per worker; each worker reports its
// local aggregate exactly once and exits. Run waits for the whole pool, then
// folds the partial aggregates into the final result.
//
// On any failure (source read error, cancelled ctx, worker error) the shared
// context is cancelled so every blocked party unwinds, and Run returns the
// first error with no partial aggregate.
func Run(ctx context.Context, src Source, cfg Config) (*stats.Aggregate, error) {
	if err := cfg.validate(); err != nil {
		return nil, err
	}

	queue := newJobQueue(cfg.QueueCapacity)

	// Buffered to the pool size so final reports never block even though the
	// coordinator only drains after the pool has fully joined.
	results := make(chan *stats.Aggregate, cfg.Workers)

	g, ctx := errgroup.WithContext(ctx)

	for i := 0; i < cfg.Workers; i++ {
		g.Go(func() error {
			return runWorker(ctx, cfg.Job, queue, results)
		})
	}

	g.Go(func() error {
		return produce(ctx, cfg, src, queue)
	})

	if err := g.Wait(); err != nil {
		return nil, err
	}

	// Every worker has reported by now; fold in arrival order. Merge is
	// commutative and associative, so the order cannot change the result.
	close(results)
	start := time.Now()
	final := stats.NewAggregate()
	var folded int
	for part := range results {
		if err := final.Merge(part); err != nil {
			return nil, err
		}
		folded++
	}
	metrics.RecordStage(cfg.Job, "fold", nil, time.Since(start))

	if folded != cfg.Workers {
		// Cannot happen while the shutdown protocol holds; fail loudly if it breaks.
		return nil, fmt.Errorf("expected %d worker reports, got %d", cfg.Workers, folded)
	}
	return final, nil
}

// produce reads batches from src into the queue and, after end of input,
// enqueues exactly one terminal marker per worker so that every worker
// observes its own shutdown signal.
func produce(ctx context.Context, cfg Config, src Source, queue *jobQueue) (err error) {
	start := time.Now()
	var batches, records int64
	defer func() {
		metrics.RecordStage(cfg.Job, "produce", err, time.Since(start))
		metrics.RecordBatches(cfg.Job, batches)
		metrics.RecordRecords(cfg.Job, "read", records)
		log.Printf("produce: job=%s batches=%d records=%d elapsed=%s",
			cfg.Job, batches, records, time.Since(start).Truncate(time.Millisecond))
	}()

	for {
		batch, rerr := src.Next()
		if rerr == io.EOF {
			break
		}
		if rerr != nil {
			// Source failure aborts the run; cancellation of the shared ctx
			// unblocks every worker, so none is left waiting on the queue.
			return fmt.Errorf("read batch: %w", rerr)
		}
		if perr := queue.put(ctx, job{batch: batch}); perr != nil {
			return perr
		}
		batches++
		records += int64(len(batch))
	}

	for i := 0; i < cfg.Workers; i++ {
		if perr := queue.put(ctx, job{terminal: true}); perr != nil {
			return perr
		}
	}
	return nil
}
