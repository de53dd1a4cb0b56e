// Command pwstats streams a very large newline-delimited file and computes
// aggregate record statistics (length distribution, per-character frequency,
// per-length entropy classes, distinct estimate) with a single reader feeding
// a parallel worker pool.
//
// Configuration comes from an optional JSON run spec (-config), PWSTATS_*
// environment variables, and flags; flags win when set. With -compare the
// same input is aggregated twice, single-worker then parallel, and the two
// results are checked for equality before timings are reported.
package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"log"
	"os"
	"os/signal"
	"runtime/debug"
	"syscall"
	"time"

	"pwstats/internal/config"
	"pwstats/internal/datasource/file"
	"pwstats/internal/pipeline"
	"pwstats/internal/report"
	"pwstats/internal/scan"
	"pwstats/internal/stats"
	"pwstats/internal/storage"
)

func main() {
	cfgPath := flag.String("config", "", "Path to a JSON run spec (optional)")
	input := flag.String("input", "", "Path to the newline-delimited input file")
	encoding := flag.String("encoding", "", `Input encoding: "utf8", "latin1", "utf16le", "utf16be"`)
	stripCRLF := flag.Bool("strip_crlf", true, "Strip trailing '\\r' from records (for CRLF inputs)")
	workers := flag.Int("workers", 0, "Number of aggregation workers (0 = GOMAXPROCS)")
	batchSize := flag.Int("batch", 0, "Records per batch")
	queueCap := flag.Int("queue", 0, "Max batches queued ahead of the workers")
	maxBatches := flag.Int("max_batches", 0, "Stop after this many batches (0 = whole file)")
	compare := flag.Bool("compare", false, "Run single-worker and parallel passes and compare timings")
	topLengths := flag.Int("top", 0, "Limit the length table to the N most common lengths (0 = all)")
	csvOut := flag.String("csv", "", "Write the aggregate as CSV to this path")
	jsonOut := flag.String("json", "", "Write the aggregate as JSON to this path")
	flag.Parse()

	cfg, err := loadConfig(*cfgPath)
	if err != nil {
		log.Fatalf("config: %v", err)
	}

	// Flags win over spec and environment.
	if *input != "" {
		cfg.Input.Path = *input
	}
	if *encoding != "" {
		cfg.Input.Encoding = *encoding
	}
	if flagSet("strip_crlf") {
		cfg.Input.StripCRLF = *stripCRLF
	}
	cfg.Runtime.Workers = pickFlag(*workers, cfg.Runtime.Workers)
	cfg.Runtime.BatchSize = pickFlag(*batchSize, cfg.Runtime.BatchSize)
	cfg.Runtime.QueueCapacity = pickFlag(*queueCap, cfg.Runtime.QueueCapacity)
	cfg.Runtime.MaxBatches = pickFlag(*maxBatches, cfg.Runtime.MaxBatches)
	if *topLengths > 0 {
		cfg.Report.TopLengths = *topLengths
	}
	if cfg.Job == "" {
		cfg.Job = "pwstats"
	}

	issues := config.Validate(cfg)
	for _, iss := range issues {
		log.Printf("config %s", iss.Error())
	}
	if config.HasErrors(issues) {
		os.Exit(1)
	}

	// Reduce GC frequency during large one-shot runs, unless overridden by env.
	if os.Getenv("GOGC") == "" {
		debug.SetGCPercent(800)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	agg, err := run(ctx, cfg, *compare)
	if err != nil {
		log.Fatalf("run: %v", err)
	}

	if err := render(cfg, agg); err != nil {
		log.Fatalf("report: %v", err)
	}
	if err := export(cfg, agg, *csvOut, *jsonOut); err != nil {
		log.Fatalf("export: %v", err)
	}
	if err := persist(ctx, cfg, agg); err != nil {
		log.Fatalf("persist: %v", err)
	}
}

func loadConfig(path string) (config.Run, error) {
	if path == "" {
		// No spec file: start from environment-resolved defaults.
		return config.Run{Runtime: config.Runtime{
			BatchSize:     config.DefaultBatchSize,
			QueueCapacity: config.DefaultQueueCapacity,
		}}, nil
	}
	return config.Load(path)
}

// run aggregates the configured input, optionally twice for the sequential
// versus parallel comparison.
func run(ctx context.Context, cfg config.Run, compare bool) (*stats.Aggregate, error) {
	if !compare {
		agg, elapsed, err := runOnce(ctx, cfg, cfg.Runtime.Workers)
		if err != nil {
			return nil, err
		}
		logRate(cfg, "run", agg, elapsed)
		return agg, nil
	}

	seq, seqElapsed, err := runOnce(ctx, cfg, 1)
	if err != nil {
		return nil, fmt.Errorf("sequential pass: %w", err)
	}
	logRate(cfg, "sequential", seq, seqElapsed)

	par, parElapsed, err := runOnce(ctx, cfg, cfg.Runtime.Workers)
	if err != nil {
		return nil, fmt.Errorf("parallel pass: %w", err)
	}
	logRate(cfg, "parallel", par, parElapsed)

	if !seq.Equal(par) {
		return nil, fmt.Errorf("sequential and parallel aggregates differ; this is a bug")
	}
	log.Printf("compare: job=%s speedup=%.2fx workers=%d",
		cfg.Job, seqElapsed.Seconds()/parElapsed.Seconds(), cfg.Runtime.Workers)
	return par, nil
}

// runOnce performs one full pass over a freshly opened source. The batch
// reader is single-shot, so every pass constructs its own.
func runOnce(ctx context.Context, cfg config.Run, workers int) (*stats.Aggregate, time.Duration, error) {
	src := file.NewLocal(cfg.Input.Path, cfg.Input.Encoding)
	rc, err := src.Open(ctx)
	if err != nil {
		return nil, 0, err
	}
	defer rc.Close()

	lines := scan.NewLines(rc, cfg.Input.StripCRLF)
	batches, err := scan.NewBatchReader(lines, cfg.Runtime.BatchSize, cfg.Runtime.MaxBatches)
	if err != nil {
		return nil, 0, err
	}

	start := time.Now()
	agg, err := pipeline.Run(ctx, batches, pipeline.Config{
		Job:           cfg.Job,
		Workers:       workers,
		QueueCapacity: cfg.Runtime.QueueCapacity,
	})
	if err != nil {
		return nil, 0, err
	}
	return agg, time.Since(start), nil
}

func logRate(cfg config.Run, pass string, a *stats.Aggregate, elapsed time.Duration) {
	rps := int64(0)
	if s := elapsed.Seconds(); s > 0 {
		rps = int64(float64(a.Records) / s)
	}
	log.Printf("%s: job=%s records=%d batches=%d rps=%d elapsed=%s",
		pass, cfg.Job, a.Records, a.Batches, rps, elapsed.Truncate(time.Millisecond))
}

func render(cfg config.Run, a *stats.Aggregate) error {
	if err := report.WriteSummary(os.Stdout, a); err != nil {
		return err
	}
	if err := report.WriteLengthTable(os.Stdout, a, cfg.Report.TopLengths); err != nil {
		return err
	}
	fmt.Println()
	return report.WriteEntropyMatrix(os.Stdout, a)
}

func export(cfg config.Run, a *stats.Aggregate, csvPath, jsonPath string) error {
	write := func(path string, fn func(io.Writer, *stats.Aggregate) error) error {
		f, err := os.Create(path)
		if err != nil {
			return err
		}
		if err := fn(f, a); err != nil {
			f.Close()
			return err
		}
		return f.Close()
	}
	if csvPath != "" {
		if err := write(csvPath, report.WriteCSV); err != nil {
			return err
		}
	}
	if jsonPath != "" {
		if err := write(jsonPath, report.WriteJSON); err != nil {
			return err
		}
	}
	return nil
}

func persist(ctx context.Context, cfg config.Run, a *stats.Aggregate) error {
	sink := cfg.Report.Sink
	if sink.Kind == "" {
		return nil
	}
	repo, err := storage.New(ctx, storage.Config{Kind: sink.Kind, DSN: sink.DSN, Table: sink.Table})
	if err != nil {
		return err
	}
	defer repo.Close()

	if err := repo.SaveAggregate(ctx, cfg.Job, storage.Rows(cfg.Job, a)); err != nil {
		return err
	}
	log.Printf("persist: job=%s sink=%s table=%s", cfg.Job, sink.Kind, sink.Table)
	return nil
}

// flagSet reports whether the named flag was passed explicitly.
func flagSet(name string) bool {
	set := false
	flag.Visit(func(f *flag.Flag) {
		if f.Name == name {
			set = true
		}
	})
	return set
}

// pickFlag chooses the flag value when positive, else the configured value.
func pickFlag(flagVal, cfgVal int) int {
	if flagVal > 0 {
		return flagVal
	}
	return cfgVal
}
