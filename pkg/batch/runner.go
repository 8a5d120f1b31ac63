package batch

import (
	"context"
	"sync"
	"time"

	"github.com/Sternrassler/device-lookup/pkg/client"
	"github.com/Sternrassler/device-lookup/pkg/serials"
	"github.com/rs/zerolog"
)

// Runner partitions serials into shards and runs one Worker per shard.
type Runner struct {
	worker *Worker
	config Config
	logger zerolog.Logger
}

// NewRunner creates a new shard runner.
func NewRunner(fetcher Fetcher, config Config, logger zerolog.Logger) *Runner {
	config = config.withDefaults()
	return &Runner{
		worker: NewWorker(fetcher, config, logger),
		config: config,
		logger: logger.With().Str("component", "batch-runner").Logger(),
	}
}

// Run looks up all serials and returns exactly one outcome per serial.
// Outcomes are grouped by shard in shard index order; within a shard they
// follow input order.
func (r *Runner) Run(ctx context.Context, list []string) []client.Outcome {
	start := time.Now()
	shards := serials.Partition(list, r.config.Shards)

	r.logger.Info().
		Int("serials", len(list)).
		Int("shards", len(shards)).
		Int("concurrency", r.config.Concurrency).
		Msg("Starting parallel lookup")

	shardResults := make([][]client.Outcome, len(shards))

	var (
		wg       sync.WaitGroup
		mu       sync.Mutex
		finished int
	)
	for i, shard := range shards {
		wg.Add(1)
		go func(id int, shard []string) {
			defer wg.Done()
			shardsActive.Inc()
			defer shardsActive.Dec()

			shardResults[id] = r.worker.Run(ctx, id, shard)

			mu.Lock()
			finished++
			done := finished
			mu.Unlock()

			r.logger.Info().
				Int("shard", id).
				Int("completed_shards", done).
				Int("total_shards", len(shards)).
				Float64("progress_pct", float64(done)/float64(len(shards))*100).
				Msg("Fetch progress")
		}(i, shard)
	}
	wg.Wait()

	outcomes := make([]client.Outcome, 0, len(list))
	for _, res := range shardResults {
		outcomes = append(outcomes, res...)
	}

	r.logger.Info().
		Int("serials", len(list)).
		Int("outcomes", len(outcomes)).
		Dur("duration", time.Since(start)).
		Msg("Parallel lookup complete")

	return outcomes
}
