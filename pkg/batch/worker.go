package batch

import (
	"context"
	"sync"
	"time"

	"github.com/Sternrassler/device-lookup/pkg/client"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/rs/zerolog"
)

var (
	outcomesTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "lookup_outcomes_total",
		Help: "Total lookup outcomes by result (success, failure)",
	}, []string{"result"})

	shardsActive = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "lookup_shards_active",
		Help: "Number of shards currently being processed",
	})
)

// Config holds batch configuration.
type Config struct {
	// Shards is the number of partitions processed in parallel.
	Shards int
	// Concurrency is the maximum number of parallel lookups per shard.
	Concurrency int
	// FetchTimeout bounds each lookup, pacing delay included.
	FetchTimeout time.Duration
}

// DefaultConfig returns the reference configuration: 4 shards with 10
// lookups in flight each.
func DefaultConfig() Config {
	return Config{
		Shards:       4,
		Concurrency:  10,
		FetchTimeout: 15 * time.Second,
	}
}

func (c Config) withDefaults() Config {
	def := DefaultConfig()
	if c.Shards <= 0 {
		c.Shards = def.Shards
	}
	if c.Concurrency <= 0 {
		c.Concurrency = def.Concurrency
	}
	if c.FetchTimeout <= 0 {
		c.FetchTimeout = def.FetchTimeout
	}
	return c
}

// Fetcher is the interface the lookup client must implement. Fetch must
// report every failure through the Outcome and honor ctx.
type Fetcher interface {
	Fetch(ctx context.Context, serial string) client.Outcome
}

// Worker processes one shard through a bounded pool of goroutines.
type Worker struct {
	fetcher Fetcher
	config  Config
	logger  zerolog.Logger
}

// NewWorker creates a new shard worker.
func NewWorker(fetcher Fetcher, config Config, logger zerolog.Logger) *Worker {
	return &Worker{
		fetcher: fetcher,
		config:  config.withDefaults(),
		logger:  logger.With().Str("component", "batch-worker").Logger(),
	}
}

// Run looks up every serial of the shard and returns the outcomes in input
// order. A failed lookup never stops the shard. Start and completion are
// logged for every shard, empty ones included.
func (w *Worker) Run(ctx context.Context, shardID int, serials []string) []client.Outcome {
	start := time.Now()
	results := make([]client.Outcome, len(serials))

	w.logger.Info().
		Int("shard", shardID).
		Int("size", len(serials)).
		Msg("Starting shard")

	queue := make(chan int, len(serials))
	for i := range serials {
		queue <- i
	}
	close(queue)

	// No goroutines for an empty shard; the completion log still follows.
	workers := min(w.config.Concurrency, len(serials))

	var wg sync.WaitGroup
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go w.work(ctx, serials, queue, results, &wg)
	}
	wg.Wait()

	succeeded := 0
	for _, out := range results {
		if out.OK() {
			succeeded++
		}
	}

	w.logger.Info().
		Int("shard", shardID).
		Int("size", len(serials)).
		Int("succeeded", succeeded).
		Int("failed", len(serials)-succeeded).
		Dur("duration", time.Since(start)).
		Msg("Shard complete")

	return results
}

// work drains the index queue. Each index is owned by exactly one goroutine,
// so slots are written without locking.
func (w *Worker) work(ctx context.Context, serials []string, queue <-chan int, results []client.Outcome, wg *sync.WaitGroup) {
	defer wg.Done()

	for idx := range queue {
		fetchCtx, cancel := context.WithTimeout(ctx, w.config.FetchTimeout)
		out := w.fetcher.Fetch(fetchCtx, serials[idx])
		cancel()

		// Serial is always the requested one, whatever the fetcher reports.
		out.Serial = serials[idx]
		results[idx] = out

		if out.OK() {
			outcomesTotal.WithLabelValues("success").Inc()
		} else {
			outcomesTotal.WithLabelValues("failure").Inc()
		}
	}
}
