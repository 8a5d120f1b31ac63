// Package batch runs serial lookups in parallel.
//
// Work is split in two levels. The Runner partitions the serial list round
// robin into a fixed number of shards and runs one Worker per shard in its
// own goroutine. Each Worker dispatches its shard through a bounded pool of
// goroutines fed from a queue, so at most Shards x Concurrency requests are in
// flight (40 with the defaults).
//
// Example usage:
//
//	runner := batch.NewRunner(lookupClient, batch.DefaultConfig(), logger)
//	outcomes := runner.Run(ctx, serials)
//
// The runner:
//   - Produces exactly one Outcome per input serial
//   - Never stops on a failed lookup
//   - Keeps each shard's outcomes in shard input order
//   - Concatenates shard results in shard index order after all shards finish
//
// Shard results are private slices joined behind a WaitGroup barrier, so no
// result list is shared between goroutines.
package batch
