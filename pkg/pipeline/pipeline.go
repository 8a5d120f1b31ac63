// Package pipeline wires the lookup stages together: load serials, look them
// up in parallel, aggregate the outcomes and write the report.
package pipeline

import (
	"context"
	"time"

	"github.com/Sternrassler/device-lookup/pkg/batch"
	"github.com/Sternrassler/device-lookup/pkg/report"
	"github.com/Sternrassler/device-lookup/pkg/serials"
	"github.com/rs/zerolog"
)

// Config holds the pipeline configuration.
type Config struct {
	InputPath   string
	OutputPath  string
	SheetName   string
	Placeholder string
	SortHeader  bool
	Batch       batch.Config
}

// Summary describes a finished run.
type Summary struct {
	Total     int
	Succeeded int
	Failed    int
	Cached    int
	Columns   int
	Duration  time.Duration
}

// Run executes one lookup run. It returns *serials.InputError before any
// lookup when the input cannot be read, and *report.OutputError when the
// report cannot be written. Failed lookups are not errors; they show up in
// the summary and as serial-only rows.
func Run(ctx context.Context, cfg Config, fetcher batch.Fetcher, logger zerolog.Logger) (Summary, error) {
	start := time.Now()
	logger = logger.With().Str("component", "pipeline").Logger()

	list, err := serials.Load(cfg.InputPath, cfg.Placeholder)
	if err != nil {
		return Summary{}, err
	}

	logger.Info().
		Str("input", cfg.InputPath).
		Int("serials", len(list)).
		Msg("Serials loaded")

	outcomes := batch.NewRunner(fetcher, cfg.Batch, logger).Run(ctx, list)

	table := report.Aggregate(outcomes, report.Options{SortHeader: cfg.SortHeader}, logger)

	if err := report.WriteFile(table, cfg.OutputPath, cfg.SheetName, logger); err != nil {
		return Summary{}, err
	}

	summary := Summary{
		Total:   len(outcomes),
		Columns: len(table.Header),
	}
	for _, out := range outcomes {
		switch {
		case !out.OK():
			summary.Failed++
		case out.Cached:
			summary.Succeeded++
			summary.Cached++
		default:
			summary.Succeeded++
		}
	}
	summary.Duration = time.Since(start)

	logger.Info().
		Str("output", cfg.OutputPath).
		Int("total", summary.Total).
		Int("succeeded", summary.Succeeded).
		Int("failed", summary.Failed).
		Int("cached", summary.Cached).
		Int("columns", summary.Columns).
		Dur("duration", summary.Duration).
		Msg("Run complete")

	return summary, nil
}
