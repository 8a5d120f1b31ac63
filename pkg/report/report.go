// Package report folds lookup outcomes into a table and writes it out.
package report

import (
	"sort"

	"github.com/Sternrassler/device-lookup/pkg/client"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/rs/zerolog"
)

var (
	rowsWrittenTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "report_rows_written_total",
		Help: "Total data rows written to the output",
	})

	columnsGauge = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "report_columns",
		Help: "Number of columns in the last built header",
	})
)

// SerialColumn is the first header cell.
const SerialColumn = "Serial"

// progressEvery controls how often aggregation and writing log progress.
const progressEvery = 500

// Row is one output row. Failed lookups produce a row with no attributes.
type Row struct {
	Serial     string
	Attributes client.AttributeMap
}

// Cells projects the row onto header. header[0] is the serial column;
// attributes the row lacks, or that are null, become blank cells.
func (r Row) Cells(header []string) []string {
	cells := make([]string, len(header))
	if len(header) == 0 {
		return cells
	}
	cells[0] = r.Serial
	for i := 1; i < len(header); i++ {
		cells[i] = r.Attributes.Value(header[i])
	}
	return cells
}

// Table is the aggregated report: a header and one row per outcome.
type Table struct {
	Header []string
	Rows   []Row
}

// Options controls aggregation.
type Options struct {
	// SortHeader orders attribute columns alphabetically instead of by
	// first appearance. The serial column always stays first.
	SortHeader bool
}

// Aggregate builds the report table in two passes. The first collects the
// header: the serial column followed by every other attribute name seen
// across successful outcomes, in first-seen order. Header names are unique. The second builds one row per
// outcome in outcome order, so duplicates are kept.
func Aggregate(outcomes []client.Outcome, opts Options, logger zerolog.Logger) Table {
	logger = logger.With().Str("component", "aggregator").Logger()

	header := []string{SerialColumn}
	// An attribute named like the serial column is not given a column of
	// its own; the first cell always holds the looked-up serial.
	seen := map[string]bool{SerialColumn: true}
	for _, out := range outcomes {
		if !out.OK() {
			continue
		}
		for _, name := range out.Attributes.Names() {
			if seen[name] {
				continue
			}
			seen[name] = true
			header = append(header, name)
		}
	}
	if opts.SortHeader {
		sort.Strings(header[1:])
	}
	columnsGauge.Set(float64(len(header)))

	logger.Info().
		Int("outcomes", len(outcomes)).
		Int("columns", len(header)).
		Msg("Header built")

	rows := make([]Row, 0, len(outcomes))
	for i, out := range outcomes {
		if out.OK() {
			rows = append(rows, Row{Serial: out.Serial, Attributes: out.Attributes})
		} else {
			logger.Warn().
				Err(out.Err).
				Str("serial", out.Serial).
				Int("status", out.StatusCode).
				Msg("Lookup failed, writing serial only")
			rows = append(rows, Row{Serial: out.Serial})
		}

		if (i+1)%progressEvery == 0 {
			logger.Info().
				Int("processed", i+1).
				Int("total", len(outcomes)).
				Float64("progress_pct", float64(i+1)/float64(len(outcomes))*100).
				Msg("Aggregation progress")
		}
	}

	return Table{Header: header, Rows: rows}
}
