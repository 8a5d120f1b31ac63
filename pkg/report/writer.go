package report

import (
	"fmt"

	"github.com/Sternrassler/device-lookup/pkg/sheet"
	"github.com/rs/zerolog"
)

// OutputError reports that the report could not be written. It is fatal.
type OutputError struct {
	Path string
	Err  error
}

// Error implements the error interface.
func (e *OutputError) Error() string {
	return fmt.Sprintf("output %s: %v", e.Path, e.Err)
}

// Unwrap implements error unwrapping for errors.Is/As.
func (e *OutputError) Unwrap() error {
	return e.Err
}

// Write streams the header and then each row, projected onto the header, to
// w. It does not close w.
func Write(table Table, w sheet.RowWriter, logger zerolog.Logger) error {
	if err := w.WriteRow(table.Header); err != nil {
		return fmt.Errorf("write header: %w", err)
	}

	for i, row := range table.Rows {
		if err := w.WriteRow(row.Cells(table.Header)); err != nil {
			return fmt.Errorf("write row %d (serial %s): %w", i+2, row.Serial, err)
		}
		rowsWrittenTotal.Inc()

		if (i+1)%progressEvery == 0 {
			logger.Info().
				Int("written", i+1).
				Int("total", len(table.Rows)).
				Msg("Write progress")
		}
	}
	return nil
}

// WriteFile writes table to path, creating or overwriting it. The format
// follows the file extension; sheetName names the worksheet of a workbook.
// Every failure is returned as *OutputError.
func WriteFile(table Table, path, sheetName string, logger zerolog.Logger) error {
	logger = logger.With().Str("component", "report-writer").Str("path", path).Logger()

	w, err := sheet.Create(path, sheetName)
	if err != nil {
		return &OutputError{Path: path, Err: err}
	}

	if err := Write(table, w, logger); err != nil {
		_ = w.Close()
		return &OutputError{Path: path, Err: err}
	}

	if err := w.Close(); err != nil {
		return &OutputError{Path: path, Err: err}
	}

	logger.Info().
		Int("rows", len(table.Rows)).
		Int("columns", len(table.Header)).
		Msg("Report written")
	return nil
}
