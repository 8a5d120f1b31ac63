// Package sheet reads and writes the tabular files the tool consumes and
// produces. Spreadsheets (.xlsx) go through excelize; .csv files through
// encoding/csv. Both writers stream rows so a large report is never held
// in memory as a whole workbook.
package sheet

import (
	"errors"
	"fmt"
	"path/filepath"
	"strings"
)

// Format is a tabular file format.
type Format string

const (
	// FormatXLSX is an Office Open XML workbook.
	FormatXLSX Format = "xlsx"

	// FormatCSV is comma-separated values.
	FormatCSV Format = "csv"
)

// DefaultSheetName is the sheet written to when none is configured.
const DefaultSheetName = "Result"

// ErrUnsupportedFormat is returned for file extensions other than .xlsx/.xlsm/.csv.
var ErrUnsupportedFormat = errors.New("unsupported file format")

// ErrNoSheet is returned when a workbook has no readable sheet.
var ErrNoSheet = errors.New("no readable sheet")

// DetectFormat picks the format from the file extension.
func DetectFormat(path string) (Format, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".xlsx", ".xlsm":
		return FormatXLSX, nil
	case ".csv":
		return FormatCSV, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrUnsupportedFormat, filepath.Ext(path))
	}
}

// RowWriter accepts rows of cells one at a time. An empty cell is written
// as a blank cell.
type RowWriter interface {
	WriteRow(cells []string) error
	Close() error
}
