package sheet

import (
	"bufio"
	"encoding/csv"
	"fmt"
	"os"

	"github.com/xuri/excelize/v2"
)

// Create opens a streaming writer for path. sheetName names the worksheet for
// workbooks and is ignored for csv. A workbook is only written to path on Close.
func Create(path, sheetName string) (RowWriter, error) {
	format, err := DetectFormat(path)
	if err != nil {
		return nil, err
	}
	if sheetName == "" {
		sheetName = DefaultSheetName
	}

	switch format {
	case FormatCSV:
		return newCSVWriter(path)
	default:
		return newXLSXWriter(path, sheetName)
	}
}

// xlsxWriter streams rows through excelize's StreamWriter.
type xlsxWriter struct {
	path   string
	file   *excelize.File
	stream *excelize.StreamWriter
	row    int
}

func newXLSXWriter(path, sheetName string) (*xlsxWriter, error) {
	f := excelize.NewFile()

	// NewFile starts with "Sheet1"; rename it so the workbook has one sheet.
	if err := f.SetSheetName(f.GetSheetName(0), sheetName); err != nil {
		f.Close()
		return nil, fmt.Errorf("name sheet %q: %w", sheetName, err)
	}

	stream, err := f.NewStreamWriter(sheetName)
	if err != nil {
		f.Close()
		return nil, fmt.Errorf("open stream writer: %w", err)
	}

	return &xlsxWriter{path: path, file: f, stream: stream}, nil
}

func (w *xlsxWriter) WriteRow(cells []string) error {
	w.row++
	cell, err := excelize.CoordinatesToCellName(1, w.row)
	if err != nil {
		return err
	}

	values := make([]interface{}, len(cells))
	for i, c := range cells {
		if c != "" {
			values[i] = c
		}
	}

	if err := w.stream.SetRow(cell, values); err != nil {
		return fmt.Errorf("write row %d: %w", w.row, err)
	}
	return nil
}

func (w *xlsxWriter) Close() error {
	defer w.file.Close()

	if err := w.stream.Flush(); err != nil {
		return fmt.Errorf("flush sheet: %w", err)
	}
	if err := w.file.SaveAs(w.path); err != nil {
		return fmt.Errorf("save workbook: %w", err)
	}
	return nil
}

// csvWriter appends rows to a buffered csv file.
type csvWriter struct {
	file *os.File
	buf  *bufio.Writer
	csv  *csv.Writer
}

func newCSVWriter(path string) (*csvWriter, error) {
	file, err := os.Create(path)
	if err != nil {
		return nil, fmt.Errorf("create csv: %w", err)
	}
	buf := bufio.NewWriterSize(file, 64*1024)
	return &csvWriter{file: file, buf: buf, csv: csv.NewWriter(buf)}, nil
}

func (w *csvWriter) WriteRow(cells []string) error {
	if err := w.csv.Write(cells); err != nil {
		return fmt.Errorf("write csv row: %w", err)
	}
	return nil
}

func (w *csvWriter) Close() error {
	w.csv.Flush()
	if err := w.csv.Error(); err != nil {
		w.file.Close()
		return fmt.Errorf("flush csv: %w", err)
	}
	if err := w.buf.Flush(); err != nil {
		w.file.Close()
		return fmt.Errorf("flush csv: %w", err)
	}
	if err := w.file.Close(); err != nil {
		return fmt.Errorf("close csv: %w", err)
	}
	return nil
}
