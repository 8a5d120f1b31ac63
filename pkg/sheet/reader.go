package sheet

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/xuri/excelize/v2"
)

// ReadFirstColumn returns the first-column cell of every row, top to bottom,
// up to the data extent. Rows with an empty first cell yield "".
// For workbooks the active sheet is read, falling back to the first sheet.
func ReadFirstColumn(path string) ([]string, error) {
	format, err := DetectFormat(path)
	if err != nil {
		return nil, err
	}

	switch format {
	case FormatCSV:
		return readCSVColumn(path)
	default:
		return readXLSXColumn(path)
	}
}

func readXLSXColumn(path string) ([]string, error) {
	f, err := excelize.OpenFile(path)
	if err != nil {
		return nil, fmt.Errorf("open workbook: %w", err)
	}
	defer f.Close()

	name := f.GetSheetName(f.GetActiveSheetIndex())
	if name == "" {
		sheets := f.GetSheetList()
		if len(sheets) == 0 {
			return nil, ErrNoSheet
		}
		name = sheets[0]
	}

	rows, err := f.Rows(name)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrNoSheet, name, err)
	}
	defer rows.Close()

	var cells []string
	for rows.Next() {
		cols, err := rows.Columns()
		if err != nil {
			return nil, fmt.Errorf("read row %d: %w", len(cells)+1, err)
		}
		if len(cols) == 0 {
			cells = append(cells, "")
			continue
		}
		cells = append(cells, cols[0])
	}
	if err := rows.Error(); err != nil {
		return nil, fmt.Errorf("read sheet %s: %w", name, err)
	}

	return cells, nil
}

func readCSVColumn(path string) ([]string, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open csv: %w", err)
	}
	defer file.Close()

	r := csv.NewReader(file)
	r.FieldsPerRecord = -1
	r.LazyQuotes = true

	var cells []string
	for {
		record, err := r.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("read csv row %d: %w", len(cells)+1, err)
		}
		if len(record) == 0 {
			cells = append(cells, "")
			continue
		}
		cells = append(cells, record[0])
	}

	return cells, nil
}
