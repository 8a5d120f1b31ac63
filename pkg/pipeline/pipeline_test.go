package pipeline

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"reflect"
	"sort"
	"strings"
	"testing"
	"time"

	"github.com/Sternrassler/device-lookup/internal/testutil"
	"github.com/Sternrassler/device-lookup/pkg/batch"
	"github.com/Sternrassler/device-lookup/pkg/client"
	"github.com/Sternrassler/device-lookup/pkg/report"
	"github.com/Sternrassler/device-lookup/pkg/serials"
	"github.com/rs/zerolog"
	"github.com/xuri/excelize/v2"
)

func newClient(t *testing.T, baseURL string) *client.Client {
	t.Helper()

	logger := zerolog.Nop()
	cfg := client.DefaultConfig(baseURL)
	cfg.PacingMin = 0
	cfg.PacingMax = 0
	cfg.Timeout = 2 * time.Second
	cfg.Logger = &logger

	c, err := client.New(cfg)
	if err != nil {
		t.Fatalf("client.New() error = %v", err)
	}
	return c
}

func writeInput(t *testing.T, lines ...string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "input.csv")
	if err := os.WriteFile(path, []byte(strings.Join(lines, "\n")+"\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

func readCSV(t *testing.T, path string) [][]string {
	t.Helper()
	f, err := os.Open(path)
	if err != nil {
		t.Fatalf("open output: %v", err)
	}
	defer f.Close()

	records, err := csv.NewReader(f).ReadAll()
	if err != nil {
		t.Fatalf("read output: %v", err)
	}
	return records
}

func testConfig(input, output string) Config {
	return Config{
		InputPath:   input,
		OutputPath:  output,
		SheetName:   "Result",
		Placeholder: "b/n",
		Batch:       batch.Config{Shards: 4, Concurrency: 10, FetchTimeout: 5 * time.Second},
	}
}

func TestRun_SuccessAndNotFound(t *testing.T) {
	mock := testutil.NewMockLookup()
	defer mock.Close()
	mock.SetResponse("A1", testutil.NewDeviceResponse("Model", "X100"))
	mock.SetResponse("A2", testutil.NewNotFoundResponse())

	input := writeInput(t, "A1", "b/n", `""`, "A2")
	output := filepath.Join(t.TempDir(), "output.csv")

	summary, err := Run(context.Background(), testConfig(input, output), newClient(t, mock.URL()), zerolog.Nop())
	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}

	want := [][]string{{"Serial", "Model"}, {"A1", "X100"}, {"A2", ""}}
	if got := readCSV(t, output); !reflect.DeepEqual(got, want) {
		t.Errorf("output = %q, want %q", got, want)
	}

	if summary.Total != 2 || summary.Succeeded != 1 || summary.Failed != 1 {
		t.Errorf("summary = %+v, want total 2, succeeded 1, failed 1", summary)
	}
	if summary.Columns != 2 {
		t.Errorf("Columns = %d, want 2", summary.Columns)
	}
	if mock.RequestsFor("b/n") != 0 {
		t.Error("placeholder row must not be looked up")
	}
}

func TestRun_XLSX(t *testing.T) {
	mock := testutil.NewMockLookup()
	defer mock.Close()
	mock.SetResponse("A1", testutil.NewDeviceResponse("Model", "X100", "Size", "DN50"))
	mock.SetResponse("A2", testutil.NewDeviceResponse("Size", "DN80", "Material", "Steel"))

	dir := t.TempDir()
	input := filepath.Join(dir, "input.xlsx")
	in := excelize.NewFile()
	_ = in.SetCellValue("Sheet1", "A1", "A1")
	_ = in.SetCellValue("Sheet1", "A2", "A2")
	if err := in.SaveAs(input); err != nil {
		t.Fatal(err)
	}
	in.Close()

	output := filepath.Join(dir, "output.xlsx")
	cfg := testConfig(input, output)
	cfg.Batch.Shards = 1

	if _, err := Run(context.Background(), cfg, newClient(t, mock.URL()), zerolog.Nop()); err != nil {
		t.Fatalf("Run() error = %v", err)
	}

	f, err := excelize.OpenFile(output)
	if err != nil {
		t.Fatalf("OpenFile() error = %v", err)
	}
	defer f.Close()

	rows, err := f.GetRows("Result")
	if err != nil {
		t.Fatalf("GetRows() error = %v", err)
	}
	want := [][]string{
		{"Serial", "Model", "Size", "Material"},
		{"A1", "X100", "DN50"},
		{"A2", "", "DN80", "Steel"},
	}
	if !reflect.DeepEqual(rows, want) {
		t.Errorf("rows = %q, want %q", rows, want)
	}
}

// TestRun_StableShape runs twice against identical responses and compares
// the header set and the row set.
func TestRun_StableShape(t *testing.T) {
	mock := testutil.NewMockLookup()
	defer mock.Close()

	var lines []string
	attrs := []string{"Model", "Size", "Material", "Output", "Accuracy"}
	for i := 0; i < 23; i++ {
		serial := fmt.Sprintf("S%02d", i)
		lines = append(lines, serial)
		switch i % 6 {
		case 0:
			mock.SetResponse(serial, testutil.NewNotFoundResponse())
		case 1:
			mock.SetResponse(serial, testutil.NewServerErrorResponse())
		default:
			mock.SetResponse(serial, testutil.NewDeviceResponse(
				attrs[i%5], serial+"-a",
				attrs[(i+2)%5], serial+"-b",
			))
		}
	}
	input := writeInput(t, lines...)

	run := func() (header []string, rows []string) {
		output := filepath.Join(t.TempDir(), "output.csv")
		cfg := testConfig(input, output)
		cfg.Batch.Concurrency = 3
		if _, err := Run(context.Background(), cfg, newClient(t, mock.URL()), zerolog.Nop()); err != nil {
			t.Fatalf("Run() error = %v", err)
		}

		records := readCSV(t, output)
		header = append([]string(nil), records[0]...)

		// Rows are compared by serial and attribute value, independent of
		// column order.
		for _, rec := range records[1:] {
			var parts []string
			for j := 1; j < len(rec); j++ {
				if rec[j] != "" {
					parts = append(parts, header[j]+"="+rec[j])
				}
			}
			sort.Strings(parts)
			rows = append(rows, rec[0]+"|"+strings.Join(parts, ","))
		}
		sort.Strings(header)
		sort.Strings(rows)
		return header, rows
	}

	h1, r1 := run()
	h2, r2 := run()

	if !reflect.DeepEqual(h1, h2) {
		t.Errorf("header sets differ: %q vs %q", h1, h2)
	}
	if !reflect.DeepEqual(r1, r2) {
		t.Errorf("row sets differ:\n%q\n%q", r1, r2)
	}
	if len(r1) != 23 {
		t.Errorf("got %d rows, want 23", len(r1))
	}
}

func TestRun_InputErrorBeforeLookup(t *testing.T) {
	mock := testutil.NewMockLookup()
	defer mock.Close()

	dir := t.TempDir()
	cfg := testConfig(filepath.Join(dir, "missing.xlsx"), filepath.Join(dir, "output.xlsx"))

	_, err := Run(context.Background(), cfg, newClient(t, mock.URL()), zerolog.Nop())

	var inputErr *serials.InputError
	if !errors.As(err, &inputErr) {
		t.Fatalf("Run() error = %v, want *serials.InputError", err)
	}
	if mock.GetRequestCount() != 0 {
		t.Errorf("made %d requests, want 0", mock.GetRequestCount())
	}
	if _, statErr := os.Stat(cfg.OutputPath); !os.IsNotExist(statErr) {
		t.Error("output must not be created on input error")
	}
}

func TestRun_OutputError(t *testing.T) {
	mock := testutil.NewMockLookup()
	defer mock.Close()
	mock.SetResponse("A1", testutil.NewDeviceResponse("Model", "X100"))

	input := writeInput(t, "A1")
	cfg := testConfig(input, filepath.Join(t.TempDir(), "missing", "output.csv"))

	_, err := Run(context.Background(), cfg, newClient(t, mock.URL()), zerolog.Nop())

	var outErr *report.OutputError
	if !errors.As(err, &outErr) {
		t.Fatalf("Run() error = %v, want *report.OutputError", err)
	}
}

func TestRun_EmptyInput(t *testing.T) {
	mock := testutil.NewMockLookup()
	defer mock.Close()

	input := writeInput(t, "b/n", `""`)
	output := filepath.Join(t.TempDir(), "output.csv")

	summary, err := Run(context.Background(), testConfig(input, output), newClient(t, mock.URL()), zerolog.Nop())
	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}

	if summary.Total != 0 {
		t.Errorf("Total = %d, want 0", summary.Total)
	}
	if want := [][]string{{"Serial"}}; !reflect.DeepEqual(readCSV(t, output), want) {
		t.Errorf("output = %q, want %q", readCSV(t, output), want)
	}
}
