// Package serials loads device serial numbers from a tabular file and splits
// them into shards for parallel lookup.
package serials

import (
	"fmt"
	"strings"

	"github.com/Sternrassler/device-lookup/pkg/sheet"
)

// DefaultPlaceholder marks rows that have no serial ("без номера").
const DefaultPlaceholder = "б/n"

// InputError reports that the input file could not be read. It is fatal
// and raised before any network activity.
type InputError struct {
	Path string
	Err  error
}

// Error implements the error interface.
func (e *InputError) Error() string {
	return fmt.Sprintf("input %s: %v", e.Path, e.Err)
}

// Unwrap implements error unwrapping for errors.Is/As.
func (e *InputError) Unwrap() error {
	return e.Err
}

// Load reads column A of path and returns the valid serials in file order.
// See Filter for what is dropped. Duplicates are kept.
func Load(path, placeholder string) ([]string, error) {
	cells, err := sheet.ReadFirstColumn(path)
	if err != nil {
		return nil, &InputError{Path: path, Err: err}
	}
	return Filter(cells, placeholder), nil
}

// Filter trims each cell and drops empty ones and any whose lowercased text
// contains the lowercased placeholder. An empty placeholder disables the
// placeholder check.
func Filter(cells []string, placeholder string) []string {
	marker := strings.ToLower(placeholder)

	out := make([]string, 0, len(cells))
	for _, cell := range cells {
		serial := strings.TrimSpace(cell)
		if serial == "" {
			continue
		}
		if marker != "" && strings.Contains(strings.ToLower(serial), marker) {
			continue
		}
		out = append(out, serial)
	}
	return out
}

// Partition splits serials into exactly n shards round robin: shard i gets
// positions i, i+n, i+2n, ... Shard sizes differ by at most one and each
// shard keeps input order. n < 1 is treated as 1.
func Partition(serials []string, n int) [][]string {
	if n < 1 {
		n = 1
	}

	shards := make([][]string, n)
	for i := range shards {
		shards[i] = make([]string, 0, (len(serials)+n-1-i)/n)
	}
	for i, s := range serials {
		shards[i%n] = append(shards[i%n], s)
	}
	return shards
}
