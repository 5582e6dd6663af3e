// Package dataset loads the tabular training data used by the classifier.
//
// The file is CSV with a header row. Every column except the last is a feature; the last
// column is the numeric class label. Cells that parse as numbers are numeric, everything
// else is treated as a category literal.
package dataset

import (
	"bytes"
	"crypto/sha256"
	"encoding/csv"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
)

var (
	// ErrEmpty is returned for a file with a header but no data rows.
	ErrEmpty = errors.New("dataset: no rows")
	// ErrLabel is returned when a label cell is not numeric.
	ErrLabel = errors.New("dataset: label must be numeric")
)

// Cell is one value of a row: either a number or a category literal.
type Cell struct {
	Num   float64
	Str   string
	IsNum bool
}

// Number builds a numeric cell.
func Number(v float64) Cell { return Cell{Num: v, IsNum: true} }

// Category builds a categorical cell.
func Category(s string) Cell { return Cell{Str: s} }

func (c Cell) String() string {
	if c.IsNum {
		return strconv.FormatFloat(c.Num, 'f', -1, 64)
	}
	return c.Str
}

// Table is a dataset held fully in memory.
type Table struct {
	Header      []string
	Rows        [][]Cell
	Fingerprint string
}

// Load reads the whole file at path.
func Load(path string) (*Table, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("dataset: read %s: %w", path, err)
	}

	t, err := Parse(bytes.NewReader(raw))
	if err != nil {
		return nil, fmt.Errorf("dataset: parse %s: %w", path, err)
	}
	t.Fingerprint = fingerprint(raw)
	return t, nil
}

// Parse reads CSV data from r. The returned table has no fingerprint.
func Parse(r io.Reader) (*Table, error) {
	reader := csv.NewReader(r)
	reader.TrimLeadingSpace = true

	header, err := reader.Read()
	if errors.Is(err, io.EOF) {
		return nil, ErrEmpty
	}
	if err != nil {
		return nil, err
	}
	if len(header) < 2 {
		return nil, fmt.Errorf("dataset: need at least one feature and a label, got %d columns", len(header))
	}
	reader.FieldsPerRecord = len(header)

	t := &Table{Header: header}
	for {
		record, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, err
		}

		row := make([]Cell, len(record))
		for i, field := range record {
			row[i] = parseCell(field)
		}
		t.Rows = append(t.Rows, row)
	}

	if len(t.Rows) == 0 {
		return nil, ErrEmpty
	}
	return t, nil
}

// Split separates feature columns from the trailing label column.
func (t *Table) Split() ([][]Cell, []int, error) {
	x := make([][]Cell, len(t.Rows))
	y := make([]int, len(t.Rows))
	last := len(t.Header) - 1

	for i, row := range t.Rows {
		label := row[last]
		if !label.IsNum {
			return nil, nil, fmt.Errorf("%w: row %d has %q", ErrLabel, i+1, label.Str)
		}
		features := make([]Cell, last)
		copy(features, row[:last])
		x[i] = features
		y[i] = int(label.Num)
	}
	return x, y, nil
}

// Fingerprint returns the content hash of the file at path.
func Fingerprint(path string) (string, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return "", err
	}
	return fingerprint(raw), nil
}

func fingerprint(raw []byte) string {
	sum := sha256.Sum256(raw)
	return hex.EncodeToString(sum[:])
}

func parseCell(field string) Cell {
	if v, err := strconv.ParseFloat(field, 64); err == nil {
		return Number(v)
	}
	return Category(field)
}
