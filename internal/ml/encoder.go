package ml

import (
	"errors"
	"fmt"
	"sort"

	"github.com/Skufu/glucorisk/internal/dataset"
)

var (
	// ErrUnknownCategory is returned when a value was not seen while fitting an encoder.
	ErrUnknownCategory = errors.New("ml: unknown category")
	// ErrEncoding is returned when a column cannot be one-hot encoded or a row still holds text
	// after encoding.
	ErrEncoding = errors.New("ml: encoding failed")
)

// OneHot replaces one categorical column with indicator columns. Transformed rows hold the
// indicators first, in sorted category order, followed by the untouched columns in their
// original order.
type OneHot struct {
	Column     int
	Categories []string
	index      map[string]int
}

// FitOneHot learns the categories of column in rows.
func FitOneHot(rows [][]dataset.Cell, column int) (*OneHot, error) {
	seen := make(map[string]struct{})
	for i, row := range rows {
		if column < 0 || column >= len(row) {
			return nil, fmt.Errorf("%w: column %d out of range for row %d", ErrEncoding, column, i)
		}
		cell := row[column]
		if cell.IsNum {
			return nil, fmt.Errorf("%w: column %d holds numeric value %s in row %d", ErrEncoding, column, cell, i)
		}
		seen[cell.Str] = struct{}{}
	}
	if len(seen) == 0 {
		return nil, fmt.Errorf("%w: no rows to fit column %d", ErrEncoding, column)
	}

	cats := make([]string, 0, len(seen))
	for c := range seen {
		cats = append(cats, c)
	}
	sort.Strings(cats)

	enc := &OneHot{Column: column, Categories: cats, index: make(map[string]int, len(cats))}
	for i, c := range cats {
		enc.index[c] = i
	}
	return enc, nil
}

// Transform encodes every row.
func (e *OneHot) Transform(rows [][]dataset.Cell) ([][]dataset.Cell, error) {
	out := make([][]dataset.Cell, len(rows))
	for i, row := range rows {
		enc, err := e.TransformRow(row)
		if err != nil {
			return nil, fmt.Errorf("row %d: %w", i, err)
		}
		out[i] = enc
	}
	return out, nil
}

// TransformRow encodes a single row.
func (e *OneHot) TransformRow(row []dataset.Cell) ([]dataset.Cell, error) {
	if e.Column >= len(row) {
		return nil, fmt.Errorf("%w: column %d out of range", ErrEncoding, e.Column)
	}
	cell := row[e.Column]
	pos, ok := e.index[cell.Str]
	if cell.IsNum || !ok {
		return nil, fmt.Errorf("%w: %q in column %d", ErrUnknownCategory, cell.String(), e.Column)
	}

	out := make([]dataset.Cell, 0, len(e.Categories)+len(row)-1)
	for i := range e.Categories {
		v := 0.0
		if i == pos {
			v = 1
		}
		out = append(out, dataset.Number(v))
	}
	for i, c := range row {
		if i != e.Column {
			out = append(out, c)
		}
	}
	return out, nil
}

// toVector converts a fully encoded row to floats.
func toVector(row []dataset.Cell) ([]float64, error) {
	vec := make([]float64, len(row))
	for i, c := range row {
		if !c.IsNum {
			return nil, fmt.Errorf("%w: column %d still holds %q", ErrEncoding, i, c.Str)
		}
		vec[i] = c.Num
	}
	return vec, nil
}

func toMatrix(rows [][]dataset.Cell) ([][]float64, error) {
	out := make([][]float64, len(rows))
	for i, row := range rows {
		vec, err := toVector(row)
		if err != nil {
			return nil, fmt.Errorf("row %d: %w", i, err)
		}
		out[i] = vec
	}
	return out, nil
}
