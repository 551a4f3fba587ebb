package survey

import (
	"fmt"
	"math"

	"surveyweight/domain/core"
)

// StatisticalType defines variable types for analysis
type StatisticalType string

const (
	TypeNumeric StatisticalType = "numeric"
	TypeBinary  StatisticalType = "binary"
	TypeUnknown StatisticalType = "unknown"
)

// Frame is the canonical data object for all weighting computation: an
// ordered, column-oriented view of the sampled units. Missing numeric cells
// are NaN. Frames are append-only while being assembled and are treated as
// immutable once handed to the analysis pipeline; accessors return copies.
type Frame struct {
	columns [][]float64
	keys    []core.VariableKey
	types   []StatisticalType
	rows    int
}

// NewFrame creates an empty frame.
func NewFrame() *Frame {
	return &Frame{}
}

// AddColumn appends a named column. The first column fixes the row count;
// every later column must match it.
func (f *Frame) AddColumn(key core.VariableKey, values []float64, st StatisticalType) error {
	if len(f.columns) == 0 {
		f.rows = len(values)
	} else if len(values) != f.rows {
		return core.NewDimensionMismatchError(key.String(), len(values), f.rows)
	}

	for _, k := range f.keys {
		if k == key {
			return fmt.Errorf("duplicate column %s", key)
		}
	}

	col := make([]float64, len(values))
	copy(col, values)

	f.columns = append(f.columns, col)
	f.keys = append(f.keys, key)
	f.types = append(f.types, st)
	return nil
}

// Column returns a copy of the named column's data.
func (f *Frame) Column(key core.VariableKey) ([]float64, error) {
	for j, k := range f.keys {
		if k == key {
			out := make([]float64, f.rows)
			copy(out, f.columns[j])
			return out, nil
		}
	}
	return nil, core.NewVariableNotFoundError(key)
}

// Columns returns copies of several columns at once, in request order.
func (f *Frame) Columns(keys []core.VariableKey) ([][]float64, error) {
	out := make([][]float64, len(keys))
	for i, key := range keys {
		col, err := f.Column(key)
		if err != nil {
			return nil, err
		}
		out[i] = col
	}
	return out, nil
}

// Type returns the statistical type recorded for a column.
func (f *Frame) Type(key core.VariableKey) (StatisticalType, error) {
	for j, k := range f.keys {
		if k == key {
			return f.types[j], nil
		}
	}
	return TypeUnknown, core.NewVariableNotFoundError(key)
}

// Keys returns the column keys in frame order.
func (f *Frame) Keys() []core.VariableKey {
	out := make([]core.VariableKey, len(f.keys))
	copy(out, f.keys)
	return out
}

// RowCount returns the number of sampled units.
func (f *Frame) RowCount() int {
	return f.rows
}

// ColumnCount returns the number of variables.
func (f *Frame) ColumnCount() int {
	return len(f.keys)
}

// Validate ensures the frame is internally consistent.
func (f *Frame) Validate() error {
	if f.rows == 0 || len(f.columns) == 0 {
		return core.ErrInsufficientData
	}
	for j, col := range f.columns {
		if len(col) != f.rows {
			return core.NewDimensionMismatchError(f.keys[j].String(), len(col), f.rows)
		}
	}
	return nil
}

// ResponseIndicator resolves the per-row respondent flag from the named
// column. A binary column is read directly (nonzero = respondent); for any
// other column the NaN pattern is used, so an outcome variable observed only
// for respondents works as an indicator source.
func (f *Frame) ResponseIndicator(key core.VariableKey) ([]bool, error) {
	for j, k := range f.keys {
		if k != key {
			continue
		}
		col := f.columns[j]
		out := make([]bool, len(col))
		if f.types[j] == TypeBinary {
			for i, v := range col {
				if math.IsNaN(v) {
					return nil, fmt.Errorf("indicator column %s has missing value at row %d", key, i)
				}
				out[i] = v != 0
			}
			return out, nil
		}
		for i, v := range col {
			out[i] = !math.IsNaN(v)
		}
		return out, nil
	}
	return nil, core.NewVariableNotFoundError(key)
}

// CheckFullyObserved verifies that the named columns have no missing cells.
// The propensity model's covariates must be observed for respondents and
// non-respondents alike; this is the premise of the method.
func (f *Frame) CheckFullyObserved(keys []core.VariableKey) error {
	for _, key := range keys {
		col, err := f.Column(key)
		if err != nil {
			return err
		}
		for i, v := range col {
			if math.IsNaN(v) {
				return fmt.Errorf("%w: covariate %s missing at row %d", core.ErrInsufficientData, key, i)
			}
		}
	}
	return nil
}

// Replicate returns a new frame with every row repeated k times, preserving
// column order. Used to study how estimates behave as the sample grows while
// per-unit structure stays fixed.
func (f *Frame) Replicate(k int) (*Frame, error) {
	if k < 1 {
		return nil, fmt.Errorf("replication factor must be >= 1, got %d", k)
	}
	out := NewFrame()
	for j, key := range f.keys {
		col := make([]float64, 0, f.rows*k)
		for r := 0; r < k; r++ {
			col = append(col, f.columns[j]...)
		}
		if err := out.AddColumn(key, col, f.types[j]); err != nil {
			return nil, err
		}
	}
	return out, nil
}
