package stattab

import (
	"fmt"
	"math"
	"slices"
	"sort"

	"gonum.org/v1/gonum/stat"
)

// Dataset is ordered rectangular data: a sequence of keyed rows over a fixed
// set of columns. Cell values are numbers or strings; numbers are formatted
// by the table's formatter pipeline, strings pass through.
type Dataset struct {
	columns []string
	rows    []datasetRow
}

type datasetRow struct {
	key   string
	cells map[string]any
}

// NewDataset creates an empty dataset with the given column keys. Column
// order is display order and keys must be unique.
func NewDataset(columns ...string) (*Dataset, error) {
	if len(columns) == 0 {
		return nil, fmt.Errorf("%w: a dataset needs at least one column", ErrColumnMismatch)
	}
	seen := make(map[string]bool, len(columns))
	for _, c := range columns {
		if seen[c] {
			return nil, fmt.Errorf("%w: %q", ErrDuplicateColumn, c)
		}
		seen[c] = true
	}
	return &Dataset{columns: slices.Clone(columns)}, nil
}

// AddRow appends a row. values are matched to columns positionally and must
// cover every column.
func (d *Dataset) AddRow(key string, values ...any) error {
	if len(values) != len(d.columns) {
		return fmt.Errorf("%w: row %q has %d values, dataset has %d columns",
			ErrColumnMismatch, key, len(values), len(d.columns))
	}
	cells := make(map[string]any, len(values))
	for i, col := range d.columns {
		cells[col] = values[i]
	}
	d.rows = append(d.rows, datasetRow{key: key, cells: cells})
	return nil
}

// Columns returns the column keys in display order.
func (d *Dataset) Columns() []string { return slices.Clone(d.columns) }

// Len returns the number of rows.
func (d *Dataset) Len() int { return len(d.rows) }

// Column returns the values of one column in row order.
func (d *Dataset) Column(name string) ([]any, error) {
	if !slices.Contains(d.columns, name) {
		return nil, fmt.Errorf("%w: column %q", ErrNotFound, name)
	}
	out := make([]any, len(d.rows))
	for i, r := range d.rows {
		out[i] = r.cells[name]
	}
	return out, nil
}

// Float64s returns one column converted to float64, failing on any
// non-numeric cell.
func (d *Dataset) Float64s(name string) ([]float64, error) {
	vals, err := d.Column(name)
	if err != nil {
		return nil, err
	}
	out := make([]float64, len(vals))
	for i, v := range vals {
		f, ok := toFloat(v)
		if !ok {
			return nil, fmt.Errorf("%w: column %q row %d is not numeric (%T)", ErrInvalidParam, name, i, v)
		}
		out[i] = f
	}
	return out, nil
}

// toFloat converts any numeric cell value to float64.
func toFloat(v any) (float64, bool) {
	switch x := v.(type) {
	case float64:
		return x, true
	case float32:
		return float64(x), true
	case int:
		return float64(x), true
	case int8:
		return float64(x), true
	case int16:
		return float64(x), true
	case int32:
		return float64(x), true
	case int64:
		return float64(x), true
	case uint:
		return float64(x), true
	case uint8:
		return float64(x), true
	case uint16:
		return float64(x), true
	case uint32:
		return float64(x), true
	case uint64:
		return float64(x), true
	}
	return 0, false
}

// describeStats are the summary rows produced by Describe, in output order.
var describeStats = []string{"count", "mean", "std", "min", "25%", "50%", "75%", "max"}

// Describe computes per-variable summary statistics over the named numeric
// columns and returns them as a new dataset: one column per variable, one
// row per statistic.
func (d *Dataset) Describe(vars ...string) (*Dataset, error) {
	if len(vars) == 0 {
		vars = d.columns
	}
	out, err := NewDataset(vars...)
	if err != nil {
		return nil, err
	}
	cells := make(map[string]map[string]float64, len(describeStats))
	for _, s := range describeStats {
		cells[s] = make(map[string]float64, len(vars))
	}
	for _, v := range vars {
		xs, err := d.Float64s(v)
		if err != nil {
			return nil, err
		}
		sorted := slices.Clone(xs)
		sort.Float64s(sorted)
		cells["count"][v] = float64(len(xs))
		cells["mean"][v] = stat.Mean(xs, nil)
		cells["std"][v] = stat.StdDev(xs, nil)
		cells["min"][v] = quantile(sorted, 0)
		cells["25%"][v] = quantile(sorted, 0.25)
		cells["50%"][v] = quantile(sorted, 0.5)
		cells["75%"][v] = quantile(sorted, 0.75)
		cells["max"][v] = quantile(sorted, 1)
	}
	for _, s := range describeStats {
		row := make([]any, len(vars))
		for i, v := range vars {
			row[i] = cells[s][v]
		}
		if err := out.AddRow(s, row...); err != nil {
			return nil, err
		}
	}
	return out, nil
}

// quantile interpolates linearly over sorted data, matching the convention
// statistical summaries report.
func quantile(sorted []float64, q float64) float64 {
	if len(sorted) == 0 {
		return math.NaN()
	}
	return stat.Quantile(q, stat.LinInterp, sorted, nil)
}
