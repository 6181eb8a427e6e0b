package dataset

import (
	"fmt"
	"math"
	"sort"
	"time"
)

// nanValue pads rows of columns missing from one side of a splice.
var nanValue = math.NaN()

// --------------------------------------------------------------------------
// Dataset Type
// --------------------------------------------------------------------------

// Dataset is a time-indexed array dataset: one shared time index and any
// number of named float columns of the same length, plus free-form string
// attributes. It is the uniform shape every parser produces and the unit the
// versioned merge operates on.
type Dataset struct {
	Times   []time.Time          `json:"times"`
	Columns map[string][]float64 `json:"columns"`
	Attrs   map[string]string    `json:"attrs,omitempty"`
}

// New creates an empty Dataset.
func New() *Dataset {
	return &Dataset{
		Columns: make(map[string][]float64),
		Attrs:   make(map[string]string),
	}
}

// Len returns the number of time steps.
func (d *Dataset) Len() int {
	return len(d.Times)
}

// check verifies that every column has the same length as the time index.
func (d *Dataset) check() error {
	for name, col := range d.Columns {
		if len(col) != len(d.Times) {
			return fmt.Errorf("column %q has %d values for %d timestamps", name, len(col), len(d.Times))
		}
	}
	return nil
}

// MinTime returns the earliest timestamp. The boolean is false for an empty
// dataset.
func (d *Dataset) MinTime() (time.Time, bool) {
	if len(d.Times) == 0 {
		return time.Time{}, false
	}
	min := d.Times[0]
	for _, t := range d.Times[1:] {
		if t.Before(min) {
			min = t
		}
	}
	return min, true
}

// MaxTime returns the latest timestamp. The boolean is false for an empty
// dataset.
func (d *Dataset) MaxTime() (time.Time, bool) {
	if len(d.Times) == 0 {
		return time.Time{}, false
	}
	max := d.Times[0]
	for _, t := range d.Times[1:] {
		if t.After(max) {
			max = t
		}
	}
	return max, true
}

// --------------------------------------------------------------------------
// Row-wise Operations
// --------------------------------------------------------------------------

// SortByTime sorts all rows chronologically. The sort is stable, so rows
// sharing a timestamp keep their relative order (which DropDuplicates relies
// on for its keep-first policy).
func (d *Dataset) SortByTime() {
	idx := make([]int, len(d.Times))
	for i := range idx {
		idx[i] = i
	}
	sort.SliceStable(idx, func(i, j int) bool {
		return d.Times[idx[i]].Before(d.Times[idx[j]])
	})
	d.reorder(idx)
}

// DropDuplicates removes rows whose timestamp was already seen, keeping the
// first occurrence. The dataset must be sorted for duplicates to be adjacent
// in the output ordering sense, but detection itself is order-independent.
func (d *Dataset) DropDuplicates() {
	seen := make(map[int64]bool, len(d.Times))
	keep := make([]int, 0, len(d.Times))
	for i, t := range d.Times {
		ns := t.UTC().UnixNano()
		if seen[ns] {
			continue
		}
		seen[ns] = true
		keep = append(keep, i)
	}
	if len(keep) == len(d.Times) {
		return
	}
	d.reorder(keep)
}

// reorder rebuilds the dataset with rows taken from the given source indices.
func (d *Dataset) reorder(idx []int) {
	times := make([]time.Time, len(idx))
	for i, j := range idx {
		times[i] = d.Times[j]
	}
	cols := make(map[string][]float64, len(d.Columns))
	for name, col := range d.Columns {
		out := make([]float64, len(idx))
		for i, j := range idx {
			out[i] = col[j]
		}
		cols[name] = out
	}
	d.Times = times
	d.Columns = cols
}

// UTCNormalize converts every timestamp to UTC.
func (d *Dataset) UTCNormalize() {
	for i, t := range d.Times {
		d.Times[i] = t.UTC()
	}
}

// --------------------------------------------------------------------------
// Splicing
// --------------------------------------------------------------------------

// Concat splices two datasets along the time axis: rows are concatenated,
// sorted chronologically and rows with duplicate timestamps are dropped.
// With preferNew=true the values of new win on a duplicate timestamp,
// otherwise old wins. Columns present in only one input are padded with NaN
// in rows that came from the other.
func Concat(old, new *Dataset, preferNew bool) (*Dataset, error) {
	if err := old.check(); err != nil {
		return nil, err
	}
	if err := new.check(); err != nil {
		return nil, err
	}

	first, second := old, new
	if preferNew {
		first, second = new, old
	}

	out := New()
	out.Times = append(out.Times, first.Times...)
	out.Times = append(out.Times, second.Times...)

	names := make(map[string]bool)
	for name := range first.Columns {
		names[name] = true
	}
	for name := range second.Columns {
		names[name] = true
	}

	nan := func(n int) []float64 {
		col := make([]float64, n)
		for i := range col {
			col[i] = nanValue
		}
		return col
	}

	for name := range names {
		col := make([]float64, 0, len(out.Times))
		if c, ok := first.Columns[name]; ok {
			col = append(col, c...)
		} else {
			col = append(col, nan(first.Len())...)
		}
		if c, ok := second.Columns[name]; ok {
			col = append(col, c...)
		} else {
			col = append(col, nan(second.Len())...)
		}
		out.Columns[name] = col
	}

	// Attributes of the preferred side win.
	for k, v := range second.Attrs {
		out.Attrs[k] = v
	}
	for k, v := range first.Attrs {
		out.Attrs[k] = v
	}

	// Duplicate detection keeps the first occurrence, and the preferred side
	// was concatenated first.
	out.DropDuplicates()
	out.SortByTime()
	return out, nil
}
