package indicator

import (
	"math"
	"sort"
	"time"

	"github.com/rxtech-lab/argo-signal/internal/types"
	"github.com/rxtech-lab/argo-signal/pkg/errors"
)

// Base bar columns present in every frame.
const (
	ColumnOpen   = "open"
	ColumnHigh   = "high"
	ColumnLow    = "low"
	ColumnClose  = "close"
	ColumnVolume = "volume"
)

// Frame is the column oriented feature set for one bar window.
// Rows before Warmup, and rows holding a NaN in any column, are invalid.
type Frame struct {
	Times   []time.Time
	Columns map[string][]float64
	Warmup  int
}

// FeatureRow is one row of a Frame.
type FeatureRow struct {
	Index  int
	Time   time.Time
	Values map[string]float64
	Valid  bool
}

func newFrame(bars []types.Bar) *Frame {
	times := make([]time.Time, len(bars))
	for i, b := range bars {
		times[i] = b.Time
	}

	return &Frame{
		Times: times,
		Columns: map[string][]float64{
			ColumnOpen:   types.Series(bars, types.PriceSourceOpen),
			ColumnHigh:   types.Series(bars, types.PriceSourceHigh),
			ColumnLow:    types.Series(bars, types.PriceSourceLow),
			ColumnClose:  types.Series(bars, types.PriceSourceClose),
			ColumnVolume: types.Series(bars, types.PriceSourceVolume),
		},
		Warmup: 0,
	}
}

// NewFrame assembles a frame from precomputed columns. Every column must
// have one value per time.
func NewFrame(times []time.Time, columns map[string][]float64, warmup int) (*Frame, error) {
	for name, col := range columns {
		if len(col) != len(times) {
			return nil, errors.Newf(errors.ErrCodeIndicatorCalculation, "column %s has %d values for %d rows", name, len(col), len(times))
		}
	}

	return &Frame{
		Times:   times,
		Columns: columns,
		Warmup:  warmup,
	}, nil
}

func (f *Frame) Len() int {
	return len(f.Times)
}

// Ready reports whether at least one row is past the warm-up.
func (f *Frame) Ready() bool {
	return f.Len() > f.Warmup
}

func (f *Frame) Column(name string) ([]float64, error) {
	col, ok := f.Columns[name]
	if !ok {
		return nil, errors.Newf(errors.ErrCodeColumnNotFound, "column %s not in frame", name)
	}

	return col, nil
}

// Value returns the value of name at row i. ok is false for unknown columns,
// out of range rows and NaN values.
func (f *Frame) Value(name string, i int) (float64, bool) {
	col, exists := f.Columns[name]
	if !exists || i < 0 || i >= len(col) {
		return 0, false
	}

	v := col[i]

	return v, !math.IsNaN(v)
}

func (f *Frame) Valid(i int) bool {
	if i < f.Warmup || i < 0 || i >= f.Len() {
		return false
	}

	for _, col := range f.Columns {
		if math.IsNaN(col[i]) {
			return false
		}
	}

	return true
}

// LastValid returns the index of the newest valid row.
func (f *Frame) LastValid() (int, bool) {
	for i := f.Len() - 1; i >= f.Warmup; i-- {
		if f.Valid(i) {
			return i, true
		}
	}

	return -1, false
}

func (f *Frame) Row(i int) FeatureRow {
	values := make(map[string]float64, len(f.Columns))
	for name, col := range f.Columns {
		values[name] = col[i]
	}

	return FeatureRow{
		Index:  i,
		Time:   f.Times[i],
		Values: values,
		Valid:  f.Valid(i),
	}
}

// ColumnNames returns every column in lexical order.
func (f *Frame) ColumnNames() []string {
	names := make([]string, 0, len(f.Columns))
	for name := range f.Columns {
		names = append(names, name)
	}

	sort.Strings(names)

	return names
}
