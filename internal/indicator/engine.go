package indicator

import (
	"github.com/rxtech-lab/argo-signal/internal/types"
	"github.com/rxtech-lab/argo-signal/pkg/errors"
)

// Engine computes a Frame from a bar window. It keeps no state between calls.
type Engine struct {
	indicators []Indicator
	warmup     int
}

// NewEngine builds every spec through registry. Column names must be unique.
func NewEngine(registry IndicatorRegistry, specs []Spec) (*Engine, error) {
	seen := map[string]string{
		ColumnOpen:   "bar",
		ColumnHigh:   "bar",
		ColumnLow:    "bar",
		ColumnClose:  "bar",
		ColumnVolume: "bar",
	}

	indicators := make([]Indicator, 0, len(specs))
	warmup := 0

	for _, spec := range specs {
		ind, err := registry.Build(spec)
		if err != nil {
			return nil, err
		}

		for _, col := range ind.Columns() {
			if owner, dup := seen[col]; dup {
				return nil, errors.Newf(errors.ErrCodeIndicatorAlreadyExists, "column %s from %s already written by %s", col, spec.Name, owner)
			}

			seen[col] = spec.Name
		}

		warmup = max(warmup, ind.Warmup())
		indicators = append(indicators, ind)
	}

	return &Engine{
		indicators: indicators,
		warmup:     warmup,
	}, nil
}

// Warmup is the number of leading rows that are never valid.
func (e *Engine) Warmup() int {
	return e.warmup
}

// Compute returns one row per bar. A window no longer than the warm-up
// yields a frame with every indicator column NaN and no error.
func (e *Engine) Compute(bars []types.Bar) (*Frame, error) {
	for i := 1; i < len(bars); i++ {
		if !bars[i].Time.After(bars[i-1].Time) {
			return nil, errors.Newf(errors.ErrCodeBarOutOfOrder, "bar %d at %s is not after %s", i, bars[i].Time, bars[i-1].Time)
		}
	}

	frame := newFrame(bars)
	frame.Warmup = e.warmup

	if len(bars) <= e.warmup {
		for _, ind := range e.indicators {
			for _, col := range ind.Columns() {
				frame.Columns[col] = NaNs(len(bars))
			}
		}

		return frame, nil
	}

	for _, ind := range e.indicators {
		cols, err := ind.Compute(bars)
		if err != nil {
			return nil, errors.Wrapf(errors.ErrCodeIndicatorCalculation, err, "compute %s", ind.Name())
		}

		for _, col := range ind.Columns() {
			values, ok := cols[col]
			if !ok || len(values) != len(bars) {
				return nil, errors.Newf(errors.ErrCodeIndicatorCalculation, "%s returned a malformed %s column", ind.Name(), col)
			}

			frame.Columns[col] = values
		}
	}

	return frame, nil
}
