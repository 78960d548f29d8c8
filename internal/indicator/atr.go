package indicator

import (
	"github.com/rxtech-lab/argo-signal/internal/types"
	"github.com/rxtech-lab/argo-signal/pkg/errors"
)

const (
	SmoothingRMA = "rma"
	SmoothingEMA = "ema"
	SmoothingSMA = "sma"
)

// ATR is the average true range. It is the volatility unit behind stop distances.
type ATR struct {
	name      string
	period    int
	smoothing string
}

func NewATR(name string, period int, smoothing string) *ATR {
	return &ATR{
		name:      name,
		period:    period,
		smoothing: smoothing,
	}
}

func buildATR(spec Spec) (Indicator, error) {
	period, err := intParam(spec, "length", 14)
	if err != nil {
		return nil, err
	}

	smoothing := spec.Smoothing
	if smoothing == "" {
		smoothing = SmoothingRMA
	}

	if smoothing != SmoothingRMA && smoothing != SmoothingEMA && smoothing != SmoothingSMA {
		return nil, errors.Newf(errors.ErrCodeInvalidParameter, "%s: unknown smoothing %q", spec.Name, smoothing)
	}

	return NewATR(spec.Name, period, smoothing), nil
}

func (a *ATR) Name() string              { return a.name }
func (a *ATR) Type() types.IndicatorType { return types.IndicatorTypeATR }

// Warmup accounts for the first bar having no true range.
func (a *ATR) Warmup() int       { return a.period }
func (a *ATR) Columns() []string { return []string{a.name} }

func (a *ATR) Compute(bars []types.Bar) (map[string][]float64, error) {
	tr := TrueRange(
		types.Series(bars, types.PriceSourceHigh),
		types.Series(bars, types.PriceSourceLow),
		types.Series(bars, types.PriceSourceClose),
	)

	var out []float64

	switch a.smoothing {
	case SmoothingEMA:
		out = ExpMA(tr, a.period)
	case SmoothingSMA:
		out = SMA(tr, a.period)
	default:
		out = RMA(tr, a.period)
	}

	return map[string][]float64{a.name: out}, nil
}
