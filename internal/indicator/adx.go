package indicator

import (
	"math"

	"github.com/rxtech-lab/argo-signal/internal/types"
)

// ADX writes <name> (average directional index), <name>_plus_di and <name>_minus_di,
// all Wilder smoothed and bounded to [0, 100].
type ADX struct {
	name   string
	period int
}

func NewADX(name string, period int) *ADX {
	return &ADX{
		name:   name,
		period: period,
	}
}

func buildADX(spec Spec) (Indicator, error) {
	period, err := intParam(spec, "length", 14)
	if err != nil {
		return nil, err
	}

	return NewADX(spec.Name, period), nil
}

func (a *ADX) Name() string              { return a.name }
func (a *ADX) Type() types.IndicatorType { return types.IndicatorTypeADX }
func (a *ADX) Warmup() int               { return 2*a.period - 1 }

func (a *ADX) Columns() []string {
	return []string{a.name, column(a.name, "plus_di"), column(a.name, "minus_di")}
}

func (a *ADX) Compute(bars []types.Bar) (map[string][]float64, error) {
	high := types.Series(bars, types.PriceSourceHigh)
	low := types.Series(bars, types.PriceSourceLow)
	closes := types.Series(bars, types.PriceSourceClose)

	plusDM := NaNs(len(bars))
	minusDM := NaNs(len(bars))

	for i := 1; i < len(bars); i++ {
		up := high[i] - high[i-1]
		down := low[i-1] - low[i]
		plusDM[i] = 0
		minusDM[i] = 0

		if up > down && up > 0 {
			plusDM[i] = up
		}

		if down > up && down > 0 {
			minusDM[i] = down
		}
	}

	atr := RMA(TrueRange(high, low, closes), a.period)
	smoothPlus := RMA(plusDM, a.period)
	smoothMinus := RMA(minusDM, a.period)

	plusDI := NaNs(len(bars))
	minusDI := NaNs(len(bars))
	dx := NaNs(len(bars))

	for i := range bars {
		if math.IsNaN(atr[i]) {
			continue
		}

		if atr[i] == 0 {
			plusDI[i], minusDI[i] = 0, 0
		} else {
			plusDI[i] = 100 * smoothPlus[i] / atr[i]
			minusDI[i] = 100 * smoothMinus[i] / atr[i]
		}

		sum := plusDI[i] + minusDI[i]
		if sum == 0 {
			dx[i] = 0

			continue
		}

		dx[i] = 100 * math.Abs(plusDI[i]-minusDI[i]) / sum
	}

	return map[string][]float64{
		a.name:                     RMA(dx, a.period),
		column(a.name, "plus_di"):  plusDI,
		column(a.name, "minus_di"): minusDI,
	}, nil
}
