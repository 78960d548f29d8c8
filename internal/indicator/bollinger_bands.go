package indicator

import (
	"github.com/rxtech-lab/argo-signal/internal/types"
)

// BollingerBands writes <name>_upper, <name>_middle and <name>_lower.
// The band width uses the population standard deviation.
type BollingerBands struct {
	name       string
	period     int
	multiplier float64
}

func NewBollingerBands(name string, period int, multiplier float64) *BollingerBands {
	return &BollingerBands{
		name:       name,
		period:     period,
		multiplier: multiplier,
	}
}

func buildBollingerBands(spec Spec) (Indicator, error) {
	period, err := intParam(spec, "length", 20)
	if err != nil {
		return nil, err
	}

	multiplier, err := floatParam(spec, "std", 2)
	if err != nil {
		return nil, err
	}

	return NewBollingerBands(spec.Name, period, multiplier), nil
}

func (b *BollingerBands) Name() string              { return b.name }
func (b *BollingerBands) Type() types.IndicatorType { return types.IndicatorTypeBollingerBands }
func (b *BollingerBands) Warmup() int               { return b.period - 1 }

func (b *BollingerBands) Columns() []string {
	return []string{column(b.name, "upper"), column(b.name, "middle"), column(b.name, "lower")}
}

func (b *BollingerBands) Compute(bars []types.Bar) (map[string][]float64, error) {
	closes := types.Series(bars, types.PriceSourceClose)
	middle := SMA(closes, b.period)
	std := StdDev(closes, b.period)

	upper := make([]float64, len(closes))
	lower := make([]float64, len(closes))

	for i := range closes {
		upper[i] = middle[i] + b.multiplier*std[i]
		lower[i] = middle[i] - b.multiplier*std[i]
	}

	return map[string][]float64{
		column(b.name, "upper"):  upper,
		column(b.name, "middle"): middle,
		column(b.name, "lower"):  lower,
	}, nil
}
