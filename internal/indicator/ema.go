package indicator

import (
	"github.com/rxtech-lab/argo-signal/internal/types"
)

// EMA is an exponential moving average seeded with the SMA of its first period.
type EMA struct {
	name   string
	source types.PriceSource
	period int
}

func NewEMA(name string, source types.PriceSource, period int) *EMA {
	return &EMA{
		name:   name,
		source: source,
		period: period,
	}
}

func buildEMA(spec Spec) (Indicator, error) {
	period, err := intParam(spec, "length", 20)
	if err != nil {
		return nil, err
	}

	return NewEMA(spec.Name, sourceOrClose(spec.Source), period), nil
}

func (e *EMA) Name() string              { return e.name }
func (e *EMA) Type() types.IndicatorType { return types.IndicatorTypeEMA }
func (e *EMA) Warmup() int               { return e.period - 1 }
func (e *EMA) Columns() []string         { return []string{e.name} }

func (e *EMA) Compute(bars []types.Bar) (map[string][]float64, error) {
	return map[string][]float64{
		e.name: ExpMA(types.Series(bars, e.source), e.period),
	}, nil
}

// DEMA is 2*EMA - EMA(EMA).
type DEMA struct {
	name   string
	source types.PriceSource
	period int
}

func NewDEMA(name string, source types.PriceSource, period int) *DEMA {
	return &DEMA{
		name:   name,
		source: source,
		period: period,
	}
}

func buildDEMA(spec Spec) (Indicator, error) {
	period, err := intParam(spec, "length", 10)
	if err != nil {
		return nil, err
	}

	return NewDEMA(spec.Name, sourceOrClose(spec.Source), period), nil
}

func (d *DEMA) Name() string              { return d.name }
func (d *DEMA) Type() types.IndicatorType { return types.IndicatorTypeDEMA }
func (d *DEMA) Warmup() int               { return 2 * (d.period - 1) }
func (d *DEMA) Columns() []string         { return []string{d.name} }

func (d *DEMA) Compute(bars []types.Bar) (map[string][]float64, error) {
	first := ExpMA(types.Series(bars, d.source), d.period)
	second := ExpMA(first, d.period)

	out := make([]float64, len(first))
	for i := range first {
		out[i] = 2*first[i] - second[i]
	}

	return map[string][]float64{d.name: out}, nil
}
