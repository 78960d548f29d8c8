package indicator

import (
	"github.com/rxtech-lab/argo-signal/internal/types"
)

// MA is a simple moving average of one bar field.
type MA struct {
	name   string
	source types.PriceSource
	period int
}

func NewMA(name string, source types.PriceSource, period int) *MA {
	return &MA{
		name:   name,
		source: source,
		period: period,
	}
}

func buildMA(spec Spec) (Indicator, error) {
	period, err := intParam(spec, "length", 20)
	if err != nil {
		return nil, err
	}

	return NewMA(spec.Name, sourceOrClose(spec.Source), period), nil
}

func (m *MA) Name() string              { return m.name }
func (m *MA) Type() types.IndicatorType { return types.IndicatorTypeSMA }
func (m *MA) Warmup() int               { return m.period - 1 }
func (m *MA) Columns() []string         { return []string{m.name} }

func (m *MA) Compute(bars []types.Bar) (map[string][]float64, error) {
	return map[string][]float64{
		m.name: SMA(types.Series(bars, m.source), m.period),
	}, nil
}

func sourceOrClose(s types.PriceSource) types.PriceSource {
	if s == "" {
		return types.PriceSourceClose
	}

	return s
}
