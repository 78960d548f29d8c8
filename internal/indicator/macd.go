package indicator

import (
	"github.com/rxtech-lab/argo-signal/internal/types"
)

// MACD writes <name>_diff (fast EMA - slow EMA), <name>_dea (signal EMA of diff),
// <name>_hist (diff - dea) and the diff/dea crossover markers <name>_gx, <name>_dx.
type MACD struct {
	name   string
	fast   int
	slow   int
	signal int
}

func NewMACD(name string, fast, slow, signal int) *MACD {
	return &MACD{
		name:   name,
		fast:   fast,
		slow:   slow,
		signal: signal,
	}
}

func buildMACD(spec Spec) (Indicator, error) {
	fast, err := intParam(spec, "fast", 12)
	if err != nil {
		return nil, err
	}

	slow, err := intParam(spec, "slow", 26)
	if err != nil {
		return nil, err
	}

	signal, err := intParam(spec, "signal", 9)
	if err != nil {
		return nil, err
	}

	return NewMACD(spec.Name, fast, slow, signal), nil
}

func (m *MACD) Name() string              { return m.name }
func (m *MACD) Type() types.IndicatorType { return types.IndicatorTypeMACD }

func (m *MACD) Warmup() int {
	return max(m.fast, m.slow) - 1 + m.signal - 1
}

func (m *MACD) Columns() []string {
	return []string{
		column(m.name, "diff"),
		column(m.name, "dea"),
		column(m.name, "hist"),
		column(m.name, "gx"),
		column(m.name, "dx"),
	}
}

func (m *MACD) Compute(bars []types.Bar) (map[string][]float64, error) {
	closes := types.Series(bars, types.PriceSourceClose)
	fast := ExpMA(closes, m.fast)
	slow := ExpMA(closes, m.slow)

	diff := make([]float64, len(closes))
	for i := range closes {
		diff[i] = fast[i] - slow[i]
	}

	dea := ExpMA(diff, m.signal)

	hist := make([]float64, len(closes))
	for i := range closes {
		hist[i] = diff[i] - dea[i]
	}

	gx, dx := Crossover(diff, dea)

	return map[string][]float64{
		column(m.name, "diff"): diff,
		column(m.name, "dea"):  dea,
		column(m.name, "hist"): hist,
		column(m.name, "gx"):   gx,
		column(m.name, "dx"):   dx,
	}, nil
}
