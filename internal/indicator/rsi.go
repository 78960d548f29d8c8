package indicator

import (
	"math"

	"github.com/rxtech-lab/argo-signal/internal/types"
)

// RSIValues computes Wilder's relative strength index over closes.
// A window with neither gains nor losses reads 50.
func RSIValues(closes []float64, period int) []float64 {
	gains := NaNs(len(closes))
	losses := NaNs(len(closes))

	for i := 1; i < len(closes); i++ {
		change := closes[i] - closes[i-1]
		gains[i] = math.Max(change, 0)
		losses[i] = math.Max(-change, 0)
	}

	avgGain := RMA(gains, period)
	avgLoss := RMA(losses, period)

	out := NaNs(len(closes))
	for i := range closes {
		if math.IsNaN(avgGain[i]) || math.IsNaN(avgLoss[i]) {
			continue
		}

		total := avgGain[i] + avgLoss[i]
		if total == 0 {
			out[i] = 50

			continue
		}

		out[i] = 100 * avgGain[i] / total
	}

	return out
}

// RSI exposes RSIValues as a single column.
type RSI struct {
	name   string
	period int
}

func NewRSI(name string, period int) *RSI {
	return &RSI{
		name:   name,
		period: period,
	}
}

func buildRSI(spec Spec) (Indicator, error) {
	period, err := intParam(spec, "length", 14)
	if err != nil {
		return nil, err
	}

	return NewRSI(spec.Name, period), nil
}

func (r *RSI) Name() string              { return r.name }
func (r *RSI) Type() types.IndicatorType { return types.IndicatorTypeRSI }
func (r *RSI) Warmup() int               { return r.period }
func (r *RSI) Columns() []string         { return []string{r.name} }

func (r *RSI) Compute(bars []types.Bar) (map[string][]float64, error) {
	return map[string][]float64{
		r.name: RSIValues(types.Series(bars, types.PriceSourceClose), r.period),
	}, nil
}

// StochRSI applies the stochastic oscillator to RSI.
//
// Columns: <name>_k, <name>_d and the k/d crossover markers <name>_gx, <name>_dx.
type StochRSI struct {
	name      string
	length    int
	rsiLength int
	k         int
	d         int
}

func NewStochRSI(name string, length, rsiLength, k, d int) *StochRSI {
	return &StochRSI{
		name:      name,
		length:    length,
		rsiLength: rsiLength,
		k:         k,
		d:         d,
	}
}

func buildStochRSI(spec Spec) (Indicator, error) {
	length, err := intParam(spec, "length", 14)
	if err != nil {
		return nil, err
	}

	rsiLength, err := intParam(spec, "rsi_length", 14)
	if err != nil {
		return nil, err
	}

	k, err := intParam(spec, "k", 3)
	if err != nil {
		return nil, err
	}

	d, err := intParam(spec, "d", 3)
	if err != nil {
		return nil, err
	}

	return NewStochRSI(spec.Name, length, rsiLength, k, d), nil
}

func (s *StochRSI) Name() string              { return s.name }
func (s *StochRSI) Type() types.IndicatorType { return types.IndicatorTypeStochRSI }

func (s *StochRSI) Warmup() int {
	return s.rsiLength + s.length - 1 + s.k - 1 + s.d - 1
}

func (s *StochRSI) Columns() []string {
	return []string{column(s.name, "k"), column(s.name, "d"), column(s.name, "gx"), column(s.name, "dx")}
}

func (s *StochRSI) Compute(bars []types.Bar) (map[string][]float64, error) {
	rsi := RSIValues(types.Series(bars, types.PriceSourceClose), s.rsiLength)
	lowest := RollingMin(rsi, s.length)
	highest := RollingMax(rsi, s.length)

	stoch := NaNs(len(rsi))
	for i := range rsi {
		if math.IsNaN(lowest[i]) || math.IsNaN(highest[i]) {
			continue
		}

		span := highest[i] - lowest[i]
		if span == 0 {
			stoch[i] = 50

			continue
		}

		stoch[i] = 100 * (rsi[i] - lowest[i]) / span
	}

	k := SMA(stoch, s.k)
	d := SMA(k, s.d)
	gx, dx := Crossover(k, d)

	return map[string][]float64{
		column(s.name, "k"):  k,
		column(s.name, "d"):  d,
		column(s.name, "gx"): gx,
		column(s.name, "dx"): dx,
	}, nil
}
