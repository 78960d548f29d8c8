package indicator

import (
	"math"

	"github.com/rxtech-lab/argo-signal/internal/types"
)

// Engulfing reads +1 when a bar closes above the high of a preceding down bar,
// -1 when it closes below the low of a preceding up bar, else 0.
type Engulfing struct {
	name string
}

func NewEngulfing(name string) *Engulfing {
	return &Engulfing{name: name}
}

func buildEngulfing(spec Spec) (Indicator, error) {
	return NewEngulfing(spec.Name), nil
}

func (e *Engulfing) Name() string              { return e.name }
func (e *Engulfing) Type() types.IndicatorType { return types.IndicatorTypeEngulfing }
func (e *Engulfing) Warmup() int               { return 1 }
func (e *Engulfing) Columns() []string         { return []string{e.name} }

func (e *Engulfing) Compute(bars []types.Bar) (map[string][]float64, error) {
	out := NaNs(len(bars))

	for i := 1; i < len(bars); i++ {
		prev, cur := bars[i-1], bars[i]
		prevBody := prev.Close - prev.Open

		switch {
		case prevBody > 0 && cur.Close < prev.Low:
			out[i] = -1
		case prevBody < 0 && cur.Close > prev.High:
			out[i] = 1
		default:
			out[i] = 0
		}
	}

	return map[string][]float64{e.name: out}, nil
}

// Hammer reads +1 for a reversal up bar whose lower wick is at least k bodies long
// after a down bar, -1 for the mirrored shooting star after an up bar, else 0.
type Hammer struct {
	name string
	k    float64
}

func NewHammer(name string, k float64) *Hammer {
	return &Hammer{
		name: name,
		k:    k,
	}
}

func buildHammer(spec Spec) (Indicator, error) {
	k, err := floatParam(spec, "k", 3)
	if err != nil {
		return nil, err
	}

	return NewHammer(spec.Name, k), nil
}

func (h *Hammer) Name() string              { return h.name }
func (h *Hammer) Type() types.IndicatorType { return types.IndicatorTypeHammer }
func (h *Hammer) Warmup() int               { return 1 }
func (h *Hammer) Columns() []string         { return []string{h.name} }

func (h *Hammer) Compute(bars []types.Bar) (map[string][]float64, error) {
	out := NaNs(len(bars))

	for i := 1; i < len(bars); i++ {
		prevBody := bars[i-1].Close - bars[i-1].Open
		cur := bars[i]
		body := cur.Close - cur.Open

		var upWick, downWick float64
		if body > 0 {
			upWick = cur.High - cur.Close
			downWick = cur.Open - cur.Low
		} else {
			upWick = cur.High - cur.Open
			downWick = cur.Close - cur.Low
		}

		switch {
		case prevBody > 0 && body < 0 && upWick >= math.Abs(body)*h.k:
			out[i] = -1
		case prevBody < 0 && body > 0 && downWick >= math.Abs(body)*h.k:
			out[i] = 1
		default:
			out[i] = 0
		}
	}

	return map[string][]float64{h.name: out}, nil
}
