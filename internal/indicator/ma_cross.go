package indicator

import (
	"github.com/rxtech-lab/argo-signal/internal/types"
	"github.com/rxtech-lab/argo-signal/pkg/errors"
)

// MACross compares a fast and a slow moving average of one bar field.
// Columns: <name>_fast, <name>_slow, <name>_gx, <name>_dx.
type MACross struct {
	name      string
	source    types.PriceSource
	fast      int
	slow      int
	smoothing string
}

func NewMACross(name string, source types.PriceSource, fast, slow int, smoothing string) *MACross {
	return &MACross{
		name:      name,
		source:    source,
		fast:      fast,
		slow:      slow,
		smoothing: smoothing,
	}
}

func buildMACross(spec Spec) (Indicator, error) {
	fast, err := intParam(spec, "fast", 9)
	if err != nil {
		return nil, err
	}

	slow, err := intParam(spec, "slow", 21)
	if err != nil {
		return nil, err
	}

	if fast >= slow {
		return nil, errors.Newf(errors.ErrCodeInvalidPeriod, "%s: fast period %d must be shorter than slow period %d", spec.Name, fast, slow)
	}

	smoothing := spec.Smoothing
	if smoothing == "" {
		smoothing = SmoothingEMA
	}

	if smoothing != SmoothingEMA && smoothing != SmoothingSMA {
		return nil, errors.Newf(errors.ErrCodeInvalidParameter, "%s: unknown smoothing %q", spec.Name, smoothing)
	}

	return NewMACross(spec.Name, sourceOrClose(spec.Source), fast, slow, smoothing), nil
}

func (m *MACross) Name() string              { return m.name }
func (m *MACross) Type() types.IndicatorType { return types.IndicatorTypeMACross }
func (m *MACross) Warmup() int               { return m.slow - 1 }

func (m *MACross) Columns() []string {
	return []string{column(m.name, "fast"), column(m.name, "slow"), column(m.name, "gx"), column(m.name, "dx")}
}

func (m *MACross) Compute(bars []types.Bar) (map[string][]float64, error) {
	src := types.Series(bars, m.source)

	average := ExpMA
	if m.smoothing == SmoothingSMA {
		average = SMA
	}

	fast := average(src, m.fast)
	slow := average(src, m.slow)
	gx, dx := Crossover(fast, slow)

	return map[string][]float64{
		column(m.name, "fast"): fast,
		column(m.name, "slow"): slow,
		column(m.name, "gx"):   gx,
		column(m.name, "dx"):   dx,
	}, nil
}
