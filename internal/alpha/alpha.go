// Package alpha holds the preset strategy families. Each preset is data:
// a list of indicator specs, an ordered rule list and the column used as the
// volatility unit for stop distances.
package alpha

import (
	"sort"

	"github.com/rxtech-lab/argo-signal/internal/indicator"
	"github.com/rxtech-lab/argo-signal/internal/signal"
	"github.com/rxtech-lab/argo-signal/pkg/errors"
)

const (
	NameMACDTrend    = "macd_trend"
	NameADXStochRSI  = "adx_stochrsi"
	NameEngulfHammer = "engulf_hammer"
	NameCustom       = "custom"
)

// Strategy is everything the pipeline needs to turn bars into signals.
type Strategy struct {
	Name             string
	Indicators       []indicator.Spec
	Rules            []signal.Rule
	VolatilityColumn string
}

// Params overrides preset defaults. Unknown keys are rejected.
type Params map[string]float64

type preset struct {
	defaults Params
	build    func(p Params) Strategy
}

var presets = map[string]preset{
	NameMACDTrend:    {defaults: macdTrendDefaults, build: macdTrend},
	NameADXStochRSI:  {defaults: adxStochRSIDefaults, build: adxStochRSI},
	NameEngulfHammer: {defaults: engulfHammerDefaults, build: engulfHammer},
}

// Build returns the named preset with params merged over its defaults.
func Build(name string, params Params) (Strategy, error) {
	p, ok := presets[name]
	if !ok {
		return Strategy{}, errors.Newf(errors.ErrCodeUnknownAlpha, "unknown alpha %q", name)
	}

	merged := make(Params, len(p.defaults))
	for k, v := range p.defaults {
		merged[k] = v
	}

	for k, v := range params {
		if _, known := p.defaults[k]; !known {
			return Strategy{}, errors.Newf(errors.ErrCodeInvalidParameter, "alpha %s has no parameter %q", name, k)
		}

		merged[k] = v
	}

	return p.build(merged), nil
}

// Custom wraps user supplied specs and rules.
func Custom(specs []indicator.Spec, rules []signal.Rule, volatilityColumn string) (Strategy, error) {
	if len(specs) == 0 || len(rules) == 0 {
		return Strategy{}, errors.New(errors.ErrCodeInvalidConfiguration, "custom alpha needs indicators and rules")
	}

	if volatilityColumn == "" {
		return Strategy{}, errors.New(errors.ErrCodeMissingParameter, "custom alpha needs a volatility column")
	}

	return Strategy{
		Name:             NameCustom,
		Indicators:       specs,
		Rules:            rules,
		VolatilityColumn: volatilityColumn,
	}, nil
}

// List returns the preset names in lexical order.
func List() []string {
	names := make([]string, 0, len(presets))
	for name := range presets {
		names = append(names, name)
	}

	sort.Strings(names)

	return names
}

// Defaults returns a copy of a preset's default parameters.
func Defaults(name string) (Params, bool) {
	p, ok := presets[name]
	if !ok {
		return nil, false
	}

	out := make(Params, len(p.defaults))
	for k, v := range p.defaults {
		out[k] = v
	}

	return out, true
}
