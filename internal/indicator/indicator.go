package indicator

import (
	"github.com/rxtech-lab/argo-signal/internal/types"
)

// Indicator turns a bar window into one or more named columns of the same length.
type Indicator interface {
	// Name is the column prefix this instance writes.
	Name() string
	Type() types.IndicatorType
	// Warmup is the index of the first valid output row.
	Warmup() int
	// Columns lists the column names Compute returns.
	Columns() []string
	Compute(bars []types.Bar) (map[string][]float64, error)
}

// Spec configures one indicator instance.
type Spec struct {
	Name      string              `yaml:"name" json:"name" validate:"required" jsonschema:"title=Name,description=Column prefix written by the indicator"`
	Type      types.IndicatorType `yaml:"type" json:"type" validate:"required" jsonschema:"title=Type,enum=sma,enum=ema,enum=dema,enum=rsi,enum=stochrsi,enum=macd,enum=adx,enum=atr,enum=bbands,enum=engulfing,enum=hammer,enum=ma_cross"`
	Source    types.PriceSource   `yaml:"source,omitempty" json:"source,omitempty" jsonschema:"title=Source,description=Bar field for single-input averages"`
	Smoothing string              `yaml:"smoothing,omitempty" json:"smoothing,omitempty" jsonschema:"title=Smoothing,enum=rma,enum=ema,enum=sma"`
	Params    map[string]float64  `yaml:"params,omitempty" json:"params,omitempty" jsonschema:"title=Params"`
}

// column joins an instance name with an output suffix.
func column(name, suffix string) string {
	return name + "_" + suffix
}
