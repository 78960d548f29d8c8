package types

import "time"

// Bar is one OHLCV sample for a fixed interval. Time is the bar open time.
type Bar struct {
	Time   time.Time `json:"time" yaml:"time"`
	Open   float64   `json:"open" yaml:"open"`
	High   float64   `json:"high" yaml:"high"`
	Low    float64   `json:"low" yaml:"low"`
	Close  float64   `json:"close" yaml:"close"`
	Volume float64   `json:"volume" yaml:"volume"`
}

// PriceSource names the Bar field an indicator reads.
type PriceSource string

const (
	PriceSourceOpen   PriceSource = "open"
	PriceSourceHigh   PriceSource = "high"
	PriceSourceLow    PriceSource = "low"
	PriceSourceClose  PriceSource = "close"
	PriceSourceVolume PriceSource = "volume"
)

// Value returns the field of b selected by s. Unknown sources read Close.
func (s PriceSource) Value(b Bar) float64 {
	switch s {
	case PriceSourceOpen:
		return b.Open
	case PriceSourceHigh:
		return b.High
	case PriceSourceLow:
		return b.Low
	case PriceSourceVolume:
		return b.Volume
	case PriceSourceClose:
		return b.Close
	default:
		return b.Close
	}
}

// Series extracts one field across bars.
func Series(bars []Bar, source PriceSource) []float64 {
	out := make([]float64, len(bars))
	for i, b := range bars {
		out[i] = source.Value(b)
	}

	return out
}
