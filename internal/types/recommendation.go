package types

import (
	"time"

	"github.com/shopspring/decimal"
)

// Recommendation is the immutable snapshot handed from the production loop
// to the consumption loop.
type Recommendation struct {
	ID       string `json:"id" yaml:"id"`
	Seq      uint64 `json:"seq" yaml:"seq"`
	Symbol   string `json:"symbol" yaml:"symbol"`
	Interval string `json:"interval" yaml:"interval"`
	// Valid is false until the bar window covers every indicator warm-up.
	Valid      bool         `json:"valid" yaml:"valid"`
	Side       PositionSide `json:"side" yaml:"side"`
	Signal     Action       `json:"signal" yaml:"signal"`
	Direction  int          `json:"direction" yaml:"direction"`
	ExitReason ExitReason   `json:"exit_reason,omitempty" yaml:"exit_reason,omitempty"`
	EntryPrice float64      `json:"entry_price" yaml:"entry_price"`
	StopLoss   float64      `json:"stop_loss" yaml:"stop_loss"`
	StopProfit float64      `json:"stop_profit" yaml:"stop_profit"`
	// Position is the signed notional: positive long, negative short, zero flat.
	Position decimal.Decimal `json:"position" yaml:"position"`
	// Quantity is the signed base-asset size, Position / EntryPrice.
	Quantity    decimal.Decimal `json:"quantity" yaml:"quantity"`
	UpdateTime  time.Time       `json:"update_time" yaml:"update_time"`
	GeneratedAt time.Time       `json:"generated_at" yaml:"generated_at"`
}

// Clone returns a copy that shares no mutable state with r.
func (r *Recommendation) Clone() *Recommendation {
	if r == nil {
		return nil
	}

	c := *r

	return &c
}
