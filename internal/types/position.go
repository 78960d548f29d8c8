package types

import (
	"time"

	"github.com/moznion/go-optional"
	"github.com/shopspring/decimal"
)

type PositionSide string

const (
	PositionSideFlat  PositionSide = "FLAT"
	PositionSideLong  PositionSide = "LONG"
	PositionSideShort PositionSide = "SHORT"
)

// Sign returns +1 for long, -1 for short and 0 when flat.
func (s PositionSide) Sign() int {
	switch s {
	case PositionSideLong:
		return 1
	case PositionSideShort:
		return -1
	case PositionSideFlat:
		return 0
	default:
		return 0
	}
}

// Opposite returns the other trading side. Flat stays flat.
func (s PositionSide) Opposite() PositionSide {
	switch s {
	case PositionSideLong:
		return PositionSideShort
	case PositionSideShort:
		return PositionSideLong
	case PositionSideFlat:
		return PositionSideFlat
	default:
		return PositionSideFlat
	}
}

// Action is what the position state machine did on a bar.
type Action string

const (
	ActionOpenLong     Action = "open_long"
	ActionOpenShort    Action = "open_short"
	ActionCloseLong    Action = "close_long"
	ActionCloseShort   Action = "close_short"
	ActionReverseLong  Action = "reverse_long"
	ActionReverseShort Action = "reverse_short"
	ActionHold         Action = "hold"
	ActionNone         Action = "none"
)

// Direction is the order direction implied by the action: +1 buys, -1 sells.
// A close reports the exit direction, the opposite of the side it closes.
func (a Action) Direction() int {
	switch a {
	case ActionOpenLong, ActionCloseShort, ActionReverseLong:
		return 1
	case ActionOpenShort, ActionCloseLong, ActionReverseShort:
		return -1
	case ActionHold, ActionNone:
		return 0
	default:
		return 0
	}
}

type ExitReason string

const (
	ExitReasonStopLoss   ExitReason = "stop_loss"
	ExitReasonTakeProfit ExitReason = "take_profit"
	ExitReasonReverse    ExitReason = "reverse"
)

// PositionRecord is the live position of one strategy instance.
// A flat record has every optional price and time field unset.
type PositionRecord struct {
	Side       PositionSide                     `json:"side" yaml:"side"`
	EntryPrice optional.Option[float64]         `json:"entry_price" yaml:"entry_price"`
	StopLoss   optional.Option[float64]         `json:"stop_loss" yaml:"stop_loss"`
	StopProfit optional.Option[float64]         `json:"stop_profit" yaml:"stop_profit"`
	OpenedAt   optional.Option[time.Time]       `json:"opened_at" yaml:"opened_at"`
	Notional   optional.Option[decimal.Decimal] `json:"notional" yaml:"notional"`

	// LastProcessed is the time of the newest bar already applied.
	LastProcessed optional.Option[time.Time] `json:"last_processed" yaml:"last_processed"`
}

// NewFlatPosition returns a record with no open position.
func NewFlatPosition() PositionRecord {
	return PositionRecord{
		Side:          PositionSideFlat,
		EntryPrice:    optional.None[float64](),
		StopLoss:      optional.None[float64](),
		StopProfit:    optional.None[float64](),
		OpenedAt:      optional.None[time.Time](),
		Notional:      optional.None[decimal.Decimal](),
		LastProcessed: optional.None[time.Time](),
	}
}

func (p PositionRecord) IsFlat() bool {
	return p.Side == PositionSideFlat || p.Side == ""
}

// Consistent reports whether the side agrees with the presence of the bounds.
func (p PositionRecord) Consistent() bool {
	set := []bool{p.EntryPrice.IsSome(), p.StopLoss.IsSome(), p.StopProfit.IsSome(), p.OpenedAt.IsSome(), p.Notional.IsSome()}
	for _, s := range set {
		if s == p.IsFlat() {
			return false
		}
	}

	return p.IsFlat() || p.Side == PositionSideLong || p.Side == PositionSideShort
}
