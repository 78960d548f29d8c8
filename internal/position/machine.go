// Package position tracks one strategy's position through its
// open, hold and close lifecycle.
//
// Per bar the machine checks, in order: entry from flat, exit on a stop
// breach, optional reversal, hold. Bounds are fixed at entry and carried
// unchanged while the position is held.
package position

import (
	"math"
	"time"

	"github.com/moznion/go-optional"
	"github.com/rxtech-lab/argo-signal/internal/indicator"
	"github.com/rxtech-lab/argo-signal/internal/types"
	"github.com/rxtech-lab/argo-signal/pkg/errors"
	"github.com/shopspring/decimal"
)

// Input is what the machine reads from one valid frame row.
type Input struct {
	Time       time.Time
	Close      float64
	High       float64
	Low        float64
	Volatility float64
	Signal     types.SignalType
}

// Outcome records what happened on one bar.
type Outcome struct {
	Time       time.Time
	Signal     types.SignalType
	Action     types.Action
	ExitReason types.ExitReason
	Record     types.PositionRecord
}

// Machine owns the live PositionRecord. It is not safe for concurrent use;
// only the production loop drives it.
type Machine struct {
	cfg    Config
	record types.PositionRecord
}

func NewMachine(cfg Config) (*Machine, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return &Machine{
		cfg:    cfg,
		record: types.NewFlatPosition(),
	}, nil
}

// Record returns a copy of the live record.
func (m *Machine) Record() types.PositionRecord {
	return m.record
}

func (m *Machine) Config() Config {
	return m.cfg
}

// Restore replaces the live record, for example from a journal on restart.
func (m *Machine) Restore(record types.PositionRecord) error {
	if !record.Consistent() {
		return errors.Newf(errors.ErrCodePositionCorrupted, "record with side %s has inconsistent bounds", record.Side)
	}

	m.record = record

	return nil
}

// Apply runs every input newer than the last processed bar. The live record
// changes only if every transition succeeds.
func (m *Machine) Apply(inputs []Input) ([]Outcome, error) {
	pending := m.pending(inputs)
	next := m.record
	outcomes := make([]Outcome, 0, len(pending))

	for _, in := range pending {
		var (
			outcome Outcome
			err     error
		)

		next, outcome, err = m.Transition(next, in)
		if err != nil {
			return nil, errors.Wrapf(errors.GetCode(err), err, "bar %s", in.Time.Format(time.RFC3339))
		}

		outcomes = append(outcomes, outcome)
	}

	m.record = next

	return outcomes, nil
}

func (m *Machine) pending(inputs []Input) []Input {
	if m.record.LastProcessed.IsNone() {
		if !m.cfg.ReplayHistory && len(inputs) > 0 {
			return inputs[len(inputs)-1:]
		}

		return inputs
	}

	last := m.record.LastProcessed.Unwrap()
	for i, in := range inputs {
		if in.Time.After(last) {
			return inputs[i:]
		}
	}

	return nil
}

// Transition is the pure per-bar step from prev.
func (m *Machine) Transition(prev types.PositionRecord, in Input) (types.PositionRecord, Outcome, error) {
	if !finitePositive(in.Close) {
		return prev, Outcome{}, errors.Newf(errors.ErrCodeInvalidPrice, "close %v is not a positive price", in.Close)
	}

	if !prev.Consistent() {
		return prev, Outcome{}, errors.Newf(errors.ErrCodePositionCorrupted, "record with side %s has inconsistent bounds", prev.Side)
	}

	var (
		next   types.PositionRecord
		action types.Action
		reason types.ExitReason
		err    error
	)

	switch {
	case prev.IsFlat() && in.Signal == types.SignalTypeLongEntry:
		next, err = m.open(types.PositionSideLong, in)
		action = types.ActionOpenLong
	case prev.IsFlat() && in.Signal == types.SignalTypeShortEntry:
		next, err = m.open(types.PositionSideShort, in)
		action = types.ActionOpenShort
	case prev.IsFlat():
		next = types.NewFlatPosition()
		action = types.ActionNone
	default:
		next, action, reason, err = m.manage(prev, in)
	}

	if err != nil {
		return prev, Outcome{}, err
	}

	next.LastProcessed = optional.Some(in.Time)

	return next, Outcome{
		Time:       in.Time,
		Signal:     in.Signal,
		Action:     action,
		ExitReason: reason,
		Record:     next,
	}, nil
}

// manage handles a held position: exit first, then reversal, then hold.
func (m *Machine) manage(prev types.PositionRecord, in Input) (types.PositionRecord, types.Action, types.ExitReason, error) {
	if reason, hit := m.exitHit(prev, in); hit {
		action := types.ActionCloseLong
		if prev.Side == types.PositionSideShort {
			action = types.ActionCloseShort
		}

		return types.NewFlatPosition(), action, reason, nil
	}

	if m.cfg.Reverse && in.Signal.Direction() == -prev.Side.Sign() {
		side := prev.Side.Opposite()

		next, err := m.open(side, in)
		if err != nil {
			return prev, "", "", err
		}

		action := types.ActionReverseLong
		if side == types.PositionSideShort {
			action = types.ActionReverseShort
		}

		return next, action, types.ExitReasonReverse, nil
	}

	return prev, types.ActionHold, "", nil
}

// exitHit checks the stop loss before the take profit, so a bar breaching
// both closes as a loss.
func (m *Machine) exitHit(p types.PositionRecord, in Input) (types.ExitReason, bool) {
	sl := p.StopLoss.Unwrap()
	tp := p.StopProfit.Unwrap()

	adverse, favorable := in.Close, in.Close
	if m.cfg.ExitMode == ExitModeRange {
		if p.Side == types.PositionSideLong {
			adverse, favorable = in.Low, in.High
		} else {
			adverse, favorable = in.High, in.Low
		}
	}

	if p.Side == types.PositionSideLong {
		switch {
		case m.cfg.ExitMode == ExitModeRange && adverse < sl:
			return types.ExitReasonStopLoss, true
		case m.cfg.ExitMode == ExitModeClose && adverse <= sl:
			return types.ExitReasonStopLoss, true
		case favorable > tp:
			return types.ExitReasonTakeProfit, true
		}

		return "", false
	}

	switch {
	case adverse >= sl:
		return types.ExitReasonStopLoss, true
	case m.cfg.ExitMode == ExitModeRange && favorable <= tp:
		return types.ExitReasonTakeProfit, true
	case m.cfg.ExitMode == ExitModeClose && favorable < tp:
		return types.ExitReasonTakeProfit, true
	}

	return "", false
}

func (m *Machine) open(side types.PositionSide, in Input) (types.PositionRecord, error) {
	if !finitePositive(in.Volatility) {
		return types.PositionRecord{}, errors.Newf(errors.ErrCodeInvalidVolatility, "volatility unit %v is not positive", in.Volatility)
	}

	entry := in.Close
	lossDistance := m.cfg.LossMultiple * in.Volatility
	profitDistance := m.cfg.ProfitMultiple * in.Volatility

	sl, tp := entry-lossDistance, entry+profitDistance
	if side == types.PositionSideShort {
		sl, tp = entry+lossDistance, entry-profitDistance
	}

	return types.PositionRecord{
		Side:          side,
		EntryPrice:    optional.Some(entry),
		StopLoss:      optional.Some(sl),
		StopProfit:    optional.Some(tp),
		OpenedAt:      optional.Some(in.Time),
		Notional:      optional.Some(Notional(m.cfg)),
		LastProcessed: optional.None[time.Time](),
	}, nil
}

// SignedNotional is the record's notional with the side's sign.
func SignedNotional(p types.PositionRecord) decimal.Decimal {
	if p.IsFlat() || p.Notional.IsNone() {
		return decimal.Zero
	}

	return Signed(p.Notional.Unwrap(), p.Side.Sign())
}

// InputsFromFrame collects one Input per valid frame row.
func InputsFromFrame(frame *indicator.Frame, signals []types.SignalType, volatilityColumn string) ([]Input, error) {
	if len(signals) != frame.Len() {
		return nil, errors.Newf(errors.ErrCodeIndicatorCalculation, "%d signals for %d rows", len(signals), frame.Len())
	}

	if _, err := frame.Column(volatilityColumn); err != nil {
		return nil, err
	}

	inputs := make([]Input, 0, frame.Len())

	for i := 0; i < frame.Len(); i++ {
		if !frame.Valid(i) {
			continue
		}

		closePrice, _ := frame.Value(indicator.ColumnClose, i)
		high, _ := frame.Value(indicator.ColumnHigh, i)
		low, _ := frame.Value(indicator.ColumnLow, i)
		vol, _ := frame.Value(volatilityColumn, i)

		inputs = append(inputs, Input{
			Time:       frame.Times[i],
			Close:      closePrice,
			High:       high,
			Low:        low,
			Volatility: vol,
			Signal:     signals[i],
		})
	}

	return inputs, nil
}

func finitePositive(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0) && v > 0
}
