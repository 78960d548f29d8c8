package position

import (
	"math"
	"testing"
	"time"

	"github.com/moznion/go-optional"
	"github.com/rxtech-lab/argo-signal/internal/indicator"
	"github.com/rxtech-lab/argo-signal/internal/types"
	"github.com/rxtech-lab/argo-signal/pkg/errors"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/suite"
)

type MachineTestSuite struct {
	suite.Suite
	cfg   Config
	start time.Time
}

func TestMachineSuite(t *testing.T) {
	suite.Run(t, new(MachineTestSuite))
}

func (suite *MachineTestSuite) SetupTest() {
	suite.cfg = Config{
		ProfitMultiple:    3,
		LossMultiple:      2,
		AccountMoney:      decimal.NewFromInt(1000),
		Leverage:          decimal.NewFromInt(5),
		PositionSizer:     decimal.RequireFromString("0.1"),
		ExitMode:          ExitModeClose,
		Reverse:           false,
		ReplayHistory:     true,
		QuantityPrecision: 3,
	}
	suite.start = time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
}

func (suite *MachineTestSuite) machine(cfg Config) *Machine {
	m, err := NewMachine(cfg)
	suite.Require().NoError(err)

	return m
}

func (suite *MachineTestSuite) bar(i int, closePrice float64, signal types.SignalType) Input {
	return Input{
		Time:       suite.start.Add(time.Duration(i) * time.Minute),
		Close:      closePrice,
		High:       closePrice + 0.5,
		Low:        closePrice - 0.5,
		Volatility: 1,
		Signal:     signal,
	}
}

func (suite *MachineTestSuite) openLong(m *Machine) types.PositionRecord {
	rec, out, err := m.Transition(types.NewFlatPosition(), suite.bar(0, 100, types.SignalTypeLongEntry))
	suite.Require().NoError(err)
	suite.Require().Equal(types.ActionOpenLong, out.Action)

	return rec
}

func (suite *MachineTestSuite) TestOpenLong() {
	rec := suite.openLong(suite.machine(suite.cfg))

	suite.Equal(types.PositionSideLong, rec.Side)
	suite.Equal(100.0, rec.EntryPrice.Unwrap())
	suite.Equal(98.0, rec.StopLoss.Unwrap())
	suite.Equal(103.0, rec.StopProfit.Unwrap())
	suite.Equal(suite.start, rec.OpenedAt.Unwrap())
	suite.True(decimal.NewFromInt(500).Equal(rec.Notional.Unwrap()))
	suite.True(rec.Consistent())
}

func (suite *MachineTestSuite) TestOpenShort() {
	m := suite.machine(suite.cfg)
	rec, out, err := m.Transition(types.NewFlatPosition(), suite.bar(0, 100, types.SignalTypeShortEntry))
	suite.NoError(err)
	suite.Equal(types.ActionOpenShort, out.Action)
	suite.Equal(-1, out.Action.Direction())
	suite.Equal(types.PositionSideShort, rec.Side)
	suite.Equal(102.0, rec.StopLoss.Unwrap())
	suite.Equal(97.0, rec.StopProfit.Unwrap())
	suite.True(decimal.NewFromInt(-500).Equal(SignedNotional(rec)))
}

func (suite *MachineTestSuite) TestStayFlat() {
	m := suite.machine(suite.cfg)
	rec, out, err := m.Transition(types.NewFlatPosition(), suite.bar(0, 100, types.SignalTypeNone))
	suite.NoError(err)
	suite.Equal(types.ActionNone, out.Action)
	suite.True(rec.IsFlat())
	suite.True(rec.EntryPrice.IsNone())
	suite.True(rec.StopLoss.IsNone())
	suite.True(rec.StopProfit.IsNone())
	suite.True(rec.Notional.IsNone())
	suite.Equal(suite.start, rec.LastProcessed.Unwrap())
}

func (suite *MachineTestSuite) TestHoldKeepsBoundsBitForBit() {
	m := suite.machine(suite.cfg)
	rec := suite.openLong(m)

	entry := math.Float64bits(rec.EntryPrice.Unwrap())
	sl := math.Float64bits(rec.StopLoss.Unwrap())
	tp := math.Float64bits(rec.StopProfit.Unwrap())

	closes := []float64{100.5, 99, 101.7, 98.01, 102.99}
	for i, c := range closes {
		in := suite.bar(i+1, c, types.SignalTypeNone)
		// volatility moves every bar and must not leak into the bounds
		in.Volatility = float64(i + 5)

		var (
			out Outcome
			err error
		)

		rec, out, err = m.Transition(rec, in)
		suite.Require().NoError(err)
		suite.Equal(types.ActionHold, out.Action)
		suite.Equal(types.PositionSideLong, rec.Side)
		suite.Equal(entry, math.Float64bits(rec.EntryPrice.Unwrap()))
		suite.Equal(sl, math.Float64bits(rec.StopLoss.Unwrap()))
		suite.Equal(tp, math.Float64bits(rec.StopProfit.Unwrap()))
		suite.Equal(suite.start, rec.OpenedAt.Unwrap())
	}
}

func (suite *MachineTestSuite) TestHoldIgnoresSameSideSignal() {
	m := suite.machine(suite.cfg)
	rec := suite.openLong(m)

	next, out, err := m.Transition(rec, suite.bar(1, 101, types.SignalTypeLongEntry))
	suite.NoError(err)
	suite.Equal(types.ActionHold, out.Action)
	suite.Equal(rec.EntryPrice, next.EntryPrice)
}

func (suite *MachineTestSuite) TestCloseModeExits() {
	tests := []struct {
		name   string
		close  float64
		action types.Action
		reason types.ExitReason
	}{
		{"stop loss touched", 98, types.ActionCloseLong, types.ExitReasonStopLoss},
		{"stop loss crossed", 90, types.ActionCloseLong, types.ExitReasonStopLoss},
		{"take profit touched holds", 103, types.ActionHold, ""},
		{"take profit crossed", 103.01, types.ActionCloseLong, types.ExitReasonTakeProfit},
	}

	for _, tc := range tests {
		suite.Run(tc.name, func() {
			m := suite.machine(suite.cfg)
			rec := suite.openLong(m)

			next, out, err := m.Transition(rec, suite.bar(1, tc.close, types.SignalTypeNone))
			suite.NoError(err)
			suite.Equal(tc.action, out.Action)
			suite.Equal(tc.reason, out.ExitReason)

			if tc.action == types.ActionCloseLong {
				suite.True(next.IsFlat())
				suite.True(next.Consistent())
				suite.Equal(-1, out.Action.Direction(), "closing a long reports a sell")
			}
		})
	}
}

func (suite *MachineTestSuite) TestShortExits() {
	m := suite.machine(suite.cfg)
	rec, _, err := m.Transition(types.NewFlatPosition(), suite.bar(0, 100, types.SignalTypeShortEntry))
	suite.Require().NoError(err)

	_, out, err := m.Transition(rec, suite.bar(1, 102, types.SignalTypeNone))
	suite.NoError(err)
	suite.Equal(types.ActionCloseShort, out.Action)
	suite.Equal(types.ExitReasonStopLoss, out.ExitReason)
	suite.Equal(1, out.Action.Direction())

	_, out, err = m.Transition(rec, suite.bar(1, 96.9, types.SignalTypeNone))
	suite.NoError(err)
	suite.Equal(types.ExitReasonTakeProfit, out.ExitReason)
}

func (suite *MachineTestSuite) TestRangeModeStopLossBeforeTakeProfit() {
	cfg := suite.cfg
	cfg.ExitMode = ExitModeRange
	m := suite.machine(cfg)
	rec := suite.openLong(m)

	// one wide bar breaching both bounds
	wide := Input{
		Time:       suite.start.Add(time.Minute),
		Close:      100,
		High:       110,
		Low:        90,
		Volatility: 1,
		Signal:     types.SignalTypeNone,
	}

	next, out, err := m.Transition(rec, wide)
	suite.NoError(err)
	suite.Equal(types.ActionCloseLong, out.Action)
	suite.Equal(types.ExitReasonStopLoss, out.ExitReason)
	suite.True(next.IsFlat())

	short, _, err := m.Transition(types.NewFlatPosition(), suite.bar(0, 100, types.SignalTypeShortEntry))
	suite.Require().NoError(err)

	_, out, err = m.Transition(short, wide)
	suite.NoError(err)
	suite.Equal(types.ActionCloseShort, out.Action)
	suite.Equal(types.ExitReasonStopLoss, out.ExitReason)
}

func (suite *MachineTestSuite) TestRangeModeBoundaryTouches() {
	cfg := suite.cfg
	cfg.ExitMode = ExitModeRange

	// long: SL 98, TP 103; short: SL 102, TP 97
	tests := []struct {
		name   string
		side   types.SignalType
		high   float64
		low    float64
		action types.Action
		reason types.ExitReason
	}{
		{"long low on stop loss holds", types.SignalTypeLongEntry, 99, 98, types.ActionHold, ""},
		{"long low below stop loss", types.SignalTypeLongEntry, 99, 97.99, types.ActionCloseLong, types.ExitReasonStopLoss},
		{"long high on take profit holds", types.SignalTypeLongEntry, 103, 101, types.ActionHold, ""},
		{"short high on stop loss exits", types.SignalTypeShortEntry, 102, 101, types.ActionCloseShort, types.ExitReasonStopLoss},
		{"short high below stop loss holds", types.SignalTypeShortEntry, 101.99, 99, types.ActionHold, ""},
		{"short low on take profit exits", types.SignalTypeShortEntry, 99, 97, types.ActionCloseShort, types.ExitReasonTakeProfit},
	}

	for _, tc := range tests {
		suite.Run(tc.name, func() {
			m := suite.machine(cfg)
			rec, _, err := m.Transition(types.NewFlatPosition(), suite.bar(0, 100, tc.side))
			suite.Require().NoError(err)

			in := Input{
				Time:       suite.start.Add(time.Minute),
				Close:      (tc.high + tc.low) / 2,
				High:       tc.high,
				Low:        tc.low,
				Volatility: 1,
				Signal:     types.SignalTypeNone,
			}

			_, out, err := m.Transition(rec, in)
			suite.NoError(err)
			suite.Equal(tc.action, out.Action)
			suite.Equal(tc.reason, out.ExitReason)
		})
	}
}

func (suite *MachineTestSuite) TestRangeModeUsesIntrabarPrices() {
	cfg := suite.cfg
	cfg.ExitMode = ExitModeRange
	m := suite.machine(cfg)
	rec := suite.openLong(m)

	in := Input{Time: suite.start.Add(time.Minute), Close: 101, High: 103.5, Low: 100.5, Volatility: 1, Signal: types.SignalTypeNone}

	_, out, err := m.Transition(rec, in)
	suite.NoError(err)
	suite.Equal(types.ExitReasonTakeProfit, out.ExitReason)
}

func (suite *MachineTestSuite) TestNoReentryOnExitBar() {
	m := suite.machine(suite.cfg)
	rec := suite.openLong(m)

	next, out, err := m.Transition(rec, suite.bar(1, 97, types.SignalTypeShortEntry))
	suite.NoError(err)
	suite.Equal(types.ActionCloseLong, out.Action)
	suite.True(next.IsFlat())
}

func (suite *MachineTestSuite) TestReverse() {
	cfg := suite.cfg
	cfg.Reverse = true
	m := suite.machine(cfg)
	rec := suite.openLong(m)

	next, out, err := m.Transition(rec, suite.bar(1, 101, types.SignalTypeShortEntry))
	suite.NoError(err)
	suite.Equal(types.ActionReverseShort, out.Action)
	suite.Equal(types.ExitReasonReverse, out.ExitReason)
	suite.Equal(types.PositionSideShort, next.Side)
	suite.Equal(101.0, next.EntryPrice.Unwrap())
	suite.Equal(103.0, next.StopLoss.Unwrap())
	suite.Equal(98.0, next.StopProfit.Unwrap())

	// without the flag the opposite signal is ignored
	plain := suite.machine(suite.cfg)
	held, out, err := plain.Transition(rec, suite.bar(1, 101, types.SignalTypeShortEntry))
	suite.NoError(err)
	suite.Equal(types.ActionHold, out.Action)
	suite.Equal(types.PositionSideLong, held.Side)
}

func (suite *MachineTestSuite) TestApplyCommitsOnlyOnSuccess() {
	m := suite.machine(suite.cfg)

	broken := suite.bar(1, math.NaN(), types.SignalTypeNone)
	_, err := m.Apply([]Input{suite.bar(0, 100, types.SignalTypeLongEntry), broken})
	suite.Error(err)
	suite.True(errors.HasCode(err, errors.ErrCodeInvalidPrice))

	rec := m.Record()
	suite.True(rec.IsFlat())
	suite.True(rec.LastProcessed.IsNone())
}

func (suite *MachineTestSuite) TestApplyRejectsBadVolatility() {
	m := suite.machine(suite.cfg)
	in := suite.bar(0, 100, types.SignalTypeLongEntry)
	in.Volatility = 0

	_, err := m.Apply([]Input{in})
	suite.True(errors.HasCode(err, errors.ErrCodeInvalidVolatility))
	suite.True(m.Record().IsFlat())
}

func (suite *MachineTestSuite) TestApplySkipsProcessedBars() {
	m := suite.machine(suite.cfg)
	inputs := []Input{
		suite.bar(0, 100, types.SignalTypeNone),
		suite.bar(1, 100, types.SignalTypeLongEntry),
	}

	outcomes, err := m.Apply(inputs)
	suite.NoError(err)
	suite.Len(outcomes, 2)
	suite.Equal(types.PositionSideLong, m.Record().Side)

	outcomes, err = m.Apply(inputs)
	suite.NoError(err)
	suite.Empty(outcomes)

	outcomes, err = m.Apply(append(inputs, suite.bar(2, 100.5, types.SignalTypeNone)))
	suite.NoError(err)
	suite.Len(outcomes, 1)
	suite.Equal(types.ActionHold, outcomes[0].Action)
	suite.Equal(suite.start.Add(2*time.Minute), m.Record().LastProcessed.Unwrap())
}

func (suite *MachineTestSuite) TestNoReplayStartsFromLatestBar() {
	cfg := suite.cfg
	cfg.ReplayHistory = false
	m := suite.machine(cfg)

	outcomes, err := m.Apply([]Input{
		suite.bar(0, 100, types.SignalTypeLongEntry),
		suite.bar(1, 100, types.SignalTypeNone),
	})
	suite.NoError(err)
	suite.Len(outcomes, 1)
	suite.Equal(types.ActionNone, outcomes[0].Action)
	suite.True(m.Record().IsFlat())
}

func (suite *MachineTestSuite) TestRestore() {
	m := suite.machine(suite.cfg)

	bad := types.NewFlatPosition()
	bad.Side = types.PositionSideShort
	suite.True(errors.HasCode(m.Restore(bad), errors.ErrCodePositionCorrupted))

	good := suite.openLong(m)
	suite.NoError(m.Restore(good))
	suite.Equal(types.PositionSideLong, m.Record().Side)
}

func (suite *MachineTestSuite) TestConfigValidation() {
	cfg := suite.cfg
	cfg.LossMultiple = 0
	_, err := NewMachine(cfg)
	suite.True(errors.HasCode(err, errors.ErrCodeInvalidParameter))

	cfg = suite.cfg
	cfg.ExitMode = "wick"
	_, err = NewMachine(cfg)
	suite.Error(err)

	cfg = suite.cfg
	cfg.Leverage = decimal.Zero
	_, err = NewMachine(cfg)
	suite.Error(err)
}

func (suite *MachineTestSuite) TestInputsFromFrame() {
	times := []time.Time{suite.start, suite.start.Add(time.Minute), suite.start.Add(2 * time.Minute)}
	frame, err := indicator.NewFrame(times, map[string][]float64{
		indicator.ColumnClose: {10, 11, 12},
		indicator.ColumnHigh:  {10.5, 11.5, 12.5},
		indicator.ColumnLow:   {9.5, 10.5, 11.5},
		"atr":                 {math.NaN(), 1, 1.2},
	}, 1)
	suite.Require().NoError(err)

	signals := []types.SignalType{types.SignalTypeNone, types.SignalTypeLongEntry, types.SignalTypeNone}

	inputs, err := InputsFromFrame(frame, signals, "atr")
	suite.NoError(err)
	suite.Len(inputs, 2)
	suite.Equal(11.0, inputs[0].Close)
	suite.Equal(1.0, inputs[0].Volatility)
	suite.Equal(types.SignalTypeLongEntry, inputs[0].Signal)
	suite.Equal(12.5, inputs[1].High)

	_, err = InputsFromFrame(frame, signals, "natr")
	suite.True(errors.HasCode(err, errors.ErrCodeColumnNotFound))

	_, err = InputsFromFrame(frame, signals[:1], "atr")
	suite.Error(err)
}

func (suite *MachineTestSuite) TestSizing() {
	suite.True(decimal.NewFromInt(500).Equal(Notional(suite.cfg)))
	suite.Equal("0.166", Quantity(decimal.NewFromInt(500), 3000, 3).String())
	suite.True(Quantity(decimal.NewFromInt(500), 0, 3).IsZero())
	suite.True(Signed(decimal.NewFromInt(5), -1).Equal(decimal.NewFromInt(-5)))
	suite.True(Signed(decimal.NewFromInt(5), 0).IsZero())
	suite.True(SignedNotional(types.NewFlatPosition()).IsZero())

	rec := types.NewFlatPosition()
	rec.Notional = optional.Some(decimal.NewFromInt(1))
	suite.True(SignedNotional(rec).IsZero(), "flat side has no exposure")
}
