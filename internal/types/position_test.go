package types

import (
	"testing"
	"time"

	"github.com/moznion/go-optional"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/suite"
)

type PositionTestSuite struct {
	suite.Suite
}

func TestPositionSuite(t *testing.T) {
	suite.Run(t, new(PositionTestSuite))
}

func (suite *PositionTestSuite) TestFlatPositionIsConsistent() {
	p := NewFlatPosition()
	suite.True(p.IsFlat())
	suite.True(p.Consistent())
	suite.True(p.EntryPrice.IsNone())
	suite.True(p.StopLoss.IsNone())
	suite.True(p.StopProfit.IsNone())
}

func (suite *PositionTestSuite) TestOpenPositionConsistency() {
	p := NewFlatPosition()
	p.Side = PositionSideLong
	suite.False(p.Consistent(), "long side without bounds")

	p.EntryPrice = optional.Some(100.0)
	p.StopLoss = optional.Some(95.0)
	p.StopProfit = optional.Some(110.0)
	p.OpenedAt = optional.Some(time.Unix(0, 0))
	p.Notional = optional.Some(decimal.NewFromInt(1000))
	suite.True(p.Consistent())

	p.Side = PositionSideFlat
	suite.False(p.Consistent(), "flat side with bounds")
}

func (suite *PositionTestSuite) TestSideHelpers() {
	suite.Equal(1, PositionSideLong.Sign())
	suite.Equal(-1, PositionSideShort.Sign())
	suite.Equal(0, PositionSideFlat.Sign())
	suite.Equal(PositionSideShort, PositionSideLong.Opposite())
	suite.Equal(PositionSideFlat, PositionSideFlat.Opposite())
}

func (suite *PositionTestSuite) TestActionDirection() {
	tests := []struct {
		action   Action
		expected int
	}{
		{ActionOpenLong, 1},
		{ActionOpenShort, -1},
		{ActionCloseLong, -1},
		{ActionCloseShort, 1},
		{ActionReverseLong, 1},
		{ActionReverseShort, -1},
		{ActionHold, 0},
		{ActionNone, 0},
	}

	for _, tc := range tests {
		suite.Run(string(tc.action), func() {
			suite.Equal(tc.expected, tc.action.Direction())
		})
	}
}

func (suite *PositionTestSuite) TestSignalDirection() {
	suite.Equal(1, SignalTypeLongEntry.Direction())
	suite.Equal(-1, SignalTypeShortEntry.Direction())
	suite.Equal(0, SignalTypeNone.Direction())
	suite.True(SignalTypeLongEntry.IsEntry())
	suite.False(SignalTypeNone.IsEntry())
}

func (suite *PositionTestSuite) TestRecommendationClone() {
	r := &Recommendation{Seq: 3, Side: PositionSideLong, EntryPrice: 10}
	c := r.Clone()
	c.EntryPrice = 11

	suite.Equal(10.0, r.EntryPrice)
	suite.Equal(uint64(3), c.Seq)

	var nilRec *Recommendation
	suite.Nil(nilRec.Clone())
}

func (suite *PositionTestSuite) TestSeries() {
	bars := []Bar{
		{Open: 1, High: 2, Low: 0.5, Close: 1.5, Volume: 10},
		{Open: 1.5, High: 3, Low: 1, Close: 2.5, Volume: 20},
	}

	suite.Equal([]float64{1.5, 2.5}, Series(bars, PriceSourceClose))
	suite.Equal([]float64{10, 20}, Series(bars, PriceSourceVolume))
	suite.Equal([]float64{2, 3}, Series(bars, PriceSourceHigh))
	suite.Equal([]float64{1.5, 2.5}, Series(bars, PriceSource("bogus")))
}
