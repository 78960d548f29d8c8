package indicator

import (
	"math"
	"testing"

	"github.com/rxtech-lab/argo-signal/internal/types"
	"github.com/rxtech-lab/argo-signal/mocks"
	"github.com/rxtech-lab/argo-signal/pkg/errors"
	"github.com/stretchr/testify/suite"
)

type EngineTestSuite struct {
	suite.Suite
	specs []Spec
	bars  []types.Bar
}

func TestEngineSuite(t *testing.T) {
	suite.Run(t, new(EngineTestSuite))
}

func (suite *EngineTestSuite) SetupTest() {
	suite.specs = []Spec{
		{Name: "macd", Type: types.IndicatorTypeMACD, Params: map[string]float64{"fast": 12, "slow": 26, "signal": 9}},
		{Name: "atr", Type: types.IndicatorTypeATR, Params: map[string]float64{"length": 14}},
		{Name: "rsi", Type: types.IndicatorTypeRSI},
	}
	suite.bars = mocks.NewBarGenerator(1).Generate(mocks.DefaultConfig())
}

func (suite *EngineTestSuite) newEngine() *Engine {
	engine, err := NewEngine(NewDefaultRegistry(), suite.specs)
	suite.Require().NoError(err)

	return engine
}

func (suite *EngineTestSuite) TestWarmupIsLongestLookback() {
	suite.Equal(33, suite.newEngine().Warmup())
}

func (suite *EngineTestSuite) TestShortWindowIsEntirelyInvalid() {
	engine := suite.newEngine()

	for n := 0; n <= engine.Warmup(); n++ {
		frame, err := engine.Compute(suite.bars[:n])
		suite.NoError(err)
		suite.Equal(n, frame.Len())
		suite.False(frame.Ready())

		_, ok := frame.LastValid()
		suite.False(ok)

		for i := 0; i < n; i++ {
			suite.False(frame.Valid(i), "window %d row %d", n, i)
		}

		for _, col := range []string{"macd_diff", "macd_gx", "atr", "rsi"} {
			values, err := frame.Column(col)
			suite.NoError(err)

			for _, v := range values {
				suite.True(math.IsNaN(v))
			}
		}
	}
}

func (suite *EngineTestSuite) TestFirstValidRowFollowsWarmup() {
	engine := suite.newEngine()
	frame, err := engine.Compute(suite.bars[:engine.Warmup()+1])
	suite.NoError(err)
	suite.True(frame.Ready())
	suite.False(frame.Valid(engine.Warmup() - 1))
	suite.True(frame.Valid(engine.Warmup()))

	last, ok := frame.LastValid()
	suite.True(ok)
	suite.Equal(engine.Warmup(), last)
}

func (suite *EngineTestSuite) TestFrameIncludesBarColumns() {
	frame, err := suite.newEngine().Compute(suite.bars)
	suite.NoError(err)

	row := frame.Row(100)
	suite.True(row.Valid)
	suite.Equal(suite.bars[100].Time, row.Time)
	suite.Equal(suite.bars[100].Close, row.Values[ColumnClose])
	suite.Equal(suite.bars[100].Volume, row.Values[ColumnVolume])

	v, ok := frame.Value("atr", 100)
	suite.True(ok)
	suite.Equal(row.Values["atr"], v)

	_, ok = frame.Value("missing", 100)
	suite.False(ok)

	_, ok = frame.Value("atr", len(suite.bars))
	suite.False(ok)

	suite.Contains(frame.ColumnNames(), "macd_dea")
}

func (suite *EngineTestSuite) TestComputeIsDeterministic() {
	engine := suite.newEngine()

	a, err := engine.Compute(suite.bars)
	suite.NoError(err)

	b, err := engine.Compute(suite.bars)
	suite.NoError(err)

	for _, name := range a.ColumnNames() {
		colA, _ := a.Column(name)
		colB, _ := b.Column(name)

		for i := a.Warmup; i < a.Len(); i++ {
			suite.Equal(colA[i], colB[i], "%s[%d]", name, i)
		}
	}
}

func (suite *EngineTestSuite) TestComputeRejectsUnorderedBars() {
	bars := append([]types.Bar{}, suite.bars[:40]...)
	bars[20].Time = bars[19].Time

	_, err := suite.newEngine().Compute(bars)
	suite.Error(err)
	suite.True(errors.HasCode(err, errors.ErrCodeBarOutOfOrder))
}

func (suite *EngineTestSuite) TestDuplicateColumns() {
	_, err := NewEngine(NewDefaultRegistry(), []Spec{
		{Name: "fast", Type: types.IndicatorTypeEMA},
		{Name: "fast", Type: types.IndicatorTypeSMA},
	})
	suite.True(errors.HasCode(err, errors.ErrCodeIndicatorAlreadyExists))

	_, err = NewEngine(NewDefaultRegistry(), []Spec{{Name: "close", Type: types.IndicatorTypeEMA}})
	suite.True(errors.HasCode(err, errors.ErrCodeIndicatorAlreadyExists))
}

func (suite *EngineTestSuite) TestUnknownIndicator() {
	_, err := NewEngine(NewDefaultRegistry(), []Spec{{Name: "x", Type: "ichimoku"}})
	suite.True(errors.HasCode(err, errors.ErrCodeIndicatorNotFound))
}

func (suite *EngineTestSuite) TestColumnNotFound() {
	frame, err := suite.newEngine().Compute(suite.bars)
	suite.NoError(err)

	_, err = frame.Column("nope")
	suite.True(errors.HasCode(err, errors.ErrCodeColumnNotFound))
}
