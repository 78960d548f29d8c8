package dispatch_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/rxtech-lab/argo-signal/internal/dispatch"
	"github.com/rxtech-lab/argo-signal/internal/types"
	"github.com/rxtech-lab/argo-signal/mocks"
	pkgerrors "github.com/rxtech-lab/argo-signal/pkg/errors"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/suite"
	"go.uber.org/mock/gomock"
)

type ReconcilerTestSuite struct {
	suite.Suite
	ctrl   *gomock.Controller
	broker *mocks.MockBroker
	rec    *dispatch.Reconciler
	ctx    context.Context
}

func TestReconcilerSuite(t *testing.T) {
	suite.Run(t, new(ReconcilerTestSuite))
}

func (suite *ReconcilerTestSuite) SetupTest() {
	suite.ctrl = gomock.NewController(suite.T())
	suite.broker = mocks.NewMockBroker(suite.ctrl)
	suite.ctx = context.Background()

	r, err := dispatch.NewReconciler(suite.broker, 3, nil)
	suite.Require().NoError(err)
	suite.rec = r
}

func target(quantity string) *types.Recommendation {
	return &types.Recommendation{
		Seq:         1,
		Symbol:      "BTCUSDT",
		Valid:       true,
		Side:        types.PositionSideLong,
		Signal:      types.ActionOpenLong,
		Quantity:    decimal.RequireFromString(quantity),
		GeneratedAt: time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC),
	} //nolint:exhaustruct
}

func (suite *ReconcilerTestSuite) TestMatchedPositionIsComplete() {
	gomock.InOrder(
		suite.broker.EXPECT().CancelOpenOrders(gomock.Any(), "BTCUSDT").Return(nil),
		suite.broker.EXPECT().Position(gomock.Any(), "BTCUSDT").Return(decimal.RequireFromString("0.010"), nil),
	)

	suite.NoError(suite.rec.Dispatch(suite.ctx, target("0.01")))
}

func (suite *ReconcilerTestSuite) TestGapSubmitsBuy() {
	gomock.InOrder(
		suite.broker.EXPECT().CancelOpenOrders(gomock.Any(), "BTCUSDT").Return(nil),
		suite.broker.EXPECT().Position(gomock.Any(), "BTCUSDT").Return(decimal.RequireFromString("0.004"), nil),
		suite.broker.EXPECT().Price(gomock.Any(), "BTCUSDT").Return(64000.0, nil),
		suite.broker.EXPECT().Submit(gomock.Any(), gomock.Any()).DoAndReturn(
			func(_ context.Context, o dispatch.Order) (dispatch.Order, error) {
				suite.Equal(dispatch.OrderSideBuy, o.Side)
				suite.Equal("0.006", o.Quantity.String())
				suite.Equal(64000.0, o.Price)
				suite.Equal(string(types.ActionOpenLong), o.Reason)
				o.ID = "order-1"

				return o, nil
			}),
	)

	err := suite.rec.Dispatch(suite.ctx, target("0.01"))
	suite.True(dispatch.IsIncomplete(err))
	suite.True(pkgerrors.HasCode(err, pkgerrors.ErrCodeReconcileIncomplete))
}

func (suite *ReconcilerTestSuite) TestGapSubmitsSellAcrossZero() {
	suite.broker.EXPECT().CancelOpenOrders(gomock.Any(), gomock.Any()).Return(nil)
	suite.broker.EXPECT().Position(gomock.Any(), gomock.Any()).Return(decimal.RequireFromString("0.5"), nil)
	suite.broker.EXPECT().Price(gomock.Any(), gomock.Any()).Return(100.0, nil)
	suite.broker.EXPECT().Submit(gomock.Any(), gomock.Any()).DoAndReturn(
		func(_ context.Context, o dispatch.Order) (dispatch.Order, error) {
			suite.Equal(dispatch.OrderSideSell, o.Side)
			suite.Equal("0.8", o.Quantity.String())

			return o, nil
		})

	suite.True(dispatch.IsIncomplete(suite.rec.Dispatch(suite.ctx, target("-0.3"))))
}

func (suite *ReconcilerTestSuite) TestInvalidRecommendationIsSkipped() {
	rec := target("1")
	rec.Valid = false

	suite.NoError(suite.rec.Dispatch(suite.ctx, rec))
}

func (suite *ReconcilerTestSuite) TestBrokerErrors() {
	suite.broker.EXPECT().CancelOpenOrders(gomock.Any(), gomock.Any()).Return(errors.New("timeout"))

	err := suite.rec.Dispatch(suite.ctx, target("1"))
	suite.True(pkgerrors.HasCode(err, pkgerrors.ErrCodeOrderFailed))
	suite.False(dispatch.IsIncomplete(err))

	suite.broker.EXPECT().CancelOpenOrders(gomock.Any(), gomock.Any()).Return(nil)
	suite.broker.EXPECT().Position(gomock.Any(), gomock.Any()).Return(decimal.Zero, nil)
	suite.broker.EXPECT().Price(gomock.Any(), gomock.Any()).Return(100.0, nil)
	suite.broker.EXPECT().Submit(gomock.Any(), gomock.Any()).Return(dispatch.Order{}, errors.New("rejected")) //nolint:exhaustruct

	err = suite.rec.Dispatch(suite.ctx, target("1"))
	suite.True(pkgerrors.HasCode(err, pkgerrors.ErrCodeOrderFailed))
}

func (suite *ReconcilerTestSuite) TestConvergesWithPaperBroker() {
	paper := dispatch.NewPaperBroker()
	paper.Mark("BTCUSDT", 100)

	r, err := dispatch.NewReconciler(paper, 3, nil)
	suite.Require().NoError(err)

	suite.True(dispatch.IsIncomplete(r.Dispatch(suite.ctx, target("2.5"))))
	suite.NoError(r.Dispatch(suite.ctx, target("2.5")))

	pos, _ := paper.Position(suite.ctx, "BTCUSDT")
	suite.Equal("2.5", pos.String())

	suite.True(dispatch.IsIncomplete(r.Dispatch(suite.ctx, target("0"))))
	pos, _ = paper.Position(suite.ctx, "BTCUSDT")
	suite.True(pos.IsZero())
	suite.Len(paper.Orders(), 2)
}
