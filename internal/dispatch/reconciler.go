package dispatch

import (
	"context"

	"github.com/rxtech-lab/argo-signal/internal/logger"
	"github.com/rxtech-lab/argo-signal/internal/types"
	"github.com/rxtech-lab/argo-signal/pkg/errors"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// Reconciler drives a Broker toward the recommended signed quantity.
//
// Each dispatch cancels resting orders, compares the actual position with
// the target and, on a gap, submits one order for the difference. A gap
// yields ErrIncomplete; a matched position yields nil.
type Reconciler struct {
	broker    Broker
	precision int32
	logger    *logger.Logger
}

// NewReconciler rounds targets to precision decimal places before comparing.
func NewReconciler(broker Broker, precision int32, log *logger.Logger) (*Reconciler, error) {
	if broker == nil {
		return nil, errors.New(errors.ErrCodeMissingParameter, "broker is required")
	}

	if log == nil {
		log = logger.NewNopLogger()
	}

	return &Reconciler{broker: broker, precision: precision, logger: log.Named("reconciler")}, nil
}

func (r *Reconciler) Name() string {
	return "reconciler"
}

func (r *Reconciler) Dispatch(ctx context.Context, rec *types.Recommendation) error {
	if !rec.Valid {
		r.logger.Debug("Skipping invalid recommendation", zap.Uint64("seq", rec.Seq))

		return nil
	}

	if err := r.broker.CancelOpenOrders(ctx, rec.Symbol); err != nil {
		return errors.Wrap(errors.ErrCodeOrderFailed, "failed to cancel open orders", err)
	}

	target := rec.Quantity.Round(r.precision)

	actual, err := r.broker.Position(ctx, rec.Symbol)
	if err != nil {
		return errors.Wrap(errors.ErrCodeOrderFailed, "failed to read actual position", err)
	}

	r.logger.Debug("Reconciling",
		zap.String("symbol", rec.Symbol),
		zap.String("target", target.String()),
		zap.String("actual", actual.String()))

	if actual.Equal(target) {
		return nil
	}

	diff := target.Sub(actual)

	price, err := r.broker.Price(ctx, rec.Symbol)
	if err != nil {
		return errors.Wrap(errors.ErrCodeOrderFailed, "failed to read reference price", err)
	}

	order := Order{
		ID:        "",
		Symbol:    rec.Symbol,
		Side:      OrderSideBuy,
		Quantity:  diff.Abs(),
		Price:     price,
		Status:    OrderStatusNew,
		Reason:    string(rec.Signal),
		CreatedAt: rec.GeneratedAt,
	}

	if diff.LessThan(decimal.Zero) {
		order.Side = OrderSideSell
	}

	placed, err := r.broker.Submit(ctx, order)
	if err != nil {
		return errors.Wrap(errors.ErrCodeOrderFailed, "failed to submit order", err)
	}

	r.logger.Info("Submitted order",
		zap.String("id", placed.ID),
		zap.String("side", string(placed.Side)),
		zap.String("quantity", placed.Quantity.String()),
		zap.Float64("price", placed.Price))

	return errors.Wrapf(errors.ErrCodeReconcileIncomplete, ErrIncomplete, "gap of %s remains", diff)
}
