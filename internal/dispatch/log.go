package dispatch

import (
	"context"

	"github.com/rxtech-lab/argo-signal/internal/logger"
	"github.com/rxtech-lab/argo-signal/internal/types"
	"go.uber.org/zap"
)

// LogDispatcher writes each new snapshot to the log. A snapshot already
// logged is skipped so a slow producer does not flood the output.
type LogDispatcher struct {
	logger  *logger.Logger
	lastSeq uint64
}

func NewLogDispatcher(log *logger.Logger) *LogDispatcher {
	if log == nil {
		log = logger.NewNopLogger()
	}

	return &LogDispatcher{logger: log.Named("dispatch"), lastSeq: 0}
}

func (d *LogDispatcher) Name() string {
	return "log"
}

func (d *LogDispatcher) Dispatch(_ context.Context, rec *types.Recommendation) error {
	if rec.Seq != 0 && rec.Seq == d.lastSeq {
		return nil
	}

	d.lastSeq = rec.Seq

	d.logger.Info("Recommendation",
		zap.Uint64("seq", rec.Seq),
		zap.String("symbol", rec.Symbol),
		zap.Bool("valid", rec.Valid),
		zap.String("side", string(rec.Side)),
		zap.String("signal", string(rec.Signal)),
		zap.Int("direction", rec.Direction),
		zap.String("exit_reason", string(rec.ExitReason)),
		zap.Float64("entry_price", rec.EntryPrice),
		zap.Float64("stop_loss", rec.StopLoss),
		zap.Float64("stop_profit", rec.StopProfit),
		zap.String("position", rec.Position.String()),
		zap.String("quantity", rec.Quantity.String()),
		zap.Time("update_time", rec.UpdateTime))

	return nil
}
