// Package dispatch delivers recommendations to execution collaborators.
package dispatch

import (
	"context"
	stderrors "errors"
	"time"

	"github.com/rxtech-lab/argo-signal/internal/types"
	"github.com/rxtech-lab/argo-signal/pkg/errors"
	"github.com/shopspring/decimal"
)

// Dispatcher receives the latest snapshot from the consumption loop.
// Implementations must not retain or mutate rec.
type Dispatcher interface {
	Name() string
	Dispatch(ctx context.Context, rec *types.Recommendation) error
}

// ErrIncomplete reports that the executor has not yet reached the target.
// The consumption loop answers it with the short backoff.
var ErrIncomplete = errors.New(errors.ErrCodeReconcileIncomplete, "position not yet reconciled")

// IsIncomplete also looks inside errors joined by Multi.
func IsIncomplete(err error) bool {
	return errors.Is(err, ErrIncomplete) || errors.HasCode(err, errors.ErrCodeReconcileIncomplete)
}

type PayloadMode string

const (
	// PayloadFull carries side, bounds and sizing.
	PayloadFull PayloadMode = "full"
	// PayloadPosition carries only the signed target quantity.
	PayloadPosition PayloadMode = "position"
)

func (m PayloadMode) Valid() bool {
	return m == PayloadFull || m == PayloadPosition
}

// PositionPayload is the reduced form of a recommendation.
type PositionPayload struct {
	SignalPosition decimal.Decimal `json:"signal_position" yaml:"signal_position"`
	UpdateTime     time.Time       `json:"update_time" yaml:"update_time"`
}

// Payload renders rec in the given mode.
func Payload(rec *types.Recommendation, mode PayloadMode) any {
	if mode == PayloadPosition {
		return PositionPayload{
			SignalPosition: rec.Quantity,
			UpdateTime:     rec.UpdateTime,
		}
	}

	return rec
}

// Multi fans a snapshot out to every dispatcher, in order, even when one fails.
type Multi struct {
	dispatchers []Dispatcher
}

func NewMulti(dispatchers ...Dispatcher) *Multi {
	return &Multi{dispatchers: dispatchers}
}

func (m *Multi) Name() string {
	return "multi"
}

func (m *Multi) Dispatch(ctx context.Context, rec *types.Recommendation) error {
	var errs []error

	for _, d := range m.dispatchers {
		if err := d.Dispatch(ctx, rec); err != nil {
			if IsIncomplete(err) {
				errs = append(errs, err)

				continue
			}

			errs = append(errs, errors.Wrapf(errors.ErrCodeDispatchFailed, err, "dispatcher %s", d.Name()))
		}
	}

	return stderrors.Join(errs...)
}

// Dispatchers returns the wrapped dispatchers.
func (m *Multi) Dispatchers() []Dispatcher {
	out := make([]Dispatcher, len(m.dispatchers))
	copy(out, m.dispatchers)

	return out
}
