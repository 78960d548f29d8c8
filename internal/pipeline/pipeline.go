// Package pipeline runs one production cycle: refresh the feed, compute
// features, reduce signals, advance the position and publish the snapshot.
package pipeline

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rxtech-lab/argo-signal/internal/alpha"
	"github.com/rxtech-lab/argo-signal/internal/bus"
	"github.com/rxtech-lab/argo-signal/internal/feed"
	"github.com/rxtech-lab/argo-signal/internal/indicator"
	"github.com/rxtech-lab/argo-signal/internal/logger"
	"github.com/rxtech-lab/argo-signal/internal/metrics"
	"github.com/rxtech-lab/argo-signal/internal/position"
	"github.com/rxtech-lab/argo-signal/internal/signal"
	"github.com/rxtech-lab/argo-signal/internal/types"
	"github.com/rxtech-lab/argo-signal/pkg/errors"
	"go.uber.org/zap"
)

type Status string

const (
	StatusSuccess Status = "success"
	// StatusNotReady means the window does not yet cover the warm-up.
	StatusNotReady Status = "not_ready"
	// StatusUnchanged means no bar arrived since the last cycle.
	StatusUnchanged Status = "unchanged"
	StatusFailure   Status = "failure"
)

// Result is the typed outcome of one cycle. Reason is set for every status
// except success and unchanged.
type Result struct {
	Status         Status
	Reason         error
	Recommendation *types.Recommendation
	Outcomes       []position.Outcome
}

// Failed reports whether the cycle should trigger the short backoff.
func (r Result) Failed() bool {
	return r.Status == StatusFailure
}

// Journal receives every snapshot the pipeline publishes. Errors are logged
// and do not fail the cycle.
type Journal interface {
	Record(ctx context.Context, rec *types.Recommendation, outcomes []position.Outcome) error
}

type Config struct {
	Symbol   string
	Interval string
	Feed     feed.BarFeed
	Strategy alpha.Strategy
	Position position.Config
	Bus      *bus.Bus
	// Registry defaults to indicator.NewDefaultRegistry.
	Registry indicator.IndicatorRegistry
	Journal  Journal
	Logger   *logger.Logger
	Metrics  *metrics.Metrics
}

type Pipeline struct {
	symbol   string
	interval string
	feed     feed.BarFeed
	engine   *indicator.Engine
	reducer  *signal.Reducer
	machine  *position.Machine
	bus      *bus.Bus
	volCol   string
	journal  Journal
	logger   *logger.Logger
	metrics  *metrics.Metrics
	now      func() time.Time
}

func New(cfg Config) (*Pipeline, error) {
	if cfg.Feed == nil {
		return nil, errors.New(errors.ErrCodeMissingParameter, "feed is required")
	}

	if cfg.Bus == nil {
		return nil, errors.New(errors.ErrCodeMissingParameter, "bus is required")
	}

	registry := cfg.Registry
	if registry == nil {
		registry = indicator.NewDefaultRegistry()
	}

	engine, err := indicator.NewEngine(registry, cfg.Strategy.Indicators)
	if err != nil {
		return nil, err
	}

	reducer, err := signal.NewReducer(cfg.Strategy.Rules)
	if err != nil {
		return nil, err
	}

	machine, err := position.NewMachine(cfg.Position)
	if err != nil {
		return nil, err
	}

	log := cfg.Logger
	if log == nil {
		log = logger.NewNopLogger()
	}

	return &Pipeline{
		symbol:   cfg.Symbol,
		interval: cfg.Interval,
		feed:     cfg.Feed,
		engine:   engine,
		reducer:  reducer,
		machine:  machine,
		bus:      cfg.Bus,
		volCol:   cfg.Strategy.VolatilityColumn,
		journal:  cfg.Journal,
		logger:   &logger.Logger{Logger: log.Named("pipeline").Logger.With(zap.String("symbol", cfg.Symbol))},
		metrics:  cfg.Metrics,
		now:      time.Now,
	}, nil
}

// Machine exposes the position machine, for restoring a saved record.
func (p *Pipeline) Machine() *position.Machine {
	return p.machine
}

// Warmup is the number of leading bars every indicator needs.
func (p *Pipeline) Warmup() int {
	return p.engine.Warmup()
}

// Run executes one cycle. It never panics and leaves the position record
// untouched on failure.
func (p *Pipeline) Run(ctx context.Context) Result {
	return p.guard(func() Result {
		if err := p.feed.Refresh(ctx); err != nil {
			return failure(err)
		}

		return p.process(ctx, p.feed.Bars())
	})
}

// Process runs a cycle on bars without touching the feed. Replays use it.
func (p *Pipeline) Process(ctx context.Context, bars []types.Bar) Result {
	return p.guard(func() Result {
		return p.process(ctx, bars)
	})
}

func (p *Pipeline) guard(cycle func() Result) (result Result) {
	started := p.now()

	defer func() {
		if r := recover(); r != nil {
			result = failure(errors.Newf(errors.ErrCodeComputationPanic, "recovered panic: %v", r))
		}

		p.observe(result, p.now().Sub(started))
	}()

	return cycle()
}

func (p *Pipeline) process(ctx context.Context, bars []types.Bar) Result {
	frame, err := p.engine.Compute(bars)
	if err != nil {
		return failure(err)
	}

	if !frame.Ready() {
		reason := errors.NewInsufficientDataError(p.engine.Warmup()+1, len(bars), p.symbol)
		rec := p.recommendation(p.machine.Record(), nil)
		rec.Valid = false
		rec.Signal = types.ActionNone
		rec.Direction = 0

		if p.bus.Version() == 0 {
			p.publish(ctx, rec, nil)
		}

		return Result{Status: StatusNotReady, Reason: reason, Recommendation: rec, Outcomes: nil}
	}

	signals, err := p.reducer.Reduce(frame)
	if err != nil {
		return failure(err)
	}

	inputs, err := position.InputsFromFrame(frame, signals, p.volCol)
	if err != nil {
		return failure(err)
	}

	outcomes, err := p.machine.Apply(inputs)
	if err != nil {
		return failure(err)
	}

	if len(outcomes) == 0 && p.bus.Version() > 0 {
		latest, _ := p.bus.Latest()

		return Result{Status: StatusUnchanged, Reason: nil, Recommendation: latest, Outcomes: nil}
	}

	var last *position.Outcome
	if len(outcomes) > 0 {
		last = &outcomes[len(outcomes)-1]
	}

	rec := p.recommendation(p.machine.Record(), last)
	p.publish(ctx, rec, outcomes)

	for _, o := range outcomes {
		p.metrics.ObserveTransition(string(o.Action))

		if o.Signal.IsEntry() {
			p.metrics.ObserveSignal(string(o.Signal))
		}

		if o.Action != types.ActionHold && o.Action != types.ActionNone {
			p.logger.Info("Position transition",
				zap.String("action", string(o.Action)),
				zap.String("side", string(o.Record.Side)),
				zap.String("exit_reason", string(o.ExitReason)),
				zap.Time("bar", o.Time))
		}
	}

	return Result{Status: StatusSuccess, Reason: nil, Recommendation: rec, Outcomes: outcomes}
}

func (p *Pipeline) recommendation(record types.PositionRecord, last *position.Outcome) *types.Recommendation {
	cfg := p.machine.Config()
	signed := position.SignedNotional(record)
	entry := record.EntryPrice.Unwrap()

	quantity := position.Signed(position.Quantity(signed.Abs(), entry, cfg.QuantityPrecision), record.Side.Sign())

	rec := &types.Recommendation{
		ID:          uuid.NewString(),
		Seq:         0,
		Symbol:      p.symbol,
		Interval:    p.interval,
		Valid:       true,
		Side:        record.Side,
		Signal:      types.ActionHold,
		Direction:   0,
		ExitReason:  "",
		EntryPrice:  entry,
		StopLoss:    record.StopLoss.Unwrap(),
		StopProfit:  record.StopProfit.Unwrap(),
		Position:    signed,
		Quantity:    quantity,
		UpdateTime:  record.LastProcessed.Unwrap(),
		GeneratedAt: p.now().UTC(),
	}

	if record.IsFlat() {
		rec.Signal = types.ActionNone
	}

	if last != nil {
		rec.Signal = last.Action
		rec.Direction = last.Action.Direction()
		rec.ExitReason = last.ExitReason
		rec.UpdateTime = last.Time
	}

	return rec
}

func (p *Pipeline) publish(ctx context.Context, rec *types.Recommendation, outcomes []position.Outcome) {
	rec.Seq = p.bus.Publish(rec)
	p.metrics.SetBusVersion(rec.Seq)

	if p.journal == nil {
		return
	}

	if err := p.journal.Record(ctx, rec, outcomes); err != nil {
		p.logger.Warn("Failed to journal recommendation", zap.Uint64("seq", rec.Seq), zap.Error(err))
	}
}

func (p *Pipeline) observe(result Result, elapsed time.Duration) {
	p.metrics.ObserveCycle(string(result.Status), elapsed)

	record := p.machine.Record()
	notional, _ := position.SignedNotional(record).Float64()
	p.metrics.SetPosition(record.Side.Sign(), notional, record.LastProcessed.Unwrap())

	switch result.Status {
	case StatusFailure:
		p.logger.Error("Production cycle failed",
			zap.Int("code", int(errors.GetCode(result.Reason))),
			zap.Error(result.Reason),
			zap.Duration("elapsed", elapsed))
	case StatusNotReady:
		p.logger.Info("Waiting for warm-up", zap.Error(result.Reason))
	case StatusSuccess:
		if rec := result.Recommendation; rec != nil {
			p.logger.Debug("Published recommendation",
				zap.Uint64("seq", rec.Seq),
				zap.String("side", string(rec.Side)),
				zap.String("signal", string(rec.Signal)),
				zap.Float64("entry_price", rec.EntryPrice),
				zap.Float64("stop_loss", rec.StopLoss),
				zap.Float64("stop_profit", rec.StopProfit),
				zap.Duration("elapsed", elapsed))
		}
	case StatusUnchanged:
	}
}

func failure(err error) Result {
	return Result{Status: StatusFailure, Reason: err, Recommendation: nil, Outcomes: nil}
}

func (r Result) String() string {
	if r.Reason != nil {
		return fmt.Sprintf("%s: %v", r.Status, r.Reason)
	}

	return string(r.Status)
}
