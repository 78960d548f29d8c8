// Package scheduler runs the production and consumption loops.
//
// The loops share nothing but the bus. Each one catches its own failures,
// sleeps a fraction of its interval and tries again; neither ever exits
// before the context is cancelled.
package scheduler

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/rxtech-lab/argo-signal/internal/bus"
	"github.com/rxtech-lab/argo-signal/internal/dispatch"
	"github.com/rxtech-lab/argo-signal/internal/logger"
	"github.com/rxtech-lab/argo-signal/internal/metrics"
	"github.com/rxtech-lab/argo-signal/internal/pipeline"
	"github.com/rxtech-lab/argo-signal/pkg/errors"
	"go.uber.org/zap"
)

// Producer runs one production cycle. *pipeline.Pipeline implements it.
type Producer interface {
	Run(ctx context.Context) pipeline.Result
}

type Config struct {
	ProductionInterval  time.Duration
	ConsumptionInterval time.Duration
	// BackoffFraction scales an interval after a failure, in (0, 1].
	BackoffFraction float64
}

func (c Config) Validate() error {
	if c.ProductionInterval <= 0 || c.ConsumptionInterval <= 0 {
		return errors.New(errors.ErrCodeInvalidConfiguration, "loop intervals must be positive")
	}

	if c.BackoffFraction <= 0 || c.BackoffFraction > 1 {
		return errors.Newf(errors.ErrCodeInvalidConfiguration, "backoff fraction must be in (0, 1], got %v", c.BackoffFraction)
	}

	return nil
}

func backoff(interval time.Duration, fraction float64) time.Duration {
	return time.Duration(float64(interval) * fraction)
}

type Scheduler struct {
	producer   Producer
	bus        *bus.Bus
	dispatcher dispatch.Dispatcher
	cfg        Config
	logger     *logger.Logger
	metrics    *metrics.Metrics
}

func New(producer Producer, b *bus.Bus, dispatcher dispatch.Dispatcher, cfg Config, log *logger.Logger, m *metrics.Metrics) (*Scheduler, error) {
	if producer == nil || b == nil || dispatcher == nil {
		return nil, errors.New(errors.ErrCodeMissingParameter, "producer, bus and dispatcher are required")
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	if log == nil {
		log = logger.NewNopLogger()
	}

	return &Scheduler{
		producer:   producer,
		bus:        b,
		dispatcher: dispatcher,
		cfg:        cfg,
		logger:     log.Named("scheduler"),
		metrics:    m,
	}, nil
}

// Run starts both loops and blocks until ctx is cancelled.
func (s *Scheduler) Run(ctx context.Context) error {
	s.logger.Info("Starting loops",
		zap.Duration("production_interval", s.cfg.ProductionInterval),
		zap.Duration("consumption_interval", s.cfg.ConsumptionInterval),
		zap.Float64("backoff_fraction", s.cfg.BackoffFraction))

	var wg sync.WaitGroup

	wg.Add(2)

	go func() {
		defer wg.Done()
		s.loop(ctx, "production", s.Produce)
	}()

	go func() {
		defer wg.Done()
		s.loop(ctx, "consumption", s.Consume)
	}()

	wg.Wait()
	s.logger.Info("Loops stopped")

	return nil
}

func (s *Scheduler) loop(ctx context.Context, name string, step func(context.Context) time.Duration) {
	for {
		if ctx.Err() != nil {
			return
		}

		wait := s.guard(ctx, name, step)

		if !sleep(ctx, wait) {
			return
		}
	}
}

// guard turns a panic in step into a short backoff.
func (s *Scheduler) guard(ctx context.Context, name string, step func(context.Context) time.Duration) (wait time.Duration) {
	defer func() {
		if r := recover(); r != nil {
			interval := s.cfg.ProductionInterval
			if name == "consumption" {
				interval = s.cfg.ConsumptionInterval
			}

			s.logger.Error("Loop step panicked", zap.String("loop", name), zap.String("panic", fmt.Sprint(r)))
			wait = backoff(interval, s.cfg.BackoffFraction)
		}
	}()

	return step(ctx)
}

// Produce runs one production cycle and returns how long to sleep after it.
func (s *Scheduler) Produce(ctx context.Context) time.Duration {
	result := s.producer.Run(ctx)
	if result.Failed() {
		s.logger.Warn("Production failed, backing off", zap.Error(result.Reason))

		return backoff(s.cfg.ProductionInterval, s.cfg.BackoffFraction)
	}

	return s.cfg.ProductionInterval
}

// Consume dispatches the latest snapshot and returns how long to sleep after it.
func (s *Scheduler) Consume(ctx context.Context) time.Duration {
	rec, ok := s.bus.Latest()
	if !ok {
		s.logger.Warn("No recommendation published yet")

		return s.cfg.ConsumptionInterval
	}

	started := time.Now()
	err := s.dispatcher.Dispatch(ctx, rec)
	elapsed := time.Since(started)

	switch {
	case err == nil:
		s.metrics.ObserveDispatch(s.dispatcher.Name(), "ok", elapsed)

		return s.cfg.ConsumptionInterval
	case dispatch.IsIncomplete(err):
		s.metrics.ObserveDispatch(s.dispatcher.Name(), "incomplete", elapsed)
		s.logger.Info("Execution not yet at target", zap.Uint64("seq", rec.Seq), zap.Error(err))
	default:
		s.metrics.ObserveDispatch(s.dispatcher.Name(), "error", elapsed)
		s.logger.Error("Dispatch failed", zap.Uint64("seq", rec.Seq), zap.Error(err))
	}

	return backoff(s.cfg.ConsumptionInterval, s.cfg.BackoffFraction)
}

// sleep waits for d and reports false if ctx ended first.
func sleep(ctx context.Context, d time.Duration) bool {
	if d <= 0 {
		return ctx.Err() == nil
	}

	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return false
	case <-timer.C:
		return true
	}
}
