package main

import (
	"context"
	stderrors "errors"
	"time"

	"github.com/rxtech-lab/argo-signal/internal/bus"
	"github.com/rxtech-lab/argo-signal/internal/config"
	"github.com/rxtech-lab/argo-signal/internal/dispatch"
	"github.com/rxtech-lab/argo-signal/internal/feed"
	"github.com/rxtech-lab/argo-signal/internal/journal"
	"github.com/rxtech-lab/argo-signal/internal/logger"
	"github.com/rxtech-lab/argo-signal/internal/metrics"
	"github.com/rxtech-lab/argo-signal/internal/pipeline"
	"github.com/rxtech-lab/argo-signal/internal/scheduler"
	"github.com/rxtech-lab/argo-signal/internal/status"
	"github.com/rxtech-lab/argo-signal/internal/types"
	"github.com/rxtech-lab/argo-signal/pkg/errors"
	"go.uber.org/zap"
)

// app is one wired signal process.
type app struct {
	cfg        *config.Config
	logger     *logger.Logger
	bus        *bus.Bus
	metrics    *metrics.Metrics
	feed       feed.BarFeed
	journal    *journal.Journal
	pipeline   *pipeline.Pipeline
	dispatcher *dispatch.Multi
	scheduler  *scheduler.Scheduler
	status     *status.Server
	closers    []func() error
}

type appOptions struct {
	// feed replaces the configured provider.
	feed feed.BarFeed
	// redis replaces the client built from dispatch.redis.
	redis dispatch.RedisWriter
}

func newApp(ctx context.Context, cfg *config.Config, log *logger.Logger, opts appOptions) (_ *app, err error) {
	a := &app{
		cfg:        cfg,
		logger:     log,
		bus:        bus.New(),
		metrics:    metrics.New(),
		feed:       opts.feed,
		journal:    nil,
		pipeline:   nil,
		dispatcher: nil,
		scheduler:  nil,
		status:     nil,
		closers:    nil,
	}

	defer func() {
		if err != nil {
			a.Close()
		}
	}()

	if a.feed == nil {
		if a.feed, err = a.newFeed(); err != nil {
			return nil, err
		}
	}

	var journaler pipeline.Journal

	if cfg.Journal.Enabled {
		if a.journal, err = journal.Open(cfg.Journal.Path, log); err != nil {
			return nil, err
		}

		a.closers = append(a.closers, a.journal.Close)
		journaler = a.journal
	}

	strategy, err := cfg.BuildStrategy()
	if err != nil {
		return nil, err
	}

	a.pipeline, err = pipeline.New(pipeline.Config{
		Symbol:   cfg.Symbol,
		Interval: cfg.Interval,
		Feed:     a.feed,
		Strategy: strategy,
		Position: cfg.PipelinePosition(),
		Bus:      a.bus,
		Registry: nil,
		Journal:  journaler,
		Logger:   log,
		Metrics:  a.metrics,
	})
	if err != nil {
		return nil, err
	}

	if a.journal != nil && cfg.Journal.Restore {
		if err := a.restore(ctx); err != nil {
			return nil, err
		}
	}

	if a.dispatcher, err = a.newDispatcher(opts.redis); err != nil {
		return nil, err
	}

	a.scheduler, err = scheduler.New(a.pipeline, a.bus, a.dispatcher, cfg.SchedulerConfig(), log, a.metrics)
	if err != nil {
		return nil, err
	}

	if cfg.Status.Address != "" {
		if a.status, err = status.New(cfg.Symbol, a.bus, a.metrics, log); err != nil {
			return nil, err
		}
	}

	return a, nil
}

func (a *app) newFeed() (feed.BarFeed, error) {
	cfg := a.cfg

	interval, err := cfg.BarInterval()
	if err != nil {
		return nil, err
	}

	switch cfg.Feed.Provider {
	case config.FeedBinance:
		return feed.NewBinanceFeed(feed.NewBinanceFetcher(), cfg.Symbol, interval, cfg.WindowSize, a.logger)
	case config.FeedPolygon:
		fetcher, err := feed.NewPolygonFetcher(cfg.Feed.PolygonAPIKey)
		if err != nil {
			return nil, err
		}

		return feed.NewPolygonFeed(fetcher, cfg.Symbol, interval, cfg.WindowSize, a.logger)
	case config.FeedParquet:
		f, err := feed.NewParquetFeed(cfg.Feed.ParquetPath, cfg.Symbol, cfg.WindowSize, a.logger)
		if err != nil {
			return nil, err
		}

		a.closers = append(a.closers, f.Close)

		return f, nil
	default:
		return nil, errors.Newf(errors.ErrCodeInvalidConfiguration, "unknown feed provider %q", cfg.Feed.Provider)
	}
}

func (a *app) newDispatcher(redis dispatch.RedisWriter) (*dispatch.Multi, error) {
	cfg := a.cfg.Dispatch

	var dispatchers []dispatch.Dispatcher

	if cfg.Log {
		dispatchers = append(dispatchers, dispatch.NewLogDispatcher(a.logger))
	}

	if cfg.YAMLFile.Enabled {
		d, err := dispatch.NewYAMLFileDispatcher(cfg.YAMLFile.Path, cfg.YAMLFile.Mode)
		if err != nil {
			return nil, err
		}

		dispatchers = append(dispatchers, d)
	}

	if cfg.Redis.Enabled {
		opts := a.cfg.RedisOptions()

		if redis == nil {
			client := dispatch.NewRedisClient(opts)
			a.closers = append(a.closers, client.Close)
			redis = client
		}

		d, err := dispatch.NewRedisDispatcher(redis, opts)
		if err != nil {
			return nil, err
		}

		dispatchers = append(dispatchers, d)
	}

	if cfg.Paper.Enabled {
		broker := &feedPricedBroker{PaperBroker: dispatch.NewPaperBroker(), feed: a.feed}

		r, err := dispatch.NewReconciler(broker, a.cfg.Position.QuantityPrecision, a.logger)
		if err != nil {
			return nil, err
		}

		dispatchers = append(dispatchers, r)
	}

	if len(dispatchers) == 0 {
		return nil, errors.New(errors.ErrCodeInvalidConfiguration, "no dispatcher enabled")
	}

	return dispatch.NewMulti(dispatchers...), nil
}

// restore resumes the position held when the journal was last written.
func (a *app) restore(ctx context.Context) error {
	record, ok, err := a.journal.LastRecord(ctx, a.cfg.Symbol)
	if err != nil {
		return err
	}

	if !ok {
		return nil
	}

	if err := a.pipeline.Machine().Restore(record); err != nil {
		return err
	}

	a.logger.Info("Restored position from journal",
		zap.String("symbol", a.cfg.Symbol),
		zap.String("side", string(record.Side)))

	return nil
}

// Run serves status and runs both loops until ctx is cancelled.
func (a *app) Run(ctx context.Context) error {
	if a.status != nil {
		if err := a.status.Start(a.cfg.Status.Address); err != nil {
			return err
		}

		defer func() {
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()

			if err := a.status.Shutdown(shutdownCtx); err != nil {
				a.logger.Warn("Status server shutdown failed", zap.Error(err))
			}
		}()
	}

	return a.scheduler.Run(ctx)
}

func (a *app) Close() error {
	var errs []error

	for i := len(a.closers) - 1; i >= 0; i-- {
		if err := a.closers[i](); err != nil {
			errs = append(errs, err)
		}
	}

	a.closers = nil

	return stderrors.Join(errs...)
}

// feedPricedBroker marks the paper broker at the newest close before each quote.
type feedPricedBroker struct {
	*dispatch.PaperBroker
	feed feed.BarFeed
}

func (b *feedPricedBroker) Price(ctx context.Context, symbol string) (float64, error) {
	if bars := b.feed.Bars(); len(bars) > 0 {
		b.Mark(symbol, lastClose(bars))
	}

	return b.PaperBroker.Price(ctx, symbol)
}

func lastClose(bars []types.Bar) float64 {
	return bars[len(bars)-1].Close
}
