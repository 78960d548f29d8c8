package feed

import (
	"context"
	"time"

	polygon "github.com/polygon-io/client-go/rest"
	"github.com/polygon-io/client-go/rest/models"
	"github.com/rxtech-lab/argo-signal/internal/logger"
	"github.com/rxtech-lab/argo-signal/internal/types"
	"github.com/rxtech-lab/argo-signal/pkg/errors"
	"go.uber.org/zap"
)

// AggsFetcher lists aggregates between two instants.
type AggsFetcher interface {
	Aggregates(ctx context.Context, ticker string, interval Interval, from, to time.Time) ([]models.Agg, error)
}

type polygonREST struct {
	client *polygon.Client
}

func NewPolygonFetcher(apiKey string) (AggsFetcher, error) {
	if apiKey == "" {
		return nil, errors.New(errors.ErrCodeMissingParameter, "polygon api key is required")
	}

	return &polygonREST{client: polygon.New(apiKey)}, nil
}

func (c *polygonREST) Aggregates(ctx context.Context, ticker string, interval Interval, from, to time.Time) ([]models.Agg, error) {
	//nolint:exhaustruct // third-party struct with many optional fields
	params := models.ListAggsParams{
		Ticker:     ticker,
		Multiplier: interval.Multiplier,
		Timespan:   interval.Timespan,
		From:       models.Millis(from),
		To:         models.Millis(to),
	}.WithLimit(50000)

	iter := c.client.ListAggs(ctx, params)

	var aggs []models.Agg
	for iter.Next() {
		aggs = append(aggs, iter.Item())
	}

	if iter.Err() != nil {
		return nil, iter.Err()
	}

	return aggs, nil
}

// PolygonFeed polls aggregates for one ticker. The first refresh backfills
// a full window; later ones ask only for bars after the newest stored one.
type PolygonFeed struct {
	fetcher  AggsFetcher
	ticker   string
	interval Interval
	window   *Window
	logger   *logger.Logger
	now      func() time.Time
}

func NewPolygonFeed(fetcher AggsFetcher, ticker string, interval Interval, size int, log *logger.Logger) (*PolygonFeed, error) {
	if ticker == "" {
		return nil, errors.New(errors.ErrCodeMissingParameter, "ticker is required")
	}

	if interval.Duration() <= 0 {
		return nil, errors.Newf(errors.ErrCodeInvalidPeriod, "unsupported interval %s", interval)
	}

	if size <= 0 {
		return nil, errors.Newf(errors.ErrCodeInvalidParameter, "window size must be positive, got %d", size)
	}

	if log == nil {
		log = logger.NewNopLogger()
	}

	return &PolygonFeed{
		fetcher:  fetcher,
		ticker:   ticker,
		interval: interval,
		window:   NewWindow(size),
		logger:   log.Named("polygon_feed"),
		now:      time.Now,
	}, nil
}

func (f *PolygonFeed) Refresh(ctx context.Context) error {
	now := f.now()
	width := f.interval.Duration()

	from := now.Add(-time.Duration(f.window.MaxSize()+1) * width)
	if last, ok := f.window.Last(); ok {
		if now.Before(last.Time.Add(2 * width)) {
			return nil
		}

		from = last.Time.Add(width)
	}

	aggs, err := f.fetcher.Aggregates(ctx, f.ticker, f.interval, from, now)
	if err != nil {
		return errors.Wrapf(errors.ErrCodeFeedRefreshFailed, err, "failed to fetch aggregates for %s", f.ticker)
	}

	bars := make([]types.Bar, 0, len(aggs))

	for _, agg := range aggs {
		open := time.Time(agg.Timestamp).UTC()
		// still forming
		if open.Add(width).After(now) {
			continue
		}

		bars = append(bars, types.Bar{
			Time:   open,
			Open:   agg.Open,
			High:   agg.High,
			Low:    agg.Low,
			Close:  agg.Close,
			Volume: agg.Volume,
		})
	}

	added := f.window.AddAll(bars)
	f.logger.Debug("Fetched aggregates",
		zap.String("ticker", f.ticker),
		zap.Int("received", len(aggs)),
		zap.Int("added", added))

	return nil
}

func (f *PolygonFeed) Bars() []types.Bar {
	return f.window.Bars()
}
