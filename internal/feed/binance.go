package feed

import (
	"context"
	"strconv"
	"time"

	binance "github.com/adshao/go-binance/v2"
	"github.com/rxtech-lab/argo-signal/internal/logger"
	"github.com/rxtech-lab/argo-signal/internal/types"
	"github.com/rxtech-lab/argo-signal/pkg/errors"
	"go.uber.org/zap"
)

// binanceMaxLimit is the largest page the spot klines endpoint returns.
const binanceMaxLimit = 1000

// KlinesFetcher is the slice of the Binance REST API the feed needs.
type KlinesFetcher interface {
	Klines(ctx context.Context, symbol string, interval string, limit int) ([]*binance.Kline, error)
}

type binanceREST struct {
	client *binance.Client
}

// NewBinanceFetcher talks to the public Binance spot API. Klines need no credentials.
func NewBinanceFetcher() KlinesFetcher {
	return &binanceREST{client: binance.NewClient("", "")}
}

func (c *binanceREST) Klines(ctx context.Context, symbol string, interval string, limit int) ([]*binance.Kline, error) {
	return c.client.NewKlinesService().
		Symbol(symbol).
		Interval(interval).
		Limit(limit).
		Do(ctx)
}

// BinanceFeed polls closed klines for one symbol.
type BinanceFeed struct {
	fetcher  KlinesFetcher
	symbol   string
	interval Interval
	window   *Window
	logger   *logger.Logger
	now      func() time.Time
}

func NewBinanceFeed(fetcher KlinesFetcher, symbol string, interval Interval, size int, log *logger.Logger) (*BinanceFeed, error) {
	if symbol == "" {
		return nil, errors.New(errors.ErrCodeMissingParameter, "symbol is required")
	}

	if _, err := interval.Binance(); err != nil {
		return nil, err
	}

	if size <= 0 {
		return nil, errors.Newf(errors.ErrCodeInvalidParameter, "window size must be positive, got %d", size)
	}

	if log == nil {
		log = logger.NewNopLogger()
	}

	return &BinanceFeed{
		fetcher:  fetcher,
		symbol:   symbol,
		interval: interval,
		window:   NewWindow(size),
		logger:   log.Named("binance_feed"),
		now:      time.Now,
	}, nil
}

// Refresh fetches the newest klines. It is a no-op while the last stored
// bar is still the newest one that can have closed.
func (f *BinanceFeed) Refresh(ctx context.Context) error {
	now := f.now()

	if last, ok := f.window.Last(); ok && now.Before(last.Time.Add(2*f.interval.Duration())) {
		f.logger.Debug("Feed already current", zap.String("symbol", f.symbol), zap.Time("last", last.Time))

		return nil
	}

	interval, err := f.interval.Binance()
	if err != nil {
		return err
	}

	limit := f.window.MaxSize() + 1
	if limit > binanceMaxLimit {
		limit = binanceMaxLimit
	}

	klines, err := f.fetcher.Klines(ctx, f.symbol, interval, limit)
	if err != nil {
		return errors.Wrapf(errors.ErrCodeFeedRefreshFailed, err, "failed to fetch klines for %s", f.symbol)
	}

	bars, err := closedKlines(klines, now)
	if err != nil {
		return err
	}

	added := f.window.AddAll(bars)
	f.logger.Debug("Fetched klines",
		zap.String("symbol", f.symbol),
		zap.Int("received", len(klines)),
		zap.Int("added", added))

	return nil
}

func (f *BinanceFeed) Bars() []types.Bar {
	return f.window.Bars()
}

// closedKlines converts klines to bars, dropping any candle still open at now.
func closedKlines(klines []*binance.Kline, now time.Time) ([]types.Bar, error) {
	bars := make([]types.Bar, 0, len(klines))

	for _, k := range klines {
		if k == nil || !time.UnixMilli(k.CloseTime).Before(now) {
			continue
		}

		bar, err := klineToBar(k)
		if err != nil {
			return nil, err
		}

		bars = append(bars, bar)
	}

	return bars, nil
}

func klineToBar(k *binance.Kline) (types.Bar, error) {
	fields := [5]string{k.Open, k.High, k.Low, k.Close, k.Volume}

	var values [5]float64

	for i, s := range fields {
		v, err := strconv.ParseFloat(s, 64)
		if err != nil {
			return types.Bar{}, errors.Wrapf(errors.ErrCodeMarketDataParseFailed, err, "invalid kline value %q", s) //nolint:exhaustruct
		}

		values[i] = v
	}

	return types.Bar{
		Time:   time.UnixMilli(k.OpenTime).UTC(),
		Open:   values[0],
		High:   values[1],
		Low:    values[2],
		Close:  values[3],
		Volume: values[4],
	}, nil
}
