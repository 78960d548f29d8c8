package feed

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/polygon-io/client-go/rest/models"
	pkgerrors "github.com/rxtech-lab/argo-signal/pkg/errors"
	"github.com/stretchr/testify/suite"
)

type fakeAggs struct {
	aggs  []models.Agg
	err   error
	from  []time.Time
	calls int
}

func (f *fakeAggs) Aggregates(_ context.Context, _ string, _ Interval, from, _ time.Time) ([]models.Agg, error) {
	f.calls++
	f.from = append(f.from, from)

	return f.aggs, f.err
}

func agg(open time.Time, price float64) models.Agg {
	return models.Agg{
		Timestamp: models.Millis(open),
		Open:      price,
		High:      price + 1,
		Low:       price - 1,
		Close:     price,
		Volume:    100,
	}
}

type PolygonFeedTestSuite struct {
	suite.Suite
	interval Interval
}

func TestPolygonFeedSuite(t *testing.T) {
	suite.Run(t, new(PolygonFeedTestSuite))
}

func (suite *PolygonFeedTestSuite) SetupTest() {
	iv, err := ParseInterval("1h")
	suite.Require().NoError(err)
	suite.interval = iv
}

func (suite *PolygonFeedTestSuite) TestBackfillThenIncremental() {
	fetcher := &fakeAggs{aggs: []models.Agg{
		agg(t0, 10),
		agg(t0.Add(time.Hour), 11),
		agg(t0.Add(2*time.Hour), 12),
	}}

	f, err := NewPolygonFeed(fetcher, "AAPL", suite.interval, 5, nil)
	suite.Require().NoError(err)

	now := t0.Add(2*time.Hour + 30*time.Minute)
	f.now = func() time.Time { return now }

	suite.NoError(f.Refresh(context.Background()))
	bars := f.Bars()
	// the 02:00 bar is still forming
	suite.Len(bars, 2)
	suite.Equal(11.0, bars[1].Close)
	suite.Equal(now.Add(-6*time.Hour), fetcher.from[0])

	now = t0.Add(3 * time.Hour)
	suite.NoError(f.Refresh(context.Background()))
	suite.Len(f.Bars(), 3)
	suite.Equal(t0.Add(2*time.Hour), fetcher.from[1])
}

func (suite *PolygonFeedTestSuite) TestSkipsWhenCurrent() {
	fetcher := &fakeAggs{aggs: []models.Agg{agg(t0, 10)}}

	f, err := NewPolygonFeed(fetcher, "AAPL", suite.interval, 5, nil)
	suite.Require().NoError(err)
	f.now = func() time.Time { return t0.Add(90 * time.Minute) }

	suite.NoError(f.Refresh(context.Background()))
	suite.NoError(f.Refresh(context.Background()))
	suite.Equal(1, fetcher.calls)
}

func (suite *PolygonFeedTestSuite) TestFetchError() {
	f, err := NewPolygonFeed(&fakeAggs{err: errors.New("429")}, "AAPL", suite.interval, 5, nil)
	suite.Require().NoError(err)

	err = f.Refresh(context.Background())
	suite.True(pkgerrors.HasCode(err, pkgerrors.ErrCodeFeedRefreshFailed))
}

func (suite *PolygonFeedTestSuite) TestConstructorValidation() {
	_, err := NewPolygonFetcher("")
	suite.Error(err)

	_, err = NewPolygonFeed(&fakeAggs{}, "", suite.interval, 5, nil)
	suite.Error(err)

	_, err = NewPolygonFeed(&fakeAggs{}, "AAPL", Interval{}, 5, nil)
	suite.Error(err)
}
