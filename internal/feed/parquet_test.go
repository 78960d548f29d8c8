package feed

import (
	"context"
	"database/sql"
	"fmt"
	"path/filepath"
	"testing"
	"time"

	"github.com/moznion/go-optional"
	"github.com/rxtech-lab/argo-signal/internal/types"
	"github.com/rxtech-lab/argo-signal/mocks"
	pkgerrors "github.com/rxtech-lab/argo-signal/pkg/errors"
	"github.com/stretchr/testify/suite"
)

type ParquetFeedTestSuite struct {
	suite.Suite
	path string
	bars []types.Bar
}

func TestParquetFeedSuite(t *testing.T) {
	suite.Run(t, new(ParquetFeedTestSuite))
}

func (suite *ParquetFeedTestSuite) SetupTest() {
	suite.path = filepath.Join(suite.T().TempDir(), "bars.parquet")

	gen := mocks.NewBarGenerator(7)
	cfg := mocks.DefaultConfig()
	cfg.Count = 50
	suite.bars = gen.Generate(cfg)

	writeParquet(suite.T(), suite.path, map[string][]types.Bar{
		"BTCUSDT": suite.bars,
		"ETHUSDT": suite.bars[:10],
	})
}

func writeParquet(t *testing.T, path string, bySymbol map[string][]types.Bar) {
	t.Helper()

	db, err := sql.Open("duckdb", "")
	if err != nil {
		t.Fatal(err)
	}
	defer db.Close()

	_, err = db.Exec(`CREATE TABLE bars (time TIMESTAMP, symbol VARCHAR, open DOUBLE, high DOUBLE, low DOUBLE, close DOUBLE, volume DOUBLE)`)
	if err != nil {
		t.Fatal(err)
	}

	for symbol, bars := range bySymbol {
		for _, b := range bars {
			_, err := db.Exec(`INSERT INTO bars VALUES ($1, $2, $3, $4, $5, $6, $7)`,
				b.Time, symbol, b.Open, b.High, b.Low, b.Close, b.Volume)
			if err != nil {
				t.Fatal(err)
			}
		}
	}

	if _, err := db.Exec(fmt.Sprintf(`COPY bars TO '%s' (FORMAT PARQUET)`, path)); err != nil {
		t.Fatal(err)
	}
}

func (suite *ParquetFeedTestSuite) TestRefreshLoadsNewestWindow() {
	f, err := NewParquetFeed(suite.path, "BTCUSDT", 20, nil)
	suite.Require().NoError(err)
	defer f.Close()

	suite.NoError(f.Refresh(context.Background()))

	bars := f.Bars()
	suite.Require().Len(bars, 20)
	suite.True(bars[0].Time.Equal(suite.bars[30].Time))
	suite.True(bars[19].Time.Equal(suite.bars[49].Time))
	suite.Equal(suite.bars[49].Close, bars[19].Close)

	// nothing newer on the second pass
	suite.NoError(f.Refresh(context.Background()))
	suite.Len(f.Bars(), 20)
}

func (suite *ParquetFeedTestSuite) TestSymbolFilter() {
	f, err := NewParquetFeed(suite.path, "ETHUSDT", 100, nil)
	suite.Require().NoError(err)
	defer f.Close()

	suite.NoError(f.Refresh(context.Background()))
	suite.Len(f.Bars(), 10)
}

func (suite *ParquetFeedTestSuite) TestHistoryAndCount() {
	f, err := NewParquetFeed(suite.path, "BTCUSDT", 5, nil)
	suite.Require().NoError(err)
	defer f.Close()

	ctx := context.Background()

	all, err := f.History(ctx, optional.None[time.Time](), optional.None[time.Time]())
	suite.NoError(err)
	suite.Len(all, 50)

	count, err := f.Count(ctx, optional.Some(suite.bars[10].Time), optional.Some(suite.bars[19].Time))
	suite.NoError(err)
	suite.Equal(10, count)

	part, err := f.History(ctx, optional.Some(suite.bars[45].Time), optional.None[time.Time]())
	suite.NoError(err)
	suite.Len(part, 5)

	for i := 1; i < len(all); i++ {
		suite.True(all[i].Time.After(all[i-1].Time))
	}
}

func (suite *ParquetFeedTestSuite) TestMissingFile() {
	_, err := NewParquetFeed(filepath.Join(suite.T().TempDir(), "missing.parquet"), "", 5, nil)
	suite.True(pkgerrors.HasCode(err, pkgerrors.ErrCodeFeedUnavailable))

	_, err = NewParquetFeed("", "", 5, nil)
	suite.Error(err)
}
