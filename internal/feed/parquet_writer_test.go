package feed

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/rxtech-lab/argo-signal/mocks"
	pkgerrors "github.com/rxtech-lab/argo-signal/pkg/errors"
	"github.com/stretchr/testify/suite"
)

type ParquetWriterTestSuite struct {
	suite.Suite
}

func TestParquetWriterSuite(t *testing.T) {
	suite.Run(t, new(ParquetWriterTestSuite))
}

func (suite *ParquetWriterTestSuite) TestRoundTripThroughParquetFeed() {
	path := filepath.Join(suite.T().TempDir(), "out.parquet")

	cfg := mocks.DefaultConfig()
	cfg.Count = 30
	bars := mocks.NewBarGenerator(3).Generate(cfg)

	w := NewParquetWriter(path)
	suite.Require().NoError(w.Initialize())
	defer w.Close()

	// written newest first to check the export ordering
	for i := len(bars) - 1; i >= 0; i-- {
		suite.Require().NoError(w.Write("SOLUSDT", bars[i]))
	}

	suite.Equal(30, w.Written())

	out, err := w.Finalize()
	suite.Require().NoError(err)
	suite.Equal(path, out)

	f, err := NewParquetFeed(path, "SOLUSDT", 100, nil)
	suite.Require().NoError(err)
	defer f.Close()

	suite.Require().NoError(f.Refresh(context.Background()))

	got := f.Bars()
	suite.Require().Len(got, 30)
	suite.True(got[0].Time.Equal(bars[0].Time))
	suite.InDelta(bars[29].Close, got[29].Close, 1e-9)
}

func (suite *ParquetWriterTestSuite) TestUninitialized() {
	w := NewParquetWriter("x.parquet")

	err := w.Write("X", mocks.NewBarGenerator(1).Generate(mocks.DefaultConfig())[0])
	suite.True(pkgerrors.HasCode(err, pkgerrors.ErrCodeQueryFailed))

	_, err = w.Finalize()
	suite.Error(err)
	suite.NoError(w.Close())

	suite.True(pkgerrors.HasCode(NewParquetWriter("").Initialize(), pkgerrors.ErrCodeMissingParameter))
}
