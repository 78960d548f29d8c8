package bus

import (
	"sync"
	"testing"
	"time"

	"github.com/rxtech-lab/argo-signal/internal/types"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/suite"
)

type BusTestSuite struct {
	suite.Suite
}

func TestBusSuite(t *testing.T) {
	suite.Run(t, new(BusTestSuite))
}

// snapshot derives every field from n so a torn read is detectable.
func snapshot(n int) *types.Recommendation {
	f := float64(n)

	return &types.Recommendation{
		ID:         "rec",
		Symbol:     "BTCUSDT",
		Side:       types.PositionSideLong,
		Signal:     types.ActionHold,
		EntryPrice: f,
		StopLoss:   f - 1,
		StopProfit: f + 1,
		Position:   decimal.NewFromInt(int64(n)),
		UpdateTime: time.Unix(int64(n), 0),
	}
}

func consistent(r *types.Recommendation) bool {
	n := r.EntryPrice

	return r.StopLoss == n-1 &&
		r.StopProfit == n+1 &&
		r.Position.Equal(decimal.NewFromFloat(n)) &&
		r.UpdateTime.Unix() == int64(n)
}

func (suite *BusTestSuite) TestEmpty() {
	b := New()

	rec, ok := b.Latest()
	suite.False(ok)
	suite.Nil(rec)
	suite.Equal(uint64(0), b.Version())
	suite.Equal(uint64(0), b.Publish(nil))
}

func (suite *BusTestSuite) TestLastWriteWins() {
	b := New()
	suite.Equal(uint64(1), b.Publish(snapshot(1)))
	suite.Equal(uint64(2), b.Publish(snapshot(2)))

	rec, ok := b.Latest()
	suite.True(ok)
	suite.Equal(2.0, rec.EntryPrice)
	suite.Equal(uint64(2), rec.Seq)
	suite.Equal(uint64(2), b.Version())
}

func (suite *BusTestSuite) TestSnapshotsAreIsolated() {
	b := New()
	original := snapshot(1)
	b.Publish(original)

	// mutating the publisher's value or a reader's copy leaves the slot alone
	original.EntryPrice = 99

	read, _ := b.Latest()
	read.StopLoss = -5

	again, _ := b.Latest()
	suite.Equal(1.0, again.EntryPrice)
	suite.Equal(0.0, again.StopLoss)
	suite.Equal(uint64(0), original.Seq)
}

func (suite *BusTestSuite) TestRepeatedReadsSeeSameSnapshot() {
	b := New()
	b.Publish(snapshot(7))

	first, _ := b.Latest()
	second, _ := b.Latest()
	suite.Equal(first.Seq, second.Seq)
}

func (suite *BusTestSuite) TestConcurrentReadersNeverSeeTornSnapshots() {
	b := New()
	b.Publish(snapshot(0))

	const writes = 20000

	var wg sync.WaitGroup
	done := make(chan struct{})
	errs := make(chan string, 8)

	wg.Add(1)

	go func() {
		defer wg.Done()
		defer close(done)

		for n := 1; n <= writes; n++ {
			b.Publish(snapshot(n))
		}
	}()

	for r := 0; r < 4; r++ {
		wg.Add(1)

		go func() {
			defer wg.Done()

			var lastSeq uint64

			for {
				select {
				case <-done:
					return
				default:
				}

				rec, ok := b.Latest()
				if !ok {
					continue
				}

				if !consistent(rec) {
					errs <- "torn snapshot"

					return
				}

				if rec.Seq < lastSeq {
					errs <- "sequence went backwards"

					return
				}

				lastSeq = rec.Seq
			}
		}()
	}

	wg.Wait()
	close(errs)

	for msg := range errs {
		suite.Fail(msg)
	}

	final, ok := b.Latest()
	suite.True(ok)
	suite.Equal(float64(writes), final.EntryPrice)
	suite.Equal(uint64(writes+1), final.Seq)
}
