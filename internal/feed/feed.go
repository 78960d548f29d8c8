package feed

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/polygon-io/client-go/rest/models"
	"github.com/rxtech-lab/argo-signal/internal/types"
	"github.com/rxtech-lab/argo-signal/pkg/errors"
)

// BarFeed supplies the rolling window of closed bars the pipeline computes on.
//
// Refresh pulls whatever is new from the upstream source. Bars returns the
// current window, oldest first, with strictly increasing open times. The
// returned slice is owned by the caller.
type BarFeed interface {
	Refresh(ctx context.Context) error
	Bars() []types.Bar
}

// Interval is a bar width such as 15m or 4h.
type Interval struct {
	Multiplier int
	Timespan   models.Timespan
}

// ParseInterval reads the exchange-style interval notation: 1m, 15m, 1h, 4h, 1d, 1w.
func ParseInterval(s string) (Interval, error) {
	s = strings.TrimSpace(s)
	if len(s) < 2 {
		return Interval{}, errors.Newf(errors.ErrCodeInvalidPeriod, "invalid interval %q", s)
	}

	n, err := strconv.Atoi(s[:len(s)-1])
	if err != nil || n <= 0 {
		return Interval{}, errors.Newf(errors.ErrCodeInvalidPeriod, "invalid interval %q", s)
	}

	var span models.Timespan

	switch s[len(s)-1] {
	case 'm':
		span = models.Minute
	case 'h':
		span = models.Hour
	case 'd':
		span = models.Day
	case 'w':
		span = models.Week
	default:
		return Interval{}, errors.Newf(errors.ErrCodeInvalidPeriod, "unsupported interval unit in %q", s)
	}

	return Interval{Multiplier: n, Timespan: span}, nil
}

// Duration is the wall-clock width of one bar.
func (i Interval) Duration() time.Duration {
	var unit time.Duration

	switch i.Timespan {
	case models.Minute:
		unit = time.Minute
	case models.Hour:
		unit = time.Hour
	case models.Day:
		unit = 24 * time.Hour
	case models.Week:
		unit = 7 * 24 * time.Hour
	default:
		return 0
	}

	return time.Duration(i.Multiplier) * unit
}

// Binance renders the interval in the notation the klines endpoint accepts.
func (i Interval) Binance() (string, error) {
	switch i.Timespan {
	case models.Minute:
		return fmt.Sprintf("%dm", i.Multiplier), nil
	case models.Hour:
		return fmt.Sprintf("%dh", i.Multiplier), nil
	case models.Day:
		return fmt.Sprintf("%dd", i.Multiplier), nil
	case models.Week:
		if i.Multiplier == 1 {
			return "1w", nil
		}

		return "", errors.Newf(errors.ErrCodeInvalidPeriod, "unsupported weekly multiplier for Binance: %d", i.Multiplier)
	default:
		return "", errors.Newf(errors.ErrCodeInvalidPeriod, "unsupported timespan for Binance: %s", i.Timespan)
	}
}

func (i Interval) String() string {
	switch i.Timespan {
	case models.Minute:
		return fmt.Sprintf("%dm", i.Multiplier)
	case models.Hour:
		return fmt.Sprintf("%dh", i.Multiplier)
	case models.Day:
		return fmt.Sprintf("%dd", i.Multiplier)
	case models.Week:
		return fmt.Sprintf("%dw", i.Multiplier)
	default:
		return fmt.Sprintf("%d%s", i.Multiplier, i.Timespan)
	}
}
