package position

import (
	"github.com/rxtech-lab/argo-signal/pkg/errors"
	"github.com/shopspring/decimal"
)

// ExitMode selects which prices are compared against the stop bounds.
type ExitMode string

const (
	// ExitModeClose checks the bar close against both bounds.
	ExitModeClose ExitMode = "close"
	// ExitModeRange checks the bar low and high against the bounds.
	ExitModeRange ExitMode = "range"
)

// Config fixes risk and sizing for one strategy instance.
type Config struct {
	ProfitMultiple float64
	LossMultiple   float64
	AccountMoney   decimal.Decimal
	Leverage       decimal.Decimal
	PositionSizer  decimal.Decimal
	ExitMode       ExitMode
	// Reverse flips a held position on an opposite entry signal.
	Reverse bool
	// ReplayHistory walks the whole bar window on the first run instead of
	// starting from the latest bar.
	ReplayHistory     bool
	QuantityPrecision int32
}

func (c Config) Validate() error {
	if c.ProfitMultiple <= 0 || c.LossMultiple <= 0 {
		return errors.Newf(errors.ErrCodeInvalidParameter, "profit and loss multiples must be positive, got %v and %v", c.ProfitMultiple, c.LossMultiple)
	}

	if !c.AccountMoney.IsPositive() || !c.Leverage.IsPositive() || !c.PositionSizer.IsPositive() {
		return errors.New(errors.ErrCodeInvalidParameter, "account money, leverage and position sizer must be positive")
	}

	if c.ExitMode != ExitModeClose && c.ExitMode != ExitModeRange {
		return errors.Newf(errors.ErrCodeInvalidParameter, "unknown exit mode %q", c.ExitMode)
	}

	if c.QuantityPrecision < 0 {
		return errors.New(errors.ErrCodeInvalidParameter, "quantity precision must not be negative")
	}

	return nil
}
