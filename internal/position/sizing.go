package position

import (
	"github.com/shopspring/decimal"
)

// Notional is account money x leverage x position sizer.
func Notional(cfg Config) decimal.Decimal {
	return cfg.AccountMoney.Mul(cfg.Leverage).Mul(cfg.PositionSizer)
}

// Quantity converts a notional into base units at price, rounded down to places.
func Quantity(notional decimal.Decimal, price float64, places int32) decimal.Decimal {
	p := decimal.NewFromFloat(price)
	if !p.IsPositive() {
		return decimal.Zero
	}

	return notional.DivRound(p, places+8).RoundDown(places)
}

// Signed applies the side's sign to an unsigned amount.
func Signed(amount decimal.Decimal, sign int) decimal.Decimal {
	switch {
	case sign > 0:
		return amount.Abs()
	case sign < 0:
		return amount.Abs().Neg()
	default:
		return decimal.Zero
	}
}
