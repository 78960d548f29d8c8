package dispatch

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rxtech-lab/argo-signal/pkg/errors"
	"github.com/shopspring/decimal"
)

type OrderSide string

const (
	OrderSideBuy  OrderSide = "BUY"
	OrderSideSell OrderSide = "SELL"
)

type OrderStatus string

const (
	OrderStatusNew      OrderStatus = "NEW"
	OrderStatusFilled   OrderStatus = "FILLED"
	OrderStatusCanceled OrderStatus = "CANCELED"
)

// Order is a post-only limit order sent to close the gap between the actual
// and the recommended position.
type Order struct {
	ID        string          `json:"id"`
	Symbol    string          `json:"symbol"`
	Side      OrderSide       `json:"side"`
	Quantity  decimal.Decimal `json:"quantity"`
	Price     float64         `json:"price"`
	Status    OrderStatus     `json:"status"`
	Reason    string          `json:"reason,omitempty"`
	CreatedAt time.Time       `json:"created_at"`
}

// Broker is the account the reconciler drives.
type Broker interface {
	// CancelOpenOrders withdraws every resting order for symbol.
	CancelOpenOrders(ctx context.Context, symbol string) error
	// Position is the signed base quantity currently held.
	Position(ctx context.Context, symbol string) (decimal.Decimal, error)
	// Price is the reference price for new limit orders.
	Price(ctx context.Context, symbol string) (float64, error)
	Submit(ctx context.Context, order Order) (Order, error)
}

// PaperBroker is an in-memory Broker. Orders fill immediately at their
// limit price unless Resting is set, in which case they stay open until
// the next cancel.
type PaperBroker struct {
	mu        sync.Mutex
	positions map[string]decimal.Decimal
	prices    map[string]float64
	open      map[string][]Order
	history   []Order
	// Resting keeps submitted orders unfilled.
	Resting bool
	now     func() time.Time
}

func NewPaperBroker() *PaperBroker {
	return &PaperBroker{
		mu:        sync.Mutex{},
		positions: make(map[string]decimal.Decimal),
		prices:    make(map[string]float64),
		open:      make(map[string][]Order),
		history:   nil,
		Resting:   false,
		now:       time.Now,
	}
}

// Mark sets the reference price for symbol.
func (b *PaperBroker) Mark(symbol string, price float64) {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.prices[symbol] = price
}

func (b *PaperBroker) CancelOpenOrders(_ context.Context, symbol string) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	for _, o := range b.open[symbol] {
		o.Status = OrderStatusCanceled
		b.history = append(b.history, o)
	}

	delete(b.open, symbol)

	return nil
}

func (b *PaperBroker) Position(_ context.Context, symbol string) (decimal.Decimal, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	return b.positions[symbol], nil
}

func (b *PaperBroker) Price(_ context.Context, symbol string) (float64, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	price, ok := b.prices[symbol]
	if !ok || price <= 0 {
		return 0, errors.Newf(errors.ErrCodeInvalidPrice, "no price for %s", symbol)
	}

	return price, nil
}

func (b *PaperBroker) Submit(_ context.Context, order Order) (Order, error) {
	if !order.Quantity.IsPositive() {
		return Order{}, errors.Newf(errors.ErrCodeOrderFailed, "order quantity %s must be positive", order.Quantity) //nolint:exhaustruct
	}

	if order.Side != OrderSideBuy && order.Side != OrderSideSell {
		return Order{}, errors.Newf(errors.ErrCodeOrderFailed, "unknown order side %q", order.Side) //nolint:exhaustruct
	}

	b.mu.Lock()
	defer b.mu.Unlock()

	order.ID = uuid.NewString()
	order.CreatedAt = b.now()

	if b.Resting {
		order.Status = OrderStatusNew
		b.open[order.Symbol] = append(b.open[order.Symbol], order)

		return order, nil
	}

	delta := order.Quantity
	if order.Side == OrderSideSell {
		delta = delta.Neg()
	}

	b.positions[order.Symbol] = b.positions[order.Symbol].Add(delta)
	order.Status = OrderStatusFilled
	b.history = append(b.history, order)

	return order, nil
}

// Orders returns filled and canceled orders, oldest first.
func (b *PaperBroker) Orders() []Order {
	b.mu.Lock()
	defer b.mu.Unlock()

	out := make([]Order, len(b.history))
	copy(out, b.history)

	return out
}

// OpenOrders returns resting orders for symbol.
func (b *PaperBroker) OpenOrders(symbol string) []Order {
	b.mu.Lock()
	defer b.mu.Unlock()

	out := make([]Order, len(b.open[symbol]))
	copy(out, b.open[symbol])

	return out
}
