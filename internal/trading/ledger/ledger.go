// Package ledger is the in-process reference implementation of the trading
// gateway. It owns order, position, and account state and applies the
// reconciliation rules for fills.
package ledger

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/harlowe/vigil/internal/config"
	"github.com/harlowe/vigil/internal/trading"
)

func init() {
	trading.Register("mock", func(config.BrokerConfig) (trading.Gateway, error) {
		return New(), nil
	})
}

// defaultReferencePrice is used for symbols absent from the price table.
const defaultReferencePrice = 100.0

// referencePrices mirrors the mock market data universe so that fills and
// position marks stay in the same ballpark.
var referencePrices = map[string]float64{
	"AAPL":  150.0,
	"GOOGL": 2800.0,
	"MSFT":  300.0,
	"TSLA":  800.0,
	"AMZN":  3200.0,
	"NVDA":  450.0,
	"META":  280.0,
	"NFLX":  400.0,
}

// Ledger implements trading.Gateway against in-memory state. All state
// transitions run under one mutex so a fill's order, position, and cash
// mutations are atomic with respect to concurrent placements.
type Ledger struct {
	mu        sync.Mutex
	orders    map[string]*trading.Order
	positions map[string]*trading.Position
	account   trading.Account
	prices    map[string]float64
}

// New creates a flat ledger with the default starting account.
func New() *Ledger {
	prices := make(map[string]float64, len(referencePrices))
	for s, p := range referencePrices {
		prices[s] = p
	}
	l := &Ledger{
		orders:    make(map[string]*trading.Order),
		positions: make(map[string]*trading.Position),
		account: trading.Account{
			ID:          "mock_account_123",
			Cash:        100000.0,
			BuyingPower: 200000.0,
		},
		prices: prices,
	}
	return l
}

// Name returns the provider identifier.
func (l *Ledger) Name() string {
	return "mock"
}

// SetReferencePrice pins the price used for market fills and position marks.
func (l *Ledger) SetReferencePrice(symbol string, price float64) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.prices[symbol] = price
}

// SeedPosition installs a position directly, bypassing order flow. Intended
// for demos and tests that need pre-existing holdings.
func (l *Ledger) SeedPosition(pos trading.Position) {
	l.mu.Lock()
	defer l.mu.Unlock()
	p := pos
	l.positions[pos.Symbol] = &p
}

func (l *Ledger) referencePrice(symbol string) float64 {
	if p, ok := l.prices[symbol]; ok {
		return p
	}
	return defaultReferencePrice
}

// PlaceOrder creates an order. Market orders fill immediately and fully at
// the current reference price; all other types start pending with zero
// filled quantity.
func (l *Ledger) PlaceOrder(ctx context.Context, req trading.OrderRequest) (*trading.Order, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	now := time.Now()
	order := &trading.Order{
		ID:          uuid.NewString(),
		Symbol:      req.Symbol,
		Side:        req.Side,
		Type:        req.Type,
		Quantity:    req.Quantity,
		Price:       req.Price,
		StopPrice:   req.StopPrice,
		Status:      trading.OrderStatusPending,
		TimeInForce: req.TimeInForce,
		CreatedAt:   now,
		UpdatedAt:   now,
	}

	if req.Type == trading.OrderTypeMarket {
		order.Status = trading.OrderStatusFilled
		order.FilledQuantity = req.Quantity
		order.FilledPrice = l.referencePrice(req.Symbol)
	}

	l.orders[order.ID] = order

	if order.IsFilled() {
		l.applyFill(order)
	}

	cp := *order
	return &cp, nil
}

// CancelOrder cancels the order when it exists and is not filled or
// cancelled. Both the unknown-order and terminal-order cases return false
// without error and without touching any state.
func (l *Ledger) CancelOrder(ctx context.Context, id string) (bool, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	order, ok := l.orders[id]
	if !ok {
		return false, nil
	}
	if !order.IsCancellable() {
		return false, nil
	}

	order.Status = trading.OrderStatusCancelled
	order.UpdatedAt = time.Now()
	return true, nil
}

// GetOrder returns the order or trading.ErrOrderNotFound.
func (l *Ledger) GetOrder(ctx context.Context, id string) (*trading.Order, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	order, ok := l.orders[id]
	if !ok {
		return nil, trading.ErrOrderNotFound
	}
	cp := *order
	return &cp, nil
}

// GetOrders returns orders matching the filter.
func (l *Ledger) GetOrders(ctx context.Context, filter trading.OrderFilter) ([]trading.Order, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	var result []trading.Order
	for _, o := range l.orders {
		if filter.Matches(*o) {
			result = append(result, *o)
		}
	}
	return result, nil
}

// GetPositions returns all open positions.
func (l *Ledger) GetPositions(ctx context.Context) ([]trading.Position, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	result := make([]trading.Position, 0, len(l.positions))
	for _, p := range l.positions {
		result = append(result, *p)
	}
	return result, nil
}

// GetPosition returns the position for the symbol, or nil when flat.
func (l *Ledger) GetPosition(ctx context.Context, symbol string) (*trading.Position, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	p, ok := l.positions[symbol]
	if !ok {
		return nil, nil
	}
	cp := *p
	return &cp, nil
}

// GetAccount returns the account with portfolio value recomputed as
// cash + sum of position market values.
func (l *Ledger) GetAccount(ctx context.Context) (*trading.Account, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	acct := l.account
	acct.PortfolioValue = acct.Cash
	for _, p := range l.positions {
		acct.PortfolioValue += p.MarketValue
	}
	return &acct, nil
}

// applyFill reconciles position and cash for a filled order. Caller holds
// the ledger lock.
//
// Average cost is intentionally NOT re-weighted when adding to an existing
// position in the same direction; it keeps the value set when the position
// was created. This matches the reference ledger and is not a general
// cost-basis engine.
func (l *Ledger) applyFill(order *trading.Order) {
	symbol := order.Symbol
	refPrice := l.referencePrice(symbol)
	filledPrice := order.FilledPrice
	if filledPrice == 0 {
		filledPrice = refPrice
	}

	pos, exists := l.positions[symbol]
	if !exists {
		quantity := order.FilledQuantity
		side := trading.PositionSideLong
		if order.Side == trading.OrderSideSell {
			quantity = -quantity
			side = trading.PositionSideShort
		}
		l.positions[symbol] = &trading.Position{
			Symbol:      symbol,
			Quantity:    quantity,
			AvgCost:     filledPrice,
			MarketValue: abs64(quantity) * refPrice,
			Side:        side,
		}
	} else {
		newQuantity := pos.Quantity + order.FilledQuantity
		if order.Side == trading.OrderSideSell {
			newQuantity = pos.Quantity - order.FilledQuantity
		}

		if newQuantity == 0 {
			// Flat: the position is removed entirely.
			delete(l.positions, symbol)
		} else {
			pos.Quantity = newQuantity
			if newQuantity > 0 {
				pos.Side = trading.PositionSideLong
			} else {
				pos.Side = trading.PositionSideShort
			}
			pos.MarketValue = abs64(newQuantity) * refPrice
			pos.UnrealizedPnL = (refPrice - pos.AvgCost) * float64(newQuantity)
		}
	}

	notional := float64(order.FilledQuantity) * filledPrice
	if order.Side == trading.OrderSideBuy {
		l.account.Cash -= notional
	} else {
		l.account.Cash += notional
	}
}

func abs64(q int64) float64 {
	if q < 0 {
		return float64(-q)
	}
	return float64(q)
}
