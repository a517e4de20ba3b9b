// Package trading provides types and the gateway interface for order
// placement, positions, and account state.
package trading

import (
	"errors"
	"time"
)

// Trading-specific errors.
var (
	// ErrOrderNotFound indicates the order was not found.
	ErrOrderNotFound = errors.New("trading: order not found")
	// ErrInvalidSymbol indicates an invalid or empty symbol.
	ErrInvalidSymbol = errors.New("trading: invalid symbol")
	// ErrInvalidQuantity indicates a non-positive quantity.
	ErrInvalidQuantity = errors.New("trading: invalid quantity")
	// ErrInvalidPrice indicates a missing limit price.
	ErrInvalidPrice = errors.New("trading: invalid price for limit order")
	// ErrInvalidStopPrice indicates a missing stop price.
	ErrInvalidStopPrice = errors.New("trading: invalid stop price for stop order")
	// ErrInvalidSide indicates an unsupported order side.
	ErrInvalidSide = errors.New("trading: invalid order side")
	// ErrInvalidOrderType indicates an unsupported order type.
	ErrInvalidOrderType = errors.New("trading: invalid order type")
)

// OrderSide represents the direction of an order.
type OrderSide string

const (
	OrderSideBuy  OrderSide = "buy"
	OrderSideSell OrderSide = "sell"
)

// OrderType represents the type of order execution.
type OrderType string

const (
	OrderTypeMarket    OrderType = "market"
	OrderTypeLimit     OrderType = "limit"
	OrderTypeStop      OrderType = "stop"
	OrderTypeStopLimit OrderType = "stop_limit"
)

// OrderStatus represents the lifecycle status of an order.
type OrderStatus string

const (
	OrderStatusPending         OrderStatus = "pending"
	OrderStatusFilled          OrderStatus = "filled"
	OrderStatusPartiallyFilled OrderStatus = "partially_filled"
	OrderStatusCancelled       OrderStatus = "cancelled"
	OrderStatusRejected        OrderStatus = "rejected"
)

// PositionSide is derived from the sign of a position's quantity.
type PositionSide string

const (
	PositionSideLong  PositionSide = "long"
	PositionSideShort PositionSide = "short"
)

// OrderRequest represents a request to place a new order.
type OrderRequest struct {
	// Symbol is the ticker symbol (e.g., "AAPL").
	Symbol string `json:"symbol"`
	// Side indicates buy or sell.
	Side OrderSide `json:"side"`
	// Type specifies the order execution type.
	Type OrderType `json:"type"`
	// Quantity is the number of shares to trade.
	Quantity int64 `json:"quantity"`
	// Price is the limit price (required for limit and stop_limit orders).
	Price float64 `json:"price,omitempty"`
	// StopPrice is the trigger price (required for stop and stop_limit orders).
	StopPrice float64 `json:"stop_price,omitempty"`
	// TimeInForce specifies how long the order remains active.
	TimeInForce string `json:"time_in_force,omitempty"`
}

// Validate checks if the order request has valid required fields.
func (r OrderRequest) Validate() error {
	if r.Symbol == "" {
		return ErrInvalidSymbol
	}
	switch r.Side {
	case OrderSideBuy, OrderSideSell:
	default:
		return ErrInvalidSide
	}
	switch r.Type {
	case OrderTypeMarket, OrderTypeLimit, OrderTypeStop, OrderTypeStopLimit:
	default:
		return ErrInvalidOrderType
	}
	if r.Quantity <= 0 {
		return ErrInvalidQuantity
	}
	if (r.Type == OrderTypeLimit || r.Type == OrderTypeStopLimit) && r.Price <= 0 {
		return ErrInvalidPrice
	}
	if (r.Type == OrderTypeStop || r.Type == OrderTypeStopLimit) && r.StopPrice <= 0 {
		return ErrInvalidStopPrice
	}
	return nil
}

// Order represents an order and its fill state.
type Order struct {
	// ID is the gateway-assigned unique identifier.
	ID string `json:"id"`
	// Symbol is the ticker symbol.
	Symbol string `json:"symbol"`
	// Side indicates buy or sell.
	Side OrderSide `json:"side"`
	// Type specifies the order execution type.
	Type OrderType `json:"type"`
	// Quantity is the total order quantity.
	Quantity int64 `json:"quantity"`
	// Price is the limit price for limit orders.
	Price float64 `json:"price,omitempty"`
	// StopPrice is the trigger price for stop orders.
	StopPrice float64 `json:"stop_price,omitempty"`
	// Status is the current order status.
	Status OrderStatus `json:"status"`
	// FilledQuantity is the number of shares filled.
	FilledQuantity int64 `json:"filled_quantity"`
	// FilledPrice is the execution price (zero while unfilled).
	FilledPrice float64 `json:"filled_price,omitempty"`
	// TimeInForce specifies how long the order remains active.
	TimeInForce string `json:"time_in_force,omitempty"`
	// CreatedAt is when the order was created.
	CreatedAt time.Time `json:"created_at"`
	// UpdatedAt is when the order was last updated.
	UpdatedAt time.Time `json:"updated_at"`
}

// IsFilled returns true if the order is completely filled.
func (o Order) IsFilled() bool {
	return o.Status == OrderStatusFilled
}

// IsTerminal returns true if the order is in a final state.
func (o Order) IsTerminal() bool {
	return o.Status == OrderStatusFilled ||
		o.Status == OrderStatusCancelled ||
		o.Status == OrderStatusRejected
}

// IsCancellable returns true if cancel_order may still succeed. Partially
// filled and rejected orders remain cancellable; filled and cancelled do not.
func (o Order) IsCancellable() bool {
	return o.Status != OrderStatusFilled && o.Status != OrderStatusCancelled
}

// Position represents a holding in a security. At most one Position exists
// per symbol; a position whose quantity reaches zero is removed.
type Position struct {
	// Symbol is the ticker symbol.
	Symbol string `json:"symbol"`
	// Quantity is the number of shares held (negative for short).
	Quantity int64 `json:"quantity"`
	// AvgCost is the cost basis per share at position creation.
	AvgCost float64 `json:"avg_cost"`
	// MarketValue is |quantity| times the reference price.
	MarketValue float64 `json:"market_value"`
	// UnrealizedPnL is (reference price - avg cost) * quantity.
	UnrealizedPnL float64 `json:"unrealized_pnl"`
	// Side is long or short, derived from the sign of Quantity.
	Side PositionSide `json:"side"`
}

// IsLong returns true if this is a long position.
func (p Position) IsLong() bool {
	return p.Quantity > 0
}

// IsShort returns true if this is a short position.
func (p Position) IsShort() bool {
	return p.Quantity < 0
}

// Account represents account balance information. PortfolioValue is always
// recomputed as cash plus the sum of position market values when read.
type Account struct {
	ID                  string  `json:"id"`
	Cash                float64 `json:"cash"`
	BuyingPower         float64 `json:"buying_power"`
	PortfolioValue      float64 `json:"portfolio_value"`
	DayTradeCount       int     `json:"day_trade_count"`
	IsPatternDayTrader  bool    `json:"is_pattern_day_trader"`
}

// OrderFilter filters order list queries. Zero values match everything.
type OrderFilter struct {
	Status OrderStatus
	Symbol string
}

// Matches reports whether the order passes the filter.
func (f OrderFilter) Matches(o Order) bool {
	if f.Status != "" && o.Status != f.Status {
		return false
	}
	if f.Symbol != "" && o.Symbol != f.Symbol {
		return false
	}
	return true
}
