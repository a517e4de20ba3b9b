package trading

import "context"

// Gateway is the trading boundary: order placement and account state
// against a brokerage or the in-process ledger.
type Gateway interface {
	// Name returns the provider identifier (e.g., "mock", "alpaca")
	Name() string

	// PlaceOrder submits a new order. Market orders may return already
	// filled.
	PlaceOrder(ctx context.Context, req OrderRequest) (*Order, error)

	// CancelOrder cancels the order if it exists and is not in a
	// terminal filled/cancelled state. Returns false, without error and
	// without mutating state, otherwise: a cancel on a missing or
	// terminal order is a normal negative result, not a fault.
	CancelOrder(ctx context.Context, id string) (bool, error)

	// GetOrder returns the order or ErrOrderNotFound.
	GetOrder(ctx context.Context, id string) (*Order, error)

	// GetOrders returns orders matching the filter.
	GetOrders(ctx context.Context, filter OrderFilter) ([]Order, error)

	// GetPositions returns all open positions.
	GetPositions(ctx context.Context) ([]Position, error)

	// GetPosition returns the position for the symbol, or nil when flat.
	GetPosition(ctx context.Context, symbol string) (*Position, error)

	// GetAccount returns account balances with portfolio value recomputed.
	GetAccount(ctx context.Context) (*Account, error)
}
