// Package marketdata defines the gateway consumed by the monitoring
// supervisor for quotes, history, and symbol validation.
package marketdata

import (
	"context"
	"time"

	"github.com/harlowe/vigil/internal/core"
)

// Gateway is the market data boundary. Implementations talk to a brokerage
// data feed; the bundled mock serves tests and demos.
type Gateway interface {
	// Name returns the provider identifier (e.g., "mock", "alpaca")
	Name() string

	// GetQuote returns the current quote for a symbol.
	// Fails with core.ErrSymbolNotFound for unknown symbols.
	GetQuote(ctx context.Context, symbol string) (*core.Quote, error)

	// GetQuotes returns quotes for multiple symbols. Any unknown symbol
	// fails the whole batch.
	GetQuotes(ctx context.Context, symbols []string) ([]core.Quote, error)

	// GetHistory returns historical bars for the symbol in [start, end].
	// timeframe is provider notation, e.g. "1Day".
	GetHistory(ctx context.Context, symbol string, start, end time.Time, timeframe string) ([]core.Bar, error)

	// ValidateSymbol reports whether the symbol exists and is tradeable.
	ValidateSymbol(ctx context.Context, symbol string) (bool, error)

	// SearchSymbols returns instruments matching the query by symbol or name.
	SearchSymbols(ctx context.Context, query string) ([]core.SymbolInfo, error)
}
