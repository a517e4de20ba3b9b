// Package mock provides an in-process market data gateway backed by a
// static base price table.
package mock

import (
	"context"
	"fmt"
	"math/rand"
	"strings"
	"sync"
	"time"

	"github.com/harlowe/vigil/internal/config"
	"github.com/harlowe/vigil/internal/core"
	"github.com/harlowe/vigil/internal/marketdata"
)

func init() {
	marketdata.Register("mock", func(config.BrokerConfig) (marketdata.Gateway, error) {
		return New(), nil
	})
}

// basePrices is the default symbol universe.
var basePrices = map[string]float64{
	"AAPL":  150.0,
	"GOOGL": 2800.0,
	"MSFT":  300.0,
	"TSLA":  800.0,
	"AMZN":  3200.0,
	"NVDA":  450.0,
	"META":  280.0,
	"NFLX":  400.0,
}

var companyNames = map[string]string{
	"AAPL":  "Apple Inc.",
	"GOOGL": "Alphabet Inc.",
	"MSFT":  "Microsoft Corporation",
	"TSLA":  "Tesla Inc.",
	"AMZN":  "Amazon.com Inc.",
	"NVDA":  "NVIDIA Corporation",
	"META":  "Meta Platforms Inc.",
	"NFLX":  "Netflix Inc.",
}

// Gateway implements marketdata.Gateway with synthetic data.
type Gateway struct {
	mu     sync.RWMutex
	prices map[string]float64
	jitter float64 // max fractional variation per quote
	rng    *rand.Rand
}

// New creates a mock gateway over the default symbol universe with ±2%
// quote variation.
func New() *Gateway {
	prices := make(map[string]float64, len(basePrices))
	for s, p := range basePrices {
		prices[s] = p
	}
	return &Gateway{
		prices: prices,
		jitter: 0.02,
		rng:    rand.New(rand.NewSource(time.Now().UnixNano())),
	}
}

// Name returns the provider identifier.
func (g *Gateway) Name() string {
	return "mock"
}

// SetPrice pins a symbol's base price. Adds the symbol to the universe if
// it is not already present.
func (g *Gateway) SetPrice(symbol string, price float64) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.prices[symbol] = price
}

// SetJitter sets the maximum fractional quote variation. Zero makes quotes
// deterministic.
func (g *Gateway) SetJitter(j float64) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.jitter = j
}

// GetQuote generates a quote around the symbol's base price.
func (g *Gateway) GetQuote(ctx context.Context, symbol string) (*core.Quote, error) {
	g.mu.Lock()
	defer g.mu.Unlock()

	base, ok := g.prices[symbol]
	if !ok {
		return nil, core.WrapError(core.ErrSymbolNotFound, fmt.Errorf("symbol %s", symbol))
	}

	price := base * (1 + g.variation(g.jitter))
	return &core.Quote{
		Symbol:   symbol,
		Price:    price,
		Bid:      price - 0.01,
		Ask:      price + 0.01,
		Volume:   100000 + g.rng.Int63n(900000),
		Time:     time.Now(),
		Exchange: "MOCK",
	}, nil
}

// GetQuotes generates quotes for all symbols; an unknown symbol fails the
// whole batch.
func (g *Gateway) GetQuotes(ctx context.Context, symbols []string) ([]core.Quote, error) {
	quotes := make([]core.Quote, 0, len(symbols))
	for _, s := range symbols {
		q, err := g.GetQuote(ctx, s)
		if err != nil {
			return nil, err
		}
		quotes = append(quotes, *q)
	}
	return quotes, nil
}

// GetHistory generates daily bars as a random walk from the base price.
func (g *Gateway) GetHistory(ctx context.Context, symbol string, start, end time.Time, timeframe string) ([]core.Bar, error) {
	g.mu.Lock()
	defer g.mu.Unlock()

	base, ok := g.prices[symbol]
	if !ok {
		return nil, core.WrapError(core.ErrSymbolNotFound, fmt.Errorf("symbol %s", symbol))
	}

	var bars []core.Bar
	for day := start; !day.After(end); day = day.AddDate(0, 0, 1) {
		open := base * (1 + g.variation(0.05))
		high := open * (1 + g.rng.Float64()*0.03)
		low := open * (1 - g.rng.Float64()*0.03)
		closeP := open * (1 + g.variation(0.02))

		bars = append(bars, core.Bar{
			Symbol: symbol,
			Open:   open,
			High:   high,
			Low:    low,
			Close:  closeP,
			Volume: 100000 + g.rng.Int63n(900000),
			Time:   day,
		})

		// Walk: next day opens around the previous close.
		base = closeP
	}
	return bars, nil
}

// ValidateSymbol reports membership in the symbol universe.
func (g *Gateway) ValidateSymbol(ctx context.Context, symbol string) (bool, error) {
	g.mu.RLock()
	defer g.mu.RUnlock()
	_, ok := g.prices[symbol]
	return ok, nil
}

// SearchSymbols matches the query against symbols and company names.
func (g *Gateway) SearchSymbols(ctx context.Context, query string) ([]core.SymbolInfo, error) {
	g.mu.RLock()
	defer g.mu.RUnlock()

	q := strings.ToLower(query)
	var results []core.SymbolInfo
	for symbol := range g.prices {
		name, ok := companyNames[symbol]
		if !ok {
			name = symbol + " Corporation"
		}
		if strings.Contains(strings.ToLower(symbol), q) ||
			strings.Contains(strings.ToLower(name), q) {
			results = append(results, core.SymbolInfo{
				Symbol:   symbol,
				Name:     name,
				Exchange: "MOCK",
			})
		}
	}
	return results, nil
}

// variation returns a uniform value in [-max, +max].
func (g *Gateway) variation(max float64) float64 {
	if max == 0 {
		return 0
	}
	return (g.rng.Float64()*2 - 1) * max
}
