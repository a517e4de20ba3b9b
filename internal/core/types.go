package core

import "time"

// Quote represents a real-time price quote
type Quote struct {
	Symbol   string
	Price    float64 // last traded price
	Bid      float64
	Ask      float64
	Volume   int64
	Time     time.Time
	Exchange string
}

// IsValid checks if the quote has required fields
func (q Quote) IsValid() bool {
	return q.Symbol != "" && q.Price > 0
}

// Bar represents a historical price bar. High/low bounds relative to
// open/close are a producer contract and are not validated here.
type Bar struct {
	Symbol string
	Open   float64
	High   float64
	Low    float64
	Close  float64
	Volume int64
	Time   time.Time
}

// SymbolInfo describes a tradable instrument returned by symbol search
type SymbolInfo struct {
	Symbol   string
	Name     string
	Exchange string
}

// ChangePercent computes the percentage change of current against initial.
// Returns 0 when initial is 0 to avoid propagating Inf into results.
func ChangePercent(initial, current float64) float64 {
	if initial == 0 {
		return 0
	}
	return (current - initial) / initial * 100
}
