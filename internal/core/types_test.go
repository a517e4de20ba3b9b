package core

import (
	"testing"
	"time"
)

func TestQuote_IsValid(t *testing.T) {
	q := Quote{
		Symbol:   "AAPL",
		Price:    150.25,
		Bid:      150.24,
		Ask:      150.26,
		Volume:   1000000,
		Time:     time.Now(),
		Exchange: "NASDAQ",
	}

	if !q.IsValid() {
		t.Error("expected valid quote")
	}

	invalid := Quote{Symbol: "", Price: 0}
	if invalid.IsValid() {
		t.Error("expected invalid quote")
	}
}

func TestChangePercent(t *testing.T) {
	tests := []struct {
		name     string
		initial  float64
		current  float64
		want     float64
	}{
		{"up", 150.0, 160.0, 100 * 10.0 / 150.0},
		{"down", 200.0, 150.0, -25.0},
		{"flat", 100.0, 100.0, 0},
		{"zero initial", 0, 42.0, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := ChangePercent(tt.initial, tt.current); got != tt.want {
				t.Errorf("ChangePercent() = %v, want %v", got, tt.want)
			}
		})
	}
}
