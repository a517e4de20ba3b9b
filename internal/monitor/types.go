// Package monitor implements the price monitoring supervisor and the
// fan-out coordinator that runs one supervisor per symbol.
package monitor

import "time"

// AlertKindPriceChange is the kind recorded on threshold-crossing alerts.
const AlertKindPriceChange = "price_change"

// Params are the inputs to a monitoring run. Threshold is a fraction
// (0.05 means alert on a 5% move from the initial price).
type Params struct {
	Symbol       string        `json:"symbol"`
	Duration     time.Duration `json:"duration"`
	PollInterval time.Duration `json:"poll_interval"`
	Threshold    float64       `json:"threshold"`
}

// PriceSample is one observation in a run's price history. Samples are
// append-only and strictly ordered by append sequence.
type PriceSample struct {
	Time time.Time `json:"time"`
	// Price is the observed quote price.
	Price float64 `json:"price"`
	// ChangePercent is the cumulative change from the run's initial
	// price, in percent.
	ChangePercent float64 `json:"change_percent"`
}

// Alert records one threshold crossing. Every cycle at or past the
// threshold produces a new Alert; there is no re-arm or debounce window.
type Alert struct {
	Time          time.Time `json:"time"`
	Symbol        string    `json:"symbol"`
	Price         float64   `json:"price"`
	InitialPrice  float64   `json:"initial_price"`
	ChangePercent float64   `json:"change_percent"`
	// Threshold is the configured fraction that was crossed.
	Threshold float64 `json:"threshold"`
	Kind      string  `json:"kind"`
}

// Result is the terminal record of one supervisor run.
type Result struct {
	Success bool   `json:"success"`
	Symbol  string `json:"symbol"`
	// Error holds the human-readable failure reason when Success is false.
	Error string `json:"error,omitempty"`

	Duration     time.Duration `json:"duration"`
	PollInterval time.Duration `json:"poll_interval"`

	InitialPrice       float64 `json:"initial_price"`
	FinalPrice         float64 `json:"final_price"`
	TotalChangePercent float64 `json:"total_change_percent"`

	PriceHistory []PriceSample `json:"price_history,omitempty"`
	Alerts       []Alert       `json:"alerts,omitempty"`

	TotalPriceChecks int `json:"total_price_checks"`
	TotalAlerts      int `json:"total_alerts"`

	// MonitoringCompleted is true only when the run ended by time
	// expiry, false when it ended on a stop signal.
	MonitoringCompleted bool `json:"monitoring_completed"`
}

// Status is a live snapshot of a running supervisor. Reading it never
// blocks the poll loop.
type Status struct {
	Active           bool         `json:"active"`
	Symbol           string       `json:"symbol"`
	TotalPriceChecks int          `json:"total_price_checks"`
	TotalAlerts      int          `json:"total_alerts"`
	LatestSample     *PriceSample `json:"latest_sample,omitempty"`
	// RecentAlerts holds at most the last five alerts.
	RecentAlerts []Alert `json:"recent_alerts,omitempty"`
}

// Summary aggregates the results of a coordinator fan-out. Success refers
// to the fan-out/join itself and is independent of child outcomes.
type Summary struct {
	Success            bool              `json:"success"`
	TotalSymbols       int               `json:"total_symbols"`
	SuccessfulMonitors int               `json:"successful_monitors"`
	FailedMonitors     int               `json:"failed_monitors"`
	// TotalAlerts sums alert counts across successful results only.
	TotalAlerts int               `json:"total_alerts"`
	Results     map[string]Result `json:"results"`
}
