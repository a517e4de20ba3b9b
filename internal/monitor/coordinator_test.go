package monitor

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func shortParams() Params {
	return Params{
		Duration:     150 * time.Millisecond,
		PollInterval: 100 * time.Millisecond,
		Threshold:    0.05,
	}
}

func TestCoordinator_AllSucceed(t *testing.T) {
	gw := newFakeGateway()
	gw.script["AAPL"] = []quoteResp{{price: 150.0}}
	gw.script["MSFT"] = []quoteResp{{price: 300.0}}

	coord := NewCoordinator(gw)
	summary := coord.Run(context.Background(), []string{"AAPL", "MSFT"}, shortParams())

	assert.True(t, summary.Success)
	assert.Equal(t, 2, summary.TotalSymbols)
	assert.Equal(t, 2, summary.SuccessfulMonitors)
	assert.Zero(t, summary.FailedMonitors)
	require.Len(t, summary.Results, 2)
	assert.True(t, summary.Results["AAPL"].Success)
	assert.True(t, summary.Results["MSFT"].Success)
}

func TestCoordinator_ValidationFailureIsolated(t *testing.T) {
	gw := newFakeGateway()
	gw.script["AAPL"] = []quoteResp{{price: 150.0}}
	gw.script["MSFT"] = []quoteResp{{price: 300.0}}
	gw.invalid["BADX"] = true

	coord := NewCoordinator(gw)
	summary := coord.Run(context.Background(), []string{"AAPL", "BADX", "MSFT"}, shortParams())

	assert.True(t, summary.Success, "fan-out success is independent of child failures")
	assert.Equal(t, 3, summary.TotalSymbols)
	assert.Equal(t, 2, summary.SuccessfulMonitors)
	assert.Equal(t, 1, summary.FailedMonitors)
	assert.Equal(t, summary.TotalSymbols, summary.SuccessfulMonitors+summary.FailedMonitors)

	bad := summary.Results["BADX"]
	assert.False(t, bad.Success)
	assert.Contains(t, bad.Error, "BADX")
	assert.True(t, summary.Results["AAPL"].Success)
	assert.True(t, summary.Results["MSFT"].Success)
}

func TestCoordinator_FailedToStartSynthesized(t *testing.T) {
	gw := newFakeGateway()
	gw.script["AAPL"] = []quoteResp{{price: 150.0}}
	gw.script["MSFT"] = []quoteResp{{price: 300.0}}

	coord := NewCoordinator(gw, WithSpawn(func(symbol string, run func()) error {
		if symbol == "MSFT" {
			return errors.New("scheduler saturated")
		}
		go run()
		return nil
	}))

	summary := coord.Run(context.Background(), []string{"AAPL", "MSFT"}, shortParams())

	assert.Equal(t, 1, summary.SuccessfulMonitors)
	assert.Equal(t, 1, summary.FailedMonitors)

	failed, ok := summary.Results["MSFT"]
	require.True(t, ok, "unstarted symbol must still appear in results")
	assert.False(t, failed.Success)
	assert.Contains(t, failed.Error, "failed to start")
	assert.Contains(t, failed.Error, "scheduler saturated")
}

func TestCoordinator_PanicIsolated(t *testing.T) {
	gw := newFakeGateway()
	gw.script["AAPL"] = []quoteResp{{price: 150.0}}
	gw.panicSymbol = "BOOM"

	coord := NewCoordinator(gw)
	summary := coord.Run(context.Background(), []string{"AAPL", "BOOM"}, shortParams())

	assert.True(t, summary.Success)
	assert.Equal(t, 1, summary.SuccessfulMonitors)
	assert.Equal(t, 1, summary.FailedMonitors)

	crashed := summary.Results["BOOM"]
	assert.False(t, crashed.Success)
	assert.Contains(t, crashed.Error, "panicked")
	assert.True(t, summary.Results["AAPL"].Success)
}

func TestCoordinator_TotalAlertsSumsSuccessfulOnly(t *testing.T) {
	gw := newFakeGateway()
	// 10% jump on every poll cycle against a 5% threshold.
	gw.script["AAPL"] = []quoteResp{{price: 100.0}, {price: 110.0}}
	gw.script["MSFT"] = []quoteResp{{price: 300.0}, {price: 330.0}}
	gw.invalid["BADX"] = true

	coord := NewCoordinator(gw)
	summary := coord.Run(context.Background(), []string{"AAPL", "MSFT", "BADX"}, shortParams())

	want := 0
	for _, res := range summary.Results {
		if res.Success {
			want += res.TotalAlerts
		}
	}
	assert.Equal(t, want, summary.TotalAlerts)
	assert.GreaterOrEqual(t, summary.TotalAlerts, 2)
}

func TestCoordinator_EmptySymbolList(t *testing.T) {
	coord := NewCoordinator(newFakeGateway())
	summary := coord.Run(context.Background(), nil, shortParams())

	assert.True(t, summary.Success)
	assert.Zero(t, summary.TotalSymbols)
	assert.Empty(t, summary.Results)
}
