package monitor

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/harlowe/vigil/internal/core"
	"github.com/harlowe/vigil/internal/retry"
	"github.com/harlowe/vigil/internal/storage/checkpoint"
)

// quoteResp scripts one GetQuote response.
type quoteResp struct {
	price float64
	err   error
}

// fakeGateway serves scripted quotes per symbol; after the script is
// exhausted the last entry repeats.
type fakeGateway struct {
	mu            sync.Mutex
	invalid       map[string]bool
	validateErr   error
	validateCalls int
	script        map[string][]quoteResp
	calls         map[string]int
	panicSymbol   string
}

func newFakeGateway() *fakeGateway {
	return &fakeGateway{
		invalid: make(map[string]bool),
		script:  make(map[string][]quoteResp),
		calls:   make(map[string]int),
	}
}

func (g *fakeGateway) Name() string { return "fake" }

func (g *fakeGateway) ValidateSymbol(ctx context.Context, symbol string) (bool, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.validateCalls++
	if g.validateErr != nil {
		return false, g.validateErr
	}
	return !g.invalid[symbol], nil
}

func (g *fakeGateway) GetQuote(ctx context.Context, symbol string) (*core.Quote, error) {
	g.mu.Lock()
	defer g.mu.Unlock()

	if symbol == g.panicSymbol {
		panic("scripted panic")
	}

	g.calls[symbol]++
	script := g.script[symbol]
	if len(script) == 0 {
		return nil, core.ErrNoData
	}
	i := g.calls[symbol] - 1
	if i >= len(script) {
		i = len(script) - 1
	}
	r := script[i]
	if r.err != nil {
		return nil, r.err
	}
	return &core.Quote{
		Symbol: symbol,
		Price:  r.price,
		Bid:    r.price - 0.01,
		Ask:    r.price + 0.01,
		Time:   time.Now(),
	}, nil
}

func (g *fakeGateway) quoteCalls(symbol string) int {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.calls[symbol]
}

func (g *fakeGateway) GetQuotes(ctx context.Context, symbols []string) ([]core.Quote, error) {
	return nil, core.ErrNoData
}

func (g *fakeGateway) GetHistory(ctx context.Context, symbol string, start, end time.Time, timeframe string) ([]core.Bar, error) {
	return nil, core.ErrNoData
}

func (g *fakeGateway) SearchSymbols(ctx context.Context, query string) ([]core.SymbolInfo, error) {
	return nil, nil
}

// fastRetry keeps test retries in the microsecond range.
func fastRetry() Option {
	return WithRetryPolicy(retry.Policy{
		InitialInterval: time.Millisecond,
		MaxInterval:     5 * time.Millisecond,
		MaxAttempts:     3,
	})
}

func TestSupervisor_InvalidSymbol(t *testing.T) {
	gw := newFakeGateway()
	gw.invalid["ZZZZ"] = true

	sup := NewSupervisor(Params{
		Symbol:       "ZZZZ",
		Duration:     time.Minute,
		PollInterval: time.Second,
		Threshold:    0.05,
	}, gw, fastRetry())

	res := sup.Run(context.Background())

	assert.False(t, res.Success)
	assert.Equal(t, "Invalid stock symbol: ZZZZ", res.Error)
	assert.Equal(t, "ZZZZ", res.Symbol)
	assert.Zero(t, res.TotalPriceChecks)
	assert.Equal(t, 0, gw.quoteCalls("ZZZZ"), "no price fetch after failed validation")
}

func TestSupervisor_InitialFetchFailsAfterRetries(t *testing.T) {
	gw := newFakeGateway()
	fetchErr := errors.New("gateway timeout")
	gw.script["AAPL"] = []quoteResp{{err: fetchErr}}

	sup := NewSupervisor(Params{
		Symbol:       "AAPL",
		Duration:     time.Minute,
		PollInterval: time.Second,
		Threshold:    0.05,
	}, gw, fastRetry())

	res := sup.Run(context.Background())

	assert.False(t, res.Success)
	assert.Contains(t, res.Error, "Failed to fetch initial price for AAPL")
	assert.Contains(t, res.Error, "gateway timeout")
	assert.Equal(t, 3, gw.quoteCalls("AAPL"), "initial fetch uses the full retry budget")
}

func TestSupervisor_ThresholdScenario(t *testing.T) {
	gw := newFakeGateway()
	gw.script["AAPL"] = []quoteResp{{price: 150.0}, {price: 150.0}, {price: 160.0}}

	sup := NewSupervisor(Params{
		Symbol:       "AAPL",
		Duration:     300 * time.Millisecond,
		PollInterval: 200 * time.Millisecond,
		Threshold:    0.03,
	}, gw, fastRetry())

	res := sup.Run(context.Background())

	require.True(t, res.Success)
	assert.True(t, res.MonitoringCompleted)
	assert.Equal(t, 3, res.TotalPriceChecks)
	assert.Equal(t, res.TotalPriceChecks, len(res.PriceHistory))
	require.Equal(t, 1, res.TotalAlerts)

	alert := res.Alerts[0]
	assert.Equal(t, "AAPL", alert.Symbol)
	assert.Equal(t, 160.0, alert.Price)
	assert.Equal(t, 150.0, alert.InitialPrice)
	assert.InDelta(t, 6.67, alert.ChangePercent, 0.01)
	assert.Equal(t, 0.03, alert.Threshold)
	assert.Equal(t, AlertKindPriceChange, alert.Kind)

	assert.Equal(t, 150.0, res.InitialPrice)
	assert.Equal(t, 160.0, res.FinalPrice)
	assert.InDelta(t, 6.67, res.TotalChangePercent, 0.01)

	// Samples are strictly append-ordered.
	for i := 1; i < len(res.PriceHistory); i++ {
		assert.False(t, res.PriceHistory[i].Time.Before(res.PriceHistory[i-1].Time))
	}
}

func TestSupervisor_NoAlertBelowThreshold(t *testing.T) {
	gw := newFakeGateway()
	gw.script["AAPL"] = []quoteResp{{price: 150.0}, {price: 151.0}}

	sup := NewSupervisor(Params{
		Symbol:       "AAPL",
		Duration:     150 * time.Millisecond,
		PollInterval: 100 * time.Millisecond,
		Threshold:    0.05,
	}, gw, fastRetry())

	res := sup.Run(context.Background())

	require.True(t, res.Success)
	assert.Zero(t, res.TotalAlerts)
	assert.GreaterOrEqual(t, res.TotalPriceChecks, 2)
}

func TestSupervisor_EveryCrossingCycleAlerts(t *testing.T) {
	// No re-arm window: consecutive cycles past the threshold each alert.
	gw := newFakeGateway()
	gw.script["AAPL"] = []quoteResp{{price: 100.0}, {price: 110.0}, {price: 111.0}}

	sup := NewSupervisor(Params{
		Symbol:       "AAPL",
		Duration:     300 * time.Millisecond,
		PollInterval: 200 * time.Millisecond,
		Threshold:    0.05,
	}, gw, fastRetry())

	res := sup.Run(context.Background())

	require.True(t, res.Success)
	assert.Equal(t, 2, res.TotalAlerts)
}

func TestSupervisor_PollFailureSkipsCycle(t *testing.T) {
	gw := newFakeGateway()
	gw.script["AAPL"] = []quoteResp{
		{price: 150.0},
		{err: errors.New("flaky")},
		{err: errors.New("flaky")},
		{err: errors.New("flaky")},
		{price: 155.0},
	}

	sup := NewSupervisor(Params{
		Symbol:       "AAPL",
		Duration:     150 * time.Millisecond,
		PollInterval: 100 * time.Millisecond,
		Threshold:    0.5,
	}, gw, fastRetry())

	res := sup.Run(context.Background())

	// One retried-out cycle is skipped, monitoring continues to the end.
	require.True(t, res.Success)
	assert.True(t, res.MonitoringCompleted)
	assert.Equal(t, 2, res.TotalPriceChecks)
	assert.Equal(t, 155.0, res.FinalPrice)
}

func TestSupervisor_StopEndsRun(t *testing.T) {
	gw := newFakeGateway()
	gw.script["AAPL"] = []quoteResp{{price: 150.0}}

	sup := NewSupervisor(Params{
		Symbol:       "AAPL",
		Duration:     10 * time.Second,
		PollInterval: 50 * time.Millisecond,
		Threshold:    0.05,
	}, gw, fastRetry())

	done := make(chan Result, 1)
	go func() { done <- sup.Run(context.Background()) }()

	// Wait for the run to make progress, then stop it.
	require.Eventually(t, func() bool {
		return sup.Status().TotalPriceChecks >= 2
	}, 2*time.Second, 10*time.Millisecond)

	sup.Stop()
	sup.Stop() // idempotent

	select {
	case res := <-done:
		assert.True(t, res.Success)
		assert.False(t, res.MonitoringCompleted, "stop must not count as completion")
		assert.GreaterOrEqual(t, res.TotalPriceChecks, 2)
	case <-time.After(2 * time.Second):
		t.Fatal("supervisor did not stop within one poll interval")
	}

	assert.False(t, sup.Status().Active)
}

func TestSupervisor_ContextCancelEndsRun(t *testing.T) {
	gw := newFakeGateway()
	gw.script["AAPL"] = []quoteResp{{price: 150.0}}

	sup := NewSupervisor(Params{
		Symbol:       "AAPL",
		Duration:     10 * time.Second,
		PollInterval: 50 * time.Millisecond,
		Threshold:    0.05,
	}, gw, fastRetry())

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan Result, 1)
	go func() { done <- sup.Run(ctx) }()

	require.Eventually(t, func() bool {
		return sup.Status().TotalPriceChecks >= 1
	}, 2*time.Second, 10*time.Millisecond)
	cancel()

	select {
	case res := <-done:
		assert.False(t, res.MonitoringCompleted)
	case <-time.After(2 * time.Second):
		t.Fatal("supervisor did not observe cancellation")
	}
}

func TestSupervisor_StatusSnapshot(t *testing.T) {
	gw := newFakeGateway()
	gw.script["AAPL"] = []quoteResp{{price: 150.0}, {price: 200.0}}

	sup := NewSupervisor(Params{
		Symbol:       "AAPL",
		Duration:     10 * time.Second,
		PollInterval: 50 * time.Millisecond,
		Threshold:    0.01,
	}, gw, fastRetry())

	done := make(chan Result, 1)
	go func() { done <- sup.Run(context.Background()) }()

	require.Eventually(t, func() bool {
		return sup.Status().TotalAlerts >= 1
	}, 2*time.Second, 10*time.Millisecond)

	st := sup.Status()
	assert.True(t, st.Active)
	assert.Equal(t, "AAPL", st.Symbol)
	require.NotNil(t, st.LatestSample)
	assert.Equal(t, 200.0, st.LatestSample.Price)
	assert.LessOrEqual(t, len(st.RecentAlerts), 5)
	assert.Equal(t, st.TotalPriceChecks, len(sup.PriceHistory()))
	assert.Equal(t, st.TotalAlerts, len(sup.Alerts()))

	sup.Stop()
	<-done
}

func TestSupervisor_CheckpointsEachCycle(t *testing.T) {
	gw := newFakeGateway()
	gw.script["AAPL"] = []quoteResp{{price: 150.0}}
	store := checkpoint.NewMemoryStore()

	sup := NewSupervisor(Params{
		Symbol:       "AAPL",
		Duration:     10 * time.Second,
		PollInterval: 50 * time.Millisecond,
		Threshold:    0.05,
	}, gw, fastRetry(), WithCheckpoints(store), WithRunID("run-ckpt"))

	done := make(chan Result, 1)
	go func() { done <- sup.Run(context.Background()) }()

	require.Eventually(t, func() bool {
		_, err := store.Load(context.Background(), "run-ckpt")
		return err == nil
	}, 2*time.Second, 10*time.Millisecond)

	sup.Stop()
	<-done

	// Terminal runs clean up their checkpoint.
	_, err := store.Load(context.Background(), "run-ckpt")
	assert.ErrorIs(t, err, core.ErrCheckpointNotFound)
}

func TestRestore_ContinuesFromStoredDeadline(t *testing.T) {
	gw := newFakeGateway()
	// Validation would fail if the resumed run re-validated.
	gw.validateErr = errors.New("must not be called")
	gw.script["AAPL"] = []quoteResp{{price: 152.0}}

	deadline := time.Now().Add(250 * time.Millisecond)
	state := map[string]any{
		"run_id":        "run-resume",
		"symbol":        "AAPL",
		"deadline":      deadline,
		"duration":      (10 * time.Minute).Nanoseconds(),
		"poll_interval": (100 * time.Millisecond).Nanoseconds(),
		"threshold":     0.05,
		"initial_price": 150.0,
		"price_history": []PriceSample{
			{Time: time.Now().Add(-time.Minute), Price: 150.0, ChangePercent: 0},
			{Time: time.Now().Add(-30 * time.Second), Price: 151.0, ChangePercent: 0.67},
		},
		"alerts": []Alert{},
	}
	data, err := json.Marshal(state)
	require.NoError(t, err)

	store := checkpoint.NewMemoryStore()
	require.NoError(t, store.Save(context.Background(), "run-resume", data))

	sup, err := Restore(context.Background(), store, "run-resume", gw, fastRetry())
	require.NoError(t, err)
	assert.Equal(t, "run-resume", sup.RunID())

	start := time.Now()
	res := sup.Run(context.Background())
	elapsed := time.Since(start)

	require.True(t, res.Success)
	assert.True(t, res.MonitoringCompleted)
	// Remaining time comes from the stored deadline, not the full duration.
	assert.Less(t, elapsed, 2*time.Second)
	assert.Equal(t, 150.0, res.InitialPrice)
	assert.GreaterOrEqual(t, res.TotalPriceChecks, 3, "restored samples plus at least one new cycle")

	gw.mu.Lock()
	validateCalls := gw.validateCalls
	gw.mu.Unlock()
	assert.Zero(t, validateCalls, "resume must not re-validate")
}

func TestRestore_MissingCheckpoint(t *testing.T) {
	store := checkpoint.NewMemoryStore()
	_, err := Restore(context.Background(), store, "missing", newFakeGateway())
	assert.ErrorIs(t, err, core.ErrCheckpointNotFound)
}

func TestRestore_CorruptCheckpoint(t *testing.T) {
	store := checkpoint.NewMemoryStore()
	require.NoError(t, store.Save(context.Background(), "bad", []byte("{not json")))

	_, err := Restore(context.Background(), store, "bad", newFakeGateway())
	require.Error(t, err)
	assert.ErrorIs(t, err, core.ErrMonitorFailed)
}

func TestSupervisor_RunIDAssigned(t *testing.T) {
	sup := NewSupervisor(Params{Symbol: "AAPL"}, newFakeGateway())
	assert.NotEmpty(t, sup.RunID())

	other := NewSupervisor(Params{Symbol: "AAPL"}, newFakeGateway())
	assert.NotEqual(t, sup.RunID(), other.RunID(), fmt.Sprintf("run ids must be unique, got %s twice", sup.RunID()))
}
