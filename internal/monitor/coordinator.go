package monitor

import (
	"context"
	"fmt"
	"sync"

	"go.uber.org/zap"

	"github.com/harlowe/vigil/internal/marketdata"
	"github.com/harlowe/vigil/internal/metrics"
	"github.com/harlowe/vigil/internal/storage/checkpoint"
)

// SpawnFunc starts a child monitor's run function. The default spawns a
// goroutine; tests substitute a failing spawn to exercise the
// failed-to-start path.
type SpawnFunc func(symbol string, run func()) error

// Coordinator fans out one supervisor per symbol and joins all of them.
// Children are fully isolated: one symbol's failure, including a panic,
// never affects another's run or the join itself.
type Coordinator struct {
	gateway marketdata.Gateway
	log     *zap.Logger
	reg     *metrics.Registry
	store   checkpoint.Store
	spawn   SpawnFunc
}

// CoordinatorOption configures a Coordinator.
type CoordinatorOption func(*Coordinator)

// WithCoordinatorLogger sets the base logger passed to children.
func WithCoordinatorLogger(log *zap.Logger) CoordinatorOption {
	return func(c *Coordinator) { c.log = log }
}

// WithCoordinatorMetrics sets the metrics registry passed to children.
func WithCoordinatorMetrics(reg *metrics.Registry) CoordinatorOption {
	return func(c *Coordinator) { c.reg = reg }
}

// WithCoordinatorCheckpoints sets the checkpoint store passed to children.
func WithCoordinatorCheckpoints(store checkpoint.Store) CoordinatorOption {
	return func(c *Coordinator) { c.store = store }
}

// WithSpawn overrides how child runs are started.
func WithSpawn(spawn SpawnFunc) CoordinatorOption {
	return func(c *Coordinator) { c.spawn = spawn }
}

// NewCoordinator creates a coordinator over the given market data gateway.
func NewCoordinator(gateway marketdata.Gateway, opts ...CoordinatorOption) *Coordinator {
	c := &Coordinator{
		gateway: gateway,
		spawn: func(_ string, run func()) error {
			go run()
			return nil
		},
	}
	for _, opt := range opts {
		opt(c)
	}
	if c.log == nil {
		c.log = zap.NewNop()
	}
	return c
}

// Run monitors all symbols with the shared parameters and blocks until
// every child finishes. The summary's Success refers to the fan-out/join
// itself; per-symbol outcomes live in the Results map and the counts.
func (c *Coordinator) Run(ctx context.Context, symbols []string, params Params) Summary {
	log := c.log.Named("coordinator")
	log.Info("starting fan-out",
		zap.Int("symbols", len(symbols)),
		zap.Duration("duration", params.Duration),
		zap.Duration("poll_interval", params.PollInterval),
		zap.Float64("threshold", params.Threshold),
	)

	results := make(map[string]Result, len(symbols))
	var mu sync.Mutex
	var wg sync.WaitGroup

	for _, symbol := range symbols {
		symbol := symbol

		childParams := params
		childParams.Symbol = symbol
		opts := []Option{WithLogger(c.log)}
		if c.reg != nil {
			opts = append(opts, WithMetrics(c.reg))
		}
		if c.store != nil {
			opts = append(opts, WithCheckpoints(c.store))
		}
		sup := NewSupervisor(childParams, c.gateway, opts...)

		run := func() {
			defer wg.Done()
			defer func() {
				if r := recover(); r != nil {
					log.Error("monitor panicked",
						zap.String("symbol", symbol),
						zap.Any("panic", r),
					)
					mu.Lock()
					results[symbol] = Result{
						Symbol: symbol,
						Error:  fmt.Sprintf("monitor for %s panicked: %v", symbol, r),
					}
					mu.Unlock()
				}
			}()

			res := sup.Run(ctx)
			mu.Lock()
			results[symbol] = res
			mu.Unlock()
		}

		wg.Add(1)
		if err := c.spawn(symbol, run); err != nil {
			wg.Done()
			log.Error("monitor failed to start",
				zap.String("symbol", symbol),
				zap.Error(err),
			)
			mu.Lock()
			results[symbol] = Result{
				Symbol: symbol,
				Error:  fmt.Sprintf("monitor for %s failed to start: %v", symbol, err),
			}
			mu.Unlock()
		}
	}

	wg.Wait()

	summary := Summary{
		Success:      true,
		TotalSymbols: len(symbols),
		Results:      results,
	}
	for _, res := range results {
		if res.Success {
			summary.SuccessfulMonitors++
			summary.TotalAlerts += res.TotalAlerts
		} else {
			summary.FailedMonitors++
		}
	}

	log.Info("fan-out finished",
		zap.Int("successful", summary.SuccessfulMonitors),
		zap.Int("failed", summary.FailedMonitors),
		zap.Int("total_alerts", summary.TotalAlerts),
	)
	return summary
}
