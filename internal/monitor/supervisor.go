package monitor

import (
	"context"
	"encoding/json"
	"fmt"
	"math"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/harlowe/vigil/internal/core"
	"github.com/harlowe/vigil/internal/logger"
	"github.com/harlowe/vigil/internal/marketdata"
	"github.com/harlowe/vigil/internal/metrics"
	"github.com/harlowe/vigil/internal/retry"
	"github.com/harlowe/vigil/internal/storage/checkpoint"
)

// Supervisor runs the monitoring state machine for one symbol: validate,
// take an initial sample, then poll on a fixed cadence until the deadline
// or a stop signal. All mutable run state is owned by the Run goroutine;
// queries read immutable snapshots under a lock.
type Supervisor struct {
	params   Params
	gateway  marketdata.Gateway
	executor *retry.Executor
	log      *zap.Logger
	reg      *metrics.Registry
	store    checkpoint.Store
	runID    string

	mu           sync.RWMutex
	active       bool
	initialPrice float64
	history      []PriceSample
	alerts       []Alert

	stopOnce sync.Once
	stopCh   chan struct{}

	// restoredDeadline is non-zero when the supervisor was rebuilt from a
	// checkpoint; Run then skips validation and the initial sample and
	// derives time remaining from it.
	restoredDeadline time.Time
}

// Option configures a Supervisor.
type Option func(*Supervisor)

// WithLogger sets the base logger.
func WithLogger(log *zap.Logger) Option {
	return func(s *Supervisor) { s.log = log }
}

// WithMetrics sets the metrics registry.
func WithMetrics(reg *metrics.Registry) Option {
	return func(s *Supervisor) { s.reg = reg }
}

// WithCheckpoints sets the checkpoint store. When set, the supervisor
// persists its state after the initial sample and after every poll cycle.
func WithCheckpoints(store checkpoint.Store) Option {
	return func(s *Supervisor) { s.store = store }
}

// WithRetryPolicy overrides the gateway retry budget.
func WithRetryPolicy(policy retry.Policy) Option {
	return func(s *Supervisor) { s.executor = retry.New(policy, s.log) }
}

// WithRunID pins the run id used for checkpoint keys.
func WithRunID(id string) Option {
	return func(s *Supervisor) { s.runID = id }
}

// NewSupervisor creates a supervisor for one monitoring run.
func NewSupervisor(params Params, gateway marketdata.Gateway, opts ...Option) *Supervisor {
	s := &Supervisor{
		params:  params,
		gateway: gateway,
		runID:   uuid.NewString(),
		stopCh:  make(chan struct{}),
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.log == nil {
		s.log = zap.NewNop()
	}
	if s.executor == nil {
		s.executor = retry.New(retry.DefaultPolicy(), s.log)
	}
	if s.reg != nil && s.executor.OnRetry == nil {
		s.executor.OnRetry = func(op string, attempt int, err error) {
			s.reg.RecordGatewayRetry(op)
		}
	}
	return s
}

// checkpointState is the persisted form of a run. The deadline is stored
// absolutely so a resumed run re-derives time remaining from it rather
// than from its own start time.
type checkpointState struct {
	RunID        string        `json:"run_id"`
	Symbol       string        `json:"symbol"`
	Deadline     time.Time     `json:"deadline"`
	Duration     time.Duration `json:"duration"`
	PollInterval time.Duration `json:"poll_interval"`
	Threshold    float64       `json:"threshold"`
	InitialPrice float64       `json:"initial_price"`
	PriceHistory []PriceSample `json:"price_history"`
	Alerts       []Alert       `json:"alerts"`
}

// Restore rebuilds a supervisor from a stored checkpoint. The returned
// supervisor's Run continues the original run: no re-validation, no new
// initial sample, deadline taken from the checkpoint.
func Restore(ctx context.Context, store checkpoint.Store, runID string, gateway marketdata.Gateway, opts ...Option) (*Supervisor, error) {
	data, err := store.Load(ctx, runID)
	if err != nil {
		return nil, err
	}
	var state checkpointState
	if err := json.Unmarshal(data, &state); err != nil {
		return nil, core.WrapError(core.ErrMonitorFailed,
			fmt.Errorf("decoding checkpoint for run %s: %w", runID, err))
	}

	params := Params{
		Symbol:       state.Symbol,
		Duration:     state.Duration,
		PollInterval: state.PollInterval,
		Threshold:    state.Threshold,
	}
	s := NewSupervisor(params, gateway, opts...)
	s.runID = state.RunID
	s.store = store
	s.initialPrice = state.InitialPrice
	s.history = state.PriceHistory
	s.alerts = state.Alerts
	s.restoredDeadline = state.Deadline
	return s, nil
}

// RunID returns the identifier used for checkpoint keys.
func (s *Supervisor) RunID() string {
	return s.runID
}

// Stop requests a graceful stop. It is asynchronous and idempotent: the
// poll loop observes it at the next cycle boundary, and an in-flight
// fetch always completes first.
func (s *Supervisor) Stop() {
	s.stopOnce.Do(func() {
		s.mu.Lock()
		s.active = false
		s.mu.Unlock()
		close(s.stopCh)
	})
}

// Status returns a live snapshot without blocking the poll loop.
func (s *Supervisor) Status() Status {
	s.mu.RLock()
	defer s.mu.RUnlock()

	st := Status{
		Active:           s.active,
		Symbol:           s.params.Symbol,
		TotalPriceChecks: len(s.history),
		TotalAlerts:      len(s.alerts),
	}
	if n := len(s.history); n > 0 {
		latest := s.history[n-1]
		st.LatestSample = &latest
	}
	recent := s.alerts
	if len(recent) > 5 {
		recent = recent[len(recent)-5:]
	}
	st.RecentAlerts = append([]Alert(nil), recent...)
	return st
}

// PriceHistory returns a copy of the ordered sample log.
func (s *Supervisor) PriceHistory() []PriceSample {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]PriceSample(nil), s.history...)
}

// Alerts returns a copy of the ordered alert log.
func (s *Supervisor) Alerts() []Alert {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]Alert(nil), s.alerts...)
}

// Run executes the monitoring state machine to its terminal result. It
// blocks until the duration expires, Stop is called, or ctx is cancelled.
func (s *Supervisor) Run(ctx context.Context) Result {
	log := logger.ForSymbol(s.log, "supervisor", s.params.Symbol)

	res := Result{
		Symbol:       s.params.Symbol,
		Duration:     s.params.Duration,
		PollInterval: s.params.PollInterval,
	}

	if s.reg != nil {
		s.reg.MonitorStarted()
	}
	outcome := "failed"
	defer func() {
		if s.reg != nil {
			s.reg.MonitorFinished(outcome)
		}
	}()

	s.mu.Lock()
	s.active = true
	s.mu.Unlock()
	defer func() {
		s.mu.Lock()
		s.active = false
		s.mu.Unlock()
	}()

	var deadline time.Time
	if !s.restoredDeadline.IsZero() {
		deadline = s.restoredDeadline
		log.Info("resuming monitoring from checkpoint",
			zap.String("run_id", s.runID),
			zap.Time("deadline", deadline),
			zap.Int("samples", len(s.history)),
		)
	} else {
		// Validation failure is terminal and fast: the gateway call is
		// retried on transport errors, a clean false is not.
		var valid bool
		err := s.executor.Do(ctx, "validate_symbol", func(ctx context.Context) error {
			v, err := s.gateway.ValidateSymbol(ctx, s.params.Symbol)
			if err != nil {
				return err
			}
			valid = v
			return nil
		})
		if err != nil {
			res.Error = fmt.Sprintf("Failed to validate symbol %s: %v", s.params.Symbol, err)
			log.Error("symbol validation failed", zap.Error(err))
			return res
		}
		if !valid {
			res.Error = fmt.Sprintf("Invalid stock symbol: %s", s.params.Symbol)
			log.Warn("invalid symbol")
			return res
		}

		var initial *core.Quote
		err = s.executor.Do(ctx, "get_quote", func(ctx context.Context) error {
			q, err := s.gateway.GetQuote(ctx, s.params.Symbol)
			if err != nil {
				return err
			}
			initial = q
			return nil
		})
		if err != nil {
			res.Error = fmt.Sprintf("Failed to fetch initial price for %s: %v", s.params.Symbol, err)
			log.Error("initial price fetch failed", zap.Error(err))
			return res
		}

		deadline = time.Now().Add(s.params.Duration)

		s.mu.Lock()
		s.initialPrice = initial.Price
		s.history = append(s.history, PriceSample{
			Time:          time.Now(),
			Price:         initial.Price,
			ChangePercent: 0,
		})
		s.mu.Unlock()

		log.Info("monitoring started",
			zap.String("run_id", s.runID),
			zap.Float64("initial_price", initial.Price),
			zap.Duration("duration", s.params.Duration),
			zap.Duration("poll_interval", s.params.PollInterval),
			zap.Float64("threshold", s.params.Threshold),
		)
		s.checkpoint(ctx, deadline, log)
	}

	s.mu.RLock()
	initialPrice := s.initialPrice
	s.mu.RUnlock()

	stopped := s.pollLoop(ctx, deadline, initialPrice, log)

	s.mu.RLock()
	history := append([]PriceSample(nil), s.history...)
	alerts := append([]Alert(nil), s.alerts...)
	s.mu.RUnlock()

	res.Success = true
	res.InitialPrice = initialPrice
	if n := len(history); n > 0 {
		res.FinalPrice = history[n-1].Price
	}
	res.TotalChangePercent = core.ChangePercent(initialPrice, res.FinalPrice)
	res.PriceHistory = history
	res.Alerts = alerts
	res.TotalPriceChecks = len(history)
	res.TotalAlerts = len(alerts)
	res.MonitoringCompleted = !stopped

	if stopped {
		outcome = "stopped"
	} else {
		outcome = "completed"
	}

	if s.store != nil {
		if err := s.store.Delete(ctx, s.runID); err != nil {
			log.Warn("deleting checkpoint failed", zap.Error(err))
		}
	}

	log.Info("monitoring finished",
		zap.Bool("completed", res.MonitoringCompleted),
		zap.Int("price_checks", res.TotalPriceChecks),
		zap.Int("alerts", res.TotalAlerts),
		zap.Float64("total_change_percent", res.TotalChangePercent),
	)
	return res
}

// pollLoop samples until the deadline or a stop. It reports whether the
// loop exited on a stop signal rather than time expiry.
func (s *Supervisor) pollLoop(ctx context.Context, deadline time.Time, initialPrice float64, log *zap.Logger) bool {
	for {
		if s.stopRequested() || ctx.Err() != nil {
			return true
		}
		if !time.Now().Before(deadline) {
			return false
		}

		fetchStart := time.Now()
		var quote *core.Quote
		err := s.executor.Do(ctx, "get_quote", func(ctx context.Context) error {
			q, err := s.gateway.GetQuote(ctx, s.params.Symbol)
			if err != nil {
				return err
			}
			quote = q
			return nil
		})
		if err != nil {
			if ctx.Err() != nil {
				return true
			}
			// A single bad cycle is non-fatal; skip it and keep going.
			log.Warn("price fetch failed, skipping cycle", zap.Error(err))
			if s.reg != nil {
				s.reg.RecordPollFailure(s.params.Symbol)
			}
		} else {
			s.recordSample(quote.Price, initialPrice, fetchStart, log)
		}
		s.checkpoint(ctx, deadline, log)

		// Sleep to the next poll boundary, never past the deadline.
		remaining := time.Until(deadline)
		if remaining <= 0 {
			return false
		}
		wait := s.params.PollInterval
		if wait > remaining {
			wait = remaining
		}
		timer := time.NewTimer(wait)
		select {
		case <-ctx.Done():
			timer.Stop()
			return true
		case <-s.stopCh:
			timer.Stop()
			return true
		case <-timer.C:
		}
	}
}

func (s *Supervisor) recordSample(price, initialPrice float64, fetchStart time.Time, log *zap.Logger) {
	change := core.ChangePercent(initialPrice, price)
	crossed := math.Abs(change) >= s.params.Threshold*100

	now := time.Now()
	s.mu.Lock()
	s.history = append(s.history, PriceSample{
		Time:          now,
		Price:         price,
		ChangePercent: change,
	})
	if crossed {
		s.alerts = append(s.alerts, Alert{
			Time:          now,
			Symbol:        s.params.Symbol,
			Price:         price,
			InitialPrice:  initialPrice,
			ChangePercent: change,
			Threshold:     s.params.Threshold,
			Kind:          AlertKindPriceChange,
		})
	}
	s.mu.Unlock()

	if s.reg != nil {
		s.reg.RecordPriceCheck(s.params.Symbol, time.Since(fetchStart).Seconds())
	}
	if crossed {
		log.Info("price change alert",
			zap.Float64("price", price),
			zap.Float64("initial_price", initialPrice),
			zap.Float64("change_percent", change),
		)
		if s.reg != nil {
			s.reg.RecordAlert(s.params.Symbol)
		}
	}
}

func (s *Supervisor) stopRequested() bool {
	select {
	case <-s.stopCh:
		return true
	default:
		return false
	}
}

func (s *Supervisor) checkpoint(ctx context.Context, deadline time.Time, log *zap.Logger) {
	if s.store == nil {
		return
	}

	s.mu.RLock()
	state := checkpointState{
		RunID:        s.runID,
		Symbol:       s.params.Symbol,
		Deadline:     deadline,
		Duration:     s.params.Duration,
		PollInterval: s.params.PollInterval,
		Threshold:    s.params.Threshold,
		InitialPrice: s.initialPrice,
		PriceHistory: append([]PriceSample(nil), s.history...),
		Alerts:       append([]Alert(nil), s.alerts...),
	}
	s.mu.RUnlock()

	data, err := json.Marshal(state)
	if err != nil {
		log.Warn("encoding checkpoint failed", zap.Error(err))
		return
	}
	if err := s.store.Save(ctx, s.runID, data); err != nil {
		log.Warn("saving checkpoint failed", zap.Error(err))
	}
}
