// Package retry provides a bounded retry executor for gateway calls.
package retry

import (
	"context"
	"fmt"
	"time"

	"github.com/jpillora/backoff"
	"go.uber.org/zap"
)

// Policy defines the retry budget for a single logical call.
type Policy struct {
	// InitialInterval is the wait before the second attempt.
	InitialInterval time.Duration
	// MaxInterval caps the wait between attempts.
	MaxInterval time.Duration
	// MaxAttempts is the total number of attempts, including the first.
	MaxAttempts int
}

// DefaultPolicy matches the gateway retry budget used by the supervisor:
// 1s initial backoff, 10s cap, 3 attempts.
func DefaultPolicy() Policy {
	return Policy{
		InitialInterval: 1 * time.Second,
		MaxInterval:     10 * time.Second,
		MaxAttempts:     3,
	}
}

// Executor runs operations under a Policy. The per-call attempt budget is
// independent of any outer deadline: an attempt that is already running is
// never aborted by the executor itself, only the waits between attempts
// observe ctx.
type Executor struct {
	policy Policy
	log    *zap.Logger

	// OnRetry, when set, is invoked before each wait between attempts.
	OnRetry func(op string, attempt int, err error)
}

// New creates an Executor with the given policy.
func New(policy Policy, log *zap.Logger) *Executor {
	if log == nil {
		log = zap.NewNop()
	}
	if policy.MaxAttempts < 1 {
		policy.MaxAttempts = 1
	}
	return &Executor{policy: policy, log: log}
}

// Do runs fn until it succeeds, the attempt budget is exhausted, or ctx is
// cancelled while waiting between attempts. The last attempt error is
// returned on exhaustion.
func (e *Executor) Do(ctx context.Context, op string, fn func(ctx context.Context) error) error {
	b := &backoff.Backoff{
		Min:    e.policy.InitialInterval,
		Max:    e.policy.MaxInterval,
		Factor: 2,
	}

	var lastErr error
	for attempt := 1; attempt <= e.policy.MaxAttempts; attempt++ {
		if err := ctx.Err(); err != nil {
			return err
		}

		lastErr = fn(ctx)
		if lastErr == nil {
			return nil
		}

		if attempt == e.policy.MaxAttempts {
			break
		}

		if e.OnRetry != nil {
			e.OnRetry(op, attempt, lastErr)
		}
		e.log.Warn("retrying operation",
			zap.String("op", op),
			zap.Int("attempt", attempt),
			zap.Error(lastErr),
		)

		wait := b.Duration()
		timer := time.NewTimer(wait)
		select {
		case <-ctx.Done():
			timer.Stop()
			return ctx.Err()
		case <-timer.C:
		}
	}

	return fmt.Errorf("%s failed after %d attempts: %w", op, e.policy.MaxAttempts, lastErr)
}
