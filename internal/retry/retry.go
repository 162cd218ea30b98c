// Package retry provides exponential backoff for calls to external
// providers. Only idempotent operations should go through it.
package retry

import (
	"context"
	"math"
	"time"

	"github.com/wallet-watchdog/internal/logging"
)

// Policy configures backoff behavior
type Policy struct {
	MaxAttempts  int
	InitialDelay time.Duration
	MaxDelay     time.Duration
	Multiplier   float64
}

// DefaultPolicy covers short provider hiccups: 500ms, 1s, 2s
func DefaultPolicy() *Policy {
	return &Policy{
		MaxAttempts:  3,
		InitialDelay: 500 * time.Millisecond,
		MaxDelay:     5 * time.Second,
		Multiplier:   2.0,
	}
}

// Do executes fn until it succeeds, the attempt budget runs out, or the
// context is cancelled. The error from the last attempt is returned.
func Do(ctx context.Context, policy *Policy, fn func(ctx context.Context) error) error {
	logger := logging.FromContext(ctx)

	var lastErr error
	for attempt := 1; attempt <= policy.MaxAttempts; attempt++ {
		lastErr = fn(ctx)
		if lastErr == nil {
			if attempt > 1 {
				logger.WithField("attempts", attempt).Info("Operation succeeded after retry")
			}
			return nil
		}

		if attempt >= policy.MaxAttempts {
			break
		}

		delay := backoffDelay(policy, attempt)
		logger.WithFields(map[string]interface{}{
			"attempt":     attempt,
			"maxAttempts": policy.MaxAttempts,
			"delay":       delay.String(),
			"error":       lastErr.Error(),
		}).Warn("Operation failed, backing off before retry")

		select {
		case <-time.After(delay):
		case <-ctx.Done():
			return ctx.Err()
		}
	}

	return lastErr
}

func backoffDelay(policy *Policy, attempt int) time.Duration {
	delay := time.Duration(float64(policy.InitialDelay) * math.Pow(policy.Multiplier, float64(attempt-1)))
	if delay > policy.MaxDelay {
		delay = policy.MaxDelay
	}
	return delay
}
