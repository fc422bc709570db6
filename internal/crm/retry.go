package crm

import (
	"context"
	"time"

	"github.com/sirupsen/logrus"
)

// RetryPolicy is a bounded retry with a pluggable backoff and sleeper.
// The sleeper is injectable so tests can observe delays without
// wall-clock waits.
type RetryPolicy struct {
	MaxAttempts int
	Backoff     func(attempt int) time.Duration
	Sleep       func(d time.Duration)
	Log         *logrus.Logger
}

// LinearBackoff returns attempt*unit: 1*unit after the first failure,
// 2*unit after the second, and so on.
func LinearBackoff(unit time.Duration) func(int) time.Duration {
	return func(attempt int) time.Duration {
		return time.Duration(attempt) * unit
	}
}

// NewRetryPolicy builds the standard policy used for CRM write-backs.
func NewRetryPolicy(maxAttempts int, backoffUnit time.Duration, log *logrus.Logger) RetryPolicy {
	return RetryPolicy{
		MaxAttempts: maxAttempts,
		Backoff:     LinearBackoff(backoffUnit),
		Sleep:       time.Sleep,
		Log:         log,
	}
}

// Do runs op until it succeeds or MaxAttempts is exhausted, sleeping
// Backoff(n) after the n-th failed attempt (no sleep after the last).
// Returns the last error on exhaustion.
func (p RetryPolicy) Do(ctx context.Context, name string, op func(ctx context.Context) error) error {
	var lastErr error

	for attempt := 1; attempt <= p.MaxAttempts; attempt++ {
		lastErr = op(ctx)
		if lastErr == nil {
			return nil
		}

		if p.Log != nil {
			p.Log.Warnf("[retry] %s attempt %d/%d failed: %v", name, attempt, p.MaxAttempts, lastErr)
		}

		if attempt < p.MaxAttempts {
			p.Sleep(p.Backoff(attempt))
		}
	}

	return lastErr
}
