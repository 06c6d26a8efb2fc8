package pipeline

import (
	"context"
	"time"

	"github.com/ternarybob/arbor"
)

// RetryPolicy bounds how often a transient failure is reattempted.
type RetryPolicy struct {
	MaxAttempts int
	BaseDelay   time.Duration
}

// DefaultRetryPolicy mirrors the orchestration defaults: three attempts with
// exponential backoff starting at one second.
func DefaultRetryPolicy() RetryPolicy {
	return RetryPolicy{MaxAttempts: 3, BaseDelay: time.Second}
}

// withRetry invokes fn up to MaxAttempts times. Only transient errors are
// retried; everything else is returned to the caller on first occurrence.
// Backoff doubles per attempt and respects context cancellation.
func withRetry(ctx context.Context, policy RetryPolicy, logger arbor.ILogger, label string, fn func(ctx context.Context) error) error {
	attempts := policy.MaxAttempts
	if attempts < 1 {
		attempts = 1
	}

	var err error
	delay := policy.BaseDelay

	for attempt := 1; attempt <= attempts; attempt++ {
		err = fn(ctx)
		if err == nil {
			return nil
		}

		if !IsTransient(err) || attempt == attempts {
			return err
		}

		logger.Warn().
			Str("operation", label).
			Int("attempt", attempt).
			Dur("backoff", delay).
			Err(err).
			Msg("Transient failure, retrying")

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(delay):
		}
		delay *= 2
	}

	return err
}
