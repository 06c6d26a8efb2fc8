package pipeline

import (
	"context"
	"errors"
	"fmt"

	"github.com/Awannaphasch2016/dr-daily-report-sub002/internal/eodhd"
)

// ConfigError indicates required configuration is missing or malformed. It is
// raised before any side effect and is never retried: the correct response is
// to fail loudly, not to substitute a default.
type ConfigError struct {
	Field  string
	Reason string
}

func (e *ConfigError) Error() string {
	return fmt.Sprintf("configuration error: %s: %s", e.Field, e.Reason)
}

// NewConfigError creates a ConfigError for a named configuration field.
func NewConfigError(field, reason string) *ConfigError {
	return &ConfigError{Field: field, Reason: reason}
}

// TransientError wraps a failure that is worth retrying with backoff:
// timeouts, throttling, connection resets.
type TransientError struct {
	Err error
}

func (e *TransientError) Error() string {
	return fmt.Sprintf("transient error: %v", e.Err)
}

func (e *TransientError) Unwrap() error { return e.Err }

// Transient wraps err as retryable.
func Transient(err error) *TransientError {
	return &TransientError{Err: err}
}

// ItemError indicates one work item failed in a way that must not abort the
// batch. The item's failure is recorded; the run continues.
type ItemError struct {
	Symbol string
	Err    error
}

func (e *ItemError) Error() string {
	return fmt.Sprintf("item %s failed: %v", e.Symbol, e.Err)
}

func (e *ItemError) Unwrap() error { return e.Err }

// IntegrityError indicates the database did not reflect an expected write
// (zero rows affected) or the live schema has drifted from the code's
// contract. It is raised past the worker boundary and fails the invoking
// unit: optimistic continuation would hide data loss.
type IntegrityError struct {
	Op     string
	Detail string
}

func (e *IntegrityError) Error() string {
	return fmt.Sprintf("integrity error in %s: %s", e.Op, e.Detail)
}

// IsTransient reports whether err warrants a bounded retry. Rate limiting and
// transient upstream statuses from the market-data API qualify, as do
// deadline expiries from a timed-out worker invocation.
func IsTransient(err error) bool {
	if err == nil {
		return false
	}

	var te *TransientError
	if errors.As(err, &te) {
		return true
	}

	var rateLimit *eodhd.RateLimitError
	if errors.As(err, &rateLimit) {
		return true
	}

	var apiErr *eodhd.APIError
	if errors.As(err, &apiErr) {
		return apiErr.IsTransient()
	}

	return errors.Is(err, context.DeadlineExceeded)
}
