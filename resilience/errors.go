package resilience

import (
	"errors"
	"fmt"
)

// Sentinel errors for resilience operations.
var (
	// ErrCircuitOpen is returned when the circuit breaker is open.
	ErrCircuitOpen = errors.New("resilience: circuit breaker is open")

	// ErrMaxRetriesExceeded is returned when max retry attempts are exhausted.
	ErrMaxRetriesExceeded = errors.New("resilience: max retries exceeded")

	// ErrRateLimitExceeded is returned when the rate limit is exceeded.
	ErrRateLimitExceeded = errors.New("resilience: rate limit exceeded")

	// ErrBulkheadFull is returned when the bulkhead is at capacity.
	ErrBulkheadFull = errors.New("resilience: bulkhead at capacity")

	// ErrTimeout is returned when an attempt exceeds its allotted duration.
	ErrTimeout = errors.New("resilience: operation timed out")
)

// RetryExhaustedError wraps the last underlying error once all retry
// attempts are spent. It matches ErrMaxRetriesExceeded via errors.Is
// and exposes the final attempt count.
type RetryExhaustedError struct {
	// Attempts is the total number of attempts made.
	Attempts int
	// Err is the error returned by the final attempt.
	Err error
}

// Error returns the string representation of the error.
func (e *RetryExhaustedError) Error() string {
	return fmt.Sprintf("resilience: retry exhausted after %d attempts: %v", e.Attempts, e.Err)
}

// Unwrap returns the final attempt's error.
func (e *RetryExhaustedError) Unwrap() error { return e.Err }

// Is reports a match against the ErrMaxRetriesExceeded sentinel.
func (e *RetryExhaustedError) Is(target error) bool { return target == ErrMaxRetriesExceeded }
