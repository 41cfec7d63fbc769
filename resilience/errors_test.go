package resilience

import (
	"errors"
	"strings"
	"testing"
)

func TestRetryExhaustedError(t *testing.T) {
	cause := errors.New("connection reset")
	err := &RetryExhaustedError{Attempts: 3, Err: cause}

	if !strings.Contains(err.Error(), "3 attempts") {
		t.Errorf("Error() = %q, want the attempt count", err.Error())
	}
	if !strings.Contains(err.Error(), "connection reset") {
		t.Errorf("Error() = %q, want the cause message", err.Error())
	}

	if !errors.Is(err, ErrMaxRetriesExceeded) {
		t.Error("errors.Is(err, ErrMaxRetriesExceeded) = false, want true")
	}
	if !errors.Is(err, cause) {
		t.Error("errors.Is(err, cause) = false, want true")
	}

	var exhausted *RetryExhaustedError
	if !errors.As(err, &exhausted) {
		t.Fatal("errors.As failed")
	}
	if exhausted.Attempts != 3 {
		t.Errorf("Attempts = %d, want 3", exhausted.Attempts)
	}
}

func TestSentinelErrorsDistinct(t *testing.T) {
	sentinels := []error{
		ErrCircuitOpen,
		ErrMaxRetriesExceeded,
		ErrRateLimitExceeded,
		ErrBulkheadFull,
		ErrTimeout,
	}

	for i, a := range sentinels {
		for j, b := range sentinels {
			if i != j && errors.Is(a, b) {
				t.Errorf("sentinel %d matches sentinel %d", i, j)
			}
		}
	}
}
