package resilience

import (
	"context"
	"math"
	"math/rand/v2"
	"sync"
	"time"

	"github.com/coder/quartz"

	"github.com/jonwraymond/tradeops/fault"
)

// BackoffStrategy defines how delays grow between retries.
type BackoffStrategy int

const (
	// BackoffExponential multiplies the delay by the backoff factor each attempt.
	BackoffExponential BackoffStrategy = iota
	// BackoffFixed uses the base delay for all retries.
	BackoffFixed
	// BackoffLinear increases the delay linearly with the attempt number.
	BackoffLinear
	// BackoffFibonacci scales the delay by the Fibonacci sequence.
	BackoffFibonacci
)

// String returns the strategy name.
func (s BackoffStrategy) String() string {
	switch s {
	case BackoffExponential:
		return "exponential"
	case BackoffFixed:
		return "fixed"
	case BackoffLinear:
		return "linear"
	case BackoffFibonacci:
		return "fibonacci"
	default:
		return "exponential"
	}
}

// RetryConfig configures the retry behavior.
type RetryConfig struct {
	// MaxAttempts is the maximum number of attempts (including the initial one).
	// Default: 3
	MaxAttempts int

	// BaseDelay is the delay before the first retry.
	// Default: 1s
	BaseDelay time.Duration

	// MaxDelay caps the delay between retries. Computed delays are always
	// clamped into [0, MaxDelay], jitter included.
	// Default: 30s
	MaxDelay time.Duration

	// BackoffFactor is the multiplier for exponential backoff.
	// Default: 2.0
	BackoffFactor float64

	// Strategy is the backoff strategy.
	// Default: BackoffExponential
	Strategy BackoffStrategy

	// Jitter randomizes each delay by ±JitterFactor to avoid retry storms.
	// The zero RetryConfig disables it; DefaultRetryConfig enables it.
	Jitter bool

	// JitterFactor is the jitter amplitude as a fraction of the delay (0..1).
	// Default: 0.1
	JitterFactor float64

	// RetryIf determines if an error should trigger a retry. Errors that
	// do not match propagate immediately without touching the stats.
	// Default: fault.IsRecoverable.
	RetryIf func(err error) bool

	// RetryIfResult treats a successful result as a retryable outcome
	// when it returns true, e.g. "retry if nil". Optional.
	RetryIfResult func(result any) bool

	// OnRetry is called before each retry attempt.
	OnRetry func(attempt int, err error, delay time.Duration)

	// Clock is the time source, injectable for tests.
	// Default: the real clock.
	Clock quartz.Clock
}

// DefaultRetryConfig returns the documented defaults.
func DefaultRetryConfig() RetryConfig {
	return RetryConfig{
		MaxAttempts:   3,
		BaseDelay:     time.Second,
		MaxDelay:      30 * time.Second,
		BackoffFactor: 2.0,
		Strategy:      BackoffExponential,
		Jitter:        true,
		JitterFactor:  0.1,
	}
}

// RetryOnKinds returns a RetryIf predicate that retries only errors of
// the given kinds.
func RetryOnKinds(kinds ...fault.Kind) func(error) bool {
	return func(err error) bool {
		k := fault.KindOf(err)
		for _, kind := range kinds {
			if k == kind {
				return true
			}
		}
		return false
	}
}

// RetryStats is a snapshot of a Retry instance's counters. Counters
// only move for attempts the executor actually retried; errors that
// propagate immediately leave the stats untouched.
type RetryStats struct {
	// Attempts is the number of retries scheduled.
	Attempts int
	// Successes is the number of operations that eventually succeeded.
	Successes int
	// Failures is the number of retryable failures observed.
	Failures int
	// LastError is the most recent retryable error.
	LastError error
}

// Retry implements retry with backoff.
type Retry struct {
	config RetryConfig
	clock  quartz.Clock

	mu    sync.Mutex
	stats RetryStats
}

// NewRetry creates a new retry handler.
func NewRetry(config RetryConfig) *Retry {
	// Apply defaults
	if config.MaxAttempts <= 0 {
		config.MaxAttempts = 3
	}
	if config.BaseDelay <= 0 {
		config.BaseDelay = time.Second
	}
	if config.MaxDelay <= 0 {
		config.MaxDelay = 30 * time.Second
	}
	if config.BackoffFactor <= 0 {
		config.BackoffFactor = 2.0
	}
	if config.JitterFactor <= 0 || config.JitterFactor > 1 {
		config.JitterFactor = 0.1
	}
	if config.RetryIf == nil {
		config.RetryIf = fault.IsRecoverable
	}

	clock := config.Clock
	if clock == nil {
		clock = quartz.NewReal()
	}

	return &Retry{config: config, clock: clock}
}

// Execute runs the operation with retry logic.
func (r *Retry) Execute(ctx context.Context, op func(context.Context) error) error {
	_, err := Do(ctx, r, func(ctx context.Context) (struct{}, error) {
		return struct{}{}, op(ctx)
	})
	return err
}

// Do runs the operation with retry logic and returns its result.
// A successful result matching the configured RetryIfResult predicate
// counts as a retryable outcome.
func Do[T any](ctx context.Context, r *Retry, op func(context.Context) (T, error)) (T, error) {
	var check func(T) bool
	if r.config.RetryIfResult != nil {
		check = func(result T) bool { return r.config.RetryIfResult(result) }
	}
	return DoWithCheck(ctx, r, op, check)
}

// DoWithCheck is Do with an explicit retryable-result predicate.
func DoWithCheck[T any](ctx context.Context, r *Retry, op func(context.Context) (T, error), retryResult func(T) bool) (T, error) {
	var zero T
	var lastErr error

	for attempt := 0; attempt < r.config.MaxAttempts; attempt++ {
		// Never begin a new attempt once the context is done.
		if err := ctx.Err(); err != nil {
			return zero, err
		}

		result, err := op(ctx)

		if err == nil {
			if retryResult == nil || !retryResult(result) {
				r.recordSuccess()
				return result, nil
			}
			// Retryable result: treat like a failure without an error.
			lastErr = nil
		} else {
			// Non-retryable errors bypass the loop and the stats entirely.
			if !r.config.RetryIf(err) {
				return zero, err
			}
			lastErr = err
		}

		// Exhausted: no delay after the final attempt.
		if attempt == r.config.MaxAttempts-1 {
			break
		}

		delay := r.calculateDelay(attempt)
		if hint := fault.RetryAfterOf(err); hint > delay {
			delay = hint
		}
		r.recordRetry(err)

		if r.config.OnRetry != nil {
			r.config.OnRetry(attempt+1, err, delay)
		}

		// Wait without holding any lock; stop on cancellation.
		timer := r.clock.NewTimer(delay)
		select {
		case <-ctx.Done():
			timer.Stop()
			return zero, ctx.Err()
		case <-timer.C:
		}
	}

	r.recordExhausted(lastErr)
	if lastErr == nil {
		lastErr = fault.Generic("retryable result condition never cleared")
	}
	return zero, &RetryExhaustedError{Attempts: r.config.MaxAttempts, Err: lastErr}
}

// calculateDelay computes the backoff delay for the given 0-based
// attempt index: strategy formula, clamp, then jitter, then clamp again.
func (r *Retry) calculateDelay(attempt int) time.Duration {
	var delay float64

	base := float64(r.config.BaseDelay)
	switch r.config.Strategy {
	case BackoffFixed:
		delay = base
	case BackoffLinear:
		delay = base * float64(attempt+1)
	case BackoffFibonacci:
		delay = base * float64(fib(attempt+1))
	case BackoffExponential:
		delay = base * math.Pow(r.config.BackoffFactor, float64(attempt))
	}

	if delay > float64(r.config.MaxDelay) {
		delay = float64(r.config.MaxDelay)
	}

	if r.config.Jitter && delay > 0 {
		// #nosec G404 -- jitter is non-cryptographic timing variance.
		delay *= 1 + (rand.Float64()*2-1)*r.config.JitterFactor
		if delay > float64(r.config.MaxDelay) {
			delay = float64(r.config.MaxDelay)
		}
	}
	if delay < 0 {
		delay = 0
	}

	return time.Duration(delay)
}

// fib returns the nth Fibonacci number (fib(1) = fib(2) = 1).
func fib(n int) int {
	a, b := 0, 1
	for i := 0; i < n; i++ {
		a, b = b, a+b
	}
	return a
}

// Stats returns a snapshot of the retry counters.
func (r *Retry) Stats() RetryStats {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.stats
}

// Config returns the retry configuration.
func (r *Retry) Config() RetryConfig {
	return r.config
}

func (r *Retry) recordSuccess() {
	r.mu.Lock()
	r.stats.Successes++
	r.mu.Unlock()
}

func (r *Retry) recordRetry(err error) {
	r.mu.Lock()
	r.stats.Attempts++
	if err != nil {
		r.stats.Failures++
		r.stats.LastError = err
	}
	r.mu.Unlock()
}

func (r *Retry) recordExhausted(err error) {
	r.mu.Lock()
	if err != nil {
		r.stats.Failures++
		r.stats.LastError = err
	}
	r.mu.Unlock()
}
