package resilience

import (
	"context"
	"sync"
	"time"

	"github.com/jonwraymond/tradeops/observe"
)

// FallbackFunc produces an alternative result once every other layer is
// exhausted. Returning an error surfaces the original failure instead.
type FallbackFunc func(ctx context.Context, err error) (any, error)

// Executor composes multiple resilience patterns around one operation
// surface. The nesting order is fixed, outermost first: rate limiter,
// bulkhead, circuit breaker, retry, per-attempt timeout. The circuit
// breaker sees one logical call per invocation so it counts
// dependency-level failures rather than attempt-level noise, and every
// retry attempt gets a fresh timeout budget.
type Executor struct {
	circuitBreaker *CircuitBreaker
	retry          *Retry
	rateLimiter    *RateLimiter
	bulkhead       *Bulkhead
	timeout        *Timeout
	fallback       FallbackFunc
	middleware     *observe.Middleware
	meta           observe.CallMeta
}

// ExecutorOption configures an Executor.
type ExecutorOption func(*Executor)

// NewExecutor creates a new resilience executor.
func NewExecutor(opts ...ExecutorOption) *Executor {
	e := &Executor{}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// WithCircuitBreaker adds a circuit breaker to the executor.
func WithCircuitBreaker(cb *CircuitBreaker) ExecutorOption {
	return func(e *Executor) {
		e.circuitBreaker = cb
	}
}

// WithRetry adds retry logic to the executor.
func WithRetry(r *Retry) ExecutorOption {
	return func(e *Executor) {
		e.retry = r
	}
}

// WithRateLimiter adds rate limiting to the executor.
func WithRateLimiter(rl *RateLimiter) ExecutorOption {
	return func(e *Executor) {
		e.rateLimiter = rl
	}
}

// WithBulkhead adds bulkhead isolation to the executor.
func WithBulkhead(b *Bulkhead) ExecutorOption {
	return func(e *Executor) {
		e.bulkhead = b
	}
}

// WithTimeout adds a per-attempt timeout to the executor.
func WithTimeout(timeout time.Duration) ExecutorOption {
	return func(e *Executor) {
		e.timeout = NewTimeout(TimeoutConfig{Timeout: timeout})
	}
}

// WithTimeoutConfig adds a per-attempt timeout with custom config.
func WithTimeoutConfig(t *Timeout) ExecutorOption {
	return func(e *Executor) {
		e.timeout = t
	}
}

// WithFallback adds a fallback invoked once every configured layer has
// failed. Its result replaces the error; its own failure is discarded
// and the original error surfaces.
func WithFallback(fn FallbackFunc) ExecutorOption {
	return func(e *Executor) {
		e.fallback = fn
	}
}

// WithObservability wraps every composed call with the middleware's
// span, metrics, and outcome logging under the given call identity.
func WithObservability(mw *observe.Middleware, meta observe.CallMeta) ExecutorOption {
	return func(e *Executor) {
		e.middleware = mw
		e.meta = meta
	}
}

// Execute runs the operation through all configured resilience patterns.
func (e *Executor) Execute(ctx context.Context, op func(context.Context) error) error {
	_, err := e.Call(ctx, func(ctx context.Context) (any, error) {
		return nil, op(ctx)
	})
	return err
}

// Call runs a result-producing operation through all configured
// resilience patterns and returns its result, or the fallback's result
// once every layer is exhausted.
func (e *Executor) Call(ctx context.Context, op func(context.Context) (any, error)) (any, error) {
	var out any
	var outMu sync.Mutex

	// One attempt: the raw operation under its own timeout budget.
	attempt := func(ctx context.Context) (any, error) {
		if e.timeout == nil {
			return op(ctx)
		}

		// The result slot is attempt-local so a timed-out attempt that
		// finishes late cannot clobber a newer attempt's result.
		var r any
		var rMu sync.Mutex
		err := e.timeout.Execute(ctx, func(ctx context.Context) error {
			v, err := op(ctx)
			if err == nil {
				rMu.Lock()
				r = v
				rMu.Unlock()
			}
			return err
		})
		if err != nil {
			return nil, err
		}
		rMu.Lock()
		defer rMu.Unlock()
		return r, nil
	}

	// Retry wraps the attempt; a success stores the pipeline result.
	execute := func(ctx context.Context) error {
		var v any
		var err error
		if e.retry != nil {
			v, err = Do(ctx, e.retry, attempt)
		} else {
			v, err = attempt(ctx)
		}
		if err != nil {
			return err
		}
		outMu.Lock()
		out = v
		outMu.Unlock()
		return nil
	}

	// Wrap with circuit breaker
	if e.circuitBreaker != nil {
		inner := execute
		execute = func(ctx context.Context) error {
			return e.circuitBreaker.Execute(ctx, inner)
		}
	}

	// Wrap with bulkhead
	if e.bulkhead != nil {
		inner := execute
		execute = func(ctx context.Context) error {
			return e.bulkhead.Execute(ctx, inner)
		}
	}

	// Wrap with rate limiter (outermost resilience layer)
	if e.rateLimiter != nil {
		inner := execute
		execute = func(ctx context.Context) error {
			return e.rateLimiter.Execute(ctx, inner)
		}
	}

	// Observability wraps everything so one span covers the whole call.
	if e.middleware != nil {
		inner := execute
		wrapped := e.middleware.Wrap(func(ctx context.Context, _ observe.CallMeta) error {
			return inner(ctx)
		})
		execute = func(ctx context.Context) error {
			return wrapped(ctx, e.meta)
		}
	}

	err := execute(ctx)
	if err == nil {
		outMu.Lock()
		defer outMu.Unlock()
		return out, nil
	}

	if e.fallback != nil {
		if v, ferr := e.fallback(ctx, err); ferr == nil {
			return v, nil
		}
		// Fallback failed: the original error surfaces, not the fallback's.
	}

	return nil, err
}
