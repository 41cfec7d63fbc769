// Package resilience provides resilience patterns for trading operations.
//
// This package implements common resilience patterns that let order
// placement, market data fetches, and other dependency calls handle
// failures gracefully. The patterns can be composed into a single
// execution pipeline.
//
// # Patterns
//
// The package provides the following resilience patterns:
//
//   - Circuit Breaker: Prevents cascading failures by failing fast once a
//     dependency accumulates too many failures inside a rolling window.
//
//   - Retry: Automatically retries failed operations with configurable
//     backoff strategies (fixed, exponential, linear, fibonacci) and
//     optional jitter.
//
//   - Rate Limiter: Controls the rate of operations to stay inside
//     exchange API quotas.
//
//   - Bulkhead: Limits concurrent operations to prevent resource
//     exhaustion.
//
//   - Timeout: Ensures each attempt completes within a time limit.
//
// # Usage
//
// Each pattern can be used independently or composed together:
//
//	cb := resilience.NewCircuitBreaker(resilience.CircuitBreakerConfig{
//	    Name:             "binance",
//	    FailureThreshold: 5,
//	    FailureWindow:    time.Minute,
//	    RecoveryTimeout:  time.Minute,
//	})
//
//	retry := resilience.NewRetry(resilience.DefaultRetryConfig())
//
//	executor := resilience.NewExecutor(
//	    resilience.WithCircuitBreaker(cb),
//	    resilience.WithRetry(retry),
//	    resilience.WithTimeout(5*time.Second),
//	    resilience.WithFallback(func(ctx context.Context, err error) (any, error) {
//	        return cachedTicker, nil
//	    }),
//	)
//
//	result, err := executor.Call(ctx, func(ctx context.Context) (any, error) {
//	    return fetchTicker(ctx)
//	})
//
// The nesting order is fixed: the circuit breaker sees one logical call
// per invocation while each retry attempt gets a fresh timeout budget.
package resilience
