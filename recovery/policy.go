package recovery

import (
	"context"
	"time"

	"github.com/jonwraymond/tradeops/fault"
)

// Strategy selects how a registered component recovers from a failure.
type Strategy int

const (
	// StrategyRetry re-runs the failed operation with backoff.
	StrategyRetry Strategy = iota
	// StrategyFallback produces an alternative result.
	StrategyFallback
	// StrategyDegrade produces a reduced-fidelity result.
	StrategyDegrade
	// StrategyRestart restarts the component and re-attempts once.
	StrategyRestart
	// StrategyIgnore swallows the error and returns a default value.
	StrategyIgnore
	// StrategyAlert notifies and re-raises the original error.
	StrategyAlert
)

// String returns the strategy name.
func (s Strategy) String() string {
	switch s {
	case StrategyRetry:
		return "retry"
	case StrategyFallback:
		return "fallback"
	case StrategyDegrade:
		return "degrade"
	case StrategyRestart:
		return "restart"
	case StrategyIgnore:
		return "ignore"
	case StrategyAlert:
		return "alert"
	default:
		return "unknown"
	}
}

// Invocation describes the failed call being recovered. Component
// selects the policy; Operation lets Retry and Restart re-run the
// original work.
type Invocation struct {
	// Component is the policy registry key for the failing dependency.
	// When empty, or when no policy is registered under it, resolution
	// falls back to the error's kind.
	Component string

	// Operation re-runs the original work. Required for the Retry and
	// Restart strategies, ignored by the rest.
	Operation func(ctx context.Context) (any, error)

	// Fields carries extra metadata through to the policy's hooks.
	Fields fault.Context
}

// HookFunc produces a recovery result from the original failure.
type HookFunc func(ctx context.Context, ferr *fault.Error, inv Invocation) (any, error)

// AlertFunc notifies about a failure. Its return is not consumed.
type AlertFunc func(ctx context.Context, ferr *fault.Error, inv Invocation)

// Policy describes how one component recovers. Only the fields
// relevant to its Strategy are consulted.
type Policy struct {
	// Strategy is the recovery behavior to dispatch.
	Strategy Strategy

	// Fallback produces the result for StrategyFallback.
	Fallback HookFunc

	// Degrade produces the result for StrategyDegrade.
	Degrade HookFunc

	// Alert is notified by StrategyAlert before the error re-raises.
	Alert AlertFunc

	// MaxAttempts bounds StrategyRetry.
	// Default: 3
	MaxAttempts int

	// RetryBaseDelay is the delay before the first retry for
	// StrategyRetry.
	// Default: 1s
	RetryBaseDelay time.Duration

	// Timeout is the per-attempt budget for StrategyRetry.
	// Default: no per-attempt timeout
	Timeout time.Duration

	// RestartDelay is how long StrategyRestart waits before the
	// restart hook runs.
	RestartDelay time.Duration

	// RestartHook performs the component restart for StrategyRestart.
	RestartHook func(ctx context.Context) error

	// DefaultValue is returned by StrategyIgnore. When nil, Ignore
	// returns the NoValue marker instead.
	DefaultValue any
}
