package recovery

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"

	"github.com/coder/quartz"

	"github.com/jonwraymond/tradeops/fault"
	"github.com/jonwraymond/tradeops/observe"
	"github.com/jonwraymond/tradeops/resilience"
)

// ManagerConfig configures a recovery Manager.
type ManagerConfig struct {
	// Logger receives hook boundary failures.
	// Default: a no-op logger.
	Logger observe.Logger

	// Clock is the time source, injectable for tests.
	// Default: the real clock.
	Clock quartz.Clock
}

// Manager is a caller-owned registry of recovery policies. Policies
// are keyed by component name, with error-kind names (fault.Kind
// String values) as fallback keys. Safe for concurrent use.
type Manager struct {
	logger observe.Logger
	clock  quartz.Clock

	mu       sync.RWMutex
	policies map[string]Policy
}

// NewManager creates an empty recovery manager.
func NewManager(config ManagerConfig) *Manager {
	logger := config.Logger
	if logger == nil {
		logger = observe.NopLogger()
	}

	clock := config.Clock
	if clock == nil {
		clock = quartz.NewReal()
	}

	return &Manager{
		logger:   logger,
		clock:    clock,
		policies: make(map[string]Policy),
	}
}

// Register stores a policy under the given key. The key is either a
// component name or an error kind name such as "network"; component
// keys take precedence during resolution. Re-registering replaces the
// previous policy.
func (m *Manager) Register(key string, policy Policy) {
	if policy.MaxAttempts <= 0 {
		policy.MaxAttempts = 3
	}

	m.mu.Lock()
	m.policies[key] = policy
	m.mu.Unlock()
}

// RegisterKind stores a policy under an error kind's name.
func (m *Manager) RegisterKind(kind fault.Kind, policy Policy) {
	m.Register(kind.String(), policy)
}

// Unregister removes the policy under the given key.
func (m *Manager) Unregister(key string) {
	m.mu.Lock()
	delete(m.policies, key)
	m.mu.Unlock()
}

// Keys returns the registered policy keys, sorted.
func (m *Manager) Keys() []string {
	m.mu.RLock()
	keys := make([]string, 0, len(m.policies))
	for k := range m.policies {
		keys = append(keys, k)
	}
	m.mu.RUnlock()

	sort.Strings(keys)
	return keys
}

// Lookup resolves the policy for a failure: the component key when
// registered, otherwise the error's kind name. Returns
// ErrUnregistered when neither matches.
func (m *Manager) Lookup(err error, component string) (Policy, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	if component != "" {
		if p, ok := m.policies[component]; ok {
			return p, nil
		}
	}
	if p, ok := m.policies[fault.KindOf(err).String()]; ok {
		return p, nil
	}
	return Policy{}, ErrUnregistered
}

// Execute recovers from a failed operation according to the resolved
// policy. When no policy is registered for the component or the
// error's kind, the original error is returned unchanged.
func (m *Manager) Execute(ctx context.Context, err error, inv Invocation) (any, error) {
	if err == nil {
		return nil, nil
	}

	policy, lerr := m.Lookup(err, inv.Component)
	if errors.Is(lerr, ErrUnregistered) {
		return nil, err
	}

	ferr := asFault(err)

	switch policy.Strategy {
	case StrategyRetry:
		return m.retryOperation(ctx, policy, inv, err)

	case StrategyFallback:
		return m.produceFrom(ctx, "fallback", policy.Fallback, ferr, inv, err)

	case StrategyDegrade:
		return m.produceFrom(ctx, "degrade", policy.Degrade, ferr, inv, err)

	case StrategyRestart:
		return m.restartComponent(ctx, policy, inv, err)

	case StrategyIgnore:
		if policy.DefaultValue != nil {
			return policy.DefaultValue, nil
		}
		return NoValue, nil

	case StrategyAlert:
		m.notify(ctx, policy, ferr, inv)
		return nil, err

	default:
		return nil, err
	}
}

// retryOperation re-runs the invocation's operation under a fresh
// retry loop bounded by the policy.
func (m *Manager) retryOperation(ctx context.Context, policy Policy, inv Invocation, orig error) (any, error) {
	if inv.Operation == nil {
		m.logger.Warn(ctx, "retry policy fired without an operation",
			observe.Field{Key: "component", Value: inv.Component})
		return nil, orig
	}

	r := resilience.NewRetry(resilience.RetryConfig{
		MaxAttempts: policy.MaxAttempts,
		BaseDelay:   policy.RetryBaseDelay,
		Clock:       m.clock,
	})

	op := inv.Operation
	if policy.Timeout > 0 {
		base := op
		op = func(ctx context.Context) (any, error) {
			var v any
			var vMu sync.Mutex
			err := resilience.ExecuteWithTimeout(ctx, policy.Timeout, func(ctx context.Context) error {
				res, err := base(ctx)
				if err == nil {
					vMu.Lock()
					v = res
					vMu.Unlock()
				}
				return err
			})
			if err != nil {
				return nil, err
			}
			vMu.Lock()
			defer vMu.Unlock()
			return v, nil
		}
	}

	return resilience.Do(ctx, r, op)
}

// restartComponent waits out the restart delay, runs the restart hook
// inside the protective boundary, then re-attempts the operation once.
func (m *Manager) restartComponent(ctx context.Context, policy Policy, inv Invocation, orig error) (any, error) {
	if policy.RestartDelay > 0 {
		timer := m.clock.NewTimer(policy.RestartDelay)
		select {
		case <-ctx.Done():
			timer.Stop()
			return nil, ctx.Err()
		case <-timer.C:
		}
	}

	if policy.RestartHook != nil {
		m.guard(ctx, "restart", inv, func() error {
			return policy.RestartHook(ctx)
		})
	}

	if inv.Operation == nil {
		m.logger.Warn(ctx, "restart policy fired without an operation",
			observe.Field{Key: "component", Value: inv.Component})
		return nil, orig
	}

	return inv.Operation(ctx)
}

// produceFrom runs a result-producing hook inside the protective
// boundary. A missing, failing, or panicking hook surfaces the
// original error.
func (m *Manager) produceFrom(ctx context.Context, name string, hook HookFunc, ferr *fault.Error, inv Invocation, orig error) (any, error) {
	if hook == nil {
		m.logger.Warn(ctx, "recovery policy has no hook configured",
			observe.Field{Key: "hook", Value: name},
			observe.Field{Key: "component", Value: inv.Component})
		return nil, orig
	}

	var result any
	err := m.guard(ctx, name, inv, func() error {
		v, err := hook(ctx, ferr, inv)
		if err != nil {
			return err
		}
		result = v
		return nil
	})
	if err != nil {
		return nil, orig
	}
	return result, nil
}

// notify invokes the alert hook inside the protective boundary.
func (m *Manager) notify(ctx context.Context, policy Policy, ferr *fault.Error, inv Invocation) {
	if policy.Alert == nil {
		return
	}
	_ = m.guard(ctx, "alert", inv, func() error {
		policy.Alert(ctx, ferr, inv)
		return nil
	})
}

// guard runs fn, converting panics to errors and logging any failure.
// Hook failures never mask the original error.
func (m *Manager) guard(ctx context.Context, name string, inv Invocation, fn func() error) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("recovery: %s hook panicked: %v", name, r)
			m.logger.Error(ctx, "recovery hook panicked",
				observe.Field{Key: "hook", Value: name},
				observe.Field{Key: "component", Value: inv.Component},
				observe.Field{Key: "panic", Value: fmt.Sprint(r)})
		}
	}()

	if err := fn(); err != nil {
		m.logger.Error(ctx, "recovery hook failed",
			observe.Field{Key: "hook", Value: name},
			observe.Field{Key: "component", Value: inv.Component},
			observe.Field{Key: "error", Value: err.Error()})
		return err
	}
	return nil
}

// asFault coerces any error into the structured taxonomy, wrapping
// foreign errors as Generic.
func asFault(err error) *fault.Error {
	var ferr *fault.Error
	if errors.As(err, &ferr) {
		return ferr
	}
	return fault.Generic(err.Error()).WithCause(err)
}
