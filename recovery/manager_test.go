package recovery

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/jonwraymond/tradeops/fault"
	"github.com/jonwraymond/tradeops/resilience"
)

func TestManager_UnregisteredReturnsOriginal(t *testing.T) {
	m := NewManager(ManagerConfig{})
	orig := fault.Network("connection refused")

	result, err := m.Execute(context.Background(), orig, Invocation{Component: "broker"})

	if result != nil {
		t.Errorf("result = %v, want nil", result)
	}
	if !errors.Is(err, orig) {
		t.Errorf("error = %v, want the original error unchanged", err)
	}
}

func TestManager_ComponentKeyPrecedence(t *testing.T) {
	m := NewManager(ManagerConfig{})

	// The error's kind would classify to "broker"; the component key
	// must win anyway.
	m.Register("network", Policy{
		Strategy: StrategyFallback,
		Fallback: func(ctx context.Context, ferr *fault.Error, inv Invocation) (any, error) {
			return "component-policy", nil
		},
	})
	m.RegisterKind(fault.KindBroker, Policy{
		Strategy: StrategyFallback,
		Fallback: func(ctx context.Context, ferr *fault.Error, inv Invocation) (any, error) {
			return "kind-policy", nil
		},
	})

	result, err := m.Execute(context.Background(), fault.Broker("rejected"), Invocation{Component: "network"})
	if err != nil {
		t.Fatalf("Execute() error = %v", err)
	}
	if result != "component-policy" {
		t.Errorf("result = %v, want the component policy to dispatch", result)
	}
}

func TestManager_KindFallbackResolution(t *testing.T) {
	m := NewManager(ManagerConfig{})
	m.RegisterKind(fault.KindNetwork, Policy{
		Strategy: StrategyFallback,
		Fallback: func(ctx context.Context, ferr *fault.Error, inv Invocation) (any, error) {
			return "kind-policy", nil
		},
	})

	// No component supplied: resolution falls back to the error kind.
	result, err := m.Execute(context.Background(), fault.Network("reset"), Invocation{})
	if err != nil {
		t.Fatalf("Execute() error = %v", err)
	}
	if result != "kind-policy" {
		t.Errorf("result = %v, want kind-policy", result)
	}
}

func TestManager_Retry(t *testing.T) {
	m := NewManager(ManagerConfig{})
	m.Register("feed", Policy{Strategy: StrategyRetry, MaxAttempts: 3, RetryBaseDelay: time.Millisecond})

	calls := 0
	result, err := m.Execute(context.Background(), fault.DataFeed("stale"), Invocation{
		Component: "feed",
		Operation: func(ctx context.Context) (any, error) {
			calls++
			if calls < 2 {
				return nil, fault.DataFeed("still stale")
			}
			return "fresh", nil
		},
	})

	if err != nil {
		t.Fatalf("Execute() error = %v", err)
	}
	if result != "fresh" {
		t.Errorf("result = %v, want fresh", result)
	}
	if calls != 2 {
		t.Errorf("calls = %d, want 2", calls)
	}
}

func TestManager_RetryExhausted(t *testing.T) {
	m := NewManager(ManagerConfig{})
	m.Register("feed", Policy{Strategy: StrategyRetry, MaxAttempts: 2, RetryBaseDelay: time.Millisecond})

	calls := 0
	_, err := m.Execute(context.Background(), fault.DataFeed("stale"), Invocation{
		Component: "feed",
		Operation: func(ctx context.Context) (any, error) {
			calls++
			return nil, fault.DataFeed("still stale")
		},
	})

	if !errors.Is(err, resilience.ErrMaxRetriesExceeded) {
		t.Errorf("error = %v, want retry exhaustion", err)
	}
	if calls != 2 {
		t.Errorf("calls = %d, want bounded by MaxAttempts", calls)
	}
}

func TestManager_RetryWithoutOperation(t *testing.T) {
	m := NewManager(ManagerConfig{})
	m.Register("feed", Policy{Strategy: StrategyRetry})

	orig := fault.DataFeed("stale")
	_, err := m.Execute(context.Background(), orig, Invocation{Component: "feed"})
	if !errors.Is(err, orig) {
		t.Errorf("error = %v, want the original error when nothing can be re-run", err)
	}
}

func TestManager_Degrade(t *testing.T) {
	m := NewManager(ManagerConfig{})
	m.Register("quotes", Policy{
		Strategy: StrategyDegrade,
		Degrade: func(ctx context.Context, ferr *fault.Error, inv Invocation) (any, error) {
			if ferr.Kind != fault.KindDataFeed {
				t.Errorf("hook kind = %v, want data_feed", ferr.Kind)
			}
			return "stale-quote", nil
		},
	})

	result, err := m.Execute(context.Background(), fault.DataFeed("feed down"), Invocation{Component: "quotes"})
	if err != nil {
		t.Fatalf("Execute() error = %v", err)
	}
	if result != "stale-quote" {
		t.Errorf("result = %v, want stale-quote", result)
	}
}

func TestManager_HookErrorSurfacesOriginal(t *testing.T) {
	m := NewManager(ManagerConfig{})
	m.Register("quotes", Policy{
		Strategy: StrategyFallback,
		Fallback: func(ctx context.Context, ferr *fault.Error, inv Invocation) (any, error) {
			return nil, errors.New("fallback also down")
		},
	})

	orig := fault.DataFeed("feed down")
	_, err := m.Execute(context.Background(), orig, Invocation{Component: "quotes"})
	if !errors.Is(err, orig) {
		t.Errorf("error = %v, want the original error, not the hook's", err)
	}
}

func TestManager_HookPanicSurfacesOriginal(t *testing.T) {
	m := NewManager(ManagerConfig{})
	m.Register("quotes", Policy{
		Strategy: StrategyFallback,
		Fallback: func(ctx context.Context, ferr *fault.Error, inv Invocation) (any, error) {
			panic("hook bug")
		},
	})

	orig := fault.DataFeed("feed down")
	_, err := m.Execute(context.Background(), orig, Invocation{Component: "quotes"})
	if !errors.Is(err, orig) {
		t.Errorf("error = %v, want the original error after a hook panic", err)
	}
}

func TestManager_Restart(t *testing.T) {
	m := NewManager(ManagerConfig{})

	restarted := false
	m.Register("session", Policy{
		Strategy:     StrategyRestart,
		RestartDelay: time.Millisecond,
		RestartHook: func(ctx context.Context) error {
			restarted = true
			return nil
		},
	})

	attempts := 0
	result, err := m.Execute(context.Background(), fault.Broker("session lost"), Invocation{
		Component: "session",
		Operation: func(ctx context.Context) (any, error) {
			attempts++
			return "reconnected", nil
		},
	})

	if err != nil {
		t.Fatalf("Execute() error = %v", err)
	}
	if result != "reconnected" {
		t.Errorf("result = %v, want reconnected", result)
	}
	if !restarted {
		t.Error("restart hook never ran")
	}
	if attempts != 1 {
		t.Errorf("attempts = %d, want exactly one re-attempt", attempts)
	}
}

func TestManager_RestartHookFailureStillReattempts(t *testing.T) {
	m := NewManager(ManagerConfig{})
	m.Register("session", Policy{
		Strategy:    StrategyRestart,
		RestartHook: func(ctx context.Context) error { return errors.New("restart failed") },
	})

	result, err := m.Execute(context.Background(), fault.Broker("session lost"), Invocation{
		Component: "session",
		Operation: func(ctx context.Context) (any, error) { return "reconnected", nil },
	})

	if err != nil {
		t.Fatalf("Execute() error = %v", err)
	}
	if result != "reconnected" {
		t.Errorf("result = %v, want the re-attempt result despite the hook failure", result)
	}
}

func TestManager_IgnoreDefaults(t *testing.T) {
	m := NewManager(ManagerConfig{})
	m.Register("metrics", Policy{Strategy: StrategyIgnore})

	result, err := m.Execute(context.Background(), fault.Generic("flush failed"), Invocation{Component: "metrics"})
	if err != nil {
		t.Fatalf("Execute() error = %v", err)
	}
	if result != NoValue {
		t.Errorf("result = %v, want the NoValue marker", result)
	}
}

func TestManager_IgnoreWithDefaultValue(t *testing.T) {
	m := NewManager(ManagerConfig{})
	m.Register("metrics", Policy{Strategy: StrategyIgnore, DefaultValue: 0.0})

	result, err := m.Execute(context.Background(), fault.Generic("flush failed"), Invocation{Component: "metrics"})
	if err != nil {
		t.Fatalf("Execute() error = %v", err)
	}
	if result != 0.0 {
		t.Errorf("result = %v, want the configured default", result)
	}
}

func TestManager_AlertReRaises(t *testing.T) {
	m := NewManager(ManagerConfig{})

	alerted := false
	m.Register("risk", Policy{
		Strategy: StrategyAlert,
		Alert: func(ctx context.Context, ferr *fault.Error, inv Invocation) {
			alerted = true
			if ferr.Severity != fault.SeverityCritical {
				t.Errorf("alert severity = %v, want critical", ferr.Severity)
			}
		},
	})

	orig := fault.Strategy("position limit breached").WithSeverity(fault.SeverityCritical)
	_, err := m.Execute(context.Background(), orig, Invocation{Component: "risk"})

	if !alerted {
		t.Error("alert hook never ran")
	}
	if !errors.Is(err, orig) {
		t.Errorf("error = %v, want the original error re-raised", err)
	}
}

func TestManager_AlertPanicIsContained(t *testing.T) {
	m := NewManager(ManagerConfig{})
	m.Register("risk", Policy{
		Strategy: StrategyAlert,
		Alert: func(ctx context.Context, ferr *fault.Error, inv Invocation) {
			panic("pager integration bug")
		},
	})

	orig := fault.Strategy("limit breached")
	_, err := m.Execute(context.Background(), orig, Invocation{Component: "risk"})
	if !errors.Is(err, orig) {
		t.Errorf("error = %v, want the original error", err)
	}
}

func TestManager_ForeignErrorWrappedForHooks(t *testing.T) {
	m := NewManager(ManagerConfig{})
	m.Register("generic", Policy{
		Strategy: StrategyFallback,
		Fallback: func(ctx context.Context, ferr *fault.Error, inv Invocation) (any, error) {
			if ferr.Kind != fault.KindGeneric {
				t.Errorf("kind = %v, want generic for a foreign error", ferr.Kind)
			}
			return "recovered", nil
		},
	})

	result, err := m.Execute(context.Background(), errors.New("plain error"), Invocation{Component: "generic"})
	if err != nil {
		t.Fatalf("Execute() error = %v", err)
	}
	if result != "recovered" {
		t.Errorf("result = %v, want recovered", result)
	}
}

func TestManager_NilError(t *testing.T) {
	m := NewManager(ManagerConfig{})

	result, err := m.Execute(context.Background(), nil, Invocation{Component: "anything"})
	if result != nil || err != nil {
		t.Errorf("Execute(nil) = (%v, %v), want (nil, nil)", result, err)
	}
}

func TestManager_RegistryOperations(t *testing.T) {
	m := NewManager(ManagerConfig{})

	m.Register("broker", Policy{Strategy: StrategyAlert})
	m.Register("feed", Policy{Strategy: StrategyIgnore})
	m.RegisterKind(fault.KindNetwork, Policy{Strategy: StrategyRetry})

	want := []string{"broker", "feed", "network"}
	got := m.Keys()
	if len(got) != len(want) {
		t.Fatalf("Keys() = %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("Keys()[%d] = %q, want %q", i, got[i], want[i])
		}
	}

	m.Unregister("feed")
	if _, err := m.Lookup(fault.Generic("x"), "feed"); !errors.Is(err, ErrUnregistered) {
		t.Errorf("Lookup after Unregister error = %v, want ErrUnregistered", err)
	}
}

func TestStrategyString(t *testing.T) {
	tests := []struct {
		strategy Strategy
		want     string
	}{
		{StrategyRetry, "retry"},
		{StrategyFallback, "fallback"},
		{StrategyDegrade, "degrade"},
		{StrategyRestart, "restart"},
		{StrategyIgnore, "ignore"},
		{StrategyAlert, "alert"},
		{Strategy(99), "unknown"},
	}
	for _, tt := range tests {
		if got := tt.strategy.String(); got != tt.want {
			t.Errorf("Strategy(%d).String() = %q, want %q", tt.strategy, got, tt.want)
		}
	}
}
