package resilience

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/coder/quartz"
)

func TestNewCircuitBreaker_Defaults(t *testing.T) {
	cb := NewCircuitBreaker(CircuitBreakerConfig{Name: "broker"})

	if cb.config.FailureThreshold != 5 {
		t.Errorf("FailureThreshold = %d, want 5", cb.config.FailureThreshold)
	}
	if cb.config.FailureWindow != 60*time.Second {
		t.Errorf("FailureWindow = %v, want 60s", cb.config.FailureWindow)
	}
	if cb.config.RecoveryTimeout != 60*time.Second {
		t.Errorf("RecoveryTimeout = %v, want 60s", cb.config.RecoveryTimeout)
	}
	if cb.config.SuccessThreshold != 2 {
		t.Errorf("SuccessThreshold = %d, want 2", cb.config.SuccessThreshold)
	}
	if cb.State() != StateClosed {
		t.Errorf("initial state = %v, want closed", cb.State())
	}
}

func TestCircuitBreaker_OpensAtThreshold(t *testing.T) {
	mock := quartz.NewMock(t)
	cb := NewCircuitBreaker(CircuitBreakerConfig{
		Name:             "broker",
		FailureThreshold: 2,
		RecoveryTimeout:  30 * time.Second,
		Clock:            mock,
	})

	ctx := context.Background()
	failing := func(ctx context.Context) error { return errors.New("order rejected") }

	if err := cb.Execute(ctx, failing); err == nil {
		t.Fatal("first call should return the operation error")
	}
	if cb.State() != StateClosed {
		t.Errorf("state after 1 failure = %v, want closed", cb.State())
	}

	_ = cb.Execute(ctx, failing)
	if cb.State() != StateOpen {
		t.Errorf("state after 2 failures = %v, want open", cb.State())
	}

	// Open circuit fails fast without invoking the operation.
	calls := 0
	err := cb.Execute(ctx, func(ctx context.Context) error {
		calls++
		return nil
	})
	if !errors.Is(err, ErrCircuitOpen) {
		t.Errorf("error = %v, want ErrCircuitOpen", err)
	}
	if calls != 0 {
		t.Errorf("calls = %d, want 0 while open", calls)
	}
}

func TestCircuitBreaker_RecoversThroughHalfOpen(t *testing.T) {
	mock := quartz.NewMock(t)
	cb := NewCircuitBreaker(CircuitBreakerConfig{
		Name:             "broker",
		FailureThreshold: 2,
		RecoveryTimeout:  30 * time.Second,
		SuccessThreshold: 1,
		Clock:            mock,
	})

	ctx := context.Background()
	failing := func(ctx context.Context) error { return errors.New("down") }

	_ = cb.Execute(ctx, failing)
	_ = cb.Execute(ctx, failing)
	if cb.State() != StateOpen {
		t.Fatalf("state = %v, want open", cb.State())
	}

	// No trial before the recovery timeout elapses.
	mock.Advance(29 * time.Second)
	if err := cb.Execute(ctx, failing); !errors.Is(err, ErrCircuitOpen) {
		t.Errorf("error before recovery timeout = %v, want ErrCircuitOpen", err)
	}

	mock.Advance(time.Second)
	if cb.State() != StateHalfOpen {
		t.Errorf("state after recovery timeout = %v, want half-open", cb.State())
	}

	// A successful trial call closes the circuit.
	err := cb.Execute(ctx, func(ctx context.Context) error { return nil })
	if err != nil {
		t.Errorf("trial call error = %v, want nil", err)
	}
	if cb.State() != StateClosed {
		t.Errorf("state after trial success = %v, want closed", cb.State())
	}
	if got := cb.Stats().Failures; got != 0 {
		t.Errorf("failure history after close = %d, want cleared", got)
	}
}

func TestCircuitBreaker_HalfOpenFailureReopens(t *testing.T) {
	mock := quartz.NewMock(t)
	cb := NewCircuitBreaker(CircuitBreakerConfig{
		FailureThreshold: 1,
		RecoveryTimeout:  10 * time.Second,
		Clock:            mock,
	})

	ctx := context.Background()
	_ = cb.Execute(ctx, func(ctx context.Context) error { return errors.New("down") })
	if cb.State() != StateOpen {
		t.Fatalf("state = %v, want open", cb.State())
	}

	mock.Advance(10 * time.Second)
	err := cb.Execute(ctx, func(ctx context.Context) error { return errors.New("still down") })
	if err == nil {
		t.Fatal("trial call should return the operation error")
	}
	if cb.State() != StateOpen {
		t.Errorf("state after failed trial = %v, want open again", cb.State())
	}

	// The reopened circuit needs a fresh recovery timeout.
	if err := cb.Execute(ctx, func(ctx context.Context) error { return nil }); !errors.Is(err, ErrCircuitOpen) {
		t.Errorf("error = %v, want ErrCircuitOpen", err)
	}
}

func TestCircuitBreaker_SuccessThreshold(t *testing.T) {
	mock := quartz.NewMock(t)
	cb := NewCircuitBreaker(CircuitBreakerConfig{
		FailureThreshold: 1,
		RecoveryTimeout:  10 * time.Second,
		SuccessThreshold: 2,
		Clock:            mock,
	})

	ctx := context.Background()
	_ = cb.Execute(ctx, func(ctx context.Context) error { return errors.New("down") })
	mock.Advance(10 * time.Second)

	ok := func(ctx context.Context) error { return nil }

	if err := cb.Execute(ctx, ok); err != nil {
		t.Fatalf("first trial error = %v", err)
	}
	if cb.State() != StateHalfOpen {
		t.Errorf("state after 1 of 2 successes = %v, want half-open", cb.State())
	}

	if err := cb.Execute(ctx, ok); err != nil {
		t.Fatalf("second trial error = %v", err)
	}
	if cb.State() != StateClosed {
		t.Errorf("state after 2 successes = %v, want closed", cb.State())
	}
}

func TestCircuitBreaker_WindowPruning(t *testing.T) {
	mock := quartz.NewMock(t)
	cb := NewCircuitBreaker(CircuitBreakerConfig{
		FailureThreshold: 3,
		FailureWindow:    60 * time.Second,
		Clock:            mock,
	})

	ctx := context.Background()
	failing := func(ctx context.Context) error { return errors.New("flaky") }

	_ = cb.Execute(ctx, failing)
	_ = cb.Execute(ctx, failing)

	// Let both failures fall out of the window; a third must not trip.
	mock.Advance(61 * time.Second)
	_ = cb.Execute(ctx, failing)

	if cb.State() != StateClosed {
		t.Errorf("state = %v, want closed after stale failures aged out", cb.State())
	}
	if got := cb.Stats().Failures; got != 1 {
		t.Errorf("windowed failures = %d, want 1", got)
	}
}

func TestCircuitBreaker_SuccessKeepsWindowedFailures(t *testing.T) {
	mock := quartz.NewMock(t)
	cb := NewCircuitBreaker(CircuitBreakerConfig{
		FailureThreshold: 2,
		FailureWindow:    60 * time.Second,
		Clock:            mock,
	})

	ctx := context.Background()

	_ = cb.Execute(ctx, func(ctx context.Context) error { return errors.New("flaky") })
	_ = cb.Execute(ctx, func(ctx context.Context) error { return nil })
	_ = cb.Execute(ctx, func(ctx context.Context) error { return errors.New("flaky") })

	// Interleaved successes do not reset the rolling failure count.
	if cb.State() != StateOpen {
		t.Errorf("state = %v, want open with 2 failures inside the window", cb.State())
	}
}

func TestCircuitBreaker_ForceOpenForceClose(t *testing.T) {
	cb := NewCircuitBreaker(CircuitBreakerConfig{Name: "manual"})

	cb.ForceOpen()
	err := cb.Execute(context.Background(), func(ctx context.Context) error { return nil })
	if !errors.Is(err, ErrCircuitOpen) {
		t.Errorf("error after ForceOpen = %v, want ErrCircuitOpen", err)
	}

	cb.ForceClose()
	if cb.State() != StateClosed {
		t.Errorf("state after ForceClose = %v, want closed", cb.State())
	}
	if err := cb.Execute(context.Background(), func(ctx context.Context) error { return nil }); err != nil {
		t.Errorf("error after ForceClose = %v, want nil", err)
	}
}

func TestCircuitBreaker_IsFailurePredicate(t *testing.T) {
	cb := NewCircuitBreaker(CircuitBreakerConfig{
		FailureThreshold: 1,
		IsFailure: func(err error) bool {
			return err != nil && !errors.Is(err, context.Canceled)
		},
	})

	ctx := context.Background()
	_ = cb.Execute(ctx, func(ctx context.Context) error { return context.Canceled })

	if cb.State() != StateClosed {
		t.Errorf("state = %v, want closed for excluded error", cb.State())
	}
}

func TestCircuitBreaker_OnStateChange(t *testing.T) {
	mock := quartz.NewMock(t)

	type transition struct{ from, to State }
	var transitions []transition

	cb := NewCircuitBreaker(CircuitBreakerConfig{
		Name:             "feed",
		FailureThreshold: 1,
		RecoveryTimeout:  5 * time.Second,
		SuccessThreshold: 1,
		Clock:            mock,
		OnStateChange: func(name string, from, to State) {
			if name != "feed" {
				t.Errorf("name = %q, want feed", name)
			}
			transitions = append(transitions, transition{from, to})
		},
	})

	ctx := context.Background()
	_ = cb.Execute(ctx, func(ctx context.Context) error { return errors.New("down") })
	mock.Advance(5 * time.Second)
	_ = cb.Execute(ctx, func(ctx context.Context) error { return nil })

	want := []transition{
		{StateClosed, StateOpen},
		{StateOpen, StateHalfOpen},
		{StateHalfOpen, StateClosed},
	}
	if len(transitions) != len(want) {
		t.Fatalf("transitions = %v, want %v", transitions, want)
	}
	for i := range want {
		if transitions[i] != want[i] {
			t.Errorf("transition %d = %v, want %v", i, transitions[i], want[i])
		}
	}
}

func TestCircuitBreaker_Stats(t *testing.T) {
	cb := NewCircuitBreaker(CircuitBreakerConfig{Name: "broker", FailureThreshold: 5})

	ctx := context.Background()
	_ = cb.Execute(ctx, func(ctx context.Context) error { return errors.New("flaky") })
	_ = cb.Execute(ctx, func(ctx context.Context) error { return errors.New("flaky") })

	stats := cb.Stats()
	if stats.Name != "broker" {
		t.Errorf("Name = %q, want broker", stats.Name)
	}
	if stats.State != StateClosed {
		t.Errorf("State = %v, want closed", stats.State)
	}
	if stats.Failures != 2 {
		t.Errorf("Failures = %d, want 2", stats.Failures)
	}
}

func TestCircuitBreaker_Concurrent(t *testing.T) {
	cb := NewCircuitBreaker(CircuitBreakerConfig{FailureThreshold: 100})

	var wg sync.WaitGroup
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func(n int) {
			defer wg.Done()
			for j := 0; j < 20; j++ {
				_ = cb.Execute(context.Background(), func(ctx context.Context) error {
					if (n+j)%2 == 0 {
						return errors.New("flaky")
					}
					return nil
				})
			}
		}(i)
	}
	wg.Wait()

	if got := cb.State(); got != StateClosed {
		t.Errorf("state = %v, want closed below threshold", got)
	}
}

func TestStateString(t *testing.T) {
	tests := []struct {
		state State
		want  string
	}{
		{StateClosed, "closed"},
		{StateOpen, "open"},
		{StateHalfOpen, "half-open"},
		{State(99), "unknown"},
	}
	for _, tt := range tests {
		if got := tt.state.String(); got != tt.want {
			t.Errorf("State(%d).String() = %q, want %q", tt.state, got, tt.want)
		}
	}
}
