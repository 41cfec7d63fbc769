package resilience

import (
	"context"
	"sync"
	"time"

	"github.com/coder/quartz"
)

// State represents the circuit breaker state.
type State int

const (
	// StateClosed means the circuit is operating normally.
	StateClosed State = iota
	// StateOpen means the circuit is blocking all requests.
	StateOpen
	// StateHalfOpen means the circuit is testing if the dependency recovered.
	StateHalfOpen
)

// String returns the string representation of the state.
func (s State) String() string {
	switch s {
	case StateClosed:
		return "closed"
	case StateOpen:
		return "open"
	case StateHalfOpen:
		return "half-open"
	default:
		return "unknown"
	}
}

// CircuitBreakerConfig configures the circuit breaker.
type CircuitBreakerConfig struct {
	// Name identifies the logical dependency the breaker guards.
	Name string

	// FailureThreshold is the number of failures inside FailureWindow
	// before opening the circuit.
	// Default: 5
	FailureThreshold int

	// FailureWindow is the rolling window failures are counted over.
	// Default: 60 seconds
	FailureWindow time.Duration

	// RecoveryTimeout is how long the circuit stays open before a trial
	// call is allowed. The open-to-half-open transition is evaluated
	// lazily on the next call, not on a background timer.
	// Default: 60 seconds
	RecoveryTimeout time.Duration

	// SuccessThreshold is the number of consecutive successful trial
	// calls in half-open state needed to close the circuit.
	// Default: 2
	SuccessThreshold int

	// OnStateChange is called when the circuit state changes.
	OnStateChange func(name string, from, to State)

	// IsFailure determines if an error should count as a failure.
	// Default: all non-nil errors are failures.
	IsFailure func(err error) bool

	// Clock is the time source, injectable for tests.
	// Default: the real clock.
	Clock quartz.Clock
}

// CircuitBreaker implements the circuit breaker pattern over a rolling
// failure window. One instance guards exactly one logical dependency
// and may be shared by any number of goroutines.
type CircuitBreaker struct {
	config CircuitBreakerConfig
	clock  quartz.Clock

	mu             sync.Mutex
	state          State
	failures       []time.Time // ordered, pruned to FailureWindow
	successes      int         // consecutive successes since entering half-open
	halfOpenCalls  int
	lastTransition time.Time
}

// CircuitBreakerStats is a snapshot of circuit breaker state.
type CircuitBreakerStats struct {
	Name            string
	State           State
	Failures        int
	Successes       int
	LastStateChange time.Time
}

// NewCircuitBreaker creates a new circuit breaker.
func NewCircuitBreaker(config CircuitBreakerConfig) *CircuitBreaker {
	// Apply defaults
	if config.FailureThreshold <= 0 {
		config.FailureThreshold = 5
	}
	if config.FailureWindow <= 0 {
		config.FailureWindow = 60 * time.Second
	}
	if config.RecoveryTimeout <= 0 {
		config.RecoveryTimeout = 60 * time.Second
	}
	if config.SuccessThreshold <= 0 {
		config.SuccessThreshold = 2
	}
	if config.IsFailure == nil {
		config.IsFailure = func(err error) bool { return err != nil }
	}

	clock := config.Clock
	if clock == nil {
		clock = quartz.NewReal()
	}

	return &CircuitBreaker{
		config:         config,
		clock:          clock,
		state:          StateClosed,
		lastTransition: clock.Now(),
	}
}

// Execute runs the operation through the circuit breaker. When the
// circuit is open it returns ErrCircuitOpen without invoking op.
func (cb *CircuitBreaker) Execute(ctx context.Context, op func(context.Context) error) error {
	if err := cb.beforeRequest(); err != nil {
		return err
	}

	err := op(ctx)
	cb.afterRequest(err)
	return err
}

// State returns the current circuit state.
func (cb *CircuitBreaker) State() State {
	cb.mu.Lock()
	defer cb.mu.Unlock()
	return cb.currentStateLocked()
}

// Name returns the name of the guarded dependency.
func (cb *CircuitBreaker) Name() string {
	return cb.config.Name
}

// ForceOpen opens the circuit regardless of the failure history. The
// normal recovery path applies: after RecoveryTimeout the next call is
// allowed through as a trial.
func (cb *CircuitBreaker) ForceOpen() {
	cb.mu.Lock()
	defer cb.mu.Unlock()
	cb.transitionLocked(StateOpen)
}

// ForceClose closes the circuit and clears the failure history.
func (cb *CircuitBreaker) ForceClose() {
	cb.mu.Lock()
	defer cb.mu.Unlock()
	cb.failures = cb.failures[:0]
	cb.transitionLocked(StateClosed)
}

// Stats returns a snapshot of the breaker's state and counters.
func (cb *CircuitBreaker) Stats() CircuitBreakerStats {
	cb.mu.Lock()
	defer cb.mu.Unlock()

	state := cb.currentStateLocked()
	cb.pruneLocked()

	return CircuitBreakerStats{
		Name:            cb.config.Name,
		State:           state,
		Failures:        len(cb.failures),
		Successes:       cb.successes,
		LastStateChange: cb.lastTransition,
	}
}

func (cb *CircuitBreaker) beforeRequest() error {
	cb.mu.Lock()
	defer cb.mu.Unlock()

	switch cb.currentStateLocked() {
	case StateOpen:
		return ErrCircuitOpen
	case StateHalfOpen:
		if cb.halfOpenCalls >= cb.config.SuccessThreshold {
			return ErrCircuitOpen
		}
		cb.halfOpenCalls++
	}

	return nil
}

func (cb *CircuitBreaker) afterRequest(err error) {
	cb.mu.Lock()
	defer cb.mu.Unlock()

	isFailure := cb.config.IsFailure(err)

	switch cb.state {
	case StateClosed:
		if isFailure {
			cb.failures = append(cb.failures, cb.clock.Now())
			cb.pruneLocked()
			if len(cb.failures) >= cb.config.FailureThreshold {
				cb.transitionLocked(StateOpen)
			}
		}
		// Successes leave the failure history alone beyond normal
		// pruning; the breaker counts windowed failures, not streaks.

	case StateHalfOpen:
		if isFailure {
			// A single failed trial call reopens the circuit.
			cb.transitionLocked(StateOpen)
		} else {
			cb.successes++
			if cb.successes >= cb.config.SuccessThreshold {
				cb.failures = cb.failures[:0]
				cb.transitionLocked(StateClosed)
			}
		}
	}
}

// currentStateLocked returns the current state, applying the lazy
// open-to-half-open transition once RecoveryTimeout has elapsed.
func (cb *CircuitBreaker) currentStateLocked() State {
	if cb.state == StateOpen && cb.clock.Since(cb.lastTransition) >= cb.config.RecoveryTimeout {
		cb.transitionLocked(StateHalfOpen)
	}
	return cb.state
}

// pruneLocked drops failure timestamps that fell out of the window.
func (cb *CircuitBreaker) pruneLocked() {
	cutoff := cb.clock.Now().Add(-cb.config.FailureWindow)
	i := 0
	for i < len(cb.failures) && !cb.failures[i].After(cutoff) {
		i++
	}
	if i > 0 {
		cb.failures = append(cb.failures[:0], cb.failures[i:]...)
	}
}

func (cb *CircuitBreaker) transitionLocked(to State) {
	if cb.state == to {
		return
	}

	from := cb.state
	cb.state = to
	cb.lastTransition = cb.clock.Now()

	// Trial counters restart whenever the state moves
	cb.successes = 0
	cb.halfOpenCalls = 0

	if cb.config.OnStateChange != nil {
		cb.config.OnStateChange(cb.config.Name, from, to)
	}
}
