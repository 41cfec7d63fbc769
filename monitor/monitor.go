package monitor

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/coder/quartz"
	"github.com/google/uuid"

	"github.com/jonwraymond/tradeops/fault"
	"github.com/jonwraymond/tradeops/observe"
)

// Config configures a Monitor.
type Config struct {
	// Retention is how long events stay in the buffer.
	// Default: 1 hour
	Retention time.Duration

	// MaxEvents caps the buffer size; the oldest events are dropped
	// first.
	// Default: 10000
	MaxEvents int

	// Alerts configures alert evaluation. Zero fields get the
	// documented defaults, including SeverityThreshold Error.
	Alerts AlertConfig

	// Logger receives alert boundary failures.
	// Default: a no-op logger.
	Logger observe.Logger

	// Metrics counts fired alerts.
	// Default: a no-op recorder.
	Metrics observe.Metrics

	// Clock is the time source, injectable for tests.
	// Default: the real clock.
	Clock quartz.Clock
}

// DefaultAlertConfig returns the documented alert defaults.
func DefaultAlertConfig() AlertConfig {
	return AlertConfig{
		SeverityThreshold:  fault.SeverityError,
		RateThreshold:      0.1,
		Window:             300 * time.Second,
		MaxAlertsPerWindow: 10,
		Cooldown:           60 * time.Second,
	}
}

// Monitor aggregates error events and fires alerts. Safe for
// concurrent use.
type Monitor struct {
	config  Config
	logger  observe.Logger
	metrics observe.Metrics
	clock   quartz.Clock

	mu         sync.Mutex
	events     []Event // time-ordered, pruned to Retention and MaxEvents
	alertTimes []time.Time
	lastAlert  time.Time
	alertFuncs []AlertFunc
}

// New creates a monitor with an empty buffer.
func New(config Config) *Monitor {
	// Apply defaults
	if config.Retention <= 0 {
		config.Retention = time.Hour
	}
	if config.MaxEvents <= 0 {
		config.MaxEvents = 10000
	}
	if config.Alerts.SeverityThreshold == 0 {
		config.Alerts.SeverityThreshold = fault.SeverityError
	}
	if config.Alerts.RateThreshold <= 0 {
		config.Alerts.RateThreshold = 0.1
	}
	if config.Alerts.Window <= 0 {
		config.Alerts.Window = 300 * time.Second
	}
	if config.Alerts.MaxAlertsPerWindow <= 0 {
		config.Alerts.MaxAlertsPerWindow = 10
	}
	if config.Alerts.Cooldown <= 0 {
		config.Alerts.Cooldown = 60 * time.Second
	}

	logger := config.Logger
	if logger == nil {
		logger = observe.NopLogger()
	}
	metrics := config.Metrics
	if metrics == nil {
		metrics = observe.NopMetrics()
	}
	clock := config.Clock
	if clock == nil {
		clock = quartz.NewReal()
	}

	return &Monitor{
		config:  config,
		logger:  logger,
		metrics: metrics,
		clock:   clock,
	}
}

// RegisterAlertFunc adds an alert destination.
func (m *Monitor) RegisterAlertFunc(fn AlertFunc) {
	m.mu.Lock()
	m.alertFuncs = append(m.alertFuncs, fn)
	m.mu.Unlock()
}

// Record appends an error event to the buffer, prunes expired events,
// and evaluates the alert conditions. It returns the recorded event.
func (m *Monitor) Record(ctx context.Context, err error, opts ...EventOption) Event {
	ferr := asFault(err)

	ev := Event{
		ID:        uuid.NewString(),
		Err:       ferr,
		Message:   ferr.Message,
		Kind:      ferr.Kind,
		Severity:  ferr.Severity,
		Context:   ferr.Context.Clone(),
		Timestamp: m.clock.Now(),
	}
	for _, opt := range opts {
		opt(&ev)
	}

	m.mu.Lock()
	m.events = append(m.events, ev)
	m.pruneLocked(ev.Timestamp)

	alert, funcs, fire := m.evaluateLocked(ev)
	m.mu.Unlock()

	if fire {
		m.deliver(ctx, alert, funcs)
	}

	return ev
}

// evaluateLocked decides whether the new event fires an alert and, if
// so, claims the cooldown and window slot before the lock is released.
func (m *Monitor) evaluateLocked(ev Event) (Alert, []AlertFunc, bool) {
	if !ev.Severity.AtLeast(m.config.Alerts.SeverityThreshold) {
		return Alert{}, nil, false
	}

	now := ev.Timestamp
	rate := m.rateLocked(now)

	if rate <= m.config.Alerts.RateThreshold && ev.Severity != fault.SeverityCritical {
		return Alert{}, nil, false
	}
	if !m.lastAlert.IsZero() && now.Sub(m.lastAlert) < m.config.Alerts.Cooldown {
		return Alert{}, nil, false
	}

	// Drop alert timestamps that left the window, then apply the cap.
	cutoff := now.Add(-m.config.Alerts.Window)
	kept := m.alertTimes[:0]
	for _, t := range m.alertTimes {
		if t.After(cutoff) {
			kept = append(kept, t)
		}
	}
	m.alertTimes = kept
	if len(m.alertTimes) >= m.config.Alerts.MaxAlertsPerWindow {
		return Alert{}, nil, false
	}

	m.lastAlert = now
	m.alertTimes = append(m.alertTimes, now)

	alert := Alert{
		Message:   ev.Message,
		Severity:  ev.Severity,
		Component: ev.Component,
		Context:   ev.Context.Clone(),
		Rate:      rate,
		Timestamp: now,
	}
	funcs := make([]AlertFunc, len(m.alertFuncs))
	copy(funcs, m.alertFuncs)
	return alert, funcs, true
}

// deliver invokes every alert function outside the buffer lock, each
// inside the protective boundary.
func (m *Monitor) deliver(ctx context.Context, alert Alert, funcs []AlertFunc) {
	m.metrics.RecordAlert(ctx, alert.Component, alert.Severity.String())

	for _, fn := range funcs {
		m.deliverOne(ctx, alert, fn)
	}
}

func (m *Monitor) deliverOne(ctx context.Context, alert Alert, fn AlertFunc) {
	defer func() {
		if r := recover(); r != nil {
			m.logger.Error(ctx, "alert function panicked",
				observe.Field{Key: "component", Value: alert.Component},
				observe.Field{Key: "panic", Value: fmt.Sprint(r)})
		}
	}()

	if err := fn(ctx, alert); err != nil {
		m.logger.Error(ctx, "alert function failed",
			observe.Field{Key: "component", Value: alert.Component},
			observe.Field{Key: "error", Value: err.Error()})
	}
}

// rateLocked returns the event rate over the alert window ending now,
// in events per second.
func (m *Monitor) rateLocked(now time.Time) float64 {
	window := m.config.Alerts.Window
	cutoff := now.Add(-window)

	count := 0
	for i := len(m.events) - 1; i >= 0; i-- {
		if !m.events[i].Timestamp.After(cutoff) {
			break
		}
		count++
	}
	return float64(count) / window.Seconds()
}

// pruneLocked drops events past retention, then enforces the size cap.
func (m *Monitor) pruneLocked(now time.Time) {
	cutoff := now.Add(-m.config.Retention)
	i := 0
	for i < len(m.events) && !m.events[i].Timestamp.After(cutoff) {
		i++
	}
	if i > 0 {
		m.events = append(m.events[:0], m.events[i:]...)
	}
	if excess := len(m.events) - m.config.MaxEvents; excess > 0 {
		m.events = append(m.events[:0], m.events[excess:]...)
	}
}

// Len returns the number of retained events.
func (m *Monitor) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.pruneLocked(m.clock.Now())
	return len(m.events)
}

// Recent returns up to limit matching events, newest first. The
// returned events are copies.
func (m *Monitor) Recent(limit int, filters ...Filter) []Event {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.pruneLocked(m.clock.Now())

	var out []Event
	for i := len(m.events) - 1; i >= 0 && (limit <= 0 || len(out) < limit); i-- {
		ev := m.events[i]
		if matches(ev, filters) {
			ev.Context = ev.Context.Clone()
			out = append(out, ev)
		}
	}
	return out
}

func matches(ev Event, filters []Filter) bool {
	for _, f := range filters {
		if !f(ev) {
			return false
		}
	}
	return true
}

// asFault coerces any error into the structured taxonomy.
func asFault(err error) *fault.Error {
	var ferr *fault.Error
	if errors.As(err, &ferr) {
		return ferr
	}
	if err == nil {
		return fault.Generic("unspecified error")
	}
	return fault.Generic(err.Error()).WithCause(err)
}
