package monitor

import (
	"time"

	"github.com/jonwraymond/tradeops/fault"
)

// Event is one recorded failure.
type Event struct {
	// ID uniquely identifies the event.
	ID string `json:"id"`

	// Err is the structured failure. Foreign errors are wrapped as
	// Generic on the way in.
	Err *fault.Error `json:"-"`

	// Message is the failure message, kept alongside Err for
	// serialized views.
	Message string `json:"message"`

	// Kind is the failure's taxonomy kind.
	Kind fault.Kind `json:"-"`

	// Severity is the recorded severity. Defaults to the error's own.
	Severity fault.Severity `json:"-"`

	// Component names the subsystem that failed.
	Component string `json:"component,omitempty"`

	// Context carries structured metadata for the event.
	Context fault.Context `json:"context,omitempty"`

	// UserID attributes the failure to an end user, when known.
	UserID string `json:"user_id,omitempty"`

	// SessionID attributes the failure to a session, when known.
	SessionID string `json:"session_id,omitempty"`

	// Timestamp is when the event was recorded.
	Timestamp time.Time `json:"timestamp"`
}

// EventOption customizes a recorded event.
type EventOption func(*Event)

// WithComponent names the failing subsystem.
func WithComponent(component string) EventOption {
	return func(e *Event) { e.Component = component }
}

// WithSeverity overrides the severity taken from the error.
func WithSeverity(s fault.Severity) EventOption {
	return func(e *Event) { e.Severity = s }
}

// WithField appends a structured metadata field to the event.
func WithField(key string, value any) EventOption {
	return func(e *Event) { e.Context = e.Context.Set(key, value) }
}

// WithUser attributes the event to an end user.
func WithUser(userID string) EventOption {
	return func(e *Event) { e.UserID = userID }
}

// WithSession attributes the event to a session.
func WithSession(sessionID string) EventOption {
	return func(e *Event) { e.SessionID = sessionID }
}

// Filter narrows event queries.
type Filter func(Event) bool

// MinSeverity keeps events at or above the given severity.
func MinSeverity(s fault.Severity) Filter {
	return func(e Event) bool { return e.Severity.AtLeast(s) }
}

// ForComponent keeps events recorded against the given component.
func ForComponent(component string) Filter {
	return func(e Event) bool { return e.Component == component }
}

// OfKind keeps events of the given taxonomy kind.
func OfKind(kind fault.Kind) Filter {
	return func(e Event) bool { return e.Kind == kind }
}
