package fault

import (
	"context"
	"errors"
	"fmt"
	"time"
)

// Error is the structured error representation used across the kit.
// Construct it once at the failure boundary and treat it as immutable
// afterwards; the With* builders are meant for construction time only.
type Error struct {
	// Kind classifies the error origin.
	Kind Kind
	// Message is a human-readable description.
	Message string
	// Context carries ordered supplementary key/value data.
	Context Context
	// Severity orders the error for alert thresholds. Default: SeverityError.
	Severity Severity
	// Recoverable indicates whether the operation may be retried. Default: true.
	Recoverable bool
	// RetryAfter is an optional hint to delay before retrying. Zero means unset.
	RetryAfter time.Duration
	// Timestamp is when the error was constructed.
	Timestamp time.Time
	// Cause is the underlying error, if any.
	Cause error
}

// New creates a structured error with default severity and recoverability.
func New(kind Kind, message string) *Error {
	return &Error{
		Kind:        kind,
		Message:     message,
		Severity:    SeverityError,
		Recoverable: true,
		Timestamp:   time.Now().UTC(),
	}
}

// Newf creates a structured error with a formatted message.
func Newf(kind Kind, format string, args ...any) *Error {
	return New(kind, fmt.Sprintf(format, args...))
}

// Wrap creates a structured error with the given cause attached.
func Wrap(err error, kind Kind, message string) *Error {
	return New(kind, message).WithCause(err)
}

// Error returns the string representation of the error.
func (e *Error) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %s (cause: %v)", e.Kind.Code(), e.Message, e.Cause)
	}
	return fmt.Sprintf("%s: %s", e.Kind.Code(), e.Message)
}

// Unwrap returns the underlying cause of the error.
func (e *Error) Unwrap() error { return e.Cause }

// WithContext appends a context field and returns the receiver.
func (e *Error) WithContext(key string, value any) *Error {
	e.Context = e.Context.Set(key, value)
	return e
}

// WithSeverity sets the severity and returns the receiver.
func (e *Error) WithSeverity(s Severity) *Error {
	e.Severity = s
	return e
}

// WithRecoverable sets recoverability and returns the receiver.
func (e *Error) WithRecoverable(recoverable bool) *Error {
	e.Recoverable = recoverable
	return e
}

// WithRetryAfter sets the retry-after hint and returns the receiver.
func (e *Error) WithRetryAfter(d time.Duration) *Error {
	e.RetryAfter = d
	return e
}

// WithCause sets the underlying cause and returns the receiver.
func (e *Error) WithCause(cause error) *Error {
	e.Cause = cause
	return e
}

// --- Common Constructors ---

// Network creates a network-kind error.
func Network(message string) *Error { return New(KindNetwork, message) }

// Broker creates a broker-kind error.
func Broker(message string) *Error { return New(KindBroker, message) }

// Strategy creates a strategy-kind error.
func Strategy(message string) *Error { return New(KindStrategy, message) }

// Configuration creates a configuration-kind error.
// Configuration problems are not recoverable by retrying.
func Configuration(message string) *Error {
	return New(KindConfiguration, message).WithRecoverable(false)
}

// Validation creates a validation-kind error.
// Invalid input stays invalid on retry.
func Validation(message string) *Error {
	return New(KindValidation, message).WithRecoverable(false)
}

// DataFeed creates a data-feed-kind error.
func DataFeed(message string) *Error { return New(KindDataFeed, message) }

// Recovery creates a recovery-kind error.
func Recovery(message string) *Error { return New(KindRecovery, message) }

// Generic creates a generic-kind error.
func Generic(message string) *Error { return New(KindGeneric, message) }

// --- Classification of arbitrary errors ---

// KindOf returns the kind of err, or KindGeneric for foreign errors.
func KindOf(err error) Kind {
	var fe *Error
	if errors.As(err, &fe) {
		return fe.Kind
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return KindNetwork
	}
	return KindGeneric
}

// SeverityOf returns the severity of err, or SeverityError for foreign errors.
func SeverityOf(err error) Severity {
	var fe *Error
	if errors.As(err, &fe) {
		return fe.Severity
	}
	return SeverityError
}

// IsRecoverable reports whether err may be retried. Foreign errors are
// treated as recoverable except for context cancellation.
func IsRecoverable(err error) bool {
	var fe *Error
	if errors.As(err, &fe) {
		return fe.Recoverable
	}
	return !errors.Is(err, context.Canceled)
}

// RetryAfterOf returns the retry-after hint of err, or zero.
func RetryAfterOf(err error) time.Duration {
	var fe *Error
	if errors.As(err, &fe) {
		return fe.RetryAfter
	}
	return 0
}
