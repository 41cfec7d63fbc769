package fault

import (
	"time"
)

// Record is the serialized form of an Error. It is lossless for kind,
// message, severity, and context; the cause chain flattens to a string.
type Record struct {
	Code        string    `json:"code"`
	Kind        string    `json:"kind"`
	Message     string    `json:"message"`
	Severity    string    `json:"severity"`
	Recoverable bool      `json:"recoverable"`
	RetryAfter  int64     `json:"retry_after_ms,omitempty"`
	Timestamp   time.Time `json:"timestamp"`
	Context     Context   `json:"context,omitempty"`
	Cause       string    `json:"cause,omitempty"`
}

// ToRecord serializes the error into a Record.
func (e *Error) ToRecord() Record {
	rec := Record{
		Code:        e.Kind.Code(),
		Kind:        e.Kind.String(),
		Message:     e.Message,
		Severity:    e.Severity.String(),
		Recoverable: e.Recoverable,
		RetryAfter:  e.RetryAfter.Milliseconds(),
		Timestamp:   e.Timestamp,
		Context:     e.Context.Clone(),
	}
	if e.Cause != nil {
		rec.Cause = e.Cause.Error()
	}
	return rec
}

// FromRecord reconstructs an Error from a Record. Unknown kind or
// severity names fail rather than silently reclassifying.
func FromRecord(rec Record) (*Error, error) {
	kind, err := ParseKind(rec.Kind)
	if err != nil {
		return nil, err
	}
	severity, err := ParseSeverity(rec.Severity)
	if err != nil {
		return nil, err
	}

	e := &Error{
		Kind:        kind,
		Message:     rec.Message,
		Severity:    severity,
		Recoverable: rec.Recoverable,
		RetryAfter:  time.Duration(rec.RetryAfter) * time.Millisecond,
		Timestamp:   rec.Timestamp,
		Context:     rec.Context.Clone(),
	}
	if rec.Cause != "" {
		e.Cause = causeError(rec.Cause)
	}
	return e, nil
}

// causeError preserves a flattened cause message across the round-trip.
type causeError string

func (c causeError) Error() string { return string(c) }
