package recovery

import "errors"

// Sentinel errors for recovery operations.
var (
	// ErrUnregistered is returned by Lookup when no policy matches a
	// component or error kind. Execute never returns it: an
	// unregistered failure surfaces as the original error unchanged.
	ErrUnregistered = errors.New("recovery: no policy registered")

	// ErrNoOperation is returned when a Retry or Restart policy fires
	// without an operation to re-run on the invocation.
	ErrNoOperation = errors.New("recovery: invocation has no operation to re-run")
)

// noValue is the marker type behind NoValue.
type noValue struct{}

func (noValue) String() string { return "<no value>" }

// NoValue is returned by the Ignore strategy when the policy carries
// no DefaultValue. It makes "recovered with nothing" distinguishable
// from a legitimate nil result.
var NoValue any = noValue{}
