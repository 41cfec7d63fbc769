// Package fault provides the structured error taxonomy shared by the
// resilience, recovery, and monitor packages.
//
// Every failure that flows through the kit is represented as a *fault.Error
// carrying a kind, a severity, an ordered context, and recoverability
// metadata. Callers wrap native failures into this shape at the boundary:
//
//	err := fault.Broker("order rejected").
//	    WithSeverity(fault.SeverityCritical).
//	    WithContext("order_id", id)
//
// Errors serialize losslessly to a Record and back, so they can cross
// logging and reporting pipelines without losing classification:
//
//	rec := err.ToRecord()
//	back, _ := fault.FromRecord(rec)
//
// Foreign error types are classified through KindOf, SeverityOf, and
// IsRecoverable, which fall back to Generic/Error/recoverable when the
// error does not carry taxonomy metadata.
package fault
