package monitor

import (
	"context"
	"time"

	"github.com/jonwraymond/tradeops/fault"
)

// Alert is the payload delivered to alert functions.
type Alert struct {
	// Message is the triggering failure's message.
	Message string `json:"message"`

	// Severity is the triggering event's severity.
	Severity fault.Severity `json:"-"`

	// Component names the failing subsystem.
	Component string `json:"component,omitempty"`

	// Context carries the triggering event's metadata.
	Context fault.Context `json:"context,omitempty"`

	// Rate is the error rate over the alert window at firing time,
	// in events per second.
	Rate float64 `json:"rate"`

	// Timestamp is when the alert fired.
	Timestamp time.Time `json:"timestamp"`
}

// AlertFunc delivers an alert. Errors and panics are logged and never
// propagate to the caller of Record.
type AlertFunc func(ctx context.Context, alert Alert) error

// AlertConfig configures when alerts fire.
type AlertConfig struct {
	// SeverityThreshold is the minimum severity that can alert.
	// Default: fault.SeverityError
	SeverityThreshold fault.Severity

	// RateThreshold is the error rate, in events per second over
	// Window, above which alerts fire. Critical events bypass it.
	// Default: 0.1
	RateThreshold float64

	// Window is the sliding window for rate and alert-cap accounting.
	// Default: 300 seconds
	Window time.Duration

	// MaxAlertsPerWindow caps alerts fired inside one Window.
	// Default: 10
	MaxAlertsPerWindow int

	// Cooldown is the minimum gap between consecutive alerts.
	// Default: 60 seconds
	Cooldown time.Duration
}
