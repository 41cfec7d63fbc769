// Package monitor aggregates recorded failures into a bounded event
// buffer and fires alerts when error conditions cross configured
// thresholds.
//
// A Monitor holds a time-ordered buffer of error events, pruned by
// retention and capped in size. Recording an event evaluates the
// alert conditions: severity at or above the threshold, error rate
// over the window above the rate threshold (critical severity bypasses
// the rate check), cooldown elapsed, and the per-window alert cap not
// yet reached. Alert functions run outside the buffer lock and inside
// a protective boundary, so a broken pager integration can never fail
// a trading path.
//
//	mon := monitor.New(monitor.Config{Logger: logger})
//	mon.RegisterAlertFunc(func(ctx context.Context, a monitor.Alert) error {
//	    return pager.Notify(ctx, a.Message)
//	})
//
//	mon.Record(ctx, err, monitor.WithComponent("order-feed"))
//
// Stats, Recent, and Report expose aggregate views of the buffer for
// dashboards and log pipelines.
package monitor
