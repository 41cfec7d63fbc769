// Package observe provides telemetry for resilience-guarded calls.
//
// It wires OpenTelemetry tracing and metrics together with a structured
// JSON logger behind a single Observer, and offers a Middleware that
// wraps a call with a span, duration metrics, and an outcome log line.
//
// # Usage
//
//	obs, err := observe.NewObserver(ctx, observe.Config{
//	    ServiceName: "trading-bot",
//	    Metrics:     observe.MetricsConfig{Enabled: true, Exporter: "prometheus"},
//	    Logging:     observe.LoggingConfig{Enabled: true, Level: "info"},
//	})
//	if err != nil {
//	    return err
//	}
//	defer obs.Shutdown(ctx)
//
//	mw, err := observe.MiddlewareFromObserver(obs)
//	if err != nil {
//	    return err
//	}
//	call := mw.Wrap(func(ctx context.Context, meta observe.CallMeta) error {
//	    return placeOrder(ctx)
//	})
//	err = call(ctx, observe.CallMeta{Component: "binance", Operation: "place_order"})
//
// The resilience package accepts a Middleware through its Executor so
// every composed call is observed without the caller doing any of the
// above wiring per call site.
package observe
