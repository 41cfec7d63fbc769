// Package recovery maps failing components to recovery strategies.
//
// A Manager holds a caller-owned registry of policies keyed by
// component name or by error kind. When an operation fails, Execute
// resolves the policy for the failure and dispatches its strategy:
// retry the operation, produce a fallback or degraded result, restart
// the component and re-attempt, swallow the error with a default
// value, or alert and re-raise.
//
// Policies are registered at application startup:
//
//	mgr := recovery.NewManager(recovery.ManagerConfig{Logger: logger})
//	mgr.Register("order-feed", recovery.Policy{
//	    Strategy: recovery.StrategyDegrade,
//	    Degrade: func(ctx context.Context, ferr *fault.Error, rc recovery.Invocation) (any, error) {
//	        return staleSnapshot(), nil
//	    },
//	})
//
//	result, err := mgr.Execute(ctx, opErr, recovery.Invocation{Component: "order-feed"})
//
// Hooks run inside a protective boundary: a panic or error inside a
// fallback, degrade, alert, or restart hook is logged and the original
// failure surfaces instead.
package recovery
