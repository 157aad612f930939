// Package dynamo provides core simulation primitives for lumped process units.
//
// The package defines the fundamental interfaces and types for numerical
// simulation of ordinary differential equations (ODEs):
//
//   - [State]: vector representing the process state
//   - [System]: interface for ODE systems (dX/dt = f(X, t))
//   - [Solver]: one adaptive or fixed-step integration of an initial-value problem
//   - [Method]: constructor selecting the integration scheme
//   - [Simulator]: drives a Solver and samples it at requested instants
//
// # Example
//
//	reactor := process.NewReactor(params)
//	method, _ := integrators.Lookup("bdf")
//	sim := dynamo.New(reactor, method)
//	result, err := sim.Run(ctx, x0, cfg)
//
// A failed run returns the partial trajectory together with a
// [*SimulationError]; use errors.Is with [ErrIntegrationFailure],
// [ErrNonFiniteState] or [ErrInvalidParameter] to classify it.
//
// # Thread Safety
//
// Simulator instances are NOT thread-safe. For parallel simulations,
// use [RunEnsemble], which gives every job its own simulator and state.
package dynamo
