// Package dynamo provides core simulation primitives for initial value problems.
//
// The package defines the contract between physical models and numerical
// solvers:
//
//   - [State]: vector representing system state
//   - [System]: interface for ODE systems (dX/dt = f(t, X))
//   - [Solver]: integrator interface, returning a [Trajectory]
//   - [Trajectory]: sampled solution plus termination metadata
//
// # Failure reporting
//
// Configuration problems surface as a [*ConfigError] (matching
// [ErrConfiguration]) before any integration starts. Numerical problems
// such as step underflow or a domain violation inside the derivative are
// data: the solver returns a Trajectory with Success false, Status
// [StatusFailed], and the samples it accepted before stopping.
//
//	traj := solver.Solve(sys, dynamo.State{0}, dynamo.Span{Start: 0, End: 20}, opts)
//	if !traj.Success {
//	    log.Printf("stopped at t=%g: %s", traj.Times[traj.Len()-1], traj.Message)
//	}
//
// # Thread Safety
//
// Trajectories are not modified after Solve returns. Solvers in this module
// keep no state between Solve calls and may be shared across goroutines.
package dynamo
