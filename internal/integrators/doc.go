// Package integrators implements [dynamo.Solver] for explicit integration.
//
//   - [RK45]: adaptive Dormand-Prince 5(4), every accepted step sampled
//   - [Dopri]: binding to github.com/ready-steady/ode/dopri on a uniform grid
//   - [RK4]: classical Runge-Kutta, fixed step MaxStep
//   - [Euler]: forward Euler, fixed step MaxStep
//
// The fixed-step solvers have no error control and require a finite
// MaxStep. All solvers stop with [dynamo.StatusFailed] when the system
// returns an error, when a derivative is not finite, when the evaluation
// budget runs out, or (adaptive only) when the step underflows.
package integrators
