// Package control provides open-loop inflow signals for the tank model.
//
// Signals implement [Input], a pure function of time:
//
//   - [Constant]: fixed inflow
//   - [Step]: switches from one level to another at a given time
//   - [Ramp]: linear change from a starting value, floored at zero
//   - [Sinusoid]: periodic inflow around an offset, floored at zero
//   - [Schedule]: piecewise-constant inflow from breakpoints
//   - [InputFunc]: adapter for an ordinary function
//
// # Usage
//
//	in := control.Constant(10)
//	bucket := physics.NewBucket(tank, in, physics.ClampEmpty)
//	// Evaluate is called at every derivative evaluation
//
// An Input may be evaluated at any time, in any order, any number of times.
// It must not carry state that depends on simulation progress.
package control
