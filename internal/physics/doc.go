// Package physics provides the leaking tank plant model.
//
// A [Tank] holds the vessel's cross-sectional area, validated at
// construction. A [Bucket] combines a Tank with a [control.Input] and
// implements [dynamo.System] with Torricelli's outflow law:
//
//	dh/dt = (Qin(t) - sqrt(2*g*h)) / A
//
// The model is undefined for h < 0. [DomainPolicy] selects whether such
// a level is treated as an empty tank or reported as [dynamo.ErrDomain].
//
// # Equilibrium
//
// For constant inflow q the level settles at [Equilibrium](q) = q²/(2g):
//
//	tank, _ := physics.NewTank(5)
//	b := physics.NewBucket(tank, control.Constant(10), physics.ClampEmpty)
//	heq := physics.Equilibrium(10) // ≈ 5.102
package physics
