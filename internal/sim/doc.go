// Package sim drives leaking-tank simulations.
//
// A [Config] names the tank area, inflow signal, initial level, time span,
// step ceiling and solver. [Run] validates it, builds the plant model and
// hands the initial value problem to the solver:
//
//	cfg := sim.DefaultConfig()
//	traj, err := sim.Run(cfg)
//	if err != nil {
//	    // misconfigured, nothing was integrated
//	}
//	if !traj.Success {
//	    // traj holds the prefix accepted before the solver stopped
//	}
//
// A run moves from configured to integrating to completed or failed. It is
// a single blocking call with no cancellation. [Sweep] runs several
// configurations concurrently.
package sim
