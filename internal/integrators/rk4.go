package integrators

import "github.com/san-kum/bucketsim/internal/dynamo"

// RK4 is the classical fourth-order Runge-Kutta method with a fixed step.
// It has no error control; accuracy depends on MaxStep alone.
type RK4 struct{}

func NewRK4() *RK4 {
	return &RK4{}
}

func (r *RK4) Name() string { return "rk4" }

func (r *RK4) Solve(sys dynamo.System, x0 dynamo.State, span dynamo.Span, opts dynamo.Options) *dynamo.Trajectory {
	return solveFixed(r.Name(), r.step, sys, x0, span, opts)
}

func (r *RK4) step(ev *evaluator, x dynamo.State, t, dt float64) (dynamo.State, error) {
	n := len(x)
	scratch := make(dynamo.State, n)

	k1, err := ev.derive(t, x)
	if err != nil {
		return nil, err
	}

	for i := 0; i < n; i++ {
		scratch[i] = x[i] + dt*0.5*k1[i]
	}
	k2, err := ev.derive(t+dt*0.5, scratch)
	if err != nil {
		return nil, err
	}

	for i := 0; i < n; i++ {
		scratch[i] = x[i] + dt*0.5*k2[i]
	}
	k3, err := ev.derive(t+dt*0.5, scratch)
	if err != nil {
		return nil, err
	}

	for i := 0; i < n; i++ {
		scratch[i] = x[i] + dt*k3[i]
	}
	k4, err := ev.derive(t+dt, scratch)
	if err != nil {
		return nil, err
	}

	result := make(dynamo.State, n)
	dt6 := dt / 6.0
	for i := 0; i < n; i++ {
		result[i] = x[i] + dt6*(k1[i]+2*k2[i]+2*k3[i]+k4[i])
	}

	return result, nil
}
