package integrators

import "github.com/san-kum/bucketsim/internal/dynamo"

// Euler is the explicit first-order method with a fixed step.
type Euler struct{}

func NewEuler() *Euler {
	return &Euler{}
}

func (e *Euler) Name() string { return "euler" }

func (e *Euler) Solve(sys dynamo.System, x0 dynamo.State, span dynamo.Span, opts dynamo.Options) *dynamo.Trajectory {
	return solveFixed(e.Name(), e.step, sys, x0, span, opts)
}

func (e *Euler) step(ev *evaluator, x dynamo.State, t, dt float64) (dynamo.State, error) {
	dx, err := ev.derive(t, x)
	if err != nil {
		return nil, err
	}
	result := make(dynamo.State, len(x))
	for i := range x {
		result[i] = x[i] + dt*dx[i]
	}
	return result, nil
}
