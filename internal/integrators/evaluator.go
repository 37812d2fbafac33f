package integrators

import (
	"fmt"

	"github.com/san-kum/bucketsim/internal/dynamo"
)

// evaluator counts derivative evaluations and enforces the budget.
type evaluator struct {
	sys    dynamo.System
	nfev   int
	budget int
}

func newEvaluator(sys dynamo.System, budget int) *evaluator {
	return &evaluator{sys: sys, budget: budget}
}

func (e *evaluator) derive(t float64, x dynamo.State) (dynamo.State, error) {
	if e.nfev >= e.budget {
		return nil, fmt.Errorf("%d evaluations: %w", e.nfev, dynamo.ErrBudgetExceeded)
	}
	e.nfev++
	dx, err := e.sys.Derive(t, x)
	if err != nil {
		return nil, err
	}
	if len(dx) != len(x) {
		return nil, fmt.Errorf("derivative has %d components, state has %d: %w", len(dx), len(x), dynamo.ErrDimensionMismatch)
	}
	if !dx.IsValid() {
		return nil, fmt.Errorf("derivative at t=%g: %w", t, dynamo.ErrInvalidState)
	}
	return dx, nil
}

func checkProblem(sys dynamo.System, x0 dynamo.State, span dynamo.Span) error {
	if err := span.Validate(); err != nil {
		return err
	}
	if len(x0) != sys.StateDim() {
		return fmt.Errorf("initial state has %d components, system expects %d: %w", len(x0), sys.StateDim(), dynamo.ErrDimensionMismatch)
	}
	if !x0.IsValid() {
		return fmt.Errorf("initial state: %w", dynamo.ErrInvalidState)
	}
	return nil
}

func failAt(tr *dynamo.Trajectory, ev *evaluator, step int, t float64, x dynamo.State, err error) *dynamo.Trajectory {
	tr.NFev = ev.nfev
	tr.Fail(&dynamo.SimulationError{Step: step, Time: t, State: x.Clone(), Wrapped: err})
	return tr
}
