package integrators

import (
	"fmt"
	"math"

	"github.com/san-kum/bucketsim/internal/dynamo"
)

type stepFunc func(ev *evaluator, x dynamo.State, t, dt float64) (dynamo.State, error)

// solveFixed advances with step opts.MaxStep, shortening the last step to
// land exactly on span.End.
func solveFixed(name string, step stepFunc, sys dynamo.System, x0 dynamo.State, span dynamo.Span, opts dynamo.Options) *dynamo.Trajectory {
	opts = opts.WithDefaults()
	tr := &dynamo.Trajectory{Solver: name}

	if err := checkProblem(sys, x0, span); err != nil {
		tr.Fail(err)
		return tr
	}
	if math.IsInf(opts.MaxStep, 1) {
		tr.Fail(&dynamo.ConfigError{
			Field:  "max_step",
			Value:  "unbounded",
			Reason: fmt.Sprintf("%s needs a finite step", name),
		})
		return tr
	}

	dt := opts.MaxStep
	steps := int(math.Ceil(span.Length()/dt - 1e-9))
	if steps < 1 {
		steps = 1
	}

	ev := newEvaluator(sys, opts.MaxEvaluations)
	x := x0.Clone()
	t := span.Start
	tr.Times = make([]float64, 0, steps+1)
	tr.States = make([]dynamo.State, 0, steps+1)
	tr.Append(t, x)

	for i := 1; i <= steps; i++ {
		tNext := span.Start + float64(i)*dt
		if i == steps {
			tNext = span.End
		}

		newX, err := step(ev, x, t, tNext-t)
		if err != nil {
			return failAt(tr, ev, i, t, x, err)
		}
		if !newX.IsValid() {
			return failAt(tr, ev, i, t, x, dynamo.ErrInvalidState)
		}

		x = newX
		t = tNext
		tr.Append(t, x)
	}

	tr.NFev = ev.nfev
	tr.Complete()
	return tr
}
