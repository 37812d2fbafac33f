package integrators

import (
	"fmt"
	"math"

	"github.com/ready-steady/ode/dopri"

	"github.com/san-kum/bucketsim/internal/dynamo"
)

// defaultSamples is the grid resolution used when MaxStep is unbounded.
const defaultSamples = 100

// Dopri delegates to the Dormand-Prince integrator of
// github.com/ready-steady/ode. The library reports the solution at chosen
// points, so the span is sampled on a uniform grid no coarser than MaxStep
// and integrated cell by cell; a failure keeps the cells already solved.
type Dopri struct{}

func NewDopri() *Dopri {
	return &Dopri{}
}

func (d *Dopri) Name() string { return "dopri" }

func (d *Dopri) Solve(sys dynamo.System, x0 dynamo.State, span dynamo.Span, opts dynamo.Options) *dynamo.Trajectory {
	opts = opts.WithDefaults()
	tr := &dynamo.Trajectory{Solver: d.Name()}

	if err := checkProblem(sys, x0, span); err != nil {
		tr.Fail(err)
		return tr
	}

	grid := samplingGrid(span, opts.MaxStep)
	ev := newEvaluator(sys, opts.MaxEvaluations)
	nd := len(x0)

	// The library's derivative has no error result. The first failure is
	// kept here and later evaluations return a zero rate so the current
	// cell finishes quickly and is then discarded.
	var derivErr error
	derivative := func(t float64, y, dy []float64) {
		if derivErr != nil {
			clear(dy)
			return
		}
		dx, err := ev.derive(t, dynamo.State(y))
		if err != nil {
			derivErr = err
			clear(dy)
			return
		}
		copy(dy, dx)
	}

	x := x0.Clone()
	tr.Times = make([]float64, 0, len(grid))
	tr.States = make([]dynamo.State, 0, len(grid))
	tr.Append(grid[0], x)

	for i := 1; i < len(grid); i++ {
		t0, t1 := grid[i-1], grid[i]

		cfg := dopri.DefaultConfig()
		cfg.MaxStep = math.Min(opts.MaxStep, t1-t0)
		cfg.TryStep = t1 - t0
		cfg.AbsError = opts.AbsTol
		cfg.RelError = opts.RelTol
		if opts.FirstStep > 0 && i == 1 {
			cfg.TryStep = math.Min(opts.FirstStep, t1-t0)
		}

		integrator, err := dopri.New(cfg)
		if err != nil {
			return failAt(tr, ev, i-1, t0, x, fmt.Errorf("configure dopri: %w", err))
		}

		ys, _, err := integrator.Compute(derivative, x, []float64{t0, t1})
		if derivErr != nil {
			return failAt(tr, ev, i-1, t0, x, derivErr)
		}
		if err != nil {
			return failAt(tr, ev, i-1, t0, x, fmt.Errorf("dopri: %w", err))
		}
		if len(ys) < nd {
			return failAt(tr, ev, i-1, t0, x, fmt.Errorf("dopri returned %d values: %w", len(ys), dynamo.ErrDimensionMismatch))
		}

		next := dynamo.State(ys[len(ys)-nd:]).Clone()
		if !next.IsValid() {
			return failAt(tr, ev, i-1, t0, x, dynamo.ErrInvalidState)
		}

		x = next
		tr.Append(t1, x)
	}

	tr.NFev = ev.nfev
	tr.Complete()
	return tr
}

// samplingGrid returns strictly increasing points from span.Start to
// span.End with spacing at most maxStep.
func samplingGrid(span dynamo.Span, maxStep float64) []float64 {
	width := span.Length() / defaultSamples
	if !math.IsInf(maxStep, 1) && maxStep < width {
		width = maxStep
	}

	n := int(math.Ceil(span.Length()/width - 1e-9))
	if n < 1 {
		n = 1
	}
	grid := make([]float64, n+1)
	for i := 0; i < n; i++ {
		grid[i] = span.Start + float64(i)*width
	}
	grid[n] = span.End
	return grid
}
