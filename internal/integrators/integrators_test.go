package integrators

import (
	"errors"
	"math"
	"testing"

	"github.com/san-kum/bucketsim/internal/dynamo"
)

type decay struct{}

func (d *decay) StateDim() int { return 1 }
func (d *decay) Derive(t float64, x dynamo.State) (dynamo.State, error) {
	return dynamo.State{-x[0]}, nil
}

type harmonicOscillator struct{}

func (h *harmonicOscillator) StateDim() int { return 2 }
func (h *harmonicOscillator) Derive(t float64, x dynamo.State) (dynamo.State, error) {
	return dynamo.State{x[1], -x[0]}, nil
}

// cutoff fails once time passes at.
type cutoff struct {
	at float64
}

func (c *cutoff) StateDim() int { return 1 }
func (c *cutoff) Derive(t float64, x dynamo.State) (dynamo.State, error) {
	if t > c.at {
		return nil, dynamo.ErrDomain
	}
	return dynamo.State{1}, nil
}

type blowup struct{}

func (b *blowup) StateDim() int { return 1 }
func (b *blowup) Derive(t float64, x dynamo.State) (dynamo.State, error) {
	return dynamo.State{x[0] * x[0]}, nil
}

func allSolvers() []dynamo.Solver {
	return []dynamo.Solver{NewRK45(), NewDopri(), NewRK4(), NewEuler()}
}

func assertIncreasing(t *testing.T, tr *dynamo.Trajectory) {
	t.Helper()
	for i := 1; i < len(tr.Times); i++ {
		if tr.Times[i] <= tr.Times[i-1] {
			t.Fatalf("%s: times not increasing at %d: %g then %g", tr.Solver, i, tr.Times[i-1], tr.Times[i])
		}
	}
	if len(tr.Times) != len(tr.States) {
		t.Fatalf("%s: %d times but %d states", tr.Solver, len(tr.Times), len(tr.States))
	}
}

func TestSolversExponentialDecay(t *testing.T) {
	tolerance := map[string]float64{
		"rk45":  1e-4,
		"dopri": 1e-4,
		"rk4":   1e-8,
		"euler": 5e-3,
	}

	span := dynamo.Span{Start: 0, End: 1}
	for _, s := range allSolvers() {
		t.Run(s.Name(), func(t *testing.T) {
			tr := s.Solve(&decay{}, dynamo.State{1}, span, dynamo.Options{MaxStep: 0.01})
			if !tr.Success {
				t.Fatalf("solve failed: %s", tr.Message)
			}
			if tr.Status != dynamo.StatusCompleted {
				t.Errorf("status = %v, expected completed", tr.Status)
			}
			assertIncreasing(t, tr)

			if tr.Times[0] != span.Start {
				t.Errorf("first time = %g, expected %g", tr.Times[0], span.Start)
			}
			ft, fx := tr.Final()
			if ft != span.End {
				t.Errorf("last time = %g, expected %g", ft, span.End)
			}

			expected := math.Exp(-1)
			if math.Abs(fx[0]-expected) > tolerance[s.Name()] {
				t.Errorf("final value error too large: got %.8f, expected %.8f", fx[0], expected)
			}
			if tr.NFev == 0 {
				t.Error("evaluation count not reported")
			}
			if tr.NJev != 0 || tr.NLU != 0 {
				t.Errorf("jacobian/LU counts should be zero, got %d/%d", tr.NJev, tr.NLU)
			}
			if tr.Solver != s.Name() {
				t.Errorf("Solver = %q, expected %q", tr.Solver, s.Name())
			}
		})
	}
}

func TestRK4Accuracy(t *testing.T) {
	tr := NewRK4().Solve(&harmonicOscillator{}, dynamo.State{1.0, 0.0}, dynamo.Span{Start: 0, End: 1}, dynamo.Options{MaxStep: 0.01})
	if !tr.Success {
		t.Fatalf("solve failed: %s", tr.Message)
	}

	_, x := tr.Final()
	if math.Abs(x[0]-math.Cos(1)) > 1e-4 {
		t.Errorf("position error too large: got %.6f, expected %.6f", x[0], math.Cos(1))
	}
	if math.Abs(x[1]+math.Sin(1)) > 1e-4 {
		t.Errorf("velocity error too large: got %.6f, expected %.6f", x[1], -math.Sin(1))
	}
	if tr.Len() != 101 {
		t.Errorf("expected 101 samples, got %d", tr.Len())
	}
	if tr.NFev != 400 {
		t.Errorf("expected 400 evaluations, got %d", tr.NFev)
	}
}

func TestFixedStepShortensLastStep(t *testing.T) {
	tr := NewEuler().Solve(&decay{}, dynamo.State{1}, dynamo.Span{Start: 0, End: 1}, dynamo.Options{MaxStep: 0.3})
	if !tr.Success {
		t.Fatalf("solve failed: %s", tr.Message)
	}
	want := []float64{0, 0.3, 0.6, 0.9, 1}
	if len(tr.Times) != len(want) {
		t.Fatalf("times = %v, expected %v", tr.Times, want)
	}
	for i := range want {
		if math.Abs(tr.Times[i]-want[i]) > 1e-12 {
			t.Errorf("times[%d] = %g, expected %g", i, tr.Times[i], want[i])
		}
	}
}

func TestFixedStepNeedsFiniteMaxStep(t *testing.T) {
	for _, s := range []dynamo.Solver{NewRK4(), NewEuler()} {
		tr := s.Solve(&decay{}, dynamo.State{1}, dynamo.Span{Start: 0, End: 1}, dynamo.Options{})
		if tr.Success {
			t.Errorf("%s: expected failure without MaxStep", s.Name())
		}
		if !errors.Is(tr.Err, dynamo.ErrConfiguration) {
			t.Errorf("%s: expected configuration error, got %v", s.Name(), tr.Err)
		}
	}
}

func TestRK45RespectsMaxStep(t *testing.T) {
	tr := NewRK45().Solve(&decay{}, dynamo.State{1}, dynamo.Span{Start: 0, End: 2}, dynamo.Options{MaxStep: 0.05})
	if !tr.Success {
		t.Fatalf("solve failed: %s", tr.Message)
	}
	for i := 1; i < len(tr.Times); i++ {
		if dt := tr.Times[i] - tr.Times[i-1]; dt > 0.05+1e-12 {
			t.Fatalf("step %d is %g, above max step", i, dt)
		}
	}
	if tr.Len() < 40 {
		t.Errorf("expected at least 40 samples, got %d", tr.Len())
	}
}

func TestRK45AdaptsWithoutMaxStep(t *testing.T) {
	tr := NewRK45().Solve(&harmonicOscillator{}, dynamo.State{1, 0}, dynamo.Span{Start: 0, End: 10}, dynamo.Options{RelTol: 1e-8, AbsTol: 1e-10})
	if !tr.Success {
		t.Fatalf("solve failed: %s", tr.Message)
	}
	_, x := tr.Final()
	if math.Abs(x[0]-math.Cos(10)) > 1e-5 {
		t.Errorf("position error too large: got %.8f, expected %.8f", x[0], math.Cos(10))
	}
	energy := 0.5 * (x[0]*x[0] + x[1]*x[1])
	if drift := math.Abs(energy - 0.5); drift > 1e-5 {
		t.Errorf("RK45 energy drift too high: %e", drift)
	}
}

func TestSolversReportDerivativeFailure(t *testing.T) {
	for _, s := range allSolvers() {
		t.Run(s.Name(), func(t *testing.T) {
			tr := s.Solve(&cutoff{at: 1}, dynamo.State{0}, dynamo.Span{Start: 0, End: 3}, dynamo.Options{MaxStep: 0.1})
			if tr.Success {
				t.Fatal("expected failure")
			}
			if tr.Status != dynamo.StatusFailed {
				t.Errorf("status = %v, expected failed", tr.Status)
			}
			if !errors.Is(tr.Err, dynamo.ErrDomain) {
				t.Errorf("expected ErrDomain, got %v", tr.Err)
			}
			var simErr *dynamo.SimulationError
			if !errors.As(tr.Err, &simErr) {
				t.Errorf("expected SimulationError, got %T", tr.Err)
			}
			if tr.Message == "" {
				t.Error("failure message is empty")
			}

			assertIncreasing(t, tr)
			if tr.Len() == 0 || tr.Times[0] != 0 {
				t.Fatalf("prefix must start at span start, got %v", tr.Times)
			}
			// A step may end past the cutoff if no stage was evaluated there.
			last, _ := tr.Final()
			if last > 1+0.1+1e-9 {
				t.Errorf("prefix extends to %g, past the failure point", last)
			}
			if last >= 3 {
				t.Errorf("prefix reaches the span end")
			}
		})
	}
}

func TestRK45BlowupFails(t *testing.T) {
	tr := NewRK45().Solve(&blowup{}, dynamo.State{1}, dynamo.Span{Start: 0, End: 2}, dynamo.Options{})
	if tr.Success {
		t.Fatal("expected failure for finite-time blowup")
	}
	if !errors.Is(tr.Err, dynamo.ErrStepTooSmall) && !errors.Is(tr.Err, dynamo.ErrInvalidState) && !errors.Is(tr.Err, dynamo.ErrBudgetExceeded) {
		t.Errorf("unexpected failure cause: %v", tr.Err)
	}
	assertIncreasing(t, tr)
}

func TestEvaluationBudget(t *testing.T) {
	for _, s := range allSolvers() {
		t.Run(s.Name(), func(t *testing.T) {
			tr := s.Solve(&decay{}, dynamo.State{1}, dynamo.Span{Start: 0, End: 10}, dynamo.Options{MaxStep: 0.01, MaxEvaluations: 50})
			if tr.Success {
				t.Fatal("expected budget failure")
			}
			if !errors.Is(tr.Err, dynamo.ErrBudgetExceeded) {
				t.Errorf("expected ErrBudgetExceeded, got %v", tr.Err)
			}
			if tr.NFev > 50 {
				t.Errorf("NFev = %d exceeds budget", tr.NFev)
			}
		})
	}
}

func TestSolversRejectBadProblem(t *testing.T) {
	for _, s := range allSolvers() {
		tr := s.Solve(&decay{}, dynamo.State{1}, dynamo.Span{Start: 5, End: 5}, dynamo.Options{MaxStep: 0.1})
		if tr.Success || !errors.Is(tr.Err, dynamo.ErrConfiguration) {
			t.Errorf("%s: expected configuration failure, got %v", s.Name(), tr.Err)
		}

		tr = s.Solve(&decay{}, dynamo.State{1, 2}, dynamo.Span{Start: 0, End: 1}, dynamo.Options{MaxStep: 0.1})
		if tr.Success || !errors.Is(tr.Err, dynamo.ErrDimensionMismatch) {
			t.Errorf("%s: expected dimension failure, got %v", s.Name(), tr.Err)
		}
	}
}

func TestSolversAreDeterministic(t *testing.T) {
	for _, s := range allSolvers() {
		a := s.Solve(&decay{}, dynamo.State{1}, dynamo.Span{Start: 0, End: 1}, dynamo.Options{MaxStep: 0.05})
		b := s.Solve(&decay{}, dynamo.State{1}, dynamo.Span{Start: 0, End: 1}, dynamo.Options{MaxStep: 0.05})
		if a.Len() != b.Len() || a.NFev != b.NFev {
			t.Fatalf("%s: runs differ in length or evaluations", s.Name())
		}
		for i := range a.Times {
			if a.Times[i] != b.Times[i] || a.States[i][0] != b.States[i][0] {
				t.Fatalf("%s: sample %d differs", s.Name(), i)
			}
		}
	}
}

func TestSamplingGrid(t *testing.T) {
	grid := samplingGrid(dynamo.Span{Start: 0, End: 20}, 0.01)
	if len(grid) != 2001 {
		t.Fatalf("expected 2001 points, got %d", len(grid))
	}
	if grid[0] != 0 || grid[len(grid)-1] != 20 {
		t.Errorf("grid bounds = %g..%g", grid[0], grid[len(grid)-1])
	}

	unbounded := samplingGrid(dynamo.Span{Start: 1, End: 2}, math.Inf(1))
	if len(unbounded) != defaultSamples+1 {
		t.Errorf("expected %d points, got %d", defaultSamples+1, len(unbounded))
	}
}

func TestRegistry(t *testing.T) {
	names := Names()
	expected := []string{"dopri", "euler", "rk4", "rk45"}
	if len(names) != len(expected) {
		t.Fatalf("Names() = %v, expected %v", names, expected)
	}
	for i := range expected {
		if names[i] != expected[i] {
			t.Errorf("Names()[%d] = %q, expected %q", i, names[i], expected[i])
		}
	}

	for _, name := range names {
		s, err := New(name)
		if err != nil {
			t.Fatalf("New(%q) failed: %v", name, err)
		}
		if s.Name() != name {
			t.Errorf("New(%q).Name() = %q", name, s.Name())
		}
	}

	s, err := New("")
	if err != nil || s.Name() != Default {
		t.Errorf("New(\"\") = %v, %v; expected %s", s, err, Default)
	}

	if _, err := New("leapfrog"); err == nil {
		t.Error("expected error for unknown integrator")
	}
}
