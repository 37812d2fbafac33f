package dynamo

import (
	"fmt"
	"math"
)

type State []float64

func (s State) Clone() State {
	c := make(State, len(s))
	copy(c, s)
	return c
}

func (s State) IsValid() bool {
	for _, v := range s {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return false
		}
	}
	return true
}

func (s State) Norm() float64 {
	sum := 0.0
	for _, v := range s {
		sum += v * v
	}
	return math.Sqrt(sum)
}

func (s State) Add(other State) State {
	result := make(State, len(s))
	for i := range s {
		if i < len(other) {
			result[i] = s[i] + other[i]
		} else {
			result[i] = s[i]
		}
	}
	return result
}

func (s State) Scale(factor float64) State {
	result := make(State, len(s))
	for i := range s {
		result[i] = s[i] * factor
	}
	return result
}

func (s State) Sub(other State) State {
	result := make(State, len(s))
	for i := range s {
		if i < len(other) {
			result[i] = s[i] - other[i]
		} else {
			result[i] = s[i]
		}
	}
	return result
}

// System is the right-hand side of dX/dt = f(t, X).
// Derive must not retain x, and must return a fresh slice.
type System interface {
	Derive(t float64, x State) (State, error)
	StateDim() int
}

// Span is a closed integration interval [Start, End].
type Span struct {
	Start float64
	End   float64
}

func (s Span) Length() float64 { return s.End - s.Start }

func (s Span) Validate() error {
	if math.IsNaN(s.Start) || math.IsInf(s.Start, 0) || math.IsNaN(s.End) || math.IsInf(s.End, 0) {
		return &ConfigError{Field: "time_span", Value: fmt.Sprintf("(%g, %g)", s.Start, s.End), Reason: "bounds must be finite"}
	}
	if s.Start >= s.End {
		return &ConfigError{Field: "time_span", Value: fmt.Sprintf("(%g, %g)", s.Start, s.End), Reason: "start must be before end"}
	}
	return nil
}

// Options tune a Solver. Zero fields fall back to DefaultOptions.
type Options struct {
	MaxStep        float64
	FirstStep      float64
	RelTol         float64
	AbsTol         float64
	MaxEvaluations int
}

const (
	DefaultRelTol         = 1e-3
	DefaultAbsTol         = 1e-6
	DefaultMaxEvaluations = 10_000_000
)

func DefaultOptions() Options {
	return Options{
		MaxStep:        math.Inf(1),
		RelTol:         DefaultRelTol,
		AbsTol:         DefaultAbsTol,
		MaxEvaluations: DefaultMaxEvaluations,
	}
}

// WithDefaults fills unset fields from DefaultOptions.
func (o Options) WithDefaults() Options {
	d := DefaultOptions()
	if o.MaxStep <= 0 || math.IsNaN(o.MaxStep) {
		o.MaxStep = d.MaxStep
	}
	if o.RelTol <= 0 {
		o.RelTol = d.RelTol
	}
	if o.AbsTol <= 0 {
		o.AbsTol = d.AbsTol
	}
	if o.MaxEvaluations <= 0 {
		o.MaxEvaluations = d.MaxEvaluations
	}
	return o
}

// Solver integrates an initial value problem. Numerical failure is reported
// through the returned Trajectory, never as a panic or a nil result.
type Solver interface {
	Name() string
	Solve(sys System, x0 State, span Span, opts Options) *Trajectory
}

type Status int

const (
	StatusCompleted Status = 0
	StatusFailed    Status = -1
)

func (s Status) String() string {
	switch s {
	case StatusCompleted:
		return "completed"
	case StatusFailed:
		return "failed"
	default:
		return fmt.Sprintf("status(%d)", int(s))
	}
}

// Trajectory is the sampled solution of one run plus solver metadata.
// Times are strictly increasing and States[i] is the state at Times[i].
//
// The solver owns a Trajectory until Solve returns; Append, Complete and
// Fail are for solver use only. Afterwards it is read-only.
type Trajectory struct {
	Times   []float64
	States  []State
	Success bool
	Status  Status
	Message string
	NFev    int
	NJev    int
	NLU     int
	Solver  string
	Err     error
}

func (tr *Trajectory) Len() int { return len(tr.Times) }

// Final returns the last sampled time and state.
func (tr *Trajectory) Final() (float64, State) {
	if len(tr.Times) == 0 {
		return math.NaN(), nil
	}
	n := len(tr.Times) - 1
	return tr.Times[n], tr.States[n]
}

// Component returns the i-th state variable across all samples.
func (tr *Trajectory) Component(i int) []float64 {
	out := make([]float64, len(tr.States))
	for k, s := range tr.States {
		if i < len(s) {
			out[k] = s[i]
		}
	}
	return out
}

// Append records a sample. Callers keep times increasing.
func (tr *Trajectory) Append(t float64, x State) {
	tr.Times = append(tr.Times, t)
	tr.States = append(tr.States, x.Clone())
}

// Complete marks the run as having reached the end of its span.
func (tr *Trajectory) Complete() {
	tr.Success = true
	tr.Status = StatusCompleted
	tr.Message = "the solver successfully reached the end of the integration interval"
	tr.Err = nil
}

// Fail marks the run as terminated early with err.
func (tr *Trajectory) Fail(err error) {
	tr.Success = false
	tr.Status = StatusFailed
	tr.Err = err
	if err != nil {
		tr.Message = err.Error()
	}
}
