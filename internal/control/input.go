package control

import (
	"fmt"
	"math"
	"sort"
)

// Input is a volumetric inflow rate as a function of time.
type Input interface {
	Evaluate(t float64) float64
}

// InputFunc adapts a plain function to Input.
type InputFunc func(t float64) float64

func (f InputFunc) Evaluate(t float64) float64 { return f(t) }

// Constant is a fixed inflow rate.
type Constant float64

func (c Constant) Evaluate(float64) float64 { return float64(c) }

func (c Constant) String() string { return fmt.Sprintf("constant(%g)", float64(c)) }

// Step returns Before until At, then After.
type Step struct {
	Before float64
	After  float64
	At     float64
}

func (s Step) Evaluate(t float64) float64 {
	if t < s.At {
		return s.Before
	}
	return s.After
}

func (s Step) String() string {
	return fmt.Sprintf("step(%g -> %g at t=%g)", s.Before, s.After, s.At)
}

// Ramp changes linearly from Start at t=0 by Slope per unit time.
// Negative values are clamped to zero.
type Ramp struct {
	Start float64
	Slope float64
}

func (r Ramp) Evaluate(t float64) float64 {
	return math.Max(0, r.Start+r.Slope*t)
}

func (r Ramp) String() string { return fmt.Sprintf("ramp(%g%+g*t)", r.Start, r.Slope) }

// Sinusoid oscillates around Offset.
// Negative values are clamped to zero.
type Sinusoid struct {
	Offset    float64
	Amplitude float64
	Period    float64
}

func (s Sinusoid) Evaluate(t float64) float64 {
	if s.Period <= 0 {
		return math.Max(0, s.Offset)
	}
	return math.Max(0, s.Offset+s.Amplitude*math.Sin(2*math.Pi*t/s.Period))
}

func (s Sinusoid) String() string {
	return fmt.Sprintf("sinusoid(%g±%g, T=%g)", s.Offset, s.Amplitude, s.Period)
}

// Breakpoint starts a constant segment of a Schedule.
type Breakpoint struct {
	At   float64 `yaml:"at" json:"at"`
	Flow float64 `yaml:"flow" json:"flow"`
}

// Schedule is piecewise constant. Before the first breakpoint it yields the
// first breakpoint's flow.
type Schedule struct {
	points []Breakpoint
}

func NewSchedule(points []Breakpoint) (*Schedule, error) {
	if len(points) == 0 {
		return nil, fmt.Errorf("schedule needs at least one breakpoint")
	}
	sorted := make([]Breakpoint, len(points))
	copy(sorted, points)
	sort.SliceStable(sorted, func(i, j int) bool { return sorted[i].At < sorted[j].At })
	for i := 1; i < len(sorted); i++ {
		if sorted[i].At == sorted[i-1].At {
			return nil, fmt.Errorf("duplicate breakpoint at t=%g", sorted[i].At)
		}
	}
	return &Schedule{points: sorted}, nil
}

func (s *Schedule) Evaluate(t float64) float64 {
	i := sort.Search(len(s.points), func(i int) bool { return s.points[i].At > t })
	if i == 0 {
		return s.points[0].Flow
	}
	return s.points[i-1].Flow
}

func (s *Schedule) Points() []Breakpoint {
	out := make([]Breakpoint, len(s.points))
	copy(out, s.points)
	return out
}

func (s *Schedule) String() string { return fmt.Sprintf("schedule(%d segments)", len(s.points)) }
