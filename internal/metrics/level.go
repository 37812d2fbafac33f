package metrics

import (
	"math"

	"github.com/san-kum/bucketsim/internal/dynamo"
)

type FinalLevel struct {
	last    float64
	samples int
}

func NewFinalLevel() *FinalLevel { return &FinalLevel{} }

func (f *FinalLevel) Name() string { return "final_level" }

func (f *FinalLevel) Observe(t float64, x dynamo.State) {
	f.last = level(x)
	f.samples++
}

func (f *FinalLevel) Value() float64 {
	if f.samples == 0 {
		return math.NaN()
	}
	return f.last
}

func (f *FinalLevel) Reset() { *f = FinalLevel{} }

type MinLevel struct {
	min     float64
	samples int
}

func NewMinLevel() *MinLevel { return &MinLevel{} }

func (m *MinLevel) Name() string { return "min_level" }

func (m *MinLevel) Observe(t float64, x dynamo.State) {
	h := level(x)
	if m.samples == 0 || h < m.min {
		m.min = h
	}
	m.samples++
}

func (m *MinLevel) Value() float64 {
	if m.samples == 0 {
		return math.NaN()
	}
	return m.min
}

func (m *MinLevel) Reset() { *m = MinLevel{} }

// EquilibriumError is the distance of the last observed level from hEq.
type EquilibriumError struct {
	hEq  float64
	last FinalLevel
}

func NewEquilibriumError(hEq float64) *EquilibriumError {
	return &EquilibriumError{hEq: hEq}
}

func (e *EquilibriumError) Name() string { return "equilibrium_error" }

func (e *EquilibriumError) Observe(t float64, x dynamo.State) { e.last.Observe(t, x) }

func (e *EquilibriumError) Value() float64 {
	return math.Abs(e.last.Value() - e.hEq)
}

func (e *EquilibriumError) Reset() { e.last.Reset() }

// RiseTime is the time taken to go from 10% to 90% of hEq, measured
// between the first samples at or above each threshold. It is NaN until
// the upper threshold has been reached.
type RiseTime struct {
	hEq      float64
	low      float64
	high     float64
	haveLow  bool
	haveHigh bool
}

func NewRiseTime(hEq float64) *RiseTime { return &RiseTime{hEq: hEq} }

func (r *RiseTime) Name() string { return "rise_time" }

func (r *RiseTime) Observe(t float64, x dynamo.State) {
	h := level(x)
	if !r.haveLow && h >= 0.1*r.hEq {
		r.low, r.haveLow = t, true
	}
	if !r.haveHigh && h >= 0.9*r.hEq {
		r.high, r.haveHigh = t, true
	}
}

func (r *RiseTime) Value() float64 {
	if !r.haveHigh {
		return math.NaN()
	}
	return r.high - r.low
}

func (r *RiseTime) Reset() { *r = RiseTime{hEq: r.hEq} }

// SettlingTime is the elapsed time, from the first sample, after which the
// level stays within band*hEq of hEq. It is NaN if the last sample is
// outside the band.
type SettlingTime struct {
	hEq     float64
	band    float64
	start   float64
	entered float64
	inside  bool
	samples int
}

func NewSettlingTime(hEq, band float64) *SettlingTime {
	return &SettlingTime{hEq: hEq, band: band}
}

func (s *SettlingTime) Name() string { return "settling_time" }

func (s *SettlingTime) Observe(t float64, x dynamo.State) {
	if s.samples == 0 {
		s.start = t
	}
	s.samples++

	within := math.Abs(level(x)-s.hEq) <= s.band*math.Abs(s.hEq)
	switch {
	case within && !s.inside:
		s.entered, s.inside = t, true
	case !within:
		s.inside = false
	}
}

func (s *SettlingTime) Value() float64 {
	if !s.inside {
		return math.NaN()
	}
	return s.entered - s.start
}

func (s *SettlingTime) Reset() { *s = SettlingTime{hEq: s.hEq, band: s.band} }
