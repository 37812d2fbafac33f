// Package metrics summarises tank-level trajectories.
//
// A Metric observes samples one at a time, so the same value can be
// computed while a run is replayed or after it has finished. All metrics
// read the level from component 0 of the state.
package metrics

import (
	"math"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"

	"github.com/san-kum/bucketsim/internal/dynamo"
)

type Metric interface {
	Name() string
	Observe(t float64, x dynamo.State)
	Value() float64
	Reset()
}

// Evaluate resets each metric, feeds it every sample of tr and collects
// the values by name.
func Evaluate(tr *dynamo.Trajectory, ms ...Metric) map[string]float64 {
	out := make(map[string]float64, len(ms))
	for _, m := range ms {
		m.Reset()
		for i, t := range tr.Times {
			m.Observe(t, tr.States[i])
		}
		out[m.Name()] = m.Value()
	}
	return out
}

// ForBucket is the default metric set for a tank settling towards hEq.
func ForBucket(hEq float64) []Metric {
	return []Metric{
		NewFinalLevel(),
		NewMinLevel(),
		NewEquilibriumError(hEq),
		NewRiseTime(hEq),
		NewSettlingTime(hEq, 0.02),
	}
}

// Summary holds whole-trajectory statistics of the level.
type Summary struct {
	Samples int
	Min     float64
	Max     float64
	Mean    float64
	StdDev  float64
}

func Summarize(tr *dynamo.Trajectory) Summary {
	h := tr.Component(0)
	if len(h) == 0 {
		return Summary{Min: math.NaN(), Max: math.NaN(), Mean: math.NaN(), StdDev: math.NaN()}
	}
	mean, std := stat.MeanStdDev(h, nil)
	if len(h) == 1 {
		std = 0
	}
	return Summary{
		Samples: len(h),
		Min:     floats.Min(h),
		Max:     floats.Max(h),
		Mean:    mean,
		StdDev:  std,
	}
}

func level(x dynamo.State) float64 {
	if len(x) == 0 {
		return math.NaN()
	}
	return x[0]
}
