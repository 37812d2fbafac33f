// Package optim searches scenario parameters for the best-scoring run.
package optim

import (
	"context"
	"errors"
	"fmt"
	"math"

	"github.com/san-kum/bucketsim/internal/control"
	"github.com/san-kum/bucketsim/internal/dynamo"
	"github.com/san-kum/bucketsim/internal/metrics"
	"github.com/san-kum/bucketsim/internal/sim"
)

var ErrNoCandidate = errors.New("optim: no candidate completed successfully")

// Param is one searched dimension. Apply writes v into the run config.
type Param struct {
	Name   string
	Values []float64
	Apply  func(c *sim.Config, v float64)
}

func AreaParam(values ...float64) Param {
	return Param{Name: "area", Values: values, Apply: func(c *sim.Config, v float64) { c.Area = v }}
}

func InflowParam(values ...float64) Param {
	return Param{Name: "inflow", Values: values, Apply: func(c *sim.Config, v float64) { c.Inflow = control.Constant(v) }}
}

func InitialLevelParam(values ...float64) Param {
	return Param{Name: "initial_level", Values: values, Apply: func(c *sim.Config, v float64) { c.InitialLevel = v }}
}

// Objective scores a successful trajectory; lower is better.
type Objective func(tr *dynamo.Trajectory) float64

// TargetLevel scores the distance of the final level from target.
func TargetLevel(target float64) Objective {
	return func(tr *dynamo.Trajectory) float64 {
		return math.Abs(metrics.Evaluate(tr, metrics.NewFinalLevel())["final_level"] - target)
	}
}

// MetricObjective scores a trajectory by a single metric.
func MetricObjective(m metrics.Metric) Objective {
	return func(tr *dynamo.Trajectory) float64 {
		return metrics.Evaluate(tr, m)[m.Name()]
	}
}

type Result struct {
	Best      map[string]float64
	Value     float64
	Evaluated int
	Failed    int
}

type GridSearch struct {
	params []Param
}

func NewGridSearch(params ...Param) *GridSearch {
	return &GridSearch{params: params}
}

// Search runs every combination of parameter values on top of base, in
// parallel, and returns the combination with the lowest objective. Failed
// runs and NaN scores are skipped. Ties keep the first combination.
func (g *GridSearch) Search(ctx context.Context, base sim.Config, objective Objective) (Result, error) {
	for _, p := range g.params {
		if len(p.Values) == 0 {
			return Result{}, fmt.Errorf("param %s: no values", p.Name)
		}
	}

	var combos []map[string]float64
	g.enumerate(0, map[string]float64{}, &combos)

	cfgs := make([]sim.Config, len(combos))
	for i, combo := range combos {
		c := base
		for _, p := range g.params {
			p.Apply(&c, combo[p.Name])
		}
		cfgs[i] = c
	}

	results, err := sim.Sweep(ctx, cfgs)
	if err != nil {
		return Result{}, err
	}

	res := Result{Value: math.Inf(1), Evaluated: len(results)}
	for i, tr := range results {
		if !tr.Success {
			res.Failed++
			continue
		}
		v := objective(tr)
		if math.IsNaN(v) {
			continue
		}
		if v < res.Value {
			res.Value = v
			res.Best = combos[i]
		}
	}
	if res.Best == nil {
		return res, ErrNoCandidate
	}
	return res, nil
}

func (g *GridSearch) enumerate(depth int, current map[string]float64, out *[]map[string]float64) {
	if depth == len(g.params) {
		combo := make(map[string]float64, len(current))
		for k, v := range current {
			combo[k] = v
		}
		*out = append(*out, combo)
		return
	}

	p := g.params[depth]
	for _, val := range p.Values {
		current[p.Name] = val
		g.enumerate(depth+1, current, out)
	}
	delete(current, p.Name)
}
