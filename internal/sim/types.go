package sim

import (
	"github.com/san-kum/bucketsim/internal/control"
	"github.com/san-kum/bucketsim/internal/dynamo"
	"github.com/san-kum/bucketsim/internal/physics"
)

const (
	DefaultArea         = physics.DefaultArea
	DefaultInflow       = 10.0
	DefaultInitialLevel = 0.0
	DefaultStart        = 0.0
	DefaultEnd          = 20.0
	DefaultMaxStep      = 0.01
)

// Config is one leaking-tank run.
type Config struct {
	Area         float64
	Inflow       control.Input
	InitialLevel float64
	Span         dynamo.Span
	MaxStep      float64
	RelTol       float64
	AbsTol       float64

	// Solver defaults to integrators.RK45 when nil.
	Solver dynamo.Solver
	Policy physics.DomainPolicy
}

// DefaultConfig is the baseline scenario: A=5, Qin=10, h(0)=0 over [0, 20].
func DefaultConfig() Config {
	return Config{
		Area:         DefaultArea,
		Inflow:       control.Constant(DefaultInflow),
		InitialLevel: DefaultInitialLevel,
		Span:         dynamo.Span{Start: DefaultStart, End: DefaultEnd},
		MaxStep:      DefaultMaxStep,
		Policy:       physics.ClampEmpty,
	}
}

func (c Config) Options() dynamo.Options {
	return dynamo.Options{
		MaxStep: c.MaxStep,
		RelTol:  c.RelTol,
		AbsTol:  c.AbsTol,
	}
}
