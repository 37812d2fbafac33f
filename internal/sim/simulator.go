package sim

import (
	"fmt"
	"math"

	"github.com/san-kum/bucketsim/internal/dynamo"
	"github.com/san-kum/bucketsim/internal/integrators"
	"github.com/san-kum/bucketsim/internal/physics"
)

// Validate reports the first rejected setting as a *dynamo.ConfigError.
func (c Config) Validate() error {
	if _, err := physics.NewTank(c.Area); err != nil {
		return err
	}
	if c.Inflow == nil {
		return &dynamo.ConfigError{Field: "inflow", Value: "<nil>", Reason: "an inflow signal is required"}
	}
	if math.IsNaN(c.InitialLevel) || math.IsInf(c.InitialLevel, 0) || c.InitialLevel < 0 {
		return &dynamo.ConfigError{Field: "initial_level", Value: fmt.Sprintf("%g", c.InitialLevel), Reason: "must be finite and non-negative"}
	}
	if err := c.Span.Validate(); err != nil {
		return err
	}
	if math.IsNaN(c.MaxStep) || c.MaxStep <= 0 {
		return &dynamo.ConfigError{Field: "max_step", Value: fmt.Sprintf("%g", c.MaxStep), Reason: "must be positive"}
	}
	if c.RelTol < 0 || c.AbsTol < 0 {
		return &dynamo.ConfigError{Field: "tolerance", Value: fmt.Sprintf("rel=%g abs=%g", c.RelTol, c.AbsTol), Reason: "must not be negative"}
	}
	return nil
}

// System builds the plant model for c.
func (c Config) System() (*physics.Bucket, error) {
	tank, err := physics.NewTank(c.Area)
	if err != nil {
		return nil, err
	}
	return physics.NewBucket(tank, c.Inflow, c.Policy), nil
}

// Run integrates the tank level over c.Span. The error is non-nil only for
// configuration problems, detected before any integration; numerical
// failure is reported by the trajectory's Success and Status fields.
func Run(c Config) (*dynamo.Trajectory, error) {
	if err := c.Validate(); err != nil {
		return nil, err
	}

	bucket, err := c.System()
	if err != nil {
		return nil, err
	}

	solver := c.Solver
	if solver == nil {
		solver = integrators.NewRK45()
	}

	return solver.Solve(bucket, dynamo.State{c.InitialLevel}, c.Span, c.Options()), nil
}
