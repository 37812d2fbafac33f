package physics

import (
	"fmt"
	"math"

	"github.com/san-kum/bucketsim/internal/dynamo"
)

// Gravity is the gravitational acceleration used by the outflow law.
const Gravity = 9.8

const DefaultArea = 5.0

// Tank is a vessel with a fixed cross-sectional area.
type Tank struct {
	area float64
}

func NewTank(area float64) (*Tank, error) {
	if math.IsNaN(area) || math.IsInf(area, 0) || area <= 0 {
		return nil, &dynamo.ConfigError{
			Field:  "area",
			Value:  fmt.Sprintf("%g", area),
			Reason: "cross-sectional area must be positive and finite",
		}
	}
	return &Tank{area: area}, nil
}

func (t *Tank) Area() float64 { return t.area }

// Outflow is Torricelli's law: sqrt(2*g*h).
func Outflow(h float64) float64 {
	return math.Sqrt(2 * Gravity * h)
}

// Equilibrium returns the level at which a constant inflow q balances outflow.
func Equilibrium(q float64) float64 {
	return q * q / (2 * Gravity)
}

// DrainTime is the time an unfed tank of the given area takes to empty from h0.
func DrainTime(area, h0 float64) float64 {
	return 2 * area * math.Sqrt(h0) / math.Sqrt(2*Gravity)
}
