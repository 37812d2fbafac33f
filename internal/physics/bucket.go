package physics

import (
	"fmt"
	"strings"

	"github.com/san-kum/bucketsim/internal/control"
	"github.com/san-kum/bucketsim/internal/dynamo"
)

// DomainPolicy decides what Derive does with a negative level.
type DomainPolicy int

const (
	// ClampEmpty treats h < 0 as an empty tank: no outflow. The level is
	// held where it is, not restored to 0, so a drain that overshoots stays
	// slightly negative while the inflow is zero.
	ClampEmpty DomainPolicy = iota
	// Strict rejects h < 0 with an error wrapping dynamo.ErrDomain.
	Strict
)

func (p DomainPolicy) String() string {
	switch p {
	case ClampEmpty:
		return "clamp"
	case Strict:
		return "strict"
	default:
		return fmt.Sprintf("policy(%d)", int(p))
	}
}

func ParseDomainPolicy(s string) (DomainPolicy, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "clamp":
		return ClampEmpty, nil
	case "strict":
		return Strict, nil
	default:
		return 0, fmt.Errorf("unknown domain policy: %s", s)
	}
}

// Bucket is a leaking tank driven by an inflow signal:
//
//	dh/dt = (Qin(t) - sqrt(2*g*h)) / A
type Bucket struct {
	tank   *Tank
	inflow control.Input
	policy DomainPolicy
}

func NewBucket(tank *Tank, inflow control.Input, policy DomainPolicy) *Bucket {
	return &Bucket{tank: tank, inflow: inflow, policy: policy}
}

func (b *Bucket) StateDim() int { return 1 }

func (b *Bucket) Tank() *Tank { return b.tank }

func (b *Bucket) Policy() DomainPolicy { return b.policy }

// Rate returns dh/dt at (t, h).
func (b *Bucket) Rate(t, h float64) (float64, error) {
	qOut := 0.0
	if h >= 0 {
		qOut = Outflow(h)
	} else if b.policy == Strict {
		return 0, fmt.Errorf("level %g at t=%g: %w", h, t, dynamo.ErrDomain)
	}
	return (b.inflow.Evaluate(t) - qOut) / b.tank.area, nil
}

func (b *Bucket) Derive(t float64, x dynamo.State) (dynamo.State, error) {
	if len(x) != 1 {
		return nil, fmt.Errorf("bucket state has %d components: %w", len(x), dynamo.ErrDimensionMismatch)
	}
	dh, err := b.Rate(t, x[0])
	if err != nil {
		return nil, err
	}
	return dynamo.State{dh}, nil
}

func (b *Bucket) GetParams() map[string]float64 {
	return map[string]float64{
		"area":    b.tank.area,
		"gravity": Gravity,
	}
}
