package config

import (
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/san-kum/bucketsim/internal/control"
	"github.com/san-kum/bucketsim/internal/dynamo"
	"github.com/san-kum/bucketsim/internal/integrators"
	"github.com/san-kum/bucketsim/internal/physics"
	"github.com/san-kum/bucketsim/internal/sim"
)

const (
	InflowConstant = "constant"
	InflowStep     = "step"
	InflowRamp     = "ramp"
	InflowSinusoid = "sinusoid"
	InflowSchedule = "schedule"
)

// Config is the file form of a run.
type Config struct {
	Area         float64      `yaml:"area"`
	InitialLevel float64      `yaml:"initial_level"`
	TimeSpan     []float64    `yaml:"time_span,flow"`
	MaxStep      float64      `yaml:"max_step"`
	RelTol       float64      `yaml:"rel_tol,omitempty"`
	AbsTol       float64      `yaml:"abs_tol,omitempty"`
	Solver       string       `yaml:"solver"`
	Policy       string       `yaml:"policy"`
	Inflow       InflowConfig `yaml:"inflow"`
}

// InflowConfig selects and parameterises the inflow signal. Value is the
// constant flow, the ramp start or the sinusoid offset depending on Kind.
type InflowConfig struct {
	Kind      string               `yaml:"kind"`
	Value     float64              `yaml:"value,omitempty"`
	Before    float64              `yaml:"before,omitempty"`
	After     float64              `yaml:"after,omitempty"`
	At        float64              `yaml:"at,omitempty"`
	Slope     float64              `yaml:"slope,omitempty"`
	Amplitude float64              `yaml:"amplitude,omitempty"`
	Period    float64              `yaml:"period,omitempty"`
	Points    []control.Breakpoint `yaml:"points,omitempty"`
}

func DefaultConfig() *Config {
	return &Config{
		Area:         sim.DefaultArea,
		InitialLevel: sim.DefaultInitialLevel,
		TimeSpan:     []float64{sim.DefaultStart, sim.DefaultEnd},
		MaxStep:      sim.DefaultMaxStep,
		Solver:       integrators.Default,
		Policy:       physics.ClampEmpty.String(),
		Inflow:       InflowConfig{Kind: InflowConstant, Value: sim.DefaultInflow},
	}
}

// Load reads a YAML file over the defaults.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	cfg := DefaultConfig()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}
	return cfg, nil
}

func Save(path string, cfg *Config) error {
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0644)
}

func (c *Config) Clone() *Config {
	out := *c
	out.TimeSpan = append([]float64(nil), c.TimeSpan...)
	out.Inflow.Points = append([]control.Breakpoint(nil), c.Inflow.Points...)
	return &out
}

func (c *Config) Span() (dynamo.Span, error) {
	if len(c.TimeSpan) != 2 {
		return dynamo.Span{}, &dynamo.ConfigError{
			Field:  "time_span",
			Value:  fmt.Sprint(c.TimeSpan),
			Reason: "must be [start, end]",
		}
	}
	span := dynamo.Span{Start: c.TimeSpan[0], End: c.TimeSpan[1]}
	return span, span.Validate()
}

func (c *Config) Input() (control.Input, error) {
	in := c.Inflow
	switch strings.ToLower(strings.TrimSpace(in.Kind)) {
	case "", InflowConstant:
		return control.Constant(in.Value), nil
	case InflowStep:
		return control.Step{Before: in.Before, After: in.After, At: in.At}, nil
	case InflowRamp:
		return control.Ramp{Start: in.Value, Slope: in.Slope}, nil
	case InflowSinusoid:
		return control.Sinusoid{Offset: in.Value, Amplitude: in.Amplitude, Period: in.Period}, nil
	case InflowSchedule:
		s, err := control.NewSchedule(in.Points)
		if err != nil {
			return nil, &dynamo.ConfigError{Field: "inflow.points", Value: fmt.Sprint(len(in.Points)), Reason: err.Error()}
		}
		return s, nil
	default:
		return nil, &dynamo.ConfigError{Field: "inflow.kind", Value: in.Kind, Reason: "unknown inflow kind"}
	}
}

// SimConfig builds the run described by c. The result is validated.
func (c *Config) SimConfig() (sim.Config, error) {
	span, err := c.Span()
	if err != nil {
		return sim.Config{}, err
	}
	input, err := c.Input()
	if err != nil {
		return sim.Config{}, err
	}
	solver, err := integrators.New(c.Solver)
	if err != nil {
		return sim.Config{}, &dynamo.ConfigError{Field: "solver", Value: c.Solver, Reason: err.Error()}
	}
	policy, err := physics.ParseDomainPolicy(c.Policy)
	if err != nil {
		return sim.Config{}, &dynamo.ConfigError{Field: "policy", Value: c.Policy, Reason: err.Error()}
	}

	sc := sim.Config{
		Area:         c.Area,
		Inflow:       input,
		InitialLevel: c.InitialLevel,
		Span:         span,
		MaxStep:      c.MaxStep,
		RelTol:       c.RelTol,
		AbsTol:       c.AbsTol,
		Solver:       solver,
		Policy:       policy,
	}
	if err := sc.Validate(); err != nil {
		return sim.Config{}, err
	}
	return sc, nil
}

// Params flattens c for run metadata.
func (c *Config) Params() map[string]float64 {
	p := map[string]float64{
		"area":          c.Area,
		"initial_level": c.InitialLevel,
		"max_step":      c.MaxStep,
	}
	if len(c.TimeSpan) == 2 {
		p["t0"], p["t1"] = c.TimeSpan[0], c.TimeSpan[1]
	}
	if c.RelTol > 0 {
		p["rel_tol"] = c.RelTol
	}
	if c.AbsTol > 0 {
		p["abs_tol"] = c.AbsTol
	}
	return p
}
