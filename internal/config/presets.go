package config

import (
	"sort"

	"github.com/san-kum/bucketsim/internal/control"
)

var Presets = map[string]*Config{
	"baseline": {
		Area: 5, InitialLevel: 0, TimeSpan: []float64{0, 20}, MaxStep: 0.01,
		Solver: "rk45", Policy: "clamp",
		Inflow: InflowConfig{Kind: InflowConstant, Value: 10},
	},
	"long": {
		Area: 5, InitialLevel: 0, TimeSpan: []float64{0, 100}, MaxStep: 0.05,
		Solver: "rk45", Policy: "clamp",
		Inflow: InflowConfig{Kind: InflowConstant, Value: 10},
	},
	"drain": {
		Area: 5, InitialLevel: 4, TimeSpan: []float64{0, 20}, MaxStep: 0.01,
		Solver: "rk45", Policy: "clamp",
		Inflow: InflowConfig{Kind: InflowConstant, Value: 0},
	},
	"step": {
		Area: 5, InitialLevel: 0, TimeSpan: []float64{0, 60}, MaxStep: 0.05,
		Solver: "rk45", Policy: "clamp",
		Inflow: InflowConfig{Kind: InflowStep, Before: 4, After: 10, At: 10},
	},
	"pulse": {
		Area: 5, InitialLevel: 0, TimeSpan: []float64{0, 60}, MaxStep: 0.05,
		Solver: "rk45", Policy: "clamp",
		Inflow: InflowConfig{Kind: InflowSinusoid, Value: 10, Amplitude: 5, Period: 15},
	},
	"refill": {
		Area: 5, InitialLevel: 2, TimeSpan: []float64{0, 40}, MaxStep: 0.05,
		Solver: "rk45", Policy: "clamp",
		Inflow: InflowConfig{Kind: InflowSchedule, Points: []control.Breakpoint{
			{At: 0, Flow: 10}, {At: 10, Flow: 0}, {At: 25, Flow: 6},
		}},
	},
}

// GetPreset returns a copy of the named preset, or nil.
func GetPreset(name string) *Config {
	cfg, ok := Presets[name]
	if !ok {
		return nil
	}
	return cfg.Clone()
}

func ListPresets() []string {
	names := make([]string, 0, len(Presets))
	for name := range Presets {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
