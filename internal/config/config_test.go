package config

import (
	"errors"
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	"github.com/san-kum/bucketsim/internal/control"
	"github.com/san-kum/bucketsim/internal/dynamo"
	"github.com/san-kum/bucketsim/internal/physics"
)

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()

	if cfg.Area != 5 {
		t.Errorf("expected area 5, got %f", cfg.Area)
	}
	if cfg.MaxStep <= 0 {
		t.Error("max step should be positive")
	}

	sc, err := cfg.SimConfig()
	if err != nil {
		t.Fatalf("default config rejected: %v", err)
	}
	if sc.Solver.Name() != "rk45" {
		t.Errorf("expected rk45, got %s", sc.Solver.Name())
	}
	if sc.Inflow.Evaluate(3) != 10 {
		t.Errorf("expected constant inflow 10, got %f", sc.Inflow.Evaluate(3))
	}
	if sc.Span != (dynamo.Span{Start: 0, End: 20}) {
		t.Errorf("unexpected span %+v", sc.Span)
	}
}

func TestLoadOverlaysDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "run.yaml")
	data := []byte(`
area: 2.5
time_span: [0, 50]
policy: strict
inflow:
  kind: step
  before: 3
  after: 8
  at: 12
`)
	if err := os.WriteFile(path, data, 0644); err != nil {
		t.Fatal(err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatal(err)
	}
	if cfg.Area != 2.5 {
		t.Errorf("expected area 2.5, got %f", cfg.Area)
	}
	if cfg.MaxStep != 0.01 {
		t.Errorf("expected default max step, got %f", cfg.MaxStep)
	}

	sc, err := cfg.SimConfig()
	if err != nil {
		t.Fatal(err)
	}
	if sc.Policy != physics.Strict {
		t.Errorf("expected strict policy, got %s", sc.Policy)
	}
	if sc.Span.End != 50 {
		t.Errorf("expected end 50, got %f", sc.Span.End)
	}
	if sc.Inflow.Evaluate(11) != 3 || sc.Inflow.Evaluate(12) != 8 {
		t.Errorf("step inflow not wired: %v", sc.Inflow)
	}
}

func TestSaveLoadRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "refill.yaml")
	want := GetPreset("refill")
	if err := Save(path, want); err != nil {
		t.Fatal(err)
	}
	got, err := Load(path)
	if err != nil {
		t.Fatal(err)
	}
	if len(got.Inflow.Points) != 3 || got.Inflow.Points[1] != (control.Breakpoint{At: 10, Flow: 0}) {
		t.Errorf("schedule lost in round trip: %+v", got.Inflow.Points)
	}
}

func TestSimConfigErrors(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
		field  string
	}{
		{"zero area", func(c *Config) { c.Area = 0 }, "area"},
		{"short span", func(c *Config) { c.TimeSpan = []float64{1} }, "time_span"},
		{"reversed span", func(c *Config) { c.TimeSpan = []float64{5, 1} }, "time_span"},
		{"unknown inflow", func(c *Config) { c.Inflow.Kind = "tidal" }, "inflow.kind"},
		{"empty schedule", func(c *Config) { c.Inflow = InflowConfig{Kind: InflowSchedule} }, "inflow.points"},
		{"unknown solver", func(c *Config) { c.Solver = "bdf" }, "solver"},
		{"unknown policy", func(c *Config) { c.Policy = "wrap" }, "policy"},
		{"negative level", func(c *Config) { c.InitialLevel = -1 }, "initial_level"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tt.mutate(cfg)
			_, err := cfg.SimConfig()
			if !errors.Is(err, dynamo.ErrConfiguration) {
				t.Fatalf("expected configuration error, got %v", err)
			}
			var ce *dynamo.ConfigError
			if !errors.As(err, &ce) || ce.Field != tt.field {
				t.Errorf("expected field %s, got %v", tt.field, err)
			}
		})
	}
}

func TestPresets(t *testing.T) {
	names := ListPresets()
	for _, want := range []string{"baseline", "drain", "long", "pulse", "step"} {
		if GetPreset(want) == nil {
			t.Errorf("missing preset %s", want)
		}
	}
	for _, name := range names {
		if _, err := GetPreset(name).SimConfig(); err != nil {
			t.Errorf("preset %s: %v", name, err)
		}
	}
	if GetPreset("nonexistent") != nil {
		t.Error("expected nil for nonexistent preset")
	}
}

func TestGetPresetReturnsCopy(t *testing.T) {
	cfg := GetPreset("baseline")
	cfg.Area = 99
	cfg.TimeSpan[1] = 1
	if Presets["baseline"].Area != 5 || Presets["baseline"].TimeSpan[1] != 20 {
		t.Error("preset mutated through GetPreset")
	}
}

func TestLoadSettings(t *testing.T) {
	t.Setenv("BUCKETSIM_DATA", "/tmp/runs")
	t.Setenv("BUCKETSIM_LOG_LEVEL", "debug")

	s, err := LoadSettings()
	if err != nil {
		t.Fatal(err)
	}
	if s.DataDir != "/tmp/runs" {
		t.Errorf("expected data dir from env, got %s", s.DataDir)
	}
	if s.LogFormat != "text" {
		t.Errorf("expected default format text, got %s", s.LogFormat)
	}
	if s.Level() != slog.LevelDebug {
		t.Errorf("expected debug level, got %v", s.Level())
	}

	t.Setenv("BUCKETSIM_LOG_FORMAT", "xml")
	if _, err := LoadSettings(); err == nil {
		t.Error("expected error for unknown log format")
	}
}
