package config

import (
	"os"

	"gopkg.in/yaml.v3"

	"github.com/san-kum/odelab/internal/analysis"
	"github.com/san-kum/odelab/internal/dynamo"
)

const (
	DefaultSystem         = "lorenz"
	DefaultIntegrator     = "rk4"
	DefaultStep           = 0.01
	DefaultDuration       = 50.0
	DefaultMaxPoints      = 2000
	DefaultSweepSteps     = 100
	DefaultSweepTransient = 100.0
	DefaultMaxSteps       = 5_000_000
	DefaultMaxSweepSteps  = 2_000
)

type Config struct {
	System     string             `yaml:"system"`
	Integrator string             `yaml:"integrator"`
	Params     map[string]float64 `yaml:"params,omitempty"`
	Initial    []float64          `yaml:"initial,omitempty"`
	TStart     float64            `yaml:"t_start"`
	TEnd       float64            `yaml:"t_end"`
	Step       float64            `yaml:"step"`
	Transient  float64            `yaml:"transient"`
	Display    DisplayConfig      `yaml:"display"`
	Sweep      SweepConfig        `yaml:"sweep"`
	Limits     Limits             `yaml:"limits"`
}

// DisplayConfig selects the phase-portrait axes by variable name.
type DisplayConfig struct {
	X         string `yaml:"x,omitempty"`
	Y         string `yaml:"y,omitempty"`
	MaxPoints int    `yaml:"max_points"`
}

type SweepConfig struct {
	Param   string  `yaml:"param,omitempty"`
	Min     float64 `yaml:"min"`
	Max     float64 `yaml:"max"`
	Steps   int     `yaml:"steps"`
	Observe string  `yaml:"observe,omitempty"`
	// Transient applies to every sweep run, separately from the top-level
	// transient used by time-series and phase views.
	Transient float64 `yaml:"transient"`
	Workers   int     `yaml:"workers,omitempty"`
}

// Limits caps the work a single command may request.
type Limits struct {
	MaxSteps      int `yaml:"max_steps"`
	MaxSweepSteps int `yaml:"max_sweep_steps"`
}

func DefaultConfig() *Config {
	return &Config{
		System:     DefaultSystem,
		Integrator: DefaultIntegrator,
		TEnd:       DefaultDuration,
		Step:       DefaultStep,
		Display: DisplayConfig{
			MaxPoints: DefaultMaxPoints,
		},
		Sweep: SweepConfig{
			Steps:     DefaultSweepSteps,
			Transient: DefaultSweepTransient,
		},
		Limits: Limits{
			MaxSteps:      DefaultMaxSteps,
			MaxSweepSteps: DefaultMaxSweepSteps,
		},
	}
}

func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	cfg := DefaultConfig()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, err
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

// Clone returns a deep copy so presets can be tweaked safely.
func (c *Config) Clone() *Config {
	out := *c
	if c.Params != nil {
		out.Params = make(map[string]float64, len(c.Params))
		for k, v := range c.Params {
			out.Params[k] = v
		}
	}
	if c.Initial != nil {
		out.Initial = append([]float64(nil), c.Initial...)
	}
	return &out
}

// Validate checks the settings that do not depend on the chosen system and
// enforces the resource limits.
func (c *Config) Validate() error {
	if c.System == "" {
		return dynamo.Configf("system", "must be set")
	}
	sp := dynamo.SimulationParams{
		InitialConditions: dynamo.State{0},
		TStart:            c.TStart,
		TEnd:              c.TEnd,
		StepSize:          c.Step,
		Transient:         c.Transient,
	}
	if err := sp.Validate(); err != nil {
		return err
	}
	if n := sp.StepCount(); c.Limits.MaxSteps > 0 && n > float64(c.Limits.MaxSteps) {
		return dynamo.Configf("step size", "%.0f steps exceed the limit of %d", n, c.Limits.MaxSteps)
	}
	if c.Display.MaxPoints < 0 {
		return dynamo.Configf("display.max_points", "must be non-negative, got %d", c.Display.MaxPoints)
	}
	return nil
}

// ValidateSweep checks the sweep section on top of Validate.
func (c *Config) ValidateSweep() error {
	if err := c.Validate(); err != nil {
		return err
	}
	s := c.Sweep
	if s.Param == "" {
		return dynamo.Configf("sweep.param", "must be set")
	}
	if s.Steps < 0 {
		return dynamo.Configf("sweep.steps", "must be non-negative, got %d", s.Steps)
	}
	if s.Min > s.Max {
		return dynamo.Configf("sweep range", "min %g exceeds max %g", s.Min, s.Max)
	}
	if s.Transient < 0 {
		return dynamo.Configf("sweep.transient", "must be non-negative, got %g", s.Transient)
	}
	if c.Limits.MaxSweepSteps > 0 && s.Steps > c.Limits.MaxSweepSteps {
		return dynamo.Configf("sweep.steps", "%d exceeds the limit of %d", s.Steps, c.Limits.MaxSweepSteps)
	}
	return nil
}

// ToSimulationParams builds run settings. Initial conditions from the file
// win over the system defaults passed in.
func (c *Config) ToSimulationParams(defaults dynamo.State) dynamo.SimulationParams {
	x0 := defaults
	if len(c.Initial) > 0 {
		x0 = c.Initial
	}
	return dynamo.SimulationParams{
		InitialConditions: x0.Clone(),
		TStart:            c.TStart,
		TEnd:              c.TEnd,
		StepSize:          c.Step,
		Transient:         c.Transient,
	}
}

func (c *Config) ToSweepSpec(observe int) analysis.SweepSpec {
	return analysis.SweepSpec{
		Param:     c.Sweep.Param,
		Min:       c.Sweep.Min,
		Max:       c.Sweep.Max,
		Steps:     c.Sweep.Steps,
		Observe:   observe,
		Transient: c.Sweep.Transient,
	}
}
