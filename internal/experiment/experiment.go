package experiment

import (
	"context"
	"fmt"
	"math"

	"github.com/san-kum/odelab/internal/analysis"
	"github.com/san-kum/odelab/internal/config"
	"github.com/san-kum/odelab/internal/dynamo"
	"github.com/san-kum/odelab/internal/integrators"
	"github.com/san-kum/odelab/internal/metrics"
	"github.com/san-kum/odelab/internal/sim"
	"github.com/san-kum/odelab/internal/systems"
)

const (
	// DefaultPerturbation is the initial separation used for Lyapunov estimates.
	DefaultPerturbation = 1e-8
	// DivergenceBound is the magnitude past which a sample counts as unstable.
	DivergenceBound = 1e6
)

// Experiment is a config resolved against a registry: a concrete system,
// merged parameters, run settings and a stepper factory.
type Experiment struct {
	cfg        *config.Config
	system     systems.System
	params     dynamo.Params
	settings   dynamo.SimulationParams
	newStepper integrators.Factory
}

func New(reg *Registry, cfg *config.Config) (*Experiment, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	sys, err := reg.GetSystem(cfg.System)
	if err != nil {
		return nil, dynamo.Configf("system", "%v", err)
	}
	newStepper, err := reg.GetIntegrator(cfg.Integrator)
	if err != nil {
		return nil, dynamo.Configf("integrator", "%v", err)
	}

	params := sys.Params.Clone()
	for name, v := range cfg.Params {
		if _, ok := params[name]; !ok {
			return nil, dynamo.Configf("params", "system %s has no parameter %q", sys.Name, name)
		}
		params[name] = v
	}

	settings := cfg.ToSimulationParams(sys.Initial)
	if len(settings.InitialConditions) != sys.Dim() {
		return nil, dynamo.Configf("initial", "system %s needs %d values, got %d",
			sys.Name, sys.Dim(), len(settings.InitialConditions))
	}

	return &Experiment{
		cfg:        cfg,
		system:     sys,
		params:     params,
		settings:   settings,
		newStepper: newStepper,
	}, nil
}

func (e *Experiment) System() systems.System             { return e.system }
func (e *Experiment) Params() dynamo.Params               { return e.params.Clone() }
func (e *Experiment) Settings() dynamo.SimulationParams   { return e.settings }
func (e *Experiment) Config() *config.Config              { return e.cfg }
func (e *Experiment) StepperFactory() integrators.Factory { return e.newStepper }

func (e *Experiment) Run(ctx context.Context, observers ...dynamo.Observer) (*dynamo.Result, error) {
	s := sim.New(e.newStepper())
	for _, o := range observers {
		s.AddObserver(o)
	}
	return s.Run(ctx, e.system.Derive, e.settings, e.params)
}

// Metrics returns fresh observers for a run of this experiment. Stability is
// always present; mean energy and energy drift need a system energy.
func (e *Experiment) Metrics() []metrics.Metric {
	ms := []metrics.Metric{metrics.NewStability(DivergenceBound)}
	if fn := e.energyFunc(); fn != nil {
		ms = append(ms, metrics.NewEnergy(fn), metrics.NewEnergyDrift(fn))
	}
	return ms
}

func (e *Experiment) energyFunc() metrics.EnergyFunc {
	if e.system.Energy == nil {
		return nil
	}
	energy, params := e.system.Energy, e.params
	return func(y dynamo.State) float64 { return energy(y, params) }
}

// RunEnsemble integrates n copies whose first variable is offset by
// multiples of spread. Results come back in offset order.
func (e *Experiment) RunEnsemble(ctx context.Context, n int, spread float64) ([]*dynamo.Result, error) {
	if n <= 0 {
		return nil, dynamo.Configf("ensemble size", "must be positive, got %d", n)
	}
	starts := make([]dynamo.State, n)
	for i := range starts {
		x0 := e.settings.InitialConditions.Clone()
		x0[0] += float64(i) * spread
		starts[i] = x0
	}
	return sim.NewEnsemble(e.newStepper, e.cfg.Sweep.Workers).Run(ctx, e.system.Derive, e.settings, e.params, starts)
}

// Axes resolves the display variables. Unset names fall back to the first
// two variables.
func (e *Experiment) Axes() (int, int, error) {
	x, y := 0, 1
	if e.system.Dim() < 2 {
		y = 0
	}
	var err error
	if name := e.cfg.Display.X; name != "" {
		if x, err = e.system.VarIndex(name); err != nil {
			return 0, 0, dynamo.Configf("display.x", "%v", err)
		}
	}
	if name := e.cfg.Display.Y; name != "" {
		if y, err = e.system.VarIndex(name); err != nil {
			return 0, 0, dynamo.Configf("display.y", "%v", err)
		}
	}
	return x, y, nil
}

// PhasePortrait trims the transient and downsamples r on the display axes.
func (e *Experiment) PhasePortrait(r *dynamo.Result) (*analysis.PhasePortrait2D, error) {
	x, y, err := e.Axes()
	if err != nil {
		return nil, err
	}
	return analysis.GeneratePhasePortrait(r, x, y, e.settings.Transient, e.cfg.Display.MaxPoints)
}

// SweepSpec resolves the sweep section against the system.
func (e *Experiment) SweepSpec() (analysis.SweepSpec, error) {
	if err := e.cfg.ValidateSweep(); err != nil {
		return analysis.SweepSpec{}, err
	}
	if _, ok := e.params[e.cfg.Sweep.Param]; !ok {
		return analysis.SweepSpec{}, dynamo.Configf("sweep.param", "system %s has no parameter %q",
			e.system.Name, e.cfg.Sweep.Param)
	}
	observe := 0
	if name := e.cfg.Sweep.Observe; name != "" {
		idx, err := e.system.VarIndex(name)
		if err != nil {
			return analysis.SweepSpec{}, dynamo.Configf("sweep.observe", "%v", err)
		}
		observe = idx
	}
	return e.cfg.ToSweepSpec(observe), nil
}

// Sweep runs the configured bifurcation sweep. Extra options are applied
// after the ones derived from the config.
func (e *Experiment) Sweep(ctx context.Context, opts ...analysis.SweepOption) ([]analysis.BifurcationPoint, error) {
	spec, err := e.SweepSpec()
	if err != nil {
		return nil, err
	}
	all := []analysis.SweepOption{analysis.WithStepper(e.newStepper)}
	if e.cfg.Sweep.Workers > 0 {
		all = append(all, analysis.WithWorkers(e.cfg.Sweep.Workers))
	}
	all = append(all, opts...)
	return analysis.SweepParameter(ctx, e.system.Derive, e.params, spec, e.settings, all...)
}

func (e *Experiment) Lyapunov(ctx context.Context) (float64, error) {
	return analysis.LyapunovExponent(ctx, e.newStepper(), e.system.Derive, e.params, e.settings, DefaultPerturbation)
}

// Comparison is the error of one integrator against a fine-step reference.
// EnergyDrift is NaN for systems without an energy function.
type Comparison struct {
	Integrator  string
	MaxError    float64
	FinalError  float64
	EnergyDrift float64
}

// Compare integrates with every named stepper at the configured step and
// measures the deviation from an RK4 run at a tenth of that step, sampled on
// the shared time grid.
func (e *Experiment) Compare(ctx context.Context, reg *Registry, names []string) ([]Comparison, error) {
	const refine = 10

	fine := e.settings
	fine.StepSize = e.settings.StepSize / refine
	ref, err := sim.New(integrators.NewRK4()).Run(ctx, e.system.Derive, fine, e.params)
	if err != nil {
		return nil, fmt.Errorf("reference run: %w", err)
	}

	out := make([]Comparison, 0, len(names))
	for _, name := range names {
		factory, err := reg.GetIntegrator(name)
		if err != nil {
			return nil, dynamo.Configf("integrator", "%v", err)
		}
		s := sim.New(factory())
		var drift *metrics.EnergyDrift
		if fn := e.energyFunc(); fn != nil {
			drift = metrics.NewEnergyDrift(fn)
			s.AddObserver(drift)
		}
		res, err := s.Run(ctx, e.system.Derive, e.settings, e.params)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", name, err)
		}

		c := Comparison{Integrator: name, EnergyDrift: math.NaN()}
		if drift != nil {
			c.EnergyDrift = drift.Value()
		}
		for i := 0; i < res.Len() && i*refine < ref.Len(); i++ {
			d := res.State(i).Sub(ref.State(i * refine)).Norm()
			c.MaxError = math.Max(c.MaxError, d)
			c.FinalError = d
		}
		out = append(out, c)
	}
	return out, nil
}
