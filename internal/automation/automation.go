package automation

import (
	"context"
	"fmt"
	"os"

	"go.uber.org/zap"
	"gopkg.in/yaml.v3"

	"github.com/san-kum/odelab/internal/analysis"
	"github.com/san-kum/odelab/internal/config"
	"github.com/san-kum/odelab/internal/dynamo"
	"github.com/san-kum/odelab/internal/experiment"
	"github.com/san-kum/odelab/internal/storage"
)

// Scenario is a scripted batch of experiments.
type Scenario struct {
	Name        string `yaml:"name"`
	Description string `yaml:"description"`
	Steps       []Step `yaml:"steps"`
}

// Step is one experiment in a scenario. Its configuration starts from the
// named preset, or from the defaults, and the remaining YAML keys of the
// step are applied on top. A step of kind "sweep" runs the configured
// parameter sweep instead of a single trajectory.
type Step struct {
	Name   string
	Preset string
	Sweep  bool
	Config *config.Config
}

func (s *Step) UnmarshalYAML(value *yaml.Node) error {
	var head struct {
		Name   string `yaml:"name"`
		Preset string `yaml:"preset"`
		System string `yaml:"system"`
		Kind   string `yaml:"kind"`
	}
	if err := value.Decode(&head); err != nil {
		return err
	}
	if head.Kind != "" && head.Kind != storage.KindRun && head.Kind != storage.KindSweep {
		return fmt.Errorf("line %d: unknown step kind %q", value.Line, head.Kind)
	}

	cfg := config.DefaultConfig()
	if head.Preset != "" {
		system := head.System
		if system == "" {
			system = config.DefaultSystem
		}
		cfg = config.GetPreset(system, head.Preset)
		if cfg == nil {
			return fmt.Errorf("line %d: unknown preset %q for %s", value.Line, head.Preset, system)
		}
	}
	if err := value.Decode(cfg); err != nil {
		return err
	}

	s.Name = head.Name
	if s.Name == "" {
		s.Name = cfg.System
	}
	s.Preset = head.Preset
	s.Sweep = head.Kind == storage.KindSweep
	s.Config = cfg
	return nil
}

func LoadScenario(path string) (*Scenario, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return ParseScenario(data)
}

func ParseScenario(data []byte) (*Scenario, error) {
	var scenario Scenario
	if err := yaml.Unmarshal(data, &scenario); err != nil {
		return nil, fmt.Errorf("scenario: %w", err)
	}
	if len(scenario.Steps) == 0 {
		return nil, dynamo.Configf("steps", "scenario %q has no steps", scenario.Name)
	}
	return &scenario, nil
}

// Outcome records what a step produced. RunID is empty when nothing was
// stored.
type Outcome struct {
	Step    string
	Kind    string
	RunID   string
	Samples int
	Points  int
}

// Runner executes scenarios against a registry, optionally persisting each
// step in a store.
type Runner struct {
	reg    *experiment.Registry
	store  *storage.Store
	logger *zap.Logger
}

func NewRunner(reg *experiment.Registry, store *storage.Store, logger *zap.Logger) *Runner {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Runner{reg: reg, store: store, logger: logger}
}

// Run executes the steps in order and stops at the first failure, returning
// the outcomes of the steps that completed.
func (r *Runner) Run(ctx context.Context, scenario *Scenario) ([]Outcome, error) {
	outcomes := make([]Outcome, 0, len(scenario.Steps))
	for i, step := range scenario.Steps {
		r.logger.Info("scenario step",
			zap.String("scenario", scenario.Name),
			zap.Int("index", i+1),
			zap.Int("total", len(scenario.Steps)),
			zap.String("step", step.Name))

		exp, err := experiment.New(r.reg, step.Config)
		if err != nil {
			return outcomes, fmt.Errorf("step %d (%s): %w", i+1, step.Name, err)
		}

		var out Outcome
		if step.Sweep {
			out, err = r.sweep(ctx, exp)
		} else {
			out, err = r.run(ctx, exp)
		}
		if err != nil {
			return outcomes, fmt.Errorf("step %d (%s): %w", i+1, step.Name, err)
		}
		out.Step = step.Name
		outcomes = append(outcomes, out)
	}
	return outcomes, nil
}

func (r *Runner) run(ctx context.Context, exp *experiment.Experiment) (Outcome, error) {
	result, err := exp.Run(ctx)
	if err != nil {
		return Outcome{}, err
	}
	out := Outcome{Kind: storage.KindRun, Samples: result.Len()}
	if r.store == nil {
		return out, nil
	}

	meta := Metadata(exp)
	if meta.Summary, err = Summaries(result, exp.System().Vars, exp.Settings().Transient); err != nil {
		return out, err
	}
	out.RunID, err = r.store.Save(meta, result)
	return out, err
}

func (r *Runner) sweep(ctx context.Context, exp *experiment.Experiment) (Outcome, error) {
	spec, err := exp.SweepSpec()
	if err != nil {
		return Outcome{}, err
	}
	points, err := exp.Sweep(ctx)
	if err != nil {
		return Outcome{}, err
	}
	out := Outcome{Kind: storage.KindSweep, Points: len(points)}
	if r.store == nil {
		return out, nil
	}

	meta := SweepMetadata(exp, spec)
	out.RunID, err = r.store.SaveSweep(meta, points)
	return out, err
}

// Metadata describes a trajectory run of exp for storage.
func Metadata(exp *experiment.Experiment) storage.RunMetadata {
	sys := exp.System()
	sp := exp.Settings()
	return storage.RunMetadata{
		System:     sys.Name,
		Integrator: exp.Config().Integrator,
		Vars:       sys.Vars,
		Params:     exp.Params(),
		Initial:    sp.InitialConditions,
		TStart:     sp.TStart,
		TEnd:       sp.TEnd,
		Step:       sp.StepSize,
		Transient:  sp.Transient,
	}
}

// SweepMetadata is Metadata plus the sweep range.
func SweepMetadata(exp *experiment.Experiment, spec analysis.SweepSpec) storage.RunMetadata {
	meta := Metadata(exp)
	meta.Sweep = &storage.SweepInfo{
		Param:     spec.Param,
		Min:       spec.Min,
		Max:       spec.Max,
		Steps:     spec.Steps,
		Observe:   exp.System().Vars[spec.Observe],
		Transient: spec.Transient,
	}
	return meta
}

// Summaries computes per-variable statistics after dropping the transient.
func Summaries(r *dynamo.Result, vars []string, transient float64) (map[string]analysis.Summary, error) {
	trimmed := analysis.TrimTransient(r, transient)
	out := make(map[string]analysis.Summary, len(vars))
	for j, name := range vars {
		s, err := analysis.Summarize(trimmed.Series[j])
		if err != nil {
			return nil, fmt.Errorf("%s: %w", name, err)
		}
		out[name] = s
	}
	return out, nil
}
