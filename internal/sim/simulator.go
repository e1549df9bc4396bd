package sim

import (
	"context"
	"errors"
	"fmt"

	"github.com/san-kum/odelab/internal/dynamo"
	"github.com/san-kum/odelab/internal/integrators"
)

// cancelCheckInterval is how many steps run between context checks.
const cancelCheckInterval = 1024

// maxPrealloc caps the samples reserved up front; longer runs grow by append.
const maxPrealloc = 1 << 20

type Simulator struct {
	stepper   dynamo.Stepper
	observers []dynamo.Observer
}

func New(stepper dynamo.Stepper) *Simulator {
	return &Simulator{
		stepper:   stepper,
		observers: make([]dynamo.Observer, 0),
	}
}

func (s *Simulator) AddObserver(o dynamo.Observer) { s.observers = append(s.observers, o) }

// Run integrates f from sp.TStart with a fixed step and returns every
// sample, the initial one included. On error no partial result is returned.
func (s *Simulator) Run(ctx context.Context, f dynamo.DerivativeFunc, sp dynamo.SimulationParams, p dynamo.Params) (*dynamo.Result, error) {
	if err := sp.Validate(); err != nil {
		return nil, err
	}
	if err := probe(f, sp, p); err != nil {
		return nil, err
	}

	steps := sp.Steps()
	result := dynamo.NewResult(len(sp.InitialConditions), min(steps+1, maxPrealloc))

	x := sp.InitialConditions.Clone()
	t := sp.TStart
	h := sp.StepSize

	result.Append(t, x)
	s.notify(t, x)

	for i := 0; i < steps; i++ {
		if i%cancelCheckInterval == 0 {
			if err := ctx.Err(); err != nil {
				return nil, &dynamo.CanceledError{Step: i, Cause: err}
			}
		}

		newX, err := s.stepper.Step(f, t, x, h, p)
		if err != nil {
			var ee *dynamo.EvaluationError
			if errors.As(err, &ee) {
				ee.Step = i
			}
			return nil, fmt.Errorf("step %d (t=%.4f): %w", i, t, err)
		}

		x = newX
		t = sp.TStart + float64(i+1)*h

		result.Append(t, x)
		s.notify(t, x)
	}

	return result, nil
}

func (s *Simulator) notify(t float64, x dynamo.State) {
	for _, obs := range s.observers {
		obs.OnStep(t, x)
	}
}

// probe evaluates f once at the initial point so that a function of the
// wrong dimension is reported as a configuration problem.
func probe(f dynamo.DerivativeFunc, sp dynamo.SimulationParams, p dynamo.Params) error {
	if f == nil {
		return dynamo.Configf("derivative function", "must not be nil")
	}
	_, err := dynamo.Evaluate(f, sp.TStart, sp.InitialConditions.Clone(), p, 0, 0)
	if err == nil {
		return nil
	}
	if errors.Is(err, dynamo.ErrDimensionMismatch) {
		return &dynamo.ConfigError{
			Field:  "initial conditions",
			Reason: fmt.Sprintf("length %d does not match the derivative function: %v", len(sp.InitialConditions), errors.Unwrap(err)),
		}
	}
	return err
}

// Simulate runs f with a fresh RK4 stepper.
func Simulate(ctx context.Context, f dynamo.DerivativeFunc, sp dynamo.SimulationParams, p dynamo.Params) (*dynamo.Result, error) {
	return New(integrators.NewRK4()).Run(ctx, f, sp, p)
}
