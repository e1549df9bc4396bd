package sim

import (
	"context"

	"golang.org/x/sync/errgroup"

	"github.com/san-kum/odelab/internal/dynamo"
	"github.com/san-kum/odelab/internal/integrators"
)

// Ensemble integrates one system from several initial conditions at once.
type Ensemble struct {
	newStepper integrators.Factory
	workers    int
}

func NewEnsemble(newStepper integrators.Factory, workers int) *Ensemble {
	return &Ensemble{newStepper: newStepper, workers: workers}
}

// Run returns one result per start state, in the order of starts. The
// first failure cancels the remaining runs.
func (e *Ensemble) Run(ctx context.Context, f dynamo.DerivativeFunc, sp dynamo.SimulationParams, p dynamo.Params, starts []dynamo.State) ([]*dynamo.Result, error) {
	results := make([]*dynamo.Result, len(starts))

	g, ctx := errgroup.WithContext(ctx)
	if e.workers > 0 {
		g.SetLimit(e.workers)
	}

	for i, x0 := range starts {
		g.Go(func() error {
			spCopy := sp
			spCopy.InitialConditions = x0.Clone()

			res, err := New(e.newStepper()).Run(ctx, f, spCopy, p)
			if err != nil {
				return err
			}
			results[i] = res
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}
	return results, nil
}
