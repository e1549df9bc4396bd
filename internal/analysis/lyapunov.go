package analysis

import (
	"context"
	"errors"
	"math"

	"github.com/san-kum/odelab/internal/dynamo"
	"github.com/san-kum/odelab/internal/sim"
)

// LyapunovExponent estimates the largest Lyapunov exponent using the
// trajectory separation method. A positive value indicates chaos.
//
// Algorithm:
// 1. Let a reference trajectory settle for sp.Transient
// 2. Run a copy displaced by perturbation alongside it
// 3. After every step accumulate ln(|δx|/δ0) and rescale δx back to δ0
// 4. λ ≈ sum / elapsed time
func LyapunovExponent(
	ctx context.Context,
	stepper dynamo.Stepper,
	f dynamo.DerivativeFunc,
	p dynamo.Params,
	sp dynamo.SimulationParams,
	perturbation float64,
) (float64, error) {
	if err := sp.Validate(); err != nil {
		return 0, err
	}
	if perturbation <= 0 {
		return 0, dynamo.Configf("perturbation", "must be positive, got %g", perturbation)
	}

	x := sp.InitialConditions.Clone()
	t := sp.TStart
	if sp.Transient > 0 {
		settle := sp
		settle.TEnd = sp.TStart + sp.Transient
		res, err := sim.New(stepper).Run(ctx, f, settle, p)
		if err != nil {
			return 0, err
		}
		x = res.Final()
		t = res.Time[res.Len()-1]
	}

	xp := x.Clone()
	xp[0] += perturbation

	steps := int(math.Floor((sp.TEnd - t) / sp.StepSize))
	if steps <= 0 {
		return 0, dynamo.Configf("time span", "no time left after a transient of %g", sp.Transient)
	}

	sumLog := 0.0
	for i := 0; i < steps; i++ {
		if err := ctx.Err(); err != nil {
			return 0, &dynamo.CanceledError{Step: i, Cause: err}
		}

		var err error
		if x, err = stepper.Step(f, t, x, sp.StepSize, p); err != nil {
			return 0, err
		}
		if xp, err = stepper.Step(f, t, xp, sp.StepSize, p); err != nil {
			return 0, err
		}
		t += sp.StepSize

		sep := xp.Sub(x).Norm()
		if sep == 0 || math.IsNaN(sep) || math.IsInf(sep, 0) {
			return 0, errors.New("analysis: trajectory separation degenerated")
		}
		sumLog += math.Log(sep / perturbation)

		scale := perturbation / sep
		for k := range xp {
			xp[k] = x[k] + (xp[k]-x[k])*scale
		}
	}

	return sumLog / (float64(steps) * sp.StepSize), nil
}
