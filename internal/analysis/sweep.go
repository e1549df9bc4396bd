package analysis

import (
	"context"
	"fmt"
	"math"
	"runtime"
	"sync/atomic"

	"golang.org/x/sync/errgroup"

	"github.com/san-kum/odelab/internal/dynamo"
	"github.com/san-kum/odelab/internal/integrators"
	"github.com/san-kum/odelab/internal/sim"
)

// SweepSpec describes which parameter to vary and what to observe.
type SweepSpec struct {
	Param string
	Min   float64
	Max   float64
	// Steps is the number of intervals; Steps+1 values are simulated.
	Steps int
	// Observe is the index of the state variable whose maxima are recorded.
	Observe int
	// Transient is discarded from every run before maxima are taken. It is
	// independent of SimulationParams.Transient.
	Transient float64
}

// BifurcationPoint is one local maximum observed at one parameter value.
type BifurcationPoint struct {
	Param float64 `json:"param"`
	Value float64 `json:"value"`
}

// ParamGroup collects the maxima of a single parameter value.
type ParamGroup struct {
	Param  float64
	Values []float64
}

// SweepError reports the sweep point that aborted a sweep.
type SweepError struct {
	Index int
	Value float64
	Err   error
}

func (e *SweepError) Error() string {
	return fmt.Sprintf("sweep point %d (value %g): %v", e.Index, e.Value, e.Err)
}

func (e *SweepError) Unwrap() error { return e.Err }

func (s SweepSpec) Validate(dim int) error {
	if s.Param == "" {
		return dynamo.Configf("sweep parameter", "name must not be empty")
	}
	if s.Steps < 0 {
		return dynamo.Configf("sweep steps", "must be non-negative, got %d", s.Steps)
	}
	if math.IsNaN(s.Min) || math.IsNaN(s.Max) || math.IsInf(s.Min, 0) || math.IsInf(s.Max, 0) {
		return dynamo.Configf("sweep range", "bounds must be finite, got [%g, %g]", s.Min, s.Max)
	}
	if s.Min > s.Max {
		return dynamo.Configf("sweep range", "min %g exceeds max %g", s.Min, s.Max)
	}
	if s.Observe < 0 || s.Observe >= dim {
		return dynamo.Configf("observed variable", "index %d outside [0, %d)", s.Observe, dim)
	}
	if math.IsNaN(s.Transient) || s.Transient < 0 {
		return dynamo.Configf("sweep transient", "must be non-negative, got %g", s.Transient)
	}
	return nil
}

// Values returns the Steps+1 parameter values Min + i*(Max-Min)/Steps,
// evaluated in that order so every value is reproducible from i alone.
func (s SweepSpec) Values() []float64 {
	if s.Steps == 0 {
		return []float64{s.Min}
	}
	values := make([]float64, s.Steps+1)
	for i := range values {
		values[i] = s.Min + float64(i)*(s.Max-s.Min)/float64(s.Steps)
	}
	return values
}

type sweepOptions struct {
	workers    int
	newStepper integrators.Factory
	progress   func(done, total int)
}

type SweepOption func(*sweepOptions)

// WithWorkers bounds the number of sweep points simulated at once.
func WithWorkers(n int) SweepOption {
	return func(o *sweepOptions) { o.workers = n }
}

// WithStepper selects the integrator. The factory is called once per point.
func WithStepper(f integrators.Factory) SweepOption {
	return func(o *sweepOptions) { o.newStepper = f }
}

// WithProgress registers a callback run after each finished point. It is
// called from worker goroutines and must be safe for concurrent use.
func WithProgress(fn func(done, total int)) SweepOption {
	return func(o *sweepOptions) { o.progress = fn }
}

// SweepParameter simulates f once per value of spec.Param, overriding that
// entry of fixed, and returns every local maximum of the observed variable
// after spec.Transient. Points come back ordered by parameter value; a value
// with no maxima contributes nothing.
//
// The first failing point aborts the whole sweep with a *SweepError and no
// points are returned. Cancelling ctx returns ctx.Err().
func SweepParameter(
	ctx context.Context,
	f dynamo.DerivativeFunc,
	fixed dynamo.Params,
	spec SweepSpec,
	settings dynamo.SimulationParams,
	opts ...SweepOption,
) ([]BifurcationPoint, error) {
	o := sweepOptions{
		workers:    runtime.GOMAXPROCS(0),
		newStepper: func() dynamo.Stepper { return integrators.NewRK4() },
	}
	for _, opt := range opts {
		opt(&o)
	}

	if err := settings.Validate(); err != nil {
		return nil, err
	}
	if err := spec.Validate(len(settings.InitialConditions)); err != nil {
		return nil, err
	}

	values := spec.Values()
	slots := make([][]BifurcationPoint, len(values))
	var done atomic.Int64

	g, gctx := errgroup.WithContext(ctx)
	if o.workers > 0 {
		g.SetLimit(o.workers)
	}

	for i, v := range values {
		if gctx.Err() != nil {
			break
		}
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}

			res, err := sim.New(o.newStepper()).Run(gctx, f, settings, fixed.With(spec.Param, v))
			if err != nil {
				return &SweepError{Index: i, Value: v, Err: err}
			}

			trimmed := TrimTransient(res, spec.Transient)
			maxima := MaximaValues(trimmed.Series[spec.Observe])
			points := make([]BifurcationPoint, len(maxima))
			for k, m := range maxima {
				points[k] = BifurcationPoint{Param: v, Value: m}
			}
			slots[i] = points

			n := int(done.Add(1))
			if o.progress != nil {
				o.progress(n, len(values))
			}
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return nil, ctxErr
		}
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	total := 0
	for _, s := range slots {
		total += len(s)
	}
	out := make([]BifurcationPoint, 0, total)
	for _, s := range slots {
		out = append(out, s...)
	}
	return out, nil
}

// GroupByParam folds consecutive points with the same parameter value.
func GroupByParam(points []BifurcationPoint) []ParamGroup {
	var groups []ParamGroup
	for _, p := range points {
		if n := len(groups); n > 0 && groups[n-1].Param == p.Param {
			groups[n-1].Values = append(groups[n-1].Values, p.Value)
			continue
		}
		groups = append(groups, ParamGroup{Param: p.Param, Values: []float64{p.Value}})
	}
	return groups
}
