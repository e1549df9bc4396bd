package sim

import (
	"context"
	"errors"
	"math"
	"testing"

	"github.com/san-kum/odelab/internal/dynamo"
	"github.com/san-kum/odelab/internal/integrators"
)

func oscillator(t float64, x dynamo.State, p dynamo.Params) dynamo.State {
	return dynamo.State{x[1], -x[0]}
}

func growth(t float64, x dynamo.State, p dynamo.Params) dynamo.State {
	return dynamo.State{x[0]}
}

func TestSimulatorRun(t *testing.T) {
	sim := New(integrators.NewRK4())

	sp := dynamo.SimulationParams{
		InitialConditions: dynamo.State{1.0},
		TEnd:              1.0,
		StepSize:          0.1,
	}

	decay := func(t float64, x dynamo.State, p dynamo.Params) dynamo.State { return dynamo.State{-x[0]} }
	result, err := sim.Run(context.Background(), decay, sp, nil)
	if err != nil {
		t.Fatalf("run failed: %v", err)
	}

	if result.Len() != 11 {
		t.Errorf("expected 11 samples, got %d", result.Len())
	}
	if len(result.Series[0]) != 11 {
		t.Errorf("expected 11 values, got %d", len(result.Series[0]))
	}

	finalState := result.Final()[0]
	expected := math.Exp(-1.0)
	if math.Abs(finalState-expected) > 1e-6 {
		t.Errorf("expected final state ~%.6f, got %.6f", expected, finalState)
	}
}

func TestSimulateTimeGrid(t *testing.T) {
	sp := dynamo.SimulationParams{
		InitialConditions: dynamo.State{1, 0},
		TStart:            2,
		TEnd:              3.05,
		StepSize:          0.1,
	}

	result, err := Simulate(context.Background(), oscillator, sp, nil)
	if err != nil {
		t.Fatal(err)
	}

	if result.Len() != 11 {
		t.Fatalf("got %d samples, want 11", result.Len())
	}
	for j := range result.Series {
		if len(result.Series[j]) != result.Len() {
			t.Errorf("series %d has %d samples, want %d", j, len(result.Series[j]), result.Len())
		}
	}
	for i, ti := range result.Time {
		want := 2 + float64(i)*0.1
		if math.Abs(ti-want) > 1e-12 {
			t.Errorf("Time[%d] = %v, want %v", i, ti, want)
		}
		if i > 0 && ti <= result.Time[i-1] {
			t.Errorf("time not strictly increasing at %d", i)
		}
	}
	if last := result.Time[result.Len()-1]; last > sp.TEnd || sp.TEnd-last >= sp.StepSize {
		t.Errorf("last sample %v should be within one step of %v", last, sp.TEnd)
	}
}

func TestSimulateConstantDerivative(t *testing.T) {
	c := dynamo.State{1.5, -0.25, 0}
	f := func(t float64, x dynamo.State, p dynamo.Params) dynamo.State { return c.Clone() }

	for _, h := range []float64{0.001, 0.01, 0.3, 0.7} {
		sp := dynamo.SimulationParams{InitialConditions: dynamo.State{1, 2, 3}, TStart: 1, TEnd: 5, StepSize: h}
		result, err := Simulate(context.Background(), f, sp, nil)
		if err != nil {
			t.Fatal(err)
		}
		for i, ti := range result.Time {
			for j := range c {
				want := sp.InitialConditions[j] + c[j]*(ti-sp.TStart)
				if math.Abs(result.Series[j][i]-want) > 1e-9 {
					t.Fatalf("h=%v sample %d var %d: got %v, want %v", h, i, j, result.Series[j][i], want)
				}
			}
		}
	}
}

func TestSimulateOscillatorAmplitude(t *testing.T) {
	sp := dynamo.SimulationParams{InitialConditions: dynamo.State{1, 0}, TEnd: 2 * math.Pi, StepSize: 0.01}

	result, err := Simulate(context.Background(), oscillator, sp, nil)
	if err != nil {
		t.Fatal(err)
	}

	for i := range result.Time {
		x, y := result.Series[0][i], result.Series[1][i]
		if drift := math.Abs(x*x + y*y - 1); drift > 1e-4 {
			t.Fatalf("amplitude drift %e at t=%.3f", drift, result.Time[i])
		}
	}
}

func TestSimulateEmptySpan(t *testing.T) {
	for _, tEnd := range []float64{0, -3} {
		sp := dynamo.SimulationParams{InitialConditions: dynamo.State{4, 5}, TEnd: tEnd, StepSize: 0.1}
		result, err := Simulate(context.Background(), oscillator, sp, nil)
		if err != nil {
			t.Fatalf("t_end=%v: %v", tEnd, err)
		}
		if result.Len() != 1 || len(result.Series[0]) != 1 || len(result.Series[1]) != 1 {
			t.Fatalf("t_end=%v: got %d samples, want 1", tEnd, result.Len())
		}
		if result.Series[0][0] != 4 || result.Series[1][0] != 5 || result.Time[0] != 0 {
			t.Errorf("t_end=%v: initial sample = %v at %v", tEnd, result.State(0), result.Time[0])
		}
	}
}

func TestSimulateFourthOrderConvergence(t *testing.T) {
	run := func(h float64) float64 {
		sp := dynamo.SimulationParams{InitialConditions: dynamo.State{1}, TEnd: 1, StepSize: h}
		result, err := Simulate(context.Background(), growth, sp, nil)
		if err != nil {
			t.Fatal(err)
		}
		if got := result.Time[result.Len()-1]; got != 1 {
			t.Fatalf("h=%v ended at %v, want 1", h, got)
		}
		return math.Abs(result.Final()[0] - math.E)
	}

	coarse := run(0.125)
	fine := run(0.0625)
	ratio := coarse / fine
	if ratio < 14 || ratio > 18 {
		t.Errorf("error ratio %.2f, want about 16", ratio)
	}
}

func TestSimulatorInvalidConfig(t *testing.T) {
	sim := New(integrators.NewRK4())

	tests := []struct {
		name string
		sp   dynamo.SimulationParams
	}{
		{"zero dt", dynamo.SimulationParams{InitialConditions: dynamo.State{1, 0}, TEnd: 1, StepSize: 0}},
		{"negative dt", dynamo.SimulationParams{InitialConditions: dynamo.State{1, 0}, TEnd: 1, StepSize: -0.1}},
		{"no state", dynamo.SimulationParams{TEnd: 1, StepSize: 0.1}},
		{"wrong dimension", dynamo.SimulationParams{InitialConditions: dynamo.State{1, 0, 0}, TEnd: 1, StepSize: 0.1}},
		{"step count overflows", dynamo.SimulationParams{InitialConditions: dynamo.State{1, 0}, TEnd: 50, StepSize: 1e-20}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := sim.Run(context.Background(), oscillator, tt.sp, nil)
			if !errors.Is(err, dynamo.ErrConfiguration) {
				t.Errorf("got %v, want ErrConfiguration", err)
			}
		})
	}

	sp := dynamo.SimulationParams{InitialConditions: dynamo.State{1}, TEnd: 1, StepSize: 0.1}
	if _, err := sim.Run(context.Background(), nil, sp, nil); !errors.Is(err, dynamo.ErrConfiguration) {
		t.Errorf("nil function: got %v, want ErrConfiguration", err)
	}
}

func TestSimulatorEvaluationFailure(t *testing.T) {
	f := func(t float64, x dynamo.State, p dynamo.Params) dynamo.State {
		if t > 0.5 {
			panic("singularity")
		}
		return dynamo.State{1}
	}

	sp := dynamo.SimulationParams{InitialConditions: dynamo.State{0}, TEnd: 1, StepSize: 0.1}
	result, err := Simulate(context.Background(), f, sp, nil)
	if result != nil {
		t.Error("expected no partial result")
	}

	var ee *dynamo.EvaluationError
	if !errors.As(err, &ee) {
		t.Fatalf("got %v, want *EvaluationError", err)
	}
	if ee.Step != 5 || ee.Stage != 2 {
		t.Errorf("failure at step %d stage %d, want step 5 stage 2", ee.Step, ee.Stage)
	}
}

func TestSimulatorCanceled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	sp := dynamo.SimulationParams{InitialConditions: dynamo.State{1, 0}, TEnd: 10, StepSize: 0.01}
	_, err := Simulate(ctx, oscillator, sp, nil)
	if !errors.Is(err, dynamo.ErrCanceled) || !errors.Is(err, context.Canceled) {
		t.Errorf("got %v, want canceled", err)
	}
}

type countingObserver struct {
	count int
	lastT float64
}

func (c *countingObserver) OnStep(t float64, x dynamo.State) {
	c.count++
	c.lastT = t
}

func TestSimulatorObservers(t *testing.T) {
	sim := New(integrators.NewRK4())
	obs := &countingObserver{}
	sim.AddObserver(obs)

	sp := dynamo.SimulationParams{InitialConditions: dynamo.State{1, 0}, TEnd: 1.0, StepSize: 0.1}
	if _, err := sim.Run(context.Background(), oscillator, sp, nil); err != nil {
		t.Fatalf("run failed: %v", err)
	}

	if obs.count != 11 {
		t.Errorf("expected 11 observations, got %d", obs.count)
	}
	if math.Abs(obs.lastT-1.0) > 1e-12 {
		t.Errorf("last observed time %v, want 1", obs.lastT)
	}
}

func TestEnsembleRun(t *testing.T) {
	ens := NewEnsemble(func() dynamo.Stepper { return integrators.NewRK4() }, 2)

	starts := []dynamo.State{{1, 0}, {2, 0}, {0, 3}}
	sp := dynamo.SimulationParams{TEnd: 1, StepSize: 0.01}

	results, err := ens.Run(context.Background(), oscillator, sp, nil, starts)
	if err != nil {
		t.Fatal(err)
	}
	if len(results) != len(starts) {
		t.Fatalf("got %d results, want %d", len(results), len(starts))
	}
	for i, r := range results {
		if r.Series[0][0] != starts[i][0] || r.Series[1][0] != starts[i][1] {
			t.Errorf("result %d starts at %v, want %v", i, r.State(0), starts[i])
		}
	}

	_, err = ens.Run(context.Background(), oscillator, sp, nil, []dynamo.State{{1, 0}, {1}})
	if !errors.Is(err, dynamo.ErrConfiguration) {
		t.Errorf("got %v, want ErrConfiguration", err)
	}
}
