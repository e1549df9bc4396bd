package analysis

import (
	"context"
	"math"
	"testing"

	"github.com/san-kum/odelab/internal/dynamo"
	"github.com/san-kum/odelab/internal/integrators"
)

func TestSummarize(t *testing.T) {
	s, err := Summarize([]float64{4, 1, 3, 2, 5})
	if err != nil {
		t.Fatal(err)
	}
	if s.Min != 1 || s.Max != 5 || s.Mean != 3 || s.Median != 3 {
		t.Errorf("got %+v", s)
	}
	if math.Abs(s.StdDev-math.Sqrt(2)) > 1e-12 {
		t.Errorf("stddev = %v, want sqrt(2)", s.StdDev)
	}

	if _, err := Summarize(nil); err == nil {
		t.Error("expected error for empty series")
	}
}

func TestPowerSpectrum(t *testing.T) {
	dt := 0.01
	series := make([]float64, 1000)
	for i := range series {
		series[i] = 3 + math.Sin(2*math.Pi*2*float64(i)*dt)
	}

	spec := PowerSpectrum(series, dt)
	if len(spec.Freq) != 501 {
		t.Fatalf("got %d bins, want 501", len(spec.Freq))
	}
	if got := spec.DominantFrequency(); math.Abs(got-2) > 1e-9 {
		t.Errorf("dominant frequency %v, want 2", got)
	}
	if spec.Power[0] > 1e-9 {
		t.Errorf("mean not removed: zero bin %v", spec.Power[0])
	}

	if empty := PowerSpectrum([]float64{1}, dt); len(empty.Freq) != 0 {
		t.Error("expected empty spectrum for a single sample")
	}
}

func TestLyapunovExponent_Decay(t *testing.T) {
	decay := func(t float64, x dynamo.State, p dynamo.Params) dynamo.State {
		return dynamo.State{-p["k"] * x[0]}
	}
	sp := dynamo.SimulationParams{InitialConditions: dynamo.State{1}, TEnd: 10, StepSize: 0.01, Transient: 1}

	lambda, err := LyapunovExponent(context.Background(), integrators.NewRK4(), decay, dynamo.Params{"k": 1.5}, sp, 1e-8)
	if err != nil {
		t.Fatal(err)
	}
	if math.Abs(lambda+1.5) > 1e-3 {
		t.Errorf("lambda = %v, want -1.5", lambda)
	}
}

func TestLyapunovExponent_Lorenz(t *testing.T) {
	lorenz := func(t float64, s dynamo.State, p dynamo.Params) dynamo.State {
		return dynamo.State{10 * (s[1] - s[0]), s[0]*(28-s[2]) - s[1], s[0]*s[1] - 8.0/3.0*s[2]}
	}
	sp := dynamo.SimulationParams{InitialConditions: dynamo.State{1, 1, 1}, TEnd: 110, StepSize: 0.01, Transient: 10}

	lambda, err := LyapunovExponent(context.Background(), integrators.NewRK4(), lorenz, nil, sp, 1e-8)
	if err != nil {
		t.Fatal(err)
	}
	if lambda < 0.5 || lambda > 1.3 {
		t.Errorf("lambda = %v, want about 0.9", lambda)
	}
}

func TestLyapunovExponent_BadInput(t *testing.T) {
	f := func(t float64, x dynamo.State, p dynamo.Params) dynamo.State { return dynamo.State{0} }
	sp := dynamo.SimulationParams{InitialConditions: dynamo.State{1}, TEnd: 1, StepSize: 0.1}

	if _, err := LyapunovExponent(context.Background(), integrators.NewRK4(), f, nil, sp, 0); err == nil {
		t.Error("expected error for zero perturbation")
	}

	sp.Transient = 2
	if _, err := LyapunovExponent(context.Background(), integrators.NewRK4(), f, nil, sp, 1e-6); err == nil {
		t.Error("expected error when the transient covers the whole span")
	}
}
