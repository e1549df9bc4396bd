package systems

import (
	"context"
	"math"
	"testing"

	"github.com/san-kum/odelab/internal/dynamo"
	"github.com/san-kum/odelab/internal/sim"
)

func TestBuiltinsAreConsistent(t *testing.T) {
	for _, name := range Names() {
		s, err := Get(name)
		if err != nil {
			t.Fatalf("Get(%q): %v", name, err)
		}
		if s.Name != name {
			t.Errorf("%s: Name = %q", name, s.Name)
		}
		if len(s.Initial) != s.Dim() {
			t.Errorf("%s: %d initial values for %d variables", name, len(s.Initial), s.Dim())
		}
		dx := s.Derive(0, s.Initial, s.Params)
		if len(dx) != s.Dim() {
			t.Errorf("%s: derivative has %d components, want %d", name, len(dx), s.Dim())
		}
		if !dx.IsValid() {
			t.Errorf("%s: derivative at the initial state is %v", name, dx)
		}
	}
}

func TestGetReturnsIndependentParams(t *testing.T) {
	a, _ := Get("lorenz")
	a.Params["rho"] = 99

	b, _ := Get("lorenz")
	if b.Params["rho"] != 28 {
		t.Errorf("rho = %v, want 28", b.Params["rho"])
	}

	if _, err := Get("cartpole"); err == nil {
		t.Error("expected error for unknown system")
	}
}

func TestVarIndex(t *testing.T) {
	s := Rossler()
	if i, err := s.VarIndex("z"); err != nil || i != 2 {
		t.Errorf("VarIndex(z) = %d, %v", i, err)
	}
	if _, err := s.VarIndex("w"); err == nil {
		t.Error("expected error for unknown variable")
	}
}

func TestEquilibria(t *testing.T) {
	tests := []struct {
		name string
		s    System
		x    dynamo.State
	}{
		{"lorenz origin", Lorenz(), dynamo.State{0, 0, 0}},
		{"brusselator fixed point", Brusselator(), dynamo.State{1, 3}},
		{"doublewell minimum", DoubleWell(), dynamo.State{1, 0}},
		{"vanderpol origin", VanDerPol(), dynamo.State{0, 0}},
		{"pendulum at rest", Pendulum(), dynamo.State{0, 0}},
		{"double pendulum hanging", DoublePendulum(), dynamo.State{0, 0, 0, 0}},
	}

	for _, tt := range tests {
		dx := tt.s.Derive(0, tt.x, tt.s.Params)
		if dx.Norm() > 1e-12 {
			t.Errorf("%s: derivative %v, want zero", tt.name, dx)
		}
	}
}

func TestHarmonicMatchesClosedForm(t *testing.T) {
	s := Harmonic()
	p := s.Params.With("omega", 2)
	sp := dynamo.SimulationParams{InitialConditions: s.Initial, TEnd: 5, StepSize: 0.001}

	res, err := sim.Simulate(context.Background(), s.Derive, sp, p)
	if err != nil {
		t.Fatal(err)
	}

	tEnd := res.Time[res.Len()-1]
	final := res.Final()
	if math.Abs(final[0]-math.Cos(2*tEnd)) > 1e-9 {
		t.Errorf("x(%v) = %v, want %v", tEnd, final[0], math.Cos(2*tEnd))
	}
}

func TestDampedDecays(t *testing.T) {
	s := Damped()
	sp := dynamo.SimulationParams{InitialConditions: s.Initial, TEnd: 40, StepSize: 0.01}

	res, err := sim.Simulate(context.Background(), s.Derive, sp, s.Params)
	if err != nil {
		t.Fatal(err)
	}
	if n := res.Final().Norm(); n > 0.05 {
		t.Errorf("amplitude after 40s = %v, want < 0.05", n)
	}
}

func TestDoublePendulumConservesEnergy(t *testing.T) {
	s := DoublePendulum()
	sp := dynamo.SimulationParams{InitialConditions: s.Initial, TEnd: 5, StepSize: 0.001}

	res, err := sim.Simulate(context.Background(), s.Derive, sp, s.Params)
	if err != nil {
		t.Fatal(err)
	}

	e0 := s.Energy(res.State(0), s.Params)
	e1 := s.Energy(res.Final(), s.Params)
	if drift := math.Abs((e1 - e0) / e0); drift > 1e-5 {
		t.Errorf("relative energy drift %v, want < 1e-5", drift)
	}
}

func TestEnergyDefinedWhereExpected(t *testing.T) {
	for _, name := range []string{"harmonic", "damped", "doublewell", "pendulum", "double"} {
		s, _ := Get(name)
		if s.Energy == nil {
			t.Errorf("%s: expected an energy function", name)
		}
	}
	if Lorenz().Energy != nil {
		t.Error("lorenz has no energy function")
	}
}

func TestPendulumSmallAngle(t *testing.T) {
	s := Pendulum()
	p := s.Params.With("damping", 0)
	sp := dynamo.SimulationParams{InitialConditions: dynamo.State{0.01, 0}, TEnd: 2, StepSize: 0.001}

	res, err := sim.Simulate(context.Background(), s.Derive, sp, p)
	if err != nil {
		t.Fatal(err)
	}

	w := math.Sqrt(p["gravity"] / p["length"])
	tEnd := res.Time[res.Len()-1]
	if got, want := res.Final()[0], 0.01*math.Cos(w*tEnd); math.Abs(got-want) > 1e-6 {
		t.Errorf("theta(%v) = %v, want %v", tEnd, got, want)
	}
}
