package integrators

import (
	"math"

	"github.com/san-kum/odelab/internal/dynamo"
)

// RK4 is the classical fourth-order Runge-Kutta stepper. It keeps stage
// buffers between calls, so a single RK4 must not be used concurrently.
type RK4 struct {
	k1, k2, k3, k4 dynamo.State
	scratch        dynamo.State
}

func NewRK4() *RK4 {
	return &RK4{}
}

func (r *RK4) Name() string { return "rk4" }
func (r *RK4) Order() int   { return 4 }

func (r *RK4) ensureScratch(n int) {
	if len(r.k1) != n {
		r.k1 = make(dynamo.State, n)
		r.k2 = make(dynamo.State, n)
		r.k3 = make(dynamo.State, n)
		r.k4 = make(dynamo.State, n)
		r.scratch = make(dynamo.State, n)
	}
}

// Step computes y(t+h) from y(t). The input state is never written to and
// the returned state is freshly allocated.
func (r *RK4) Step(f dynamo.DerivativeFunc, t float64, x dynamo.State, dt float64, p dynamo.Params) (dynamo.State, error) {
	if err := checkStep(dt); err != nil {
		return nil, err
	}
	n := len(x)
	r.ensureScratch(n)

	dk1, err := dynamo.Evaluate(f, t, x, p, 0, 1)
	if err != nil {
		return nil, err
	}
	copy(r.k1, dk1)

	for i := 0; i < n; i++ {
		r.scratch[i] = x[i] + dt*0.5*r.k1[i]
	}
	dk2, err := dynamo.Evaluate(f, t+dt*0.5, r.scratch, p, 0, 2)
	if err != nil {
		return nil, err
	}
	copy(r.k2, dk2)

	for i := 0; i < n; i++ {
		r.scratch[i] = x[i] + dt*0.5*r.k2[i]
	}
	dk3, err := dynamo.Evaluate(f, t+dt*0.5, r.scratch, p, 0, 3)
	if err != nil {
		return nil, err
	}
	copy(r.k3, dk3)

	for i := 0; i < n; i++ {
		r.scratch[i] = x[i] + dt*r.k3[i]
	}
	dk4, err := dynamo.Evaluate(f, t+dt, r.scratch, p, 0, 4)
	if err != nil {
		return nil, err
	}
	copy(r.k4, dk4)

	result := make(dynamo.State, n)
	dt6 := dt / 6.0
	for i := 0; i < n; i++ {
		result[i] = x[i] + dt6*(r.k1[i]+2*r.k2[i]+2*r.k3[i]+r.k4[i])
	}

	return result, nil
}

// StepRK4 performs one RK4 step without keeping any buffers around.
func StepRK4(f dynamo.DerivativeFunc, t float64, y dynamo.State, h float64, p dynamo.Params) (dynamo.State, error) {
	return NewRK4().Step(f, t, y, h, p)
}

func checkStep(dt float64) error {
	if math.IsNaN(dt) || math.IsInf(dt, 0) || dt <= 0 {
		return dynamo.Configf("step size", "must be positive and finite, got %g", dt)
	}
	return nil
}
