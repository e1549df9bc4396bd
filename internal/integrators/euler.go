package integrators

import "github.com/san-kum/odelab/internal/dynamo"

// Euler is the explicit first-order method. It is only useful as a
// reference point when comparing against RK4.
type Euler struct{}

func NewEuler() *Euler {
	return &Euler{}
}

func (e *Euler) Name() string { return "euler" }
func (e *Euler) Order() int   { return 1 }

func (e *Euler) Step(f dynamo.DerivativeFunc, t float64, x dynamo.State, dt float64, p dynamo.Params) (dynamo.State, error) {
	if err := checkStep(dt); err != nil {
		return nil, err
	}
	dx, err := dynamo.Evaluate(f, t, x, p, 0, 1)
	if err != nil {
		return nil, err
	}
	result := make(dynamo.State, len(x))
	for i := range x {
		result[i] = x[i] + dt*dx[i]
	}
	return result, nil
}
