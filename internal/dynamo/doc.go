// Package dynamo provides the core data model for integrating systems of
// ordinary differential equations.
//
// The package defines the types every other layer shares:
//
//   - [State]: vector representing system state
//   - [Params]: named real parameters of a system
//   - [DerivativeFunc]: the right-hand side dy/dt = f(t, y, p)
//   - [Stepper]: a single-step numerical integrator
//   - [SimulationParams]: initial conditions, time span and step size
//   - [Result]: a sampled trajectory in series-major layout
//
// # Example
//
//	f := func(t float64, y dynamo.State, p dynamo.Params) dynamo.State {
//		return dynamo.State{y[1], -p["k"] * y[0]}
//	}
//	sp := dynamo.SimulationParams{InitialConditions: dynamo.State{1, 0}, TEnd: 10, StepSize: 0.01}
//	result, err := sim.Simulate(ctx, f, sp, dynamo.Params{"k": 1})
//
// # Thread Safety
//
// Results are immutable once returned and may be read concurrently.
// Steppers keep scratch buffers and must not be shared between goroutines.
package dynamo
