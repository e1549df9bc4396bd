// Package systems provides built-in ODE systems as pure derivative functions.
//
// Every system reads its coefficients from the [dynamo.Params] passed to the
// derivative function, so a parameter sweep never mutates a shared model:
//
//	s := systems.Rossler()
//	res, err := sim.Simulate(ctx, s.Derive, sp, s.Params.With("c", 4.0))
//
// Available systems:
//   - harmonic, damped: linear oscillators with known closed forms
//   - lorenz, rossler: chaotic flows
//   - duffing, vanderpol, doublewell: nonlinear oscillators
//   - brusselator: chemical oscillator with a Hopf bifurcation at b = 1 + a²
package systems
