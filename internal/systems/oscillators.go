package systems

import (
	"math"

	"github.com/san-kum/odelab/internal/dynamo"
)

// Harmonic is the undamped linear oscillator x'' = -ω²x.
func Harmonic() System {
	return System{
		Name:        "harmonic",
		Description: "linear oscillator x'' = -omega^2 x",
		Vars:        []string{"x", "v"},
		Params:      dynamo.Params{"omega": 1.0},
		Initial:     dynamo.State{1.0, 0.0},
		Derive: func(_ float64, s dynamo.State, p dynamo.Params) dynamo.State {
			w := p["omega"]
			return dynamo.State{s[1], -w * w * s[0]}
		},
		Energy: oscillatorEnergy,
	}
}

// Damped adds viscous damping: x'' = -ω²x - γx'.
func Damped() System {
	return System{
		Name:        "damped",
		Description: "damped oscillator x'' = -omega^2 x - gamma x'",
		Vars:        []string{"x", "v"},
		Params:      dynamo.Params{"omega": 1.0, "gamma": 0.2},
		Initial:     dynamo.State{1.0, 0.0},
		Derive: func(_ float64, s dynamo.State, p dynamo.Params) dynamo.State {
			w := p["omega"]
			return dynamo.State{s[1], -w*w*s[0] - p["gamma"]*s[1]}
		},
		Energy: oscillatorEnergy,
	}
}

// VanDerPol implements the Van der Pol oscillator.
// State: [x, y] where y = dx/dt
// Equations:
//
//	dx/dt = y
//	dy/dt = μ(1 - x²)y - x
func VanDerPol() System {
	return System{
		Name:        "vanderpol",
		Description: "relaxation oscillator with a stable limit cycle",
		Vars:        []string{"x", "y"},
		Params:      dynamo.Params{"mu": 1.0},
		Initial:     dynamo.State{2.0, 0.0},
		Derive: func(_ float64, s dynamo.State, p dynamo.Params) dynamo.State {
			x, y := s[0], s[1]
			return dynamo.State{y, p["mu"]*(1-x*x)*y - x}
		},
	}
}

// DoubleWell models a damped particle in a bistable potential well.
func DoubleWell() System {
	return System{
		Name:        "doublewell",
		Description: "damped particle in the potential a(x^2 - b)^2",
		Vars:        []string{"x", "v"},
		Params:      dynamo.Params{"a": 1.0, "b": 1.0, "mass": 1.0, "damping": 0.1},
		Initial:     dynamo.State{0.1, 0.0},
		Derive: func(_ float64, s dynamo.State, p dynamo.Params) dynamo.State {
			x, v := s[0], s[1]
			return dynamo.State{v, (-4*p["a"]*x*(x*x-p["b"]) - p["damping"]*v) / p["mass"]}
		},
		Energy: func(s dynamo.State, p dynamo.Params) float64 {
			x, v := s[0], s[1]
			well := x*x - p["b"]
			return 0.5*p["mass"]*v*v + p["a"]*well*well
		},
	}
}

// Duffing is the periodically forced nonlinear oscillator
// x'' + δx' + αx + βx³ = γcos(ωt).
func Duffing() System {
	return System{
		Name:        "duffing",
		Description: "forced nonlinear oscillator",
		Vars:        []string{"x", "v"},
		Params:      dynamo.Params{"alpha": -1.0, "beta": 1.0, "delta": 0.3, "gamma": 0.5, "omega": 1.2},
		Initial:     dynamo.State{1.0, 0.0},
		Derive: func(t float64, s dynamo.State, p dynamo.Params) dynamo.State {
			x, v := s[0], s[1]
			return dynamo.State{v, -p["delta"]*v - p["alpha"]*x - p["beta"]*x*x*x + p["gamma"]*math.Cos(p["omega"]*t)}
		},
	}
}

func oscillatorEnergy(s dynamo.State, p dynamo.Params) float64 {
	w := p["omega"]
	return 0.5*s[1]*s[1] + 0.5*w*w*s[0]*s[0]
}
