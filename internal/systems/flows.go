package systems

import "github.com/san-kum/odelab/internal/dynamo"

// Lorenz calculates the Lorenz attractor derivatives.
func Lorenz() System {
	return System{
		Name:        "lorenz",
		Description: "Lorenz convection model",
		Vars:        []string{"x", "y", "z"},
		Params:      dynamo.Params{"sigma": 10.0, "rho": 28.0, "beta": 8.0 / 3.0},
		Initial:     dynamo.State{1.0, 1.0, 1.0},
		Derive: func(_ float64, s dynamo.State, p dynamo.Params) dynamo.State {
			return dynamo.State{
				p["sigma"] * (s[1] - s[0]),
				s[0]*(p["rho"]-s[2]) - s[1],
				s[0]*s[1] - p["beta"]*s[2],
			}
		},
	}
}

// Rossler calculates the Rössler attractor derivatives. With a = b = 0.2 the
// x maxima double in period near c = 2.8, 3.8 and 4.1 on the way to chaos.
func Rossler() System {
	return System{
		Name:        "rossler",
		Description: "Rössler band attractor",
		Vars:        []string{"x", "y", "z"},
		Params:      dynamo.Params{"a": 0.2, "b": 0.2, "c": 5.7},
		Initial:     dynamo.State{1.0, 1.0, 1.0},
		Derive: func(_ float64, s dynamo.State, p dynamo.Params) dynamo.State {
			return dynamo.State{-s[1] - s[2], s[0] + p["a"]*s[1], p["b"] + s[2]*(s[0]-p["c"])}
		},
	}
}

// Brusselator is the autocatalytic reaction model. The fixed point (a, b/a)
// loses stability to a limit cycle when b > 1 + a².
func Brusselator() System {
	return System{
		Name:        "brusselator",
		Description: "autocatalytic chemical oscillator",
		Vars:        []string{"x", "y"},
		Params:      dynamo.Params{"a": 1.0, "b": 3.0},
		Initial:     dynamo.State{1.0, 1.0},
		Derive: func(_ float64, s dynamo.State, p dynamo.Params) dynamo.State {
			x, y := s[0], s[1]
			a, b := p["a"], p["b"]
			return dynamo.State{a + x*x*y - (b+1)*x, b*x - x*x*y}
		},
	}
}
