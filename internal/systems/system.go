package systems

import (
	"fmt"
	"sort"

	"github.com/san-kum/odelab/internal/dynamo"
)

// System bundles a derivative function with its variable names and defaults.
type System struct {
	Name        string
	Description string
	Vars        []string
	Params      dynamo.Params
	Initial     dynamo.State
	Derive      dynamo.DerivativeFunc
	// Energy is set for systems with a natural energy function. It is
	// conserved only when the system has no damping or forcing.
	Energy      func(y dynamo.State, p dynamo.Params) float64
}

func (s System) Dim() int { return len(s.Vars) }

// VarIndex returns the position of a named state variable.
func (s System) VarIndex(name string) (int, error) {
	for i, v := range s.Vars {
		if v == name {
			return i, nil
		}
	}
	return -1, fmt.Errorf("system %s has no variable %q", s.Name, name)
}

var builtins = map[string]func() System{
	"harmonic":    Harmonic,
	"damped":      Damped,
	"lorenz":      Lorenz,
	"rossler":     Rossler,
	"duffing":     Duffing,
	"vanderpol":   VanDerPol,
	"doublewell":  DoubleWell,
	"brusselator": Brusselator,
	"pendulum":    Pendulum,
	"double":      DoublePendulum,
}

// Get returns a fresh copy of the named built-in system.
func Get(name string) (System, error) {
	fn, ok := builtins[name]
	if !ok {
		return System{}, fmt.Errorf("unknown system: %s", name)
	}
	return fn(), nil
}

func Names() []string {
	names := make([]string, 0, len(builtins))
	for name := range builtins {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
