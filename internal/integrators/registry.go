package integrators

import (
	"fmt"
	"sort"

	"github.com/san-kum/odelab/internal/dynamo"
)

// Factory returns a fresh stepper. Each goroutine needs its own stepper.
type Factory func() dynamo.Stepper

var factories = map[string]Factory{
	"rk4":   func() dynamo.Stepper { return NewRK4() },
	"euler": func() dynamo.Stepper { return NewEuler() },
}

// Lookup returns the factory registered under name.
func Lookup(name string) (Factory, error) {
	fn, ok := factories[name]
	if !ok {
		return nil, fmt.Errorf("unknown integrator: %s", name)
	}
	return fn, nil
}

func Names() []string {
	names := make([]string, 0, len(factories))
	for name := range factories {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
