package experiment

import (
	"fmt"
	"sort"

	"github.com/san-kum/odelab/internal/integrators"
	"github.com/san-kum/odelab/internal/systems"
)

type Registry struct {
	systems     map[string]func() systems.System
	integrators map[string]integrators.Factory
}

// NewRegistry returns a registry holding every built-in system and stepper.
func NewRegistry() *Registry {
	r := &Registry{
		systems:     make(map[string]func() systems.System),
		integrators: make(map[string]integrators.Factory),
	}

	for _, name := range systems.Names() {
		r.systems[name] = func() systems.System {
			sys, _ := systems.Get(name)
			return sys
		}
	}
	for _, name := range integrators.Names() {
		fn, _ := integrators.Lookup(name)
		r.integrators[name] = fn
	}

	return r
}

// RegisterSystem adds or replaces a system under its own name.
func (r *Registry) RegisterSystem(fn func() systems.System) {
	r.systems[fn().Name] = fn
}

func (r *Registry) GetSystem(name string) (systems.System, error) {
	fn, ok := r.systems[name]
	if !ok {
		return systems.System{}, fmt.Errorf("unknown system: %s", name)
	}
	return fn(), nil
}

func (r *Registry) GetIntegrator(name string) (integrators.Factory, error) {
	fn, ok := r.integrators[name]
	if !ok {
		return nil, fmt.Errorf("unknown integrator: %s", name)
	}
	return fn, nil
}

func (r *Registry) ListSystems() []string {
	return sortedKeys(r.systems)
}

func (r *Registry) ListIntegrators() []string {
	return sortedKeys(r.integrators)
}

func sortedKeys[V any](m map[string]V) []string {
	names := make([]string, 0, len(m))
	for name := range m {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
