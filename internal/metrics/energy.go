package metrics

import (
	"math"

	"github.com/san-kum/odelab/internal/dynamo"
)

// Metric is an observer that reduces a trajectory to one number.
type Metric interface {
	dynamo.Observer
	Name() string
	Value() float64
	Reset()
}

// EnergyFunc evaluates a conserved or dissipated quantity of a state.
type EnergyFunc func(y dynamo.State) float64

// Energy is the time average of an energy function over the samples seen.
type Energy struct {
	energy  EnergyFunc
	samples int
	total   float64
}

func NewEnergy(energy EnergyFunc) *Energy {
	return &Energy{energy: energy}
}

func (e *Energy) Name() string { return "mean_energy" }

func (e *Energy) OnStep(_ float64, y dynamo.State) {
	e.total += e.energy(y)
	e.samples++
}

func (e *Energy) Value() float64 {
	if e.samples == 0 {
		return 0
	}
	return e.total / float64(e.samples)
}

func (e *Energy) Reset() {
	e.total = 0
	e.samples = 0
}

// EnergyDrift tracks the largest relative deviation from the energy of the
// first sample. An initial energy of exactly zero makes the drift absolute.
type EnergyDrift struct {
	energy   EnergyFunc
	initial  float64
	current  float64
	maxDrift float64
	samples  int
}

func NewEnergyDrift(energy EnergyFunc) *EnergyDrift {
	return &EnergyDrift{energy: energy}
}

func (e *EnergyDrift) Name() string { return "energy_drift" }

func (e *EnergyDrift) OnStep(_ float64, y dynamo.State) {
	energy := e.energy(y)
	if e.samples == 0 {
		e.initial = energy
	}
	e.current = energy
	e.samples++

	drift := math.Abs(energy - e.initial)
	if e.initial != 0 {
		drift /= math.Abs(e.initial)
	}
	e.maxDrift = math.Max(e.maxDrift, drift)
}

func (e *EnergyDrift) Value() float64 { return e.maxDrift }

// Final is the energy of the last sample.
func (e *EnergyDrift) Final() float64 { return e.current }

func (e *EnergyDrift) Reset() {
	e.initial = 0
	e.current = 0
	e.maxDrift = 0
	e.samples = 0
}
