package dynamo

import (
	"math"
	"sort"
)

type State []float64

func (s State) Clone() State {
	c := make(State, len(s))
	copy(c, s)
	return c
}

func (s State) IsValid() bool {
	for _, v := range s {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return false
		}
	}
	return true
}

func (s State) Norm() float64 {
	sum := 0.0
	for _, v := range s {
		sum += v * v
	}
	return math.Sqrt(sum)
}

func (s State) Add(other State) State {
	result := make(State, len(s))
	for i := range s {
		if i < len(other) {
			result[i] = s[i] + other[i]
		} else {
			result[i] = s[i]
		}
	}
	return result
}

func (s State) Sub(other State) State {
	result := make(State, len(s))
	for i := range s {
		if i < len(other) {
			result[i] = s[i] - other[i]
		} else {
			result[i] = s[i]
		}
	}
	return result
}

// Params maps parameter names to values. A map makes duplicate names
// impossible; callers treat a Params value as read-only once passed in.
type Params map[string]float64

func (p Params) Clone() Params {
	c := make(Params, len(p))
	for k, v := range p {
		c[k] = v
	}
	return c
}

// With returns a copy of p with name set to value.
func (p Params) With(name string, value float64) Params {
	c := p.Clone()
	c[name] = value
	return c
}

// Names returns the parameter names in sorted order.
func (p Params) Names() []string {
	names := make([]string, 0, len(p))
	for k := range p {
		names = append(names, k)
	}
	sort.Strings(names)
	return names
}

// DerivativeFunc is the right-hand side of dy/dt = f(t, y, p). It must be
// deterministic, must not modify y and must return a new slice of len(y).
type DerivativeFunc func(t float64, y State, p Params) State

// Stepper advances a state by one fixed step of size h.
type Stepper interface {
	Step(f DerivativeFunc, t float64, y State, h float64, p Params) (State, error)
	Name() string
	Order() int
}

// Observer is notified of every sample appended to a trajectory.
type Observer interface {
	OnStep(t float64, y State)
}

// SimulationParams are the settings of one integration run.
type SimulationParams struct {
	InitialConditions State
	TStart            float64
	TEnd              float64
	StepSize          float64
	// Transient is the leading simulated time hidden from analysis views.
	// It never shortens the raw trajectory.
	Transient float64
}

func (sp SimulationParams) Validate() error {
	if len(sp.InitialConditions) == 0 {
		return Configf("initial conditions", "state must have at least one component")
	}
	if math.IsNaN(sp.StepSize) || math.IsInf(sp.StepSize, 0) || sp.StepSize <= 0 {
		return Configf("step size", "must be positive and finite, got %g", sp.StepSize)
	}
	if math.IsNaN(sp.TStart) || math.IsInf(sp.TStart, 0) {
		return Configf("t_start", "must be finite, got %g", sp.TStart)
	}
	if math.IsNaN(sp.TEnd) || math.IsInf(sp.TEnd, 0) {
		return Configf("t_end", "must be finite, got %g", sp.TEnd)
	}
	if math.IsNaN(sp.Transient) || sp.Transient < 0 {
		return Configf("transient", "must be non-negative, got %g", sp.Transient)
	}
	if n := sp.StepCount(); n > MaxSteps {
		return Configf("step size", "%.3g steps over [%g, %g] exceed the %d a result can hold", n, sp.TStart, sp.TEnd, MaxSteps)
	}
	return nil
}

// MaxSteps bounds the step count of a valid SimulationParams so that it
// always converts to int.
const MaxSteps = 1 << 40

// StepCount is M = floor((TEnd-TStart)/StepSize) in floating point. An empty
// or reversed span yields zero.
func (sp SimulationParams) StepCount() float64 {
	if sp.TEnd <= sp.TStart || sp.StepSize <= 0 {
		return 0
	}
	return math.Floor((sp.TEnd - sp.TStart) / sp.StepSize)
}

// Steps returns StepCount as an int. Only meaningful after Validate.
func (sp SimulationParams) Steps() int {
	n := sp.StepCount()
	if n > MaxSteps {
		return MaxSteps
	}
	return int(n)
}

// Result is a sampled trajectory. Series[j][i] is variable j at Time[i].
type Result struct {
	Time   []float64
	Series [][]float64
}

func NewResult(dim, capacity int) *Result {
	r := &Result{
		Time:   make([]float64, 0, capacity),
		Series: make([][]float64, dim),
	}
	for j := range r.Series {
		r.Series[j] = make([]float64, 0, capacity)
	}
	return r
}

func (r *Result) Append(t float64, y State) {
	r.Time = append(r.Time, t)
	for j := range r.Series {
		r.Series[j] = append(r.Series[j], y[j])
	}
}

func (r *Result) Len() int { return len(r.Time) }
func (r *Result) Dim() int { return len(r.Series) }

// State returns a copy of the state at sample i.
func (r *Result) State(i int) State {
	s := make(State, len(r.Series))
	for j := range r.Series {
		s[j] = r.Series[j][i]
	}
	return s
}

func (r *Result) Final() State {
	if r.Len() == 0 {
		return nil
	}
	return r.State(r.Len() - 1)
}

// Column returns the series of variable j.
func (r *Result) Column(j int) ([]float64, error) {
	if j < 0 || j >= len(r.Series) {
		return nil, Configf("variable index", "%d outside [0, %d)", j, len(r.Series))
	}
	return r.Series[j], nil
}
