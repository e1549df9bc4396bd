package metrics

import (
	"math"

	"github.com/san-kum/odelab/internal/dynamo"
)

// Stability is the fraction of samples whose components all stay within
// threshold. It also remembers when the state first stopped being finite,
// since NaN and Inf propagate through the integrator without an error.
type Stability struct {
	threshold  float64
	violations int
	samples    int
	blowup     float64
	blownUp    bool
}

func NewStability(threshold float64) *Stability {
	return &Stability{threshold: threshold}
}

func (s *Stability) Name() string { return "stability" }

func (s *Stability) OnStep(t float64, y dynamo.State) {
	s.samples++
	if !y.IsValid() && !s.blownUp {
		s.blownUp = true
		s.blowup = t
	}
	for _, v := range y {
		if math.IsNaN(v) || math.Abs(v) > s.threshold {
			s.violations++
			break
		}
	}
}

func (s *Stability) Value() float64 {
	if s.samples == 0 {
		return 1.0
	}
	return 1.0 - float64(s.violations)/float64(s.samples)
}

// Blowup returns the time of the first non-finite sample.
func (s *Stability) Blowup() (float64, bool) { return s.blowup, s.blownUp }

func (s *Stability) Reset() {
	s.violations = 0
	s.samples = 0
	s.blowup = 0
	s.blownUp = false
}
