package analysis

import (
	"math/cmplx"

	"github.com/mjibson/go-dsp/fft"
	"gonum.org/v1/gonum/floats"
)

// Spectrum is a one-sided amplitude spectrum.
type Spectrum struct {
	Freq  []float64
	Power []float64
}

// PowerSpectrum returns the amplitude spectrum of a series sampled every dt,
// with the mean removed so the zero bin does not dominate.
func PowerSpectrum(series []float64, dt float64) Spectrum {
	n := len(series)
	if n < 2 || dt <= 0 {
		return Spectrum{}
	}

	centered := make([]float64, n)
	copy(centered, series)
	floats.AddConst(-floats.Sum(series)/float64(n), centered)

	coeffs := fft.FFTReal(centered)
	half := n/2 + 1
	spec := Spectrum{
		Freq:  make([]float64, half),
		Power: make([]float64, half),
	}
	for k := 0; k < half; k++ {
		spec.Freq[k] = float64(k) / (float64(n) * dt)
		spec.Power[k] = cmplx.Abs(coeffs[k]) / float64(n)
	}
	return spec
}

// DominantFrequency returns the frequency of the strongest non-zero bin.
func (s Spectrum) DominantFrequency() float64 {
	best, freq := -1.0, 0.0
	for k := 1; k < len(s.Power); k++ {
		if s.Power[k] > best {
			best, freq = s.Power[k], s.Freq[k]
		}
	}
	return freq
}
