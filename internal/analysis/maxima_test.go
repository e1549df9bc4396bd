package analysis

import (
	"math"
	"testing"
)

func TestLocalMaxima(t *testing.T) {
	got := LocalMaxima([]float64{0, 1, 0, 2, 0, 3, 0})
	want := []Extremum{{1, 1}, {3, 2}, {5, 3}}

	if len(got) != len(want) {
		t.Fatalf("got %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("maximum %d = %+v, want %+v", i, got[i], want[i])
		}
	}
}

func TestLocalMaxima_NoInteriorPeaks(t *testing.T) {
	tests := []struct {
		name   string
		series []float64
	}{
		{"empty", nil},
		{"single", []float64{5}},
		{"pair", []float64{1, 2}},
		{"increasing", []float64{1, 2, 3, 4, 5}},
		{"decreasing", []float64{5, 4, 3, 2, 1}},
		{"peak at endpoint", []float64{9, 1, 0}},
		{"plateau", []float64{0, 2, 2, 0}},
		{"nan", []float64{0, math.NaN(), 0}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := LocalMaxima(tt.series); len(got) != 0 {
				t.Errorf("got %v, want none", got)
			}
			if got := MaximaValues(tt.series); len(got) != 0 {
				t.Errorf("MaximaValues got %v, want none", got)
			}
		})
	}
}

func TestMaximaValuesMatchesLocalMaxima(t *testing.T) {
	s := make([]float64, 500)
	for i := range s {
		s[i] = math.Sin(float64(i)*0.1) + 0.3*math.Sin(float64(i)*0.37)
	}

	ext := LocalMaxima(s)
	vals := MaximaValues(s)
	if len(ext) != len(vals) {
		t.Fatalf("%d extrema vs %d values", len(ext), len(vals))
	}
	for i := range ext {
		if ext[i].Value != vals[i] || s[ext[i].Index] != vals[i] {
			t.Errorf("mismatch at %d", i)
		}
	}
}

func TestCountDistinct(t *testing.T) {
	tests := []struct {
		values []float64
		tol    float64
		want   int
	}{
		{nil, 0.1, 0},
		{[]float64{1}, 0.1, 1},
		{[]float64{1, 1.001, 0.999}, 0.01, 1},
		{[]float64{4.97, 7.07, 4.971, 7.069}, 0.05, 2},
		{[]float64{3, 1, 2}, 0.5, 3},
	}

	for _, tt := range tests {
		if got := CountDistinct(tt.values, tt.tol); got != tt.want {
			t.Errorf("CountDistinct(%v, %v) = %d, want %d", tt.values, tt.tol, got, tt.want)
		}
	}
}
