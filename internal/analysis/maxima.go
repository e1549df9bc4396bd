package analysis

import "sort"

// Extremum is a local maximum of a series.
type Extremum struct {
	Index int
	Value float64
}

// LocalMaxima returns the interior samples strictly greater than both
// neighbours, in index order. Endpoints, plateaus and NaN never qualify.
func LocalMaxima(s []float64) []Extremum {
	var out []Extremum
	for j := 1; j+1 < len(s); j++ {
		if s[j] > s[j-1] && s[j] > s[j+1] {
			out = append(out, Extremum{Index: j, Value: s[j]})
		}
	}
	return out
}

// MaximaValues is LocalMaxima without the indices.
func MaximaValues(s []float64) []float64 {
	var out []float64
	for j := 1; j+1 < len(s); j++ {
		if s[j] > s[j-1] && s[j] > s[j+1] {
			out = append(out, s[j])
		}
	}
	return out
}

// CountDistinct counts clusters of values whose neighbours lie within tol
// of each other once sorted. It reads the period off a set of maxima.
func CountDistinct(values []float64, tol float64) int {
	if len(values) == 0 {
		return 0
	}
	sorted := make([]float64, len(values))
	copy(sorted, values)
	sort.Float64s(sorted)

	count := 1
	for i := 1; i < len(sorted); i++ {
		if sorted[i]-sorted[i-1] > tol {
			count++
		}
	}
	return count
}
