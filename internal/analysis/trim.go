package analysis

import (
	"sort"

	"github.com/san-kum/odelab/internal/dynamo"
)

// TrimTransient returns the samples of r taken at or after
// r.Time[0]+transient. The returned result shares storage with r.
func TrimTransient(r *dynamo.Result, transient float64) *dynamo.Result {
	if r == nil || r.Len() == 0 || transient <= 0 {
		return r
	}

	cutoff := r.Time[0] + transient
	n := r.Len()
	k := sort.Search(n, func(i int) bool { return r.Time[i] >= cutoff })

	out := &dynamo.Result{
		Time:   r.Time[k:n:n],
		Series: make([][]float64, len(r.Series)),
	}
	for j, s := range r.Series {
		out.Series[j] = s[k:n:n]
	}
	return out
}
