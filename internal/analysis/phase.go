package analysis

import (
	"github.com/san-kum/odelab/internal/dynamo"
)

// Point is one scatter sample, serialised as {"x": .., "y": ..}.
type Point struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// PhasePortrait2D holds data for a 2D phase space plot
type PhasePortrait2D struct {
	XIndex, YIndex int
	Points         []Point
}

// Downsample keeps every stride-th pair, stride = max(1, len/maxPoints),
// starting with the first sample. maxPoints <= 0 keeps everything.
func Downsample(xs, ys []float64, maxPoints int) ([]Point, error) {
	if len(xs) != len(ys) {
		return nil, dynamo.Configf("series", "x has %d samples, y has %d", len(xs), len(ys))
	}

	stride := 1
	if maxPoints > 0 && len(xs)/maxPoints > 1 {
		stride = len(xs) / maxPoints
	}

	points := make([]Point, 0, (len(xs)+stride-1)/stride)
	for i := 0; i < len(xs); i += stride {
		points = append(points, Point{X: xs[i], Y: ys[i]})
	}
	return points, nil
}

// GeneratePhasePortrait trims the transient of r and downsamples the
// (xIdx, yIdx) projection for display.
func GeneratePhasePortrait(r *dynamo.Result, xIdx, yIdx int, transient float64, maxPoints int) (*PhasePortrait2D, error) {
	if _, err := r.Column(xIdx); err != nil {
		return nil, err
	}
	if _, err := r.Column(yIdx); err != nil {
		return nil, err
	}

	trimmed := TrimTransient(r, transient)
	xs, ys := trimmed.Series[xIdx], trimmed.Series[yIdx]

	points, err := Downsample(xs, ys, maxPoints)
	if err != nil {
		return nil, err
	}
	return &PhasePortrait2D{XIndex: xIdx, YIndex: yIdx, Points: points}, nil
}

// PoincareSection records the (xIdx, yIdx) projection every time variable
// crossIdx passes threshold upwards, interpolating linearly between the two
// samples around the crossing.
func PoincareSection(r *dynamo.Result, crossIdx int, threshold float64, xIdx, yIdx int) ([]Point, error) {
	cross, err := r.Column(crossIdx)
	if err != nil {
		return nil, err
	}
	xs, err := r.Column(xIdx)
	if err != nil {
		return nil, err
	}
	ys, err := r.Column(yIdx)
	if err != nil {
		return nil, err
	}

	points := make([]Point, 0)
	for i := 1; i < len(cross); i++ {
		prev, curr := cross[i-1], cross[i]
		if !(prev < threshold && curr >= threshold) {
			continue
		}
		frac := (threshold - prev) / (curr - prev)
		points = append(points, Point{
			X: xs[i-1] + frac*(xs[i]-xs[i-1]),
			Y: ys[i-1] + frac*(ys[i]-ys[i-1]),
		})
	}
	return points, nil
}
