package viz

import (
	"fmt"
	"strings"

	"github.com/guptarohit/asciigraph"
	"gonum.org/v1/gonum/floats"

	"github.com/san-kum/odelab/internal/analysis"
)

// PhasePlot draws points as a braille scatter framed with axis ranges.
// Consecutive points are joined so sparse trajectories still read as curves.
// Non-finite points are skipped and break the curve.
func PhasePlot(points []analysis.Point, xLabel, yLabel string, width, height int) string {
	if len(points) == 0 || width <= 0 || height <= 0 {
		return ""
	}

	xs := make([]float64, len(points))
	ys := make([]float64, len(points))
	for i, p := range points {
		xs[i], ys[i] = p.X, p.Y
	}
	b, ok := boundsOf(xs, ys)
	if !ok {
		return ""
	}

	c := NewCanvas(width, height)
	var x0, y0 int
	joined := false
	for _, p := range points {
		x1, y1, ok := c.Dot(b, p.X, p.Y)
		switch {
		case !ok:
			joined = false
			continue
		case joined:
			c.DrawLine(x0, y0, x1, y1)
		default:
			c.Set(x1, y1)
		}
		x0, y0, joined = x1, y1, true
	}

	return frame(c, b, xLabel, yLabel)
}

// BifurcationPlot draws every (param, maximum) pair as a single dot.
func BifurcationPlot(points []analysis.BifurcationPoint, param, observe string, width, height int) string {
	if len(points) == 0 || width <= 0 || height <= 0 {
		return ""
	}

	xs := make([]float64, len(points))
	ys := make([]float64, len(points))
	for i, p := range points {
		xs[i], ys[i] = p.Param, p.Value
	}
	b, ok := boundsOf(xs, ys)
	if !ok {
		return ""
	}

	c := NewCanvas(width, height)
	for i := range xs {
		c.Plot(b, xs[i], ys[i])
	}
	return frame(c, b, param, "max "+observe)
}

// TimeSeries renders one variable against sample index.
func TimeSeries(data []float64, caption string, width, height int) string {
	if len(data) == 0 {
		return ""
	}
	return asciigraph.Plot(data,
		asciigraph.Height(height),
		asciigraph.Width(width),
		asciigraph.Caption(caption),
	)
}

// SpectrumPlot renders the power spectrum up to maxFreq; maxFreq <= 0 keeps
// every bin.
func SpectrumPlot(s analysis.Spectrum, maxFreq float64, caption string, width, height int) string {
	n := len(s.Power)
	if maxFreq > 0 {
		n = 0
		for n < len(s.Freq) && s.Freq[n] <= maxFreq {
			n++
		}
	}
	if n < 2 {
		return ""
	}
	return asciigraph.Plot(s.Power[:n],
		asciigraph.Height(height),
		asciigraph.Width(width),
		asciigraph.Caption(caption),
	)
}

// boundsOf spans the pairs whose coordinates are both finite. ok is false
// when there are none.
func boundsOf(xs, ys []float64) (Bounds, bool) {
	fx := make([]float64, 0, len(xs))
	fy := make([]float64, 0, len(ys))
	for i := range xs {
		if finite(xs[i]) && finite(ys[i]) {
			fx = append(fx, xs[i])
			fy = append(fy, ys[i])
		}
	}
	if len(fx) == 0 {
		return Bounds{}, false
	}
	return Bounds{
		XMin: floats.Min(fx), XMax: floats.Max(fx),
		YMin: floats.Min(fy), YMax: floats.Max(fy),
	}.Pad(), true
}

func frame(c *Canvas, b Bounds, xLabel, yLabel string) string {
	var sb strings.Builder
	rule := strings.Repeat("─", c.Width)

	fmt.Fprintf(&sb, "%10s\n", Subtle.Render(yLabel))
	fmt.Fprintf(&sb, "%10.3g ┌%s┐\n", b.YMax, rule)
	for i, row := range c.Grid {
		label := strings.Repeat(" ", 10)
		if i == len(c.Grid)/2 {
			label = fmt.Sprintf("%10.3g", (b.YMax+b.YMin)/2)
		}
		fmt.Fprintf(&sb, "%s │%s│\n", label, string(row))
	}
	fmt.Fprintf(&sb, "%10.3g └%s┘\n", b.YMin, rule)

	left := fmt.Sprintf("%.3g", b.XMin)
	right := fmt.Sprintf("%.3g", b.XMax)
	gap := c.Width - len(left) - len(right) + 2
	if gap < 1 {
		gap = 1
	}
	fmt.Fprintf(&sb, "%s %s%s%s\n", strings.Repeat(" ", 10), left, strings.Repeat(" ", gap), right)
	fmt.Fprintf(&sb, "%s %s\n", strings.Repeat(" ", 10), Subtle.Render(xLabel))
	return sb.String()
}
