package export

import (
	"fmt"
	"math"
	"os"
	"path/filepath"
	"strings"

	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/plotutil"
	"gonum.org/v1/plot/vg"
	"gonum.org/v1/plot/vg/draw"

	"github.com/san-kum/odelab/internal/analysis"
	"github.com/san-kum/odelab/internal/dynamo"
)

// Size of exported figures in inches.
type Size struct {
	Width, Height float64
}

var DefaultSize = Size{Width: 8, Height: 6}

var formats = map[string]bool{
	".png": true, ".svg": true, ".pdf": true, ".eps": true, ".jpg": true, ".jpeg": true, ".tif": true, ".tiff": true,
}

// Formats lists the accepted file extensions.
func Formats() []string {
	return []string{"png", "svg", "pdf", "eps", "jpg", "tiff"}
}

// TimeSeries plots every variable of r against time, one line each.
func TimeSeries(r *dynamo.Result, vars []string, title, path string, size Size) error {
	if r.Len() == 0 {
		return fmt.Errorf("export: empty result")
	}
	if len(vars) != r.Dim() {
		return fmt.Errorf("export: %d variable names for %d series", len(vars), r.Dim())
	}

	p := newPlot(title, "t", "")
	for j, series := range r.Series {
		line, err := plotter.NewLine(xys(r.Time, series))
		if err != nil {
			return fmt.Errorf("export %s: %w", vars[j], err)
		}
		line.LineStyle.Width = vg.Points(1.5)
		line.LineStyle.Color = plotutil.Color(j)
		p.Add(line)
		p.Legend.Add(vars[j], line)
	}
	p.Legend.Top = true
	return save(p, path, size)
}

// PhasePortrait draws the portrait as a connected curve.
func PhasePortrait(pp *analysis.PhasePortrait2D, xLabel, yLabel, title, path string, size Size) error {
	if len(pp.Points) == 0 {
		return fmt.Errorf("export: empty phase portrait")
	}

	pts := make(plotter.XYs, len(pp.Points))
	for i, pt := range pp.Points {
		pts[i].X, pts[i].Y = pt.X, pt.Y
	}
	line, err := plotter.NewLine(pts)
	if err != nil {
		return fmt.Errorf("export phase portrait: %w", err)
	}
	line.LineStyle.Width = vg.Points(1)
	line.LineStyle.Color = plotutil.Color(0)

	p := newPlot(title, xLabel, yLabel)
	p.Add(line)
	return save(p, path, size)
}

// Bifurcation draws one small dot per recorded maximum.
func Bifurcation(points []analysis.BifurcationPoint, param, observe, title, path string, size Size) error {
	if len(points) == 0 {
		return fmt.Errorf("export: no bifurcation points")
	}

	pts := make(plotter.XYs, len(points))
	for i, bp := range points {
		pts[i].X, pts[i].Y = bp.Param, bp.Value
	}
	sc, err := plotter.NewScatter(pts)
	if err != nil {
		return fmt.Errorf("export bifurcation: %w", err)
	}
	sc.GlyphStyle.Shape = draw.CircleGlyph{}
	sc.GlyphStyle.Radius = vg.Points(0.6)
	sc.GlyphStyle.Color = plotutil.Color(0)

	p := newPlot(title, param, "max "+observe)
	p.Add(sc)
	return save(p, path, size)
}

// Spectrum plots power against frequency on a log scale, skipping the DC bin.
func Spectrum(s analysis.Spectrum, maxFreq float64, title, path string, size Size) error {
	pts := make(plotter.XYs, 0, len(s.Freq))
	for i := 1; i < len(s.Freq); i++ {
		if maxFreq > 0 && s.Freq[i] > maxFreq {
			break
		}
		if s.Power[i] <= 0 {
			continue
		}
		pts = append(pts, plotter.XY{X: s.Freq[i], Y: s.Power[i]})
	}
	if len(pts) < 2 {
		return fmt.Errorf("export: spectrum has fewer than two positive bins")
	}

	line, err := plotter.NewLine(pts)
	if err != nil {
		return fmt.Errorf("export spectrum: %w", err)
	}
	line.LineStyle.Color = plotutil.Color(1)

	p := newPlot(title, "frequency", "power")
	p.Y.Scale = plot.LogScale{}
	p.Y.Tick.Marker = plot.LogTicks{Prec: -1}
	p.Add(line)
	return save(p, path, size)
}

func xys(xs, ys []float64) plotter.XYs {
	pts := make(plotter.XYs, len(xs))
	for i := range xs {
		pts[i].X, pts[i].Y = xs[i], ys[i]
	}
	return pts
}

func newPlot(title, xLabel, yLabel string) *plot.Plot {
	p := plot.New()
	p.Title.Text = title
	p.X.Label.Text = xLabel
	p.Y.Label.Text = yLabel
	stylePlot(p)
	p.Add(plotter.NewGrid())
	return p
}

func stylePlot(p *plot.Plot) {
	p.Title.TextStyle.Font.Size = vg.Points(16)
	p.Title.Padding = vg.Points(8)

	p.X.Label.TextStyle.Font.Size = vg.Points(13)
	p.Y.Label.TextStyle.Font.Size = vg.Points(13)
	p.X.Label.Padding = vg.Points(6)
	p.Y.Label.Padding = vg.Points(6)

	p.X.Tick.Label.Font.Size = vg.Points(11)
	p.Y.Tick.Label.Font.Size = vg.Points(11)

	p.X.Tick.Marker = limitedTicker(8, "%.3g")
	p.Y.Tick.Marker = limitedTicker(8, "%.3g")
}

func limitedTicker(maxLabels int, labelFmt string) plot.Ticker {
	if maxLabels < 2 {
		maxLabels = 2
	}
	return plot.TickerFunc(func(lo, hi float64) []plot.Tick {
		if math.IsNaN(lo) || math.IsNaN(hi) || math.IsInf(lo, 0) || math.IsInf(hi, 0) {
			return nil
		}
		if lo == hi {
			return []plot.Tick{{Value: lo, Label: fmt.Sprintf(labelFmt, lo)}}
		}
		step := (hi - lo) / float64(maxLabels-1)
		ticks := make([]plot.Tick, 0, maxLabels)
		for i := 0; i < maxLabels; i++ {
			v := lo + float64(i)*step
			ticks = append(ticks, plot.Tick{Value: v, Label: fmt.Sprintf(labelFmt, v)})
		}
		return ticks
	})
}

// save picks the backend from the file extension.
func save(p *plot.Plot, path string, size Size) error {
	ext := strings.ToLower(filepath.Ext(path))
	if !formats[ext] {
		return fmt.Errorf("export: unsupported format %q (want one of %v)", ext, Formats())
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("export: cannot create directory: %w", err)
	}
	w := vg.Length(size.Width) * vg.Inch
	h := vg.Length(size.Height) * vg.Inch
	if err := p.Save(w, h, path); err != nil {
		return fmt.Errorf("export %s: %w", path, err)
	}
	return nil
}
