package viz

import (
	"math"
	"strings"
)

// Each braille cell holds a 2x4 block of dots:
// 1 4
// 2 5
// 3 6
// 7 8
const brailleBlank rune = 0x2800

var pixelMap = [4][2]int{
	{0x1, 0x8},
	{0x2, 0x10},
	{0x4, 0x20},
	{0x40, 0x80},
}

type Canvas struct {
	Width, Height int
	Grid          [][]rune
}

func NewCanvas(w, h int) *Canvas {
	c := &Canvas{
		Width:  w,
		Height: h,
		Grid:   make([][]rune, h),
	}
	for i := range c.Grid {
		c.Grid[i] = make([]rune, w)
		for j := range c.Grid[i] {
			c.Grid[i][j] = brailleBlank
		}
	}
	return c
}

// Set turns on the dot at sub-pixel (x, y). The canvas is Width*2 dots wide
// and Height*4 dots tall, y growing downwards.
func (c *Canvas) Set(x, y int) {
	if x < 0 || y < 0 {
		return
	}

	col := x / 2
	row := y / 4
	if col >= c.Width || row >= c.Height {
		return
	}

	subX := x % 2
	subY := y % 4

	c.Grid[row][col] |= rune(pixelMap[subY][subX])
}

// DrawLine joins two dots with Bresenham's algorithm.
func (c *Canvas) DrawLine(x0, y0, x1, y1 int) {
	dx := absInt(x1 - x0)
	dy := absInt(y1 - y0)
	sx := -1
	if x0 < x1 {
		sx = 1
	}
	sy := -1
	if y0 < y1 {
		sy = 1
	}
	err := dx - dy

	for {
		c.Set(x0, y0)
		if x0 == x1 && y0 == y1 {
			break
		}
		e2 := 2 * err
		if e2 > -dy {
			err -= dy
			x0 += sx
		}
		if e2 < dx {
			err += dx
			y0 += sy
		}
	}
}

func (c *Canvas) String() string {
	var b strings.Builder
	for _, row := range c.Grid {
		b.WriteString(string(row) + "\n")
	}
	return b.String()
}

func absInt(x int) int {
	if x < 0 {
		return -x
	}
	return x
}

// Dots returns the canvas size in sub-pixels.
func (c *Canvas) Dots() (int, int) { return c.Width * 2, c.Height * 4 }

// Bounds maps data coordinates onto the dot grid of a canvas.
type Bounds struct {
	XMin, XMax float64
	YMin, YMax float64
}

// Pad widens degenerate ranges so a constant series still gets plotted.
func (b Bounds) Pad() Bounds {
	if b.XMax == b.XMin {
		b.XMin, b.XMax = b.XMin-0.5, b.XMax+0.5
	}
	if b.YMax == b.YMin {
		b.YMin, b.YMax = b.YMin-0.5, b.YMax+0.5
	}
	return b
}

// Dot maps (x, y) to the nearest sub-pixel, flipping y so larger values sit
// higher. The result is clamped to the canvas; ok is false for non-finite
// input.
func (c *Canvas) Dot(b Bounds, x, y float64) (px, py int, ok bool) {
	fx := (x - b.XMin) / (b.XMax - b.XMin)
	fy := (y - b.YMin) / (b.YMax - b.YMin)
	if !finite(fx) || !finite(fy) {
		return 0, 0, false
	}
	w, h := c.Dots()
	px = int(math.Round(clamp01(fx) * float64(w-1)))
	py = h - 1 - int(math.Round(clamp01(fy)*float64(h-1)))
	return px, py, true
}

// Plot sets the dot nearest to (x, y). Non-finite points are ignored.
func (c *Canvas) Plot(b Bounds, x, y float64) {
	if px, py, ok := c.Dot(b, x, y); ok {
		c.Set(px, py)
	}
}

func finite(v float64) bool { return !math.IsNaN(v) && !math.IsInf(v, 0) }

func clamp01(v float64) float64 { return math.Max(0, math.Min(1, v)) }
