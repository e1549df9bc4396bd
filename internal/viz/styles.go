package viz

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"
)

var (
	Title = lipgloss.NewStyle().
		Bold(true).
		Foreground(lipgloss.Color("#00ffff"))

	Subtle = lipgloss.NewStyle().
		Foreground(lipgloss.Color("#666688"))

	MetricValue = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#00ccff")).
			Bold(true)

	MetricLabel = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#888899"))

	StatusDone = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("#00ff88"))

	StatusFailed = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("#ff4444"))

	HeaderStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("#ffffff")).
			BorderStyle(lipgloss.NormalBorder()).
			BorderBottom(true).
			BorderForeground(lipgloss.Color("#444466"))

	Panel = lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(lipgloss.Color("#444466")).
		Padding(0, 1)

	barHigh = lipgloss.NewStyle().Foreground(lipgloss.Color("#00ff88"))
	barMid  = lipgloss.NewStyle().Foreground(lipgloss.Color("#ffcc00"))
	barLow  = lipgloss.NewStyle().Foreground(lipgloss.Color("#ff4444"))
)

// Metric renders an aligned "label value" line.
func Metric(label string, value float64) string {
	return MetricLabel.Render(fmt.Sprintf("%-10s", label)) + " " + MetricValue.Render(fmt.Sprintf("%12.6g", value))
}

// ProgressBar renders a bar of the given width, percent in [0, 1].
func ProgressBar(percent float64, width int) string {
	filled := int(percent * float64(width))
	if filled > width {
		filled = width
	}
	if filled < 0 {
		filled = 0
	}

	bar := strings.Repeat("█", filled) + strings.Repeat("░", width-filled)

	switch {
	case percent > 0.8:
		return barHigh.Render(bar)
	case percent > 0.4:
		return barMid.Render(bar)
	}
	return barLow.Render(bar)
}

func Separator(width int) string {
	mid := width / 2
	left := strings.Repeat("─", max(mid-3, 0))
	right := strings.Repeat("─", max(width-mid-3, 0))
	return Subtle.Render(left + " ◆ " + right)
}
