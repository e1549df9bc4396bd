// Package viz renders simulation output in the terminal.
//
//   - [Canvas]: braille dot canvas, 2x4 dots per cell
//   - [PhasePlot] and [BifurcationPlot]: framed braille scatter plots
//   - [TimeSeries] and [SpectrumPlot]: asciigraph line charts
//   - [SweepProgress]: Bubble Tea model fed by sweep progress callbacks
//
// Colors come from the lipgloss styles in styles.go and degrade to plain
// text when stdout is not a terminal.
package viz
