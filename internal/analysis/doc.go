// Package analysis turns sampled trajectories into the data behind
// phase portraits and bifurcation diagrams.
//
// Post-processing of a single run:
//
//   - [TrimTransient]: drop the leading transient of a trajectory
//   - [Downsample]: bound the number of points of a phase portrait
//   - [LocalMaxima]: interior samples above both neighbours
//   - [PoincareSection]: interpolated threshold crossings
//   - [Summarize], [PowerSpectrum]: descriptive statistics and spectra
//
// Across runs:
//
//   - [SweepParameter]: bifurcation data, one run per parameter value
//   - [LyapunovExponent]: largest Lyapunov exponent via trajectory separation
//
// # Bifurcation Diagrams
//
// Sweep points are independent and run on a bounded worker pool:
//
//	points, err := analysis.SweepParameter(ctx, f, params, spec, settings,
//		analysis.WithWorkers(4))
//	for _, g := range analysis.GroupByParam(points) {
//		period := analysis.CountDistinct(g.Values, 1e-2)
//	}
//
// Downsampling is for display only. Maxima and spectra are always computed
// on the full-resolution series.
package analysis
