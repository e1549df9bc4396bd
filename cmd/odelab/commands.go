package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"strings"
	"text/tabwriter"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/san-kum/odelab/internal/analysis"
	"github.com/san-kum/odelab/internal/automation"
	"github.com/san-kum/odelab/internal/config"
	"github.com/san-kum/odelab/internal/dynamo"
	"github.com/san-kum/odelab/internal/experiment"
	"github.com/san-kum/odelab/internal/export"
	"github.com/san-kum/odelab/internal/metrics"
	"github.com/san-kum/odelab/internal/storage"
	"github.com/san-kum/odelab/internal/viz"
)

const chaosThreshold = 0.01

func newExperiment(cmd *cobra.Command, args []string) (*experiment.Experiment, *experiment.Registry, error) {
	cfg, err := loadConfig(cmd, args)
	if err != nil {
		return nil, nil, err
	}
	reg := experiment.NewRegistry()
	exp, err := experiment.New(reg, cfg)
	if err != nil {
		return nil, nil, err
	}
	return exp, reg, nil
}

func plotSize(cmd *cobra.Command) (int, int) {
	w, _ := cmd.Flags().GetInt("width")
	h, _ := cmd.Flags().GetInt("height")
	return w, h
}

func runSimulation(cmd *cobra.Command, args []string) error {
	exp, _, err := newExperiment(cmd, args)
	if err != nil {
		return err
	}
	sys := exp.System()

	fmt.Printf("running %s (%s, step %g, t_end %g)...\n", sys.Name, exp.Config().Integrator, exp.Settings().StepSize, exp.Settings().TEnd)
	ms := exp.Metrics()
	observers := make([]dynamo.Observer, len(ms))
	for i, m := range ms {
		observers[i] = m
	}
	start := time.Now()
	result, err := exp.Run(cmd.Context(), observers...)
	if err != nil {
		return err
	}
	elapsed := time.Since(start)
	logger.Debug("simulation finished",
		zap.String("system", sys.Name),
		zap.Int("samples", result.Len()),
		zap.Duration("elapsed", elapsed))

	summary, err := automation.Summaries(result, sys.Vars, exp.Settings().Transient)
	if err != nil {
		return err
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "VAR\tMIN\tMAX\tMEAN\tSTDDEV\tMEDIAN")
	for _, name := range sys.Vars {
		s := summary[name]
		fmt.Fprintf(w, "%s\t%.6g\t%.6g\t%.6g\t%.6g\t%.6g\n", name, s.Min, s.Max, s.Mean, s.StdDev, s.Median)
	}
	if err := w.Flush(); err != nil {
		return err
	}

	fmt.Printf("\ncompleted in %v\n", elapsed)
	fmt.Printf("samples: %d\n", result.Len())

	values := make(map[string]float64, len(ms))
	for _, m := range ms {
		if v := m.Value(); !math.IsNaN(v) && !math.IsInf(v, 0) {
			values[m.Name()] = v
		}
		fmt.Println(viz.Metric(m.Name(), m.Value()))
		if s, ok := m.(*metrics.Stability); ok {
			if t, blown := s.Blowup(); blown {
				logger.Warn("state diverged", zap.Float64("t", t))
				fmt.Println(viz.StatusFailed.Render(fmt.Sprintf("state became non-finite at t=%g", t)))
			}
		}
	}

	if ensemble > 0 {
		if err := printEnsemble(cmd.Context(), exp); err != nil {
			return err
		}
	}

	if noSave {
		return nil
	}
	st, err := openStore()
	if err != nil {
		return err
	}
	meta := automation.Metadata(exp)
	meta.Summary = summary
	meta.Metrics = values
	runID, err := st.Save(meta, result)
	if err != nil {
		return err
	}
	logger.Info("stored run", zap.String("id", runID), zap.String("dir", st.Dir()))
	fmt.Printf("run id: %s\n", runID)
	return nil
}

func printEnsemble(ctx context.Context, exp *experiment.Experiment) error {
	results, err := exp.RunEnsemble(ctx, ensemble, spread)
	if err != nil {
		return err
	}
	base := results[0].Final()
	fmt.Printf("\nensemble of %d (spread %g):\n", ensemble, spread)
	for i, r := range results {
		final := r.Final()
		fmt.Printf("  %2d  start %+.6g  final distance %.6g\n", i, r.Series[0][0], final.Sub(base).Norm())
	}
	return nil
}

func phasePlot(cmd *cobra.Command, args []string) error {
	exp, _, err := newExperiment(cmd, args)
	if err != nil {
		return err
	}
	result, err := exp.Run(cmd.Context())
	if err != nil {
		return err
	}
	pp, err := exp.PhasePortrait(result)
	if err != nil {
		return err
	}

	sys := exp.System()
	xName, yName := sys.Vars[pp.XIndex], sys.Vars[pp.YIndex]
	w, h := plotSize(cmd)

	fmt.Println(viz.Title.Render(fmt.Sprintf("%s phase portrait", sys.Name)))
	fmt.Printf("%d of %d samples after t=%g\n\n", len(pp.Points), result.Len(), exp.Settings().Transient)
	fmt.Print(viz.PhasePlot(pp.Points, xName, yName, w, h))

	if section != "" {
		idx, err := sys.VarIndex(section)
		if err != nil {
			return err
		}
		trimmed := analysis.TrimTransient(result, exp.Settings().Transient)
		points, err := analysis.PoincareSection(trimmed, idx, level, pp.XIndex, pp.YIndex)
		if err != nil {
			return err
		}
		fmt.Printf("\npoincare section %s = %g: %d crossings\n\n", section, level, len(points))
		fmt.Print(viz.PhasePlot(points, xName, yName, w, h/2))
	}

	if outFile != "" {
		title := fmt.Sprintf("%s: %s vs %s", sys.Name, yName, xName)
		if err := export.PhasePortrait(pp, xName, yName, title, outFile, export.DefaultSize); err != nil {
			return err
		}
		fmt.Printf("\nwrote %s\n", outFile)
	}
	return nil
}

func runSweep(cmd *cobra.Command, args []string) error {
	exp, _, err := newExperiment(cmd, args)
	if err != nil {
		return err
	}
	spec, err := exp.SweepSpec()
	if err != nil {
		return err
	}
	sys := exp.System()
	total := spec.Steps + 1
	observeName := sys.Vars[spec.Observe]

	logger.Debug("starting sweep",
		zap.String("system", sys.Name),
		zap.String("param", spec.Param),
		zap.Float64("min", spec.Min),
		zap.Float64("max", spec.Max),
		zap.Int("points", total))

	start := time.Now()
	var points []analysis.BifurcationPoint
	if useTUI {
		points, err = sweepWithProgress(cmd.Context(), exp, fmt.Sprintf("%s: sweeping %s", sys.Name, spec.Param), total)
	} else {
		points, err = exp.Sweep(cmd.Context(), analysis.WithProgress(func(done, total int) {
			logger.Debug("sweep progress", zap.Int("done", done), zap.Int("total", total))
		}))
	}
	if err != nil {
		var se *analysis.SweepError
		if errors.As(err, &se) {
			logger.Error("sweep aborted", zap.Int("index", se.Index), zap.Float64("value", se.Value), zap.Error(se.Err))
		}
		return err
	}
	logger.Info("sweep finished", zap.Int("points", len(points)), zap.Duration("elapsed", time.Since(start)))

	w, h := plotSize(cmd)
	fmt.Println(viz.Title.Render(fmt.Sprintf("%s bifurcation diagram", sys.Name)))
	fmt.Printf("%s in [%g, %g], %d runs, %d maxima of %s\n\n", spec.Param, spec.Min, spec.Max, total, len(points), observeName)
	if len(points) == 0 {
		fmt.Println("no maxima recorded; every run settled to a fixed point")
	} else {
		fmt.Print(viz.BifurcationPlot(points, spec.Param, observeName, w, h))
	}

	if outFile != "" && len(points) > 0 {
		title := fmt.Sprintf("%s: maxima of %s vs %s", sys.Name, observeName, spec.Param)
		if err := export.Bifurcation(points, spec.Param, observeName, title, outFile, export.DefaultSize); err != nil {
			return err
		}
		fmt.Printf("\nwrote %s\n", outFile)
	}

	if noSave {
		return nil
	}
	st, err := openStore()
	if err != nil {
		return err
	}
	runID, err := st.SaveSweep(automation.SweepMetadata(exp, spec), points)
	if err != nil {
		return err
	}
	fmt.Printf("\nrun id: %s\n", runID)
	return nil
}

// sweepWithProgress runs the sweep while a bubbletea view shows progress.
// Quitting the view cancels the sweep.
func sweepWithProgress(ctx context.Context, exp *experiment.Experiment, title string, total int) ([]analysis.BifurcationPoint, error) {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	p := tea.NewProgram(viz.NewSweepProgress(title, total))

	type outcome struct {
		points []analysis.BifurcationPoint
		err    error
	}
	results := make(chan outcome, 1)
	go func() {
		points, err := exp.Sweep(ctx, analysis.WithProgress(func(done, total int) {
			p.Send(viz.ProgressMsg{Done: done, Total: total})
		}))
		p.Send(viz.DoneMsg{Err: err})
		results <- outcome{points, err}
	}()

	final, err := p.Run()
	if err != nil {
		cancel()
		<-results
		return nil, err
	}
	if m, ok := final.(viz.SweepProgress); ok && m.Canceled() {
		cancel()
	}
	res := <-results
	return res.points, res.err
}

func lyapunov(cmd *cobra.Command, args []string) error {
	exp, _, err := newExperiment(cmd, args)
	if err != nil {
		return err
	}

	start := time.Now()
	lambda, err := exp.Lyapunov(cmd.Context())
	if err != nil {
		return err
	}
	logger.Debug("lyapunov estimate", zap.Float64("lambda", lambda), zap.Duration("elapsed", time.Since(start)))

	fmt.Printf("system: %s\n", exp.System().Name)
	fmt.Println(viz.Metric("lambda", lambda))
	switch {
	case lambda > chaosThreshold:
		fmt.Println(viz.StatusFailed.Render("chaotic"))
	case lambda < -chaosThreshold:
		fmt.Println(viz.StatusDone.Render("stable"))
	default:
		fmt.Println(viz.Subtle.Render("marginal (periodic or quasi-periodic)"))
	}
	return nil
}

func compareIntegrators(cmd *cobra.Command, args []string) error {
	var sysArgs []string
	names := []string{"rk4", "euler"}
	if len(args) > 0 {
		sysArgs = args[:1]
	}
	if len(args) > 1 {
		names = args[1:]
	}

	exp, reg, err := newExperiment(cmd, sysArgs)
	if err != nil {
		return err
	}
	sp := exp.Settings()

	fmt.Printf("comparing integrators for %s (step=%g, t_end=%g)\n\n", exp.System().Name, sp.StepSize, sp.TEnd)
	start := time.Now()
	results, err := exp.Compare(cmd.Context(), reg, names)
	if err != nil {
		return err
	}
	logger.Debug("comparison finished", zap.Duration("elapsed", time.Since(start)))

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "INTEGRATOR\tMAX ERROR\tFINAL ERROR\tENERGY DRIFT")
	for _, c := range results {
		drift := "-"
		if !math.IsNaN(c.EnergyDrift) {
			drift = fmt.Sprintf("%.3e", c.EnergyDrift)
		}
		fmt.Fprintf(w, "%s\t%.3e\t%.3e\t%s\n", c.Integrator, c.MaxError, c.FinalError, drift)
	}
	return w.Flush()
}

func spectrum(cmd *cobra.Command, args []string) error {
	st := storage.New(dataDir)
	meta, err := st.Load(args[0])
	if err != nil {
		return err
	}
	if meta.Kind != storage.KindRun {
		return fmt.Errorf("run %s is a %s, not a trajectory", meta.ID, meta.Kind)
	}
	result, err := st.LoadResult(meta.ID)
	if err != nil {
		return err
	}

	idx := 0
	if plotVar != "" {
		idx = indexOf(meta.Vars, plotVar)
		if idx < 0 {
			return fmt.Errorf("run %s has no variable %q", meta.ID, plotVar)
		}
	}
	trimmed := analysis.TrimTransient(result, meta.Transient)
	s := analysis.PowerSpectrum(trimmed.Series[idx], meta.Step)
	if len(s.Freq) == 0 {
		return fmt.Errorf("run %s is too short for a spectrum", meta.ID)
	}

	fmt.Printf("frequency analysis: %s\n", meta.ID)
	fmt.Printf("system: %s\n\n", meta.System)
	fmt.Println(viz.SpectrumPlot(s, maxFreq, fmt.Sprintf("power spectrum (%s)", meta.Vars[idx]), 80, 15))
	fmt.Println()

	freq := s.DominantFrequency()
	fmt.Printf("dominant frequency: %.4g\n", freq)
	if freq > 0 {
		fmt.Printf("period: %.4g\n", 1.0/freq)
	}

	if outFile != "" {
		title := fmt.Sprintf("%s: spectrum of %s", meta.System, meta.Vars[idx])
		if err := export.Spectrum(s, maxFreq, title, outFile, export.DefaultSize); err != nil {
			return err
		}
		fmt.Printf("wrote %s\n", outFile)
	}
	return nil
}

func listRuns(cmd *cobra.Command, args []string) error {
	st := storage.New(dataDir)
	runs, err := st.List()
	if err != nil {
		return err
	}

	if len(runs) == 0 {
		fmt.Println("no runs found")
		return nil
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tKIND\tSYSTEM\tTIME\tT_END\tSTEP\tINTEG\tDETAIL")
	for _, run := range runs {
		detail := fmt.Sprintf("%d samples", run.Samples)
		if run.Sweep != nil {
			detail = fmt.Sprintf("%s [%g, %g], %d points", run.Sweep.Param, run.Sweep.Min, run.Sweep.Max, run.Sweep.Points)
		}
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%g\t%g\t%s\t%s\n",
			run.ID,
			run.Kind,
			run.System,
			run.Timestamp.Format("2006-01-02 15:04:05"),
			run.TEnd,
			run.Step,
			run.Integrator,
			detail,
		)
	}
	return w.Flush()
}

func plotRun(cmd *cobra.Command, args []string) error {
	st := storage.New(dataDir)
	meta, err := st.Load(args[0])
	if err != nil {
		return err
	}
	w, h := plotSize(cmd)

	fmt.Printf("run: %s\n", meta.ID)
	fmt.Printf("system: %s\n\n", meta.System)

	if meta.Kind == storage.KindSweep {
		points, err := st.LoadSweep(meta.ID)
		if err != nil {
			return err
		}
		if len(points) == 0 {
			fmt.Println("no maxima recorded")
			return nil
		}
		fmt.Print(viz.BifurcationPlot(points, meta.Sweep.Param, meta.Sweep.Observe, w, h*2))
		return nil
	}

	result, err := st.LoadResult(meta.ID)
	if err != nil {
		return err
	}
	fmt.Printf("samples: %d\n\n", result.Len())

	const maxPlots = 6
	for j, series := range result.Series {
		if j == maxPlots {
			break
		}
		fmt.Println(viz.TimeSeries(series, fmt.Sprintf("%s vs time", meta.Vars[j]), w, h))
		fmt.Println()
	}
	return nil
}

func exportRun(cmd *cobra.Command, args []string) error {
	st := storage.New(dataDir)
	meta, err := st.Load(args[0])
	if err != nil {
		return err
	}

	ext := strings.ToLower(filepath.Ext(outFile))
	if meta.Kind == storage.KindSweep {
		points, err := st.LoadSweep(meta.ID)
		if err != nil {
			return err
		}
		if outFile == "" || ext == ".json" {
			return writeJSON(outFile, struct {
				*storage.RunMetadata
				Points []analysis.BifurcationPoint `json:"points"`
			}{meta, points})
		}
		title := fmt.Sprintf("%s: maxima of %s vs %s", meta.System, meta.Sweep.Observe, meta.Sweep.Param)
		return export.Bifurcation(points, meta.Sweep.Param, meta.Sweep.Observe, title, outFile, export.DefaultSize)
	}

	result, err := st.LoadResult(meta.ID)
	if err != nil {
		return err
	}
	switch {
	case outFile == "":
		return storage.WriteJSON(os.Stdout, meta, result)
	case ext == ".json":
		return storage.ExportJSON(outFile, meta, result)
	case phaseView:
		x, y := 0, min(1, len(meta.Vars)-1)
		if xVar != "" {
			if x = indexOf(meta.Vars, xVar); x < 0 {
				return fmt.Errorf("run %s has no variable %q", meta.ID, xVar)
			}
		}
		if yVar != "" {
			if y = indexOf(meta.Vars, yVar); y < 0 {
				return fmt.Errorf("run %s has no variable %q", meta.ID, yVar)
			}
		}
		pp, err := analysis.GeneratePhasePortrait(result, x, y, meta.Transient, maxPoints)
		if err != nil {
			return err
		}
		title := fmt.Sprintf("%s: %s vs %s", meta.System, meta.Vars[y], meta.Vars[x])
		return export.PhasePortrait(pp, meta.Vars[x], meta.Vars[y], title, outFile, export.DefaultSize)
	default:
		return export.TimeSeries(result, meta.Vars, meta.System, outFile, export.DefaultSize)
	}
}

func writeJSON(path string, v any) error {
	out := os.Stdout
	if path != "" {
		f, err := os.Create(path)
		if err != nil {
			return err
		}
		defer f.Close()
		out = f
	}
	enc := json.NewEncoder(out)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func listSystems(cmd *cobra.Command, args []string) error {
	reg := experiment.NewRegistry()
	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "SYSTEM\tVARS\tPARAMS\tDESCRIPTION")
	for _, name := range reg.ListSystems() {
		sys, err := reg.GetSystem(name)
		if err != nil {
			return err
		}
		params := make([]string, 0, len(sys.Params))
		for _, p := range sys.Params.Names() {
			params = append(params, fmt.Sprintf("%s=%g", p, sys.Params[p]))
		}
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\n", name, strings.Join(sys.Vars, ","), strings.Join(params, " "), sys.Description)
	}
	fmt.Fprintf(w, "\nintegrators: %s\n", strings.Join(reg.ListIntegrators(), ", "))
	return w.Flush()
}

func listPresets(cmd *cobra.Command, args []string) error {
	systems := experiment.NewRegistry().ListSystems()
	if len(args) > 0 {
		systems = args
	}
	for _, name := range systems {
		presets := config.ListPresets(name)
		if len(presets) == 0 {
			if len(args) > 0 {
				fmt.Printf("no presets for system: %s\n", name)
			}
			continue
		}
		fmt.Printf("presets for %s:\n", name)
		for _, p := range presets {
			cfg := config.GetPreset(name, p)
			detail := fmt.Sprintf("t_end=%g step=%g", cfg.TEnd, cfg.Step)
			if cfg.Sweep.Param != "" {
				detail += fmt.Sprintf(" sweep %s [%g, %g]", cfg.Sweep.Param, cfg.Sweep.Min, cfg.Sweep.Max)
			}
			fmt.Printf("  %-12s %s\n", p, viz.Subtle.Render(detail))
		}
	}
	return nil
}

func indexOf(names []string, name string) int {
	for i, n := range names {
		if n == name {
			return i
		}
	}
	return -1
}

func runScenario(cmd *cobra.Command, args []string) error {
	scenario, err := automation.LoadScenario(args[0])
	if err != nil {
		return err
	}
	var st *storage.Store
	if !noSave {
		if st, err = openStore(); err != nil {
			return err
		}
	}

	if scenario.Name != "" {
		fmt.Println(viz.Title.Render(scenario.Name))
	}
	if scenario.Description != "" {
		fmt.Println(viz.Subtle.Render(scenario.Description))
	}

	start := time.Now()
	outcomes, err := automation.NewRunner(experiment.NewRegistry(), st, logger).Run(cmd.Context(), scenario)

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "STEP\tKIND\tSAMPLES\tPOINTS\tRUN ID")
	for _, o := range outcomes {
		id := o.RunID
		if id == "" {
			id = "-"
		}
		fmt.Fprintf(w, "%s\t%s\t%d\t%d\t%s\n", o.Step, o.Kind, o.Samples, o.Points, id)
	}
	if ferr := w.Flush(); ferr != nil && err == nil {
		err = ferr
	}
	if err != nil {
		fmt.Println(viz.StatusFailed.Render(fmt.Sprintf("stopped after %d of %d steps", len(outcomes), len(scenario.Steps))))
		return err
	}
	fmt.Println(viz.StatusDone.Render(fmt.Sprintf("%d steps in %v", len(outcomes), time.Since(start).Round(time.Millisecond))))
	return nil
}
