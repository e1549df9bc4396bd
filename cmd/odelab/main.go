package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/san-kum/odelab/internal/config"
	"github.com/san-kum/odelab/internal/storage"
)

var (
	dataDir    string
	configFile string
	preset     string
	verbose    bool

	// Simulation overrides
	integrator string
	step       float64
	tEnd       float64
	transient  float64
	paramArgs  []string
	initial    []float64

	// Display
	xVar      string
	yVar      string
	maxPoints int
	width     int
	height    int

	// Sweep
	sweepParam     string
	sweepMin       float64
	sweepMax       float64
	sweepSteps     int
	observe        string
	sweepTransient float64
	workers        int
	useTUI         bool

	noSave    bool
	outFile   string
	plotVar   string
	maxFreq   float64
	section   string
	level     float64
	ensemble  int
	spread    float64
	phaseView bool

	logger = zap.NewNop()
)

func main() {
	rootCmd := &cobra.Command{
		Use:           "odelab",
		Short:         "ode integration and bifurcation lab",
		SilenceUsage:  true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return setup(cmd)
		},
		PersistentPostRun: func(cmd *cobra.Command, args []string) {
			_ = logger.Sync()
		},
	}

	rootCmd.PersistentFlags().StringVar(&dataDir, "data", ".odelab", "data directory (env ODELAB_DATA)")
	rootCmd.PersistentFlags().StringVar(&configFile, "config", "", "experiment file (yaml)")
	rootCmd.PersistentFlags().StringVar(&preset, "preset", "", "use preset configuration")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "debug logging")

	runCmd := &cobra.Command{
		Use:   "run [system]",
		Short: "integrate a system and store the trajectory",
		Args:  cobra.MaximumNArgs(1),
		RunE:  runSimulation,
	}
	addSimFlags(runCmd)
	runCmd.Flags().BoolVar(&noSave, "no-save", false, "do not store the run")
	runCmd.Flags().IntVar(&ensemble, "ensemble", 0, "also run this many perturbed copies")
	runCmd.Flags().Float64Var(&spread, "spread", 1e-3, "offset between ensemble members")

	phaseCmd := &cobra.Command{
		Use:   "phase [system]",
		Short: "phase portrait after the transient",
		Args:  cobra.MaximumNArgs(1),
		RunE:  phasePlot,
	}
	addSimFlags(phaseCmd)
	addDisplayFlags(phaseCmd)
	phaseCmd.Flags().StringVar(&section, "section", "", "also draw the poincare section where this variable crosses --level")
	phaseCmd.Flags().Float64Var(&level, "level", 0, "poincare section threshold")
	phaseCmd.Flags().StringVarP(&outFile, "out", "o", "", "write the portrait to an image file")

	sweepCmd := &cobra.Command{
		Use:   "sweep [system]",
		Short: "bifurcation diagram over one parameter",
		Args:  cobra.MaximumNArgs(1),
		RunE:  runSweep,
	}
	addSimFlags(sweepCmd)
	sweepCmd.Flags().StringVar(&sweepParam, "param", "", "parameter to sweep")
	sweepCmd.Flags().Float64Var(&sweepMin, "min", 0, "sweep start")
	sweepCmd.Flags().Float64Var(&sweepMax, "max", 0, "sweep end")
	sweepCmd.Flags().IntVar(&sweepSteps, "steps", config.DefaultSweepSteps, "sweep intervals")
	sweepCmd.Flags().StringVar(&observe, "observe", "", "variable whose maxima are recorded")
	sweepCmd.Flags().Float64Var(&sweepTransient, "sweep-transient", config.DefaultSweepTransient, "time discarded from every sweep run")
	sweepCmd.Flags().IntVar(&workers, "workers", 0, "parallel sweep runs (0 = GOMAXPROCS)")
	sweepCmd.Flags().BoolVar(&useTUI, "tui", false, "show a progress view")
	sweepCmd.Flags().BoolVar(&noSave, "no-save", false, "do not store the sweep")
	sweepCmd.Flags().StringVarP(&outFile, "out", "o", "", "write the diagram to an image file")
	sweepCmd.Flags().IntVar(&width, "width", 70, "plot width in cells")
	sweepCmd.Flags().IntVar(&height, "height", 20, "plot height in cells")

	lyapunovCmd := &cobra.Command{
		Use:   "lyapunov [system]",
		Short: "largest lyapunov exponent",
		Args:  cobra.MaximumNArgs(1),
		RunE:  lyapunov,
	}
	addSimFlags(lyapunovCmd)

	compareCmd := &cobra.Command{
		Use:   "compare [system] [integrator...]",
		Short: "compare integrators against a fine-step reference",
		Args:  cobra.ArbitraryArgs,
		RunE:  compareIntegrators,
	}
	addSimFlags(compareCmd)

	spectrumCmd := &cobra.Command{
		Use:   "spectrum [run_id]",
		Short: "power spectrum of a stored run",
		Args:  cobra.ExactArgs(1),
		RunE:  spectrum,
	}
	spectrumCmd.Flags().StringVar(&plotVar, "var", "", "variable to analyse (default first)")
	spectrumCmd.Flags().Float64Var(&maxFreq, "max-freq", 0, "highest frequency shown (0 = all)")
	spectrumCmd.Flags().StringVarP(&outFile, "out", "o", "", "write the spectrum to an image file")

	listCmd := &cobra.Command{
		Use:   "list",
		Short: "list stored runs",
		RunE:  listRuns,
	}

	plotCmd := &cobra.Command{
		Use:   "plot [run_id]",
		Short: "plot a stored run",
		Args:  cobra.ExactArgs(1),
		RunE:  plotRun,
	}
	plotCmd.Flags().IntVar(&width, "width", 80, "plot width")
	plotCmd.Flags().IntVar(&height, "height", 10, "plot height")

	exportCmd := &cobra.Command{
		Use:   "export [run_id]",
		Short: "export a stored run as json or an image",
		Args:  cobra.ExactArgs(1),
		RunE:  exportRun,
	}
	exportCmd.Flags().StringVarP(&outFile, "out", "o", "", "output file; extension picks the format (json, png, svg, pdf); stdout json when empty")
	exportCmd.Flags().BoolVar(&phaseView, "phase", false, "export a phase portrait instead of the time series")
	addDisplayFlags(exportCmd)

	systemsCmd := &cobra.Command{
		Use:   "systems",
		Short: "list built-in systems",
		RunE:  listSystems,
	}

	presetsCmd := &cobra.Command{
		Use:   "presets [system]",
		Short: "list presets",
		Args:  cobra.MaximumNArgs(1),
		RunE:  listPresets,
	}

	scenarioCmd := &cobra.Command{
		Use:   "scenario [file]",
		Short: "run every step of a scenario file",
		Args:  cobra.ExactArgs(1),
		RunE:  runScenario,
	}
	scenarioCmd.Flags().BoolVar(&noSave, "no-save", false, "do not store the results")

	rootCmd.AddCommand(runCmd, phaseCmd, sweepCmd, lyapunovCmd, compareCmd, spectrumCmd,
		listCmd, plotCmd, exportCmd, systemsCmd, presetsCmd, scenarioCmd)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	err := rootCmd.ExecuteContext(ctx)
	stop()
	if err != nil {
		os.Exit(1)
	}
}

func addSimFlags(cmd *cobra.Command) {
	cmd.Flags().StringVar(&integrator, "integrator", config.DefaultIntegrator, "integrator (rk4, euler)")
	cmd.Flags().Float64Var(&step, "step", config.DefaultStep, "step size")
	cmd.Flags().Float64Var(&tEnd, "time", config.DefaultDuration, "end time")
	cmd.Flags().Float64Var(&transient, "transient", 0, "time discarded before analysis")
	cmd.Flags().StringArrayVarP(&paramArgs, "param-set", "p", nil, "parameter override name=value (repeatable)")
	cmd.Flags().Float64SliceVar(&initial, "initial", nil, "initial conditions")
}

func addDisplayFlags(cmd *cobra.Command) {
	cmd.Flags().StringVar(&xVar, "x", "", "horizontal variable")
	cmd.Flags().StringVar(&yVar, "y", "", "vertical variable")
	cmd.Flags().IntVar(&maxPoints, "max-points", config.DefaultMaxPoints, "downsample to about this many points")
	cmd.Flags().IntVar(&width, "width", 70, "plot width in cells")
	cmd.Flags().IntVar(&height, "height", 20, "plot height in cells")
}

func setup(cmd *cobra.Command) error {
	if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("load .env: %w", err)
	}

	if verbose {
		l, err := zap.NewDevelopment()
		if err != nil {
			return err
		}
		logger = l
	}

	if env := os.Getenv("ODELAB_DATA"); env != "" && !cmd.Flags().Changed("data") {
		dataDir = env
	}
	logger.Debug("data directory", zap.String("dir", dataDir))
	return nil
}

func openStore() (*storage.Store, error) {
	st := storage.New(dataDir)
	if err := st.Init(); err != nil {
		return nil, err
	}
	return st, nil
}

// loadConfig layers defaults, the experiment file, a preset and finally any
// flags set on the command line.
func loadConfig(cmd *cobra.Command, args []string) (*config.Config, error) {
	cfg := config.DefaultConfig()
	if configFile != "" {
		loaded, err := config.Load(configFile)
		if err != nil {
			return nil, fmt.Errorf("failed to load config: %w", err)
		}
		cfg = loaded
		logger.Debug("loaded config", zap.String("path", configFile), zap.String("system", cfg.System))
	}

	if len(args) > 0 && args[0] != cfg.System {
		cfg.System = args[0]
		cfg.Params = nil
		cfg.Initial = nil
	}

	if preset != "" {
		p := config.GetPreset(cfg.System, preset)
		if p == nil {
			return nil, fmt.Errorf("unknown preset: %s (available: %v)", preset, config.ListPresets(cfg.System))
		}
		cfg = p
	}

	flags := cmd.Flags()
	changed := func(name string) bool { return flags.Lookup(name) != nil && flags.Changed(name) }

	if changed("integrator") {
		cfg.Integrator = integrator
	}
	if changed("step") {
		cfg.Step = step
	}
	if changed("time") {
		cfg.TEnd = tEnd
	}
	if changed("transient") {
		cfg.Transient = transient
	}
	if changed("initial") {
		cfg.Initial = initial
	}
	if changed("param-set") {
		if cfg.Params == nil {
			cfg.Params = make(map[string]float64)
		}
		for _, kv := range paramArgs {
			name, value, err := parseParam(kv)
			if err != nil {
				return nil, err
			}
			cfg.Params[name] = value
		}
	}

	if changed("x") {
		cfg.Display.X = xVar
	}
	if changed("y") {
		cfg.Display.Y = yVar
	}
	if changed("max-points") {
		cfg.Display.MaxPoints = maxPoints
	}

	if changed("param") {
		cfg.Sweep.Param = sweepParam
	}
	if changed("min") {
		cfg.Sweep.Min = sweepMin
	}
	if changed("max") {
		cfg.Sweep.Max = sweepMax
	}
	if changed("steps") {
		cfg.Sweep.Steps = sweepSteps
	}
	if changed("observe") {
		cfg.Sweep.Observe = observe
	}
	if changed("sweep-transient") {
		cfg.Sweep.Transient = sweepTransient
	}
	if changed("workers") {
		cfg.Sweep.Workers = workers
	}

	return cfg, nil
}

func parseParam(kv string) (string, float64, error) {
	name, raw, ok := strings.Cut(kv, "=")
	if !ok || name == "" {
		return "", 0, fmt.Errorf("parameter %q: want name=value", kv)
	}
	value, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return "", 0, fmt.Errorf("parameter %q: %w", kv, err)
	}
	return name, value, nil
}
