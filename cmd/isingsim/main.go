package main

import (
	"context"
	"fmt"
	"math"
	"os"
	"os/signal"
	"sort"
	"text/tabwriter"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"

	"github.com/san-kum/isingsim/internal/analysis"
	"github.com/san-kum/isingsim/internal/config"
	"github.com/san-kum/isingsim/internal/export"
	"github.com/san-kum/isingsim/internal/ising"
	"github.com/san-kum/isingsim/internal/mcmc"
	"github.com/san-kum/isingsim/internal/measurement"
	"github.com/san-kum/isingsim/internal/metrics"
	"github.com/san-kum/isingsim/internal/storage"
	"github.com/san-kum/isingsim/internal/viz"
)

var (
	dataDir  string
	logLevel string
	logger   *Logger

	size          int
	coupling      float64
	temps         []float64
	fields        []float64
	setupSweeps   int
	sweepsPerMeas int
	measurements  int
	seed          int64
	boltzmann     float64
	magMoment     float64
	saveSpins     bool
	saveEnergy    bool
	saveMag       bool
	configFile    string
	preset        string

	// live view
	frameRate      int
	sweepsPerFrame int
	theme          string

	// ensemble
	numRuns int

	// show, export-svg
	frame    int
	outFile  string
	scale    float64
	seriesOf string
)

func main() {
	rootCmd := &cobra.Command{
		Use:   "isingsim",
		Short: "metropolis monte carlo for the 2d ising model",
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			logger = NewLogger(logLevel)
		},
	}

	rootCmd.PersistentFlags().StringVar(&dataDir, "data", ".isingsim", "data directory")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "info", "log level (debug, info, warn, error)")

	runCmd := &cobra.Command{
		Use:   "run",
		Short: "run a measurement schedule and save it",
		Args:  cobra.NoArgs,
		RunE:  runSchedule,
	}
	addScheduleFlags(runCmd)

	ensembleCmd := &cobra.Command{
		Use:   "ensemble",
		Short: "run independent chains of one schedule",
		Args:  cobra.NoArgs,
		RunE:  runEnsemble,
	}
	addScheduleFlags(ensembleCmd)
	ensembleCmd.Flags().IntVar(&numRuns, "runs", 4, "number of chains")

	listCmd := &cobra.Command{
		Use:   "list",
		Short: "list runs",
		RunE:  listRuns,
	}

	showCmd := &cobra.Command{
		Use:   "show [run_id]",
		Short: "render a stored spin configuration",
		Args:  cobra.ExactArgs(1),
		RunE:  showRun,
	}
	showCmd.Flags().IntVar(&frame, "frame", -1, "measurement index (-1 for last)")
	showCmd.Flags().StringVar(&theme, "theme", "fire", "spin colors")

	plotCmd := &cobra.Command{
		Use:   "plot [run_id]",
		Short: "plot energy and magnetization",
		Args:  cobra.ExactArgs(1),
		RunE:  plotRun,
	}

	analyzeCmd := &cobra.Command{
		Use:   "analyze [run_id]",
		Short: "thermodynamic estimates per schedule point",
		Args:  cobra.ExactArgs(1),
		RunE:  analyzeRun,
	}

	exportJSONCmd := &cobra.Command{
		Use:   "export-json [run_id]",
		Short: "export run data to JSON",
		Args:  cobra.ExactArgs(1),
		RunE:  exportJSON,
	}

	exportSVGCmd := &cobra.Command{
		Use:   "export-svg [run_id]",
		Short: "export a spin configuration or series to SVG",
		Args:  cobra.ExactArgs(1),
		RunE:  exportSVG,
	}
	exportSVGCmd.Flags().IntVar(&frame, "frame", -1, "measurement index (-1 for last)")
	exportSVGCmd.Flags().StringVarP(&outFile, "out", "o", "", "output file (default stdout)")
	exportSVGCmd.Flags().Float64Var(&scale, "scale", 4, "pixels per site")
	exportSVGCmd.Flags().StringVar(&seriesOf, "series", "", "plot a series instead (energy, magnetization)")
	exportSVGCmd.Flags().StringVar(&theme, "theme", "fire", "spin colors")

	presetsCmd := &cobra.Command{
		Use:   "presets",
		Short: "list available schedule presets",
		RunE: func(cmd *cobra.Command, args []string) error {
			names := config.ListPresets()
			sort.Strings(names)
			w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
			fmt.Fprintln(w, "NAME\tSIZE\tSTEPS\tSWEEPS/STEP")
			for _, name := range names {
				p := config.GetPreset(name)
				fmt.Fprintf(w, "%s\t%d\t%d\t%d\n", name, p.Size, p.Measurements(), p.SweepsPerMeasurement())
			}
			return w.Flush()
		},
	}

	liveCmd := &cobra.Command{
		Use:   "live",
		Short: "sweep a lattice with live visualization",
		Args:  cobra.NoArgs,
		RunE:  runLive,
	}
	liveCmd.Flags().IntVar(&size, "size", 48, "lattice side length")
	liveCmd.Flags().Float64Var(&coupling, "coupling", config.DefaultCoupling, "coupling constant J")
	liveCmd.Flags().Float64SliceVar(&temps, "temp", []float64{2.269}, "temperature")
	liveCmd.Flags().Float64SliceVar(&fields, "field", []float64{0}, "external field")
	liveCmd.Flags().Int64Var(&seed, "seed", 0, "random seed (0 for entropy)")
	liveCmd.Flags().IntVar(&frameRate, "fps", 30, "frame rate")
	liveCmd.Flags().IntVar(&sweepsPerFrame, "sweeps", 1, "sweeps per frame")
	liveCmd.Flags().StringVar(&theme, "theme", "fire", "spin colors")

	benchCmd := &cobra.Command{
		Use:   "bench",
		Short: "benchmark sweep throughput",
		Args:  cobra.NoArgs,
		RunE:  benchSweeps,
	}

	rootCmd.AddCommand(runCmd, ensembleCmd, listCmd, showCmd, plotCmd, analyzeCmd, exportJSONCmd, exportSVGCmd, presetsCmd, liveCmd, benchCmd)

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func addScheduleFlags(cmd *cobra.Command) {
	cmd.Flags().IntVar(&size, "size", config.DefaultSize, "lattice side length")
	cmd.Flags().Float64Var(&coupling, "coupling", config.DefaultCoupling, "coupling constant J (negative for antiferromagnet)")
	cmd.Flags().Float64SliceVar(&temps, "temp", []float64{config.DefaultTemperature}, "temperature schedule")
	cmd.Flags().Float64SliceVar(&fields, "field", []float64{config.DefaultField}, "external field schedule")
	cmd.Flags().IntVar(&setupSweeps, "setup-sweeps", config.DefaultSetupSweeps, "thermalization sweeps before the first measurement")
	cmd.Flags().IntVar(&sweepsPerMeas, "sweeps", config.DefaultSweepsPerMeas, "sweeps between measurements")
	cmd.Flags().IntVar(&measurements, "measurements", 0, "measurement count (0 for schedule length)")
	cmd.Flags().Int64Var(&seed, "seed", 0, "random seed (0 for entropy)")
	cmd.Flags().Float64Var(&boltzmann, "kb", config.DefaultBoltzmann, "boltzmann constant")
	cmd.Flags().Float64Var(&magMoment, "mub", config.DefaultMagneticMoment, "magnetic moment scaling the field")
	cmd.Flags().BoolVar(&saveSpins, "spins", false, "record spin configurations")
	cmd.Flags().BoolVar(&saveEnergy, "energy", true, "record energies")
	cmd.Flags().BoolVar(&saveMag, "magnetization", true, "record magnetization")
	cmd.Flags().StringVar(&configFile, "config", "", "config file path (yaml)")
	cmd.Flags().StringVar(&preset, "preset", "", "use preset schedule")
}

// resolveConfig layers preset, config file and explicitly set flags, in
// that order.
func resolveConfig(cmd *cobra.Command) (*config.Config, error) {
	cfg := config.DefaultConfig()

	if preset != "" {
		cfg = config.GetPreset(preset)
		if cfg == nil {
			return nil, fmt.Errorf("unknown preset: %s (available: %v)", preset, config.ListPresets())
		}
		logger.Debugf("using preset %s", preset)
	}

	if configFile != "" {
		loaded, err := config.Load(configFile)
		if err != nil {
			return nil, fmt.Errorf("failed to load config: %w", err)
		}
		cfg = loaded
		logger.Debugf("loaded config from %s", configFile)
	}

	flags := cmd.Flags()
	if flags.Changed("size") {
		cfg.Size = size
	}
	if flags.Changed("coupling") {
		cfg.Coupling = coupling
	}
	if flags.Changed("temp") {
		cfg.Temperatures = temps
	}
	if flags.Changed("field") {
		cfg.Fields = fields
	}
	if flags.Changed("setup-sweeps") {
		cfg.SetupSweeps = setupSweeps
	}
	if flags.Changed("sweeps") {
		cfg.SweepsPerMeasure = sweepsPerMeas
	}
	if flags.Changed("measurements") {
		cfg.MeasurementCount = measurements
	}
	if flags.Changed("seed") {
		cfg.Seed = seed
	}
	if flags.Changed("kb") {
		cfg.Boltzmann = boltzmann
	}
	if flags.Changed("mub") {
		cfg.MagneticMoment = magMoment
	}
	if flags.Changed("spins") {
		cfg.Outputs.Spins = saveSpins
	}
	if flags.Changed("energy") {
		cfg.Outputs.Energy = saveEnergy
	}
	if flags.Changed("magnetization") {
		cfg.Outputs.Magnetization = saveMag
	}

	if cfg.Seed == 0 {
		cfg.Seed = time.Now().UnixNano()
		logger.Debugf("seeded from clock: %d", cfg.Seed)
	}

	return cfg, cfg.Validate()
}

func defaultMetrics() []measurement.Metric {
	return []measurement.Metric{
		metrics.NewEnergy(),
		metrics.NewEnergyFluctuation(),
		metrics.NewMagnetization(),
		metrics.NewOrder(0.5),
		metrics.NewDomainWalls(),
	}
}

// progress prints a bar on stderr after every measurement.
type progress struct {
	total int
}

func (p progress) OnMeasure(pt measurement.Point, l *ising.Lattice) {
	frac := float64(pt.Step+1) / float64(p.total)
	fmt.Fprintf(os.Stderr, "\r%s %d/%d  T=%.3f h=%+.3f m=%+.3f",
		viz.ProgressBar(frac, 30), pt.Step+1, p.total, pt.Temperature, pt.Field, pt.Magnetization)
	if pt.Step+1 == p.total {
		fmt.Fprintln(os.Stderr)
	}
}

func runSchedule(cmd *cobra.Command, args []string) error {
	cfg, err := resolveConfig(cmd)
	if err != nil {
		return err
	}

	st := storage.New(dataDir)
	if err := st.Init(); err != nil {
		return err
	}

	m, err := measurement.NewFromConfig(cfg)
	if err != nil {
		return err
	}
	for _, mt := range defaultMetrics() {
		m.AddMetric(mt)
	}
	m.AddObserver(progress{total: cfg.Measurements()})

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	logger.Infof("running %dx%d lattice, %d measurements, seed %d", cfg.Size, cfg.Size, cfg.Measurements(), cfg.Seed)
	start := time.Now()

	result, err := m.Execute(ctx)
	if err != nil {
		if result == nil || len(result.Points) == 0 {
			return err
		}
		logger.Warnf("schedule interrupted, saving %d measurements: %v", len(result.Points), err)
	}

	elapsed := time.Since(start)

	runID, err := st.Save(cfg, result)
	if err != nil {
		return err
	}
	logger.Debugf("saved run to %s", dataDir)

	fmt.Printf("completed in %v\n", elapsed)
	fmt.Printf("run id: %s\n", runID)
	fmt.Printf("measurements: %d\n", len(result.Points))
	fmt.Println("\nmetrics:")
	printMetrics(result.Metrics)

	return nil
}

func printMetrics(values map[string]float64) {
	names := make([]string, 0, len(values))
	for name := range values {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		fmt.Printf("  %s: %.6f\n", name, values[name])
	}
}

func runEnsemble(cmd *cobra.Command, args []string) error {
	cfg, err := resolveConfig(cmd)
	if err != nil {
		return err
	}
	if numRuns < 1 {
		return fmt.Errorf("runs must be positive, got %d", numRuns)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	logger.Infof("running %d chains from seed %d", numRuns, cfg.Seed)
	start := time.Now()

	ens := measurement.NewEnsemble(cfg, numRuns, cfg.Seed).WithMetrics(defaultMetrics)
	results, err := ens.Run(ctx)
	if err != nil {
		return err
	}

	fmt.Printf("completed in %v\n\n", time.Since(start))

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "CHAIN\tSEED\tE/N\t|m|\tFINAL m")
	finals := make([]float64, len(results))
	for i, r := range results {
		last := r.Points[len(r.Points)-1]
		finals[i] = last.Magnetization
		fmt.Fprintf(w, "%d\t%d\t%.5f\t%.5f\t%+.5f\n",
			i, cfg.Seed+int64(i), r.Metrics["energy"], r.Metrics["abs_magnetization"], last.Magnetization)
	}
	if err := w.Flush(); err != nil {
		return err
	}

	fmt.Printf("\nfinal m across chains: mean %+.5f, std %.5f, binder %.4f\n",
		analysis.Mean(finals), math.Sqrt(analysis.Variance(finals)), analysis.BinderCumulant(finals))
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
	fmt.Fprintln(w, "ID\tTIME\tSIZE\tJ\tSTEPS\tSEED")

	for _, run := range runs {
		fmt.Fprintf(w, "%s\t%s\t%d\t%+.2f\t%d\t%d\n",
			run.ID,
			run.Timestamp.Format("2006-01-02 15:04:05"),
			run.Size,
			run.Coupling,
			run.Measurements,
			run.Seed,
		)
	}

	return w.Flush()
}

func showRun(cmd *cobra.Command, args []string) error {
	runID := args[0]
	viz.SetTheme(theme)

	st := storage.New(dataDir)
	meta, err := st.Load(runID)
	if err != nil {
		return err
	}
	frames, err := st.LoadSpins(runID)
	if err != nil {
		return fmt.Errorf("%w (rerun with --spins)", err)
	}

	idx, err := frameIndex(frame, len(frames))
	if err != nil {
		return err
	}

	fmt.Printf("run: %s  frame %d/%d\n\n", meta.ID, idx, len(frames)-1)
	fmt.Print(viz.RenderSpins(frames[idx], meta.Size))
	return nil
}

func plotRun(cmd *cobra.Command, args []string) error {
	runID := args[0]

	st := storage.New(dataDir)
	meta, err := st.Load(runID)
	if err != nil {
		return err
	}
	points, err := st.LoadPoints(runID)
	if err != nil {
		return err
	}
	if len(points) == 0 {
		return fmt.Errorf("no data to plot")
	}

	fmt.Printf("run: %s\n", meta.ID)
	fmt.Printf("lattice: %dx%d, J=%g\n", meta.Size, meta.Size, meta.Coupling)
	fmt.Printf("samples: %d\n\n", len(points))

	sites := float64(meta.Size * meta.Size)
	series := map[string][]float64{
		"energy per site": make([]float64, len(points)),
		"magnetization":   make([]float64, len(points)),
		"temperature":     make([]float64, len(points)),
		"field":           make([]float64, len(points)),
	}
	for i, p := range points {
		series["energy per site"][i] = p.Energy / sites
		series["magnetization"][i] = p.Magnetization
		series["temperature"][i] = p.Temperature
		series["field"][i] = p.Field
	}

	for _, caption := range []string{"energy per site", "magnetization", "temperature", "field"} {
		fmt.Println(viz.PlotSeries(series[caption], caption, 10, 80))
		fmt.Println()
	}
	return nil
}

// analyzeRun groups consecutive measurements taken at the same (T, h)
// and reports fluctuation estimates for each group.
func analyzeRun(cmd *cobra.Command, args []string) error {
	runID := args[0]

	st := storage.New(dataDir)
	meta, err := st.Load(runID)
	if err != nil {
		return err
	}
	points, err := st.LoadPoints(runID)
	if err != nil {
		return err
	}
	if len(points) == 0 {
		return fmt.Errorf("no data")
	}

	sites := meta.Size * meta.Size
	fmt.Printf("thermodynamics: %s (%d sites)\n\n", meta.ID, sites)

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "T\th\tN\tE/N\t|m|\tC\tCHI\tBINDER")

	for start := 0; start < len(points); {
		end := start
		for end < len(points) && points[end].Temperature == points[start].Temperature && points[end].Field == points[start].Field {
			end++
		}
		group := points[start:end]
		energies := make([]float64, len(group))
		mags := make([]float64, len(group))
		absMags := make([]float64, len(group))
		for i, p := range group {
			energies[i] = p.Energy
			mags[i] = p.Magnetization
			absMags[i] = math.Abs(p.Magnetization)
		}
		T := group[0].Temperature

		c, chi := "-", "-"
		if len(group) > 1 {
			c = fmt.Sprintf("%.4f", analysis.SpecificHeat(energies, T, sites, meta.Boltzmann))
			chi = fmt.Sprintf("%.4f", analysis.Susceptibility(mags, T, sites, meta.Boltzmann))
		}
		fmt.Fprintf(w, "%.4f\t%+.3f\t%d\t%.5f\t%.5f\t%s\t%s\t%.4f\n",
			T, group[0].Field, len(group),
			analysis.Mean(energies)/float64(sites), analysis.Mean(absMags),
			c, chi, analysis.BinderCumulant(mags))
		start = end
	}
	if err := w.Flush(); err != nil {
		return err
	}

	mags := make([]float64, len(points))
	for i, p := range points {
		mags[i] = p.Magnetization
	}
	tau := analysis.IntegratedAutocorrelationTime(mags, len(mags)/2)
	fmt.Printf("\nintegrated autocorrelation time of m: %.2f measurements\n", tau)
	return nil
}

func exportJSON(cmd *cobra.Command, args []string) error {
	runID := args[0]

	st := storage.New(dataDir)
	meta, err := st.Load(runID)
	if err != nil {
		return err
	}
	points, err := st.LoadPoints(runID)
	if err != nil {
		return err
	}

	return storage.ExportJSON(os.Stdout, meta, points)
}

func exportSVG(cmd *cobra.Command, args []string) error {
	runID := args[0]

	st := storage.New(dataDir)
	meta, err := st.Load(runID)
	if err != nil {
		return err
	}

	var svg string
	switch seriesOf {
	case "":
		frames, err := st.LoadSpins(runID)
		if err != nil {
			return fmt.Errorf("%w (rerun with --spins)", err)
		}
		idx, err := frameIndex(frame, len(frames))
		if err != nil {
			return err
		}
		svg = export.SpinsToSVG(frames[idx], meta.Size, scale, viz.GetTheme(theme))
	case "energy":
		values, err := st.LoadSeries(runID, storage.EnergiesFile)
		if err != nil {
			return err
		}
		svg = export.SeriesToSVG(values, 800, 300, string(viz.GetTheme(theme).Up))
	case "magnetization":
		values, err := st.LoadSeries(runID, storage.MagnetizationFile)
		if err != nil {
			return err
		}
		svg = export.SeriesToSVG(values, 800, 300, string(viz.GetTheme(theme).Up))
	default:
		return fmt.Errorf("unknown series: %s (energy, magnetization)", seriesOf)
	}
	if svg == "" {
		return fmt.Errorf("nothing to draw")
	}

	if outFile == "" {
		fmt.Println(svg)
		return nil
	}
	if err := os.WriteFile(outFile, []byte(svg), 0644); err != nil {
		return err
	}
	logger.Infof("wrote %s", outFile)
	return nil
}

func frameIndex(i, n int) (int, error) {
	idx := i
	if idx < 0 {
		idx = n + idx
	}
	if idx < 0 || idx >= n {
		return 0, fmt.Errorf("frame %d out of range (0..%d)", i, n-1)
	}
	return idx, nil
}

func runLive(cmd *cobra.Command, args []string) error {
	viz.SetTheme(theme)

	rng := mcmc.NewSource(seed)
	l, err := ising.New(size, coupling, rng)
	if err != nil {
		return err
	}
	e, err := mcmc.New(l, temps[0], mcmc.WithSource(rng))
	if err != nil {
		return err
	}
	if len(fields) > 0 {
		e.SetExternalField(fields[0])
	}

	p := tea.NewProgram(viz.NewLive(e, frameRate, sweepsPerFrame))
	if _, err := p.Run(); err != nil {
		return err
	}
	return nil
}

func benchSweeps(cmd *cobra.Command, args []string) error {
	sizes := []int{16, 32, 64, 128, 256}
	temperatures := []float64{1.5, 2.269, 3.5}

	fmt.Println("benchmarking metropolis sweeps")
	fmt.Println()
	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "SIZE\tT\tSWEEPS\tTIME\tSWEEPS/SEC\tPROPOSALS/SEC\tACCEPT")

	for _, n := range sizes {
		for _, T := range temperatures {
			rng := mcmc.NewSource(42)
			l, err := ising.New(n, 1, rng)
			if err != nil {
				return err
			}
			e, err := mcmc.New(l, T, mcmc.WithSource(rng))
			if err != nil {
				return err
			}

			sweeps := max(1, (1<<22)/(n*n))
			start := time.Now()
			for i := 0; i < sweeps; i++ {
				e.Sweep()
			}
			elapsed := time.Since(start)

			fmt.Fprintf(w, "%d\t%.3f\t%d\t%v\t%.0f\t%.3g\t%.3f\n",
				n, T, sweeps, elapsed.Round(time.Microsecond),
				float64(sweeps)/elapsed.Seconds(),
				float64(e.Stats().Proposals)/elapsed.Seconds(),
				e.Stats().AcceptanceRate())
		}
	}

	return w.Flush()
}
