package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"runtime"
	"sort"
	"strconv"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/guptarohit/asciigraph"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/san-kum/particlesim/internal/analysis"
	"github.com/san-kum/particlesim/internal/automation"
	"github.com/san-kum/particlesim/internal/config"
	"github.com/san-kum/particlesim/internal/experiment"
	"github.com/san-kum/particlesim/internal/export"
	"github.com/san-kum/particlesim/internal/metrics"
	"github.com/san-kum/particlesim/internal/optim"
	"github.com/san-kum/particlesim/internal/sim"
	"github.com/san-kum/particlesim/internal/storage"
	"github.com/san-kum/particlesim/internal/stream"
	"github.com/san-kum/particlesim/internal/viz"
)

var (
	dataDir    string
	logLevel   string
	logFile    string
	configFile string
	preset     string
	steps      int
	dt         float64
	workers    int
	seed       uint64
	blockSize  int
	noSave     bool
	exportPath string
	addr       string
	interval   time.Duration
	maxPoints  int
	benchSteps int
	svgPath    string
	tuneParams []string
	tuneMetric string
	minimize   bool
)

func main() {
	rootCmd := &cobra.Command{
		Use:   "particlesim",
		Short: "block parallel particle simulator",
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return setupLogging()
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			name, err := viz.Pick()
			if err != nil || name == "" {
				return err
			}
			quietLogs()
			return viz.Run(config.GetPreset(name), logrus.WithField("component", "viz"))
		},
	}
	rootCmd.PersistentFlags().StringVar(&dataDir, "data", ".particlesim", "data directory")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log", "info", "log level (debug, info, warn, error)")
	rootCmd.PersistentFlags().StringVar(&logFile, "log-file", "", "write logs to this file instead of stderr")

	runCmd := &cobra.Command{
		Use:   "run",
		Short: "run a simulation and save the result",
		Args:  cobra.NoArgs,
		RunE:  runSimulation,
	}
	addConfigFlags(runCmd)
	runCmd.Flags().BoolVar(&noSave, "no-save", false, "do not store the run")
	runCmd.Flags().StringVar(&exportPath, "export", "", "also write the run as JSON to this path")

	liveCmd := &cobra.Command{
		Use:   "live",
		Short: "watch a simulation in the terminal",
		Args:  cobra.NoArgs,
		RunE:  runLive,
	}
	addConfigFlags(liveCmd)

	serveCmd := &cobra.Command{
		Use:   "serve",
		Short: "stream a simulation over websocket and expose metrics",
		Args:  cobra.NoArgs,
		RunE:  runServe,
	}
	addConfigFlags(serveCmd)
	serveCmd.Flags().StringVar(&addr, "addr", ":8080", "listen address")
	serveCmd.Flags().DurationVar(&interval, "interval", stream.DefaultInterval, "wall time between steps")
	serveCmd.Flags().IntVar(&maxPoints, "max-points", stream.DefaultMaxPoints, "positions per frame (0 for all)")

	listCmd := &cobra.Command{
		Use:   "list",
		Short: "list saved runs",
		Args:  cobra.NoArgs,
		RunE:  listRuns,
	}

	plotCmd := &cobra.Command{
		Use:   "plot [run_id]",
		Short: "plot the step stats of a saved run",
		Args:  cobra.ExactArgs(1),
		RunE:  plotRun,
	}
	plotCmd.Flags().StringVar(&svgPath, "svg", "", "also write the particle count curve to this svg file")

	exportCmd := &cobra.Command{
		Use:   "export [run_id]",
		Short: "export a saved run as JSON",
		Args:  cobra.ExactArgs(1),
		RunE:  exportRun,
	}
	exportCmd.Flags().StringVar(&exportPath, "out", "", "output file (default stdout)")
	exportCmd.Flags().StringVar(&svgPath, "svg", "", "render the final particle positions to this svg file")

	presetsCmd := &cobra.Command{
		Use:   "presets [name]",
		Short: "list presets or print one as yaml",
		Args:  cobra.MaximumNArgs(1),
		RunE:  showPresets,
	}

	benchCmd := &cobra.Command{
		Use:   "bench",
		Short: "measure step throughput across worker counts",
		Args:  cobra.NoArgs,
		RunE:  runBench,
	}
	addConfigFlags(benchCmd)
	benchCmd.Flags().IntVar(&benchSteps, "bench-steps", 200, "steps per measurement")

	tuneCmd := &cobra.Command{
		Use:   "tune",
		Short: "grid search config parameters against a run metric",
		Args:  cobra.NoArgs,
		RunE:  runTune,
	}
	addConfigFlags(tuneCmd)
	tuneCmd.Flags().StringArrayVar(&tuneParams, "param", nil, "grid axis as name=v1,v2,... (repeatable)")
	tuneCmd.Flags().StringVar(&tuneMetric, "metric", "particles_per_second", "metric to optimize")
	tuneCmd.Flags().BoolVar(&minimize, "minimize", false, "pick the smallest metric value")

	analyzeCmd := &cobra.Command{
		Use:   "analyze [run_id]",
		Short: "frequency analysis of the particle count and snapshot spread",
		Args:  cobra.ExactArgs(1),
		RunE:  analyzeRun,
	}

	scenarioCmd := &cobra.Command{
		Use:   "scenario [file]",
		Short: "run a yaml batch of simulations",
		Args:  cobra.ExactArgs(1),
		RunE:  runScenario,
	}

	rootCmd.AddCommand(runCmd, liveCmd, serveCmd, listCmd, plotCmd, exportCmd, presetsCmd, benchCmd, tuneCmd, analyzeCmd, scenarioCmd)

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func addConfigFlags(cmd *cobra.Command) {
	cmd.Flags().StringVar(&configFile, "config", "", "config file path (yaml)")
	cmd.Flags().StringVar(&preset, "preset", "fountain", "preset used when no config is given")
	cmd.Flags().IntVar(&steps, "steps", config.DefaultSteps, "number of steps")
	cmd.Flags().Float64Var(&dt, "dt", config.DefaultDt, "step duration in seconds")
	cmd.Flags().IntVar(&workers, "workers", 0, "worker goroutines (0 for GOMAXPROCS)")
	cmd.Flags().Uint64Var(&seed, "seed", config.DefaultSeed, "random seed")
	cmd.Flags().IntVar(&blockSize, "block-size", config.DefaultBlockSize, "particles per block")
}

func setupLogging() error {
	level, err := logrus.ParseLevel(logLevel)
	if err != nil {
		return err
	}
	logrus.SetLevel(level)
	logrus.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
	if logFile != "" {
		f, err := os.OpenFile(logFile, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
		if err != nil {
			return err
		}
		logrus.SetOutput(f)
	}
	return nil
}

// quietLogs keeps log lines from tearing through a full screen view.
func quietLogs() {
	if logFile == "" {
		logrus.SetOutput(io.Discard)
	}
}

// loadConfig resolves --config or --preset and applies explicitly set flags.
func loadConfig(cmd *cobra.Command) (*config.Config, error) {
	var cfg *config.Config
	if configFile != "" {
		var err error
		if cfg, err = config.Load(configFile); err != nil {
			return nil, err
		}
	} else if cfg = config.GetPreset(preset); cfg == nil {
		return nil, fmt.Errorf("unknown preset %q (have %v)", preset, config.ListPresets())
	}

	flags := cmd.Flags()
	if flags.Changed("steps") {
		cfg.Steps = steps
	}
	if flags.Changed("dt") {
		cfg.Dt = dt
	}
	if flags.Changed("workers") {
		cfg.Workers = workers
	}
	if flags.Changed("seed") {
		cfg.Seed = seed
	}
	if flags.Changed("block-size") {
		cfg.BlockSize = blockSize
	}
	return cfg, cfg.Validate()
}

func signalContext() (context.Context, context.CancelFunc) {
	return signal.NotifyContext(context.Background(), os.Interrupt)
}

func runSimulation(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	log := logrus.WithField("run", cfg.Name)

	exp := experiment.New(cfg, log)
	progress := sim.ObserverFunc(func(s sim.StepStats) {
		done := s.Step + 1
		if cfg.Steps == 0 {
			return
		}
		if every := max(1, cfg.Steps/20); done%every == 0 || done == cfg.Steps {
			fmt.Fprintf(os.Stderr, "\r%s %3d%%  %7d particles",
				viz.ProgressBar(float64(done)/float64(cfg.Steps), 30),
				100*done/cfg.Steps, s.Particles())
		}
	})
	if err := exp.Setup(progress); err != nil {
		return err
	}

	ctx, cancel := signalContext()
	defer cancel()
	res, err := exp.Run(ctx)
	fmt.Fprintln(os.Stderr)
	if err != nil {
		log.WithError(err).Warn("run interrupted")
	}

	fmt.Printf("steps: %d\n", len(res.Steps))
	fmt.Printf("particles: %d\n", len(res.Positions))
	fmt.Printf("elapsed: %v\n", res.Elapsed.Round(time.Millisecond))
	for _, name := range sortedKeys(res.Metrics) {
		fmt.Printf("%s: %.2f\n", name, res.Metrics[name])
	}

	run := exp.Record(res)
	if exportPath != "" {
		if err := storage.ExportJSON(exportPath, run); err != nil {
			return err
		}
	}
	if noSave {
		return nil
	}
	st := storage.New(dataDir)
	if err := st.Init(); err != nil {
		return err
	}
	id, err := st.Save(run)
	if err != nil {
		return err
	}
	fmt.Printf("saved: %s\n", id)
	return nil
}

func runLive(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	quietLogs()
	return viz.Run(cfg, logrus.WithField("component", "viz"))
}

func runServe(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	log := logrus.WithField("run", cfg.Name)

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	exp := experiment.New(cfg, log)
	if err := exp.Setup(metrics.NewCollector(reg)); err != nil {
		return err
	}

	srv := stream.NewServer(exp, reg, log.WithField("component", "server"))
	srv.Interval = interval
	srv.MaxPoints = maxPoints

	ctx, cancel := signalContext()
	defer cancel()
	return srv.ListenAndServe(ctx, addr)
}

func listRuns(cmd *cobra.Command, args []string) error {
	runs, err := storage.New(dataDir).List()
	if err != nil {
		return err
	}
	if len(runs) == 0 {
		fmt.Println("no runs found")
		return nil
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tNAME\tTIME\tSTEPS\tDT\tWORKERS\tPARTICLES")
	for _, run := range runs {
		fmt.Fprintf(w, "%s\t%s\t%s\t%d\t%.4fs\t%d\t%d\n",
			run.ID,
			run.Name,
			run.Timestamp.Format("2006-01-02 15:04:05"),
			run.Steps,
			run.Dt,
			run.Workers,
			run.Particles,
		)
	}
	return w.Flush()
}

func plotRun(cmd *cobra.Command, args []string) error {
	runID := args[0]
	st := storage.New(dataDir)
	meta, err := st.Load(runID)
	if err != nil {
		return err
	}
	rows, err := st.LoadStats(runID)
	if err != nil {
		return err
	}
	if len(rows) == 0 {
		return fmt.Errorf("no data to plot")
	}

	fmt.Printf("run: %s\n", meta.ID)
	fmt.Printf("name: %s\n", meta.Name)
	fmt.Printf("steps: %d\n\n", len(rows))

	series := []struct {
		caption string
		value   func(storage.StatRow) float64
	}{
		{"live particles", func(r storage.StatRow) float64 { return float64(r.Particles) }},
		{"emitted per step", func(r storage.StatRow) float64 { return float64(r.Emitted) }},
		{"killed per step", func(r storage.StatRow) float64 { return float64(r.Killed) }},
		{"step time (ms)", func(r storage.StatRow) float64 { return r.StepMs }},
	}
	for _, s := range series {
		data := make([]float64, len(rows))
		for i, r := range rows {
			data[i] = s.value(r)
		}
		fmt.Println(asciigraph.Plot(data,
			asciigraph.Height(10),
			asciigraph.Width(80),
			asciigraph.Caption(s.caption),
		))
		fmt.Println()
	}

	if svgPath != "" {
		counts := make([]float64, len(rows))
		for i, r := range rows {
			counts[i] = float64(r.Particles)
		}
		return writeFile(svgPath, func(w io.Writer) error {
			return export.Series(w, counts, 800, 300, "#00ccff")
		})
	}
	return nil
}

func writeFile(path string, write func(io.Writer) error) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	if err := write(f); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}

func exportRun(cmd *cobra.Command, args []string) error {
	runID := args[0]
	st := storage.New(dataDir)
	meta, err := st.Load(runID)
	if err != nil {
		return err
	}
	rows, err := st.LoadStats(runID)
	if err != nil {
		return err
	}
	pos, err := st.LoadPositions(runID)
	if err != nil {
		return err
	}

	run := &storage.Run{Meta: *meta, Positions: pos}
	for _, r := range rows {
		run.Stats = append(run.Stats, sim.StepStats{
			Step:     r.Step,
			Start:    float32(r.Time - meta.Dt),
			Duration: float32(meta.Dt),
			Emitted:  r.Emitted,
			Killed:   r.Killed,
			Kinds:    []sim.KindStats{{Kind: "all", Particles: r.Particles, Blocks: r.Blocks}},
			Elapsed:  time.Duration(r.StepMs * float64(time.Millisecond)),
		})
	}
	if svgPath != "" {
		cam := viz.NewCamera()
		cam.Frame(pos)
		if err := writeFile(svgPath, func(w io.Writer) error {
			return export.Snapshot(w, pos, cam, export.SnapshotOptions{})
		}); err != nil {
			return err
		}
	}
	if exportPath != "" {
		return storage.ExportJSON(exportPath, run)
	}
	return storage.WriteJSON(os.Stdout, run)
}

func showPresets(cmd *cobra.Command, args []string) error {
	if len(args) == 1 {
		cfg := config.GetPreset(args[0])
		if cfg == nil {
			return fmt.Errorf("unknown preset %q", args[0])
		}
		enc := yaml.NewEncoder(os.Stdout)
		enc.SetIndent(2)
		defer enc.Close()
		return enc.Encode(cfg)
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "NAME\tKINDS\tEMITTERS\tSTEPS\tDT")
	for _, name := range config.ListPresets() {
		cfg := config.GetPreset(name)
		fmt.Fprintf(w, "%s\t%d\t%d\t%d\t%.3f\n", name, len(cfg.Kinds), len(cfg.Emitters), cfg.Steps, cfg.Dt)
	}
	return w.Flush()
}

func runBench(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	counts := []int{1}
	for n := 2; n <= runtime.GOMAXPROCS(0); n *= 2 {
		counts = append(counts, n)
	}
	if !cmd.Flags().Changed("workers") && counts[len(counts)-1] != runtime.GOMAXPROCS(0) {
		counts = append(counts, runtime.GOMAXPROCS(0))
	} else if cmd.Flags().Changed("workers") {
		counts = []int{cfg.Workers}
	}

	ctx, cancel := signalContext()
	defer cancel()

	fmt.Printf("preset: %s, %d steps, dt %.3fs\n\n", cfg.Name, benchSteps, cfg.Dt)
	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "WORKERS\tELAPSED\tSTEP\tPARTICLES\tPARTICLE STEPS/S")
	for _, n := range counts {
		run := *cfg
		run.Workers = n
		run.Steps = benchSteps
		exp := experiment.New(&run, logrus.WithField("workers", n))
		if err := exp.Setup(); err != nil {
			return err
		}
		res, err := exp.Run(ctx)
		if err != nil {
			return err
		}
		work := 0
		for _, s := range res.Steps {
			work += s.Particles()
		}
		fmt.Fprintf(w, "%d\t%v\t%v\t%d\t%.0f\n",
			n,
			res.Elapsed.Round(time.Millisecond),
			(res.Elapsed / time.Duration(max(1, len(res.Steps)))).Round(time.Microsecond),
			len(res.Positions),
			float64(work)/res.Elapsed.Seconds(),
		)
	}
	return w.Flush()
}

func sortedKeys(m map[string]float64) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

func runTune(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	if len(tuneParams) == 0 {
		return fmt.Errorf("at least one --param is required (tunable: %v)", optim.Tunables())
	}
	names := make([]string, 0, len(tuneParams))
	ranges := make([][]float64, 0, len(tuneParams))
	for _, p := range tuneParams {
		name, list, ok := strings.Cut(p, "=")
		if !ok {
			return fmt.Errorf("bad --param %q, want name=v1,v2", p)
		}
		var values []float64
		for _, f := range strings.Split(list, ",") {
			v, err := strconv.ParseFloat(strings.TrimSpace(f), 64)
			if err != nil {
				return fmt.Errorf("bad value in --param %q: %w", p, err)
			}
			values = append(values, v)
		}
		names = append(names, name)
		ranges = append(ranges, values)
	}

	ctx, cancel := signalContext()
	defer cancel()

	g := optim.NewGridSearch(names, ranges)
	g.Maximize = !minimize
	logrus.SetLevel(min(logrus.WarnLevel, logrus.GetLevel()))
	best, value, trials, err := g.Search(ctx, optim.ConfigBuilder(cfg, logrus.WithField("run", cfg.Name)), tuneMetric)

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, strings.ToUpper(strings.Join(names, "\t"))+"\t"+strings.ToUpper(tuneMetric))
	for _, tr := range trials {
		for _, n := range names {
			fmt.Fprintf(w, "%g\t", tr.Params[n])
		}
		if tr.Err != nil {
			fmt.Fprintf(w, "error: %v\n", tr.Err)
		} else {
			fmt.Fprintf(w, "%.2f\n", tr.Value)
		}
	}
	w.Flush()
	if err != nil {
		return err
	}
	fmt.Printf("\nbest %s = %.2f at %v\n", tuneMetric, value, best)
	return nil
}

func analyzeRun(cmd *cobra.Command, args []string) error {
	runID := args[0]
	st := storage.New(dataDir)
	meta, err := st.Load(runID)
	if err != nil {
		return err
	}
	rows, err := st.LoadStats(runID)
	if err != nil {
		return err
	}
	if len(rows) < 2 {
		return fmt.Errorf("no data")
	}

	fmt.Printf("frequency analysis: %s\n", meta.ID)
	fmt.Printf("name: %s\n\n", meta.Name)

	counts := make([]float64, len(rows))
	for i, r := range rows {
		counts[i] = float64(r.Particles)
	}
	spec := analysis.PowerSpectrum(counts, meta.Dt)
	plotData := spec.Power[:max(1, len(spec.Power)/4)]
	fmt.Println(asciigraph.Plot(plotData,
		asciigraph.Height(15),
		asciigraph.Width(80),
		asciigraph.Caption("power spectrum (particle count)"),
	))
	fmt.Println()

	freq, _ := spec.Dominant()
	fmt.Printf("dominant frequency: %.3f hz\n", freq)
	if freq > 0 {
		fmt.Printf("period: %.3f s\n", 1/freq)
	}

	pos, err := st.LoadPositions(runID)
	if err != nil {
		return err
	}
	sum := analysis.Describe(pos)
	fmt.Printf("\nfinal particles: %d\n", sum.Count)
	if sum.Count == 0 {
		return nil
	}
	fmt.Printf("centroid: (%.2f, %.2f, %.2f)\n", sum.Centroid.X, sum.Centroid.Y, sum.Centroid.Z)
	fmt.Printf("bounds: (%.2f, %.2f, %.2f) to (%.2f, %.2f, %.2f)\n",
		sum.Min.X, sum.Min.Y, sum.Min.Z, sum.Max.X, sum.Max.Y, sum.Max.Z)
	fmt.Printf("spread: %.3f\n\n", sum.Spread)

	hist, lo, width := analysis.Histogram(pos, analysis.AxisY, 8)
	for i, c := range hist {
		fmt.Printf("y %7.2f  %s %d\n", lo+float64(i)*width, viz.ProgressBar(float64(c)/float64(sum.Count), 30), c)
	}
	return nil
}

func runScenario(cmd *cobra.Command, args []string) error {
	scenario, err := automation.LoadScenario(args[0])
	if err != nil {
		return err
	}
	st := storage.New(dataDir)
	if err := st.Init(); err != nil {
		return err
	}

	ctx, cancel := signalContext()
	defer cancel()
	results, err := automation.RunScenario(ctx, scenario, st, logrus.WithField("scenario", scenario.Name))

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "NAME\tSTEPS\tPARTICLES\tELAPSED\tRUN")
	for _, r := range results {
		fmt.Fprintf(w, "%s\t%d\t%d\t%v\t%s\n",
			r.Name, len(r.Result.Steps), len(r.Result.Positions), r.Result.Elapsed.Round(time.Millisecond), r.RunID)
	}
	w.Flush()
	return err
}
