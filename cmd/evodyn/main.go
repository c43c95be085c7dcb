package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"strconv"
	"strings"
	"text/tabwriter"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/guptarohit/asciigraph"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/evolab/evodyn/internal/analysis"
	"github.com/evolab/evodyn/internal/config"
	"github.com/evolab/evodyn/internal/experiment"
	"github.com/evolab/evodyn/internal/export"
	"github.com/evolab/evodyn/internal/models"
	"github.com/evolab/evodyn/internal/optim"
	"github.com/evolab/evodyn/internal/pacing"
	"github.com/evolab/evodyn/internal/storage"
	"github.com/evolab/evodyn/internal/viz"
)

var (
	dataDir string
	verbose bool

	configFile  string
	preset      string
	dt          float64
	steps       int
	traits      int
	seed        int64
	mutation    float64
	popSize     float64
	vacancy     float64
	integrator  string
	units       int
	diffusion   float64
	parallelism int
	eigenOnFail string
	outFile     string
	delayMs     int
	svgFile     string
	traitIndex  int
	sweepParams []string
	sweepMetric string
	duration    float64
)

func main() {
	rootCmd := &cobra.Command{
		Use:   "evodyn",
		Short: "evolutionary dynamics simulation lab",
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			if verbose {
				logrus.SetLevel(logrus.DebugLevel)
			}
		},
	}
	rootCmd.PersistentFlags().StringVar(&dataDir, "data", ".evodyn", "data directory")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "debug logging")

	runCmd := &cobra.Command{
		Use:   "run [model]",
		Short: "run a simulation to completion and store the result",
		Args:  cobra.ExactArgs(1),
		RunE:  runSimulation,
	}
	addModelFlags(runCmd)

	liveCmd := &cobra.Command{
		Use:   "live [model]",
		Short: "run with live terminal visualization",
		Args:  cobra.ExactArgs(1),
		RunE:  runLive,
	}
	addModelFlags(liveCmd)
	liveCmd.Flags().IntVar(&delayMs, "delay", 0, "pacing delay in ms (below 10 free-runs)")

	listCmd := &cobra.Command{
		Use:   "list",
		Short: "list stored runs",
		RunE:  listRuns,
	}

	plotCmd := &cobra.Command{
		Use:   "plot [run_id]",
		Short: "plot stored trait trajectories",
		Args:  cobra.ExactArgs(1),
		RunE:  plotRun,
	}
	plotCmd.Flags().StringVar(&svgFile, "svg", "", "also write the trajectories as an SVG file")

	analyzeCmd := &cobra.Command{
		Use:   "analyze [run_id]",
		Short: "frequency analysis of a stored trajectory",
		Args:  cobra.ExactArgs(1),
		RunE:  analyzeRun,
	}
	analyzeCmd.Flags().IntVar(&traitIndex, "trait", 0, "trait index to analyze")

	lyapunovCmd := &cobra.Command{
		Use:   "lyapunov [model]",
		Short: "estimate the largest Lyapunov exponent of the deterministic dynamics",
		Args:  cobra.ExactArgs(1),
		RunE:  lyapunovModel,
	}
	addModelFlags(lyapunovCmd)
	lyapunovCmd.Flags().Float64Var(&duration, "time", 200.0, "integration time")

	sweepCmd := &cobra.Command{
		Use:   "sweep [model]",
		Short: "grid-search parameters, minimizing a metric",
		Args:  cobra.ExactArgs(1),
		RunE:  sweepModel,
	}
	addModelFlags(sweepCmd)
	sweepCmd.Flags().StringArrayVar(&sweepParams, "param", nil, "sweep range, e.g. mutation=0.001,0.01,0.1 (repeatable)")
	sweepCmd.Flags().StringVar(&sweepMetric, "metric", "convergence", "metric to minimize")

	exportCmd := &cobra.Command{
		Use:   "export [run_id]",
		Short: "export a run as a single JSON document",
		Args:  cobra.ExactArgs(1),
		RunE:  exportRun,
	}
	exportCmd.Flags().StringVar(&outFile, "out", "", "write to file instead of stdout")

	benchCmd := &cobra.Command{
		Use:   "bench [model]",
		Short: "benchmark stepping throughput",
		Args:  cobra.ExactArgs(1),
		RunE:  benchModel,
	}
	addModelFlags(benchCmd)

	presetsCmd := &cobra.Command{
		Use:   "presets [model]",
		Short: "list available presets for a model",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			names := config.ListPresets(args[0])
			if len(names) == 0 {
				fmt.Printf("no presets for model: %s\n", args[0])
				return nil
			}
			fmt.Printf("presets for %s:\n", args[0])
			for _, p := range names {
				fmt.Printf("  %s\n", p)
			}
			return nil
		},
	}

	rootCmd.AddCommand(runCmd, liveCmd, listCmd, plotCmd, analyzeCmd, lyapunovCmd, sweepCmd, exportCmd, benchCmd, presetsCmd)

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func addModelFlags(cmd *cobra.Command) {
	cmd.Flags().StringVar(&configFile, "config", "", "config file path (yaml)")
	cmd.Flags().StringVar(&preset, "preset", "", "use preset configuration")
	cmd.Flags().Float64Var(&dt, "dt", config.DefaultDt, "timestep")
	cmd.Flags().IntVar(&steps, "steps", 100000, "step budget")
	cmd.Flags().IntVar(&traits, "traits", config.DefaultTraits, "number of traits")
	cmd.Flags().Int64Var(&seed, "seed", time.Now().UnixNano(), "random seed")
	cmd.Flags().Float64Var(&mutation, "mutation", config.DefaultMutation, "mutation rate")
	cmd.Flags().Float64Var(&popSize, "pop-size", config.DefaultPopSize, "population size")
	cmd.Flags().Float64Var(&vacancy, "vacancy", 0, "vacancy fraction")
	cmd.Flags().StringVar(&integrator, "integrator", "rk4", "integrator (replicator model)")
	cmd.Flags().IntVar(&units, "units", config.DefaultUnits, "spatial units (field model)")
	cmd.Flags().Float64Var(&diffusion, "diffusion", config.DefaultDiffusion, "diffusion rate (field model)")
	cmd.Flags().IntVar(&parallelism, "workers", 0, "worker pool cap, 0 = all cores")
	cmd.Flags().StringVar(&eigenOnFail, "eigen-on-fail", "warn", "degenerate noise policy: warn, abort, clamp, skip")
}

// buildConfig layers preset, config file, and explicit flags, in that order
// of increasing precedence.
func buildConfig(cmd *cobra.Command, model string) (*config.Config, error) {
	cfg := config.DefaultConfig()
	cfg.Model = model

	if preset != "" {
		p := config.GetPreset(model, preset)
		if p == nil {
			return nil, fmt.Errorf("unknown preset: %s (available: %v)", preset, config.ListPresets(model))
		}
		cfg = p
	}
	if configFile != "" {
		loaded, err := config.Load(configFile)
		if err != nil {
			return nil, fmt.Errorf("failed to load config: %w", err)
		}
		cfg = loaded
		cfg.Model = model
	}

	flags := cmd.Flags()
	if flags.Changed("dt") {
		cfg.Dt = dt
	}
	if flags.Changed("steps") {
		cfg.Steps = steps
	}
	if flags.Changed("traits") {
		cfg.Traits = traits
		cfg.Payoff = nil
		cfg.InitState = nil
	}
	if flags.Changed("seed") || cfg.Seed == 0 {
		cfg.Seed = seed
	}
	if flags.Changed("mutation") {
		cfg.Mutation = mutation
	}
	if flags.Changed("pop-size") {
		cfg.PopSize = popSize
	}
	if flags.Changed("vacancy") {
		cfg.Vacancy = vacancy
	}
	if flags.Changed("integrator") || cfg.Integrator == "" {
		cfg.Integrator = integrator
	}
	if flags.Changed("units") {
		cfg.Field.Units = units
	}
	if flags.Changed("diffusion") {
		cfg.Field.Diffusion = diffusion
	}
	if flags.Changed("workers") {
		cfg.Field.Parallelism = parallelism
	}
	if flags.Changed("eigen-on-fail") {
		cfg.EigenOnFail = eigenOnFail
	}
	return cfg, nil
}

func runSimulation(cmd *cobra.Command, args []string) error {
	model := args[0]
	cfg, err := buildConfig(cmd, model)
	if err != nil {
		return err
	}

	st := storage.New(dataDir)
	if err := st.Init(); err != nil {
		return err
	}

	exp, err := experiment.New(cfg)
	if err != nil {
		return err
	}
	defer exp.Close()
	for _, m := range experiment.DefaultMetrics() {
		exp.AddMetric(m)
	}

	fmt.Printf("running %s simulation...\n", model)
	start := time.Now()
	result, err := exp.Run(context.Background())
	if err != nil {
		return err
	}
	elapsed := time.Since(start)

	runID, err := st.Save(model, cfg.Integrator, cfg.Dt, cfg.Seed, result)
	if err != nil {
		return err
	}

	fmt.Printf("completed in %v\n", elapsed)
	fmt.Printf("run id: %s\n", runID)
	fmt.Printf("steps: %d\n", result.Steps)
	fmt.Println("\nmetrics:")
	for name, val := range result.Metrics {
		fmt.Printf("  %s: %.6f\n", name, val)
	}
	return nil
}

func runLive(cmd *cobra.Command, args []string) error {
	model := args[0]
	cfg, err := buildConfig(cmd, model)
	if err != nil {
		return err
	}
	if cmd.Flags().Changed("delay") {
		cfg.DelayMs = delayMs
	}
	// Live stepping is interactive; leave one core to the UI.
	if cfg.Model == "field" && !cmd.Flags().Changed("workers") {
		cfg.Field.Parallelism = -1
	}

	exp, err := experiment.New(cfg)
	if err != nil {
		return err
	}
	defer exp.Close()

	sched := pacing.New(exp.Model())
	defer sched.Close()

	view := viz.NewLive(exp.Model(), sched, model, time.Duration(cfg.DelayMs)*time.Millisecond)
	p := tea.NewProgram(view, tea.WithAltScreen())
	_, err = p.Run()
	return err
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
	fmt.Fprintln(w, "ID\tMODEL\tTIME\tTRAITS\tSTEPS\tDT\tINTEG")
	for _, run := range runs {
		fmt.Fprintf(w, "%s\t%s\t%s\t%d\t%d\t%.4f\t%s\n",
			run.ID,
			run.Model,
			run.Timestamp.Format("2006-01-02 15:04:05"),
			run.Traits,
			run.Steps,
			run.Dt,
			run.Integrator,
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
	states, times, err := st.LoadTrajectory(runID)
	if err != nil {
		return err
	}
	if len(states) == 0 {
		return fmt.Errorf("no data to plot")
	}

	fmt.Printf("run: %s\n", meta.ID)
	fmt.Printf("model: %s\n", meta.Model)
	fmt.Printf("samples: %d\n\n", len(states))

	numTraits := len(states[0])
	const maxPlots = 6
	if numTraits > maxPlots {
		numTraits = maxPlots
	}
	for i := 0; i < numTraits; i++ {
		data := make([]float64, len(states))
		for j := range states {
			if i < len(states[j]) {
				data[j] = states[j][i]
			}
		}
		graph := asciigraph.Plot(data,
			asciigraph.Height(10),
			asciigraph.Width(80),
			asciigraph.Caption(fmt.Sprintf("trait %d frequency", i)),
		)
		fmt.Println(graph)
		fmt.Println()
	}

	if svgFile != "" {
		svg := export.TraitSeriesSVG(times, states, 800, 400)
		if svg == "" {
			return fmt.Errorf("not enough samples for an SVG plot")
		}
		if err := os.WriteFile(svgFile, []byte(svg), 0644); err != nil {
			return err
		}
		fmt.Printf("wrote %s\n", svgFile)
	}
	return nil
}

func analyzeRun(cmd *cobra.Command, args []string) error {
	runID := args[0]
	st := storage.New(dataDir)

	meta, err := st.Load(runID)
	if err != nil {
		return err
	}
	states, times, err := st.LoadTrajectory(runID)
	if err != nil {
		return err
	}
	if len(states) < 4 {
		return fmt.Errorf("not enough samples to analyze")
	}
	if traitIndex < 0 || traitIndex >= len(states[0]) {
		return fmt.Errorf("trait %d out of range for %d traits", traitIndex, len(states[0]))
	}

	data := make([]float64, len(states))
	for i := range states {
		data[i] = states[i][traitIndex]
	}

	fmt.Printf("frequency analysis: %s\n", meta.ID)
	fmt.Printf("model: %s, trait: %d\n\n", meta.Model, traitIndex)

	ps := analysis.PowerSpectrum(data)
	graph := asciigraph.Plot(ps[:len(ps)/4],
		asciigraph.Height(15),
		asciigraph.Width(80),
		asciigraph.Caption(fmt.Sprintf("power spectrum (trait %d)", traitIndex)),
	)
	fmt.Println(graph)
	fmt.Println()

	// samples are thinned, so the effective dt is the sample spacing
	sampleDt := meta.Dt
	if len(times) > 1 {
		sampleDt = (times[len(times)-1] - times[0]) / float64(len(times)-1)
	}
	freq := analysis.DominantFrequency(data, sampleDt)
	if freq > 0 {
		fmt.Printf("dominant frequency: %.4f\n", freq)
		fmt.Printf("period: %.2f time units\n", 1.0/freq)
	} else {
		fmt.Println("no dominant oscillation found")
	}
	return nil
}

func lyapunovModel(cmd *cobra.Command, args []string) error {
	cfg, err := buildConfig(cmd, args[0])
	if err != nil {
		return err
	}
	if err := cfg.Validate(); err != nil {
		return err
	}

	dyn, err := models.NewReplicator(cfg.GetPayoff())
	if err != nil {
		return err
	}
	integ, err := experiment.NewRegistry().GetIntegrator(cfg.Integrator)
	if err != nil {
		return err
	}

	y0 := make([]float64, cfg.Traits)
	copy(y0, cfg.GetInitState())

	lambda := analysis.LargestLyapunov(dyn, integ, y0, cfg.Dt, duration, 1e-8)
	fmt.Printf("largest Lyapunov exponent: %.6f\n", lambda)
	switch {
	case lambda > 0.01:
		fmt.Println("dynamics are chaotic")
	case lambda < -0.01:
		fmt.Println("dynamics converge to an attractor")
	default:
		fmt.Println("dynamics are neutral or cyclic")
	}
	return nil
}

func sweepModel(cmd *cobra.Command, args []string) error {
	cfg, err := buildConfig(cmd, args[0])
	if err != nil {
		return err
	}
	if len(sweepParams) == 0 {
		return fmt.Errorf("at least one --param is required")
	}

	names := make([]string, 0, len(sweepParams))
	ranges := make([][]float64, 0, len(sweepParams))
	for _, spec := range sweepParams {
		name, list, ok := strings.Cut(spec, "=")
		if !ok {
			return fmt.Errorf("malformed --param %q, want name=v1,v2,...", spec)
		}
		var vals []float64
		for _, s := range strings.Split(list, ",") {
			v, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
			if err != nil {
				return fmt.Errorf("malformed value in --param %q: %w", spec, err)
			}
			vals = append(vals, v)
		}
		names = append(names, name)
		ranges = append(ranges, vals)
	}

	gs, err := optim.NewGridSearch(names, ranges)
	if err != nil {
		return err
	}

	fmt.Printf("sweeping %s over %d parameter(s), minimizing %s\n\n", args[0], len(names), sweepMetric)
	points, best, err := gs.Search(context.Background(), cfg, sweepMetric)
	if err != nil {
		return err
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	header := strings.Join(names, "\t")
	fmt.Fprintf(w, "%s\t%s\n", strings.ToUpper(header), strings.ToUpper(sweepMetric))
	for _, p := range points {
		for _, n := range names {
			fmt.Fprintf(w, "%g\t", p.Params[n])
		}
		fmt.Fprintf(w, "%.6f\n", p.Value)
	}
	if err := w.Flush(); err != nil {
		return err
	}

	fmt.Printf("\nbest: %v (%s = %.6f)\n", best.Params, sweepMetric, best.Value)
	return nil
}

func exportRun(cmd *cobra.Command, args []string) error {
	runID := args[0]
	st := storage.New(dataDir)

	meta, err := st.Load(runID)
	if err != nil {
		return err
	}
	states, times, err := st.LoadTrajectory(runID)
	if err != nil {
		return err
	}

	data := storage.ExportData{
		Model:      meta.Model,
		Integrator: meta.Integrator,
		Dt:         meta.Dt,
		Steps:      meta.Steps,
		Times:      times,
		Metrics:    meta.Metrics,
		States:     make([][]float64, len(states)),
	}
	for i, s := range states {
		data.States[i] = s
	}

	out := os.Stdout
	if outFile != "" {
		f, err := os.Create(outFile)
		if err != nil {
			return err
		}
		defer f.Close()
		out = f
	}
	enc := json.NewEncoder(out)
	enc.SetIndent("", "  ")
	return enc.Encode(data)
}

func benchModel(cmd *cobra.Command, args []string) error {
	model := args[0]
	cfg, err := buildConfig(cmd, model)
	if err != nil {
		return err
	}

	budgets := []int{1000, 10000, 100000}

	fmt.Printf("benchmarking %s\n\n", model)
	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "STEPS\tDT\tTIME\tSTEPS/SEC")

	for _, budget := range budgets {
		run := *cfg
		run.Steps = budget

		exp, err := experiment.New(&run)
		if err != nil {
			return err
		}

		start := time.Now()
		result, err := exp.Run(context.Background())
		exp.Close()
		if err != nil {
			return err
		}
		elapsed := time.Since(start)

		stepsPerSec := float64(result.Steps) / elapsed.Seconds()
		fmt.Fprintf(w, "%d\t%.4f\t%v\t%.0f\n", result.Steps, run.Dt, elapsed, stepsPerSec)
	}
	return w.Flush()
}
