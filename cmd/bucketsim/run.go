package main

import (
	"context"
	"fmt"
	"io"
	"math"
	"os"
	"os/signal"
	"sort"
	"text/tabwriter"
	"time"

	"github.com/guptarohit/asciigraph"
	"github.com/spf13/cobra"

	"github.com/san-kum/bucketsim/internal/config"
	"github.com/san-kum/bucketsim/internal/dynamo"
	"github.com/san-kum/bucketsim/internal/export"
	"github.com/san-kum/bucketsim/internal/integrators"
	"github.com/san-kum/bucketsim/internal/metrics"
	"github.com/san-kum/bucketsim/internal/sim"
	"github.com/san-kum/bucketsim/internal/storage"
)

var (
	noSave   bool
	showPlot bool
	pngPath  string
	areas    []float64
)

func newRunCmd(settings config.Settings) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "run",
		Short: "run simulation",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runSimulation(cmd, settings)
		},
	}
	addScenarioFlags(cmd)
	cmd.Flags().BoolVar(&noSave, "no-save", false, "do not store the run")
	cmd.Flags().BoolVar(&showPlot, "plot", false, "print an ascii plot of the level")
	return cmd
}

func runSimulation(cmd *cobra.Command, settings config.Settings) error {
	cfg, name, err := resolveScenario(cmd, settings)
	if err != nil {
		return err
	}
	sc, err := cfg.SimConfig()
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "running %s (%s, A=%g, %s)...\n", name, sc.Solver.Name(), sc.Area, sc.Inflow)

	logger.Info("run started", "scenario", name, "solver", sc.Solver.Name())
	start := time.Now()
	tr, err := sim.Run(sc)
	if err != nil {
		return err
	}
	elapsed := time.Since(start)
	logger.Info("run finished", "scenario", name, "solver", tr.Solver, "status", tr.Status.String(),
		"nfev", tr.NFev, "samples", tr.Len(), "elapsed", elapsed)

	hEq := equilibrium(cfg)
	values := evaluate(tr, hEq)

	printOutcome(out, tr, elapsed)
	printMetrics(out, values)
	if showPlot {
		printLevelPlot(out, tr, name)
	}

	if !noSave {
		params := cfg.Params()
		if hEq > 0 {
			params["equilibrium"] = hEq
		}
		st := storage.New(dataDir)
		runID, err := st.Save(storage.RunMetadata{
			Scenario: name,
			Policy:   sc.Policy.String(),
			Inflow:   fmt.Sprint(sc.Inflow),
			Params:   params,
			Metrics:  values,
		}, tr)
		if err != nil {
			return err
		}
		fmt.Fprintf(out, "run id: %s\n", runID)
		logger.Info("run saved", "id", runID, "dir", st.Dir())
	}

	if !tr.Success {
		logger.Warn("integration failed", "scenario", name, "err", tr.Err)
		return fmt.Errorf("%s: %s", name, tr.Message)
	}
	return nil
}

// evaluate computes the bucket metrics, dropping NaN values that would not
// survive JSON encoding.
func evaluate(tr *dynamo.Trajectory, hEq float64) map[string]float64 {
	ms := []metrics.Metric{metrics.NewFinalLevel(), metrics.NewMinLevel()}
	if hEq > 0 {
		ms = metrics.ForBucket(hEq)
	}
	values := metrics.Evaluate(tr, ms...)
	for k, v := range values {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			delete(values, k)
		}
	}
	return values
}

func printOutcome(w io.Writer, tr *dynamo.Trajectory, elapsed time.Duration) {
	t, x := tr.Final()
	fmt.Fprintf(w, "status: %s\n", tr.Status)
	fmt.Fprintf(w, "message: %s\n", tr.Message)
	fmt.Fprintf(w, "completed in %v\n", elapsed)
	fmt.Fprintf(w, "samples: %d  nfev: %d\n", tr.Len(), tr.NFev)
	if len(x) > 0 {
		fmt.Fprintf(w, "h(%.4g) = %.6f\n", t, x[0])
	}
}

func printMetrics(w io.Writer, values map[string]float64) {
	names := make([]string, 0, len(values))
	for name := range values {
		names = append(names, name)
	}
	sort.Strings(names)

	fmt.Fprintln(w, "\nmetrics:")
	for _, name := range names {
		fmt.Fprintf(w, "  %s: %.6f\n", name, values[name])
	}
}

func printLevelPlot(w io.Writer, tr *dynamo.Trajectory, caption string) {
	h := tr.Component(0)
	if len(h) == 0 {
		return
	}
	graph := asciigraph.Plot(h,
		asciigraph.Height(10),
		asciigraph.Width(80),
		asciigraph.Caption(caption+": level h(t)"),
	)
	fmt.Fprintln(w)
	fmt.Fprintln(w, graph)
}

func newCompareCmd(settings config.Settings) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "compare [solver...]",
		Short: "compare solvers on the same scenario",
		RunE: func(cmd *cobra.Command, args []string) error {
			return compareSolvers(cmd, settings, args)
		},
	}
	addScenarioFlags(cmd)
	cmd.Flags().StringVar(&pngPath, "png", "", "write a comparison plot to this file")
	return cmd
}

func compareSolvers(cmd *cobra.Command, settings config.Settings, names []string) error {
	if len(names) == 0 {
		names = integrators.Names()
	}
	cfg, name, err := resolveScenario(cmd, settings)
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "comparing solvers on %s\n\n", name)

	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "SOLVER\tSTATUS\tH(T1)\tNFEV\tSAMPLES\tTIME")

	var series []export.Series
	for _, solverName := range names {
		c := cfg.Clone()
		c.Solver = solverName
		sc, err := c.SimConfig()
		if err != nil {
			return err
		}

		start := time.Now()
		tr, err := sim.Run(sc)
		if err != nil {
			return err
		}
		elapsed := time.Since(start)

		fmt.Fprintf(w, "%s\t%s\t%.6f\t%d\t%d\t%v\n", tr.Solver, tr.Status, finalLevel(tr), tr.NFev, tr.Len(), elapsed)
		series = append(series, export.Series{Label: tr.Solver, Traj: tr})
	}
	if err := w.Flush(); err != nil {
		return err
	}

	return writeComparison(out, name+": solvers", series)
}

func writeComparison(out io.Writer, title string, series []export.Series) error {
	if pngPath == "" {
		return nil
	}
	p, err := export.ComparePlot(title, series...)
	if err != nil {
		return err
	}
	if err := export.Save(p, pngPath); err != nil {
		return err
	}
	fmt.Fprintf(out, "\nplot written to %s\n", pngPath)
	return nil
}

func newSweepCmd(settings config.Settings) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "sweep",
		Short: "run the scenario for several tank areas in parallel",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return sweepAreas(cmd, settings)
		},
	}
	addScenarioFlags(cmd)
	cmd.Flags().Float64SliceVar(&areas, "areas", []float64{1, 2, 5, 10, 20}, "tank areas to sweep")
	cmd.Flags().StringVar(&pngPath, "png", "", "write a comparison plot to this file")
	return cmd
}

func sweepAreas(cmd *cobra.Command, settings config.Settings) error {
	cfg, name, err := resolveScenario(cmd, settings)
	if err != nil {
		return err
	}

	cfgs := make([]sim.Config, len(areas))
	for i, a := range areas {
		c := cfg.Clone()
		c.Area = a
		sc, err := c.SimConfig()
		if err != nil {
			return fmt.Errorf("area %g: %w", a, err)
		}
		cfgs[i] = sc
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	start := time.Now()
	results, err := sim.Sweep(ctx, cfgs)
	if err != nil {
		return err
	}
	logger.Debug("sweep finished", "runs", len(results), "elapsed", time.Since(start))

	hEq := equilibrium(cfg)
	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "sweeping %d areas on %s\n\n", len(areas), name)

	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "AREA\tSTATUS\tH(T1)\tRISE\tSETTLE\tNFEV")

	series := make([]export.Series, len(results))
	for i, tr := range results {
		rise, settle := math.NaN(), math.NaN()
		if hEq > 0 {
			values := metrics.Evaluate(tr, metrics.NewRiseTime(hEq), metrics.NewSettlingTime(hEq, 0.02))
			rise, settle = values["rise_time"], values["settling_time"]
		}
		fmt.Fprintf(w, "%g\t%s\t%.6f\t%s\t%s\t%d\n", areas[i], tr.Status,
			finalLevel(tr), formatTime(rise), formatTime(settle), tr.NFev)
		series[i] = export.Series{Label: fmt.Sprintf("A=%g", areas[i]), Traj: tr}
	}
	if err := w.Flush(); err != nil {
		return err
	}

	return writeComparison(out, name+": areas", series)
}

func finalLevel(tr *dynamo.Trajectory) float64 {
	_, x := tr.Final()
	if len(x) == 0 {
		return math.NaN()
	}
	return x[0]
}

func formatTime(v float64) string {
	if math.IsNaN(v) {
		return "-"
	}
	return fmt.Sprintf("%.3fs", v)
}
