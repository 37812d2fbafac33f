package main

import (
	"fmt"
	"os"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/san-kum/bucketsim/internal/config"
	"github.com/san-kum/bucketsim/internal/dynamo"
	"github.com/san-kum/bucketsim/internal/export"
	"github.com/san-kum/bucketsim/internal/metrics"
	"github.com/san-kum/bucketsim/internal/sim"
	"github.com/san-kum/bucketsim/internal/storage"
	"github.com/san-kum/bucketsim/internal/viz"
)

var (
	outPath string
	theme   string
)

func newListCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "list runs",
		Args:  cobra.NoArgs,
		RunE:  listRuns,
	}
}

func listRuns(cmd *cobra.Command, args []string) error {
	st := storage.New(dataDir)
	runs, err := st.List()
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	if len(runs) == 0 {
		fmt.Fprintln(out, "no runs found")
		return nil
	}

	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tSCENARIO\tTIME\tSOLVER\tSTATUS\tSAMPLES\tH(T1)")
	for _, run := range runs {
		status := "ok"
		if !run.Success {
			status = "failed"
		}
		final := "-"
		if v, ok := run.Metrics["final_level"]; ok {
			final = fmt.Sprintf("%.4f", v)
		}
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\t%d\t%s\n",
			run.ID,
			run.Scenario,
			run.Timestamp.Format("2006-01-02 15:04:05"),
			run.Solver,
			status,
			run.Samples,
			final,
		)
	}
	return w.Flush()
}

func newPlotCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "plot [run_id]",
		Short: "plot run results",
		Args:  cobra.ExactArgs(1),
		RunE:  plotRun,
	}
}

func plotRun(cmd *cobra.Command, args []string) error {
	st := storage.New(dataDir)
	meta, err := st.Load(args[0])
	if err != nil {
		return err
	}
	tr, err := st.LoadTrajectory(args[0])
	if err != nil {
		return err
	}
	if tr.Len() == 0 {
		return fmt.Errorf("no data to plot")
	}

	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "run: %s\n", meta.ID)
	fmt.Fprintf(out, "scenario: %s (%s, %s)\n", meta.Scenario, meta.Solver, meta.Inflow)
	fmt.Fprintf(out, "samples: %d\n", tr.Len())

	s := metrics.Summarize(tr)
	fmt.Fprintf(out, "level: min %.4f  max %.4f  mean %.4f  std %.4f\n", s.Min, s.Max, s.Mean, s.StdDev)
	if hEq := meta.Params["equilibrium"]; hEq > 0 {
		fmt.Fprintf(out, "equilibrium: %.4f\n", hEq)
	}

	printLevelPlot(out, tr, meta.Scenario)
	return nil
}

func newExportCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "export [run_id]",
		Short: "export run metadata and samples as JSON",
		Args:  cobra.ExactArgs(1),
		RunE:  exportRun,
	}
	cmd.Flags().StringVarP(&outPath, "out", "o", "", "output file (default stdout)")
	return cmd
}

func exportRun(cmd *cobra.Command, args []string) error {
	st := storage.New(dataDir)
	if outPath == "" {
		return st.ExportJSON(cmd.OutOrStdout(), args[0])
	}

	f, err := os.Create(outPath)
	if err != nil {
		return err
	}
	defer f.Close()
	if err := st.ExportJSON(f, args[0]); err != nil {
		return err
	}
	logger.Info("exported run", "id", args[0], "path", outPath)
	return f.Close()
}

func newExportPNGCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "export-png [run_id]",
		Short: "render the level plot to an image (png, svg or pdf by extension)",
		Args:  cobra.ExactArgs(1),
		RunE:  exportPNG,
	}
	cmd.Flags().StringVarP(&outPath, "out", "o", "", "output file (default <run_id>.png)")
	return cmd
}

func exportPNG(cmd *cobra.Command, args []string) error {
	st := storage.New(dataDir)
	meta, err := st.Load(args[0])
	if err != nil {
		return err
	}
	tr, err := st.LoadTrajectory(args[0])
	if err != nil {
		return err
	}

	p, err := export.LevelPlot(tr, fmt.Sprintf("%s (%s)", meta.Scenario, meta.Solver), meta.Params["equilibrium"])
	if err != nil {
		return err
	}

	path := outPath
	if path == "" {
		path = meta.ID + ".png"
	}
	if err := export.Save(p, path); err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "plot written to %s\n", path)
	return nil
}

func newReplayCmd(settings config.Settings) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "replay [run_id]",
		Short: "replay a stored run, or a fresh one from flags, in the terminal",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return replayRun(cmd, settings, args)
		},
	}
	addScenarioFlags(cmd)
	cmd.Flags().StringVar(&theme, "theme", viz.ThemeOcean.Name, "color theme: "+strings.Join(viz.ThemeNames(), ", "))
	return cmd
}

func replayRun(cmd *cobra.Command, settings config.Settings, args []string) error {
	var (
		tr   *dynamo.Trajectory
		opts = viz.ReplayOptions{Theme: theme}
	)

	if len(args) == 1 {
		st := storage.New(dataDir)
		meta, err := st.Load(args[0])
		if err != nil {
			return err
		}
		if tr, err = st.LoadTrajectory(args[0]); err != nil {
			return err
		}
		opts.Title = meta.Scenario
		opts.Equilibrium = meta.Params["equilibrium"]
	} else {
		cfg, name, err := resolveScenario(cmd, settings)
		if err != nil {
			return err
		}
		sc, err := cfg.SimConfig()
		if err != nil {
			return err
		}
		if tr, err = sim.Run(sc); err != nil {
			return err
		}
		opts.Title = name
		opts.Inflow = sc.Inflow
		opts.Equilibrium = equilibrium(cfg)
	}

	r, err := viz.NewReplay(tr, opts)
	if err != nil {
		return err
	}
	return viz.RunReplay(r)
}

func newPresetsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "presets",
		Short: "list available presets",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
			fmt.Fprintln(w, "NAME\tAREA\tH0\tSPAN\tINFLOW")
			for _, name := range config.ListPresets() {
				p := config.GetPreset(name)
				input, err := p.Input()
				if err != nil {
					return err
				}
				fmt.Fprintf(w, "%s\t%g\t%g\t%v\t%s\n", name, p.Area, p.InitialLevel, p.TimeSpan, input)
			}
			return w.Flush()
		},
	}
}
