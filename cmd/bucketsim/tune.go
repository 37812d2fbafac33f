package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"sort"

	"github.com/spf13/cobra"

	"github.com/san-kum/bucketsim/internal/config"
	"github.com/san-kum/bucketsim/internal/optim"
)

var (
	tuneAreas   []float64
	tuneInflows []float64
	targetLevel float64
)

func newTuneCmd(settings config.Settings) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "tune",
		Short: "grid search area and inflow for a target final level",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return tune(cmd, settings)
		},
	}
	addScenarioFlags(cmd)
	cmd.Flags().Float64SliceVar(&tuneAreas, "areas", nil, "candidate tank areas")
	cmd.Flags().Float64SliceVar(&tuneInflows, "inflows", nil, "candidate constant inflows")
	cmd.Flags().Float64Var(&targetLevel, "target", 4.0, "target level at the end of the span")
	return cmd
}

func tune(cmd *cobra.Command, settings config.Settings) error {
	var params []optim.Param
	if len(tuneAreas) > 0 {
		params = append(params, optim.AreaParam(tuneAreas...))
	}
	if len(tuneInflows) > 0 {
		params = append(params, optim.InflowParam(tuneInflows...))
	}
	if len(params) == 0 {
		return fmt.Errorf("nothing to search: pass --areas and/or --inflows")
	}

	cfg, name, err := resolveScenario(cmd, settings)
	if err != nil {
		return err
	}
	base, err := cfg.SimConfig()
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	res, err := optim.NewGridSearch(params...).Search(ctx, base, optim.TargetLevel(targetLevel))
	if err != nil {
		return err
	}
	logger.Debug("grid search finished", "evaluated", res.Evaluated, "failed", res.Failed)

	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "tuning %s for h(t1) = %g over %d runs (%d failed)\n", name, targetLevel, res.Evaluated, res.Failed)

	keys := make([]string, 0, len(res.Best))
	for k := range res.Best {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		fmt.Fprintf(out, "  %s: %g\n", k, res.Best[k])
	}
	fmt.Fprintf(out, "  |h(t1) - target|: %.6f\n", res.Value)
	return nil
}
