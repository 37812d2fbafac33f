package main

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/san-kum/bucketsim/internal/config"
)

var (
	dataDir string
	logger  = slog.Default()
)

// main loads environment settings, wires the logger and runs the CLI.
// It exits with status 1 if the command returns an error.
func main() {
	settings, err := config.LoadSettings()
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	logger = newLogger(os.Stderr, settings)

	if err := newRootCmd(settings).Execute(); err != nil {
		logger.Error("command failed", "err", err)
		os.Exit(1)
	}
}

func newRootCmd(settings config.Settings) *cobra.Command {
	rootCmd := &cobra.Command{
		Use:           "bucketsim",
		Short:         "leaking tank simulation",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	rootCmd.PersistentFlags().StringVar(&dataDir, "data", settings.DataDir, "data directory")

	rootCmd.AddCommand(
		newRunCmd(settings),
		newCompareCmd(settings),
		newSweepCmd(settings),
		newTuneCmd(settings),
		newListCmd(),
		newPlotCmd(),
		newExportCmd(),
		newExportPNGCmd(),
		newReplayCmd(settings),
		newPresetsCmd(),
	)
	return rootCmd
}
