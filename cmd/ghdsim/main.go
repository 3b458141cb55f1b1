package main

import (
	"os"

	"github.com/san-kum/ghdsim/internal/config"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
)

var (
	dataDir    string
	logLevel   string
	workers    int
	configFile string
	preset     string
	dt         float64
	duration   float64
	implicit   bool
	runOrder   int
	corrOrder  int
	liveOrder  int
	evalTime   float64
	position   int
	correlated bool
	snapshot   int
	frameRate  int

	env config.Env
)

// main registers the ghdsim commands and exits with status 1 on failure.
func main() {
	rootCmd := &cobra.Command{
		Use:           "ghdsim",
		Short:         "generalized hydrodynamics of the Lieb-Liniger gas",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			var err error
			env, err = config.LoadEnv()
			if err != nil {
				return err
			}
			if !cmd.Flags().Changed("data") {
				dataDir = env.DataDir
			}
			if !cmd.Flags().Changed("log-level") {
				logLevel = env.LogLevel
			}
			level, err := logrus.ParseLevel(logLevel)
			if err != nil {
				return err
			}
			logrus.SetLevel(level)
			return nil
		},
	}

	rootCmd.PersistentFlags().StringVar(&dataDir, "data", config.DefaultDataDir, "data directory")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "info", "log level (debug, info, warn, error)")
	rootCmd.PersistentFlags().IntVar(&workers, "workers", 0, "parallel position solves (0 = GOMAXPROCS)")
	rootCmd.PersistentFlags().StringVar(&configFile, "config", "", "config file path (yaml)")
	rootCmd.PersistentFlags().StringVar(&preset, "preset", "", "use preset configuration")

	runCmd := &cobra.Command{
		Use:   "run",
		Short: "propagate the initial filling and store the run",
		Args:  cobra.NoArgs,
		RunE:  runPropagation,
	}
	runCmd.Flags().Float64Var(&dt, "dt", config.DefaultDt, "timestep")
	runCmd.Flags().Float64Var(&duration, "time", config.DefaultDuration, "duration")
	runCmd.Flags().BoolVar(&implicit, "implicit", false, "use implicit midpoint departure points")
	runCmd.Flags().IntVar(&runOrder, "correlator", 0, "also evaluate g_n of this order for every snapshot")

	velocityCmd := &cobra.Command{
		Use:   "velocity",
		Short: "print effective velocity and acceleration of the initial filling",
		Args:  cobra.NoArgs,
		RunE:  printEffective,
	}
	velocityCmd.Flags().Float64Var(&evalTime, "at", 0, "evaluation time")
	velocityCmd.Flags().IntVar(&position, "x", -1, "position index (default: centre)")

	correlatorCmd := &cobra.Command{
		Use:   "correlator [run_id]",
		Short: "local correlator g_n of the initial filling or of a stored run",
		Args:  cobra.MaximumNArgs(1),
		RunE:  printCorrelator,
	}
	correlatorCmd.Flags().IntVar(&corrOrder, "order", config.DefaultOrder, "correlator order n")

	listCmd := &cobra.Command{
		Use:   "list",
		Short: "list runs",
		Args:  cobra.NoArgs,
		RunE:  listRuns,
	}

	plotCmd := &cobra.Command{
		Use:   "plot [run_id]",
		Short: "plot stored profiles",
		Args:  cobra.ExactArgs(1),
		RunE:  plotRun,
	}
	plotCmd.Flags().BoolVar(&correlated, "correlator", false, "plot the stored correlator instead of the density")
	plotCmd.Flags().IntVar(&snapshot, "snapshot", -1, "snapshot index (default: all, first and last)")

	exportCmd := &cobra.Command{
		Use:   "export [run_id]",
		Short: "export run data to JSON",
		Args:  cobra.ExactArgs(1),
		RunE:  exportRun,
	}

	analyzeCmd := &cobra.Command{
		Use:   "analyze [run_id]",
		Short: "cloud moments and breathing frequency of a stored run",
		Args:  cobra.ExactArgs(1),
		RunE:  analyzeRun,
	}

	presetsCmd := &cobra.Command{
		Use:   "presets",
		Short: "list available presets",
		Args:  cobra.NoArgs,
		RunE:  listPresets,
	}

	liveCmd := &cobra.Command{
		Use:   "live",
		Short: "propagate with a live terminal view",
		Args:  cobra.NoArgs,
		RunE:  runLive,
	}
	liveCmd.Flags().Float64Var(&dt, "dt", config.DefaultDt, "timestep")
	liveCmd.Flags().BoolVar(&implicit, "implicit", false, "use implicit midpoint departure points")
	liveCmd.Flags().IntVar(&liveOrder, "correlator", 0, "show g_n of this order")
	liveCmd.Flags().IntVar(&frameRate, "fps", 30, "frame rate")

	rootCmd.AddCommand(runCmd, velocityCmd, correlatorCmd, listCmd, plotCmd, exportCmd, analyzeCmd, presetsCmd, liveCmd)

	if err := rootCmd.Execute(); err != nil {
		logrus.Error(err)
		os.Exit(1)
	}
}
