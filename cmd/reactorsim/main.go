package main

import (
	"fmt"
	"os"
	"strings"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/san-kum/reactorsim/internal/config"
	"github.com/san-kum/reactorsim/internal/experiment"
)

var (
	dataDir  string
	logLevel string

	configFile string
	preset     string
	method     string
	duration   float64
	samples    int
	rtol       float64
	atol       float64
	maxSteps   int
	kp         float64
	ki         float64
	setpoint   float64
	overrides  []string

	pngPath string
	column  int
	xAxis   int
	yAxis   int

	grid       []string
	tuneMetric string
	workers    int

	addr string

	sweepParam string
	sweepMin   float64
	sweepMax   float64
	sweepSteps int
)

func main() {
	rootCmd := &cobra.Command{
		Use:           "reactorsim",
		Short:         "lumped reactor and thermal tank simulator",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return setupLogging(logLevel)
		},
	}

	rootCmd.PersistentFlags().StringVar(&dataDir, "data", ".reactorsim", "data directory")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "info", "log level (debug, info, warn, error)")

	runCmd := &cobra.Command{
		Use:   "run [model]",
		Short: "run simulation and store the result",
		Args:  cobra.ExactArgs(1),
		RunE:  runSimulation,
	}
	addConfigFlags(runCmd)

	listCmd := &cobra.Command{
		Use:   "list",
		Short: "list runs",
		RunE:  listRuns,
	}

	plotCmd := &cobra.Command{
		Use:   "plot [run_id]",
		Short: "plot run results",
		Args:  cobra.ExactArgs(1),
		RunE:  plotRun,
	}
	plotCmd.Flags().StringVar(&pngPath, "png", "", "write a PNG plot to this path instead of the terminal")
	plotCmd.Flags().IntVar(&column, "column", -1, "state index to plot (default all)")

	exportCSVCmd := &cobra.Command{
		Use:   "export-csv [run_id]",
		Short: "export run data to CSV",
		Args:  cobra.ExactArgs(1),
		RunE:  exportCSV,
	}

	exportJSONCmd := &cobra.Command{
		Use:   "export-json [run_id]",
		Short: "export run data to JSON",
		Args:  cobra.ExactArgs(1),
		RunE:  exportJSON,
	}

	presetsCmd := &cobra.Command{
		Use:   "presets [model]",
		Short: "list available presets",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			models := config.Models()
			if len(args) == 1 {
				models = args
			}
			for _, m := range models {
				presets := config.ListPresets(m)
				if len(presets) == 0 {
					fmt.Printf("no presets for model: %s\n", m)
					continue
				}
				fmt.Printf("presets for %s:\n", m)
				for _, p := range presets {
					fmt.Printf("  %s\n", p)
				}
			}
			return nil
		},
	}

	analyzeCmd := &cobra.Command{
		Use:   "analyze [run_id]",
		Short: "step response and steady-state analysis",
		Args:  cobra.ExactArgs(1),
		RunE:  analyzeRun,
	}
	analyzeCmd.Flags().IntVar(&xAxis, "x-axis", 0, "state index for the phase plot x-axis")
	analyzeCmd.Flags().IntVar(&yAxis, "y-axis", 1, "state index for the phase plot y-axis")

	compareCmd := &cobra.Command{
		Use:   "compare [model] [method1] [method2] ...",
		Short: "compare integration methods on the same model",
		Args:  cobra.MinimumNArgs(2),
		RunE:  compareMethods,
	}
	addConfigFlags(compareCmd)

	tuneCmd := &cobra.Command{
		Use:   "tune [model]",
		Short: "grid search over controller gains",
		Args:  cobra.ExactArgs(1),
		RunE:  tuneController,
	}
	addConfigFlags(tuneCmd)
	tuneCmd.Flags().StringArrayVar(&grid, "grid", nil, "grid axis as name=v1,v2,... (repeatable)")
	tuneCmd.Flags().StringVar(&tuneMetric, "metric", "iae", "metric to minimize")
	tuneCmd.Flags().IntVar(&workers, "workers", 0, "concurrent runs (default NumCPU)")

	serveCmd := &cobra.Command{
		Use:   "serve [model]",
		Short: "stream runs to websocket clients",
		Args:  cobra.ExactArgs(1),
		RunE:  serve,
	}
	addConfigFlags(serveCmd)
	serveCmd.Flags().StringVar(&addr, "addr", ":8080", "listen address")

	scenarioCmd := &cobra.Command{
		Use:   "scenario [file]",
		Short: "run every step of a YAML scenario file",
		Args:  cobra.ExactArgs(1),
		RunE:  runScenario,
	}

	sweepCmd := &cobra.Command{
		Use:   "sweep [model]",
		Short: "sweep one parameter over a range",
		Args:  cobra.ExactArgs(1),
		RunE:  runSweep,
	}
	addConfigFlags(sweepCmd)
	sweepCmd.Flags().StringVar(&sweepParam, "param", "reactor.t_in", "parameter to sweep")
	sweepCmd.Flags().Float64Var(&sweepMin, "min", 340, "first value")
	sweepCmd.Flags().Float64Var(&sweepMax, "max", 360, "last value")
	sweepCmd.Flags().IntVar(&sweepSteps, "steps", 5, "number of values")
	sweepCmd.Flags().IntVar(&workers, "workers", 0, "concurrent runs (default NumCPU)")

	modelsCmd := &cobra.Command{
		Use:   "models",
		Short: "list models and integration methods",
		Run: func(cmd *cobra.Command, args []string) {
			reg := experiment.NewRegistry()
			fmt.Printf("models:  %s\n", strings.Join(reg.ListModels(), ", "))
			fmt.Printf("methods: %s\n", strings.Join(reg.ListMethods(), ", "))
		},
	}

	rootCmd.AddCommand(runCmd, listCmd, plotCmd, exportCSVCmd, exportJSONCmd, presetsCmd,
		analyzeCmd, compareCmd, tuneCmd, serveCmd, scenarioCmd, sweepCmd, modelsCmd)

	if err := rootCmd.Execute(); err != nil {
		logrus.WithError(err).Error("command failed")
		os.Exit(1)
	}
}

func setupLogging(level string) error {
	lvl, err := logrus.ParseLevel(level)
	if err != nil {
		return err
	}
	logrus.SetLevel(lvl)
	logrus.SetOutput(os.Stderr)
	logrus.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
	return nil
}

func addConfigFlags(cmd *cobra.Command) {
	cmd.Flags().StringVar(&configFile, "config", "", "config file path (yaml or ini)")
	cmd.Flags().StringVar(&preset, "preset", "", "use preset configuration")
	cmd.Flags().StringVar(&method, "method", config.DefaultMethod, "integration method")
	cmd.Flags().Float64Var(&duration, "time", config.DefaultDuration, "end time [s]")
	cmd.Flags().IntVar(&samples, "samples", config.DefaultSamples, "output samples (0 reports every step)")
	cmd.Flags().Float64Var(&rtol, "rtol", config.DefaultRTol, "relative tolerance")
	cmd.Flags().Float64Var(&atol, "atol", config.DefaultATol, "absolute tolerance")
	cmd.Flags().IntVar(&maxSteps, "max-steps", config.DefaultMaxSteps, "step budget")
	cmd.Flags().Float64Var(&kp, "kp", config.DefaultKp, "controller proportional gain [W/K]")
	cmd.Flags().Float64Var(&ki, "ki", config.DefaultKi, "controller integral gain [W/(K s)]")
	cmd.Flags().Float64Var(&setpoint, "setpoint", config.DefaultSetpoint, "controller setpoint [K]")
	cmd.Flags().StringArrayVar(&overrides, "set", nil, "parameter override as name=value, e.g. reactor.v=12 (repeatable)")
}

// resolveConfig layers preset, config file and flags, in that order. Flags
// only apply when given explicitly.
func resolveConfig(cmd *cobra.Command, model string) (*config.Config, error) {
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
	if flags.Changed("method") {
		cfg.Method = method
	}
	if flags.Changed("time") {
		cfg.TEnd = duration
	}
	if flags.Changed("samples") {
		cfg.Samples = samples
	}
	if flags.Changed("rtol") {
		cfg.Solver.RTol = rtol
	}
	if flags.Changed("atol") {
		cfg.Solver.ATol = atol
	}
	if flags.Changed("max-steps") {
		cfg.Solver.MaxSteps = maxSteps
	}
	if flags.Changed("kp") {
		cfg.Controller.Kp = kp
	}
	if flags.Changed("ki") {
		cfg.Controller.Ki = ki
	}
	if flags.Changed("setpoint") {
		cfg.Controller.Setpoint = setpoint
	}

	for _, o := range overrides {
		name, value, err := parseAssignment(o)
		if err != nil {
			return nil, err
		}
		if err := cfg.SetParam(name, value); err != nil {
			return nil, err
		}
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}
