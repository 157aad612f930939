package main

import (
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/san-kum/reactorsim/internal/automation"
	"github.com/san-kum/reactorsim/internal/storage"
	"github.com/san-kum/reactorsim/internal/viz"
)

func runScenario(cmd *cobra.Command, args []string) error {
	sc, err := automation.LoadScenario(args[0])
	if err != nil {
		return err
	}

	st := storage.New(dataDir)
	if err := st.Init(); err != nil {
		return err
	}

	runner := automation.NewRunner(st)
	runner.Log = logrus.StandardLogger()

	results, err := runner.RunScenario(cmd.Context(), sc)
	if err != nil {
		return err
	}

	fmt.Printf("scenario: %s\n", sc.Name)
	if sc.Description != "" {
		fmt.Printf("%s\n", sc.Description)
	}
	fmt.Println()

	failed := 0
	for _, r := range results {
		if r.Err != nil {
			failed++
		}
		if r.Config == nil {
			fmt.Printf("%s: %v\n\n", r.Name, r.Err)
			continue
		}
		fmt.Println(viz.Summary(viz.RunInfo{
			ID:     r.RunID,
			Model:  r.Config.Model,
			Method: r.Config.Method,
			Labels: r.Labels,
			Err:    r.Err,
		}, r.Result))
	}

	if failed > 0 {
		return fmt.Errorf("%d of %d steps failed", failed, len(results))
	}
	return nil
}

func runSweep(cmd *cobra.Command, args []string) error {
	base, err := resolveConfig(cmd, args[0])
	if err != nil {
		return err
	}

	log := logrus.New()
	log.SetLevel(logrus.WarnLevel)
	runner := automation.NewRunner(nil)
	runner.Log = log

	results, err := runner.RunSweep(cmd.Context(), &automation.ParameterSweep{
		Base:      base,
		ParamName: sweepParam,
		Min:       sweepMin,
		Max:       sweepMax,
		NumSteps:  sweepSteps,
		Workers:   workers,
	})
	if err != nil {
		return err
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintf(w, "%s\tFINAL STATE\tSTATUS\n", sweepParam)
	for _, r := range results {
		status := "ok"
		if r.Err != nil {
			status = r.Err.Error()
		}
		final := ""
		for i, v := range r.FinalState {
			if i > 0 {
				final += " "
			}
			final += viz.FormatValue(v)
		}
		fmt.Fprintf(w, "%g\t%s\t%s\n", r.ParamValue, final, status)
	}
	return w.Flush()
}
