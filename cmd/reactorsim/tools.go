package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"sort"
	"strings"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/san-kum/reactorsim/internal/config"
	"github.com/san-kum/reactorsim/internal/dynamo"
	"github.com/san-kum/reactorsim/internal/experiment"
	"github.com/san-kum/reactorsim/internal/integrators"
	"github.com/san-kum/reactorsim/internal/optim"
	"github.com/san-kum/reactorsim/internal/stream"
	"github.com/san-kum/reactorsim/internal/viz"
)

func compareMethods(cmd *cobra.Command, args []string) error {
	base, err := resolveConfig(cmd, args[0])
	if err != nil {
		return err
	}
	methods := args[1:]

	jobs := make([]dynamo.Job, 0, len(methods))
	for _, m := range methods {
		cfg := base.Clone()
		cfg.Method = m
		exp := experiment.New(cfg).WithLogger(logrus.StandardLogger())
		if err := exp.Setup(); err != nil {
			fmt.Printf("%-8s  error: %v\n", m, err)
			continue
		}
		jobs = append(jobs, exp.Job(m))
	}
	if len(jobs) == 0 {
		return fmt.Errorf("no runnable methods")
	}

	tempIdx := 1
	if base.Model == config.ModelTank {
		tempIdx = 0
	}

	fmt.Printf("comparing methods for %s over [%g, %g] (rtol=%g, atol=%g)\n\n",
		base.Model, base.TStart, base.TEnd, base.Solver.RTol, base.Solver.ATol)

	start := time.Now()
	outcomes := dynamo.RunEnsemble(context.Background(), jobs, 0)
	elapsed := time.Since(start)

	fmt.Printf("%-8s  %-8s  %-14s  %-8s  %-8s  %-8s  %-6s\n", "method", "step", "final_T", "steps", "rejected", "evals", "status")
	fmt.Println(strings.Repeat("-", 72))

	results := make([]*dynamo.Result, 0, len(outcomes))
	names := make([]string, 0, len(outcomes))
	for _, out := range outcomes {
		status := "ok"
		if out.Err != nil {
			status = out.Err.Error()
		}
		var s dynamo.Stats
		if out.Result != nil {
			s = out.Result.Stats
			results = append(results, out.Result)
			names = append(names, out.Name)
		}
		fmt.Printf("%-8s  %-8s  %-14s  %-8d  %-8d  %-8d  %s\n",
			out.Name, stepKind(out.Name), viz.FormatValue(finalValue(out.Result, tempIdx)), s.Steps, s.Rejected, s.Evaluations, status)
	}
	fmt.Printf("\nwall time %v\n\n", elapsed)

	caption := fmt.Sprintf("temperature: %s", strings.Join(names, ", "))
	if chart := viz.Overlay(results, tempIdx, caption, viz.DefaultChartOptions()); chart != "" {
		fmt.Println(chart)
	}
	return nil
}

func tuneController(cmd *cobra.Command, args []string) error {
	base, err := resolveConfig(cmd, args[0])
	if err != nil {
		return err
	}
	if base.Model != config.ModelCSTRPI {
		return fmt.Errorf("tune needs a controlled model (%s), got %s", config.ModelCSTRPI, base.Model)
	}

	axes := grid
	if len(axes) == 0 {
		axes = []string{
			"controller.kp=1e7,5e7,1e8",
			"controller.ki=0,5e5,1e6,2e6,4e6",
		}
	}

	names := make([]string, 0, len(axes))
	ranges := make([][]float64, 0, len(axes))
	for _, a := range axes {
		name, values, err := parseAxis(a)
		if err != nil {
			return err
		}
		if _, err := base.GetParam(name); err != nil {
			return err
		}
		names = append(names, name)
		ranges = append(ranges, values)
	}

	log := logrus.New()
	log.SetLevel(logrus.WarnLevel)
	build := optim.FromConfig(base)
	quiet := func(p map[string]float64) (*experiment.Experiment, error) {
		exp, err := build(p)
		if err != nil {
			return nil, err
		}
		return exp.WithLogger(log), nil
	}

	gs := optim.NewGridSearch(names, ranges).WithWorkers(workers)
	best, value, trials, err := gs.Search(cmd.Context(), quiet, tuneMetric)
	if err != nil {
		return err
	}

	sort.SliceStable(trials, func(i, j int) bool {
		if (trials[i].Err == nil) != (trials[j].Err == nil) {
			return trials[i].Err == nil
		}
		return trials[i].Value < trials[j].Value
	})

	fmt.Printf("%d grid points, minimizing %s\n\n", len(trials), tuneMetric)
	for _, tr := range trials {
		status := viz.FormatValue(tr.Value)
		if tr.Err != nil {
			status = "error: " + tr.Err.Error()
		}
		fmt.Printf("  %-40s  %s\n", formatParams(tr.Params), status)
	}

	fmt.Printf("\nbest: %s  %s=%s\n", formatParams(best), tuneMetric, viz.FormatValue(value))
	return nil
}

func serve(cmd *cobra.Command, args []string) error {
	base, err := resolveConfig(cmd, args[0])
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	srv := &http.Server{
		Addr:    addr,
		Handler: stream.NewServer(base).WithLogger(logrus.StandardLogger()).Handler(),
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
	}()

	logrus.WithFields(logrus.Fields{"addr": addr, "model": base.Model, "method": base.Method}).Info("serving runs on /ws")
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

func stepKind(method string) string {
	if integrators.Adaptive(method) {
		return "adaptive"
	}
	return "fixed"
}

func formatParams(p map[string]float64) string {
	keys := make([]string, 0, len(p))
	for k := range p {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	parts := make([]string, len(keys))
	for i, k := range keys {
		parts[i] = fmt.Sprintf("%s=%g", k, p[k])
	}
	return strings.Join(parts, " ")
}
