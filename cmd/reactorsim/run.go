package main

import (
	"context"
	"encoding/csv"
	"fmt"
	"math"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/san-kum/reactorsim/internal/analysis"
	"github.com/san-kum/reactorsim/internal/config"
	"github.com/san-kum/reactorsim/internal/dynamo"
	"github.com/san-kum/reactorsim/internal/experiment"
	"github.com/san-kum/reactorsim/internal/export"
	"github.com/san-kum/reactorsim/internal/storage"
	"github.com/san-kum/reactorsim/internal/viz"
)

func runSimulation(cmd *cobra.Command, args []string) error {
	cfg, err := resolveConfig(cmd, args[0])
	if err != nil {
		return err
	}

	st := storage.New(dataDir)
	if err := st.Init(); err != nil {
		return err
	}

	exp := experiment.New(cfg).WithLogger(logrus.StandardLogger())
	if err := exp.Setup(); err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	fmt.Printf("running %s simulation (%s)...\n", cfg.Model, cfg.Method)
	start := time.Now()
	result, runErr := exp.Run(ctx)
	elapsed := time.Since(start)

	if result == nil {
		return runErr
	}

	runID, err := st.Save(storage.Run{Config: cfg, Labels: exp.Labels(), Result: result, Err: runErr})
	if err != nil {
		return err
	}

	fmt.Println(viz.Summary(viz.RunInfo{
		ID:     runID,
		Model:  cfg.Model,
		Method: cfg.Method,
		Labels: exp.Labels(),
		Err:    runErr,
	}, result))
	fmt.Printf("completed in %v\n", elapsed)

	return runErr
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
	fmt.Fprintln(w, "ID\tMODEL\tMETHOD\tTIME\tSPAN\tSTEPS\tSTATUS")

	for _, run := range runs {
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\t[%g, %g]\t%d\t%s\n",
			run.ID,
			run.Model,
			run.Method,
			run.Timestamp.Format("2006-01-02 15:04:05"),
			run.TStart,
			run.TEnd,
			run.Stats.Steps,
			run.Status,
		)
	}

	return w.Flush()
}

func plotRun(cmd *cobra.Command, args []string) error {
	st := storage.New(dataDir)
	meta, res, err := st.LoadResult(args[0])
	if err != nil {
		return err
	}
	if res.Len() == 0 {
		return fmt.Errorf("no data to plot")
	}

	if pngPath != "" {
		opts := export.DefaultOptions()
		opts.Title = fmt.Sprintf("%s (%s)", meta.Model, meta.Method)
		opts.Labels = meta.Labels
		if column >= 0 {
			opts.Columns = []int{column}
		}
		if cfg := meta.Config; cfg != nil {
			if cfg.Model == config.ModelCSTRPI {
				sp := cfg.Controller.Setpoint
				opts.Setpoint = &sp
				if column < 0 {
					opts.Columns = []int{1}
				}
			}
			if cfg.Disturbance.Active() {
				opts.DisturbanceAt = cfg.Disturbance.At
			}
		}
		if err := export.SavePNG(pngPath, res, opts); err != nil {
			return err
		}
		fmt.Printf("wrote %s\n", pngPath)
		return nil
	}

	fmt.Printf("run: %s\n", meta.ID)
	fmt.Printf("model: %s (%s)\n", meta.Model, meta.Method)
	fmt.Printf("samples: %d\n\n", res.Len())

	opts := viz.DefaultChartOptions()
	if column >= 0 {
		if column >= len(res.States[0]) {
			return fmt.Errorf("column %d out of range", column)
		}
		fmt.Println(viz.Chart(res, column, label(meta.Labels, column), opts))
		return nil
	}
	for _, chart := range viz.Charts(res, meta.Labels, opts) {
		fmt.Println(chart)
		fmt.Println()
	}
	return nil
}

func exportCSV(cmd *cobra.Command, args []string) error {
	st := storage.New(dataDir)
	meta, res, err := st.LoadResult(args[0])
	if err != nil {
		return err
	}
	if res.Len() == 0 {
		return fmt.Errorf("no data to export")
	}

	w := csv.NewWriter(os.Stdout)
	if err := storage.WriteCSV(w, meta.Labels, res); err != nil {
		return err
	}
	w.Flush()
	return w.Error()
}

func exportJSON(cmd *cobra.Command, args []string) error {
	st := storage.New(dataDir)
	meta, res, err := st.LoadResult(args[0])
	if err != nil {
		return err
	}
	return storage.ExportJSON(os.Stdout, *meta, res)
}

func analyzeRun(cmd *cobra.Command, args []string) error {
	st := storage.New(dataDir)
	meta, res, err := st.LoadResult(args[0])
	if err != nil {
		return err
	}
	if res.Len() < 2 {
		return fmt.Errorf("not enough samples to analyze")
	}

	fmt.Printf("run: %s\n", meta.ID)
	fmt.Printf("model: %s (%s), status %s\n\n", meta.Model, meta.Method, meta.Status)

	tEnd := res.Times[res.Len()-1]
	tailFrom := tEnd - 0.1*(tEnd-res.Times[0])

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "VAR\tFINAL\tTAIL MEAN\tMIN\tMAX\tTREND")
	dim := len(res.States[0])
	for i := 0; i < dim; i++ {
		col := res.Column(i)
		lo, hi := math.Inf(1), math.Inf(-1)
		for _, v := range col {
			lo, hi = math.Min(lo, v), math.Max(hi, v)
		}
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\t%s\n",
			label(meta.Labels, i),
			viz.FormatValue(col[len(col)-1]),
			viz.FormatValue(analysis.TailMean(res.Times, col, tailFrom)),
			viz.FormatValue(lo),
			viz.FormatValue(hi),
			analysis.Monotone(col, 1e-9),
		)
	}
	if err := w.Flush(); err != nil {
		return err
	}

	cfg := meta.Config
	if cfg != nil && cfg.Model == config.ModelCSTRPI && dim > 1 {
		temp := res.Column(1)
		sp := cfg.Controller.Setpoint
		fmt.Printf("\ntracking (setpoint %.4g K):\n", sp)
		fmt.Printf("  iae:        %s\n", viz.FormatValue(analysis.IAE(res.Times, temp, sp)))
		fmt.Printf("  ise:        %s\n", viz.FormatValue(analysis.ISE(res.Times, temp, sp)))
		fmt.Printf("  overshoot:  %s\n", viz.FormatValue(analysis.Overshoot(temp, sp)))
		if ts, ok := analysis.SettlingTime(res.Times, temp, sp, 0.5); ok {
			fmt.Printf("  settled:    t=%.4g (±0.5 K)\n", ts)
		} else {
			fmt.Println("  settled:    no")
		}
	}

	if cfg != nil {
		sys, err := experiment.NewRegistry().GetModel(cfg)
		if err == nil {
			r := analysis.Residual(sys, res.Final(), tEnd)
			fmt.Printf("\nresidual |dx/dt| at t=%.4g: %s\n", tEnd, viz.FormatValue(r))
		}
	}

	if dim > 1 && xAxis < dim && yAxis < dim {
		if p := analysis.PhasePortrait(res, xAxis, yAxis); p != nil {
			fmt.Printf("\nphase plane %s vs %s (o start, * end):\n", label(meta.Labels, yAxis), label(meta.Labels, xAxis))
			fmt.Println(p.ASCII(70, 20))
		}
	}
	return nil
}

func label(labels []string, i int) string {
	if i < len(labels) {
		return labels[i]
	}
	return fmt.Sprintf("x%d", i)
}

// parseAssignment splits "name=value" into a parameter name and a number.
func parseAssignment(s string) (string, float64, error) {
	name, raw, ok := strings.Cut(s, "=")
	if !ok || name == "" {
		return "", 0, fmt.Errorf("expected name=value, got %q", s)
	}
	v, err := strconv.ParseFloat(strings.TrimSpace(raw), 64)
	if err != nil {
		return "", 0, fmt.Errorf("parameter %s: %w", name, err)
	}
	return strings.TrimSpace(name), v, nil
}

// parseAxis splits "name=v1,v2,..." into a grid axis.
func parseAxis(s string) (string, []float64, error) {
	name, raw, ok := strings.Cut(s, "=")
	if !ok || name == "" || raw == "" {
		return "", nil, fmt.Errorf("expected name=v1,v2,..., got %q", s)
	}
	parts := strings.Split(raw, ",")
	values := make([]float64, 0, len(parts))
	for _, p := range parts {
		v, err := strconv.ParseFloat(strings.TrimSpace(p), 64)
		if err != nil {
			return "", nil, fmt.Errorf("grid axis %s: %w", name, err)
		}
		values = append(values, v)
	}
	return strings.TrimSpace(name), values, nil
}

func finalValue(res *dynamo.Result, i int) float64 {
	if res == nil {
		return math.NaN()
	}
	final := res.Final()
	if i >= len(final) {
		return math.NaN()
	}
	return final[i]
}
