package viz

import (
	"errors"
	"math"
	"strings"
	"testing"

	"github.com/san-kum/reactorsim/internal/dynamo"
)

func result() *dynamo.Result {
	res := &dynamo.Result{
		Metrics: map[string]float64{"final_t": 360.01, "iae": math.NaN()},
		Stats:   dynamo.Stats{Steps: 42, Evaluations: 300, Jacobians: 2, Decompositions: 9},
	}
	for i := 0; i < 50; i++ {
		t := float64(i)
		res.Times = append(res.Times, t)
		res.States = append(res.States, dynamo.State{0.5, 350 + 0.2*t})
	}
	return res
}

func TestDownsample(t *testing.T) {
	values := make([]float64, 1000)
	for i := range values {
		values[i] = float64(i)
	}

	out := Downsample(values, 11)
	if len(out) != 11 {
		t.Fatalf("expected 11 values, got %d", len(out))
	}
	if out[0] != 0 || out[10] != 999 {
		t.Errorf("expected endpoints kept, got %v and %v", out[0], out[10])
	}

	short := []float64{1, 2, 3}
	if got := Downsample(short, 10); len(got) != 3 {
		t.Errorf("expected short input untouched, got %v", got)
	}
}

func TestChart(t *testing.T) {
	out := Chart(result(), 1, "T", DefaultChartOptions())
	if !strings.Contains(out, "T  t=[0, 49]") {
		t.Errorf("expected caption in chart, got:\n%s", out)
	}

	if got := Chart(&dynamo.Result{}, 0, "C", DefaultChartOptions()); got != "" {
		t.Errorf("expected empty chart for empty result, got %q", got)
	}
}

func TestCharts(t *testing.T) {
	charts := Charts(result(), []string{"C", "T"}, DefaultChartOptions())
	if len(charts) != 2 {
		t.Fatalf("expected 2 charts, got %d", len(charts))
	}
}

func TestSummary(t *testing.T) {
	out := Summary(RunInfo{ID: "cstr_1_abc", Model: "cstr", Method: "bdf", Labels: []string{"C", "T"}}, result())
	for _, want := range []string{"cstr / bdf", "ok", "steps", "42", "jacobians", "final_t", "n/a"} {
		if !strings.Contains(out, want) {
			t.Errorf("summary missing %q:\n%s", want, out)
		}
	}

	failed := Summary(RunInfo{Model: "cstr", Method: "rk45", Err: errors.New("step size below minimum")}, nil)
	if !strings.Contains(failed, "failed") || !strings.Contains(failed, "step size below minimum") {
		t.Errorf("expected failure in summary:\n%s", failed)
	}
}

func TestFormatValue(t *testing.T) {
	tests := []struct {
		in   float64
		want string
	}{
		{math.NaN(), "n/a"},
		{0, "0"},
		{360.5, "360.5"},
		{1e6, "1.0000e+06"},
		{2.5e-5, "2.5000e-05"},
	}
	for _, tt := range tests {
		if got := FormatValue(tt.in); got != tt.want {
			t.Errorf("FormatValue(%v) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestSparkline(t *testing.T) {
	if got := Sparkline([]float64{0, 7, 0}, 3); got != "▁█▁" {
		t.Errorf("unexpected sparkline %q", got)
	}
	if got := Sparkline(nil, 3); got != "───" {
		t.Errorf("unexpected empty sparkline %q", got)
	}
}
