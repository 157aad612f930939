package viz

import (
	"fmt"

	"github.com/guptarohit/asciigraph"

	"github.com/san-kum/reactorsim/internal/dynamo"
)

type ChartOptions struct {
	Width  int
	Height int
	// MaxPoints downsamples long trajectories before plotting.
	MaxPoints int
}

func DefaultChartOptions() ChartOptions {
	return ChartOptions{Width: 80, Height: 10, MaxPoints: 400}
}

// Chart plots state component col against sample index.
func Chart(res *dynamo.Result, col int, name string, opts ChartOptions) string {
	if res == nil || res.Len() == 0 {
		return ""
	}
	data := Downsample(res.Column(col), opts.MaxPoints)
	caption := fmt.Sprintf("%s  t=[%.4g, %.4g]", name, res.Times[0], res.Times[res.Len()-1])

	return asciigraph.Plot(data,
		asciigraph.Height(opts.Height),
		asciigraph.Width(opts.Width),
		asciigraph.Caption(caption),
	)
}

// Charts plots every state component of res, one chart per component.
func Charts(res *dynamo.Result, labels []string, opts ChartOptions) []string {
	if res == nil || res.Len() == 0 {
		return nil
	}
	out := make([]string, 0, len(res.States[0]))
	for i := range res.States[0] {
		out = append(out, Chart(res, i, label(labels, i), opts))
	}
	return out
}

// Overlay draws the same component of several runs on one chart, e.g. the
// reactor temperature for each integration method.
func Overlay(results []*dynamo.Result, col int, caption string, opts ChartOptions) string {
	series := make([][]float64, 0, len(results))
	for _, r := range results {
		if r == nil || r.Len() == 0 {
			continue
		}
		series = append(series, Downsample(r.Column(col), opts.MaxPoints))
	}
	if len(series) == 0 {
		return ""
	}
	return asciigraph.PlotMany(series,
		asciigraph.Height(opts.Height),
		asciigraph.Width(opts.Width),
		asciigraph.Caption(caption),
	)
}

// Downsample keeps at most n evenly spaced values, always including the last.
func Downsample(values []float64, n int) []float64 {
	if n <= 1 || len(values) <= n {
		return values
	}
	out := make([]float64, 0, n)
	stride := float64(len(values)-1) / float64(n-1)
	for i := 0; i < n; i++ {
		out = append(out, values[int(float64(i)*stride+0.5)])
	}
	return out
}
