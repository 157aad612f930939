// Package export renders stored trajectories to image files.
package export

import (
	"errors"
	"fmt"
	"image/color"
	"math"

	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/vg"
	"gonum.org/v1/plot/vg/draw"

	"github.com/san-kum/reactorsim/internal/dynamo"
)

var palette = []color.Color{
	color.RGBA{R: 31, G: 119, B: 180, A: 255},
	color.RGBA{R: 214, G: 39, B: 40, A: 255},
	color.RGBA{R: 44, G: 160, B: 44, A: 255},
	color.RGBA{R: 148, G: 103, B: 189, A: 255},
}

// Options controls the layout of a trajectory plot. Columns selects the state
// components to draw; empty means all of them.
type Options struct {
	Title    string
	Labels   []string
	Columns  []int
	Setpoint *float64
	// DisturbanceAt draws a vertical marker when it is not NaN.
	DisturbanceAt float64
	// Markers adds a glyph at every sample, useful for coarse trajectories.
	Markers bool
	Width         vg.Length
	Height        vg.Length
}

func DefaultOptions() Options {
	return Options{
		DisturbanceAt: math.NaN(),
		Width:         8 * vg.Inch,
		Height:        4 * vg.Inch,
	}
}

// NewTrajectoryPlot draws one line per selected state component against time.
func NewTrajectoryPlot(res *dynamo.Result, opts Options) (*plot.Plot, error) {
	if res == nil || res.Len() < 2 {
		return nil, errors.New("export: need at least two samples to plot")
	}

	cols := opts.Columns
	if len(cols) == 0 {
		for i := range res.States[0] {
			cols = append(cols, i)
		}
	}

	p := plot.New()
	p.Title.Text = opts.Title
	p.X.Label.Text = "t [s]"
	p.Legend.Top = true

	for k, c := range cols {
		if c < 0 || c >= len(res.States[0]) {
			return nil, fmt.Errorf("export: column %d out of range", c)
		}
		line, err := plotter.NewLine(makePoints(res.Times, res.Column(c)))
		if err != nil {
			return nil, err
		}
		line.Color = palette[k%len(palette)]
		line.Width = vg.Points(1.5)
		p.Add(line)
		p.Legend.Add(label(opts.Labels, c), line)

		if opts.Markers {
			sc, err := plotter.NewScatter(makePoints(res.Times, res.Column(c)))
			if err != nil {
				return nil, err
			}
			sc.GlyphStyle.Color = line.Color
			sc.Shape = draw.CircleGlyph{}
			sc.GlyphStyle.Radius = vg.Points(2)
			p.Add(sc)
		}
	}

	t0, t1 := res.Times[0], res.Times[res.Len()-1]
	if opts.Setpoint != nil {
		sp, err := plotter.NewLine(plotter.XYs{{X: t0, Y: *opts.Setpoint}, {X: t1, Y: *opts.Setpoint}})
		if err != nil {
			return nil, err
		}
		sp.Color = color.Gray{Y: 96}
		sp.Dashes = []vg.Length{vg.Points(4), vg.Points(4)}
		p.Add(sp)
		p.Legend.Add("setpoint", sp)
	}

	if !math.IsNaN(opts.DisturbanceAt) && opts.DisturbanceAt >= t0 && opts.DisturbanceAt <= t1 {
		lo, hi := columnRange(res, cols)
		if opts.Setpoint != nil {
			lo = math.Min(lo, *opts.Setpoint)
			hi = math.Max(hi, *opts.Setpoint)
		}
		marker, err := plotter.NewLine(plotter.XYs{{X: opts.DisturbanceAt, Y: lo}, {X: opts.DisturbanceAt, Y: hi}})
		if err != nil {
			return nil, err
		}
		marker.Color = color.RGBA{R: 255, G: 128, A: 255}
		marker.Dashes = []vg.Length{vg.Points(2), vg.Points(2)}
		p.Add(marker)
		p.Legend.Add("disturbance", marker)
	}

	return p, nil
}

// SavePNG writes the trajectory plot to path.
func SavePNG(path string, res *dynamo.Result, opts Options) error {
	p, err := NewTrajectoryPlot(res, opts)
	if err != nil {
		return err
	}
	w, h := opts.Width, opts.Height
	if w <= 0 {
		w = 8 * vg.Inch
	}
	if h <= 0 {
		h = 4 * vg.Inch
	}
	return p.Save(w, h, path)
}

func makePoints(xs, ys []float64) plotter.XYs {
	pts := make(plotter.XYs, len(xs))
	for i := range xs {
		pts[i].X = xs[i]
		pts[i].Y = ys[i]
	}
	return pts
}

func columnRange(res *dynamo.Result, cols []int) (lo, hi float64) {
	lo, hi = math.Inf(1), math.Inf(-1)
	for _, c := range cols {
		for _, v := range res.Column(c) {
			lo = math.Min(lo, v)
			hi = math.Max(hi, v)
		}
	}
	return lo, hi
}

func label(labels []string, i int) string {
	if i < len(labels) {
		return labels[i]
	}
	return fmt.Sprintf("x%d", i)
}
