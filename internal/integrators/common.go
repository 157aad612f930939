package integrators

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/floats"

	"github.com/san-kum/reactorsim/internal/dynamo"
)

// ivp is the state shared by every solver: the current point, the end of the
// span, tolerances and the work counters.
type ivp struct {
	sys   dynamo.System
	n     int
	t     float64
	tEnd  float64
	y     dynamo.State
	f     dynamo.State
	rtol  float64
	atol  float64
	hMax  float64
	stats dynamo.Stats

	// set when Derive returned NaN or Inf at any trial point
	nonFinite bool
}

func newIVP(sys dynamo.System, t0 float64, y0 dynamo.State, tEnd float64, cfg dynamo.Config) (*ivp, error) {
	if len(y0) != sys.StateDim() {
		return nil, fmt.Errorf("%w: got %d, want %d", dynamo.ErrDimensionMismatch, len(y0), sys.StateDim())
	}
	if !(t0 < tEnd) {
		return nil, fmt.Errorf("%w: t0=%g must be less than t_end=%g", dynamo.ErrInvalidParameter, t0, tEnd)
	}
	p := &ivp{
		sys:  sys,
		n:    len(y0),
		t:    t0,
		tEnd: tEnd,
		y:    y0.Clone(),
		rtol: cfg.RTol,
		atol: cfg.ATol,
		hMax: cfg.MaxStep,
	}
	if p.rtol <= 0 {
		p.rtol = dynamo.DefaultConfig().RTol
	}
	if p.atol <= 0 {
		p.atol = dynamo.DefaultConfig().ATol
	}
	if p.hMax <= 0 {
		p.hMax = math.Inf(1)
	}
	p.f = p.eval(t0, p.y)
	return p, nil
}

func (p *ivp) eval(t float64, y dynamo.State) dynamo.State {
	p.stats.Evaluations++
	dy := p.sys.Derive(y, t)
	if !dy.IsValid() {
		p.nonFinite = true
	}
	return dy
}

func (p *ivp) T() float64          { return p.t }
func (p *ivp) Y() dynamo.State     { return p.y }
func (p *ivp) Stats() dynamo.Stats { return p.stats }

// minStep is the smallest step that still advances t in floating point.
func (p *ivp) minStep() float64 {
	return 10 * math.Abs(math.Nextafter(p.t, math.Inf(1))-p.t)
}

func (p *ivp) tooSmall() error {
	if p.nonFinite {
		return fmt.Errorf("%w: %w", dynamo.ErrStepTooSmall, dynamo.ErrNonFiniteState)
	}
	return dynamo.ErrStepTooSmall
}

// scaledNorm is the RMS norm of v[i]/(atol + rtol*max(|a[i]|, |b[i]|)). b may be
// nil.
func (p *ivp) scaledNorm(v, a, b []float64) float64 {
	w := make([]float64, len(v))
	for i := range v {
		m := math.Abs(a[i])
		if b != nil {
			m = math.Max(m, math.Abs(b[i]))
		}
		w[i] = v[i] / (p.atol + p.rtol*m)
	}
	return rmsNorm(w)
}

func rmsNorm(v []float64) float64 {
	if len(v) == 0 {
		return 0
	}
	return floats.Norm(v, 2) / math.Sqrt(float64(len(v)))
}

// initialStep estimates a first step for a method of the given order from two
// derivative evaluations (Hairer, Nørsett & Wanner, sec. II.4).
func (p *ivp) initialStep(order int) float64 {
	if p.n == 0 {
		return math.Inf(1)
	}
	span := p.tEnd - p.t

	d0 := p.scaledNorm(p.y, p.y, nil)
	d1 := p.scaledNorm(p.f, p.y, nil)

	var h0 float64
	if d0 < 1e-5 || d1 < 1e-5 {
		h0 = 1e-6
	} else {
		h0 = 0.01 * d0 / d1
	}
	h0 = math.Min(h0, span)

	y1 := make(dynamo.State, p.n)
	floats.AddScaledTo(y1, p.y, h0, p.f)
	f1 := p.eval(p.t+h0, y1)

	diff := make([]float64, p.n)
	floats.SubTo(diff, f1, p.f)
	d2 := p.scaledNorm(diff, p.y, nil) / h0

	var h1 float64
	if d1 <= 1e-15 && d2 <= 1e-15 {
		h1 = math.Max(1e-6, h0*1e-3)
	} else {
		h1 = math.Pow(0.01/math.Max(d1, d2), 1.0/float64(order+1))
	}
	if math.IsNaN(h1) {
		h1 = h0
	}

	return math.Min(math.Min(100*h0, h1), span)
}

// hermite evaluates the cubic Hermite interpolant through (t0, y0, f0) and
// (t1, y1, f1).
func hermite(t, t0, t1 float64, y0, f0, y1, f1 dynamo.State) dynamo.State {
	h := t1 - t0
	s := (t - t0) / h
	s2 := s * s
	s3 := s2 * s

	h00 := 2*s3 - 3*s2 + 1
	h10 := s3 - 2*s2 + s
	h01 := -2*s3 + 3*s2
	h11 := s3 - s2

	out := make(dynamo.State, len(y0))
	for i := range out {
		out[i] = h00*y0[i] + h10*h*f0[i] + h01*y1[i] + h11*h*f1[i]
	}
	return out
}
