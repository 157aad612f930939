package integrators

import (
	"math"

	"github.com/san-kum/reactorsim/internal/dynamo"
)

// Stepper advances a state by one explicit step of fixed size.
type Stepper interface {
	Advance(derive func(t float64, x dynamo.State) dynamo.State, x, f dynamo.State, t, dt float64) dynamo.State
	Order() int
}

// Fixed drives a Stepper with constant step Dt, shortening only the last step
// to land on the end of the span. There is no error control.
type Fixed struct {
	*ivp
	stepper Stepper
	dt      float64

	tOld float64
	yOld dynamo.State
	fOld dynamo.State
}

func newFixed(stepper Stepper, sys dynamo.System, t0 float64, y0 dynamo.State, tEnd float64, cfg dynamo.Config) (*Fixed, error) {
	if cfg.Dt < 0 || math.IsNaN(cfg.Dt) {
		return nil, dynamo.InvalidParameter("dt", cfg.Dt, "must be positive")
	}
	p, err := newIVP(sys, t0, y0, tEnd, cfg)
	if err != nil {
		return nil, err
	}
	dt := cfg.Dt
	if dt == 0 {
		dt = dynamo.DefaultConfig().Dt
	}
	if p.hMax < dt {
		dt = p.hMax
	}
	return &Fixed{ivp: p, stepper: stepper, dt: dt}, nil
}

// NewRK4 implements dynamo.Method.
func NewRK4(sys dynamo.System, t0 float64, y0 dynamo.State, tEnd float64, cfg dynamo.Config) (dynamo.Solver, error) {
	return newFixed(NewRK4Stepper(), sys, t0, y0, tEnd, cfg)
}

// NewEuler implements dynamo.Method.
func NewEuler(sys dynamo.System, t0 float64, y0 dynamo.State, tEnd float64, cfg dynamo.Config) (dynamo.Solver, error) {
	return newFixed(NewEulerStepper(), sys, t0, y0, tEnd, cfg)
}

func (s *Fixed) Step() error {
	h := s.dt
	// Avoid a sliver step from accumulated rounding at the end of the span.
	if remaining := s.tEnd - s.t; h >= remaining || remaining-h < 1e-9*h {
		h = remaining
	}
	if h < s.minStep() {
		return s.tooSmall()
	}

	yNew := s.stepper.Advance(s.eval, s.y, s.f, s.t, h)
	tNew := s.t + h
	if h == s.tEnd-s.t {
		tNew = s.tEnd
	}

	s.tOld, s.yOld, s.fOld = s.t, s.y, s.f
	s.t, s.y = tNew, yNew
	s.f = s.eval(tNew, yNew)
	s.stats.Steps++

	if !yNew.IsValid() {
		return dynamo.ErrNonFiniteState
	}
	return nil
}

func (s *Fixed) Interpolate(t float64) dynamo.State {
	if s.yOld == nil {
		return s.y.Clone()
	}
	return hermite(t, s.tOld, s.t, s.yOld, s.fOld, s.y, s.f)
}
