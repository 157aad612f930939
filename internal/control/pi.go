package control

import (
	"math"

	"github.com/san-kum/reactorsim/internal/dynamo"
)

// Tolerance is a near-equality test |a-b| <= Abs + Rel*|b|. It decides whether
// the output clamp was applied.
type Tolerance struct {
	Rel float64
	Abs float64
}

func DefaultTolerance() Tolerance {
	return Tolerance{Rel: 1e-5, Abs: 1e-8}
}

func (tol Tolerance) Equal(a, b float64) bool {
	return math.Abs(a-b) <= tol.Abs+tol.Rel*math.Abs(b)
}

// PI is a proportional-integral law with output saturation and conditional
// integration. It holds no state: the integral accumulator is part of the ODE
// state vector and is advanced by the solver.
type PI struct {
	Kp        float64
	Ki        float64
	Setpoint  float64
	OutputMin float64
	OutputMax float64
	Tolerance Tolerance
}

func NewPI(kp, ki, setpoint float64) PI {
	return PI{
		Kp:        kp,
		Ki:        ki,
		Setpoint:  setpoint,
		OutputMin: math.Inf(-1),
		OutputMax: math.Inf(1),
		Tolerance: DefaultTolerance(),
	}
}

func (p PI) WithOutputLimits(min, max float64) PI {
	p.OutputMin = min
	p.OutputMax = max
	return p
}

func (p PI) WithTolerance(tol Tolerance) PI {
	p.Tolerance = tol
	return p
}

// Compute evaluates the law for a measured value.
func (p PI) Compute(measured, integral float64) (output, dIntegral float64) {
	return p.Law(p.Setpoint-measured, integral)
}

// Law returns the saturated output and the derivative of the integral state.
// While the output is clamped the integral derivative is exactly zero.
func (p PI) Law(err, integral float64) (output, dIntegral float64) {
	unsat := p.Kp*err + p.Ki*integral
	output = Clamp(unsat, p.OutputMin, p.OutputMax)

	if p.Tolerance.Equal(output, unsat) {
		return output, err
	}
	return output, 0
}

// Saturated reports whether the law clamps at this operating point.
func (p PI) Saturated(err, integral float64) bool {
	unsat := p.Kp*err + p.Ki*integral
	return !p.Tolerance.Equal(Clamp(unsat, p.OutputMin, p.OutputMax), unsat)
}

func (p PI) Validate() error {
	if p.OutputMin > p.OutputMax {
		return dynamo.InvalidParameter("output_min", p.OutputMin, "must not exceed output_max")
	}
	if p.Tolerance.Rel < 0 {
		return dynamo.InvalidParameter("tolerance.rel", p.Tolerance.Rel, "must not be negative")
	}
	if p.Tolerance.Abs < 0 {
		return dynamo.InvalidParameter("tolerance.abs", p.Tolerance.Abs, "must not be negative")
	}
	return nil
}

func Clamp(x, lo, hi float64) float64 {
	if x < lo {
		return lo
	}
	if x > hi {
		return hi
	}
	return x
}
