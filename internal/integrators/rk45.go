package integrators

import (
	"math"

	"github.com/san-kum/reactorsim/internal/dynamo"
)

// Dormand-Prince coefficients (RK45)
var (
	a2 = 1.0 / 5.0
	a3 = 3.0 / 10.0
	a4 = 4.0 / 5.0
	a5 = 8.0 / 9.0

	b21 = 1.0 / 5.0
	b31 = 3.0 / 40.0
	b32 = 9.0 / 40.0
	b41 = 44.0 / 45.0
	b42 = -56.0 / 15.0
	b43 = 32.0 / 9.0
	b51 = 19372.0 / 6561.0
	b52 = -25360.0 / 2187.0
	b53 = 64448.0 / 6561.0
	b54 = -212.0 / 729.0
	b61 = 9017.0 / 3168.0
	b62 = -355.0 / 33.0
	b63 = 46732.0 / 5247.0
	b64 = 49.0 / 176.0
	b65 = -5103.0 / 18656.0

	c1 = 35.0 / 384.0
	c3 = 500.0 / 1113.0
	c4 = 125.0 / 192.0
	c5 = -2187.0 / 6784.0
	c6 = 11.0 / 84.0

	dc1 = c1 - 5179.0/57600.0
	dc3 = c3 - 7571.0/16695.0
	dc4 = c4 - 393.0/640.0
	dc5 = c5 - -92097.0/339200.0
	dc6 = c6 - 187.0/2100.0
	dc7 = -1.0 / 40.0
)

// Continuous extension of order 4 (Shampine, 1986). Row i weights stage i.
var rk45Dense = [7][4]float64{
	{1, -8048581381.0 / 2820520608.0, 8663915743.0 / 2820520608.0, -12715105075.0 / 11282082432.0},
	{0, 0, 0, 0},
	{0, 131558114200.0 / 32700410799.0, -68118460800.0 / 10900136933.0, 87487479700.0 / 32700410799.0},
	{0, -1754552775.0 / 470086768.0, 14199869525.0 / 1410260304.0, -10690763975.0 / 1880347072.0},
	{0, 127303824393.0 / 49829197408.0, -318862633887.0 / 49829197408.0, 701980252875.0 / 199316789632.0},
	{0, -282668133.0 / 205662961.0, 2019193451.0 / 616988883.0, -1453857185.0 / 822651844.0},
	{0, 40617522.0 / 29380423.0, -110615467.0 / 29380423.0, 69997945.0 / 29380423.0},
}

const (
	rk45Order    = 4 // order of the error estimator
	safety       = 0.9
	minFactor    = 0.2
	maxFactor    = 10.0
	rk45Exponent = -1.0 / (rk45Order + 1)
)

// RK45 is the Dormand-Prince 5(4) pair with local extrapolation, step-size
// control on the embedded error estimate and FSAL reuse of the last stage.
type RK45 struct {
	*ivp
	h float64

	k     [7]dynamo.State
	stage dynamo.State

	tOld float64
	yOld dynamo.State
	hOld float64
}

// NewRK45 implements dynamo.Method.
func NewRK45(sys dynamo.System, t0 float64, y0 dynamo.State, tEnd float64, cfg dynamo.Config) (dynamo.Solver, error) {
	p, err := newIVP(sys, t0, y0, tEnd, cfg)
	if err != nil {
		return nil, err
	}
	r := &RK45{ivp: p, stage: make(dynamo.State, p.n)}
	for i := range r.k {
		r.k[i] = make(dynamo.State, p.n)
	}
	if cfg.FirstStep > 0 {
		r.h = math.Min(cfg.FirstStep, tEnd-t0)
	} else {
		r.h = p.initialStep(rk45Order)
	}
	return r, nil
}

func (r *RK45) Step() error {
	t, y := r.t, r.y
	hMin := r.minStep()

	h := r.h
	if h > r.hMax {
		h = r.hMax
	} else if h < hMin {
		h = hMin
	}

	rejected := false
	for {
		if h < hMin {
			return r.tooSmall()
		}

		tNew := t + h
		if tNew > r.tEnd {
			tNew = r.tEnd
		}
		h = tNew - t

		yNew, fNew := r.attempt(t, y, r.f, h)

		errVec := make([]float64, r.n)
		for i := range errVec {
			k := r.k
			errVec[i] = h * (dc1*k[0][i] + dc3*k[2][i] + dc4*k[3][i] + dc5*k[4][i] + dc6*k[5][i] + dc7*k[6][i])
		}
		errNorm := r.scaledNorm(errVec, y, yNew)

		if errNorm < 1 {
			factor := maxFactor
			if errNorm > 0 {
				factor = math.Min(maxFactor, safety*math.Pow(errNorm, rk45Exponent))
			}
			if rejected {
				factor = math.Min(1, factor)
			}

			r.tOld, r.yOld, r.hOld = t, y, h
			r.t, r.y, r.f = tNew, yNew, fNew
			r.h = h * factor
			r.stats.Steps++
			return nil
		}

		factor := minFactor
		if !math.IsNaN(errNorm) && !math.IsInf(errNorm, 0) {
			factor = math.Max(minFactor, safety*math.Pow(errNorm, rk45Exponent))
		}
		h *= factor
		rejected = true
		r.stats.Rejected++
	}
}

// attempt evaluates the six stages from (t, y) with f = y'(t, y) and returns
// the fifth-order solution and its derivative (the seventh stage).
func (r *RK45) attempt(t float64, y, f dynamo.State, h float64) (dynamo.State, dynamo.State) {
	n := r.n
	x := r.stage
	copy(r.k[0], f)
	k1 := r.k[0]

	for i := 0; i < n; i++ {
		x[i] = y[i] + h*b21*k1[i]
	}
	k2 := r.eval(t+a2*h, x)
	copy(r.k[1], k2)

	for i := 0; i < n; i++ {
		x[i] = y[i] + h*(b31*k1[i]+b32*k2[i])
	}
	k3 := r.eval(t+a3*h, x)
	copy(r.k[2], k3)

	for i := 0; i < n; i++ {
		x[i] = y[i] + h*(b41*k1[i]+b42*k2[i]+b43*k3[i])
	}
	k4 := r.eval(t+a4*h, x)
	copy(r.k[3], k4)

	for i := 0; i < n; i++ {
		x[i] = y[i] + h*(b51*k1[i]+b52*k2[i]+b53*k3[i]+b54*k4[i])
	}
	k5 := r.eval(t+a5*h, x)
	copy(r.k[4], k5)

	for i := 0; i < n; i++ {
		x[i] = y[i] + h*(b61*k1[i]+b62*k2[i]+b63*k3[i]+b64*k4[i]+b65*k5[i])
	}
	k6 := r.eval(t+h, x)
	copy(r.k[5], k6)

	yNew := make(dynamo.State, n)
	for i := 0; i < n; i++ {
		yNew[i] = y[i] + h*(c1*k1[i]+c3*k3[i]+c4*k4[i]+c5*k5[i]+c6*k6[i])
	}

	fNew := r.eval(t+h, yNew)
	copy(r.k[6], fNew)

	return yNew, fNew
}

func (r *RK45) Interpolate(t float64) dynamo.State {
	if r.yOld == nil || r.hOld == 0 {
		return r.y.Clone()
	}
	x := (t - r.tOld) / r.hOld
	powers := [4]float64{x, x * x, x * x * x, x * x * x * x}

	out := r.yOld.Clone()
	for i := 0; i < r.n; i++ {
		acc := 0.0
		for s := 0; s < 7; s++ {
			ks := r.k[s][i]
			if ks == 0 {
				continue
			}
			w := 0.0
			for j := 0; j < 4; j++ {
				w += rk45Dense[s][j] * powers[j]
			}
			acc += ks * w
		}
		out[i] += r.hOld * acc
	}
	return out
}
