package integrators

import (
	"math"

	"github.com/milosgajdos/matrix"
	"gonum.org/v1/gonum/diff/fd"
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"

	"github.com/san-kum/reactorsim/internal/dynamo"
)

const (
	bdfMaxOrder      = 5
	newtonMaxIter    = 4
	bdfDiffRows      = bdfMaxOrder + 3
	bdfHalveOnNewton = 0.5
)

// NDF coefficients (Shampine & Reichelt, 1997). kappa = 0 gives plain BDF.
var (
	bdfKappa      = [bdfMaxOrder + 1]float64{0, -0.1850, -1.0 / 9.0, -0.0823, -0.0415, 0}
	bdfGamma      [bdfMaxOrder + 1]float64
	bdfAlpha      [bdfMaxOrder + 1]float64
	bdfErrorConst [bdfMaxOrder + 2]float64
)

func init() {
	for i := 1; i <= bdfMaxOrder; i++ {
		bdfGamma[i] = bdfGamma[i-1] + 1/float64(i)
	}
	for i := 0; i <= bdfMaxOrder; i++ {
		bdfAlpha[i] = (1 - bdfKappa[i]) * bdfGamma[i]
	}
	for i := 0; i < len(bdfErrorConst); i++ {
		kg := 0.0
		if i <= bdfMaxOrder {
			kg = bdfKappa[i] * bdfGamma[i]
		}
		bdfErrorConst[i] = kg + 1/float64(i+1)
	}
}

// BDF is a variable-order (1 to 5), quasi-constant step numerical
// differentiation formula solver. The history is kept as a backward
// difference array D; changing the step rescales D instead of re-starting.
// Each step solves the implicit corrector with a simplified Newton iteration
// on (I - c·J), where J is a central finite-difference Jacobian that is only
// refreshed when Newton fails to converge.
type BDF struct {
	*ivp

	h         float64
	order     int
	equal     int
	newtonTol float64

	d   *mat.Dense // bdfDiffRows × n
	jac *mat.Dense
	lu  *mat.LU
	eye mat.Matrix

	fresh bool // jac evaluated at the current point
}

// NewBDF implements dynamo.Method.
func NewBDF(sys dynamo.System, t0 float64, y0 dynamo.State, tEnd float64, cfg dynamo.Config) (dynamo.Solver, error) {
	p, err := newIVP(sys, t0, y0, tEnd, cfg)
	if err != nil {
		return nil, err
	}
	eye, err := matrix.NewDenseValIdentity(p.n, 1.0)
	if err != nil {
		return nil, err
	}

	b := &BDF{
		ivp:       p,
		order:     1,
		newtonTol: math.Max(10*eps/p.rtol, math.Min(0.03, math.Sqrt(p.rtol))),
		d:         mat.NewDense(bdfDiffRows, p.n, nil),
		jac:       mat.NewDense(p.n, p.n, nil),
		eye:       eye,
	}
	if cfg.FirstStep > 0 {
		b.h = math.Min(cfg.FirstStep, tEnd-t0)
	} else {
		b.h = p.initialStep(1)
	}

	b.d.SetRow(0, p.y)
	row := make([]float64, p.n)
	floats.ScaleTo(row, b.h, p.f)
	b.d.SetRow(1, row)

	b.jacobian(t0, p.y)
	return b, nil
}

const eps = 2.220446049250313e-16

func (b *BDF) jacobian(t float64, y dynamo.State) {
	b.stats.Jacobians++
	fd.Jacobian(b.jac, func(dst, x []float64) {
		copy(dst, b.eval(t, x))
	}, y, &fd.JacobianSettings{
		Formula: fd.Central,
	})
	b.fresh = true
	b.lu = nil
}

func (b *BDF) factorize(c float64) {
	a := mat.NewDense(b.n, b.n, nil)
	a.Scale(-c, b.jac)
	a.Add(b.eye, a)

	b.lu = &mat.LU{}
	b.lu.Factorize(a)
	b.stats.Decompositions++
}

// rescale changes the step size of the difference array by factor.
func (b *BDF) rescale(factor float64) {
	order := b.order
	r := bdfR(order, factor)
	u := bdfR(order, 1)

	var ru mat.Dense
	ru.Mul(r, u)

	head := b.d.Slice(0, order+1, 0, b.n).(*mat.Dense)
	var next mat.Dense
	next.Mul(ru.T(), head)
	head.Copy(&next)
}

// bdfR builds the (order+1)² matrix that maps differences at step h to
// differences at step factor·h.
func bdfR(order int, factor float64) *mat.Dense {
	n := order + 1
	m := mat.NewDense(n, n, nil)
	for j := 0; j < n; j++ {
		m.Set(0, j, 1)
	}
	for i := 1; i < n; i++ {
		for j := 1; j < n; j++ {
			m.Set(i, j, (float64(i)-1-factor*float64(j))/float64(i))
		}
	}
	for i := 1; i < n; i++ {
		for j := 0; j < n; j++ {
			m.Set(i, j, m.At(i, j)*m.At(i-1, j))
		}
	}
	return m
}

func (b *BDF) Step() error {
	t := b.t
	hMin := b.minStep()

	h := b.h
	if h > b.hMax {
		h = b.hMax
		b.rescale(b.hMax / b.h)
		b.equal = 0
	} else if h < hMin {
		h = hMin
		b.rescale(hMin / b.h)
		b.equal = 0
	}

	var (
		tNew    float64
		yNew, d []float64
		nIter   int
		scale   = make([]float64, b.n)
		errNorm float64
	)

	for {
		if h < hMin {
			b.h = h
			return b.tooSmall()
		}

		tNew = t + h
		if tNew > b.tEnd {
			tNew = b.tEnd
			b.rescale((tNew - t) / h)
			b.equal = 0
			b.lu = nil
		}
		h = tNew - t

		order := b.order
		yPredict := make([]float64, b.n)
		for i := 0; i <= order; i++ {
			floats.Add(yPredict, b.d.RawRowView(i))
		}
		for i := range scale {
			scale[i] = b.atol + b.rtol*math.Abs(yPredict[i])
		}

		psi := make([]float64, b.n)
		for i := 1; i <= order; i++ {
			floats.AddScaled(psi, bdfGamma[i], b.d.RawRowView(i))
		}
		floats.Scale(1/bdfAlpha[order], psi)

		c := h / bdfAlpha[order]
		converged := false
		for !converged {
			if b.lu == nil {
				b.factorize(c)
			}
			converged, nIter, yNew, d = b.newton(tNew, yPredict, c, psi, scale)
			if converged || b.fresh {
				break
			}
			b.jacobian(tNew, yPredict)
		}

		if !converged {
			h *= bdfHalveOnNewton
			b.rescale(bdfHalveOnNewton)
			b.equal = 0
			b.lu = nil
			b.stats.Rejected++
			continue
		}

		sf := safety * float64(2*newtonMaxIter+1) / float64(2*newtonMaxIter+nIter)

		for i := range scale {
			scale[i] = b.atol + b.rtol*math.Abs(yNew[i])
		}
		errVec := make([]float64, b.n)
		floats.ScaleTo(errVec, bdfErrorConst[order], d)
		errNorm = weightedRMS(errVec, scale)

		if errNorm > 1 || math.IsNaN(errNorm) {
			factor := minFactor
			if !math.IsNaN(errNorm) {
				factor = math.Max(minFactor, sf*math.Pow(errNorm, -1/float64(order+1)))
			}
			h *= factor
			b.rescale(factor)
			b.equal = 0
			b.stats.Rejected++
			continue
		}

		b.accept(tNew, yNew, d, h, scale, errNorm, sf)
		return nil
	}
}

func (b *BDF) accept(tNew float64, yNew, d []float64, h float64, scale []float64, errNorm, sf float64) {
	b.equal++
	b.t = tNew
	b.y = dynamo.State(yNew)
	b.h = h
	b.f = nil
	b.fresh = false
	b.stats.Steps++

	order := b.order
	dd := b.d
	next := make([]float64, b.n)
	floats.SubTo(next, d, dd.RawRowView(order+1))
	dd.SetRow(order+2, next)
	dd.SetRow(order+1, d)
	for i := order; i >= 0; i-- {
		floats.Add(dd.RawRowView(i), dd.RawRowView(i+1))
	}

	if b.equal < order+1 {
		return
	}

	errM, errP := math.Inf(1), math.Inf(1)
	tmp := make([]float64, b.n)
	if order > 1 {
		floats.ScaleTo(tmp, bdfErrorConst[order-1], dd.RawRowView(order))
		errM = weightedRMS(tmp, scale)
	}
	if order < bdfMaxOrder {
		floats.ScaleTo(tmp, bdfErrorConst[order+1], dd.RawRowView(order+2))
		errP = weightedRMS(tmp, scale)
	}

	norms := [3]float64{errM, errNorm, errP}
	best, bestFactor := 0, -1.0
	for i, en := range norms {
		f := math.Pow(en, -1/float64(order+i))
		if f > bestFactor {
			best, bestFactor = i, f
		}
	}

	b.order = order + best - 1
	factor := math.Min(maxFactor, sf*bestFactor)
	b.h *= factor
	b.rescale(factor)
	b.equal = 0
	b.lu = nil
}

// newton solves the corrector equation with the current LU factors.
func (b *BDF) newton(t float64, yPredict []float64, c float64, psi, scale []float64) (converged bool, iter int, y, d []float64) {
	n := b.n
	y = make([]float64, n)
	copy(y, yPredict)
	d = make([]float64, n)

	rhs := mat.NewVecDense(n, nil)
	dy := mat.NewVecDense(n, nil)

	var (
		normOld float64
		hasRate bool
		rate    float64
	)
	for k := 0; k < newtonMaxIter; k++ {
		iter = k + 1
		f := b.eval(t, y)
		if !f.IsValid() {
			break
		}
		for i := 0; i < n; i++ {
			rhs.SetVec(i, c*f[i]-psi[i]-d[i])
		}
		if err := b.lu.SolveVecTo(dy, false, rhs); err != nil {
			break
		}
		step := dy.RawVector().Data
		dyNorm := weightedRMS(step, scale)
		if math.IsNaN(dyNorm) || math.IsInf(dyNorm, 0) {
			break
		}

		if k > 0 {
			hasRate = true
			rate = dyNorm / normOld
		}
		if hasRate && (rate >= 1 || math.Pow(rate, float64(newtonMaxIter-k))/(1-rate)*dyNorm > b.newtonTol) {
			break
		}

		floats.Add(y, step)
		floats.Add(d, step)

		if dyNorm == 0 || (hasRate && rate/(1-rate)*dyNorm < b.newtonTol) {
			converged = true
			break
		}
		normOld = dyNorm
	}
	return converged, iter, y, d
}

// Interpolate evaluates the interpolating polynomial of the current order
// through the backward differences.
func (b *BDF) Interpolate(t float64) dynamo.State {
	order := b.order
	out := make(dynamo.State, b.n)
	copy(out, b.d.RawRowView(0))

	p := 1.0
	for j := 1; j <= order; j++ {
		shift := b.t - b.h*float64(j-1)
		p *= (t - shift) / (b.h * float64(j))
		floats.AddScaled(out, p, b.d.RawRowView(j))
	}
	return out
}

func weightedRMS(v, scale []float64) float64 {
	w := make([]float64, len(v))
	floats.DivTo(w, v, scale)
	return rmsNorm(w)
}
