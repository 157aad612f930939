package integrators

import (
	"context"
	"errors"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"

	"github.com/san-kum/reactorsim/internal/dynamo"
)

type funcSystem struct {
	dim int
	f   func(x dynamo.State, t float64) dynamo.State
}

func (s funcSystem) StateDim() int { return s.dim }

func (s funcSystem) Derive(x dynamo.State, t float64) dynamo.State { return s.f(x, t) }

var (
	decay = funcSystem{1, func(x dynamo.State, t float64) dynamo.State {
		return dynamo.State{-x[0]}
	}}
	oscillator = funcSystem{2, func(x dynamo.State, t float64) dynamo.State {
		return dynamo.State{x[1], -x[0]}
	}}
	stiff = funcSystem{1, func(x dynamo.State, t float64) dynamo.State {
		return dynamo.State{-1000 * (x[0] - math.Cos(t))}
	}}
	blowup = funcSystem{1, func(x dynamo.State, t float64) dynamo.State {
		return dynamo.State{x[0] * x[0]}
	}}
)

func sampled(t0, t1 float64, n int) dynamo.Config {
	cfg := dynamo.DefaultConfig()
	cfg.TStart = t0
	cfg.TEnd = t1
	cfg.SampleTimes = floats.Span(make([]float64, n), t0, t1)
	return cfg
}

func TestLookup(t *testing.T) {
	assert := assert.New(t)

	for _, name := range []string{"bdf", "rk45", "rk4", "euler"} {
		m, err := Lookup(name)
		assert.NoError(err, name)
		assert.NotNil(m, name)
	}

	_, err := Lookup("lsoda")
	assert.True(errors.Is(err, dynamo.ErrInvalidParameter))
	assert.Equal([]string{"bdf", "euler", "rk4", "rk45"}, Names())
	assert.True(Adaptive("bdf"))
	assert.False(Adaptive("rk4"))
}

func TestExponentialDecay(t *testing.T) {
	tests := []struct {
		method string
		tol    float64
	}{
		{"rk45", 1e-5},
		{"bdf", 1e-5},
		{"rk4", 1e-8},
		{"euler", 1e-3},
	}

	for _, tc := range tests {
		t.Run(tc.method, func(t *testing.T) {
			assert := assert.New(t)
			method, err := Lookup(tc.method)
			require.NoError(t, err)

			cfg := sampled(0, 5, 51)
			cfg.RTol, cfg.ATol = 1e-6, 1e-9
			cfg.Dt = 0.001

			res, err := dynamo.New(decay, method).Run(context.Background(), dynamo.State{1}, cfg)
			require.NoError(t, err)
			require.Equal(t, 51, res.Len())

			for i, ts := range res.Times {
				assert.InDelta(math.Exp(-ts), res.States[i][0], tc.tol, "t=%g", ts)
			}
			assert.Equal(5.0, res.Times[res.Len()-1])
		})
	}
}

func TestDenseOutput(t *testing.T) {
	assert := assert.New(t)

	for _, name := range []string{"rk45", "bdf"} {
		method, _ := Lookup(name)
		cfg := sampled(0, 10, 101)
		cfg.RTol, cfg.ATol = 1e-8, 1e-10

		res, err := dynamo.New(oscillator, method).Run(context.Background(), dynamo.State{1, 0}, cfg)
		require.NoError(t, err)

		for i, ts := range res.Times {
			assert.InDelta(math.Cos(ts), res.States[i][0], 1e-5, "%s t=%g", name, ts)
			assert.InDelta(-math.Sin(ts), res.States[i][1], 1e-5, "%s t=%g", name, ts)
		}
	}
}

func TestSolverLandsOnEnd(t *testing.T) {
	assert := assert.New(t)
	cfg := dynamo.DefaultConfig()

	for _, name := range Names() {
		method, _ := Lookup(name)
		s, err := method(decay, 0, dynamo.State{1}, 0.37, cfg)
		require.NoError(t, err)

		prev := s.T()
		for s.T() < 0.37 {
			require.NoError(t, s.Step(), name)
			assert.Greater(s.T(), prev, name)
			assert.LessOrEqual(s.T(), 0.37, name)
			prev = s.T()
		}
		assert.Equal(0.37, s.T(), name)
		assert.Positive(s.Stats().Steps, name)
	}
}

func TestStiffProblem(t *testing.T) {
	assert := assert.New(t)

	cfg := dynamo.DefaultConfig()
	cfg.TEnd = 10
	cfg.SampleTimes = []float64{10}
	cfg.RTol, cfg.ATol = 1e-4, 1e-7

	bdf, _ := Lookup("bdf")
	rk45, _ := Lookup("rk45")

	implicit, err := dynamo.New(stiff, bdf).Run(context.Background(), dynamo.State{0}, cfg)
	require.NoError(t, err)
	explicit, err := dynamo.New(stiff, rk45).Run(context.Background(), dynamo.State{0}, cfg)
	require.NoError(t, err)

	// Slow manifold y ≈ cos t + sin(t)/1000.
	want := math.Cos(10) + math.Sin(10)/1000
	assert.InDelta(want, implicit.Final()[0], 1e-4)
	assert.InDelta(want, explicit.Final()[0], 1e-4)

	assert.Less(implicit.Stats.Steps*5, explicit.Stats.Steps)
	assert.Positive(implicit.Stats.Jacobians)
	assert.Positive(implicit.Stats.Decompositions)
	assert.Zero(explicit.Stats.Jacobians)
}

func TestFiniteTimeBlowup(t *testing.T) {
	for _, name := range []string{"bdf", "rk45"} {
		t.Run(name, func(t *testing.T) {
			assert := assert.New(t)
			method, _ := Lookup(name)

			cfg := dynamo.DefaultConfig()
			cfg.TEnd = 2

			res, err := dynamo.New(blowup, method).Run(context.Background(), dynamo.State{1}, cfg)
			require.Error(t, err)
			assert.True(dynamo.IsFailure(err), "got %v", err)

			var simErr *dynamo.SimulationError
			require.True(t, errors.As(err, &simErr))
			assert.Less(simErr.Time, 1.0)
			assert.Greater(simErr.Time, 0.9)

			require.NotNil(t, res)
			assert.Positive(res.Len())
			assert.Less(res.Times[res.Len()-1], 1.0)
		})
	}
}

func TestMaxSteps(t *testing.T) {
	assert := assert.New(t)
	method, _ := Lookup("rk45")

	cfg := dynamo.DefaultConfig()
	cfg.TEnd = 2
	cfg.MaxSteps = 5

	res, err := dynamo.New(blowup, method).Run(context.Background(), dynamo.State{1}, cfg)
	assert.True(errors.Is(err, dynamo.ErrMaxSteps))
	assert.True(errors.Is(err, dynamo.ErrIntegrationFailure))
	assert.Equal(6, res.Len())
	assert.Equal(5, res.Stats.Steps)
}

func TestFixedStepRejectsNegativeDt(t *testing.T) {
	cfg := dynamo.DefaultConfig()
	cfg.Dt = -0.1
	_, err := NewRK4(decay, 0, dynamo.State{1}, 1, cfg)
	assert.True(t, errors.Is(err, dynamo.ErrInvalidParameter))
}

func TestHermiteEndpoints(t *testing.T) {
	assert := assert.New(t)
	y0, f0 := dynamo.State{1, 2}, dynamo.State{0.5, -1}
	y1, f1 := dynamo.State{3, 0}, dynamo.State{2, 1}

	assert.Equal(y0, hermite(0, 0, 2, y0, f0, y1, f1))
	assert.InDeltaSlice([]float64(y1), []float64(hermite(2, 0, 2, y0, f0, y1, f1)), 1e-12)
}

func TestBDFRescaleIdentity(t *testing.T) {
	for order := 1; order <= bdfMaxOrder; order++ {
		u := bdfR(order, 1)
		var uu mat.Dense
		uu.Mul(u, u)

		eye := mat.NewDiagDense(order+1, nil)
		for i := 0; i <= order; i++ {
			eye.SetDiag(i, 1)
		}
		assert.True(t, mat.EqualApprox(&uu, eye, 1e-12), "order %d", order)
	}
}

func TestBDFCoefficients(t *testing.T) {
	assert := assert.New(t)
	assert.InDelta(1.0, bdfGamma[1], 1e-15)
	assert.InDelta(1.5, bdfGamma[2], 1e-15)
	// NDF coefficients with kappa_1 = -0.185.
	assert.InDelta(1.185, bdfAlpha[1], 1e-15)
	assert.InDelta(0.315, bdfErrorConst[1], 1e-15)
	for k := 1; k <= bdfMaxOrder; k++ {
		assert.InDelta((1-bdfKappa[k])*bdfGamma[k], bdfAlpha[k], 1e-15, "order %d", k)
		assert.InDelta(bdfKappa[k]*bdfGamma[k]+1/float64(k+1), bdfErrorConst[k], 1e-15, "order %d", k)
	}
}
