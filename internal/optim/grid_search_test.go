package optim

import (
	"context"
	"io"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/san-kum/reactorsim/internal/config"
	"github.com/san-kum/reactorsim/internal/experiment"
)

func quiet(build func(map[string]float64) (*experiment.Experiment, error)) func(map[string]float64) (*experiment.Experiment, error) {
	l := logrus.New()
	l.SetOutput(io.Discard)
	return func(p map[string]float64) (*experiment.Experiment, error) {
		exp, err := build(p)
		if err != nil {
			return nil, err
		}
		return exp.WithLogger(l), nil
	}
}

func TestGridPoints(t *testing.T) {
	g := NewGridSearch([]string{"a", "b"}, [][]float64{{1, 2}, {10, 20, 30}})
	points := g.points()

	assert.Len(t, points, 6)
	assert.Equal(t, map[string]float64{"a": 1, "b": 10}, points[0])
	assert.Equal(t, map[string]float64{"a": 2, "b": 30}, points[5])
}

func TestIntegralActionReducesIAE(t *testing.T) {
	assert := assert.New(t)

	base := config.GetPreset(config.ModelCSTRPI, "step_heat")
	g := NewGridSearch([]string{"controller.ki"}, [][]float64{{0, 2e6}}).WithWorkers(2)

	best, value, trials, err := g.Search(context.Background(), quiet(FromConfig(base)), "iae")
	require.NoError(t, err)

	assert.Equal(2e6, best["controller.ki"])
	assert.Len(trials, 2)
	assert.Greater(trials[0].Value, trials[1].Value)
	assert.Equal(trials[1].Value, value)

	// The base config is not modified by the search.
	assert.Equal(2e6, base.Controller.Ki)
}

func TestSearchUnknownParameter(t *testing.T) {
	base := config.GetPreset(config.ModelCSTRPI, "step_heat")
	g := NewGridSearch([]string{"controller.kd"}, [][]float64{{1}})

	_, _, trials, err := g.Search(context.Background(), FromConfig(base), "iae")
	assert.Error(t, err)
	require.Len(t, trials, 1)
	assert.Error(t, trials[0].Err)
}

func TestSearchSkipsFailedRuns(t *testing.T) {
	assert := assert.New(t)

	base := config.GetPreset(config.ModelCSTRPI, "step_heat")
	g := NewGridSearch([]string{"reactor.v"}, [][]float64{{0, 10}})

	best, _, trials, err := g.Search(context.Background(), quiet(FromConfig(base)), "iae")
	require.NoError(t, err)
	assert.Equal(10.0, best["reactor.v"])
	assert.Error(trials[0].Err)
}

func TestSearchMismatchedRanges(t *testing.T) {
	g := NewGridSearch([]string{"a", "b"}, [][]float64{{1}})
	_, _, _, err := g.Search(context.Background(), nil, "iae")
	assert.Error(t, err)
}

func TestLabel(t *testing.T) {
	assert.Equal(t, "a=1,b=2.5", label(map[string]float64{"b": 2.5, "a": 1}))
}
