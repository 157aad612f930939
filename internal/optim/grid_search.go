package optim

import (
	"context"
	"fmt"
	"math"
	"sort"
	"strings"

	"github.com/san-kum/reactorsim/internal/config"
	"github.com/san-kum/reactorsim/internal/dynamo"
	"github.com/san-kum/reactorsim/internal/experiment"
)

// GridSearch evaluates every combination of parameter values and keeps the
// one with the smallest metric. Each combination is an independent run; the
// runs execute concurrently through dynamo.RunEnsemble.
type GridSearch struct {
	paramNames []string
	ranges     [][]float64
	workers    int
}

func NewGridSearch(params []string, ranges [][]float64) *GridSearch {
	return &GridSearch{paramNames: params, ranges: ranges}
}

func (g *GridSearch) WithWorkers(n int) *GridSearch {
	g.workers = n
	return g
}

// Trial is one evaluated grid point.
type Trial struct {
	Params map[string]float64
	Value  float64
	Err    error
}

// Search runs every grid point built by buildExperiment and returns the best
// parameters and metric value. Failed runs are skipped; if every run fails
// the first error is returned.
func (g *GridSearch) Search(
	ctx context.Context,
	buildExperiment func(params map[string]float64) (*experiment.Experiment, error),
	metricName string,
) (map[string]float64, float64, []Trial, error) {
	if len(g.paramNames) != len(g.ranges) {
		return nil, 0, nil, fmt.Errorf("grid search: %d names but %d ranges", len(g.paramNames), len(g.ranges))
	}

	points := g.points()
	trials := make([]Trial, len(points))
	jobs := make([]dynamo.Job, 0, len(points))
	index := make([]int, 0, len(points))

	for i, p := range points {
		trials[i] = Trial{Params: p, Value: math.NaN()}
		exp, err := buildExperiment(p)
		if err == nil {
			err = exp.Setup()
		}
		if err != nil {
			trials[i].Err = err
			continue
		}
		jobs = append(jobs, exp.Job(label(p)))
		index = append(index, i)
	}

	for k, out := range dynamo.RunEnsemble(ctx, jobs, g.workers) {
		i := index[k]
		if out.Err != nil {
			trials[i].Err = out.Err
			continue
		}
		v, ok := out.Result.Metrics[metricName]
		if !ok {
			trials[i].Err = fmt.Errorf("metric %q not recorded", metricName)
			continue
		}
		trials[i].Value = v
	}

	best := math.Inf(1)
	var bestParams map[string]float64
	var firstErr error
	for _, tr := range trials {
		if tr.Err != nil {
			if firstErr == nil {
				firstErr = tr.Err
			}
			continue
		}
		if tr.Value < best {
			best = tr.Value
			bestParams = tr.Params
		}
	}
	if bestParams == nil {
		if firstErr == nil {
			firstErr = fmt.Errorf("grid search: no grid points")
		}
		return nil, 0, trials, firstErr
	}
	return bestParams, best, trials, nil
}

// points expands the grid depth-first in parameter order.
func (g *GridSearch) points() []map[string]float64 {
	var out []map[string]float64
	var walk func(depth int, current map[string]float64)
	walk = func(depth int, current map[string]float64) {
		if depth == len(g.paramNames) {
			out = append(out, current)
			return
		}
		paramName := g.paramNames[depth]
		for _, val := range g.ranges[depth] {
			newParams := make(map[string]float64, len(current)+1)
			for k, v := range current {
				newParams[k] = v
			}
			newParams[paramName] = val
			walk(depth+1, newParams)
		}
	}
	walk(0, make(map[string]float64))
	return out
}

// FromConfig returns a builder that applies grid parameters to a copy of
// base through config.SetParam.
func FromConfig(base *config.Config) func(map[string]float64) (*experiment.Experiment, error) {
	return func(params map[string]float64) (*experiment.Experiment, error) {
		cfg := base.Clone()
		for name, v := range params {
			if err := cfg.SetParam(name, v); err != nil {
				return nil, err
			}
		}
		return experiment.New(cfg), nil
	}
}

func label(p map[string]float64) string {
	keys := make([]string, 0, len(p))
	for k := range p {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	parts := make([]string, len(keys))
	for i, k := range keys {
		parts[i] = fmt.Sprintf("%s=%g", k, p[k])
	}
	return strings.Join(parts, ",")
}
