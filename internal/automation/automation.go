// Package automation runs batches of simulations described in YAML
// scenario files, and one-parameter sweeps.
package automation

import (
	"context"
	"fmt"
	"os"

	"github.com/sirupsen/logrus"
	"gonum.org/v1/gonum/floats"
	"gopkg.in/yaml.v3"

	"github.com/san-kum/reactorsim/internal/config"
	"github.com/san-kum/reactorsim/internal/dynamo"
	"github.com/san-kum/reactorsim/internal/experiment"
	"github.com/san-kum/reactorsim/internal/storage"
)

// Scenario is a named list of runs.
type Scenario struct {
	Name        string         `yaml:"name"`
	Description string         `yaml:"description"`
	Steps       []ScenarioStep `yaml:"steps"`
}

// ScenarioStep describes one run. It starts from Preset (or the defaults)
// for Model; Method, TEnd and Samples replace the preset values when set,
// and Set assigns parameters by dotted name.
type ScenarioStep struct {
	Name    string             `yaml:"name"`
	Model   string             `yaml:"model"`
	Preset  string             `yaml:"preset"`
	Method  string             `yaml:"method"`
	TEnd    float64            `yaml:"t_end"`
	Samples int                `yaml:"samples"`
	Set     map[string]float64 `yaml:"set"`
	Save    bool               `yaml:"save"`
}

// StepResult is the outcome of one scenario step. Result may hold a partial
// trajectory when Err is set.
type StepResult struct {
	Name   string
	Config *config.Config
	Labels []string
	Result *dynamo.Result
	Err    error
	RunID  string
}

func LoadScenario(path string) (*Scenario, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	var scenario Scenario
	if err := yaml.Unmarshal(data, &scenario); err != nil {
		return nil, fmt.Errorf("decode scenario %s: %w", path, err)
	}
	if len(scenario.Steps) == 0 {
		return nil, fmt.Errorf("scenario %s has no steps", path)
	}

	return &scenario, nil
}

// Config builds the run configuration of the step.
func (s ScenarioStep) Config() (*config.Config, error) {
	cfg := config.DefaultConfig()
	cfg.Model = s.Model
	if s.Preset != "" {
		cfg = config.GetPreset(s.Model, s.Preset)
		if cfg == nil {
			return nil, fmt.Errorf("unknown preset %s/%s", s.Model, s.Preset)
		}
	}
	if s.Method != "" {
		cfg.Method = s.Method
	}
	if s.TEnd > 0 {
		cfg.TEnd = s.TEnd
	}
	if s.Samples > 0 {
		cfg.Samples = s.Samples
	}
	for k, v := range s.Set {
		if err := cfg.SetParam(k, v); err != nil {
			return nil, err
		}
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Runner executes scenarios. Store is optional; steps with Save set are
// written to it.
type Runner struct {
	Registry *experiment.Registry
	Store    *storage.Store
	Log      logrus.FieldLogger
}

func NewRunner(store *storage.Store) *Runner {
	return &Runner{
		Registry: experiment.NewRegistry(),
		Store:    store,
		Log:      logrus.StandardLogger(),
	}
}

// RunScenario executes the steps in order. A failing step is recorded and
// the remaining steps still run; only context cancellation stops early.
func (r *Runner) RunScenario(ctx context.Context, scenario *Scenario) ([]StepResult, error) {
	results := make([]StepResult, 0, len(scenario.Steps))

	for i, step := range scenario.Steps {
		if err := ctx.Err(); err != nil {
			return results, err
		}

		name := step.Name
		if name == "" {
			name = fmt.Sprintf("step%d", i+1)
		}
		log := r.Log.WithFields(logrus.Fields{"scenario": scenario.Name, "step": name})
		log.Infof("running step %d/%d", i+1, len(scenario.Steps))

		out := StepResult{Name: name}
		cfg, err := step.Config()
		if err != nil {
			out.Err = fmt.Errorf("step %s: %w", name, err)
			results = append(results, out)
			continue
		}
		out.Config = cfg

		exp := experiment.New(cfg).WithRegistry(r.Registry).WithLogger(log)
		if err := exp.Setup(); err != nil {
			out.Err = fmt.Errorf("step %s setup: %w", name, err)
			results = append(results, out)
			continue
		}
		out.Labels = exp.Labels()

		out.Result, out.Err = exp.Run(ctx)
		if out.Err != nil {
			log.WithError(out.Err).Warn("step failed")
		}

		if step.Save && r.Store != nil && out.Result != nil {
			id, err := r.Store.Save(storage.Run{Config: cfg, Labels: out.Labels, Result: out.Result, Err: out.Err})
			if err != nil {
				return results, fmt.Errorf("step %s save: %w", name, err)
			}
			out.RunID = id
		}

		results = append(results, out)
	}

	return results, nil
}

// ParameterSweep runs Base once per value of one parameter, evenly spaced
// over [Min, Max].
type ParameterSweep struct {
	Base      *config.Config
	ParamName string
	Min       float64
	Max       float64
	NumSteps  int
	Workers   int
}

// SweepResult holds the outcome at one parameter value.
type SweepResult struct {
	ParamValue float64
	FinalState dynamo.State
	Metrics    map[string]float64
	Err        error
}

// RunSweep executes the sweep concurrently. Per-point failures are reported
// in the results; setup errors of the base configuration abort the sweep.
func (r *Runner) RunSweep(ctx context.Context, sweep *ParameterSweep) ([]SweepResult, error) {
	if sweep.NumSteps < 1 {
		return nil, dynamo.InvalidParameter("num_steps", float64(sweep.NumSteps), "must be at least 1")
	}
	if _, err := sweep.Base.GetParam(sweep.ParamName); err != nil {
		return nil, err
	}

	values := []float64{sweep.Min}
	if sweep.NumSteps > 1 {
		values = floats.Span(make([]float64, sweep.NumSteps), sweep.Min, sweep.Max)
	}

	results := make([]SweepResult, len(values))
	jobs := make([]dynamo.Job, 0, len(values))
	index := make([]int, 0, len(values))

	for i, v := range values {
		results[i].ParamValue = v

		cfg := sweep.Base.Clone()
		if err := cfg.SetParam(sweep.ParamName, v); err != nil {
			return nil, err
		}
		exp := experiment.New(cfg).WithRegistry(r.Registry).WithLogger(r.Log)
		if err := exp.Setup(); err != nil {
			results[i].Err = err
			continue
		}
		jobs = append(jobs, exp.Job(fmt.Sprintf("%s=%g", sweep.ParamName, v)))
		index = append(index, i)
	}

	for k, out := range dynamo.RunEnsemble(ctx, jobs, sweep.Workers) {
		res := &results[index[k]]
		res.Err = out.Err
		if out.Result != nil {
			res.FinalState = out.Result.Final()
			res.Metrics = out.Result.Metrics
		}
		r.Log.WithField("job", out.Name).Debug("sweep point finished")
	}

	return results, nil
}
