package experiment

import (
	"context"
	"fmt"

	"github.com/sirupsen/logrus"

	"github.com/san-kum/reactorsim/internal/config"
	"github.com/san-kum/reactorsim/internal/dynamo"
)

// Experiment binds one configuration to a ready-to-run simulator.
type Experiment struct {
	cfg       *config.Config
	registry  *Registry
	system    dynamo.System
	simulator *dynamo.Simulator
	log       logrus.FieldLogger
}

func New(cfg *config.Config) *Experiment {
	return &Experiment{
		cfg:      cfg,
		registry: NewRegistry(),
		log:      logrus.StandardLogger(),
	}
}

func (e *Experiment) WithRegistry(r *Registry) *Experiment {
	e.registry = r
	return e
}

func (e *Experiment) WithLogger(l logrus.FieldLogger) *Experiment {
	if l != nil {
		e.log = l
	}
	return e
}

// Setup builds the model, the method and the default metrics. Parameter
// errors from the model surface here rather than mid-run.
func (e *Experiment) Setup() error {
	if err := e.cfg.Validate(); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}

	sys, err := e.registry.GetModel(e.cfg)
	if err != nil {
		return err
	}
	if v, ok := sys.(dynamo.Validator); ok {
		if err := v.Validate(); err != nil {
			return fmt.Errorf("model %s: %w", e.cfg.Model, err)
		}
	}

	method, err := e.registry.GetMethod(e.cfg.Method)
	if err != nil {
		return err
	}

	e.system = sys
	e.simulator = dynamo.New(sys, method).WithLogger(e.log.WithFields(logrus.Fields{
		"model":  e.cfg.Model,
		"method": e.cfg.Method,
	}))
	for _, m := range e.registry.DefaultMetrics(e.cfg, sys) {
		e.simulator.AddMetric(m)
	}
	return nil
}

func (e *Experiment) Run(ctx context.Context) (*dynamo.Result, error) {
	if e.simulator == nil {
		return nil, fmt.Errorf("experiment not setup")
	}
	return e.simulator.Run(ctx, e.InitState(), e.SimConfig())
}

// SimConfig translates the run configuration for the simulator.
func (e *Experiment) SimConfig() dynamo.Config {
	s := e.cfg.Solver
	return dynamo.Config{
		TStart:        e.cfg.TStart,
		TEnd:          e.cfg.TEnd,
		SampleTimes:   e.cfg.SampleTimes(),
		RTol:          s.RTol,
		ATol:          s.ATol,
		FirstStep:     s.FirstStep,
		MaxStep:       s.MaxStep,
		Dt:            s.Dt,
		MaxSteps:      s.MaxSteps,
		ValidateState: true,
	}
}

func (e *Experiment) InitState() dynamo.State {
	return dynamo.State(e.cfg.GetInitState())
}

// Job packages the experiment for dynamo.RunEnsemble.
func (e *Experiment) Job(name string) dynamo.Job {
	return dynamo.Job{
		Name:   name,
		Sim:    e.simulator,
		X0:     e.InitState(),
		Config: e.SimConfig(),
	}
}

func (e *Experiment) Config() *config.Config { return e.cfg }

// GetSimulator returns the underlying simulator for adding observers
func (e *Experiment) GetSimulator() *dynamo.Simulator {
	return e.simulator
}

func (e *Experiment) System() dynamo.System { return e.system }

// Labels returns the state labels of the model, or x0, x1, ... when the
// model does not name them.
func (e *Experiment) Labels() []string {
	if l, ok := e.system.(dynamo.Labeled); ok {
		return l.StateLabels()
	}
	labels := make([]string, len(e.cfg.GetInitState()))
	for i := range labels {
		labels[i] = fmt.Sprintf("x%d", i)
	}
	return labels
}
