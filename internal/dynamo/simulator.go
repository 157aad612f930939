package dynamo

import (
	"context"
	"errors"
	"fmt"
	"math"
	"sort"

	"github.com/sirupsen/logrus"
)

type Simulator struct {
	sys       System
	method    Method
	metrics   []Metric
	observers []Observer
	log       logrus.FieldLogger
}

func New(sys System, method Method) *Simulator {
	return &Simulator{
		sys:       sys,
		method:    method,
		metrics:   make([]Metric, 0),
		observers: make([]Observer, 0),
		log:       logrus.StandardLogger(),
	}
}

func (s *Simulator) AddMetric(m Metric)     { s.metrics = append(s.metrics, m) }
func (s *Simulator) AddObserver(o Observer) { s.observers = append(s.observers, o) }

// WithLogger replaces the standard logrus logger.
func (s *Simulator) WithLogger(l logrus.FieldLogger) *Simulator {
	if l != nil {
		s.log = l
	}
	return s
}

func (s *Simulator) System() System { return s.sys }

// Run integrates the system from x0 over [cfg.TStart, cfg.TEnd]. On failure the
// samples recorded so far are returned together with a *SimulationError.
func (s *Simulator) Run(ctx context.Context, x0 State, cfg Config) (*Result, error) {
	if err := s.validateConfig(cfg); err != nil {
		return nil, err
	}
	if len(x0) != s.sys.StateDim() {
		return nil, fmt.Errorf("%w: got %d, want %d", ErrDimensionMismatch, len(x0), s.sys.StateDim())
	}
	if v, ok := s.sys.(Validator); ok {
		if err := v.Validate(); err != nil {
			return nil, err
		}
	}

	capacity := len(cfg.SampleTimes)
	if capacity == 0 {
		capacity = 64
	}
	result := &Result{
		States:  make([]State, 0, capacity),
		Times:   make([]float64, 0, capacity),
		Metrics: make(map[string]float64),
	}

	for _, m := range s.metrics {
		m.Reset()
	}

	log := s.log.WithFields(logrus.Fields{
		"t_start": cfg.TStart,
		"t_end":   cfg.TEnd,
		"dim":     len(x0),
	})

	x := x0.Clone()
	if dx := s.sys.Derive(x, cfg.TStart); !dx.IsValid() {
		err := &SimulationError{Step: 0, Time: cfg.TStart, State: x, Wrapped: ErrNonFiniteState}
		log.WithError(err).Warn("initial derivative is not finite")
		return result, err
	}

	solver, err := s.method(s.sys, cfg.TStart, x, cfg.TEnd, cfg)
	if err != nil {
		return nil, err
	}

	samples := cfg.SampleTimes
	next := 0
	if len(samples) == 0 {
		s.record(result, cfg.TStart, x)
	} else {
		for next < len(samples) && samples[next] <= cfg.TStart {
			s.record(result, samples[next], x)
			next++
		}
	}

	log.Debug("integration started")

	steps := 0
	for solver.T() < cfg.TEnd {
		select {
		case <-ctx.Done():
			result.Stats = solver.Stats()
			return result, ctx.Err()
		default:
		}

		if cfg.MaxSteps > 0 && steps >= cfg.MaxSteps {
			err := &SimulationError{Step: steps, Time: solver.T(), State: solver.Y().Clone(), Wrapped: ErrMaxSteps}
			return s.fail(result, solver, log, err)
		}

		if err := solver.Step(); err != nil {
			return s.fail(result, solver, log, &SimulationError{
				Step:    steps,
				Time:    solver.T(),
				State:   solver.Y().Clone(),
				Wrapped: err,
			})
		}
		steps++

		t := solver.T()
		y := solver.Y()
		if cfg.ValidateState && !y.IsValid() {
			return s.fail(result, solver, log, &SimulationError{
				Step:    steps,
				Time:    t,
				State:   y.Clone(),
				Wrapped: ErrNonFiniteState,
			})
		}

		if len(samples) == 0 {
			s.record(result, t, y)
			continue
		}
		for next < len(samples) && samples[next] <= t {
			ts := samples[next]
			if ts == t {
				s.record(result, ts, y)
			} else {
				s.record(result, ts, solver.Interpolate(ts))
			}
			next++
		}
	}

	result.Stats = solver.Stats()
	for _, m := range s.metrics {
		result.Metrics[m.Name()] = m.Value()
	}

	log.WithFields(logrus.Fields{
		"steps":    result.Stats.Steps,
		"rejected": result.Stats.Rejected,
		"evals":    result.Stats.Evaluations,
		"samples":  len(result.Times),
	}).Debug("integration finished")

	return result, nil
}

func (s *Simulator) record(result *Result, t float64, x State) {
	c := x.Clone()
	result.Times = append(result.Times, t)
	result.States = append(result.States, c)
	for _, m := range s.metrics {
		m.Observe(c, t)
	}
	for _, obs := range s.observers {
		obs.OnSample(c, t)
	}
}

func (s *Simulator) fail(result *Result, solver Solver, log logrus.FieldLogger, err *SimulationError) (*Result, error) {
	result.Stats = solver.Stats()
	for _, m := range s.metrics {
		result.Metrics[m.Name()] = m.Value()
	}
	log.WithFields(logrus.Fields{
		"step":    err.Step,
		"t":       err.Time,
		"samples": len(result.Times),
	}).WithError(err.Wrapped).Warn("integration failed")
	return result, err
}

func (s *Simulator) validateConfig(cfg Config) error {
	if math.IsNaN(cfg.TStart) || math.IsNaN(cfg.TEnd) || !(cfg.TStart < cfg.TEnd) {
		return fmt.Errorf("%w: time span [%g, %g] must satisfy t_start < t_end", ErrInvalidParameter, cfg.TStart, cfg.TEnd)
	}
	if cfg.RTol <= 0 {
		return InvalidParameter("rtol", cfg.RTol, "must be positive")
	}
	if cfg.ATol <= 0 {
		return InvalidParameter("atol", cfg.ATol, "must be positive")
	}
	if cfg.MaxStep < 0 {
		return InvalidParameter("max_step", cfg.MaxStep, "must not be negative")
	}
	if cfg.FirstStep < 0 {
		return InvalidParameter("first_step", cfg.FirstStep, "must not be negative")
	}
	if cfg.MaxSteps < 0 {
		return InvalidParameter("max_steps", float64(cfg.MaxSteps), "must not be negative")
	}
	if !sort.Float64sAreSorted(cfg.SampleTimes) {
		return fmt.Errorf("%w: sample times must be sorted", ErrInvalidParameter)
	}
	if n := len(cfg.SampleTimes); n > 0 {
		if cfg.SampleTimes[0] < cfg.TStart || cfg.SampleTimes[n-1] > cfg.TEnd {
			return fmt.Errorf("%w: sample times must lie within [%g, %g]", ErrInvalidParameter, cfg.TStart, cfg.TEnd)
		}
	}
	return nil
}

// IsFailure reports whether err is a solver failure rather than a setup error.
func IsFailure(err error) bool {
	return errors.Is(err, ErrIntegrationFailure) || errors.Is(err, ErrNonFiniteState)
}
