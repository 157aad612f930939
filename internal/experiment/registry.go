package experiment

import (
	"fmt"
	"sort"

	"github.com/san-kum/reactorsim/internal/config"
	"github.com/san-kum/reactorsim/internal/control"
	"github.com/san-kum/reactorsim/internal/disturbance"
	"github.com/san-kum/reactorsim/internal/dynamo"
	"github.com/san-kum/reactorsim/internal/integrators"
	"github.com/san-kum/reactorsim/internal/kinetics"
	"github.com/san-kum/reactorsim/internal/metrics"
	"github.com/san-kum/reactorsim/internal/process"
)

// Builder constructs a model from a run configuration.
type Builder func(cfg *config.Config) (dynamo.System, error)

type Registry struct {
	models map[string]Builder
}

func NewRegistry() *Registry {
	r := &Registry{
		models: make(map[string]Builder),
	}

	r.models[config.ModelCSTR] = func(cfg *config.Config) (dynamo.System, error) {
		return process.NewReactor(ReactorParams(cfg)).WithHeat(HeatSchedule(cfg)), nil
	}
	r.models[config.ModelCSTRPI] = func(cfg *config.Config) (dynamo.System, error) {
		return process.NewReactor(ReactorParams(cfg)).
			WithController(PI(cfg)).
			WithHeat(HeatSchedule(cfg)), nil
	}
	r.models[config.ModelTank] = func(cfg *config.Config) (dynamo.System, error) {
		return process.NewThermalTank(TankParams(cfg)).WithHeat(HeatSchedule(cfg)), nil
	}

	return r
}

// Register adds or replaces a model builder.
func (r *Registry) Register(name string, b Builder) {
	r.models[name] = b
}

func (r *Registry) GetModel(cfg *config.Config) (dynamo.System, error) {
	fn, ok := r.models[cfg.Model]
	if !ok {
		return nil, fmt.Errorf("unknown model: %s", cfg.Model)
	}
	return fn(cfg)
}

func (r *Registry) GetMethod(name string) (dynamo.Method, error) {
	return integrators.Lookup(name)
}

func (r *Registry) ListModels() []string {
	names := make([]string, 0, len(r.models))
	for name := range r.models {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

func (r *Registry) ListMethods() []string {
	return integrators.Names()
}

// DefaultMetrics returns the metrics recorded for every run of sys.
func (r *Registry) DefaultMetrics(cfg *config.Config, sys dynamo.System) []dynamo.Metric {
	switch s := sys.(type) {
	case *process.Reactor:
		ms := []dynamo.Metric{
			metrics.NewFinal("final_c", 0),
			metrics.NewFinal("final_t", 1),
			metrics.NewIntegral("reacted", s.ReactionRate),
		}
		if s.Control != nil {
			sp := s.Control.Setpoint
			ms = append(ms,
				metrics.NewIAE(1, sp),
				metrics.NewPeakDeviation(1, sp, cfg.Disturbance.At),
				metrics.NewStability(1, sp, 0.5),
				metrics.NewControlEffort(s.ControlAction),
				metrics.NewHeatDelivered(s.ControlAction),
				metrics.NewFraction("saturated", s.Saturated),
			)
		}
		return ms
	case *process.ThermalTank:
		return []dynamo.Metric{
			metrics.NewFinal("final_t", 0),
		}
	default:
		return nil
	}
}

func ReactorParams(cfg *config.Config) process.ReactorParams {
	rc := cfg.Reactor
	return process.ReactorParams{
		V:       rc.V,
		F:       rc.F,
		CIn:     rc.CIn,
		TIn:     rc.TIn,
		DeltaH:  rc.DeltaH,
		Thermal: process.ThermalProps{RhoCp: rc.RhoCp, Rho: rc.Rho, Cp: rc.Cp},
		Kinetics: kinetics.Arrhenius{
			A:  rc.A,
			Ea: rc.Ea,
			R:  rc.R,
		},
	}
}

func TankParams(cfg *config.Config) process.TankParams {
	tc := cfg.Tank
	return process.TankParams{
		V:       tc.V,
		F:       tc.F,
		TIn:     tc.TIn,
		TAmb:    tc.TAmb,
		UA:      tc.UA,
		Thermal: process.ThermalProps{RhoCp: tc.RhoCp, Rho: tc.Rho, Cp: tc.Cp},
	}
}

func PI(cfg *config.Config) control.PI {
	cc := cfg.Controller
	return control.NewPI(cc.Kp, cc.Ki, cc.Setpoint).
		WithOutputLimits(cc.OutputMin, cc.OutputMax).
		WithTolerance(control.Tolerance{Rel: cc.TolRel, Abs: cc.TolAbs})
}

// HeatSchedule returns the configured heat step, or nil when it is zero.
func HeatSchedule(cfg *config.Config) disturbance.Schedule {
	d := cfg.Disturbance
	if !d.Active() {
		return nil
	}
	return disturbance.NewStep(d.At, d.Before, d.After)
}
