package config

import (
	"fmt"
	"sort"
	"strings"
)

// params maps dotted parameter names to the float fields they address.
func (c *Config) params() map[string]*float64 {
	return map[string]*float64{
		"solver.rtol":       &c.Solver.RTol,
		"solver.atol":       &c.Solver.ATol,
		"solver.first_step": &c.Solver.FirstStep,
		"solver.max_step":   &c.Solver.MaxStep,
		"solver.dt":         &c.Solver.Dt,

		"reactor.v":       &c.Reactor.V,
		"reactor.f":       &c.Reactor.F,
		"reactor.c_in":    &c.Reactor.CIn,
		"reactor.t_in":    &c.Reactor.TIn,
		"reactor.a":       &c.Reactor.A,
		"reactor.ea":      &c.Reactor.Ea,
		"reactor.r":       &c.Reactor.R,
		"reactor.delta_h": &c.Reactor.DeltaH,
		"reactor.rho_cp":  &c.Reactor.RhoCp,
		"reactor.rho":     &c.Reactor.Rho,
		"reactor.cp":      &c.Reactor.Cp,

		"tank.v":      &c.Tank.V,
		"tank.f":      &c.Tank.F,
		"tank.t_in":   &c.Tank.TIn,
		"tank.t_amb":  &c.Tank.TAmb,
		"tank.ua":     &c.Tank.UA,
		"tank.rho_cp": &c.Tank.RhoCp,
		"tank.rho":    &c.Tank.Rho,
		"tank.cp":     &c.Tank.Cp,

		"controller.kp":         &c.Controller.Kp,
		"controller.ki":         &c.Controller.Ki,
		"controller.setpoint":   &c.Controller.Setpoint,
		"controller.output_min": &c.Controller.OutputMin,
		"controller.output_max": &c.Controller.OutputMax,
		"controller.tol_rel":    &c.Controller.TolRel,
		"controller.tol_abs":    &c.Controller.TolAbs,

		"disturbance.at":     &c.Disturbance.At,
		"disturbance.before": &c.Disturbance.Before,
		"disturbance.after":  &c.Disturbance.After,

		"init_state.c": &c.InitState.C,
		"init_state.t": &c.InitState.T,
		"init_state.i": &c.InitState.I,
	}
}

// ParamNames lists every name accepted by SetParam, sorted.
func ParamNames() []string {
	var c Config
	names := make([]string, 0, 40)
	for name := range c.params() {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// SetParam assigns a numeric parameter by dotted name, e.g. "controller.ki".
func (c *Config) SetParam(name string, value float64) error {
	p, ok := c.params()[strings.ToLower(name)]
	if !ok {
		return fmt.Errorf("unknown parameter %q", name)
	}
	*p = value
	return nil
}

func (c *Config) GetParam(name string) (float64, error) {
	p, ok := c.params()[strings.ToLower(name)]
	if !ok {
		return 0, fmt.Errorf("unknown parameter %q", name)
	}
	return *p, nil
}

func splitParam(name string) (section, key string) {
	section, key, _ = strings.Cut(name, ".")
	return section, key
}
