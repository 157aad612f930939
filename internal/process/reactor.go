package process

import (
	"github.com/san-kum/reactorsim/internal/control"
	"github.com/san-kum/reactorsim/internal/disturbance"
	"github.com/san-kum/reactorsim/internal/dynamo"
	"github.com/san-kum/reactorsim/internal/kinetics"
)

// ReactorParams holds the physical parameters of a jacketless CSTR.
type ReactorParams struct {
	V        float64            `json:"v"`       // m³
	F        float64            `json:"f"`       // m³/s
	CIn      float64            `json:"c_in"`    // mol/m³
	TIn      float64            `json:"t_in"`    // K
	DeltaH   float64            `json:"delta_h"` // J/mol, negative for exothermic
	Thermal  ThermalProps       `json:"thermal"`
	Kinetics kinetics.Arrhenius `json:"kinetics"`
}

func (p ReactorParams) Validate() error {
	if !(p.V > 0) {
		return dynamo.InvalidParameter("v", p.V, "volume must be positive")
	}
	if !(p.F > 0) {
		return dynamo.InvalidParameter("f", p.F, "flow must be positive")
	}
	if p.CIn < 0 {
		return dynamo.InvalidParameter("c_in", p.CIn, "feed concentration must not be negative")
	}
	if !(p.TIn > 0) {
		return dynamo.InvalidParameter("t_in", p.TIn, "feed temperature must be positive")
	}
	if err := p.Thermal.Validate(); err != nil {
		return err
	}
	return p.Kinetics.Validate()
}

// Reactor is a CSTR with state (C, T), or (C, T, I) when a controller is
// attached. I is the integral of the temperature error.
type Reactor struct {
	Params  ReactorParams
	Control *control.PI
	Heat    disturbance.Schedule
}

func NewReactor(params ReactorParams) *Reactor {
	return &Reactor{Params: params}
}

// WithController attaches a PI law acting on T through the heat duty.
func (r *Reactor) WithController(pi control.PI) *Reactor {
	r.Control = &pi
	return r
}

// WithHeat attaches an external heat-duty disturbance in W.
func (r *Reactor) WithHeat(s disturbance.Schedule) *Reactor {
	r.Heat = s
	return r
}

func (r *Reactor) StateDim() int {
	if r.Control != nil {
		return 3
	}
	return 2
}

func (r *Reactor) StateLabels() []string {
	if r.Control != nil {
		return []string{"C", "T", "I"}
	}
	return []string{"C", "T"}
}

func (r *Reactor) Validate() error {
	if err := r.Params.Validate(); err != nil {
		return err
	}
	if r.Control != nil {
		return r.Control.Validate()
	}
	return nil
}

func (r *Reactor) Derive(x dynamo.State, t float64) dynamo.State {
	p := r.Params
	c, temp := x[0], x[1]

	rhoCp := p.Thermal.VolumetricHeatCapacity()
	dilution := p.F / p.V
	rate := p.Kinetics.Rate(temp, c)

	dx := make(dynamo.State, r.StateDim())
	dx[0] = dilution*(p.CIn-c) - rate
	dx[1] = dilution*(p.TIn-temp) + (-p.DeltaH/rhoCp)*rate

	q := disturbance.ValueOf(r.Heat, t)
	if r.Control != nil {
		qc, dI := r.Control.Compute(temp, x[2])
		q += qc
		dx[2] = dI
	}
	if q != 0 {
		dx[1] += q / (rhoCp * p.V)
	}

	return dx
}

// ControlAction returns the saturated controller heat duty at x, or 0 for an
// uncontrolled reactor.
func (r *Reactor) ControlAction(x dynamo.State, t float64) float64 {
	if r.Control == nil || len(x) < 3 {
		return 0
	}
	q, _ := r.Control.Compute(x[1], x[2])
	return q
}

// ReactionRate returns k(T)·C at x in mol/(m³·s).
func (r *Reactor) ReactionRate(x dynamo.State, t float64) float64 {
	return r.Params.Kinetics.Rate(x[1], x[0])
}

// Saturated reports whether the heater output is clamped at x.
func (r *Reactor) Saturated(x dynamo.State, t float64) bool {
	if r.Control == nil || len(x) < 3 {
		return false
	}
	return r.Control.Saturated(r.Control.Setpoint-x[1], x[2])
}
