package process

import (
	"github.com/san-kum/reactorsim/internal/disturbance"
	"github.com/san-kum/reactorsim/internal/dynamo"
)

type TankParams struct {
	V       float64      `json:"v"`     // m³
	F       float64      `json:"f"`     // m³/s
	TIn     float64      `json:"t_in"`  // K
	TAmb    float64      `json:"t_amb"` // K
	UA      float64      `json:"ua"`    // W/K
	Thermal ThermalProps `json:"thermal"`
}

func (p TankParams) Validate() error {
	if !(p.V > 0) {
		return dynamo.InvalidParameter("v", p.V, "volume must be positive")
	}
	if !(p.F > 0) {
		return dynamo.InvalidParameter("f", p.F, "flow must be positive")
	}
	if !(p.TIn > 0) {
		return dynamo.InvalidParameter("t_in", p.TIn, "feed temperature must be positive")
	}
	if !(p.TAmb > 0) {
		return dynamo.InvalidParameter("t_amb", p.TAmb, "ambient temperature must be positive")
	}
	if p.UA < 0 {
		return dynamo.InvalidParameter("ua", p.UA, "heat-loss coefficient must not be negative")
	}
	return p.Thermal.Validate()
}

// ThermalTank is a single-state (T) energy balance with through-flow, heat
// loss to ambient and an external heat input.
type ThermalTank struct {
	Params TankParams
	Heat   disturbance.Schedule
}

func NewThermalTank(params TankParams) *ThermalTank {
	return &ThermalTank{Params: params}
}

func (tk *ThermalTank) WithHeat(s disturbance.Schedule) *ThermalTank {
	tk.Heat = s
	return tk
}

func (tk *ThermalTank) StateDim() int         { return 1 }
func (tk *ThermalTank) StateLabels() []string { return []string{"T"} }
func (tk *ThermalTank) Validate() error       { return tk.Params.Validate() }

func (tk *ThermalTank) Derive(x dynamo.State, t float64) dynamo.State {
	p := tk.Params
	temp := x[0]
	capacity := p.Thermal.VolumetricHeatCapacity() * p.V

	dT := p.F/p.V*(p.TIn-temp) + p.UA/capacity*(p.TAmb-temp) + disturbance.ValueOf(tk.Heat, t)/capacity
	return dynamo.State{dT}
}
