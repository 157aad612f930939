package process

import "github.com/san-kum/reactorsim/internal/dynamo"

// ThermalProps describes the heat capacity of the liquid. Either RhoCp or the
// pair Rho, Cp may be given; RhoCp takes precedence when non-zero.
type ThermalProps struct {
	RhoCp float64 `json:"rho_cp,omitempty" yaml:"rho_cp,omitempty"` // J/(m³·K)
	Rho   float64 `json:"rho,omitempty" yaml:"rho,omitempty"`       // kg/m³
	Cp    float64 `json:"cp,omitempty" yaml:"cp,omitempty"`         // J/(kg·K)
}

func Combined(rhoCp float64) ThermalProps {
	return ThermalProps{RhoCp: rhoCp}
}

func Separate(rho, cp float64) ThermalProps {
	return ThermalProps{Rho: rho, Cp: cp}
}

// VolumetricHeatCapacity returns ρ·Cp in J/(m³·K).
func (p ThermalProps) VolumetricHeatCapacity() float64 {
	if p.RhoCp != 0 {
		return p.RhoCp
	}
	return p.Rho * p.Cp
}

func (p ThermalProps) Validate() error {
	if c := p.VolumetricHeatCapacity(); !(c > 0) {
		return dynamo.InvalidParameter("rho_cp", c, "volumetric heat capacity must be positive")
	}
	return nil
}
