// Package kinetics implements temperature-dependent reaction rates.
package kinetics

import (
	"math"

	"github.com/san-kum/reactorsim/internal/dynamo"
)

// GasConstant is the universal gas constant in J/(mol*K).
const GasConstant = 8.314

// Arrhenius is the rate-constant model k = A * exp(-Ea / (R * T)).
type Arrhenius struct {
	A  float64 // pre-exponential factor, 1/s
	Ea float64 // activation energy, J/mol
	R  float64 // gas constant, J/(mol*K)
}

func NewArrhenius(a, ea float64) Arrhenius {
	return Arrhenius{A: a, Ea: ea, R: GasConstant}
}

// RateConstant evaluates k(T). T must be positive: T < 0 overflows to +Inf and
// T == 0 yields 0. Neither case is guarded.
func (a Arrhenius) RateConstant(T float64) float64 {
	return a.A * math.Exp(-a.Ea/(a.R*T))
}

// Rate is the first-order reaction rate k(T) * C.
func (a Arrhenius) Rate(T, C float64) float64 {
	return FirstOrder(a.RateConstant(T), C)
}

// FirstOrder returns k * C. Negative concentrations are passed through.
func FirstOrder(k, C float64) float64 {
	return k * C
}

func (a Arrhenius) Validate() error {
	if a.A < 0 || math.IsNaN(a.A) {
		return dynamo.InvalidParameter("A", a.A, "must not be negative")
	}
	if a.Ea < 0 || math.IsNaN(a.Ea) {
		return dynamo.InvalidParameter("Ea", a.Ea, "must not be negative")
	}
	if !(a.R > 0) {
		return dynamo.InvalidParameter("R", a.R, "must be positive")
	}
	return nil
}
