package integrators

import "github.com/san-kum/reactorsim/internal/dynamo"

// Euler is the explicit first-order stepper. It exists as a baseline for
// method comparisons; it is not stable on the reactor's stiff modes at
// coarse steps.
type Euler struct{}

func NewEulerStepper() *Euler {
	return &Euler{}
}

func (e *Euler) Order() int { return 1 }

func (e *Euler) Advance(_ func(t float64, x dynamo.State) dynamo.State, x, f dynamo.State, t, dt float64) dynamo.State {
	result := make(dynamo.State, len(x))
	for i := range x {
		result[i] = x[i] + dt*f[i]
	}
	return result
}
