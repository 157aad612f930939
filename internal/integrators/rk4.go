package integrators

import "github.com/san-kum/reactorsim/internal/dynamo"

// RK4 is the classical fourth-order Runge-Kutta stepper.
type RK4 struct {
	k1, k2, k3, k4 dynamo.State
	scratch        dynamo.State
}

func NewRK4Stepper() *RK4 {
	return &RK4{}
}

func (r *RK4) Order() int { return 4 }

func (r *RK4) ensureScratch(n int) {
	if len(r.k1) != n {
		r.k1 = make(dynamo.State, n)
		r.k2 = make(dynamo.State, n)
		r.k3 = make(dynamo.State, n)
		r.k4 = make(dynamo.State, n)
		r.scratch = make(dynamo.State, n)
	}
}

// Advance takes one step of size dt from (t, x), where f = f(x, t). derive is
// called for the three remaining stages.
func (r *RK4) Advance(derive func(t float64, x dynamo.State) dynamo.State, x, f dynamo.State, t, dt float64) dynamo.State {
	n := len(x)
	r.ensureScratch(n)
	copy(r.k1, f)

	for i := 0; i < n; i++ {
		r.scratch[i] = x[i] + dt*0.5*r.k1[i]
	}
	copy(r.k2, derive(t+dt*0.5, r.scratch))

	for i := 0; i < n; i++ {
		r.scratch[i] = x[i] + dt*0.5*r.k2[i]
	}
	copy(r.k3, derive(t+dt*0.5, r.scratch))

	for i := 0; i < n; i++ {
		r.scratch[i] = x[i] + dt*r.k3[i]
	}
	copy(r.k4, derive(t+dt, r.scratch))

	result := make(dynamo.State, n)
	dt6 := dt / 6.0
	for i := 0; i < n; i++ {
		result[i] = x[i] + dt6*(r.k1[i]+2*r.k2[i]+2*r.k3[i]+r.k4[i])
	}

	return result
}
