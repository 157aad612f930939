// Package control provides feedback laws for process units.
//
//   - [PI]: proportional-integral law with output clamping and anti-windup
//
// # Usage
//
//	pi := control.NewPI(5e7, 2e6, 360).WithOutputLimits(-5e6, 9e7)
//	q, dI := pi.Compute(T, I)
//
// The law is evaluated inside the balance model on every derivative call. It
// returns the manipulated variable and dI/dt; the integral itself lives in the
// ODE state so the solver can reject trial steps without side effects.
package control
