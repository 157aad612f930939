// Package integrators provides initial-value solvers implementing
// [dynamo.Method].
//
//   - bdf: implicit, variable order 1-5, for stiff balances
//   - rk45: explicit Dormand-Prince 5(4) with dense output
//   - rk4, euler: fixed step Dt, cubic Hermite dense output
//
// The adaptive methods accept a step when the RMS of the local error
// estimate, weighted by ATol + RTol·|y|, is below one. A step that would
// fall below 10 ulp of t fails with [dynamo.ErrStepTooSmall].
package integrators
