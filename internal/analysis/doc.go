// Package analysis characterizes sampled trajectories of process units.
//
//   - [IAE], [ISE]: integrated tracking error (trapezoidal rule)
//   - [SettlingTime]: time after which a signal stays inside a band
//   - [Overshoot]: largest excursion past a target
//   - [Monotone]: monotonic approach within a slack
//   - [Residual]: size of dx/dt at a state, for steady-state checks
//   - [Phase]: 2D phase portrait, for example C against T
//
// # Example
//
//	temp := result.Column(1)
//	ts, ok := analysis.SettlingTime(result.Times, temp, 360, 0.5)
package analysis
