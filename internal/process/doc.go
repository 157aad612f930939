// Package process implements lumped mass and energy balances for well-mixed
// process units.
//
//   - [Reactor]: continuous stirred-tank reactor, first-order A → B with
//     Arrhenius kinetics, optionally under PI temperature control
//   - [ThermalTank]: heated tank with through-flow and ambient heat loss
//
// Every model implements [dynamo.System]. Derive is a pure function of
// (state, time); parameters are immutable value structs built by the caller.
//
// # Limitations
//
// Concentrations are not clamped at zero and temperatures are not checked for
// positivity. A trajectory that drives T ≤ 0 produces a non-finite Arrhenius
// rate, which the simulator reports as [dynamo.ErrNonFiniteState].
package process
