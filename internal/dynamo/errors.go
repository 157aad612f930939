package dynamo

import (
	"errors"
	"fmt"
)

// Domain errors for simulation operations.
var (
	// ErrInvalidParameter indicates a parameter violating a physical precondition.
	// It is reported at run setup, never mid-integration.
	ErrInvalidParameter = errors.New("dynamo: invalid parameter")

	// ErrIntegrationFailure indicates the solver could not meet its tolerance
	// within its step-size or step-count budget.
	ErrIntegrationFailure = errors.New("dynamo: integration failure")

	// ErrNonFiniteState indicates a derivative or state containing NaN or Inf.
	ErrNonFiniteState = errors.New("dynamo: non-finite state (NaN or Inf detected)")

	// ErrStepTooSmall indicates the adaptive step fell below the minimum.
	ErrStepTooSmall = fmt.Errorf("%w: step size below minimum", ErrIntegrationFailure)

	// ErrMaxSteps indicates the step budget was exhausted before the end of the span.
	ErrMaxSteps = fmt.Errorf("%w: exceeded maximum number of steps", ErrIntegrationFailure)

	// ErrDimensionMismatch indicates mismatched state and system dimensions.
	ErrDimensionMismatch = fmt.Errorf("%w: dimension mismatch between state and system", ErrInvalidParameter)
)

// SimulationError wraps an error with simulation context.
type SimulationError struct {
	Step    int
	Time    float64
	State   State
	Wrapped error
}

func (e *SimulationError) Error() string {
	return fmt.Sprintf("step %d (t=%.6g): %v", e.Step, e.Time, e.Wrapped)
}

func (e *SimulationError) Unwrap() error {
	return e.Wrapped
}

// InvalidParameter builds an ErrInvalidParameter for the named parameter.
func InvalidParameter(name string, value float64, rule string) error {
	return fmt.Errorf("%w: %s=%g, %s", ErrInvalidParameter, name, value, rule)
}
