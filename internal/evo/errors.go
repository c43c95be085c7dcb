package evo

import "errors"

// Domain errors for simulation operations.
var (
	// ErrInvalidState indicates a state vector with invalid values.
	ErrInvalidState = errors.New("evo: invalid state (NaN or Inf detected)")

	// ErrNotOnSimplex indicates a frequency vector off the simplex.
	ErrNotOnSimplex = errors.New("evo: state not on the simplex")

	// ErrDecomposition indicates an eigen-decomposition that failed to converge.
	ErrDecomposition = errors.New("evo: eigen-decomposition did not converge")

	// ErrNotLoaded indicates a supervisor stepped before Reset.
	ErrNotLoaded = errors.New("evo: supervisor has no workers (call Reset first)")

	// ErrUnloaded indicates an operation raced with supervisor teardown.
	ErrUnloaded = errors.New("evo: supervisor unloaded")

	// ErrSchedulerDown indicates the pacing scheduler's driving goroutine died.
	ErrSchedulerDown = errors.New("evo: scheduler driving goroutine terminated")

	// ErrParameterBounds indicates a parameter value outside its valid range.
	ErrParameterBounds = errors.New("evo: parameter out of valid bounds")
)

// StepError wraps an error with the step context it occurred in.
type StepError struct {
	Step    int
	Time    float64
	Wrapped error
}

func (e *StepError) Error() string {
	return e.Wrapped.Error()
}

func (e *StepError) Unwrap() error {
	return e.Wrapped
}
