package sim

import (
	"errors"
	"fmt"
)

var (
	// ErrInvalidState indicates a particle position or velocity became NaN or Inf.
	ErrInvalidState = errors.New("sim: invalid state (NaN or Inf detected)")

	// ErrInvalidConfig indicates a frame count or substep count out of range.
	ErrInvalidConfig = errors.New("sim: invalid run configuration")

	// ErrCanceled indicates the run was interrupted by its context.
	ErrCanceled = errors.New("sim: run canceled")
)

// SimulationError wraps an error with the frame it happened on.
type SimulationError struct {
	Frame   int
	Time    float64
	Wrapped error
}

func (e *SimulationError) Error() string {
	return fmt.Sprintf("frame %d (t=%.4f): %v", e.Frame, e.Time, e.Wrapped)
}

func (e *SimulationError) Unwrap() error {
	return e.Wrapped
}
