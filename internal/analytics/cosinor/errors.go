package cosinor

import (
	"errors"
	"fmt"
)

var (
	// ErrInvalidInput is returned before any solving when the series, guess,
	// bounds or evaluation budget cannot be used.
	ErrInvalidInput = errors.New("invalid input")

	// ErrFitFailure is returned when the solver reports no convergence.
	ErrFitFailure = errors.New("fit failure")

	// ErrInsufficientData is returned by statistics that need at least two
	// paired samples.
	ErrInsufficientData = errors.New("insufficient data")
)

// FitError carries the solver diagnostics of a failed fit
type FitError struct {
	Status      int
	Message     string
	Evaluations int
}

func (e *FitError) Error() string {
	return fmt.Sprintf("failed to fit the function: %s", e.Message)
}

// Unwrap lets errors.Is match ErrFitFailure
func (e *FitError) Unwrap() error {
	return ErrFitFailure
}

func invalidInput(format string, args ...interface{}) error {
	return fmt.Errorf("%w: %s", ErrInvalidInput, fmt.Sprintf(format, args...))
}
