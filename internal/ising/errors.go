package ising

import (
	"errors"
	"fmt"
)

// Domain errors for lattice operations.
var (
	// ErrInvalidSpin indicates an integer that is not +1 or -1.
	ErrInvalidSpin = errors.New("ising: invalid spin value")

	// ErrInvalidSize indicates a lattice side length below MinSize.
	ErrInvalidSize = errors.New("ising: lattice size must be at least 2")

	// ErrSpinCount indicates a configuration whose length is not size².
	ErrSpinCount = errors.New("ising: spin count does not match lattice size")
)

// SpinValueError reports the rejected value of a spin conversion.
type SpinValueError struct {
	Value int
}

func (e *SpinValueError) Error() string {
	return fmt.Sprintf("%v: %d (want +1 or -1)", ErrInvalidSpin, e.Value)
}

func (e *SpinValueError) Unwrap() error {
	return ErrInvalidSpin
}
