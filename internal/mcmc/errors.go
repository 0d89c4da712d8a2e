package mcmc

import "errors"

var (
	// ErrInvalidTemperature indicates a temperature that is not a finite positive number.
	ErrInvalidTemperature = errors.New("mcmc: temperature must be finite and positive")

	// ErrInvalidBoltzmann indicates a non-positive Boltzmann constant.
	ErrInvalidBoltzmann = errors.New("mcmc: boltzmann constant must be finite and positive")

	// ErrNilLattice indicates an engine constructed without a lattice.
	ErrNilLattice = errors.New("mcmc: nil lattice")
)
