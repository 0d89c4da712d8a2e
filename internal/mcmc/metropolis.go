package mcmc

import (
	"context"
	"fmt"
	"math"

	"github.com/san-kum/isingsim/internal/ising"
)

// Simulation-unit defaults for the Boltzmann constant and the magnetic moment.
const (
	DefaultBoltzmann      = 1.0
	DefaultMagneticMoment = 1.0
)

// Stats counts proposals since the last reset.
type Stats struct {
	Proposals int64
	Accepted  int64
}

// AcceptanceRate is Accepted/Proposals, or 0 before any proposal.
func (s Stats) AcceptanceRate() float64 {
	if s.Proposals == 0 {
		return 0
	}
	return float64(s.Accepted) / float64(s.Proposals)
}

// Engine runs single-spin-flip Metropolis updates on a lattice it owns.
// It is not safe for concurrent use.
type Engine struct {
	lattice     *ising.Lattice
	rng         ising.Source
	temperature float64
	field       float64
	kB          float64
	muB         float64
	stats       Stats
}

// Option configures an Engine.
type Option func(*Engine)

// WithSource injects the random source, e.g. a scripted one in tests.
func WithSource(src ising.Source) Option {
	return func(e *Engine) { e.rng = src }
}

// WithSeed seeds a PCG source; zero seeds from process entropy.
func WithSeed(seed int64) Option {
	return func(e *Engine) { e.rng = NewSource(seed) }
}

func WithBoltzmann(kB float64) Option {
	return func(e *Engine) { e.kB = kB }
}

func WithMagneticMoment(muB float64) Option {
	return func(e *Engine) { e.muB = muB }
}

// New binds an engine to l at the given temperature.
func New(l *ising.Lattice, temperature float64, opts ...Option) (*Engine, error) {
	if l == nil {
		return nil, ErrNilLattice
	}
	e := &Engine{
		lattice: l,
		kB:      DefaultBoltzmann,
		muB:     DefaultMagneticMoment,
	}
	for _, opt := range opts {
		opt(e)
	}
	if e.rng == nil {
		e.rng = NewSource(0)
	}
	if !finitePositive(e.kB) {
		return nil, fmt.Errorf("%w: %g", ErrInvalidBoltzmann, e.kB)
	}
	if err := e.SetTemperature(temperature); err != nil {
		return nil, err
	}
	if e.muB != 0 {
		e.field = l.Field() / e.muB
	}
	return e, nil
}

func finitePositive(v float64) bool {
	return v > 0 && !math.IsInf(v, 1)
}

// Accept reports whether the Metropolis rule accepts a move of energy
// cost dE at thermal energy kT, given a uniform draw p in [0, 1).
func Accept(dE, kT, p float64) bool {
	return dE < 0 || math.Exp(-dE/kT) > p
}

// Sweep performs L² proposals, each at a uniformly random site.
// A uniform draw is consumed only for moves with dE >= 0.
func (e *Engine) Sweep() {
	n := e.lattice.Size()
	kT := e.kB * e.temperature
	accepted := int64(0)

	for i := 0; i < n*n; i++ {
		x := e.rng.IntN(n)
		y := e.rng.IntN(n)

		dE := e.lattice.EnergyDiff(x, y)
		if dE < 0 || Accept(dE, kT, e.rng.Float64()) {
			e.lattice.FlipSpin(x, y)
			accepted++
		}
	}

	e.stats.Proposals += int64(n * n)
	e.stats.Accepted += accepted
}

// Run performs the given number of sweeps, checking ctx between sweeps.
func (e *Engine) Run(ctx context.Context, sweeps int) error {
	for i := 0; i < sweeps; i++ {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}
		e.Sweep()
	}
	return nil
}

// SetTemperature changes T for subsequent sweeps.
func (e *Engine) SetTemperature(t float64) error {
	if !finitePositive(t) {
		return fmt.Errorf("%w: %g", ErrInvalidTemperature, t)
	}
	e.temperature = t
	return nil
}

func (e *Engine) Temperature() float64 { return e.temperature }

// SetExternalField sets the lattice field to muB·value.
func (e *Engine) SetExternalField(value float64) {
	e.field = value
	e.lattice.SetField(e.muB * value)
}

// ExternalField returns the last value given to SetExternalField.
func (e *Engine) ExternalField() float64 { return e.field }

func (e *Engine) Boltzmann() float64      { return e.kB }
func (e *Engine) MagneticMoment() float64 { return e.muB }

// Lattice exposes the owned lattice for measurement.
func (e *Engine) Lattice() *ising.Lattice { return e.lattice }

func (e *Engine) Stats() Stats { return e.stats }
func (e *Engine) ResetStats()  { e.stats = Stats{} }

func (e *Engine) String() string { return e.lattice.String() }
