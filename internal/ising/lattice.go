package ising

import (
	"fmt"
	"strings"
)

// MinSize is the smallest side length for which every site has a
// neighbour other than itself.
const MinSize = 2

// Source supplies the randomness used to initialize a lattice.
// *math/rand/v2.Rand satisfies it.
type Source interface {
	Float64() float64
	IntN(n int) int
}

// Lattice is an L×L square grid of spins with periodic boundaries.
// Sites are stored row-major: index = y*L + x.
type Lattice struct {
	size  int
	spins []Spin
	j     float64
	h     float64
}

// New returns a lattice where every site is an independent fair coin flip.
func New(size int, j float64, rng Source) (*Lattice, error) {
	l, err := alloc(size, j)
	if err != nil {
		return nil, err
	}
	for i := range l.spins {
		l.spins[i] = rng.IntN(2) == 1
	}
	return l, nil
}

// NewUniform returns a lattice with every site set to s.
func NewUniform(size int, j float64, s Spin) (*Lattice, error) {
	l, err := alloc(size, j)
	if err != nil {
		return nil, err
	}
	for i := range l.spins {
		l.spins[i] = s
	}
	return l, nil
}

// FromSpins restores a lattice from a row-major configuration.
func FromSpins(size int, j float64, spins []Spin) (*Lattice, error) {
	l, err := alloc(size, j)
	if err != nil {
		return nil, err
	}
	if len(spins) != len(l.spins) {
		return nil, fmt.Errorf("%w: got %d, want %d", ErrSpinCount, len(spins), len(l.spins))
	}
	copy(l.spins, spins)
	return l, nil
}

func alloc(size int, j float64) (*Lattice, error) {
	if size < MinSize {
		return nil, fmt.Errorf("%w: %d", ErrInvalidSize, size)
	}
	return &Lattice{size: size, spins: make([]Spin, size*size), j: j}, nil
}

func (l *Lattice) Size() int          { return l.size }
func (l *Lattice) Sites() int         { return len(l.spins) }
func (l *Lattice) Coupling() float64  { return l.j }
func (l *Lattice) Field() float64     { return l.h }
func (l *Lattice) SetField(h float64) { l.h = h }

// At returns the spin at column x, row y.
func (l *Lattice) At(x, y int) Spin {
	return l.spins[l.index(x, y)]
}

// FlipSpin flips the site at column x, row y. Coordinates must lie in [0, L).
func (l *Lattice) FlipSpin(x, y int) {
	l.spins[l.index(x, y)].Flip()
}

func (l *Lattice) index(x, y int) int {
	if x < 0 || x >= l.size || y < 0 || y >= l.size {
		panic(fmt.Sprintf("ising: site (%d, %d) outside %dx%d lattice", x, y, l.size, l.size))
	}
	return y*l.size + x
}

// next and prev wrap a coordinate around the torus without going negative.
func (l *Lattice) next(i int) int {
	if i+1 == l.size {
		return 0
	}
	return i + 1
}

func (l *Lattice) prev(i int) int {
	if i == 0 {
		return l.size - 1
	}
	return i - 1
}

// Energy computes H = -J Σ<ij> σi σj - h Σ σi.
// Each bond is counted once via the right and up neighbour of every site.
func (l *Lattice) Energy() float64 {
	n := l.size
	bonds, total := 0, 0
	for y := 0; y < n; y++ {
		row := y * n
		up := l.next(y) * n
		for x := 0; x < n; x++ {
			s := l.spins[row+x].Int()
			bonds += s * (l.spins[row+l.next(x)].Int() + l.spins[up+x].Int())
			total += s
		}
	}
	return -l.j*float64(bonds) - l.h*float64(total)
}

// EnergyDiff returns the energy change that flipping (x, y) would cause,
// without flipping it: ΔE = 2 σ (J Σneighbours + h).
func (l *Lattice) EnergyDiff(x, y int) float64 {
	i := l.index(x, y)
	n := l.size
	neighbours := l.spins[y*n+l.next(x)].Int() +
		l.spins[l.next(y)*n+x].Int() +
		l.spins[y*n+l.prev(x)].Int() +
		l.spins[l.prev(y)*n+x].Int()
	return 2 * (l.j*float64(neighbours) + l.h) * float64(l.spins[i].Int())
}

// Spins returns a row-major copy of the configuration as booleans.
func (l *Lattice) Spins() []bool {
	out := make([]bool, len(l.spins))
	for i, s := range l.spins {
		out[i] = s.Bool()
	}
	return out
}

// UpCount returns the number of up spins.
func (l *Lattice) UpCount() int {
	up := 0
	for _, s := range l.spins {
		if s == Up {
			up++
		}
	}
	return up
}

// Magnetization returns the mean spin value, in [-1, 1].
func (l *Lattice) Magnetization() float64 {
	up := l.UpCount()
	down := len(l.spins) - up
	return float64(up-down) / float64(len(l.spins))
}

// Clone returns an independent copy.
func (l *Lattice) Clone() *Lattice {
	c := *l
	c.spins = make([]Spin, len(l.spins))
	copy(c.spins, l.spins)
	return &c
}

func (l *Lattice) String() string {
	var b strings.Builder
	b.Grow(len(l.spins) + l.size)
	for y := 0; y < l.size; y++ {
		for x := 0; x < l.size; x++ {
			b.WriteString(l.spins[y*l.size+x].String())
		}
		b.WriteByte('\n')
	}
	return b.String()
}
