package ising

import (
	"math/rand/v2"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const tol = 1e-9

func newRandom(t *testing.T, size int, j, h float64, seed uint64) *Lattice {
	t.Helper()
	l, err := New(size, j, rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15)))
	require.NoError(t, err)
	l.SetField(h)
	return l
}

func TestNew_InvalidSize(t *testing.T) {
	for _, size := range []int{1, 0, -3} {
		_, err := NewUniform(size, 1, Up)
		assert.ErrorIs(t, err, ErrInvalidSize)
	}
}

func TestNew_FieldStartsAtZero(t *testing.T) {
	l := newRandom(t, 8, 1, 0, 1)
	assert.Equal(t, 0.0, l.Field())
	assert.Equal(t, 64, l.Sites())
}

func TestNew_RoughlyBalanced(t *testing.T) {
	l := newRandom(t, 100, 1, 0, 7)
	frac := float64(l.UpCount()) / float64(l.Sites())
	assert.InDelta(t, 0.5, frac, 0.03)
}

func TestEnergy_AllUp(t *testing.T) {
	l, err := NewUniform(4, 1, Up)
	require.NoError(t, err)

	// 2·L² bonds, each contributing -J.
	assert.Equal(t, -32.0, l.Energy())

	l.SetField(0.5)
	assert.Equal(t, -40.0, l.Energy())
}

func TestEnergy_Checkerboard(t *testing.T) {
	l, err := NewUniform(4, 1, Up)
	require.NoError(t, err)
	for y := 0; y < 4; y++ {
		for x := 0; x < 4; x++ {
			if (x+y)%2 == 1 {
				l.FlipSpin(x, y)
			}
		}
	}
	assert.Equal(t, 32.0, l.Energy())
	assert.Equal(t, 0.0, l.Magnetization())
}

func TestEnergyDiff_MatchesRecomputedEnergy(t *testing.T) {
	tests := []struct {
		name string
		size int
		j, h float64
	}{
		{"ferro no field", 6, 1, 0},
		{"ferro with field", 5, 1, 0.37},
		{"antiferro", 7, -1.3, -0.2},
		{"two sites", 2, 1, 0.1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			l := newRandom(t, tt.size, tt.j, tt.h, 11)
			for y := 0; y < tt.size; y++ {
				for x := 0; x < tt.size; x++ {
					before := l.Energy()
					dE := l.EnergyDiff(x, y)
					l.FlipSpin(x, y)
					assert.InDelta(t, before+dE, l.Energy(), tol, "site (%d, %d)", x, y)
				}
			}
		})
	}
}

func TestEnergyDiff_AccumulatedFlips(t *testing.T) {
	l := newRandom(t, 10, 1, 0.25, 3)
	rng := rand.New(rand.NewPCG(5, 6))

	energy := l.Energy()
	for i := 0; i < 5000; i++ {
		x, y := rng.IntN(10), rng.IntN(10)
		energy += l.EnergyDiff(x, y)
		l.FlipSpin(x, y)
	}
	assert.InDelta(t, l.Energy(), energy, 1e-6)
}

func TestEnergyDiff_Periodicity(t *testing.T) {
	const n = 6
	l := newRandom(t, n, 1, 0.3, 21)

	// shifted(x, y) = l(x+1, y): column 0 of l becomes column n-1 of shifted.
	shifted := make([]Spin, n*n)
	for y := 0; y < n; y++ {
		for x := 0; x < n; x++ {
			shifted[y*n+x] = l.At((x+1)%n, y)
		}
	}
	rot, err := FromSpins(n, 1, shifted)
	require.NoError(t, err)
	rot.SetField(0.3)

	for y := 0; y < n; y++ {
		assert.Equal(t, l.EnergyDiff(0, y), rot.EnergyDiff(n-1, y))
	}
	assert.InDelta(t, l.Energy(), rot.Energy(), tol)

	// Same along rows.
	for y := 0; y < n; y++ {
		for x := 0; x < n; x++ {
			shifted[y*n+x] = l.At(x, (y+1)%n)
		}
	}
	rot, err = FromSpins(n, 1, shifted)
	require.NoError(t, err)
	rot.SetField(0.3)
	for x := 0; x < n; x++ {
		assert.Equal(t, l.EnergyDiff(x, 0), rot.EnergyDiff(x, n-1))
	}
}

func TestEnergyDiff_CornerNeighbours(t *testing.T) {
	l, err := NewUniform(4, 1, Down)
	require.NoError(t, err)

	// Wrapped neighbours of (0, 0): (1,0), (0,1), (3,0), (0,3).
	l.FlipSpin(3, 0)
	l.FlipSpin(0, 3)
	l.FlipSpin(0, 0)
	// σ=+1, neighbours -1 -1 +1 +1 → ΔE = 2·(1·0 + 0)·1.
	assert.Equal(t, 0.0, l.EnergyDiff(0, 0))

	l.FlipSpin(1, 0)
	l.FlipSpin(0, 1)
	// all four neighbours up → ΔE = 2·4 = 8.
	assert.Equal(t, 8.0, l.EnergyDiff(0, 0))
}

func TestEnergy_ZeroFieldInversionSymmetry(t *testing.T) {
	l := newRandom(t, 9, 1.7, 0, 13)
	before := l.Energy()

	for y := 0; y < 9; y++ {
		for x := 0; x < 9; x++ {
			l.FlipSpin(x, y)
		}
	}
	assert.InDelta(t, before, l.Energy(), tol)
}

func TestFlipSpin_DoubleFlipIsIdentity(t *testing.T) {
	l := newRandom(t, 5, 1, 0.4, 17)
	spins := l.Spins()
	energy := l.Energy()

	for y := 0; y < 5; y++ {
		for x := 0; x < 5; x++ {
			l.FlipSpin(x, y)
			l.FlipSpin(x, y)
		}
	}
	assert.Equal(t, spins, l.Spins())
	assert.Equal(t, energy, l.Energy())
}

func TestFlipSpin_OutOfRangePanics(t *testing.T) {
	l, err := NewUniform(3, 1, Up)
	require.NoError(t, err)

	assert.Panics(t, func() { l.FlipSpin(3, 0) })
	assert.Panics(t, func() { l.FlipSpin(0, -1) })
	assert.Panics(t, func() { l.EnergyDiff(0, 3) })
}

func TestMagnetization(t *testing.T) {
	for seed := uint64(0); seed < 20; seed++ {
		l := newRandom(t, 7, 1, 0, seed)
		m := l.Magnetization()
		assert.GreaterOrEqual(t, m, -1.0)
		assert.LessOrEqual(t, m, 1.0)

		up := l.UpCount()
		assert.InDelta(t, float64(up-(49-up))/49, m, tol)
	}

	l, err := NewUniform(3, 1, Down)
	require.NoError(t, err)
	assert.Equal(t, -1.0, l.Magnetization())
}

func TestFromSpins_LengthMismatch(t *testing.T) {
	_, err := FromSpins(3, 1, make([]Spin, 8))
	assert.ErrorIs(t, err, ErrSpinCount)
}

func TestSpins_RowMajor(t *testing.T) {
	l, err := NewUniform(3, 1, Down)
	require.NoError(t, err)
	l.FlipSpin(2, 1)

	spins := l.Spins()
	require.Len(t, spins, 9)
	for i, s := range spins {
		assert.Equal(t, i == 1*3+2, s, "index %d", i)
	}

	spins[0] = true
	assert.Equal(t, Down, l.At(0, 0), "Spins must return a copy")
}

func TestClone_Independent(t *testing.T) {
	l := newRandom(t, 4, 1, 0.2, 9)
	c := l.Clone()
	c.FlipSpin(0, 0)
	c.SetField(1)

	assert.NotEqual(t, l.At(0, 0), c.At(0, 0))
	assert.Equal(t, 0.2, l.Field())
}

func TestString(t *testing.T) {
	l, err := NewUniform(3, 1, Up)
	require.NoError(t, err)
	l.FlipSpin(0, 0)
	l.FlipSpin(2, 2)

	assert.Equal(t, "-++\n+++\n++-\n", l.String())
}
