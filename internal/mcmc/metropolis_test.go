package mcmc_test

import (
	"context"
	"math"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/san-kum/isingsim/internal/ising"
	"github.com/san-kum/isingsim/internal/mcmc"
)

// scriptedSource replays fixed draws, cycling when exhausted.
type scriptedSource struct {
	ints   []int
	floats []float64
	i, f   int
	draws  int
}

func (s *scriptedSource) IntN(n int) int {
	v := s.ints[s.i%len(s.ints)] % n
	s.i++
	return v
}

func (s *scriptedSource) Float64() float64 {
	v := s.floats[s.f%len(s.floats)]
	s.f++
	s.draws++
	return v
}

func uniform(size int, s ising.Spin) *ising.Lattice {
	l, err := ising.NewUniform(size, 1, s)
	Expect(err).NotTo(HaveOccurred())
	return l
}

var _ = Describe("Accept", func() {
	DescribeTable("applies the Metropolis rule",
		func(dE, kT, p float64, want bool) {
			Expect(mcmc.Accept(dE, kT, p)).To(Equal(want))
		},
		Entry("downhill, high draw", -1.0, 1.0, 0.99, true),
		Entry("downhill, any temperature", -1.0, 1e-12, 0.999999, true),
		Entry("uphill, exp(-1) < 0.99", 1.0, 1.0, 0.99, false),
		Entry("uphill, exp(-1) > 0.1", 1.0, 1.0, 0.1, true),
		Entry("flat move, exp(0) = 1 > p", 0.0, 1.0, 0.999, true),
		Entry("uphill near zero temperature", 4.0, 1e-9, 0.0, false),
		Entry("uphill at high temperature", 8.0, 1e6, 0.99, true),
	)
})

var _ = Describe("Engine", func() {
	Describe("construction", func() {
		It("rejects a nil lattice", func() {
			_, err := mcmc.New(nil, 1)
			Expect(err).To(MatchError(mcmc.ErrNilLattice))
		})

		DescribeTable("rejects invalid temperatures",
			func(t float64) {
				_, err := mcmc.New(uniform(4, ising.Up), t)
				Expect(err).To(MatchError(mcmc.ErrInvalidTemperature))
			},
			Entry("zero", 0.0),
			Entry("negative", -1.0),
			Entry("NaN", math.NaN()),
			Entry("infinite", math.Inf(1)),
		)

		It("rejects a non-positive Boltzmann constant", func() {
			_, err := mcmc.New(uniform(4, ising.Up), 1, mcmc.WithBoltzmann(0))
			Expect(err).To(MatchError(mcmc.ErrInvalidBoltzmann))
		})

		It("keeps the previous temperature when an update is rejected", func() {
			e, err := mcmc.New(uniform(4, ising.Up), 2.5)
			Expect(err).NotTo(HaveOccurred())
			Expect(e.SetTemperature(-3)).To(MatchError(mcmc.ErrInvalidTemperature))
			Expect(e.Temperature()).To(Equal(2.5))
		})
	})

	Describe("SetExternalField", func() {
		It("scales the value by the magnetic moment", func() {
			l := uniform(4, ising.Up)
			e, err := mcmc.New(l, 1, mcmc.WithMagneticMoment(2), mcmc.WithSeed(1))
			Expect(err).NotTo(HaveOccurred())

			e.SetExternalField(0.25)
			Expect(l.Field()).To(Equal(0.5))
			Expect(e.ExternalField()).To(Equal(0.25))
			Expect(e.Lattice()).To(BeIdenticalTo(l))
		})
	})

	Describe("Sweep", func() {
		It("makes exactly L² proposals", func() {
			e, err := mcmc.New(uniform(5, ising.Up), 2, mcmc.WithSeed(3))
			Expect(err).NotTo(HaveOccurred())

			e.Sweep()
			Expect(e.Stats().Proposals).To(Equal(int64(25)))
			e.Sweep()
			Expect(e.Stats().Proposals).To(Equal(int64(50)))

			e.ResetStats()
			Expect(e.Stats()).To(Equal(mcmc.Stats{}))
			Expect(e.Stats().AcceptanceRate()).To(Equal(0.0))
		})

		It("rejects every uphill move when the draw exceeds the Boltzmann factor", func() {
			// Every flip on an all-up lattice costs 8J; exp(-8) ≈ 3.4e-4.
			src := &scriptedSource{ints: []int{0, 1, 2, 3}, floats: []float64{0.5}}
			l := uniform(4, ising.Up)
			e, err := mcmc.New(l, 1, mcmc.WithSource(src))
			Expect(err).NotTo(HaveOccurred())

			e.Sweep()
			Expect(l.UpCount()).To(Equal(16))
			Expect(e.Stats().Accepted).To(BeZero())
			Expect(src.draws).To(Equal(16))
		})

		It("accepts an uphill move when the draw is below the Boltzmann factor", func() {
			src := &scriptedSource{ints: []int{2, 1}, floats: []float64{0.0001}}
			l := uniform(4, ising.Up)
			e, err := mcmc.New(l, 1, mcmc.WithSource(src))
			Expect(err).NotTo(HaveOccurred())

			// First proposal flips (2, 1) uphill; the second finds ΔE = -8 and
			// flips it back without consuming a draw.
			e.Sweep()
			Expect(src.draws).To(Equal(8))
			Expect(e.Stats().Accepted).To(Equal(int64(16)))
			Expect(l.UpCount()).To(Equal(16))
		})

		It("never raises the energy near zero temperature", func() {
			l, err := ising.New(16, 1, mcmc.NewSource(11))
			Expect(err).NotTo(HaveOccurred())
			e, err := mcmc.New(l, 1e-9, mcmc.WithSeed(12))
			Expect(err).NotTo(HaveOccurred())

			prev := l.Energy()
			for i := 0; i < 20; i++ {
				e.Sweep()
				cur := l.Energy()
				Expect(cur).To(BeNumerically("<=", prev))
				prev = cur
			}
		})

		It("stays ordered well below the critical temperature", func() {
			l := uniform(16, ising.Up)
			e, err := mcmc.New(l, 1.0, mcmc.WithSeed(5))
			Expect(err).NotTo(HaveOccurred())

			Expect(e.Run(context.Background(), 50)).To(Succeed())
			Expect(math.Abs(l.Magnetization())).To(BeNumerically(">", 0.9))
		})

		It("disorders well above the critical temperature", func() {
			l := uniform(32, ising.Up)
			e, err := mcmc.New(l, 50, mcmc.WithSeed(6))
			Expect(err).NotTo(HaveOccurred())

			Expect(e.Run(context.Background(), 200)).To(Succeed())
			Expect(math.Abs(l.Magnetization())).To(BeNumerically("<", 0.3))
			Expect(e.Stats().AcceptanceRate()).To(BeNumerically(">", 0.8))
		})

		It("aligns with a strong field", func() {
			l := uniform(12, ising.Down)
			e, err := mcmc.New(l, 1.5, mcmc.WithSeed(8))
			Expect(err).NotTo(HaveOccurred())
			e.SetExternalField(5)

			Expect(e.Run(context.Background(), 30)).To(Succeed())
			Expect(l.Magnetization()).To(BeNumerically(">", 0.95))
		})

		It("is reproducible for a fixed seed", func() {
			a, err := ising.New(10, 1, mcmc.NewSource(99))
			Expect(err).NotTo(HaveOccurred())
			b := a.Clone()

			ea, err := mcmc.New(a, 2.3, mcmc.WithSeed(7))
			Expect(err).NotTo(HaveOccurred())
			eb, err := mcmc.New(b, 2.3, mcmc.WithSeed(7))
			Expect(err).NotTo(HaveOccurred())

			for i := 0; i < 10; i++ {
				ea.Sweep()
				eb.Sweep()
			}
			Expect(a.Spins()).To(Equal(b.Spins()))
		})
	})

	Describe("Run", func() {
		It("stops between sweeps when the context is canceled", func() {
			e, err := mcmc.New(uniform(4, ising.Up), 2, mcmc.WithSeed(1))
			Expect(err).NotTo(HaveOccurred())

			ctx, cancel := context.WithCancel(context.Background())
			cancel()
			Expect(e.Run(ctx, 10)).To(MatchError(context.Canceled))
			Expect(e.Stats().Proposals).To(BeZero())
		})
	})
})
