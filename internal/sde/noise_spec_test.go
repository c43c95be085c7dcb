package sde_test

import (
	"errors"
	"math"
	"math/rand"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/evolab/evodyn/internal/evo"
	"github.com/evolab/evodyn/internal/sde"
)

// rpsDrift is a 4-trait replicator drift with a cyclic payoff structure,
// rich enough to push trajectories around the simplex interior.
func rpsDrift(y evo.State) evo.State {
	payoff := [4][4]float64{
		{0, 1, -1, 0.5},
		{-1, 0, 1, 0.5},
		{1, -1, 0, 0.5},
		{-0.5, -0.5, -0.5, 0},
	}
	d := len(y)
	f := make([]float64, d)
	phi := 0.0
	for i := 0; i < d; i++ {
		for j := 0; j < d; j++ {
			f[i] += payoff[i][j] * y[j]
		}
		phi += y[i] * f[i]
	}
	drift := make(evo.State, d)
	for i := 0; i < d; i++ {
		drift[i] = y[i] * (f[i] - phi)
	}
	return drift
}

func randomSimplex(rng *rand.Rand, d int) evo.State {
	y := make(evo.State, d)
	for i := range y {
		y[i] = rng.Float64() + 1e-3
	}
	y.Normalize()
	return y
}

var _ = Describe("NoiseGenerator", func() {
	It("is deterministic under a fixed seed", func() {
		y := evo.State{0.4, 0.3, 0.2, 0.1}
		a := sde.NewNoiseGenerator(1000, 7)
		b := sde.NewNoiseGenerator(1000, 7)
		for i := 0; i < 20; i++ {
			na, err := a.Next(y, 0.01, 0.01)
			Expect(err).NotTo(HaveOccurred())
			nb, err := b.Next(y, 0.01, 0.01)
			Expect(err).NotTo(HaveOccurred())
			Expect(na).To(Equal(nb), "draw %d must be bit-identical", i)
		}
	})

	It("returns a (d-1)-vector for the reference scenario", func() {
		gen := sde.NewNoiseGenerator(1000, 42)
		y := evo.State{0.4, 0.3, 0.2, 0.1}
		noise, err := gen.Next(y, 0.01, 0.01)
		Expect(err).NotTo(HaveOccurred())
		Expect(noise).To(HaveLen(3))
		for _, v := range noise {
			Expect(math.IsNaN(v)).To(BeFalse())
		}

		next := sde.StepSimplex(y, rpsDrift(y), noise, 0.01, 0.01)
		Expect(next).To(HaveLen(4))
		Expect(next.OnSimplex(1e-9)).To(BeTrue())
	})

	It("grows the noise with vacancy", func() {
		y := evo.State{0.4, 0.3, 0.2, 0.1}
		plain := sde.NewNoiseGenerator(1000, 3)
		vacant := sde.NewNoiseGenerator(1000, 3)
		vacant.SetVacancy(0.9)
		// Same seed, same draws: the vacancy-adjusted increment is strictly
		// larger in magnitude, component for component.
		np, err := plain.Next(y, 0.01, 0.01)
		Expect(err).NotTo(HaveOccurred())
		nv, err := vacant.Next(y, 0.01, 0.01)
		Expect(err).NotTo(HaveOccurred())
		for i := range np {
			if np[i] != 0 {
				Expect(math.Abs(nv[i])).To(BeNumerically(">", math.Abs(np[i])))
			}
		}
	})

	Describe("degenerate covariance policies", func() {
		// Zero mutation with extinct traits yields zero eigenvalues.
		y := evo.State{0.5, 0.5, 0, 0}

		It("aborts when asked to", func() {
			gen := sde.NewNoiseGenerator(1000, 1)
			gen.SetPolicy(sde.Abort)
			_, err := gen.Next(y, 0, 0.01)
			Expect(errors.Is(err, evo.ErrDecomposition)).To(BeTrue())
		})

		It("skips the noise term when asked to", func() {
			gen := sde.NewNoiseGenerator(1000, 1)
			gen.SetPolicy(sde.SkipNoise)
			noise, err := gen.Next(y, 0, 0.01)
			Expect(err).NotTo(HaveOccurred())
			Expect(noise).To(Equal(evo.State{0, 0, 0}))
		})

		It("continues with clamped eigenvalues by default", func() {
			gen := sde.NewNoiseGenerator(1000, 1)
			Expect(gen.Policy()).To(Equal(sde.WarnContinue))
			noise, err := gen.Next(y, 0, 0.01)
			Expect(err).NotTo(HaveOccurred())
			Expect(noise).To(HaveLen(3))
			for _, v := range noise {
				Expect(math.IsNaN(v)).To(BeFalse())
			}
		})
	})

	It("handles the single-trait edge", func() {
		gen := sde.NewNoiseGenerator(1000, 1)
		noise, err := gen.Next(evo.State{1.0}, 0.01, 0.01)
		Expect(err).NotTo(HaveOccurred())
		Expect(noise).To(BeEmpty())
	})
})

var _ = Describe("StepSimplex", func() {
	It("preserves the simplex for randomized states and mutation rates", func() {
		rng := rand.New(rand.NewSource(99))
		gen := sde.NewNoiseGenerator(500, 123)
		for i := 0; i < 300; i++ {
			d := 2 + rng.Intn(5)
			y := randomSimplex(rng, d)
			mu := rng.Float64()*0.98 + 0.01
			noise, err := gen.Next(y, mu, 0.01)
			Expect(err).NotTo(HaveOccurred())
			drift := make(evo.State, d) // neutral drift
			next := sde.StepSimplex(y, drift, noise, mu, 0.01)
			Expect(next.OnSimplex(1e-9)).To(BeTrue(),
				"case %d: %v stepped off the simplex to %v", i, y, next)
		}
	})

	It("keeps a long trajectory on the simplex", func() {
		gen := sde.NewNoiseGenerator(1000, 2024)
		y := evo.State{0.25, 0.25, 0.25, 0.25}
		for i := 0; i < 2000; i++ {
			noise, err := gen.Next(y, 0.01, 0.01)
			Expect(err).NotTo(HaveOccurred())
			y = sde.StepSimplex(y, rpsDrift(y), noise, 0.01, 0.01)
			Expect(y.OnSimplex(1e-9)).To(BeTrue(), "step %d drifted off the simplex: %v", i)
		}
	})

	It("zeroes traits pushed to extinction instead of going negative", func() {
		y := evo.State{1e-9, 0.5, 0.5 - 1e-9}
		drift := evo.State{-1, 0.5, 0.5}
		next := sde.StepSimplex(y, drift, evo.State{0, 0}, 0, 0.1)
		Expect(next[0]).To(BeZero())
		Expect(next.OnSimplex(1e-9)).To(BeTrue())
	})
})
