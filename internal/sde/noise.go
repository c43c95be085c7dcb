// Package sde provides the stochastic integration primitives for multi-trait
// models: a correlated Gaussian noise generator driven by the diffusion
// covariance of the current state, and the simplex-preserving
// Euler–Maruyama step that consumes it.
package sde

import (
	"math"
	"math/rand"

	"github.com/sirupsen/logrus"
	"gonum.org/v1/gonum/mat"

	"github.com/evolab/evodyn/internal/evo"
)

// FailurePolicy selects how the generator reacts to a degenerate or failed
// eigen-decomposition of the diffusion covariance.
type FailurePolicy int

const (
	// WarnContinue logs a warning and proceeds with the eigenvalues as
	// returned, negative ones treated as zero in the square root. This is
	// the reference behavior: the result may be statistically incorrect.
	WarnContinue FailurePolicy = iota
	// Abort fails the step with evo.ErrDecomposition.
	Abort
	// ClampToZero silently clamps negative eigenvalues to zero.
	ClampToZero
	// SkipNoise drops the noise term for the step entirely.
	SkipNoise
)

func (p FailurePolicy) String() string {
	switch p {
	case WarnContinue:
		return "warn-continue"
	case Abort:
		return "abort"
	case ClampToZero:
		return "clamp-to-zero"
	case SkipNoise:
		return "skip-noise"
	}
	return "unknown"
}

// degeneracyTol flags eigenvalues as degenerate relative to the largest one.
const degeneracyTol = 1e-12

// NoiseGenerator produces one draw of correlated Gaussian noise per
// integration step. For a d-trait state it builds the (d-1)x(d-1) diffusion
// covariance B, eigen-decomposes it, shapes independent Gaussians with
// C = U*sqrt(L)*U^T and returns the (d-1)-dimensional increment. All
// matrices are per-call scratch; nothing persists between steps.
//
// A generator is not safe for concurrent use; it is designed to be called
// from the single goroutine driving the model's steps.
type NoiseGenerator struct {
	popSize float64
	vacancy float64
	policy  FailurePolicy
	rng     *rand.Rand
}

// NewNoiseGenerator creates a generator for an effective population of
// popSize individuals, drawing Gaussians from a source seeded with seed.
func NewNoiseGenerator(popSize float64, seed int64) *NoiseGenerator {
	return &NoiseGenerator{
		popSize: popSize,
		policy:  WarnContinue,
		rng:     rand.New(rand.NewSource(seed)),
	}
}

// SetVacancy sets the fraction of the population in a non-competing state.
// Vacant sites do not compete, so the effective noise grows accordingly.
// Values are clamped to [0, 1).
func (g *NoiseGenerator) SetVacancy(v float64) {
	if v < 0 {
		v = 0
	}
	if v >= 1 {
		v = 1 - 1e-12
	}
	g.vacancy = v
}

// SetPolicy sets the decomposition failure policy.
func (g *NoiseGenerator) SetPolicy(p FailurePolicy) { g.policy = p }

// Policy returns the current failure policy.
func (g *NoiseGenerator) Policy() FailurePolicy { return g.policy }

// effectiveNoise is the inverse effective population size, adjusted upward
// when part of the population is vacant.
func (g *NoiseGenerator) effectiveNoise() float64 {
	return 1.0 / (g.popSize * (1.0 - g.vacancy))
}

// Next returns the correlated noise increment for one step of size h at
// state y with mutation rate mu. The result has d-1 components for a
// d-trait state; the last trait's share is implied by the simplex
// constraint and reconstructed by StepSimplex.
func (g *NoiseGenerator) Next(y evo.State, mu, h float64) (evo.State, error) {
	n := len(y) - 1
	if n < 1 {
		return evo.State{}, nil
	}

	b := g.covariance(y, mu)

	var eig mat.EigenSym
	if ok := eig.Factorize(b, true); !ok {
		if g.policy == Abort {
			return nil, evo.ErrDecomposition
		}
		logrus.Warnf("sde: eigen-decomposition failed (policy %s), dropping noise term", g.policy)
		return make(evo.State, n), nil
	}

	vals := eig.Values(nil)
	if degenerate(vals) {
		switch g.policy {
		case Abort:
			return nil, evo.ErrDecomposition
		case SkipNoise:
			return make(evo.State, n), nil
		case WarnContinue:
			logrus.Warnf("sde: degenerate diffusion covariance (mu=%g, traits=%d), noise may be incorrect", mu, len(y))
		}
		// ClampToZero proceeds silently; negatives are zeroed below either way.
	}
	for i, v := range vals {
		if v < 0 {
			v = 0
		}
		vals[i] = math.Sqrt(v)
	}

	var u mat.Dense
	eig.VectorsTo(&u)

	// C = U * sqrt(L) * U^T
	var tmp, c mat.Dense
	tmp.Mul(&u, mat.NewDiagDense(n, vals))
	c.Mul(&tmp, u.T())

	scale := math.Sqrt(h) / h
	draw := mat.NewVecDense(n, nil)
	for i := 0; i < n; i++ {
		draw.SetVec(i, g.rng.NormFloat64()*scale)
	}

	var out mat.VecDense
	out.MulVec(&c, draw)

	noise := make(evo.State, n)
	for i := 0; i < n; i++ {
		noise[i] = out.AtVec(i)
	}
	return noise, nil
}

// covariance builds the symmetric diffusion matrix B for the first d-1
// traits. Diagonal entries combine the replicator term y_i(1-y_i) with the
// mutation inflow/outflow variance; off-diagonals carry the -y_i*y_j
// covariance. Everything scales with the effective noise.
func (g *NoiseGenerator) covariance(y evo.State, mu float64) *mat.SymDense {
	d := len(y)
	n := d - 1
	eff := g.effectiveNoise()
	b := mat.NewSymDense(n, nil)
	for i := 0; i < n; i++ {
		yi := y[i]
		diag := eff * (yi*(1-yi)*(1-mu) + mu*(yi+(1-yi)/float64(d-1)))
		b.SetSym(i, i, diag)
		for j := i + 1; j < n; j++ {
			b.SetSym(i, j, -eff*yi*y[j]*(1-mu))
		}
	}
	return b
}

func degenerate(vals []float64) bool {
	largest := 0.0
	for _, v := range vals {
		if v > largest {
			largest = v
		}
	}
	if largest == 0 {
		return true
	}
	for _, v := range vals {
		if v < largest*degeneracyTol {
			return true
		}
	}
	return false
}
