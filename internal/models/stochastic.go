package models

import (
	"github.com/sirupsen/logrus"

	"github.com/evolab/evodyn/internal/evo"
	"github.com/evolab/evodyn/internal/sde"
)

// minMutation replaces a zero mutation rate when a stochastic model has more
// than three traits: zero mutation there degenerates the diffusion
// covariance and breaks its square root.
const minMutation = 1e-6

// fixationTol decides when a trait has effectively taken over.
const fixationTol = 1e-9

// Stochastic integrates well-mixed dynamics with demographic noise via
// Euler–Maruyama on the simplex. One AdvanceStep draws one correlated noise
// increment and applies it together with the drift; stepping ends at
// fixation.
type Stochastic struct {
	dyn   evo.Dynamics
	gen   *sde.NoiseGenerator
	y, y0 evo.State
	mu, h float64
	t     float64
	steps int
}

func NewStochastic(dyn evo.Dynamics, y0 evo.State, mu, h, popSize float64, seed int64) *Stochastic {
	if mu == 0 && len(y0) > 3 {
		logrus.Warnf("models: zero mutation with %d traits degenerates the noise covariance, forcing mu=%g",
			len(y0), minMutation)
		mu = minMutation
	}
	return &Stochastic{
		dyn: dyn,
		gen: sde.NewNoiseGenerator(popSize, seed),
		y:   y0.Clone(),
		y0:  y0.Clone(),
		mu:  mu,
		h:   h,
	}
}

// Generator exposes the noise generator, e.g. to change its failure policy
// or vacancy fraction.
func (m *Stochastic) Generator() *sde.NoiseGenerator { return m.gen }

func (m *Stochastic) AdvanceStep() (bool, error) {
	noise, err := m.gen.Next(m.y, m.mu, m.h)
	if err != nil {
		return false, &evo.StepError{Step: m.steps, Time: m.t, Wrapped: err}
	}
	m.y = sde.StepSimplex(m.y, m.dyn.Drift(m.y, m.t), noise, m.mu, m.h)
	if !m.y.IsValid() {
		return false, &evo.StepError{Step: m.steps, Time: m.t, Wrapped: evo.ErrInvalidState}
	}
	m.t += m.h
	m.steps++
	return !m.fixated(), nil
}

func (m *Stochastic) fixated() bool {
	for _, v := range m.y {
		if v >= 1-fixationTol {
			return true
		}
	}
	return false
}

func (m *Stochastic) Reset() {
	m.y = m.y0.Clone()
	m.t = 0
	m.steps = 0
}

func (m *Stochastic) State() evo.State { return m.y.Clone() }
func (m *Stochastic) Mu() float64      { return m.mu }
func (m *Stochastic) Time() float64    { return m.t }
func (m *Stochastic) Steps() int       { return m.steps }
