package models

import "github.com/evolab/evodyn/internal/evo"

// Deterministic advances well-mixed dynamics with a numerical integrator,
// one step per AdvanceStep. It reports completion once the squared state
// change of a step falls below the convergence threshold.
type Deterministic struct {
	dyn       evo.Dynamics
	integ     evo.Integrator
	y, y0     evo.State
	t, h      float64
	threshold float64
	steps     int
}

func NewDeterministic(dyn evo.Dynamics, integ evo.Integrator, y0 evo.State, h, threshold float64) *Deterministic {
	return &Deterministic{
		dyn:       dyn,
		integ:     integ,
		y:         y0.Clone(),
		y0:        y0.Clone(),
		h:         h,
		threshold: threshold,
	}
}

func (m *Deterministic) AdvanceStep() (bool, error) {
	next := m.integ.Step(m.dyn, m.y, m.t, m.h)
	if !next.IsValid() {
		return false, &evo.StepError{Step: m.steps, Time: m.t, Wrapped: evo.ErrInvalidState}
	}
	change := 0.0
	for i := range next {
		delta := next[i] - m.y[i]
		change += delta * delta
	}
	m.y = next
	m.t += m.h
	m.steps++
	return change > m.threshold, nil
}

func (m *Deterministic) Reset() {
	m.y = m.y0.Clone()
	m.t = 0
	m.steps = 0
}

func (m *Deterministic) State() evo.State { return m.y.Clone() }
func (m *Deterministic) Time() float64    { return m.t }
func (m *Deterministic) Steps() int       { return m.steps }
