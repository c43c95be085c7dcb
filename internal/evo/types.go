package evo

import "math"

// State is a vector of trait frequencies. For well-mixed models it lives on
// the simplex: every component non-negative, components summing to one.
type State []float64

func (s State) Clone() State {
	c := make(State, len(s))
	copy(c, s)
	return c
}

func (s State) IsValid() bool {
	for _, v := range s {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return false
		}
	}
	return true
}

func (s State) Norm() float64 {
	sum := 0.0
	for _, v := range s {
		sum += v * v
	}
	return math.Sqrt(sum)
}

func (s State) Sum() float64 {
	sum := 0.0
	for _, v := range s {
		sum += v
	}
	return sum
}

// Normalize rescales s in place so its components sum to one. A zero vector
// is left untouched.
func (s State) Normalize() {
	sum := s.Sum()
	if sum == 0 {
		return
	}
	inv := 1.0 / sum
	for i := range s {
		s[i] *= inv
	}
}

// OnSimplex reports whether s is a valid simplex point within tol.
func (s State) OnSimplex(tol float64) bool {
	for _, v := range s {
		if v < -tol {
			return false
		}
	}
	return math.Abs(s.Sum()-1.0) <= tol
}

func (s State) Sub(other State) State {
	result := make(State, len(s))
	for i := range s {
		if i < len(other) {
			result[i] = s[i] - other[i]
		} else {
			result[i] = s[i]
		}
	}
	return result
}

func (s State) Scale(factor float64) State {
	result := make(State, len(s))
	for i := range s {
		result[i] = s[i] * factor
	}
	return result
}

// Model is one simulation that the pacing scheduler drives forward. A step is
// one logical tick; AdvanceStep returns false once the model has converged or
// been absorbed and should not be stepped further.
type Model interface {
	AdvanceStep() (bool, error)
	Reset()
}

// Dynamics is the deterministic drift of a well-mixed model.
type Dynamics interface {
	Drift(y State, t float64) State
	Dim() int
}

// Integrator advances Dynamics by one timestep.
type Integrator interface {
	Step(dyn Dynamics, y State, t, h float64) State
}

// Result collects a run's trajectory and reduced metrics.
type Result struct {
	Times   []float64
	States  []State
	Metrics map[string]float64
	Steps   int
}

// Metric observes the state trajectory of a run and reduces it to a single
// value.
type Metric interface {
	Name() string
	Observe(y State, t float64)
	Value() float64
	Reset()
}

// Field is a spatially extended state advanced by the reaction-diffusion
// supervisor. React and Diffuse operate on the half-open unit range
// [start, end) assigned to one worker; React additionally returns the
// partition's contribution to the total state change (sum of squared deltas).
// Diffuse may read neighbor units outside [start, end) but must only write
// inside it; the supervisor's phase barrier guarantees those neighbor reads
// observe post-reaction values.
//
// The Reset/Normalize pairs bracket each phase: ResetFitness/NormalizeFitness
// around React, ResetDensity/NormalizeDensity around Diffuse. They run on the
// supervisor's calling goroutine, never concurrently with workers.
type Field interface {
	Units() int
	React(start, end int) float64
	Diffuse(start, end int)
	ResetFitness()
	NormalizeFitness()
	ResetDensity()
	NormalizeDensity()
}
