// Package integrators provides numerical steppers for deterministic
// trait-frequency dynamics.
package integrators

import "github.com/evolab/evodyn/internal/evo"

type Euler struct{}

func NewEuler() *Euler {
	return &Euler{}
}

func (e *Euler) Step(dyn evo.Dynamics, y evo.State, t, h float64) evo.State {
	dy := dyn.Drift(y, t)
	result := make(evo.State, len(y))
	for i := range y {
		result[i] = y[i] + h*dy[i]
	}
	return result
}
