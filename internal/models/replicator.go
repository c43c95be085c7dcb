// Package models provides the evolutionary models driven by the stepping
// engine: deterministic and stochastic well-mixed trait dynamics, and a
// spatial reaction-diffusion field.
package models

import (
	"fmt"

	"github.com/evolab/evodyn/internal/evo"
)

// Replicator is the replicator equation for d traits with payoff matrix A:
//
//	dy_i/dt = y_i * (f_i - phi),  f = A*y,  phi = y.f
type Replicator struct {
	payoff [][]float64
	d      int
}

func NewReplicator(payoff [][]float64) (*Replicator, error) {
	d := len(payoff)
	if d < 2 {
		return nil, fmt.Errorf("models: payoff matrix needs at least 2 traits, got %d", d)
	}
	for i, row := range payoff {
		if len(row) != d {
			return nil, fmt.Errorf("models: payoff row %d has %d entries, want %d", i, len(row), d)
		}
	}
	return &Replicator{payoff: payoff, d: d}, nil
}

func (r *Replicator) Dim() int { return r.d }

// Fitness returns A*y.
func (r *Replicator) Fitness(y evo.State) evo.State {
	f := make(evo.State, r.d)
	for i := 0; i < r.d; i++ {
		for j := 0; j < r.d; j++ {
			f[i] += r.payoff[i][j] * y[j]
		}
	}
	return f
}

// MeanFitness returns y.A*y.
func (r *Replicator) MeanFitness(y evo.State) float64 {
	f := r.Fitness(y)
	phi := 0.0
	for i := 0; i < r.d; i++ {
		phi += y[i] * f[i]
	}
	return phi
}

func (r *Replicator) Drift(y evo.State, _ float64) evo.State {
	f := r.Fitness(y)
	phi := 0.0
	for i := 0; i < r.d; i++ {
		phi += y[i] * f[i]
	}
	drift := make(evo.State, r.d)
	for i := 0; i < r.d; i++ {
		drift[i] = y[i] * (f[i] - phi)
	}
	return drift
}

// MeanFitnesser is an optional interface for dynamics that expose the
// population mean fitness; the spatial field aggregates it per step.
type MeanFitnesser interface {
	MeanFitness(y evo.State) float64
}
