package models

import (
	"fmt"
	"math/rand"

	"github.com/sirupsen/logrus"

	"github.com/evolab/evodyn/internal/evo"
	"github.com/evolab/evodyn/internal/pde"
)

// RDField couples local reaction dynamics to nearest-neighbor diffusion on a
// ring of units, advanced in parallel by a pde.Supervisor. Each unit holds a
// d-trait frequency vector; React applies one explicit reaction update per
// unit, Diffuse mixes each unit with its two neighbors.
//
// The density array is written in place during React (unit-local) and read
// freely during Diffuse, which writes into the back buffer; the buffers swap
// after the diffusion barrier. Workers only ever write inside their own
// partition.
type RDField struct {
	dyn       evo.Dynamics
	d         int
	nUnits    int
	diffusion float64
	h         float64
	threshold float64

	density []float64 // nUnits*d trait frequencies, current step
	next    []float64 // diffusion back buffer
	fitness []float64 // per-unit mean fitness, filled during React

	meanFitness float64
	mean        evo.State
	lastChange  float64
	t           float64
	steps       int

	rng *rand.Rand
	sup *pde.Supervisor
}

// NewRDField creates a spatial field of nUnits units running dyn locally.
// diffusion in [0, 1] is the fraction of density exchanged with neighbors
// per step; parallelism is the supervisor's pool hint (0 for all CPUs,
// negative for an interactive context that reserves one core for a UI).
func NewRDField(dyn evo.Dynamics, nUnits int, diffusion, h float64, parallelism int, seed int64) (*RDField, error) {
	if nUnits < 3 {
		return nil, fmt.Errorf("models: field needs at least 3 units, got %d", nUnits)
	}
	if diffusion < 0 || diffusion > 1 {
		return nil, fmt.Errorf("models: diffusion %g outside [0,1]: %w", diffusion, evo.ErrParameterBounds)
	}
	d := dyn.Dim()
	f := &RDField{
		dyn:       dyn,
		d:         d,
		nUnits:    nUnits,
		diffusion: diffusion,
		h:         h,
		threshold: 1e-12,
		density:   make([]float64, nUnits*d),
		next:      make([]float64, nUnits*d),
		fitness:   make([]float64, nUnits),
		mean:      make(evo.State, d),
		rng:       rand.New(rand.NewSource(seed)),
	}
	interactive := parallelism < 0
	if interactive {
		parallelism = 0
	}
	f.sup = pde.NewSupervisor(f, parallelism, interactive)
	f.Reset()
	return f, nil
}

// Reset reseeds the field near the uniform state and rebuilds the worker
// pool if the configuration changed.
func (f *RDField) Reset() {
	uniform := 1.0 / float64(f.d)
	for u := 0; u < f.nUnits; u++ {
		y := evo.State(f.density[u*f.d : (u+1)*f.d])
		for i := range y {
			y[i] = uniform * (1 + 0.1*(f.rng.Float64()-0.5))
		}
		y.Normalize()
	}
	f.t = 0
	f.steps = 0
	f.lastChange = 0
	if err := f.sup.Reset(f.nUnits); err != nil {
		logrus.Warnf("models: field reset after unload: %v", err)
	}
}

// AdvanceStep runs one reaction-diffusion tick through the supervisor and
// reports whether the field is still changing above the convergence
// threshold.
func (f *RDField) AdvanceStep() (bool, error) {
	change, err := f.sup.Step()
	if err != nil {
		return false, &evo.StepError{Step: f.steps, Time: f.t, Wrapped: err}
	}
	f.lastChange = change
	f.t += f.h
	f.steps++
	return change > f.threshold, nil
}

// Close tears down the worker pool. The field cannot be stepped afterwards.
func (f *RDField) Close() { f.sup.Unload() }

// React applies the local reaction update to every unit in [start, end) and
// returns the partition's sum of squared deltas.
func (f *RDField) React(start, end int) float64 {
	mf, hasFitness := f.dyn.(MeanFitnesser)
	total := 0.0
	for u := start; u < end; u++ {
		y := evo.State(f.density[u*f.d : (u+1)*f.d])
		drift := f.dyn.Drift(y, f.t)
		change := 0.0
		for i := range y {
			delta := f.h * drift[i]
			y[i] += delta
			if y[i] < 0 {
				y[i] = 0
			}
			change += delta * delta
		}
		y.Normalize()
		if hasFitness {
			f.fitness[u] = mf.MeanFitness(y)
		}
		total += change
	}
	return total
}

// Diffuse mixes every unit in [start, end) with its ring neighbors, reading
// post-reaction densities and writing the back buffer.
func (f *RDField) Diffuse(start, end int) {
	n, d, D := f.nUnits, f.d, f.diffusion
	for u := start; u < end; u++ {
		left := ((u + n - 1) % n) * d
		right := ((u + 1) % n) * d
		base := u * d
		for i := 0; i < d; i++ {
			f.next[base+i] = (1-D)*f.density[base+i] + 0.5*D*(f.density[left+i]+f.density[right+i])
		}
	}
}

func (f *RDField) Units() int { return f.nUnits }

func (f *RDField) ResetFitness() { f.meanFitness = 0 }

func (f *RDField) NormalizeFitness() {
	sum := 0.0
	for _, v := range f.fitness {
		sum += v
	}
	f.meanFitness = sum / float64(f.nUnits)
}

func (f *RDField) ResetDensity() {
	for i := range f.mean {
		f.mean[i] = 0
	}
}

func (f *RDField) NormalizeDensity() {
	for u := 0; u < f.nUnits; u++ {
		for i := 0; i < f.d; i++ {
			f.mean[i] += f.next[u*f.d+i]
		}
	}
	inv := 1.0 / float64(f.nUnits)
	for i := range f.mean {
		f.mean[i] *= inv
	}
	f.density, f.next = f.next, f.density
}

// MeanFitness returns the field-wide mean fitness after the last React
// phase.
func (f *RDField) MeanFitness() float64 { return f.meanFitness }

// MeanDensity returns the per-trait mean frequency after the last Diffuse
// phase.
func (f *RDField) MeanDensity() evo.State { return f.mean.Clone() }

// Unit returns a copy of one unit's trait frequencies.
func (f *RDField) Unit(u int) evo.State {
	return evo.State(f.density[u*f.d : (u+1)*f.d]).Clone()
}

// State aliases MeanDensity so the field satisfies the same observable
// contract as the well-mixed models.
func (f *RDField) State() evo.State { return f.MeanDensity() }

func (f *RDField) Time() float64       { return f.t }
func (f *RDField) LastChange() float64 { return f.lastChange }
func (f *RDField) Steps() int          { return f.steps }
func (f *RDField) Workers() int        { return f.sup.Workers() }
