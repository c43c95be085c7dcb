package sde

import "github.com/evolab/evodyn/internal/evo"

// extinctionEps is the frequency below which a trait is considered extinct
// and zeroed to prevent roundoff reappearance.
const extinctionEps = 1e-10

// StepSimplex advances a d-trait simplex state by one Euler–Maruyama step.
// drift is the raw deterministic drift at y; noise is the (d-1)-dimensional
// correlated increment from a NoiseGenerator, already carrying its 1/sqrt(h)
// scaling. The deterministic term is the drift scaled by (1-mu) plus the
// uniform mutation flow between all trait pairs.
//
// Traits live on the simplex, so an unconstrained step that would push a
// trait negative is shortened to the largest fraction keeping every trait
// non-negative; traits at the boundary are zeroed and the state is
// renormalized to sum one.
func StepSimplex(y, drift, noise evo.State, mu, h float64) evo.State {
	d := len(y)
	inc := make(evo.State, d)

	// Embed the (d-1)-dimensional noise; the last trait absorbs the
	// negated sum so increments stay on the simplex tangent space.
	noiseSum := 0.0
	for i := 0; i < d-1; i++ {
		inc[i] = noise[i]
		noiseSum += noise[i]
	}
	inc[d-1] = -noiseSum

	dm1 := float64(d - 1)
	for i := 0; i < d; i++ {
		det := (1-mu)*drift[i] + mu*((1-y[i])/dm1-y[i])
		inc[i] = h * (det + inc[i])
	}

	// Largest step fraction keeping all traits >= 0.
	frac := 1.0
	for i := 0; i < d; i++ {
		if inc[i] < 0 && y[i]+inc[i] < 0 {
			if a := -y[i] / inc[i]; a < frac {
				frac = a
			}
		}
	}

	next := make(evo.State, d)
	for i := 0; i < d; i++ {
		v := y[i] + frac*inc[i]
		if v < extinctionEps {
			v = 0
		}
		next[i] = v
	}
	next.Normalize()
	return next
}
