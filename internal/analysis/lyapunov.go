package analysis

import (
	"math"

	"github.com/evolab/evodyn/internal/evo"
)

// LargestLyapunov estimates the largest Lyapunov exponent of dyn by running
// a reference and a perturbed trajectory side by side, renormalizing the
// separation back to eps after every step (Benettin's method). A positive
// value indicates chaotic dynamics; cyclic dynamics sit near zero.
//
// The perturbation shifts weight between the first two traits so a simplex
// state stays on the simplex.
func LargestLyapunov(dyn evo.Dynamics, integ evo.Integrator, y0 evo.State, dt, duration, eps float64) float64 {
	if len(y0) < 2 || dt <= 0 || duration <= 0 || eps <= 0 {
		return 0
	}

	y := y0.Clone()
	yp := y0.Clone()
	yp[0] += eps
	yp[1] -= eps
	d0 := math.Sqrt(2) * eps

	sumLog := 0.0
	count := 0
	for t := 0.0; t < duration; t += dt {
		y = integ.Step(dyn, y, t, dt)
		yp = integ.Step(dyn, yp, t, dt)

		sep := 0.0
		for i := range y {
			diff := yp[i] - y[i]
			sep += diff * diff
		}
		sep = math.Sqrt(sep)
		if sep == 0 {
			continue
		}

		sumLog += math.Log(sep / d0)
		count++

		// pull the perturbed trajectory back to distance d0
		scale := d0 / sep
		for i := range yp {
			yp[i] = y[i] + (yp[i]-y[i])*scale
		}
	}

	if count == 0 {
		return 0
	}
	return sumLog / (float64(count) * dt)
}
