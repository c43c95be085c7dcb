package integrators

import "github.com/evolab/evodyn/internal/evo"

type RK4 struct {
	k1, k2, k3, k4 evo.State
	scratch        evo.State
}

func NewRK4() *RK4 {
	return &RK4{}
}

func (r *RK4) ensureScratch(n int) {
	if len(r.k1) != n {
		r.k1 = make(evo.State, n)
		r.k2 = make(evo.State, n)
		r.k3 = make(evo.State, n)
		r.k4 = make(evo.State, n)
		r.scratch = make(evo.State, n)
	}
}

func (r *RK4) Step(dyn evo.Dynamics, y evo.State, t, h float64) evo.State {
	n := len(y)
	r.ensureScratch(n)

	copy(r.k1, dyn.Drift(y, t))

	for i := 0; i < n; i++ {
		r.scratch[i] = y[i] + h*0.5*r.k1[i]
	}
	copy(r.k2, dyn.Drift(r.scratch, t+h*0.5))

	for i := 0; i < n; i++ {
		r.scratch[i] = y[i] + h*0.5*r.k2[i]
	}
	copy(r.k3, dyn.Drift(r.scratch, t+h*0.5))

	for i := 0; i < n; i++ {
		r.scratch[i] = y[i] + h*r.k3[i]
	}
	copy(r.k4, dyn.Drift(r.scratch, t+h))

	result := make(evo.State, n)
	h6 := h / 6.0
	for i := 0; i < n; i++ {
		result[i] = y[i] + h6*(r.k1[i]+2*r.k2[i]+2*r.k3[i]+r.k4[i])
	}

	return result
}
