package integrators

import (
	"math"
	"testing"

	"github.com/evolab/evodyn/internal/evo"
)

// decay is dy/dt = -y, solved by y(t) = y0*exp(-t).
type decay struct{}

func (decay) Drift(y evo.State, t float64) evo.State {
	d := make(evo.State, len(y))
	for i := range y {
		d[i] = -y[i]
	}
	return d
}

func (decay) Dim() int { return 1 }

func integrate(integ evo.Integrator, steps int, h float64) float64 {
	y := evo.State{1.0}
	t := 0.0
	for i := 0; i < steps; i++ {
		y = integ.Step(decay{}, y, t, h)
		t += h
	}
	return y[0]
}

func TestEulerConverges(t *testing.T) {
	got := integrate(NewEuler(), 1000, 0.001)
	want := math.Exp(-1.0)
	if math.Abs(got-want) > 1e-3 {
		t.Errorf("euler: got %v, want ~%v", got, want)
	}
}

func TestRK4Accuracy(t *testing.T) {
	got := integrate(NewRK4(), 100, 0.01)
	want := math.Exp(-1.0)
	if math.Abs(got-want) > 1e-9 {
		t.Errorf("rk4: got %v, want %v within 1e-9", got, want)
	}
}

func TestRK4ScratchReuseAcrossDims(t *testing.T) {
	r := NewRK4()
	_ = r.Step(decay{}, evo.State{1.0}, 0, 0.01)
	// Changing dimension must not reuse stale scratch.
	out := r.Step(decay{}, evo.State{1.0, 2.0, 3.0}, 0, 0.01)
	if len(out) != 3 {
		t.Fatalf("expected 3 components, got %d", len(out))
	}
	for i, v := range out {
		if math.IsNaN(v) {
			t.Errorf("component %d is NaN", i)
		}
	}
}
