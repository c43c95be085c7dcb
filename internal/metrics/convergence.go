// Package metrics provides run-level observables for evolutionary models.
package metrics

import "github.com/evolab/evodyn/internal/evo"

// Convergence tracks an exponentially weighted moving average of the squared
// state change between observations. Small values indicate the dynamics have
// settled.
type Convergence struct {
	name  string
	alpha float64
	prev  evo.State
	ewma  float64
	seen  bool
}

func NewConvergence(alpha float64) *Convergence {
	return &Convergence{name: "convergence", alpha: alpha}
}

func (c *Convergence) Name() string { return c.name }

func (c *Convergence) Observe(y evo.State, t float64) {
	if !c.seen {
		c.prev = y.Clone()
		c.seen = true
		return
	}
	change := 0.0
	for i := range y {
		delta := y[i] - c.prev[i]
		change += delta * delta
	}
	c.ewma = c.alpha*change + (1-c.alpha)*c.ewma
	copy(c.prev, y)
}

func (c *Convergence) Value() float64 { return c.ewma }

func (c *Convergence) Reset() {
	c.prev = nil
	c.ewma = 0
	c.seen = false
}
