package metrics

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/evolab/evodyn/internal/evo"
)

func TestConvergenceSettles(t *testing.T) {
	c := NewConvergence(0.5)
	c.Observe(evo.State{0.5, 0.5}, 0)
	c.Observe(evo.State{0.6, 0.4}, 1)
	assert.Greater(t, c.Value(), 0.0)

	for i := 0; i < 100; i++ {
		c.Observe(evo.State{0.6, 0.4}, float64(i+2))
	}
	assert.Less(t, c.Value(), 1e-12, "repeated identical states must drive the EWMA to zero")

	c.Reset()
	assert.Zero(t, c.Value())
}

func TestDiversityEntropy(t *testing.T) {
	d := NewDiversity()
	d.Observe(evo.State{0.5, 0.5}, 0)
	assert.InDelta(t, math.Log(2), d.Value(), 1e-12)

	d.Reset()
	d.Observe(evo.State{1, 0}, 0)
	assert.Zero(t, d.Value(), "monomorphic state has zero entropy")
}

func TestFixationFirstPassage(t *testing.T) {
	f := NewFixation(0.99)
	f.Observe(evo.State{0.5, 0.5}, 0)
	assert.Equal(t, -1.0, f.Value())

	f.Observe(evo.State{0.995, 0.005}, 3.5)
	assert.Equal(t, 3.5, f.Value())

	// Later crossings do not overwrite the first passage.
	f.Observe(evo.State{1, 0}, 9.0)
	assert.Equal(t, 3.5, f.Value())

	f.Reset()
	assert.Equal(t, -1.0, f.Value())
}
