package metrics

import (
	"math"

	"github.com/evolab/evodyn/internal/evo"
)

// Diversity averages the Shannon entropy of the trait distribution over a
// run. Zero means a monomorphic population throughout.
type Diversity struct {
	name    string
	total   float64
	samples int
}

func NewDiversity() *Diversity {
	return &Diversity{name: "diversity"}
}

func (d *Diversity) Name() string { return d.name }

func (d *Diversity) Observe(y evo.State, t float64) {
	h := 0.0
	for _, v := range y {
		if v > 0 {
			h -= v * math.Log(v)
		}
	}
	d.total += h
	d.samples++
}

func (d *Diversity) Value() float64 {
	if d.samples == 0 {
		return 0
	}
	return d.total / float64(d.samples)
}

func (d *Diversity) Reset() {
	d.total = 0
	d.samples = 0
}
