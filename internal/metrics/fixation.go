package metrics

import "github.com/evolab/evodyn/internal/evo"

// Fixation records the first time any trait crosses the fixation threshold.
// Value returns that time, or -1 if no trait fixated during the run.
type Fixation struct {
	name      string
	threshold float64
	time      float64
	fixed     bool
}

func NewFixation(threshold float64) *Fixation {
	return &Fixation{name: "fixation", threshold: threshold, time: -1}
}

func (f *Fixation) Name() string { return f.name }

func (f *Fixation) Observe(y evo.State, t float64) {
	if f.fixed {
		return
	}
	for _, v := range y {
		if v >= f.threshold {
			f.time = t
			f.fixed = true
			return
		}
	}
}

func (f *Fixation) Value() float64 { return f.time }

func (f *Fixation) Reset() {
	f.time = -1
	f.fixed = false
}
