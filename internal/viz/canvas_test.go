package viz

import (
	"math"
	"strings"
	"testing"

	"github.com/evolab/evodyn/internal/evo"
	"github.com/evolab/evodyn/internal/pacing"
)

func TestCanvasSetAndClear(t *testing.T) {
	c := NewCanvas(4, 2)
	c.Set(0, 0)
	if !strings.ContainsRune(c.String(), 0x2801) {
		t.Error("expected top-left dot to be lit")
	}
	c.Clear()
	for _, r := range c.String() {
		if r != 0x2800 && r != '\n' {
			t.Errorf("dot %q survived Clear", r)
		}
	}
}

func TestCanvasIgnoresOutOfRange(t *testing.T) {
	c := NewCanvas(2, 2)
	c.Set(-1, 0)
	c.Set(0, -3)
	c.Set(100, 100)
	for _, r := range c.String() {
		if r != 0x2800 && r != '\n' {
			t.Error("out-of-range Set lit a dot")
		}
	}
}

func TestCanvasLineEndpoints(t *testing.T) {
	c := NewCanvas(10, 10)
	c.Line(0, 0, 19, 39)
	if c.cells[0] == 0x2800 {
		t.Error("line start cell is empty")
	}
	if c.cells[len(c.cells)-1] == 0x2800 {
		t.Error("line end cell is empty")
	}
}

func TestProjectCorners(t *testing.T) {
	cases := []struct {
		y    evo.State
		x, h float64
	}{
		{evo.State{1, 0, 0}, 0, 0},
		{evo.State{0, 1, 0}, 1, 0},
		{evo.State{0, 0, 1}, 0.5, sqrt3over2},
	}
	for _, tc := range cases {
		p := project(tc.y)
		if math.Abs(p.x-tc.x) > 1e-12 || math.Abs(p.y-tc.h) > 1e-12 {
			t.Errorf("project(%v) = (%g, %g), want (%g, %g)", tc.y, p.x, p.y, tc.x, tc.h)
		}
	}
}

func TestTraitBarClamps(t *testing.T) {
	if got := TraitBar(2.0, 4); got != "[████]" {
		t.Errorf("over-full bar = %q", got)
	}
	if got := TraitBar(-1.0, 4); got != "[░░░░]" {
		t.Errorf("negative bar = %q", got)
	}
}

type staticSource struct{ y evo.State }

func (s staticSource) State() evo.State { return s.y }
func (s staticSource) Time() float64    { return 0 }

type noopModel struct{}

func (noopModel) AdvanceStep() (bool, error) { return false, nil }
func (noopModel) Reset()                     {}

func TestRecordBoundsHistory(t *testing.T) {
	sched := pacing.New(noopModel{})
	defer sched.Close()

	src := staticSource{y: evo.State{0.5, 0.3, 0.2}}
	l := NewLive(src, sched, "test", 0)
	for i := 0; i < historyCap+trailCap+10; i++ {
		l.record(i)
	}
	for i := range l.history {
		if len(l.history[i]) > historyCap {
			t.Fatalf("history series %d grew to %d", i, len(l.history[i]))
		}
	}
	if len(l.trail) > trailCap {
		t.Fatalf("trail grew to %d", len(l.trail))
	}
}
