package viz

import (
	"fmt"
	"strings"
	"sync"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/guptarohit/asciigraph"

	"github.com/evolab/evodyn/internal/evo"
	"github.com/evolab/evodyn/internal/pacing"
)

const (
	canvasCols = 46
	canvasRows = 18
	historyCap = 240
	trailCap   = 400
	frameRate  = time.Second / 30
	maxDelay   = 2 * time.Second
)

var seriesPalette = []asciigraph.AnsiColor{
	asciigraph.Red,
	asciigraph.Green,
	asciigraph.Blue,
	asciigraph.Yellow,
	asciigraph.Cyan,
	asciigraph.Magenta,
}

// Source exposes the observable state of a running model. Calls happen only
// on the scheduler's driving goroutine, never concurrently with a step.
type Source interface {
	State() evo.State
	Time() float64
}

type TickMsg time.Time

type point struct{ x, y float64 }

// Live is the bubbletea model for the live view. It pokes the scheduler on
// its frame timer when the pacing delay is at or above pacing.MinDelay and
// lets the scheduler free-run below it; either way it only ever renders
// snapshots recorded by the per-step callback.
type Live struct {
	src   Source
	sched *pacing.Scheduler
	name  string
	delay time.Duration

	// written on the scheduler goroutine, read on the UI goroutine
	mu      sync.Mutex
	state   evo.State
	t       float64
	steps   int
	history [][]float64
	trail   []point

	canvas   *Canvas
	paused   bool
	showHelp bool
}

// NewLive wires a view to a source and its scheduler. The scheduler must
// already be driving src.
func NewLive(src Source, sched *pacing.Scheduler, name string, delay time.Duration) *Live {
	y0 := src.State().Clone()
	l := &Live{
		src:     src,
		sched:   sched,
		name:    name,
		delay:   delay,
		state:   y0,
		history: make([][]float64, len(y0)),
		canvas:  NewCanvas(canvasCols, canvasRows),
	}
	for i, v := range y0 {
		l.history[i] = append(l.history[i], v)
	}
	if len(y0) == 3 {
		l.trail = append(l.trail, project(y0))
	}
	sched.SetOnStep(l.record)
	sched.SetDelay(delay)
	return l
}

// record snapshots the source after each step. It runs on the scheduler
// goroutine, so reading src is safe here and nowhere else.
func (l *Live) record(steps int) {
	y := l.src.State().Clone()
	t := l.src.Time()

	l.mu.Lock()
	defer l.mu.Unlock()
	l.state = y
	l.t = t
	l.steps = steps
	for i := range l.history {
		if i >= len(y) {
			break
		}
		l.history[i] = append(l.history[i], y[i])
		if len(l.history[i]) > historyCap {
			l.history[i] = l.history[i][1:]
		}
	}
	if len(y) == 3 {
		l.trail = append(l.trail, project(y))
		if len(l.trail) > trailCap {
			l.trail = l.trail[1:]
		}
	}
}

func (l *Live) Init() tea.Cmd {
	l.sched.Run()
	return l.tick()
}

func (l *Live) tick() tea.Cmd {
	d := l.delay
	if d < pacing.MinDelay {
		d = frameRate
	}
	return tea.Tick(d, func(t time.Time) tea.Msg { return TickMsg(t) })
}

func (l *Live) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "q", "ctrl+c":
			l.sched.Stop()
			return l, tea.Quit
		case " ":
			l.paused = !l.paused
			if l.paused {
				l.sched.Stop()
			} else {
				l.sched.Run()
			}
		case "+", "=":
			l.setDelay(l.delay / 2)
		case "-", "_":
			if l.delay == 0 {
				l.setDelay(pacing.MinDelay)
			} else {
				l.setDelay(l.delay * 2)
			}
		case "?":
			l.showHelp = !l.showHelp
		}
	case TickMsg:
		if !l.paused && l.delay >= pacing.MinDelay {
			l.sched.Poke()
		}
		return l, l.tick()
	}
	return l, nil
}

func (l *Live) setDelay(d time.Duration) {
	if d < pacing.MinDelay {
		d = 0
	}
	if d > maxDelay {
		d = maxDelay
	}
	l.delay = d
	l.sched.SetDelay(d)
}

func (l *Live) View() string {
	l.mu.Lock()
	y := l.state.Clone()
	t := l.t
	steps := l.steps
	series := make([][]float64, len(l.history))
	for i := range l.history {
		series[i] = append([]float64(nil), l.history[i]...)
	}
	trail := append([]point(nil), l.trail...)
	l.mu.Unlock()

	var s strings.Builder
	s.WriteString(headerStyle.Render(strings.ToUpper(l.name)) + "\n")
	s.WriteString(l.status() + "\n\n")

	if len(series) > 0 && len(series[0]) > 1 {
		colors := make([]asciigraph.AnsiColor, len(series))
		for i := range colors {
			colors[i] = seriesPalette[i%len(seriesPalette)]
		}
		chart := asciigraph.PlotMany(series,
			asciigraph.Height(6),
			asciigraph.Width(32),
			asciigraph.SeriesColors(colors...),
			asciigraph.Caption("trait frequencies"))
		s.WriteString(graphStyle.Render(chart) + "\n\n")
	}

	s.WriteString(labelStyle.Render("Time") + valueStyle.Render(fmt.Sprintf("%.2f", t)) + "\n")
	s.WriteString(labelStyle.Render("Steps") + valueStyle.Render(fmt.Sprintf("%d", steps)) + "\n")
	s.WriteString(labelStyle.Render("Delay") + valueStyle.Render(l.delayLabel()) + "\n\n")
	for i, v := range y {
		s.WriteString(fmt.Sprintf("%s %s %.4f\n", labelStyle.Render(fmt.Sprintf("trait %d", i)), TraitBar(v, 12), v))
	}

	s.WriteString(helpStyle.Render("\n─────────────────────\nSP:Pause Q:Quit ?:Help\n+/-:Faster/Slower"))
	stats := statsStyle.Render(s.String())

	var view string
	if len(y) == 3 {
		l.drawTernary(y, trail)
		view = lipgloss.JoinHorizontal(lipgloss.Top, canvasStyle.Render(l.canvas.String()), stats)
	} else {
		view = stats
	}
	if l.showHelp {
		return helpOverlay + "\n" + view
	}
	return view
}

func (l *Live) status() string {
	switch {
	case !l.sched.Alive():
		return statusFailed.Render("FAILED")
	case l.sched.State() == pacing.Idle:
		return statusDone.Render("CONVERGED")
	case l.paused:
		return statusPaused.Render("PAUSED")
	}
	return statusRunning.Render("RUNNING")
}

func (l *Live) delayLabel() string {
	if l.delay < pacing.MinDelay {
		return "free-run"
	}
	return l.delay.String()
}

// project maps a 3-trait simplex point to the unit triangle: trait 0 at the
// bottom left, trait 1 at the bottom right, trait 2 at the apex.
func project(y evo.State) point {
	return point{x: y[1] + 0.5*y[2], y: y[2] * sqrt3over2}
}

const sqrt3over2 = 0.8660254037844386

// drawTernary renders the simplex triangle with the recent trajectory and
// the current point.
func (l *Live) drawTernary(y evo.State, trail []point) {
	l.canvas.Clear()
	w, h := l.canvas.Cols*2, l.canvas.Rows*4
	margin := 4
	toDot := func(p point) (int, int) {
		x := margin + int(p.x*float64(w-2*margin))
		dotY := h - margin - int(p.y/sqrt3over2*float64(h-2*margin))
		return x, dotY
	}

	ax, ay := toDot(point{0, 0})
	bx, by := toDot(point{1, 0})
	cx, cy := toDot(point{0.5, sqrt3over2})
	l.canvas.Line(ax, ay, bx, by)
	l.canvas.Line(bx, by, cx, cy)
	l.canvas.Line(cx, cy, ax, ay)

	for i := 1; i < len(trail); i++ {
		x0, y0 := toDot(trail[i-1])
		x1, y1 := toDot(trail[i])
		l.canvas.Line(x0, y0, x1, y1)
	}

	px, py := toDot(project(y))
	for dy := -1; dy <= 1; dy++ {
		for dx := -1; dx <= 1; dx++ {
			l.canvas.Set(px+dx, py+dy)
		}
	}
}

const helpOverlay = `
╔══════════════════════════════════════╗
║          KEYBOARD SHORTCUTS          ║
╠══════════════════════════════════════╣
║  Space    - Pause/Resume             ║
║  Q        - Quit                     ║
║  +/=      - Halve the pacing delay   ║
║  -/_      - Double the pacing delay  ║
║  ?        - Toggle this help         ║
╚══════════════════════════════════════╝
`
