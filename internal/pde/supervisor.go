package pde

import (
	"runtime"
	"sync"

	"github.com/sirupsen/logrus"

	"github.com/evolab/evodyn/internal/evo"
)

// MinWorkload is the minimum partition size below which extra workers are
// not worth the coordination overhead.
const MinWorkload = 1000

// Partition is a half-open unit range [Start, End) assigned to one worker.
type Partition struct {
	Start, End int
}

// WorkerCount sizes the pool for nUnits. parallelism <= 0 uses the number
// of CPUs; interactive contexts reserve one core for responsiveness. The
// count is capped so every worker gets at least MinWorkload units, with a
// floor of one.
func WorkerCount(nUnits, parallelism int, interactive bool) int {
	if parallelism <= 0 {
		parallelism = runtime.NumCPU()
	}
	if interactive && parallelism > 1 {
		parallelism--
	}
	byLoad := nUnits / MinWorkload
	if byLoad < 1 {
		byLoad = 1
	}
	if byLoad < parallelism {
		return byLoad
	}
	return parallelism
}

// Partitions splits [0, nUnits) into count contiguous non-overlapping
// ranges. The last partition absorbs the remainder of the integer division.
func Partitions(nUnits, count int) []Partition {
	if count < 1 {
		count = 1
	}
	size := nUnits / count
	parts := make([]Partition, count)
	for i := range parts {
		parts[i] = Partition{Start: i * size, End: (i + 1) * size}
	}
	parts[count-1].End = nUnits
	return parts
}

// Supervisor advances an evo.Field one reaction-diffusion step at a time
// across its worker pool. Step, Reset and Unload serialize on an internal
// lock; the only coordination with workers is the per-worker command
// channel and the shared completion channel acting as the phase barrier.
type Supervisor struct {
	field       evo.Field
	parallelism int
	interactive bool

	mu      sync.Mutex
	workers []*worker
	done    chan completion
	nUnits  int
	wg      sync.WaitGroup

	quit     chan struct{}
	quitOnce sync.Once
}

// NewSupervisor creates a supervisor for field. parallelism is a hint for
// the available hardware parallelism (<= 0 means runtime.NumCPU);
// interactive reserves one core for a UI thread. Call Reset before Step.
func NewSupervisor(field evo.Field, parallelism int, interactive bool) *Supervisor {
	return &Supervisor{
		field:       field,
		parallelism: parallelism,
		interactive: interactive,
		quit:        make(chan struct{}),
	}
}

// Reset (re)builds the worker pool and partitions for nUnits. Calling it
// again with an unchanged configuration is a no-op; otherwise the old pool
// is torn down and a fresh one started.
func (s *Supervisor) Reset(nUnits int) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	select {
	case <-s.quit:
		return evo.ErrUnloaded
	default:
	}

	count := WorkerCount(nUnits, s.parallelism, s.interactive)
	if s.workers != nil && nUnits == s.nUnits && count == len(s.workers) {
		return nil
	}

	s.teardownLocked()

	parts := Partitions(nUnits, count)
	s.done = make(chan completion, count)
	s.workers = make([]*worker, count)
	for i, p := range parts {
		w := &worker{
			id:    i,
			start: p.Start,
			end:   p.End,
			field: s.field,
			cmd:   make(chan Task, 1),
			done:  s.done,
		}
		s.workers[i] = w
		s.wg.Add(1)
		go w.loop(&s.wg)
	}
	s.nUnits = nUnits
	logrus.Debugf("pde: pool reset, %d workers over %d units", count, nUnits)
	return nil
}

// Step runs one reaction-diffusion tick: React on all partitions, barrier,
// Diffuse on all partitions, barrier. It returns the accumulated change of
// the React phase, the sum of squared per-unit deltas. The sum is taken in
// worker-index order so a given configuration always aggregates the same
// way. No sanity check is applied to the aggregate: a NaN produced by a
// worker propagates into the return value.
func (s *Supervisor) Step() (float64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.workers == nil {
		return 0, evo.ErrNotLoaded
	}

	s.field.ResetFitness()
	if err := s.dispatch(TaskReact); err != nil {
		return 0, err
	}
	deltas := make([]float64, len(s.workers))
	if err := s.barrier(deltas); err != nil {
		return 0, err
	}
	change := 0.0
	for _, d := range deltas {
		change += d
	}
	s.field.NormalizeFitness()

	s.field.ResetDensity()
	if err := s.dispatch(TaskDiffuse); err != nil {
		return 0, err
	}
	if err := s.barrier(nil); err != nil {
		return 0, err
	}
	s.field.NormalizeDensity()

	return change, nil
}

// Workers returns the current pool size, zero when unloaded or not yet
// reset.
func (s *Supervisor) Workers() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.workers)
}

// Units returns the field size the pool was last reset for.
func (s *Supervisor) Units() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.nUnits
}

// Unload tears the pool down: any in-flight barrier wait is released, every
// worker receives the exit task, and the call blocks until all workers have
// terminated. Unload is idempotent, terminal, and safe to call before any
// Step has run.
func (s *Supervisor) Unload() {
	// Closing quit first unblocks a Step stuck at a barrier so the lock
	// below can be acquired.
	s.quitOnce.Do(func() { close(s.quit) })
	s.mu.Lock()
	defer s.mu.Unlock()
	s.teardownLocked()
	s.nUnits = 0
}

func (s *Supervisor) teardownLocked() {
	for _, w := range s.workers {
		// The command buffer is empty whenever a worker is between tasks,
		// so the exit pill never blocks.
		w.cmd <- TaskExit
		close(w.cmd)
	}
	s.wg.Wait()
	s.workers = nil
}

func (s *Supervisor) dispatch(task Task) error {
	for _, w := range s.workers {
		select {
		case w.cmd <- task:
		case <-s.quit:
			return evo.ErrUnloaded
		}
	}
	return nil
}

// barrier receives exactly one completion per worker before returning.
// deltas, when non-nil, collects per-worker contributions by worker index.
func (s *Supervisor) barrier(deltas []float64) error {
	for pending := len(s.workers); pending > 0; pending-- {
		select {
		case c := <-s.done:
			if deltas != nil {
				deltas[c.worker] = c.delta
			}
		case <-s.quit:
			return evo.ErrUnloaded
		}
	}
	return nil
}
