// Package pacing drives a model forward one logical step at a time.
//
// A Scheduler owns a single driving goroutine gated on a trigger channel.
// External callers (timers, UI, tests) call Poke to release one step; below
// the minimum delay the scheduler re-arms itself after each step instead and
// free-runs at maximum rate. The scheduler never busy-waits while idle.
package pacing

import (
	"sync"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/evolab/evodyn/internal/evo"
)

// MinDelay is the threshold below which the scheduler free-runs. At or above
// it, an external periodic timer is expected to call Poke every delay.
const MinDelay = 10 * time.Millisecond

// SchedState is the scheduler's lifecycle state.
type SchedState int

const (
	// Idle means there is nothing to do; Poke is a no-op.
	Idle SchedState = iota
	// Waiting means the driving goroutine is blocked until the next Poke.
	Waiting
	// Stepping means the driving goroutine is inside one model step.
	Stepping
)

func (s SchedState) String() string {
	switch s {
	case Idle:
		return "idle"
	case Waiting:
		return "waiting"
	case Stepping:
		return "stepping"
	}
	return "unknown"
}

// Scheduler paces one evo.Model. Steps are strictly sequential: no two
// AdvanceStep calls ever overlap. A model error is fatal for the driving
// goroutine; the embedding application detects it via Alive and may build a
// fresh Scheduler to relaunch.
type Scheduler struct {
	model evo.Model

	mu      sync.Mutex
	state   SchedState
	delay   time.Duration
	running bool
	alive   bool

	trigger chan struct{}
	quit    chan struct{}
	done    chan struct{}

	steps  int
	onStep func(steps int)
}

// New creates a Scheduler for model and launches its driving goroutine in
// the Waiting state. The scheduler starts stopped: it will honor single
// Pokes but not re-arm itself until Run is called.
func New(model evo.Model) *Scheduler {
	s := &Scheduler{
		model:   model,
		state:   Waiting,
		alive:   true,
		trigger: make(chan struct{}, 1),
		quit:    make(chan struct{}),
		done:    make(chan struct{}),
	}
	go s.loop()
	return s
}

// Poke releases exactly one step if the scheduler is Waiting; otherwise it
// is a no-op. Safe to call concurrently from any number of goroutines.
func (s *Scheduler) Poke() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.pokeLocked()
}

func (s *Scheduler) pokeLocked() {
	if s.state != Waiting || !s.alive {
		return
	}
	s.state = Stepping
	// Cap-1 channel plus the Waiting guard means the send never blocks.
	select {
	case s.trigger <- struct{}{}:
	default:
	}
}

// SetDelay sets the pacing delay. Below MinDelay the scheduler free-runs
// (self-re-pokes after every step while running); at or above, it only
// advances on external Pokes.
func (s *Scheduler) SetDelay(d time.Duration) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.delay = d
	if s.running && d < MinDelay {
		s.pokeLocked()
	}
}

// Delay returns the current pacing delay.
func (s *Scheduler) Delay() time.Duration {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.delay
}

// Run makes the scheduler keep re-arming itself after each step. In
// free-running mode this also kicks off the first step.
func (s *Scheduler) Run() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.running = true
	if s.state == Idle {
		s.state = Waiting
	}
	if s.delay < MinDelay {
		s.pokeLocked()
	}
}

// Stop makes the scheduler fall back to Waiting after the in-flight step, if
// any. Single steps via Poke still work while stopped.
func (s *Scheduler) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.running = false
}

// SetOnStep registers a callback invoked on the driving goroutine after
// every completed step. Because no AdvanceStep call is in flight during the
// callback, it may read model state without further synchronization.
func (s *Scheduler) SetOnStep(fn func(steps int)) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.onStep = fn
}

// State returns the current scheduler state.
func (s *Scheduler) State() SchedState {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// Alive reports whether the driving goroutine is still running. It turns
// false after Close or after a fatal model error.
func (s *Scheduler) Alive() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.alive
}

// Steps returns the number of completed model steps.
func (s *Scheduler) Steps() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.steps
}

// Close terminates the driving goroutine and waits for it to exit. The
// scheduler cannot be reused afterwards.
func (s *Scheduler) Close() {
	s.mu.Lock()
	if !s.alive {
		s.mu.Unlock()
		return
	}
	s.mu.Unlock()
	close(s.quit)
	<-s.done
}

func (s *Scheduler) loop() {
	defer close(s.done)
	defer func() {
		s.mu.Lock()
		s.alive = false
		s.mu.Unlock()
	}()

	for {
		select {
		case <-s.quit:
			return
		case <-s.trigger:
		}

		// State is already Stepping, set by whichever Poke won the race.
		cont, err := s.model.AdvanceStep()
		if err != nil {
			logrus.Errorf("pacing: fatal model error, scheduler terminating: %v", err)
			return
		}

		s.mu.Lock()
		s.steps++
		steps, observe := s.steps, s.onStep
		switch {
		case !cont:
			// Converged or absorbed; further Pokes are no-ops.
			s.state = Idle
			s.running = false
			logrus.Debugf("pacing: model signaled completion after %d steps", s.steps)
		default:
			s.state = Waiting
			if s.running && s.delay < MinDelay {
				s.pokeLocked()
			}
		}
		s.mu.Unlock()

		if observe != nil {
			observe(steps)
		}
	}
}
