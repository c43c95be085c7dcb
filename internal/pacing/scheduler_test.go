package pacing

import (
	"errors"
	"sync"
	"testing"
	"time"
)

type countingModel struct {
	mu    sync.Mutex
	steps int
	limit int
	fail  error
	pause time.Duration
}

func (m *countingModel) AdvanceStep() (bool, error) {
	if m.pause > 0 {
		time.Sleep(m.pause)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.fail != nil {
		return false, m.fail
	}
	m.steps++
	return m.limit == 0 || m.steps < m.limit, nil
}

func (m *countingModel) Reset() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.steps = 0
}

func (m *countingModel) Steps() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.steps
}

func waitFor(t *testing.T, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(time.Millisecond)
	}
	t.Fatal("condition not reached in time")
}

func TestSinglePokeSingleStep(t *testing.T) {
	m := &countingModel{}
	s := New(m)
	defer s.Close()

	s.SetDelay(time.Second)
	s.Poke()
	waitFor(t, func() bool { return m.Steps() == 1 })

	// No self-advance at high delay.
	time.Sleep(50 * time.Millisecond)
	if got := m.Steps(); got != 1 {
		t.Errorf("expected 1 step without further pokes, got %d", got)
	}
	if s.State() != Waiting {
		t.Errorf("expected Waiting, got %v", s.State())
	}
}

func TestAtMostNStepsForNPokes(t *testing.T) {
	m := &countingModel{pause: 5 * time.Millisecond}
	s := New(m)
	defer s.Close()

	s.SetDelay(time.Second)
	const n = 20
	for i := 0; i < n; i++ {
		s.Poke()
	}
	time.Sleep(200 * time.Millisecond)
	if got := m.Steps(); got > n {
		t.Errorf("%d pokes must yield at most %d steps, got %d", n, n, got)
	}
	if got := m.Steps(); got < 1 {
		t.Errorf("expected at least one step, got %d", got)
	}
}

func TestFreeRunUntilModelCompletes(t *testing.T) {
	m := &countingModel{limit: 25}
	s := New(m)
	defer s.Close()

	s.SetDelay(0)
	s.Run()
	waitFor(t, func() bool { return m.Steps() == 25 })
	waitFor(t, func() bool { return s.State() == Idle })

	// Completed model ignores further pokes.
	s.Poke()
	time.Sleep(20 * time.Millisecond)
	if got := m.Steps(); got != 25 {
		t.Errorf("idle scheduler must not step, got %d", got)
	}
}

func TestStopHaltsRearming(t *testing.T) {
	m := &countingModel{pause: time.Millisecond}
	s := New(m)
	defer s.Close()

	s.SetDelay(0)
	s.Run()
	waitFor(t, func() bool { return m.Steps() >= 5 })
	s.Stop()

	waitFor(t, func() bool { return s.State() == Waiting })
	at := m.Steps()
	time.Sleep(50 * time.Millisecond)
	if got := m.Steps(); got != at {
		t.Errorf("stopped scheduler advanced from %d to %d without a poke", at, got)
	}

	// Single-step while stopped still works.
	s.Poke()
	waitFor(t, func() bool { return m.Steps() == at+1 })
}

func TestFatalErrorKillsDrivingGoroutine(t *testing.T) {
	m := &countingModel{fail: errors.New("numerical blow-up")}
	s := New(m)
	defer s.Close()

	if !s.Alive() {
		t.Fatal("scheduler must start alive")
	}
	s.Poke()
	waitFor(t, func() bool { return !s.Alive() })

	// Dead scheduler absorbs pokes instead of stepping.
	s.Poke()
	time.Sleep(20 * time.Millisecond)
	if got := m.Steps(); got != 0 {
		t.Errorf("expected 0 completed steps after fatal error, got %d", got)
	}
}

func TestConcurrentPokesAreSafe(t *testing.T) {
	m := &countingModel{}
	s := New(m)
	defer s.Close()

	s.SetDelay(time.Second)
	var wg sync.WaitGroup
	for i := 0; i < 16; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 100; j++ {
				s.Poke()
			}
		}()
	}
	wg.Wait()
	time.Sleep(50 * time.Millisecond)
	if got := m.Steps(); got > 1600 {
		t.Errorf("steps exceeded pokes: %d", got)
	}
}

func TestCloseIsIdempotent(t *testing.T) {
	s := New(&countingModel{})
	s.Close()
	s.Close()
	if s.Alive() {
		t.Error("closed scheduler must not be alive")
	}
}

func TestOnStepObserverSeesEveryStep(t *testing.T) {
	m := &countingModel{limit: 10}
	s := New(m)
	defer s.Close()

	var mu sync.Mutex
	var seen []int
	s.SetOnStep(func(steps int) {
		mu.Lock()
		seen = append(seen, steps)
		mu.Unlock()
	})

	s.Run()
	waitFor(t, func() bool {
		mu.Lock()
		defer mu.Unlock()
		return len(seen) >= 10
	})

	mu.Lock()
	defer mu.Unlock()
	if len(seen) != 10 {
		t.Fatalf("observer fired %d times, want 10", len(seen))
	}
	for i, v := range seen {
		if v != i+1 {
			t.Fatalf("observer saw step %d at position %d", v, i)
		}
	}
}
