package pde

import (
	"sync"

	"github.com/sirupsen/logrus"

	"github.com/evolab/evodyn/internal/evo"
)

// Task is the command currently given to a worker. Transitions are
// supervisor-driven only.
type Task int

const (
	TaskIdle Task = iota
	TaskReact
	TaskDiffuse
	TaskExit
)

func (t Task) String() string {
	switch t {
	case TaskIdle:
		return "idle"
	case TaskReact:
		return "react"
	case TaskDiffuse:
		return "diffuse"
	case TaskExit:
		return "exit"
	}
	return "unknown"
}

// completion is one worker's report that a dispatched task finished. delta
// carries the partition's contribution to the accumulated change (React
// only, zero for Diffuse).
type completion struct {
	worker int
	delta  float64
}

// worker owns one contiguous partition [start, end) of the field. It blocks
// on its command channel while idle, executes exactly one task per command,
// and reports completion exactly once per dispatch, even if the field
// computation panics. TaskExit terminates the loop; an exit is only observed
// between tasks, never mid-task.
type worker struct {
	id         int
	start, end int
	field      evo.Field
	cmd        chan Task
	done       chan<- completion
}

func (w *worker) loop(wg *sync.WaitGroup) {
	defer wg.Done()
	for task := range w.cmd {
		if task == TaskExit {
			return
		}
		var delta float64
		w.execute(task, &delta)
		w.done <- completion{worker: w.id, delta: delta}
	}
}

func (w *worker) execute(task Task, delta *float64) {
	defer func() {
		if r := recover(); r != nil {
			logrus.Errorf("pde: worker %d [%d,%d) panicked during %s: %v",
				w.id, w.start, w.end, task, r)
		}
	}()
	switch task {
	case TaskReact:
		*delta = w.field.React(w.start, w.end)
	case TaskDiffuse:
		w.field.Diffuse(w.start, w.end)
	}
}
