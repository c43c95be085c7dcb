package experiment

import (
	"context"

	"github.com/evolab/evodyn/internal/config"
	"github.com/evolab/evodyn/internal/evo"
)

// maxSamples caps how many trajectory points a run records; longer runs are
// thinned evenly.
const maxSamples = 2000

type Experiment struct {
	cfg     *config.Config
	model   Observable
	metrics []evo.Metric
}

func New(cfg *config.Config) (*Experiment, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	model, err := NewRegistry().BuildModel(cfg)
	if err != nil {
		return nil, err
	}
	return &Experiment{cfg: cfg, model: model}, nil
}

func (e *Experiment) AddMetric(m evo.Metric) { e.metrics = append(e.metrics, m) }

func (e *Experiment) Model() Observable { return e.model }

// Run steps the model up to the configured step budget or until it reports
// completion, recording a thinned trajectory and the attached metrics.
func (e *Experiment) Run(ctx context.Context) (*evo.Result, error) {
	for _, m := range e.metrics {
		m.Reset()
	}

	sampleEvery := e.cfg.Steps / maxSamples
	if sampleEvery < 1 {
		sampleEvery = 1
	}

	result := &evo.Result{
		Times:   make([]float64, 0, maxSamples+1),
		States:  make([]evo.State, 0, maxSamples+1),
		Metrics: make(map[string]float64),
	}
	result.Times = append(result.Times, e.model.Time())
	result.States = append(result.States, e.model.State())

	for i := 0; i < e.cfg.Steps; i++ {
		select {
		case <-ctx.Done():
			return result, ctx.Err()
		default:
		}

		cont, err := e.model.AdvanceStep()
		if err != nil {
			return result, err
		}

		y := e.model.State()
		t := e.model.Time()
		for _, m := range e.metrics {
			m.Observe(y, t)
		}
		if (i+1)%sampleEvery == 0 || !cont {
			result.Times = append(result.Times, t)
			result.States = append(result.States, y)
		}
		if !cont {
			break
		}
	}

	result.Steps = e.model.Steps()
	for _, m := range e.metrics {
		result.Metrics[m.Name()] = m.Value()
	}
	return result, nil
}

type closer interface{ Close() }

// Close releases model resources such as worker pools.
func (e *Experiment) Close() {
	if c, ok := e.model.(closer); ok {
		c.Close()
	}
}
