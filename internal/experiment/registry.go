package experiment

import (
	"fmt"

	"github.com/evolab/evodyn/internal/config"
	"github.com/evolab/evodyn/internal/evo"
	"github.com/evolab/evodyn/internal/integrators"
	"github.com/evolab/evodyn/internal/metrics"
	"github.com/evolab/evodyn/internal/models"
	"github.com/evolab/evodyn/internal/sde"
)

// Observable is a model that also exposes its (mean) state for trajectory
// recording.
type Observable interface {
	evo.Model
	State() evo.State
	Time() float64
	Steps() int
}

type Registry struct {
	integrators map[string]func() evo.Integrator
}

func NewRegistry() *Registry {
	r := &Registry{
		integrators: make(map[string]func() evo.Integrator),
	}
	r.integrators["euler"] = func() evo.Integrator { return integrators.NewEuler() }
	r.integrators["rk4"] = func() evo.Integrator { return integrators.NewRK4() }
	return r
}

func (r *Registry) GetIntegrator(name string) (evo.Integrator, error) {
	fn, ok := r.integrators[name]
	if !ok {
		return nil, fmt.Errorf("unknown integrator: %s", name)
	}
	return fn(), nil
}

func (r *Registry) ListIntegrators() []string {
	names := make([]string, 0, len(r.integrators))
	for name := range r.integrators {
		names = append(names, name)
	}
	return names
}

// BuildModel constructs the configured model. The caller owns teardown for
// models holding worker pools.
func (r *Registry) BuildModel(cfg *config.Config) (Observable, error) {
	dyn, err := models.NewReplicator(cfg.GetPayoff())
	if err != nil {
		return nil, err
	}
	y0 := evo.State(cfg.GetInitState()).Clone()

	switch cfg.Model {
	case "replicator":
		integ, err := r.GetIntegrator(cfg.Integrator)
		if err != nil {
			return nil, err
		}
		return models.NewDeterministic(dyn, integ, y0, cfg.Dt, 1e-16), nil
	case "stochastic":
		m := models.NewStochastic(dyn, y0, cfg.Mutation, cfg.Dt, cfg.PopSize, cfg.Seed)
		m.Generator().SetVacancy(cfg.Vacancy)
		policy, err := parsePolicy(cfg.EigenOnFail)
		if err != nil {
			return nil, err
		}
		m.Generator().SetPolicy(policy)
		return m, nil
	case "field":
		return models.NewRDField(dyn, cfg.Field.Units, cfg.Field.Diffusion, cfg.Dt, cfg.Field.Parallelism, cfg.Seed)
	default:
		return nil, fmt.Errorf("unknown model: %s", cfg.Model)
	}
}

func parsePolicy(name string) (sde.FailurePolicy, error) {
	switch name {
	case "", "warn":
		return sde.WarnContinue, nil
	case "abort":
		return sde.Abort, nil
	case "clamp":
		return sde.ClampToZero, nil
	case "skip":
		return sde.SkipNoise, nil
	default:
		return 0, fmt.Errorf("unknown eigen_on_fail policy: %s", name)
	}
}

// DefaultMetrics returns the standard observables attached to every run.
func DefaultMetrics() []evo.Metric {
	return []evo.Metric{
		metrics.NewConvergence(0.1),
		metrics.NewDiversity(),
		metrics.NewFixation(0.999),
	}
}
