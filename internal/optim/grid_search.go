// Package optim sweeps simulation parameters. A grid search runs one
// experiment per point of the cartesian product of the supplied parameter
// ranges and keeps the point minimizing a chosen metric.
package optim

import (
	"context"
	"fmt"
	"math"

	"github.com/sirupsen/logrus"

	"github.com/evolab/evodyn/internal/config"
	"github.com/evolab/evodyn/internal/experiment"
)

// Point is one evaluated grid point.
type Point struct {
	Params map[string]float64
	Value  float64
}

type GridSearch struct {
	names  []string
	ranges [][]float64
}

func NewGridSearch(names []string, ranges [][]float64) (*GridSearch, error) {
	if len(names) != len(ranges) {
		return nil, fmt.Errorf("optim: %d names for %d ranges", len(names), len(ranges))
	}
	for i, r := range ranges {
		if len(r) == 0 {
			return nil, fmt.Errorf("optim: empty range for %s", names[i])
		}
	}
	return &GridSearch{names: names, ranges: ranges}, nil
}

// Search evaluates metric at every grid point, applying each parameter set
// to a copy of base, and returns all evaluated points plus the minimizer.
// Points whose experiment fails to build or run are skipped with a warning.
func (g *GridSearch) Search(ctx context.Context, base *config.Config, metric string) ([]Point, *Point, error) {
	var points []Point
	if err := g.walk(ctx, 0, make(map[string]float64), base, metric, &points); err != nil {
		return points, nil, err
	}
	if len(points) == 0 {
		return nil, nil, fmt.Errorf("optim: no grid point produced a result")
	}

	best := &points[0]
	for i := range points[1:] {
		if points[i+1].Value < best.Value {
			best = &points[i+1]
		}
	}
	return points, best, nil
}

func (g *GridSearch) walk(ctx context.Context, depth int, current map[string]float64, base *config.Config, metric string, points *[]Point) error {
	if depth == len(g.names) {
		cfg := *base
		for name, val := range current {
			if err := ApplyParam(&cfg, name, val); err != nil {
				return err
			}
		}

		exp, err := experiment.New(&cfg)
		if err != nil {
			logrus.Warnf("optim: skipping %v: %v", current, err)
			return nil
		}
		for _, m := range experiment.DefaultMetrics() {
			exp.AddMetric(m)
		}
		result, err := exp.Run(ctx)
		exp.Close()
		if err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			logrus.Warnf("optim: run failed at %v: %v", current, err)
			return nil
		}

		val, ok := result.Metrics[metric]
		if !ok {
			return fmt.Errorf("optim: unknown metric %q", metric)
		}
		if math.IsNaN(val) {
			logrus.Warnf("optim: metric %s is NaN at %v", metric, current)
			return nil
		}

		params := make(map[string]float64, len(current))
		for k, v := range current {
			params[k] = v
		}
		*points = append(*points, Point{Params: params, Value: val})
		return nil
	}

	for _, val := range g.ranges[depth] {
		current[g.names[depth]] = val
		if err := g.walk(ctx, depth+1, current, base, metric, points); err != nil {
			return err
		}
	}
	delete(current, g.names[depth])
	return nil
}

// ApplyParam maps a sweepable parameter name onto its config field.
func ApplyParam(cfg *config.Config, name string, val float64) error {
	switch name {
	case "mutation":
		cfg.Mutation = val
	case "pop_size":
		cfg.PopSize = val
	case "vacancy":
		cfg.Vacancy = val
	case "dt":
		cfg.Dt = val
	case "diffusion":
		cfg.Field.Diffusion = val
	default:
		return fmt.Errorf("optim: unknown sweep parameter %q", name)
	}
	return nil
}
