package config

var Presets = map[string]map[string]*Config{
	"replicator": {
		"rps": {
			Model: "replicator", Integrator: "rk4", Traits: 3, Dt: 0.01, Steps: 50000,
			PopSize: DefaultPopSize,
		},
		"dominance": {
			Model: "replicator", Integrator: "rk4", Traits: 2, Dt: 0.01, Steps: 20000,
			PopSize:   DefaultPopSize,
			Payoff:    [][]float64{{1, 1}, {0, 0}},
			InitState: []float64{0.1, 0.9},
		},
		"coexistence": {
			Model: "replicator", Integrator: "rk4", Traits: 2, Dt: 0.01, Steps: 20000,
			PopSize: DefaultPopSize,
			Payoff:  [][]float64{{0, 2}, {1, 0}},
		},
	},
	"stochastic": {
		"drift": {
			Model: "stochastic", Traits: 2, Dt: 0.01, Steps: 100000,
			Mutation: 0, PopSize: 100,
			Payoff: [][]float64{{0, 0}, {0, 0}},
		},
		"rps4": {
			Model: "stochastic", Traits: 4, Dt: 0.01, Steps: 100000,
			Mutation: 0.01, PopSize: 1000,
			Payoff: [][]float64{
				{0, 1, -1, 0.5},
				{-1, 0, 1, 0.5},
				{1, -1, 0, 0.5},
				{-0.5, -0.5, -0.5, 0},
			},
			InitState: []float64{0.4, 0.3, 0.2, 0.1},
		},
	},
	"field": {
		"small": {
			Model: "field", Traits: 3, Dt: 0.05, Steps: 5000,
			PopSize: DefaultPopSize,
			Field:   FieldConfig{Units: 2000, Diffusion: 0.2},
		},
		"large": {
			Model: "field", Traits: 3, Dt: 0.05, Steps: 5000,
			PopSize: DefaultPopSize,
			Field:   FieldConfig{Units: 100000, Diffusion: 0.1},
		},
	},
}

// GetPreset returns a copy of the named preset, so callers may layer their
// own overrides on top without dirtying the shared table.
func GetPreset(model, preset string) *Config {
	modelPresets, ok := Presets[model]
	if !ok {
		return nil
	}
	cfg, ok := modelPresets[preset]
	if !ok {
		return nil
	}
	c := *cfg
	return &c
}

func ListPresets(model string) []string {
	modelPresets, ok := Presets[model]
	if !ok {
		return nil
	}
	names := make([]string, 0, len(modelPresets))
	for name := range modelPresets {
		names = append(names, name)
	}
	return names
}
