package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

const (
	DefaultDt        = 0.01
	DefaultTraits    = 3
	DefaultUnits     = 10000
	DefaultMutation  = 0.01
	DefaultPopSize   = 1000.0
	DefaultDiffusion = 0.1
	DefaultDelayMs   = 0
)

type Config struct {
	Model       string      `yaml:"model"`
	Integrator  string      `yaml:"integrator"`
	Traits      int         `yaml:"traits"`
	Payoff      [][]float64 `yaml:"payoff"`
	InitState   []float64   `yaml:"init_state"`
	Dt          float64     `yaml:"dt"`
	Steps       int         `yaml:"steps"`
	Seed        int64       `yaml:"seed"`
	Mutation    float64     `yaml:"mutation"`
	PopSize     float64     `yaml:"pop_size"`
	Vacancy     float64     `yaml:"vacancy"`
	Field       FieldConfig `yaml:"field"`
	DelayMs     int         `yaml:"delay_ms"`
	EigenOnFail string      `yaml:"eigen_on_fail"`
}

type FieldConfig struct {
	Units       int     `yaml:"units"`
	Diffusion   float64 `yaml:"diffusion"`
	Parallelism int     `yaml:"parallelism"`
}

func DefaultConfig() *Config {
	return &Config{
		Model:      "replicator",
		Integrator: "rk4",
		Traits:     DefaultTraits,
		Dt:         DefaultDt,
		Steps:      10000,
		Mutation:   DefaultMutation,
		PopSize:    DefaultPopSize,
		Field: FieldConfig{
			Units:     DefaultUnits,
			Diffusion: DefaultDiffusion,
		},
		DelayMs: DefaultDelayMs,
	}
}

func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	cfg := DefaultConfig()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

func Save(path string, cfg *Config) error {
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0644)
}

// Validate checks the cross-field constraints that yaml decoding cannot.
func (c *Config) Validate() error {
	if c.Dt <= 0 {
		return fmt.Errorf("config: dt must be positive, got %g", c.Dt)
	}
	if c.Traits < 2 {
		return fmt.Errorf("config: need at least 2 traits, got %d", c.Traits)
	}
	if c.Mutation < 0 || c.Mutation >= 1 {
		return fmt.Errorf("config: mutation %g outside [0,1)", c.Mutation)
	}
	if c.PopSize <= 0 {
		return fmt.Errorf("config: pop_size must be positive, got %g", c.PopSize)
	}
	if c.Field.Diffusion < 0 || c.Field.Diffusion > 1 {
		return fmt.Errorf("config: diffusion %g outside [0,1]", c.Field.Diffusion)
	}
	if c.Payoff != nil {
		if len(c.Payoff) != c.Traits {
			return fmt.Errorf("config: payoff has %d rows for %d traits", len(c.Payoff), c.Traits)
		}
		for i, row := range c.Payoff {
			if len(row) != c.Traits {
				return fmt.Errorf("config: payoff row %d has %d entries for %d traits", i, len(row), c.Traits)
			}
		}
	}
	return nil
}

// GetInitState returns the configured initial trait frequencies, or the
// uniform distribution when unset.
func (c *Config) GetInitState() []float64 {
	if len(c.InitState) == c.Traits {
		return c.InitState
	}
	y := make([]float64, c.Traits)
	for i := range y {
		y[i] = 1.0 / float64(c.Traits)
	}
	return y
}

// GetPayoff returns the configured payoff matrix, defaulting to a cyclic
// rock-paper-scissors-like game of the right size.
func (c *Config) GetPayoff() [][]float64 {
	if c.Payoff != nil {
		return c.Payoff
	}
	a := make([][]float64, c.Traits)
	for i := range a {
		a[i] = make([]float64, c.Traits)
		a[i][(i+1)%c.Traits] = -1
		a[i][(i+c.Traits-1)%c.Traits] = 1
	}
	return a
}
