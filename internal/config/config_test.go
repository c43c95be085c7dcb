package config

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()

	if cfg.Model != "replicator" {
		t.Errorf("expected model replicator, got %s", cfg.Model)
	}
	if cfg.Dt <= 0 {
		t.Error("dt should be positive")
	}
	if err := cfg.Validate(); err != nil {
		t.Errorf("default config must validate: %v", err)
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"zero dt", func(c *Config) { c.Dt = 0 }},
		{"one trait", func(c *Config) { c.Traits = 1 }},
		{"mutation one", func(c *Config) { c.Mutation = 1 }},
		{"negative pop", func(c *Config) { c.PopSize = -5 }},
		{"diffusion above one", func(c *Config) { c.Field.Diffusion = 1.5 }},
		{"payoff shape", func(c *Config) { c.Payoff = [][]float64{{0, 1}} }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tt.mutate(cfg)
			assert.Error(t, cfg.Validate())
		})
	}
}

func TestLoadSaveRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "run.yaml")
	cfg := DefaultConfig()
	cfg.Model = "stochastic"
	cfg.Traits = 4
	cfg.Mutation = 0.05

	require.NoError(t, Save(path, cfg))
	loaded, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "stochastic", loaded.Model)
	assert.Equal(t, 4, loaded.Traits)
	assert.Equal(t, 0.05, loaded.Mutation)
}

func TestGetPreset(t *testing.T) {
	cfg := GetPreset("stochastic", "rps4")
	if cfg == nil {
		t.Fatal("expected preset, got nil")
	}
	if cfg.Traits != 4 {
		t.Errorf("expected 4 traits, got %d", cfg.Traits)
	}

	if GetPreset("stochastic", "nonexistent") != nil {
		t.Error("expected nil for nonexistent preset")
	}
	if GetPreset("nonexistent", "rps4") != nil {
		t.Error("expected nil for nonexistent model")
	}
}

func TestListPresets(t *testing.T) {
	if len(ListPresets("replicator")) == 0 {
		t.Error("expected presets for replicator")
	}
	if ListPresets("nonexistent") != nil {
		t.Error("expected nil for nonexistent model")
	}
}

func TestGetInitStateDefaultsToUniform(t *testing.T) {
	cfg := DefaultConfig()
	y := cfg.GetInitState()
	require.Len(t, y, cfg.Traits)
	sum := 0.0
	for _, v := range y {
		sum += v
	}
	assert.InDelta(t, 1.0, sum, 1e-12)
}

func TestGetPayoffDefaultIsCyclic(t *testing.T) {
	cfg := DefaultConfig()
	a := cfg.GetPayoff()
	require.Len(t, a, 3)
	assert.Equal(t, -1.0, a[0][1])
	assert.Equal(t, 1.0, a[0][2])
	assert.Zero(t, a[0][0])
}
