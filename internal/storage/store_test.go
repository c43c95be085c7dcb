package storage

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/evolab/evodyn/internal/evo"
)

func sampleResult() *evo.Result {
	return &evo.Result{
		Times:  []float64{0, 0.01, 0.02},
		States: []evo.State{{0.5, 0.5}, {0.6, 0.4}, {0.7, 0.3}},
		Metrics: map[string]float64{
			"diversity": 0.61,
			"fixation":  -1,
		},
		Steps: 2,
	}
}

func TestSaveAndLoadRoundTrip(t *testing.T) {
	s := New(t.TempDir())
	require.NoError(t, s.Init())

	runID, err := s.Save("replicator", "rk4", 0.01, 42, sampleResult())
	require.NoError(t, err)
	require.NotEmpty(t, runID)

	meta, err := s.Load(runID)
	require.NoError(t, err)
	assert.Equal(t, "replicator", meta.Model)
	assert.Equal(t, int64(42), meta.Seed)
	assert.Equal(t, 2, meta.Traits)
	assert.Equal(t, 2, meta.Steps)
	assert.InDelta(t, 0.61, meta.Metrics["diversity"], 1e-12)

	states, times, err := s.LoadTrajectory(runID)
	require.NoError(t, err)
	require.Len(t, states, 3)
	require.Len(t, times, 3)
	assert.Equal(t, evo.State{0.6, 0.4}, states[1])
	assert.InDelta(t, 0.01, times[1], 1e-9)
}

func TestListRuns(t *testing.T) {
	s := New(t.TempDir())
	require.NoError(t, s.Init())

	runs, err := s.List()
	require.NoError(t, err)
	assert.Empty(t, runs)

	_, err = s.Save("stochastic", "", 0.01, 1, sampleResult())
	require.NoError(t, err)

	runs, err = s.List()
	require.NoError(t, err)
	assert.Len(t, runs, 1)
	assert.Equal(t, "stochastic", runs[0].Model)
}

func TestListMissingBaseDir(t *testing.T) {
	s := New(filepath.Join(t.TempDir(), "does-not-exist"))
	runs, err := s.List()
	require.NoError(t, err)
	assert.Empty(t, runs)
}

func TestExportJSON(t *testing.T) {
	path := filepath.Join(t.TempDir(), "run.json")
	require.NoError(t, ExportJSON(path, "replicator", "euler", 0.01, sampleResult()))
	assert.FileExists(t, path)
}
