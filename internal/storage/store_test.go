package storage

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/san-kum/isingsim/internal/config"
	"github.com/san-kum/isingsim/internal/measurement"
)

func testRun() (*config.Config, *measurement.Result) {
	cfg := config.DefaultConfig()
	cfg.Size = 2
	cfg.Seed = 42
	cfg.Temperatures = []float64{2.5, 1.5}
	cfg.Outputs = config.Outputs{Spins: true, Energy: true, Magnetization: true}

	result := &measurement.Result{
		Size: 2,
		Points: []measurement.Point{
			{Step: 0, Sweeps: 20, Temperature: 2.5, Energy: -4, Magnetization: 0.5, Acceptance: 0.25},
			{Step: 1, Sweeps: 21, Temperature: 1.5, Energy: -8, Magnetization: 1, Acceptance: 0.125},
		},
		Spins: [][]bool{
			{true, true, false, true},
			{true, true, true, true},
		},
		Metrics: map[string]float64{"energy": -1.5},
	}
	return cfg, result
}

func TestStoreSaveLoad(t *testing.T) {
	st := New(t.TempDir())
	require.NoError(t, st.Init())

	cfg, result := testRun()
	runID, err := st.Save(cfg, result)
	require.NoError(t, err)
	require.NotEmpty(t, runID)

	meta, err := st.Load(runID)
	require.NoError(t, err)
	assert.Equal(t, 2, meta.Size)
	assert.Equal(t, int64(42), meta.Seed)
	assert.Equal(t, 2, meta.Measurements)
	assert.Equal(t, -1.5, meta.Metrics["energy"])
	assert.True(t, meta.Outputs.Spins)

	points, err := st.LoadPoints(runID)
	require.NoError(t, err)
	assert.Equal(t, result.Points, points)

	energies, err := st.LoadSeries(runID, EnergiesFile)
	require.NoError(t, err)
	assert.Equal(t, []float64{-4, -8}, energies)

	mags, err := st.LoadSeries(runID, MagnetizationFile)
	require.NoError(t, err)
	assert.Equal(t, []float64{0.5, 1}, mags)

	spins, err := st.LoadSpins(runID)
	require.NoError(t, err)
	assert.Equal(t, result.Spins, spins)
}

func TestStoreFileFormats(t *testing.T) {
	dir := t.TempDir()
	st := New(dir)
	require.NoError(t, st.Init())

	cfg, result := testRun()
	runID, err := st.Save(cfg, result)
	require.NoError(t, err)

	raw, err := os.ReadFile(filepath.Join(dir, runID, SpinsFile))
	require.NoError(t, err)
	assert.Equal(t, []byte{1, 1, 0, 1, 1, 1, 1, 1}, raw)

	text, err := os.ReadFile(filepath.Join(dir, runID, EnergiesFile))
	require.NoError(t, err)
	assert.Equal(t, "-4\n-8\n", string(text))

	_, err = os.Stat(filepath.Join(dir, runID, "metadata.json"))
	assert.NoError(t, err)
	_, err = os.Stat(filepath.Join(dir, runID, "states.csv"))
	assert.NoError(t, err)
}

func TestStoreSkipsUnselectedOutputs(t *testing.T) {
	dir := t.TempDir()
	st := New(dir)
	require.NoError(t, st.Init())

	cfg, result := testRun()
	cfg.Outputs = config.Outputs{Energy: true}
	runID, err := st.Save(cfg, result)
	require.NoError(t, err)

	_, err = os.Stat(filepath.Join(dir, runID, MagnetizationFile))
	assert.True(t, os.IsNotExist(err))

	_, err = st.LoadSpins(runID)
	assert.ErrorIs(t, err, ErrNoSpins)
}

func TestStoreList(t *testing.T) {
	st := New(t.TempDir())
	require.NoError(t, st.Init())

	runs, err := st.List()
	require.NoError(t, err)
	assert.Empty(t, runs)

	cfg, result := testRun()
	_, err = st.Save(cfg, result)
	require.NoError(t, err)

	runs, err = st.List()
	require.NoError(t, err)
	assert.Len(t, runs, 1)
}

func TestStoreList_MissingDir(t *testing.T) {
	st := New(filepath.Join(t.TempDir(), "missing"))
	runs, err := st.List()
	require.NoError(t, err)
	assert.Empty(t, runs)
}

func TestExportJSON(t *testing.T) {
	st := New(t.TempDir())
	require.NoError(t, st.Init())

	cfg, result := testRun()
	runID, err := st.Save(cfg, result)
	require.NoError(t, err)
	meta, err := st.Load(runID)
	require.NoError(t, err)

	var buf bytes.Buffer
	require.NoError(t, ExportJSON(&buf, meta, result.Points))

	var decoded map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &decoded))
	assert.Equal(t, runID, decoded["id"])
	assert.Len(t, decoded["points"], 2)
}
