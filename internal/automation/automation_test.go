package automation

import (
	"context"
	"io"
	"os"
	"path/filepath"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/san-kum/particlesim/internal/config"
	"github.com/san-kum/particlesim/internal/storage"
)

func quietLogger() *logrus.Entry {
	l := logrus.New()
	l.SetOutput(io.Discard)
	return logrus.NewEntry(l)
}

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
}

func TestLoadScenarioResolvesRelativeConfigs(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "batch.yaml")
	writeFile(t, path, `
name: batch
steps:
  - preset: fountain
    steps: 10
  - config: rain.yaml
`)
	s, err := LoadScenario(path)
	require.NoError(t, err)
	assert.Equal(t, "batch", s.Name)
	require.Len(t, s.Steps, 2)
	assert.Equal(t, filepath.Join(dir, "rain.yaml"), s.Steps[1].Config)
}

func TestLoadScenarioRejectsEmpty(t *testing.T) {
	path := filepath.Join(t.TempDir(), "empty.yaml")
	writeFile(t, path, "name: empty\n")
	_, err := LoadScenario(path)
	assert.Error(t, err)
}

func TestResolveOverrides(t *testing.T) {
	cfg, err := ScenarioStep{Preset: "fountain", Steps: 7, Dt: 0.01, Workers: 2, Seed: 5, BlockSize: 64, SaveAs: "short"}.Resolve()
	require.NoError(t, err)
	assert.Equal(t, 7, cfg.Steps)
	assert.Equal(t, 0.01, cfg.Dt)
	assert.Equal(t, 2, cfg.Workers)
	assert.Equal(t, uint64(5), cfg.Seed)
	assert.Equal(t, 64, cfg.BlockSize)
	assert.Equal(t, "short", cfg.Name)

	_, err = ScenarioStep{Preset: "nope"}.Resolve()
	assert.Error(t, err)
	_, err = ScenarioStep{}.Resolve()
	assert.Error(t, err)
}

func TestResolveConfigFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "smoke.yaml")
	require.NoError(t, config.Save(path, config.GetPreset("smoke")))
	cfg, err := ScenarioStep{Config: path, Steps: 3}.Resolve()
	require.NoError(t, err)
	assert.Equal(t, "smoke", cfg.Name)
	assert.Equal(t, 3, cfg.Steps)
}

func TestRunScenarioSavesRuns(t *testing.T) {
	store := storage.New(t.TempDir())
	require.NoError(t, store.Init())

	s := &Scenario{Name: "batch", Steps: []ScenarioStep{
		{Preset: "fountain", Steps: 10, SaveAs: "first"},
		{Preset: "fireworks", Steps: 5},
	}}
	results, err := RunScenario(context.Background(), s, store, quietLogger())
	require.NoError(t, err)
	require.Len(t, results, 2)
	assert.Equal(t, "first", results[0].Name)
	assert.NotEmpty(t, results[0].RunID)
	assert.Len(t, results[0].Result.Steps, 10)
	assert.Empty(t, results[1].RunID)

	runs, err := store.List()
	require.NoError(t, err)
	require.Len(t, runs, 1)
	assert.Equal(t, results[0].RunID, runs[0].ID)
}

func TestRunScenarioStopsOnFailure(t *testing.T) {
	s := &Scenario{Steps: []ScenarioStep{
		{Preset: "fountain", Steps: 2},
		{Preset: "missing"},
		{Preset: "rain", Steps: 2},
	}}
	results, err := RunScenario(context.Background(), s, nil, quietLogger())
	assert.ErrorContains(t, err, "step 2")
	assert.Len(t, results, 1)
}
