package config_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.trai.ch/prov/internal/core/domain"
)

func writeParams(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func flatten(set *domain.ParameterSet) map[string]any {
	out := make(map[string]any)
	for k, v := range set.Flatten() {
		out[k] = v
	}
	return out
}

func TestLoadParameters_YAMLKeepsOrder(t *testing.T) {
	path := writeParams(t, "params.yaml", `
tstop: 1000
model:
  dt: 0.025
  cells: [1, 2]
  name: pyramidal
seed: 42
`)
	set, err := newLoader(t, nil).LoadParameters(path)
	require.NoError(t, err)

	assert.Equal(t, []string{"tstop", "model", "seed"}, set.Keys())
	model, ok := set.Get("model")
	require.True(t, ok)
	assert.Equal(t, []string{"dt", "cells", "name"}, model.(*domain.ParameterSet).Keys())

	flat := flatten(set)
	assert.Equal(t, int64(1000), flat["tstop"])
	assert.InDelta(t, 0.025, flat["model.dt"], 1e-12)
	assert.Equal(t, "pyramidal", flat["model.name"])
}

func TestLoadParameters_JSON(t *testing.T) {
	path := writeParams(t, "params.json", `{"b": 1, "a": {"y": true, "x": "s"}}`)
	set, err := newLoader(t, nil).LoadParameters(path)
	require.NoError(t, err)
	assert.Equal(t, []string{"b", "a"}, set.Keys())
}

func TestLoadParameters_TOML(t *testing.T) {
	path := writeParams(t, "params.toml", `
tstop = 1000
seed = 7

[model]
dt = 0.025
name = "pyramidal"

[[stimuli]]
amp = 0.5
`)
	set, err := newLoader(t, nil).LoadParameters(path)
	require.NoError(t, err)

	assert.Equal(t, []string{"tstop", "seed", "model", "stimuli"}, set.Keys())
	flat := flatten(set)
	assert.Equal(t, int64(1000), flat["tstop"])
	assert.Equal(t, "pyramidal", flat["model.name"])

	stimuli, ok := set.Get("stimuli")
	require.True(t, ok)
	require.Len(t, stimuli, 1)
}

func TestLoadParameters_Simple(t *testing.T) {
	path := writeParams(t, "default.param", `
# network parameters
n_cells = 100
model.tau = 20.5
label = "fast run"
plastic = True
`)
	set, err := newLoader(t, nil).LoadParameters(path)
	require.NoError(t, err)

	flat := flatten(set)
	assert.Equal(t, int64(100), flat["n_cells"])
	assert.InDelta(t, 20.5, flat["model.tau"], 1e-12)
	assert.Equal(t, "fast run", flat["label"])
	assert.Equal(t, true, flat["plastic"])
}

func TestLoadParameters_Errors(t *testing.T) {
	l := newLoader(t, nil)

	_, err := l.LoadParameters(writeParams(t, "bad.json", `[1, 2]`))
	require.ErrorIs(t, err, domain.ErrParameterParse)

	_, err = l.LoadParameters(writeParams(t, "bad.yaml", "- a\n- b\n"))
	require.ErrorIs(t, err, domain.ErrParameterParse)

	_, err = l.LoadParameters(writeParams(t, "bad.param", "no assignment here\n"))
	require.ErrorIs(t, err, domain.ErrParameterParse)

	_, err = l.LoadParameters(filepath.Join(t.TempDir(), "missing.yaml"))
	require.Error(t, err)
}
