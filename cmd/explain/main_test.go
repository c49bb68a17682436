package main

import (
	"bytes"
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/born-ml/explain/internal/explain"
)

const testConfig = `
model:
  arch: mlp
  hidden: 16
data:
  source: synthetic
  samples: 60
  validation: 0.2
train:
  epochs: 2
  batch_size: 16
  lr: 0.01
explain:
  method: gausslegendre
  n_steps: 8
  instances: 2
log:
  level: error
`

func setup(t *testing.T) (dir, cfgPath string) {
	t.Helper()
	prev := slog.Default()
	t.Cleanup(func() { slog.SetDefault(prev) })

	dir = t.TempDir()
	cfgPath = filepath.Join(dir, "run.yaml")
	require.NoError(t, os.WriteFile(cfgPath, []byte(testConfig), 0o600))
	return dir, cfgPath
}

func TestRun_Commands(t *testing.T) {
	var out bytes.Buffer
	require.NoError(t, run([]string{"version"}, &out))
	assert.Contains(t, out.String(), explain.Version)

	out.Reset()
	require.NoError(t, run(nil, &out))
	assert.Contains(t, out.String(), "attribute")

	out.Reset()
	require.NoError(t, run([]string{"info"}, &out))
	assert.Contains(t, out.String(), "gausslegendre")
	assert.Contains(t, out.String(), "Autodiff(")

	assert.ErrorContains(t, run([]string{"serve"}, &out), "unknown command")
	assert.ErrorContains(t, run([]string{"attribute"}, &out), "-model is required")
	assert.ErrorContains(t, run([]string{"show"}, &out), "-in is required")
}

func TestTrainAttributeShow(t *testing.T) {
	dir, cfgPath := setup(t)
	modelPath := filepath.Join(dir, "model.born")
	expPath := filepath.Join(dir, "exp.json")

	var out bytes.Buffer
	require.NoError(t, run([]string{"train", "-config", cfgPath, "-out", modelPath}, &out))
	assert.Contains(t, out.String(), "model mlp")
	assert.Contains(t, out.String(), "saved "+modelPath)

	out.Reset()
	require.NoError(t, run([]string{"attribute", "-config", cfgPath, "-model", modelPath, "-out", expPath}, &out))
	text := out.String()
	assert.Contains(t, text, "method=gausslegendre n_steps=8 instances=2")
	assert.Contains(t, text, "[1] target=")
	assert.Contains(t, text, "delta=")

	exp, err := readExplanation(expPath)
	require.NoError(t, err)
	assert.Equal(t, 2, exp.Len())
	assert.Equal(t, []int{2, 1, 28, 28}, exp.Data.Attributions.Shape)

	out.Reset()
	require.NoError(t, run([]string{"show", "-in", expPath}, &out))
	assert.Contains(t, out.String(), "[0] target=")
	assert.NotContains(t, out.String(), "label=")
}

func TestAttribute_LayerAndTarget(t *testing.T) {
	dir, cfgPath := setup(t)
	modelPath := filepath.Join(dir, "model.born")
	expPath := filepath.Join(dir, "exp.born")

	var out bytes.Buffer
	require.NoError(t, run([]string{"train", "-config", cfgPath, "-out", modelPath, "-epochs", "1"}, &out))

	out.Reset()
	args := []string{"attribute", "-config", cfgPath, "-model", modelPath, "-layer", "2", "-target", "3", "-out", expPath}
	require.NoError(t, run(args, &out))
	assert.Contains(t, out.String(), "layer=2")
	assert.Contains(t, out.String(), "feature ")

	exp, err := readExplanation(expPath)
	require.NoError(t, err)
	assert.Equal(t, []int{3, 3}, exp.Data.Target)
	assert.Equal(t, []int{2, 16}, exp.Data.Attributions.Shape)
}

func TestAttribute_Errors(t *testing.T) {
	dir, cfgPath := setup(t)
	var out bytes.Buffer

	err := run([]string{"attribute", "-config", cfgPath, "-model", filepath.Join(dir, "missing.born")}, &out)
	assert.Error(t, err)

	err = run([]string{"train", "-config", cfgPath, "-method", "simpson"}, &out)
	assert.ErrorContains(t, err, "invalid config")

	truncated := filepath.Join(dir, "truncated.json")
	require.NoError(t, os.WriteFile(truncated, []byte(`{"data":{"attributions":{"shape":[2,3],"values":[1,2,3,4,5,6]}}}`), 0o600))
	err = run([]string{"show", "-in", truncated}, &out)
	assert.ErrorIs(t, err, explain.ErrBadExplanation)
}

func TestPlaneAndCollapse(t *testing.T) {
	h, w, ok := plane([]int{4, 3, 2, 5})
	assert.True(t, ok)
	assert.Equal(t, 2, h)
	assert.Equal(t, 5, w)

	_, _, ok = plane([]int{4, 10})
	assert.False(t, ok)

	assert.Equal(t, []float64{4, 6}, collapse([]float64{1, 2, 3, 4}, 2))
}
