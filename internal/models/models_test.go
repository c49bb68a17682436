package models

import (
	"bytes"
	"log/slog"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/born-ml/explain/internal/autodiff"
	"github.com/born-ml/explain/internal/backend/cpu"
	"github.com/born-ml/explain/internal/datasets/digits"
	"github.com/born-ml/explain/internal/nn"
	"github.com/born-ml/explain/internal/serialization"
	"github.com/born-ml/explain/internal/tensor"
)

type backendT = *autodiff.AutodiffBackend[*cpu.CPUBackend]

func TestBuild(t *testing.T) {
	b := autodiff.New(cpu.New())

	lenet, err := Build(Spec{Arch: ArchLeNet, Rows: 28, Cols: 28, Classes: 10}, b)
	require.NoError(t, err)
	assert.Equal(t, 44426, NumParameters[backendT](lenet))
	out := lenet.Forward(tensor.Zeros[float32](tensor.Shape{2, 1, 28, 28}, b))
	assert.Equal(t, tensor.Shape{2, 10}, out.Shape())

	mlp, err := Build(Spec{Arch: ArchMLP, Rows: 28, Cols: 28, Hidden: 32, Classes: 10}, b)
	require.NoError(t, err)
	assert.Equal(t, 25450, NumParameters[backendT](mlp))

	text, err := Build(Spec{Arch: ArchText, Vocab: 20, Dim: 8, Hidden: 6, Classes: 2}, b)
	require.NoError(t, err)
	ids := tensor.MustFromSlice([]float32{1, 2, 0, 5, 19, 3}, tensor.Shape{2, 3}, b)
	assert.Equal(t, tensor.Shape{2, 2}, text.Forward(ids).Shape())

	split, err := text.Split(1)
	require.NoError(t, err)
	assert.Equal(t, tensor.Shape{2, 3, 8}, split.Head.Forward(ids).Shape())

	for _, bad := range []Spec{
		{Arch: "resnet", Classes: 10},
		{Arch: ArchLeNet, Rows: 8, Cols: 8, Classes: 10},
		{Arch: ArchMLP, Rows: 28, Cols: 28, Classes: 10},
		{Arch: ArchText, Vocab: 10, Classes: 2},
		{Arch: ArchMLP, Rows: 28, Cols: 28, Hidden: 4},
	} {
		_, err := Build(bad, b)
		assert.Error(t, err, "%+v", bad)
	}
	_, err = Build(Spec{Arch: "resnet", Classes: 1}, b)
	assert.ErrorIs(t, err, ErrUnknownArch)
}

func TestTrainReducesLoss(t *testing.T) {
	b := autodiff.New(cpu.New())
	nn.SetSeed(1)

	data := digits.Synthetic(120, 5)
	trainSet, valSet := data.Split(0.25)
	train, err := DigitBatches(trainSet, 15, nil, b)
	require.NoError(t, err)
	val, err := DigitBatches(valSet, 30, nil, b)
	require.NoError(t, err)

	var logs bytes.Buffer
	model := NewMLP(28*28, 32, digits.NumClasses, b)
	history, err := Train(model, train, val, TrainConfig{
		Epochs: 8,
		LR:     0.01,
		Logger: slog.New(slog.NewTextHandler(&logs, nil)),
	}, b)
	require.NoError(t, err)
	require.Len(t, history, 8)

	first, last := history[0], history[len(history)-1]
	assert.Less(t, last.Loss, first.Loss)
	assert.Greater(t, last.Accuracy, 0.5)
	assert.Greater(t, last.ValAccuracy, 0.2)
	assert.Contains(t, logs.String(), "epoch=8")
	assert.False(t, b.Tape().IsRecording())

	_, err = Train(model, nil, nil, TrainConfig{}, b)
	assert.Error(t, err)
}

func TestSaveLoad(t *testing.T) {
	b := autodiff.New(cpu.New())
	spec := Spec{Arch: ArchText, Vocab: 12, Dim: 4, Hidden: 5, Classes: 3}
	model, err := Build(spec, b)
	require.NoError(t, err)

	path := filepath.Join(t.TempDir(), "text.born")
	require.NoError(t, Save(path, spec, model))

	loaded, gotSpec, err := Load(path, b)
	require.NoError(t, err)
	assert.Equal(t, spec, gotSpec)

	ids := tensor.MustFromSlice([]float32{1, 2, 3, 11, 0, 0}, tensor.Shape{2, 3}, b)
	assert.Equal(t, model.Forward(ids).Data(), loaded.Forward(ids).Data())
	assert.Equal(t, Predict[backendT](model, ids, b), Predict[backendT](loaded, ids, b))

	// A state dict that does not fit the architecture in the header.
	other := filepath.Join(t.TempDir(), "bad.born")
	require.NoError(t, serialization.WriteFile(other, model.StateDict(), ArchMLP, map[string]string{
		"rows": "2", "cols": "2", "hidden": "3", "classes": "3",
	}))
	_, _, err = Load(other, b)
	assert.Error(t, err)

	_, _, err = Load(filepath.Join(t.TempDir(), "missing.born"), b)
	assert.Error(t, err)
}
