// Package models builds the classifiers the explainer is demonstrated on and
// persists them as .born archives.
//
// Every model is an *nn.Sequential, so it can be split for layer
// attributions:
//
//	model, _ := models.Build(models.Spec{Arch: models.ArchText, Vocab: 100, Dim: 16, Hidden: 16, Classes: 2}, backend)
//	split, _ := model.Split(1) // embedding output
package models

import (
	"errors"
	"fmt"
	"strconv"

	"github.com/born-ml/explain/internal/nn"
	"github.com/born-ml/explain/internal/tensor"
)

// Architectures.
const (
	ArchLeNet = "lenet"
	ArchMLP   = "mlp"
	ArchText  = "text"
)

// ErrUnknownArch is returned for architectures Build does not know.
var ErrUnknownArch = errors.New("unknown model architecture")

// Spec describes a model architecture and its sizes. Fields that an
// architecture does not use are ignored.
type Spec struct {
	Arch    string `yaml:"arch"`
	Rows    int    `yaml:"rows"`    // lenet, mlp: image height
	Cols    int    `yaml:"cols"`    // lenet, mlp: image width
	Hidden  int    `yaml:"hidden"`  // mlp, text: hidden units
	Classes int    `yaml:"classes"` // all
	Vocab   int    `yaml:"vocab"`   // text: vocabulary size
	Dim     int    `yaml:"dim"`     // text: embedding size
}

// Build constructs a freshly initialised model for spec.
func Build[B tensor.Backend](spec Spec, backend B) (*nn.Sequential[B], error) {
	if spec.Classes <= 0 {
		return nil, fmt.Errorf("invalid class count %d", spec.Classes)
	}
	switch spec.Arch {
	case ArchLeNet:
		if spec.Rows < 16 || spec.Cols < 16 {
			return nil, fmt.Errorf("lenet needs images of at least 16x16, got %dx%d", spec.Rows, spec.Cols)
		}
		return NewLeNet(spec.Rows, spec.Cols, spec.Classes, backend), nil
	case ArchMLP:
		if spec.Rows <= 0 || spec.Cols <= 0 || spec.Hidden <= 0 {
			return nil, fmt.Errorf("invalid mlp spec %+v", spec)
		}
		return NewMLP(spec.Rows*spec.Cols, spec.Hidden, spec.Classes, backend), nil
	case ArchText:
		if spec.Vocab <= 0 || spec.Dim <= 0 || spec.Hidden <= 0 {
			return nil, fmt.Errorf("invalid text spec %+v", spec)
		}
		return NewTextClassifier(spec.Vocab, spec.Dim, spec.Hidden, spec.Classes, backend), nil
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownArch, spec.Arch)
	}
}

// NewLeNet builds a LeNet-5 style CNN for [batch, 1, rows, cols] images:
//
//	Conv 1→6 5x5, ReLU, MaxPool 2x2
//	Conv 6→16 5x5, ReLU, MaxPool 2x2
//	Flatten, Linear →120, ReLU, Linear 120→84, ReLU, Linear 84→classes
//
// For 28x28 input the flattened size is 16*4*4 = 256.
func NewLeNet[B tensor.Backend](rows, cols, classes int, backend B) *nn.Sequential[B] {
	conv1 := nn.NewConv2D(1, 6, 5, 1, 0, backend)
	h, w := conv1.OutputSize(rows, cols)
	h, w = h/2, w/2
	conv2 := nn.NewConv2D(6, 16, 5, 1, 0, backend)
	h, w = conv2.OutputSize(h, w)
	h, w = h/2, w/2

	return nn.NewSequential[B](
		conv1,
		nn.NewReLU[B](),
		nn.NewMaxPool2D(2, 2, backend),
		conv2,
		nn.NewReLU[B](),
		nn.NewMaxPool2D(2, 2, backend),
		nn.NewFlatten[B](),
		nn.NewLinear(16*h*w, 120, backend),
		nn.NewReLU[B](),
		nn.NewLinear(120, 84, backend),
		nn.NewReLU[B](),
		nn.NewLinear(84, classes, backend),
	)
}

// NewMLP builds Flatten, Linear(inputs→hidden), ReLU, Linear(hidden→classes).
// It accepts images of any layout with inputs values per sample.
func NewMLP[B tensor.Backend](inputs, hidden, classes int, backend B) *nn.Sequential[B] {
	return nn.NewSequential[B](
		nn.NewFlatten[B](),
		nn.NewLinear(inputs, hidden, backend),
		nn.NewReLU[B](),
		nn.NewLinear(hidden, classes, backend),
	)
}

// NewTextClassifier builds a bag-of-embeddings classifier over padded id
// matrices [batch, seq_len]:
//
//	Embedding(vocab→dim), MeanPool over tokens, Linear(dim→hidden), Tanh,
//	Linear(hidden→classes)
//
// Split(1) exposes the token embeddings for attribution.
func NewTextClassifier[B tensor.Backend](vocab, dim, hidden, classes int, backend B) *nn.Sequential[B] {
	return nn.NewSequential[B](
		nn.NewEmbedding(vocab, dim, backend),
		nn.NewMeanPool[B](1),
		nn.NewLinear(dim, hidden, backend),
		nn.NewTanh[B](),
		nn.NewLinear(hidden, classes, backend),
	)
}

// NumParameters counts the scalar parameters of model.
func NumParameters[B tensor.Backend](model nn.Module[B]) int {
	total := 0
	for _, p := range model.Parameters() {
		total += p.Tensor().NumElements()
	}
	return total
}

func (s Spec) metadata() map[string]string {
	return map[string]string{
		"rows":    strconv.Itoa(s.Rows),
		"cols":    strconv.Itoa(s.Cols),
		"hidden":  strconv.Itoa(s.Hidden),
		"classes": strconv.Itoa(s.Classes),
		"vocab":   strconv.Itoa(s.Vocab),
		"dim":     strconv.Itoa(s.Dim),
	}
}

func specFromMetadata(arch string, meta map[string]string) (Spec, error) {
	s := Spec{Arch: arch}
	fields := map[string]*int{
		"rows": &s.Rows, "cols": &s.Cols, "hidden": &s.Hidden,
		"classes": &s.Classes, "vocab": &s.Vocab, "dim": &s.Dim,
	}
	for key, dst := range fields {
		v, ok := meta[key]
		if !ok {
			continue
		}
		n, err := strconv.Atoi(v)
		if err != nil {
			return Spec{}, fmt.Errorf("metadata %q: %w", key, err)
		}
		*dst = n
	}
	return s, nil
}
