package nn

import (
	"fmt"

	"github.com/born-ml/explain/internal/tensor"
)

// Linear is a fully connected layer: y = x @ W^T + b.
//
// Shapes:
//   - input: [batch_size, in_features]
//   - weight: [out_features, in_features]
//   - bias: [out_features]
//   - output: [batch_size, out_features]
type Linear[B tensor.Backend] struct {
	inFeatures  int
	outFeatures int
	weight      *Parameter[B]
	bias        *Parameter[B]
}

// NewLinear creates a Linear layer with Xavier-initialised weights and zero
// bias.
func NewLinear[B tensor.Backend](inFeatures, outFeatures int, backend B) *Linear[B] {
	if inFeatures <= 0 || outFeatures <= 0 {
		panic(fmt.Sprintf("linear: invalid features in=%d, out=%d", inFeatures, outFeatures))
	}
	return &Linear[B]{
		inFeatures:  inFeatures,
		outFeatures: outFeatures,
		weight:      NewParameter("weight", Xavier(inFeatures, outFeatures, tensor.Shape{outFeatures, inFeatures}, backend)),
		bias:        NewParameter("bias", tensor.Zeros[float32](tensor.Shape{outFeatures}, backend)),
	}
}

// Forward computes x @ W^T + b.
func (l *Linear[B]) Forward(input *tensor.Tensor[float32, B]) *tensor.Tensor[float32, B] {
	shape := input.Shape()
	if len(shape) != 2 || shape[1] != l.inFeatures {
		panic(fmt.Sprintf("linear: expected input [batch, %d], got %v", l.inFeatures, shape))
	}
	return input.MatMul(l.weight.Tensor().T()).Add(l.bias.Tensor())
}

// Parameters returns [weight, bias].
func (l *Linear[B]) Parameters() []*Parameter[B] {
	return []*Parameter[B]{l.weight, l.bias}
}

// Weight returns the weight parameter.
func (l *Linear[B]) Weight() *Parameter[B] { return l.weight }

// Bias returns the bias parameter.
func (l *Linear[B]) Bias() *Parameter[B] { return l.bias }

// InFeatures returns the input dimension.
func (l *Linear[B]) InFeatures() int { return l.inFeatures }

// OutFeatures returns the output dimension.
func (l *Linear[B]) OutFeatures() int { return l.outFeatures }
