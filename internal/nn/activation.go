package nn

import "github.com/born-ml/explain/internal/tensor"

// ReLU applies max(0, x).
type ReLU[B tensor.Backend] struct{}

// NewReLU creates a ReLU activation.
func NewReLU[B tensor.Backend]() *ReLU[B] { return &ReLU[B]{} }

// Forward applies ReLU.
func (r *ReLU[B]) Forward(input *tensor.Tensor[float32, B]) *tensor.Tensor[float32, B] {
	return input.ReLU()
}

// Parameters returns nil.
func (r *ReLU[B]) Parameters() []*Parameter[B] { return nil }

// Sigmoid applies 1/(1+e^-x).
type Sigmoid[B tensor.Backend] struct{}

// NewSigmoid creates a Sigmoid activation.
func NewSigmoid[B tensor.Backend]() *Sigmoid[B] { return &Sigmoid[B]{} }

// Forward applies the sigmoid.
func (s *Sigmoid[B]) Forward(input *tensor.Tensor[float32, B]) *tensor.Tensor[float32, B] {
	return input.Sigmoid()
}

// Parameters returns nil.
func (s *Sigmoid[B]) Parameters() []*Parameter[B] { return nil }

// Tanh applies the hyperbolic tangent.
type Tanh[B tensor.Backend] struct{}

// NewTanh creates a Tanh activation.
func NewTanh[B tensor.Backend]() *Tanh[B] { return &Tanh[B]{} }

// Forward applies tanh.
func (t *Tanh[B]) Forward(input *tensor.Tensor[float32, B]) *tensor.Tensor[float32, B] {
	return input.Tanh()
}

// Parameters returns nil.
func (t *Tanh[B]) Parameters() []*Parameter[B] { return nil }

// Softmax normalises along a dimension. Classifiers explained by
// probability rather than logit end with this layer.
type Softmax[B tensor.Backend] struct {
	dim int
}

// NewSoftmax creates a Softmax over dim.
func NewSoftmax[B tensor.Backend](dim int) *Softmax[B] { return &Softmax[B]{dim: dim} }

// Forward applies softmax.
func (s *Softmax[B]) Forward(input *tensor.Tensor[float32, B]) *tensor.Tensor[float32, B] {
	return input.Softmax(s.dim)
}

// Parameters returns nil.
func (s *Softmax[B]) Parameters() []*Parameter[B] { return nil }
