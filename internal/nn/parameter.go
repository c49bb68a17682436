package nn

import (
	"github.com/born-ml/explain/internal/tensor"
)

// Parameter is a trainable tensor and its most recent gradient.
//
// Example:
//
//	weight := nn.NewParameter("weight", weightTensor)
//	w := weight.Tensor()
//	grad := weight.Grad() // nil until a backward pass sets it
type Parameter[B tensor.Backend] struct {
	name   string
	tensor *tensor.Tensor[float32, B]
	grad   *tensor.Tensor[float32, B]
}

// NewParameter creates a new trainable parameter.
func NewParameter[B tensor.Backend](name string, t *tensor.Tensor[float32, B]) *Parameter[B] {
	return &Parameter[B]{name: name, tensor: t}
}

// Name returns the parameter name.
func (p *Parameter[B]) Name() string {
	return p.name
}

// Tensor returns the parameter tensor.
func (p *Parameter[B]) Tensor() *tensor.Tensor[float32, B] {
	return p.tensor
}

// Grad returns the gradient tensor, or nil before a backward pass.
func (p *Parameter[B]) Grad() *tensor.Tensor[float32, B] {
	return p.grad
}

// SetGrad sets the gradient tensor.
func (p *Parameter[B]) SetGrad(grad *tensor.Tensor[float32, B]) {
	p.grad = grad
}

// ZeroGrad clears the gradient.
func (p *Parameter[B]) ZeroGrad() {
	p.grad = nil
}

// CollectGrads copies gradients for params out of a gradient map returned by
// a tape. Parameters the output did not depend on get a nil gradient.
func CollectGrads[B tensor.Backend](params []*Parameter[B], grads map[*tensor.RawTensor]*tensor.RawTensor) {
	for _, p := range params {
		g, ok := grads[p.tensor.Raw()]
		if !ok {
			p.grad = nil
			continue
		}
		p.grad = tensor.New[float32, B](g, p.tensor.Backend())
	}
}
