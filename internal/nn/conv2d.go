package nn

import (
	"fmt"

	"github.com/born-ml/explain/internal/tensor"
)

// Conv2D is a 2D convolution layer over NCHW input with a square kernel.
//
// Shapes:
//   - input: [N, C_in, H, W]
//   - weight: [C_out, C_in, K, K]
//   - bias: [C_out]
//   - output: [N, C_out, H_out, W_out]
type Conv2D[B tensor.Backend] struct {
	inChannels  int
	outChannels int
	kernelSize  int
	stride      int
	padding     int
	weight      *Parameter[B]
	bias        *Parameter[B]
	backend     B
}

// NewConv2D creates a Conv2D layer with He-initialised weights and zero bias.
func NewConv2D[B tensor.Backend](inChannels, outChannels, kernelSize, stride, padding int, backend B) *Conv2D[B] {
	if inChannels <= 0 || outChannels <= 0 {
		panic(fmt.Sprintf("conv2d: invalid channels in=%d, out=%d", inChannels, outChannels))
	}
	if kernelSize <= 0 || stride <= 0 || padding < 0 {
		panic(fmt.Sprintf("conv2d: invalid kernel=%d stride=%d padding=%d", kernelSize, stride, padding))
	}

	fanIn := inChannels * kernelSize * kernelSize
	return &Conv2D[B]{
		inChannels:  inChannels,
		outChannels: outChannels,
		kernelSize:  kernelSize,
		stride:      stride,
		padding:     padding,
		weight:      NewParameter("weight", He(fanIn, tensor.Shape{outChannels, inChannels, kernelSize, kernelSize}, backend)),
		bias:        NewParameter("bias", tensor.Zeros[float32](tensor.Shape{outChannels}, backend)),
		backend:     backend,
	}
}

// Forward applies the convolution and adds the per-channel bias.
func (c *Conv2D[B]) Forward(input *tensor.Tensor[float32, B]) *tensor.Tensor[float32, B] {
	shape := input.Shape()
	if len(shape) != 4 {
		panic(fmt.Sprintf("conv2d: expected 4D input [N,C,H,W], got %dD", len(shape)))
	}
	if shape[1] != c.inChannels {
		panic(fmt.Sprintf("conv2d: input channels %d != expected %d", shape[1], c.inChannels))
	}

	out := tensor.New[float32, B](c.backend.Conv2D(input.Raw(), c.weight.Tensor().Raw(), c.stride, c.padding), c.backend)
	return out.Add(c.bias.Tensor().Reshape(1, c.outChannels, 1, 1))
}

// Parameters returns [weight, bias].
func (c *Conv2D[B]) Parameters() []*Parameter[B] {
	return []*Parameter[B]{c.weight, c.bias}
}

// OutputSize returns the spatial output size for an input of h x w.
func (c *Conv2D[B]) OutputSize(h, w int) (int, int) {
	return (h+2*c.padding-c.kernelSize)/c.stride + 1, (w+2*c.padding-c.kernelSize)/c.stride + 1
}

// MaxPool2D is a parameter-free max pooling layer.
type MaxPool2D[B tensor.Backend] struct {
	kernelSize int
	stride     int
	backend    B
}

// NewMaxPool2D creates a MaxPool2D layer.
func NewMaxPool2D[B tensor.Backend](kernelSize, stride int, backend B) *MaxPool2D[B] {
	if kernelSize <= 0 || stride <= 0 {
		panic(fmt.Sprintf("maxpool2d: invalid kernel=%d stride=%d", kernelSize, stride))
	}
	return &MaxPool2D[B]{kernelSize: kernelSize, stride: stride, backend: backend}
}

// Forward applies max pooling.
func (m *MaxPool2D[B]) Forward(input *tensor.Tensor[float32, B]) *tensor.Tensor[float32, B] {
	return tensor.New[float32, B](m.backend.MaxPool2D(input.Raw(), m.kernelSize, m.stride), m.backend)
}

// Parameters returns nil.
func (m *MaxPool2D[B]) Parameters() []*Parameter[B] { return nil }

// Flatten reshapes [N, ...] to [N, prod(...)].
type Flatten[B tensor.Backend] struct{}

// NewFlatten creates a Flatten layer.
func NewFlatten[B tensor.Backend]() *Flatten[B] { return &Flatten[B]{} }

// Forward flattens all but the first dimension.
func (f *Flatten[B]) Forward(input *tensor.Tensor[float32, B]) *tensor.Tensor[float32, B] {
	return input.Reshape(input.Shape()[0], -1)
}

// Parameters returns nil.
func (f *Flatten[B]) Parameters() []*Parameter[B] { return nil }
