// Copyright 2025 Born ML Framework. All rights reserved.
// Use of this source code is governed by an Apache 2.0
// license that can be found in the LICENSE file.

// Package nn provides neural network modules.
//
// Every module maps a float32 tensor to a float32 tensor and exposes its
// trainable parameters. Sequential models can be split at any module
// boundary, which is how layer attributions reach intermediate activations.
//
// Example:
//
//	model := nn.NewSequential[B](
//	    nn.NewFlatten[B](),
//	    nn.NewLinear(784, 128, backend),
//	    nn.NewReLU[B](),
//	    nn.NewLinear(128, 10, backend),
//	)
//	logits := model.Forward(images)
package nn

import (
	"github.com/born-ml/explain/internal/nn"
	"github.com/born-ml/explain/internal/tensor"
)

// Module is a differentiable function with parameters.
type Module[B tensor.Backend] = nn.Module[B]

// Func adapts a plain function to Module. It has no parameters.
type Func[B tensor.Backend] = nn.Func[B]

// Parameter is a named trainable tensor with its latest gradient.
type Parameter[B tensor.Backend] = nn.Parameter[B]

// NewParameter wraps t as a trainable parameter.
func NewParameter[B tensor.Backend](name string, t *tensor.Tensor[float32, B]) *Parameter[B] {
	return nn.NewParameter(name, t)
}

// CollectGrads stores the gradients of params found in grads.
func CollectGrads[B tensor.Backend](params []*Parameter[B], grads map[*tensor.RawTensor]*tensor.RawTensor) {
	nn.CollectGrads(params, grads)
}

// SetSeed reseeds parameter initialisation.
func SetSeed(seed uint64) { nn.SetSeed(seed) }

// Layers.
type (
	Linear[B tensor.Backend]    = nn.Linear[B]
	Conv2D[B tensor.Backend]    = nn.Conv2D[B]
	MaxPool2D[B tensor.Backend] = nn.MaxPool2D[B]
	Flatten[B tensor.Backend]   = nn.Flatten[B]
	Embedding[B tensor.Backend] = nn.Embedding[B]
	MeanPool[B tensor.Backend]  = nn.MeanPool[B]
)

// NewLinear creates y = xWᵀ + b with Xavier initialised weights.
func NewLinear[B tensor.Backend](inFeatures, outFeatures int, backend B) *Linear[B] {
	return nn.NewLinear(inFeatures, outFeatures, backend)
}

// NewConv2D creates a square-kernel 2D convolution over [N, C, H, W] input.
func NewConv2D[B tensor.Backend](inChannels, outChannels, kernelSize, stride, padding int, backend B) *Conv2D[B] {
	return nn.NewConv2D(inChannels, outChannels, kernelSize, stride, padding, backend)
}

// NewMaxPool2D creates a square max pooling layer.
func NewMaxPool2D[B tensor.Backend](kernelSize, stride int, backend B) *MaxPool2D[B] {
	return nn.NewMaxPool2D(kernelSize, stride, backend)
}

// NewFlatten flattens all but the batch dimension.
func NewFlatten[B tensor.Backend]() *Flatten[B] { return nn.NewFlatten[B]() }

// NewEmbedding maps integer ids (stored as float32) to learned vectors.
func NewEmbedding[B tensor.Backend](numEmbeddings, embeddingDim int, backend B) *Embedding[B] {
	return nn.NewEmbedding(numEmbeddings, embeddingDim, backend)
}

// NewMeanPool averages over dim.
func NewMeanPool[B tensor.Backend](dim int) *MeanPool[B] { return nn.NewMeanPool[B](dim) }

// Activations.
type (
	ReLU[B tensor.Backend]    = nn.ReLU[B]
	Sigmoid[B tensor.Backend] = nn.Sigmoid[B]
	Tanh[B tensor.Backend]    = nn.Tanh[B]
	Softmax[B tensor.Backend] = nn.Softmax[B]
)

// NewReLU creates a ReLU activation.
func NewReLU[B tensor.Backend]() *ReLU[B] { return nn.NewReLU[B]() }

// NewSigmoid creates a sigmoid activation.
func NewSigmoid[B tensor.Backend]() *Sigmoid[B] { return nn.NewSigmoid[B]() }

// NewTanh creates a tanh activation.
func NewTanh[B tensor.Backend]() *Tanh[B] { return nn.NewTanh[B]() }

// NewSoftmax creates a softmax over dim.
func NewSoftmax[B tensor.Backend](dim int) *Softmax[B] { return nn.NewSoftmax[B](dim) }

// Sequential chains modules.
type Sequential[B tensor.Backend] = nn.Sequential[B]

// Split is a model divided at an intermediate activation.
type Split[B tensor.Backend] = nn.Split[B]

// NewSequential chains modules in order.
func NewSequential[B tensor.Backend](modules ...Module[B]) *Sequential[B] {
	return nn.NewSequential(modules...)
}

// Losses.
type (
	CrossEntropyLoss[B tensor.Backend] = nn.CrossEntropyLoss[B]
	MSELoss[B tensor.Backend]          = nn.MSELoss[B]
)

// NewCrossEntropyLoss creates softmax cross-entropy over class logits.
func NewCrossEntropyLoss[B tensor.Backend](backend B) *CrossEntropyLoss[B] {
	return nn.NewCrossEntropyLoss(backend)
}

// NewMSELoss creates mean squared error.
func NewMSELoss[B tensor.Backend]() *MSELoss[B] { return nn.NewMSELoss[B]() }

// Accuracy returns the share of rows whose argmax equals the label.
func Accuracy[B tensor.Backend](logits *tensor.Tensor[float32, B], labels []int) float64 {
	return nn.Accuracy(logits, labels)
}
