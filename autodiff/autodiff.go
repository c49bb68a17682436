// Copyright 2025 Born ML Framework. All rights reserved.
// Use of this source code is governed by an Apache 2.0
// license that can be found in the LICENSE file.

// Package autodiff provides reverse-mode automatic differentiation.
//
// Backend wraps any tensor backend and records differentiable operations on
// a gradient tape while recording is on.
//
// Example:
//
//	backend := autodiff.New(cpu.New())
//	backend.Tape().StartRecording()
//	x := tensor.MustFromSlice([]float32{1, 2, 3}, tensor.Shape{3}, backend)
//	y := x.Mul(x).Sum()
//	grads := autodiff.Backward(y, backend)
//	dx := autodiff.Grad(grads, x) // 2x
package autodiff

import (
	"github.com/born-ml/explain/internal/autodiff"
	"github.com/born-ml/explain/internal/tensor"
)

// Backend is the autodiff-enabled backend.
type Backend[B tensor.Backend] = autodiff.AutodiffBackend[B]

// New creates a new autodiff backend wrapping the given backend.
func New[B tensor.Backend](backend B) *Backend[B] {
	return autodiff.New(backend)
}

// GradientTape records operations for automatic differentiation.
type GradientTape = autodiff.GradientTape

// NewGradientTape creates a new gradient tape.
func NewGradientTape() *GradientTape {
	return autodiff.NewGradientTape()
}

// BackwardCapable interface for backends that support backpropagation.
type BackwardCapable = autodiff.BackwardCapable

// Backward computes gradients of a scalar t via backpropagation.
func Backward[T tensor.DType, B BackwardCapable](t *tensor.Tensor[T, B], backend B) map[*tensor.RawTensor]*tensor.RawTensor {
	return autodiff.Backward(t, backend)
}

// BackwardWithSeed backpropagates seed, shaped like t.
func BackwardWithSeed[T tensor.DType, B BackwardCapable](t, seed *tensor.Tensor[T, B], backend B) map[*tensor.RawTensor]*tensor.RawTensor {
	return autodiff.BackwardWithSeed(t, seed, backend)
}

// Grad returns the gradient of x in grads, or nil if x did not contribute.
func Grad[T tensor.DType, B tensor.Backend](grads map[*tensor.RawTensor]*tensor.RawTensor, x *tensor.Tensor[T, B]) *tensor.Tensor[T, B] {
	return autodiff.Grad(grads, x)
}
