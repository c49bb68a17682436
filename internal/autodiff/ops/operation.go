// Package ops defines the differentiable operations recorded on a gradient
// tape.
//
// Each operation keeps references to the RawTensors it read and produced
// during the forward pass and computes input gradients during the backward
// pass:
//
//	AddOp:    d(a+b)/da = 1, d(a+b)/db = 1
//	MulOp:    d(a*b)/da = b, d(a*b)/db = a
//	MatMulOp: d(A@B)/dA = grad@B^T, d(A@B)/dB = A^T@grad
//	ReLUOp:   d(ReLU(x))/dx = 1 if x > 0, else 0
package ops

import "github.com/born-ml/explain/internal/tensor"

// Operation represents a differentiable operation in the computation graph.
type Operation interface {
	// Backward computes gradients for Inputs given the output gradient.
	// A nil entry means no gradient flows to that input.
	Backward(outputGrad *tensor.RawTensor, backend tensor.Backend) []*tensor.RawTensor

	// Inputs returns the differentiable input tensors.
	Inputs() []*tensor.RawTensor

	// Output returns the tensor produced by this operation.
	Output() *tensor.RawTensor
}
