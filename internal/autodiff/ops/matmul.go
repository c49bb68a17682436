package ops

import "github.com/born-ml/explain/internal/tensor"

// MatMulOp represents output = A @ B for 2D matrices.
//
// Backward pass:
//   - grad_A = grad @ B^T
//   - grad_B = A^T @ grad
type MatMulOp struct {
	a, b   *tensor.RawTensor
	output *tensor.RawTensor
}

// NewMatMulOp creates a new MatMulOp.
func NewMatMulOp(a, b, output *tensor.RawTensor) *MatMulOp {
	return &MatMulOp{a: a, b: b, output: output}
}

// Backward computes gradients for both operands.
func (op *MatMulOp) Backward(outputGrad *tensor.RawTensor, backend tensor.Backend) []*tensor.RawTensor {
	return []*tensor.RawTensor{
		backend.MatMul(outputGrad, backend.Transpose(op.b)),
		backend.MatMul(backend.Transpose(op.a), outputGrad),
	}
}

// Inputs returns [A, B].
func (op *MatMulOp) Inputs() []*tensor.RawTensor { return []*tensor.RawTensor{op.a, op.b} }

// Output returns A @ B.
func (op *MatMulOp) Output() *tensor.RawTensor { return op.output }
