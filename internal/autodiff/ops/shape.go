package ops

import "github.com/born-ml/explain/internal/tensor"

// unaryOp is the common state of single-input operations.
type unaryOp struct {
	input  *tensor.RawTensor
	output *tensor.RawTensor
}

// Inputs returns [x].
func (op *unaryOp) Inputs() []*tensor.RawTensor { return []*tensor.RawTensor{op.input} }

// Output returns the result tensor.
func (op *unaryOp) Output() *tensor.RawTensor { return op.output }

// ReshapeOp changes the shape; its gradient is reshaped back.
type ReshapeOp struct{ unaryOp }

// NewReshapeOp creates a new ReshapeOp.
func NewReshapeOp(input, output *tensor.RawTensor) *ReshapeOp {
	return &ReshapeOp{unaryOp{input, output}}
}

// Backward reshapes the gradient to the input shape.
func (op *ReshapeOp) Backward(outputGrad *tensor.RawTensor, backend tensor.Backend) []*tensor.RawTensor {
	return []*tensor.RawTensor{backend.Reshape(outputGrad, op.input.Shape())}
}

// TransposeOp permutes dimensions; its gradient applies the inverse
// permutation.
type TransposeOp struct {
	unaryOp
	axes []int
}

// NewTransposeOp creates a new TransposeOp. Empty axes mean a full reversal.
func NewTransposeOp(input, output *tensor.RawTensor, axes []int) *TransposeOp {
	ndim := len(input.Shape())
	perm := make([]int, ndim)
	for i := range perm {
		if len(axes) == 0 {
			perm[i] = ndim - 1 - i
		} else {
			perm[i] = tensor.NormalizeDim(axes[i], ndim)
		}
	}
	return &TransposeOp{unaryOp: unaryOp{input, output}, axes: perm}
}

// Backward transposes the gradient with the inverse permutation.
func (op *TransposeOp) Backward(outputGrad *tensor.RawTensor, backend tensor.Backend) []*tensor.RawTensor {
	inverse := make([]int, len(op.axes))
	for i, a := range op.axes {
		inverse[a] = i
	}
	return []*tensor.RawTensor{backend.Transpose(outputGrad, inverse...)}
}

// ExpandOp broadcasts to a larger shape; its gradient sums over the
// broadcast dimensions.
type ExpandOp struct{ unaryOp }

// NewExpandOp creates a new ExpandOp.
func NewExpandOp(input, output *tensor.RawTensor) *ExpandOp {
	return &ExpandOp{unaryOp{input, output}}
}

// Backward reduces the gradient to the input shape.
func (op *ExpandOp) Backward(outputGrad *tensor.RawTensor, backend tensor.Backend) []*tensor.RawTensor {
	return []*tensor.RawTensor{reduceBroadcast(outputGrad, op.input.Shape(), backend)}
}

// CastOp converts between float types. Integer casts are not recorded.
type CastOp struct{ unaryOp }

// NewCastOp creates a new CastOp.
func NewCastOp(input, output *tensor.RawTensor) *CastOp {
	return &CastOp{unaryOp{input, output}}
}

// Backward casts the gradient back to the input dtype.
func (op *CastOp) Backward(outputGrad *tensor.RawTensor, backend tensor.Backend) []*tensor.RawTensor {
	return []*tensor.RawTensor{backend.Cast(outputGrad, op.input.DType())}
}
