package ops

import "github.com/born-ml/explain/internal/tensor"

// SumOp reduces all elements to a scalar; the gradient is broadcast back.
type SumOp struct{ unaryOp }

// NewSumOp creates a new SumOp.
func NewSumOp(input, output *tensor.RawTensor) *SumOp {
	return &SumOp{unaryOp{input, output}}
}

// Backward expands the scalar gradient to the input shape.
func (op *SumOp) Backward(outputGrad *tensor.RawTensor, backend tensor.Backend) []*tensor.RawTensor {
	return []*tensor.RawTensor{backend.Expand(outputGrad, op.input.Shape())}
}

// SumDimOp sums along one dimension.
type SumDimOp struct {
	unaryOp
	dim     int
	keepDim bool
}

// NewSumDimOp creates a new SumDimOp.
func NewSumDimOp(input, output *tensor.RawTensor, dim int, keepDim bool) *SumDimOp {
	return &SumDimOp{unaryOp: unaryOp{input, output}, dim: tensor.NormalizeDim(dim, len(input.Shape())), keepDim: keepDim}
}

// Backward re-inserts the reduced dimension and expands along it.
func (op *SumDimOp) Backward(outputGrad *tensor.RawTensor, backend tensor.Backend) []*tensor.RawTensor {
	grad := outputGrad
	if !op.keepDim {
		kept := op.input.Shape().Clone()
		kept[op.dim] = 1
		grad = backend.Reshape(grad, kept)
	}
	return []*tensor.RawTensor{backend.Expand(grad, op.input.Shape())}
}
