package ops

import "github.com/born-ml/explain/internal/tensor"

// ReLUOp represents output = max(0, x).
//
// The gradient is the output gradient masked by x > 0.
type ReLUOp struct{ unaryOp }

// NewReLUOp creates a new ReLUOp.
func NewReLUOp(input, output *tensor.RawTensor) *ReLUOp {
	return &ReLUOp{unaryOp{input, output}}
}

// Backward computes grad * (x > 0).
func (op *ReLUOp) Backward(outputGrad *tensor.RawTensor, backend tensor.Backend) []*tensor.RawTensor {
	mask := mapFloat(op.input, func(v float64) float64 {
		if v > 0 {
			return 1
		}
		return 0
	})
	return []*tensor.RawTensor{backend.Mul(outputGrad, mask)}
}

// SigmoidOp represents output = 1/(1+e^-x); d/dx = y(1-y).
type SigmoidOp struct{ unaryOp }

// NewSigmoidOp creates a new SigmoidOp.
func NewSigmoidOp(input, output *tensor.RawTensor) *SigmoidOp {
	return &SigmoidOp{unaryOp{input, output}}
}

// Backward computes grad * y * (1 - y).
func (op *SigmoidOp) Backward(outputGrad *tensor.RawTensor, backend tensor.Backend) []*tensor.RawTensor {
	local := mapFloat(op.output, func(y float64) float64 { return y * (1 - y) })
	return []*tensor.RawTensor{backend.Mul(outputGrad, local)}
}

// TanhOp represents output = tanh(x); d/dx = 1 - y^2.
type TanhOp struct{ unaryOp }

// NewTanhOp creates a new TanhOp.
func NewTanhOp(input, output *tensor.RawTensor) *TanhOp {
	return &TanhOp{unaryOp{input, output}}
}

// Backward computes grad * (1 - y^2).
func (op *TanhOp) Backward(outputGrad *tensor.RawTensor, backend tensor.Backend) []*tensor.RawTensor {
	local := mapFloat(op.output, func(y float64) float64 { return 1 - y*y })
	return []*tensor.RawTensor{backend.Mul(outputGrad, local)}
}

// ExpOp represents output = e^x; d/dx = e^x.
type ExpOp struct{ unaryOp }

// NewExpOp creates a new ExpOp.
func NewExpOp(input, output *tensor.RawTensor) *ExpOp {
	return &ExpOp{unaryOp{input, output}}
}

// Backward computes grad * e^x.
func (op *ExpOp) Backward(outputGrad *tensor.RawTensor, backend tensor.Backend) []*tensor.RawTensor {
	return []*tensor.RawTensor{backend.Mul(outputGrad, op.output)}
}

// LogOp represents output = ln(x); d/dx = 1/x.
type LogOp struct{ unaryOp }

// NewLogOp creates a new LogOp.
func NewLogOp(input, output *tensor.RawTensor) *LogOp {
	return &LogOp{unaryOp{input, output}}
}

// Backward computes grad / x.
func (op *LogOp) Backward(outputGrad *tensor.RawTensor, backend tensor.Backend) []*tensor.RawTensor {
	return []*tensor.RawTensor{backend.Div(outputGrad, op.input)}
}

// SoftmaxOp represents softmax along one dimension.
//
// Backward:
//
//	∂L/∂x = y * (∂L/∂y - Σ_dim(∂L/∂y * y))
type SoftmaxOp struct {
	unaryOp
	dim int
}

// NewSoftmaxOp creates a new SoftmaxOp.
func NewSoftmaxOp(input, output *tensor.RawTensor, dim int) *SoftmaxOp {
	return &SoftmaxOp{unaryOp: unaryOp{input, output}, dim: tensor.NormalizeDim(dim, len(input.Shape()))}
}

// Backward applies the softmax Jacobian-vector product.
func (op *SoftmaxOp) Backward(outputGrad *tensor.RawTensor, backend tensor.Backend) []*tensor.RawTensor {
	dot := backend.SumDim(backend.Mul(outputGrad, op.output), op.dim, true)
	return []*tensor.RawTensor{backend.Mul(op.output, backend.Sub(outputGrad, dot))}
}
