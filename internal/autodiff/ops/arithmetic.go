package ops

import "github.com/born-ml/explain/internal/tensor"

// binaryOp holds the operands of an element-wise binary operation.
type binaryOp struct {
	inputs []*tensor.RawTensor // [a, b]
	output *tensor.RawTensor
}

// Inputs returns [a, b].
func (op *binaryOp) Inputs() []*tensor.RawTensor { return op.inputs }

// Output returns the result tensor.
func (op *binaryOp) Output() *tensor.RawTensor { return op.output }

// AddOp represents output = a + b.
type AddOp struct{ binaryOp }

// NewAddOp creates a new AddOp.
func NewAddOp(a, b, output *tensor.RawTensor) *AddOp {
	return &AddOp{binaryOp{[]*tensor.RawTensor{a, b}, output}}
}

// Backward passes the gradient through, reduced over broadcast dimensions.
func (op *AddOp) Backward(outputGrad *tensor.RawTensor, backend tensor.Backend) []*tensor.RawTensor {
	a, b := op.inputs[0], op.inputs[1]
	return []*tensor.RawTensor{
		reduceBroadcast(outputGrad, a.Shape(), backend),
		reduceBroadcast(outputGrad, b.Shape(), backend),
	}
}

// SubOp represents output = a - b.
type SubOp struct{ binaryOp }

// NewSubOp creates a new SubOp.
func NewSubOp(a, b, output *tensor.RawTensor) *SubOp {
	return &SubOp{binaryOp{[]*tensor.RawTensor{a, b}, output}}
}

// Backward: grad_a = grad, grad_b = -grad.
func (op *SubOp) Backward(outputGrad *tensor.RawTensor, backend tensor.Backend) []*tensor.RawTensor {
	a, b := op.inputs[0], op.inputs[1]
	return []*tensor.RawTensor{
		reduceBroadcast(outputGrad, a.Shape(), backend),
		reduceBroadcast(backend.MulScalar(outputGrad, -1), b.Shape(), backend),
	}
}

// MulOp represents output = a * b.
type MulOp struct{ binaryOp }

// NewMulOp creates a new MulOp.
func NewMulOp(a, b, output *tensor.RawTensor) *MulOp {
	return &MulOp{binaryOp{[]*tensor.RawTensor{a, b}, output}}
}

// Backward: grad_a = grad * b, grad_b = grad * a.
func (op *MulOp) Backward(outputGrad *tensor.RawTensor, backend tensor.Backend) []*tensor.RawTensor {
	a, b := op.inputs[0], op.inputs[1]
	return []*tensor.RawTensor{
		reduceBroadcast(backend.Mul(outputGrad, b), a.Shape(), backend),
		reduceBroadcast(backend.Mul(outputGrad, a), b.Shape(), backend),
	}
}

// DivOp represents output = a / b.
type DivOp struct{ binaryOp }

// NewDivOp creates a new DivOp.
func NewDivOp(a, b, output *tensor.RawTensor) *DivOp {
	return &DivOp{binaryOp{[]*tensor.RawTensor{a, b}, output}}
}

// Backward: grad_a = grad / b, grad_b = -grad * a / b^2 = -grad * output / b.
func (op *DivOp) Backward(outputGrad *tensor.RawTensor, backend tensor.Backend) []*tensor.RawTensor {
	a, b := op.inputs[0], op.inputs[1]
	gradA := backend.Div(outputGrad, b)
	gradB := backend.MulScalar(backend.Mul(gradA, op.output), -1)
	return []*tensor.RawTensor{
		reduceBroadcast(gradA, a.Shape(), backend),
		reduceBroadcast(gradB, b.Shape(), backend),
	}
}

// ScalarOp represents output = x*scale + shift for a constant scale and
// shift.
type ScalarOp struct {
	input  *tensor.RawTensor
	output *tensor.RawTensor
	scale  float64
}

// NewMulScalarOp creates the op for output = x * s.
func NewMulScalarOp(input, output *tensor.RawTensor, s float64) *ScalarOp {
	return &ScalarOp{input: input, output: output, scale: s}
}

// NewAddScalarOp creates the op for output = x + s.
func NewAddScalarOp(input, output *tensor.RawTensor) *ScalarOp {
	return &ScalarOp{input: input, output: output, scale: 1}
}

// Backward scales the gradient by the constant factor.
func (op *ScalarOp) Backward(outputGrad *tensor.RawTensor, backend tensor.Backend) []*tensor.RawTensor {
	if op.scale == 1 {
		return []*tensor.RawTensor{outputGrad}
	}
	return []*tensor.RawTensor{backend.MulScalar(outputGrad, op.scale)}
}

// Inputs returns [x].
func (op *ScalarOp) Inputs() []*tensor.RawTensor { return []*tensor.RawTensor{op.input} }

// Output returns the result tensor.
func (op *ScalarOp) Output() *tensor.RawTensor { return op.output }
