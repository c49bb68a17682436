package cpu

import (
	"fmt"
	"math"

	"github.com/born-ml/explain/internal/tensor"
)

type binaryOp int

const (
	opAdd binaryOp = iota
	opSub
	opMul
	opDiv
)

func (op binaryOp) String() string {
	return [...]string{"add", "sub", "mul", "div"}[op]
}

func binaryFunc[T tensor.DType](op binaryOp) func(x, y T) T {
	switch op {
	case opAdd:
		return func(x, y T) T { return x + y }
	case opSub:
		return func(x, y T) T { return x - y }
	case opMul:
		return func(x, y T) T { return x * y }
	default:
		return func(x, y T) T { return x / y }
	}
}

// Add performs element-wise addition with NumPy-style broadcasting.
func (cpu *CPUBackend) Add(a, b *tensor.RawTensor) *tensor.RawTensor {
	return cpu.binary(opAdd, a, b)
}

// Sub performs element-wise subtraction with broadcasting.
func (cpu *CPUBackend) Sub(a, b *tensor.RawTensor) *tensor.RawTensor {
	return cpu.binary(opSub, a, b)
}

// Mul performs element-wise multiplication with broadcasting.
func (cpu *CPUBackend) Mul(a, b *tensor.RawTensor) *tensor.RawTensor {
	return cpu.binary(opMul, a, b)
}

// Div performs element-wise division with broadcasting.
func (cpu *CPUBackend) Div(a, b *tensor.RawTensor) *tensor.RawTensor {
	return cpu.binary(opDiv, a, b)
}

func (cpu *CPUBackend) binary(op binaryOp, a, b *tensor.RawTensor) *tensor.RawTensor {
	requireSameDType(op.String(), a, b)

	outShape, needsBroadcast, err := tensor.BroadcastShapes(a.Shape(), b.Shape())
	if err != nil {
		panic(fmt.Sprintf("%s: %v", op, err))
	}
	result := cpu.alloc(op.String(), outShape, a.DType())

	switch a.DType() {
	case tensor.Float32:
		binaryKernel[float32](result, a, b, op, needsBroadcast)
	case tensor.Float64:
		binaryKernel[float64](result, a, b, op, needsBroadcast)
	case tensor.Int32:
		binaryKernel[int32](result, a, b, op, needsBroadcast)
	case tensor.Int64:
		binaryKernel[int64](result, a, b, op, needsBroadcast)
	}
	return result
}

func binaryKernel[T tensor.DType](out, a, b *tensor.RawTensor, op binaryOp, broadcast bool) {
	f := binaryFunc[T](op)
	o, x, y := view[T](out), view[T](a), view[T](b)

	if !broadcast {
		for i := range o {
			o[i] = f(x[i], y[i])
		}
		return
	}

	outShape, aShape, bShape := out.Shape(), a.Shape(), b.Shape()
	for i := range o {
		o[i] = f(x[tensor.BroadcastIndex(i, outShape, aShape)], y[tensor.BroadcastIndex(i, outShape, bShape)])
	}
}

// MulScalar multiplies every element by scalar.
func (cpu *CPUBackend) MulScalar(x *tensor.RawTensor, scalar float64) *tensor.RawTensor {
	return cpu.scalar("mul_scalar", x, scalar, opMul)
}

// AddScalar adds scalar to every element.
func (cpu *CPUBackend) AddScalar(x *tensor.RawTensor, scalar float64) *tensor.RawTensor {
	return cpu.scalar("add_scalar", x, scalar, opAdd)
}

func (cpu *CPUBackend) scalar(name string, x *tensor.RawTensor, s float64, op binaryOp) *tensor.RawTensor {
	result := cpu.alloc(name, x.Shape(), x.DType())
	switch x.DType() {
	case tensor.Float32:
		scalarKernel(view[float32](result), view[float32](x), float32(s), op)
	case tensor.Float64:
		scalarKernel(view[float64](result), view[float64](x), s, op)
	case tensor.Int32:
		scalarKernel(view[int32](result), view[int32](x), int32(s), op)
	case tensor.Int64:
		scalarKernel(view[int64](result), view[int64](x), int64(s), op)
	}
	return result
}

func scalarKernel[T tensor.DType](out, x []T, s T, op binaryOp) {
	f := binaryFunc[T](op)
	for i, v := range x {
		out[i] = f(v, s)
	}
}

// Exp computes e^x element-wise.
func (cpu *CPUBackend) Exp(x *tensor.RawTensor) *tensor.RawTensor {
	return cpu.unary("exp", x, math.Exp)
}

// Log computes the natural logarithm element-wise.
func (cpu *CPUBackend) Log(x *tensor.RawTensor) *tensor.RawTensor {
	return cpu.unary("log", x, math.Log)
}

// ReLU computes max(0, x) element-wise.
func (cpu *CPUBackend) ReLU(x *tensor.RawTensor) *tensor.RawTensor {
	return cpu.unary("relu", x, func(v float64) float64 { return max(v, 0) })
}

// Sigmoid computes 1/(1+e^-x) element-wise.
func (cpu *CPUBackend) Sigmoid(x *tensor.RawTensor) *tensor.RawTensor {
	return cpu.unary("sigmoid", x, sigmoid)
}

// Tanh computes tanh(x) element-wise.
func (cpu *CPUBackend) Tanh(x *tensor.RawTensor) *tensor.RawTensor {
	return cpu.unary("tanh", x, math.Tanh)
}

func sigmoid(v float64) float64 {
	if v >= 0 {
		return 1 / (1 + math.Exp(-v))
	}
	e := math.Exp(v)
	return e / (1 + e)
}

func (cpu *CPUBackend) unary(name string, x *tensor.RawTensor, f func(float64) float64) *tensor.RawTensor {
	requireFloat(name, x)
	result := cpu.alloc(name, x.Shape(), x.DType())
	switch x.DType() {
	case tensor.Float32:
		unaryKernel(view[float32](result), view[float32](x), f)
	case tensor.Float64:
		unaryKernel(view[float64](result), view[float64](x), f)
	}
	return result
}

func unaryKernel[T float32 | float64](out, x []T, f func(float64) float64) {
	for i, v := range x {
		out[i] = T(f(float64(v)))
	}
}
