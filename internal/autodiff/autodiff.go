// Package autodiff implements reverse-mode automatic differentiation as a
// backend decorator.
//
// AutodiffBackend wraps any tensor.Backend and records one ops.Operation per
// differentiable call on a GradientTape while the tape is recording. Backward
// walks the tape in reverse to produce gradients for every tensor that
// contributed to the output.
//
// Usage:
//
//	backend := autodiff.New(cpu.New())
//	backend.Tape().StartRecording()
//	x := tensor.MustFromSlice([]float32{2}, tensor.Shape{1}, backend)
//	y := x.Mul(x)
//	grads := autodiff.Backward(y, backend)
//	fmt.Println(grads[x.Raw()].AsFloat32()) // [4]
package autodiff

import (
	"fmt"

	"github.com/born-ml/explain/internal/autodiff/ops"
	"github.com/born-ml/explain/internal/tensor"
)

// AutodiffBackend wraps a Backend and adds automatic differentiation.
type AutodiffBackend[B tensor.Backend] struct {
	inner B
	tape  *GradientTape
}

// New creates a new AutodiffBackend wrapping the given backend.
func New[B tensor.Backend](backend B) *AutodiffBackend[B] {
	return &AutodiffBackend[B]{
		inner: backend,
		tape:  NewGradientTape(),
	}
}

// Tape returns the gradient tape.
func (b *AutodiffBackend[B]) Tape() *GradientTape {
	return b.tape
}

// Inner returns the wrapped backend.
func (b *AutodiffBackend[B]) Inner() B {
	return b.inner
}

// Name returns the backend name.
func (b *AutodiffBackend[B]) Name() string {
	return "Autodiff(" + b.inner.Name() + ")"
}

// Device returns the compute device.
func (b *AutodiffBackend[B]) Device() tensor.Device {
	return b.inner.Device()
}

func (b *AutodiffBackend[B]) record(op ops.Operation) {
	if b.tape.IsRecording() {
		b.tape.Record(op)
	}
}

// Add performs element-wise addition and records the operation.
func (b *AutodiffBackend[B]) Add(x, y *tensor.RawTensor) *tensor.RawTensor {
	out := b.inner.Add(x, y)
	b.record(ops.NewAddOp(x, y, out))
	return out
}

// Sub performs element-wise subtraction and records the operation.
func (b *AutodiffBackend[B]) Sub(x, y *tensor.RawTensor) *tensor.RawTensor {
	out := b.inner.Sub(x, y)
	b.record(ops.NewSubOp(x, y, out))
	return out
}

// Mul performs element-wise multiplication and records the operation.
func (b *AutodiffBackend[B]) Mul(x, y *tensor.RawTensor) *tensor.RawTensor {
	out := b.inner.Mul(x, y)
	b.record(ops.NewMulOp(x, y, out))
	return out
}

// Div performs element-wise division and records the operation.
func (b *AutodiffBackend[B]) Div(x, y *tensor.RawTensor) *tensor.RawTensor {
	out := b.inner.Div(x, y)
	b.record(ops.NewDivOp(x, y, out))
	return out
}

// MatMul performs matrix multiplication and records the operation.
func (b *AutodiffBackend[B]) MatMul(x, y *tensor.RawTensor) *tensor.RawTensor {
	out := b.inner.MatMul(x, y)
	b.record(ops.NewMatMulOp(x, y, out))
	return out
}

// Conv2D performs 2D convolution and records the operation.
func (b *AutodiffBackend[B]) Conv2D(input, kernel *tensor.RawTensor, stride, padding int) *tensor.RawTensor {
	out := b.inner.Conv2D(input, kernel, stride, padding)
	b.record(ops.NewConv2DOp(input, kernel, out, stride, padding))
	return out
}

// Conv2DInputBackward is not differentiated further.
func (b *AutodiffBackend[B]) Conv2DInputBackward(input, kernel, grad *tensor.RawTensor, stride, padding int) *tensor.RawTensor {
	return b.inner.Conv2DInputBackward(input, kernel, grad, stride, padding)
}

// Conv2DKernelBackward is not differentiated further.
func (b *AutodiffBackend[B]) Conv2DKernelBackward(input, kernel, grad *tensor.RawTensor, stride, padding int) *tensor.RawTensor {
	return b.inner.Conv2DKernelBackward(input, kernel, grad, stride, padding)
}

// MaxPool2D performs max pooling and records the operation.
func (b *AutodiffBackend[B]) MaxPool2D(input *tensor.RawTensor, kernelSize, stride int) *tensor.RawTensor {
	out := b.inner.MaxPool2D(input, kernelSize, stride)
	b.record(ops.NewMaxPool2DOp(input, out, kernelSize, stride))
	return out
}

// MaxPool2DBackward is not differentiated further.
func (b *AutodiffBackend[B]) MaxPool2DBackward(input, grad *tensor.RawTensor, kernelSize, stride int) *tensor.RawTensor {
	return b.inner.MaxPool2DBackward(input, grad, kernelSize, stride)
}

// Reshape changes the shape and records the operation.
func (b *AutodiffBackend[B]) Reshape(t *tensor.RawTensor, newShape tensor.Shape) *tensor.RawTensor {
	out := b.inner.Reshape(t, newShape)
	b.record(ops.NewReshapeOp(t, out))
	return out
}

// Transpose permutes dimensions and records the operation.
func (b *AutodiffBackend[B]) Transpose(t *tensor.RawTensor, axes ...int) *tensor.RawTensor {
	out := b.inner.Transpose(t, axes...)
	b.record(ops.NewTransposeOp(t, out, axes))
	return out
}

// Expand broadcasts and records the operation.
func (b *AutodiffBackend[B]) Expand(x *tensor.RawTensor, shape tensor.Shape) *tensor.RawTensor {
	out := b.inner.Expand(x, shape)
	b.record(ops.NewExpandOp(x, out))
	return out
}

// MulScalar multiplies by a constant and records the operation.
func (b *AutodiffBackend[B]) MulScalar(x *tensor.RawTensor, scalar float64) *tensor.RawTensor {
	out := b.inner.MulScalar(x, scalar)
	b.record(ops.NewMulScalarOp(x, out, scalar))
	return out
}

// AddScalar adds a constant and records the operation.
func (b *AutodiffBackend[B]) AddScalar(x *tensor.RawTensor, scalar float64) *tensor.RawTensor {
	out := b.inner.AddScalar(x, scalar)
	b.record(ops.NewAddScalarOp(x, out))
	return out
}

// Exp computes e^x and records the operation.
func (b *AutodiffBackend[B]) Exp(x *tensor.RawTensor) *tensor.RawTensor {
	out := b.inner.Exp(x)
	b.record(ops.NewExpOp(x, out))
	return out
}

// Log computes ln(x) and records the operation.
func (b *AutodiffBackend[B]) Log(x *tensor.RawTensor) *tensor.RawTensor {
	out := b.inner.Log(x)
	b.record(ops.NewLogOp(x, out))
	return out
}

// ReLU computes max(0, x) and records the operation.
func (b *AutodiffBackend[B]) ReLU(x *tensor.RawTensor) *tensor.RawTensor {
	out := b.inner.ReLU(x)
	b.record(ops.NewReLUOp(x, out))
	return out
}

// Sigmoid computes the logistic function and records the operation.
func (b *AutodiffBackend[B]) Sigmoid(x *tensor.RawTensor) *tensor.RawTensor {
	out := b.inner.Sigmoid(x)
	b.record(ops.NewSigmoidOp(x, out))
	return out
}

// Tanh computes tanh(x) and records the operation.
func (b *AutodiffBackend[B]) Tanh(x *tensor.RawTensor) *tensor.RawTensor {
	out := b.inner.Tanh(x)
	b.record(ops.NewTanhOp(x, out))
	return out
}

// Softmax normalises along dim and records the operation.
func (b *AutodiffBackend[B]) Softmax(x *tensor.RawTensor, dim int) *tensor.RawTensor {
	out := b.inner.Softmax(x, dim)
	b.record(ops.NewSoftmaxOp(x, out, dim))
	return out
}

// Sum reduces to a scalar and records the operation.
func (b *AutodiffBackend[B]) Sum(x *tensor.RawTensor) *tensor.RawTensor {
	out := b.inner.Sum(x)
	b.record(ops.NewSumOp(x, out))
	return out
}

// SumDim sums along dim and records the operation.
func (b *AutodiffBackend[B]) SumDim(x *tensor.RawTensor, dim int, keepDim bool) *tensor.RawTensor {
	out := b.inner.SumDim(x, dim, keepDim)
	b.record(ops.NewSumDimOp(x, out, dim, keepDim))
	return out
}

// Argmax is not differentiable and is never recorded.
func (b *AutodiffBackend[B]) Argmax(x *tensor.RawTensor, dim int) *tensor.RawTensor {
	return b.inner.Argmax(x, dim)
}

// Embedding gathers rows and records the operation. Only the weight
// receives a gradient.
func (b *AutodiffBackend[B]) Embedding(weight, indices *tensor.RawTensor) *tensor.RawTensor {
	out := b.inner.Embedding(weight, indices)
	if b.tape.IsRecording() {
		b.tape.Record(ops.NewEmbeddingOp(weight, indices.Ints(), out))
	}
	return out
}

// Cast converts dtypes. Only float-to-float casts carry gradients.
func (b *AutodiffBackend[B]) Cast(x *tensor.RawTensor, dtype tensor.DataType) *tensor.RawTensor {
	out := b.inner.Cast(x, dtype)
	if x.DType().IsFloat() && dtype.IsFloat() {
		b.record(ops.NewCastOp(x, out))
	}
	return out
}

// CrossEntropy computes the mean softmax cross-entropy of logits
// [batch, classes] against integer targets and records the fused operation.
func (b *AutodiffBackend[B]) CrossEntropy(logits *tensor.RawTensor, targets []int) *tensor.RawTensor {
	shape := logits.Shape()
	if len(shape) != 2 || shape[0] != len(targets) {
		panic(fmt.Sprintf("cross_entropy: logits %v do not match %d targets", shape, len(targets)))
	}

	loss := ops.CrossEntropyLoss(logits.Float64s(), targets, shape[1])
	out := tensor.MustNewRaw(tensor.Shape{}, logits.DType(), b.Device())
	switch out.DType() {
	case tensor.Float32:
		out.AsFloat32()[0] = float32(loss)
	case tensor.Float64:
		out.AsFloat64()[0] = loss
	default:
		panic(fmt.Sprintf("cross_entropy: unsupported dtype %s", out.DType()))
	}

	b.record(ops.NewCrossEntropyOp(logits, targets, out))
	return out
}
