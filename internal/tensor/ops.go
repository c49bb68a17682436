package tensor

import "fmt"

// Add performs element-wise addition with broadcasting.
//
// Example:
//
//	a := tensor.Ones[float32](Shape{3, 1}, backend)
//	b := tensor.Ones[float32](Shape{3, 5}, backend)
//	c := a.Add(b) // Shape: [3, 5]
func (t *Tensor[T, B]) Add(other *Tensor[T, B]) *Tensor[T, B] {
	return New[T, B](t.backend.Add(t.raw, other.raw), t.backend)
}

// Sub performs element-wise subtraction with broadcasting.
func (t *Tensor[T, B]) Sub(other *Tensor[T, B]) *Tensor[T, B] {
	return New[T, B](t.backend.Sub(t.raw, other.raw), t.backend)
}

// Mul performs element-wise multiplication with broadcasting.
func (t *Tensor[T, B]) Mul(other *Tensor[T, B]) *Tensor[T, B] {
	return New[T, B](t.backend.Mul(t.raw, other.raw), t.backend)
}

// Div performs element-wise division with broadcasting.
func (t *Tensor[T, B]) Div(other *Tensor[T, B]) *Tensor[T, B] {
	return New[T, B](t.backend.Div(t.raw, other.raw), t.backend)
}

// MatMul performs 2D matrix multiplication: (M, K) @ (K, N) -> (M, N).
func (t *Tensor[T, B]) MatMul(other *Tensor[T, B]) *Tensor[T, B] {
	return New[T, B](t.backend.MatMul(t.raw, other.raw), t.backend)
}

// Reshape returns a tensor with the same elements in a new shape.
func (t *Tensor[T, B]) Reshape(newShape ...int) *Tensor[T, B] {
	return New[T, B](t.backend.Reshape(t.raw, Shape(newShape)), t.backend)
}

// Transpose permutes dimensions. Without axes the dimensions are reversed.
func (t *Tensor[T, B]) Transpose(axes ...int) *Tensor[T, B] {
	return New[T, B](t.backend.Transpose(t.raw, axes...), t.backend)
}

// T is shorthand for the transpose of a 2D tensor.
func (t *Tensor[T, B]) T() *Tensor[T, B] {
	return t.Transpose()
}

// Expand broadcasts the tensor to shape.
func (t *Tensor[T, B]) Expand(shape Shape) *Tensor[T, B] {
	return New[T, B](t.backend.Expand(t.raw, shape), t.backend)
}

// MulScalar multiplies every element by s.
func (t *Tensor[T, B]) MulScalar(s float64) *Tensor[T, B] {
	return New[T, B](t.backend.MulScalar(t.raw, s), t.backend)
}

// AddScalar adds s to every element.
func (t *Tensor[T, B]) AddScalar(s float64) *Tensor[T, B] {
	return New[T, B](t.backend.AddScalar(t.raw, s), t.backend)
}

// Exp computes e^x element-wise.
func (t *Tensor[T, B]) Exp() *Tensor[T, B] {
	return New[T, B](t.backend.Exp(t.raw), t.backend)
}

// Log computes the natural logarithm element-wise.
func (t *Tensor[T, B]) Log() *Tensor[T, B] {
	return New[T, B](t.backend.Log(t.raw), t.backend)
}

// ReLU computes max(0, x) element-wise.
func (t *Tensor[T, B]) ReLU() *Tensor[T, B] {
	return New[T, B](t.backend.ReLU(t.raw), t.backend)
}

// Sigmoid computes 1/(1+e^-x) element-wise.
func (t *Tensor[T, B]) Sigmoid() *Tensor[T, B] {
	return New[T, B](t.backend.Sigmoid(t.raw), t.backend)
}

// Tanh computes the hyperbolic tangent element-wise.
func (t *Tensor[T, B]) Tanh() *Tensor[T, B] {
	return New[T, B](t.backend.Tanh(t.raw), t.backend)
}

// Softmax normalises along dim. Negative dims count from the end.
func (t *Tensor[T, B]) Softmax(dim int) *Tensor[T, B] {
	return New[T, B](t.backend.Softmax(t.raw, dim), t.backend)
}

// Sum reduces all elements to a scalar tensor.
func (t *Tensor[T, B]) Sum() *Tensor[T, B] {
	return New[T, B](t.backend.Sum(t.raw), t.backend)
}

// SumDim sums along dim.
func (t *Tensor[T, B]) SumDim(dim int, keepDim bool) *Tensor[T, B] {
	return New[T, B](t.backend.SumDim(t.raw, dim, keepDim), t.backend)
}

// MeanDim averages along dim.
func (t *Tensor[T, B]) MeanDim(dim int, keepDim bool) *Tensor[T, B] {
	d := NormalizeDim(dim, len(t.Shape()))
	return t.SumDim(d, keepDim).MulScalar(1 / float64(t.Shape()[d]))
}

// Argmax returns the index of the maximum along dim as int32.
func (t *Tensor[T, B]) Argmax(dim int) *Tensor[int32, B] {
	return New[int32, B](t.backend.Argmax(t.raw, dim), t.backend)
}

// Cast converts t to element type U.
func Cast[U, T DType, B Backend](t *Tensor[T, B]) *Tensor[U, B] {
	return New[U, B](t.backend.Cast(t.raw, DataTypeOf[U]()), t.backend)
}

// NormalizeDim resolves a possibly negative dimension index against ndim.
// Panics when the result is out of range.
func NormalizeDim(dim, ndim int) int {
	if dim < 0 {
		dim += ndim
	}
	if dim < 0 || dim >= ndim {
		panic(fmt.Sprintf("dimension %d out of range for %d dims", dim, ndim))
	}
	return dim
}
