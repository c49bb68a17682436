package tensor

import "math/rand/v2"

// Zeros creates a tensor filled with zeros.
//
// Example:
//
//	t := tensor.Zeros[float32](tensor.Shape{3, 4}, backend)
func Zeros[T DType, B Backend](shape Shape, b B) *Tensor[T, B] {
	raw, err := NewRaw(shape, DataTypeOf[T](), b.Device())
	if err != nil {
		panic(err)
	}
	return New[T, B](raw, b)
}

// Ones creates a tensor filled with ones.
func Ones[T DType, B Backend](shape Shape, b B) *Tensor[T, B] {
	return Full[T, B](shape, 1, b)
}

// Full creates a tensor filled with value.
func Full[T DType, B Backend](shape Shape, value T, b B) *Tensor[T, B] {
	t := Zeros[T, B](shape, b)
	data := t.Data()
	for i := range data {
		data[i] = value
	}
	return t
}

// ZerosLike creates a zero tensor with the shape of t.
func ZerosLike[T DType, B Backend](t *Tensor[T, B]) *Tensor[T, B] {
	return Zeros[T, B](t.Shape(), t.Backend())
}

// Randn creates a tensor with samples from the standard normal distribution.
// A nil rng uses the global source.
func Randn[T DType, B Backend](shape Shape, rng *rand.Rand, b B) *Tensor[T, B] {
	t := Zeros[T, B](shape, b)
	data := t.Data()
	for i := range data {
		if rng == nil {
			data[i] = T(rand.NormFloat64())
		} else {
			data[i] = T(rng.NormFloat64())
		}
	}
	return t
}

// Rand creates a tensor with samples from the uniform distribution [0, 1).
// A nil rng uses the global source.
func Rand[T DType, B Backend](shape Shape, rng *rand.Rand, b B) *Tensor[T, B] {
	t := Zeros[T, B](shape, b)
	data := t.Data()
	for i := range data {
		if rng == nil {
			data[i] = T(rand.Float64())
		} else {
			data[i] = T(rng.Float64())
		}
	}
	return t
}
