package cpu

import (
	"math"

	"github.com/born-ml/explain/internal/tensor"
)

// axisSplit decomposes shape around dim into outer * size * inner.
func axisSplit(shape tensor.Shape, dim int) (outer, size, inner int) {
	outer, inner = 1, 1
	for i := 0; i < dim; i++ {
		outer *= shape[i]
	}
	for i := dim + 1; i < len(shape); i++ {
		inner *= shape[i]
	}
	return outer, shape[dim], inner
}

func reducedShape(shape tensor.Shape, dim int, keepDim bool) tensor.Shape {
	out := make(tensor.Shape, 0, len(shape))
	for i, d := range shape {
		switch {
		case i != dim:
			out = append(out, d)
		case keepDim:
			out = append(out, 1)
		}
	}
	return out
}

// Sum reduces all elements to a 0-D tensor.
func (cpu *CPUBackend) Sum(x *tensor.RawTensor) *tensor.RawTensor {
	result := cpu.alloc("sum", tensor.Shape{}, x.DType())
	switch x.DType() {
	case tensor.Float32:
		sumAll(view[float32](result), view[float32](x))
	case tensor.Float64:
		sumAll(view[float64](result), view[float64](x))
	case tensor.Int32:
		sumAll(view[int32](result), view[int32](x))
	case tensor.Int64:
		sumAll(view[int64](result), view[int64](x))
	}
	return result
}

func sumAll[T tensor.DType](out, x []T) {
	var acc T
	for _, v := range x {
		acc += v
	}
	out[0] = acc
}

// SumDim sums along dim. Negative dims count from the end.
func (cpu *CPUBackend) SumDim(x *tensor.RawTensor, dim int, keepDim bool) *tensor.RawTensor {
	dim = tensor.NormalizeDim(dim, len(x.Shape()))
	result := cpu.alloc("sum_dim", reducedShape(x.Shape(), dim, keepDim), x.DType())
	outer, size, inner := axisSplit(x.Shape(), dim)

	switch x.DType() {
	case tensor.Float32:
		sumDim(view[float32](result), view[float32](x), outer, size, inner)
	case tensor.Float64:
		sumDim(view[float64](result), view[float64](x), outer, size, inner)
	case tensor.Int32:
		sumDim(view[int32](result), view[int32](x), outer, size, inner)
	case tensor.Int64:
		sumDim(view[int64](result), view[int64](x), outer, size, inner)
	}
	return result
}

func sumDim[T tensor.DType](out, x []T, outer, size, inner int) {
	for o := 0; o < outer; o++ {
		for s := 0; s < size; s++ {
			src := x[(o*size+s)*inner : (o*size+s+1)*inner]
			dst := out[o*inner : (o+1)*inner]
			for i, v := range src {
				dst[i] += v
			}
		}
	}
}

// Argmax returns int32 indices of the maximum along dim. Ties resolve to the
// lowest index.
func (cpu *CPUBackend) Argmax(x *tensor.RawTensor, dim int) *tensor.RawTensor {
	dim = tensor.NormalizeDim(dim, len(x.Shape()))
	result := cpu.alloc("argmax", reducedShape(x.Shape(), dim, false), tensor.Int32)
	outer, size, inner := axisSplit(x.Shape(), dim)
	out := result.AsInt32()

	switch x.DType() {
	case tensor.Float32:
		argmax(out, view[float32](x), outer, size, inner)
	case tensor.Float64:
		argmax(out, view[float64](x), outer, size, inner)
	case tensor.Int32:
		argmax(out, view[int32](x), outer, size, inner)
	case tensor.Int64:
		argmax(out, view[int64](x), outer, size, inner)
	}
	return result
}

func argmax[T tensor.DType](out []int32, x []T, outer, size, inner int) {
	for o := 0; o < outer; o++ {
		for i := 0; i < inner; i++ {
			best := 0
			for s := 1; s < size; s++ {
				if x[(o*size+s)*inner+i] > x[(o*size+best)*inner+i] {
					best = s
				}
			}
			out[o*inner+i] = int32(best) //nolint:gosec // bounded by dimension size
		}
	}
}

// Softmax normalises along dim using the max-shift for numerical stability.
func (cpu *CPUBackend) Softmax(x *tensor.RawTensor, dim int) *tensor.RawTensor {
	requireFloat("softmax", x)
	dim = tensor.NormalizeDim(dim, len(x.Shape()))
	result := cpu.alloc("softmax", x.Shape(), x.DType())
	outer, size, inner := axisSplit(x.Shape(), dim)

	switch x.DType() {
	case tensor.Float32:
		softmax(view[float32](result), view[float32](x), outer, size, inner)
	case tensor.Float64:
		softmax(view[float64](result), view[float64](x), outer, size, inner)
	}
	return result
}

func softmax[T float32 | float64](out, x []T, outer, size, inner int) {
	for o := 0; o < outer; o++ {
		for i := 0; i < inner; i++ {
			at := func(s int) int { return (o*size+s)*inner + i }

			maxVal := math.Inf(-1)
			for s := 0; s < size; s++ {
				maxVal = math.Max(maxVal, float64(x[at(s)]))
			}
			var sum float64
			for s := 0; s < size; s++ {
				e := math.Exp(float64(x[at(s)]) - maxVal)
				out[at(s)] = T(e)
				sum += e
			}
			for s := 0; s < size; s++ {
				out[at(s)] = T(float64(out[at(s)]) / sum)
			}
		}
	}
}
