package cpu

import (
	"fmt"

	"github.com/born-ml/explain/internal/tensor"
)

// Reshape returns a copy of t with a new shape. A single -1 dimension is
// inferred from the element count.
func (cpu *CPUBackend) Reshape(t *tensor.RawTensor, newShape tensor.Shape) *tensor.RawTensor {
	shape := inferShape(newShape, t.NumElements())
	out, err := t.Clone().View(shape)
	if err != nil {
		panic(fmt.Sprintf("reshape: %v", err))
	}
	return out
}

func inferShape(shape tensor.Shape, numel int) tensor.Shape {
	out := shape.Clone()
	infer := -1
	known := 1
	for i, d := range out {
		if d == -1 {
			if infer >= 0 {
				panic("reshape: only one dimension can be -1")
			}
			infer = i
			continue
		}
		known *= d
	}
	if infer >= 0 {
		if known == 0 || numel%known != 0 {
			panic(fmt.Sprintf("reshape: cannot infer dimension of %v for %d elements", shape, numel))
		}
		out[infer] = numel / known
	}
	return out
}

// Transpose permutes dimensions. Without axes the order is reversed.
func (cpu *CPUBackend) Transpose(t *tensor.RawTensor, axes ...int) *tensor.RawTensor {
	shape := t.Shape()
	ndim := len(shape)
	if len(axes) == 0 {
		axes = make([]int, ndim)
		for i := range axes {
			axes[i] = ndim - 1 - i
		}
	}
	if len(axes) != ndim {
		panic(fmt.Sprintf("transpose: expected %d axes, got %d", ndim, len(axes)))
	}

	seen := make([]bool, ndim)
	outShape := make(tensor.Shape, ndim)
	for i, a := range axes {
		a = tensor.NormalizeDim(a, ndim)
		if seen[a] {
			panic(fmt.Sprintf("transpose: repeated axis %d", a))
		}
		seen[a] = true
		axes[i] = a
		outShape[i] = shape[a]
	}

	result := cpu.alloc("transpose", outShape, t.DType())
	switch t.DType() {
	case tensor.Float32:
		permute(view[float32](result), view[float32](t), outShape, t.Strides(), axes)
	case tensor.Float64:
		permute(view[float64](result), view[float64](t), outShape, t.Strides(), axes)
	case tensor.Int32:
		permute(view[int32](result), view[int32](t), outShape, t.Strides(), axes)
	case tensor.Int64:
		permute(view[int64](result), view[int64](t), outShape, t.Strides(), axes)
	}
	return result
}

func permute[T tensor.DType](out, in []T, outShape tensor.Shape, inStrides, axes []int) {
	ndim := len(outShape)
	coord := make([]int, ndim)
	for i := range out {
		src := 0
		for d := 0; d < ndim; d++ {
			src += coord[d] * inStrides[axes[d]]
		}
		out[i] = in[src]

		for d := ndim - 1; d >= 0; d-- {
			coord[d]++
			if coord[d] < outShape[d] {
				break
			}
			coord[d] = 0
		}
	}
}

// Expand broadcasts x to shape.
func (cpu *CPUBackend) Expand(x *tensor.RawTensor, shape tensor.Shape) *tensor.RawTensor {
	out, _, err := tensor.BroadcastShapes(x.Shape(), shape)
	if err != nil || !out.Equal(shape) {
		panic(fmt.Sprintf("expand: cannot broadcast %v to %v", x.Shape(), shape))
	}

	result := cpu.alloc("expand", shape, x.DType())
	switch x.DType() {
	case tensor.Float32:
		expand(view[float32](result), view[float32](x), shape, x.Shape())
	case tensor.Float64:
		expand(view[float64](result), view[float64](x), shape, x.Shape())
	case tensor.Int32:
		expand(view[int32](result), view[int32](x), shape, x.Shape())
	case tensor.Int64:
		expand(view[int64](result), view[int64](x), shape, x.Shape())
	}
	return result
}

func expand[T tensor.DType](out, in []T, outShape, inShape tensor.Shape) {
	for i := range out {
		out[i] = in[tensor.BroadcastIndex(i, outShape, inShape)]
	}
}

// Cast converts x to dtype. Float to integer conversion truncates toward zero.
func (cpu *CPUBackend) Cast(x *tensor.RawTensor, dtype tensor.DataType) *tensor.RawTensor {
	if x.DType() == dtype {
		return x.Clone()
	}
	result := cpu.alloc("cast", x.Shape(), dtype)
	switch x.DType() {
	case tensor.Float32:
		castFrom(result, view[float32](x))
	case tensor.Float64:
		castFrom(result, view[float64](x))
	case tensor.Int32:
		castFrom(result, view[int32](x))
	case tensor.Int64:
		castFrom(result, view[int64](x))
	}
	return result
}

func castFrom[S tensor.DType](dst *tensor.RawTensor, src []S) {
	switch dst.DType() {
	case tensor.Float32:
		castInto(view[float32](dst), src)
	case tensor.Float64:
		castInto(view[float64](dst), src)
	case tensor.Int32:
		castInto(view[int32](dst), src)
	case tensor.Int64:
		castInto(view[int64](dst), src)
	}
}

func castInto[D, S tensor.DType](dst []D, src []S) {
	for i, v := range src {
		dst[i] = D(v)
	}
}
