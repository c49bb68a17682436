package ops

import (
	"fmt"

	"github.com/born-ml/explain/internal/tensor"
)

// reduceBroadcast reduces a gradient to targetShape after a broadcasting
// forward pass.
//
// Example:
//
//	Forward: a[3,1] + b[3,4] -> c[3,4]  (a was broadcast along dim 1)
//	Backward: grad_c[3,4] -> grad_a[3,1] (sum along dim 1)
func reduceBroadcast(grad *tensor.RawTensor, targetShape tensor.Shape, backend tensor.Backend) *tensor.RawTensor {
	if grad.Shape().Equal(targetShape) {
		return grad
	}

	result := grad
	for len(result.Shape()) > len(targetShape) {
		result = backend.SumDim(result, 0, false)
	}
	for i, d := range targetShape {
		if d == 1 && result.Shape()[i] > 1 {
			result = backend.SumDim(result, i, true)
		}
	}

	if !result.Shape().Equal(targetShape) {
		result = backend.Reshape(result, targetShape)
	}
	return result
}

// mapFloat returns f applied to every element of x, in x's dtype.
func mapFloat(x *tensor.RawTensor, f func(float64) float64) *tensor.RawTensor {
	out := tensor.MustNewRaw(x.Shape(), x.DType(), x.Device())
	switch x.DType() {
	case tensor.Float32:
		dst := out.AsFloat32()
		for i, v := range x.AsFloat32() {
			dst[i] = float32(f(float64(v)))
		}
	case tensor.Float64:
		dst := out.AsFloat64()
		for i, v := range x.AsFloat64() {
			dst[i] = f(v)
		}
	default:
		panic(fmt.Sprintf("unsupported dtype %s (only float32/float64 supported)", x.DType()))
	}
	return out
}
