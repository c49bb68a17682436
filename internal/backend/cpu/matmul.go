package cpu

import (
	"fmt"

	"gonum.org/v1/gonum/blas"
	"gonum.org/v1/gonum/blas/blas32"
	"gonum.org/v1/gonum/blas/blas64"

	"github.com/born-ml/explain/internal/tensor"
)

// MatMul performs matrix multiplication: (M, K) @ (K, N) -> (M, N).
// Float types go through gonum's Gemm, integer types use a naive loop.
func (cpu *CPUBackend) MatMul(a, b *tensor.RawTensor) *tensor.RawTensor {
	requireSameDType("matmul", a, b)
	aShape, bShape := a.Shape(), b.Shape()

	if len(aShape) != 2 || len(bShape) != 2 {
		panic(fmt.Sprintf("matmul: only 2D tensors supported, got %dD and %dD", len(aShape), len(bShape)))
	}

	m, k := aShape[0], aShape[1]
	kAlt, n := bShape[0], bShape[1]
	if k != kAlt {
		panic(fmt.Sprintf("matmul: shape mismatch [%d,%d] @ [%d,%d]", m, k, kAlt, n))
	}

	result := cpu.alloc("matmul", tensor.Shape{m, n}, a.DType())

	switch a.DType() {
	case tensor.Float32:
		gemm32(false, false, m, n, k, a.AsFloat32(), b.AsFloat32(), result.AsFloat32())
	case tensor.Float64:
		gemm64(false, false, m, n, k, a.AsFloat64(), b.AsFloat64(), result.AsFloat64())
	case tensor.Int32:
		matmulNaive(result.AsInt32(), a.AsInt32(), b.AsInt32(), m, k, n)
	case tensor.Int64:
		matmulNaive(result.AsInt64(), a.AsInt64(), b.AsInt64(), m, k, n)
	}

	return result
}

func trans(t bool) blas.Transpose {
	if t {
		return blas.Trans
	}
	return blas.NoTrans
}

// gemm32 computes c = op(a) @ op(b) for row-major dense buffers, where op(a)
// is [m, k] and op(b) is [k, n].
func gemm32(transA, transB bool, m, n, k int, a, b, c []float32) {
	ga := blas32.General{Rows: m, Cols: k, Stride: k, Data: a}
	if transA {
		ga = blas32.General{Rows: k, Cols: m, Stride: m, Data: a}
	}
	gb := blas32.General{Rows: k, Cols: n, Stride: n, Data: b}
	if transB {
		gb = blas32.General{Rows: n, Cols: k, Stride: k, Data: b}
	}
	gc := blas32.General{Rows: m, Cols: n, Stride: n, Data: c}
	blas32.Gemm(trans(transA), trans(transB), 1, ga, gb, 0, gc)
}

// gemm64 is gemm32 for float64.
func gemm64(transA, transB bool, m, n, k int, a, b, c []float64) {
	ga := blas64.General{Rows: m, Cols: k, Stride: k, Data: a}
	if transA {
		ga = blas64.General{Rows: k, Cols: m, Stride: m, Data: a}
	}
	gb := blas64.General{Rows: k, Cols: n, Stride: n, Data: b}
	if transB {
		gb = blas64.General{Rows: n, Cols: k, Stride: k, Data: b}
	}
	gc := blas64.General{Rows: m, Cols: n, Stride: n, Data: c}
	blas64.Gemm(trans(transA), trans(transB), 1, ga, gb, 0, gc)
}

// matmulNaive computes c[i,j] = sum_k a[i,k] * b[k,j] with an i-k-j loop order.
func matmulNaive[T int32 | int64](c, a, b []T, m, k, n int) {
	for i := 0; i < m; i++ {
		for p := 0; p < k; p++ {
			aik := a[i*k+p]
			for j := 0; j < n; j++ {
				c[i*n+j] += aik * b[p*n+j]
			}
		}
	}
}
