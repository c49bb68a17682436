package cpu

import (
	"math/rand/v2"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/born-ml/explain/internal/tensor"
)

func raw32(t *testing.T, data []float32, shape ...int) *tensor.RawTensor {
	t.Helper()
	r, err := tensor.NewRaw(tensor.Shape(shape), tensor.Float32, tensor.CPU)
	require.NoError(t, err)
	copy(r.AsFloat32(), data)
	return r
}

func raw64(t *testing.T, data []float64, shape ...int) *tensor.RawTensor {
	t.Helper()
	r, err := tensor.NewRaw(tensor.Shape(shape), tensor.Float64, tensor.CPU)
	require.NoError(t, err)
	copy(r.AsFloat64(), data)
	return r
}

func randRaw64(rng *rand.Rand, shape ...int) *tensor.RawTensor {
	r := tensor.MustNewRaw(tensor.Shape(shape), tensor.Float64, tensor.CPU)
	for i := range r.AsFloat64() {
		r.AsFloat64()[i] = rng.NormFloat64()
	}
	return r
}

func dot(a, b []float64) float64 {
	var s float64
	for i := range a {
		s += a[i] * b[i]
	}
	return s
}

func TestCPUBackend_Metadata(t *testing.T) {
	b := New()
	assert.Equal(t, "CPU", b.Name())
	assert.Equal(t, tensor.CPU, b.Device())
}

func TestBinaryOps(t *testing.T) {
	b := New()
	x := raw32(t, []float32{1, 2, 3, 4}, 2, 2)
	y := raw32(t, []float32{4, 3, 2, 1}, 2, 2)

	tests := []struct {
		name string
		fn   func(a, b *tensor.RawTensor) *tensor.RawTensor
		want []float32
	}{
		{"add", b.Add, []float32{5, 5, 5, 5}},
		{"sub", b.Sub, []float32{-3, -1, 1, 3}},
		{"mul", b.Mul, []float32{4, 6, 6, 4}},
		{"div", b.Div, []float32{0.25, 2.0 / 3, 1.5, 4}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out := tt.fn(x, y)
			assert.InDeltaSlice(t, tt.want, out.AsFloat32(), 1e-6)
		})
	}

	assert.Equal(t, []float32{1, 2, 3, 4}, x.AsFloat32(), "inputs must not be modified")
}

func TestBinaryOps_Broadcast(t *testing.T) {
	b := New()
	col := raw32(t, []float32{10, 20}, 2, 1)
	row := raw32(t, []float32{1, 2, 3}, 3)

	out := b.Add(col, row)
	assert.Equal(t, tensor.Shape{2, 3}, out.Shape())
	assert.Equal(t, []float32{11, 12, 13, 21, 22, 23}, out.AsFloat32())

	scalar := raw32(t, []float32{2}, 1)
	assert.Equal(t, []float32{2, 4, 6}, b.Mul(row, scalar).AsFloat32())
}

func TestBinaryOps_IncompatibleShapesPanic(t *testing.T) {
	b := New()
	assert.Panics(t, func() {
		b.Add(raw32(t, make([]float32, 6), 2, 3), raw32(t, make([]float32, 8), 2, 4))
	})
	assert.Panics(t, func() {
		b.Add(raw32(t, []float32{1}, 1), raw64(t, []float64{1}, 1))
	})
}

func TestScalarAndUnaryOps(t *testing.T) {
	b := New()
	x := raw64(t, []float64{-1, 0, 2}, 3)

	assert.Equal(t, []float64{-2, 0, 4}, b.MulScalar(x, 2).AsFloat64())
	assert.Equal(t, []float64{0.5, 1.5, 3.5}, b.AddScalar(x, 1.5).AsFloat64())
	assert.Equal(t, []float64{0, 0, 2}, b.ReLU(x).AsFloat64())
	assert.InDeltaSlice(t, []float64{0.26894142, 0.5, 0.88079708}, b.Sigmoid(x).AsFloat64(), 1e-7)
	assert.InDeltaSlice(t, []float64{-0.76159416, 0, 0.96402758}, b.Tanh(x).AsFloat64(), 1e-7)
	assert.InDeltaSlice(t, []float64{0.36787944, 1, 7.3890561}, b.Exp(x).AsFloat64(), 1e-6)
	assert.InDeltaSlice(t, []float64{0, 0.69314718}, b.Log(raw64(t, []float64{1, 2}, 2)).AsFloat64(), 1e-7)
}

func TestMatMul(t *testing.T) {
	b := New()
	a := raw32(t, []float32{1, 2, 3, 4, 5, 6}, 2, 3)
	m := raw32(t, []float32{7, 8, 9, 10, 11, 12}, 3, 2)

	out := b.MatMul(a, m)
	assert.Equal(t, tensor.Shape{2, 2}, out.Shape())
	assert.Equal(t, []float32{58, 64, 139, 154}, out.AsFloat32())

	ai := tensor.MustNewRaw(tensor.Shape{1, 2}, tensor.Int64, tensor.CPU)
	copy(ai.AsInt64(), []int64{1, 2})
	bi := tensor.MustNewRaw(tensor.Shape{2, 1}, tensor.Int64, tensor.CPU)
	copy(bi.AsInt64(), []int64{3, 4})
	assert.Equal(t, []int64{11}, b.MatMul(ai, bi).AsInt64())

	assert.Panics(t, func() { b.MatMul(a, a) })
}

func TestConv2D_KnownValues(t *testing.T) {
	b := New()
	input := raw32(t, []float32{
		1, 2, 3,
		4, 5, 6,
		7, 8, 9,
	}, 1, 1, 3, 3)
	kernel := raw32(t, []float32{1, 0, 0, 1}, 1, 1, 2, 2)

	out := b.Conv2D(input, kernel, 1, 0)
	assert.Equal(t, tensor.Shape{1, 1, 2, 2}, out.Shape())
	assert.Equal(t, []float32{6, 8, 12, 14}, out.AsFloat32())

	padded := b.Conv2D(input, kernel, 1, 1)
	assert.Equal(t, tensor.Shape{1, 1, 4, 4}, padded.Shape())
	assert.Equal(t, float32(1), padded.AsFloat32()[0])
	assert.Equal(t, float32(1+5), padded.AsFloat32()[5])
}

// The backward kernels are the adjoints of the forward convolution:
// <conv(x, k), g> == <x, dX(g)> == <k, dK(g)>.
func TestConv2D_BackwardIsAdjoint(t *testing.T) {
	rng := rand.New(rand.NewPCG(1, 2))
	b := New()

	for _, tc := range []struct{ stride, padding int }{{1, 0}, {1, 1}, {2, 1}} {
		x := randRaw64(rng, 2, 3, 6, 5)
		k := randRaw64(rng, 4, 3, 3, 3)
		y := b.Conv2D(x, k, tc.stride, tc.padding)
		g := randRaw64(rng, y.Shape()...)

		lhs := dot(y.AsFloat64(), g.AsFloat64())
		dx := b.Conv2DInputBackward(x, k, g, tc.stride, tc.padding)
		dk := b.Conv2DKernelBackward(x, k, g, tc.stride, tc.padding)

		assert.InDelta(t, lhs, dot(x.AsFloat64(), dx.AsFloat64()), 1e-9, "input adjoint %+v", tc)
		assert.InDelta(t, lhs, dot(k.AsFloat64(), dk.AsFloat64()), 1e-9, "kernel adjoint %+v", tc)
	}
}

func TestMaxPool2D(t *testing.T) {
	b := New()
	input := raw32(t, []float32{
		1, 2, 5, 0,
		3, 4, 1, 1,
		0, 0, 9, 8,
		0, 7, 6, 6,
	}, 1, 1, 4, 4)

	out := b.MaxPool2D(input, 2, 2)
	assert.Equal(t, []float32{4, 5, 7, 9}, out.AsFloat32())

	grad := raw32(t, []float32{1, 2, 3, 4}, 1, 1, 2, 2)
	dx := b.MaxPool2DBackward(input, grad, 2, 2)
	assert.Equal(t, []float32{
		0, 0, 2, 0,
		0, 1, 0, 0,
		0, 0, 4, 0,
		0, 3, 0, 0,
	}, dx.AsFloat32())
}

func TestReductions(t *testing.T) {
	b := New()
	x := raw32(t, []float32{1, 5, 3, 4, 2, 6}, 2, 3)

	assert.Equal(t, float32(21), b.Sum(x).AsFloat32()[0])
	assert.Equal(t, tensor.Shape{}, b.Sum(x).Shape())

	s0 := b.SumDim(x, 0, false)
	assert.Equal(t, tensor.Shape{3}, s0.Shape())
	assert.Equal(t, []float32{5, 7, 9}, s0.AsFloat32())

	s1 := b.SumDim(x, -1, true)
	assert.Equal(t, tensor.Shape{2, 1}, s1.Shape())
	assert.Equal(t, []float32{9, 12}, s1.AsFloat32())

	am := b.Argmax(x, 1)
	assert.Equal(t, tensor.Int32, am.DType())
	assert.Equal(t, []int32{1, 2}, am.AsInt32())
}

func TestSoftmax(t *testing.T) {
	b := New()
	x := raw64(t, []float64{1, 2, 3, 1000, 1000, 1000}, 2, 3)

	out := b.Softmax(x, -1).AsFloat64()
	assert.InDeltaSlice(t, []float64{0.09003057, 0.24472847, 0.66524096}, out[:3], 1e-7)
	assert.InDeltaSlice(t, []float64{1.0 / 3, 1.0 / 3, 1.0 / 3}, out[3:], 1e-12)

	col := b.Softmax(x, 0).AsFloat64()
	assert.InDelta(t, 1.0, col[0]+col[3], 1e-12)
}

func TestReshapeTransposeExpand(t *testing.T) {
	b := New()
	x := raw32(t, []float32{1, 2, 3, 4, 5, 6}, 2, 3)

	r := b.Reshape(x, tensor.Shape{3, -1})
	assert.Equal(t, tensor.Shape{3, 2}, r.Shape())
	r.AsFloat32()[0] = 100
	assert.Equal(t, float32(1), x.AsFloat32()[0], "reshape must copy")

	tr := b.Transpose(x)
	assert.Equal(t, tensor.Shape{3, 2}, tr.Shape())
	assert.Equal(t, []float32{1, 4, 2, 5, 3, 6}, tr.AsFloat32())

	x3 := raw32(t, []float32{0, 1, 2, 3, 4, 5, 6, 7}, 2, 2, 2)
	p := b.Transpose(x3, 1, 0, 2)
	assert.Equal(t, []float32{0, 1, 4, 5, 2, 3, 6, 7}, p.AsFloat32())

	e := b.Expand(raw32(t, []float32{1, 2}, 2, 1), tensor.Shape{2, 3})
	assert.Equal(t, []float32{1, 1, 1, 2, 2, 2}, e.AsFloat32())
	assert.Panics(t, func() { b.Expand(x, tensor.Shape{3, 3}) })
}

func TestCast(t *testing.T) {
	b := New()
	x := raw32(t, []float32{1.9, -2.5, 3}, 3)

	i := b.Cast(x, tensor.Int32)
	assert.Equal(t, []int32{1, -2, 3}, i.AsInt32())

	f := b.Cast(i, tensor.Float64)
	assert.Equal(t, []float64{1, -2, 3}, f.AsFloat64())

	same := b.Cast(x, tensor.Float32)
	assert.NotSame(t, x, same)
}

func TestEmbedding(t *testing.T) {
	b := New()
	w := raw32(t, []float32{0, 0, 1, 1, 2, 2}, 3, 2)

	ids := tensor.MustNewRaw(tensor.Shape{2, 2}, tensor.Int32, tensor.CPU)
	copy(ids.AsInt32(), []int32{2, 0, 1, 1})
	out := b.Embedding(w, ids)
	assert.Equal(t, tensor.Shape{2, 2, 2}, out.Shape())
	assert.Equal(t, []float32{2, 2, 0, 0, 1, 1, 1, 1}, out.AsFloat32())

	fids := raw32(t, []float32{1, 2}, 2)
	assert.Equal(t, []float32{1, 1, 2, 2}, b.Embedding(w, fids).AsFloat32())

	assert.Panics(t, func() { b.Embedding(w, raw32(t, []float32{3}, 1)) })
}
