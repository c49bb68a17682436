package tensor

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestShape_Basics(t *testing.T) {
	s := Shape{2, 3, 4}
	assert.Equal(t, 24, s.NumElements())
	assert.Equal(t, 1, Shape{}.NumElements())
	assert.Equal(t, []int{12, 4, 1}, s.ComputeStrides())
	assert.True(t, s.Equal(Shape{2, 3, 4}))
	assert.False(t, s.Equal(Shape{2, 3}))
	assert.Equal(t, "[2 3 4]", s.String())

	c := s.Clone()
	c[0] = 9
	assert.Equal(t, 2, s[0])

	assert.NoError(t, s.Validate())
	assert.Error(t, Shape{2, 0}.Validate())
}

func TestBroadcastShapes(t *testing.T) {
	tests := []struct {
		a, b      Shape
		want      Shape
		broadcast bool
		wantErr   bool
	}{
		{Shape{3, 1}, Shape{3, 5}, Shape{3, 5}, true, false},
		{Shape{3, 5}, Shape{3, 5}, Shape{3, 5}, false, false},
		{Shape{5}, Shape{2, 5}, Shape{2, 5}, true, false},
		{Shape{}, Shape{4}, Shape{4}, true, false},
		{Shape{3, 4}, Shape{3, 5}, nil, false, true},
	}
	for _, tt := range tests {
		got, broadcast, err := BroadcastShapes(tt.a, tt.b)
		if tt.wantErr {
			assert.Error(t, err)
			continue
		}
		require.NoError(t, err)
		assert.Equal(t, tt.want, got)
		assert.Equal(t, tt.broadcast, broadcast, "%v vs %v", tt.a, tt.b)
	}
}

func TestBroadcastIndex(t *testing.T) {
	out := Shape{2, 3}
	// column vector [2,1]
	assert.Equal(t, []int{0, 0, 0, 1, 1, 1}, indices(out, Shape{2, 1}))
	// row vector [3]
	assert.Equal(t, []int{0, 1, 2, 0, 1, 2}, indices(out, Shape{3}))
	// scalar
	assert.Equal(t, []int{0, 0, 0, 0, 0, 0}, indices(out, Shape{}))
}

func indices(out, in Shape) []int {
	res := make([]int, out.NumElements())
	for i := range res {
		res[i] = BroadcastIndex(i, out, in)
	}
	return res
}

func TestDataType(t *testing.T) {
	for _, dt := range []DataType{Float32, Float64, Int32, Int64} {
		parsed, ok := ParseDataType(dt.String())
		require.True(t, ok)
		assert.Equal(t, dt, parsed)
	}
	_, ok := ParseDataType("bfloat16")
	assert.False(t, ok)

	assert.Equal(t, 4, Float32.Size())
	assert.Equal(t, 8, Int64.Size())
	assert.True(t, Float64.IsFloat())
	assert.False(t, Int32.IsFloat())
	assert.Equal(t, Float32, DataTypeOf[float32]())
	assert.Equal(t, Int64, DataTypeOf[int64]())
}

func TestRawTensor(t *testing.T) {
	r, err := NewRaw(Shape{2, 2}, Float32, CPU)
	require.NoError(t, err)
	assert.Equal(t, 16, r.ByteSize())
	assert.Equal(t, "CPU", r.Device().String())

	copy(r.AsFloat32(), []float32{1, 2, 3, 4})
	assert.Equal(t, []float64{1, 2, 3, 4}, r.Float64s())

	c := r.Clone()
	c.AsFloat32()[0] = 42
	assert.Equal(t, float32(1), r.AsFloat32()[0])

	v, err := r.View(Shape{4})
	require.NoError(t, err)
	v.AsFloat32()[3] = 7
	assert.Equal(t, float32(7), r.AsFloat32()[3])

	_, err = r.View(Shape{3})
	assert.Error(t, err)
	assert.Panics(t, func() { r.AsFloat64() })

	_, err = NewRaw(Shape{-1}, Float32, CPU)
	assert.Error(t, err)
}
