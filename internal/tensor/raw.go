package tensor

import (
	"fmt"
	"unsafe"
)

// Device represents the compute device holding tensor memory.
type Device int

// Supported compute devices.
const (
	CPU Device = iota
)

// String returns a human-readable device name.
func (d Device) String() string {
	if d == CPU {
		return "CPU"
	}
	return "Unknown"
}

// RawTensor is the untyped tensor representation used by backends.
//
// A RawTensor owns its buffer. Backends never write into their inputs, so a
// RawTensor recorded on a gradient tape keeps the value it had during the
// forward pass.
type RawTensor struct {
	data   []byte
	shape  Shape
	stride []int
	dtype  DataType
	device Device
}

// NewRaw allocates a zero-filled RawTensor.
func NewRaw(shape Shape, dtype DataType, device Device) (*RawTensor, error) {
	if err := shape.Validate(); err != nil {
		return nil, fmt.Errorf("invalid shape: %w", err)
	}

	return &RawTensor{
		data:   make([]byte, shape.NumElements()*dtype.Size()),
		shape:  shape.Clone(),
		stride: shape.ComputeStrides(),
		dtype:  dtype,
		device: device,
	}, nil
}

// MustNewRaw is NewRaw for shapes that are known to be valid.
func MustNewRaw(shape Shape, dtype DataType, device Device) *RawTensor {
	r, err := NewRaw(shape, dtype, device)
	if err != nil {
		panic(err)
	}
	return r
}

// Shape returns the tensor's shape.
func (r *RawTensor) Shape() Shape { return r.shape }

// Strides returns the row-major strides.
func (r *RawTensor) Strides() []int { return r.stride }

// DType returns the element type.
func (r *RawTensor) DType() DataType { return r.dtype }

// Device returns the compute device.
func (r *RawTensor) Device() Device { return r.device }

// NumElements returns the total number of elements.
func (r *RawTensor) NumElements() int { return r.shape.NumElements() }

// ByteSize returns the size of the buffer in bytes.
func (r *RawTensor) ByteSize() int { return len(r.data) }

// Data returns the underlying bytes.
//
// WARNING: the slice aliases the tensor's memory.
func (r *RawTensor) Data() []byte { return r.data }

// AsFloat32 views the buffer as []float32. Panics on dtype mismatch.
func (r *RawTensor) AsFloat32() []float32 {
	r.mustBe(Float32)
	//nolint:gosec // zero-copy view, length bounded by NumElements
	return unsafe.Slice((*float32)(unsafe.Pointer(unsafe.SliceData(r.data))), r.NumElements())
}

// AsFloat64 views the buffer as []float64. Panics on dtype mismatch.
func (r *RawTensor) AsFloat64() []float64 {
	r.mustBe(Float64)
	//nolint:gosec // zero-copy view, length bounded by NumElements
	return unsafe.Slice((*float64)(unsafe.Pointer(unsafe.SliceData(r.data))), r.NumElements())
}

// AsInt32 views the buffer as []int32. Panics on dtype mismatch.
func (r *RawTensor) AsInt32() []int32 {
	r.mustBe(Int32)
	//nolint:gosec // zero-copy view, length bounded by NumElements
	return unsafe.Slice((*int32)(unsafe.Pointer(unsafe.SliceData(r.data))), r.NumElements())
}

// AsInt64 views the buffer as []int64. Panics on dtype mismatch.
func (r *RawTensor) AsInt64() []int64 {
	r.mustBe(Int64)
	//nolint:gosec // zero-copy view, length bounded by NumElements
	return unsafe.Slice((*int64)(unsafe.Pointer(unsafe.SliceData(r.data))), r.NumElements())
}

func (r *RawTensor) mustBe(dt DataType) {
	if r.dtype != dt {
		panic(fmt.Sprintf("tensor dtype is %s, not %s", r.dtype, dt))
	}
}

// Float64s copies the elements into a new []float64, converting as needed.
func (r *RawTensor) Float64s() []float64 {
	out := make([]float64, r.NumElements())
	switch r.dtype {
	case Float32:
		for i, v := range r.AsFloat32() {
			out[i] = float64(v)
		}
	case Float64:
		copy(out, r.AsFloat64())
	case Int32:
		for i, v := range r.AsInt32() {
			out[i] = float64(v)
		}
	case Int64:
		for i, v := range r.AsInt64() {
			out[i] = float64(v)
		}
	}
	return out
}

// Ints copies the elements into a new []int. Float values are truncated.
func (r *RawTensor) Ints() []int {
	out := make([]int, r.NumElements())
	switch r.dtype {
	case Int32:
		for i, v := range r.AsInt32() {
			out[i] = int(v)
		}
	case Int64:
		for i, v := range r.AsInt64() {
			out[i] = int(v)
		}
	default:
		for i, v := range r.Float64s() {
			out[i] = int(v)
		}
	}
	return out
}

// Clone returns a deep copy.
func (r *RawTensor) Clone() *RawTensor {
	return &RawTensor{
		data:   append([]byte(nil), r.data...),
		shape:  r.shape.Clone(),
		stride: append([]int(nil), r.stride...),
		dtype:  r.dtype,
		device: r.device,
	}
}

// View returns a RawTensor sharing this buffer with a different shape of the
// same element count.
func (r *RawTensor) View(shape Shape) (*RawTensor, error) {
	if err := shape.Validate(); err != nil {
		return nil, fmt.Errorf("invalid shape: %w", err)
	}
	if shape.NumElements() != r.NumElements() {
		return nil, fmt.Errorf("cannot view %v as %v: element count differs", r.shape, shape)
	}
	return &RawTensor{
		data:   r.data,
		shape:  shape.Clone(),
		stride: shape.ComputeStrides(),
		dtype:  r.dtype,
		device: r.device,
	}, nil
}
