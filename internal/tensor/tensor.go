package tensor

import "fmt"

// Tensor is a generic tensor with element type T and backend B.
//
// Type Parameters:
//   - T: Data type (must satisfy DType constraint)
//   - B: Computation backend (must implement Backend interface)
//
// Example:
//
//	backend := cpu.New()
//	t := tensor.Zeros[float32](tensor.Shape{3, 4}, backend)
//	result := t.Add(t)
type Tensor[T DType, B Backend] struct {
	raw     *RawTensor
	backend B
}

// New wraps a RawTensor.
func New[T DType, B Backend](raw *RawTensor, b B) *Tensor[T, B] {
	return &Tensor[T, B]{raw: raw, backend: b}
}

// FromSlice creates a tensor from a Go slice. The slice is copied.
func FromSlice[T DType, B Backend](data []T, shape Shape, b B) (*Tensor[T, B], error) {
	if shape.NumElements() != len(data) {
		return nil, fmt.Errorf("shape %v requires %d elements, but got %d", shape, shape.NumElements(), len(data))
	}

	raw, err := NewRaw(shape, DataTypeOf[T](), b.Device())
	if err != nil {
		return nil, err
	}

	t := New[T, B](raw, b)
	copy(t.Data(), data)
	return t, nil
}

// MustFromSlice is FromSlice that panics on error.
func MustFromSlice[T DType, B Backend](data []T, shape Shape, b B) *Tensor[T, B] {
	t, err := FromSlice(data, shape, b)
	if err != nil {
		panic(err)
	}
	return t
}

// Shape returns the tensor's shape.
func (t *Tensor[T, B]) Shape() Shape { return t.raw.Shape() }

// DType returns the tensor's data type.
func (t *Tensor[T, B]) DType() DataType { return t.raw.DType() }

// Device returns the tensor's compute device.
func (t *Tensor[T, B]) Device() Device { return t.raw.Device() }

// NumElements returns the total number of elements.
func (t *Tensor[T, B]) NumElements() int { return t.raw.NumElements() }

// Raw returns the underlying RawTensor.
func (t *Tensor[T, B]) Raw() *RawTensor { return t.raw }

// Backend returns the computation backend.
func (t *Tensor[T, B]) Backend() B { return t.backend }

// Data returns a typed view of the tensor's memory.
//
// WARNING: Modifications to the returned slice modify the tensor.
func (t *Tensor[T, B]) Data() []T {
	var dummy T
	switch any(dummy).(type) {
	case float32:
		return any(t.raw.AsFloat32()).([]T)
	case float64:
		return any(t.raw.AsFloat64()).([]T)
	case int32:
		return any(t.raw.AsInt32()).([]T)
	case int64:
		return any(t.raw.AsInt64()).([]T)
	default:
		panic("unsupported type")
	}
}

// Item returns the value of a single-element tensor.
func (t *Tensor[T, B]) Item() T {
	if t.NumElements() != 1 {
		panic(fmt.Sprintf("Item() only works for single-element tensors, got shape %v", t.Shape()))
	}
	return t.Data()[0]
}

// At returns the element at the given indices.
func (t *Tensor[T, B]) At(indices ...int) T {
	return t.Data()[t.offset(indices)]
}

// Set writes the element at the given indices.
func (t *Tensor[T, B]) Set(value T, indices ...int) {
	t.Data()[t.offset(indices)] = value
}

func (t *Tensor[T, B]) offset(indices []int) int {
	shape := t.Shape()
	if len(indices) != len(shape) {
		panic(fmt.Sprintf("expected %d indices, got %d", len(shape), len(indices)))
	}
	strides := t.raw.Strides()
	off := 0
	for i, idx := range indices {
		if idx < 0 || idx >= shape[i] {
			panic(fmt.Sprintf("index %d out of bounds for dimension %d (size %d)", idx, i, shape[i]))
		}
		off += idx * strides[i]
	}
	return off
}

// Clone returns a deep copy on the same backend.
func (t *Tensor[T, B]) Clone() *Tensor[T, B] {
	return New[T, B](t.raw.Clone(), t.backend)
}

// Detach returns a copy whose buffer is not referenced by any recorded
// operation, so gradients never flow back through it.
func (t *Tensor[T, B]) Detach() *Tensor[T, B] {
	return t.Clone()
}

// String formats shape and dtype.
func (t *Tensor[T, B]) String() string {
	return fmt.Sprintf("Tensor(shape=%v, dtype=%s, backend=%s)", t.Shape(), t.DType(), t.backend.Name())
}
