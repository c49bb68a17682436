package tensor

import "fmt"

// Shape represents the dimensions of a tensor. An empty Shape is a scalar.
type Shape []int

// NumElements returns the total number of elements.
func (s Shape) NumElements() int {
	n := 1
	for _, dim := range s {
		n *= dim
	}
	return n
}

// Validate checks that every dimension is positive.
func (s Shape) Validate() error {
	for i, dim := range s {
		if dim <= 0 {
			return fmt.Errorf("invalid dimension at index %d: %d (must be > 0)", i, dim)
		}
	}
	return nil
}

// Equal reports whether two shapes are identical.
func (s Shape) Equal(other Shape) bool {
	if len(s) != len(other) {
		return false
	}
	for i := range s {
		if s[i] != other[i] {
			return false
		}
	}
	return true
}

// Clone returns a copy of the shape.
func (s Shape) Clone() Shape {
	return append(Shape{}, s...)
}

// ComputeStrides returns row-major strides: stride[i] is the product of all
// dimensions after i.
func (s Shape) ComputeStrides() []int {
	strides := make([]int, len(s))
	acc := 1
	for i := len(s) - 1; i >= 0; i-- {
		strides[i] = acc
		acc *= s[i]
	}
	return strides
}

// String formats the shape as [d0 d1 ...].
func (s Shape) String() string {
	return fmt.Sprint([]int(s))
}

// BroadcastShapes applies NumPy broadcasting rules to a and b.
//
// Shapes are aligned from the right; two dimensions are compatible when they
// are equal or one of them is 1. The boolean result reports whether any
// broadcasting is required.
//
//	(3, 1) + (3, 5) -> (3, 5), true
//	(3, 5) + (3, 5) -> (3, 5), false
//	(3, 4) + (3, 5) -> error
func BroadcastShapes(a, b Shape) (Shape, bool, error) {
	n := max(len(a), len(b))
	out := make(Shape, n)
	broadcast := len(a) != len(b)

	for i := 0; i < n; i++ {
		ad, bd := 1, 1
		if j := len(a) - n + i; j >= 0 {
			ad = a[j]
		}
		if j := len(b) - n + i; j >= 0 {
			bd = b[j]
		}

		switch {
		case ad == bd:
			out[i] = ad
		case ad == 1:
			out[i] = bd
			broadcast = true
		case bd == 1:
			out[i] = ad
			broadcast = true
		default:
			return nil, false, fmt.Errorf("shapes not compatible for broadcasting: %v vs %v (dimension %d: %d vs %d)",
				a, b, i, ad, bd)
		}
	}

	return out, broadcast, nil
}

// BroadcastIndex maps a flat index of the output shape to the flat index of
// an input of shape in that was broadcast to out.
func BroadcastIndex(flat int, out, in Shape) int {
	idx := 0
	stride := 1
	for d := len(out) - 1; d >= 0; d-- {
		coord := flat % out[d]
		flat /= out[d]
		j := len(in) - len(out) + d
		if j < 0 {
			continue
		}
		if in[j] != 1 {
			idx += coord * stride
		}
		stride *= in[j]
	}
	return idx
}
