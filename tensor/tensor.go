// Copyright 2025 Born ML Framework. All rights reserved.
// Use of this source code is governed by an Apache 2.0
// license that can be found in the LICENSE file.

// Package tensor provides the public tensor API.
//
// Tensor[T, B] is a typed view over a RawTensor computed by backend B. Every
// operation allocates a new result; inputs are never mutated.
//
// Example:
//
//	backend := cpu.New()
//	x := tensor.Zeros[float32](tensor.Shape{2, 3}, backend)
//	y := tensor.Ones[float32](tensor.Shape{2, 3}, backend)
//	z := x.Add(y)
package tensor

import (
	"math/rand/v2"

	"github.com/born-ml/explain/internal/tensor"
)

// DType is the constraint for element types: float32, float64, int32, int64.
type DType = tensor.DType

// DataType identifies a tensor's element type at runtime.
type DataType = tensor.DataType

// Data type constants.
const (
	Float32 DataType = tensor.Float32
	Float64 DataType = tensor.Float64
	Int32   DataType = tensor.Int32
	Int64   DataType = tensor.Int64
)

// Device is where tensor data resides.
type Device = tensor.Device

// CPU is the host device.
const CPU Device = tensor.CPU

// Shape represents the dimensions of a tensor.
// Example: Shape{2, 3, 4} represents a 3D tensor with dimensions 2×3×4.
type Shape = tensor.Shape

// Backend computes tensor operations.
type Backend = tensor.Backend

// RawTensor is the untyped storage under a Tensor. Most users should use
// Tensor[T, B] instead.
type RawTensor = tensor.RawTensor

// Tensor is a generic type-safe tensor.
type Tensor[T DType, B Backend] = tensor.Tensor[T, B]

// New wraps raw for backend b.
func New[T DType, B Backend](raw *RawTensor, b B) *Tensor[T, B] {
	return tensor.New[T](raw, b)
}

// NewRaw allocates a zeroed raw tensor.
func NewRaw(shape Shape, dtype DataType, device Device) (*RawTensor, error) {
	return tensor.NewRaw(shape, dtype, device)
}

// FromSlice copies data into a new tensor of the given shape.
func FromSlice[T DType, B Backend](data []T, shape Shape, b B) (*Tensor[T, B], error) {
	return tensor.FromSlice(data, shape, b)
}

// MustFromSlice is FromSlice that panics on error.
func MustFromSlice[T DType, B Backend](data []T, shape Shape, b B) *Tensor[T, B] {
	return tensor.MustFromSlice(data, shape, b)
}

// Zeros creates a tensor filled with zeros.
func Zeros[T DType, B Backend](shape Shape, b B) *Tensor[T, B] {
	return tensor.Zeros[T](shape, b)
}

// Ones creates a tensor filled with ones.
func Ones[T DType, B Backend](shape Shape, b B) *Tensor[T, B] {
	return tensor.Ones[T](shape, b)
}

// Full creates a tensor filled with value.
func Full[T DType, B Backend](shape Shape, value T, b B) *Tensor[T, B] {
	return tensor.Full(shape, value, b)
}

// ZerosLike creates a zero tensor shaped like t.
func ZerosLike[T DType, B Backend](t *Tensor[T, B]) *Tensor[T, B] {
	return tensor.ZerosLike(t)
}

// Randn samples a standard normal tensor from rng.
func Randn[T DType, B Backend](shape Shape, rng *rand.Rand, b B) *Tensor[T, B] {
	return tensor.Randn[T](shape, rng, b)
}

// Rand samples a uniform [0, 1) tensor from rng.
func Rand[T DType, B Backend](shape Shape, rng *rand.Rand, b B) *Tensor[T, B] {
	return tensor.Rand[T](shape, rng, b)
}

// Cast converts t to element type U.
func Cast[U, T DType, B Backend](t *Tensor[T, B]) *Tensor[U, B] {
	return tensor.Cast[U](t)
}
