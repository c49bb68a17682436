package serialization

import (
	"fmt"
	"sort"
	"strings"

	"github.com/born-ml/explain/internal/tensor"
)

// Validation limits.
const (
	MaxHeaderSize    = 100 * 1024 * 1024
	MaxTensorCount   = 100_000
	MaxTensorNameLen = 4096
)

// ValidateHeader checks the tensor table of h against a data section of
// dataSize bytes.
func ValidateHeader(h *Header, dataSize int64) error {
	seen := make(map[string]bool, len(h.Tensors))
	for _, t := range h.Tensors {
		if err := ValidateTensorName(t.Name); err != nil {
			return err
		}
		if seen[t.Name] {
			return &ValidationError{Type: "duplicate_name", Tensor: t.Name, Details: "name appears more than once"}
		}
		seen[t.Name] = true
		if err := validateTensorMeta(t); err != nil {
			return err
		}
	}
	return ValidateTensorOffsets(h.Tensors, dataSize)
}

func validateTensorMeta(t TensorMeta) error {
	dtype, ok := dtypeOf(t)
	if !ok {
		return &ValidationError{Type: "invalid_dtype", Tensor: t.Name, Details: fmt.Sprintf("unsupported dtype %q", t.DType)}
	}
	shape := tensor.Shape(t.Shape)
	if err := shape.Validate(); err != nil {
		return &ValidationError{Type: "invalid_shape", Tensor: t.Name, Details: err.Error()}
	}
	if want := int64(shape.NumElements() * dtype.Size()); want != t.Size {
		return &ValidationError{
			Type:    "size_mismatch",
			Tensor:  t.Name,
			Details: fmt.Sprintf("shape %v of %s needs %d bytes, table says %d", t.Shape, t.DType, want, t.Size),
		}
	}
	return nil
}

// ValidateTensorOffsets rejects negative, overlapping and out-of-bounds
// tensor regions.
func ValidateTensorOffsets(tensors []TensorMeta, dataSize int64) error {
	if len(tensors) > MaxTensorCount {
		return &ValidationError{
			Type:    "too_many_tensors",
			Details: fmt.Sprintf("got %d, max %d", len(tensors), MaxTensorCount),
		}
	}

	sorted := make([]TensorMeta, len(tensors))
	copy(sorted, tensors)
	sort.Slice(sorted, func(i, j int) bool {
		return sorted[i].Offset < sorted[j].Offset
	})

	for i, t := range sorted {
		if t.Offset < 0 || t.Size < 0 {
			return &ValidationError{
				Type:    "negative_offset",
				Tensor:  t.Name,
				Details: fmt.Sprintf("offset=%d, size=%d", t.Offset, t.Size),
			}
		}
		if t.Offset+t.Size > dataSize {
			return &ValidationError{
				Type:    "out_of_bounds",
				Tensor:  t.Name,
				Details: fmt.Sprintf("offset %d + size %d > data_size %d", t.Offset, t.Size, dataSize),
			}
		}
		if i < len(sorted)-1 {
			next := sorted[i+1]
			if t.Offset+t.Size > next.Offset {
				return &ValidationError{
					Type:    "offset_overlap",
					Tensor:  t.Name,
					Tensor2: next.Name,
					Details: fmt.Sprintf("regions [%d-%d] and [%d-%d] overlap",
						t.Offset, t.Offset+t.Size, next.Offset, next.Offset+next.Size),
				}
			}
		}
	}
	return nil
}

// ValidateTensorName rejects empty, oversized and path-like names.
func ValidateTensorName(name string) error {
	switch {
	case name == "":
		return &ValidationError{Type: "invalid_name", Details: "empty tensor name"}
	case len(name) > MaxTensorNameLen:
		return &ValidationError{
			Type:    "name_too_long",
			Tensor:  name,
			Details: fmt.Sprintf("length %d > max %d", len(name), MaxTensorNameLen),
		}
	case strings.Contains(name, ".."):
		return &ValidationError{Type: "invalid_name", Tensor: name, Details: "contains '..'"}
	case strings.ContainsAny(name, "/\\"):
		return &ValidationError{Type: "invalid_name", Tensor: name, Details: "contains path separator"}
	case strings.ContainsRune(name, 0):
		return &ValidationError{Type: "invalid_name", Tensor: name, Details: "contains null byte"}
	}
	return nil
}
