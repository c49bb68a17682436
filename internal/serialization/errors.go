package serialization

import (
	"errors"
	"fmt"
)

// Common errors.
var (
	ErrChecksumMismatch   = errors.New("checksum mismatch: file may be corrupted")
	ErrOffsetOverlap      = errors.New("tensor offsets overlap")
	ErrOutOfBounds        = errors.New("tensor extends beyond data section")
	ErrNegativeOffset     = errors.New("negative offset or size")
	ErrTooManyTensors     = errors.New("too many tensors in file")
	ErrInvalidTensorName  = errors.New("invalid tensor name")
	ErrHeaderTooLarge     = errors.New("header exceeds maximum size")
	ErrInvalidMagic       = errors.New("invalid magic bytes")
	ErrUnsupportedVersion = errors.New("unsupported format version")
	ErrTruncated          = errors.New("file is truncated")
	ErrTensorNotFound     = errors.New("tensor not found")
)

// ValidationError describes a malformed tensor table entry. Is reports the
// matching sentinel so callers can use errors.Is.
type ValidationError struct {
	Type    string // e.g. "offset_overlap", "out_of_bounds"
	Tensor  string
	Tensor2 string // second tensor for overlap errors
	Details string
}

// Error implements the error interface.
func (e *ValidationError) Error() string {
	if e.Tensor2 != "" {
		return fmt.Sprintf("%s: tensors %q and %q: %s", e.Type, e.Tensor, e.Tensor2, e.Details)
	}
	if e.Tensor != "" {
		return fmt.Sprintf("%s: tensor %q: %s", e.Type, e.Tensor, e.Details)
	}
	return fmt.Sprintf("%s: %s", e.Type, e.Details)
}

// Is maps the validation type onto a sentinel error.
func (e *ValidationError) Is(target error) bool {
	switch e.Type {
	case "offset_overlap":
		return target == ErrOffsetOverlap
	case "out_of_bounds", "size_mismatch":
		return target == ErrOutOfBounds
	case "negative_offset":
		return target == ErrNegativeOffset
	case "too_many_tensors":
		return target == ErrTooManyTensors
	case "invalid_name", "name_too_long", "duplicate_name":
		return target == ErrInvalidTensorName
	}
	return false
}
