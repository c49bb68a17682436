package serialization

import (
	"time"

	"github.com/born-ml/explain/internal/tensor"
)

// Format constants.
const (
	MagicBytes       = "BORN"
	FormatVersion    = 2
	Alignment        = 64   // Tensor data and the data section start on 64-byte boundaries
	FixedHeaderSize  = 64   // 0x40 bytes
	ChecksumSize     = 32   // SHA-256
	ChecksumOffset   = 0x20 // Checksum position in the fixed header
	headerSizeOffset = 0x10
	dataSizeOffset   = 0x18
)

// Flags for the .born format.
const (
	FlagHasMetadata uint32 = 1 << 2 // custom metadata included
)

// Version is written into every header as the producer version.
const Version = "0.3.0"

// Header is the JSON header of a .born file.
type Header struct {
	FormatVersion int               `json:"format_version"`
	BornVersion   string            `json:"born_version"`
	ModelType     string            `json:"model_type"`
	CreatedAt     time.Time         `json:"created_at"`
	Tensors       []TensorMeta      `json:"tensors"`
	Metadata      map[string]string `json:"metadata"`
}

// TensorMeta describes one tensor in the data section.
type TensorMeta struct {
	Name   string `json:"name"`   // e.g. "0.weight"
	DType  string `json:"dtype"`  // "float32", "float64", "int32" or "int64"
	Shape  []int  `json:"shape"`
	Offset int64  `json:"offset"` // bytes from the start of the data section
	Size   int64  `json:"size"`   // bytes
}

// Tensor looks up a tensor entry by name.
func (h *Header) Tensor(name string) (TensorMeta, bool) {
	for _, t := range h.Tensors {
		if t.Name == name {
			return t, true
		}
	}
	return TensorMeta{}, false
}

func align(n int64) int64 {
	return (n + Alignment - 1) / Alignment * Alignment
}

func dtypeOf(meta TensorMeta) (tensor.DataType, bool) {
	return tensor.ParseDataType(meta.DType)
}
