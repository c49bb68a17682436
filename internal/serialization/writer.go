package serialization

import (
	"bytes"
	"encoding/binary"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"sort"
	"time"

	"github.com/born-ml/explain/internal/tensor"
)

// Encode writes tensors as a .born archive to w. Tensors are stored in name
// order so equal inputs produce equal data sections.
func Encode(w io.Writer, tensors map[string]*tensor.RawTensor, modelType string, metadata map[string]string) error {
	names := make([]string, 0, len(tensors))
	for name := range tensors {
		if err := ValidateTensorName(name); err != nil {
			return err
		}
		names = append(names, name)
	}
	sort.Strings(names)

	header := Header{
		FormatVersion: FormatVersion,
		BornVersion:   Version,
		ModelType:     modelType,
		CreatedAt:     time.Now().UTC(),
		Tensors:       make([]TensorMeta, 0, len(names)),
		Metadata:      metadata,
	}
	if header.Metadata == nil {
		header.Metadata = make(map[string]string)
	}

	var data bytes.Buffer
	for _, name := range names {
		raw := tensors[name]
		offset := int64(data.Len())
		data.Write(raw.Data())
		header.Tensors = append(header.Tensors, TensorMeta{
			Name:   name,
			DType:  raw.DType().String(),
			Shape:  []int(raw.Shape().Clone()),
			Offset: offset,
			Size:   int64(raw.ByteSize()),
		})
		data.Write(make([]byte, align(int64(data.Len()))-int64(data.Len())))
	}

	headerJSON, err := json.Marshal(header)
	if err != nil {
		return fmt.Errorf("failed to marshal header: %w", err)
	}

	var flags uint32
	if len(header.Metadata) > 0 {
		flags |= FlagHasMetadata
	}

	fixed := make([]byte, FixedHeaderSize)
	copy(fixed, MagicBytes)
	binary.LittleEndian.PutUint32(fixed[4:8], FormatVersion)
	binary.LittleEndian.PutUint32(fixed[8:12], flags)
	binary.LittleEndian.PutUint64(fixed[headerSizeOffset:], uint64(len(headerJSON)))
	binary.LittleEndian.PutUint64(fixed[dataSizeOffset:], uint64(data.Len()))
	sum := ComputeChecksum(data.Bytes())
	copy(fixed[ChecksumOffset:], sum[:])

	pos := int64(FixedHeaderSize + len(headerJSON))
	padding := make([]byte, align(pos)-pos)

	for _, chunk := range [][]byte{fixed, headerJSON, padding, data.Bytes()} {
		if _, err := w.Write(chunk); err != nil {
			return fmt.Errorf("failed to write archive: %w", err)
		}
	}
	return nil
}

// WriteFile writes tensors as a .born archive at path.
func WriteFile(path string, tensors map[string]*tensor.RawTensor, modelType string, metadata map[string]string) (err error) {
	//nolint:gosec // G304: path is chosen by the caller
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create file: %w", err)
	}
	defer func() {
		if cerr := f.Close(); cerr != nil && err == nil {
			err = fmt.Errorf("failed to close file: %w", cerr)
		}
	}()
	return Encode(f, tensors, modelType, metadata)
}
