package serialization

import (
	"bytes"
	"encoding/binary"
	"encoding/json"
	"fmt"
	"os"

	"github.com/born-ml/explain/internal/tensor"
)

// Reader gives access to a decoded .born archive held in memory.
type Reader struct {
	header Header
	flags  uint32
	data   []byte
}

// ReaderOptions tunes decoding.
type ReaderOptions struct {
	SkipChecksumValidation bool
}

// Decode parses a complete .born archive.
func Decode(buf []byte) (*Reader, error) {
	return DecodeWithOptions(buf, ReaderOptions{})
}

// DecodeWithOptions parses a complete .born archive with opts.
func DecodeWithOptions(buf []byte, opts ReaderOptions) (*Reader, error) {
	if len(buf) < len(MagicBytes) || !bytes.Equal(buf[:len(MagicBytes)], []byte(MagicBytes)) {
		return nil, ErrInvalidMagic
	}
	if len(buf) < FixedHeaderSize {
		return nil, fmt.Errorf("%w: %d bytes, fixed header needs %d", ErrTruncated, len(buf), FixedHeaderSize)
	}

	version := binary.LittleEndian.Uint32(buf[4:8])
	if version != FormatVersion {
		return nil, fmt.Errorf("%w: got %d, expected %d", ErrUnsupportedVersion, version, FormatVersion)
	}

	r := &Reader{flags: binary.LittleEndian.Uint32(buf[8:12])}
	headerSize := binary.LittleEndian.Uint64(buf[headerSizeOffset:])
	dataSize := binary.LittleEndian.Uint64(buf[dataSizeOffset:])
	var checksum [ChecksumSize]byte
	copy(checksum[:], buf[ChecksumOffset:ChecksumOffset+ChecksumSize])

	if headerSize > MaxHeaderSize {
		return nil, ErrHeaderTooLarge
	}
	headerEnd := uint64(FixedHeaderSize) + headerSize
	dataOffset := uint64(align(int64(headerEnd)))
	if dataOffset+dataSize > uint64(len(buf)) {
		return nil, fmt.Errorf("%w: need %d bytes, have %d", ErrTruncated, dataOffset+dataSize, len(buf))
	}

	if err := json.Unmarshal(buf[FixedHeaderSize:headerEnd], &r.header); err != nil {
		return nil, fmt.Errorf("failed to parse header JSON: %w", err)
	}
	r.data = buf[dataOffset : dataOffset+dataSize]

	if !opts.SkipChecksumValidation {
		if err := ValidateChecksum(ComputeChecksum(r.data), checksum); err != nil {
			return nil, err
		}
	}
	if err := ValidateHeader(&r.header, int64(dataSize)); err != nil {
		return nil, fmt.Errorf("validation failed: %w", err)
	}
	return r, nil
}

// ReadFile reads and decodes the .born archive at path.
func ReadFile(path string) (*Reader, error) {
	//nolint:gosec // G304: path is chosen by the caller
	buf, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read file: %w", err)
	}
	r, err := Decode(buf)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return r, nil
}

// Header returns the JSON header.
func (r *Reader) Header() Header { return r.header }

// Flags returns the fixed-header flags.
func (r *Reader) Flags() uint32 { return r.flags }

// Metadata returns the custom metadata map.
func (r *Reader) Metadata() map[string]string { return r.header.Metadata }

// TensorNames lists tensors in file order.
func (r *Reader) TensorNames() []string {
	names := make([]string, len(r.header.Tensors))
	for i, meta := range r.header.Tensors {
		names[i] = meta.Name
	}
	return names
}

// LoadTensor copies the named tensor out of the archive.
func (r *Reader) LoadTensor(name string, device tensor.Device) (*tensor.RawTensor, error) {
	meta, ok := r.header.Tensor(name)
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrTensorNotFound, name)
	}
	dtype, _ := dtypeOf(meta)
	raw, err := tensor.NewRaw(tensor.Shape(meta.Shape), dtype, device)
	if err != nil {
		return nil, fmt.Errorf("tensor %s: %w", name, err)
	}
	copy(raw.Data(), r.data[meta.Offset:meta.Offset+meta.Size])
	return raw, nil
}

// StateDict loads every tensor in the archive.
func (r *Reader) StateDict(device tensor.Device) (map[string]*tensor.RawTensor, error) {
	state := make(map[string]*tensor.RawTensor, len(r.header.Tensors))
	for _, meta := range r.header.Tensors {
		raw, err := r.LoadTensor(meta.Name, device)
		if err != nil {
			return nil, err
		}
		state[meta.Name] = raw
	}
	return state, nil
}
