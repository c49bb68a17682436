package serialization

import (
	"bytes"
	"encoding/binary"
	"errors"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/born-ml/explain/internal/tensor"
)

func sampleState(t *testing.T) map[string]*tensor.RawTensor {
	t.Helper()
	w := tensor.MustNewRaw(tensor.Shape{2, 3}, tensor.Float32, tensor.CPU)
	copy(w.AsFloat32(), []float32{1, 2, 3, 4, 5, 6})
	b := tensor.MustNewRaw(tensor.Shape{3}, tensor.Float64, tensor.CPU)
	copy(b.AsFloat64(), []float64{-1, 0.5, 7})
	ids := tensor.MustNewRaw(tensor.Shape{1}, tensor.Int64, tensor.CPU)
	ids.AsInt64()[0] = 42
	return map[string]*tensor.RawTensor{"0.weight": w, "0.bias": b, "ids": ids}
}

func encode(t *testing.T, state map[string]*tensor.RawTensor, meta map[string]string) []byte {
	t.Helper()
	var buf bytes.Buffer
	require.NoError(t, Encode(&buf, state, "Sequential", meta))
	return buf.Bytes()
}

func TestRoundTrip(t *testing.T) {
	state := sampleState(t)
	buf := encode(t, state, map[string]string{"arch": "mlp"})

	r, err := Decode(buf)
	require.NoError(t, err)

	h := r.Header()
	assert.Equal(t, FormatVersion, h.FormatVersion)
	assert.Equal(t, "Sequential", h.ModelType)
	assert.Equal(t, Version, h.BornVersion)
	assert.Equal(t, "mlp", r.Metadata()["arch"])
	assert.Equal(t, FlagHasMetadata, r.Flags()&FlagHasMetadata)
	assert.Equal(t, []string{"0.bias", "0.weight", "ids"}, r.TensorNames())

	loaded, err := r.StateDict(tensor.CPU)
	require.NoError(t, err)
	require.Len(t, loaded, 3)
	assert.Equal(t, []float32{1, 2, 3, 4, 5, 6}, loaded["0.weight"].AsFloat32())
	assert.Equal(t, tensor.Shape{2, 3}, loaded["0.weight"].Shape())
	assert.Equal(t, []float64{-1, 0.5, 7}, loaded["0.bias"].AsFloat64())
	assert.Equal(t, []int64{42}, loaded["ids"].AsInt64())
}

func TestLayoutAlignment(t *testing.T) {
	buf := encode(t, sampleState(t), nil)

	assert.Equal(t, MagicBytes, string(buf[:4]))
	assert.Equal(t, uint32(FormatVersion), binary.LittleEndian.Uint32(buf[4:8]))

	headerSize := binary.LittleEndian.Uint64(buf[headerSizeOffset:])
	dataSize := binary.LittleEndian.Uint64(buf[dataSizeOffset:])
	dataOffset := align(int64(FixedHeaderSize) + int64(headerSize))
	assert.Zero(t, dataOffset%Alignment)
	assert.Equal(t, int(dataOffset)+int(dataSize), len(buf))

	r, err := Decode(buf)
	require.NoError(t, err)
	for _, meta := range r.Header().Tensors {
		assert.Zero(t, meta.Offset%Alignment, meta.Name)
	}
}

func TestFileRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "model.born")
	require.NoError(t, WriteFile(path, sampleState(t), "LeNet", nil))

	r, err := ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "LeNet", r.Header().ModelType)

	_, err = ReadFile(filepath.Join(t.TempDir(), "missing.born"))
	assert.Error(t, err)
}

func TestDecodeErrors(t *testing.T) {
	good := encode(t, sampleState(t), nil)

	t.Run("magic", func(t *testing.T) {
		bad := append([]byte{}, good...)
		copy(bad, "NOPE")
		_, err := Decode(bad)
		assert.ErrorIs(t, err, ErrInvalidMagic)
	})

	t.Run("version", func(t *testing.T) {
		bad := append([]byte{}, good...)
		binary.LittleEndian.PutUint32(bad[4:8], 1)
		_, err := Decode(bad)
		assert.ErrorIs(t, err, ErrUnsupportedVersion)
	})

	t.Run("checksum", func(t *testing.T) {
		bad := append([]byte{}, good...)
		bad[len(bad)-Alignment] ^= 0xFF
		_, err := Decode(bad)
		assert.ErrorIs(t, err, ErrChecksumMismatch)

		_, err = DecodeWithOptions(bad, ReaderOptions{SkipChecksumValidation: true})
		assert.NoError(t, err)
	})

	t.Run("truncated", func(t *testing.T) {
		_, err := Decode(good[:len(good)-1])
		assert.ErrorIs(t, err, ErrTruncated)
		_, err = Decode(good[:10])
		assert.ErrorIs(t, err, ErrTruncated)
	})

	t.Run("header too large", func(t *testing.T) {
		bad := append([]byte{}, good...)
		binary.LittleEndian.PutUint64(bad[headerSizeOffset:], MaxHeaderSize+1)
		_, err := Decode(bad)
		assert.ErrorIs(t, err, ErrHeaderTooLarge)
	})
}

func TestEncodeRejectsBadNames(t *testing.T) {
	state := map[string]*tensor.RawTensor{"../evil": tensor.MustNewRaw(tensor.Shape{1}, tensor.Float32, tensor.CPU)}
	var buf bytes.Buffer
	err := Encode(&buf, state, "x", nil)
	assert.ErrorIs(t, err, ErrInvalidTensorName)
}

func TestValidateTensorOffsets(t *testing.T) {
	tests := []struct {
		name    string
		tensors []TensorMeta
		want    error
	}{
		{"ok", []TensorMeta{{Name: "a", Offset: 0, Size: 8}, {Name: "b", Offset: 64, Size: 8}}, nil},
		{"overlap", []TensorMeta{{Name: "a", Offset: 0, Size: 16}, {Name: "b", Offset: 8, Size: 8}}, ErrOffsetOverlap},
		{"bounds", []TensorMeta{{Name: "a", Offset: 120, Size: 16}}, ErrOutOfBounds},
		{"negative", []TensorMeta{{Name: "a", Offset: -1, Size: 4}}, ErrNegativeOffset},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateTensorOffsets(tt.tensors, 128)
			if tt.want == nil {
				assert.NoError(t, err)
				return
			}
			assert.ErrorIs(t, err, tt.want)
			var verr *ValidationError
			assert.True(t, errors.As(err, &verr))
		})
	}
}

func TestValidateHeader(t *testing.T) {
	h := &Header{Tensors: []TensorMeta{{Name: "w", DType: "float32", Shape: []int{2}, Offset: 0, Size: 12}}}
	err := ValidateHeader(h, 64)
	assert.ErrorIs(t, err, ErrOutOfBounds)

	h.Tensors[0].Size = 8
	assert.NoError(t, ValidateHeader(h, 64))

	h.Tensors = append(h.Tensors, TensorMeta{Name: "w", DType: "float32", Shape: []int{1}, Offset: 8, Size: 4})
	assert.ErrorIs(t, ValidateHeader(h, 64), ErrInvalidTensorName)

	h.Tensors = []TensorMeta{{Name: "w", DType: "bfloat16", Shape: []int{1}, Size: 2}}
	assert.Error(t, ValidateHeader(h, 64))
}

func TestValidateTensorName(t *testing.T) {
	assert.NoError(t, ValidateTensorName("layer.0.weight"))
	for _, name := range []string{"", "a/b", `a\b`, "a..b", "a\x00b"} {
		assert.ErrorIs(t, ValidateTensorName(name), ErrInvalidTensorName, name)
	}
}
