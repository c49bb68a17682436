package digits

import (
	"bytes"
	"compress/gzip"
	"encoding/binary"
	"io"
	"math/rand/v2"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/born-ml/explain/internal/backend/cpu"
	"github.com/born-ml/explain/internal/tensor"
)

func writeIDX(t *testing.T, path string, gz bool, header []uint32, payload []byte) {
	t.Helper()
	var buf bytes.Buffer
	require.NoError(t, binary.Write(&buf, binary.BigEndian, header))
	buf.Write(payload)

	data := buf.Bytes()
	if gz {
		var z bytes.Buffer
		w := gzip.NewWriter(&z)
		_, err := w.Write(data)
		require.NoError(t, err)
		require.NoError(t, w.Close())
		data = z.Bytes()
		path += ".gz"
	}
	require.NoError(t, os.WriteFile(path, data, 0o600))
}

func writeMNIST(t *testing.T, dir, prefix string, gz bool) {
	t.Helper()
	// Three 2x2 images.
	pixels := []byte{0, 255, 51, 102, 255, 255, 0, 0, 1, 2, 3, 4}
	writeIDX(t, filepath.Join(dir, prefix+"-images-idx3-ubyte"), gz, []uint32{imageMagic, 3, 2, 2}, pixels)
	writeIDX(t, filepath.Join(dir, prefix+"-labels-idx1-ubyte"), gz, []uint32{labelMagic, 3}, []byte{7, 1, 9})
}

func TestLoadMNIST(t *testing.T) {
	for _, gz := range []bool{false, true} {
		dir := t.TempDir()
		writeMNIST(t, dir, "train", gz)

		d, err := LoadMNIST(dir, true, 0)
		require.NoError(t, err, "gzip=%v", gz)
		assert.Equal(t, 3, d.NumSamples())
		assert.Equal(t, 2, d.Rows)
		assert.Equal(t, 2, d.Cols)
		assert.Equal(t, []int{7, 1, 9}, d.Labels)
		assert.InDeltaSlice(t, []float32{0, 1, 0.2, 0.4}, d.Images[0], 1e-6)

		d, err = LoadMNIST(dir, true, 2)
		require.NoError(t, err)
		assert.Equal(t, 2, d.NumSamples())

		_, err = LoadMNIST(dir, false, 0)
		assert.Error(t, err)
	}
}

func TestLoadMNIST_BadMagic(t *testing.T) {
	dir := t.TempDir()
	writeIDX(t, filepath.Join(dir, "t10k-images-idx3-ubyte"), false, []uint32{1234, 0, 0, 0}, nil)
	_, err := LoadMNIST(dir, false, 0)
	assert.ErrorIs(t, err, ErrInvalidIDX)
}

func TestReadIDX_UntrustedHeader(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, binary.Write(&buf, binary.BigEndian, []uint32{imageMagic, 1, 1 << 20, 1 << 20}))
	_, _, _, err := readIDXImages(&buf, 0)
	assert.ErrorIs(t, err, ErrInvalidIDX)

	buf.Reset()
	require.NoError(t, binary.Write(&buf, binary.BigEndian, []uint32{imageMagic, 1 << 31, 2, 2}))
	buf.Write([]byte{1, 2, 3, 4, 5, 6, 7, 8})
	_, _, _, err = readIDXImages(&buf, 0)
	assert.ErrorIs(t, err, io.ErrUnexpectedEOF)

	buf.Reset()
	require.NoError(t, binary.Write(&buf, binary.BigEndian, []uint32{labelMagic, 1 << 31}))
	buf.Write([]byte{1, 2, 3})
	_, err = readIDXLabels(&buf, 0)
	assert.ErrorIs(t, err, io.ErrUnexpectedEOF)
}

func TestOpenIDX_ClosesGzip(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "train-labels-idx1-ubyte")
	writeIDX(t, path, true, []uint32{labelMagic, 2}, []byte{3, 4})

	rc, err := openIDX(path)
	require.NoError(t, err)
	f, ok := rc.(*idxFile)
	require.True(t, ok)
	require.NotNil(t, f.gz)

	labels, err := readIDXLabels(rc, 0)
	require.NoError(t, err)
	assert.Equal(t, []byte{3, 4}, labels)

	require.NoError(t, rc.Close())
	_, err = f.f.Stat()
	assert.ErrorIs(t, err, os.ErrClosed)
}

func TestSynthetic(t *testing.T) {
	d := Synthetic(25, 42)
	assert.Equal(t, 25, d.NumSamples())
	assert.Equal(t, SyntheticRows, d.Rows)
	assert.Equal(t, 3, d.Labels[13])

	for _, img := range d.Images {
		require.Len(t, img, SyntheticRows*SyntheticCols)
		var ink float32
		for _, v := range img {
			assert.True(t, v >= 0 && v <= 1)
			ink += v
		}
		assert.Greater(t, ink, float32(10))
	}

	assert.Equal(t, d.Images, Synthetic(25, 42).Images)
	assert.NotEqual(t, d.Images[0], Synthetic(25, 43).Images[0])

	// An eight lights every segment a one does.
	var one, eight float32
	for i := range d.Images[1] {
		one += d.Images[1][i]
		eight += d.Images[8][i]
	}
	assert.Greater(t, eight, one)
}

func TestSplitAndSubset(t *testing.T) {
	d := Synthetic(10, 1)
	train, val := d.Split(0.2)
	assert.Equal(t, 8, train.NumSamples())
	assert.Equal(t, 2, val.NumSamples())
	assert.Equal(t, []int{8, 9}, val.Labels)

	sub := d.Subset(3, 5)
	assert.Equal(t, []int{3, 5}, sub.Labels)
	assert.Equal(t, d.Rows, sub.Rows)
}

func TestBatches(t *testing.T) {
	b := cpu.New()
	d := Synthetic(10, 1)

	batches, err := Batches(d, 4, nil, b)
	require.NoError(t, err)
	require.Len(t, batches, 3)
	assert.Equal(t, tensor.Shape{4, 1, 28, 28}, batches[0].Images.Shape())
	assert.Equal(t, []int{0, 1, 2, 3}, batches[0].Labels)
	assert.Equal(t, 2, batches[2].Size)
	assert.Equal(t, d.Images[4], batches[1].Images.Data()[:28*28])

	shuffled, err := Batches(d, 10, rand.New(rand.NewPCG(1, 2)), b)
	require.NoError(t, err)
	assert.ElementsMatch(t, d.Labels, shuffled[0].Labels)

	_, err = Batches(d, 0, nil, b)
	assert.Error(t, err)

	all := Tensor(d, b)
	assert.Equal(t, tensor.Shape{10, 1, 28, 28}, all.Shape())
}
