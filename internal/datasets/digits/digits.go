// Package digits loads handwritten digit datasets: MNIST in IDX format, or a
// synthetic stroke-based stand-in that needs no downloads.
package digits

import (
	"errors"
	"fmt"
	"math/rand/v2"
	"path/filepath"

	"github.com/born-ml/explain/internal/tensor"
)

// NumClasses is the number of digit classes.
const NumClasses = 10

// ErrInvalidIDX reports a file that is not in IDX format.
var ErrInvalidIDX = errors.New("invalid IDX file")

// Dataset holds images normalised to [0, 1] and their labels.
type Dataset struct {
	Images [][]float32 // [num_samples][rows*cols]
	Labels []int
	Rows   int
	Cols   int
}

// LoadMNIST reads the MNIST training or test set from dir. Files may be
// plain or gzipped (train-images-idx3-ubyte[.gz] and so on). maxSamples <= 0
// loads everything.
func LoadMNIST(dir string, train bool, maxSamples int) (*Dataset, error) {
	prefix := "t10k"
	if train {
		prefix = "train"
	}

	imgFile, err := openIDX(filepath.Join(dir, prefix+"-images-idx3-ubyte"))
	if err != nil {
		return nil, fmt.Errorf("failed to load images: %w", err)
	}
	defer func() { _ = imgFile.Close() }()
	imagesRaw, rows, cols, err := readIDXImages(imgFile, maxSamples)
	if err != nil {
		return nil, fmt.Errorf("failed to load images: %w", err)
	}

	lblFile, err := openIDX(filepath.Join(dir, prefix+"-labels-idx1-ubyte"))
	if err != nil {
		return nil, fmt.Errorf("failed to load labels: %w", err)
	}
	defer func() { _ = lblFile.Close() }()
	labelsRaw, err := readIDXLabels(lblFile, maxSamples)
	if err != nil {
		return nil, fmt.Errorf("failed to load labels: %w", err)
	}

	if len(imagesRaw) != len(labelsRaw) {
		return nil, fmt.Errorf("image count (%d) != label count (%d)", len(imagesRaw), len(labelsRaw))
	}

	d := &Dataset{
		Images: make([][]float32, len(imagesRaw)),
		Labels: make([]int, len(labelsRaw)),
		Rows:   rows,
		Cols:   cols,
	}
	for i, raw := range imagesRaw {
		img := make([]float32, len(raw))
		for j, p := range raw {
			img[j] = float32(p) / 255
		}
		d.Images[i] = img
		d.Labels[i] = int(labelsRaw[i])
	}
	return d, nil
}

// NumSamples returns the number of samples.
func (d *Dataset) NumSamples() int { return len(d.Images) }

// Split returns the first (1-validationRatio) share of samples and the rest.
// The halves share storage with d.
func (d *Dataset) Split(validationRatio float64) (train, val *Dataset) {
	idx := int(float64(d.NumSamples()) * (1 - validationRatio))
	idx = max(0, min(idx, d.NumSamples()))
	return &Dataset{Images: d.Images[:idx], Labels: d.Labels[:idx], Rows: d.Rows, Cols: d.Cols},
		&Dataset{Images: d.Images[idx:], Labels: d.Labels[idx:], Rows: d.Rows, Cols: d.Cols}
}

// Subset returns the samples at indices.
func (d *Dataset) Subset(indices ...int) *Dataset {
	out := &Dataset{Rows: d.Rows, Cols: d.Cols}
	for _, i := range indices {
		out.Images = append(out.Images, d.Images[i])
		out.Labels = append(out.Labels, d.Labels[i])
	}
	return out
}

// Batch is one mini-batch of images shaped [batch, 1, rows, cols].
type Batch[B tensor.Backend] struct {
	Images *tensor.Tensor[float32, B]
	Labels []int
	Size   int
}

// Tensor packs the whole dataset into one [n, 1, rows, cols] tensor.
func Tensor[B tensor.Backend](d *Dataset, backend B) *tensor.Tensor[float32, B] {
	return packImages(d, identity(d.NumSamples()), backend)
}

// Batches cuts d into mini-batches. A non-nil rng shuffles sample order.
func Batches[B tensor.Backend](d *Dataset, batchSize int, rng *rand.Rand, backend B) ([]*Batch[B], error) {
	if batchSize <= 0 {
		return nil, fmt.Errorf("invalid batch size %d", batchSize)
	}
	if len(d.Images) != len(d.Labels) {
		return nil, fmt.Errorf("images and labels length mismatch")
	}

	indices := identity(d.NumSamples())
	if rng != nil {
		rng.Shuffle(len(indices), func(i, j int) {
			indices[i], indices[j] = indices[j], indices[i]
		})
	}

	batches := make([]*Batch[B], 0, (len(indices)+batchSize-1)/batchSize)
	for start := 0; start < len(indices); start += batchSize {
		chunk := indices[start:min(start+batchSize, len(indices))]
		labels := make([]int, len(chunk))
		for j, idx := range chunk {
			labels[j] = d.Labels[idx]
		}
		batches = append(batches, &Batch[B]{
			Images: packImages(d, chunk, backend),
			Labels: labels,
			Size:   len(chunk),
		})
	}
	return batches, nil
}

func packImages[B tensor.Backend](d *Dataset, indices []int, backend B) *tensor.Tensor[float32, B] {
	size := d.Rows * d.Cols
	data := make([]float32, len(indices)*size)
	for j, idx := range indices {
		copy(data[j*size:(j+1)*size], d.Images[idx])
	}
	return tensor.MustFromSlice(data, tensor.Shape{len(indices), 1, d.Rows, d.Cols}, backend)
}

func identity(n int) []int {
	idx := make([]int, n)
	for i := range idx {
		idx[i] = i
	}
	return idx
}
