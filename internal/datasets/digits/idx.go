package digits

import (
	"bufio"
	"compress/gzip"
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"os"
)

// IDX magic numbers.
const (
	imageMagic = 2051
	labelMagic = 2049
)

// Header sanity limits. Counts are not trusted for allocation: images are
// allocated as they are read and labels through a limited reader.
const (
	maxImageSide  = 4096
	preallocLimit = 1 << 16
)

// idxFile closes the gzip stream, when there is one, and the file.
type idxFile struct {
	io.Reader
	gz *gzip.Reader
	f  *os.File
}

func (x *idxFile) Close() error {
	var gzErr error
	if x.gz != nil {
		gzErr = x.gz.Close()
	}
	return errors.Join(gzErr, x.f.Close())
}

// openIDX opens path, or path+".gz", decompressing gzip transparently.
func openIDX(path string) (io.ReadCloser, error) {
	//nolint:gosec // G304: dataset paths come from the caller
	f, err := os.Open(path)
	if os.IsNotExist(err) {
		//nolint:gosec // G304: dataset paths come from the caller
		f, err = os.Open(path + ".gz")
	}
	if err != nil {
		return nil, err
	}

	br := bufio.NewReader(f)
	head, err := br.Peek(2)
	if err == nil && head[0] == 0x1f && head[1] == 0x8b {
		gz, err := gzip.NewReader(br)
		if err != nil {
			_ = f.Close()
			return nil, fmt.Errorf("gzip: %w", err)
		}
		return &idxFile{Reader: gz, gz: gz, f: f}, nil
	}
	return &idxFile{Reader: br, f: f}, nil
}

// readIDXImages reads an IDX image file.
//
//	magic number: 0x00000803 (2051)
//	number of images, rows, cols: 4 bytes each
//	pixel data: unsigned bytes (0-255)
func readIDXImages(r io.Reader, limit int) (images [][]byte, rows, cols int, err error) {
	var header [4]uint32
	if err := binary.Read(r, binary.BigEndian, &header); err != nil {
		return nil, 0, 0, fmt.Errorf("failed to read header: %w", err)
	}
	if header[0] != imageMagic {
		return nil, 0, 0, fmt.Errorf("%w: got %d, want %d", ErrInvalidIDX, header[0], imageMagic)
	}

	n, rows, cols := int(header[1]), int(header[2]), int(header[3])
	if rows <= 0 || cols <= 0 || rows > maxImageSide || cols > maxImageSide {
		return nil, 0, 0, fmt.Errorf("%w: image size %dx%d", ErrInvalidIDX, rows, cols)
	}
	if limit > 0 && n > limit {
		n = limit
	}
	images = make([][]byte, 0, min(n, preallocLimit))
	for i := range n {
		img := make([]byte, rows*cols)
		if _, err := io.ReadFull(r, img); err != nil {
			if errors.Is(err, io.EOF) {
				err = io.ErrUnexpectedEOF
			}
			return nil, 0, 0, fmt.Errorf("failed to read image %d of %d: %w", i, n, err)
		}
		images = append(images, img)
	}
	return images, rows, cols, nil
}

// readIDXLabels reads an IDX label file.
//
//	magic number: 0x00000801 (2049)
//	number of labels: 4 bytes
//	label data: unsigned bytes (0-9)
func readIDXLabels(r io.Reader, limit int) ([]byte, error) {
	var header [2]uint32
	if err := binary.Read(r, binary.BigEndian, &header); err != nil {
		return nil, fmt.Errorf("failed to read header: %w", err)
	}
	if header[0] != labelMagic {
		return nil, fmt.Errorf("%w: got %d, want %d", ErrInvalidIDX, header[0], labelMagic)
	}

	n := int(header[1])
	if limit > 0 && n > limit {
		n = limit
	}
	labels, err := io.ReadAll(io.LimitReader(r, int64(n)))
	if err != nil {
		return nil, fmt.Errorf("failed to read labels: %w", err)
	}
	if len(labels) != n {
		return nil, fmt.Errorf("failed to read labels: got %d of %d: %w", len(labels), n, io.ErrUnexpectedEOF)
	}
	return labels, nil
}
