package digits

import (
	"math/rand/v2"
)

// Synthetic image size.
const (
	SyntheticRows = 28
	SyntheticCols = 28
)

// segment is a stroke between two points of the seven-segment frame.
type segment struct{ x0, y0, x1, y1 int }

// Seven-segment frame: top, top-right, bottom-right, bottom, bottom-left,
// top-left, middle.
var segments = [7]segment{
	{9, 5, 18, 5},
	{18, 5, 18, 13},
	{18, 13, 18, 22},
	{9, 22, 18, 22},
	{9, 13, 9, 22},
	{9, 5, 9, 13},
	{9, 13, 18, 13},
}

// digitSegments lists the lit segments of each digit.
var digitSegments = [NumClasses][]int{
	{0, 1, 2, 3, 4, 5},
	{1, 2},
	{0, 1, 6, 4, 3},
	{0, 1, 6, 2, 3},
	{5, 6, 1, 2},
	{0, 5, 6, 2, 3},
	{0, 5, 6, 4, 3, 2},
	{0, 1, 2},
	{0, 1, 2, 3, 4, 5, 6},
	{0, 1, 2, 3, 5, 6},
}

// Synthetic draws n 28x28 digits, cycling through the classes. Each one is
// jittered by up to two pixels, varies in stroke intensity and carries light
// noise. Equal seeds give equal datasets.
func Synthetic(n int, seed uint64) *Dataset {
	rng := rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15))
	d := &Dataset{
		Images: make([][]float32, n),
		Labels: make([]int, n),
		Rows:   SyntheticRows,
		Cols:   SyntheticCols,
	}
	for i := range n {
		label := i % NumClasses
		d.Images[i] = drawDigit(label, rng)
		d.Labels[i] = label
	}
	return d
}

func drawDigit(label int, rng *rand.Rand) []float32 {
	img := make([]float32, SyntheticRows*SyntheticCols)
	dx, dy := rng.IntN(5)-2, rng.IntN(5)-2
	ink := 0.75 + 0.25*rng.Float32()

	for _, s := range digitSegments[label] {
		seg := segments[s]
		steps := max(abs(seg.x1-seg.x0), abs(seg.y1-seg.y0))
		for k := 0; k <= steps; k++ {
			x := seg.x0 + (seg.x1-seg.x0)*k/steps + dx
			y := seg.y0 + (seg.y1-seg.y0)*k/steps + dy
			// Two-pixel stroke.
			for _, p := range [][2]int{{x, y}, {x + 1, y}, {x, y + 1}, {x + 1, y + 1}} {
				if p[0] >= 0 && p[0] < SyntheticCols && p[1] >= 0 && p[1] < SyntheticRows {
					img[p[1]*SyntheticCols+p[0]] = ink
				}
			}
		}
	}

	for i := range img {
		v := img[i] + 0.05*float32(rng.NormFloat64())
		img[i] = min(max(v, 0), 1)
	}
	return img
}

func abs(v int) int {
	if v < 0 {
		return -v
	}
	return v
}
