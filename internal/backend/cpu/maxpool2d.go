package cpu

import (
	"fmt"

	"github.com/born-ml/explain/internal/tensor"
)

type poolGeom struct {
	N, C, H, W int
	HOut, WOut int
	k, stride  int
}

func newPoolGeom(op string, input *tensor.RawTensor, kernelSize, stride int) poolGeom {
	s := input.Shape()
	if len(s) != 4 {
		panic(fmt.Sprintf("%s: input must be 4D [N,C,H,W], got %dD", op, len(s)))
	}
	if kernelSize <= 0 || stride <= 0 {
		panic(fmt.Sprintf("%s: invalid kernel size %d or stride %d", op, kernelSize, stride))
	}
	g := poolGeom{N: s[0], C: s[1], H: s[2], W: s[3], k: kernelSize, stride: stride}
	g.HOut = (g.H-kernelSize)/stride + 1
	g.WOut = (g.W-kernelSize)/stride + 1
	if g.HOut <= 0 || g.WOut <= 0 {
		panic(fmt.Sprintf("%s: kernel %d larger than input %dx%d", op, kernelSize, g.H, g.W))
	}
	return g
}

// MaxPool2D applies max pooling over [N, C, H, W] without padding.
func (cpu *CPUBackend) MaxPool2D(input *tensor.RawTensor, kernelSize, stride int) *tensor.RawTensor {
	requireFloat("maxpool2d", input)
	g := newPoolGeom("maxpool2d", input, kernelSize, stride)
	output := cpu.alloc("maxpool2d", tensor.Shape{g.N, g.C, g.HOut, g.WOut}, input.DType())

	switch input.DType() {
	case tensor.Float32:
		maxPoolForward(view[float32](output), view[float32](input), g)
	case tensor.Float64:
		maxPoolForward(view[float64](output), view[float64](input), g)
	}
	return output
}

// MaxPool2DBackward routes each output gradient to the position that held
// the window maximum. Ties go to the first position in row-major order.
func (cpu *CPUBackend) MaxPool2DBackward(input, grad *tensor.RawTensor, kernelSize, stride int) *tensor.RawTensor {
	requireFloat("maxpool2d_backward", grad)
	g := newPoolGeom("maxpool2d_backward", input, kernelSize, stride)
	inputGrad := cpu.alloc("maxpool2d_backward", input.Shape(), grad.DType())

	switch grad.DType() {
	case tensor.Float32:
		maxPoolBackward(view[float32](inputGrad), view[float32](input), view[float32](grad), g)
	case tensor.Float64:
		maxPoolBackward(view[float64](inputGrad), view[float64](input), view[float64](grad), g)
	}
	return inputGrad
}

// windowArgmax returns the flat input index of the maximum of one window.
func windowArgmax[T float32 | float64](in []T, base, oh, ow int, g poolGeom) int {
	best := -1
	for kh := 0; kh < g.k; kh++ {
		h := oh*g.stride + kh
		for kw := 0; kw < g.k; kw++ {
			idx := base + h*g.W + ow*g.stride + kw
			if best < 0 || in[idx] > in[best] {
				best = idx
			}
		}
	}
	return best
}

func maxPoolForward[T float32 | float64](out, in []T, g poolGeom) {
	o := 0
	for nc := 0; nc < g.N*g.C; nc++ {
		base := nc * g.H * g.W
		for oh := 0; oh < g.HOut; oh++ {
			for ow := 0; ow < g.WOut; ow++ {
				out[o] = in[windowArgmax(in, base, oh, ow, g)]
				o++
			}
		}
	}
}

func maxPoolBackward[T float32 | float64](inGrad, in, grad []T, g poolGeom) {
	o := 0
	for nc := 0; nc < g.N*g.C; nc++ {
		base := nc * g.H * g.W
		for oh := 0; oh < g.HOut; oh++ {
			for ow := 0; ow < g.WOut; ow++ {
				inGrad[windowArgmax(in, base, oh, ow, g)] += grad[o]
				o++
			}
		}
	}
}
