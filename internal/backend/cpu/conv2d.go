package cpu

import (
	"fmt"

	"github.com/born-ml/explain/internal/parallel"
	"github.com/born-ml/explain/internal/tensor"
)

// convGeom holds the dimensions of one NCHW convolution.
type convGeom struct {
	N, CIn, H, W    int
	COut, KH, KW    int
	HOut, WOut      int
	stride, padding int
}

func (g convGeom) patch() int     { return g.CIn * g.KH * g.KW }
func (g convGeom) positions() int { return g.HOut * g.WOut }

func newConvGeom(op string, input, kernel *tensor.RawTensor, stride, padding int) convGeom {
	is, ks := input.Shape(), kernel.Shape()
	if len(is) != 4 {
		panic(fmt.Sprintf("%s: input must be 4D [N,C,H,W], got %dD", op, len(is)))
	}
	if len(ks) != 4 {
		panic(fmt.Sprintf("%s: kernel must be 4D [C_out,C_in,K_h,K_w], got %dD", op, len(ks)))
	}
	if is[1] != ks[1] {
		panic(fmt.Sprintf("%s: input channels %d != kernel channels %d", op, is[1], ks[1]))
	}
	if stride <= 0 || padding < 0 {
		panic(fmt.Sprintf("%s: invalid stride %d or padding %d", op, stride, padding))
	}

	g := convGeom{
		N: is[0], CIn: is[1], H: is[2], W: is[3],
		COut: ks[0], KH: ks[2], KW: ks[3],
		stride: stride, padding: padding,
	}
	g.HOut = (g.H+2*padding-g.KH)/stride + 1
	g.WOut = (g.W+2*padding-g.KW)/stride + 1
	if g.HOut <= 0 || g.WOut <= 0 {
		panic(fmt.Sprintf("%s: invalid output dimensions: out_h=%d, out_w=%d (check stride/padding)", op, g.HOut, g.WOut))
	}
	return g
}

// Conv2D performs 2D convolution using im2col followed by a BLAS Gemm.
//
// Input shape: [N, C_in, H, W]
// Kernel shape: [C_out, C_in, K_h, K_w]
// Output shape: [N, C_out, H_out, W_out]
//
// For each sample the input patches are unrolled into a [C_in*K_h*K_w, H_out*W_out]
// matrix so that the convolution becomes kernel @ columns.
func (cpu *CPUBackend) Conv2D(input, kernel *tensor.RawTensor, stride, padding int) *tensor.RawTensor {
	requireFloat("conv2d", input)
	requireSameDType("conv2d", input, kernel)
	g := newConvGeom("conv2d", input, kernel, stride, padding)

	output := cpu.alloc("conv2d", tensor.Shape{g.N, g.COut, g.HOut, g.WOut}, input.DType())

	switch input.DType() {
	case tensor.Float32:
		conv2dForward(view[float32](output), view[float32](input), view[float32](kernel), g, cpu.batchConfig())
	case tensor.Float64:
		conv2dForward(view[float64](output), view[float64](input), view[float64](kernel), g, cpu.batchConfig())
	}
	return output
}

// Conv2DInputBackward computes the gradient w.r.t. the input:
// columns = kernel^T @ grad, then col2im scatters the columns back.
func (cpu *CPUBackend) Conv2DInputBackward(input, kernel, grad *tensor.RawTensor, stride, padding int) *tensor.RawTensor {
	requireFloat("conv2d_input_backward", grad)
	g := newConvGeom("conv2d_input_backward", input, kernel, stride, padding)

	inputGrad := cpu.alloc("conv2d_input_backward", input.Shape(), grad.DType())

	switch grad.DType() {
	case tensor.Float32:
		conv2dInputBackward(view[float32](inputGrad), view[float32](kernel), view[float32](grad), g, cpu.batchConfig())
	case tensor.Float64:
		conv2dInputBackward(view[float64](inputGrad), view[float64](kernel), view[float64](grad), g, cpu.batchConfig())
	}
	return inputGrad
}

// Conv2DKernelBackward computes the gradient w.r.t. the kernel by summing
// grad_n @ columns_n^T over the batch.
func (cpu *CPUBackend) Conv2DKernelBackward(input, kernel, grad *tensor.RawTensor, stride, padding int) *tensor.RawTensor {
	requireFloat("conv2d_kernel_backward", grad)
	g := newConvGeom("conv2d_kernel_backward", input, kernel, stride, padding)

	kernelGrad := cpu.alloc("conv2d_kernel_backward", kernel.Shape(), grad.DType())

	switch grad.DType() {
	case tensor.Float32:
		conv2dKernelBackward(view[float32](kernelGrad), view[float32](input), view[float32](grad), g)
	case tensor.Float64:
		conv2dKernelBackward(view[float64](kernelGrad), view[float64](input), view[float64](grad), g)
	}
	return kernelGrad
}

// batchConfig parallelises over samples regardless of MinChunkSize since each
// sample is already a large unit of work.
func (cpu *CPUBackend) batchConfig() parallel.Config {
	cfg := cpu.par
	cfg.MinChunkSize = 1
	return cfg
}

func conv2dForward[T float32 | float64](out, in, kernel []T, g convGeom, cfg parallel.Config) {
	inSize := g.CIn * g.H * g.W
	outSize := g.COut * g.positions()

	parallel.For(g.N, func(n int) {
		col := make([]T, g.patch()*g.positions())
		im2col(col, in[n*inSize:(n+1)*inSize], g)
		gemm(false, false, g.COut, g.positions(), g.patch(), kernel, col, out[n*outSize:(n+1)*outSize])
	}, cfg)
}

func conv2dInputBackward[T float32 | float64](inGrad, kernel, grad []T, g convGeom, cfg parallel.Config) {
	inSize := g.CIn * g.H * g.W
	outSize := g.COut * g.positions()

	parallel.For(g.N, func(n int) {
		col := make([]T, g.patch()*g.positions())
		gemm(true, false, g.patch(), g.positions(), g.COut, kernel, grad[n*outSize:(n+1)*outSize], col)
		col2im(inGrad[n*inSize:(n+1)*inSize], col, g)
	}, cfg)
}

func conv2dKernelBackward[T float32 | float64](kGrad, in, grad []T, g convGeom) {
	inSize := g.CIn * g.H * g.W
	outSize := g.COut * g.positions()
	col := make([]T, g.patch()*g.positions())
	tmp := make([]T, len(kGrad))

	for n := 0; n < g.N; n++ {
		im2col(col, in[n*inSize:(n+1)*inSize], g)
		gemm(false, true, g.COut, g.patch(), g.positions(), grad[n*outSize:(n+1)*outSize], col, tmp)
		for i, v := range tmp {
			kGrad[i] += v
		}
	}
}

// im2col unrolls one [C, H, W] sample into col [C*K_h*K_w, H_out*W_out].
// Out-of-bounds taps read as zero padding.
func im2col[T float32 | float64](col, in []T, g convGeom) {
	p := g.positions()
	row := 0
	for c := 0; c < g.CIn; c++ {
		for kh := 0; kh < g.KH; kh++ {
			for kw := 0; kw < g.KW; kw++ {
				dst := col[row*p : (row+1)*p]
				for oh := 0; oh < g.HOut; oh++ {
					h := oh*g.stride - g.padding + kh
					for ow := 0; ow < g.WOut; ow++ {
						w := ow*g.stride - g.padding + kw
						if h >= 0 && h < g.H && w >= 0 && w < g.W {
							dst[oh*g.WOut+ow] = in[(c*g.H+h)*g.W+w]
						} else {
							dst[oh*g.WOut+ow] = 0
						}
					}
				}
				row++
			}
		}
	}
}

// col2im is the adjoint of im2col: it accumulates col back into in.
func col2im[T float32 | float64](in, col []T, g convGeom) {
	p := g.positions()
	row := 0
	for c := 0; c < g.CIn; c++ {
		for kh := 0; kh < g.KH; kh++ {
			for kw := 0; kw < g.KW; kw++ {
				src := col[row*p : (row+1)*p]
				for oh := 0; oh < g.HOut; oh++ {
					h := oh*g.stride - g.padding + kh
					if h < 0 || h >= g.H {
						continue
					}
					for ow := 0; ow < g.WOut; ow++ {
						w := ow*g.stride - g.padding + kw
						if w >= 0 && w < g.W {
							in[(c*g.H+h)*g.W+w] += src[oh*g.WOut+ow]
						}
					}
				}
				row++
			}
		}
	}
}

// gemm dispatches to the float32 or float64 BLAS routine.
func gemm[T float32 | float64](transA, transB bool, m, n, k int, a, b, c []T) {
	switch av := any(a).(type) {
	case []float32:
		gemm32(transA, transB, m, n, k, av, any(b).([]float32), any(c).([]float32))
	case []float64:
		gemm64(transA, transB, m, n, k, av, any(b).([]float64), any(c).([]float64))
	}
}
