package ops

import "github.com/born-ml/explain/internal/tensor"

// Conv2DOp represents a 2D convolution over NCHW input.
//
// Backward pass delegates to the backend:
//   - grad_input  = Conv2DInputBackward(input, kernel, grad)
//   - grad_kernel = Conv2DKernelBackward(input, kernel, grad)
type Conv2DOp struct {
	input, kernel   *tensor.RawTensor
	output          *tensor.RawTensor
	stride, padding int
}

// NewConv2DOp creates a new Conv2DOp.
func NewConv2DOp(input, kernel, output *tensor.RawTensor, stride, padding int) *Conv2DOp {
	return &Conv2DOp{input: input, kernel: kernel, output: output, stride: stride, padding: padding}
}

// Backward computes gradients for the input and the kernel.
func (op *Conv2DOp) Backward(outputGrad *tensor.RawTensor, backend tensor.Backend) []*tensor.RawTensor {
	return []*tensor.RawTensor{
		backend.Conv2DInputBackward(op.input, op.kernel, outputGrad, op.stride, op.padding),
		backend.Conv2DKernelBackward(op.input, op.kernel, outputGrad, op.stride, op.padding),
	}
}

// Inputs returns [input, kernel].
func (op *Conv2DOp) Inputs() []*tensor.RawTensor { return []*tensor.RawTensor{op.input, op.kernel} }

// Output returns the convolution result.
func (op *Conv2DOp) Output() *tensor.RawTensor { return op.output }

// MaxPool2DOp represents max pooling. Gradients flow only to the window
// maxima.
type MaxPool2DOp struct {
	unaryOp
	kernelSize, stride int
}

// NewMaxPool2DOp creates a new MaxPool2DOp.
func NewMaxPool2DOp(input, output *tensor.RawTensor, kernelSize, stride int) *MaxPool2DOp {
	return &MaxPool2DOp{unaryOp: unaryOp{input, output}, kernelSize: kernelSize, stride: stride}
}

// Backward routes the gradient to the max positions.
func (op *MaxPool2DOp) Backward(outputGrad *tensor.RawTensor, backend tensor.Backend) []*tensor.RawTensor {
	return []*tensor.RawTensor{backend.MaxPool2DBackward(op.input, outputGrad, op.kernelSize, op.stride)}
}
