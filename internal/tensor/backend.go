package tensor

// Backend defines the interface that all compute backends must implement.
// Backends handle the actual computation for tensor operations and never
// modify their inputs.
//
// Implementations:
//   - cpu.CPUBackend: pure Go, gonum BLAS for matrix products
//   - autodiff.AutodiffBackend: decorator that records a gradient tape
type Backend interface {
	// Element-wise binary operations with NumPy broadcasting.
	Add(a, b *RawTensor) *RawTensor
	Sub(a, b *RawTensor) *RawTensor
	Mul(a, b *RawTensor) *RawTensor
	Div(a, b *RawTensor) *RawTensor

	// MatMul multiplies 2D matrices: [M, K] @ [K, N] -> [M, N].
	MatMul(a, b *RawTensor) *RawTensor

	// Convolution and pooling over NCHW tensors.
	Conv2D(input, kernel *RawTensor, stride, padding int) *RawTensor
	Conv2DInputBackward(input, kernel, grad *RawTensor, stride, padding int) *RawTensor
	Conv2DKernelBackward(input, kernel, grad *RawTensor, stride, padding int) *RawTensor
	MaxPool2D(input *RawTensor, kernelSize, stride int) *RawTensor
	MaxPool2DBackward(input, grad *RawTensor, kernelSize, stride int) *RawTensor

	// Shape operations.
	Reshape(t *RawTensor, newShape Shape) *RawTensor
	Transpose(t *RawTensor, axes ...int) *RawTensor
	Expand(x *RawTensor, shape Shape) *RawTensor

	// Scalar operations.
	MulScalar(x *RawTensor, scalar float64) *RawTensor
	AddScalar(x *RawTensor, scalar float64) *RawTensor

	// Element-wise math and activations.
	Exp(x *RawTensor) *RawTensor
	Log(x *RawTensor) *RawTensor
	ReLU(x *RawTensor) *RawTensor
	Sigmoid(x *RawTensor) *RawTensor
	Tanh(x *RawTensor) *RawTensor
	Softmax(x *RawTensor, dim int) *RawTensor

	// Reductions.
	Sum(x *RawTensor) *RawTensor
	SumDim(x *RawTensor, dim int, keepDim bool) *RawTensor
	Argmax(x *RawTensor, dim int) *RawTensor

	// Embedding looks up rows of weight [V, D] for integer-valued indices.
	Embedding(weight, indices *RawTensor) *RawTensor

	// Cast converts to another data type.
	Cast(x *RawTensor, dtype DataType) *RawTensor

	Name() string
	Device() Device
}
