// Package nn implements the neural network building blocks used by the
// model zoo and the explainer:
//   - Module interface: Forward + Parameters
//   - Parameter: trainable tensor with a gradient slot
//   - Layers: Linear, Conv2D, MaxPool2D, Flatten, Embedding, MeanPool
//   - Activations: ReLU, Sigmoid, Tanh, Softmax
//   - Sequential: ordered container that can be split for layer attributions
//   - Losses: CrossEntropyLoss, MSELoss, plus Accuracy
package nn

import (
	"github.com/born-ml/explain/internal/tensor"
)

// Module is the base interface for all neural network components.
//
// Modules compose:
//
//	model := nn.NewSequential[B](
//	    nn.NewLinear(784, 128, backend),
//	    nn.NewReLU[B](),
//	    nn.NewLinear(128, 10, backend),
//	)
type Module[B tensor.Backend] interface {
	// Forward computes the output of the module given an input tensor.
	Forward(input *tensor.Tensor[float32, B]) *tensor.Tensor[float32, B]

	// Parameters returns all trainable parameters, in a stable order.
	Parameters() []*Parameter[B]
}

// Func adapts a plain function to Module. It has no parameters.
type Func[B tensor.Backend] func(input *tensor.Tensor[float32, B]) *tensor.Tensor[float32, B]

// Forward calls f.
func (f Func[B]) Forward(input *tensor.Tensor[float32, B]) *tensor.Tensor[float32, B] {
	return f(input)
}

// Parameters returns nil.
func (f Func[B]) Parameters() []*Parameter[B] {
	return nil
}
