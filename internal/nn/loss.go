package nn

import (
	"fmt"

	"github.com/born-ml/explain/internal/tensor"
)

// crossEntropyBackend is implemented by backends with a fused, differentiable
// cross-entropy (autodiff.AutodiffBackend).
type crossEntropyBackend interface {
	CrossEntropy(logits *tensor.RawTensor, targets []int) *tensor.RawTensor
}

// CrossEntropyLoss computes mean softmax cross-entropy for multi-class
// classification.
//
// Example:
//
//	criterion := nn.NewCrossEntropyLoss(backend)
//	loss := criterion.Forward(logits, labels) // logits [N, C], labels [N]
type CrossEntropyLoss[B tensor.Backend] struct {
	backend B
}

// NewCrossEntropyLoss creates a cross-entropy loss.
func NewCrossEntropyLoss[B tensor.Backend](backend B) *CrossEntropyLoss[B] {
	return &CrossEntropyLoss[B]{backend: backend}
}

// Forward returns the scalar loss. Labels must lie in [0, C).
func (c *CrossEntropyLoss[B]) Forward(logits *tensor.Tensor[float32, B], labels []int) *tensor.Tensor[float32, B] {
	shape := logits.Shape()
	if len(shape) != 2 || shape[0] != len(labels) {
		panic(fmt.Sprintf("cross_entropy: logits %v do not match %d labels", shape, len(labels)))
	}

	if ce, ok := any(c.backend).(crossEntropyBackend); ok {
		return tensor.New[float32, B](ce.CrossEntropy(logits.Raw(), labels), c.backend)
	}

	// Without a fused kernel: -mean(sum(onehot * log_softmax)).
	onehot := tensor.Zeros[float32](shape, c.backend)
	for i, l := range labels {
		onehot.Set(1, i, l)
	}
	logp := logits.Softmax(-1).Log()
	return logp.Mul(onehot).Sum().MulScalar(-1 / float64(len(labels)))
}

// MSELoss computes mean((pred - target)^2).
type MSELoss[B tensor.Backend] struct{}

// NewMSELoss creates a mean squared error loss.
func NewMSELoss[B tensor.Backend]() *MSELoss[B] { return &MSELoss[B]{} }

// Forward returns the scalar loss.
func (m *MSELoss[B]) Forward(pred, target *tensor.Tensor[float32, B]) *tensor.Tensor[float32, B] {
	diff := pred.Sub(target)
	return diff.Mul(diff).Sum().MulScalar(1 / float64(pred.NumElements()))
}

// Accuracy returns the fraction of rows of logits [N, C] whose argmax equals
// the label.
func Accuracy[B tensor.Backend](logits *tensor.Tensor[float32, B], labels []int) float64 {
	if len(labels) == 0 {
		return 0
	}
	pred := logits.Argmax(-1).Data()
	correct := 0
	for i, l := range labels {
		if int(pred[i]) == l {
			correct++
		}
	}
	return float64(correct) / float64(len(labels))
}
