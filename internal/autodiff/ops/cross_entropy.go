package ops

import (
	"fmt"
	"math"

	"github.com/born-ml/explain/internal/tensor"
)

// CrossEntropyOp represents the fused softmax cross-entropy loss.
//
// Forward:
//
//	Loss = mean(-log_softmax(logits)[targets])
//
// Backward:
//
//	∂L/∂logits = (softmax(logits) - y_one_hot) / batch_size
//
// Logits are [batch_size, num_classes]; targets are class indices.
type CrossEntropyOp struct {
	logits  *tensor.RawTensor
	targets []int
	output  *tensor.RawTensor
}

// NewCrossEntropyOp creates a new CrossEntropyOp.
func NewCrossEntropyOp(logits *tensor.RawTensor, targets []int, output *tensor.RawTensor) *CrossEntropyOp {
	return &CrossEntropyOp{logits: logits, targets: targets, output: output}
}

// Inputs returns [logits].
func (op *CrossEntropyOp) Inputs() []*tensor.RawTensor { return []*tensor.RawTensor{op.logits} }

// Output returns the scalar loss.
func (op *CrossEntropyOp) Output() *tensor.RawTensor { return op.output }

// Backward computes the gradient with respect to the logits.
func (op *CrossEntropyOp) Backward(outputGrad *tensor.RawTensor, _ tensor.Backend) []*tensor.RawTensor {
	logits := op.logits.Float64s()
	shape := op.logits.Shape()
	batch, classes := shape[0], shape[1]
	scale := outputGrad.Float64s()[0] / float64(batch)

	grad := make([]float64, len(logits))
	for b := 0; b < batch; b++ {
		probs := Softmax(logits[b*classes : (b+1)*classes])
		for c, p := range probs {
			if c == op.targets[b] {
				p--
			}
			grad[b*classes+c] = p * scale
		}
	}

	out := tensor.MustNewRaw(shape, op.logits.DType(), op.logits.Device())
	switch out.DType() {
	case tensor.Float32:
		for i, v := range grad {
			out.AsFloat32()[i] = float32(v)
		}
	case tensor.Float64:
		copy(out.AsFloat64(), grad)
	}
	return []*tensor.RawTensor{out}
}

// CrossEntropyLoss computes mean(-log_softmax(logits)[targets]) using the
// log-sum-exp trick.
func CrossEntropyLoss(logits []float64, targets []int, classes int) float64 {
	batch := len(targets)
	var total float64
	for b := 0; b < batch; b++ {
		row := logits[b*classes : (b+1)*classes]
		t := targets[b]
		if t < 0 || t >= classes {
			panic(fmt.Sprintf("cross_entropy: target %d out of range [0,%d)", t, classes))
		}
		maxVal := math.Inf(-1)
		for _, v := range row {
			maxVal = math.Max(maxVal, v)
		}
		var sum float64
		for _, v := range row {
			sum += math.Exp(v - maxVal)
		}
		total += maxVal + math.Log(sum) - row[t]
	}
	return total / float64(batch)
}

// Softmax returns the max-shifted softmax of one row.
func Softmax(row []float64) []float64 {
	maxVal := math.Inf(-1)
	for _, v := range row {
		maxVal = math.Max(maxVal, v)
	}
	out := make([]float64, len(row))
	var sum float64
	for i, v := range row {
		out[i] = math.Exp(v - maxVal)
		sum += out[i]
	}
	for i := range out {
		out[i] /= sum
	}
	return out
}
