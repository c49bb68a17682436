package ops

import (
	"fmt"

	"github.com/born-ml/explain/internal/tensor"
)

// EmbeddingOp represents an embedding lookup: output[i] = weight[indices[i]].
//
// Backward scatter-adds the output gradient into the weight rows; indices
// that repeat accumulate. Indices receive no gradient.
type EmbeddingOp struct {
	weight *tensor.RawTensor
	ids    []int
	output *tensor.RawTensor
}

// NewEmbeddingOp creates a new EmbeddingOp from already-resolved integer ids.
func NewEmbeddingOp(weight *tensor.RawTensor, ids []int, output *tensor.RawTensor) *EmbeddingOp {
	return &EmbeddingOp{weight: weight, ids: ids, output: output}
}

// Inputs returns [weight].
func (op *EmbeddingOp) Inputs() []*tensor.RawTensor { return []*tensor.RawTensor{op.weight} }

// Output returns the gathered embeddings.
func (op *EmbeddingOp) Output() *tensor.RawTensor { return op.output }

// Backward computes the weight gradient.
func (op *EmbeddingOp) Backward(outputGrad *tensor.RawTensor, backend tensor.Backend) []*tensor.RawTensor {
	dim := op.weight.Shape()[1]
	grad := tensor.MustNewRaw(op.weight.Shape(), op.weight.DType(), backend.Device())

	switch op.weight.DType() {
	case tensor.Float32:
		scatterAdd(grad.AsFloat32(), outputGrad.AsFloat32(), op.ids, dim)
	case tensor.Float64:
		scatterAdd(grad.AsFloat64(), outputGrad.AsFloat64(), op.ids, dim)
	default:
		panic(fmt.Sprintf("embedding: unsupported dtype %s", op.weight.DType()))
	}
	return []*tensor.RawTensor{grad}
}

func scatterAdd[T float32 | float64](dst, src []T, ids []int, dim int) {
	for i, id := range ids {
		row := dst[id*dim : (id+1)*dim]
		for j, v := range src[i*dim : (i+1)*dim] {
			row[j] += v
		}
	}
}
