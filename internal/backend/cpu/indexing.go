package cpu

import (
	"fmt"

	"github.com/born-ml/explain/internal/tensor"
)

// Embedding gathers rows of weight [V, D] for every index, producing
// indices.Shape + [D]. Float indices are truncated to integers.
func (cpu *CPUBackend) Embedding(weight, indices *tensor.RawTensor) *tensor.RawTensor {
	requireFloat("embedding", weight)
	ws := weight.Shape()
	if len(ws) != 2 {
		panic(fmt.Sprintf("embedding: weight must be 2D [V,D], got %v", ws))
	}

	ids := indices.Ints()
	vocab, dim := ws[0], ws[1]
	for _, id := range ids {
		if id < 0 || id >= vocab {
			panic(fmt.Sprintf("embedding: index %d out of range [0,%d)", id, vocab))
		}
	}

	outShape := append(indices.Shape().Clone(), dim)
	result := cpu.alloc("embedding", outShape, weight.DType())

	switch weight.DType() {
	case tensor.Float32:
		gatherRows(view[float32](result), view[float32](weight), ids, dim)
	case tensor.Float64:
		gatherRows(view[float64](result), view[float64](weight), ids, dim)
	}
	return result
}

func gatherRows[T float32 | float64](out, weight []T, ids []int, dim int) {
	for i, id := range ids {
		copy(out[i*dim:(i+1)*dim], weight[id*dim:(id+1)*dim])
	}
}
