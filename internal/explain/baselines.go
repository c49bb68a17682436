package explain

import (
	"fmt"

	"github.com/born-ml/explain/internal/tensor"
)

// resolveBaselines expands the baseline options to a full batch matching
// input. Without options the baseline is all zeros.
func resolveBaselines(input *tensor.RawTensor, o *explainOptions) ([]float32, error) {
	if o.nilBaseline {
		return nil, fmt.Errorf("%w: nil baselines", ErrInvalidInput)
	}
	out := make([]float32, input.NumElements())
	switch {
	case o.baselineValue != nil:
		v := float32(*o.baselineValue)
		for i := range out {
			out[i] = v
		}
	case o.baseline != nil:
		b := o.baseline
		if b.DType() != tensor.Float32 {
			return nil, fmt.Errorf("%w: baselines are %s, want float32", ErrInvalidInput, b.DType())
		}
		shape := input.Shape()
		switch {
		case b.Shape().Equal(shape):
			copy(out, b.AsFloat32())
		case b.Shape().Equal(shape[1:]):
			per := b.AsFloat32()
			for i := 0; i < shape[0]; i++ {
				copy(out[i*len(per):], per)
			}
		default:
			return nil, fmt.Errorf("%w: baselines %v, inputs %v", ErrShapeMismatch, b.Shape(), shape)
		}
	}
	return out, nil
}
