package explain

import "github.com/born-ml/explain/internal/tensor"

// Option customises a single Explain call.
type Option func(*explainOptions)

type explainOptions struct {
	baseline      *tensor.RawTensor
	baselineValue *float64
	nilBaseline   bool
	targets       []int
}

// WithBaselines sets per-instance baselines. The tensor must have the input's
// shape or the shape of one instance, which is then used for every instance.
// It replaces any earlier baseline option.
func WithBaselines[B tensor.Backend](baselines *tensor.Tensor[float32, B]) Option {
	return func(o *explainOptions) {
		o.baseline, o.baselineValue, o.nilBaseline = nil, nil, baselines == nil
		if baselines != nil {
			o.baseline = baselines.Raw()
		}
	}
}

// WithBaselineValue uses a constant baseline. It replaces any earlier
// baseline option.
func WithBaselineValue(v float64) Option {
	return func(o *explainOptions) {
		o.baseline, o.baselineValue, o.nilBaseline = nil, &v, false
	}
}

// WithTarget explains output index k for every instance.
func WithTarget(k int) Option {
	return func(o *explainOptions) {
		o.targets = []int{k}
	}
}

// WithTargets sets one target per instance.
func WithTargets(targets []int) Option {
	return func(o *explainOptions) {
		o.targets = append([]int{}, targets...)
	}
}
