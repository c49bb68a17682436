package explain

import (
	"fmt"
	"log/slog"
	"reflect"

	"github.com/born-ml/explain/internal/autodiff"
	"github.com/born-ml/explain/internal/nn"
	"github.com/born-ml/explain/internal/tensor"
)

// IntegratedGradients explains model outputs with Integrated Gradients.
// It is immutable after construction.
type IntegratedGradients[B autodiff.BackwardCapable] struct {
	model   Model[B]
	layer   *nn.Split[B]
	backend B
	cfg     Config
	alphas  []float64
	weights []float64
	logger  *slog.Logger
}

// New creates an explainer that attributes model outputs to model inputs.
func New[B autodiff.BackwardCapable](model Model[B], backend B, cfg Config) (*IntegratedGradients[B], error) {
	if isNil(model) {
		return nil, ErrNilModel
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	cfg = cfg.withDefaults()

	alphas, weights, err := ApproximationParameters(cfg.Method, cfg.NSteps)
	if err != nil {
		return nil, err
	}
	return &IntegratedGradients[B]{
		model:   model,
		backend: backend,
		cfg:     cfg,
		alphas:  alphas,
		weights: weights,
		logger:  cfg.Logger,
	}, nil
}

// NewForLayer creates an explainer that attributes outputs to the activation
// between split.Head and split.Tail. Attributions take the activation's
// shape; inputs and baselines are still given in the model's input space.
func NewForLayer[B autodiff.BackwardCapable](split *nn.Split[B], backend B, cfg Config) (*IntegratedGradients[B], error) {
	if split == nil || isNil(split.Head) || isNil(split.Tail) {
		return nil, ErrNilModel
	}
	ig, err := New[B](nn.NewSequential(split.Head, split.Tail), backend, cfg)
	if err != nil {
		return nil, err
	}
	ig.layer = split
	return ig, nil
}

// Config returns the effective configuration.
func (ig *IntegratedGradients[B]) Config() Config { return ig.cfg }

// Explain computes attributions for every instance in x, a float32 tensor
// of shape [batch, features...]. The backend's tape is cleared on return and
// its recording state restored.
func (ig *IntegratedGradients[B]) Explain(x *tensor.Tensor[float32, B], opts ...Option) (*Explanation, error) {
	var o explainOptions
	for _, opt := range opts {
		opt(&o)
	}

	if x == nil {
		return nil, fmt.Errorf("%w: nil input", ErrInvalidInput)
	}
	shape := x.Shape()
	if len(shape) < 2 || shape.Validate() != nil {
		return nil, fmt.Errorf("%w: input shape %v (want [batch, features...])", ErrInvalidInput, shape)
	}
	n := shape[0]

	baseData, err := resolveBaselines(x.Raw(), &o)
	if err != nil {
		return nil, err
	}
	baselines, err := tensor.FromSlice(baseData, shape.Clone(), ig.backend)
	if err != nil {
		return nil, err
	}

	tape := ig.backend.Tape()
	wasRecording := tape.IsRecording()
	tape.StopRecording()
	defer func() {
		tape.Clear()
		if wasRecording {
			tape.StartRecording()
		}
	}()

	out := ig.model.Forward(x)
	predictions := arrayOf(out.Raw())
	outN, classes, err := outputLayout(predictions.Shape)
	if err != nil {
		return nil, err
	}
	if outN != n {
		return nil, fmt.Errorf("%w: output batch %d, input batch %d", ErrUnsupportedOutput, outN, n)
	}

	targets, err := resolveTargets(o.targets, ig.cfg.TargetFn, predictions, n, classes)
	if err != nil {
		return nil, err
	}

	// Integration endpoints: the inputs themselves, or their activations.
	path := Model[B](ig.model)
	start, end := baselines, x
	if ig.layer != nil {
		path = ig.layer.Tail
		start = ig.layer.Head.Forward(baselines)
		end = ig.layer.Head.Forward(x)
		if s := end.Shape(); len(s) < 1 || s[0] != n {
			return nil, fmt.Errorf("%w: layer %q activation shape %v", ErrUnsupportedOutput, ig.layer.Name, s)
		}
	}
	baseOut := path.Forward(start).Raw().Float64s()

	integrated := ig.integrate(path, start, end, targets, classes)

	lo, hi := start.Raw().Float64s(), end.Raw().Float64s()
	attributions := Array{Shape: []int(end.Shape().Clone()), Values: make([]float64, len(hi))}
	for j := range hi {
		attributions.Values[j] = (hi[j] - lo[j]) * integrated[j]
	}

	deltas := make([]float64, n)
	for i := range n {
		k := i*classes + targets[i]
		deltas[i] = attributions.Sum(i) - (predictions.Values[k] - baseOut[k])
	}

	return &Explanation{
		Meta: ig.meta(),
		Data: Data{
			Attributions: attributions,
			X:            arrayOf(x.Raw()),
			Baselines:    arrayOf(baselines.Raw()),
			Predictions:  predictions,
			Deltas:       deltas,
			Target:       targets,
		},
	}, nil
}

// integrate returns Σ_s w_s ∇F(start + α_s(end - start)) for every instance,
// flattened like end. Points are laid out step-major and evaluated in chunks
// of at most InternalBatchSize.
func (ig *IntegratedGradients[B]) integrate(path Model[B], start, end *tensor.Tensor[float32, B], targets []int, classes int) []float64 {
	shape := end.Shape()
	n := shape[0]
	features := end.NumElements() / n
	lo, hi := start.Raw().Float64s(), end.Raw().Float64s()

	integrated := make([]float64, len(hi))
	total := len(ig.alphas) * n
	tape := ig.backend.Tape()

	for p0 := 0; p0 < total; p0 += ig.cfg.InternalBatchSize {
		p1 := min(p0+ig.cfg.InternalBatchSize, total)
		rows := p1 - p0

		points := make([]float32, rows*features)
		for p := p0; p < p1; p++ {
			alpha := ig.alphas[p/n]
			i := p % n
			dst := points[(p-p0)*features : (p-p0+1)*features]
			for j := range dst {
				k := i*features + j
				dst[j] = float32(lo[k] + alpha*(hi[k]-lo[k]))
			}
		}

		chunkShape := append(tensor.Shape{rows}, shape[1:]...)
		in := tensor.MustFromSlice(points, chunkShape, ig.backend)

		tape.Clear()
		tape.StartRecording()
		out := path.Forward(in)
		tape.StopRecording()

		seed := make([]float32, out.NumElements())
		for p := p0; p < p1; p++ {
			seed[(p-p0)*classes+targets[p%n]] = 1
		}
		seedTensor := tensor.MustFromSlice(seed, out.Shape().Clone(), ig.backend)

		grads := tape.Backward(out.Raw(), seedTensor.Raw(), ig.backend)
		grad := autodiff.Grad(grads, in)
		if grad == nil {
			ig.logger.Debug("input does not reach the output; gradient is zero", "points", rows)
			continue
		}
		g := grad.Raw().Float64s()

		for p := p0; p < p1; p++ {
			w := ig.weights[p/n]
			i := p % n
			row := g[(p-p0)*features : (p-p0+1)*features]
			acc := integrated[i*features : (i+1)*features]
			for j, v := range row {
				acc[j] += w * v
			}
		}

		ig.logger.Debug("integrated gradients batch",
			"start", p0,
			"end", p1,
			"points", total,
			"ops", tape.NumOps())
	}
	tape.Clear()
	return integrated
}

func (ig *IntegratedGradients[B]) meta() Meta {
	params := Params{
		Method:            string(ig.cfg.Method),
		NSteps:            ig.cfg.NSteps,
		InternalBatchSize: ig.cfg.InternalBatchSize,
		TargetFn:          ig.cfg.TargetFn != nil,
	}
	if ig.layer != nil {
		params.Layer = ig.layer.Name
	}
	return Meta{
		Name:         "IntegratedGradients",
		Type:         []string{"whitebox"},
		Explanations: []string{"local"},
		Params:       params,
		Version:      Version,
	}
}

// isNil reports whether m is nil or wraps a nil pointer or func.
func isNil(m any) bool {
	if m == nil {
		return true
	}
	switch v := reflect.ValueOf(m); v.Kind() {
	case reflect.Pointer, reflect.Func, reflect.Map, reflect.Slice, reflect.Chan, reflect.Interface:
		return v.IsNil()
	}
	return false
}

func arrayOf(r *tensor.RawTensor) Array {
	return Array{Shape: []int(r.Shape().Clone()), Values: r.Float64s()}
}
