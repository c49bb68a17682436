// Copyright 2025 Born ML Framework. All rights reserved.
// Use of this source code is governed by an Apache 2.0
// license that can be found in the LICENSE file.

// Package explain computes Integrated Gradients attributions.
//
// For an input x, a baseline b and a scalar model output F, the attribution
// of feature j is
//
//	IG_j(x) = (x_j - b_j) * ∫₀¹ ∂F(b + α(x - b))/∂x_j dα
//
// approximated with a Riemann or Gauss-Legendre rule over NSteps points.
// The attributions of an instance sum to F(x) - F(b) up to the reported
// delta.
//
// Example:
//
//	backend := autodiff.New(cpu.New())
//	ig, err := explain.New(model, backend, explain.Config{
//	    Method:   explain.GaussLegendre,
//	    NSteps:   50,
//	    TargetFn: explain.ArgmaxTarget,
//	})
//	if err != nil {
//	    return err
//	}
//	exp, err := ig.Explain(images, explain.WithBaselineValue(0))
//
// Attributions to a hidden activation use NewForLayer with a split of a
// Sequential model.
package explain

import (
	"github.com/born-ml/explain/internal/autodiff"
	"github.com/born-ml/explain/internal/explain"
	"github.com/born-ml/explain/internal/nn"
	"github.com/born-ml/explain/internal/tensor"
)

// Version is recorded in every explanation's metadata.
const Version = explain.Version

// Defaults applied to zero Config fields.
const (
	DefaultNSteps            = explain.DefaultNSteps
	DefaultInternalBatchSize = explain.DefaultInternalBatchSize
)

// Method selects the quadrature rule.
type Method = explain.Method

// Integration methods.
const (
	RiemannLeft      = explain.RiemannLeft
	RiemannRight     = explain.RiemannRight
	RiemannMiddle    = explain.RiemannMiddle
	RiemannTrapezoid = explain.RiemannTrapezoid
	GaussLegendre    = explain.GaussLegendre
)

// Methods lists every supported method.
func Methods() []Method { return explain.Methods() }

// ParseMethod converts a method name. The empty string selects GaussLegendre.
func ParseMethod(s string) (Method, error) { return explain.ParseMethod(s) }

// ApproximationParameters returns the path points in [0, 1] and their
// weights for method with n steps.
func ApproximationParameters(method Method, n int) (alphas, weights []float64, err error) {
	return explain.ApproximationParameters(method, n)
}

// Model is anything with a forward pass.
type Model[B tensor.Backend] = explain.Model[B]

// TargetFunc derives one target per instance from the predictions.
type TargetFunc = explain.TargetFunc

// ArgmaxTarget explains each instance's predicted class.
func ArgmaxTarget(predictions Array) ([]int, error) { return explain.ArgmaxTarget(predictions) }

// Config configures an explainer.
type Config = explain.Config

// IntegratedGradients explains a model built on an autodiff backend.
type IntegratedGradients[B autodiff.BackwardCapable] = explain.IntegratedGradients[B]

// New creates an explainer attributing model outputs to its inputs.
func New[B autodiff.BackwardCapable](model Model[B], backend B, cfg Config) (*IntegratedGradients[B], error) {
	return explain.New(model, backend, cfg)
}

// NewForLayer creates an explainer attributing to the activation between
// split.Head and split.Tail.
func NewForLayer[B autodiff.BackwardCapable](split *nn.Split[B], backend B, cfg Config) (*IntegratedGradients[B], error) {
	return explain.NewForLayer(split, backend, cfg)
}

// Option customises one Explain call.
type Option = explain.Option

// WithBaselines sets baselines shaped like the input or like one instance.
func WithBaselines[B tensor.Backend](baselines *tensor.Tensor[float32, B]) Option {
	return explain.WithBaselines(baselines)
}

// WithBaselineValue uses a constant baseline.
func WithBaselineValue(v float64) Option { return explain.WithBaselineValue(v) }

// WithTarget explains output k for every instance.
func WithTarget(k int) Option { return explain.WithTarget(k) }

// WithTargets sets one target per instance.
func WithTargets(targets []int) Option { return explain.WithTargets(targets) }

// Explanation types.
type (
	Explanation = explain.Explanation
	Meta        = explain.Meta
	Params      = explain.Params
	Data        = explain.Data
	Array       = explain.Array
)

// FromJSON decodes an explanation written by Explanation.ToJSON.
func FromJSON(data []byte) (*Explanation, error) { return explain.FromJSON(data) }

// LoadExplanation reads an explanation written by Explanation.Save.
func LoadExplanation(path string) (*Explanation, error) { return explain.LoadExplanation(path) }

// Errors returned by New and Explain.
var (
	ErrNilModel          = explain.ErrNilModel
	ErrInvalidMethod     = explain.ErrInvalidMethod
	ErrInvalidSteps      = explain.ErrInvalidSteps
	ErrInvalidBatchSize  = explain.ErrInvalidBatchSize
	ErrInvalidInput      = explain.ErrInvalidInput
	ErrShapeMismatch     = explain.ErrShapeMismatch
	ErrUnsupportedOutput = explain.ErrUnsupportedOutput
	ErrMissingTarget     = explain.ErrMissingTarget
	ErrAmbiguousTarget   = explain.ErrAmbiguousTarget
	ErrTargetOutOfRange  = explain.ErrTargetOutOfRange
	ErrNotExplanation    = explain.ErrNotExplanation
	ErrBadExplanation    = explain.ErrBadExplanation
)
