package explain

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/born-ml/explain/internal/serialization"
	"github.com/born-ml/explain/internal/tensor"
)

// Version is recorded in every explanation's metadata.
const Version = "0.3.0"

// archiveType is the .born model type of saved explanations.
const archiveType = "Explanation"

// Explanation is the result of an Explain call.
type Explanation struct {
	Meta Meta `json:"meta"`
	Data Data `json:"data"`
}

// Meta describes the explainer that produced an explanation.
type Meta struct {
	Name         string   `json:"name"`
	Type         []string `json:"type"`
	Explanations []string `json:"explanations"`
	Params       Params   `json:"params"`
	Version      string   `json:"version"`
}

// Params records the explainer configuration.
type Params struct {
	Method            string `json:"method"`
	NSteps            int    `json:"n_steps"`
	InternalBatchSize int    `json:"internal_batch_size"`
	Layer             string `json:"layer,omitempty"`
	TargetFn          bool   `json:"target_fn"`
}

// Data holds the per-instance results. Attributions have the input's shape,
// or the activation's shape for layer explanations.
type Data struct {
	Attributions Array     `json:"attributions"`
	X            Array     `json:"X"`
	Baselines    Array     `json:"baselines"`
	Predictions  Array     `json:"predictions"`
	Deltas       []float64 `json:"deltas"`
	Target       []int     `json:"target"`
}

// Array is a dense row-major float64 array with a leading batch dimension.
type Array struct {
	Shape  []int     `json:"shape"`
	Values []float64 `json:"values"`
}

// Len returns the batch size.
func (a Array) Len() int {
	if len(a.Shape) == 0 {
		return 0
	}
	return a.Shape[0]
}

// Instance returns the values of instance i. The slice aliases a.Values.
func (a Array) Instance(i int) []float64 {
	if a.Len() == 0 {
		return nil
	}
	size := len(a.Values) / a.Len()
	return a.Values[i*size : (i+1)*size]
}

// Sum returns the total of instance i.
func (a Array) Sum(i int) float64 {
	var s float64
	for _, v := range a.Instance(i) {
		s += v
	}
	return s
}

// Len returns the number of explained instances.
func (e *Explanation) Len() int { return e.Data.Attributions.Len() }

// Sums returns the attribution total of every instance.
func (e *Explanation) Sums() []float64 {
	sums := make([]float64, e.Len())
	for i := range sums {
		sums[i] = e.Data.Attributions.Sum(i)
	}
	return sums
}

// Validate checks that the arrays agree with their shapes and with each
// other. FromJSON, LoadExplanation and Save call it.
func (e *Explanation) Validate() error {
	arrays := []struct {
		name string
		a    Array
	}{
		{"attributions", e.Data.Attributions},
		{"X", e.Data.X},
		{"baselines", e.Data.Baselines},
		{"predictions", e.Data.Predictions},
	}
	for _, f := range arrays {
		if err := f.a.validate(); err != nil {
			return fmt.Errorf("%w: %s %v", ErrBadExplanation, f.name, err)
		}
	}

	n := e.Len()
	for _, f := range arrays[1:] {
		if f.a.Len() != n {
			return fmt.Errorf("%w: %s batch %d, attributions batch %d", ErrBadExplanation, f.name, f.a.Len(), n)
		}
	}
	if !tensor.Shape(e.Data.X.Shape).Equal(e.Data.Baselines.Shape) {
		return fmt.Errorf("%w: baselines %v, X %v", ErrBadExplanation, e.Data.Baselines.Shape, e.Data.X.Shape)
	}
	if len(e.Data.Deltas) != n {
		return fmt.Errorf("%w: %d deltas for %d instances", ErrBadExplanation, len(e.Data.Deltas), n)
	}
	if len(e.Data.Target) != n {
		return fmt.Errorf("%w: %d targets for %d instances", ErrBadExplanation, len(e.Data.Target), n)
	}
	classes := len(e.Data.Predictions.Values) / n
	for i, t := range e.Data.Target {
		if t < 0 || t >= classes {
			return fmt.Errorf("%w: target %d of instance %d, model has %d outputs", ErrBadExplanation, t, i, classes)
		}
	}
	return nil
}

// validate checks a has a positive batch and len(Values) matches Shape.
func (a Array) validate() error {
	if len(a.Shape) == 0 {
		return errors.New("has no shape")
	}
	size := 1
	for _, d := range a.Shape {
		if d <= 0 {
			return fmt.Errorf("has invalid shape %v", a.Shape)
		}
		if size > len(a.Values)/d {
			return fmt.Errorf("shape %v exceeds its %d values", a.Shape, len(a.Values))
		}
		size *= d
	}
	if size != len(a.Values) {
		return fmt.Errorf("shape %v holds %d values, got %d", a.Shape, size, len(a.Values))
	}
	return nil
}

// ToJSON encodes the explanation.
func (e *Explanation) ToJSON() ([]byte, error) {
	return json.Marshal(e)
}

// FromJSON decodes an explanation produced by ToJSON.
func FromJSON(data []byte) (*Explanation, error) {
	var e Explanation
	if err := json.Unmarshal(data, &e); err != nil {
		return nil, fmt.Errorf("decode explanation: %w", err)
	}
	if err := e.Validate(); err != nil {
		return nil, err
	}
	return &e, nil
}

// Save writes the explanation as a .born archive: arrays become tensors and
// Meta is stored as JSON metadata.
func (e *Explanation) Save(path string) error {
	if err := e.Validate(); err != nil {
		return err
	}
	meta, err := json.Marshal(e.Meta)
	if err != nil {
		return fmt.Errorf("encode meta: %w", err)
	}

	tensors := make(map[string]*tensor.RawTensor)
	arrays := map[string]Array{
		"attributions": e.Data.Attributions,
		"X":            e.Data.X,
		"baselines":    e.Data.Baselines,
		"predictions":  e.Data.Predictions,
		"deltas":       {Shape: []int{len(e.Data.Deltas)}, Values: e.Data.Deltas},
	}
	for name, a := range arrays {
		raw, err := tensor.NewRaw(tensor.Shape(a.Shape), tensor.Float64, tensor.CPU)
		if err != nil {
			return fmt.Errorf("%s: %w", name, err)
		}
		copy(raw.AsFloat64(), a.Values)
		tensors[name] = raw
	}

	target, err := tensor.NewRaw(tensor.Shape{len(e.Data.Target)}, tensor.Int64, tensor.CPU)
	if err != nil {
		return fmt.Errorf("target: %w", err)
	}
	for i, t := range e.Data.Target {
		target.AsInt64()[i] = int64(t)
	}
	tensors["target"] = target

	return serialization.WriteFile(path, tensors, archiveType, map[string]string{"meta": string(meta)})
}

// LoadExplanation reads an explanation written by Save.
func LoadExplanation(path string) (*Explanation, error) {
	r, err := serialization.ReadFile(path)
	if err != nil {
		return nil, err
	}
	if mt := r.Header().ModelType; mt != archiveType {
		return nil, fmt.Errorf("%w: model type %q", ErrNotExplanation, mt)
	}

	var e Explanation
	if err := json.Unmarshal([]byte(r.Metadata()["meta"]), &e.Meta); err != nil {
		return nil, fmt.Errorf("decode meta: %w", err)
	}

	load := func(name string) (Array, error) {
		raw, err := r.LoadTensor(name, tensor.CPU)
		if err != nil {
			return Array{}, err
		}
		return arrayOf(raw), nil
	}
	fields := []struct {
		name string
		dst  *Array
	}{
		{"attributions", &e.Data.Attributions},
		{"X", &e.Data.X},
		{"baselines", &e.Data.Baselines},
		{"predictions", &e.Data.Predictions},
	}
	for _, f := range fields {
		if *f.dst, err = load(f.name); err != nil {
			return nil, err
		}
	}

	deltas, err := load("deltas")
	if err != nil {
		return nil, err
	}
	e.Data.Deltas = deltas.Values

	target, err := r.LoadTensor("target", tensor.CPU)
	if err != nil {
		return nil, err
	}
	e.Data.Target = target.Ints()
	if err := e.Validate(); err != nil {
		return nil, err
	}
	return &e, nil
}
