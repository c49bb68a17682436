package nn

import (
	"fmt"

	"github.com/born-ml/explain/internal/tensor"
)

// Sequential chains modules, feeding each output into the next module.
//
// Example:
//
//	model := nn.NewSequential[B](
//	    nn.NewLinear(784, 128, backend),
//	    nn.NewReLU[B](),
//	    nn.NewLinear(128, 10, backend),
//	)
//	logits := model.Forward(input)
type Sequential[B tensor.Backend] struct {
	modules []Module[B]
}

// NewSequential creates a Sequential container.
func NewSequential[B tensor.Backend](modules ...Module[B]) *Sequential[B] {
	return &Sequential[B]{modules: modules}
}

// Forward runs the modules in order.
func (s *Sequential[B]) Forward(input *tensor.Tensor[float32, B]) *tensor.Tensor[float32, B] {
	output := input
	for _, module := range s.modules {
		output = module.Forward(output)
	}
	return output
}

// Parameters returns the parameters of every module in order.
func (s *Sequential[B]) Parameters() []*Parameter[B] {
	var params []*Parameter[B]
	for _, module := range s.modules {
		params = append(params, module.Parameters()...)
	}
	return params
}

// Add appends a module.
func (s *Sequential[B]) Add(module Module[B]) {
	s.modules = append(s.modules, module)
}

// Len returns the number of modules.
func (s *Sequential[B]) Len() int {
	return len(s.modules)
}

// Module returns the module at index.
func (s *Sequential[B]) Module(index int) Module[B] {
	if index < 0 || index >= len(s.modules) {
		panic("Sequential.Module: index out of bounds")
	}
	return s.modules[index]
}

// Split divides a model at an intermediate activation: Head maps the model
// input to the activation and Tail maps the activation to the output, so
// Tail(Head(x)) == model(x).
type Split[B tensor.Backend] struct {
	Name string
	Head Module[B]
	Tail Module[B]
}

// Split returns the split before module i. i may range from 1 to Len()-1;
// splitting before a layer exposes that layer's input, splitting after it
// exposes its output.
func (s *Sequential[B]) Split(i int) (*Split[B], error) {
	if i <= 0 || i >= len(s.modules) {
		return nil, fmt.Errorf("split index %d out of range [1,%d)", i, len(s.modules))
	}
	return &Split[B]{
		Name: fmt.Sprintf("%d", i),
		Head: NewSequential(s.modules[:i:i]...),
		Tail: NewSequential(s.modules[i:]...),
	}, nil
}

// StateDict returns the parameter tensors keyed "<module index>.<name>".
func (s *Sequential[B]) StateDict() map[string]*tensor.RawTensor {
	state := make(map[string]*tensor.RawTensor)
	for i, module := range s.modules {
		for _, p := range module.Parameters() {
			state[fmt.Sprintf("%d.%s", i, p.Name())] = p.Tensor().Raw()
		}
	}
	return state
}

// LoadStateDict copies tensors from state into the parameters. Every
// parameter must be present with a matching shape and dtype.
func (s *Sequential[B]) LoadStateDict(state map[string]*tensor.RawTensor) error {
	for i, module := range s.modules {
		for _, p := range module.Parameters() {
			key := fmt.Sprintf("%d.%s", i, p.Name())
			src, ok := state[key]
			if !ok {
				return fmt.Errorf("missing parameter %q", key)
			}
			dst := p.Tensor().Raw()
			if !src.Shape().Equal(dst.Shape()) || src.DType() != dst.DType() {
				return fmt.Errorf("parameter %q: expected %s%v, got %s%v",
					key, dst.DType(), dst.Shape(), src.DType(), src.Shape())
			}
			copy(dst.Data(), src.Data())
		}
	}
	return nil
}
