package autodiff

import (
	"fmt"

	"github.com/born-ml/explain/internal/tensor"
)

// BackwardCapable is implemented by backends that own a gradient tape.
// AutodiffBackend implements this interface.
type BackwardCapable interface {
	tensor.Backend
	Tape() *GradientTape
}

// Backward computes gradients of t with a ones seed, the usual choice for a
// scalar loss.
//
// Example:
//
//	backend := autodiff.New(cpu.New())
//	backend.Tape().StartRecording()
//	x := tensor.Ones[float32](tensor.Shape{2}, backend)
//	y := x.Mul(x).Sum()
//	grads := autodiff.Backward(y, backend)
//	grad := grads[x.Raw()] // 2x
func Backward[T tensor.DType, B BackwardCapable](t *tensor.Tensor[T, B], backend B) map[*tensor.RawTensor]*tensor.RawTensor {
	seed := tensor.Ones[T, B](t.Shape(), backend)
	return BackwardWithSeed(t, seed, backend)
}

// BackwardWithSeed computes gradients of t starting from an explicit output
// gradient, which must have t's shape.
func BackwardWithSeed[T tensor.DType, B BackwardCapable](t, seed *tensor.Tensor[T, B], backend B) map[*tensor.RawTensor]*tensor.RawTensor {
	if !t.DType().IsFloat() {
		panic(fmt.Sprintf("backward: unsupported dtype %s (only float32/float64 supported)", t.DType()))
	}
	if !seed.Shape().Equal(t.Shape()) {
		panic(fmt.Sprintf("backward: seed shape %v does not match output shape %v", seed.Shape(), t.Shape()))
	}

	tape := backend.Tape()
	if tape.NumOps() == 0 {
		panic("backward: no operations recorded (did you forget to call Tape().StartRecording()?)")
	}
	return tape.Backward(t.Raw(), seed.Raw(), backend)
}

// Grad looks up the gradient of x in a gradient map as a typed tensor.
// It returns nil when no gradient reached x.
func Grad[T tensor.DType, B tensor.Backend](grads map[*tensor.RawTensor]*tensor.RawTensor, x *tensor.Tensor[T, B]) *tensor.Tensor[T, B] {
	g, ok := grads[x.Raw()]
	if !ok {
		return nil
	}
	return tensor.New[T, B](g, x.Backend())
}
