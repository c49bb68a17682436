// Package optim implements gradient-based optimizers for nn parameters.
//
// Optimizers consume the gradient map returned by a tape's backward pass and
// update parameter tensors in place:
//
//	grads := autodiff.Backward(loss, backend)
//	opt.Step(grads)
package optim

import (
	"github.com/born-ml/explain/internal/nn"
	"github.com/born-ml/explain/internal/tensor"
)

// Optimizer updates model parameters from gradients.
type Optimizer interface {
	// Step applies one update. Parameters without a gradient are skipped.
	Step(grads map[*tensor.RawTensor]*tensor.RawTensor)

	// ZeroGrad clears the gradients held by the parameters.
	ZeroGrad()

	// LR returns the current learning rate.
	LR() float32

	// SetLR changes the learning rate, e.g. from a schedule.
	SetLR(lr float32)
}

func getGradient[B tensor.Backend](param *nn.Parameter[B], grads map[*tensor.RawTensor]*tensor.RawTensor) []float32 {
	if param == nil {
		return nil
	}
	g, ok := grads[param.Tensor().Raw()]
	if !ok {
		return nil
	}
	return g.AsFloat32()
}

func zeroGrad[B tensor.Backend](params []*nn.Parameter[B]) {
	for _, p := range params {
		p.ZeroGrad()
	}
}
