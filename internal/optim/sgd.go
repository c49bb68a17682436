package optim

import (
	"github.com/born-ml/explain/internal/nn"
	"github.com/born-ml/explain/internal/tensor"
)

// SGD implements stochastic gradient descent with optional momentum and L2
// weight decay:
//
//	v = momentum*v + (g + wd*w)
//	w = w - lr*v
type SGD[B tensor.Backend] struct {
	params      []*nn.Parameter[B]
	lr          float32
	momentum    float32
	weightDecay float32
	velocities  map[*nn.Parameter[B]][]float32
}

// SGDConfig configures SGD. Zero values select the defaults.
type SGDConfig struct {
	LR          float32 // Learning rate (default: 0.01)
	Momentum    float32 // Momentum factor in [0, 1) (default: 0)
	WeightDecay float32 // L2 penalty (default: 0)
}

// NewSGD creates an SGD optimizer.
func NewSGD[B tensor.Backend](params []*nn.Parameter[B], config SGDConfig) *SGD[B] {
	if config.LR == 0 {
		config.LR = 0.01
	}
	return &SGD[B]{
		params:      params,
		lr:          config.LR,
		momentum:    config.Momentum,
		weightDecay: config.WeightDecay,
		velocities:  make(map[*nn.Parameter[B]][]float32),
	}
}

// Step applies one SGD update.
func (s *SGD[B]) Step(grads map[*tensor.RawTensor]*tensor.RawTensor) {
	for _, param := range s.params {
		g := getGradient(param, grads)
		if g == nil {
			continue
		}
		w := param.Tensor().Data()

		if s.momentum == 0 {
			for i := range w {
				w[i] -= s.lr * (g[i] + s.weightDecay*w[i])
			}
			continue
		}

		v, ok := s.velocities[param]
		if !ok {
			v = make([]float32, len(w))
			s.velocities[param] = v
		}
		for i := range w {
			v[i] = s.momentum*v[i] + g[i] + s.weightDecay*w[i]
			w[i] -= s.lr * v[i]
		}
	}
}

// ZeroGrad clears parameter gradients.
func (s *SGD[B]) ZeroGrad() { zeroGrad(s.params) }

// LR returns the learning rate.
func (s *SGD[B]) LR() float32 { return s.lr }

// SetLR sets the learning rate.
func (s *SGD[B]) SetLR(lr float32) { s.lr = lr }
