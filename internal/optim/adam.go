package optim

import (
	"math"

	"github.com/born-ml/explain/internal/nn"
	"github.com/born-ml/explain/internal/tensor"
)

// Adam implements the Adam optimizer with bias correction.
//
//	m = beta1*m + (1-beta1)*g
//	v = beta2*v + (1-beta2)*g^2
//	w = w - lr * m_hat / (sqrt(v_hat) + eps)
//
// Reference: Kingma & Ba, "Adam: A Method for Stochastic Optimization" (2014).
type Adam[B tensor.Backend] struct {
	params []*nn.Parameter[B]
	lr     float32
	beta1  float32
	beta2  float32
	eps    float32
	t      int
	m      map[*nn.Parameter[B]][]float32
	v      map[*nn.Parameter[B]][]float32
}

// AdamConfig configures Adam. Zero values select the defaults.
type AdamConfig struct {
	LR    float32    // Learning rate (default: 0.001)
	Betas [2]float32 // Running average coefficients (default: [0.9, 0.999])
	Eps   float32    // Numerical stability term (default: 1e-8)
}

// NewAdam creates an Adam optimizer.
func NewAdam[B tensor.Backend](params []*nn.Parameter[B], config AdamConfig) *Adam[B] {
	if config.LR == 0 {
		config.LR = 0.001
	}
	if config.Betas[0] == 0 {
		config.Betas[0] = 0.9
	}
	if config.Betas[1] == 0 {
		config.Betas[1] = 0.999
	}
	if config.Eps == 0 {
		config.Eps = 1e-8
	}

	return &Adam[B]{
		params: params,
		lr:     config.LR,
		beta1:  config.Betas[0],
		beta2:  config.Betas[1],
		eps:    config.Eps,
		m:      make(map[*nn.Parameter[B]][]float32),
		v:      make(map[*nn.Parameter[B]][]float32),
	}
}

// Step applies one Adam update.
func (a *Adam[B]) Step(grads map[*tensor.RawTensor]*tensor.RawTensor) {
	a.t++
	bc1 := float32(1 - math.Pow(float64(a.beta1), float64(a.t)))
	bc2 := float32(1 - math.Pow(float64(a.beta2), float64(a.t)))

	for _, param := range a.params {
		g := getGradient(param, grads)
		if g == nil {
			continue
		}
		w := param.Tensor().Data()

		m, ok := a.m[param]
		if !ok {
			m = make([]float32, len(w))
			a.m[param] = m
		}
		v, ok := a.v[param]
		if !ok {
			v = make([]float32, len(w))
			a.v[param] = v
		}

		for i := range w {
			m[i] = a.beta1*m[i] + (1-a.beta1)*g[i]
			v[i] = a.beta2*v[i] + (1-a.beta2)*g[i]*g[i]
			mHat := m[i] / bc1
			vHat := v[i] / bc2
			w[i] -= a.lr * mHat / (float32(math.Sqrt(float64(vHat))) + a.eps)
		}
	}
}

// ZeroGrad clears parameter gradients.
func (a *Adam[B]) ZeroGrad() { zeroGrad(a.params) }

// LR returns the learning rate.
func (a *Adam[B]) LR() float32 { return a.lr }

// SetLR sets the learning rate.
func (a *Adam[B]) SetLR(lr float32) { a.lr = lr }

// Timestep returns the number of steps taken.
func (a *Adam[B]) Timestep() int { return a.t }
