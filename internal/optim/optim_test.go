package optim

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/born-ml/explain/internal/backend/cpu"
	"github.com/born-ml/explain/internal/nn"
	"github.com/born-ml/explain/internal/tensor"
)

func param(b *cpu.CPUBackend, values ...float32) *nn.Parameter[*cpu.CPUBackend] {
	return nn.NewParameter("w", tensor.MustFromSlice(values, tensor.Shape{len(values)}, b))
}

func grads(p *nn.Parameter[*cpu.CPUBackend], g ...float32) map[*tensor.RawTensor]*tensor.RawTensor {
	gt := tensor.MustFromSlice(g, tensor.Shape{len(g)}, cpu.New())
	return map[*tensor.RawTensor]*tensor.RawTensor{p.Tensor().Raw(): gt.Raw()}
}

func TestSGD_Step(t *testing.T) {
	b := cpu.New()
	p := param(b, 1, 2)
	opt := NewSGD([]*nn.Parameter[*cpu.CPUBackend]{p}, SGDConfig{LR: 0.1})

	opt.Step(grads(p, 1, -2))
	assert.InDeltaSlice(t, []float32{0.9, 2.2}, p.Tensor().Data(), 1e-6)

	var o Optimizer = opt
	assert.Equal(t, float32(0.1), o.LR())
	o.SetLR(0.5)
	assert.Equal(t, float32(0.5), o.LR())
}

func TestSGD_Momentum(t *testing.T) {
	b := cpu.New()
	p := param(b, 0)
	opt := NewSGD([]*nn.Parameter[*cpu.CPUBackend]{p}, SGDConfig{LR: 1, Momentum: 0.5})

	opt.Step(grads(p, 1)) // v=1, w=-1
	opt.Step(grads(p, 1)) // v=1.5, w=-2.5
	assert.InDelta(t, -2.5, p.Tensor().Data()[0], 1e-6)
}

func TestSGD_DefaultsAndSkip(t *testing.T) {
	b := cpu.New()
	p := param(b, 3)
	opt := NewSGD([]*nn.Parameter[*cpu.CPUBackend]{p}, SGDConfig{})
	assert.Equal(t, float32(0.01), opt.LR())

	opt.Step(map[*tensor.RawTensor]*tensor.RawTensor{})
	assert.Equal(t, float32(3), p.Tensor().Data()[0])
}

func TestAdam_FirstStepMovesByLR(t *testing.T) {
	b := cpu.New()
	p := param(b, 1, 1)
	opt := NewAdam([]*nn.Parameter[*cpu.CPUBackend]{p}, AdamConfig{LR: 0.1})

	// With bias correction the first update is lr * sign(g).
	opt.Step(grads(p, 5, -0.01))
	assert.InDeltaSlice(t, []float32{0.9, 1.1}, p.Tensor().Data(), 1e-4)
	assert.Equal(t, 1, opt.Timestep())
}

func TestAdam_MinimisesQuadratic(t *testing.T) {
	b := cpu.New()
	p := param(b, 5)
	opt := NewAdam([]*nn.Parameter[*cpu.CPUBackend]{p}, AdamConfig{LR: 0.1})

	for i := 0; i < 500; i++ {
		w := p.Tensor().Data()[0]
		opt.Step(grads(p, 2*(w-2)))
	}
	assert.InDelta(t, 2.0, p.Tensor().Data()[0], 0.05)

	p.SetGrad(p.Tensor())
	opt.ZeroGrad()
	assert.Nil(t, p.Grad())
}
