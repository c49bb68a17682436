package nn

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/born-ml/explain/internal/autodiff"
	"github.com/born-ml/explain/internal/backend/cpu"
	"github.com/born-ml/explain/internal/tensor"
)

type adBackend = *autodiff.AutodiffBackend[*cpu.CPUBackend]

func TestLinear_Forward(t *testing.T) {
	b := cpu.New()
	l := NewLinear(3, 2, b)
	copy(l.Weight().Tensor().Data(), []float32{1, 0, 0, 0, 1, 1})
	copy(l.Bias().Tensor().Data(), []float32{0.5, -1})

	x := tensor.MustFromSlice([]float32{1, 2, 3, 4, 5, 6}, tensor.Shape{2, 3}, b)
	y := l.Forward(x)

	assert.Equal(t, tensor.Shape{2, 2}, y.Shape())
	assert.Equal(t, []float32{1.5, 4, 4.5, 10}, y.Data())
	assert.Len(t, l.Parameters(), 2)
	assert.Equal(t, 3, l.InFeatures())
	assert.Equal(t, 2, l.OutFeatures())

	assert.Panics(t, func() { l.Forward(tensor.Zeros[float32](tensor.Shape{2, 4}, b)) })
}

func TestConv2D_ShapesAndBias(t *testing.T) {
	b := cpu.New()
	c := NewConv2D(1, 4, 3, 1, 1, b)
	copy(c.Parameters()[1].Tensor().Data(), []float32{1, 2, 3, 4})
	for i := range c.Parameters()[0].Tensor().Data() {
		c.Parameters()[0].Tensor().Data()[i] = 0
	}

	y := c.Forward(tensor.Ones[float32](tensor.Shape{2, 1, 5, 5}, b))
	assert.Equal(t, tensor.Shape{2, 4, 5, 5}, y.Shape())
	assert.Equal(t, float32(3), y.At(1, 2, 4, 4))

	h, w := c.OutputSize(28, 28)
	assert.Equal(t, [2]int{28, 28}, [2]int{h, w})

	pool := NewMaxPool2D(2, 2, b)
	assert.Equal(t, tensor.Shape{2, 4, 2, 2}, pool.Forward(y).Shape())
	assert.Equal(t, tensor.Shape{2, 100}, NewFlatten[*cpu.CPUBackend]().Forward(y).Shape())
}

func TestActivations(t *testing.T) {
	b := cpu.New()
	x := tensor.MustFromSlice([]float32{-1, 0, 1}, tensor.Shape{1, 3}, b)

	assert.Equal(t, []float32{0, 0, 1}, NewReLU[*cpu.CPUBackend]().Forward(x).Data())
	assert.InDelta(t, 0.5, NewSigmoid[*cpu.CPUBackend]().Forward(x).Data()[1], 1e-7)
	assert.InDelta(t, 0.7615942, NewTanh[*cpu.CPUBackend]().Forward(x).Data()[2], 1e-6)

	p := NewSoftmax[*cpu.CPUBackend](-1).Forward(x).Data()
	assert.InDelta(t, 1.0, p[0]+p[1]+p[2], 1e-6)
}

func TestEmbeddingAndMeanPool(t *testing.T) {
	b := cpu.New()
	e := NewEmbedding(4, 2, b)
	copy(e.Parameters()[0].Tensor().Data(), []float32{0, 0, 1, 1, 2, 2, 3, 3})

	ids := tensor.MustFromSlice([]float32{1, 3, 2, 2}, tensor.Shape{2, 2}, b)
	emb := e.Forward(ids)
	assert.Equal(t, tensor.Shape{2, 2, 2}, emb.Shape())

	pooled := NewMeanPool[*cpu.CPUBackend](1).Forward(emb)
	assert.Equal(t, tensor.Shape{2, 2}, pooled.Shape())
	assert.Equal(t, []float32{2, 2, 2, 2}, pooled.Data())
	assert.Equal(t, 4, e.NumEmbeddings())
	assert.Equal(t, 2, e.EmbeddingDim())
}

func newMLP(b *cpu.CPUBackend) *Sequential[*cpu.CPUBackend] {
	SetSeed(42)
	return NewSequential[*cpu.CPUBackend](
		NewLinear(4, 8, b),
		NewReLU[*cpu.CPUBackend](),
		NewLinear(8, 3, b),
	)
}

func TestSequential_Split(t *testing.T) {
	b := cpu.New()
	model := newMLP(b)
	x := tensor.MustFromSlice([]float32{1, -2, 0.5, 3, 0, 1, 1, -1}, tensor.Shape{2, 4}, b)

	want := model.Forward(x).Data()
	for i := 1; i < model.Len(); i++ {
		split, err := model.Split(i)
		require.NoError(t, err)
		got := split.Tail.Forward(split.Head.Forward(x)).Data()
		assert.InDeltaSlice(t, want, got, 1e-6, "split %d", i)
	}

	_, err := model.Split(0)
	assert.Error(t, err)
	_, err = model.Split(model.Len())
	assert.Error(t, err)

	split, err := model.Split(1)
	require.NoError(t, err)
	assert.Equal(t, tensor.Shape{2, 8}, split.Head.Forward(x).Shape())
	assert.Len(t, split.Head.Parameters(), 2)
	assert.Len(t, split.Tail.Parameters(), 2)
}

func TestSequential_StateDict(t *testing.T) {
	b := cpu.New()
	src := newMLP(b)
	SetSeed(7)
	dst := NewSequential[*cpu.CPUBackend](NewLinear(4, 8, b), NewReLU[*cpu.CPUBackend](), NewLinear(8, 3, b))

	state := src.StateDict()
	assert.Len(t, state, 4)
	assert.Contains(t, state, "0.weight")
	assert.Contains(t, state, "2.bias")

	require.NoError(t, dst.LoadStateDict(state))
	x := tensor.Ones[float32](tensor.Shape{1, 4}, b)
	assert.Equal(t, src.Forward(x).Data(), dst.Forward(x).Data())

	delete(state, "2.bias")
	assert.ErrorContains(t, dst.LoadStateDict(state), "2.bias")

	bad := src.StateDict()
	bad["0.weight"] = tensor.MustNewRaw(tensor.Shape{2, 2}, tensor.Float32, tensor.CPU)
	assert.Error(t, dst.LoadStateDict(bad))
}

func TestCrossEntropy_FusedMatchesFallback(t *testing.T) {
	logits := []float32{2, 1, 0.1, 0.5, 2.5, 0.3}
	labels := []int{0, 1}

	plain := cpu.New()
	l1 := NewCrossEntropyLoss(plain).Forward(tensor.MustFromSlice(logits, tensor.Shape{2, 3}, plain), labels)

	ad := autodiff.New(cpu.New())
	l2 := NewCrossEntropyLoss(ad).Forward(tensor.MustFromSlice(logits, tensor.Shape{2, 3}, ad), labels)

	assert.InDelta(t, l1.Item(), l2.Item(), 1e-5)
	assert.InDelta(t, 0.3185, l1.Item(), 1e-3)
}

func TestMSEAndAccuracy(t *testing.T) {
	b := cpu.New()
	pred := tensor.MustFromSlice([]float32{1, 2, 3, 4}, tensor.Shape{2, 2}, b)
	target := tensor.MustFromSlice([]float32{1, 0, 3, 2}, tensor.Shape{2, 2}, b)

	assert.InDelta(t, 2.0, NewMSELoss[*cpu.CPUBackend]().Forward(pred, target).Item(), 1e-6)
	assert.Equal(t, 1.0, Accuracy(pred, []int{1, 1}))
	assert.Equal(t, 0.5, Accuracy(pred, []int{0, 1}))
	assert.Equal(t, 0.0, Accuracy(pred, nil))
}

func TestCollectGrads_TrainingStepReducesLoss(t *testing.T) {
	b := autodiff.New(cpu.New())
	SetSeed(1)
	model := NewSequential[adBackend](NewLinear(2, 4, b), NewTanh[adBackend](), NewLinear(4, 2, b))
	criterion := NewCrossEntropyLoss(b)

	x := tensor.MustFromSlice([]float32{1, 0, 0, 1, 1, 1, -1, -1}, tensor.Shape{4, 2}, b)
	labels := []int{0, 1, 0, 1}

	step := func() float32 {
		b.Tape().Clear()
		b.Tape().StartRecording()
		loss := criterion.Forward(model.Forward(x), labels)
		grads := autodiff.Backward(loss, b)
		b.Tape().StopRecording()

		CollectGrads(model.Parameters(), grads)
		for _, p := range model.Parameters() {
			require.NotNil(t, p.Grad(), p.Name())
			w, g := p.Tensor().Data(), p.Grad().Data()
			for i := range w {
				w[i] -= 0.5 * g[i]
			}
			p.ZeroGrad()
		}
		return loss.Item()
	}

	first := step()
	var last float32
	for i := 0; i < 20; i++ {
		last = step()
	}
	assert.Less(t, last, first)
}
