package nn

import (
	"math"
	"math/rand/v2"
	"sync"

	"github.com/born-ml/explain/internal/tensor"
)

var (
	initMu  sync.Mutex
	initRNG = rand.New(rand.NewPCG(0x5eed, 0xb047))
)

// SetSeed reseeds the generator used for weight initialisation so model
// construction is reproducible.
func SetSeed(seed uint64) {
	initMu.Lock()
	defer initMu.Unlock()
	initRNG = rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15))
}

func fill(data []float32, f func(r *rand.Rand) float64) {
	initMu.Lock()
	defer initMu.Unlock()
	for i := range data {
		data[i] = float32(f(initRNG))
	}
}

// Xavier (Glorot) initialization: U(-sqrt(6/(fan_in+fan_out)), +sqrt(...)).
func Xavier[B tensor.Backend](fanIn, fanOut int, shape tensor.Shape, backend B) *tensor.Tensor[float32, B] {
	bound := math.Sqrt(6.0 / float64(fanIn+fanOut))
	t := tensor.Zeros[float32](shape, backend)
	fill(t.Data(), func(r *rand.Rand) float64 {
		return (r.Float64()*2 - 1) * bound
	})
	return t
}

// He (Kaiming) initialization for ReLU networks: N(0, 2/fan_in).
func He[B tensor.Backend](fanIn int, shape tensor.Shape, backend B) *tensor.Tensor[float32, B] {
	std := math.Sqrt(2.0 / float64(fanIn))
	t := tensor.Zeros[float32](shape, backend)
	fill(t.Data(), func(r *rand.Rand) float64 {
		return r.NormFloat64() * std
	})
	return t
}

// Normal draws from N(0, std^2).
func Normal[B tensor.Backend](std float64, shape tensor.Shape, backend B) *tensor.Tensor[float32, B] {
	t := tensor.Zeros[float32](shape, backend)
	fill(t.Data(), func(r *rand.Rand) float64 {
		return r.NormFloat64() * std
	})
	return t
}
