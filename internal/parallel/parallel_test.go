package parallel

import (
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestFor_VisitsEveryIndexOnce(t *testing.T) {
	cfg := Config{Enabled: true, NumWorkers: 4, MinChunkSize: 8}

	n := 1000
	hits := make([]int32, n)
	For(n, func(i int) {
		atomic.AddInt32(&hits[i], 1)
	}, cfg)

	for i, h := range hits {
		assert.Equal(t, int32(1), h, "index %d", i)
	}
}

func TestFor_Sequential(t *testing.T) {
	var order []int
	For(5, func(i int) {
		order = append(order, i)
	}, Config{Enabled: false})

	assert.Equal(t, []int{0, 1, 2, 3, 4}, order)
}

func TestFor_BelowChunkSizeRunsInline(t *testing.T) {
	cfg := Config{Enabled: true, NumWorkers: 8, MinChunkSize: 64}

	var order []int
	For(10, func(i int) {
		order = append(order, i)
	}, cfg)

	assert.Len(t, order, 10)
	assert.Equal(t, 9, order[9])
}

func TestForBatch(t *testing.T) {
	cfg := Config{Enabled: true, NumWorkers: 3, MinChunkSize: 1}

	batch, channels := 4, 8
	var seen [4][8]atomic.Bool
	ForBatch(batch, channels, func(b, c int) {
		seen[b][c].Store(true)
	}, cfg)

	for b := 0; b < batch; b++ {
		for c := 0; c < channels; c++ {
			assert.True(t, seen[b][c].Load(), "missing [%d][%d]", b, c)
		}
	}
}

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()
	assert.GreaterOrEqual(t, cfg.NumWorkers, 1)
	assert.Equal(t, cfg.NumWorkers > 1, cfg.Enabled)
	assert.Equal(t, Workers(), cfg.NumWorkers)
}

func TestDetectCPU(t *testing.T) {
	info := DetectCPU()
	assert.GreaterOrEqual(t, info.LogicalCores, 0)
	if info.AVX512 {
		assert.True(t, info.AVX2)
	}
}

func BenchmarkFor(b *testing.B) {
	cfg := DefaultConfig()
	n := 10000

	b.Run("parallel", func(b *testing.B) {
		for i := 0; i < b.N; i++ {
			var sum int64
			For(n, func(i int) {
				atomic.AddInt64(&sum, int64(i))
			}, cfg)
		}
	})

	b.Run("sequential", func(b *testing.B) {
		seq := cfg
		seq.Enabled = false
		for i := 0; i < b.N; i++ {
			var sum int64
			For(n, func(i int) {
				atomic.AddInt64(&sum, int64(i))
			}, seq)
		}
	})
}
