// Package parallel provides the fan-out helpers used by CPU kernels and the
// attribution engine.
package parallel

import (
	"runtime"
	"sync"

	"github.com/klauspost/cpuid/v2"
)

// Config controls parallel execution behavior.
type Config struct {
	Enabled      bool // Whether parallel execution is enabled.
	NumWorkers   int  // Number of worker goroutines to use.
	MinChunkSize int  // Minimum items per goroutine.
}

// DefaultConfig sizes the pool by physical cores, falling back to
// runtime.NumCPU when cpuid cannot tell.
func DefaultConfig() Config {
	n := Workers()
	return Config{
		Enabled:      n > 1,
		NumWorkers:   n,
		MinChunkSize: 64,
	}
}

// Workers returns the default worker count.
func Workers() int {
	if n := cpuid.CPU.PhysicalCores; n > 0 {
		return min(n, runtime.GOMAXPROCS(0))
	}
	return runtime.GOMAXPROCS(0)
}

// CPUInfo describes the host processor.
type CPUInfo struct {
	Brand         string
	PhysicalCores int
	LogicalCores  int
	AVX2          bool
	AVX512        bool
	FMA           bool
}

// DetectCPU reports processor details for diagnostics.
func DetectCPU() CPUInfo {
	return CPUInfo{
		Brand:         cpuid.CPU.BrandName,
		PhysicalCores: cpuid.CPU.PhysicalCores,
		LogicalCores:  cpuid.CPU.LogicalCores,
		AVX2:          cpuid.CPU.Supports(cpuid.AVX2),
		AVX512:        cpuid.CPU.Supports(cpuid.AVX512F),
		FMA:           cpuid.CPU.Supports(cpuid.FMA3),
	}
}

// For executes f(i) for i in [0, n). Falls back to a sequential loop if
// parallelism is disabled or n is below MinChunkSize.
func For(n int, f func(i int), cfg Config) {
	if !cfg.Enabled || cfg.NumWorkers <= 1 || n < cfg.MinChunkSize {
		for i := 0; i < n; i++ {
			f(i)
		}
		return
	}

	var wg sync.WaitGroup
	chunkSize := max((n+cfg.NumWorkers-1)/cfg.NumWorkers, cfg.MinChunkSize, 1)

	for start := 0; start < n; start += chunkSize {
		end := min(start+chunkSize, n)
		wg.Add(1)
		go func(s, e int) {
			defer wg.Done()
			for i := s; i < e; i++ {
				f(i)
			}
		}(start, end)
	}
	wg.Wait()
}

// ForBatch iterates the batch*channels grid common in CNN kernels.
func ForBatch(batch, channels int, f func(b, c int), cfg Config) {
	For(batch*channels, func(k int) {
		f(k/channels, k%channels)
	}, cfg)
}
