// Package cpu implements the CPU backend. Matrix products and convolutions
// go through gonum's BLAS; everything else is plain Go loops fanned out with
// the parallel package where the work is large enough.
package cpu

import (
	"fmt"

	"github.com/born-ml/explain/internal/parallel"
	"github.com/born-ml/explain/internal/tensor"
)

// CPUBackend implements tensor.Backend on the host CPU.
type CPUBackend struct {
	device tensor.Device
	par    parallel.Config
}

// New creates a CPU backend with default parallelism.
func New() *CPUBackend {
	return NewWithConfig(parallel.DefaultConfig())
}

// NewWithConfig creates a CPU backend with explicit parallelism settings.
func NewWithConfig(cfg parallel.Config) *CPUBackend {
	return &CPUBackend{
		device: tensor.CPU,
		par:    cfg,
	}
}

// Name returns the backend name.
func (cpu *CPUBackend) Name() string {
	return "CPU"
}

// Device returns the compute device.
func (cpu *CPUBackend) Device() tensor.Device {
	return cpu.device
}

// Parallel returns the fan-out settings used by kernels.
func (cpu *CPUBackend) Parallel() parallel.Config {
	return cpu.par
}

func (cpu *CPUBackend) alloc(op string, shape tensor.Shape, dtype tensor.DataType) *tensor.RawTensor {
	out, err := tensor.NewRaw(shape, dtype, cpu.device)
	if err != nil {
		panic(fmt.Sprintf("%s: failed to create result tensor: %v", op, err))
	}
	return out
}

// view returns the typed slice of r for element type T.
func view[T tensor.DType](r *tensor.RawTensor) []T {
	var zero T
	switch any(zero).(type) {
	case float32:
		return any(r.AsFloat32()).([]T)
	case float64:
		return any(r.AsFloat64()).([]T)
	case int32:
		return any(r.AsInt32()).([]T)
	case int64:
		return any(r.AsInt64()).([]T)
	default:
		panic("unsupported type")
	}
}

func requireFloat(op string, r *tensor.RawTensor) {
	if !r.DType().IsFloat() {
		panic(fmt.Sprintf("%s: unsupported dtype %s (only float32/float64 supported)", op, r.DType()))
	}
}

func requireSameDType(op string, a, b *tensor.RawTensor) {
	if a.DType() != b.DType() {
		panic(fmt.Sprintf("%s: dtype mismatch %s vs %s", op, a.DType(), b.DType()))
	}
}
