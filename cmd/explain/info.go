package main

import (
	"fmt"
	"io"
	"runtime"
	"strings"

	"github.com/born-ml/explain/internal/explain"
	"github.com/born-ml/explain/internal/parallel"
)

func runInfo(w io.Writer) error {
	b := newBackend()
	cpu := parallel.DetectCPU()

	fmt.Fprintf(w, "backend:  %s (device %s)\n", b.Name(), b.Device())
	fmt.Fprintf(w, "cpu:      %s\n", cpu.Brand)
	fmt.Fprintf(w, "cores:    %d physical, %d logical, %d workers\n", cpu.PhysicalCores, cpu.LogicalCores, parallel.Workers())
	fmt.Fprintf(w, "simd:     avx2=%t avx512=%t fma=%t\n", cpu.AVX2, cpu.AVX512, cpu.FMA)
	fmt.Fprintf(w, "platform: %s/%s %s\n", runtime.GOOS, runtime.GOARCH, runtime.Version())

	methods := make([]string, 0, len(explain.Methods()))
	for _, m := range explain.Methods() {
		methods = append(methods, string(m))
	}
	fmt.Fprintf(w, "methods:  %s\n", strings.Join(methods, ", "))
	return nil
}
