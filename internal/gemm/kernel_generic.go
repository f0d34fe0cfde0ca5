//go:build !(goexperiment.simd && amd64)

package gemm

// KernelName reports the micro-kernel compiled into this build.
func KernelName() string {
	return "generic-6x8"
}

func microKernel(depth int, a, b, tile []float64) {
	microKernelGeneric(depth, a, b, tile)
}
