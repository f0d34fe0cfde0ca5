//go:build goexperiment.simd && amd64

package gemm

import "simd/archsimd"

var (
	hasAVX2 = archsimd.X86.AVX2()
	hasFMA  = hasAVX2 && archsimd.X86.FMA()
)

// KernelName reports the micro-kernel selected for this CPU.
func KernelName() string {
	switch {
	case hasFMA:
		return "avx2-fma-6x8"
	case hasAVX2:
		return "avx2-6x8"
	default:
		return "generic-6x8"
	}
}

func microKernel(depth int, a, b, tile []float64) {
	switch {
	case hasFMA:
		microKernelFMA(depth, a, b, tile)
	case hasAVX2:
		microKernelAVX2(depth, a, b, tile)
	default:
		microKernelGeneric(depth, a, b, tile)
	}
}

// microKernelAVX2 keeps the 6×8 tile in twelve 4-lane accumulators, two per
// row, and walks the depth four steps at a time.
func microKernelAVX2(depth int, a, b, tile []float64) {
	var (
		c00, c01, c10, c11, c20, c21, c30, c31, c40, c41, c50, c51 archsimd.Float64x4
		b0, b1, av archsimd.Float64x4
	)
	a = a[:depth*mr]
	b = b[:depth*nr]

	k := 0
	for ; k+4 <= depth; k += 4 {
		b0 = archsimd.LoadFloat64x4Slice(b[0:])
		b1 = archsimd.LoadFloat64x4Slice(b[4:])
		av = archsimd.BroadcastFloat64x4(a[0])
		c00 = c00.Add(av.Mul(b0))
		c01 = c01.Add(av.Mul(b1))
		av = archsimd.BroadcastFloat64x4(a[1])
		c10 = c10.Add(av.Mul(b0))
		c11 = c11.Add(av.Mul(b1))
		av = archsimd.BroadcastFloat64x4(a[2])
		c20 = c20.Add(av.Mul(b0))
		c21 = c21.Add(av.Mul(b1))
		av = archsimd.BroadcastFloat64x4(a[3])
		c30 = c30.Add(av.Mul(b0))
		c31 = c31.Add(av.Mul(b1))
		av = archsimd.BroadcastFloat64x4(a[4])
		c40 = c40.Add(av.Mul(b0))
		c41 = c41.Add(av.Mul(b1))
		av = archsimd.BroadcastFloat64x4(a[5])
		c50 = c50.Add(av.Mul(b0))
		c51 = c51.Add(av.Mul(b1))

		b0 = archsimd.LoadFloat64x4Slice(b[nr:])
		b1 = archsimd.LoadFloat64x4Slice(b[nr+4:])
		av = archsimd.BroadcastFloat64x4(a[mr+0])
		c00 = c00.Add(av.Mul(b0))
		c01 = c01.Add(av.Mul(b1))
		av = archsimd.BroadcastFloat64x4(a[mr+1])
		c10 = c10.Add(av.Mul(b0))
		c11 = c11.Add(av.Mul(b1))
		av = archsimd.BroadcastFloat64x4(a[mr+2])
		c20 = c20.Add(av.Mul(b0))
		c21 = c21.Add(av.Mul(b1))
		av = archsimd.BroadcastFloat64x4(a[mr+3])
		c30 = c30.Add(av.Mul(b0))
		c31 = c31.Add(av.Mul(b1))
		av = archsimd.BroadcastFloat64x4(a[mr+4])
		c40 = c40.Add(av.Mul(b0))
		c41 = c41.Add(av.Mul(b1))
		av = archsimd.BroadcastFloat64x4(a[mr+5])
		c50 = c50.Add(av.Mul(b0))
		c51 = c51.Add(av.Mul(b1))

		b0 = archsimd.LoadFloat64x4Slice(b[2*nr:])
		b1 = archsimd.LoadFloat64x4Slice(b[2*nr+4:])
		av = archsimd.BroadcastFloat64x4(a[2*mr+0])
		c00 = c00.Add(av.Mul(b0))
		c01 = c01.Add(av.Mul(b1))
		av = archsimd.BroadcastFloat64x4(a[2*mr+1])
		c10 = c10.Add(av.Mul(b0))
		c11 = c11.Add(av.Mul(b1))
		av = archsimd.BroadcastFloat64x4(a[2*mr+2])
		c20 = c20.Add(av.Mul(b0))
		c21 = c21.Add(av.Mul(b1))
		av = archsimd.BroadcastFloat64x4(a[2*mr+3])
		c30 = c30.Add(av.Mul(b0))
		c31 = c31.Add(av.Mul(b1))
		av = archsimd.BroadcastFloat64x4(a[2*mr+4])
		c40 = c40.Add(av.Mul(b0))
		c41 = c41.Add(av.Mul(b1))
		av = archsimd.BroadcastFloat64x4(a[2*mr+5])
		c50 = c50.Add(av.Mul(b0))
		c51 = c51.Add(av.Mul(b1))

		b0 = archsimd.LoadFloat64x4Slice(b[3*nr:])
		b1 = archsimd.LoadFloat64x4Slice(b[3*nr+4:])
		av = archsimd.BroadcastFloat64x4(a[3*mr+0])
		c00 = c00.Add(av.Mul(b0))
		c01 = c01.Add(av.Mul(b1))
		av = archsimd.BroadcastFloat64x4(a[3*mr+1])
		c10 = c10.Add(av.Mul(b0))
		c11 = c11.Add(av.Mul(b1))
		av = archsimd.BroadcastFloat64x4(a[3*mr+2])
		c20 = c20.Add(av.Mul(b0))
		c21 = c21.Add(av.Mul(b1))
		av = archsimd.BroadcastFloat64x4(a[3*mr+3])
		c30 = c30.Add(av.Mul(b0))
		c31 = c31.Add(av.Mul(b1))
		av = archsimd.BroadcastFloat64x4(a[3*mr+4])
		c40 = c40.Add(av.Mul(b0))
		c41 = c41.Add(av.Mul(b1))
		av = archsimd.BroadcastFloat64x4(a[3*mr+5])
		c50 = c50.Add(av.Mul(b0))
		c51 = c51.Add(av.Mul(b1))

		a = a[4*mr:]
		b = b[4*nr:]
	}
	for ; k < depth; k++ {
		b0 = archsimd.LoadFloat64x4Slice(b[0:])
		b1 = archsimd.LoadFloat64x4Slice(b[4:])
		av = archsimd.BroadcastFloat64x4(a[0])
		c00 = c00.Add(av.Mul(b0))
		c01 = c01.Add(av.Mul(b1))
		av = archsimd.BroadcastFloat64x4(a[1])
		c10 = c10.Add(av.Mul(b0))
		c11 = c11.Add(av.Mul(b1))
		av = archsimd.BroadcastFloat64x4(a[2])
		c20 = c20.Add(av.Mul(b0))
		c21 = c21.Add(av.Mul(b1))
		av = archsimd.BroadcastFloat64x4(a[3])
		c30 = c30.Add(av.Mul(b0))
		c31 = c31.Add(av.Mul(b1))
		av = archsimd.BroadcastFloat64x4(a[4])
		c40 = c40.Add(av.Mul(b0))
		c41 = c41.Add(av.Mul(b1))
		av = archsimd.BroadcastFloat64x4(a[5])
		c50 = c50.Add(av.Mul(b0))
		c51 = c51.Add(av.Mul(b1))

		a = a[mr:]
		b = b[nr:]
	}

	c00.StoreSlice(tile[0*nr:])
	c01.StoreSlice(tile[0*nr+4:])
	c10.StoreSlice(tile[1*nr:])
	c11.StoreSlice(tile[1*nr+4:])
	c20.StoreSlice(tile[2*nr:])
	c21.StoreSlice(tile[2*nr+4:])
	c30.StoreSlice(tile[3*nr:])
	c31.StoreSlice(tile[3*nr+4:])
	c40.StoreSlice(tile[4*nr:])
	c41.StoreSlice(tile[4*nr+4:])
	c50.StoreSlice(tile[5*nr:])
	c51.StoreSlice(tile[5*nr+4:])
}

// microKernelFMA is microKernelAVX2 with each multiply and add fused.
func microKernelFMA(depth int, a, b, tile []float64) {
	var (
		c00, c01, c10, c11, c20, c21, c30, c31, c40, c41, c50, c51 archsimd.Float64x4
		b0, b1, av archsimd.Float64x4
	)
	a = a[:depth*mr]
	b = b[:depth*nr]

	k := 0
	for ; k+4 <= depth; k += 4 {
		b0 = archsimd.LoadFloat64x4Slice(b[0:])
		b1 = archsimd.LoadFloat64x4Slice(b[4:])
		av = archsimd.BroadcastFloat64x4(a[0])
		c00 = b0.MulAdd(av, c00)
		c01 = b1.MulAdd(av, c01)
		av = archsimd.BroadcastFloat64x4(a[1])
		c10 = b0.MulAdd(av, c10)
		c11 = b1.MulAdd(av, c11)
		av = archsimd.BroadcastFloat64x4(a[2])
		c20 = b0.MulAdd(av, c20)
		c21 = b1.MulAdd(av, c21)
		av = archsimd.BroadcastFloat64x4(a[3])
		c30 = b0.MulAdd(av, c30)
		c31 = b1.MulAdd(av, c31)
		av = archsimd.BroadcastFloat64x4(a[4])
		c40 = b0.MulAdd(av, c40)
		c41 = b1.MulAdd(av, c41)
		av = archsimd.BroadcastFloat64x4(a[5])
		c50 = b0.MulAdd(av, c50)
		c51 = b1.MulAdd(av, c51)

		b0 = archsimd.LoadFloat64x4Slice(b[nr:])
		b1 = archsimd.LoadFloat64x4Slice(b[nr+4:])
		av = archsimd.BroadcastFloat64x4(a[mr+0])
		c00 = b0.MulAdd(av, c00)
		c01 = b1.MulAdd(av, c01)
		av = archsimd.BroadcastFloat64x4(a[mr+1])
		c10 = b0.MulAdd(av, c10)
		c11 = b1.MulAdd(av, c11)
		av = archsimd.BroadcastFloat64x4(a[mr+2])
		c20 = b0.MulAdd(av, c20)
		c21 = b1.MulAdd(av, c21)
		av = archsimd.BroadcastFloat64x4(a[mr+3])
		c30 = b0.MulAdd(av, c30)
		c31 = b1.MulAdd(av, c31)
		av = archsimd.BroadcastFloat64x4(a[mr+4])
		c40 = b0.MulAdd(av, c40)
		c41 = b1.MulAdd(av, c41)
		av = archsimd.BroadcastFloat64x4(a[mr+5])
		c50 = b0.MulAdd(av, c50)
		c51 = b1.MulAdd(av, c51)

		b0 = archsimd.LoadFloat64x4Slice(b[2*nr:])
		b1 = archsimd.LoadFloat64x4Slice(b[2*nr+4:])
		av = archsimd.BroadcastFloat64x4(a[2*mr+0])
		c00 = b0.MulAdd(av, c00)
		c01 = b1.MulAdd(av, c01)
		av = archsimd.BroadcastFloat64x4(a[2*mr+1])
		c10 = b0.MulAdd(av, c10)
		c11 = b1.MulAdd(av, c11)
		av = archsimd.BroadcastFloat64x4(a[2*mr+2])
		c20 = b0.MulAdd(av, c20)
		c21 = b1.MulAdd(av, c21)
		av = archsimd.BroadcastFloat64x4(a[2*mr+3])
		c30 = b0.MulAdd(av, c30)
		c31 = b1.MulAdd(av, c31)
		av = archsimd.BroadcastFloat64x4(a[2*mr+4])
		c40 = b0.MulAdd(av, c40)
		c41 = b1.MulAdd(av, c41)
		av = archsimd.BroadcastFloat64x4(a[2*mr+5])
		c50 = b0.MulAdd(av, c50)
		c51 = b1.MulAdd(av, c51)

		b0 = archsimd.LoadFloat64x4Slice(b[3*nr:])
		b1 = archsimd.LoadFloat64x4Slice(b[3*nr+4:])
		av = archsimd.BroadcastFloat64x4(a[3*mr+0])
		c00 = b0.MulAdd(av, c00)
		c01 = b1.MulAdd(av, c01)
		av = archsimd.BroadcastFloat64x4(a[3*mr+1])
		c10 = b0.MulAdd(av, c10)
		c11 = b1.MulAdd(av, c11)
		av = archsimd.BroadcastFloat64x4(a[3*mr+2])
		c20 = b0.MulAdd(av, c20)
		c21 = b1.MulAdd(av, c21)
		av = archsimd.BroadcastFloat64x4(a[3*mr+3])
		c30 = b0.MulAdd(av, c30)
		c31 = b1.MulAdd(av, c31)
		av = archsimd.BroadcastFloat64x4(a[3*mr+4])
		c40 = b0.MulAdd(av, c40)
		c41 = b1.MulAdd(av, c41)
		av = archsimd.BroadcastFloat64x4(a[3*mr+5])
		c50 = b0.MulAdd(av, c50)
		c51 = b1.MulAdd(av, c51)

		a = a[4*mr:]
		b = b[4*nr:]
	}
	for ; k < depth; k++ {
		b0 = archsimd.LoadFloat64x4Slice(b[0:])
		b1 = archsimd.LoadFloat64x4Slice(b[4:])
		av = archsimd.BroadcastFloat64x4(a[0])
		c00 = b0.MulAdd(av, c00)
		c01 = b1.MulAdd(av, c01)
		av = archsimd.BroadcastFloat64x4(a[1])
		c10 = b0.MulAdd(av, c10)
		c11 = b1.MulAdd(av, c11)
		av = archsimd.BroadcastFloat64x4(a[2])
		c20 = b0.MulAdd(av, c20)
		c21 = b1.MulAdd(av, c21)
		av = archsimd.BroadcastFloat64x4(a[3])
		c30 = b0.MulAdd(av, c30)
		c31 = b1.MulAdd(av, c31)
		av = archsimd.BroadcastFloat64x4(a[4])
		c40 = b0.MulAdd(av, c40)
		c41 = b1.MulAdd(av, c41)
		av = archsimd.BroadcastFloat64x4(a[5])
		c50 = b0.MulAdd(av, c50)
		c51 = b1.MulAdd(av, c51)

		a = a[mr:]
		b = b[nr:]
	}

	c00.StoreSlice(tile[0*nr:])
	c01.StoreSlice(tile[0*nr+4:])
	c10.StoreSlice(tile[1*nr:])
	c11.StoreSlice(tile[1*nr+4:])
	c20.StoreSlice(tile[2*nr:])
	c21.StoreSlice(tile[2*nr+4:])
	c30.StoreSlice(tile[3*nr:])
	c31.StoreSlice(tile[3*nr+4:])
	c40.StoreSlice(tile[4*nr:])
	c41.StoreSlice(tile[4*nr+4:])
	c50.StoreSlice(tile[5*nr:])
	c51.StoreSlice(tile[5*nr+4:])
}
