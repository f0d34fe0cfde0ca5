package gemm

import (
	"runtime"

	"github.com/samcharles93/linalg/internal/arena"
	"github.com/samcharles93/linalg/internal/parallel"
)

// macroKernel computes c (+)= alpha * a·bᵀ for packed panels a (rows of c by
// depth) and b (columns of c by depth). Row groups of mr rows are independent
// and run in parallel; each worker owns a contiguous band of row groups of c
// for the whole call. The next tile is touched before each micro-kernel call:
// the next column block, or the first tile of the next row group in the band.
// With overwrite set, c is assigned instead of accumulated.
func macroKernel(degree int, alpha float64, a, b Panel, c Matrix, overwrite bool) {
	if a.ColPad != b.ColPad {
		panic("gemm: packed panel depth mismatch")
	}
	depth := a.ColPad
	jBlocks := ceilDiv(c.n, nr)

	parallel.ForRange(degree, ceilDiv(c.m, mr), func(lo, hi int) {
		tile, release := arena.ZeroFloats(mr * nr)
		defer release()

		var touched float64
		for g := lo; g < hi; g++ {
			ap := a.block(g)
			i0 := g * mr
			for jb := range jBlocks {
				j0 := jb * nr
				if ni, nj, ok := nextTile(c.n, g, jb, hi); ok {
					touched += Prefetch(c, ni, nj)
				}
				microKernel(depth, ap, b.block(jb), tile)
				if overwrite {
					UnpackScale2(alpha, tile, c, i0, j0)
				} else {
					UnpackAxpy(alpha, tile, c, i0, j0)
				}
			}
		}
		runtime.KeepAlive(touched)
	})
}

// nextTile returns the origin of the tile after (g, jb) in a band of row
// groups ending before hi: the next column block of the same row group, else
// the first column block of the next row group.
func nextTile(n, g, jb, hi int) (i0, j0 int, ok bool) {
	if j := (jb + 1) * nr; j < n {
		return g * mr, j, true
	}
	if g+1 < hi {
		return (g + 1) * mr, 0, true
	}
	return 0, 0, false
}
