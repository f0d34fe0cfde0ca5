package gemm

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/samcharles93/linalg/internal/index"
)

var (
	affineRows    = []index.Single{{Len: 17, Stride: 23}}
	irregularRows = []index.Single{{Len: 5, Stride: 60}, {Len: 3, Stride: 2}, {Len: 1, Stride: 999}}
	affineCols    = []index.Single{{Len: 11, Stride: 1}}
	irregularCols = []index.Single{{Len: 3, Stride: 4}, {Len: 3, Stride: -1}}
)

func TestPackRoundTripAllPaths(t *testing.T) {
	cases := []struct {
		name       string
		rows, cols []index.Single
	}{
		{"affine/affine", affineRows, affineCols},
		{"affine/irregular", affineRows, irregularCols},
		{"irregular/affine", irregularRows, affineCols},
		{"irregular/irregular", irregularRows, irregularCols},
	}
	data := randomData(1000, 7)

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			rows := BuildScatters(tc.rows, mr)
			defer rows.Release()
			cols := BuildScatters(tc.cols, kr)
			defer cols.Release()
			m := NewMatrix(data, 10, rows, cols)

			buf := make([]float64, PanelSize(m.Rows(), m.Cols(), mr, kr))
			for i := range buf {
				buf[i] = 42 // padding must be overwritten
			}
			p := Pack(4, buf, m)

			assert.Equal(t, roundUp(m.Cols(), kr), p.ColPad)
			for i := range roundUp(m.Rows(), mr) {
				for j := range p.ColPad {
					if i < m.Rows() && j < m.Cols() {
						assert.Equal(t, m.At(i, j), p.At(i, j), "element (%d,%d)", i, j)
					} else {
						assert.Equal(t, 0.0, p.At(i, j), "padding (%d,%d)", i, j)
					}
				}
			}
		})
	}
}

func TestUnpackAllPaths(t *testing.T) {
	for _, rowsG := range [][]index.Single{{{Len: 9, Stride: 20}}, {{Len: 3, Stride: 100}, {Len: 3, Stride: 30}}} {
		for _, colsG := range [][]index.Single{{{Len: 10, Stride: 1}}, {{Len: 2, Stride: 11}, {Len: 5, Stride: 2}}} {
			rows := BuildScatters(rowsG, mr)
			cols := BuildScatters(colsG, nr)
			data := randomData(400, 3)
			orig := append([]float64(nil), data...)
			c := NewMatrix(data, 5, rows, cols)

			tile := randomData(mr*nr, 9)
			for i0 := 0; i0 < c.Rows(); i0 += mr {
				for j0 := 0; j0 < c.Cols(); j0 += nr {
					UnpackAxpy(2, tile, c, i0, j0)
				}
			}
			for i := range c.Rows() {
				for j := range c.Cols() {
					want := orig[c.Local(i, j)] + 2*tile[(i%mr)*nr+j%nr]
					assert.InDelta(t, want, c.At(i, j), 1e-15)
				}
			}

			for i0 := 0; i0 < c.Rows(); i0 += mr {
				for j0 := 0; j0 < c.Cols(); j0 += nr {
					UnpackScale2(-0.5, tile, c, i0, j0)
				}
			}
			for i := range c.Rows() {
				for j := range c.Cols() {
					assert.Equal(t, -0.5*tile[(i%mr)*nr+j%nr], c.At(i, j))
				}
			}
			rows.Release()
			cols.Release()
		}
	}
}

func TestPrefetchHasNoEffect(t *testing.T) {
	rows := BuildScatters([]index.Single{{Len: 12, Stride: 16}}, mr)
	defer rows.Release()
	cols := BuildScatters([]index.Single{{Len: 16, Stride: 1}}, nr)
	defer cols.Release()
	data := randomData(12*16, 5)
	orig := append([]float64(nil), data...)
	c := NewMatrix(data, 0, rows, cols)

	_ = Prefetch(c, 6, 8)
	assert.Equal(t, 0.0, Prefetch(c, 12, 0))
	assert.Equal(t, orig, data)
}

func TestNextTileWalksBothDimensions(t *testing.T) {
	// Two column blocks, band of row groups [0, 3).
	n := nr + 3
	i, j, ok := nextTile(n, 0, 0, 3)
	assert.True(t, ok)
	assert.Equal(t, [2]int{0, nr}, [2]int{i, j})

	i, j, ok = nextTile(n, 0, 1, 3)
	assert.True(t, ok)
	assert.Equal(t, [2]int{mr, 0}, [2]int{i, j})

	_, _, ok = nextTile(n, 2, 1, 3)
	assert.False(t, ok, "last tile of the band has no successor")

	i, j, ok = nextTile(nr, 1, 0, 3)
	assert.True(t, ok)
	assert.Equal(t, [2]int{2 * mr, 0}, [2]int{i, j})
}

func TestMicroKernelMatchesNaive(t *testing.T) {
	for _, depth := range []int{1, 3, 4, 6, 13, 144} {
		a := randomData(depth*mr, int64(depth))
		b := randomData(depth*nr, int64(depth)+100)
		tile := make([]float64, mr*nr)
		microKernel(depth, a, b, tile)
		for r := range mr {
			for c := range nr {
				var want float64
				for k := range depth {
					want += a[k*mr+r] * b[k*nr+c]
				}
				assert.InDelta(t, want, tile[r*nr+c], 1e-12, "depth %d (%d,%d)", depth, r, c)
			}
		}
	}
}

func TestKernelName(t *testing.T) {
	assert.Contains(t, KernelName(), "6x8")
}
