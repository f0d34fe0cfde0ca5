package gemm

import (
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/samcharles93/linalg/internal/index"
)

// naiveOffsets enumerates a group's offsets with the last entry fastest.
func naiveOffsets(group []index.Single) []int {
	offs := []int{0}
	for _, g := range group {
		next := make([]int, 0, len(offs)*g.Len)
		for _, o := range offs {
			for i := range g.Len {
				next = append(next, o+i*g.Stride)
			}
		}
		offs = next
	}
	return offs
}

func TestBuildScattersAffineAndIrregular(t *testing.T) {
	// Rows of a 3×4 window inside a buffer 10 elements wide.
	group := []index.Single{{Len: 3, Stride: 10}, {Len: 4, Stride: 1}}

	s := BuildScatters(group, 4)
	defer s.Release()
	for b := range 3 {
		stride, offs, affine := s.Block(b)
		assert.True(t, affine, "block %d", b)
		assert.Equal(t, 1, stride)
		assert.Equal(t, b*10, offs[0])
	}

	s6 := BuildScatters(group, 6)
	defer s6.Release()
	_, offs, affine := s6.Block(0)
	assert.False(t, affine)
	assert.Equal(t, []int{0, 1, 2, 3, 10, 11}, offs)

	want := naiveOffsets(group)
	for i, w := range want {
		assert.Equal(t, w, s.Offset(i))
		assert.Equal(t, w, s6.Offset(i))
	}
}

func TestBuildScattersEmptyGroup(t *testing.T) {
	s := BuildScatters(nil, nr)
	defer s.Release()
	assert.Equal(t, 1, s.Len())
	assert.Equal(t, 0, s.Offset(0))
}

func TestBuildScattersNegativeStrides(t *testing.T) {
	group := []index.Single{{Len: 5, Stride: -7}, {Len: 3, Stride: 2}}
	s := BuildScatters(group, 4)
	defer s.Release()
	for i, w := range naiveOffsets(group) {
		require.Equal(t, w, s.Offset(i), "offset %d", i)
	}
}

func randomData(n int, seed int64) []float64 {
	rng := rand.New(rand.NewSource(seed))
	data := make([]float64, n)
	for i := range data {
		data[i] = rng.Float64()*2 - 1
	}
	return data
}

func TestMatrixSliceSharesTables(t *testing.T) {
	data := randomData(200, 1)
	rows := BuildScatters([]index.Single{{Len: 13, Stride: 11}}, mr)
	defer rows.Release()
	cols := BuildScatters([]index.Single{{Len: 2, Stride: 5}, {Len: 5, Stride: 1}}, nr)
	defer cols.Release()

	m := NewMatrix(data, 3, rows, cols)
	s := m.Slice(6, 7, 8, 2)
	assert.Equal(t, 7, s.Rows())
	assert.Equal(t, 2, s.Cols())
	for i := range 7 {
		for j := range 2 {
			assert.Equal(t, m.At(6+i, 8+j), s.At(i, j))
		}
	}
	assert.Panics(t, func() { m.Slice(1, 2, 0, 2) })
}
