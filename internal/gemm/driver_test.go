package gemm

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/samcharles93/linalg/internal/index"
	"github.com/samcharles93/linalg/internal/reference"
	"github.com/samcharles93/linalg/pkg/tensor"
)

func randTensor(seed int64, shape ...int) *tensor.Tensor {
	t := tensor.New(shape...)
	tensor.FillRand(t, seed)
	return t
}

func contractNew(t *testing.T, cfg Config, a *tensor.Tensor, sa string, b *tensor.Tensor, sb string, sc string, shape ...int) *tensor.Tensor {
	t.Helper()
	c := tensor.New(shape...)
	require.NoError(t, Contract(cfg, 1, a, sa, b, sb, 0, c, sc))
	return c
}

func assertClose(t *testing.T, want, got *tensor.Tensor, depth int) {
	t.Helper()
	require.Equal(t, want.Shape, got.Shape)
	tol := 1e-9 * max(reference.MaxAbs(want), 1) * float64(max(depth, 1))
	diff := reference.MaxAbsDiff(want, got)
	assert.LessOrEqual(t, diff, tol, "max abs diff %g", diff)
}

func TestContractConcreteCase(t *testing.T) {
	a := tensor.New(3, 4)
	for i := range 3 {
		for j := range 4 {
			a.Set(float64(i*4+j), i, j)
		}
	}
	b := tensor.New(4, 2)
	for i := range 4 {
		for j := range 2 {
			b.Set(float64(i*2+j), i, j)
		}
	}
	c := contractNew(t, DefaultConfig(), a, "ik", b, "kj", "ij", 3, 2)
	assert.Equal(t, []float64{28, 34, 76, 98, 124, 162}, c.Data)
	assert.Equal(t, reference.Einsum("ik,kj->ij", a, b).Data, c.Data)
}

func TestContractMatchesNaive(t *testing.T) {
	cases := []struct {
		name    string
		m, k, n int
	}{
		{"tiny", 1, 1, 1},
		{"ragged", 7, 5, 9},
		{"deep", 13, 300, 11},
		{"tall", 520, 20, 10},
		{"wide", 7, 9, 530},
		{"row blocks deep", 600, 150, 10},
		{"row blocks shallow", 2100, 20, 9},
		{"deep wide", 13, 290, 1030},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			a := randTensor(1, tc.m, tc.k)
			b := randTensor(2, tc.k, tc.n)
			got := contractNew(t, DefaultConfig(), a, "ik", b, "kj", "ij", tc.m, tc.n)
			assertClose(t, reference.Einsum("ik,kj->ij", a, b), got, tc.k)
		})
	}
}

func TestContractTransposedOperands(t *testing.T) {
	// A stored as k×m, B as n×k: both contracted axes have unit stride
	// on B, which triggers the operand swap.
	a := randTensor(3, 40, 17).Transpose(1, 0)
	b := randTensor(4, 23, 40)
	got := contractNew(t, DefaultConfig(), a, "ik", b, "jk", "ij", 17, 23)
	assertClose(t, reference.Einsum("ik,jk->ij", a, b), got, 40)
}

func TestContractNegativeStrides(t *testing.T) {
	a := randTensor(5, 9, 12).Reverse(0)
	b := randTensor(6, 12, 10).Reverse(1)
	got := contractNew(t, DefaultConfig(), a, "ik", b, "kj", "ij", 9, 10)
	assertClose(t, reference.Einsum("ik,kj->ij", a, b), got, 12)
}

func TestContractBatchAndResidual(t *testing.T) {
	a := randTensor(7, 3, 5, 4, 2)
	b := randTensor(8, 3, 4, 6)
	got := contractNew(t, DefaultConfig(), a, "bikx", b, "bkj", "bij", 3, 5, 6)
	assertClose(t, reference.Einsum("bikx,bkj->bij", a, b), got, 8)

	// j appears only in B and is summed there.
	got = contractNew(t, DefaultConfig(), a, "bikx", b, "bkj", "ix", 5, 2)
	assertClose(t, reference.Einsum("bikx,bkj->ix", a, b), got, 72)
}

func TestContractDiagonalOperand(t *testing.T) {
	a := randTensor(9, 6, 6, 5)
	b := randTensor(10, 5, 6)
	got := contractNew(t, DefaultConfig(), a, "iik", b, "kj", "ij", 6, 6)
	assertClose(t, reference.Einsum("iik,kj->ij", a, b), got, 5)
}

func TestContractTraceWithScalar(t *testing.T) {
	a := randTensor(11, 7, 7)
	got := contractNew(t, DefaultConfig(), a, "ii", tensor.Scalar(1), "", "")
	var trace float64
	for i := range 7 {
		trace += a.At(i, i)
	}
	assert.InDelta(t, trace, got.At(), 1e-12)
}

func TestContractAlphaBeta(t *testing.T) {
	a := randTensor(12, 8, 3)
	b := randTensor(13, 3, 9)
	c := randTensor(14, 8, 9)
	orig := c.Contiguous()

	require.NoError(t, Contract(DefaultConfig(), 2, a, "ik", b, "kj", 0.5, c, "ij"))

	prod := reference.Einsum("ik,kj->ij", a, b)
	for i := range 8 {
		for j := range 9 {
			assert.InDelta(t, 0.5*orig.At(i, j)+2*prod.At(i, j), c.At(i, j), 1e-12)
		}
	}
}

func TestContractBetaZeroDiscardsNaN(t *testing.T) {
	a := randTensor(15, 4, 3)
	b := randTensor(16, 3, 5)
	c := tensor.New(4, 5)
	for i := range c.Data {
		c.Data[i] = math.NaN()
	}
	require.NoError(t, Contract(DefaultConfig(), 1, a, "ik", b, "kj", 0, c, "ij"))
	assertClose(t, reference.Einsum("ik,kj->ij", a, b), c, 3)
}

func TestContractEmptyExtent(t *testing.T) {
	a := tensor.New(4, 0)
	b := tensor.New(0, 3)
	c := randTensor(17, 4, 3)
	require.NoError(t, Contract(DefaultConfig(), 1, a, "ik", b, "kj", 0, c, "ij"))
	for _, v := range c.Data {
		assert.Equal(t, 0.0, v)
	}
}

func TestContractParallelismSettingsAgree(t *testing.T) {
	a := randTensor(18, 64, 50)
	b := randTensor(19, 50, 40)
	want := reference.Einsum("ik,kj->ij", a, b)
	for _, degree := range []int{1, 2, 8} {
		got := contractNew(t, Config{Parallelism: degree}, a, "ik", b, "kj", "ij", 64, 40)
		assertClose(t, want, got, 50)
	}
}

func TestContractErrors(t *testing.T) {
	a := randTensor(20, 3, 4)
	b := randTensor(21, 5, 2)
	c := tensor.New(3, 2)
	err := Contract(DefaultConfig(), 1, a, "ik", b, "kj", 0, c, "ij")
	assert.ErrorIs(t, err, index.ErrDimensionConflict)

	err = Contract(DefaultConfig(), 1, a, "i", b, "kj", 0, c, "ij")
	assert.ErrorIs(t, err, index.ErrRankMismatch)

	sq := tensor.New(3, 3)
	err = Contract(DefaultConfig(), 1, a, "ik", tensor.Scalar(1), "", 0, sq, "ii")
	assert.ErrorIs(t, err, ErrRepeatedDestination)

	bad := &tensor.Tensor{Shape: []int{3, 4}, Strides: []int{4, 1}, Data: make([]float64, 11)}
	err = Contract(DefaultConfig(), 1, bad, "ik", randTensor(22, 4, 2), "kj", 0, c, "ij")
	assert.ErrorIs(t, err, ErrOutOfBounds)
}

func BenchmarkContract256(b *testing.B) {
	x := randTensor(1, 256, 256)
	y := randTensor(2, 256, 256)
	z := tensor.New(256, 256)
	cfg := DefaultConfig()
	for b.Loop() {
		_ = Contract(cfg, 1, x, "ik", y, "kj", 0, z, "ij")
	}
}

func TestSelectMC(t *testing.T) {
	assert.Equal(t, mcLarge, selectMC(20))
	assert.Equal(t, mcLarge, selectMC(kc))
	assert.Equal(t, mcSmall, selectMC(kc+1))
	// The row-block cases above need more rows than one packed A block.
	assert.Greater(t, 600, selectMC(150))
	assert.Greater(t, 2100, selectMC(20))
}
