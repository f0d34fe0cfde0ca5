package gemm

import (
	"errors"
	"fmt"

	"github.com/samcharles93/linalg/internal/arena"
	"github.com/samcharles93/linalg/internal/index"
	"github.com/samcharles93/linalg/pkg/tensor"
)

var (
	// ErrOutOfBounds is returned when a tensor's shape and strides reach
	// outside its buffer.
	ErrOutOfBounds = errors.New("gemm: tensor view out of bounds")

	// ErrRepeatedDestination is returned when the destination symbols repeat
	// a letter.
	ErrRepeatedDestination = errors.New("gemm: repeated destination symbol")
)

// Contract computes C := beta*C + alpha*contract(A, B) where sa, sb and sc
// name the axes of each tensor. Symbols shared by A and B and absent from sc
// are summed; symbols in all three are batch axes; symbols present in only
// one operand and absent from sc are summed over that operand alone.
// Repeated symbols within an operand select its diagonal.
func Contract(cfg Config, alpha float64, a *tensor.Tensor, sa string, b *tensor.Tensor, sb string, beta float64, c *tensor.Tensor, sc string) error {
	am, err := index.Diagonal(a.Shape, a.Strides, sa)
	if err != nil {
		return fmt.Errorf("left operand: %w", err)
	}
	bm, err := index.Diagonal(b.Shape, b.Strides, sb)
	if err != nil {
		return fmt.Errorf("right operand: %w", err)
	}
	cm, err := index.Diagonal(c.Shape, c.Strides, sc)
	if err != nil {
		return fmt.Errorf("destination: %w", err)
	}
	if cm.Len() != len(sc) {
		return fmt.Errorf("%w: %q", ErrRepeatedDestination, sc)
	}
	if cfg.BoundsCheck {
		for _, t := range []*tensor.Tensor{a, b, c} {
			if err := checkBounds(t); err != nil {
				return err
			}
		}
	}
	div, err := index.Divide(am, bm, cm)
	if err != nil {
		return err
	}

	p := newProblem(div)
	overwrite := beta == 0 && !p.reduces()
	if !overwrite {
		scale(beta, c)
	}
	if p.empty() {
		if overwrite {
			scale(0, c)
		}
		return nil
	}
	if p.swapped() {
		p.swap()
		a, b = b, a
	}
	p.run(cfg.degree(), alpha, a, b, c, overwrite)
	return nil
}

// problem is a classified, folded contraction: C[M,N] (+)= A[M,K]·B[N,K]
// for every index of the outer axes.
type problem struct {
	m     []index.Double // strides (A, C)
	n     []index.Double // strides (B, C)
	k     []index.Double // strides (A, B)
	outer []index.Triple
}

func newProblem(d index.Division) problem {
	outer := append([]index.Triple(nil), d.Batch...)
	for _, s := range d.LeftOnly {
		outer = append(outer, index.Triple{Len: s.Len, StrideA: s.Stride})
	}
	for _, s := range d.RightOnly {
		outer = append(outer, index.Triple{Len: s.Len, StrideB: s.Stride})
	}
	return problem{
		m:     index.FoldDouble(d.LeftFree),
		n:     index.FoldDouble(d.RightFree),
		k:     index.FoldDouble(d.Contracted),
		outer: index.FoldTriple(outer),
	}
}

// empty reports whether any group has zero extent, in which case only the
// beta scaling applies.
func (p problem) empty() bool {
	return index.Extent(p.m) == 0 || index.Extent(p.n) == 0 ||
		index.Extent(p.k) == 0 || index.Extent(p.outer) == 0
}

// reduces reports whether some outer axis revisits the same destination
// elements, so the destination must be accumulated rather than assigned.
func (p problem) reduces() bool {
	for _, o := range p.outer {
		if o.StrideC == 0 && o.Len > 1 {
			return true
		}
	}
	return false
}

// swapped reports whether B should be packed as the left operand: when B's
// innermost contracted axis is unit stride and A's is not.
func (p problem) swapped() bool {
	if len(p.k) == 0 {
		return false
	}
	inner := p.k[len(p.k)-1]
	return abs(inner.StrideB) == 1 && abs(inner.StrideA) != 1
}

func (p *problem) swap() {
	p.m, p.n = p.n, p.m
	for i, g := range p.k {
		p.k[i] = index.Double{Len: g.Len, StrideA: g.StrideB, StrideB: g.StrideA}
	}
	for i, o := range p.outer {
		p.outer[i] = index.Triple{Len: o.Len, StrideA: o.StrideB, StrideB: o.StrideA, StrideC: o.StrideC}
	}
}

func (p problem) run(degree int, alpha float64, a, b, c *tensor.Tensor, overwrite bool) {
	aRows := BuildScatters(leftStrides(p.m), mr)
	defer aRows.Release()
	aCols := BuildScatters(leftStrides(p.k), kr)
	defer aCols.Release()
	bRows := BuildScatters(leftStrides(p.n), nr)
	defer bRows.Release()
	bCols := BuildScatters(rightStrides(p.k), kr)
	defer bCols.Release()
	cRows := BuildScatters(rightStrides(p.m), mr)
	defer cRows.Release()
	cCols := BuildScatters(rightStrides(p.n), nr)
	defer cCols.Release()

	d := driver{
		degree:    degree,
		alpha:     alpha,
		overwrite: overwrite,
		a:         NewMatrix(a.Data, 0, aRows, aCols),
		b:         NewMatrix(b.Data, 0, bRows, bCols),
		c:         NewMatrix(c.Data, 0, cRows, cCols),
		mc:        selectMC(aCols.Len()),
	}

	m, n, k := aRows.Len(), bRows.Len(), aCols.Len()
	aBuf, releaseA := arena.Floats(PanelSize(min(d.mc, m), min(kc, k), mr, kr))
	defer releaseA()
	bBuf, releaseB := arena.Floats(PanelSize(min(nc, n), min(kc, k), nr, kr))
	defer releaseB()
	d.aBuf, d.bBuf = aBuf, bBuf

	d.outer(p.outer, a.Offset, b.Offset, c.Offset)
}

type driver struct {
	degree     int
	alpha      float64
	overwrite  bool
	a, b, c    Matrix
	mc         int
	aBuf, bBuf []float64
}

// outer peels the first remaining outer axis and recurses over its length,
// shifting the three base offsets by its strides.
func (d *driver) outer(axes []index.Triple, offA, offB, offC int) {
	if len(axes) == 0 {
		d.blocked(offA, offB, offC)
		return
	}
	ax := axes[0]
	for i := range ax.Len {
		d.outer(axes[1:], offA+i*ax.StrideA, offB+i*ax.StrideB, offC+i*ax.StrideC)
	}
}

// blocked runs the three-level cache-blocked loop nest for one outer index.
func (d *driver) blocked(offA, offB, offC int) {
	a := d.a.WithBase(offA)
	b := d.b.WithBase(offB)
	c := d.c.WithBase(offC)
	m, n, k := a.Rows(), b.Rows(), a.Cols()

	for ic := 0; ic < m; ic += d.mc {
		mcEff := min(d.mc, m-ic)
		for pc := 0; pc < k; pc += kc {
			kcEff := min(kc, k-pc)
			ap := Pack(d.degree, d.aBuf, a.Slice(ic, mcEff, pc, kcEff))
			for jc := 0; jc < n; jc += nc {
				ncEff := min(nc, n-jc)
				bp := Pack(d.degree, d.bBuf, b.Slice(jc, ncEff, pc, kcEff))
				macroKernel(d.degree, d.alpha, ap, bp, c.Slice(ic, mcEff, jc, ncEff), d.overwrite && pc == 0)
			}
		}
	}
}

// scale multiplies every element of t by beta. beta == 0 assigns zero so
// NaN and Inf already in t do not survive.
func scale(beta float64, t *tensor.Tensor) {
	switch beta {
	case 1:
		return
	case 0:
		t.Each(func(off int) { t.Data[off] = 0 })
	default:
		t.Each(func(off int) { t.Data[off] *= beta })
	}
}

func checkBounds(t *tensor.Tensor) error {
	lo, hi, ok := t.Extent()
	if !ok {
		return nil
	}
	if lo < 0 || hi >= len(t.Data) {
		return fmt.Errorf("%w: shape %v strides %v offset %d over %d elements",
			ErrOutOfBounds, t.Shape, t.Strides, t.Offset, len(t.Data))
	}
	return nil
}

func abs(x int) int {
	if x < 0 {
		return -x
	}
	return x
}
