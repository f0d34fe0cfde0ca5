package gemm

import (
	"unsafe"

	"golang.org/x/sys/cpu"

	"github.com/samcharles93/linalg/internal/parallel"
)

// Panel is a packed copy of a Matrix region. Rows are grouped in blocks of
// the row scatter's block size; within a row block, elements are stored
// column by column, so the layout is [rowBlock][col][rowInBlock]. Rows past
// the matrix extent and columns up to the next column-block multiple are
// zero.
type Panel struct {
	Data     []float64
	RowBlock int
	ColPad   int
	Rows     int
	Cols     int
}

// PanelSize returns the buffer length Pack needs for a rows×cols region
// blocked by rowBlock×colBlock.
func PanelSize(rows, cols, rowBlock, colBlock int) int {
	return roundUp(rows, rowBlock) * roundUp(cols, colBlock)
}

// At reads packed element (i, j), including padding.
func (p Panel) At(i, j int) float64 {
	rb := i / p.RowBlock
	return p.Data[rb*p.ColPad*p.RowBlock+j*p.RowBlock+i-rb*p.RowBlock]
}

// block returns the contiguous packed data of row block rb.
func (p Panel) block(rb int) []float64 {
	size := p.ColPad * p.RowBlock
	return p.Data[rb*size : (rb+1)*size]
}

// Pack copies a into dst, in parallel over row blocks.
func Pack(degree int, dst []float64, a Matrix) Panel {
	rbs := a.rows.block
	cbs := a.cols.block
	p := Panel{
		RowBlock: rbs,
		ColPad:   roundUp(a.n, cbs),
		Rows:     a.m,
		Cols:     a.n,
	}
	p.Data = dst[:PanelSize(a.m, a.n, rbs, cbs)]

	parallel.For(degree, ceilDiv(a.m, rbs), func(rb int) {
		packRowBlock(p.block(rb), a, rb*rbs)
	})
	return p
}

func packRowBlock(out []float64, a Matrix, i0 int) {
	rbs := a.rows.block
	cbs := a.cols.block
	rs, roffs, raff, rows := a.rowBlock(i0)
	for j0 := 0; j0 < a.n; j0 += cbs {
		cs, coffs, caff, cols := a.colBlock(j0)
		dst := out[j0*rbs : (j0+cbs)*rbs]
		switch {
		case raff && caff:
			packAffineAffine(dst, a.Data, a.Base+roffs[0]+coffs[0], rs, cs, rows, cols, rbs)
		case raff:
			packAffineScatter(dst, a.Data, a.Base+roffs[0], rs, coffs, rows, cols, rbs)
		case caff:
			packScatterAffine(dst, a.Data, a.Base+coffs[0], roffs, cs, rows, cols, rbs)
		default:
			packScatterScatter(dst, a.Data, a.Base, roffs, coffs, rows, cols, rbs)
		}
		if rows < rbs {
			for c := range cols {
				clear(dst[c*rbs+rows : (c+1)*rbs])
			}
		}
		if cols < cbs {
			clear(dst[cols*rbs:])
		}
	}
}

func packAffineAffine(dst, src []float64, off, rs, cs, rows, cols, rbs int) {
	for c := range cols {
		d := dst[c*rbs : c*rbs+rows]
		o := off + c*cs
		for r := range d {
			d[r] = src[o]
			o += rs
		}
	}
}

func packAffineScatter(dst, src []float64, off, rs int, coffs []int, rows, cols, rbs int) {
	for c := range cols {
		d := dst[c*rbs : c*rbs+rows]
		o := off + coffs[c]
		for r := range d {
			d[r] = src[o]
			o += rs
		}
	}
}

func packScatterAffine(dst, src []float64, off int, roffs []int, cs, rows, cols, rbs int) {
	roffs = roffs[:rows]
	for c := range cols {
		d := dst[c*rbs : c*rbs+rows]
		o := off + c*cs
		for r, ro := range roffs {
			d[r] = src[o+ro]
		}
	}
}

func packScatterScatter(dst, src []float64, base int, roffs, coffs []int, rows, cols, rbs int) {
	roffs = roffs[:rows]
	for c := range cols {
		d := dst[c*rbs : c*rbs+rows]
		o := base + coffs[c]
		for r, ro := range roffs {
			d[r] = src[o+ro]
		}
	}
}

// UnpackScale2 writes dst = alpha*tile into the mr×nr block of c starting at
// view position (i0, j0). tile is row-major with nr columns.
func UnpackScale2(alpha float64, tile []float64, c Matrix, i0, j0 int) {
	unpack(alpha, tile, c, i0, j0, false)
}

// UnpackAxpy accumulates dst += alpha*tile into the mr×nr block of c starting
// at view position (i0, j0).
func UnpackAxpy(alpha float64, tile []float64, c Matrix, i0, j0 int) {
	unpack(alpha, tile, c, i0, j0, true)
}

func unpack(alpha float64, tile []float64, c Matrix, i0, j0 int, add bool) {
	rs, roffs, raff, rows := c.rowBlock(i0)
	cs, coffs, caff, cols := c.colBlock(j0)
	data := c.Data
	tcols := c.cols.block
	for r := range rows {
		t := tile[r*tcols : r*tcols+cols]
		var o int
		if raff {
			o = c.Base + roffs[0] + r*rs
		} else {
			o = c.Base + roffs[r]
		}
		if caff {
			o += coffs[0]
			for _, v := range t {
				if add {
					data[o] += alpha * v
				} else {
					data[o] = alpha * v
				}
				o += cs
			}
			continue
		}
		for j, v := range t {
			if add {
				data[o+coffs[j]] += alpha * v
			} else {
				data[o+coffs[j]] = alpha * v
			}
		}
	}
}

// cacheLine is the cache-line size in float64 elements.
var cacheLine = max(int(unsafe.Sizeof(cpu.CacheLinePad{}))/8, 1)

// Prefetch touches the destination rows of the tile of c at view position
// (i0, j0) so their cache lines are resident before the unpack that follows.
// The returned sum has no meaning; callers keep it alive so the loads stay.
func Prefetch(c Matrix, i0, j0 int) float64 {
	if i0 >= c.m || j0 >= c.n {
		return 0
	}
	_, _, _, rows := c.rowBlock(i0)
	_, _, _, cols := c.colBlock(j0)
	var sum float64
	for r := range rows {
		o := c.Base + c.RowOffset(i0+r)
		for j := 0; j < cols; j += cacheLine {
			sum += c.Data[o+c.ColOffset(j0+j)]
		}
	}
	return sum
}
