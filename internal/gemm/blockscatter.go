package gemm

// Matrix is an implicit rows×cols matrix over a flat buffer. Element (i, j)
// lives at Data[Base + rows.Offset(r0+i) + cols.Offset(c0+j)]. Views taken with
// Slice share the scatter tables of their parent.
type Matrix struct {
	Data []float64
	Base int

	rows, cols Scatter
	r0, c0     int
	m, n       int
}

// NewMatrix returns the full view described by the row and column scatters.
func NewMatrix(data []float64, base int, rows, cols Scatter) Matrix {
	return Matrix{
		Data: data,
		Base: base,
		rows: rows,
		cols: cols,
		m:    rows.Len(),
		n:    cols.Len(),
	}
}

func (a Matrix) Rows() int { return a.m }
func (a Matrix) Cols() int { return a.n }

// RowOffset returns the physical offset contributed by row i of the view.
func (a Matrix) RowOffset(i int) int { return a.rows.Offset(a.r0 + i) }

// ColOffset returns the physical offset contributed by column j of the view.
func (a Matrix) ColOffset(j int) int { return a.cols.Offset(a.c0 + j) }

// Local returns the flat index into Data of element (i, j).
func (a Matrix) Local(i, j int) int {
	return a.Base + a.RowOffset(i) + a.ColOffset(j)
}

func (a Matrix) At(i, j int) float64 { return a.Data[a.Local(i, j)] }

// Slice returns the sub-view of rows [r0, r0+rows) and columns [c0, c0+cols).
// Both starts must fall on a block boundary of the respective scatter.
func (a Matrix) Slice(r0, rows, c0, cols int) Matrix {
	if (a.r0+r0)%a.rows.block != 0 || (a.c0+c0)%a.cols.block != 0 {
		panic("gemm: slice start not block aligned")
	}
	if r0 < 0 || c0 < 0 || r0+rows > a.m || c0+cols > a.n {
		panic("gemm: slice out of range")
	}
	s := a
	s.r0 += r0
	s.c0 += c0
	s.m = rows
	s.n = cols
	return s
}

// WithBase returns the same view shifted to a new base offset.
func (a Matrix) WithBase(base int) Matrix {
	a.Base = base
	return a
}

// rowBlock returns the scatter block holding view row i, which must be block
// aligned, and the number of valid rows in it.
func (a Matrix) rowBlock(i int) (stride int, offs []int, affine bool, valid int) {
	stride, offs, affine = a.rows.Block((a.r0 + i) / a.rows.block)
	return stride, offs, affine, min(a.rows.block, a.m-i)
}

func (a Matrix) colBlock(j int) (stride int, offs []int, affine bool, valid int) {
	stride, offs, affine = a.cols.Block((a.c0 + j) / a.cols.block)
	return stride, offs, affine, min(a.cols.block, a.n-j)
}
