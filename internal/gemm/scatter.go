package gemm

import (
	"math"

	"github.com/samcharles93/linalg/internal/arena"
	"github.com/samcharles93/linalg/internal/index"
)

// Irregular marks a scatter block whose offsets must be read one by one.
const Irregular = math.MinInt

// Scatter maps the logical index of one matrix axis to a physical offset.
//
// The table holds blockCount*(blockSize+1) ints. Each block is laid out as
// [header, off0, off1, ..., off{blockSize-1}]: the header is the constant
// stride between consecutive offsets of the block, or Irregular. off0 is
// always the offset of the block's first element.
type Scatter struct {
	table   []int
	block   int
	n       int
	release func()
}

// BuildScatters builds the scatter table of a folded axis group, the last
// entry varying fastest, in blocks of blockSize logical elements. An empty
// group describes a single element at offset 0. Release must be called once
// the table is no longer used.
func BuildScatters(group []index.Single, blockSize int) Scatter {
	n := index.Extent(group)
	blocks := ceilDiv(n, blockSize)
	width := blockSize + 1
	table, release := arena.Ints(blocks * width)
	s := Scatter{table: table, block: blockSize, n: n, release: release}
	if n == 0 {
		return s
	}

	ctr := make([]int, len(group))
	off := 0
	for b := range blocks {
		row := table[b*width+1 : (b+1)*width]
		valid := min(blockSize, n-b*blockSize)
		for t := range valid {
			row[t] = off
			off = advance(group, ctr, off)
		}

		stride := 0
		if valid > 1 {
			stride = row[1] - row[0]
		}
		affine := true
		for t := 2; t < valid; t++ {
			if row[t]-row[t-1] != stride {
				affine = false
				break
			}
		}
		if affine {
			table[b*width] = stride
			for t := valid; t < blockSize; t++ {
				row[t] = row[0] + t*stride
			}
			continue
		}
		table[b*width] = Irregular
		clear(row[valid:])
	}
	return s
}

// advance steps the odometer ctr over group and returns the next offset.
func advance(group []index.Single, ctr []int, off int) int {
	for ax := len(group) - 1; ax >= 0; ax-- {
		ctr[ax]++
		off += group[ax].Stride
		if ctr[ax] < group[ax].Len {
			return off
		}
		off -= ctr[ax] * group[ax].Stride
		ctr[ax] = 0
	}
	return off
}

// Len returns the logical length of the axis.
func (s Scatter) Len() int { return s.n }

// BlockSize returns the number of logical elements per block.
func (s Scatter) BlockSize() int { return s.block }

// Offset returns the physical offset of logical element i.
func (s Scatter) Offset(i int) int {
	b := i / s.block
	base := b * (s.block + 1)
	if h := s.table[base]; h != Irregular {
		return s.table[base+1] + (i-b*s.block)*h
	}
	return s.table[base+1+i-b*s.block]
}

// Block returns the header and the offsets of block b. affine reports whether
// the offsets are offs[0] + t*stride.
func (s Scatter) Block(b int) (stride int, offs []int, affine bool) {
	base := b * (s.block + 1)
	h := s.table[base]
	return h, s.table[base+1 : base+1+s.block], h != Irregular
}

// Release returns the table to the arena.
func (s Scatter) Release() {
	if s.release != nil {
		s.release()
	}
}

func leftStrides(group []index.Double) []index.Single {
	out := make([]index.Single, len(group))
	for i, g := range group {
		out[i] = index.Single{Len: g.Len, Stride: g.StrideA}
	}
	return out
}

func rightStrides(group []index.Double) []index.Single {
	out := make([]index.Single, len(group))
	for i, g := range group {
		out[i] = index.Single{Len: g.Len, Stride: g.StrideB}
	}
	return out
}
