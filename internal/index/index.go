// Package index describes how the axes of up to three tensors correspond to
// one another in a contraction: per-symbol index maps, the classification of
// symbols into contracted, free and batch groups, and folding of affinely
// compatible axes into fewer synthetic axes.
package index

import (
	"errors"
	"fmt"
)

var (
	// ErrRankMismatch is returned when a symbol string does not have one
	// symbol per tensor axis.
	ErrRankMismatch = errors.New("index: rank mismatch")

	// ErrDimensionConflict is returned when the same symbol is declared with
	// different lengths, either within one tensor or across tensors.
	ErrDimensionConflict = errors.New("index: dimension conflict")

	// ErrUnboundOutputSymbol is returned when an output symbol appears in no
	// operand.
	ErrUnboundOutputSymbol = errors.New("index: unbound output symbol")
)

// Single is one tensor axis, or a diagonal group of axes, as seen by one
// tensor.
type Single struct {
	Len    int
	Stride int
}

// Double is one logical dimension as seen by two tensors.
type Double struct {
	Len     int
	StrideA int
	StrideB int
}

// Triple is one logical dimension as seen by left, right and destination.
type Triple struct {
	Len     int
	StrideA int
	StrideB int
	StrideC int
}

// Map holds a tensor's per-symbol index, keyed by the symbol letter. Order
// records the symbols in first-appearance order so iteration is stable.
type Map struct {
	Entries map[byte]Single
	Order   []byte
}

// Len returns the number of distinct symbols.
func (m Map) Len() int { return len(m.Order) }

// Get returns the entry for sym.
func (m Map) Get(sym byte) (Single, bool) {
	s, ok := m.Entries[sym]
	return s, ok
}

// Diagonal builds the per-symbol index map of a tensor with the given shape
// and strides. A symbol repeated at axes p1..pk maps to a single entry whose
// stride is the sum of the strides at those axes, which addresses the
// generalized diagonal without copying.
func Diagonal(shape, strides []int, symbols string) (Map, error) {
	if len(symbols) != len(shape) {
		return Map{}, fmt.Errorf("%w: %q names %d axes, tensor has rank %d", ErrRankMismatch, symbols, len(symbols), len(shape))
	}
	m := Map{
		Entries: make(map[byte]Single, len(symbols)),
		Order:   make([]byte, 0, len(symbols)),
	}
	for i := 0; i < len(symbols); i++ {
		sym := symbols[i]
		cur, ok := m.Entries[sym]
		if !ok {
			m.Entries[sym] = Single{Len: shape[i], Stride: strides[i]}
			m.Order = append(m.Order, sym)
			continue
		}
		if cur.Len != shape[i] {
			return Map{}, fmt.Errorf("%w: symbol %q has lengths %d and %d", ErrDimensionConflict, sym, cur.Len, shape[i])
		}
		cur.Stride += strides[i]
		m.Entries[sym] = cur
	}
	return m, nil
}

// Division is the partition of the symbols of a left operand A, a right
// operand B and a destination C.
type Division struct {
	Contracted []Double // A∩B, not in C: strides (A, B)
	LeftFree   []Double // A∩C, not in B: strides (A, C)
	RightFree  []Double // B∩C, not in A: strides (B, C)
	Batch      []Triple // A∩B∩C

	// LeftOnly and RightOnly are symbols present in exactly one operand and
	// absent from the destination. They are summed by outer iteration.
	LeftOnly  []Single
	RightOnly []Single

	// Symbols per group, parallel to the slices above.
	ContractedSyms []byte
	LeftFreeSyms   []byte
	RightFreeSyms  []byte
	BatchSyms      []byte
	LeftOnlySyms   []byte
	RightOnlySyms  []byte
}

// Divide partitions the symbols of a, b and c. Every symbol of every map
// lands in exactly one group. Groups list symbols in the order they appear in
// a, then b.
func Divide(a, b, c Map) (Division, error) {
	var d Division
	for _, sym := range c.Order {
		cs := c.Entries[sym]
		as, inA := a.Entries[sym]
		bs, inB := b.Entries[sym]
		if !inA && !inB {
			return Division{}, fmt.Errorf("%w: %q", ErrUnboundOutputSymbol, sym)
		}
		if inA && as.Len != cs.Len {
			return Division{}, conflict(sym, as.Len, cs.Len)
		}
		if inB && bs.Len != cs.Len {
			return Division{}, conflict(sym, bs.Len, cs.Len)
		}
	}
	for _, sym := range a.Order {
		as := a.Entries[sym]
		bs, inB := b.Entries[sym]
		cs, inC := c.Entries[sym]
		if inB && bs.Len != as.Len {
			return Division{}, conflict(sym, as.Len, bs.Len)
		}
		switch {
		case inB && inC:
			d.Batch = append(d.Batch, Triple{Len: as.Len, StrideA: as.Stride, StrideB: bs.Stride, StrideC: cs.Stride})
			d.BatchSyms = append(d.BatchSyms, sym)
		case inB:
			d.Contracted = append(d.Contracted, Double{Len: as.Len, StrideA: as.Stride, StrideB: bs.Stride})
			d.ContractedSyms = append(d.ContractedSyms, sym)
		case inC:
			d.LeftFree = append(d.LeftFree, Double{Len: as.Len, StrideA: as.Stride, StrideB: cs.Stride})
			d.LeftFreeSyms = append(d.LeftFreeSyms, sym)
		default:
			d.LeftOnly = append(d.LeftOnly, as)
			d.LeftOnlySyms = append(d.LeftOnlySyms, sym)
		}
	}
	for _, sym := range b.Order {
		if _, inA := a.Entries[sym]; inA {
			continue
		}
		bs := b.Entries[sym]
		if cs, inC := c.Entries[sym]; inC {
			d.RightFree = append(d.RightFree, Double{Len: bs.Len, StrideA: bs.Stride, StrideB: cs.Stride})
			d.RightFreeSyms = append(d.RightFreeSyms, sym)
			continue
		}
		d.RightOnly = append(d.RightOnly, bs)
		d.RightOnlySyms = append(d.RightOnlySyms, sym)
	}
	return d, nil
}

// Divide2 partitions the symbols of two maps: symbols in both are contracted,
// the rest are free on their own side.
func Divide2(a, b Map) (contracted []Double, leftFree, rightFree []Single, err error) {
	for _, sym := range a.Order {
		as := a.Entries[sym]
		if bs, ok := b.Entries[sym]; ok {
			if bs.Len != as.Len {
				return nil, nil, nil, conflict(sym, as.Len, bs.Len)
			}
			contracted = append(contracted, Double{Len: as.Len, StrideA: as.Stride, StrideB: bs.Stride})
			continue
		}
		leftFree = append(leftFree, as)
	}
	for _, sym := range b.Order {
		if _, ok := a.Entries[sym]; !ok {
			rightFree = append(rightFree, b.Entries[sym])
		}
	}
	return contracted, leftFree, rightFree, nil
}

func conflict(sym byte, x, y int) error {
	return fmt.Errorf("%w: symbol %q has lengths %d and %d", ErrDimensionConflict, sym, x, y)
}
