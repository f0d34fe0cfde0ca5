package tensor

import (
	"fmt"
	"math/rand/v2"
	"strconv"
	"strings"
)

// Tensor is an N-dimensional strided view over a flat float64 buffer.
//
// Shape holds the per-axis lengths and Strides the per-axis element strides.
// Strides may be any sign or magnitude; element (i0, i1, ...) lives at
// Data[Offset + i0*Strides[0] + i1*Strides[1] + ...]. A rank-0 tensor is a
// scalar stored at Data[Offset].
//
// Tensor performs no memory safety beyond the checks performed by Go's slice
// types; out-of-range indices will panic.
type Tensor struct {
	Shape   []int
	Strides []int
	Offset  int
	Data    []float64
}

// New allocates a zeroed row-major tensor with the given shape.
func New(shape ...int) *Tensor {
	for _, d := range shape {
		if d < 0 {
			panic("tensor: negative dimension")
		}
	}
	return &Tensor{
		Shape:   append([]int(nil), shape...),
		Strides: RowMajorStrides(shape),
		Data:    make([]float64, NumElements(shape)),
	}
}

// FromData wraps data as a row-major tensor. It checks that the data length
// matches the shape.
func FromData(data []float64, shape ...int) *Tensor {
	if NumElements(shape) != len(data) {
		panic("tensor: data length mismatch")
	}
	return &Tensor{
		Shape:   append([]int(nil), shape...),
		Strides: RowMajorStrides(shape),
		Data:    data,
	}
}

// Scalar returns a rank-0 tensor holding v.
func Scalar(v float64) *Tensor {
	return &Tensor{Data: []float64{v}}
}

// RowMajorStrides returns unit-stride row-major strides for shape.
func RowMajorStrides(shape []int) []int {
	strides := make([]int, len(shape))
	acc := 1
	for i := len(shape) - 1; i >= 0; i-- {
		strides[i] = acc
		acc *= shape[i]
	}
	return strides
}

// NumElements returns the product of the shape, 1 for a scalar.
func NumElements(shape []int) int {
	n := 1
	for _, d := range shape {
		n *= d
	}
	return n
}

func (t *Tensor) Rank() int { return len(t.Shape) }

// Len returns the length of axis.
func (t *Tensor) Len(axis int) int { return t.Shape[axis] }

// Stride returns the element stride of axis.
func (t *Tensor) Stride(axis int) int { return t.Strides[axis] }

// Size returns the number of logical elements.
func (t *Tensor) Size() int { return NumElements(t.Shape) }

// Index returns the flat offset into Data of the element at idx.
func (t *Tensor) Index(idx ...int) int {
	if len(idx) != len(t.Shape) {
		panic("tensor: index rank mismatch")
	}
	off := t.Offset
	for i, v := range idx {
		if v < 0 || v >= t.Shape[i] {
			panic("tensor: index out of range")
		}
		off += v * t.Strides[i]
	}
	return off
}

func (t *Tensor) At(idx ...int) float64 { return t.Data[t.Index(idx...)] }

func (t *Tensor) Set(v float64, idx ...int) { t.Data[t.Index(idx...)] = v }

// Extent returns the smallest and largest flat offsets any element of t can
// address. An empty tensor reports ok=false.
func (t *Tensor) Extent() (lo, hi int, ok bool) {
	lo, hi = t.Offset, t.Offset
	for i, d := range t.Shape {
		if d == 0 {
			return 0, 0, false
		}
		span := (d - 1) * t.Strides[i]
		if span < 0 {
			lo += span
		} else {
			hi += span
		}
	}
	return lo, hi, true
}

// Transpose returns a view with the axes permuted by perm. No data is copied.
func (t *Tensor) Transpose(perm ...int) *Tensor {
	if len(perm) != len(t.Shape) {
		panic("tensor: transpose permutation rank mismatch")
	}
	out := &Tensor{
		Shape:   make([]int, len(perm)),
		Strides: make([]int, len(perm)),
		Offset:  t.Offset,
		Data:    t.Data,
	}
	seen := make([]bool, len(perm))
	for i, p := range perm {
		if p < 0 || p >= len(perm) || seen[p] {
			panic("tensor: invalid transpose permutation")
		}
		seen[p] = true
		out.Shape[i] = t.Shape[p]
		out.Strides[i] = t.Strides[p]
	}
	return out
}

// Select returns the rank-1-lower view obtained by fixing axis at index.
func (t *Tensor) Select(axis, index int) *Tensor {
	if index < 0 || index >= t.Shape[axis] {
		panic("tensor: select index out of range")
	}
	out := &Tensor{
		Shape:   make([]int, 0, len(t.Shape)-1),
		Strides: make([]int, 0, len(t.Shape)-1),
		Offset:  t.Offset + index*t.Strides[axis],
		Data:    t.Data,
	}
	for i := range t.Shape {
		if i == axis {
			continue
		}
		out.Shape = append(out.Shape, t.Shape[i])
		out.Strides = append(out.Strides, t.Strides[i])
	}
	return out
}

// Reverse returns a view with axis traversed backwards (a negative stride).
func (t *Tensor) Reverse(axis int) *Tensor {
	out := t.view()
	if out.Shape[axis] > 0 {
		out.Offset += (out.Shape[axis] - 1) * out.Strides[axis]
	}
	out.Strides[axis] = -out.Strides[axis]
	return out
}

// Contiguous returns a row-major copy of t.
func (t *Tensor) Contiguous() *Tensor {
	out := New(t.Shape...)
	i := 0
	t.Each(func(off int) {
		out.Data[i] = t.Data[off]
		i++
	})
	return out
}

// Each calls fn with the flat offset of every element in row-major order.
func (t *Tensor) Each(fn func(off int)) {
	if t.Size() == 0 {
		return
	}
	idx := make([]int, len(t.Shape))
	off := t.Offset
	for {
		fn(off)
		ax := len(idx) - 1
		for ; ax >= 0; ax-- {
			idx[ax]++
			off += t.Strides[ax]
			if idx[ax] < t.Shape[ax] {
				break
			}
			off -= idx[ax] * t.Strides[ax]
			idx[ax] = 0
		}
		if ax < 0 {
			return
		}
	}
}

// Values returns the elements of t in row-major order.
func (t *Tensor) Values() []float64 {
	out := make([]float64, 0, t.Size())
	t.Each(func(off int) { out = append(out, t.Data[off]) })
	return out
}

func (t *Tensor) view() *Tensor {
	return &Tensor{
		Shape:   append([]int(nil), t.Shape...),
		Strides: append([]int(nil), t.Strides...),
		Offset:  t.Offset,
		Data:    t.Data,
	}
}

// FillRand fills t with reproducible pseudo-random values in (-1, 1). The seed
// controls the random sequence.
func FillRand(t *Tensor, seed int64) {
	rng := rand.New(rand.NewPCG(uint64(seed), 0x9e3779b97f4a7c15))
	t.Each(func(off int) {
		t.Data[off] = rng.Float64()*2 - 1
	})
}

// ParseShape parses shapes written as "3x4x5" (or "3,4,5"). The empty string
// and "scalar" describe a rank-0 shape.
func ParseShape(s string) ([]int, error) {
	s = strings.TrimSpace(s)
	if s == "" || s == "scalar" {
		return []int{}, nil
	}
	parts := strings.FieldsFunc(s, func(r rune) bool { return r == 'x' || r == 'X' || r == ',' })
	shape := make([]int, 0, len(parts))
	for _, p := range parts {
		d, err := strconv.Atoi(strings.TrimSpace(p))
		if err != nil || d < 0 {
			return nil, fmt.Errorf("tensor: invalid dimension %q in shape %q", p, s)
		}
		shape = append(shape, d)
	}
	return shape, nil
}

// FormatShape renders shape in the form accepted by ParseShape.
func FormatShape(shape []int) string {
	if len(shape) == 0 {
		return "scalar"
	}
	parts := make([]string, len(shape))
	for i, d := range shape {
		parts[i] = strconv.Itoa(d)
	}
	return strings.Join(parts, "x")
}
