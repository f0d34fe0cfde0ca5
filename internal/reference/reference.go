// Package reference holds a direct, unblocked einsum evaluator used to check
// the blocked engine in tests and in the bench command's verification pass.
package reference

import (
	"math"
	"strings"

	"github.com/samcharles93/linalg/pkg/tensor"
)

// Einsum evaluates expr ("ab,bc->ac") by visiting every assignment of every
// symbol. It panics on malformed input.
func Einsum(expr string, tensors ...*tensor.Tensor) *tensor.Tensor {
	lhs, out, ok := strings.Cut(expr, "->")
	if !ok {
		panic("reference: missing ->")
	}
	operands := strings.Split(lhs, ",")
	if len(operands) != len(tensors) {
		panic("reference: operand count mismatch")
	}

	lengths := map[byte]int{}
	var syms []byte
	for i, op := range operands {
		for ax := 0; ax < len(op); ax++ {
			if _, ok := lengths[op[ax]]; !ok {
				syms = append(syms, op[ax])
			}
			lengths[op[ax]] = tensors[i].Shape[ax]
		}
	}
	shape := make([]int, len(out))
	for i := 0; i < len(out); i++ {
		shape[i] = lengths[out[i]]
	}
	result := tensor.New(shape...)

	pos := map[byte]int{}
	for i, s := range syms {
		pos[s] = i
	}
	ctr := make([]int, len(syms))
	for _, s := range syms {
		if lengths[s] == 0 {
			return result
		}
	}
	idx := make([]int, 0, 8)
	for {
		prod := 1.0
		for i, op := range operands {
			idx = idx[:0]
			for ax := 0; ax < len(op); ax++ {
				idx = append(idx, ctr[pos[op[ax]]])
			}
			prod *= tensors[i].At(idx...)
		}
		idx = idx[:0]
		for ax := 0; ax < len(out); ax++ {
			idx = append(idx, ctr[pos[out[ax]]])
		}
		off := result.Index(idx...)
		result.Data[off] += prod

		ax := len(ctr) - 1
		for ; ax >= 0; ax-- {
			ctr[ax]++
			if ctr[ax] < lengths[syms[ax]] {
				break
			}
			ctr[ax] = 0
		}
		if ax < 0 {
			return result
		}
	}
}

// MaxAbsDiff returns the largest elementwise difference of two tensors of the
// same shape, compared in row-major order.
func MaxAbsDiff(a, b *tensor.Tensor) float64 {
	av, bv := a.Values(), b.Values()
	if len(av) != len(bv) {
		return math.Inf(1)
	}
	var maxAbs float64
	for i := range av {
		maxAbs = max(maxAbs, math.Abs(av[i]-bv[i]))
	}
	return maxAbs
}

// MaxAbs returns the largest absolute element of t.
func MaxAbs(t *tensor.Tensor) float64 {
	var m float64
	for _, v := range t.Values() {
		m = max(m, math.Abs(v))
	}
	return m
}
