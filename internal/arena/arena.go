// Package arena hands out scratch buffers for the contraction kernels. Every
// acquisition returns a release func meant to be deferred by the caller, so
// buffers go back to the pool before the owning call returns.
package arena

import (
	"math/bits"
	"sync"
)

// Buffers are bucketed by power-of-two capacity; bucket i holds buffers of
// capacity 1<<i.
const numBuckets = 40

type pool[T any] struct {
	buckets [numBuckets]sync.Pool
}

func (p *pool[T]) get(n int) ([]T, func()) {
	if n <= 0 {
		return nil, func() {}
	}
	b := bucket(n)
	var buf []T
	if v, ok := p.buckets[b].Get().(*[]T); ok {
		buf = (*v)[:n]
	} else {
		buf = make([]T, n, 1<<b)
	}
	return buf, func() {
		full := buf[:cap(buf)]
		p.buckets[b].Put(&full)
	}
}

func bucket(n int) int {
	return bits.Len(uint(n - 1))
}

var (
	floats pool[float64]
	ints   pool[int]
)

// Floats rents a float64 buffer of length n. Its contents are unspecified.
func Floats(n int) ([]float64, func()) {
	return floats.get(n)
}

// ZeroFloats rents a zeroed float64 buffer of length n.
func ZeroFloats(n int) ([]float64, func()) {
	buf, release := floats.get(n)
	clear(buf)
	return buf, release
}

// Ints rents an int buffer of length n. Its contents are unspecified.
func Ints(n int) ([]int, func()) {
	return ints.get(n)
}
