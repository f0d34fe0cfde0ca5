// Package parallel provides the bounded fork/join scheduler used by the
// contraction kernels: a persistent pool of workers fed through a task
// channel, with per-call completion channels recycled between calls.
package parallel

import (
	"runtime"
)

type task struct {
	fn     func(lo, hi int)
	lo, hi int
	done   chan struct{}
}

type pool struct {
	size      int
	tasks     chan task
	doneSlots chan chan struct{}
}

func newPool() *pool {
	size := max(runtime.NumCPU(), 1)
	p := &pool{
		size:      size,
		tasks:     make(chan task, size*2),
		doneSlots: make(chan chan struct{}, size),
	}
	for range size {
		p.doneSlots <- make(chan struct{}, size)
	}
	for range size {
		go func() {
			for t := range p.tasks {
				t.fn(t.lo, t.hi)
				t.done <- struct{}{}
			}
		}()
	}
	return p
}

var workPool = newPool()

// HardwareThreads is the number of logical CPUs the pool was sized for.
func HardwareThreads() int {
	return workPool.size
}

// DefaultDegree is half the hardware threads, clamped to [1, HardwareThreads].
func DefaultDegree() int {
	return ClampDegree(workPool.size / 2)
}

// ClampDegree clamps a requested degree of parallelism to [1, HardwareThreads].
func ClampDegree(degree int) int {
	return min(max(degree, 1), workPool.size)
}

// For runs fn(i) for every i in [0, n) on at most degree workers and returns
// once all calls have finished. Work is split into contiguous chunks. For must
// not be called from inside fn.
func For(degree, n int, fn func(i int)) {
	ForRange(degree, n, func(lo, hi int) {
		for i := lo; i < hi; i++ {
			fn(i)
		}
	})
}

// ForRange splits [0, n) into at most degree contiguous chunks and runs
// fn(lo, hi) once per chunk, each on its own worker. It returns once every
// chunk has finished and must not be called from inside fn.
func ForRange(degree, n int, fn func(lo, hi int)) {
	if n <= 0 {
		return
	}
	workers := min(ClampDegree(degree), n)
	if workers <= 1 {
		fn(0, n)
		return
	}

	chunk := (n + workers - 1) / workers
	done := <-workPool.doneSlots
	sent := 0
	for lo := 0; lo < n; lo += chunk {
		workPool.tasks <- task{
			fn:   fn,
			lo:   lo,
			hi:   min(lo+chunk, n),
			done: done,
		}
		sent++
	}
	for range sent {
		<-done
	}
	workPool.doneSlots <- done
}
