package index

// axis is the common shape of Single, Double and Triple: a length plus up to
// three strides, of which the first n are tracked.
type axis struct {
	n int
	s [3]int
}

// fold coalesces pairs of axes (inner, outer) whose outer stride equals
// inner.n*inner.stride on every tracked tensor. The merged axis takes the
// outer's position and the inner's strides. Length-1 axes address a single
// element and are dropped.
func fold(group []axis, tracked int) []axis {
	out := group[:0:0]
	for _, a := range group {
		if a.n != 1 {
			out = append(out, a)
		}
	}
	for merged := true; merged; {
		merged = false
	scan:
		for p := range out {
			for q := range out {
				if p == q || !affineRun(out[p], out[q], tracked) {
					continue
				}
				out[q] = axis{n: out[p].n * out[q].n, s: out[p].s}
				out = append(out[:p], out[p+1:]...)
				merged = true
				break scan
			}
		}
	}
	return out
}

func affineRun(inner, outer axis, tracked int) bool {
	for t := range tracked {
		if outer.s[t] != inner.n*inner.s[t] {
			return false
		}
	}
	return true
}

// FoldSingle coalesces affinely compatible axes seen by one tensor.
func FoldSingle(group []Single) []Single {
	axes := make([]axis, len(group))
	for i, g := range group {
		axes[i] = axis{n: g.Len, s: [3]int{g.Stride}}
	}
	axes = fold(axes, 1)
	out := make([]Single, len(axes))
	for i, a := range axes {
		out[i] = Single{Len: a.n, Stride: a.s[0]}
	}
	return out
}

// FoldDouble coalesces axes that are affinely compatible on both tensors.
func FoldDouble(group []Double) []Double {
	axes := make([]axis, len(group))
	for i, g := range group {
		axes[i] = axis{n: g.Len, s: [3]int{g.StrideA, g.StrideB}}
	}
	axes = fold(axes, 2)
	out := make([]Double, len(axes))
	for i, a := range axes {
		out[i] = Double{Len: a.n, StrideA: a.s[0], StrideB: a.s[1]}
	}
	return out
}

// FoldTriple coalesces axes that are affinely compatible on all three
// tensors.
func FoldTriple(group []Triple) []Triple {
	axes := make([]axis, len(group))
	for i, g := range group {
		axes[i] = axis{n: g.Len, s: [3]int{g.StrideA, g.StrideB, g.StrideC}}
	}
	axes = fold(axes, 3)
	out := make([]Triple, len(axes))
	for i, a := range axes {
		out[i] = Triple{Len: a.n, StrideA: a.s[0], StrideB: a.s[1], StrideC: a.s[2]}
	}
	return out
}

// Extent returns the product of the lengths in a folded group, 1 when empty.
func Extent[T Single | Double | Triple](group []T) int {
	n := 1
	for _, g := range group {
		switch v := any(g).(type) {
		case Single:
			n *= v.Len
		case Double:
			n *= v.Len
		case Triple:
			n *= v.Len
		}
	}
	return n
}
