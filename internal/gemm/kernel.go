package gemm

// microKernelGeneric computes the mr×nr tile = Σ_k a[k]ᵀ·b[k] for packed
// panels a ([depth][mr]) and b ([depth][nr]). tile is row-major and is
// overwritten.
func microKernelGeneric(depth int, a, b, tile []float64) {
	var acc [mr][nr]float64
	a = a[:depth*mr]
	b = b[:depth*nr]
	for k := range depth {
		ak := a[k*mr : k*mr+mr]
		bk := b[k*nr : k*nr+nr]
		for r, av := range ak {
			row := &acc[r]
			row[0] += av * bk[0]
			row[1] += av * bk[1]
			row[2] += av * bk[2]
			row[3] += av * bk[3]
			row[4] += av * bk[4]
			row[5] += av * bk[5]
			row[6] += av * bk[6]
			row[7] += av * bk[7]
		}
	}
	for r := range mr {
		copy(tile[r*nr:r*nr+nr], acc[r][:])
	}
}
