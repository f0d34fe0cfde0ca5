package gemm

import "github.com/samcharles93/linalg/internal/parallel"

// Register and cache blocking. The micro-tile is mr×nr; kc is the depth of a
// packed panel, mc and nc the row and column extents of the packed A and B
// blocks. mcSmall and mcLarge are multiples of mr, nc of nr, kc of kr, so
// every slice taken by the driver starts on a scatter-table block boundary.
const (
	mr = 6
	nr = 8
	kr = 6
	kc = 144

	mcSmall = 510
	mcLarge = 2040
	nc      = 512
)

// Config carries the tunables of one contraction call.
type Config struct {
	// Parallelism bounds the number of workers used by each fan-out.
	// Zero selects parallel.DefaultDegree.
	Parallelism int

	// BoundsCheck verifies before any numeric work that every element
	// reachable through a tensor's shape and strides lies inside its buffer.
	BoundsCheck bool
}

func DefaultConfig() Config {
	return Config{
		Parallelism: parallel.DefaultDegree(),
		BoundsCheck: true,
	}
}

func (c Config) degree() int {
	if c.Parallelism <= 0 {
		return parallel.DefaultDegree()
	}
	return parallel.ClampDegree(c.Parallelism)
}

// selectMC picks the row extent of a packed A block. When the whole
// contracted extent fits one depth block the A panel is short, so a taller
// block still fits in L2.
func selectMC(k int) int {
	if k <= kc {
		return mcLarge
	}
	return mcSmall
}

func roundUp(n, m int) int {
	return (n + m - 1) / m * m
}

func ceilDiv(n, m int) int {
	return (n + m - 1) / m
}
