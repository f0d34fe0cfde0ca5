package einsum

import (
	"github.com/samcharles93/linalg/internal/gemm"
	"github.com/samcharles93/linalg/internal/logger"
	"github.com/samcharles93/linalg/internal/parallel"
)

// Config holds the tunables of the planner and of every pairwise
// contraction it runs.
type Config struct {
	// Parallelism bounds the workers used by each packing and macro-kernel
	// fan-out. Zero or less selects half the hardware threads.
	Parallelism int

	// SizeAlpha weighs the sizes of the two operands of a candidate pair
	// against the size of its result.
	SizeAlpha float64

	// FlopsAlpha weighs the multiply count of a candidate pair.
	FlopsAlpha float64

	// BoundsCheck verifies every tensor view against its buffer before any
	// numeric work.
	BoundsCheck bool

	// Logger receives one Debug record per planner step. Nil discards.
	Logger logger.Logger
}

// DefaultConfig returns the configuration used by the package-level
// functions: half the hardware threads, a size-only cost heuristic and
// bounds checking.
func DefaultConfig() Config {
	return Config{
		Parallelism: parallel.DefaultDegree(),
		SizeAlpha:   1,
		FlopsAlpha:  0,
		BoundsCheck: true,
	}
}

func (c Config) gemm() gemm.Config {
	return gemm.Config{
		Parallelism: c.Parallelism,
		BoundsCheck: c.BoundsCheck,
	}
}

func (c Config) log() logger.Logger {
	if c.Logger == nil {
		return logger.Discard()
	}
	return c.Logger
}
