package einsum

import (
	"errors"

	"github.com/samcharles93/linalg/internal/index"
)

var (
	// ErrExpressionFormat is returned for an expression that is not of the
	// form "<t1>,...,<tN>->out" over ASCII letters, or whose operand count
	// does not match the number of tensors supplied.
	ErrExpressionFormat = errors.New("einsum: malformed expression")

	// ErrRankMismatch is returned when a tensor's rank differs from the
	// length of its symbol string.
	ErrRankMismatch = index.ErrRankMismatch

	// ErrDimensionConflict is returned when a symbol is bound to different
	// lengths, within one operand or across operands.
	ErrDimensionConflict = index.ErrDimensionConflict

	// ErrUnboundOutputSymbol is returned when an output symbol names no
	// input axis.
	ErrUnboundOutputSymbol = index.ErrUnboundOutputSymbol

	// ErrDuplicateOutputSymbol is returned when the output repeats a symbol.
	ErrDuplicateOutputSymbol = errors.New("einsum: duplicate output symbol")

	// ErrTensorIndex is returned when a plan refers to an input slot the
	// caller did not supply.
	ErrTensorIndex = errors.New("einsum: tensor index out of range")

	// ErrShapeMismatch is returned when a supplied tensor or result does not
	// have the shape the plan was built for.
	ErrShapeMismatch = errors.New("einsum: shape mismatch")
)
