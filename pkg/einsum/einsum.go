// Package einsum evaluates Einstein-summation expressions over strided
// float64 tensors.
//
// An expression names one ASCII letter per tensor axis and lists the output
// axes after "->", for example "ik,kj->ij". Letters shared by operands and
// absent from the output are summed. A letter repeated within one operand
// takes that operand's diagonal. Expressions over more than two tensors are
// reduced pairwise in an order chosen greedily by a size heuristic, and every
// pairwise step runs as a blocked, parallel matrix multiply directly over the
// operands' strides.
package einsum

import (
	"context"
	"fmt"
	"slices"
	"strings"

	"github.com/samcharles93/linalg/internal/gemm"
	"github.com/samcharles93/linalg/pkg/tensor"
)

// Engine evaluates expressions with a fixed configuration. It is safe for
// concurrent use on disjoint result tensors.
type Engine struct {
	cfg Config
}

// New returns an Engine using cfg.
func New(cfg Config) *Engine {
	return &Engine{cfg: cfg}
}

// Config returns the engine's configuration.
func (e *Engine) Config() Config { return e.cfg }

// Plan validates expr against the tensors' shapes and fixes a contraction
// order.
func (e *Engine) Plan(expr string, tensors ...*tensor.Tensor) (*Plan, error) {
	return NewPlan(e.cfg, expr, shapesOf(tensors)...)
}

// Contract evaluates expr into a new tensor.
func (e *Engine) Contract(expr string, tensors ...*tensor.Tensor) (*tensor.Tensor, error) {
	return e.ContractContext(context.Background(), expr, tensors...)
}

// ContractContext is Contract with ctx checked between pairwise steps.
func (e *Engine) ContractContext(ctx context.Context, expr string, tensors ...*tensor.Tensor) (*tensor.Tensor, error) {
	p, err := e.Plan(expr, tensors...)
	if err != nil {
		return nil, err
	}
	return p.InvokeContext(ctx, tensors...)
}

// ContractInto accumulates result += alpha*contract(expr, tensors).
func (e *Engine) ContractInto(result *tensor.Tensor, expr string, alpha float64, tensors ...*tensor.Tensor) error {
	return e.ContractScaled(result, expr, alpha, 1, tensors...)
}

// ContractScaled computes result := beta*result + alpha*contract(expr, tensors).
// With beta == 0 the previous contents of result are ignored, NaN included.
func (e *Engine) ContractScaled(result *tensor.Tensor, expr string, alpha, beta float64, tensors ...*tensor.Tensor) error {
	p, err := e.Plan(expr, tensors...)
	if err != nil {
		return err
	}
	return p.InvokeInto(result, alpha, beta, tensors...)
}

// ContractPair runs one pairwise contraction c := beta*c + alpha*contract(a, b)
// without planning. expr must name exactly two operands.
func (e *Engine) ContractPair(expr string, alpha float64, a, b *tensor.Tensor, beta float64, c *tensor.Tensor) error {
	if strings.Count(expr, ",") != 1 {
		return fmt.Errorf("%w: pairwise expression %q must contain exactly one \",\"", ErrExpressionFormat, expr)
	}
	ex, err := parseExpression(expr)
	if err != nil {
		return err
	}
	lengths, err := ex.bind(shapesOf([]*tensor.Tensor{a, b}))
	if err != nil {
		return err
	}
	if want := shapeOf(ex.output, lengths); !slices.Equal(c.Shape, want) {
		return fmt.Errorf("%w: result has shape %v, output %q needs %v", ErrShapeMismatch, c.Shape, ex.output, want)
	}
	return gemm.Contract(e.cfg.gemm(), alpha, a, ex.inputs[0], b, ex.inputs[1], beta, c, ex.output)
}

var defaultEngine = New(DefaultConfig())

// Contract evaluates expr into a new tensor using DefaultConfig.
func Contract(expr string, tensors ...*tensor.Tensor) (*tensor.Tensor, error) {
	return defaultEngine.Contract(expr, tensors...)
}

// ContractInto accumulates result += alpha*contract(expr, tensors) using
// DefaultConfig.
func ContractInto(result *tensor.Tensor, expr string, alpha float64, tensors ...*tensor.Tensor) error {
	return defaultEngine.ContractInto(result, expr, alpha, tensors...)
}

// ContractScaled computes result := beta*result + alpha*contract(expr, tensors)
// using DefaultConfig.
func ContractScaled(result *tensor.Tensor, expr string, alpha, beta float64, tensors ...*tensor.Tensor) error {
	return defaultEngine.ContractScaled(result, expr, alpha, beta, tensors...)
}

// ContractPair runs one pairwise contraction using DefaultConfig.
func ContractPair(expr string, alpha float64, a, b *tensor.Tensor, beta float64, c *tensor.Tensor) error {
	return defaultEngine.ContractPair(expr, alpha, a, b, beta, c)
}
