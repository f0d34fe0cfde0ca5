package einsum

import (
	"context"
	"fmt"
	"slices"

	"github.com/samcharles93/linalg/internal/gemm"
	"github.com/samcharles93/linalg/pkg/tensor"
)

// Invoke evaluates the plan over tensors into a freshly allocated result.
func (p *Plan) Invoke(tensors ...*tensor.Tensor) (*tensor.Tensor, error) {
	return p.InvokeContext(context.Background(), tensors...)
}

// InvokeContext is Invoke with a context checked between contraction steps.
func (p *Plan) InvokeContext(ctx context.Context, tensors ...*tensor.Tensor) (*tensor.Tensor, error) {
	result := tensor.New(p.root.Shape...)
	if err := p.execute(ctx, result, 1, 0, tensors); err != nil {
		return nil, err
	}
	return result, nil
}

// InvokeInto evaluates result := beta*result + alpha*contract(tensors).
// Intermediate steps use scratch tensors; result is written by the final
// step only, so an error leaves it untouched.
func (p *Plan) InvokeInto(result *tensor.Tensor, alpha, beta float64, tensors ...*tensor.Tensor) error {
	return p.execute(context.Background(), result, alpha, beta, tensors)
}

func (p *Plan) execute(ctx context.Context, result *tensor.Tensor, alpha, beta float64, tensors []*tensor.Tensor) error {
	if err := p.root.Check(len(tensors)); err != nil {
		return err
	}
	if len(tensors) != len(p.inputs) {
		return fmt.Errorf("%w: plan has %d operands, got %d tensors", ErrTensorIndex, len(p.inputs), len(tensors))
	}
	for i, t := range tensors {
		if t == nil || !slices.Equal(t.Shape, p.shapes[i]) {
			return fmt.Errorf("%w: operand %d planned as %v", ErrShapeMismatch, i, p.shapes[i])
		}
	}
	if !slices.Equal(result.Shape, p.root.Shape) {
		return fmt.Errorf("%w: result has shape %v, output %q needs %v", ErrShapeMismatch, result.Shape, p.output, p.root.Shape)
	}

	cfg := p.cfg.gemm()
	child := p.root.Left
	switch child.Kind {
	case KindInput:
		// A lone operand still goes through the driver so diagonals,
		// residual sums and permutations are applied.
		return gemm.Contract(cfg, alpha, tensors[child.Slot], child.Name, tensor.Scalar(1), "", beta, result, p.output)
	case KindContracted:
		left, err := p.eval(ctx, child.Left, tensors)
		if err != nil {
			return err
		}
		right, err := p.eval(ctx, child.Right, tensors)
		if err != nil {
			return err
		}
		if err := ctx.Err(); err != nil {
			return err
		}
		return gemm.Contract(cfg, alpha, left, child.Left.Name, right, child.Right.Name, beta, result, child.Name)
	default:
		panic("einsum: output child of kind " + child.Kind.String())
	}
}

// eval computes the tensor yielded by n. Contracted nodes allocate their
// result.
func (p *Plan) eval(ctx context.Context, n *Node, tensors []*tensor.Tensor) (*tensor.Tensor, error) {
	switch n.Kind {
	case KindInput:
		return tensors[n.Slot], nil
	case KindContracted:
		left, err := p.eval(ctx, n.Left, tensors)
		if err != nil {
			return nil, err
		}
		right, err := p.eval(ctx, n.Right, tensors)
		if err != nil {
			return nil, err
		}
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		out := tensor.New(n.Shape...)
		if err := gemm.Contract(p.cfg.gemm(), 1, left, n.Left.Name, right, n.Right.Name, 0, out, n.Name); err != nil {
			return nil, fmt.Errorf("step %s,%s->%s: %w", n.Left.Name, n.Right.Name, n.Name, err)
		}
		return out, nil
	default:
		panic("einsum: cannot evaluate node of kind " + n.Kind.String())
	}
}
