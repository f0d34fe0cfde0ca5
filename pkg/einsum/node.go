package einsum

import (
	"fmt"
)

// NodeKind tags the variant held by a Node.
type NodeKind uint8

const (
	// KindInput is a leaf referring to one caller tensor.
	KindInput NodeKind = iota
	// KindContracted joins Left and Right with one pairwise contraction.
	KindContracted
	// KindOutput is the root; Left is its only child.
	KindOutput
)

func (k NodeKind) String() string {
	switch k {
	case KindInput:
		return "input"
	case KindContracted:
		return "contracted"
	case KindOutput:
		return "output"
	default:
		return fmt.Sprintf("NodeKind(%d)", uint8(k))
	}
}

// Node is one vertex of a contraction tree.
type Node struct {
	Kind NodeKind

	// Name holds the symbols of the tensor the node yields. Input names may
	// repeat a symbol; contracted and output names never do.
	Name  string
	Shape []int

	// Slot is the caller tensor index of an Input node.
	Slot int

	// Left and Right are the operands of a Contracted node. An Output node
	// uses Left only.
	Left, Right *Node
}

// Check verifies that every Input leaf below n refers to one of n tensors.
func (n *Node) Check(count int) error {
	switch n.Kind {
	case KindInput:
		if n.Slot < 0 || n.Slot >= count {
			return fmt.Errorf("%w: slot %d with %d tensors", ErrTensorIndex, n.Slot, count)
		}
		return nil
	case KindContracted:
		if err := n.Left.Check(count); err != nil {
			return err
		}
		return n.Right.Check(count)
	case KindOutput:
		return n.Left.Check(count)
	default:
		panic("einsum: unknown node kind " + n.Kind.String())
	}
}

// Depth returns the height of the tree rooted at n.
func (n *Node) Depth() int {
	switch n.Kind {
	case KindInput:
		return 1
	case KindContracted:
		return 1 + max(n.Left.Depth(), n.Right.Depth())
	case KindOutput:
		return 1 + n.Left.Depth()
	default:
		panic("einsum: unknown node kind " + n.Kind.String())
	}
}

// String renders the subtree as a parenthesised expression.
func (n *Node) String() string {
	switch n.Kind {
	case KindInput:
		return fmt.Sprintf("%s#%d", n.Name, n.Slot)
	case KindContracted:
		return fmt.Sprintf("(%s,%s->%s)", n.Left, n.Right, n.Name)
	case KindOutput:
		return fmt.Sprintf("%s->%s", n.Left, n.Name)
	default:
		return n.Kind.String()
	}
}
