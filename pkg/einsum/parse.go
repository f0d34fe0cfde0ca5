package einsum

import (
	"fmt"
	"strings"
)

// expression is a parsed "<t1>,...,<tN>->out" string.
type expression struct {
	inputs []string
	output string
}

func parseExpression(expr string) (expression, error) {
	if strings.Count(expr, "->") != 1 {
		return expression{}, fmt.Errorf("%w: %q must contain exactly one \"->\"", ErrExpressionFormat, expr)
	}
	lhs, out, _ := strings.Cut(expr, "->")
	e := expression{inputs: strings.Split(lhs, ","), output: out}
	for _, in := range e.inputs {
		if err := checkLetters(in); err != nil {
			return expression{}, fmt.Errorf("%w: operand %q: %v", ErrExpressionFormat, in, err)
		}
	}
	if err := checkLetters(out); err != nil {
		return expression{}, fmt.Errorf("%w: output %q: %v", ErrExpressionFormat, out, err)
	}
	for i := 0; i < len(out); i++ {
		if strings.IndexByte(out[i+1:], out[i]) >= 0 {
			return expression{}, fmt.Errorf("%w: %q in %q", ErrDuplicateOutputSymbol, out[i], out)
		}
	}
	return e, nil
}

func checkLetters(s string) error {
	for i := 0; i < len(s); i++ {
		c := s[i]
		if (c < 'a' || c > 'z') && (c < 'A' || c > 'Z') {
			return fmt.Errorf("invalid symbol %q", c)
		}
	}
	return nil
}

// bind checks the operands against the tensor shapes and returns the length
// of every symbol.
func (e expression) bind(shapes [][]int) (map[byte]int, error) {
	if len(shapes) != len(e.inputs) {
		return nil, fmt.Errorf("%w: %d operands for %d tensors", ErrExpressionFormat, len(e.inputs), len(shapes))
	}
	lengths := make(map[byte]int)
	for t, in := range e.inputs {
		shape := shapes[t]
		if len(shape) != len(in) {
			return nil, fmt.Errorf("%w: operand %d %q names %d axes, tensor has rank %d",
				ErrRankMismatch, t, in, len(in), len(shape))
		}
		for ax := 0; ax < len(in); ax++ {
			sym := in[ax]
			if n, ok := lengths[sym]; ok && n != shape[ax] {
				return nil, fmt.Errorf("%w: symbol %q has lengths %d and %d", ErrDimensionConflict, sym, n, shape[ax])
			}
			lengths[sym] = shape[ax]
		}
	}
	for i := 0; i < len(e.output); i++ {
		if _, ok := lengths[e.output[i]]; !ok {
			return nil, fmt.Errorf("%w: %q", ErrUnboundOutputSymbol, e.output[i])
		}
	}
	return lengths, nil
}

func shapeOf(symbols string, lengths map[byte]int) []int {
	shape := make([]int, len(symbols))
	for i := 0; i < len(symbols); i++ {
		shape[i] = lengths[symbols[i]]
	}
	return shape
}
