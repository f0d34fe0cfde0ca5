package main

import (
	"fmt"
	"math"
	"strings"

	"github.com/samcharles93/linalg/internal/safetensors"
	"github.com/samcharles93/linalg/pkg/tensor"
)

// operandCount returns the number of comma-separated operands left of "->".
func operandCount(expr string) int {
	lhs, _, _ := strings.Cut(expr, "->")
	return strings.Count(lhs, ",") + 1
}

// loadOperands builds the operands of expr from --input or from --shape.
func loadOperands(expr string) ([]*tensor.Tensor, error) {
	n := operandCount(expr)
	if inputPath != "" {
		return readOperands(inputPath, inputNames, n)
	}
	if len(shapes) != n {
		return nil, fmt.Errorf("expression has %d operands, got %d --shape flags", n, len(shapes))
	}
	return randomOperands(shapes, seed)
}

func randomOperands(specs []string, seed int64) ([]*tensor.Tensor, error) {
	out := make([]*tensor.Tensor, len(specs))
	for i, spec := range specs {
		shape, err := tensor.ParseShape(spec)
		if err != nil {
			return nil, err
		}
		t := tensor.New(shape...)
		tensor.FillRand(t, seed+int64(i))
		out[i] = t
	}
	return out, nil
}

func readOperands(path string, names []string, n int) ([]*tensor.Tensor, error) {
	f, err := safetensors.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", path, err)
	}
	if len(names) == 0 {
		names = f.Names()
	}
	if len(names) != n {
		return nil, fmt.Errorf("expression has %d operands, %s provides %d names", n, path, len(names))
	}
	out := make([]*tensor.Tensor, n)
	for i, name := range names {
		t, err := f.ReadTensorF64(name)
		if err != nil {
			return nil, err
		}
		out[i] = t
	}
	return out, nil
}

// summary describes a result tensor in one line.
func summary(t *tensor.Tensor) string {
	var sum, maxAbs float64
	for _, v := range t.Values() {
		sum += v
		maxAbs = math.Max(maxAbs, math.Abs(v))
	}
	return fmt.Sprintf("shape=%s elements=%d sum=%.12g max|v|=%.6g", tensor.FormatShape(t.Shape), t.Size(), sum, maxAbs)
}
