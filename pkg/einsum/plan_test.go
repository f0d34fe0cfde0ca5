package einsum

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPlanChainTieBreak(t *testing.T) {
	// (0,1) and (1,2) both cost 4-8; the smaller left slot wins.
	p, err := Parse("ij,jk,kl->il", []int{2, 2}, []int{2, 2}, []int{2, 2})
	require.NoError(t, err)

	steps := p.Steps()
	require.Len(t, steps, 2)
	assert.Equal(t, Step{LeftSlot: 0, RightSlot: 1, Left: "ij", Right: "jk", Result: "ik", Cost: -4, Flops: 8, ResultSize: 4}, steps[0])
	assert.Equal(t, 0, steps[1].LeftSlot)
	assert.Equal(t, 1, steps[1].RightSlot)
	assert.Equal(t, "kl", steps[1].Left)
	assert.Equal(t, "ik", steps[1].Right)
	assert.Equal(t, "il", steps[1].Result)
}

func TestPlanEqualKeysKeepFirstScanned(t *testing.T) {
	p, err := Parse("i,i,i->i", []int{3}, []int{3}, []int{3})
	require.NoError(t, err)
	first := p.Steps()[0]
	assert.Equal(t, 0, first.LeftSlot)
	assert.Equal(t, 1, first.RightSlot)
	assert.Equal(t, -3.0, first.Cost)
}

func TestPlanPrefersSmallIntermediate(t *testing.T) {
	// Contracting the two vectors with the matrix first keeps every
	// intermediate small; the outer product of the vectors is avoided.
	p, err := Parse("i,ij,j->", []int{100}, []int{100, 100}, []int{100})
	require.NoError(t, err)
	first := p.Steps()[0]
	assert.NotEqual(t, [2]int{0, 2}, [2]int{first.LeftSlot, first.RightSlot})
	assert.Equal(t, 100.0, first.ResultSize)
}

func TestPlanFlopsAlphaChangesChoice(t *testing.T) {
	shapes := [][]int{{10, 1000}, {1000, 10}, {10, 1}}
	p, err := Parse("ij,jk,kl->il", shapes...)
	require.NoError(t, err)
	assert.Equal(t, "ik", p.Steps()[0].Result)

	cfg := DefaultConfig()
	cfg.SizeAlpha = 0
	cfg.FlopsAlpha = 1
	p, err = NewPlan(cfg, "ij,jk,kl->il", shapes...)
	require.NoError(t, err)
	first := p.Steps()[0]
	assert.Equal(t, "jl", first.Result)
}

func TestPlanNewTensorAppendedAndNamed(t *testing.T) {
	p, err := Parse("ab,cd,bc->ad", []int{2, 3}, []int{4, 5}, []int{3, 4})
	require.NoError(t, err)
	steps := p.Steps()
	require.Len(t, steps, 2)
	// (1,2) is cheapest; its result keeps d then b, the order they first
	// appear in "cd" then "bc", and goes to the end of the live list.
	assert.Equal(t, "cd", steps[0].Left)
	assert.Equal(t, "bc", steps[0].Right)
	assert.Equal(t, "db", steps[0].Result)
	assert.Equal(t, "ab", steps[1].Left)
	assert.Equal(t, "db", steps[1].Right)
	assert.Equal(t, "ad", steps[1].Result)
}

func TestPlanTreeShape(t *testing.T) {
	p, err := Parse("ij,jk,kl,lm->mi", []int{2, 3}, []int{3, 4}, []int{4, 5}, []int{5, 6})
	require.NoError(t, err)

	root := p.Root()
	assert.Equal(t, KindOutput, root.Kind)
	assert.Equal(t, "mi", root.Name)
	assert.Equal(t, []int{6, 2}, p.OutputShape())
	assert.Equal(t, KindContracted, root.Left.Kind)
	assert.Equal(t, "mi", root.Left.Name)

	var contracted, inputs int
	var walk func(n *Node)
	walk = func(n *Node) {
		switch n.Kind {
		case KindInput:
			inputs++
		case KindContracted:
			contracted++
			walk(n.Left)
			walk(n.Right)
		}
	}
	walk(root.Left)
	assert.Equal(t, 4, inputs)
	assert.Equal(t, 3, contracted)
	assert.NoError(t, root.Check(4))
	assert.ErrorIs(t, root.Check(3), ErrTensorIndex)
	assert.LessOrEqual(t, root.Depth(), 5)
}

func TestPlanSingleInput(t *testing.T) {
	p, err := Parse("ii->i", []int{4, 4})
	require.NoError(t, err)
	assert.Empty(t, p.Steps())
	assert.Equal(t, KindInput, p.Root().Left.Kind)
	assert.Equal(t, 4.0, p.Flops())
}

func TestPlanString(t *testing.T) {
	p, err := Parse("ij,jk->ik", []int{2, 3}, []int{3, 4})
	require.NoError(t, err)
	s := p.String()
	assert.Contains(t, s, "ij,jk->ik")
	assert.Contains(t, s, "1: ij,jk->ik cost=-10 flops=24 size=8")
	assert.Contains(t, s, "tree: (ij#0,jk#1->ik)->ik")
}
