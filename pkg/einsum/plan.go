package einsum

import (
	"fmt"
	"math"
	"slices"
	"strings"

	"github.com/samcharles93/linalg/pkg/tensor"
)

// Step records one greedy pairing.
type Step struct {
	// LeftSlot and RightSlot are the positions of the pair in the live list
	// at the time of the step.
	LeftSlot, RightSlot int

	Left, Right, Result string

	Cost       float64
	Flops      float64
	ResultSize float64
}

func (s Step) String() string {
	return fmt.Sprintf("%s,%s->%s cost=%g flops=%g size=%g", s.Left, s.Right, s.Result, s.Cost, s.Flops, s.ResultSize)
}

// Plan is a validated expression bound to operand shapes, with its
// contraction order fixed.
type Plan struct {
	cfg     Config
	expr    string
	inputs  []string
	output  string
	shapes  [][]int
	lengths map[byte]int
	root    *Node
	steps   []Step
}

// Parse validates expr against the operand shapes and plans it with the
// default configuration.
func Parse(expr string, shapes ...[]int) (*Plan, error) {
	return NewPlan(DefaultConfig(), expr, shapes...)
}

// NewPlan validates expr against the operand shapes and plans it greedily
// using the cost weights of cfg.
func NewPlan(cfg Config, expr string, shapes ...[]int) (*Plan, error) {
	e, err := parseExpression(expr)
	if err != nil {
		return nil, err
	}
	lengths, err := e.bind(shapes)
	if err != nil {
		return nil, err
	}
	p := &Plan{
		cfg:     cfg,
		expr:    expr,
		inputs:  e.inputs,
		output:  e.output,
		lengths: lengths,
	}
	for _, s := range shapes {
		p.shapes = append(p.shapes, slices.Clone(s))
	}

	log := cfg.log().With("expression", expr)
	st := p.initial()
	for len(st.live) > 1 {
		var step Step
		st, step = st.step(cfg)
		p.steps = append(p.steps, step)
		log.Debug("planned contraction step",
			"step", len(p.steps),
			"left", step.Left,
			"right", step.Right,
			"result", step.Result,
			"cost", step.Cost,
		)
	}
	p.root = &Node{
		Kind:  KindOutput,
		Name:  p.output,
		Shape: shapeOf(p.output, lengths),
		Left:  st.live[0],
	}
	return p, nil
}

// Root returns the Output node of the contraction tree.
func (p *Plan) Root() *Node { return p.root }

// Steps returns the pairings in execution order.
func (p *Plan) Steps() []Step { return slices.Clone(p.steps) }

// Expression returns the expression the plan was built from.
func (p *Plan) Expression() string { return p.expr }

// OutputShape returns the shape of the result tensor.
func (p *Plan) OutputShape() []int { return slices.Clone(p.root.Shape) }

// Flops returns the summed multiply count of every step.
func (p *Plan) Flops() float64 {
	var f float64
	for _, s := range p.steps {
		f += s.Flops
	}
	if len(p.steps) == 0 {
		f = size(p.inputs[0], p.lengths)
	}
	return f
}

func (p *Plan) String() string {
	var b strings.Builder
	fmt.Fprintf(&b, "%s\n", p.expr)
	for i, s := range p.steps {
		fmt.Fprintf(&b, "  %d: %s\n", i+1, s)
	}
	fmt.Fprintf(&b, "  tree: %s", p.root)
	return b.String()
}

// state is one immutable planner snapshot. Each step links a new snapshot
// to the one it was derived from.
type state struct {
	live    []*Node
	output  string
	lengths map[byte]int
	prev    *state
}

func (p *Plan) initial() *state {
	st := &state{
		live:    make([]*Node, len(p.inputs)),
		output:  p.output,
		lengths: p.lengths,
	}
	for i, in := range p.inputs {
		st.live[i] = &Node{
			Kind:  KindInput,
			Name:  in,
			Shape: p.shapes[i],
			Slot:  i,
		}
	}
	return st
}

// step contracts the cheapest live pair and returns the resulting snapshot.
// Among equal costs the candidate with the smaller i+len(live) wins; equal
// keys keep the pair scanned first.
func (st *state) step(cfg Config) (*state, Step) {
	n := len(st.live)
	best := Step{Cost: math.Inf(1)}
	bestKey := math.MaxInt
	var bestName string
	for i := 0; i < n; i++ {
		for j := i + 1; j < n; j++ {
			c := st.candidate(cfg, i, j)
			key := i + n
			if c.Cost < best.Cost || (c.Cost == best.Cost && key < bestKey) {
				best, bestKey = c, key
				bestName = c.Result
			}
		}
	}

	left, right := st.live[best.LeftSlot], st.live[best.RightSlot]
	if n == 2 {
		bestName = st.output
		best.Result = bestName
	}
	joined := &Node{
		Kind:  KindContracted,
		Name:  bestName,
		Shape: shapeOf(bestName, st.lengths),
		Left:  left,
		Right: right,
	}

	next := &state{
		live:    make([]*Node, 0, n-1),
		output:  st.output,
		lengths: st.lengths,
		prev:    st,
	}
	for k, t := range st.live {
		if k != best.LeftSlot && k != best.RightSlot {
			next.live = append(next.live, t)
		}
	}
	next.live = append(next.live, joined)
	return next, best
}

// candidate scores contracting live tensors i and j.
func (st *state) candidate(cfg Config, i, j int) Step {
	left, right := st.live[i].Name, st.live[j].Name
	union := distinct(left + right)

	var surviving []byte
	for _, sym := range union {
		if st.survives(sym, i, j) {
			surviving = append(surviving, sym)
		}
	}
	flops := size(string(union), st.lengths)
	result := size(string(surviving), st.lengths)
	cost := result - cfg.SizeAlpha*(size(left, st.lengths)+size(right, st.lengths)) + cfg.FlopsAlpha*flops
	return Step{
		LeftSlot:   i,
		RightSlot:  j,
		Left:       left,
		Right:      right,
		Result:     string(surviving),
		Cost:       cost,
		Flops:      flops,
		ResultSize: result,
	}
}

// survives reports whether sym is still needed after contracting i and j:
// the output or some other live tensor names it.
func (st *state) survives(sym byte, i, j int) bool {
	if strings.IndexByte(st.output, sym) >= 0 {
		return true
	}
	for k, t := range st.live {
		if k != i && k != j && strings.IndexByte(t.Name, sym) >= 0 {
			return true
		}
	}
	return false
}

// distinct returns the symbols of s without repeats, in first-appearance
// order.
func distinct(s string) []byte {
	out := make([]byte, 0, len(s))
	for i := 0; i < len(s); i++ {
		if !slices.Contains(out, s[i]) {
			out = append(out, s[i])
		}
	}
	return out
}

// size is the product of the lengths of the distinct symbols of s.
func size(s string, lengths map[byte]int) float64 {
	v := 1.0
	for _, sym := range distinct(s) {
		v *= float64(lengths[sym])
	}
	return v
}

// shapes of the caller tensors, for binding a plan.
func shapesOf(tensors []*tensor.Tensor) [][]int {
	shapes := make([][]int, len(tensors))
	for i, t := range tensors {
		if t != nil {
			shapes[i] = t.Shape
		}
	}
	return shapes
}
