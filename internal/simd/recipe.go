package simd

import (
	"math"

	"github.com/tetratelabs/unisimd/api"
)

// Value names an operand of a refinement Step.
type Value byte

const (
	// ValX is the input x.
	ValX Value = iota
	// ValY is the estimate, refined in place.
	ValY
	// ValT is the temporary.
	ValT
	ValOne
	ValTwo
	ValHalf
	ValThreeHalves

	valueCount
)

// constant returns the pool entry of a constant value.
func (v Value) constant() (Constant, bool) {
	switch v {
	case ValOne:
		return ConstOne, true
	case ValTwo:
		return ConstTwo, true
	case ValHalf:
		return ConstHalf, true
	case ValThreeHalves:
		return ConstThreeHalves, true
	}
	return 0, false
}

// StepOp is the operation of a refinement Step.
type StepOp byte

const (
	// StepMul is Dst = A * B.
	StepMul StepOp = iota
	// StepSub is Dst = A - B.
	StepSub
	// StepNeg is Dst = -A.
	StepNeg
	// StepLoad is Dst = A, A being a constant.
	StepLoad
	// StepMulAdd is Dst = A*B + Dst with a single rounding.
	StepMulAdd
	// StepNegMulAdd is Dst = Dst - A*B with a single rounding.
	StepNegMulAdd
)

// Step is one instruction of a Recipe. Only B may be the input or a constant, so that
// targets can use a memory operand for it.
type Step struct {
	Op     StepOp
	Dst, A Value
	B      Value
}

// Recipe is one Newton-Raphson step refining an estimate y of a reciprocal (square root).
// Targets lower it to instructions and tests evaluate it with Eval in the same order.
type Recipe struct {
	Name  string
	Steps []Step
}

var (
	// RecipeRcp computes y' = -(y*(x*y - 2)) without fused operations.
	RecipeRcp = Recipe{Name: "rcp", Steps: []Step{
		{Op: StepMul, Dst: ValT, A: ValY, B: ValX},
		{Op: StepSub, Dst: ValT, A: ValT, B: ValTwo},
		{Op: StepMul, Dst: ValT, A: ValY, B: ValT},
		{Op: StepNeg, Dst: ValY, A: ValT},
	}}
	// RecipeRcpFMA computes y' = y*(2 - y*x) with the multiply-add of the x86-64 FMA unit.
	RecipeRcpFMA = Recipe{Name: "rcp-fma", Steps: []Step{
		{Op: StepLoad, Dst: ValT, A: ValTwo},
		{Op: StepNegMulAdd, Dst: ValT, A: ValY, B: ValX},
		{Op: StepMul, Dst: ValY, A: ValY, B: ValT},
	}}
	// RecipeRcpFused computes y' = y*(1 - y*x) + y with two fused operations.
	RecipeRcpFused = Recipe{Name: "rcp-fused", Steps: []Step{
		{Op: StepLoad, Dst: ValT, A: ValOne},
		{Op: StepNegMulAdd, Dst: ValT, A: ValY, B: ValX},
		{Op: StepMulAdd, Dst: ValY, A: ValY, B: ValT},
	}}
	// RecipeRsqrt computes y' = -(y*(0.5*x*y*y - 1.5)).
	RecipeRsqrt = Recipe{Name: "rsqrt", Steps: []Step{
		{Op: StepMul, Dst: ValT, A: ValY, B: ValY},
		{Op: StepMul, Dst: ValT, A: ValT, B: ValX},
		{Op: StepMul, Dst: ValT, A: ValT, B: ValHalf},
		{Op: StepSub, Dst: ValT, A: ValT, B: ValThreeHalves},
		{Op: StepMul, Dst: ValY, A: ValY, B: ValT},
		{Op: StepNeg, Dst: ValY, A: ValY},
	}}
)

// Iterations returns the number of steps taking an estimate of estimateBits correct bits to
// the precision of elem: every step doubles the number of correct bits.
func Iterations(estimateBits int, elem api.Elem) int {
	want := 25
	if elem.Bits() == 64 {
		want = 54
	}
	n := 0
	for b := estimateBits; b < want; b *= 2 {
		n++
	}
	return n
}

// Eval applies one step of the recipe to the estimate y of the value for x, rounding every
// operation to the lanes of elem.
func (r Recipe) Eval(elem api.Elem, x, y float64) float64 {
	round := func(v float64) float64 {
		if elem == api.Float32 {
			return float64(float32(v))
		}
		return v
	}
	var vals [valueCount]float64
	vals[ValX], vals[ValY] = round(x), round(y)
	vals[ValOne], vals[ValTwo], vals[ValHalf], vals[ValThreeHalves] = 1, 2, 0.5, 1.5
	for _, s := range r.Steps {
		a, b := vals[s.A], vals[s.B]
		var v float64
		switch s.Op {
		case StepMul:
			v = round(float64(a * b))
		case StepSub:
			v = round(float64(a - b))
		case StepNeg:
			v = -a
		case StepLoad:
			v = a
		case StepMulAdd:
			v = round(math.FMA(a, b, vals[s.Dst]))
		case StepNegMulAdd:
			v = round(math.FMA(-a, b, vals[s.Dst]))
		}
		vals[s.Dst] = v
	}
	return vals[ValY]
}
