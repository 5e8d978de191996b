package api

import "fmt"

// Op is a logical SIMD operation of the catalogue.
type Op byte

const (
	OpNone Op = iota

	// Move copies a register to a register, loads it from memory or stores it to memory.
	Move
	// MoveMasked merges the source into the destination in the lanes where the implicit
	// mask register is all ones.
	MoveMasked

	And
	// AndNot computes ^a & b.
	AndNot
	Or
	// OrNot computes ^a | b.
	OrNot
	Xor
	Not

	Add
	Sub
	Mul
	Div
	// FMA computes d += a*b.
	FMA
	// FMS computes d -= a*b.
	FMS
	Neg
	Abs
	Min
	Max
	Sqrt
	// RcpEstimate is the hardware reciprocal estimate.
	RcpEstimate
	// RcpRefine applies one Newton-Raphson step y' = y*(2-x*y) to the estimate y of 1/x.
	RcpRefine
	Rcp
	// RsqrtEstimate is the hardware reciprocal square root estimate.
	RsqrtEstimate
	// RsqrtRefine applies one Newton-Raphson step y' = y*(1.5-0.5*x*y*y) to the estimate
	// y of 1/sqrt(x).
	RsqrtRefine
	Rsqrt

	CmpEQ
	CmpNE
	CmpLT
	CmpLE
	CmpGT
	CmpGE

	// CvtZ converts floats to integers rounding toward zero.
	CvtZ
	// CvtP converts floats to integers rounding toward +Inf.
	CvtP
	// CvtM converts floats to integers rounding toward -Inf.
	CvtM
	// CvtN converts floats to integers rounding to nearest even.
	CvtN
	// Cvt converts floats to integers with the current rounding mode of the target.
	Cvt
	// CvtToFloat converts integers to floats.
	CvtToFloat

	RoundZ
	RoundP
	RoundM
	RoundN
	Round

	ShlImm
	ShrImm
	SarImm
	ShlVar
	ShrVar
	SarVar

	opEnd
)

var opNames = [...]string{
	OpNone:        "none",
	Move:          "mov",
	MoveMasked:    "mmv",
	And:           "and",
	AndNot:        "ann",
	Or:            "orr",
	OrNot:         "orn",
	Xor:           "xor",
	Not:           "not",
	Add:           "add",
	Sub:           "sub",
	Mul:           "mul",
	Div:           "div",
	FMA:           "fma",
	FMS:           "fms",
	Neg:           "neg",
	Abs:           "abs",
	Min:           "min",
	Max:           "max",
	Sqrt:          "sqr",
	RcpEstimate:   "rce",
	RcpRefine:     "rcs",
	Rcp:           "rcp",
	RsqrtEstimate: "rse",
	RsqrtRefine:   "rss",
	Rsqrt:         "rsq",
	CmpEQ:         "ceq",
	CmpNE:         "cne",
	CmpLT:         "clt",
	CmpLE:         "cle",
	CmpGT:         "cgt",
	CmpGE:         "cge",
	CvtZ:          "rnz_cvt",
	CvtP:          "rnp_cvt",
	CvtM:          "rnm_cvt",
	CvtN:          "rnn_cvt",
	Cvt:           "cvt",
	CvtToFloat:    "cvn",
	RoundZ:        "rnz",
	RoundP:        "rnp",
	RoundM:        "rnm",
	RoundN:        "rnn",
	Round:         "rnd",
	ShlImm:        "shl_imm",
	ShrImm:        "shr_imm",
	SarImm:        "sar_imm",
	ShlVar:        "shl_var",
	ShrVar:        "shr_var",
	SarVar:        "sar_var",
}

// String implements fmt.Stringer.
func (o Op) String() string {
	if o < opEnd {
		return opNames[o]
	}
	return fmt.Sprintf("op(%d)", byte(o))
}

// Ops returns every operation of the catalogue in declaration order.
func Ops() []Op {
	ret := make([]Op, 0, opEnd-1)
	for o := Move; o < opEnd; o++ {
		ret = append(ret, o)
	}
	return ret
}

// Elem is the element kind of the lanes of a vector.
type Elem byte

const (
	Float32 Elem = iota + 1
	Float64
	Int32
	Int64
)

// Bits returns the lane width in bits.
func (e Elem) Bits() int {
	switch e {
	case Float32, Int32:
		return 32
	case Float64, Int64:
		return 64
	}
	return 0
}

// IsFloat reports whether the lanes hold floating point values.
func (e Elem) IsFloat() bool { return e == Float32 || e == Float64 }

// String implements fmt.Stringer.
func (e Elem) String() string {
	switch e {
	case Float32:
		return "f32"
	case Float64:
		return "f64"
	case Int32:
		return "i32"
	case Int64:
		return "i64"
	}
	return fmt.Sprintf("elem(%d)", byte(e))
}

// Shape is the operand shape of a vector operation: the lane kind and the vector width.
type Shape struct {
	Elem  Elem
	Width Width
}

// Lanes returns the number of lanes of the shape.
func (s Shape) Lanes() int {
	if b := s.Elem.Bits(); b != 0 {
		return s.Width.Bits() / b
	}
	return 0
}

// RegisterFile returns the vector register file matching the width.
func (s Shape) RegisterFile() RegisterFile {
	if s.Width == Width256 {
		return SIMD256
	}
	return SIMD128
}

// String implements fmt.Stringer.
func (s Shape) String() string {
	return fmt.Sprintf("%sx%d", s.Elem, s.Lanes())
}

// Shapes for the supported element kinds and widths.
var (
	F32x4 = Shape{Elem: Float32, Width: Width128}
	F32x8 = Shape{Elem: Float32, Width: Width256}
	F64x2 = Shape{Elem: Float64, Width: Width128}
	F64x4 = Shape{Elem: Float64, Width: Width256}
	I32x4 = Shape{Elem: Int32, Width: Width128}
	I32x8 = Shape{Elem: Int32, Width: Width256}
	I64x2 = Shape{Elem: Int64, Width: Width128}
	I64x4 = Shape{Elem: Int64, Width: Width256}
)

// Role is the role an operand plays in an operation.
type Role byte

const (
	// RoleDst is written only.
	RoleDst Role = iota + 1
	// RoleDstSrc is read then written (accumulators, in-place refinement).
	RoleDstSrc
	// RoleSrc1 is the first source.
	RoleSrc1
	// RoleSrc2 is the second source.
	RoleSrc2
	// RoleSrc3 is the third source.
	RoleSrc3
	// RoleCount is an immediate or per-lane shift count.
	RoleCount
)

// String implements fmt.Stringer.
func (r Role) String() string {
	switch r {
	case RoleDst:
		return "dst"
	case RoleDstSrc:
		return "dst+src"
	case RoleSrc1:
		return "src1"
	case RoleSrc2:
		return "src2"
	case RoleSrc3:
		return "src3"
	case RoleCount:
		return "count"
	}
	return fmt.Sprintf("role(%d)", byte(r))
}
