package simd

import (
	"github.com/tetratelabs/unisimd/api"
	"github.com/tetratelabs/unisimd/internal/asm/amd64"
)

// vexSet holds the instruction of an operation per element kind: f32, f64, i32, i64.
type vexSet [4]amd64.Instruction

func (v vexSet) of(e api.Elem) amd64.Instruction {
	return v[e-1]
}

var (
	vexAnd       = vexSet{amd64.VANDPS, amd64.VANDPD, amd64.VPAND, amd64.VPAND}
	vexAndNot    = vexSet{amd64.VANDNPS, amd64.VANDNPD, amd64.VPANDN, amd64.VPANDN}
	vexOr        = vexSet{amd64.VORPS, amd64.VORPD, amd64.VPOR, amd64.VPOR}
	vexXor       = vexSet{amd64.VXORPS, amd64.VXORPD, amd64.VPXOR, amd64.VPXOR}
	vexAdd       = vexSet{amd64.VADDPS, amd64.VADDPD, amd64.VPADDD, amd64.VPADDQ}
	vexSub       = vexSet{amd64.VSUBPS, amd64.VSUBPD, amd64.VPSUBD, amd64.VPSUBQ}
	vexMul       = vexSet{amd64.VMULPS, amd64.VMULPD, amd64.VPMULLD, amd64.VPMULLQ}
	vexMin       = vexSet{amd64.VMINPS, amd64.VMINPD, amd64.VPMINSD, amd64.VPMINSQ}
	vexMax       = vexSet{amd64.VMAXPS, amd64.VMAXPD, amd64.VPMAXSD, amd64.VPMAXSQ}
	vexDiv       = vexSet{amd64.VDIVPS, amd64.VDIVPD}
	vexSqrt      = vexSet{amd64.VSQRTPS, amd64.VSQRTPD}
	vexFMA       = vexSet{amd64.VFMADD231PS, amd64.VFMADD231PD}
	vexFNMA      = vexSet{amd64.VFNMADD231PS, amd64.VFNMADD231PD}
	vexCmp       = vexSet{amd64.VCMPPS, amd64.VCMPPD}
	vexRound     = vexSet{amd64.VROUNDPS, amd64.VROUNDPD}
	vexBlend     = vexSet{amd64.VBLENDVPS, amd64.VBLENDVPD, amd64.VBLENDVPS, amd64.VBLENDVPD}
	vexMaskStore = vexSet{amd64.VMASKMOVPS, amd64.VMASKMOVPD, amd64.VMASKMOVPS, amd64.VMASKMOVPD}
	vexCmpEQ     = vexSet{2: amd64.VPCMPEQD, 3: amd64.VPCMPEQQ}
	vexCmpGT     = vexSet{2: amd64.VPCMPGTD, 3: amd64.VPCMPGTQ}
	vexAbs       = vexSet{2: amd64.VPABSD, 3: amd64.VPABSQ}
	vexShl       = vexSet{2: amd64.VPSLLD, 3: amd64.VPSLLQ}
	vexShr       = vexSet{2: amd64.VPSRLD, 3: amd64.VPSRLQ}
	vexSar       = vexSet{2: amd64.VPSRAD, 3: amd64.VPSRAQ}
	vexShlVar    = vexSet{2: amd64.VPSLLVD, 3: amd64.VPSLLVQ}
	vexShrVar    = vexSet{2: amd64.VPSRLVD, 3: amd64.VPSRLVQ}
	vexSarVar    = vexSet{2: amd64.VPSRAVD, 3: amd64.VPSRAVQ}

	// Scalar forms used per lane, f32 then f64.
	vexMovScalar      = vexSet{amd64.VMOVSS, amd64.VMOVSD}
	vexStoreScalar    = vexSet{amd64.VMOVSSstore, amd64.VMOVSDstore}
	vexDivScalar      = vexSet{amd64.VDIVSS, amd64.VDIVSD}
	vexSqrtScalar     = vexSet{amd64.VSQRTSS, amd64.VSQRTSD}
	vexRcpEstimate    = vexSet{amd64.VRCPPS, amd64.VRCPPS}
	vexRcp14          = vexSet{amd64.VRCP14PS, amd64.VRCP14PD}
	vexRsqrtEstimate  = vexSet{amd64.VRSQRTPS, amd64.VRSQRTPS}
	vexRsqrt14        = vexSet{amd64.VRSQRT14PS, amd64.VRSQRT14PD}
	vexCvtToIntTrunc  = vexSet{amd64.VCVTTPS2DQ, amd64.VCVTTPD2QQ}
	vexCvtToInt       = vexSet{amd64.VCVTPS2DQ, amd64.VCVTPD2QQ}
	vexCvtToFloatFrom = vexSet{2: amd64.VCVTDQ2PS, 3: amd64.VCVTQQ2PD}
)

// Immediate predicates of vcmpps for the compare operations.
var cmpPredicates = map[api.Op]byte{
	api.CmpEQ: amd64.CmpEQOQ,
	api.CmpNE: amd64.CmpNEQUQ,
	api.CmpLT: amd64.CmpLTOS,
	api.CmpLE: amd64.CmpLEOS,
	api.CmpGT: amd64.CmpGTOS,
	api.CmpGE: amd64.CmpGEOS,
}

// Rounding controls of vroundps for the rounding and conversion operations.
var roundControls = map[api.Op]byte{
	api.RoundZ: amd64.RoundTrunc, api.CvtZ: amd64.RoundTrunc,
	api.RoundP: amd64.RoundUp, api.CvtP: amd64.RoundUp,
	api.RoundM: amd64.RoundDown, api.CvtM: amd64.RoundDown,
	api.RoundN: amd64.RoundNearest, api.CvtN: amd64.RoundNearest,
	api.Round: amd64.RoundCurrent, api.Cvt: amd64.RoundCurrent,
}

// binaryCore writes d = a op src on vectors of length l. tmp may be clobbered.
type binaryCore func(e api.Elem, l amd64.Length, d, a amd64.Register, src amd64.Operand, tmp amd64.Register) error

// unaryCore writes d = op src on vectors of length l. tmp may be clobbered.
type unaryCore func(e api.Elem, l amd64.Length, d amd64.Register, src amd64.Operand, tmp amd64.Register) error

type amd64Backend struct {
	a   *amd64.Assembler
	cfg *Config
	// t0 and t1 are the hidden registers.
	t0, t1 amd64.Register
}

func newAMD64Backend(e *Encoder) *amd64Backend {
	return &amd64Backend{
		a:   amd64.NewAssembler(e.buf),
		cfg: &e.cfg,
		t0:  amd64.Register(e.cfg.Layout.Hidden[0]),
		t1:  amd64.Register(e.cfg.Layout.Hidden[1]),
	}
}

func (b *amd64Backend) has(f api.Feature) bool {
	return b.cfg.Features.Has(f)
}

// paired reports whether 256-bit integer operations of the shape are lowered one 128-bit
// half at a time.
func (b *amd64Backend) paired(s api.Shape) bool {
	return !s.Elem.IsFloat() && s.Width == api.Width256 && !b.has(api.FeatureAVX2)
}

func length(s api.Shape) amd64.Length {
	if s.Width == api.Width256 {
		return amd64.L256
	}
	return amd64.L128
}

func xreg(o api.Operand) amd64.Register {
	return amd64.Register(o.(api.Register).Index)
}

func shapesOf(shapes []api.Shape, elems ...api.Elem) []api.Shape {
	var ret []api.Shape
	for _, s := range shapes {
		for _, e := range elems {
			if s.Elem == e {
				ret = append(ret, s)
			}
		}
	}
	return ret
}

// addLanes adds an integer entry which is paired on targets without AVX2.
func (b *amd64Backend) addLanes(c catalogue, op api.Op, shapes []api.Shape, sig signature, emit emitFunc) {
	for _, s := range shapes {
		if b.paired(s) {
			c.addTier(op, []api.Shape{s}, sig, api.TierFallback, emit)
		} else {
			c.add(op, []api.Shape{s}, sig, emit)
		}
	}
}

func (b *amd64Backend) catalogue() catalogue {
	c := catalogue{}
	i32 := shapesOf(intShapes, api.Int32)
	i64 := shapesOf(intShapes, api.Int64)
	avx512 := b.has(api.FeatureAVX512)

	c.add(api.Move, allShapes, sigMove, b.move)
	c.add(api.MoveMasked, allShapes, sigMoveMasked, b.moveMasked)

	c.add(api.And, allShapes, sigBinary, b.bitwise(vexAnd))
	c.add(api.AndNot, allShapes, sigBinary, b.bitwise(vexAndNot))
	c.add(api.Or, allShapes, sigBinary, b.bitwise(vexOr))
	c.add(api.Xor, allShapes, sigBinary, b.bitwise(vexXor))
	c.add(api.OrNot, allShapes, sigBinary, b.orNot)
	c.add(api.Not, allShapes, sigUnary, b.not)

	for op, set := range map[api.Op]vexSet{api.Add: vexAdd, api.Sub: vexSub, api.Mul: vexMul, api.Min: vexMin, api.Max: vexMax} {
		c.add(op, floatShapes, sigBinary, b.binary(b.simple(set)))
		b.addLanes(c, op, i32, sigBinary, b.binary(b.simple(set)))
	}
	b.addLanes(c, api.Add, i64, sigBinary, b.binary(b.simple(vexAdd)))
	b.addLanes(c, api.Sub, i64, sigBinary, b.binary(b.simple(vexSub)))
	if avx512 {
		c.add(api.Mul, i64, sigBinary, b.binary(b.simple(vexMul)))
		c.add(api.Min, i64, sigBinary, b.binary(b.simple(vexMin)))
		c.add(api.Max, i64, sigBinary, b.binary(b.simple(vexMax)))
		c.add(api.Abs, i64, sigUnary, b.unary(b.simpleUnary(vexAbs)))
	} else {
		c.addTier(api.Mul, i64, sigBinary, api.TierScalar, b.mulScalar)
		b.addLanes(c, api.Min, i64, sigBinary, b.binary(b.minMax64(false)))
		b.addLanes(c, api.Max, i64, sigBinary, b.binary(b.minMax64(true)))
		b.addLanes(c, api.Abs, i64, sigUnary, b.unary(b.abs64))
	}
	b.addLanes(c, api.Abs, i32, sigUnary, b.unary(b.simpleUnary(vexAbs)))
	c.add(api.Abs, floatShapes, sigUnary, b.withConstant(vexAnd, ConstAbs))
	c.add(api.Neg, floatShapes, sigUnary, b.withConstant(vexXor, ConstSign))
	b.addLanes(c, api.Neg, intShapes, sigUnary, b.unary(b.negInt))

	c.addTier(api.Div, intShapes, sigBinary, api.TierScalar, b.divIntScalar)
	b.addFloatTiers(c)

	c.add(api.RcpEstimate, floatShapes, sigUnary, b.estimateOp(false))
	c.add(api.RsqrtEstimate, floatShapes, sigUnary, b.estimateOp(true))
	c.add(api.RcpRefine, floatShapes, sigRefine, b.refineOp(b.rcpRecipe()))
	c.add(api.RsqrtRefine, floatShapes, sigRefine, b.refineOp(RecipeRsqrt))

	for op, pred := range cmpPredicates {
		c.add(op, floatShapes, sigBinary, b.binary(b.cmpFloat(pred)))
		b.addLanes(c, op, intShapes, sigBinary, b.binary(b.cmpInt(op)))
	}

	for _, op := range []api.Op{api.CvtZ, api.CvtP, api.CvtM, api.CvtN, api.Cvt} {
		c.add(op, shapesOf(floatShapes, api.Float32), sigUnary, b.unary(b.cvtToInt(op)))
		if avx512 {
			c.add(op, shapesOf(floatShapes, api.Float64), sigUnary, b.unary(b.cvtToInt(op)))
		} else {
			c.addTier(op, shapesOf(floatShapes, api.Float64), sigUnary, api.TierScalar, b.cvtToInt64Scalar(op))
		}
	}
	c.add(api.CvtToFloat, i32, sigUnary, b.whole(b.simpleUnary(vexCvtToFloatFrom)))
	if avx512 {
		c.add(api.CvtToFloat, i64, sigUnary, b.unary(b.simpleUnary(vexCvtToFloatFrom)))
	} else {
		c.addTier(api.CvtToFloat, i64, sigUnary, api.TierScalar, b.cvtToFloat64Scalar)
	}
	for _, op := range []api.Op{api.RoundZ, api.RoundP, api.RoundM, api.RoundN, api.Round} {
		c.add(op, floatShapes, sigUnary, b.unary(b.round(roundControls[op])))
	}

	b.addShifts(c, i32, i64, avx512)
	return c
}

// addFloatTiers adds the operations whose lowering depends on the compatibility mode.
func (b *amd64Backend) addFloatTiers(c catalogue) {
	compat := b.cfg.Compat
	switch compat.Div {
	case api.TierNative:
		c.add(api.Div, floatShapes, sigBinary, b.binary(b.simple(vexDiv)))
	case api.TierFallback:
		c.addTier(api.Div, floatShapes, sigBinary, compat.Div, b.divFallback)
	case api.TierScalar:
		c.addTier(api.Div, floatShapes, sigBinary, compat.Div, b.divScalar)
	}

	switch compat.Sqrt {
	case api.TierNative:
		c.add(api.Sqrt, floatShapes, sigUnary, b.unary(b.simpleUnary(vexSqrt)))
	case api.TierFallback:
		c.addTier(api.Sqrt, floatShapes, sigUnary, compat.Sqrt, b.sqrtFallback)
	case api.TierScalar:
		c.addTier(api.Sqrt, floatShapes, sigUnary, compat.Sqrt, b.floatLanes(b.sqrtLane))
	}

	switch compat.Rcp {
	case api.TierNative:
		c.add(api.Rcp, floatShapes, sigUnary, b.refined(false))
	case api.TierFallback:
		c.addTier(api.Rcp, floatShapes, sigUnary, compat.Rcp, b.rcpFallback)
	case api.TierScalar:
		c.addTier(api.Rcp, floatShapes, sigUnary, compat.Rcp, b.floatLanes(b.rcpLane))
	}

	switch compat.Rsqrt {
	case api.TierNative:
		c.add(api.Rsqrt, floatShapes, sigUnary, b.refined(true))
	case api.TierFallback:
		c.addTier(api.Rsqrt, floatShapes, sigUnary, compat.Rsqrt, b.rsqrtFallback)
	case api.TierScalar:
		c.addTier(api.Rsqrt, floatShapes, sigUnary, compat.Rsqrt, b.floatLanes(b.rsqrtLane))
	}

	switch compat.FMA {
	case api.TierNative:
		c.add(api.FMA, floatShapes, sigAccumulate, b.binary(b.simple(vexFMA)))
		c.add(api.FMS, floatShapes, sigAccumulate, b.binary(b.simple(vexFNMA)))
	case api.TierFallback:
		c.addTier(api.FMA, floatShapes, sigAccumulate, compat.FMA, b.binary(b.mulThen(vexAdd)))
		c.addTier(api.FMS, floatShapes, sigAccumulate, compat.FMA, b.binary(b.mulThen(vexSub)))
	case api.TierScalar:
		c.addTier(api.FMA, floatShapes, sigAccumulate, compat.FMA, b.fmaX87(false))
		c.addTier(api.FMS, floatShapes, sigAccumulate, compat.FMA, b.fmaX87(true))
	}
}

func (b *amd64Backend) addShifts(c catalogue, i32, i64 []api.Shape, avx512 bool) {
	imm := map[api.Op]vexSet{api.ShlImm: vexShl, api.ShrImm: vexShr, api.SarImm: vexSar}
	for op, set := range imm {
		b.addLanes(c, op, i32, sigShiftImm, b.shiftImm(set))
		if op == api.SarImm && !avx512 {
			c.addTier(op, i64, sigShiftImm, api.TierScalar, b.sarImm64Scalar)
			continue
		}
		b.addLanes(c, op, i64, sigShiftImm, b.shiftImm(set))
	}

	kinds := map[api.Op]amd64.ShiftKind{
		api.ShlVar: amd64.ShiftLeft, api.ShrVar: amd64.ShiftRightLogical, api.SarVar: amd64.ShiftRightArithmetic,
	}
	vars := map[api.Op]vexSet{api.ShlVar: vexShlVar, api.ShrVar: vexShrVar, api.SarVar: vexSarVar}
	for op, set := range vars {
		for _, shapes := range [][]api.Shape{i32, i64} {
			native := b.has(api.FeatureAVX2) && (op != api.SarVar || shapes[0].Elem == api.Int32 || avx512)
			if native {
				c.add(op, shapes, sigShiftVar, b.binary(b.simple(set)))
			} else {
				c.addTier(op, shapes, sigShiftVar, api.TierScalar, b.shiftVarScalar(kinds[op]))
			}
		}
	}
}

// mem converts m to an x86-64 operand. Displacements which do not fit 32 bits, including
// up to span bytes past the displacement, are staged with movabs and lea.
func (b *amd64Backend) mem(m api.Memory, span int64) (amd64.Memory, error) {
	base := amd64.Register(m.Base.Index)
	if api.FitsInt32(m.Disp) && api.FitsInt32(m.Disp+span) {
		switch m.Mode {
		case api.Absolute:
			return amd64.MemAbsolute(int32(m.Disp)), nil
		case api.Indexed:
			return amd64.MemIndex(base, amd64.Register(m.Index.Index), m.ScaleFactor(), int32(m.Disp)), nil
		default:
			return amd64.Mem(base, int32(m.Disp)), nil
		}
	}

	r, err := selectScratchOrBase(&b.cfg.Layout, m)
	if err != nil {
		return amd64.Memory{}, err
	}
	s := amd64.Register(r)
	b.a.MovAbs(s, uint64(m.Disp))
	switch m.Mode {
	case api.Absolute:
		return amd64.Mem(s, 0), nil
	case api.Indexed:
		if err = b.a.LeaQ(s, amd64.MemIndex(s, amd64.Register(m.Index.Index), m.ScaleFactor(), 0)); err != nil {
			return amd64.Memory{}, err
		}
		return amd64.MemIndex(base, s, 1, 0), nil
	default:
		if err = b.a.LeaQ(s, amd64.MemIndex(base, s, 1, 0)); err != nil {
			return amd64.Memory{}, err
		}
		return amd64.Mem(s, 0), nil
	}
}

// operand converts a register or memory operand of the shape.
func (b *amd64Backend) operand(s api.Shape, o api.Operand) (amd64.Operand, error) {
	switch v := o.(type) {
	case api.Register:
		return amd64.RegOperand(amd64.Register(v.Index)), nil
	case api.Memory:
		m, err := b.mem(v, int64(s.Width.Bytes()))
		return amd64.MemOperand(m), err
	}
	panic("BUG: operand kind is checked by the signature")
}

// load returns the register of src, loading it into into when src is in memory.
func (b *amd64Backend) load(l amd64.Length, into amd64.Register, src amd64.Operand) (amd64.Register, error) {
	if !src.IsMemory() {
		return src.Register(), nil
	}
	return into, b.a.EncodeVEX(amd64.VMOVUPS, l, into, 0, src)
}

// region returns the scratch memory m as seen after pushed bytes were pushed on the stack.
func (b *amd64Backend) region(m api.Memory, pushed int32) amd64.Memory {
	base := amd64.Register(m.Base.Index)
	disp := int32(m.Disp)
	if base == amd64.RSP {
		disp += pushed
	}
	return amd64.Mem(base, disp)
}

func (b *amd64Backend) scratch(i int, pushed int32) amd64.Memory {
	return b.region(b.cfg.Scratch.Regions[i], pushed)
}

func (b *amd64Backend) constant(c Constant, e api.Elem) amd64.Operand {
	return amd64.MemOperand(b.region(b.cfg.Scratch.Constants.Offset(constantOffset(c, e)), 0))
}

// bitwiseIns returns the instruction of a bitwise operation. Bits are bits: 256-bit
// integers without AVX2 use the float forms.
func (b *amd64Backend) bitwiseIns(set vexSet, s api.Shape) amd64.Instruction {
	if b.paired(s) {
		return set.of(api.Float32)
	}
	return set.of(s.Elem)
}

func (b *amd64Backend) move(s api.Shape, ops []api.Operand) error {
	l := length(s)
	if m, ok := ops[0].(api.Memory); ok {
		mm, err := b.mem(m, int64(s.Width.Bytes()))
		if err != nil {
			return err
		}
		return b.a.EncodeVEX(amd64.VMOVUPSstore, l, xreg(ops[1]), 0, amd64.MemOperand(mm))
	}
	src, err := b.operand(s, ops[1])
	if err != nil {
		return err
	}
	return b.a.EncodeVEX(amd64.VMOVUPS, l, xreg(ops[0]), 0, src)
}

func (b *amd64Backend) moveMasked(s api.Shape, ops []api.Operand) error {
	l := length(s)
	src := xreg(ops[1])
	mask := amd64.Register(b.cfg.Layout.Mask)
	if m, ok := ops[0].(api.Memory); ok {
		mm, err := b.mem(m, int64(s.Width.Bytes()))
		if err != nil {
			return err
		}
		return b.a.EncodeVEX(vexMaskStore.of(s.Elem), l, src, mask, amd64.MemOperand(mm))
	}
	d := xreg(ops[0])
	return b.a.EncodeVEXImm(vexBlend.of(s.Elem), l, d, d, amd64.RegOperand(src), byte(mask)<<4)
}

func (b *amd64Backend) bitwise(set vexSet) emitFunc {
	return func(s api.Shape, ops []api.Operand) error {
		src, err := b.operand(s, ops[2])
		if err != nil {
			return err
		}
		return b.a.EncodeVEX(b.bitwiseIns(set, s), length(s), xreg(ops[0]), xreg(ops[1]), src)
	}
}

func (b *amd64Backend) orNot(s api.Shape, ops []api.Operand) error {
	l := length(s)
	src, err := b.operand(s, ops[2])
	if err != nil {
		return err
	}
	if err = b.a.EncodeVEX(b.bitwiseIns(vexXor, s), l, b.t1, xreg(ops[1]), b.constant(ConstOnes, s.Elem)); err != nil {
		return err
	}
	return b.a.EncodeVEX(b.bitwiseIns(vexOr, s), l, xreg(ops[0]), b.t1, src)
}

func (b *amd64Backend) not(s api.Shape, ops []api.Operand) error {
	l := length(s)
	d := xreg(ops[0])
	src, err := b.operand(s, ops[1])
	if err != nil {
		return err
	}
	a, err := b.load(l, d, src)
	if err != nil {
		return err
	}
	return b.a.EncodeVEX(b.bitwiseIns(vexXor, s), l, d, a, b.constant(ConstOnes, s.Elem))
}

// withConstant returns the unary float operation d = src op constant.
func (b *amd64Backend) withConstant(set vexSet, c Constant) emitFunc {
	return func(s api.Shape, ops []api.Operand) error {
		l := length(s)
		d := xreg(ops[0])
		src, err := b.operand(s, ops[1])
		if err != nil {
			return err
		}
		a, err := b.load(l, d, src)
		if err != nil {
			return err
		}
		return b.a.EncodeVEX(set.of(s.Elem), l, d, a, b.constant(c, s.Elem))
	}
}

// binary returns the lowering of d = a op src, pairing 256-bit integers without AVX2.
func (b *amd64Backend) binary(core binaryCore) emitFunc {
	return func(s api.Shape, ops []api.Operand) error {
		d, a := xreg(ops[0]), xreg(ops[1])
		src, err := b.operand(s, ops[2])
		if err != nil {
			return err
		}
		if b.paired(s) {
			return b.pairBinary(core, s.Elem, d, a, src)
		}
		return core(s.Elem, length(s), d, a, src, b.t1)
	}
}

// unary returns the lowering of d = op src, pairing 256-bit integers without AVX2.
func (b *amd64Backend) unary(core unaryCore) emitFunc {
	return func(s api.Shape, ops []api.Operand) error {
		src, err := b.operand(s, ops[1])
		if err != nil {
			return err
		}
		return b.applyUnary(core, s, xreg(ops[0]), src)
	}
}

// whole is unary without pairing, for integer sources read by AVX float instructions.
func (b *amd64Backend) whole(core unaryCore) emitFunc {
	return func(s api.Shape, ops []api.Operand) error {
		src, err := b.operand(s, ops[1])
		if err != nil {
			return err
		}
		return core(s.Elem, length(s), xreg(ops[0]), src, b.t1)
	}
}

func (b *amd64Backend) applyUnary(core unaryCore, s api.Shape, d amd64.Register, src amd64.Operand) error {
	if b.paired(s) {
		return b.pairUnary(core, s.Elem, d, src)
	}
	return core(s.Elem, length(s), d, src, b.t1)
}

func (b *amd64Backend) simple(set vexSet) binaryCore {
	return func(e api.Elem, l amd64.Length, d, a amd64.Register, src amd64.Operand, _ amd64.Register) error {
		return b.a.EncodeVEX(set.of(e), l, d, a, src)
	}
}

func (b *amd64Backend) simpleUnary(set vexSet) unaryCore {
	return func(e api.Elem, l amd64.Length, d amd64.Register, src amd64.Operand, _ amd64.Register) error {
		return b.a.EncodeVEX(set.of(e), l, d, 0, src)
	}
}

// mulThen returns d = d op (a*src) with a separate multiply.
func (b *amd64Backend) mulThen(set vexSet) binaryCore {
	return func(e api.Elem, l amd64.Length, d, a amd64.Register, src amd64.Operand, tmp amd64.Register) error {
		if err := b.a.EncodeVEX(vexMul.of(e), l, tmp, a, src); err != nil {
			return err
		}
		return b.a.EncodeVEX(set.of(e), l, d, d, amd64.RegOperand(tmp))
	}
}

// minMax64 selects with a signed compare, vpminsq and vpmaxsq needing AVX-512.
func (b *amd64Backend) minMax64(max bool) binaryCore {
	return func(e api.Elem, l amd64.Length, d, a amd64.Register, src amd64.Operand, tmp amd64.Register) error {
		if err := b.a.EncodeVEX(amd64.VPCMPGTQ, l, tmp, a, src); err != nil {
			return err
		}
		if max {
			if err := b.a.EncodeVEX(amd64.VPXOR, l, tmp, tmp, b.constant(ConstOnes, e)); err != nil {
				return err
			}
		}
		return b.a.EncodeVEXImm(amd64.VBLENDVPD, l, d, a, src, byte(tmp)<<4)
	}
}

func (b *amd64Backend) negInt(e api.Elem, l amd64.Length, d amd64.Register, src amd64.Operand, tmp amd64.Register) error {
	if err := b.a.EncodeVEX(amd64.VPXOR, l, tmp, tmp, amd64.RegOperand(tmp)); err != nil {
		return err
	}
	return b.a.EncodeVEX(vexSub.of(e), l, d, tmp, src)
}

// abs64 selects the negation in the lanes whose sign bit is set.
func (b *amd64Backend) abs64(e api.Elem, l amd64.Length, d amd64.Register, src amd64.Operand, tmp amd64.Register) error {
	a, err := b.load(l, d, src)
	if err != nil {
		return err
	}
	if err = b.negInt(e, l, tmp, amd64.RegOperand(a), tmp); err != nil {
		return err
	}
	return b.a.EncodeVEXImm(amd64.VBLENDVPD, l, d, a, amd64.RegOperand(tmp), byte(a)<<4)
}

func (b *amd64Backend) cmpFloat(pred byte) binaryCore {
	return func(e api.Elem, l amd64.Length, d, a amd64.Register, src amd64.Operand, _ amd64.Register) error {
		return b.a.EncodeVEXImm(vexCmp.of(e), l, d, a, src, pred)
	}
}

// cmpInt derives the integer compares from equal and greater than, by swapping sources
// and negating.
func (b *amd64Backend) cmpInt(op api.Op) binaryCore {
	return func(e api.Elem, l amd64.Length, d, a amd64.Register, src amd64.Operand, tmp amd64.Register) error {
		var err error
		switch op {
		case api.CmpEQ, api.CmpNE:
			err = b.a.EncodeVEX(vexCmpEQ.of(e), l, d, a, src)
		case api.CmpGT, api.CmpLE:
			err = b.a.EncodeVEX(vexCmpGT.of(e), l, d, a, src)
		case api.CmpLT, api.CmpGE:
			var r amd64.Register
			if r, err = b.load(l, tmp, src); err == nil {
				err = b.a.EncodeVEX(vexCmpGT.of(e), l, d, r, amd64.RegOperand(a))
			}
		}
		if err != nil {
			return err
		}
		switch op {
		case api.CmpNE, api.CmpLE, api.CmpGE:
			return b.a.EncodeVEX(amd64.VPXOR, l, d, d, b.constant(ConstOnes, e))
		}
		return nil
	}
}

func (b *amd64Backend) cvtToInt(op api.Op) unaryCore {
	return func(e api.Elem, l amd64.Length, d amd64.Register, src amd64.Operand, _ amd64.Register) error {
		switch op {
		case api.Cvt:
			return b.a.EncodeVEX(vexCvtToInt.of(e), l, d, 0, src)
		case api.CvtZ:
			return b.a.EncodeVEX(vexCvtToIntTrunc.of(e), l, d, 0, src)
		}
		if err := b.a.EncodeVEXImm(vexRound.of(e), l, d, 0, src, roundControls[op]); err != nil {
			return err
		}
		return b.a.EncodeVEX(vexCvtToIntTrunc.of(e), l, d, 0, amd64.RegOperand(d))
	}
}

func (b *amd64Backend) round(control byte) unaryCore {
	return func(e api.Elem, l amd64.Length, d amd64.Register, src amd64.Operand, _ amd64.Register) error {
		return b.a.EncodeVEXImm(vexRound.of(e), l, d, 0, src, control)
	}
}

// shiftImm shifts by the immediate count truncated to the lane width.
func (b *amd64Backend) shiftImm(set vexSet) emitFunc {
	return func(s api.Shape, ops []api.Operand) error {
		count := ops[2].(api.Immediate).ShiftCount(s.Elem.Bits())
		src, err := b.operand(s, ops[1])
		if err != nil {
			return err
		}
		core := func(e api.Elem, l amd64.Length, d amd64.Register, src amd64.Operand, _ amd64.Register) error {
			r, err := b.load(l, d, src)
			if err != nil {
				return err
			}
			// The destination is in VEX.vvvv, ModRM.reg holds the opcode extension.
			return b.a.EncodeVEXImm(set.of(e), l, 0, d, amd64.RegOperand(r), count)
		}
		return b.applyUnary(core, s, xreg(ops[0]), src)
	}
}
