package simd

import (
	"github.com/tetratelabs/unisimd/api"
	"github.com/tetratelabs/unisimd/internal/asm/amd64"
)

// x87 control word with every exception masked, extended precision and round to nearest.
const x87ControlWord = 0x37f

// pairBinary applies core to each 128-bit half of 256-bit operands. Sources go through the
// scratch regions so that the destination can be written by the second half.
func (b *amd64Backend) pairBinary(core binaryCore, e api.Elem, d, a amd64.Register, src amd64.Operand) error {
	am := b.scratch(0, 0)
	if err := b.a.EncodeVEX(amd64.VMOVUPSstore, amd64.L256, a, 0, amd64.MemOperand(am)); err != nil {
		return err
	}
	bm, err := b.spill(1, src)
	if err != nil {
		return err
	}
	halves := [2][2]amd64.Register{{b.t0, b.t1}, {b.t1, d}}
	for h, rt := range halves {
		res, tmp := rt[0], rt[1]
		off := int32(16 * h)
		if err = b.a.EncodeVEX(amd64.VMOVUPS, amd64.L128, res, 0, amd64.MemOperand(am.Offset(off))); err != nil {
			return err
		}
		if err = core(e, amd64.L128, res, res, amd64.MemOperand(bm.Offset(off)), tmp); err != nil {
			return err
		}
	}
	return b.join(d)
}

// pairUnary is pairBinary for a single source.
func (b *amd64Backend) pairUnary(core unaryCore, e api.Elem, d amd64.Register, src amd64.Operand) error {
	sm, err := b.spill(0, src)
	if err != nil {
		return err
	}
	halves := [2][2]amd64.Register{{b.t0, b.t1}, {b.t1, d}}
	for h, rt := range halves {
		if err = core(e, amd64.L128, rt[0], amd64.MemOperand(sm.Offset(int32(16*h))), rt[1]); err != nil {
			return err
		}
	}
	return b.join(d)
}

// spill returns the memory of src, storing it to the scratch region i first when it is a
// register.
func (b *amd64Backend) spill(i int, src amd64.Operand) (amd64.Memory, error) {
	if m, ok := src.Memory(); ok {
		return m, nil
	}
	m := b.scratch(i, 0)
	return m, b.a.EncodeVEX(amd64.VMOVUPSstore, amd64.L256, src.Register(), 0, amd64.MemOperand(m))
}

// join writes d = t1:t0.
func (b *amd64Backend) join(d amd64.Register) error {
	return b.a.EncodeVEXImm(amd64.VINSERTF128, amd64.L256, d, b.t0, amd64.RegOperand(b.t1), 1)
}

// laneFunc writes the computation of lane i, whose sources are at a and bm. The result
// replaces the first source.
type laneFunc func(s api.Shape, i int, a, bm amd64.Memory) error

// roundTrip computes the lanes one at a time through the scratch regions, preserving the
// general purpose registers in saved with the stack.
func (b *amd64Backend) roundTrip(s api.Shape, d amd64.Register, srcs []amd64.Operand, saved []amd64.Register, lane laneFunc) error {
	l := length(s)
	for i, src := range srcs {
		r, err := b.load(l, b.t1, src)
		if err != nil {
			return err
		}
		if err = b.a.EncodeVEX(amd64.VMOVUPSstore, l, r, 0, amd64.MemOperand(b.scratch(i, 0))); err != nil {
			return err
		}
	}
	for _, r := range saved {
		b.a.PushQ(r)
	}
	pushed := int32(8 * len(saved))
	size := int32(s.Elem.Bits() / 8)
	for i := 0; i < s.Lanes(); i++ {
		off := int32(i) * size
		if err := lane(s, i, b.scratch(0, pushed).Offset(off), b.scratch(1, pushed).Offset(off)); err != nil {
			return err
		}
	}
	for i := len(saved) - 1; i >= 0; i-- {
		b.a.PopQ(saved[i])
	}
	return b.a.EncodeVEX(amd64.VMOVUPS, l, d, 0, amd64.MemOperand(b.scratch(0, 0)))
}

// lanes returns the lowering of an operation computed lane by lane on all its sources.
func (b *amd64Backend) lanes(saved []amd64.Register, lane laneFunc) emitFunc {
	return func(s api.Shape, ops []api.Operand) error {
		srcs := make([]amd64.Operand, 0, 2)
		for _, o := range ops[1:] {
			src, err := b.operand(s, o)
			if err != nil {
				return err
			}
			srcs = append(srcs, src)
		}
		return b.roundTrip(s, xreg(ops[0]), srcs, saved, lane)
	}
}

// floatLanes is lanes for unary float operations, which need no general purpose register.
func (b *amd64Backend) floatLanes(lane laneFunc) emitFunc {
	return b.lanes(nil, lane)
}

func (b *amd64Backend) mulScalar(s api.Shape, ops []api.Operand) error {
	return b.lanes([]amd64.Register{amd64.RAX}, func(s api.Shape, _ int, a, bm amd64.Memory) error {
		if err := b.a.MovLoad(true, amd64.RAX, a); err != nil {
			return err
		}
		if err := b.a.IMulLoad(true, amd64.RAX, bm); err != nil {
			return err
		}
		return b.a.MovStore(true, a, amd64.RAX)
	})(s, ops)
}

func (b *amd64Backend) divIntScalar(s api.Shape, ops []api.Operand) error {
	return b.lanes([]amd64.Register{amd64.RAX, amd64.RDX}, func(s api.Shape, _ int, a, bm amd64.Memory) error {
		q := s.Elem == api.Int64
		if err := b.a.MovLoad(q, amd64.RAX, a); err != nil {
			return err
		}
		if q {
			b.a.Cqo()
		} else {
			b.a.Cdq()
		}
		if err := b.a.IDiv(q, bm); err != nil {
			return err
		}
		return b.a.MovStore(q, a, amd64.RAX)
	})(s, ops)
}

func (b *amd64Backend) divScalar(s api.Shape, ops []api.Operand) error {
	return b.floatLanes(func(s api.Shape, _ int, a, bm amd64.Memory) error {
		e := s.Elem
		if err := b.a.EncodeVEX(vexMovScalar.of(e), amd64.L128, b.t0, 0, amd64.MemOperand(a)); err != nil {
			return err
		}
		if err := b.a.EncodeVEX(vexDivScalar.of(e), amd64.L128, b.t0, b.t0, amd64.MemOperand(bm)); err != nil {
			return err
		}
		return b.a.EncodeVEX(vexStoreScalar.of(e), amd64.L128, b.t0, 0, amd64.MemOperand(a))
	})(s, ops)
}

func (b *amd64Backend) sqrtLane(s api.Shape, _ int, a, _ amd64.Memory) error {
	e := s.Elem
	if err := b.a.EncodeVEX(vexSqrtScalar.of(e), amd64.L128, b.t0, b.t0, amd64.MemOperand(a)); err != nil {
		return err
	}
	return b.a.EncodeVEX(vexStoreScalar.of(e), amd64.L128, b.t0, 0, amd64.MemOperand(a))
}

func (b *amd64Backend) rcpLane(s api.Shape, _ int, a, _ amd64.Memory) error {
	e := s.Elem
	if err := b.a.EncodeVEX(vexMovScalar.of(e), amd64.L128, b.t0, 0, b.constant(ConstOne, e)); err != nil {
		return err
	}
	if err := b.a.EncodeVEX(vexDivScalar.of(e), amd64.L128, b.t0, b.t0, amd64.MemOperand(a)); err != nil {
		return err
	}
	return b.a.EncodeVEX(vexStoreScalar.of(e), amd64.L128, b.t0, 0, amd64.MemOperand(a))
}

func (b *amd64Backend) rsqrtLane(s api.Shape, _ int, a, _ amd64.Memory) error {
	e := s.Elem
	if err := b.a.EncodeVEX(vexSqrtScalar.of(e), amd64.L128, b.t0, b.t0, amd64.MemOperand(a)); err != nil {
		return err
	}
	if err := b.a.EncodeVEX(vexMovScalar.of(e), amd64.L128, b.t1, 0, b.constant(ConstOne, e)); err != nil {
		return err
	}
	if err := b.a.EncodeVEX(vexDivScalar.of(e), amd64.L128, b.t1, b.t1, amd64.RegOperand(b.t0)); err != nil {
		return err
	}
	return b.a.EncodeVEX(vexStoreScalar.of(e), amd64.L128, b.t1, 0, amd64.MemOperand(a))
}

// cvtToInt64Scalar converts double lanes with the scalar conversions, AVX-512 being the
// first extension with a packed one. Directed modes round into t0 first.
func (b *amd64Backend) cvtToInt64Scalar(op api.Op) emitFunc {
	ins := amd64.VCVTTSD2SI
	if op == api.Cvt {
		ins = amd64.VCVTSD2SI
	}
	lane := func(s api.Shape, _ int, a, _ amd64.Memory) error {
		if err := b.a.EncodeVEX(ins, amd64.L128, amd64.RAX, 0, amd64.MemOperand(a)); err != nil {
			return err
		}
		return b.a.MovStore(true, a, amd64.RAX)
	}
	return func(s api.Shape, ops []api.Operand) error {
		src, err := b.operand(s, ops[1])
		if err != nil {
			return err
		}
		switch op {
		case api.CvtP, api.CvtM, api.CvtN:
			if err = b.a.EncodeVEXImm(amd64.VROUNDPD, length(s), b.t0, 0, src, roundControls[op]); err != nil {
				return err
			}
			src = amd64.RegOperand(b.t0)
		}
		return b.roundTrip(s, xreg(ops[0]), []amd64.Operand{src}, []amd64.Register{amd64.RAX}, lane)
	}
}

func (b *amd64Backend) cvtToFloat64Scalar(s api.Shape, ops []api.Operand) error {
	return b.floatLanes(func(s api.Shape, _ int, a, _ amd64.Memory) error {
		if err := b.a.EncodeVEX(amd64.VCVTSI2SD, amd64.L128, b.t1, b.t1, amd64.MemOperand(a)); err != nil {
			return err
		}
		return b.a.EncodeVEX(amd64.VMOVSDstore, amd64.L128, b.t1, 0, amd64.MemOperand(a))
	})(s, ops)
}

func (b *amd64Backend) sarImm64Scalar(s api.Shape, ops []api.Operand) error {
	count := ops[2].(api.Immediate).ShiftCount(64)
	lane := func(s api.Shape, _ int, a, _ amd64.Memory) error {
		if err := b.a.MovLoad(true, amd64.RAX, a); err != nil {
			return err
		}
		b.a.ShiftImm(amd64.ShiftRightArithmetic, true, amd64.RAX, count)
		return b.a.MovStore(true, a, amd64.RAX)
	}
	return b.lanes([]amd64.Register{amd64.RAX}, lane)(s, ops[:2])
}

// shiftVarScalar shifts each lane by the count in the same lane. Counts are masked by the
// shift instruction to the lane width.
func (b *amd64Backend) shiftVarScalar(kind amd64.ShiftKind) emitFunc {
	return b.lanes([]amd64.Register{amd64.RAX, amd64.RCX}, func(s api.Shape, _ int, a, bm amd64.Memory) error {
		q := s.Elem == api.Int64
		if err := b.a.MovLoad(q, amd64.RCX, bm); err != nil {
			return err
		}
		if err := b.a.MovLoad(q, amd64.RAX, a); err != nil {
			return err
		}
		b.a.ShiftCL(kind, q, amd64.RAX)
		return b.a.MovStore(q, a, amd64.RAX)
	})
}

// estimate writes the reciprocal (square root) estimate of src into d and returns the number
// of correct bits. tmp may be clobbered.
func (b *amd64Backend) estimate(e api.Elem, l amd64.Length, d amd64.Register, src amd64.Operand, tmp amd64.Register, rsqrt bool) (int, error) {
	switch {
	case b.has(api.FeatureAVX512):
		set := vexRcp14
		if rsqrt {
			set = vexRsqrt14
		}
		return 14, b.a.EncodeVEX(set.of(e), l, d, 0, src)
	case e == api.Float32:
		set := vexRcpEstimate
		if rsqrt {
			set = vexRsqrtEstimate
		}
		return 12, b.a.EncodeVEX(set.of(e), l, d, 0, src)
	}
	// Doubles are estimated in single precision.
	ins := amd64.VRCPPS
	if rsqrt {
		ins = amd64.VRSQRTPS
	}
	if err := b.a.EncodeVEX(amd64.VCVTPD2PS, l, tmp, 0, src); err != nil {
		return 0, err
	}
	if err := b.a.EncodeVEX(ins, amd64.L128, tmp, 0, amd64.RegOperand(tmp)); err != nil {
		return 0, err
	}
	return 12, b.a.EncodeVEX(amd64.VCVTPS2PD, l, d, 0, amd64.RegOperand(tmp))
}

func (b *amd64Backend) rcpRecipe() Recipe {
	if b.has(api.FeatureFMA) {
		return RecipeRcpFMA
	}
	return RecipeRcp
}

// step writes one Newton-Raphson step of r refining y for the input x, using t as the
// temporary.
func (b *amd64Backend) step(r Recipe, e api.Elem, l amd64.Length, x amd64.Operand, y, t amd64.Register) error {
	val := func(v Value) amd64.Operand {
		switch v {
		case ValX:
			return x
		case ValY:
			return amd64.RegOperand(y)
		case ValT:
			return amd64.RegOperand(t)
		}
		c, _ := v.constant()
		return b.constant(c, e)
	}
	for _, st := range r.Steps {
		dst, a := val(st.Dst).Register(), val(st.A)
		var err error
		switch st.Op {
		case StepMul:
			err = b.a.EncodeVEX(vexMul.of(e), l, dst, a.Register(), val(st.B))
		case StepSub:
			err = b.a.EncodeVEX(vexSub.of(e), l, dst, a.Register(), val(st.B))
		case StepNeg:
			err = b.a.EncodeVEX(vexXor.of(e), l, dst, a.Register(), b.constant(ConstSign, e))
		case StepLoad:
			err = b.a.EncodeVEX(amd64.VMOVUPS, l, dst, 0, a)
		case StepMulAdd:
			err = b.a.EncodeVEX(vexFMA.of(e), l, dst, a.Register(), val(st.B))
		case StepNegMulAdd:
			err = b.a.EncodeVEX(vexFNMA.of(e), l, dst, a.Register(), val(st.B))
		}
		if err != nil {
			return err
		}
	}
	return nil
}

// refine writes the estimate of src into t1, refined to the precision of e.
func (b *amd64Backend) refine(e api.Elem, l amd64.Length, src amd64.Operand, rsqrt bool) error {
	bits, err := b.estimate(e, l, b.t1, src, b.t0, rsqrt)
	if err != nil {
		return err
	}
	r := b.rcpRecipe()
	if rsqrt {
		r = RecipeRsqrt
	}
	for i := Iterations(bits, e); i > 0; i-- {
		if err = b.step(r, e, l, src, b.t1, b.t0); err != nil {
			return err
		}
	}
	return nil
}

func (b *amd64Backend) estimateOp(rsqrt bool) emitFunc {
	return func(s api.Shape, ops []api.Operand) error {
		src, err := b.operand(s, ops[1])
		if err != nil {
			return err
		}
		_, err = b.estimate(s.Elem, length(s), xreg(ops[0]), src, b.t1, rsqrt)
		return err
	}
}

func (b *amd64Backend) refineOp(r Recipe) emitFunc {
	return func(s api.Shape, ops []api.Operand) error {
		src, err := b.operand(s, ops[1])
		if err != nil {
			return err
		}
		return b.step(r, s.Elem, length(s), src, xreg(ops[0]), b.t1)
	}
}

// refined returns the full-precision reciprocal (square root) from the refined estimate.
func (b *amd64Backend) refined(rsqrt bool) emitFunc {
	return func(s api.Shape, ops []api.Operand) error {
		l := length(s)
		src, err := b.operand(s, ops[1])
		if err != nil {
			return err
		}
		if err = b.refine(s.Elem, l, src, rsqrt); err != nil {
			return err
		}
		return b.a.EncodeVEX(amd64.VMOVUPS, l, xreg(ops[0]), 0, amd64.RegOperand(b.t1))
	}
}

func (b *amd64Backend) divFallback(s api.Shape, ops []api.Operand) error {
	l := length(s)
	src, err := b.operand(s, ops[2])
	if err != nil {
		return err
	}
	if err = b.refine(s.Elem, l, src, false); err != nil {
		return err
	}
	return b.a.EncodeVEX(vexMul.of(s.Elem), l, xreg(ops[0]), xreg(ops[1]), amd64.RegOperand(b.t1))
}

func (b *amd64Backend) sqrtFallback(s api.Shape, ops []api.Operand) error {
	l := length(s)
	src, err := b.operand(s, ops[1])
	if err != nil {
		return err
	}
	if err = b.refine(s.Elem, l, src, true); err != nil {
		return err
	}
	return b.a.EncodeVEX(vexMul.of(s.Elem), l, xreg(ops[0]), b.t1, src)
}

func (b *amd64Backend) rcpFallback(s api.Shape, ops []api.Operand) error {
	l := length(s)
	src, err := b.operand(s, ops[1])
	if err != nil {
		return err
	}
	if err = b.a.EncodeVEX(amd64.VMOVUPS, l, b.t0, 0, b.constant(ConstOne, s.Elem)); err != nil {
		return err
	}
	return b.a.EncodeVEX(vexDiv.of(s.Elem), l, xreg(ops[0]), b.t0, src)
}

func (b *amd64Backend) rsqrtFallback(s api.Shape, ops []api.Operand) error {
	l := length(s)
	src, err := b.operand(s, ops[1])
	if err != nil {
		return err
	}
	if err = b.a.EncodeVEX(vexSqrt.of(s.Elem), l, b.t0, 0, src); err != nil {
		return err
	}
	if err = b.a.EncodeVEX(amd64.VMOVUPS, l, b.t1, 0, b.constant(ConstOne, s.Elem)); err != nil {
		return err
	}
	return b.a.EncodeVEX(vexDiv.of(s.Elem), l, xreg(ops[0]), b.t1, amd64.RegOperand(b.t0))
}

type x87Ops struct {
	load, mul, acc, store amd64.X87Op
}

func x87For(e api.Elem, sub bool) x87Ops {
	if e == api.Float32 {
		ret := x87Ops{load: amd64.FLDF32, mul: amd64.FMULF32, acc: amd64.FADDF32, store: amd64.FSTPF32}
		if sub {
			ret.acc = amd64.FSUBRF32
		}
		return ret
	}
	ret := x87Ops{load: amd64.FLDF64, mul: amd64.FMULF64, acc: amd64.FADDF64, store: amd64.FSTPF64}
	if sub {
		ret.acc = amd64.FSUBRF64
	}
	return ret
}

// fmaX87 keeps every product on the x87 stack in extended precision before accumulating it
// into the destination lanes. The x87 control word is saved and restored around it.
func (b *amd64Backend) fmaX87(sub bool) emitFunc {
	return func(s api.Shape, ops []api.Operand) error {
		l := length(s)
		d := xreg(ops[0])
		src, err := b.operand(s, ops[2])
		if err != nil {
			return err
		}
		am := b.scratch(0, 0)
		if err = b.a.EncodeVEX(amd64.VMOVUPSstore, l, xreg(ops[1]), 0, amd64.MemOperand(am)); err != nil {
			return err
		}
		r, err := b.load(l, b.t1, src)
		if err != nil {
			return err
		}
		if err = b.a.EncodeVEX(amd64.VMOVUPSstore, l, r, 0, amd64.MemOperand(b.scratch(1, 0))); err != nil {
			return err
		}

		b.a.PushQ(amd64.RAX)
		b.a.SubQImm8(amd64.RSP, 8)
		const pushed = 16
		if err = b.a.X87(amd64.FNSTCW, amd64.Mem(amd64.RSP, 0)); err != nil {
			return err
		}
		if err = b.controlWord(amd64.Mem(amd64.RSP, 2)); err != nil {
			return err
		}
		if err = b.a.X87(amd64.FLDCW, amd64.Mem(amd64.RSP, 2)); err != nil {
			return err
		}

		x := x87For(s.Elem, sub)
		size := int32(s.Elem.Bits() / 8)
		lanes := s.Lanes()
		a, bm := b.scratch(0, pushed), b.scratch(1, pushed)
		for i := 0; i < lanes; i++ {
			off := int32(i) * size
			if err = b.a.X87(x.load, a.Offset(off)); err != nil {
				return err
			}
			if err = b.a.X87(x.mul, bm.Offset(off)); err != nil {
				return err
			}
		}
		if err = b.a.EncodeVEX(amd64.VMOVUPSstore, l, d, 0, amd64.MemOperand(a)); err != nil {
			return err
		}
		// The product of the last lane is on the top of the stack.
		for i := lanes - 1; i >= 0; i-- {
			off := int32(i) * size
			if err = b.a.X87(x.acc, a.Offset(off)); err != nil {
				return err
			}
			if err = b.a.X87(x.store, a.Offset(off)); err != nil {
				return err
			}
		}

		if err = b.a.X87(amd64.FLDCW, amd64.Mem(amd64.RSP, 0)); err != nil {
			return err
		}
		b.a.AddQImm8(amd64.RSP, 8)
		b.a.PopQ(amd64.RAX)
		return b.a.EncodeVEX(amd64.VMOVUPS, l, d, 0, amd64.MemOperand(am))
	}
}

// controlWord writes the x87 control word to install at m. With FMRHonorCurrent, the
// rounding mode is taken from MXCSR.RC.
func (b *amd64Backend) controlWord(m amd64.Memory) error {
	if b.cfg.Compat.FMR != api.FMRHonorCurrent {
		return b.a.MovWImm(m, x87ControlWord)
	}
	mxcsr := amd64.Mem(amd64.RSP, 4)
	if err := b.a.EncodeVEX(amd64.VSTMXCSR, amd64.L128, 0, 0, amd64.MemOperand(mxcsr)); err != nil {
		return err
	}
	if err := b.a.MovLoad(false, amd64.RAX, mxcsr); err != nil {
		return err
	}
	// MXCSR.RC is bits 13-14, x87 RC bits 10-11.
	b.a.ShiftImm(amd64.ShiftRightLogical, false, amd64.RAX, 3)
	b.a.AndLImm(amd64.RAX, 0xc00)
	b.a.OrLImm(amd64.RAX, x87ControlWord)
	return b.a.MovWStore(m, amd64.RAX)
}

// vectorSlots returns the registers of the register file in slot order.
func (b *amd64Backend) vectorSlots() []amd64.Register {
	l := &b.cfg.Layout
	ret := make([]amd64.Register, 0, l.Slots())
	for k := 0; k < int(l.Vectors); k++ {
		ret = append(ret, amd64.Register(k))
	}
	for _, h := range l.Hidden {
		ret = append(ret, amd64.Register(h))
	}
	return ret
}

func (b *amd64Backend) saveAll(m api.Memory) error {
	return b.registerFile(m, amd64.VMOVUPSstore)
}

func (b *amd64Backend) loadAll(m api.Memory) error {
	return b.registerFile(m, amd64.VMOVUPS)
}

func (b *amd64Backend) registerFile(m api.Memory, ins amd64.Instruction) error {
	slots := b.vectorSlots()
	span := int64(len(slots)) * b.cfg.Layout.SlotSize
	base, err := b.mem(m, span)
	if err != nil {
		return err
	}
	for k, r := range slots {
		slot := base.Offset(int32(int64(k) * b.cfg.Layout.SlotSize))
		if err = b.a.EncodeVEX(ins, amd64.L256, r, 0, amd64.MemOperand(slot)); err != nil {
			return err
		}
	}
	return nil
}
