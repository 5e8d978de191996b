package simd

import (
	"fmt"
	"math"
	"math/bits"

	"github.com/tetratelabs/unisimd/api"
	"github.com/tetratelabs/unisimd/internal/asm/ppc64"
)

// insSet holds the instruction of an operation per element kind: f32, f64, i32, i64.
type insSet [4]ppc64.Instruction

func (v insSet) of(e api.Elem) ppc64.Instruction {
	return v[e-1]
}

var (
	ppcAnd    = insSet{ppc64.VAND, ppc64.VAND, ppc64.VAND, ppc64.VAND}
	ppcAndC   = insSet{ppc64.VANDC, ppc64.VANDC, ppc64.VANDC, ppc64.VANDC}
	ppcOr     = insSet{ppc64.VOR, ppc64.VOR, ppc64.VOR, ppc64.VOR}
	ppcOrC    = insSet{ppc64.VORC, ppc64.VORC, ppc64.VORC, ppc64.VORC}
	ppcXor    = insSet{ppc64.VXOR, ppc64.VXOR, ppc64.VXOR, ppc64.VXOR}
	ppcAdd    = insSet{ppc64.XVADDSP, ppc64.XVADDDP, ppc64.VADDUWM, ppc64.VADDUDM}
	ppcSub    = insSet{ppc64.XVSUBSP, ppc64.XVSUBDP, ppc64.VSUBUWM, ppc64.VSUBUDM}
	ppcMul    = insSet{ppc64.XVMULSP, ppc64.XVMULDP, ppc64.VMULUWM, ppc64.VMULLD}
	ppcDiv    = insSet{ppc64.XVDIVSP, ppc64.XVDIVDP, ppc64.VDIVSW, ppc64.VDIVSD}
	ppcMin    = insSet{ppc64.XVMINSP, ppc64.XVMINDP, ppc64.VMINSW, ppc64.VMINSD}
	ppcMax    = insSet{ppc64.XVMAXSP, ppc64.XVMAXDP, ppc64.VMAXSW, ppc64.VMAXSD}
	ppcMAdd   = insSet{ppc64.XVMADDASP, ppc64.XVMADDADP}
	ppcNMSub  = insSet{ppc64.XVNMSUBASP, ppc64.XVNMSUBADP}
	ppcNeg    = insSet{ppc64.XVNEGSP, ppc64.XVNEGDP}
	ppcAbs    = insSet{ppc64.XVABSSP, ppc64.XVABSDP}
	ppcSqrt   = insSet{ppc64.XVSQRTSP, ppc64.XVSQRTDP}
	ppcRe     = insSet{ppc64.XVRESP, ppc64.XVREDP}
	ppcRsqrte = insSet{ppc64.XVRSQRTESP, ppc64.XVRSQRTEDP}
	ppcCmpEQ  = insSet{ppc64.XVCMPEQSP, ppc64.XVCMPEQDP, ppc64.VCMPEQUW, ppc64.VCMPEQUD}
	ppcCmpGT  = insSet{ppc64.XVCMPGTSP, ppc64.XVCMPGTDP, ppc64.VCMPGTSW, ppc64.VCMPGTSD}
	ppcCmpGE  = insSet{ppc64.XVCMPGESP, ppc64.XVCMPGEDP}
	ppcCvt    = insSet{ppc64.XVCVSPSXWS, ppc64.XVCVDPSXDS, ppc64.XVCVSXWSP, ppc64.XVCVSXDDP}
	ppcShl    = insSet{2: ppc64.VSLW, 3: ppc64.VSLD}
	ppcShr    = insSet{2: ppc64.VSRW, 3: ppc64.VSRD}
	ppcSar    = insSet{2: ppc64.VSRAW, 3: ppc64.VSRAD}
	ppcLoad   = insSet{ppc64.LXVW4X, ppc64.LXVD2X, ppc64.LXVW4X, ppc64.LXVD2X}
	ppcStore  = insSet{ppc64.STXVW4X, ppc64.STXVD2X, ppc64.STXVW4X, ppc64.STXVD2X}
)

// Round to integer instructions per rounding operation, f32 then f64. The current mode
// entries also serve round to nearest under a saved FPSCR.
var ppcRound = map[api.Op]insSet{
	api.RoundZ: {ppc64.XVRSPIZ, ppc64.XVRDPIZ}, api.CvtZ: {ppc64.XVRSPIZ, ppc64.XVRDPIZ},
	api.RoundP: {ppc64.XVRSPIP, ppc64.XVRDPIP}, api.CvtP: {ppc64.XVRSPIP, ppc64.XVRDPIP},
	api.RoundM: {ppc64.XVRSPIM, ppc64.XVRDPIM}, api.CvtM: {ppc64.XVRSPIM, ppc64.XVRDPIM},
	api.RoundN: {ppc64.XVRSPIC, ppc64.XVRDPIC}, api.CvtN: {ppc64.XVRSPIC, ppc64.XVRDPIC},
	api.Round: {ppc64.XVRSPIC, ppc64.XVRDPIC}, api.Cvt: {ppc64.XVRSPIC, ppc64.XVRDPIC},
}

// halfBinary writes d = a op b on one 128-bit half.
type halfBinary func(e api.Elem, d, a, b ppc64.Register) error

// halfUnary writes d = op s on one 128-bit half.
type halfUnary func(e api.Elem, d, s ppc64.Register) error

type ppc64Backend struct {
	a   *ppc64.Assembler
	cfg *Config
	// t0 and t1 are the hidden registers, t2 and vm the high halves of them: t2 holds
	// constants and vm memory sources.
	t0, t1, t2, vm ppc64.Register
	lt, ft         [2]ppc64.Register
}

func newPPC64Backend(e *Encoder) *ppc64Backend {
	l := &e.cfg.Layout
	return &ppc64Backend{
		a:   ppc64.NewAssembler(e.buf, e.cfg.Order),
		cfg: &e.cfg,
		t0:  ppc64.Register(l.Hidden[0]),
		t1:  ppc64.Register(l.Hidden[1]),
		t2:  ppc64.Register(pairOf(l.Hidden[0]).Hi),
		vm:  ppc64.Register(pairOf(l.Hidden[1]).Hi),
		lt:  [2]ppc64.Register{ppc64.Register(l.LaneTemps[0]), ppc64.Register(l.LaneTemps[1])},
		ft:  [2]ppc64.Register{ppc64.Register(l.FPTemps[0]), ppc64.Register(l.FPTemps[1])},
	}
}

func (p *ppc64Backend) has(f api.Feature) bool {
	return p.cfg.Features.Has(f)
}

// halves returns the vector registers holding the logical register n in the shape.
func halves(s api.Shape, n uint8) []ppc64.Register {
	if s.Width == api.Width256 {
		pr := pairOf(n)
		return []ppc64.Register{ppc64.Register(pr.Lo), ppc64.Register(pr.Hi)}
	}
	return []ppc64.Register{ppc64.Register(n)}
}

func vreg(s api.Shape, o api.Operand, h int) ppc64.Register {
	return halves(s, o.(api.Register).Index)[h]
}

// source returns the register holding the half h of o, loading it into into when o is in
// memory.
func (p *ppc64Backend) source(s api.Shape, o api.Operand, h int, into ppc64.Register) (ppc64.Register, error) {
	m, ok := o.(api.Memory)
	if !ok {
		return vreg(s, o, h), nil
	}
	return into, p.vload(s.Elem, into, m.Offset(int64(16*h)))
}

// ea stages the effective address of m and returns the RA and RB operands of an indexed
// access. RA is zero when RB alone is the address.
func (p *ppc64Backend) ea(m api.Memory) (ra, rb ppc64.Register, err error) {
	r, err := selectScratchOrBase(&p.cfg.Layout, m)
	if err != nil {
		return 0, 0, err
	}
	s, base := ppc64.Register(r), ppc64.Register(m.Base.Index)
	switch m.Mode {
	case api.Absolute:
		return 0, s, p.a.LoadConst64(s, m.Disp)
	case api.Indexed:
		index := ppc64.Register(m.Index.Index)
		if shift := bits.TrailingZeros8(m.ScaleFactor()); shift > 0 {
			err = p.a.ShiftLeftImm(s, index, uint8(shift))
		} else {
			err = p.a.MoveReg(s, index)
		}
		if err == nil && m.Disp != 0 {
			err = p.addDisp(s, m.Disp)
		}
		return s, base, err
	default:
		if m.Disp == 0 {
			return 0, base, nil
		}
		return s, base, p.a.LoadConst64(s, m.Disp)
	}
}

// addDisp adds a displacement reachable with addis and addi to r.
func (p *ppc64Backend) addDisp(r ppc64.Register, disp int64) error {
	lo := int64(int16(disp))
	hi := (disp - lo) >> 16
	if hi < math.MinInt16 || hi > math.MaxInt16 {
		return fmt.Errorf("%w: indexed displacement %#x out of range", api.ErrInvalidOperand, disp)
	}
	if hi != 0 {
		if err := p.a.D(ppc64.ADDIS, r, r, int32(hi)); err != nil {
			return err
		}
	}
	if lo != 0 {
		return p.a.D(ppc64.ADDI, r, r, int32(lo))
	}
	return nil
}

func (p *ppc64Backend) vload(e api.Elem, dst ppc64.Register, m api.Memory) error {
	ra, rb, err := p.ea(m)
	if err != nil {
		return err
	}
	return p.a.XX1(ppcLoad.of(e), dst, ra, rb)
}

func (p *ppc64Backend) vstore(e api.Elem, src ppc64.Register, m api.Memory) error {
	ra, rb, err := p.ea(m)
	if err != nil {
		return err
	}
	return p.a.XX1(ppcStore.of(e), src, ra, rb)
}

// loadConstant loads the constant c for the lanes of e into dst.
func (p *ppc64Backend) loadConstant(c Constant, e api.Elem, dst ppc64.Register) error {
	return p.vload(e, dst, p.cfg.Scratch.Constants.Offset(constantOffset(c, e)))
}

// three writes a three register instruction of the VX, VC or XX3 form.
func (p *ppc64Backend) three(ins ppc64.Instruction, d, a, b ppc64.Register) error {
	switch ppc64.InstructionForm(ins) {
	case ppc64.FormVC:
		return p.a.VC(ins, d, a, b)
	case ppc64.FormXX3:
		return p.a.XX3(ins, d, a, b)
	default:
		return p.a.VX(ins, d, a, b)
	}
}

func (p *ppc64Backend) catalogue() catalogue {
	c := catalogue{}
	i32 := shapesOf(intShapes, api.Int32)
	i64 := shapesOf(intShapes, api.Int64)
	power10 := p.has(api.FeaturePower10)

	c.add(api.Move, allShapes, sigMove, p.move)
	c.add(api.MoveMasked, allShapes, sigMoveMasked, p.moveMasked)

	c.add(api.And, allShapes, sigBinary, p.binary(p.plain(ppcAnd)))
	c.add(api.AndNot, allShapes, sigBinary, p.binary(p.swapped(ppcAndC)))
	c.add(api.Or, allShapes, sigBinary, p.binary(p.plain(ppcOr)))
	c.add(api.OrNot, allShapes, sigBinary, p.binary(p.swapped(ppcOrC)))
	c.add(api.Xor, allShapes, sigBinary, p.binary(p.plain(ppcXor)))
	c.add(api.Not, allShapes, sigUnary, p.unary(func(_ api.Elem, d, s ppc64.Register) error {
		return p.a.VX(ppc64.VNOR, d, s, s)
	}))

	for op, set := range map[api.Op]insSet{api.Add: ppcAdd, api.Sub: ppcSub, api.Min: ppcMin, api.Max: ppcMax} {
		c.add(op, allShapes, sigBinary, p.binary(p.plain(set)))
	}
	c.add(api.Mul, floatShapes, sigBinary, p.binary(p.plain(ppcMul)))
	c.add(api.Mul, i32, sigBinary, p.binary(p.plain(ppcMul)))
	if power10 {
		c.add(api.Mul, i64, sigBinary, p.binary(p.plain(ppcMul)))
		c.add(api.Div, intShapes, sigBinary, p.binary(p.plain(ppcDiv)))
	} else {
		c.addTier(api.Mul, i64, sigBinary, api.TierScalar, p.intLanes(ppc64.MULLD))
		c.addTier(api.Div, i32, sigBinary, api.TierScalar, p.intLanes(ppc64.DIVW))
		c.addTier(api.Div, i64, sigBinary, api.TierScalar, p.intLanes(ppc64.DIVD))
	}

	c.add(api.Neg, floatShapes, sigUnary, p.unary(p.xx2(ppcNeg)))
	c.add(api.Abs, floatShapes, sigUnary, p.unary(p.xx2(ppcAbs)))
	c.add(api.Neg, intShapes, sigUnary, p.unary(p.negInt))
	c.add(api.Abs, intShapes, sigUnary, p.unary(p.absInt))

	p.addFloatTiers(c)

	c.add(api.RcpEstimate, floatShapes, sigUnary, p.unary(p.xx2(ppcRe)))
	c.add(api.RsqrtEstimate, floatShapes, sigUnary, p.unary(p.xx2(ppcRsqrte)))
	c.add(api.RcpRefine, floatShapes, sigRefine, p.refineOp(RecipeRcpFused))
	c.add(api.RsqrtRefine, floatShapes, sigRefine, p.refineOp(RecipeRsqrt))

	for _, op := range []api.Op{api.CmpEQ, api.CmpNE, api.CmpLT, api.CmpLE, api.CmpGT, api.CmpGE} {
		c.add(op, floatShapes, sigBinary, p.binary(p.cmpFloat(op)))
		c.add(op, intShapes, sigBinary, p.binary(p.cmpInt(op)))
	}

	for _, op := range []api.Op{api.CvtZ, api.CvtP, api.CvtM, api.CvtN, api.Cvt} {
		c.add(op, floatShapes, sigUnary, p.convert(op))
	}
	c.add(api.CvtToFloat, intShapes, sigUnary, p.unary(p.xx2(ppcCvt)))
	for _, op := range []api.Op{api.RoundZ, api.RoundP, api.RoundM, api.RoundN, api.Round} {
		c.add(op, floatShapes, sigUnary, p.round(op))
	}

	for op, set := range map[api.Op]insSet{api.ShlImm: ppcShl, api.ShrImm: ppcShr, api.SarImm: ppcSar} {
		c.add(op, intShapes, sigShiftImm, p.shiftImm(set))
	}
	for op, set := range map[api.Op]insSet{api.ShlVar: ppcShl, api.ShrVar: ppcShr, api.SarVar: ppcSar} {
		c.add(op, intShapes, sigShiftVar, p.binary(p.plain(set)))
	}
	return c
}

func (p *ppc64Backend) addFloatTiers(c catalogue) {
	compat := p.cfg.Compat
	switch compat.Div {
	case api.TierNative:
		c.add(api.Div, floatShapes, sigBinary, p.binary(p.plain(ppcDiv)))
	case api.TierFallback:
		c.addTier(api.Div, floatShapes, sigBinary, compat.Div, p.binary(p.divFallback))
	case api.TierScalar:
		c.addTier(api.Div, floatShapes, sigBinary, compat.Div, p.floatLanes(ppc64.FDIVS, ppc64.FDIV))
	}

	switch compat.Sqrt {
	case api.TierNative:
		c.add(api.Sqrt, floatShapes, sigUnary, p.unary(p.xx2(ppcSqrt)))
	case api.TierFallback:
		c.addTier(api.Sqrt, floatShapes, sigUnary, compat.Sqrt, p.unary(p.sqrtFallback))
	case api.TierScalar:
		c.addTier(api.Sqrt, floatShapes, sigUnary, compat.Sqrt, p.floatLanes(ppc64.FSQRTS, ppc64.FSQRT))
	}

	switch compat.Rcp {
	case api.TierNative:
		c.add(api.Rcp, floatShapes, sigUnary, p.unary(p.refined(false)))
	case api.TierFallback:
		c.addTier(api.Rcp, floatShapes, sigUnary, compat.Rcp, p.unary(p.rcpFallback))
	case api.TierScalar:
		c.addTier(api.Rcp, floatShapes, sigUnary, compat.Rcp, p.reciprocalLanes(false))
	}

	switch compat.Rsqrt {
	case api.TierNative:
		c.add(api.Rsqrt, floatShapes, sigUnary, p.unary(p.refined(true)))
	case api.TierFallback:
		c.addTier(api.Rsqrt, floatShapes, sigUnary, compat.Rsqrt, p.unary(p.rsqrtFallback))
	case api.TierScalar:
		c.addTier(api.Rsqrt, floatShapes, sigUnary, compat.Rsqrt, p.reciprocalLanes(true))
	}

	// Configurations asking for the scalar FMA tier are rejected on Power.
	switch compat.FMA {
	case api.TierNative:
		c.add(api.FMA, floatShapes, sigAccumulate, p.binary(p.plain(ppcMAdd)))
		c.add(api.FMS, floatShapes, sigAccumulate, p.binary(p.plain(ppcNMSub)))
	case api.TierFallback:
		c.addTier(api.FMA, floatShapes, sigAccumulate, compat.FMA, p.binary(p.mulThen(ppcAdd)))
		c.addTier(api.FMS, floatShapes, sigAccumulate, compat.FMA, p.binary(p.mulThen(ppcSub)))
	}
}

// binary returns the lowering of d = a op src applied to every half.
func (p *ppc64Backend) binary(f halfBinary) emitFunc {
	return func(s api.Shape, ops []api.Operand) error {
		for h, d := range halves(s, ops[0].(api.Register).Index) {
			src, err := p.source(s, ops[2], h, p.vm)
			if err != nil {
				return err
			}
			if err = f(s.Elem, d, vreg(s, ops[1], h), src); err != nil {
				return err
			}
		}
		return nil
	}
}

// unary returns the lowering of d = op src applied to every half.
func (p *ppc64Backend) unary(f halfUnary) emitFunc {
	return func(s api.Shape, ops []api.Operand) error {
		for h, d := range halves(s, ops[0].(api.Register).Index) {
			src, err := p.source(s, ops[1], h, p.vm)
			if err != nil {
				return err
			}
			if err = f(s.Elem, d, src); err != nil {
				return err
			}
		}
		return nil
	}
}

func (p *ppc64Backend) plain(set insSet) halfBinary {
	return func(e api.Elem, d, a, b ppc64.Register) error {
		return p.three(set.of(e), d, a, b)
	}
}

// swapped is plain with the sources exchanged, for the complementing forms vandc and vorc
// which complement their second source.
func (p *ppc64Backend) swapped(set insSet) halfBinary {
	return func(e api.Elem, d, a, b ppc64.Register) error {
		return p.three(set.of(e), d, b, a)
	}
}

func (p *ppc64Backend) xx2(set insSet) halfUnary {
	return func(e api.Elem, d, s ppc64.Register) error {
		return p.a.XX2(set.of(e), d, s)
	}
}

func (p *ppc64Backend) mulThen(set insSet) halfBinary {
	return func(e api.Elem, d, a, b ppc64.Register) error {
		if err := p.a.XX3(ppcMul.of(e), p.t0, a, b); err != nil {
			return err
		}
		return p.a.XX3(set.of(e), d, d, p.t0)
	}
}

func (p *ppc64Backend) negInt(e api.Elem, d, s ppc64.Register) error {
	if err := p.a.VX(ppc64.VXOR, p.t0, p.t0, p.t0); err != nil {
		return err
	}
	return p.a.VX(ppcSub.of(e), d, p.t0, s)
}

func (p *ppc64Backend) absInt(e api.Elem, d, s ppc64.Register) error {
	if err := p.negInt(e, p.t0, s); err != nil {
		return err
	}
	return p.a.VX(ppcMax.of(e), d, s, p.t0)
}

func (p *ppc64Backend) cmpFloat(op api.Op) halfBinary {
	return func(e api.Elem, d, a, b ppc64.Register) error {
		var err error
		switch op {
		case api.CmpEQ, api.CmpNE:
			err = p.a.XX3(ppcCmpEQ.of(e), d, a, b)
		case api.CmpGT:
			err = p.a.XX3(ppcCmpGT.of(e), d, a, b)
		case api.CmpGE:
			err = p.a.XX3(ppcCmpGE.of(e), d, a, b)
		case api.CmpLT:
			err = p.a.XX3(ppcCmpGT.of(e), d, b, a)
		case api.CmpLE:
			err = p.a.XX3(ppcCmpGE.of(e), d, b, a)
		}
		if err != nil || op != api.CmpNE {
			return err
		}
		return p.a.VX(ppc64.VNOR, d, d, d)
	}
}

func (p *ppc64Backend) cmpInt(op api.Op) halfBinary {
	return func(e api.Elem, d, a, b ppc64.Register) error {
		var err error
		switch op {
		case api.CmpEQ, api.CmpNE:
			err = p.a.VC(ppcCmpEQ.of(e), d, a, b)
		case api.CmpGT, api.CmpLE:
			err = p.a.VC(ppcCmpGT.of(e), d, a, b)
		case api.CmpLT, api.CmpGE:
			err = p.a.VC(ppcCmpGT.of(e), d, b, a)
		}
		if err != nil {
			return err
		}
		switch op {
		case api.CmpNE, api.CmpLE, api.CmpGE:
			return p.a.VX(ppc64.VNOR, d, d, d)
		}
		return nil
	}
}

// nearest runs f with the FPSCR rounding mode set to round to nearest, restoring the FPSCR
// afterwards.
func (p *ppc64Backend) nearest(f func() error) error {
	if err := p.a.Mffs(p.ft[0]); err != nil {
		return err
	}
	if err := p.a.Mtfsb0(ppc64.FPSCRRN0); err != nil {
		return err
	}
	if err := p.a.Mtfsb0(ppc64.FPSCRRN1); err != nil {
		return err
	}
	if err := f(); err != nil {
		return err
	}
	return p.a.XFL(ppc64.MTFSF, 0xff, p.ft[0])
}

func (p *ppc64Backend) round(op api.Op) emitFunc {
	emit := p.unary(p.xx2(ppcRound[op]))
	if op != api.RoundN {
		return emit
	}
	return func(s api.Shape, ops []api.Operand) error {
		return p.nearest(func() error { return emit(s, ops) })
	}
}

// convert rounds with the mode of op, then converts with truncation.
func (p *ppc64Backend) convert(op api.Op) emitFunc {
	core := func(e api.Elem, d, s ppc64.Register) error {
		if op != api.CvtZ {
			if err := p.a.XX2(ppcRound[op].of(e), p.t0, s); err != nil {
				return err
			}
			s = p.t0
		}
		return p.a.XX2(ppcCvt.of(e), d, s)
	}
	emit := p.unary(core)
	if op != api.CvtN {
		return emit
	}
	return func(s api.Shape, ops []api.Operand) error {
		return p.nearest(func() error { return emit(s, ops) })
	}
}

// splatCount writes the shift count in every lane of t0. Vector shifts only read the low 5
// (6 for doublewords) bits of the lane, so the count is splatted as the equivalent value
// closest to zero, and counts out of reach of vspltisw are a sum or a difference of two.
func (p *ppc64Backend) splatCount(laneBits int, count uint8) error {
	v := int(count)
	if v >= laneBits/2 {
		v -= laneBits
	}
	switch {
	case v >= -16 && v <= 15:
		return p.a.SplatImm(p.t0, int8(v))
	case v > 15:
		if err := p.a.SplatImm(p.t0, 15); err != nil {
			return err
		}
		if err := p.a.SplatImm(p.t1, int8(15-v)); err != nil {
			return err
		}
		return p.a.VX(ppc64.VSUBUWM, p.t0, p.t0, p.t1)
	default:
		if err := p.a.SplatImm(p.t0, -16); err != nil {
			return err
		}
		if err := p.a.SplatImm(p.t1, int8(v+16)); err != nil {
			return err
		}
		return p.a.VX(ppc64.VADDUWM, p.t0, p.t0, p.t1)
	}
}

func (p *ppc64Backend) shiftImm(set insSet) emitFunc {
	return func(s api.Shape, ops []api.Operand) error {
		laneBits := s.Elem.Bits()
		if err := p.splatCount(laneBits, ops[2].(api.Immediate).ShiftCount(laneBits)); err != nil {
			return err
		}
		return p.unary(func(e api.Elem, d, src ppc64.Register) error {
			return p.a.VX(set.of(e), d, src, p.t0)
		})(s, ops[:2])
	}
}

func (p *ppc64Backend) move(s api.Shape, ops []api.Operand) error {
	if m, ok := ops[0].(api.Memory); ok {
		for h, src := range halves(s, ops[1].(api.Register).Index) {
			if err := p.vstore(s.Elem, src, m.Offset(int64(16*h))); err != nil {
				return err
			}
		}
		return nil
	}
	if m, ok := ops[1].(api.Memory); ok {
		for h, d := range halves(s, ops[0].(api.Register).Index) {
			if err := p.vload(s.Elem, d, m.Offset(int64(16*h))); err != nil {
				return err
			}
		}
		return nil
	}
	return p.unary(func(_ api.Elem, d, src ppc64.Register) error {
		return p.a.VX(ppc64.VOR, d, src, src)
	})(s, ops)
}

func (p *ppc64Backend) moveMasked(s api.Shape, ops []api.Operand) error {
	masks := halves(s, p.cfg.Layout.Mask)
	srcs := halves(s, ops[1].(api.Register).Index)
	m, toMemory := ops[0].(api.Memory)
	for h, mask := range masks {
		if !toMemory {
			d := vreg(s, ops[0], h)
			if err := p.a.XX4(ppc64.XXSEL, d, d, srcs[h], mask); err != nil {
				return err
			}
			continue
		}
		half := m.Offset(int64(16 * h))
		if err := p.vload(s.Elem, p.vm, half); err != nil {
			return err
		}
		if err := p.a.XX4(ppc64.XXSEL, p.vm, p.vm, srcs[h], mask); err != nil {
			return err
		}
		if err := p.vstore(s.Elem, p.vm, half); err != nil {
			return err
		}
	}
	return nil
}
