package simd

import (
	"github.com/tetratelabs/unisimd/api"
	"github.com/tetratelabs/unisimd/internal/asm/ppc64"
)

// estimateBitsPower is the precision of xvresp, xvredp and the reciprocal square root
// estimates.
const estimateBitsPower = 14

// step writes one Newton-Raphson step of r refining y for the input x, using t as the
// temporary. Constants are loaded into t2.
func (p *ppc64Backend) step(r Recipe, e api.Elem, x, y, t ppc64.Register) error {
	val := func(v Value) (ppc64.Register, error) {
		switch v {
		case ValX:
			return x, nil
		case ValY:
			return y, nil
		case ValT:
			return t, nil
		}
		c, _ := v.constant()
		return p.t2, p.loadConstant(c, e, p.t2)
	}
	for _, st := range r.Steps {
		dst, _ := val(st.Dst)
		if st.Op == StepLoad {
			c, _ := st.A.constant()
			if err := p.loadConstant(c, e, dst); err != nil {
				return err
			}
			continue
		}
		a, _ := val(st.A)
		b, err := val(st.B)
		if err != nil {
			return err
		}
		switch st.Op {
		case StepMul:
			err = p.a.XX3(ppcMul.of(e), dst, a, b)
		case StepSub:
			err = p.a.XX3(ppcSub.of(e), dst, a, b)
		case StepNeg:
			err = p.a.XX2(ppcNeg.of(e), dst, a)
		case StepMulAdd:
			err = p.a.XX3(ppcMAdd.of(e), dst, a, b)
		case StepNegMulAdd:
			err = p.a.XX3(ppcNMSub.of(e), dst, a, b)
		}
		if err != nil {
			return err
		}
	}
	return nil
}

// refine writes the estimate of x into t0, refined to the precision of e.
func (p *ppc64Backend) refine(e api.Elem, x ppc64.Register, rsqrt bool) error {
	ins, r := ppcRe.of(e), RecipeRcpFused
	if rsqrt {
		ins, r = ppcRsqrte.of(e), RecipeRsqrt
	}
	if err := p.a.XX2(ins, p.t0, x); err != nil {
		return err
	}
	for i := Iterations(estimateBitsPower, e); i > 0; i-- {
		if err := p.step(r, e, x, p.t0, p.t1); err != nil {
			return err
		}
	}
	return nil
}

func (p *ppc64Backend) refineOp(r Recipe) emitFunc {
	return func(s api.Shape, ops []api.Operand) error {
		for h, y := range halves(s, ops[0].(api.Register).Index) {
			x, err := p.source(s, ops[1], h, p.vm)
			if err != nil {
				return err
			}
			if err = p.step(r, s.Elem, x, y, p.t1); err != nil {
				return err
			}
		}
		return nil
	}
}

func (p *ppc64Backend) refined(rsqrt bool) halfUnary {
	return func(e api.Elem, d, s ppc64.Register) error {
		if err := p.refine(e, s, rsqrt); err != nil {
			return err
		}
		return p.a.VX(ppc64.VOR, d, p.t0, p.t0)
	}
}

func (p *ppc64Backend) divFallback(e api.Elem, d, a, b ppc64.Register) error {
	if err := p.refine(e, b, false); err != nil {
		return err
	}
	return p.a.XX3(ppcMul.of(e), d, a, p.t0)
}

func (p *ppc64Backend) sqrtFallback(e api.Elem, d, s ppc64.Register) error {
	if err := p.refine(e, s, true); err != nil {
		return err
	}
	return p.a.XX3(ppcMul.of(e), d, p.t0, s)
}

func (p *ppc64Backend) rcpFallback(e api.Elem, d, s ppc64.Register) error {
	if err := p.loadConstant(ConstOne, e, p.t1); err != nil {
		return err
	}
	return p.a.XX3(ppcDiv.of(e), d, p.t1, s)
}

func (p *ppc64Backend) rsqrtFallback(e api.Elem, d, s ppc64.Register) error {
	if err := p.a.XX2(ppcSqrt.of(e), p.t0, s); err != nil {
		return err
	}
	if err := p.loadConstant(ConstOne, e, p.t1); err != nil {
		return err
	}
	return p.a.XX3(ppcDiv.of(e), d, p.t1, p.t0)
}

// laneMem is a D-form memory operand.
type laneMem struct {
	base ppc64.Register
	disp int32
}

func laneAt(m api.Memory, off int64) laneMem {
	return laneMem{base: ppc64.Register(m.Base.Index), disp: int32(m.Disp + off)}
}

func (p *ppc64Backend) laneLoad(e api.Elem, r ppc64.Register, m laneMem) error {
	switch e {
	case api.Float32:
		return p.a.D(ppc64.LFS, r, m.base, m.disp)
	case api.Float64:
		return p.a.D(ppc64.LFD, r, m.base, m.disp)
	case api.Int32:
		return p.a.D(ppc64.LWZ, r, m.base, m.disp)
	default:
		return p.a.DS(ppc64.LD, r, m.base, m.disp)
	}
}

func (p *ppc64Backend) laneStore(e api.Elem, r ppc64.Register, m laneMem) error {
	switch e {
	case api.Float32:
		return p.a.D(ppc64.STFS, r, m.base, m.disp)
	case api.Float64:
		return p.a.D(ppc64.STFD, r, m.base, m.disp)
	case api.Int32:
		return p.a.D(ppc64.STW, r, m.base, m.disp)
	default:
		return p.a.DS(ppc64.STD, r, m.base, m.disp)
	}
}

// ppcLaneFunc writes the computation of one lane whose sources are at a and b. The result
// replaces the first source.
type ppcLaneFunc func(e api.Elem, a, b laneMem) error

// lanes returns the lowering computing the lanes one at a time through the scratch regions.
func (p *ppc64Backend) lanes(lane ppcLaneFunc) emitFunc {
	return func(s api.Shape, ops []api.Operand) error {
		e := s.Elem
		regions := p.cfg.Scratch.Regions
		for i, src := range ops[1:] {
			for h := range halves(s, 0) {
				v, err := p.source(s, src, h, p.vm)
				if err != nil {
					return err
				}
				if err = p.vstore(e, v, regions[i].Offset(int64(16*h))); err != nil {
					return err
				}
			}
		}
		size := int64(e.Bits() / 8)
		for i := 0; i < s.Lanes(); i++ {
			off := int64(i) * size
			if err := lane(e, laneAt(regions[0], off), laneAt(regions[1], off)); err != nil {
				return err
			}
		}
		for h, d := range halves(s, ops[0].(api.Register).Index) {
			if err := p.vload(e, d, regions[0].Offset(int64(16*h))); err != nil {
				return err
			}
		}
		return nil
	}
}

// intLanes applies the XO-form arithmetic ins to every lane.
func (p *ppc64Backend) intLanes(ins ppc64.Instruction) emitFunc {
	return p.lanes(func(e api.Elem, a, b laneMem) error {
		x, y := p.lt[0], p.lt[1]
		if err := p.laneLoad(e, x, a); err != nil {
			return err
		}
		if err := p.laneLoad(e, y, b); err != nil {
			return err
		}
		if err := p.a.XO(ins, x, x, y); err != nil {
			return err
		}
		return p.laneStore(e, x, a)
	})
}

// floatLanes applies the A-form ins32 (ins64 for doubles) to every lane: divisions take
// both sources, square roots the first one.
func (p *ppc64Backend) floatLanes(ins32, ins64 ppc64.Instruction) emitFunc {
	return func(s api.Shape, ops []api.Operand) error {
		ins := ins32
		if s.Elem == api.Float64 {
			ins = ins64
		}
		binary := len(ops) == 3
		return p.lanes(func(e api.Elem, a, b laneMem) error {
			x, y := p.ft[0], p.ft[1]
			if err := p.laneLoad(e, x, a); err != nil {
				return err
			}
			if binary {
				if err := p.laneLoad(e, y, b); err != nil {
					return err
				}
				if err := p.a.A(ins, x, x, y); err != nil {
					return err
				}
			} else if err := p.a.A(ins, x, 0, x); err != nil {
				return err
			}
			return p.laneStore(e, x, a)
		})(s, ops)
	}
}

// reciprocalLanes divides one by every lane, or by its square root.
func (p *ppc64Backend) reciprocalLanes(rsqrt bool) emitFunc {
	return p.lanes(func(e api.Elem, a, _ laneMem) error {
		div, sqrt := ppc64.FDIVS, ppc64.FSQRTS
		if e == api.Float64 {
			div, sqrt = ppc64.FDIV, ppc64.FSQRT
		}
		x, one := p.ft[0], p.ft[1]
		if err := p.laneLoad(e, x, a); err != nil {
			return err
		}
		if rsqrt {
			if err := p.a.A(sqrt, x, 0, x); err != nil {
				return err
			}
		}
		if err := p.laneLoad(e, one, laneAt(p.cfg.Scratch.Constants, constantOffset(ConstOne, e))); err != nil {
			return err
		}
		if err := p.a.A(div, one, one, x); err != nil {
			return err
		}
		return p.laneStore(e, one, a)
	})
}

func (p *ppc64Backend) saveAll(m api.Memory) error {
	return p.registerFile(m, ppc64.STXVW4X)
}

func (p *ppc64Backend) loadAll(m api.Memory) error {
	return p.registerFile(m, ppc64.LXVW4X)
}

// registerFile walks the slots with a single address register, both halves of a slot
// being 16 bytes apart.
func (p *ppc64Backend) registerFile(m api.Memory, ins ppc64.Instruction) error {
	r, err := selectScratchOrBase(&p.cfg.Layout, m)
	if err != nil {
		return err
	}
	s := ppc64.Register(r)
	ra, rb, err := p.ea(m)
	if err != nil {
		return err
	}
	switch {
	case ra != 0:
		err = p.a.XO(ppc64.ADD, s, ra, rb)
	case rb != s:
		err = p.a.MoveReg(s, rb)
	}
	if err != nil {
		return err
	}

	l := &p.cfg.Layout
	slots := l.Slots()
	for k := 0; k < slots; k++ {
		n := uint8(k)
		if k >= int(l.Vectors) {
			n = l.Hidden[k-int(l.Vectors)]
		}
		pr := pairOf(n)
		if err = p.a.XX1(ins, ppc64.Register(pr.Lo), 0, s); err != nil {
			return err
		}
		if err = p.a.D(ppc64.ADDI, s, s, 16); err != nil {
			return err
		}
		if err = p.a.XX1(ins, ppc64.Register(pr.Hi), 0, s); err != nil {
			return err
		}
		if k == slots-1 {
			break
		}
		if err = p.a.D(ppc64.ADDI, s, s, int32(l.SlotSize-16)); err != nil {
			return err
		}
	}
	return nil
}
