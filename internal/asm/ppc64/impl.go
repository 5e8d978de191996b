package ppc64

import (
	"encoding/binary"
	"fmt"
	"math"

	"github.com/tetratelabs/unisimd/api"
	"github.com/tetratelabs/unisimd/internal/asm"
)

// Assembler writes Power instruction words to a buffer in a fixed byte order. Every
// method writes exactly one instruction, or nothing when it returns an error.
//
// Vector operands of the VSX forms (XX1 to XX4) are vector register numbers: VR n is
// encoded as VSR 32+n.
type Assembler struct {
	buf   asm.Buffer
	order binary.ByteOrder
}

// NewAssembler returns an Assembler writing to buf in the byte order order.
func NewAssembler(buf asm.Buffer, order binary.ByteOrder) *Assembler {
	return &Assembler{buf: buf, order: order}
}

// Buffer returns the buffer the assembler writes to.
func (a *Assembler) Buffer() asm.Buffer {
	return a.buf
}

// ByteOrder returns the byte order of the instruction words.
func (a *Assembler) ByteOrder() binary.ByteOrder {
	return a.order
}

func (a *Assembler) write(w uint32) {
	a.buf.WriteWord(w, a.order)
	a.buf.EndInstruction()
}

func lookup(ins Instruction, form Form) (*opcode, error) {
	if ins == NONE || ins >= instructionEnd {
		return nil, fmt.Errorf("%w: instruction %d", api.ErrUnsupportedOperation, ins)
	}
	op := &opcodes[ins]
	if op.form != form {
		return nil, fmt.Errorf("%w: %s is %s-form, not %s-form", api.ErrUnsupportedOperation, op.name, op.form, form)
	}
	return op, nil
}

func checkRegisters(rs ...Register) error {
	for _, r := range rs {
		if r >= NumRegisters {
			return fmt.Errorf("%w: register %d out of range", api.ErrInvalidOperand, r)
		}
	}
	return nil
}

// vsr splits the VSR number of the vector register vr into its low five bits and the
// extension bit placed in the TX/AX/BX/CX field.
func vsr(vr Register) (uint32, uint32) {
	n := uint32(vr) + 32
	return n & 0x1f, n >> 5
}

func encodeVX(primary, xo uint32, vrt, vra, vrb Register) uint32 {
	return primary<<26 | uint32(vrt)<<21 | uint32(vra)<<16 | uint32(vrb)<<11 | xo
}

func encodeVA(primary, xo uint32, vrt, vra, vrb, vrc Register) uint32 {
	return primary<<26 | uint32(vrt)<<21 | uint32(vra)<<16 | uint32(vrb)<<11 | uint32(vrc)<<6 | xo
}

func encodeXX1(primary, xo uint32, xt, ra, rb Register) uint32 {
	t, tx := vsr(xt)
	return primary<<26 | t<<21 | uint32(ra)<<16 | uint32(rb)<<11 | xo<<1 | tx
}

func encodeXX2(primary, xo uint32, xt, xb Register) uint32 {
	t, tx := vsr(xt)
	b, bx := vsr(xb)
	return primary<<26 | t<<21 | b<<11 | xo<<2 | bx<<1 | tx
}

func encodeXX3(primary, xo uint32, xt, xa, xb Register) uint32 {
	t, tx := vsr(xt)
	a, ax := vsr(xa)
	b, bx := vsr(xb)
	return primary<<26 | t<<21 | a<<16 | b<<11 | xo<<3 | ax<<2 | bx<<1 | tx
}

func encodeXX4(primary, xo uint32, xt, xa, xb, xc Register) uint32 {
	t, tx := vsr(xt)
	a, ax := vsr(xa)
	b, bx := vsr(xb)
	c, cx := vsr(xc)
	return primary<<26 | t<<21 | a<<16 | b<<11 | c<<6 | xo<<4 | cx<<3 | ax<<2 | bx<<1 | tx
}

func encodeD(primary uint32, rt, ra Register, imm uint16) uint32 {
	return primary<<26 | uint32(rt)<<21 | uint32(ra)<<16 | uint32(imm)
}

func encodeDS(primary, xo uint32, rt, ra Register, ds int16) uint32 {
	return primary<<26 | uint32(rt)<<21 | uint32(ra)<<16 | uint32(uint16(ds))&0xfffc | xo
}

func encodeX(primary, xo uint32, f1, f2, f3 Register) uint32 {
	return primary<<26 | uint32(f1)<<21 | uint32(f2)<<16 | uint32(f3)<<11 | xo<<1
}

func encodeXO(primary, xo uint32, rt, ra, rb Register) uint32 {
	return primary<<26 | uint32(rt)<<21 | uint32(ra)<<16 | uint32(rb)<<11 | xo<<1
}

// encodeMD encodes the 6-bit shift and mask fields with their high bit moved to the end,
// as the MD-form requires.
func encodeMD(primary, xo uint32, ra, rs Register, sh, mask uint8) uint32 {
	shLo, shHi := uint32(sh)&0x1f, uint32(sh)>>5
	m := (uint32(mask)&0x1f)<<1 | uint32(mask)>>5
	return primary<<26 | uint32(rs)<<21 | uint32(ra)<<16 | shLo<<11 | m<<5 | xo<<2 | shHi<<1
}

func encodeA(primary, xo uint32, frt, fra, frb, frc Register) uint32 {
	return primary<<26 | uint32(frt)<<21 | uint32(fra)<<16 | uint32(frb)<<11 | uint32(frc)<<6 | xo<<1
}

func encodeXFL(primary, xo uint32, flm uint8, frb Register) uint32 {
	return primary<<26 | uint32(flm)<<17 | uint32(frb)<<11 | xo<<1
}

// VX writes a VX-form vector instruction vrt = vra op vrb.
func (a *Assembler) VX(ins Instruction, vrt, vra, vrb Register) error {
	op, err := lookup(ins, FormVX)
	if err != nil {
		return err
	}
	if err = checkRegisters(vrt, vra, vrb); err != nil {
		return err
	}
	a.write(encodeVX(op.primary, op.xo, vrt, vra, vrb))
	return nil
}

// VC writes a VC-form vector compare without record bit.
func (a *Assembler) VC(ins Instruction, vrt, vra, vrb Register) error {
	op, err := lookup(ins, FormVC)
	if err != nil {
		return err
	}
	if err = checkRegisters(vrt, vra, vrb); err != nil {
		return err
	}
	a.write(encodeVX(op.primary, op.xo, vrt, vra, vrb))
	return nil
}

// VA writes a VA-form vector instruction with three sources.
func (a *Assembler) VA(ins Instruction, vrt, vra, vrb, vrc Register) error {
	op, err := lookup(ins, FormVA)
	if err != nil {
		return err
	}
	if err = checkRegisters(vrt, vra, vrb, vrc); err != nil {
		return err
	}
	a.write(encodeVA(op.primary, op.xo, vrt, vra, vrb, vrc))
	return nil
}

// SplatImm writes vspltisw vrt, simm.
func (a *Assembler) SplatImm(vrt Register, simm int8) error {
	if simm < -16 || simm > 15 {
		return fmt.Errorf("%w: splat immediate %d out of range", api.ErrInvalidOperand, simm)
	}
	return a.VX(VSPLTISW, vrt, Register(uint8(simm)&0x1f), 0)
}

// SplatWord writes vspltw vrt, vrb, uim.
func (a *Assembler) SplatWord(vrt, vrb Register, uim uint8) error {
	if uim > 3 {
		return fmt.Errorf("%w: word index %d out of range", api.ErrInvalidOperand, uim)
	}
	return a.VX(VSPLTW, vrt, Register(uim), vrb)
}

// XX1 writes a VSX indexed load or store of xt at ra+rb (ra=0 reads as zero).
func (a *Assembler) XX1(ins Instruction, xt, ra, rb Register) error {
	op, err := lookup(ins, FormXX1)
	if err != nil {
		return err
	}
	if err = checkRegisters(xt, ra, rb); err != nil {
		return err
	}
	a.write(encodeXX1(op.primary, op.xo, xt, ra, rb))
	return nil
}

// XX2 writes a VSX instruction with one source.
func (a *Assembler) XX2(ins Instruction, xt, xb Register) error {
	op, err := lookup(ins, FormXX2)
	if err != nil {
		return err
	}
	if err = checkRegisters(xt, xb); err != nil {
		return err
	}
	a.write(encodeXX2(op.primary, op.xo, xt, xb))
	return nil
}

// XX3 writes a VSX instruction with two sources.
func (a *Assembler) XX3(ins Instruction, xt, xa, xb Register) error {
	op, err := lookup(ins, FormXX3)
	if err != nil {
		return err
	}
	if err = checkRegisters(xt, xa, xb); err != nil {
		return err
	}
	a.write(encodeXX3(op.primary, op.xo, xt, xa, xb))
	return nil
}

// XX4 writes a VSX instruction with three sources.
func (a *Assembler) XX4(ins Instruction, xt, xa, xb, xc Register) error {
	op, err := lookup(ins, FormXX4)
	if err != nil {
		return err
	}
	if err = checkRegisters(xt, xa, xb, xc); err != nil {
		return err
	}
	a.write(encodeXX4(op.primary, op.xo, xt, xa, xb, xc))
	return nil
}

// D writes a D-form instruction: an immediate arithmetic (addi, addis, ori, oris) or a load
// or store of rt at ra+imm. Arithmetic immediates are signed for addi and addis and
// unsigned for ori and oris.
func (a *Assembler) D(ins Instruction, rt, ra Register, imm int32) error {
	op, err := lookup(ins, FormD)
	if err != nil {
		return err
	}
	if err = checkRegisters(rt, ra); err != nil {
		return err
	}
	switch ins {
	case ORI, ORIS:
		if imm < 0 || imm > math.MaxUint16 {
			return fmt.Errorf("%w: %s immediate %d out of range", api.ErrInvalidOperand, op.name, imm)
		}
	default:
		if imm < math.MinInt16 || imm > math.MaxInt16 {
			return fmt.Errorf("%w: %s immediate %d out of range", api.ErrInvalidOperand, op.name, imm)
		}
	}
	if ins == ORI || ins == ORIS {
		// ori and oris place the source in the RS field (bits 21-25) and the target in RA.
		rt, ra = ra, rt
	}
	a.write(encodeD(op.primary, rt, ra, uint16(imm)))
	return nil
}

// DS writes a DS-form doubleword load or store of rt at ra+disp.
func (a *Assembler) DS(ins Instruction, rt, ra Register, disp int32) error {
	op, err := lookup(ins, FormDS)
	if err != nil {
		return err
	}
	if err = checkRegisters(rt, ra); err != nil {
		return err
	}
	if disp < math.MinInt16 || disp > math.MaxInt16 || disp&3 != 0 {
		return fmt.Errorf("%w: %s displacement %d is not a 16-bit multiple of 4", api.ErrInvalidOperand, op.name, disp)
	}
	a.write(encodeDS(op.primary, op.xo, rt, ra, int16(disp)))
	return nil
}

// X writes an X-form instruction with the three register fields in encoding order (for
// or and the shifts: RS, RA, RB).
func (a *Assembler) X(ins Instruction, f1, f2, f3 Register) error {
	op, err := lookup(ins, FormX)
	if err != nil {
		return err
	}
	if err = checkRegisters(f1, f2, f3); err != nil {
		return err
	}
	a.write(encodeX(op.primary, op.xo, f1, f2, f3))
	return nil
}

// XO writes an XO-form arithmetic rt = ra op rb.
func (a *Assembler) XO(ins Instruction, rt, ra, rb Register) error {
	op, err := lookup(ins, FormXO)
	if err != nil {
		return err
	}
	if err = checkRegisters(rt, ra, rb); err != nil {
		return err
	}
	a.write(encodeXO(op.primary, op.xo, rt, ra, rb))
	return nil
}

// MD writes an MD-form rotate: ra = rotate(rs, sh) under the mask end (or begin) mask.
func (a *Assembler) MD(ins Instruction, ra, rs Register, sh, mask uint8) error {
	op, err := lookup(ins, FormMD)
	if err != nil {
		return err
	}
	if err = checkRegisters(ra, rs); err != nil {
		return err
	}
	if sh > 63 || mask > 63 {
		return fmt.Errorf("%w: %s shift %d or mask %d out of range", api.ErrInvalidOperand, op.name, sh, mask)
	}
	a.write(encodeMD(op.primary, op.xo, ra, rs, sh, mask))
	return nil
}

// A writes an A-form floating point instruction frt = fra op frb.
func (a *Assembler) A(ins Instruction, frt, fra, frb Register) error {
	op, err := lookup(ins, FormA)
	if err != nil {
		return err
	}
	if err = checkRegisters(frt, fra, frb); err != nil {
		return err
	}
	a.write(encodeA(op.primary, op.xo, frt, fra, frb, 0))
	return nil
}

// XFL writes mtfsf flm, frb.
func (a *Assembler) XFL(ins Instruction, flm uint8, frb Register) error {
	op, err := lookup(ins, FormXFL)
	if err != nil {
		return err
	}
	if err = checkRegisters(frb); err != nil {
		return err
	}
	a.write(encodeXFL(op.primary, op.xo, flm, frb))
	return nil
}

// MoveReg writes mr dst, src.
func (a *Assembler) MoveReg(dst, src Register) error {
	return a.X(OR, src, dst, src)
}

// LoadImm writes li rt, imm.
func (a *Assembler) LoadImm(rt Register, imm int16) error {
	return a.D(ADDI, rt, R0, int32(imm))
}

// LoadConst32 writes the shortest sequence setting rt to the sign extended 32-bit value v:
// li, or lis followed by ori when the low half is not zero.
func (a *Assembler) LoadConst32(rt Register, v int32) error {
	if v >= math.MinInt16 && v <= math.MaxInt16 {
		return a.LoadImm(rt, int16(v))
	}
	if err := a.D(ADDIS, rt, R0, int32(int16(v>>16))); err != nil {
		return err
	}
	if lo := uint16(v); lo != 0 {
		return a.D(ORI, rt, rt, int32(lo))
	}
	return nil
}

// LoadConst64 writes the sequence setting rt to v, falling back to LoadConst32 when v is
// a sign extended 32-bit value: lis, ori, rldicr (shift left 32), oris, ori.
func (a *Assembler) LoadConst64(rt Register, v int64) error {
	if v >= math.MinInt32 && v <= math.MaxInt32 {
		return a.LoadConst32(rt, int32(v))
	}
	if err := a.LoadConst32(rt, int32(v>>32)); err != nil {
		return err
	}
	if err := a.ShiftLeftImm(rt, rt, 32); err != nil {
		return err
	}
	if hi := uint16(v >> 16); hi != 0 {
		if err := a.D(ORIS, rt, rt, int32(hi)); err != nil {
			return err
		}
	}
	if lo := uint16(v); lo != 0 {
		return a.D(ORI, rt, rt, int32(lo))
	}
	return nil
}

// ShiftLeftImm writes sldi ra, rs, sh.
func (a *Assembler) ShiftLeftImm(ra, rs Register, sh uint8) error {
	return a.MD(RLDICR, ra, rs, sh, 63-sh)
}

// Mffs writes mffs frt.
func (a *Assembler) Mffs(frt Register) error {
	return a.X(MFFS, frt, 0, 0)
}

// Mtfsb0 writes mtfsb0 bt.
func (a *Assembler) Mtfsb0(bt uint8) error {
	if bt > 31 {
		return fmt.Errorf("%w: FPSCR bit %d out of range", api.ErrInvalidOperand, bt)
	}
	return a.X(MTFSB0, Register(bt), 0, 0)
}
