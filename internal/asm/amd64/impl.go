package amd64

import (
	"errors"
	"fmt"
	"math"

	"github.com/tetratelabs/unisimd/api"
	"github.com/tetratelabs/unisimd/internal/asm"
)

// Memory is an x86-64 memory operand whose displacement fits the 32-bit displacement field.
type Memory struct {
	Base  Register
	Index Register
	// Scale applies to Index and is one of 1, 2, 4 or 8. Zero means there is no index.
	Scale byte
	Disp  int32
	// Absolute is set for [disp32] operands without base and index.
	Absolute bool
}

// Mem returns the memory operand [base + disp].
func Mem(base Register, disp int32) Memory {
	return Memory{Base: base, Disp: disp}
}

// MemIndex returns the memory operand [base + index*scale + disp].
func MemIndex(base, index Register, scale byte, disp int32) Memory {
	return Memory{Base: base, Index: index, Scale: scale, Disp: disp}
}

// MemAbsolute returns the memory operand [disp].
func MemAbsolute(disp int32) Memory {
	return Memory{Disp: disp, Absolute: true}
}

// Offset returns the operand displaced by delta bytes.
func (m Memory) Offset(delta int32) Memory {
	m.Disp += delta
	return m
}

// String implements fmt.Stringer.
func (m Memory) String() string {
	switch {
	case m.Absolute:
		return fmt.Sprintf("[%#x]", m.Disp)
	case m.Scale != 0:
		return fmt.Sprintf("[%s + %s*%d + %#x]", GPRName(m.Base), GPRName(m.Index), m.Scale, m.Disp)
	default:
		return fmt.Sprintf("[%s + %#x]", GPRName(m.Base), m.Disp)
	}
}

// Operand is the operand placed in the ModRM.r/m field: a register or a memory location.
type Operand struct {
	mem bool
	reg Register
	m   Memory
}

// RegOperand returns the register operand r.
func RegOperand(r Register) Operand {
	return Operand{reg: r}
}

// MemOperand returns the memory operand m.
func MemOperand(m Memory) Operand {
	return Operand{mem: true, m: m}
}

// IsMemory reports whether the operand is a memory location.
func (o Operand) IsMemory() bool { return o.mem }

// Memory returns the memory location of the operand, and false for register operands.
func (o Operand) Memory() (Memory, bool) { return o.m, o.mem }

// Register returns the register of a register operand.
func (o Operand) Register() Register { return o.reg }

// location is the ModRM.mod, ModRM.r/m, SIB and displacement encoding of an Operand, plus
// the REX (or VEX/EVEX) X and B extension bits.
type location struct {
	x, b      byte
	modRM     byte
	sib       byte
	hasSIB    bool
	disp      int32
	dispWidth byte
}

const (
	modNoDisplacement    = 0b00
	modShortDisplacement = 0b01
	modLongDisplacement  = 0b10
	modRegister          = 0b11

	// useSIB is the r/m encoding of rsp and r12, which escapes to a SIB byte.
	useSIB = 0b100
	// noBaseRBP is the base encoding of rbp and r13, which means "no base" without displacement.
	noBaseRBP = 0b101
)

func encodeModRM(mod byte, reg byte, rm byte) byte {
	return mod<<6 | reg<<3 | rm
}

func encodeSIB(shift byte, encIndex byte, encBase byte) byte {
	return shift<<6 | encIndex<<3 | encBase
}

// location computes the addressing encoding. n is the disp8 scaling factor: 1 for legacy
// and VEX instructions, the vector length in bytes for EVEX ones (disp8*N compression).
func (o Operand) location(n int32) (l location, err error) {
	if !o.mem {
		l.b = o.reg.rexBit()
		l.modRM = encodeModRM(modRegister, 0, o.reg.encoding())
		return
	}

	m := o.m
	if m.Absolute {
		// [disp32] is expressed as SIB without base nor index.
		// https://wiki.osdev.org/X86-64_Instruction_Encoding#32.2F64-bit_addressing
		l.modRM = encodeModRM(modNoDisplacement, 0, useSIB)
		l.sib, l.hasSIB = encodeSIB(0, useSIB, noBaseRBP), true
		l.disp, l.dispWidth = m.Disp, 32
		return
	}

	var shift byte
	hasIndex := m.Scale != 0
	if hasIndex {
		if m.Index == RSP {
			err = fmt.Errorf("%w: rsp cannot be used as SIB index", api.ErrInvalidOperand)
			return
		}
		switch m.Scale {
		case 1:
			shift = 0b00
		case 2:
			shift = 0b01
		case 4:
			shift = 0b10
		case 8:
			shift = 0b11
		default:
			err = fmt.Errorf("%w: scale in SIB must be one of 1, 2, 4, 8 but got %d", api.ErrInvalidOperand, m.Scale)
			return
		}
	}

	// rbp and r13 can't be used as base for without displacement encoding, it would be
	// interpreted as RIP relative addressing.
	mod := byte(modLongDisplacement)
	if m.Disp == 0 && m.Base.encoding() != noBaseRBP {
		mod = modNoDisplacement
	} else if d8, ok := compressDisp8(m.Disp, n); ok {
		mod = modShortDisplacement
		l.disp, l.dispWidth = int32(d8), 8
	} else {
		l.disp, l.dispWidth = m.Disp, 32
	}

	l.b = m.Base.rexBit()
	if hasIndex {
		l.x = m.Index.rexBit()
		l.modRM = encodeModRM(mod, 0, useSIB)
		l.sib, l.hasSIB = encodeSIB(shift, m.Index.encoding(), m.Base.encoding()), true
	} else {
		l.modRM = encodeModRM(mod, 0, m.Base.encoding())
		// For rsp and r12 the SIB byte is required, and [SIB] without index ends up [base].
		if m.Base.encoding() == useSIB {
			l.sib, l.hasSIB = encodeSIB(0, useSIB, useSIB), true
		}
	}
	return
}

// compressDisp8 returns the 8-bit displacement representing disp when scaled by n.
func compressDisp8(disp, n int32) (int8, bool) {
	if disp%n != 0 {
		return 0, false
	}
	q := disp / n
	if q < math.MinInt8 || q > math.MaxInt8 {
		return 0, false
	}
	return int8(q), true
}

// Assembler writes x86-64 instructions to a buffer. Every method writes exactly one
// instruction, or nothing when it returns an error.
type Assembler struct {
	buf asm.Buffer
}

// NewAssembler returns an Assembler writing to buf.
func NewAssembler(buf asm.Buffer) *Assembler {
	return &Assembler{buf: buf}
}

// Buffer returns the buffer the assembler writes to.
func (a *Assembler) Buffer() asm.Buffer {
	return a.buf
}

var errImmediateMismatch = errors.New("immediate operand mismatch")

// EncodeVEX writes the VEX (or EVEX) encoded instruction with reg in ModRM.reg, vvvv in
// the prefix and rm in ModRM.r/m. For instructions with an opcode extension in ModRM.reg
// the reg argument is ignored.
func (a *Assembler) EncodeVEX(ins Instruction, l Length, reg, vvvv Register, rm Operand) error {
	op, err := lookup(ins)
	if err != nil {
		return err
	}
	if op.imm {
		return fmt.Errorf("%s: %w", op.name, errImmediateMismatch)
	}
	return a.encodeVEX(op, l, reg, vvvv, rm, 0)
}

// EncodeVEXImm is EncodeVEX for instructions followed by an 8-bit immediate (including
// the register selector of four operand instructions like VBLENDVPS, given as reg<<4).
func (a *Assembler) EncodeVEXImm(ins Instruction, l Length, reg, vvvv Register, rm Operand, imm byte) error {
	op, err := lookup(ins)
	if err != nil {
		return err
	}
	if !op.imm {
		return fmt.Errorf("%s: %w", op.name, errImmediateMismatch)
	}
	return a.encodeVEX(op, l, reg, vvvv, rm, imm)
}

func lookup(ins Instruction) (*vexOpcode, error) {
	if ins == NONE || ins >= instructionEnd {
		return nil, fmt.Errorf("%w: instruction %d", api.ErrUnsupportedOperation, ins)
	}
	return &vexOpcodes[ins], nil
}

func (a *Assembler) encodeVEX(op *vexOpcode, l Length, reg, vvvv Register, rm Operand, imm byte) error {
	n := int32(1)
	if op.evex {
		n = 16 << l
	}
	loc, err := rm.location(n)
	if err != nil {
		return err
	}
	if op.digit != noDigit {
		reg = Register(op.digit)
	}

	var w byte
	if op.w {
		w = 1
	}
	r := reg.rexBit()
	v := ^byte(vvvv) & 0xf
	switch {
	case op.evex:
		// P0: R X B R' 0 0 m m, P1: W vvvv 1 p p, P2: z L'L b V' a a a.
		a.buf.WriteByte(0x62)
		a.buf.WriteByte((^r&1)<<7 | (^loc.x&1)<<6 | (^loc.b&1)<<5 | 1<<4 | op.mmmmm)
		a.buf.WriteByte(w<<7 | v<<3 | 1<<2 | op.pp)
		a.buf.WriteByte(byte(l)<<5 | 1<<3)
	case op.mmmmm == map0F && loc.x == 0 && loc.b == 0 && w == 0:
		// Can use 2-byte encoding.
		a.buf.WriteByte(0xc5)
		a.buf.WriteByte((^r&1)<<7 | v<<3 | byte(l)<<2 | op.pp)
	default:
		a.buf.WriteByte(0xc4)
		a.buf.WriteByte((^r&1)<<7 | (^loc.x&1)<<6 | (^loc.b&1)<<5 | op.mmmmm)
		a.buf.WriteByte(w<<7 | v<<3 | byte(l)<<2 | op.pp)
	}
	a.buf.WriteByte(op.opcode)
	a.writeLocation(reg.encoding(), loc)
	if op.imm {
		a.buf.WriteByte(imm)
	}
	a.buf.EndInstruction()
	return nil
}

func (a *Assembler) writeLocation(reg byte, loc location) {
	a.buf.WriteByte(loc.modRM | reg<<3)
	if loc.hasSIB {
		a.buf.WriteByte(loc.sib)
	}
	a.writeConst(int64(loc.disp), loc.dispWidth)
}

func (a *Assembler) writeConst(v int64, length byte) {
	switch length {
	case 0:
	case 8:
		a.buf.WriteByte(byte(int8(v)))
	case 16:
		a.buf.WriteByte(byte(v))
		a.buf.WriteByte(byte(v >> 8))
	case 32:
		a.buf.WriteUint32(uint32(int32(v)))
	case 64:
		a.buf.WriteUint64(uint64(v))
	default:
		panic("BUG: length must be one of 0, 8, 16, 32 or 64")
	}
}

// REX prefixes are independent of each other and can be combined with OR.
const (
	rexPrefixNone    byte = 0x0000_0000 // Indicates that the instruction doesn't need rexPrefix.
	rexPrefixDefault byte = 0b0100_0000
	rexPrefixW            = 0b0000_1000 | rexPrefixDefault
	rexPrefixR            = 0b0000_0100 | rexPrefixDefault
	rexPrefixX            = 0b0000_0010 | rexPrefixDefault
	rexPrefixB            = 0b0000_0001 | rexPrefixDefault
)

func rexPrefix(w bool, r, x, b byte) byte {
	p := rexPrefixNone
	if w {
		p |= rexPrefixW
	}
	if r != 0 {
		p |= rexPrefixR
	}
	if x != 0 {
		p |= rexPrefixX
	}
	if b != 0 {
		p |= rexPrefixB
	}
	return p
}

// encodeLegacy writes a non-VEX instruction: the optional operand size prefix, REX when
// needed, the opcode bytes (opcodeNum bytes of opcodes, most significant first) and the
// ModRM-based operand. reg is either a register or an opcode extension.
func (a *Assembler) encodeLegacy(prefix66, w bool, opcodes uint32, opcodeNum int, reg Register, rm Operand) error {
	loc, err := rm.location(1)
	if err != nil {
		return err
	}
	if prefix66 {
		a.buf.WriteByte(0x66)
	}
	if rex := rexPrefix(w, reg.rexBit(), loc.x, loc.b); rex != rexPrefixNone {
		a.buf.WriteByte(rex)
	}
	for opcodeNum > 0 {
		opcodeNum--
		a.buf.WriteByte(byte(opcodes >> (opcodeNum << 3)))
	}
	a.writeLocation(reg.encoding(), loc)
	return nil
}

// mustEncode panics on the error of a register-only form, which has no operand that can be
// rejected.
func mustEncode(err error) {
	if err != nil {
		panic(fmt.Sprintf("BUG: register form rejected: %v", err))
	}
}

func (a *Assembler) encodeLegacyEnd(prefix66, w bool, opcodes uint32, opcodeNum int, reg Register, rm Operand) error {
	if err := a.encodeLegacy(prefix66, w, opcodes, opcodeNum, reg, rm); err != nil {
		return err
	}
	a.buf.EndInstruction()
	return nil
}

func (a *Assembler) encodeRegisterInOpcode(w bool, opcode byte, r Register) {
	if rex := rexPrefix(w, 0, 0, r.rexBit()); rex != rexPrefixNone {
		a.buf.WriteByte(rex)
	}
	a.buf.WriteByte(opcode + r.encoding())
}

// PushQ writes push r.
func (a *Assembler) PushQ(r Register) {
	a.encodeRegisterInOpcode(false, 0x50, r)
	a.buf.EndInstruction()
}

// PopQ writes pop r.
func (a *Assembler) PopQ(r Register) {
	a.encodeRegisterInOpcode(false, 0x58, r)
	a.buf.EndInstruction()
}

// MovAbs writes movabs dst, imm (REX.W B8+r io).
func (a *Assembler) MovAbs(dst Register, imm uint64) {
	a.encodeRegisterInOpcode(true, 0xb8, dst)
	a.buf.WriteUint64(imm)
	a.buf.EndInstruction()
}

// MovRegReg writes the 32-bit (or 64-bit when q) mov dst, src.
func (a *Assembler) MovRegReg(q bool, dst, src Register) {
	mustEncode(a.encodeLegacyEnd(false, q, 0x89, 1, src, RegOperand(dst)))
}

// MovLoad writes the 32-bit (or 64-bit when q) mov dst, [m].
func (a *Assembler) MovLoad(q bool, dst Register, m Memory) error {
	return a.encodeLegacyEnd(false, q, 0x8b, 1, dst, MemOperand(m))
}

// MovStore writes the 32-bit (or 64-bit when q) mov [m], src.
func (a *Assembler) MovStore(q bool, m Memory, src Register) error {
	return a.encodeLegacyEnd(false, q, 0x89, 1, src, MemOperand(m))
}

// MovWStore writes the 16-bit mov [m], src.
func (a *Assembler) MovWStore(m Memory, src Register) error {
	return a.encodeLegacyEnd(true, false, 0x89, 1, src, MemOperand(m))
}

// MovWImm writes the 16-bit mov [m], imm.
func (a *Assembler) MovWImm(m Memory, imm uint16) error {
	if err := a.encodeLegacy(true, false, 0xc7, 1, 0, MemOperand(m)); err != nil {
		return err
	}
	a.writeConst(int64(imm), 16)
	a.buf.EndInstruction()
	return nil
}

// LeaQ writes lea dst, [m].
func (a *Assembler) LeaQ(dst Register, m Memory) error {
	return a.encodeLegacyEnd(false, true, 0x8d, 1, dst, MemOperand(m))
}

// AddQ writes add dst, src.
func (a *Assembler) AddQ(dst, src Register) {
	mustEncode(a.encodeLegacyEnd(false, true, 0x01, 1, src, RegOperand(dst)))
}

// AddQImm8 writes add dst, imm8.
func (a *Assembler) AddQImm8(dst Register, imm int8) {
	mustEncode(a.encodeLegacy(false, true, 0x83, 1, 0, RegOperand(dst)))
	a.writeConst(int64(imm), 8)
	a.buf.EndInstruction()
}

// SubQImm8 writes sub dst, imm8.
func (a *Assembler) SubQImm8(dst Register, imm int8) {
	mustEncode(a.encodeLegacy(false, true, 0x83, 1, 5, RegOperand(dst)))
	a.writeConst(int64(imm), 8)
	a.buf.EndInstruction()
}

// AndLImm writes the 32-bit and dst, imm.
func (a *Assembler) AndLImm(dst Register, imm int32) {
	a.arithImm(4, dst, imm)
}

// OrLImm writes the 32-bit or dst, imm.
func (a *Assembler) OrLImm(dst Register, imm int32) {
	a.arithImm(1, dst, imm)
}

func (a *Assembler) arithImm(digit Register, dst Register, imm int32) {
	if imm >= math.MinInt8 && imm <= math.MaxInt8 {
		mustEncode(a.encodeLegacy(false, false, 0x83, 1, digit, RegOperand(dst)))
		a.writeConst(int64(imm), 8)
	} else {
		mustEncode(a.encodeLegacy(false, false, 0x81, 1, digit, RegOperand(dst)))
		a.writeConst(int64(imm), 32)
	}
	a.buf.EndInstruction()
}

// Cdq writes cdq (sign extends eax into edx).
func (a *Assembler) Cdq() {
	a.buf.WriteByte(0x99)
	a.buf.EndInstruction()
}

// Cqo writes cqo (sign extends rax into rdx).
func (a *Assembler) Cqo() {
	a.buf.WriteByte(rexPrefixW)
	a.buf.WriteByte(0x99)
	a.buf.EndInstruction()
}

// IDiv writes the 32-bit (or 64-bit when q) idiv [m].
func (a *Assembler) IDiv(q bool, m Memory) error {
	return a.encodeLegacyEnd(false, q, 0xf7, 1, 7, MemOperand(m))
}

// IMulLoad writes the 32-bit (or 64-bit when q) imul dst, [m].
func (a *Assembler) IMulLoad(q bool, dst Register, m Memory) error {
	return a.encodeLegacyEnd(false, q, 0x0faf, 2, dst, MemOperand(m))
}

// ShiftKind selects the shift of ShiftImm and ShiftCL.
type ShiftKind byte

const (
	// ShiftLeft is shl.
	ShiftLeft ShiftKind = 4
	// ShiftRightLogical is shr.
	ShiftRightLogical ShiftKind = 5
	// ShiftRightArithmetic is sar.
	ShiftRightArithmetic ShiftKind = 7
)

// ShiftImm writes the 32-bit (or 64-bit when q) shift of r by imm.
func (a *Assembler) ShiftImm(kind ShiftKind, q bool, r Register, imm uint8) {
	mustEncode(a.encodeLegacy(false, q, 0xc1, 1, Register(kind), RegOperand(r)))
	a.writeConst(int64(imm), 8)
	a.buf.EndInstruction()
}

// ShiftCL writes the 32-bit (or 64-bit when q) shift of r by cl.
func (a *Assembler) ShiftCL(kind ShiftKind, q bool, r Register) {
	mustEncode(a.encodeLegacyEnd(false, q, 0xd3, 1, Register(kind), RegOperand(r)))
}

// X87Op is an x87 instruction taking a memory operand.
type X87Op byte

const (
	FLDF32 X87Op = iota
	FLDF64
	FSTPF32
	FSTPF64
	FMULF32
	FMULF64
	FADDF32
	FADDF64
	FSUBRF32
	FSUBRF64
	FNSTCW
	FLDCW
)

var x87Opcodes = [...]struct {
	opcode byte
	digit  Register
}{
	FLDF32:   {0xd9, 0},
	FLDF64:   {0xdd, 0},
	FSTPF32:  {0xd9, 3},
	FSTPF64:  {0xdd, 3},
	FMULF32:  {0xd8, 1},
	FMULF64:  {0xdc, 1},
	FADDF32:  {0xd8, 0},
	FADDF64:  {0xdc, 0},
	FSUBRF32: {0xd8, 5},
	FSUBRF64: {0xdc, 5},
	FNSTCW:   {0xd9, 7},
	FLDCW:    {0xd9, 5},
}

// X87 writes the x87 instruction op with the memory operand m.
func (a *Assembler) X87(op X87Op, m Memory) error {
	if int(op) >= len(x87Opcodes) {
		return fmt.Errorf("%w: x87 op %d", api.ErrUnsupportedOperation, op)
	}
	e := x87Opcodes[op]
	return a.encodeLegacyEnd(false, false, uint32(e.opcode), 1, e.digit, MemOperand(m))
}
