// Package api includes the operand model, the operation catalogue names and the error taxonomy
// shared by end-users and internal implementations.
package api

import (
	"fmt"
	"math"
)

// RegisterFile classifies the register file a Register belongs to.
type RegisterFile byte

const (
	// GeneralPurpose is the integer register file (RAX..R15 on x86-64, r0..r31 on Power).
	GeneralPurpose RegisterFile = iota
	// SIMD128 is a 128-bit vector register (xmm on x86-64, one VR on Power).
	SIMD128
	// SIMD256 is a 256-bit vector register (ymm on x86-64, a VR pair on Power).
	SIMD256
	// X87 is a slot of the x87 register stack.
	X87
)

// String implements fmt.Stringer.
func (f RegisterFile) String() string {
	switch f {
	case GeneralPurpose:
		return "gp"
	case SIMD128:
		return "v128"
	case SIMD256:
		return "v256"
	case X87:
		return "st"
	}
	return fmt.Sprintf("%#x", byte(f))
}

// Register is an abstract register: an index into a register file. The index is logical,
// targets map it to a physical slot with their own field-packing rules.
type Register struct {
	File  RegisterFile
	Index uint8
}

// GPR returns the general purpose register of the given index.
func GPR(i uint8) Register { return Register{File: GeneralPurpose, Index: i} }

// V128 returns the 128-bit vector register of the given logical index.
func V128(i uint8) Register { return Register{File: SIMD128, Index: i} }

// V256 returns the 256-bit vector register of the given logical index.
func V256(i uint8) Register { return Register{File: SIMD256, Index: i} }

// ST returns the x87 stack slot i.
func ST(i uint8) Register { return Register{File: X87, Index: i} }

// String implements fmt.Stringer.
func (r Register) String() string {
	return fmt.Sprintf("%s%d", r.File, r.Index)
}

// Validate returns ErrInvalidOperand when the index is not below limit.
func (r Register) Validate(limit int) error {
	if int(r.Index) >= limit {
		return fmt.Errorf("%w: %s out of range [0, %d)", ErrInvalidOperand, r, limit)
	}
	return nil
}

func (Register) operand() OperandKind { return OperandKindRegister }

// AddressingMode distinguishes the forms of a Memory operand.
type AddressingMode byte

const (
	// BaseOffset addresses Base+Disp.
	BaseOffset AddressingMode = iota
	// Indexed addresses Base+Index*Scale+Disp.
	Indexed
	// Absolute addresses Disp.
	Absolute
)

// String implements fmt.Stringer.
func (m AddressingMode) String() string {
	switch m {
	case BaseOffset:
		return "base+offset"
	case Indexed:
		return "indexed"
	case Absolute:
		return "absolute"
	}
	return fmt.Sprintf("%#x", byte(m))
}

// Memory is a memory operand.
//
// Disp is not limited to the width of the target displacement field: encoders split
// displacements which do not fit into a staging step and a zero-offset operand.
type Memory struct {
	Mode  AddressingMode
	Base  Register
	Index Register
	// Scale applies to Index and is one of 1, 2, 4 or 8. Zero means 1.
	Scale uint8
	Disp  int64
}

// Mem returns the memory operand base+disp.
func Mem(base Register, disp int64) Memory {
	return Memory{Mode: BaseOffset, Base: base, Disp: disp}
}

// MemIndexed returns the memory operand base+index*scale+disp.
func MemIndexed(base, index Register, scale uint8, disp int64) Memory {
	return Memory{Mode: Indexed, Base: base, Index: index, Scale: scale, Disp: disp}
}

// MemAbsolute returns the memory operand at the absolute address addr.
func MemAbsolute(addr int64) Memory {
	return Memory{Mode: Absolute, Disp: addr}
}

// Offset returns the same operand displaced by delta bytes.
func (m Memory) Offset(delta int64) Memory {
	m.Disp += delta
	return m
}

// ScaleFactor returns Scale, defaulting to 1.
func (m Memory) ScaleFactor() uint8 {
	if m.Scale == 0 {
		return 1
	}
	return m.Scale
}

// String implements fmt.Stringer.
func (m Memory) String() string {
	switch m.Mode {
	case Absolute:
		return fmt.Sprintf("[%#x]", m.Disp)
	case Indexed:
		return fmt.Sprintf("[%s + %s*%d + %#x]", m.Base, m.Index, m.ScaleFactor(), m.Disp)
	default:
		return fmt.Sprintf("[%s + %#x]", m.Base, m.Disp)
	}
}

// Validate checks the operand is well formed. gprs is the size of the general purpose
// register file of the target.
func (m Memory) Validate(gprs int) error {
	switch m.Mode {
	case Absolute:
		return nil
	case BaseOffset, Indexed:
	default:
		return fmt.Errorf("%w: unknown addressing mode %s", ErrInvalidOperand, m.Mode)
	}
	if m.Base.File != GeneralPurpose {
		return fmt.Errorf("%w: memory base %s is not a general purpose register", ErrInvalidOperand, m.Base)
	}
	if err := m.Base.Validate(gprs); err != nil {
		return err
	}
	if m.Mode == Indexed {
		if m.Index.File != GeneralPurpose {
			return fmt.Errorf("%w: memory index %s is not a general purpose register", ErrInvalidOperand, m.Index)
		}
		if err := m.Index.Validate(gprs); err != nil {
			return err
		}
		switch m.ScaleFactor() {
		case 1, 2, 4, 8:
		default:
			return fmt.Errorf("%w: scale must be one of 1, 2, 4, 8 but got %d", ErrInvalidOperand, m.Scale)
		}
	}
	return nil
}

func (Memory) operand() OperandKind { return OperandKindMemory }

// Immediate is a constant operand with a declared width.
type Immediate struct {
	Value  int64
	Width  Width
	Signed bool
}

// Imm returns a signed 64-bit immediate.
func Imm(v int64) Immediate {
	return Immediate{Value: v, Width: Width64, Signed: true}
}

// String implements fmt.Stringer.
func (i Immediate) String() string {
	return fmt.Sprintf("$%#x", i.Value)
}

// Fit returns the value encoded in a field of the given bit size. The value must be
// representable in the field: as a signed value when the immediate is signed, as an
// unsigned one otherwise.
func (i Immediate) Fit(bits uint) (uint64, error) {
	if bits == 0 || bits > 64 {
		return 0, fmt.Errorf("%w: field of %d bits", ErrInvalidOperand, bits)
	}
	if i.Width != 0 && uint(i.Width.Bits()) < bits {
		bits = uint(i.Width.Bits())
	}
	var ok bool
	if i.Signed {
		if bits == 64 {
			ok = true
		} else {
			min, max := -(int64(1) << (bits - 1)), int64(1)<<(bits-1)-1
			ok = min <= i.Value && i.Value <= max
		}
	} else {
		ok = i.Value >= 0 && (bits == 64 || uint64(i.Value) <= uint64(1)<<bits-1)
	}
	if !ok {
		return 0, fmt.Errorf("%w: %s does not fit in %d bits", ErrInvalidOperand, i, bits)
	}
	if bits == 64 {
		return uint64(i.Value), nil
	}
	return uint64(i.Value) & (uint64(1)<<bits - 1), nil
}

// ShiftCount returns the value truncated to a shift count for lanes of laneBits bits, the
// way the hardware truncates the count of scalar shifts (e.g. & 0x3f for 64-bit lanes).
func (i Immediate) ShiftCount(laneBits int) uint8 {
	return uint8(uint64(i.Value) & uint64(laneBits-1))
}

func (Immediate) operand() OperandKind { return OperandKindImmediate }

// OperandKind is the kind of an Operand.
type OperandKind byte

const (
	OperandKindRegister OperandKind = iota + 1
	OperandKindMemory
	OperandKindImmediate
)

// String implements fmt.Stringer.
func (k OperandKind) String() string {
	switch k {
	case OperandKindRegister:
		return "register"
	case OperandKindMemory:
		return "memory"
	case OperandKindImmediate:
		return "immediate"
	}
	return fmt.Sprintf("%#x", byte(k))
}

// Operand is implemented by Register, Memory and Immediate.
type Operand interface {
	fmt.Stringer
	operand() OperandKind
}

// KindOf returns the kind of the operand.
func KindOf(o Operand) OperandKind {
	return o.operand()
}

// Width is the width class of an operand.
type Width byte

const (
	Width32 Width = iota + 1
	Width64
	Width128
	Width256
)

// Bits returns the width in bits.
func (w Width) Bits() int {
	switch w {
	case Width32:
		return 32
	case Width64:
		return 64
	case Width128:
		return 128
	case Width256:
		return 256
	}
	return 0
}

// Bytes returns the width in bytes.
func (w Width) Bytes() int { return w.Bits() / 8 }

// String implements fmt.Stringer.
func (w Width) String() string {
	return fmt.Sprintf("%d", w.Bits())
}

// FitsInt32 reports whether v is representable as a signed 32-bit integer.
func FitsInt32(v int64) bool {
	return math.MinInt32 <= v && v <= math.MaxInt32
}
