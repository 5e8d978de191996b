package amd64

import (
	"testing"

	"github.com/stretchr/testify/require"
	"golang.org/x/arch/x86/x86asm"
)

// TestAssembler_decode decodes the general purpose and x87 instructions with an
// independent decoder, checking both the mnemonic and the instruction length.
func TestAssembler_decode(t *testing.T) {
	a := newTestAssembler()
	a.PushQ(RAX)
	a.SubQImm8(RSP, 8)
	require.NoError(t, a.X87(FNSTCW, Mem(RSP, 0)))
	require.NoError(t, a.MovWImm(Mem(RSP, 2), 0x37f))
	require.NoError(t, a.X87(FLDCW, Mem(RSP, 2)))
	require.NoError(t, a.X87(FLDF64, Mem(RBX, 8)))
	require.NoError(t, a.X87(FMULF64, Mem(RBX, 40)))
	require.NoError(t, a.X87(FSUBRF32, Mem(R9, 4)))
	require.NoError(t, a.X87(FSTPF32, Mem(R9, 4)))
	a.AndLImm(RAX, 0xc00)
	a.OrLImm(RAX, 0x37f)
	a.Cqo()
	require.NoError(t, a.IDiv(true, Mem(RSP, 24)))
	a.ShiftCL(ShiftRightArithmetic, false, RDX)
	a.MovAbs(R11, 0xdeadbeef)
	a.AddQImm8(RSP, 8)
	a.PopQ(RAX)

	exp := []x86asm.Op{
		x86asm.PUSH, x86asm.SUB, x86asm.FNSTCW, x86asm.MOV, x86asm.FLDCW, x86asm.FLD, x86asm.FMUL,
		x86asm.FSUBR, x86asm.FSTP, x86asm.AND, x86asm.OR, x86asm.CQO, x86asm.IDIV, x86asm.SAR,
		x86asm.MOV, x86asm.ADD, x86asm.POP,
	}

	code := a.Buffer().Bytes()
	boundaries := a.Buffer().Boundaries(0)
	require.Equal(t, len(exp), len(boundaries))
	var start int
	for i, end := range boundaries {
		inst, err := x86asm.Decode(code[start:], 64)
		require.NoError(t, err, i)
		require.Equal(t, exp[i], inst.Op, "instruction %d: %s", i, inst)
		require.Equal(t, end-start, inst.Len, "instruction %d: %s", i, inst)
		start = end
	}
}
