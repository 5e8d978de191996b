package amd64

import (
	"testing"

	"github.com/stretchr/testify/require"
	"github.com/twitchyliquid64/golang-asm/obj"
	"github.com/twitchyliquid64/golang-asm/obj/x86"

	"github.com/tetratelabs/unisimd/internal/asm/golang_asm"
)

func vecReg(l Length, r Register) int16 {
	if l == L256 {
		return x86.REG_Y0 + int16(r)
	}
	return x86.REG_X0 + int16(r)
}

func gpr(r Register) int16 {
	return x86.REG_AX + int16(r)
}

// TestAssembler_golangAsm ensures that the three operand VEX forms are encoded exactly as
// the Go assembler does, for every combination of low and extended registers.
func TestAssembler_golangAsm(t *testing.T) {
	registers := []Register{RAX, RCX, RDI, R8, R13, R15}
	for _, tc := range []struct {
		ins Instruction
		as  obj.As
	}{
		{ins: VADDPS, as: x86.AVADDPS},
		{ins: VADDPD, as: x86.AVADDPD},
		{ins: VSUBPS, as: x86.AVSUBPS},
		{ins: VMULPD, as: x86.AVMULPD},
		{ins: VDIVPS, as: x86.AVDIVPS},
		{ins: VMINPD, as: x86.AVMINPD},
		{ins: VMAXPS, as: x86.AVMAXPS},
		{ins: VANDPS, as: x86.AVANDPS},
		{ins: VANDNPD, as: x86.AVANDNPD},
		{ins: VXORPS, as: x86.AVXORPS},
		{ins: VPADDD, as: x86.AVPADDD},
		{ins: VPSUBQ, as: x86.AVPSUBQ},
		{ins: VPAND, as: x86.AVPAND},
		{ins: VPXOR, as: x86.AVPXOR},
		{ins: VPCMPEQD, as: x86.AVPCMPEQD},
		{ins: VPCMPGTQ, as: x86.AVPCMPGTQ},
		{ins: VPMULLD, as: x86.AVPMULLD},
		{ins: VFMADD231PS, as: x86.AVFMADD231PS},
		{ins: VFMADD231PD, as: x86.AVFMADD231PD},
		{ins: VFNMADD231PS, as: x86.AVFNMADD231PS},
		{ins: VPSLLVD, as: x86.AVPSLLVD},
		{ins: VPSRLVQ, as: x86.AVPSRLVQ},
	} {
		tc := tc
		t.Run(InstructionName(tc.ins), func(t *testing.T) {
			for _, l := range []Length{L128, L256} {
				for _, dst := range registers {
					for _, src1 := range registers {
						for _, src2 := range registers {
							ref, err := golang_asm.NewReferenceAssembler("amd64")
							require.NoError(t, err)
							ref.Add(tc.as, golang_asm.Reg(vecReg(l, src2)),
								[]obj.Addr{golang_asm.Reg(vecReg(l, src1))}, golang_asm.Reg(vecReg(l, dst)))

							a := newTestAssembler()
							require.NoError(t, a.EncodeVEX(tc.ins, l, dst, src1, RegOperand(src2)))
							require.Equal(t, ref.Assemble(), a.Buffer().Bytes(),
								"%s l=%d dst=%d src1=%d src2=%d", InstructionName(tc.ins), l, dst, src1, src2)
						}
					}
				}
			}
		})
	}
}

func TestAssembler_golangAsmMemory(t *testing.T) {
	bases := []Register{RAX, RSP, RBP, R12, R13, R15}
	for _, base := range bases {
		for _, disp := range []int32{0, 8, -128, 127, 128, 0x10000} {
			ref, err := golang_asm.NewReferenceAssembler("amd64")
			require.NoError(t, err)
			ref.Add(x86.AVADDPS, golang_asm.Mem(gpr(base), int64(disp)),
				[]obj.Addr{golang_asm.Reg(vecReg(L256, 2))}, golang_asm.Reg(vecReg(L256, 9)))

			a := newTestAssembler()
			require.NoError(t, a.EncodeVEX(VADDPS, L256, 9, 2, MemOperand(Mem(base, disp))))
			require.Equal(t, ref.Assemble(), a.Buffer().Bytes(), "base=%s disp=%d", GPRName(base), disp)
		}
	}
	for _, index := range []Register{RAX, RCX, R8, R11} {
		for _, scale := range []byte{1, 2, 4, 8} {
			ref, err := golang_asm.NewReferenceAssembler("amd64")
			require.NoError(t, err)
			ref.Add(x86.AVMULPD, golang_asm.MemIndex(gpr(R10), gpr(index), int16(scale), 16),
				[]obj.Addr{golang_asm.Reg(vecReg(L128, 1))}, golang_asm.Reg(vecReg(L128, 0)))

			a := newTestAssembler()
			require.NoError(t, a.EncodeVEX(VMULPD, L128, 0, 1, MemOperand(MemIndex(R10, index, scale, 16))))
			require.Equal(t, ref.Assemble(), a.Buffer().Bytes(), "index=%s scale=%d", GPRName(index), scale)
		}
	}
}

func TestAssembler_golangAsmLegacy(t *testing.T) {
	for _, r := range []Register{RAX, RDX, RSP, R8, R11, R15} {
		ref, err := golang_asm.NewReferenceAssembler("amd64")
		require.NoError(t, err)
		ref.Add(x86.APUSHQ, golang_asm.Reg(gpr(r)), nil, golang_asm.None)
		ref.Add(x86.APOPQ, golang_asm.None, nil, golang_asm.Reg(gpr(r)))
		ref.Add(x86.AMOVQ, golang_asm.Reg(gpr(r)), nil, golang_asm.Reg(gpr(R10)))
		ref.Add(x86.AADDQ, golang_asm.Reg(gpr(r)), nil, golang_asm.Reg(gpr(R11)))
		ref.Add(x86.ALEAQ, golang_asm.Mem(gpr(r), 0x40), nil, golang_asm.Reg(gpr(RCX)))

		a := newTestAssembler()
		a.PushQ(r)
		a.PopQ(r)
		a.MovRegReg(true, R10, r)
		a.AddQ(R11, r)
		require.NoError(t, a.LeaQ(RCX, Mem(r, 0x40)))
		require.Equal(t, ref.Assemble(), a.Buffer().Bytes(), GPRName(r))
	}
}
