package ppc64

import (
	"encoding/binary"
	"testing"

	"github.com/stretchr/testify/require"
	"golang.org/x/arch/ppc64/ppc64asm"

	"github.com/tetratelabs/unisimd/api"
	"github.com/tetratelabs/unisimd/internal/asm"
)

func newTestAssembler(order binary.ByteOrder) *Assembler {
	return NewAssembler(asm.NewCodeSegment(nil).Next(), order)
}

// The expected words were produced by llvm-mc -triple=powerpc64le -show-encoding, and op
// is the mnemonic ppc64asm decodes them to.
func TestAssembler_encode(t *testing.T) {
	for _, tc := range []struct {
		asm   string
		setup func(a *Assembler) error
		exp   uint32
		op    string
	}{
		{asm: "vadduwm 3, 4, 5", setup: func(a *Assembler) error { return a.VX(VADDUWM, 3, 4, 5) }, exp: 0x10642880, op: "vadduwm"},
		{asm: "vaddudm 3, 4, 5", setup: func(a *Assembler) error { return a.VX(VADDUDM, 3, 4, 5) }, exp: 0x106428c0, op: "vaddudm"},
		{asm: "vsubuwm 3, 4, 5", setup: func(a *Assembler) error { return a.VX(VSUBUWM, 3, 4, 5) }, exp: 0x10642c80, op: "vsubuwm"},
		{asm: "vsubudm 3, 4, 5", setup: func(a *Assembler) error { return a.VX(VSUBUDM, 3, 4, 5) }, exp: 0x10642cc0, op: "vsubudm"},
		{asm: "vmuluwm 3, 4, 5", setup: func(a *Assembler) error { return a.VX(VMULUWM, 3, 4, 5) }, exp: 0x10642889, op: "vmuluwm"},
		{asm: "vmulld 3, 4, 5", setup: func(a *Assembler) error { return a.VX(VMULLD, 3, 4, 5) }, exp: 0x106429c9, op: "vmulld"},
		{asm: "vand 3, 4, 5", setup: func(a *Assembler) error { return a.VX(VAND, 3, 4, 5) }, exp: 0x10642c04, op: "vand"},
		{asm: "vandc 3, 4, 5", setup: func(a *Assembler) error { return a.VX(VANDC, 3, 4, 5) }, exp: 0x10642c44, op: "vandc"},
		{asm: "vor 3, 4, 5", setup: func(a *Assembler) error { return a.VX(VOR, 3, 4, 5) }, exp: 0x10642c84, op: "vor"},
		{asm: "vorc 3, 4, 5", setup: func(a *Assembler) error { return a.VX(VORC, 3, 4, 5) }, exp: 0x10642d44, op: "vorc"},
		{asm: "vxor 3, 4, 5", setup: func(a *Assembler) error { return a.VX(VXOR, 3, 4, 5) }, exp: 0x10642cc4, op: "vxor"},
		{asm: "vnor 3, 4, 5", setup: func(a *Assembler) error { return a.VX(VNOR, 3, 4, 5) }, exp: 0x10642d04, op: "vnor"},
		{asm: "vminsw 3, 4, 5", setup: func(a *Assembler) error { return a.VX(VMINSW, 3, 4, 5) }, exp: 0x10642b82, op: "vminsw"},
		{asm: "vmaxsw 3, 4, 5", setup: func(a *Assembler) error { return a.VX(VMAXSW, 3, 4, 5) }, exp: 0x10642982, op: "vmaxsw"},
		{asm: "vminsd 3, 4, 5", setup: func(a *Assembler) error { return a.VX(VMINSD, 3, 4, 5) }, exp: 0x10642bc2, op: "vminsd"},
		{asm: "vmaxsd 3, 4, 5", setup: func(a *Assembler) error { return a.VX(VMAXSD, 3, 4, 5) }, exp: 0x106429c2, op: "vmaxsd"},
		{asm: "vslw 3, 4, 5", setup: func(a *Assembler) error { return a.VX(VSLW, 3, 4, 5) }, exp: 0x10642984, op: "vslw"},
		{asm: "vsrw 3, 4, 5", setup: func(a *Assembler) error { return a.VX(VSRW, 3, 4, 5) }, exp: 0x10642a84, op: "vsrw"},
		{asm: "vsraw 3, 4, 5", setup: func(a *Assembler) error { return a.VX(VSRAW, 3, 4, 5) }, exp: 0x10642b84, op: "vsraw"},
		{asm: "vsld 3, 4, 5", setup: func(a *Assembler) error { return a.VX(VSLD, 3, 4, 5) }, exp: 0x10642dc4, op: "vsld"},
		{asm: "vsrd 3, 4, 5", setup: func(a *Assembler) error { return a.VX(VSRD, 3, 4, 5) }, exp: 0x10642ec4, op: "vsrd"},
		{asm: "vsrad 3, 4, 5", setup: func(a *Assembler) error { return a.VX(VSRAD, 3, 4, 5) }, exp: 0x10642bc4, op: "vsrad"},
		{asm: "vspltisw 15, -16", setup: func(a *Assembler) error { return a.SplatImm(15, -16) }, exp: 0x11f0038c, op: "vspltisw"},
		{asm: "vspltisw 15, 7", setup: func(a *Assembler) error { return a.SplatImm(15, 7) }, exp: 0x11e7038c, op: "vspltisw"},
		{asm: "vspltw 15, 14, 3", setup: func(a *Assembler) error { return a.SplatWord(15, 14, 3) }, exp: 0x11e3728c, op: "vspltw"},
		{asm: "vdivsw 3, 4, 5", setup: func(a *Assembler) error { return a.VX(VDIVSW, 3, 4, 5) }, exp: 0x1064298b, op: "vdivsw"},
		{asm: "vdivsd 3, 4, 5", setup: func(a *Assembler) error { return a.VX(VDIVSD, 3, 4, 5) }, exp: 0x106429cb, op: "vdivsd"},
		{asm: "vcmpequw 3, 4, 5", setup: func(a *Assembler) error { return a.VC(VCMPEQUW, 3, 4, 5) }, exp: 0x10642886, op: "vcmpequw"},
		{asm: "vcmpequd 3, 4, 5", setup: func(a *Assembler) error { return a.VC(VCMPEQUD, 3, 4, 5) }, exp: 0x106428c7, op: "vcmpequd"},
		{asm: "vcmpgtsw 3, 4, 5", setup: func(a *Assembler) error { return a.VC(VCMPGTSW, 3, 4, 5) }, exp: 0x10642b86, op: "vcmpgtsw"},
		{asm: "vcmpgtsd 3, 4, 5", setup: func(a *Assembler) error { return a.VC(VCMPGTSD, 3, 4, 5) }, exp: 0x10642bc7, op: "vcmpgtsd"},
		{asm: "vsel 3, 4, 5, 6", setup: func(a *Assembler) error { return a.VA(VSEL, 3, 4, 5, 6) }, exp: 0x106429aa, op: "vsel"},
		{asm: "xxsel 35, 36, 37, 32", setup: func(a *Assembler) error { return a.XX4(XXSEL, 3, 4, 5, 0) }, exp: 0xf064283f, op: "xxsel"},
		{asm: "xvaddsp 35, 36, 37", setup: func(a *Assembler) error { return a.XX3(XVADDSP, 3, 4, 5) }, exp: 0xf0642a07, op: "xvaddsp"},
		{asm: "xvadddp 35, 36, 37", setup: func(a *Assembler) error { return a.XX3(XVADDDP, 3, 4, 5) }, exp: 0xf0642b07, op: "xvadddp"},
		{asm: "xvsubsp 35, 36, 37", setup: func(a *Assembler) error { return a.XX3(XVSUBSP, 3, 4, 5) }, exp: 0xf0642a47, op: "xvsubsp"},
		{asm: "xvsubdp 35, 36, 37", setup: func(a *Assembler) error { return a.XX3(XVSUBDP, 3, 4, 5) }, exp: 0xf0642b47, op: "xvsubdp"},
		{asm: "xvmulsp 35, 36, 37", setup: func(a *Assembler) error { return a.XX3(XVMULSP, 3, 4, 5) }, exp: 0xf0642a87, op: "xvmulsp"},
		{asm: "xvmuldp 35, 36, 37", setup: func(a *Assembler) error { return a.XX3(XVMULDP, 3, 4, 5) }, exp: 0xf0642b87, op: "xvmuldp"},
		{asm: "xvdivsp 35, 36, 37", setup: func(a *Assembler) error { return a.XX3(XVDIVSP, 3, 4, 5) }, exp: 0xf0642ac7, op: "xvdivsp"},
		{asm: "xvdivdp 35, 36, 37", setup: func(a *Assembler) error { return a.XX3(XVDIVDP, 3, 4, 5) }, exp: 0xf0642bc7, op: "xvdivdp"},
		{asm: "xvminsp 35, 36, 37", setup: func(a *Assembler) error { return a.XX3(XVMINSP, 3, 4, 5) }, exp: 0xf0642e47, op: "xvminsp"},
		{asm: "xvmindp 35, 36, 37", setup: func(a *Assembler) error { return a.XX3(XVMINDP, 3, 4, 5) }, exp: 0xf0642f47, op: "xvmindp"},
		{asm: "xvmaxsp 35, 36, 37", setup: func(a *Assembler) error { return a.XX3(XVMAXSP, 3, 4, 5) }, exp: 0xf0642e07, op: "xvmaxsp"},
		{asm: "xvmaxdp 35, 36, 37", setup: func(a *Assembler) error { return a.XX3(XVMAXDP, 3, 4, 5) }, exp: 0xf0642f07, op: "xvmaxdp"},
		{asm: "xvmaddasp 35, 36, 37", setup: func(a *Assembler) error { return a.XX3(XVMADDASP, 3, 4, 5) }, exp: 0xf0642a0f, op: "xvmaddasp"},
		{asm: "xvmaddadp 35, 36, 37", setup: func(a *Assembler) error { return a.XX3(XVMADDADP, 3, 4, 5) }, exp: 0xf0642b0f, op: "xvmaddadp"},
		{asm: "xvnmsubasp 35, 36, 37", setup: func(a *Assembler) error { return a.XX3(XVNMSUBASP, 3, 4, 5) }, exp: 0xf0642e8f, op: "xvnmsubasp"},
		{asm: "xvnmsubadp 35, 36, 37", setup: func(a *Assembler) error { return a.XX3(XVNMSUBADP, 3, 4, 5) }, exp: 0xf0642f8f, op: "xvnmsubadp"},
		{asm: "xvcmpeqsp 35, 36, 37", setup: func(a *Assembler) error { return a.XX3(XVCMPEQSP, 3, 4, 5) }, exp: 0xf0642a1f, op: "xvcmpeqsp"},
		{asm: "xvcmpeqdp 35, 36, 37", setup: func(a *Assembler) error { return a.XX3(XVCMPEQDP, 3, 4, 5) }, exp: 0xf0642b1f, op: "xvcmpeqdp"},
		{asm: "xvcmpgtsp 35, 36, 37", setup: func(a *Assembler) error { return a.XX3(XVCMPGTSP, 3, 4, 5) }, exp: 0xf0642a5f, op: "xvcmpgtsp"},
		{asm: "xvcmpgtdp 35, 36, 37", setup: func(a *Assembler) error { return a.XX3(XVCMPGTDP, 3, 4, 5) }, exp: 0xf0642b5f, op: "xvcmpgtdp"},
		{asm: "xvcmpgesp 35, 36, 37", setup: func(a *Assembler) error { return a.XX3(XVCMPGESP, 3, 4, 5) }, exp: 0xf0642a9f, op: "xvcmpgesp"},
		{asm: "xvcmpgedp 35, 36, 37", setup: func(a *Assembler) error { return a.XX3(XVCMPGEDP, 3, 4, 5) }, exp: 0xf0642b9f, op: "xvcmpgedp"},
		{asm: "xvsqrtsp 35, 36", setup: func(a *Assembler) error { return a.XX2(XVSQRTSP, 3, 4) }, exp: 0xf060222f, op: "xvsqrtsp"},
		{asm: "xvsqrtdp 35, 36", setup: func(a *Assembler) error { return a.XX2(XVSQRTDP, 3, 4) }, exp: 0xf060232f, op: "xvsqrtdp"},
		{asm: "xvresp 35, 36", setup: func(a *Assembler) error { return a.XX2(XVRESP, 3, 4) }, exp: 0xf060226b, op: "xvresp"},
		{asm: "xvredp 35, 36", setup: func(a *Assembler) error { return a.XX2(XVREDP, 3, 4) }, exp: 0xf060236b, op: "xvredp"},
		{asm: "xvrsqrtesp 35, 36", setup: func(a *Assembler) error { return a.XX2(XVRSQRTESP, 3, 4) }, exp: 0xf060222b, op: "xvrsqrtesp"},
		{asm: "xvrsqrtedp 35, 36", setup: func(a *Assembler) error { return a.XX2(XVRSQRTEDP, 3, 4) }, exp: 0xf060232b, op: "xvrsqrtedp"},
		{asm: "xvnegsp 35, 36", setup: func(a *Assembler) error { return a.XX2(XVNEGSP, 3, 4) }, exp: 0xf06026e7, op: "xvnegsp"},
		{asm: "xvnegdp 35, 36", setup: func(a *Assembler) error { return a.XX2(XVNEGDP, 3, 4) }, exp: 0xf06027e7, op: "xvnegdp"},
		{asm: "xvabssp 35, 36", setup: func(a *Assembler) error { return a.XX2(XVABSSP, 3, 4) }, exp: 0xf0602667, op: "xvabssp"},
		{asm: "xvabsdp 35, 36", setup: func(a *Assembler) error { return a.XX2(XVABSDP, 3, 4) }, exp: 0xf0602767, op: "xvabsdp"},
		{asm: "xvrspiz 35, 36", setup: func(a *Assembler) error { return a.XX2(XVRSPIZ, 3, 4) }, exp: 0xf0602267, op: "xvrspiz"},
		{asm: "xvrspip 35, 36", setup: func(a *Assembler) error { return a.XX2(XVRSPIP, 3, 4) }, exp: 0xf06022a7, op: "xvrspip"},
		{asm: "xvrspim 35, 36", setup: func(a *Assembler) error { return a.XX2(XVRSPIM, 3, 4) }, exp: 0xf06022e7, op: "xvrspim"},
		{asm: "xvrspic 35, 36", setup: func(a *Assembler) error { return a.XX2(XVRSPIC, 3, 4) }, exp: 0xf06022af, op: "xvrspic"},
		{asm: "xvrdpiz 35, 36", setup: func(a *Assembler) error { return a.XX2(XVRDPIZ, 3, 4) }, exp: 0xf0602367, op: "xvrdpiz"},
		{asm: "xvrdpip 35, 36", setup: func(a *Assembler) error { return a.XX2(XVRDPIP, 3, 4) }, exp: 0xf06023a7, op: "xvrdpip"},
		{asm: "xvrdpim 35, 36", setup: func(a *Assembler) error { return a.XX2(XVRDPIM, 3, 4) }, exp: 0xf06023e7, op: "xvrdpim"},
		{asm: "xvrdpic 35, 36", setup: func(a *Assembler) error { return a.XX2(XVRDPIC, 3, 4) }, exp: 0xf06023af, op: "xvrdpic"},
		{asm: "xvcvspsxws 35, 36", setup: func(a *Assembler) error { return a.XX2(XVCVSPSXWS, 3, 4) }, exp: 0xf0602263, op: "xvcvspsxws"},
		{asm: "xvcvdpsxds 35, 36", setup: func(a *Assembler) error { return a.XX2(XVCVDPSXDS, 3, 4) }, exp: 0xf0602763, op: "xvcvdpsxds"},
		{asm: "xvcvsxwsp 35, 36", setup: func(a *Assembler) error { return a.XX2(XVCVSXWSP, 3, 4) }, exp: 0xf06022e3, op: "xvcvsxwsp"},
		{asm: "xvcvsxddp 35, 36", setup: func(a *Assembler) error { return a.XX2(XVCVSXDDP, 3, 4) }, exp: 0xf06027e3, op: "xvcvsxddp"},
		{asm: "lxvw4x 35, 29, 3", setup: func(a *Assembler) error { return a.XX1(LXVW4X, 3, 29, 3) }, exp: 0x7c7d1e19, op: "lxvw4x"},
		{asm: "stxvw4x 35, 29, 3", setup: func(a *Assembler) error { return a.XX1(STXVW4X, 3, 29, 3) }, exp: 0x7c7d1f19, op: "stxvw4x"},
		{asm: "lxvd2x 35, 0, 3", setup: func(a *Assembler) error { return a.XX1(LXVD2X, 3, 0, 3) }, exp: 0x7c601e99, op: "lxvd2x"},
		{asm: "stxvd2x 35, 30, 3", setup: func(a *Assembler) error { return a.XX1(STXVD2X, 3, 30, 3) }, exp: 0x7c7e1f99, op: "stxvd2x"},
		{asm: "addi 29, 0, 100", setup: func(a *Assembler) error { return a.D(ADDI, 29, 0, 100) }, exp: 0x3ba00064, op: "li"},
		{asm: "addi 29, 29, -32768", setup: func(a *Assembler) error { return a.D(ADDI, 29, 29, -32768) }, exp: 0x3bbd8000, op: "addi"},
		{asm: "addis 29, 0, 0x1234", setup: func(a *Assembler) error { return a.D(ADDIS, 29, 0, 0x1234) }, exp: 0x3fa01234, op: "lis"},
		{asm: "addis 30, 30, -1", setup: func(a *Assembler) error { return a.D(ADDIS, 30, 30, -1) }, exp: 0x3fdeffff, op: "addis"},
		{asm: "ori 29, 29, 0xffff", setup: func(a *Assembler) error { return a.D(ORI, 29, 29, 0xffff) }, exp: 0x63bdffff, op: "ori"},
		{asm: "oris 29, 29, 0x8000", setup: func(a *Assembler) error { return a.D(ORIS, 29, 29, 0x8000) }, exp: 0x67bd8000, op: "oris"},
		{asm: "lwz 31, 8(3)", setup: func(a *Assembler) error { return a.D(LWZ, 31, 3, 8) }, exp: 0x83e30008, op: "lwz"},
		{asm: "stw 31, 12(3)", setup: func(a *Assembler) error { return a.D(STW, 31, 3, 12) }, exp: 0x93e3000c, op: "stw"},
		{asm: "lfs 30, 4(3)", setup: func(a *Assembler) error { return a.D(LFS, 30, 3, 4) }, exp: 0xc3c30004, op: "lfs"},
		{asm: "lfd 30, 8(4)", setup: func(a *Assembler) error { return a.D(LFD, 30, 4, 8) }, exp: 0xcbc40008, op: "lfd"},
		{asm: "stfs 30, 4(3)", setup: func(a *Assembler) error { return a.D(STFS, 30, 3, 4) }, exp: 0xd3c30004, op: "stfs"},
		{asm: "stfd 30, 8(4)", setup: func(a *Assembler) error { return a.D(STFD, 30, 4, 8) }, exp: 0xdbc40008, op: "stfd"},
		{asm: "ld 31, 8(3)", setup: func(a *Assembler) error { return a.DS(LD, 31, 3, 8) }, exp: 0xebe30008, op: "ld"},
		{asm: "std 31, 16(3)", setup: func(a *Assembler) error { return a.DS(STD, 31, 3, 16) }, exp: 0xfbe30010, op: "std"},
		{asm: "ld 28, -8(3)", setup: func(a *Assembler) error { return a.DS(LD, 28, 3, -8) }, exp: 0xeb83fff8, op: "ld"},
		{asm: "or 29, 4, 4", setup: func(a *Assembler) error { return a.MoveReg(29, 4) }, exp: 0x7c9d2378, op: "or"},
		{asm: "mffs 30", setup: func(a *Assembler) error { return a.Mffs(30) }, exp: 0xffc0048e, op: "mffs"},
		{asm: "mtfsb0 30", setup: func(a *Assembler) error { return a.Mtfsb0(30) }, exp: 0xffc0008c, op: "mtfsb0"},
		{asm: "mtfsb0 31", setup: func(a *Assembler) error { return a.Mtfsb0(31) }, exp: 0xffe0008c, op: "mtfsb0"},
		{asm: "mtfsf 255, 30", setup: func(a *Assembler) error { return a.XFL(MTFSF, 255, 30) }, exp: 0xfdfef58e, op: "mtfsf"},
		{asm: "divw 31, 31, 28", setup: func(a *Assembler) error { return a.XO(DIVW, 31, 31, 28) }, exp: 0x7fffe3d6, op: "divw"},
		{asm: "divd 31, 31, 28", setup: func(a *Assembler) error { return a.XO(DIVD, 31, 31, 28) }, exp: 0x7fffe3d2, op: "divd"},
		{asm: "mulld 31, 31, 28", setup: func(a *Assembler) error { return a.XO(MULLD, 31, 31, 28) }, exp: 0x7fffe1d2, op: "mulld"},
		{asm: "mullw 31, 31, 28", setup: func(a *Assembler) error { return a.XO(MULLW, 31, 31, 28) }, exp: 0x7fffe1d6, op: "mullw"},
		{asm: "rldicr 29, 29, 32, 31", setup: func(a *Assembler) error { return a.MD(RLDICR, 29, 29, 32, 31) }, exp: 0x7bbd07c6, op: "rldicr"},
		{asm: "rldicr 29, 4, 3, 60", setup: func(a *Assembler) error { return a.MD(RLDICR, 29, 4, 3, 60) }, exp: 0x789d1f24, op: "rldicr"},
		{asm: "fdivs 30, 30, 31", setup: func(a *Assembler) error { return a.A(FDIVS, 30, 30, 31) }, exp: 0xefdef824, op: "fdivs"},
		{asm: "fdiv 30, 30, 31", setup: func(a *Assembler) error { return a.A(FDIV, 30, 30, 31) }, exp: 0xffdef824, op: "fdiv"},
		{asm: "fsqrts 30, 31", setup: func(a *Assembler) error { return a.A(FSQRTS, 30, 0, 31) }, exp: 0xefc0f82c, op: "fsqrts"},
		{asm: "fsqrt 30, 31", setup: func(a *Assembler) error { return a.A(FSQRT, 30, 0, 31) }, exp: 0xffc0f82c, op: "fsqrt"},
		{asm: "slw 31, 31, 28", setup: func(a *Assembler) error { return a.X(SLW, 31, 31, 28) }, exp: 0x7fffe030, op: "slw"},
		{asm: "srw 31, 31, 28", setup: func(a *Assembler) error { return a.X(SRW, 31, 31, 28) }, exp: 0x7fffe430, op: "srw"},
		{asm: "sraw 31, 31, 28", setup: func(a *Assembler) error { return a.X(SRAW, 31, 31, 28) }, exp: 0x7fffe630, op: "sraw"},
		{asm: "sld 31, 31, 28", setup: func(a *Assembler) error { return a.X(SLD, 31, 31, 28) }, exp: 0x7fffe036, op: "sld"},
		{asm: "srd 31, 31, 28", setup: func(a *Assembler) error { return a.X(SRD, 31, 31, 28) }, exp: 0x7fffe436, op: "srd"},
		{asm: "srad 31, 31, 28", setup: func(a *Assembler) error { return a.X(SRAD, 31, 31, 28) }, exp: 0x7fffe634, op: "srad"},
		{asm: "add 29, 29, 4", setup: func(a *Assembler) error { return a.XO(ADD, 29, 29, 4) }, exp: 0x7fbd2214, op: "add"},
	} {
		tc := tc
		t.Run(tc.asm, func(t *testing.T) {
			for _, order := range []binary.ByteOrder{binary.LittleEndian, binary.BigEndian} {
				a := newTestAssembler(order)
				require.NoError(t, tc.setup(a))
				code := a.Buffer().Bytes()
				require.Equal(t, 4, len(code))
				require.Equal(t, tc.exp, order.Uint32(code), "%#08x != %#08x", tc.exp, order.Uint32(code))
				require.Equal(t, []int{4}, a.Buffer().Boundaries(0))

				inst, err := ppc64asm.Decode(code, order)
				require.NoError(t, err)
				require.Equal(t, tc.op, inst.Op.String())
			}
		})
	}
}

func TestAssembler_LoadConst(t *testing.T) {
	for _, tc := range []struct {
		name string
		v    int64
		exp  []uint32
	}{
		{name: "li", v: 100, exp: []uint32{0x3ba00064}},
		{name: "li negative", v: -8, exp: []uint32{0x3ba0fff8}},
		{name: "lis", v: 0x12340000, exp: []uint32{0x3fa01234}},
		{name: "lis ori", v: 0x1234ffff, exp: []uint32{0x3fa01234, 0x63bdffff}},
		{name: "ori above int16", v: 0x8000, exp: []uint32{0x3fa00000, 0x63bd8000}},
		{
			name: "64-bit",
			v:    0x1234_5678_8000_ffff,
			exp:  []uint32{0x3fa01234, 0x63bd5678, 0x7bbd07c6, 0x67bd8000, 0x63bdffff},
		},
		{
			name: "64-bit low half zero",
			v:    0x1_0000_0000,
			exp:  []uint32{0x3ba00001, 0x7bbd07c6},
		},
	} {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			a := newTestAssembler(binary.BigEndian)
			require.NoError(t, a.LoadConst64(29, tc.v))
			code := a.Buffer().Bytes()
			var words []uint32
			for i := 0; i < len(code); i += 4 {
				words = append(words, binary.BigEndian.Uint32(code[i:]))
			}
			require.Equal(t, tc.exp, words)
		})
	}
}

func TestAssembler_ShiftLeftImm(t *testing.T) {
	a := newTestAssembler(binary.LittleEndian)
	require.NoError(t, a.ShiftLeftImm(29, 4, 3))
	require.Equal(t, uint32(0x789d1f24), binary.LittleEndian.Uint32(a.Buffer().Bytes()))
}

func TestAssembler_errors(t *testing.T) {
	for _, tc := range []struct {
		name  string
		setup func(a *Assembler) error
		exp   error
	}{
		{name: "form mismatch", setup: func(a *Assembler) error { return a.VX(XVADDSP, 0, 1, 2) }, exp: api.ErrUnsupportedOperation},
		{name: "none", setup: func(a *Assembler) error { return a.VX(NONE, 0, 1, 2) }, exp: api.ErrUnsupportedOperation},
		{name: "register", setup: func(a *Assembler) error { return a.VX(VADDUWM, 32, 1, 2) }, exp: api.ErrInvalidOperand},
		{name: "addi range", setup: func(a *Assembler) error { return a.D(ADDI, 3, 3, 0x8000) }, exp: api.ErrInvalidOperand},
		{name: "ori negative", setup: func(a *Assembler) error { return a.D(ORI, 3, 3, -1) }, exp: api.ErrInvalidOperand},
		{name: "ds alignment", setup: func(a *Assembler) error { return a.DS(LD, 3, 4, 6) }, exp: api.ErrInvalidOperand},
		{name: "splat range", setup: func(a *Assembler) error { return a.SplatImm(3, 16) }, exp: api.ErrInvalidOperand},
		{name: "splat word", setup: func(a *Assembler) error { return a.SplatWord(3, 4, 4) }, exp: api.ErrInvalidOperand},
		{name: "md range", setup: func(a *Assembler) error { return a.MD(RLDICR, 3, 4, 64, 0) }, exp: api.ErrInvalidOperand},
		{name: "fpscr bit", setup: func(a *Assembler) error { return a.Mtfsb0(32) }, exp: api.ErrInvalidOperand},
	} {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			a := newTestAssembler(binary.LittleEndian)
			require.ErrorIs(t, tc.setup(a), tc.exp)
			require.Zero(t, a.Buffer().Len())
		})
	}
}

func TestInstructionName(t *testing.T) {
	require.Equal(t, "VADDUWM", InstructionName(VADDUWM))
	require.Equal(t, "UNKNOWN", InstructionName(instructionEnd))
	require.Equal(t, FormXX3, InstructionForm(XVMADDASP))
	require.Equal(t, "XX4", InstructionForm(XXSEL).String())
	for ins := ADD; ins < instructionEnd; ins++ {
		require.NotEmpty(t, opcodes[ins].name, ins)
		require.NotEqual(t, FormNone, opcodes[ins].form, InstructionName(ins))
	}
}
