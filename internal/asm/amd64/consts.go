package amd64

import "fmt"

// Register is the 4-bit encoding of a general purpose or vector register. Whether it names
// a GPR, an xmm or a ymm register is implied by the instruction.
type Register byte

// General purpose registers.
const (
	RAX Register = iota
	RCX
	RDX
	RBX
	RSP
	RBP
	RSI
	RDI
	R8
	R9
	R10
	R11
	R12
	R13
	R14
	R15
)

// NumRegisters is the number of general purpose registers, and of vector registers
// reachable without EVEX high-register extensions.
const NumRegisters = 16

func (r Register) rexBit() byte {
	return byte(r) >> 3 & 1
}

func (r Register) encoding() byte {
	return byte(r) & 0x07
}

var gprNames = [...]string{
	RAX: "rax", RCX: "rcx", RDX: "rdx", RBX: "rbx", RSP: "rsp", RBP: "rbp", RSI: "rsi", RDI: "rdi",
	R8: "r8", R9: "r9", R10: "r10", R11: "r11", R12: "r12", R13: "r13", R14: "r14", R15: "r15",
}

// GPRName returns the 64-bit name of the general purpose register.
func GPRName(r Register) string {
	if int(r) < len(gprNames) {
		return gprNames[r]
	}
	return fmt.Sprintf("r?%d", r)
}

// Length is the vector length of a VEX or EVEX encoded instruction.
type Length byte

const (
	// L128 selects xmm registers.
	L128 Length = iota
	// L256 selects ymm registers.
	L256
)

// Instruction is a VEX or EVEX encoded instruction.
//
// Note: naming convention is exactly the same as Go assembler: https://go.dev/doc/asm
type Instruction byte

const (
	NONE Instruction = iota
	VADDPD
	VADDPS
	VANDNPD
	VANDNPS
	VANDPD
	VANDPS
	VBLENDVPD
	VBLENDVPS
	VCMPPD
	VCMPPS
	VCVTDQ2PS
	VCVTPD2PS
	VCVTPD2QQ
	VCVTPS2DQ
	VCVTPS2PD
	VCVTQQ2PD
	VCVTSD2SI
	VCVTSI2SD
	VCVTTPD2QQ
	VCVTTPS2DQ
	VCVTTSD2SI
	VDIVPD
	VDIVPS
	VDIVSD
	VDIVSS
	VEXTRACTF128
	VFMADD231PD
	VFMADD231PS
	VFNMADD231PD
	VFNMADD231PS
	VINSERTF128
	VMASKMOVPD
	VMASKMOVPS
	VMAXPD
	VMAXPS
	VMINPD
	VMINPS
	VMOVSD
	VMOVSDstore
	VMOVSS
	VMOVSSstore
	VMOVUPS
	VMOVUPSstore
	VMULPD
	VMULPS
	VORPD
	VORPS
	VPABSD
	VPABSQ
	VPADDD
	VPADDQ
	VPAND
	VPANDN
	VPCMPEQD
	VPCMPEQQ
	VPCMPGTD
	VPCMPGTQ
	VPMAXSD
	VPMAXSQ
	VPMINSD
	VPMINSQ
	VPMULLD
	VPMULLQ
	VPOR
	VPSLLD
	VPSLLQ
	VPSLLVD
	VPSLLVQ
	VPSRAD
	VPSRAQ
	VPSRAVD
	VPSRAVQ
	VPSRLD
	VPSRLQ
	VPSRLVD
	VPSRLVQ
	VPSUBD
	VPSUBQ
	VPXOR
	VRCP14PD
	VRCP14PS
	VRCPPS
	VROUNDPD
	VROUNDPS
	VRSQRT14PD
	VRSQRT14PS
	VRSQRTPS
	VSQRTPD
	VSQRTPS
	VSQRTSD
	VSQRTSS
	VSTMXCSR
	VSUBPD
	VSUBPS
	VXORPD
	VXORPS

	instructionEnd
)

// Mandatory prefixes as encoded in the pp field.
const (
	ppNone byte = iota
	pp66
	ppF3
	ppF2
)

// Opcode maps as encoded in the mmmmm field.
const (
	map0F byte = iota + 1
	map0F38
	map0F3A
)

// noDigit marks instructions whose ModRM.reg field holds a register.
const noDigit = 0xff

// vexOpcode describes the encoding of an Instruction.
type vexOpcode struct {
	name   string
	pp     byte
	mmmmm  byte
	opcode byte
	w      bool
	// digit is the opcode extension placed in ModRM.reg, or noDigit.
	digit byte
	// evex is set for instructions which only exist with an EVEX prefix.
	evex bool
	// imm is set for instructions taking an 8-bit immediate.
	imm bool
}

var vexOpcodes = [...]vexOpcode{
	NONE:         {name: "NONE"},
	VADDPD:       {name: "VADDPD", pp: pp66, mmmmm: map0F, opcode: 0x58, digit: noDigit},
	VADDPS:       {name: "VADDPS", pp: ppNone, mmmmm: map0F, opcode: 0x58, digit: noDigit},
	VANDNPD:      {name: "VANDNPD", pp: pp66, mmmmm: map0F, opcode: 0x55, digit: noDigit},
	VANDNPS:      {name: "VANDNPS", pp: ppNone, mmmmm: map0F, opcode: 0x55, digit: noDigit},
	VANDPD:       {name: "VANDPD", pp: pp66, mmmmm: map0F, opcode: 0x54, digit: noDigit},
	VANDPS:       {name: "VANDPS", pp: ppNone, mmmmm: map0F, opcode: 0x54, digit: noDigit},
	VBLENDVPD:    {name: "VBLENDVPD", pp: pp66, mmmmm: map0F3A, opcode: 0x4b, digit: noDigit, imm: true},
	VBLENDVPS:    {name: "VBLENDVPS", pp: pp66, mmmmm: map0F3A, opcode: 0x4a, digit: noDigit, imm: true},
	VCMPPD:       {name: "VCMPPD", pp: pp66, mmmmm: map0F, opcode: 0xc2, digit: noDigit, imm: true},
	VCMPPS:       {name: "VCMPPS", pp: ppNone, mmmmm: map0F, opcode: 0xc2, digit: noDigit, imm: true},
	VCVTDQ2PS:    {name: "VCVTDQ2PS", pp: ppNone, mmmmm: map0F, opcode: 0x5b, digit: noDigit},
	VCVTPD2PS:    {name: "VCVTPD2PS", pp: pp66, mmmmm: map0F, opcode: 0x5a, digit: noDigit},
	VCVTPD2QQ:    {name: "VCVTPD2QQ", pp: pp66, mmmmm: map0F, opcode: 0x7b, w: true, digit: noDigit, evex: true},
	VCVTPS2DQ:    {name: "VCVTPS2DQ", pp: pp66, mmmmm: map0F, opcode: 0x5b, digit: noDigit},
	VCVTPS2PD:    {name: "VCVTPS2PD", pp: ppNone, mmmmm: map0F, opcode: 0x5a, digit: noDigit},
	VCVTQQ2PD:    {name: "VCVTQQ2PD", pp: ppF3, mmmmm: map0F, opcode: 0xe6, w: true, digit: noDigit, evex: true},
	VCVTSD2SI:    {name: "VCVTSD2SI", pp: ppF2, mmmmm: map0F, opcode: 0x2d, w: true, digit: noDigit},
	VCVTSI2SD:    {name: "VCVTSI2SD", pp: ppF2, mmmmm: map0F, opcode: 0x2a, w: true, digit: noDigit},
	VCVTTPD2QQ:   {name: "VCVTTPD2QQ", pp: pp66, mmmmm: map0F, opcode: 0x7a, w: true, digit: noDigit, evex: true},
	VCVTTPS2DQ:   {name: "VCVTTPS2DQ", pp: ppF3, mmmmm: map0F, opcode: 0x5b, digit: noDigit},
	VCVTTSD2SI:   {name: "VCVTTSD2SI", pp: ppF2, mmmmm: map0F, opcode: 0x2c, w: true, digit: noDigit},
	VDIVPD:       {name: "VDIVPD", pp: pp66, mmmmm: map0F, opcode: 0x5e, digit: noDigit},
	VDIVPS:       {name: "VDIVPS", pp: ppNone, mmmmm: map0F, opcode: 0x5e, digit: noDigit},
	VDIVSD:       {name: "VDIVSD", pp: ppF2, mmmmm: map0F, opcode: 0x5e, digit: noDigit},
	VDIVSS:       {name: "VDIVSS", pp: ppF3, mmmmm: map0F, opcode: 0x5e, digit: noDigit},
	VEXTRACTF128: {name: "VEXTRACTF128", pp: pp66, mmmmm: map0F3A, opcode: 0x19, digit: noDigit, imm: true},
	VFMADD231PD:  {name: "VFMADD231PD", pp: pp66, mmmmm: map0F38, opcode: 0xb8, w: true, digit: noDigit},
	VFMADD231PS:  {name: "VFMADD231PS", pp: pp66, mmmmm: map0F38, opcode: 0xb8, digit: noDigit},
	VFNMADD231PD: {name: "VFNMADD231PD", pp: pp66, mmmmm: map0F38, opcode: 0xbc, w: true, digit: noDigit},
	VFNMADD231PS: {name: "VFNMADD231PS", pp: pp66, mmmmm: map0F38, opcode: 0xbc, digit: noDigit},
	VINSERTF128:  {name: "VINSERTF128", pp: pp66, mmmmm: map0F3A, opcode: 0x18, digit: noDigit, imm: true},
	VMASKMOVPD:   {name: "VMASKMOVPD", pp: pp66, mmmmm: map0F38, opcode: 0x2f, digit: noDigit},
	VMASKMOVPS:   {name: "VMASKMOVPS", pp: pp66, mmmmm: map0F38, opcode: 0x2e, digit: noDigit},
	VMAXPD:       {name: "VMAXPD", pp: pp66, mmmmm: map0F, opcode: 0x5f, digit: noDigit},
	VMAXPS:       {name: "VMAXPS", pp: ppNone, mmmmm: map0F, opcode: 0x5f, digit: noDigit},
	VMINPD:       {name: "VMINPD", pp: pp66, mmmmm: map0F, opcode: 0x5d, digit: noDigit},
	VMINPS:       {name: "VMINPS", pp: ppNone, mmmmm: map0F, opcode: 0x5d, digit: noDigit},
	VMOVSD:       {name: "VMOVSD", pp: ppF2, mmmmm: map0F, opcode: 0x10, digit: noDigit},
	VMOVSDstore:  {name: "VMOVSD", pp: ppF2, mmmmm: map0F, opcode: 0x11, digit: noDigit},
	VMOVSS:       {name: "VMOVSS", pp: ppF3, mmmmm: map0F, opcode: 0x10, digit: noDigit},
	VMOVSSstore:  {name: "VMOVSS", pp: ppF3, mmmmm: map0F, opcode: 0x11, digit: noDigit},
	VMOVUPS:      {name: "VMOVUPS", pp: ppNone, mmmmm: map0F, opcode: 0x10, digit: noDigit},
	VMOVUPSstore: {name: "VMOVUPS", pp: ppNone, mmmmm: map0F, opcode: 0x11, digit: noDigit},
	VMULPD:       {name: "VMULPD", pp: pp66, mmmmm: map0F, opcode: 0x59, digit: noDigit},
	VMULPS:       {name: "VMULPS", pp: ppNone, mmmmm: map0F, opcode: 0x59, digit: noDigit},
	VORPD:        {name: "VORPD", pp: pp66, mmmmm: map0F, opcode: 0x56, digit: noDigit},
	VORPS:        {name: "VORPS", pp: ppNone, mmmmm: map0F, opcode: 0x56, digit: noDigit},
	VPABSD:       {name: "VPABSD", pp: pp66, mmmmm: map0F38, opcode: 0x1e, digit: noDigit},
	VPABSQ:       {name: "VPABSQ", pp: pp66, mmmmm: map0F38, opcode: 0x1f, w: true, digit: noDigit, evex: true},
	VPADDD:       {name: "VPADDD", pp: pp66, mmmmm: map0F, opcode: 0xfe, digit: noDigit},
	VPADDQ:       {name: "VPADDQ", pp: pp66, mmmmm: map0F, opcode: 0xd4, digit: noDigit},
	VPAND:        {name: "VPAND", pp: pp66, mmmmm: map0F, opcode: 0xdb, digit: noDigit},
	VPANDN:       {name: "VPANDN", pp: pp66, mmmmm: map0F, opcode: 0xdf, digit: noDigit},
	VPCMPEQD:     {name: "VPCMPEQD", pp: pp66, mmmmm: map0F, opcode: 0x76, digit: noDigit},
	VPCMPEQQ:     {name: "VPCMPEQQ", pp: pp66, mmmmm: map0F38, opcode: 0x29, digit: noDigit},
	VPCMPGTD:     {name: "VPCMPGTD", pp: pp66, mmmmm: map0F, opcode: 0x66, digit: noDigit},
	VPCMPGTQ:     {name: "VPCMPGTQ", pp: pp66, mmmmm: map0F38, opcode: 0x37, digit: noDigit},
	VPMAXSD:      {name: "VPMAXSD", pp: pp66, mmmmm: map0F38, opcode: 0x3d, digit: noDigit},
	VPMAXSQ:      {name: "VPMAXSQ", pp: pp66, mmmmm: map0F38, opcode: 0x3d, w: true, digit: noDigit, evex: true},
	VPMINSD:      {name: "VPMINSD", pp: pp66, mmmmm: map0F38, opcode: 0x39, digit: noDigit},
	VPMINSQ:      {name: "VPMINSQ", pp: pp66, mmmmm: map0F38, opcode: 0x39, w: true, digit: noDigit, evex: true},
	VPMULLD:      {name: "VPMULLD", pp: pp66, mmmmm: map0F38, opcode: 0x40, digit: noDigit},
	VPMULLQ:      {name: "VPMULLQ", pp: pp66, mmmmm: map0F38, opcode: 0x40, w: true, digit: noDigit, evex: true},
	VPOR:         {name: "VPOR", pp: pp66, mmmmm: map0F, opcode: 0xeb, digit: noDigit},
	VPSLLD:       {name: "VPSLLD", pp: pp66, mmmmm: map0F, opcode: 0x72, digit: 6, imm: true},
	VPSLLQ:       {name: "VPSLLQ", pp: pp66, mmmmm: map0F, opcode: 0x73, digit: 6, imm: true},
	VPSLLVD:      {name: "VPSLLVD", pp: pp66, mmmmm: map0F38, opcode: 0x47, digit: noDigit},
	VPSLLVQ:      {name: "VPSLLVQ", pp: pp66, mmmmm: map0F38, opcode: 0x47, w: true, digit: noDigit},
	VPSRAD:       {name: "VPSRAD", pp: pp66, mmmmm: map0F, opcode: 0x72, digit: 4, imm: true},
	VPSRAQ:       {name: "VPSRAQ", pp: pp66, mmmmm: map0F, opcode: 0x72, w: true, digit: 4, evex: true, imm: true},
	VPSRAVD:      {name: "VPSRAVD", pp: pp66, mmmmm: map0F38, opcode: 0x46, digit: noDigit},
	VPSRAVQ:      {name: "VPSRAVQ", pp: pp66, mmmmm: map0F38, opcode: 0x46, w: true, digit: noDigit, evex: true},
	VPSRLD:       {name: "VPSRLD", pp: pp66, mmmmm: map0F, opcode: 0x72, digit: 2, imm: true},
	VPSRLQ:       {name: "VPSRLQ", pp: pp66, mmmmm: map0F, opcode: 0x73, digit: 2, imm: true},
	VPSRLVD:      {name: "VPSRLVD", pp: pp66, mmmmm: map0F38, opcode: 0x45, digit: noDigit},
	VPSRLVQ:      {name: "VPSRLVQ", pp: pp66, mmmmm: map0F38, opcode: 0x45, w: true, digit: noDigit},
	VPSUBD:       {name: "VPSUBD", pp: pp66, mmmmm: map0F, opcode: 0xfa, digit: noDigit},
	VPSUBQ:       {name: "VPSUBQ", pp: pp66, mmmmm: map0F, opcode: 0xfb, digit: noDigit},
	VPXOR:        {name: "VPXOR", pp: pp66, mmmmm: map0F, opcode: 0xef, digit: noDigit},
	VRCP14PD:     {name: "VRCP14PD", pp: pp66, mmmmm: map0F38, opcode: 0x4c, w: true, digit: noDigit, evex: true},
	VRCP14PS:     {name: "VRCP14PS", pp: pp66, mmmmm: map0F38, opcode: 0x4c, digit: noDigit, evex: true},
	VRCPPS:       {name: "VRCPPS", pp: ppNone, mmmmm: map0F, opcode: 0x53, digit: noDigit},
	VROUNDPD:     {name: "VROUNDPD", pp: pp66, mmmmm: map0F3A, opcode: 0x09, digit: noDigit, imm: true},
	VROUNDPS:     {name: "VROUNDPS", pp: pp66, mmmmm: map0F3A, opcode: 0x08, digit: noDigit, imm: true},
	VRSQRT14PD:   {name: "VRSQRT14PD", pp: pp66, mmmmm: map0F38, opcode: 0x4e, w: true, digit: noDigit, evex: true},
	VRSQRT14PS:   {name: "VRSQRT14PS", pp: pp66, mmmmm: map0F38, opcode: 0x4e, digit: noDigit, evex: true},
	VRSQRTPS:     {name: "VRSQRTPS", pp: ppNone, mmmmm: map0F, opcode: 0x52, digit: noDigit},
	VSQRTPD:      {name: "VSQRTPD", pp: pp66, mmmmm: map0F, opcode: 0x51, digit: noDigit},
	VSQRTPS:      {name: "VSQRTPS", pp: ppNone, mmmmm: map0F, opcode: 0x51, digit: noDigit},
	VSQRTSD:      {name: "VSQRTSD", pp: ppF2, mmmmm: map0F, opcode: 0x51, digit: noDigit},
	VSQRTSS:      {name: "VSQRTSS", pp: ppF3, mmmmm: map0F, opcode: 0x51, digit: noDigit},
	VSTMXCSR:     {name: "VSTMXCSR", pp: ppNone, mmmmm: map0F, opcode: 0xae, digit: 3},
	VSUBPD:       {name: "VSUBPD", pp: pp66, mmmmm: map0F, opcode: 0x5c, digit: noDigit},
	VSUBPS:       {name: "VSUBPS", pp: ppNone, mmmmm: map0F, opcode: 0x5c, digit: noDigit},
	VXORPD:       {name: "VXORPD", pp: pp66, mmmmm: map0F, opcode: 0x57, digit: noDigit},
	VXORPS:       {name: "VXORPS", pp: ppNone, mmmmm: map0F, opcode: 0x57, digit: noDigit},
}

// InstructionName returns the name for an instruction
func InstructionName(instruction Instruction) string {
	if instruction < instructionEnd {
		return vexOpcodes[instruction].name
	}
	return "UNKNOWN"
}

// IsEVEX reports whether the instruction requires an EVEX prefix (AVX-512).
func IsEVEX(instruction Instruction) bool {
	return instruction < instructionEnd && vexOpcodes[instruction].evex
}

// Predicates of VCMPPS and VCMPPD.
const (
	CmpEQOQ  byte = 0x00
	CmpLTOS  byte = 0x01
	CmpLEOS  byte = 0x02
	CmpNEQUQ byte = 0x04
	CmpGEOS  byte = 0x0d
	CmpGTOS  byte = 0x0e
	CmpTRUE  byte = 0x0f
)

// Rounding controls of VROUNDPS and VROUNDPD.
const (
	RoundNearest byte = 0x00
	RoundDown    byte = 0x01
	RoundUp      byte = 0x02
	RoundTrunc   byte = 0x03
	RoundCurrent byte = 0x04
)
