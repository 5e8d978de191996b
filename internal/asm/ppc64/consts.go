package ppc64

import "fmt"

// Register is the 5-bit number of a general purpose, floating point or vector register.
// Which file it names is implied by the instruction.
type Register byte

// General purpose registers with a fixed role in the ABI.
const (
	// R0 reads as zero when used as the RA operand of most loads, stores and addi.
	R0 Register = 0
	// R1 is the stack pointer.
	R1 Register = 1
	// R2 is the TOC pointer.
	R2 Register = 2
	// R13 is the thread pointer.
	R13 Register = 13
)

// NumRegisters is the size of each of the general purpose, floating point and vector
// register files.
const NumRegisters = 32

// RegisterName returns the name of the general purpose register.
func RegisterName(r Register) string {
	return fmt.Sprintf("r%d", r)
}

// Instruction is a Power ISA instruction. Names follow the ISA mnemonics.
type Instruction byte

const (
	NONE Instruction = iota
	ADD
	ADDI
	ADDIS
	DIVD
	DIVW
	FDIV
	FDIVS
	FSQRT
	FSQRTS
	LD
	LFD
	LFS
	LWZ
	LXVD2X
	LXVW4X
	MFFS
	MTFSB0
	MTFSF
	MULLD
	MULLW
	OR
	ORI
	ORIS
	RLDICR
	SLD
	SLW
	SRAD
	SRAW
	SRD
	SRW
	STD
	STFD
	STFS
	STW
	STXVD2X
	STXVW4X
	VADDUDM
	VADDUWM
	VAND
	VANDC
	VCMPEQUD
	VCMPEQUW
	VCMPGTSD
	VCMPGTSW
	VDIVSD
	VDIVSW
	VMAXSD
	VMAXSW
	VMINSD
	VMINSW
	VMULLD
	VMULUWM
	VNOR
	VOR
	VORC
	VSEL
	VSLD
	VSLW
	VSPLTISW
	VSPLTW
	VSRAD
	VSRAW
	VSRD
	VSRW
	VSUBUDM
	VSUBUWM
	VXOR
	XVABSDP
	XVABSSP
	XVADDDP
	XVADDSP
	XVCMPEQDP
	XVCMPEQSP
	XVCMPGEDP
	XVCMPGESP
	XVCMPGTDP
	XVCMPGTSP
	XVCVDPSXDS
	XVCVSPSXWS
	XVCVSXDDP
	XVCVSXWSP
	XVDIVDP
	XVDIVSP
	XVMADDADP
	XVMADDASP
	XVMAXDP
	XVMAXSP
	XVMINDP
	XVMINSP
	XVMULDP
	XVMULSP
	XVNEGDP
	XVNEGSP
	XVNMSUBADP
	XVNMSUBASP
	XVRDPIC
	XVRDPIM
	XVRDPIP
	XVRDPIZ
	XVREDP
	XVRESP
	XVRSPIC
	XVRSPIM
	XVRSPIP
	XVRSPIZ
	XVRSQRTEDP
	XVRSQRTESP
	XVSQRTDP
	XVSQRTSP
	XVSUBDP
	XVSUBSP
	XXSEL

	instructionEnd
)

// Form is the instruction format, which fixes the position of every field in the word.
type Form byte

const (
	FormNone Form = iota
	FormVX
	FormVC
	FormVA
	FormXX1
	FormXX2
	FormXX3
	FormXX4
	FormD
	FormDS
	FormX
	FormXO
	FormMD
	FormA
	FormXFL
)

var formNames = [...]string{
	FormNone: "none", FormVX: "VX", FormVC: "VC", FormVA: "VA", FormXX1: "XX1", FormXX2: "XX2",
	FormXX3: "XX3", FormXX4: "XX4", FormD: "D", FormDS: "DS", FormX: "X", FormXO: "XO",
	FormMD: "MD", FormA: "A", FormXFL: "XFL",
}

// String implements fmt.Stringer.
func (f Form) String() string {
	if int(f) < len(formNames) {
		return formNames[f]
	}
	return fmt.Sprintf("Form(%d)", f)
}

type opcode struct {
	name    string
	form    Form
	primary uint32
	// xo is the extended opcode, already including any fixed bit (Rc, OE) of the form.
	xo uint32
}

var opcodes = [...]opcode{
	NONE:       {name: "NONE"},
	ADD:        {name: "ADD", form: FormXO, primary: 31, xo: 266},
	ADDI:       {name: "ADDI", form: FormD, primary: 14},
	ADDIS:      {name: "ADDIS", form: FormD, primary: 15},
	DIVD:       {name: "DIVD", form: FormXO, primary: 31, xo: 489},
	DIVW:       {name: "DIVW", form: FormXO, primary: 31, xo: 491},
	FDIV:       {name: "FDIV", form: FormA, primary: 63, xo: 18},
	FDIVS:      {name: "FDIVS", form: FormA, primary: 59, xo: 18},
	FSQRT:      {name: "FSQRT", form: FormA, primary: 63, xo: 22},
	FSQRTS:     {name: "FSQRTS", form: FormA, primary: 59, xo: 22},
	LD:         {name: "LD", form: FormDS, primary: 58, xo: 0},
	LFD:        {name: "LFD", form: FormD, primary: 50},
	LFS:        {name: "LFS", form: FormD, primary: 48},
	LWZ:        {name: "LWZ", form: FormD, primary: 32},
	LXVD2X:     {name: "LXVD2X", form: FormXX1, primary: 31, xo: 844},
	LXVW4X:     {name: "LXVW4X", form: FormXX1, primary: 31, xo: 780},
	MFFS:       {name: "MFFS", form: FormX, primary: 63, xo: 583},
	MTFSB0:     {name: "MTFSB0", form: FormX, primary: 63, xo: 70},
	MTFSF:      {name: "MTFSF", form: FormXFL, primary: 63, xo: 711},
	MULLD:      {name: "MULLD", form: FormXO, primary: 31, xo: 233},
	MULLW:      {name: "MULLW", form: FormXO, primary: 31, xo: 235},
	OR:         {name: "OR", form: FormX, primary: 31, xo: 444},
	ORI:        {name: "ORI", form: FormD, primary: 24},
	ORIS:       {name: "ORIS", form: FormD, primary: 25},
	RLDICR:     {name: "RLDICR", form: FormMD, primary: 30, xo: 1},
	SLD:        {name: "SLD", form: FormX, primary: 31, xo: 27},
	SLW:        {name: "SLW", form: FormX, primary: 31, xo: 24},
	SRAD:       {name: "SRAD", form: FormX, primary: 31, xo: 794},
	SRAW:       {name: "SRAW", form: FormX, primary: 31, xo: 792},
	SRD:        {name: "SRD", form: FormX, primary: 31, xo: 539},
	SRW:        {name: "SRW", form: FormX, primary: 31, xo: 536},
	STD:        {name: "STD", form: FormDS, primary: 62, xo: 0},
	STFD:       {name: "STFD", form: FormD, primary: 54},
	STFS:       {name: "STFS", form: FormD, primary: 52},
	STW:        {name: "STW", form: FormD, primary: 36},
	STXVD2X:    {name: "STXVD2X", form: FormXX1, primary: 31, xo: 972},
	STXVW4X:    {name: "STXVW4X", form: FormXX1, primary: 31, xo: 908},
	VADDUDM:    {name: "VADDUDM", form: FormVX, primary: 4, xo: 192},
	VADDUWM:    {name: "VADDUWM", form: FormVX, primary: 4, xo: 128},
	VAND:       {name: "VAND", form: FormVX, primary: 4, xo: 1028},
	VANDC:      {name: "VANDC", form: FormVX, primary: 4, xo: 1092},
	VCMPEQUD:   {name: "VCMPEQUD", form: FormVC, primary: 4, xo: 199},
	VCMPEQUW:   {name: "VCMPEQUW", form: FormVC, primary: 4, xo: 134},
	VCMPGTSD:   {name: "VCMPGTSD", form: FormVC, primary: 4, xo: 967},
	VCMPGTSW:   {name: "VCMPGTSW", form: FormVC, primary: 4, xo: 902},
	VDIVSD:     {name: "VDIVSD", form: FormVX, primary: 4, xo: 459},
	VDIVSW:     {name: "VDIVSW", form: FormVX, primary: 4, xo: 395},
	VMAXSD:     {name: "VMAXSD", form: FormVX, primary: 4, xo: 450},
	VMAXSW:     {name: "VMAXSW", form: FormVX, primary: 4, xo: 386},
	VMINSD:     {name: "VMINSD", form: FormVX, primary: 4, xo: 962},
	VMINSW:     {name: "VMINSW", form: FormVX, primary: 4, xo: 898},
	VMULLD:     {name: "VMULLD", form: FormVX, primary: 4, xo: 457},
	VMULUWM:    {name: "VMULUWM", form: FormVX, primary: 4, xo: 137},
	VNOR:       {name: "VNOR", form: FormVX, primary: 4, xo: 1284},
	VOR:        {name: "VOR", form: FormVX, primary: 4, xo: 1156},
	VORC:       {name: "VORC", form: FormVX, primary: 4, xo: 1348},
	VSEL:       {name: "VSEL", form: FormVA, primary: 4, xo: 42},
	VSLD:       {name: "VSLD", form: FormVX, primary: 4, xo: 1476},
	VSLW:       {name: "VSLW", form: FormVX, primary: 4, xo: 388},
	VSPLTISW:   {name: "VSPLTISW", form: FormVX, primary: 4, xo: 908},
	VSPLTW:     {name: "VSPLTW", form: FormVX, primary: 4, xo: 652},
	VSRAD:      {name: "VSRAD", form: FormVX, primary: 4, xo: 964},
	VSRAW:      {name: "VSRAW", form: FormVX, primary: 4, xo: 900},
	VSRD:       {name: "VSRD", form: FormVX, primary: 4, xo: 1732},
	VSRW:       {name: "VSRW", form: FormVX, primary: 4, xo: 644},
	VSUBUDM:    {name: "VSUBUDM", form: FormVX, primary: 4, xo: 1216},
	VSUBUWM:    {name: "VSUBUWM", form: FormVX, primary: 4, xo: 1152},
	VXOR:       {name: "VXOR", form: FormVX, primary: 4, xo: 1220},
	XVABSDP:    {name: "XVABSDP", form: FormXX2, primary: 60, xo: 473},
	XVABSSP:    {name: "XVABSSP", form: FormXX2, primary: 60, xo: 409},
	XVADDDP:    {name: "XVADDDP", form: FormXX3, primary: 60, xo: 96},
	XVADDSP:    {name: "XVADDSP", form: FormXX3, primary: 60, xo: 64},
	XVCMPEQDP:  {name: "XVCMPEQDP", form: FormXX3, primary: 60, xo: 99},
	XVCMPEQSP:  {name: "XVCMPEQSP", form: FormXX3, primary: 60, xo: 67},
	XVCMPGEDP:  {name: "XVCMPGEDP", form: FormXX3, primary: 60, xo: 115},
	XVCMPGESP:  {name: "XVCMPGESP", form: FormXX3, primary: 60, xo: 83},
	XVCMPGTDP:  {name: "XVCMPGTDP", form: FormXX3, primary: 60, xo: 107},
	XVCMPGTSP:  {name: "XVCMPGTSP", form: FormXX3, primary: 60, xo: 75},
	XVCVDPSXDS: {name: "XVCVDPSXDS", form: FormXX2, primary: 60, xo: 472},
	XVCVSPSXWS: {name: "XVCVSPSXWS", form: FormXX2, primary: 60, xo: 152},
	XVCVSXDDP:  {name: "XVCVSXDDP", form: FormXX2, primary: 60, xo: 504},
	XVCVSXWSP:  {name: "XVCVSXWSP", form: FormXX2, primary: 60, xo: 184},
	XVDIVDP:    {name: "XVDIVDP", form: FormXX3, primary: 60, xo: 120},
	XVDIVSP:    {name: "XVDIVSP", form: FormXX3, primary: 60, xo: 88},
	XVMADDADP:  {name: "XVMADDADP", form: FormXX3, primary: 60, xo: 97},
	XVMADDASP:  {name: "XVMADDASP", form: FormXX3, primary: 60, xo: 65},
	XVMAXDP:    {name: "XVMAXDP", form: FormXX3, primary: 60, xo: 224},
	XVMAXSP:    {name: "XVMAXSP", form: FormXX3, primary: 60, xo: 192},
	XVMINDP:    {name: "XVMINDP", form: FormXX3, primary: 60, xo: 232},
	XVMINSP:    {name: "XVMINSP", form: FormXX3, primary: 60, xo: 200},
	XVMULDP:    {name: "XVMULDP", form: FormXX3, primary: 60, xo: 112},
	XVMULSP:    {name: "XVMULSP", form: FormXX3, primary: 60, xo: 80},
	XVNEGDP:    {name: "XVNEGDP", form: FormXX2, primary: 60, xo: 505},
	XVNEGSP:    {name: "XVNEGSP", form: FormXX2, primary: 60, xo: 441},
	XVNMSUBADP: {name: "XVNMSUBADP", form: FormXX3, primary: 60, xo: 241},
	XVNMSUBASP: {name: "XVNMSUBASP", form: FormXX3, primary: 60, xo: 209},
	XVRDPIC:    {name: "XVRDPIC", form: FormXX2, primary: 60, xo: 235},
	XVRDPIM:    {name: "XVRDPIM", form: FormXX2, primary: 60, xo: 249},
	XVRDPIP:    {name: "XVRDPIP", form: FormXX2, primary: 60, xo: 233},
	XVRDPIZ:    {name: "XVRDPIZ", form: FormXX2, primary: 60, xo: 217},
	XVREDP:     {name: "XVREDP", form: FormXX2, primary: 60, xo: 218},
	XVRESP:     {name: "XVRESP", form: FormXX2, primary: 60, xo: 154},
	XVRSPIC:    {name: "XVRSPIC", form: FormXX2, primary: 60, xo: 171},
	XVRSPIM:    {name: "XVRSPIM", form: FormXX2, primary: 60, xo: 185},
	XVRSPIP:    {name: "XVRSPIP", form: FormXX2, primary: 60, xo: 169},
	XVRSPIZ:    {name: "XVRSPIZ", form: FormXX2, primary: 60, xo: 153},
	XVRSQRTEDP: {name: "XVRSQRTEDP", form: FormXX2, primary: 60, xo: 202},
	XVRSQRTESP: {name: "XVRSQRTESP", form: FormXX2, primary: 60, xo: 138},
	XVSQRTDP:   {name: "XVSQRTDP", form: FormXX2, primary: 60, xo: 203},
	XVSQRTSP:   {name: "XVSQRTSP", form: FormXX2, primary: 60, xo: 139},
	XVSUBDP:    {name: "XVSUBDP", form: FormXX3, primary: 60, xo: 104},
	XVSUBSP:    {name: "XVSUBSP", form: FormXX3, primary: 60, xo: 72},
	XXSEL:      {name: "XXSEL", form: FormXX4, primary: 60, xo: 3},
}

// InstructionName returns the name for an instruction
func InstructionName(instruction Instruction) string {
	if instruction < instructionEnd {
		return opcodes[instruction].name
	}
	return "UNKNOWN"
}

// InstructionForm returns the format of an instruction.
func InstructionForm(instruction Instruction) Form {
	if instruction < instructionEnd {
		return opcodes[instruction].form
	}
	return FormNone
}

// FPSCR bits cleared by MTFSB0 to select round to nearest even.
const (
	FPSCRRN0 = 30
	FPSCRRN1 = 31
)
