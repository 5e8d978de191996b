package simd

import (
	"testing"

	"github.com/stretchr/testify/require"
	"golang.org/x/arch/x86/x86asm"

	"github.com/tetratelabs/unisimd/api"
	"github.com/tetratelabs/unisimd/internal/asm/amd64"
)

// legacyOps decodes the instructions written since offset from, skipping the VEX and
// EVEX encoded ones which x86asm does not know.
func legacyOps(t *testing.T, e *Encoder, from int) []x86asm.Op {
	code := e.Bytes()
	var ret []x86asm.Op
	start := from
	for _, end := range e.Boundaries(from) {
		switch code[start] {
		case 0xc4, 0xc5, 0x62:
		default:
			inst, err := x86asm.Decode(code[start:end], 64)
			require.NoError(t, err, "at %d", start)
			require.Equal(t, end-start, inst.Len, "%s", inst)
			ret = append(ret, inst.Op)
		}
		start = end
	}
	return ret
}

func TestAMD64_native(t *testing.T) {
	for _, tc := range []struct {
		name     string
		op       api.Op
		shape    api.Shape
		operands []api.Operand
		exp      func(a *amd64.Assembler) error
	}{
		{
			name: "add", op: api.Add, shape: api.F32x8,
			operands: []api.Operand{api.V256(0), api.V256(1), api.V256(2)},
			exp: func(a *amd64.Assembler) error {
				return a.EncodeVEX(amd64.VADDPS, amd64.L256, 0, 1, amd64.RegOperand(2))
			},
		},
		{
			name: "add memory", op: api.Add, shape: api.I64x2,
			operands: []api.Operand{api.V128(3), api.V128(4), api.Mem(api.GPR(5), 64)},
			exp: func(a *amd64.Assembler) error {
				return a.EncodeVEX(amd64.VPADDQ, amd64.L128, 3, 4, amd64.MemOperand(amd64.Mem(amd64.RBP, 64)))
			},
		},
		{
			name: "and not", op: api.AndNot, shape: api.I32x4,
			operands: []api.Operand{api.V128(0), api.V128(1), api.V128(2)},
			exp: func(a *amd64.Assembler) error {
				return a.EncodeVEX(amd64.VPANDN, amd64.L128, 0, 1, amd64.RegOperand(2))
			},
		},
		{
			name: "store", op: api.Move, shape: api.F64x4,
			operands: []api.Operand{api.Mem(api.GPR(6), 32), api.V256(7)},
			exp: func(a *amd64.Assembler) error {
				return a.EncodeVEX(amd64.VMOVUPSstore, amd64.L256, 7, 0, amd64.MemOperand(amd64.Mem(amd64.RSI, 32)))
			},
		},
		{
			name: "masked move", op: api.MoveMasked, shape: api.F32x4,
			operands: []api.Operand{api.V128(1), api.V128(2)},
			exp: func(a *amd64.Assembler) error {
				return a.EncodeVEXImm(amd64.VBLENDVPS, amd64.L128, 1, 1, amd64.RegOperand(2), 0x00)
			},
		},
		{
			name: "masked store", op: api.MoveMasked, shape: api.I64x4,
			operands: []api.Operand{api.Mem(api.GPR(7), 0), api.V256(2)},
			exp: func(a *amd64.Assembler) error {
				return a.EncodeVEX(amd64.VMASKMOVPD, amd64.L256, 2, 0, amd64.MemOperand(amd64.Mem(amd64.RDI, 0)))
			},
		},
		{
			name: "fma", op: api.FMA, shape: api.F64x2,
			operands: []api.Operand{api.V128(0), api.V128(1), api.V128(2)},
			exp: func(a *amd64.Assembler) error {
				return a.EncodeVEX(amd64.VFMADD231PD, amd64.L128, 0, 1, amd64.RegOperand(2))
			},
		},
		{
			name: "compare less than", op: api.CmpLT, shape: api.I32x8,
			operands: []api.Operand{api.V256(0), api.V256(1), api.V256(2)},
			exp: func(a *amd64.Assembler) error {
				return a.EncodeVEX(amd64.VPCMPGTD, amd64.L256, 0, 2, amd64.RegOperand(1))
			},
		},
		{
			name: "round up", op: api.RoundP, shape: api.F64x4,
			operands: []api.Operand{api.V256(3), api.V256(4)},
			exp: func(a *amd64.Assembler) error {
				return a.EncodeVEXImm(amd64.VROUNDPD, amd64.L256, 3, 0, amd64.RegOperand(4), amd64.RoundUp)
			},
		},
		{
			name: "variable shift", op: api.ShrVar, shape: api.I64x4,
			operands: []api.Operand{api.V256(0), api.V256(1), api.V256(2)},
			exp: func(a *amd64.Assembler) error {
				return a.EncodeVEX(amd64.VPSRLVQ, amd64.L256, 0, 1, amd64.RegOperand(2))
			},
		},
	} {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			e := newTestEncoder(t, testConfig(api.FamilyAMD64))
			_, err := e.Emit(tc.op, tc.shape, tc.operands...)
			require.NoError(t, err)

			ref := refAMD64()
			require.NoError(t, tc.exp(ref))
			require.Equal(t, ref.Buffer().Bytes(), e.Bytes())
		})
	}
}

func TestAMD64_shiftCountTruncated(t *testing.T) {
	for _, s := range []api.Shape{api.I32x4, api.I32x8, api.I64x2, api.I64x4} {
		reg := api.V128
		if s.Width == api.Width256 {
			reg = api.V256
		}
		e := newTestEncoder(t, testConfig(api.FamilyAMD64))
		_, err := e.Emit(api.ShlImm, s, reg(0), reg(1), api.Imm(1))
		require.NoError(t, err)
		exp := append([]byte(nil), e.Bytes()...)

		e.Reset()
		_, err = e.Emit(api.ShlImm, s, reg(0), reg(1), api.Imm(int64(s.Elem.Bits())+1))
		require.NoError(t, err)
		require.Equal(t, exp, e.Bytes(), s.String())
	}
}

func TestAMD64_staging(t *testing.T) {
	e := newTestEncoder(t, testConfig(api.FamilyAMD64))
	_, err := e.Emit(api.Move, api.F32x8, api.V256(0), api.Mem(api.GPR(3), 1<<40))
	require.NoError(t, err)

	ref := refAMD64()
	ref.MovAbs(amd64.R11, 1<<40)
	require.NoError(t, ref.LeaQ(amd64.R11, amd64.MemIndex(amd64.RBX, amd64.R11, 1, 0)))
	require.NoError(t, ref.EncodeVEX(amd64.VMOVUPS, amd64.L256, 0, 0, amd64.MemOperand(amd64.Mem(amd64.R11, 0))))
	require.Equal(t, ref.Buffer().Bytes(), e.Bytes())

	t.Run("base is the staging register", func(t *testing.T) {
		e.Reset()
		_, err = e.Emit(api.Move, api.F32x8, api.V256(0), api.Mem(api.GPR(11), -1<<40))
		require.NoError(t, err)

		var disp int64 = -1 << 40
		ref := refAMD64()
		ref.MovAbs(amd64.R10, uint64(disp))
		require.NoError(t, ref.LeaQ(amd64.R10, amd64.MemIndex(amd64.R11, amd64.R10, 1, 0)))
		require.NoError(t, ref.EncodeVEX(amd64.VMOVUPS, amd64.L256, 0, 0, amd64.MemOperand(amd64.Mem(amd64.R10, 0))))
		require.Equal(t, ref.Buffer().Bytes(), e.Bytes())
	})
}

func TestAMD64_pairing(t *testing.T) {
	cfg := testConfig(api.FamilyAMD64)
	cfg.Features = api.FeaturesAMD64 | api.FeatureFMA
	e := newTestEncoder(t, cfg)

	_, err := e.Emit(api.Add, api.I32x8, api.V256(0), api.V256(1), api.V256(2))
	require.NoError(t, err)

	ref := refAMD64()
	a, b := amd64.Mem(amd64.RBX, 0), amd64.Mem(amd64.RBX, RegionSize)
	require.NoError(t, ref.EncodeVEX(amd64.VMOVUPSstore, amd64.L256, 1, 0, amd64.MemOperand(a)))
	require.NoError(t, ref.EncodeVEX(amd64.VMOVUPSstore, amd64.L256, 2, 0, amd64.MemOperand(b)))
	require.NoError(t, ref.EncodeVEX(amd64.VMOVUPS, amd64.L128, 14, 0, amd64.MemOperand(a)))
	require.NoError(t, ref.EncodeVEX(amd64.VPADDD, amd64.L128, 14, 14, amd64.MemOperand(b)))
	require.NoError(t, ref.EncodeVEX(amd64.VMOVUPS, amd64.L128, 15, 0, amd64.MemOperand(a.Offset(16))))
	require.NoError(t, ref.EncodeVEX(amd64.VPADDD, amd64.L128, 15, 15, amd64.MemOperand(b.Offset(16))))
	require.NoError(t, ref.EncodeVEXImm(amd64.VINSERTF128, amd64.L256, 0, 14, amd64.RegOperand(15), 1))
	require.Equal(t, ref.Buffer().Bytes(), e.Bytes())

	t.Run("bitwise uses float forms", func(t *testing.T) {
		e.Reset()
		_, err = e.Emit(api.Xor, api.I64x4, api.V256(0), api.V256(1), api.V256(2))
		require.NoError(t, err)
		require.Equal(t, 1, len(e.Boundaries(0)))
	})

	t.Run("int32 to float conversion is whole", func(t *testing.T) {
		e.Reset()
		_, err = e.Emit(api.CvtToFloat, api.I32x8, api.V256(0), api.V256(1))
		require.NoError(t, err)

		ref := refAMD64()
		require.NoError(t, ref.EncodeVEX(amd64.VCVTDQ2PS, amd64.L256, 0, 0, amd64.RegOperand(1)))
		require.Equal(t, ref.Buffer().Bytes(), e.Bytes())
	})
}

func TestAMD64_scalarDivide(t *testing.T) {
	e := newTestEncoder(t, testConfig(api.FamilyAMD64))
	_, err := e.Emit(api.Div, api.I32x4, api.V128(0), api.V128(1), api.V128(2))
	require.NoError(t, err)

	exp := []x86asm.Op{x86asm.PUSH, x86asm.PUSH}
	for i := 0; i < 4; i++ {
		exp = append(exp, x86asm.MOV, x86asm.CDQ, x86asm.IDIV, x86asm.MOV)
	}
	exp = append(exp, x86asm.POP, x86asm.POP)
	require.Equal(t, exp, legacyOps(t, e, 0))
}

func TestAMD64_scalarShift(t *testing.T) {
	e := newTestEncoder(t, testConfig(api.FamilyAMD64))
	_, err := e.Emit(api.SarVar, api.I64x2, api.V128(0), api.V128(1), api.V128(2))
	require.NoError(t, err)

	exp := []x86asm.Op{x86asm.PUSH, x86asm.PUSH}
	for i := 0; i < 2; i++ {
		exp = append(exp, x86asm.MOV, x86asm.MOV, x86asm.SAR, x86asm.MOV)
	}
	exp = append(exp, x86asm.POP, x86asm.POP)
	require.Equal(t, exp, legacyOps(t, e, 0))
}

func TestAMD64_fmaX87(t *testing.T) {
	lanes := func(n int, ops ...x86asm.Op) (ret []x86asm.Op) {
		for i := 0; i < n; i++ {
			ret = append(ret, ops...)
		}
		return
	}
	for _, tc := range []struct {
		name    string
		fmr     api.FMRMode
		control []x86asm.Op
	}{
		{name: "default", fmr: api.FMRDefault, control: []x86asm.Op{x86asm.MOV}},
		{
			name: "honor current rounding", fmr: api.FMRHonorCurrent,
			control: []x86asm.Op{x86asm.MOV, x86asm.SHR, x86asm.AND, x86asm.OR, x86asm.MOV},
		},
	} {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			cfg := testConfig(api.FamilyAMD64)
			cfg.Compat.FMA, cfg.Compat.FMR = api.TierScalar, tc.fmr
			e := newTestEncoder(t, cfg)
			_, err := e.Emit(api.FMS, api.F32x4, api.V128(0), api.V128(1), api.V128(2))
			require.NoError(t, err)

			exp := []x86asm.Op{x86asm.PUSH, x86asm.SUB, x86asm.FNSTCW}
			exp = append(exp, tc.control...)
			exp = append(exp, x86asm.FLDCW)
			exp = append(exp, lanes(4, x86asm.FLD, x86asm.FMUL)...)
			exp = append(exp, lanes(4, x86asm.FSUBR, x86asm.FSTP)...)
			exp = append(exp, x86asm.FLDCW, x86asm.ADD, x86asm.POP)
			require.Equal(t, exp, legacyOps(t, e, 0))
		})
	}
}

func TestAMD64_refinement(t *testing.T) {
	for _, tc := range []struct {
		name     string
		features api.Feature
		shape    api.Shape
		// steps is the number of instructions after the estimate.
		estimate, steps int
	}{
		// rcpps then two fused steps of three instructions.
		{name: "f32", features: api.FeaturesAMD64 | api.FeatureAVX2 | api.FeatureFMA, shape: api.F32x8, estimate: 1, steps: 2 * 3},
		// Doubles are estimated through single precision and take three steps.
		{name: "f64", features: api.FeaturesAMD64 | api.FeatureAVX2 | api.FeatureFMA, shape: api.F64x4, estimate: 3, steps: 3 * 3},
		// vrcp14pd is good for 14 bits.
		{name: "f64 avx512", features: api.FeaturesAMD64 | api.FeatureAVX2 | api.FeatureFMA | api.FeatureAVX512, shape: api.F64x4, estimate: 1, steps: 2 * 3},
	} {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			cfg := testConfig(api.FamilyAMD64)
			cfg.Features = tc.features
			e := newTestEncoder(t, cfg)
			_, err := e.Emit(api.Rcp, tc.shape, api.V256(0), api.V256(1))
			require.NoError(t, err)
			// The result is moved out of the hidden register.
			require.Equal(t, tc.estimate+tc.steps+1, len(e.Boundaries(0)))
		})
	}
}

func TestAMD64_registerFile(t *testing.T) {
	e := newTestEncoder(t, testConfig(api.FamilyAMD64))
	m := api.Mem(api.GPR(3), 256)
	_, err := e.SaveAll(m)
	require.NoError(t, err)
	saved := len(e.Bytes())
	_, err = e.LoadAll(m)
	require.NoError(t, err)

	store, load := refAMD64(), refAMD64()
	for k, r := range []amd64.Register{0, 1, 2, 3, 4, 5, 6, 7, 8, 9, 10, 11, 12, 13, 14, 15} {
		slot := amd64.MemOperand(amd64.Mem(amd64.RBX, int32(256+k*RegionSize)))
		require.NoError(t, store.EncodeVEX(amd64.VMOVUPSstore, amd64.L256, r, 0, slot))
		require.NoError(t, load.EncodeVEX(amd64.VMOVUPS, amd64.L256, r, 0, slot))
	}
	require.Equal(t, store.Buffer().Bytes(), e.Bytes()[:saved])
	require.Equal(t, load.Buffer().Bytes(), e.Bytes()[saved:])
}
