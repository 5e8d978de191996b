package simd

import (
	"encoding/binary"
	"math"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/tetratelabs/unisimd/api"
	"github.com/tetratelabs/unisimd/internal/asm/ppc64"
)

func TestConstantPool(t *testing.T) {
	pool := ConstantPool(binary.LittleEndian)
	require.Equal(t, int(ConstantPoolSize), len(pool))

	lanes32 := func(c Constant) []uint32 {
		var ret []uint32
		b := pool[constantOffset(c, api.Float32):]
		for i := 0; i < RegionSize; i += 4 {
			ret = append(ret, binary.LittleEndian.Uint32(b[i:]))
		}
		return ret
	}
	lanes64 := func(c Constant) []uint64 {
		var ret []uint64
		b := pool[constantOffset(c, api.Float64):]
		for i := 0; i < RegionSize; i += 8 {
			ret = append(ret, binary.LittleEndian.Uint64(b[i:]))
		}
		return ret
	}
	for _, v := range lanes32(ConstHalf) {
		require.Equal(t, float32(0.5), math.Float32frombits(v))
	}
	for _, v := range lanes64(ConstThreeHalves) {
		require.Equal(t, 1.5, math.Float64frombits(v))
	}
	for _, v := range lanes32(ConstSign) {
		require.Equal(t, uint32(0x80000000), v)
	}
	for _, v := range lanes64(ConstAbs) {
		require.Equal(t, uint64(0x7fffffffffffffff), v)
	}
	for _, b := range pool[constantOffset(ConstOnes, api.Int64):] {
		require.Equal(t, byte(0xff), b)
	}
}

func TestConstantPool_bigEndian(t *testing.T) {
	pool := ConstantPool(binary.BigEndian)
	off := constantOffset(ConstOne, api.Float64)
	require.Equal(t, []byte{0x3f, 0xf0, 0, 0, 0, 0, 0, 0}, pool[off:off+8])
	off = constantOffset(ConstTwo, api.Float32)
	require.Equal(t, []byte{0x40, 0, 0, 0}, pool[off:off+4])
}

func TestConstantOffset(t *testing.T) {
	require.Equal(t, int64(0), constantOffset(ConstOne, api.Float32))
	require.Equal(t, int64(0), constantOffset(ConstOne, api.Int32))
	require.Equal(t, int64(RegionSize), constantOffset(ConstTwo, api.Float32))
	require.Equal(t, int64(constantCount)*RegionSize, constantOffset(ConstOne, api.Float64))
	require.Equal(t, ConstantPoolSize-RegionSize, constantOffset(ConstOnes, api.Int64))
}

func TestSelectScratchOrBase(t *testing.T) {
	l := DefaultLayout(api.FamilyAMD64)
	for _, tc := range []struct {
		name string
		m    api.Memory
		exp  uint8
		err  bool
	}{
		{name: "base", m: api.Mem(api.GPR(3), 8), exp: 11},
		{name: "base is TP", m: api.Mem(api.GPR(11), 8), exp: 10},
		{name: "index is TP", m: api.MemIndexed(api.GPR(3), api.GPR(11), 4, 0), exp: 10},
		{name: "absolute", m: api.MemAbsolute(1 << 40), exp: 11},
		{name: "both", m: api.MemIndexed(api.GPR(10), api.GPR(11), 1, 0), err: true},
	} {
		r, err := selectScratchOrBase(&l, tc.m)
		if tc.err {
			require.ErrorIs(t, err, api.ErrInvalidOperand, tc.name)
			continue
		}
		require.NoError(t, err, tc.name)
		require.Equal(t, tc.exp, r, tc.name)
	}
}

func TestPair(t *testing.T) {
	p := pairOf(5)
	require.Equal(t, [2]uint8{5, 21}, p.Halves())
	require.Equal(t, []ppc64.Register{5, 21}, halves(api.I32x8, 5))
	require.Equal(t, []ppc64.Register{5}, halves(api.I32x4, 5))
}
